package session

import (
	"fmt"
	"time"

	"github.com/neurlang/wayland/wl"
	"github.com/neurlang/wayland/wlclient"

	"github.com/backdrop-wl/backdrop/internal/render"
	"github.com/backdrop-wl/backdrop/internal/shm"
	"github.com/backdrop-wl/backdrop/xdgshell"
)

// createSurface builds the surface and its toplevel role, then blocks in a
// dispatch-until-configured loop. Nothing else needs servicing yet: no
// window exists until the first configure is acknowledged.
func (s *Session) createSurface() error {
	surface, err := s.compositor.CreateSurface()
	if err != nil {
		return fmt.Errorf("create surface: %w", err)
	}
	s.surface = surface

	xdgSurface, err := s.wmBase.GetXdgSurface(surface)
	if err != nil {
		return fmt.Errorf("create xdg surface: %w", err)
	}
	s.xdgSurface = xdgSurface
	xdgshell.SurfaceAddListener(xdgSurface, s)

	toplevel, err := xdgSurface.GetToplevel()
	if err != nil {
		return fmt.Errorf("create toplevel: %w", err)
	}
	s.toplevel = toplevel
	xdgshell.ToplevelAddListener(toplevel, s)

	if err := toplevel.SetTitle(windowTitle); err != nil {
		return fmt.Errorf("set title: %w", err)
	}
	if err := toplevel.SetAppId(windowAppID); err != nil {
		return fmt.Errorf("set app id: %w", err)
	}

	s.out = &surfaceOutput{shm: s.shm, surface: surface, xdg: xdgSurface}

	if err := surface.Commit(); err != nil {
		return fmt.Errorf("initial commit: %w", err)
	}

	s.awaitingConfigure = true
	for s.awaitingConfigure {
		if err := wlclient.DisplayRoundtrip(s.display); err != nil {
			return fmt.Errorf("await initial configure: %w", err)
		}
		if quit := s.drainPending(); quit {
			return fmt.Errorf("during startup: %w", ErrClosed)
		}
	}
	return nil
}

// drainPending processes events queued by the handshake roundtrips.
func (s *Session) drainPending() bool {
	for {
		select {
		case ev := <-s.events:
			if quit := s.handleEvent(ev); quit {
				return true
			}
		default:
			return false
		}
	}
}

// handleEvent applies one compositor event to the session state. It returns
// true when the event asks for teardown.
func (s *Session) handleEvent(ev event) bool {
	switch ev := ev.(type) {
	case surfaceConfigured:
		// Echo the exact serial, commit, and the session is ready.
		if err := s.out.AckConfigure(ev.serial); err != nil {
			s.log.Warn("ack configure", "error", err)
		}
		if err := s.out.Commit(); err != nil {
			s.log.Warn("commit after configure", "error", err)
		}
		s.awaitingConfigure = false
	case toplevelConfigured:
		s.applyResize(ev.width, ev.height)
	case toplevelClosed:
		return true
	}
	return false
}

// applyResize reallocates the pixel buffer for an accepted resize proposal.
// The old buffer is destroyed only after the replacement has been attached
// and committed, so the surface is never left without a valid buffer.
func (s *Session) applyResize(width, height int32) {
	if s.awaitingConfigure {
		// Until the initial configure is acked there is no buffer a
		// resize could be rendered into.
		s.log.Debug("ignoring resize before initial configure", "width", width, "height", height)
		return
	}
	if !acceptsResize(s.width, s.height, width, height) {
		return
	}

	old := s.buffer
	buf, err := s.out.Allocate(width, height)
	if err != nil {
		s.log.Error("allocate resized buffer", "width", width, "height", height, "error", err)
		return
	}

	s.width, s.height = width, height
	s.paint.Draw(buf.Pix(), width, height, s.frameState())
	if err := s.out.Present(buf, width, height); err != nil {
		s.log.Warn("present resized buffer", "error", err)
	}
	s.buffer = buf

	if old != nil {
		old.Destroy()
	}
	s.log.Debug("window resized", "width", width, "height", height)
}

// acceptsResize accepts any proposal with non-zero dimensions where either
// dimension differs from the current geometry.
func acceptsResize(curWidth, curHeight, width, height int32) bool {
	return width > 0 && height > 0 && (width != curWidth || height != curHeight)
}

// redraw renders the current state into the active buffer and presents it.
func (s *Session) redraw() {
	if s.buffer == nil {
		return
	}
	s.paint.Draw(s.buffer.Pix(), s.width, s.height, s.frameState())
	if err := s.out.Present(s.buffer, s.width, s.height); err != nil {
		s.log.Warn("present frame", "error", err)
	}
}

func (s *Session) frameState() render.State {
	return render.State{
		Now:         time.Now(),
		Temperature: s.conditions.Temperature,
		Icon:        s.conditions.Icon,
	}
}

// surfaceOutput is the production presenter, backed by the bound wl_shm and
// the session's surface pair.
type surfaceOutput struct {
	shm     *wl.Shm
	surface *wl.Surface
	xdg     *xdgshell.Surface
}

func (o *surfaceOutput) AckConfigure(serial uint32) error {
	return o.xdg.AckConfigure(serial)
}

func (o *surfaceOutput) Commit() error {
	return o.surface.Commit()
}

func (o *surfaceOutput) Allocate(width, height int32) (framebuffer, error) {
	return shm.Create(o.shm, width, height)
}

func (o *surfaceOutput) Present(fb framebuffer, width, height int32) error {
	buf, ok := fb.(*shm.Buffer)
	if !ok {
		return fmt.Errorf("present: not an shm buffer: %T", fb)
	}
	if err := o.surface.Attach(buf.Handle(), 0, 0); err != nil {
		return fmt.Errorf("attach: %w", err)
	}
	if err := o.surface.Damage(0, 0, width, height); err != nil {
		return fmt.Errorf("damage: %w", err)
	}
	if err := o.surface.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}
