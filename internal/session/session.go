// Package session owns the compositor client session: capability
// negotiation, the surface and its configure handshake, the shared pixel
// buffer, and the event loop that unifies compositor events with the timer
// and shutdown notifications.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/neurlang/wayland/wl"
	"github.com/neurlang/wayland/wlclient"

	"github.com/backdrop-wl/backdrop/internal/notify"
	"github.com/backdrop-wl/backdrop/internal/render"
	"github.com/backdrop-wl/backdrop/internal/weather"
	"github.com/backdrop-wl/backdrop/xdgshell"
)

// Default window geometry before the compositor proposes anything else.
const (
	DefaultWidth  int32 = 1000
	DefaultHeight int32 = 200
)

const (
	windowTitle = "Backdrop"
	windowAppID = "backdrop"
)

// ErrClosed marks a compositor close request. It is a normal way for the
// session to end, not a failure, even when it arrives during startup.
var ErrClosed = errors.New("window closed")

// Config carries the command-line surface into the session.
type Config struct {
	Location string
	APIKey   string
	Metric   bool
	IconDir  string
	Interval time.Duration

	Width  int32
	Height int32
}

// presenter is the protocol side of the surface as the state machine sees
// it. The production implementation talks wl_surface/xdg_surface/wl_shm;
// tests substitute a fake to observe the attach/commit/destroy ordering.
type presenter interface {
	AckConfigure(serial uint32) error
	Commit() error
	Allocate(width, height int32) (framebuffer, error)
	Present(fb framebuffer, width, height int32) error
}

// framebuffer is one attachable pixel buffer.
type framebuffer interface {
	Pix() []byte
	Destroy()
}

// painter renders the current state into a pixel buffer.
type painter interface {
	Draw(pix []byte, width, height int32, st render.State)
}

// conditionsSource supplies weather readouts.
type conditionsSource interface {
	Default() weather.Conditions
	Refresh(ctx context.Context) (weather.Conditions, error)
}

// Session is the root aggregate. All fields are owned by the goroutine
// running the loop; the ticker and the signal handler communicate with it
// exclusively through the notify signals, and the dispatch pump through the
// events and connErr channels.
type Session struct {
	log *slog.Logger

	display  *wl.Display
	registry *wl.Registry

	compositor *wl.Compositor
	wmBase     *xdgshell.WmBase
	shm        *wl.Shm

	surface    *wl.Surface
	xdgSurface *xdgshell.Surface
	toplevel   *xdgshell.Toplevel

	out    presenter
	paint  painter
	source conditionsSource

	buffer        framebuffer
	width, height int32

	awaitingConfigure bool

	conditions weather.Conditions

	events  chan event
	connErr chan error

	tick     *notify.Signal
	refresh  *notify.Signal
	shutdown *notify.Signal
	ticker   *notify.Ticker
}

// New connects to the compositor, negotiates the required capabilities,
// performs the initial configure handshake and presents the first frame.
// Any failure here is fatal: no partial window is left behind.
func New(cfg Config, log *slog.Logger) (*Session, error) {
	if log == nil {
		log = slog.Default()
	}
	if cfg.Width <= 0 {
		cfg.Width = DefaultWidth
	}
	if cfg.Height <= 0 {
		cfg.Height = DefaultHeight
	}

	s := &Session{
		log:      log,
		paint:    render.NewPainter(),
		source:   weather.NewClient(cfg.APIKey, cfg.Location, cfg.Metric, cfg.IconDir, log),
		width:    cfg.Width,
		height:   cfg.Height,
		events:   make(chan event, 64),
		connErr:  make(chan error, 1),
		tick:     notify.NewSignal(),
		refresh:  notify.NewSignal(),
		shutdown: notify.NewSignal(),
	}
	s.ticker = notify.NewTicker(s.tick, s.refresh, cfg.Interval)

	display, err := wlclient.DisplayConnect(nil)
	if err != nil {
		return nil, fmt.Errorf("connect to compositor: %w", err)
	}
	s.display = display

	registry, err := display.GetRegistry()
	if err != nil {
		wlclient.DisplayDisconnect(display)
		return nil, fmt.Errorf("get registry: %w", err)
	}
	s.registry = registry
	registry.AddGlobalHandler(s)

	// One round-trip so every advertised global has been seen before we
	// decide whether the compositor is usable at all.
	if err := wlclient.DisplayRoundtrip(display); err != nil {
		wlclient.DisplayDisconnect(display)
		return nil, fmt.Errorf("registry roundtrip: %w", err)
	}
	if err := s.requireCapabilities(); err != nil {
		wlclient.DisplayDisconnect(display)
		return nil, err
	}

	if err := s.createSurface(); err != nil {
		wlclient.DisplayDisconnect(display)
		return nil, err
	}

	s.conditions = s.source.Default()

	buf, err := s.out.Allocate(s.width, s.height)
	if err != nil {
		wlclient.DisplayDisconnect(display)
		return nil, fmt.Errorf("allocate initial buffer: %w", err)
	}
	s.buffer = buf
	s.redraw()

	return s, nil
}

// HandleRegistryGlobal binds the three capabilities the window cannot exist
// without. Runs during the initial registry roundtrip.
func (s *Session) HandleRegistryGlobal(ev wl.RegistryGlobalEvent) {
	switch ev.Interface {
	case "wl_compositor":
		v := bindVersion(4, ev.Version)
		s.compositor = wlclient.RegistryBindCompositorInterface(s.registry, ev.Name, v)
		s.log.Debug("bound wl_compositor", "name", ev.Name, "version", v)
	case "xdg_wm_base":
		s.wmBase = xdgshell.BindWmBase(s.registry, ev.Name, bindVersion(1, ev.Version))
		xdgshell.WmBaseAddListener(s.wmBase, s)
		s.log.Debug("bound xdg_wm_base", "name", ev.Name)
	case "wl_shm":
		s.shm = wlclient.RegistryBindShmInterface(s.registry, ev.Name, bindVersion(1, ev.Version))
		s.log.Debug("bound wl_shm", "name", ev.Name)
	}
}

// bindVersion clamps the version we ask for to what the compositor
// advertises; binding above the advertised version is a protocol error.
func bindVersion(want, advertised uint32) uint32 {
	if advertised < want {
		return advertised
	}
	return want
}

// requireCapabilities reports the first missing capability. Absence is
// fatal, not retryable.
func (s *Session) requireCapabilities() error {
	if s.compositor == nil {
		return capabilityError("wl_compositor")
	}
	if s.wmBase == nil {
		return capabilityError("xdg_wm_base")
	}
	if s.shm == nil {
		return capabilityError("wl_shm")
	}
	return nil
}

func capabilityError(iface string) error {
	return fmt.Errorf("required protocol %q not advertised by compositor", iface)
}
