// Package xdgshell implements the client side of the xdg_shell protocol
package xdgshell

import (
	"sync"
)

// Error constants for xdg_wm_base
const (
	WmBaseErrorRole uint32 = iota
	WmBaseErrorDefunctSurfaces
	WmBaseErrorNotTheTopmostPopup
	WmBaseErrorInvalidPopupParent
	WmBaseErrorInvalidSurfaceState
	WmBaseErrorInvalidPositioner
	WmBaseErrorUnresponsive
)

// Error constants for xdg_surface
const (
	SurfaceErrorNotConstructed uint32 = iota + 1
	SurfaceErrorAlreadyConstructed
	SurfaceErrorUnconfiguredBuffer
	SurfaceErrorInvalidSerial
	SurfaceErrorInvalidSize
	SurfaceErrorDefunctRoleObject
)

// Protocol request/event constants for xdg_wm_base
const (
	WmBaseRequestDestroy uint32 = iota
	WmBaseRequestCreatePositioner
	WmBaseRequestGetXdgSurface
	WmBaseRequestPong
)

const (
	WmBaseEventPing uint32 = iota
)

// Protocol request/event constants for xdg_surface
const (
	SurfaceRequestDestroy uint32 = iota
	SurfaceRequestGetToplevel
	SurfaceRequestGetPopup
	SurfaceRequestSetWindowGeometry
	SurfaceRequestAckConfigure
)

const (
	SurfaceEventConfigure uint32 = iota
)

// Protocol request/event constants for xdg_toplevel
const (
	ToplevelRequestDestroy uint32 = iota
	ToplevelRequestSetParent
	ToplevelRequestSetTitle
	ToplevelRequestSetAppId
	ToplevelRequestShowWindowMenu
	ToplevelRequestMove
	ToplevelRequestResize
	ToplevelRequestSetMaxSize
	ToplevelRequestSetMinSize
	ToplevelRequestSetMaximized
	ToplevelRequestUnsetMaximized
	ToplevelRequestSetFullscreen
	ToplevelRequestUnsetFullscreen
	ToplevelRequestSetMinimized
)

const (
	ToplevelEventConfigure uint32 = iota
	ToplevelEventClose
)

// WmBase represents an xdg_wm_base object
type WmBase struct {
	BaseProxy
	mu              sync.RWMutex
	privateWmBasePing []WmBasePingHandler
}

// NewWmBase is a constructor for the WmBase object
func NewWmBase(ctx *Context) *WmBase {
	ret := new(WmBase)
	ctx.Register(ret)
	return ret
}

// Destroy destroys the wm base object
func (b *WmBase) Destroy() error {
	return b.Context().SendRequest(b, WmBaseRequestDestroy)
}

// GetXdgSurface assigns the xdg_surface role to a wl_surface
func (b *WmBase) GetXdgSurface(surface *WlSurface) (*Surface, error) {
	retId := NewSurface(b.Context())
	return retId, b.Context().SendRequest(b, WmBaseRequestGetXdgSurface, retId, surface)
}

// Pong responds to a ping event, proving the client is still alive
func (b *WmBase) Pong(serial uint32) error {
	return b.Context().SendRequest(b, WmBaseRequestPong, serial)
}

// Dispatch dispatches event for WmBase
func (b *WmBase) Dispatch(event *Event) {
	switch event.Opcode {
	case WmBaseEventPing:
		if len(b.privateWmBasePing) > 0 {
			ev := WmBasePingEvent{}
			ev.Serial = event.Uint32()
			b.mu.RLock()
			for _, h := range b.privateWmBasePing {
				h.HandleWmBasePing(ev)
			}
			b.mu.RUnlock()
		}
	}
}

// WmBasePingEvent represents the ping event
type WmBasePingEvent struct {
	Serial uint32
}

// WmBasePingHandler is the handler interface for WmBasePingEvent
type WmBasePingHandler interface {
	HandleWmBasePing(WmBasePingEvent)
}

// AddPingHandler adds the Ping handler
func (b *WmBase) AddPingHandler(h WmBasePingHandler) {
	if h != nil {
		b.mu.Lock()
		b.privateWmBasePing = append(b.privateWmBasePing, h)
		b.mu.Unlock()
	}
}

// RemovePingHandler removes the Ping handler
func (b *WmBase) RemovePingHandler(h WmBasePingHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i, e := range b.privateWmBasePing {
		if e == h {
			b.privateWmBasePing = append(b.privateWmBasePing[:i], b.privateWmBasePing[i+1:]...)
			break
		}
	}
}

// Surface represents an xdg_surface object
type Surface struct {
	BaseProxy
	mu                      sync.RWMutex
	privateSurfaceConfigure []SurfaceConfigureHandler
}

// NewSurface is a constructor for the Surface object
func NewSurface(ctx *Context) *Surface {
	ret := new(Surface)
	ctx.Register(ret)
	return ret
}

// Destroy destroys the xdg surface object
func (s *Surface) Destroy() error {
	return s.Context().SendRequest(s, SurfaceRequestDestroy)
}

// GetToplevel assigns the toplevel role to the surface
func (s *Surface) GetToplevel() (*Toplevel, error) {
	retId := NewToplevel(s.Context())
	return retId, s.Context().SendRequest(s, SurfaceRequestGetToplevel, retId)
}

// SetWindowGeometry sets the window geometry known to the compositor
func (s *Surface) SetWindowGeometry(x, y, width, height int32) error {
	return s.Context().SendRequest(s, SurfaceRequestSetWindowGeometry, x, y, width, height)
}

// AckConfigure acknowledges a configure event by echoing its serial
func (s *Surface) AckConfigure(serial uint32) error {
	return s.Context().SendRequest(s, SurfaceRequestAckConfigure, serial)
}

// Dispatch dispatches event for Surface
func (s *Surface) Dispatch(event *Event) {
	switch event.Opcode {
	case SurfaceEventConfigure:
		if len(s.privateSurfaceConfigure) > 0 {
			ev := SurfaceConfigureEvent{}
			ev.Serial = event.Uint32()
			s.mu.RLock()
			for _, h := range s.privateSurfaceConfigure {
				h.HandleSurfaceConfigure(ev)
			}
			s.mu.RUnlock()
		}
	}
}

// SurfaceConfigureEvent represents the configure event
type SurfaceConfigureEvent struct {
	Serial uint32
}

// SurfaceConfigureHandler is the handler interface for SurfaceConfigureEvent
type SurfaceConfigureHandler interface {
	HandleSurfaceConfigure(SurfaceConfigureEvent)
}

// AddConfigureHandler adds the Configure handler
func (s *Surface) AddConfigureHandler(h SurfaceConfigureHandler) {
	if h != nil {
		s.mu.Lock()
		s.privateSurfaceConfigure = append(s.privateSurfaceConfigure, h)
		s.mu.Unlock()
	}
}

// RemoveConfigureHandler removes the Configure handler
func (s *Surface) RemoveConfigureHandler(h SurfaceConfigureHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, e := range s.privateSurfaceConfigure {
		if e == h {
			s.privateSurfaceConfigure = append(s.privateSurfaceConfigure[:i], s.privateSurfaceConfigure[i+1:]...)
			break
		}
	}
}

// Toplevel represents an xdg_toplevel object
type Toplevel struct {
	BaseProxy
	mu                       sync.RWMutex
	privateToplevelConfigure []ToplevelConfigureHandler
	privateToplevelClose     []ToplevelCloseHandler
}

// NewToplevel is a constructor for the Toplevel object
func NewToplevel(ctx *Context) *Toplevel {
	ret := new(Toplevel)
	ctx.Register(ret)
	return ret
}

// Destroy destroys the toplevel object
func (t *Toplevel) Destroy() error {
	return t.Context().SendRequest(t, ToplevelRequestDestroy)
}

// SetTitle sets the window title
func (t *Toplevel) SetTitle(title string) error {
	return t.Context().SendRequest(t, ToplevelRequestSetTitle, title)
}

// SetAppId sets the application identifier
func (t *Toplevel) SetAppId(appId string) error {
	return t.Context().SendRequest(t, ToplevelRequestSetAppId, appId)
}

// SetMinSize sets the minimum window size
func (t *Toplevel) SetMinSize(width, height int32) error {
	return t.Context().SendRequest(t, ToplevelRequestSetMinSize, width, height)
}

// SetMaxSize sets the maximum window size
func (t *Toplevel) SetMaxSize(width, height int32) error {
	return t.Context().SendRequest(t, ToplevelRequestSetMaxSize, width, height)
}

// Dispatch dispatches event for Toplevel
func (t *Toplevel) Dispatch(event *Event) {
	switch event.Opcode {
	case ToplevelEventConfigure:
		if len(t.privateToplevelConfigure) > 0 {
			ev := ToplevelConfigureEvent{}
			ev.Width = int32(event.Uint32())
			ev.Height = int32(event.Uint32())
			// The states array is not parsed; this client has no use for
			// maximized/activated hints.
			t.mu.RLock()
			for _, h := range t.privateToplevelConfigure {
				h.HandleToplevelConfigure(ev)
			}
			t.mu.RUnlock()
		}
	case ToplevelEventClose:
		if len(t.privateToplevelClose) > 0 {
			ev := ToplevelCloseEvent{}
			t.mu.RLock()
			for _, h := range t.privateToplevelClose {
				h.HandleToplevelClose(ev)
			}
			t.mu.RUnlock()
		}
	}
}

// ToplevelConfigureEvent represents the configure event
type ToplevelConfigureEvent struct {
	Width  int32
	Height int32
}

// ToplevelCloseEvent represents the close event
type ToplevelCloseEvent struct {
}

// ToplevelConfigureHandler is the handler interface for ToplevelConfigureEvent
type ToplevelConfigureHandler interface {
	HandleToplevelConfigure(ToplevelConfigureEvent)
}

// AddConfigureHandler adds the Configure handler
func (t *Toplevel) AddConfigureHandler(h ToplevelConfigureHandler) {
	if h != nil {
		t.mu.Lock()
		t.privateToplevelConfigure = append(t.privateToplevelConfigure, h)
		t.mu.Unlock()
	}
}

// RemoveConfigureHandler removes the Configure handler
func (t *Toplevel) RemoveConfigureHandler(h ToplevelConfigureHandler) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for i, e := range t.privateToplevelConfigure {
		if e == h {
			t.privateToplevelConfigure = append(t.privateToplevelConfigure[:i], t.privateToplevelConfigure[i+1:]...)
			break
		}
	}
}

// ToplevelCloseHandler is the handler interface for ToplevelCloseEvent
type ToplevelCloseHandler interface {
	HandleToplevelClose(ToplevelCloseEvent)
}

// AddCloseHandler adds the Close handler
func (t *Toplevel) AddCloseHandler(h ToplevelCloseHandler) {
	if h != nil {
		t.mu.Lock()
		t.privateToplevelClose = append(t.privateToplevelClose, h)
		t.mu.Unlock()
	}
}

// RemoveCloseHandler removes the Close handler
func (t *Toplevel) RemoveCloseHandler(h ToplevelCloseHandler) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for i, e := range t.privateToplevelClose {
		if e == h {
			t.privateToplevelClose = append(t.privateToplevelClose[:i], t.privateToplevelClose[i+1:]...)
			break
		}
	}
}
