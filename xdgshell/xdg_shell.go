// Package xdgshell implements the client side of the xdg_shell protocol
package xdgshell

import (
	"github.com/neurlang/wayland/wl"
)

// Basic type aliases for compatibility
type BaseProxy = wl.BaseProxy
type Event = wl.Event
type Context = wl.Context
type Proxy = wl.Proxy
type WlSurface = wl.Surface

// BindWmBase binds to the xdg_wm_base interface
func BindWmBase(r *wl.Registry, name uint32, version uint32) *WmBase {
	// Get the context from the registry
	ctx, _ := wl.GetUserData[wl.Context](r)

	// Create a new wm base instance
	wmBase := NewWmBase(ctx)

	// Bind it to the interface
	_ = r.Bind(name, "xdg_wm_base", version, wmBase)

	return wmBase
}

// Helper functions to add listeners

// WmBaseAddListener adds a listener for wm base events
func WmBaseAddListener(b *WmBase, h interface{}) {
	if handler, ok := h.(WmBasePingHandler); ok {
		b.AddPingHandler(handler)
	}
}

// SurfaceAddListener adds a listener for xdg surface events
func SurfaceAddListener(s *Surface, h interface{}) {
	if handler, ok := h.(SurfaceConfigureHandler); ok {
		s.AddConfigureHandler(handler)
	}
}

// ToplevelAddListener adds all listeners for toplevel events
func ToplevelAddListener(t *Toplevel, h interface{}) {
	if handler, ok := h.(ToplevelConfigureHandler); ok {
		t.AddConfigureHandler(handler)
	}
	if handler, ok := h.(ToplevelCloseHandler); ok {
		t.AddCloseHandler(handler)
	}
}
