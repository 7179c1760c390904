package session

import (
	"github.com/neurlang/wayland/wlclient"

	"github.com/backdrop-wl/backdrop/xdgshell"
)

// event is the tagged representation of the compositor events the session
// reacts to. handleEvent matches the variants exhaustively.
type event interface {
	protocolEvent()
}

// surfaceConfigured carries the serial the compositor expects echoed back.
type surfaceConfigured struct {
	serial uint32
}

// toplevelConfigured is a window-manager resize proposal.
type toplevelConfigured struct {
	width  int32
	height int32
}

// toplevelClosed is a compositor or user request to close the window.
type toplevelClosed struct{}

func (surfaceConfigured) protocolEvent()  {}
func (toplevelConfigured) protocolEvent() {}
func (toplevelClosed) protocolEvent()     {}

// The handlers below run inside protocol dispatch: on the main goroutine
// during the handshake roundtrips, on the pump goroutine afterwards. They
// only forward; session state is touched exclusively by the loop.

// HandleSurfaceConfigure implements xdgshell.SurfaceConfigureHandler.
func (s *Session) HandleSurfaceConfigure(ev xdgshell.SurfaceConfigureEvent) {
	s.events <- surfaceConfigured{serial: ev.Serial}
}

// HandleToplevelConfigure implements xdgshell.ToplevelConfigureHandler.
func (s *Session) HandleToplevelConfigure(ev xdgshell.ToplevelConfigureEvent) {
	s.events <- toplevelConfigured{width: ev.Width, height: ev.Height}
}

// HandleToplevelClose implements xdgshell.ToplevelCloseHandler.
func (s *Session) HandleToplevelClose(ev xdgshell.ToplevelCloseEvent) {
	s.events <- toplevelClosed{}
}

// HandleWmBasePing implements xdgshell.WmBasePingHandler. Answered inline;
// liveness must not wait on the loop.
func (s *Session) HandleWmBasePing(ev xdgshell.WmBasePingEvent) {
	_ = s.wmBase.Pong(ev.Serial)
}

// dispatchLoop blocks in protocol dispatch and reports the first fatal
// connection error. It exits when the connection is torn down.
func (s *Session) dispatchLoop() {
	for {
		if err := wlclient.DisplayDispatch(s.display); err != nil {
			select {
			case s.connErr <- err:
			default:
			}
			return
		}
	}
}
