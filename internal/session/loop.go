package session

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/neurlang/wayland/wlclient"

	"github.com/backdrop-wl/backdrop/internal/weather"
)

// Run drives the session until shutdown: compositor events, second ticks,
// weather refreshes and shutdown requests all funnel into one select. It
// never returns on its own; only a close request, a connection failure or a
// shutdown signal ends it.
func (s *Session) Run() error {
	sigC := make(chan os.Signal, 1)
	signal.Notify(sigC, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigC)
	go func() {
		for range sigC {
			s.shutdown.Raise()
		}
	}()

	// The first weather fetch happens immediately, not a full interval in.
	s.refresh.Raise()

	s.ticker.Start()
	go s.dispatchLoop()

	for {
		select {
		case ev := <-s.events:
			if quit := s.handleEvent(ev); quit {
				s.log.Info("window closed")
				s.teardown()
				return nil
			}
		case <-s.tick.Ready():
			s.redraw()
		case <-s.refresh.Ready():
			s.refreshConditions()
		case err := <-s.connErr:
			s.teardown()
			return fmt.Errorf("compositor connection lost: %w", err)
		case <-s.shutdown.Ready():
			s.log.Info("shutting down")
			s.teardown()
			return nil
		}
	}
}

// refreshConditions fetches a new weather readout. Failures keep the
// previous readout; temperature and icon are only ever replaced together.
func (s *Session) refreshConditions() {
	cond, err := s.source.Refresh(context.Background())
	if err != nil {
		if !errors.Is(err, weather.ErrDisabled) {
			s.log.Warn("weather update failed", "error", err)
		}
		return
	}
	s.conditions = cond
	s.log.Info("weather updated", "temperature", cond.Temperature)
}

// teardown releases everything in reverse dependency order: the active
// buffer, the protocol connection, then the ticker, which is joined so no
// notification can be raised after resources are gone.
func (s *Session) teardown() {
	if s.buffer != nil {
		s.buffer.Destroy()
		s.buffer = nil
	}
	if s.display != nil {
		wlclient.DisplayDisconnect(s.display)
	}
	s.ticker.Stop()
}
