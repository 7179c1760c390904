package session

import (
	"context"
	"errors"
	"image"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/backdrop-wl/backdrop/internal/notify"
	"github.com/backdrop-wl/backdrop/internal/render"
	"github.com/backdrop-wl/backdrop/internal/shm"
	"github.com/backdrop-wl/backdrop/internal/weather"
)

// fakeBuffer records its lifecycle in the shared sequence log.
type fakeBuffer struct {
	out       *fakeOutput
	pix       []byte
	destroyed int
}

func (b *fakeBuffer) Pix() []byte { return b.pix }

func (b *fakeBuffer) Destroy() {
	b.destroyed++
	b.out.seq = append(b.out.seq, "destroy")
}

// fakeOutput stands in for the surface and records the order of protocol
// operations, which is what the resize invariants are about.
type fakeOutput struct {
	seq        []string
	acked      []uint32
	commits    int
	allocErr   error
	lastAlloc  *fakeBuffer
	presentErr error
}

func (o *fakeOutput) AckConfigure(serial uint32) error {
	o.acked = append(o.acked, serial)
	o.seq = append(o.seq, "ack")
	return nil
}

func (o *fakeOutput) Commit() error {
	o.commits++
	o.seq = append(o.seq, "commit")
	return nil
}

func (o *fakeOutput) Allocate(width, height int32) (framebuffer, error) {
	if o.allocErr != nil {
		return nil, o.allocErr
	}
	b := &fakeBuffer{out: o, pix: make([]byte, shm.Size(width, height))}
	o.lastAlloc = b
	o.seq = append(o.seq, "allocate")
	return b, nil
}

func (o *fakeOutput) Present(fb framebuffer, width, height int32) error {
	if o.presentErr != nil {
		return o.presentErr
	}
	o.seq = append(o.seq, "present")
	return nil
}

type nopPainter struct{}

func (nopPainter) Draw(pix []byte, width, height int32, st render.State) {}

type fakeSource struct {
	cond weather.Conditions
	err  error
}

func (f *fakeSource) Default() weather.Conditions { return f.cond }

func (f *fakeSource) Refresh(ctx context.Context) (weather.Conditions, error) {
	if f.err != nil {
		return weather.Conditions{}, f.err
	}
	return f.cond, nil
}

func testIcon() image.Image { return image.NewRGBA(image.Rect(0, 0, 2, 2)) }

func newTestSession(t *testing.T) (*Session, *fakeOutput) {
	t.Helper()
	out := &fakeOutput{}
	s := &Session{
		log:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		out:    out,
		paint:  nopPainter{},
		source: &fakeSource{cond: weather.Conditions{Temperature: "0°F", Icon: testIcon()}},
		width:  1000,
		height: 200,
		events: make(chan event, 64),
	}
	buf, err := out.Allocate(s.width, s.height)
	require.NoError(t, err)
	s.buffer = buf
	out.seq = nil
	return s, out
}

func TestResizeReallocatesThenDestroysOld(t *testing.T) {
	s, out := newTestSession(t)
	old := s.buffer.(*fakeBuffer)

	quit := s.handleEvent(toplevelConfigured{width: 800, height: 150})
	require.False(t, quit)

	assert.Equal(t, int32(800), s.width)
	assert.Equal(t, int32(150), s.height)
	require.NotNil(t, out.lastAlloc)
	assert.Same(t, out.lastAlloc, s.buffer, "session must adopt the new buffer")
	assert.Len(t, out.lastAlloc.pix, int(shm.Size(800, 150)))

	assert.Equal(t, 1, old.destroyed, "old buffer destroyed exactly once")
	assert.Equal(t, []string{"allocate", "present", "destroy"}, out.seq,
		"old buffer must outlive the presentation of its replacement")
}

func TestResizeIgnoredDuringHandshake(t *testing.T) {
	s, out := newTestSession(t)
	s.awaitingConfigure = true
	old := s.buffer

	s.handleEvent(toplevelConfigured{width: 800, height: 150})

	assert.Same(t, old, s.buffer)
	assert.Equal(t, int32(1000), s.width)
	assert.Empty(t, out.seq)
}

func TestResizeAllocationFailureKeepsBuffer(t *testing.T) {
	s, out := newTestSession(t)
	old := s.buffer.(*fakeBuffer)
	out.allocErr = errors.New("no memory")

	s.handleEvent(toplevelConfigured{width: 800, height: 150})

	assert.Same(t, old, s.buffer, "failed allocation must not lose the current buffer")
	assert.Equal(t, int32(1000), s.width)
	assert.Zero(t, old.destroyed)
}

func TestAcceptsResize(t *testing.T) {
	cases := []struct {
		name          string
		width, height int32
		want          bool
	}{
		{"both changed", 800, 150, true},
		{"width only", 800, 200, true},
		{"height only", 1000, 150, true},
		{"same geometry", 1000, 200, false},
		{"zero width", 0, 150, false},
		{"zero height", 800, 0, false},
		{"compositor defers", 0, 0, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, acceptsResize(1000, 200, tc.width, tc.height))
		})
	}
}

func TestSurfaceConfigureAcksSerial(t *testing.T) {
	s, out := newTestSession(t)
	s.awaitingConfigure = true

	quit := s.handleEvent(surfaceConfigured{serial: 7})

	require.False(t, quit)
	assert.Equal(t, []uint32{7}, out.acked, "the exact serial must be echoed")
	assert.Equal(t, 1, out.commits)
	assert.False(t, s.awaitingConfigure)
}

func TestEveryConfigureIsAcked(t *testing.T) {
	s, out := newTestSession(t)

	s.handleEvent(surfaceConfigured{serial: 3})
	s.handleEvent(surfaceConfigured{serial: 9})

	assert.Equal(t, []uint32{3, 9}, out.acked)
}

func TestCloseRequestsQuit(t *testing.T) {
	s, _ := newTestSession(t)
	assert.True(t, s.handleEvent(toplevelClosed{}))
}

func TestCloseDuringHandshakeRequestsQuit(t *testing.T) {
	s, _ := newTestSession(t)
	s.awaitingConfigure = true
	s.events <- toplevelClosed{}

	assert.True(t, s.drainPending(), "a close queued during the handshake must end startup")
}

func TestTeardownDestroysBufferAndJoinsTicker(t *testing.T) {
	s, _ := newTestSession(t)
	buf := s.buffer.(*fakeBuffer)

	s.tick = notify.NewSignal()
	s.refresh = notify.NewSignal()
	s.ticker = notify.NewTickerResolution(s.tick, s.refresh, 10*time.Millisecond, time.Millisecond)
	s.ticker.Start()

	select {
	case <-s.tick.Ready():
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a tick")
	}

	s.teardown()

	assert.Equal(t, 1, buf.destroyed, "the active buffer is destroyed exactly once")
	assert.Nil(t, s.buffer)

	// Drain anything raised before teardown returned; after the join the
	// ticker must be silent.
	select {
	case <-s.tick.Ready():
	default:
	}
	select {
	case <-s.refresh.Ready():
	default:
	}
	time.Sleep(10 * time.Millisecond)
	select {
	case <-s.tick.Ready():
		t.Fatal("tick raised after teardown")
	case <-s.refresh.Ready():
		t.Fatal("refresh raised after teardown")
	default:
	}

	require.NotPanics(t, func() { s.teardown() })
	assert.Equal(t, 1, buf.destroyed)
}

func TestBindVersionClampsToAdvertised(t *testing.T) {
	cases := []struct {
		name             string
		want, advertised uint32
		bound            uint32
	}{
		{"compositor newer", 4, 6, 4},
		{"compositor older", 4, 3, 3},
		{"exact match", 1, 1, 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.bound, bindVersion(tc.want, tc.advertised))
		})
	}
}

func TestRefreshFailureKeepsConditions(t *testing.T) {
	s, _ := newTestSession(t)
	s.conditions = weather.Conditions{Temperature: "42°F", Icon: testIcon()}
	s.source = &fakeSource{err: errors.New("provider down")}

	s.refreshConditions()

	assert.Equal(t, "42°F", s.conditions.Temperature)
	assert.NotNil(t, s.conditions.Icon)
}

func TestRefreshSuccessSwapsConditions(t *testing.T) {
	s, _ := newTestSession(t)
	s.conditions = weather.Conditions{Temperature: "42°F", Icon: testIcon()}
	next := weather.Conditions{Temperature: "13°C", Icon: testIcon()}
	s.source = &fakeSource{cond: next}

	s.refreshConditions()

	assert.Equal(t, "13°C", s.conditions.Temperature)
	assert.Same(t, next.Icon, s.conditions.Icon, "temperature and icon swap together")
}

func TestRedrawPresentsActiveBuffer(t *testing.T) {
	s, out := newTestSession(t)

	s.redraw()

	assert.Equal(t, []string{"present"}, out.seq)
}

func TestRedrawWithoutBufferIsNoop(t *testing.T) {
	s, out := newTestSession(t)
	s.buffer = nil

	s.redraw()

	assert.Empty(t, out.seq)
}

func TestConfigDefaultsApplied(t *testing.T) {
	cfg := Config{}
	if cfg.Width <= 0 {
		cfg.Width = DefaultWidth
	}
	if cfg.Height <= 0 {
		cfg.Height = DefaultHeight
	}
	assert.Equal(t, int32(1000), cfg.Width)
	assert.Equal(t, int32(200), cfg.Height)
}
