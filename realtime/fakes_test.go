package realtime

import (
	"context"
	"encoding/binary"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/fasthttp/websocket"
	"github.com/shourya0523/Pact-sub000/models"
	"github.com/shourya0523/Pact-sub000/utils"
	"github.com/stretchr/testify/require"
)

var errRefused = errors.New("connection refused")

type fakeConn struct {
	incoming chan []byte
	closed   chan struct{}
	once     sync.Once

	mu         sync.Mutex
	closeErr   error
	written    []string
	closeCodes []int
}

func newFakeConn() *fakeConn {
	return &fakeConn{
		incoming: make(chan []byte),
		closed:   make(chan struct{}),
	}
}

func (f *fakeConn) ReadMessage() (int, []byte, error) {
	select {
	case <-f.closed:
	default:
		select {
		case data := <-f.incoming:
			return websocket.TextMessage, data, nil
		case <-f.closed:
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closeErr != nil {
		return 0, nil, f.closeErr
	}
	return 0, nil, &websocket.CloseError{Code: websocket.CloseAbnormalClosure}
}

func (f *fakeConn) WriteMessage(messageType int, data []byte) error {
	select {
	case <-f.closed:
		return errors.New("write on closed connection")
	default:
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if messageType == websocket.CloseMessage {
		f.closeCodes = append(f.closeCodes, int(binary.BigEndian.Uint16(data)))
		return nil
	}
	f.written = append(f.written, string(data))
	return nil
}

func (f *fakeConn) Close() error {
	f.once.Do(func() { close(f.closed) })
	return nil
}

// push delivers a frame to the client's read loop.
func (f *fakeConn) push(t *testing.T, frame string) {
	t.Helper()
	select {
	case f.incoming <- []byte(frame):
	case <-time.After(time.Second):
		t.Fatalf("read loop did not take frame %q", frame)
	}
}

// drop simulates the server closing the transport with code.
func (f *fakeConn) drop(code int) {
	f.mu.Lock()
	f.closeErr = &websocket.CloseError{Code: code}
	f.mu.Unlock()
	f.Close()
}

func (f *fakeConn) isClosed() bool {
	select {
	case <-f.closed:
		return true
	default:
		return false
	}
}

func (f *fakeConn) sent() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.written...)
}

func (f *fakeConn) sentCloseCodes() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int(nil), f.closeCodes...)
}

type fakeDialer struct {
	mu    sync.Mutex
	urls  []string
	conns []*fakeConn
	err   error
	gate  chan struct{}
}

func (d *fakeDialer) Dial(ctx context.Context, url string) (Conn, error) {
	d.mu.Lock()
	d.urls = append(d.urls, url)
	gate, err := d.gate, d.err
	d.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}

	conn := newFakeConn()
	d.mu.Lock()
	d.conns = append(d.conns, conn)
	d.mu.Unlock()
	return conn, nil
}

func (d *fakeDialer) setErr(err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.err = err
}

func (d *fakeDialer) calls() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.urls)
}

func (d *fakeDialer) lastURL() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.urls[len(d.urls)-1]
}

func (d *fakeDialer) opened() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.conns)
}

func (d *fakeDialer) lastConn() *fakeConn {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.conns[len(d.conns)-1]
}

type presented struct {
	title string
	body  string
	data  map[string]interface{}
}

type fakePresenter struct {
	mu    sync.Mutex
	calls []presented
	err   error
	panic bool
}

func (p *fakePresenter) Present(_ context.Context, title, body string, data map[string]interface{}) error {
	p.mu.Lock()
	p.calls = append(p.calls, presented{title: title, body: body, data: data})
	err, shouldPanic := p.err, p.panic
	p.mu.Unlock()

	if shouldPanic {
		panic("tray unavailable")
	}
	return err
}

func (p *fakePresenter) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.calls)
}

type recorder struct {
	mu            sync.Mutex
	notifications []models.Notification
}

func (r *recorder) listen(n models.Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notifications = append(r.notifications, n)
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.notifications)
}

func (r *recorder) all() []models.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.Notification(nil), r.notifications...)
}

type harness struct {
	client    *Client
	dialer    *fakeDialer
	clock     *utils.ManualClock
	presenter *fakePresenter
}

var testStart = time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC)

func newHarness(t *testing.T) *harness {
	t.Helper()

	h := &harness{
		dialer:    &fakeDialer{},
		clock:     utils.NewManualClock(testStart),
		presenter: &fakePresenter{},
	}
	h.client = New(DefaultConfig("ws://pact.test"),
		WithDialer(h.dialer),
		WithClock(h.clock),
		WithPresenter(h.presenter),
		WithLogger(utils.NewLoggerWithWriter("error", "json", io.Discard)),
	)
	t.Cleanup(h.client.Disconnect)
	return h
}

const waitFor = time.Second
const tick = 5 * time.Millisecond

// connect connects userID and waits until the transport is open.
func (h *harness) connect(t *testing.T, userID string) *fakeConn {
	t.Helper()
	opened := h.dialer.opened()
	h.client.Connect(userID)
	require.Eventually(t, func() bool {
		return h.client.IsConnected() && h.dialer.opened() == opened+1
	}, waitFor, tick)
	return h.dialer.lastConn()
}

func (h *harness) waitState(t *testing.T, want ConnectionState) {
	t.Helper()
	require.Eventually(t, func() bool { return h.client.State() == want }, waitFor, tick,
		"state never became %s", want)
}
