package location

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/vango-dev/vnav/pkg/routepath"
)

// Frame types.
const (
	FramePush    = "push"    // server → client: add an entry
	FrameReplace = "replace" // server → client: overwrite the current entry
	FrameGo      = "go"      // server → client: move N entries
	FrameHello   = "hello"   // client → server: initial location and capabilities
	FramePop     = "pop"     // client → server: location changed outside the router
)

// Frame is the JSON message exchanged with the client.
type Frame struct {
	Type      string `json:"t"`
	URL       string `json:"url,omitempty"`
	N         int    `json:"n,omitempty"`
	PushState *bool  `json:"pushState,omitempty"`
}

// ErrClosed is returned by writes after the socket has been closed.
var ErrClosed = errors.New("location: socket closed")

const defaultWriteTimeout = 10 * time.Second

// Socket is a Backend mirroring a browser address bar on the other end of a
// WebSocket connection.
type Socket struct {
	conn         *websocket.Conn
	logger       *slog.Logger
	writeTimeout time.Duration

	writeMu sync.Mutex

	mu        sync.Mutex
	current   string
	pushState bool
	closed    bool
	listeners map[int]func(string)
	nextID    int
}

// SocketOption configures a Socket.
type SocketOption func(*Socket)

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(logger *slog.Logger) SocketOption {
	return func(s *Socket) {
		s.logger = logger
	}
}

// WithWriteTimeout bounds every frame write.
func WithWriteTimeout(d time.Duration) SocketOption {
	return func(s *Socket) {
		s.writeTimeout = d
	}
}

// WithPushState sets whether the client supports entry-level history
// manipulation before its hello frame arrives.
func WithPushState(ok bool) SocketOption {
	return func(s *Socket) {
		s.pushState = ok
	}
}

// NewSocket wraps conn. initial is the location the client showed when it
// connected; a hello frame may later correct it.
func NewSocket(conn *websocket.Conn, initial string, opts ...SocketOption) *Socket {
	if initial == "" {
		initial = "/"
	}
	s := &Socket{
		conn:         conn,
		logger:       slog.Default(),
		writeTimeout: defaultWriteTimeout,
		current:      initial,
		pushState:    true,
		listeners:    make(map[int]func(string)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CurrentLocation implements router.Backend. It is the last location the
// server wrote or the client reported.
func (s *Socket) CurrentLocation() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Push implements router.Backend.
func (s *Socket) Push(url string) error {
	s.setCurrent(url)
	return s.write(Frame{Type: FramePush, URL: url})
}

// Replace implements router.Backend.
func (s *Socket) Replace(url string) error {
	s.setCurrent(url)
	return s.write(Frame{Type: FrameReplace, URL: url})
}

// Go implements router.Backend. The client answers with a pop frame once it
// has moved.
func (s *Socket) Go(n int) {
	if n == 0 {
		return
	}
	if err := s.write(Frame{Type: FrameGo, N: n}); err != nil {
		s.logger.Warn("location go frame not sent", "n", n, "error", err)
	}
}

// Listen implements router.Backend.
func (s *Socket) Listen(fn func(url string)) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

// SupportsPushState implements router.PushStateSupporter.
func (s *Socket) SupportsPushState() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pushState
}

// Serve reads client frames until the connection fails or ctx is done. It
// returns nil when the connection ends normally.
func (s *Socket) Serve(ctx context.Context) error {
	stop := context.AfterFunc(ctx, func() { s.Close() })
	defer stop()

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			s.Close()
			if ctx.Err() != nil || websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return fmt.Errorf("location: read: %w", err)
		}

		var f Frame
		if err := json.Unmarshal(data, &f); err != nil {
			s.logger.Warn("malformed location frame", "error", err)
			continue
		}
		s.handle(f)
	}
}

func (s *Socket) handle(f Frame) {
	if f.URL != "" {
		if _, err := routepath.CanonicalizeAndValidateNavPath(f.URL); err != nil {
			s.logger.Warn("location frame dropped", "type", f.Type, "url", f.URL, "error", err)
			return
		}
	}

	switch f.Type {
	case FrameHello:
		s.mu.Lock()
		if f.URL != "" {
			s.current = f.URL
		}
		if f.PushState != nil {
			s.pushState = *f.PushState
		}
		s.mu.Unlock()
		s.logger.Debug("location client connected", "url", f.URL)

	case FramePop:
		if f.URL == "" {
			return
		}
		s.setCurrent(f.URL)

		s.mu.Lock()
		fns := make([]func(string), 0, len(s.listeners))
		for _, fn := range s.listeners {
			fns = append(fns, fn)
		}
		s.mu.Unlock()

		for _, fn := range fns {
			fn(f.URL)
		}

	default:
		s.logger.Debug("unknown location frame", "type", f.Type)
	}
}

// Close closes the connection. It is safe to call more than once.
func (s *Socket) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()
	return s.conn.Close()
}

func (s *Socket) setCurrent(url string) {
	s.mu.Lock()
	s.current = url
	s.mu.Unlock()
}

func (s *Socket) write(f Frame) error {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return ErrClosed
	}

	data, err := json.Marshal(f)
	if err != nil {
		return err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if s.writeTimeout > 0 {
		s.conn.SetWriteDeadline(time.Now().Add(s.writeTimeout))
	}
	return s.conn.WriteMessage(websocket.TextMessage, data)
}
