package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Message types exchanged with the browser.
const (
	// Client to server.
	TypeInit     = "init"     // first frame: the browser's current location
	TypePop      = "pop"      // popstate or a location typed by the user
	TypeNavigate = "navigate" // link click: Location or Name/Params/Query
	TypeBack     = "back"
	TypeForward  = "forward"

	// Server to client.
	TypePush    = "push"    // history.pushState(Location)
	TypeReplace = "replace" // history.replaceState(Location)
	TypeGo      = "go"      // history.go(Delta)
	TypeRoute   = "route"   // newly published active route
	TypeError   = "error"
)

// Message is one JSON frame of the navigation protocol.
type Message struct {
	Type     string              `json:"type"`
	Location string              `json:"location,omitempty"`
	Delta    int                 `json:"delta,omitempty"`
	Name     string              `json:"name,omitempty"`
	Params   map[string]string   `json:"params,omitempty"`
	Query    map[string][]string `json:"query,omitempty"`
	Replace  bool                `json:"replace,omitempty"`
	Route    *RouteState         `json:"route,omitempty"`
	Error    string              `json:"error,omitempty"`
}

// RouteState describes an active route to the browser.
type RouteState struct {
	Name     string              `json:"name,omitempty"`
	Path     string              `json:"path"`
	View     string              `json:"view,omitempty"`
	Params   map[string]string   `json:"params"`
	Query    map[string][]string `json:"query,omitempty"`
	Location string              `json:"location"`
	NotFound bool                `json:"notFound"`
	Seq      uint64              `json:"seq"`
}

// ErrHandshake is returned by Accept when the first frame is not an init.
var ErrHandshake = errors.New("history: invalid handshake")

// SocketConfig configures a Socket.
type SocketConfig struct {
	// HandshakeTimeout bounds the wait for the init frame.
	HandshakeTimeout time.Duration

	// WriteTimeout bounds every frame write.
	WriteTimeout time.Duration

	// MaxMessageSize is the read limit in bytes.
	MaxMessageSize int64

	// Logger receives protocol errors.
	Logger *slog.Logger
}

// DefaultSocketConfig returns the defaults used by Accept.
func DefaultSocketConfig() SocketConfig {
	return SocketConfig{
		HandshakeTimeout: 5 * time.Second,
		WriteTimeout:     10 * time.Second,
		MaxMessageSize:   16 * 1024,
	}
}

// Socket is a location source backed by a browser connected over a
// WebSocket. The browser owns the real history: Push, Replace and Go are
// forwarded to it as frames, and its popstate events come back as pops.
//
// Location changes and Dispatch callbacks run on the goroutine calling Run,
// which makes that goroutine the event loop for anything attached to the
// socket.
type Socket struct {
	conn   *websocket.Conn
	config SocketConfig
	logger *slog.Logger

	mu        sync.Mutex
	location  string
	listeners map[int]func(string)
	nextID    int

	writeMu sync.Mutex

	tasks     chan func()
	done      chan struct{}
	closeOnce sync.Once
}

// Accept performs the handshake on a freshly upgraded connection: it waits
// for the browser's init frame and records its location.
func Accept(conn *websocket.Conn, config SocketConfig) (*Socket, error) {
	defaults := DefaultSocketConfig()
	if config.HandshakeTimeout <= 0 {
		config.HandshakeTimeout = defaults.HandshakeTimeout
	}
	if config.WriteTimeout <= 0 {
		config.WriteTimeout = defaults.WriteTimeout
	}
	if config.MaxMessageSize <= 0 {
		config.MaxMessageSize = defaults.MaxMessageSize
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default().With("component", "history")
	}

	conn.SetReadLimit(config.MaxMessageSize)
	conn.SetReadDeadline(time.Now().Add(config.HandshakeTimeout))

	_, data, err := conn.ReadMessage()
	if err != nil {
		return nil, fmt.Errorf("history: read handshake: %w", err)
	}
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrHandshake, err)
	}
	if msg.Type != TypeInit {
		return nil, fmt.Errorf("%w: first frame is %q", ErrHandshake, msg.Type)
	}
	if msg.Location == "" {
		msg.Location = "/"
	}

	// No idle deadline once the handshake is done; Run closes the connection
	// when its context ends.
	conn.SetReadDeadline(time.Time{})

	return &Socket{
		conn:      conn,
		config:    config,
		logger:    logger,
		location:  msg.Location,
		listeners: make(map[int]func(string)),
		tasks:     make(chan func(), 16),
		done:      make(chan struct{}),
	}, nil
}

// Location returns the browser's last known location.
func (s *Socket) Location() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.location
}

// Listen registers fn for pops reported by the browser.
func (s *Socket) Listen(fn func(string)) (stop func()) {
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

// Push asks the browser to push location.
func (s *Socket) Push(location string) error {
	if err := s.Send(Message{Type: TypePush, Location: location}); err != nil {
		return err
	}
	s.setLocation(location)
	return nil
}

// Replace asks the browser to replace the current entry with location.
func (s *Socket) Replace(location string) error {
	if err := s.Send(Message{Type: TypeReplace, Location: location}); err != nil {
		return err
	}
	s.setLocation(location)
	return nil
}

// Go asks the browser to traverse its history. The resulting location
// arrives later as a pop.
func (s *Socket) Go(delta int) error {
	return s.Send(Message{Type: TypeGo, Delta: delta})
}

// Send writes one frame to the browser.
func (s *Socket) Send(msg Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("history: encode %s frame: %w", msg.Type, err)
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	select {
	case <-s.done:
		return net.ErrClosed
	default:
	}

	s.conn.SetWriteDeadline(time.Now().Add(s.config.WriteTimeout))
	if err := s.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return fmt.Errorf("history: write %s frame: %w", msg.Type, err)
	}
	return nil
}

// Dispatch schedules fn on the event loop. It reports false if the socket
// is closed.
func (s *Socket) Dispatch(fn func()) bool {
	select {
	case <-s.done:
		return false
	default:
	}
	select {
	case s.tasks <- fn:
		return true
	case <-s.done:
		return false
	}
}

// Run is the socket's event loop. It delivers pops to listeners, passes
// every other client frame to handle, and runs Dispatch callbacks, until
// the browser disconnects or ctx ends. A normal close returns nil.
func (s *Socket) Run(ctx context.Context, handle func(Message)) error {
	incoming := make(chan Message)
	readErr := make(chan error, 1)

	go s.readLoop(incoming, readErr)
	defer s.Close()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case err := <-readErr:
			if websocket.IsCloseError(err,
				websocket.CloseNormalClosure,
				websocket.CloseGoingAway) {
				return nil
			}
			return err

		case fn := <-s.tasks:
			fn()

		case msg := <-incoming:
			switch msg.Type {
			case TypePop:
				if msg.Location == "" {
					msg.Location = "/"
				}
				s.setLocation(msg.Location)
				s.emit(msg.Location)
			case TypeInit:
				s.logger.Warn("duplicate init frame ignored")
			default:
				if handle != nil {
					handle(msg)
				}
			}
		}
	}
}

// readLoop decodes client frames until the connection fails.
func (s *Socket) readLoop(out chan<- Message, errc chan<- error) {
	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway,
				websocket.CloseAbnormalClosure,
				websocket.CloseNormalClosure) {
				s.logger.Error("read error", "error", err)
			}
			errc <- err
			return
		}

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			s.logger.Warn("frame decode error", "error", err)
			continue
		}

		select {
		case out <- msg:
		case <-s.done:
			return
		}
	}
}

// Close sends a close frame and closes the connection. It is safe to call
// more than once.
func (s *Socket) Close() error {
	var err error
	s.closeOnce.Do(func() {
		s.writeMu.Lock()
		close(s.done)
		s.conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second),
		)
		s.writeMu.Unlock()
		err = s.conn.Close()
	})
	return err
}

func (s *Socket) setLocation(location string) {
	s.mu.Lock()
	s.location = location
	s.mu.Unlock()
}

func (s *Socket) emit(location string) {
	s.mu.Lock()
	fns := make([]func(string), 0, len(s.listeners))
	for id := 0; id < s.nextID; id++ {
		if fn, ok := s.listeners[id]; ok {
			fns = append(fns, fn)
		}
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(location)
	}
}
