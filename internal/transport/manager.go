package transport

import (
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/rs/zerolog"
	"github.com/tripwise/assistant-tui/internal/protocol"
)

// FrameHandler consumes inbound frames for one channel kind. Handlers run on
// a single delivery goroutine per channel, so frames for one channel arrive
// in order and without overlap.
type FrameHandler func(*protocol.Frame)

// Config tunes the manager.
type Config struct {
	SocketURL     string
	MaxRetries    int
	RetryInterval time.Duration
	Dial          Dialer
}

// DefaultMaxRetries bounds the reconnect loop.
const DefaultMaxRetries = 5

// DefaultRetryInterval is the fixed delay between reconnect attempts.
const DefaultRetryInterval = 3 * time.Second

// Manager owns the socket session for one user identity. It holds at most
// one live connection and at most one subscription per channel kind at any
// time; establishing a new subscription for a channel first tears down the
// previous one.
type Manager struct {
	cfg Config
	log zerolog.Logger

	mu           sync.Mutex
	state        State
	gen          int
	socket       Socket
	userID       string
	handlers     map[ChannelKind]FrameHandler
	subs         map[ChannelKind]*subscription
	onConnect    func()
	onError      func(error)
	attempts     int
	retryPending bool
	retryTimer   *time.Timer
}

// subscription is one live channel join plus its delivery loop.
type subscription struct {
	kind    ChannelKind
	topic   string
	ch      Channel
	handler FrameHandler
	frames  chan *protocol.Frame
	quit    chan struct{}
}

// NewManager creates a manager. Zero config fields take defaults.
func NewManager(cfg Config, log zerolog.Logger) *Manager {
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = DefaultMaxRetries
	}
	if cfg.RetryInterval <= 0 {
		cfg.RetryInterval = DefaultRetryInterval
	}
	if cfg.Dial == nil {
		cfg.Dial = DialPhoenix
	}
	return &Manager{
		cfg:  cfg,
		log:  log.With().Str("component", "transport").Logger(),
		subs: make(map[ChannelKind]*subscription),
	}
}

// State returns the current connection state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Initialize opens the socket session for userID and subscribes the given
// handlers to their channels. It is idempotent: when already connected it
// refreshes the channel subscriptions and invokes onConnect immediately
// instead of opening a second connection. A nil handler skips its channel.
func (m *Manager) Initialize(userID string, textHandler, voiceHandler FrameHandler, onConnect func(), onError func(error)) error {
	m.mu.Lock()
	m.userID = userID
	m.handlers = map[ChannelKind]FrameHandler{}
	if textHandler != nil {
		m.handlers[ChannelText] = textHandler
	}
	if voiceHandler != nil {
		m.handlers[ChannelVoice] = voiceHandler
	}
	m.onConnect = onConnect
	m.onError = onError

	switch m.state {
	case Connected:
		m.resubscribeLocked()
		m.mu.Unlock()
		m.log.Debug().Msg("already connected, subscriptions refreshed")
		if onConnect != nil {
			onConnect()
		}
		return nil
	case Connecting, Reconnecting:
		// A connect is already in flight; handlers were refreshed above and
		// will be subscribed when it lands.
		m.mu.Unlock()
		return nil
	}

	m.state = Connecting
	m.attempts = 0
	m.gen++
	gen := m.gen
	m.mu.Unlock()

	return m.dial(gen)
}

// Send pushes body to the given channel's event. It fails with
// ErrNotConnected unless the session is CONNECTED.
func (m *Manager) Send(kind ChannelKind, event string, body any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != Connected {
		return ErrNotConnected
	}
	sub := m.subs[kind]
	if sub == nil {
		return fmt.Errorf("%w: no %s subscription", ErrNotConnected, kind)
	}
	return sub.ch.Push(event, body)
}

// Disconnect tears down the socket, both subscriptions, and both handlers.
// Always safe to call, from any state.
func (m *Manager) Disconnect() {
	m.mu.Lock()
	m.gen++
	for kind := range m.subs {
		m.teardownSubLocked(kind)
	}
	sock := m.socket
	m.socket = nil
	m.handlers = nil
	m.onConnect = nil
	m.onError = nil
	m.attempts = 0
	m.retryPending = false
	if m.retryTimer != nil {
		m.retryTimer.Stop()
		m.retryTimer = nil
	}
	m.state = Disconnected
	m.mu.Unlock()

	if sock != nil {
		sock.Disconnect()
	}
	m.log.Info().Msg("disconnected")
}

func (m *Manager) dial(gen int) error {
	endpoint, err := url.Parse(m.cfg.SocketURL)
	if err != nil {
		m.mu.Lock()
		m.state = Failed
		m.mu.Unlock()
		return fmt.Errorf("parse socket url: %w", err)
	}

	sock := m.cfg.Dial(endpoint, m.log)

	m.mu.Lock()
	if gen != m.gen {
		m.mu.Unlock()
		sock.Disconnect()
		return nil
	}
	if m.socket != nil {
		m.socket.Disconnect()
	}
	m.socket = sock
	m.mu.Unlock()

	sock.OnOpen(func() { m.handleOpen(gen) })
	sock.OnError(func(err error) { m.handleDisruption(gen, err) })
	sock.OnClose(func() { m.handleDisruption(gen, fmt.Errorf("connection closed")) })

	if err := sock.Connect(); err != nil {
		m.scheduleReconnect(gen, err)
	}
	return nil
}

func (m *Manager) handleOpen(gen int) {
	m.mu.Lock()
	if gen != m.gen {
		m.mu.Unlock()
		return
	}
	m.state = Connected
	m.attempts = 0
	m.resubscribeLocked()
	onConnect := m.onConnect
	m.mu.Unlock()

	m.log.Info().Msg("socket connected")
	if onConnect != nil {
		onConnect()
	}
}

// handleDisruption reacts to transport-level errors and closes. Deliberate
// disconnects bump the generation first, so stale callbacks fall out here.
func (m *Manager) handleDisruption(gen int, cause error) {
	m.mu.Lock()
	if gen != m.gen || m.state == Disconnected || m.state == Failed {
		m.mu.Unlock()
		return
	}
	m.mu.Unlock()

	m.log.Warn().Err(cause).Msg("socket disrupted")
	m.scheduleReconnect(gen, cause)
}

func (m *Manager) scheduleReconnect(gen int, cause error) {
	m.mu.Lock()
	if gen != m.gen || m.state == Disconnected || m.state == Failed {
		m.mu.Unlock()
		return
	}
	if m.retryPending {
		m.mu.Unlock()
		return
	}

	m.attempts++
	if m.attempts > m.cfg.MaxRetries {
		m.state = Failed
		for kind := range m.subs {
			m.teardownSubLocked(kind)
		}
		onError := m.onError
		m.mu.Unlock()

		err := fmt.Errorf("%w after %d attempts: %v", ErrRetriesExhausted, m.cfg.MaxRetries, cause)
		m.log.Error().Err(err).Msg("giving up on reconnection")
		if onError != nil {
			onError(err)
		}
		return
	}

	m.state = Reconnecting
	m.retryPending = true
	attempt := m.attempts
	m.retryTimer = time.AfterFunc(m.cfg.RetryInterval, func() { m.redial(gen) })
	m.mu.Unlock()

	m.log.Info().
		Int("attempt", attempt).
		Int("max", m.cfg.MaxRetries).
		Dur("interval", m.cfg.RetryInterval).
		Msg("scheduling reconnect")
}

func (m *Manager) redial(gen int) {
	m.mu.Lock()
	if gen != m.gen || m.state != Reconnecting {
		m.mu.Unlock()
		return
	}
	m.retryPending = false
	m.mu.Unlock()

	_ = m.dial(gen)
}

// resubscribeLocked establishes one subscription per handled channel kind,
// tearing down any previous subscription for that kind first.
func (m *Manager) resubscribeLocked() {
	for kind, handler := range m.handlers {
		m.teardownSubLocked(kind)

		topic := topicFor(kind, m.userID)
		sub := &subscription{
			kind:    kind,
			topic:   topic,
			ch:      m.socket.Channel(topic),
			handler: handler,
			frames:  make(chan *protocol.Frame, 16),
			quit:    make(chan struct{}),
		}
		m.subs[kind] = sub

		go sub.deliver()

		s := sub
		s.ch.On(protocol.EventFrame, func(payload any) { m.routeFrame(s, payload) })
		if err := s.ch.Join(
			func() {
				m.log.Debug().Str("topic", s.topic).Msg("channel joined")
			},
			func(err error) {
				m.log.Warn().Str("topic", s.topic).Err(err).Msg("channel join failed")
			},
		); err != nil {
			m.log.Warn().Str("topic", s.topic).Err(err).Msg("channel join push failed")
		}
	}
}

func (m *Manager) teardownSubLocked(kind ChannelKind) {
	sub := m.subs[kind]
	if sub == nil {
		return
	}
	sub.ch.Leave()
	close(sub.quit)
	delete(m.subs, kind)
}

// routeFrame decodes one raw channel payload and queues it for delivery.
// Malformed frames are logged and dropped: a single bad frame must not take
// down the channel. Frames from a torn-down subscription are dropped.
func (m *Manager) routeFrame(sub *subscription, payload any) {
	select {
	case <-sub.quit:
		return
	default:
	}

	raw, err := sonic.Marshal(payload)
	if err != nil {
		m.log.Warn().Str("topic", sub.topic).Err(err).Msg("unreadable frame dropped")
		return
	}
	frame, err := protocol.DecodeFrame(raw)
	if err != nil {
		m.log.Warn().Str("topic", sub.topic).Err(err).Msg("malformed frame dropped")
		return
	}

	select {
	case sub.frames <- frame:
	case <-sub.quit:
	}
}

// deliver is the single dispatch loop for one channel kind.
func (s *subscription) deliver() {
	for {
		select {
		case <-s.quit:
			return
		case f := <-s.frames:
			s.handler(f)
		}
	}
}

func topicFor(kind ChannelKind, userID string) string {
	switch kind {
	case ChannelVoice:
		return protocol.TopicPrefixVoice + userID
	default:
		return protocol.TopicPrefixChat + userID
	}
}
