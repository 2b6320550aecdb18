package transport

import (
	"fmt"
	"net/url"

	"github.com/nshafer/phx"
	"github.com/rs/zerolog"
)

// Socket abstracts the underlying Phoenix socket so the manager can be
// exercised against a fake in tests.
type Socket interface {
	Connect() error
	Disconnect()
	OnOpen(func())
	OnError(func(error))
	OnClose(func())
	Channel(topic string) Channel
}

// Channel is one joined topic on the socket.
type Channel interface {
	Join(onOK func(), onErr func(error)) error
	On(event string, handler func(payload any))
	Push(event string, payload any) error
	Leave()
}

// Dialer creates a Socket for an endpoint.
type Dialer func(endpoint *url.URL, log zerolog.Logger) Socket

// DialPhoenix is the production dialer.
func DialPhoenix(endpoint *url.URL, log zerolog.Logger) Socket {
	s := phx.NewSocket(endpoint)
	s.Logger = newPhxLogger(log)
	return &phxSocket{socket: s}
}

type phxSocket struct {
	socket *phx.Socket
}

func (s *phxSocket) Connect() error            { return s.socket.Connect() }
func (s *phxSocket) Disconnect()               { s.socket.Disconnect() }
func (s *phxSocket) OnOpen(fn func())          { s.socket.OnOpen(fn) }
func (s *phxSocket) OnError(fn func(error))    { s.socket.OnError(fn) }
func (s *phxSocket) OnClose(fn func())         { s.socket.OnClose(fn) }

func (s *phxSocket) Channel(topic string) Channel {
	return &phxChannel{ch: s.socket.Channel(topic, nil)}
}

type phxChannel struct {
	ch *phx.Channel
}

func (c *phxChannel) Join(onOK func(), onErr func(error)) error {
	join, err := c.ch.Join()
	if err != nil {
		return err
	}
	join.Receive("ok", func(response any) {
		onOK()
	})
	join.Receive("error", func(response any) {
		onErr(fmt.Errorf("channel join rejected: %v", response))
	})
	join.Receive("timeout", func(response any) {
		onErr(fmt.Errorf("channel join timed out"))
	})
	return nil
}

func (c *phxChannel) On(event string, handler func(payload any)) {
	c.ch.On(event, handler)
}

func (c *phxChannel) Push(event string, payload any) error {
	push, err := c.ch.Push(event, payload)
	if err != nil {
		return err
	}
	_ = push
	return nil
}

func (c *phxChannel) Leave() {
	c.ch.Leave()
}

// phxLogger routes the Phoenix library's internal logging into zerolog
// instead of the terminal, which belongs to the TUI.
type phxLogger struct {
	log zerolog.Logger
}

func newPhxLogger(log zerolog.Logger) phx.Logger {
	return &phxLogger{log: log.With().Str("component", "phx").Logger()}
}

func (l *phxLogger) event(level phx.LoggerLevel) *zerolog.Event {
	if level >= phx.LogWarning {
		return l.log.Warn()
	}
	return l.log.Debug()
}

func (l *phxLogger) Print(level phx.LoggerLevel, kind string, v ...any) {
	l.event(level).Str("kind", kind).Msg(fmt.Sprint(v...))
}

func (l *phxLogger) Println(level phx.LoggerLevel, kind string, v ...any) {
	l.event(level).Str("kind", kind).Msg(fmt.Sprint(v...))
}

func (l *phxLogger) Printf(level phx.LoggerLevel, kind string, format string, v ...any) {
	l.event(level).Str("kind", kind).Msgf(format, v...)
}
