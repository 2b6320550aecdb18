// Package chat holds the stateful controllers that sit between the UI and
// the transport: a text conversation and a voice turn. Both are confined to
// a single goroutine; every method must be called from the owning event
// loop, and background work reports back through emitted events.
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/tripwise/assistant-tui/internal/payload"
	"github.com/tripwise/assistant-tui/internal/protocol"
	"github.com/tripwise/assistant-tui/internal/transport"
)

// Role distinguishes the two sides of the transcript.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one transcript entry. Pending marks an assistant placeholder
// whose turn has not resolved yet.
type Message struct {
	ID          string
	Role        Role
	Content     string
	Results     []payload.Result
	Suggestions []string
	Pending     bool
	Timestamp   time.Time
}

// Transport is the slice of the connection manager the orchestrators use.
type Transport interface {
	State() transport.State
	Send(kind transport.ChannelKind, event string, body any) error
}

var (
	// ErrEmptyMessage rejects blank input.
	ErrEmptyMessage = errors.New("message is empty")
	// ErrTurnPending rejects a send while the previous turn is unresolved.
	// Only one text turn may be outstanding at a time.
	ErrTurnPending = errors.New("a message is already awaiting its response")
)

// Conversation drives the text modality: IDLE until a send, then awaiting
// exactly one terminal frame (or stream completion) for the pending turn.
type Conversation struct {
	userID   string
	mgr      Transport
	streamer *protocol.Streamer
	history  *protocol.HistoryClient
	emit     func(any)
	log      zerolog.Logger

	messages    []Message
	convID      string
	mode        string
	pendingTurn string
	loading     bool
}

// NewConversation creates a conversation seeded with the greeting message.
// emit receives background events and must be safe to call from any
// goroutine (the UI program's Send is).
func NewConversation(userID string, mgr Transport, streamer *protocol.Streamer, history *protocol.HistoryClient, emit func(any), log zerolog.Logger) *Conversation {
	c := &Conversation{
		userID:   userID,
		mgr:      mgr,
		streamer: streamer,
		history:  history,
		emit:     emit,
		log:      log.With().Str("component", "conversation").Logger(),
		mode:     protocol.ModeSync,
	}
	c.messages = []Message{greeting()}
	return c
}

func greeting() Message {
	return Message{
		ID:          uuid.NewString(),
		Role:        RoleAssistant,
		Content:     GreetingText,
		Suggestions: DefaultSuggestions(),
		Timestamp:   time.Now(),
	}
}

// Messages returns the visible transcript.
func (c *Conversation) Messages() []Message { return c.messages }

// Busy reports whether a turn is awaiting its response.
func (c *Conversation) Busy() bool { return c.pendingTurn != "" }

// Loading reports whether the backend has signalled it is processing.
func (c *Conversation) Loading() bool { return c.loading }

// ConversationID returns the active conversation id, empty before the first
// turn.
func (c *Conversation) ConversationID() string { return c.convID }

// UserID returns the identity stamped on outbound requests. It starts as the
// configured identity and follows the server when the streaming path assigns
// one.
func (c *Conversation) UserID() string { return c.userID }

// SetMode selects the delivery mode requested on socket turns. Anything
// other than ModeStream keeps the synchronous default.
func (c *Conversation) SetMode(mode string) {
	if mode == protocol.ModeStream {
		c.mode = protocol.ModeStream
		return
	}
	c.mode = protocol.ModeSync
}

// SendMessage starts one text turn: it appends the user message and an
// assistant placeholder immediately, then sends over the socket, falling
// back to the chunked HTTP path when the socket is unavailable.
func (c *Conversation) SendMessage(text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return ErrEmptyMessage
	}
	if c.pendingTurn != "" {
		return ErrTurnPending
	}

	if c.convID == "" {
		c.convID = uuid.NewString()
	}
	turnID := uuid.NewString()
	now := time.Now()

	c.messages = append(c.messages,
		Message{ID: uuid.NewString(), Role: RoleUser, Content: text, Timestamp: now},
		Message{ID: turnID, Role: RoleAssistant, Pending: true, Timestamp: now},
	)
	c.pendingTurn = turnID

	req := protocol.NewTextRequest(c.userID, c.convID, text, c.mode)
	if err := c.mgr.Send(transport.ChannelText, protocol.EventSendText, req); err != nil {
		c.log.Debug().Err(err).Msg("socket send failed, falling back to HTTP streaming")
		convID := c.convID
		go c.streamFallback(turnID, convID, text)
	}
	return nil
}

func (c *Conversation) streamFallback(turnID, convID, text string) {
	res, err := c.streamer.Stream(context.Background(), protocol.StreamRequest{
		Message:        text,
		ConversationID: convID,
		UserID:         c.userID,
	}, func(chunk, aggregate string) {
		c.emit(StreamChunk{TurnID: turnID, Chunk: chunk, Aggregate: aggregate})
	})
	c.emit(StreamDone{TurnID: turnID, Result: res, Err: err})
}

// HandleStreamChunk shows partial streamed text in the pending placeholder.
func (c *Conversation) HandleStreamChunk(ev StreamChunk) {
	if ev.TurnID != c.pendingTurn {
		return
	}
	c.fill(ev.TurnID, ev.Aggregate, nil, nil, true)
}

// HandleStreamDone resolves a turn delivered over the HTTP path. The
// returned error, if any, is for the caller to surface; transcript state is
// already consistent when it returns.
func (c *Conversation) HandleStreamDone(ev StreamDone) error {
	if ev.TurnID != c.pendingTurn {
		return nil
	}
	defer c.resolveTurn()

	if ev.Err != nil {
		c.fill(ev.TurnID, SendFailureText, nil, nil, false)
		return fmt.Errorf("stream turn: %w", ev.Err)
	}

	content := ev.Result.Aggregate
	var results []payload.Result
	var suggestions []string
	if p := payload.Decode(content); p != nil {
		content = p.Message
		results = p.Results
		suggestions = p.Suggestions
	}
	c.fill(ev.TurnID, content, results, suggestions, false)
	if ev.Result.ConversationID != "" {
		c.adoptConversationID(ev.Result.ConversationID)
	}
	if ev.Result.UserID != "" {
		c.adoptUserID(ev.Result.UserID)
	}
	return nil
}

// AbandonTurn settles the pending turn after the transport has failed for
// good. The placeholder is filled with the failure text so a turn never
// stays unresolved once no delivery path remains.
func (c *Conversation) AbandonTurn() {
	if c.pendingTurn == "" {
		return
	}
	c.log.Warn().Str("turn_id", c.pendingTurn).Msg("abandoning turn, connection failed")
	c.fill(c.pendingTurn, SendFailureText, nil, nil, false)
	c.resolveTurn()
}

// HandleFrame routes one inbound text-channel frame to the pending turn. A
// frame arriving with no pending turn is a late or duplicate delivery and is
// dropped. An ERROR frame is returned to the caller after the transcript has
// been settled.
func (c *Conversation) HandleFrame(f *protocol.Frame) error {
	if f.Keepalive() {
		return nil
	}
	if c.pendingTurn == "" {
		c.log.Debug().Str("type", string(f.Type)).Msg("frame with no pending turn dropped")
		return nil
	}

	switch f.Type {
	case protocol.FrameProcessing:
		c.loading = true
		return nil

	case protocol.FrameResponse:
		content := f.AIResponse
		results := f.Results
		suggestions := f.Suggestions()
		if p := payload.Decode(f.AIResponse); p != nil {
			content = p.Message
			if len(results) == 0 {
				results = p.Results
			}
			if len(suggestions) == 0 {
				suggestions = p.Suggestions
			}
		}
		c.fill(c.pendingTurn, content, results, suggestions, false)
		if f.ConversationID != "" {
			c.adoptConversationID(f.ConversationID)
		}
		c.resolveTurn()
		return nil

	case protocol.FrameError:
		c.fill(c.pendingTurn, SendFailureText, nil, nil, false)
		c.resolveTurn()
		return fmt.Errorf("assistant error: %s", f.Error)

	default:
		return nil
	}
}

// Clear wipes the transcript back to the greeting and drops the conversation
// id. Server-side history is purged best-effort in the background; a failure
// there is logged, never surfaced.
func (c *Conversation) Clear() {
	if c.convID != "" && c.history != nil {
		convID := c.convID
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := c.history.Clear(ctx, convID); err != nil {
				c.log.Warn().Str("conversation_id", convID).Err(err).Msg("history purge failed")
			}
		}()
	}
	c.messages = []Message{greeting()}
	c.convID = ""
	c.pendingTurn = ""
	c.loading = false
}

// LoadHistory fetches a stored transcript in the background; the result
// arrives as a HistoryLoaded event for ApplyHistory.
func (c *Conversation) LoadHistory(conversationID string) {
	if conversationID == "" || c.history == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		h, err := c.history.Get(ctx, conversationID)
		c.emit(HistoryLoaded{History: h, Err: err})
	}()
}

// ApplyHistory replaces the transcript with a stored one. Assistant entries
// go through the payload decoder the same way live responses do.
func (c *Conversation) ApplyHistory(h *protocol.History) {
	if h == nil || len(h.Messages) == 0 {
		return
	}
	msgs := []Message{greeting()}
	for _, m := range h.Messages {
		msg := Message{
			ID:        uuid.NewString(),
			Role:      RoleUser,
			Content:   m.Content,
			Timestamp: parseTimestamp(m.Timestamp),
		}
		if m.Role != string(RoleUser) {
			msg.Role = RoleAssistant
			if p := payload.Decode(m.Content); p != nil {
				msg.Content = p.Message
				msg.Results = p.Results
				msg.Suggestions = p.Suggestions
			}
		}
		msgs = append(msgs, msg)
	}
	c.messages = msgs
	c.convID = h.ConversationID
}

func (c *Conversation) fill(turnID, content string, results []payload.Result, suggestions []string, pending bool) {
	for i := range c.messages {
		if c.messages[i].ID == turnID {
			c.messages[i].Content = content
			c.messages[i].Results = results
			c.messages[i].Suggestions = suggestions
			c.messages[i].Pending = pending
			return
		}
	}
}

func (c *Conversation) resolveTurn() {
	c.pendingTurn = ""
	c.loading = false
}

func (c *Conversation) adoptConversationID(id string) {
	if id != c.convID {
		c.log.Debug().Str("conversation_id", id).Msg("adopting server conversation id")
		c.convID = id
	}
}

func (c *Conversation) adoptUserID(id string) {
	if id != c.userID {
		c.log.Debug().Str("user_id", id).Msg("adopting server user id")
		c.userID = id
	}
}

func parseTimestamp(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
