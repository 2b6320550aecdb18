package protocol

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/rs/zerolog"
)

// ErrStreamTimeout is returned when the streaming path exceeds its bound.
// The aggregate received so far is discarded.
var ErrStreamTimeout = errors.New("streaming response timed out")

// DefaultStreamTimeout bounds one chunked streaming request.
const DefaultStreamTimeout = 60 * time.Second

// Correlation metadata travels in response headers on the streaming path.
const (
	HeaderConversationID = "X-Conversation-Id"
	HeaderUserID         = "X-User-Id"
)

// StreamRequest is the body of the chunked HTTP fallback path.
type StreamRequest struct {
	Message        string `json:"message"`
	ConversationID string `json:"conversationId,omitempty"`
	UserID         string `json:"userId,omitempty"`
}

// StreamResult is the outcome of a completed stream. ConversationID and
// UserID are authoritative when present: the backend may assign ids on the
// first turn and the caller must adopt them.
type StreamResult struct {
	Aggregate      string
	ConversationID string
	UserID         string
}

// Streamer drives the chunked-over-HTTP delivery mode, an independent
// fallback to the socket path with the same correlation semantics.
type Streamer struct {
	baseURL string
	client  *http.Client
	timeout time.Duration
	log     zerolog.Logger
}

// NewStreamer creates a streamer against baseURL. A non-positive timeout
// takes DefaultStreamTimeout.
func NewStreamer(baseURL string, timeout time.Duration, log zerolog.Logger) *Streamer {
	if timeout <= 0 {
		timeout = DefaultStreamTimeout
	}
	return &Streamer{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{},
		timeout: timeout,
		log:     log.With().Str("component", "stream").Logger(),
	}
}

// Stream sends req and aggregates the chunked response body, invoking
// onChunk with each increment and the aggregate so far. It blocks until the
// stream closes, times out, or ctx is canceled. On timeout the partial
// aggregate is discarded and ErrStreamTimeout is returned.
func (s *Streamer) Stream(ctx context.Context, req StreamRequest, onChunk func(chunk, aggregate string)) (*StreamResult, error) {
	body, err := sonic.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode stream request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/ai/chat/stream", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build stream request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/plain")

	resp, err := s.client.Do(httpReq)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, fmt.Errorf("%w after %s", ErrStreamTimeout, s.timeout)
		}
		return nil, fmt.Errorf("stream request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("stream request: unexpected status %d", resp.StatusCode)
	}

	result := &StreamResult{
		ConversationID: resp.Header.Get(HeaderConversationID),
		UserID:         resp.Header.Get(HeaderUserID),
	}

	var aggregate strings.Builder
	buf := make([]byte, 4096)
	for {
		n, err := resp.Body.Read(buf)
		if n > 0 {
			chunk := string(buf[:n])
			aggregate.WriteString(chunk)
			if onChunk != nil {
				onChunk(chunk, aggregate.String())
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			if ctx.Err() == context.DeadlineExceeded {
				s.log.Warn().Dur("timeout", s.timeout).Msg("stream timed out, discarding aggregate")
				return nil, fmt.Errorf("%w after %s", ErrStreamTimeout, s.timeout)
			}
			return nil, fmt.Errorf("read stream: %w", err)
		}
	}

	result.Aggregate = aggregate.String()
	return result, nil
}
