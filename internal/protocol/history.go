package protocol

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/rs/zerolog"
)

// HistoryMessage is one stored chat message. Content is raw assistant or
// user text; assistant entries are run through the payload decoder before
// display.
type HistoryMessage struct {
	Content   string `json:"content"`
	Role      string `json:"role"`
	Timestamp string `json:"timestamp"`
}

// History is the stored transcript of one conversation.
type History struct {
	ConversationID string           `json:"conversationId"`
	Messages       []HistoryMessage `json:"messages"`
	CreatedAt      string           `json:"createdAt"`
	LastUpdated    string           `json:"lastUpdated"`
}

// HistoryClient talks to the external chat-history endpoint. Chat history
// persistence itself lives server-side; this client only retrieves and
// clears it.
type HistoryClient struct {
	baseURL string
	client  *http.Client
	log     zerolog.Logger
}

// NewHistoryClient creates a history client against baseURL.
func NewHistoryClient(baseURL string, log zerolog.Logger) *HistoryClient {
	return &HistoryClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 15 * time.Second},
		log:     log.With().Str("component", "history").Logger(),
	}
}

// Get retrieves the stored transcript for conversationID.
func (c *HistoryClient) Get(ctx context.Context, conversationID string) (*History, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.historyURL(conversationID), nil)
	if err != nil {
		return nil, fmt.Errorf("build history request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get history: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("get history: unexpected status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read history: %w", err)
	}
	var h History
	if err := sonic.Unmarshal(data, &h); err != nil {
		return nil, fmt.Errorf("decode history: %w", err)
	}
	return &h, nil
}

// Clear deletes the stored transcript for conversationID. Callers treat
// failures as best-effort: a failed clear never blocks the local reset.
func (c *HistoryClient) Clear(ctx context.Context, conversationID string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.historyURL(conversationID), nil)
	if err != nil {
		return fmt.Errorf("build clear request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("clear history: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return fmt.Errorf("clear history: unexpected status %d", resp.StatusCode)
	}
	return nil
}

func (c *HistoryClient) historyURL(conversationID string) string {
	return c.baseURL + "/ai/chat/history/" + url.PathEscape(conversationID)
}
