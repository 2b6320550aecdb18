package protocol

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHistoryGet(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/ai/chat/history/c-1", r.URL.Path)
		_, _ = io.WriteString(w, `{
			"conversationId": "c-1",
			"messages": [
				{"content": "Tìm khách sạn", "role": "user", "timestamp": "2025-06-01T10:00:00Z"},
				{"content": "{\"message\":\"Đây là kết quả\"}", "role": "assistant", "timestamp": "2025-06-01T10:00:05Z"}
			],
			"createdAt": "2025-06-01T10:00:00Z",
			"lastUpdated": "2025-06-01T10:00:05Z"
		}`)
	}))
	defer srv.Close()

	c := NewHistoryClient(srv.URL, zerolog.Nop())
	h, err := c.Get(context.Background(), "c-1")
	require.NoError(t, err)
	assert.Equal(t, "c-1", h.ConversationID)
	require.Len(t, h.Messages, 2)
	assert.Equal(t, "user", h.Messages[0].Role)
	assert.Equal(t, "assistant", h.Messages[1].Role)
}

func TestHistoryGetErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	c := NewHistoryClient(srv.URL, zerolog.Nop())
	_, err := c.Get(context.Background(), "missing")
	require.Error(t, err)
}

func TestHistoryClear(t *testing.T) {
	var gotMethod, gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := NewHistoryClient(srv.URL, zerolog.Nop())
	require.NoError(t, c.Clear(context.Background(), "c-2"))
	assert.Equal(t, http.MethodDelete, gotMethod)
	assert.Equal(t, "/ai/chat/history/c-2", gotPath)
}

func TestHistoryClearFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewHistoryClient(srv.URL, zerolog.Nop())
	assert.Error(t, c.Clear(context.Background(), "c-3"))
}
