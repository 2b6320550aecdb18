package protocol

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStreamAggregatesChunks(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/ai/chat/stream", r.URL.Path)

		body, _ := io.ReadAll(r.Body)
		var req StreamRequest
		require.NoError(t, sonic.Unmarshal(body, &req))
		assert.Equal(t, "hello", req.Message)

		w.Header().Set(HeaderConversationID, "server-conv")
		w.Header().Set(HeaderUserID, "server-user")
		flusher := w.(http.Flusher)
		for _, part := range []string{"Xin ", "chào ", "bạn"} {
			_, _ = io.WriteString(w, part)
			flusher.Flush()
		}
	}))
	defer srv.Close()

	s := NewStreamer(srv.URL, 5*time.Second, zerolog.Nop())

	var chunks []string
	var lastAggregate string
	res, err := s.Stream(context.Background(), StreamRequest{Message: "hello", ConversationID: "c-1"},
		func(chunk, aggregate string) {
			chunks = append(chunks, chunk)
			lastAggregate = aggregate
		})

	require.NoError(t, err)
	assert.Equal(t, "Xin chào bạn", res.Aggregate)
	assert.Equal(t, res.Aggregate, lastAggregate)
	assert.NotEmpty(t, chunks)
	// Correlation metadata rides in headers on this path.
	assert.Equal(t, "server-conv", res.ConversationID)
	assert.Equal(t, "server-user", res.UserID)
}

func TestStreamTimeoutDiscardsAggregate(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "partial ")
		w.(http.Flusher).Flush()
		<-release
	}))
	defer srv.Close()
	defer close(release)

	s := NewStreamer(srv.URL, 100*time.Millisecond, zerolog.Nop())

	var sawChunk bool
	res, err := s.Stream(context.Background(), StreamRequest{Message: "hi"},
		func(chunk, aggregate string) { sawChunk = true })

	require.ErrorIs(t, err, ErrStreamTimeout)
	assert.Nil(t, res)
	// Chunks may have been observed, but no partial aggregate is returned.
	_ = sawChunk
}

func TestStreamTimeoutBeforeAnyChunk(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	s := NewStreamer(srv.URL, 100*time.Millisecond, zerolog.Nop())

	var chunks int
	res, err := s.Stream(context.Background(), StreamRequest{Message: "hi"},
		func(string, string) { chunks++ })

	require.ErrorIs(t, err, ErrStreamTimeout)
	assert.Nil(t, res)
	assert.Zero(t, chunks)
}

func TestStreamRejectsBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer srv.Close()

	s := NewStreamer(srv.URL, time.Second, zerolog.Nop())
	_, err := s.Stream(context.Background(), StreamRequest{Message: "hi"}, nil)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrStreamTimeout)
}

func TestStreamNilChunkCallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "ok")
	}))
	defer srv.Close()

	s := NewStreamer(srv.URL, time.Second, zerolog.Nop())
	res, err := s.Stream(context.Background(), StreamRequest{Message: "hi"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "ok", res.Aggregate)
}
