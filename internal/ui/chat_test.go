package ui

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/tripwise/assistant-tui/internal/chat"
	"github.com/tripwise/assistant-tui/internal/payload"
)

func newTestTranscript() *Transcript {
	tr := NewTranscript(DefaultDarkTheme())
	tr.SetSize(80, 30)
	return tr
}

func TestTranscriptRendersRoles(t *testing.T) {
	tr := newTestTranscript()
	tr.SetMessages([]chat.Message{
		{Role: chat.RoleUser, Content: "Tìm vé đi Đà Lạt", Timestamp: time.Now()},
		{Role: chat.RoleAssistant, Content: "Có 2 chuyến phù hợp."},
	})

	out := tr.viewport.View()
	assert.Contains(t, out, "Bạn")
	assert.Contains(t, out, "Tìm vé đi Đà Lạt")
	assert.Contains(t, out, "Trợ lý")
}

func TestTranscriptPendingPlaceholder(t *testing.T) {
	tr := newTestTranscript()
	tr.SetMessages([]chat.Message{
		{Role: chat.RoleAssistant, Pending: true},
	})

	assert.Contains(t, tr.viewport.View(), "…")
}

func TestTranscriptRendersResultCardAndSuggestions(t *testing.T) {
	tr := newTestTranscript()
	tr.SetMessages([]chat.Message{
		{
			Role:    chat.RoleAssistant,
			Content: "Đây là lựa chọn tốt nhất.",
			Results: []payload.Result{{
				"title":    "Khách sạn Hoa Sen",
				"subtitle": "Nha Trang",
				"type":     "hotel",
			}},
			Suggestions: []string{"Xem phòng trống", "So sánh giá"},
		},
	})

	out := tr.viewport.View()
	assert.Contains(t, out, "Khách sạn Hoa Sen")
	assert.Contains(t, out, "Nha Trang")
	assert.Contains(t, out, "[hotel]")
	assert.Contains(t, out, "1. Xem phòng trống")
	assert.Contains(t, out, "2. So sánh giá")
}

func TestTranscriptInputRoundTrip(t *testing.T) {
	tr := newTestTranscript()
	tr.input.SetValue("chuyến bay sớm nhất")
	assert.Equal(t, "chuyến bay sớm nhất", tr.Input())

	tr.ClearInput()
	assert.Empty(t, tr.Input())
}

func TestTranscriptViewHasInputArea(t *testing.T) {
	tr := newTestTranscript()
	tr.SetMessages(nil)

	view := tr.View()
	assert.True(t, strings.Count(view, "\n") >= 1, "view stacks viewport above the input")
}
