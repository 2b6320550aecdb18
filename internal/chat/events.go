package chat

import "github.com/tripwise/assistant-tui/internal/protocol"

// Events produced by background work (HTTP streaming, history fetches,
// timers). They are pushed through the orchestrator's emit callback so the
// owning event loop can route them back into the orchestrator; the
// orchestrators themselves mutate state only on that loop.

// StreamChunk reports one increment of a chunked HTTP response.
type StreamChunk struct {
	TurnID    string
	Chunk     string
	Aggregate string
}

// StreamDone reports the end of a chunked HTTP response, successful or not.
type StreamDone struct {
	TurnID string
	Result *protocol.StreamResult
	Err    error
}

// HistoryLoaded carries the result of a background history fetch.
type HistoryLoaded struct {
	History *protocol.History
	Err     error
}

// VoiceStageReset fires when the post-response display delay elapses and the
// voice turn should return to idle.
type VoiceStageReset struct {
	TurnID string
}
