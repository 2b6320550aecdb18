// Package transport owns the persistent socket session with the assistant
// backend: one connection per manager, automatic bounded reconnection, and
// at most one live subscription per logical channel (text, voice).
package transport

import (
	"errors"
	"fmt"
)

// State is the connection lifecycle state, owned exclusively by the Manager.
type State int

const (
	Disconnected State = iota
	Connecting
	Connected
	Reconnecting
	// Failed is terminal until an explicit new Initialize call.
	Failed
)

func (s State) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	case Reconnecting:
		return "reconnecting"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// ChannelKind identifies a logical inbound channel: one modality scoped to
// one user identity.
type ChannelKind int

const (
	ChannelText ChannelKind = iota
	ChannelVoice
)

func (k ChannelKind) String() string {
	switch k {
	case ChannelText:
		return "text"
	case ChannelVoice:
		return "voice"
	default:
		return fmt.Sprintf("channel(%d)", int(k))
	}
}

// Transport errors.
var (
	// ErrNotConnected is returned by Send when the socket is not CONNECTED.
	ErrNotConnected = errors.New("socket is not connected")
	// ErrRetriesExhausted reports that the bounded reconnect loop gave up.
	ErrRetriesExhausted = errors.New("reconnect attempts exhausted")
)
