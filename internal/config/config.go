// Package config resolves runtime settings for the assistant client.
// Precedence, highest first: command-line flags, environment variables, a
// .env file in the working directory, built-in defaults.
package config

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
)

// Defaults.
const (
	DefaultSocketURL = "ws://localhost:8080/socket"
	DefaultAPIURL    = "http://localhost:8080/api"
	DefaultLanguage  = "vi"
	DefaultLogFile   = "assistant.log"
	DefaultMode      = "sync"
)

// Config is everything the client needs to run.
type Config struct {
	// SocketURL is the websocket endpoint carrying the chat and voice
	// channels.
	SocketURL string
	// APIURL is the HTTP base for the streaming fallback and history
	// endpoints.
	APIURL string
	// UserID identifies this user to the backend. Generated and persisted
	// per invocation when not supplied.
	UserID string
	// ConversationID, when set, resumes a stored conversation on startup.
	ConversationID string
	// Language tags outbound voice requests.
	Language string
	// LogFile receives structured logs; a TUI cannot log to its own screen.
	LogFile string
	// Debug raises the log level.
	Debug bool
	// MaxRecording bounds one voice recording.
	MaxRecording time.Duration
	// Mode selects the delivery mode requested on socket turns, "sync" or
	// "stream".
	Mode string
}

// Load resolves configuration from args (flags), the environment, and an
// optional .env file.
func Load(args []string) (*Config, error) {
	// Missing .env is the normal case, not an error.
	_ = godotenv.Load()

	cfg := &Config{
		SocketURL:      envOr("ASSISTANT_SOCKET_URL", DefaultSocketURL),
		APIURL:         envOr("ASSISTANT_API_URL", DefaultAPIURL),
		UserID:         os.Getenv("ASSISTANT_USER_ID"),
		ConversationID: os.Getenv("ASSISTANT_CONVERSATION_ID"),
		Language:       envOr("ASSISTANT_LANGUAGE", DefaultLanguage),
		LogFile:        envOr("ASSISTANT_LOG_FILE", DefaultLogFile),
		Debug:          envBool("ASSISTANT_DEBUG"),
		MaxRecording:   60 * time.Second,
		Mode:           envOr("ASSISTANT_MODE", DefaultMode),
	}

	fs := flag.NewFlagSet("assistant", flag.ContinueOnError)
	fs.StringVar(&cfg.SocketURL, "socket-url", cfg.SocketURL, "websocket endpoint for chat and voice channels")
	fs.StringVar(&cfg.APIURL, "api-url", cfg.APIURL, "HTTP base URL for streaming and history")
	fs.StringVar(&cfg.UserID, "user", cfg.UserID, "user identity (generated when empty)")
	fs.StringVar(&cfg.ConversationID, "conversation", cfg.ConversationID, "conversation id to resume")
	fs.StringVar(&cfg.Language, "language", cfg.Language, "voice request language tag")
	fs.StringVar(&cfg.LogFile, "log-file", cfg.LogFile, "log file path")
	fs.BoolVar(&cfg.Debug, "debug", cfg.Debug, "enable debug logging")
	fs.DurationVar(&cfg.MaxRecording, "max-recording", cfg.MaxRecording, "maximum voice recording length")
	fs.StringVar(&cfg.Mode, "mode", cfg.Mode, "socket delivery mode, sync or stream")
	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	if cfg.UserID == "" {
		cfg.UserID = uuid.NewString()
	}
	if cfg.MaxRecording <= 0 {
		return nil, fmt.Errorf("max-recording must be positive, got %s", cfg.MaxRecording)
	}
	if cfg.Mode != "sync" && cfg.Mode != "stream" {
		return nil, fmt.Errorf("mode must be sync or stream, got %q", cfg.Mode)
	}
	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envBool(key string) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	return err == nil && v
}
