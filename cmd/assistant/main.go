package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/tripwise/assistant-tui/internal/audio"
	"github.com/tripwise/assistant-tui/internal/chat"
	"github.com/tripwise/assistant-tui/internal/config"
	"github.com/tripwise/assistant-tui/internal/logging"
	"github.com/tripwise/assistant-tui/internal/protocol"
	"github.com/tripwise/assistant-tui/internal/transport"
	"github.com/tripwise/assistant-tui/internal/ui"
)

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}

	log, closeLog, err := logging.Setup(cfg.LogFile, cfg.Debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = closeLog() }()

	log.Info().
		Str("socket_url", cfg.SocketURL).
		Str("api_url", cfg.APIURL).
		Str("user_id", cfg.UserID).
		Msg("starting assistant")

	// Transport and protocol clients.
	mgr := transport.NewManager(transport.Config{SocketURL: cfg.SocketURL}, log)
	streamer := protocol.NewStreamer(cfg.APIURL, 0, log)
	history := protocol.NewHistoryClient(cfg.APIURL, log)

	// Orchestrators report background events into the UI loop.
	emit := func(ev any) { ui.Emit(ev) }
	conv := chat.NewConversation(cfg.UserID, mgr, streamer, history, emit, log)
	conv.SetMode(cfg.Mode)
	voice := chat.NewVoiceTurn(cfg.UserID, cfg.Language, mgr, emit, log)

	recorder := audio.NewSession(
		audio.NewSystemDevice(),
		audio.Config{MaxDuration: cfg.MaxRecording},
		audio.Callbacks{
			OnComplete: func(clip audio.Clip) { ui.Emit(ui.ClipReadyMsg{Clip: clip}) },
			OnDuration: func(d time.Duration) { ui.Emit(ui.RecordingTickMsg{Elapsed: d}) },
			OnError:    func(err error) { ui.Emit(ui.RecordingErrMsg{Err: err}) },
		},
		log,
	)

	model := ui.NewModel(ui.Deps{
		Config:       cfg,
		Log:          log,
		Manager:      mgr,
		Conversation: conv,
		Voice:        voice,
		Recorder:     recorder,
	})

	p := tea.NewProgram(model, tea.WithAltScreen())
	ui.SetProgram(p)

	if _, err := p.Run(); err != nil {
		log.Error().Err(err).Msg("program exited with error")
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}

	recorder.Reset()
	mgr.Disconnect()
	log.Info().Msg("assistant stopped")
}
