// Command tutor-chat is a terminal client for the AI tutor backend, with
// optional voice input and spoken answers.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/tutorvoice/tutorvoice/internal/config"
	"github.com/tutorvoice/tutorvoice/internal/store"
	"github.com/tutorvoice/tutorvoice/pkg/core/chat"
	"github.com/tutorvoice/tutorvoice/pkg/core/session"
	"github.com/tutorvoice/tutorvoice/pkg/core/voice"
	"github.com/tutorvoice/tutorvoice/pkg/core/voice/stt"
	"github.com/tutorvoice/tutorvoice/pkg/core/voice/tts"
	tutor "github.com/tutorvoice/tutorvoice/sdk"
)

var (
	flagBackendURL string
	flagModel      string
	flagDBPath     string
	flagNoVoice    bool
	flagLogLevel   string
)

const longHelp = `tutor-chat is a terminal client for the AI tutor backend.

Ask questions, browse past sessions, and (with a Cartesia API key and
ffplay installed) dictate questions and hear answers read aloud.

Slash commands inside the chat:
  /new              start a fresh session
  /sessions         list past sessions
  /switch <n>       open a past session
  /delete <n>       delete a session
  /listen           toggle voice dictation
  /say              read the last answer aloud
  /stop             stop speaking
  /speak on|off     toggle automatic read-aloud
  /dismiss          hide the quota notice
  /quit             exit`

var rootCmd = &cobra.Command{
	Use:          "tutor-chat",
	Short:        "Chat with the AI tutor from your terminal",
	Long:         longHelp,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return run()
	},
}

func init() {
	rootCmd.Flags().StringVar(&flagBackendURL, "backend-url", "", "tutor backend base URL (overrides TUTOR_BACKEND_URL)")
	rootCmd.Flags().StringVar(&flagModel, "model", "", "tutor model to use (overrides TUTOR_MODEL)")
	rootCmd.Flags().StringVar(&flagDBPath, "db", "", "session database path (overrides TUTOR_DB_PATH)")
	rootCmd.Flags().BoolVar(&flagNoVoice, "no-voice", false, "disable voice input and output")
	rootCmd.Flags().StringVar(&flagLogLevel, "log-level", "", "log level: debug, info, warn, error")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if flagBackendURL != "" {
		cfg.BackendURL = flagBackendURL
	}
	if flagModel != "" {
		cfg.Model = flagModel
	}
	if flagDBPath != "" {
		cfg.DBPath = flagDBPath
	}
	if flagLogLevel != "" {
		cfg.LogLevel = flagLogLevel
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := newLogger(cfg.LogLevel)

	client := tutor.NewClient(
		tutor.WithBaseURL(cfg.BackendURL),
		tutor.WithAPIKey(cfg.APIKey),
		tutor.WithLogger(logger),
	)

	probeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := client.Chat.Health(probeCtx); err != nil {
		logger.Warn("tutor backend unreachable, questions will fail until it is up",
			"url", cfg.BackendURL, "error", err)
	}
	cancel()

	kv, closeKV := openKV(cfg, logger)
	defer closeKV()

	sessions := session.NewStore(kv, logger)
	coord := chat.NewCoordinator(client.Chat, sessions, chat.Config{
		Model:  cfg.Model,
		Logger: logger,
	})

	capture, playback := buildVoice(cfg, logger)
	coord.AttachVoice(capture, playback)
	if playback != nil {
		playback.SetAutoSpeak(cfg.AutoSpeak)
		playback.SetVoice(cfg.VoiceID, cfg.SpeechRate)
	}

	repl := newREPL(coord, sessions, capture, playback, logger)
	return repl.run()
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}

// openKV opens the session database, falling back to process memory when the
// database is disabled or unusable. A broken disk should not stop a chat.
func openKV(cfg *config.Config, logger *slog.Logger) (session.KV, func()) {
	if cfg.DBPath == "" {
		return session.NewMemoryKV(), func() {}
	}
	kv, err := store.OpenSQLite(cfg.DBPath)
	if err != nil {
		logger.Warn("session database unavailable, sessions will not persist",
			"path", cfg.DBPath, "error", err)
		return session.NewMemoryKV(), func() {}
	}
	return kv, func() {
		if err := kv.Close(); err != nil {
			logger.Warn("closing session database", "error", err)
		}
	}
}

// buildVoice assembles the capture and playback controllers. Either side may
// come back nil; the chat then runs text-only for that direction and the
// controllers surface a notice the first time the user reaches for it.
func buildVoice(cfg *config.Config, logger *slog.Logger) (*voice.CaptureController, *voice.PlaybackController) {
	if flagNoVoice || !cfg.VoiceEnabled() {
		capture := voice.NewCaptureController(nil, stt.Options{}, logger)
		playback := voice.NewPlaybackController(nil, logger)
		return capture, playback
	}

	capture := voice.NewCaptureController(stt.NewCartesia(cfg.CartesiaAPIKey), stt.Options{
		Model:      "ink-whisper",
		Language:   "en",
		Encoding:   "pcm_s16le",
		SampleRate: 16000,
	}, logger)

	var playback *voice.PlaybackController
	player, err := newFFPlayPlayer()
	if err != nil {
		logger.Warn("audio player unavailable, answers will not be spoken", "error", err)
		playback = voice.NewPlaybackController(nil, logger)
	} else {
		engine := voice.NewSynthesisEngine(tts.NewCartesia(cfg.CartesiaAPIKey), player)
		playback = voice.NewPlaybackController(engine, logger)
	}
	return capture, playback
}
