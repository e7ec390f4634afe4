package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"voice-assistant/config"
	"voice-assistant/internal/application"
	"voice-assistant/internal/domain"
	"voice-assistant/internal/infra/anthropic"
	"voice-assistant/internal/infra/audio"
	"voice-assistant/internal/infra/gemini"
	"voice-assistant/internal/infra/google"
	"voice-assistant/internal/infra/gtts"
	"voice-assistant/internal/infra/metrics"
	"voice-assistant/internal/infra/openai"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	envPath := flag.String("env", ".env", "path to an optional .env file")
	flag.Parse()

	if err := godotenv.Load(*envPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Error("loading env file", "path", *envPath, "error", err)
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("loading config", "error", err)
		os.Exit(1)
	}

	logger := setupLogger(cfg.Log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		logger.Info("shutting down")
		cancel()
	}()

	if err := run(ctx, cfg, logger); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("assistant error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	host, err := audio.OpenHost()
	if err != nil {
		if cfg.Audio.Source == "microphone" {
			return &domain.InitError{Component: "audio host", Err: err}
		}
		logger.Warn("audio devices unavailable, replies will be printed only", "error", err)
	} else {
		defer host.Close()
		if in, out, err := host.DefaultDevices(); err != nil {
			logger.Warn("querying default devices", "error", err)
		} else {
			logger.Info("audio devices", "input", in, "output", out)
		}
	}

	var observer application.Metrics = &application.NoopMetrics{}
	var promMetrics *metrics.Metrics
	if cfg.Metrics.Addr != "" {
		promMetrics = metrics.NewMetrics()
		observer = promMetrics
	}

	capture := createAudioCapture(cfg.Audio, host, logger)

	stt, closeSTT, err := createTranscriber(ctx, cfg.Speech)
	if err != nil {
		return &domain.InitError{Component: "speech recognizer", Err: err}
	}
	defer closeSTT()

	conversation := application.NewConversation(
		createChatBackend(cfg.Chat),
		application.ConversationOptions{
			SystemPrompt: cfg.Chat.SystemPrompt,
			HistoryTurns: cfg.Chat.HistoryTurns,
		},
		observer,
		logger,
	)

	var player application.Player = &application.NoopPlayer{}
	if host != nil {
		player = audio.NewPortAudioPlayer(host, logger)
	}
	speaker := application.NewSynthSpeaker(
		createSynthesizer(cfg.TTS),
		player,
		os.Stdout,
		cfg.TTS.TempDir,
		observer,
		logger,
	)

	opts := application.DefaultOptions()
	opts.ListenTimeout = cfg.Audio.ListenTimeoutDuration()
	opts.PhraseTimeLimit = cfg.Audio.PhraseTimeLimitDuration()
	opts.SpeechLanguage = cfg.Speech.Language
	opts.VoiceLanguage = cfg.TTS.Language

	assistant := application.NewAssistant(
		capture,
		stt,
		conversation,
		speaker,
		observer,
		os.Stdout,
		opts,
		logger,
	)

	if promMetrics != nil {
		server := metrics.NewServer(cfg.Metrics.Addr, promMetrics, func() string {
			return assistant.State().String()
		}, logger)
		if err := server.Start(); err != nil {
			return &domain.InitError{Component: "metrics server", Err: err}
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			server.Shutdown(shutdownCtx)
		}()
	}

	logger.Info("starting voice assistant",
		"audio_source", cfg.Audio.Source,
		"speech_provider", cfg.Speech.Provider,
		"chat_provider", cfg.Chat.Provider,
		"chat_model", cfg.Chat.Model,
		"tts_provider", cfg.TTS.Provider,
	)

	return assistant.Run(ctx)
}

func createAudioCapture(cfg config.AudioConfig, host *audio.Host, logger *slog.Logger) application.AudioCapture {
	switch cfg.Source {
	case "http":
		return audio.NewHTTPSource(cfg.HTTPAddr, cfg.AuthToken, logger)
	case "file":
		return audio.NewFileSource(cfg.FileDir, logger)
	default:
		return audio.NewMicrophoneSource(host, audio.MicrophoneConfig{
			SampleRate:      cfg.SampleRate,
			Calibration:     cfg.CalibrationDuration(),
			PauseThreshold:  cfg.PauseThresholdDuration(),
			EnergyThreshold: float64(cfg.EnergyThreshold),
		}, logger)
	}
}

func createTranscriber(ctx context.Context, cfg config.SpeechConfig) (application.Transcriber, func(), error) {
	switch cfg.Provider {
	case "openai":
		return openai.NewWhisperClient(cfg.APIKey, cfg.BaseURL), func() {}, nil
	default:
		client, err := google.NewSpeechClient(ctx, cfg.CredentialsFile, cfg.APIKey)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %w", domain.ErrServiceUnavailable, err)
		}
		return client, func() { client.Close() }, nil
	}
}

func createChatBackend(cfg config.ChatConfig) application.ChatBackend {
	timeout := cfg.TimeoutDuration()
	switch cfg.Provider {
	case "anthropic":
		return anthropic.NewClaudeClientWithURL(cfg.APIKey, cfg.Model, cfg.BaseURL).WithRetry(cfg.MaxAttempts, timeout)
	case "gemini":
		return gemini.NewClientWithURL(cfg.APIKey, cfg.Model, cfg.BaseURL).WithRetry(cfg.MaxAttempts, timeout)
	default:
		return openai.NewChatClient(cfg.APIKey, cfg.BaseURL, cfg.Model, timeout, cfg.MaxAttempts)
	}
}

func createSynthesizer(cfg config.TTSConfig) application.Synthesizer {
	switch cfg.Provider {
	case "openai":
		return openai.NewSpeechClient(cfg.APIKey, cfg.BaseURL, cfg.Model, cfg.Voice)
	default:
		return gtts.NewClient()
	}
}

// setupLogger writes to stderr so stdout carries only replies.
func setupLogger(cfg config.LogConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}

	return slog.New(handler)
}
