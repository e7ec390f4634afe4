package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Audio   AudioConfig   `yaml:"audio"`
	Speech  SpeechConfig  `yaml:"speech"`
	Chat    ChatConfig    `yaml:"chat"`
	TTS     TTSConfig     `yaml:"tts"`
	Metrics MetricsConfig `yaml:"metrics"`
	Log     LogConfig     `yaml:"log"`
}

type AudioConfig struct {
	Source          string `yaml:"source"`
	HTTPAddr        string `yaml:"http_addr"`
	FileDir         string `yaml:"file_dir"`
	AuthToken       string `yaml:"auth_token"`
	SampleRate      int    `yaml:"sample_rate"`
	Calibration     string `yaml:"calibration"`
	ListenTimeout   string `yaml:"listen_timeout"`
	PhraseTimeLimit string `yaml:"phrase_time_limit"`
	PauseThreshold  string `yaml:"pause_threshold"`
	EnergyThreshold int    `yaml:"energy_threshold"`
}

type SpeechConfig struct {
	Provider        string `yaml:"provider"`
	Language        string `yaml:"language"`
	CredentialsFile string `yaml:"credentials_file"`
	APIKey          string `yaml:"api_key"`
	BaseURL         string `yaml:"base_url"`
}

type ChatConfig struct {
	Provider     string `yaml:"provider"`
	APIKey       string `yaml:"api_key"`
	BaseURL      string `yaml:"base_url"`
	Model        string `yaml:"model"`
	SystemPrompt string `yaml:"system_prompt"`
	HistoryTurns int    `yaml:"history_turns"`
	MaxAttempts  int    `yaml:"max_attempts"`
	Timeout      string `yaml:"timeout"`
}

type TTSConfig struct {
	Provider string `yaml:"provider"`
	Language string `yaml:"language"`
	APIKey   string `yaml:"api_key"`
	BaseURL  string `yaml:"base_url"`
	Model    string `yaml:"model"`
	Voice    string `yaml:"voice"`
	TempDir  string `yaml:"temp_dir"`
}

type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	return Parse(data)
}

// Parse expands environment references in data, decodes it and applies defaults.
func Parse(data []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	cfg.setDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) setDefaults() {
	if c.Audio.Source == "" {
		c.Audio.Source = "microphone"
	}
	if c.Audio.HTTPAddr == "" {
		c.Audio.HTTPAddr = ":8080"
	}
	if c.Audio.FileDir == "" {
		c.Audio.FileDir = "./audio"
	}
	if c.Audio.SampleRate == 0 {
		c.Audio.SampleRate = 16000
	}
	if c.Audio.Calibration == "" {
		c.Audio.Calibration = "1s"
	}
	if c.Audio.ListenTimeout == "" {
		c.Audio.ListenTimeout = "5s"
	}
	if c.Audio.PhraseTimeLimit == "" {
		c.Audio.PhraseTimeLimit = "3s"
	}
	if c.Audio.PauseThreshold == "" {
		c.Audio.PauseThreshold = "800ms"
	}
	if c.Audio.EnergyThreshold == 0 {
		c.Audio.EnergyThreshold = 300
	}
	if c.Speech.Provider == "" {
		c.Speech.Provider = "google"
	}
	if c.Speech.Language == "" {
		c.Speech.Language = "en-US"
	}
	if c.Speech.BaseURL == "" {
		c.Speech.BaseURL = "https://api.openai.com/v1"
	}
	if c.Chat.Provider == "" {
		c.Chat.Provider = "openai"
	}
	if c.Chat.BaseURL == "" || c.Chat.Model == "" {
		baseURL, model := chatDefaults(c.Chat.Provider)
		if c.Chat.BaseURL == "" {
			c.Chat.BaseURL = baseURL
		}
		if c.Chat.Model == "" {
			c.Chat.Model = model
		}
	}
	if c.Chat.MaxAttempts == 0 {
		c.Chat.MaxAttempts = 1
	}
	if c.Chat.Timeout == "" {
		c.Chat.Timeout = "30s"
	}
	if c.TTS.Provider == "" {
		c.TTS.Provider = "gtts"
	}
	if c.TTS.Language == "" {
		c.TTS.Language = "en"
	}
	if c.TTS.BaseURL == "" {
		c.TTS.BaseURL = "https://api.openai.com/v1"
	}
	if c.TTS.Model == "" {
		c.TTS.Model = "tts-1"
	}
	if c.TTS.Voice == "" {
		c.TTS.Voice = "alloy"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

// Validate reports every configuration problem that would prevent startup.
func (c *Config) Validate() error {
	var errs []error

	switch c.Audio.Source {
	case "microphone", "file", "http":
	default:
		errs = append(errs, fmt.Errorf("audio.source: unknown source %q", c.Audio.Source))
	}
	if c.Audio.SampleRate < 0 {
		errs = append(errs, fmt.Errorf("audio.sample_rate: must be positive, got %d", c.Audio.SampleRate))
	}

	durations := map[string]string{
		"audio.calibration":       c.Audio.Calibration,
		"audio.listen_timeout":    c.Audio.ListenTimeout,
		"audio.phrase_time_limit": c.Audio.PhraseTimeLimit,
		"audio.pause_threshold":   c.Audio.PauseThreshold,
		"chat.timeout":            c.Chat.Timeout,
	}
	for field, value := range durations {
		d, err := time.ParseDuration(value)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", field, err))
			continue
		}
		if d < 0 {
			errs = append(errs, fmt.Errorf("%s: must not be negative", field))
		}
	}

	switch c.Speech.Provider {
	case "google":
	case "openai":
		if c.Speech.APIKey == "" {
			errs = append(errs, errors.New("speech.api_key: required for the openai provider"))
		}
	default:
		errs = append(errs, fmt.Errorf("speech.provider: unknown provider %q", c.Speech.Provider))
	}

	switch c.Chat.Provider {
	case "openai", "anthropic", "gemini":
		if c.Chat.APIKey == "" {
			errs = append(errs, errors.New("chat.api_key: required"))
		}
	default:
		errs = append(errs, fmt.Errorf("chat.provider: unknown provider %q", c.Chat.Provider))
	}
	if c.Chat.HistoryTurns < 0 {
		errs = append(errs, fmt.Errorf("chat.history_turns: must not be negative, got %d", c.Chat.HistoryTurns))
	}
	if c.Chat.MaxAttempts < 1 {
		errs = append(errs, fmt.Errorf("chat.max_attempts: must be at least 1, got %d", c.Chat.MaxAttempts))
	}

	switch c.TTS.Provider {
	case "gtts":
	case "openai":
		if c.TTS.APIKey == "" {
			errs = append(errs, errors.New("tts.api_key: required for the openai provider"))
		}
	default:
		errs = append(errs, fmt.Errorf("tts.provider: unknown provider %q", c.TTS.Provider))
	}

	return errors.Join(errs...)
}

func chatDefaults(provider string) (baseURL, model string) {
	switch provider {
	case "anthropic":
		return "https://api.anthropic.com/v1", "claude-sonnet-4-20250514"
	case "gemini":
		return "https://generativelanguage.googleapis.com/v1beta", "gemini-2.0-flash"
	default:
		return "https://proxy.tune.app", "openai/gpt-4o-mini"
	}
}

// ListenTimeoutDuration is how long a capture waits for speech to start.
func (c AudioConfig) ListenTimeoutDuration() time.Duration {
	return mustDuration(c.ListenTimeout)
}

// PhraseTimeLimitDuration is the longest phrase a capture records.
func (c AudioConfig) PhraseTimeLimitDuration() time.Duration {
	return mustDuration(c.PhraseTimeLimit)
}

func (c AudioConfig) CalibrationDuration() time.Duration {
	return mustDuration(c.Calibration)
}

func (c AudioConfig) PauseThresholdDuration() time.Duration {
	return mustDuration(c.PauseThreshold)
}

func (c ChatConfig) TimeoutDuration() time.Duration {
	return mustDuration(c.Timeout)
}

// mustDuration parses a value already checked by Validate.
func mustDuration(value string) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0
	}
	return d
}
