package application_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"testing"

	"voice-assistant/internal/application"
	"voice-assistant/internal/domain"
)

type mockSynth struct {
	err    error
	silent bool
	texts  []string
}

func (m *mockSynth) Synthesize(_ context.Context, text, _ string) (*domain.SpeechAudio, error) {
	m.texts = append(m.texts, text)
	if m.err != nil {
		return nil, m.err
	}
	if m.silent {
		return nil, nil
	}
	return &domain.SpeechAudio{Data: []byte("audio:" + text), Encoding: domain.EncodingMP3}, nil
}

// mockPlayer records what was on disk at play time.
type mockPlayer struct {
	err    error
	paths  []string
	played [][]byte
}

func (m *mockPlayer) Play(_ context.Context, path string) error {
	m.paths = append(m.paths, path)
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	m.played = append(m.played, data)
	return m.err
}

func assertEmptyDir(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("reading temp dir: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("temp artifacts left behind: %d", len(entries))
	}
}

func TestSpeaker_Speak(t *testing.T) {
	dir := t.TempDir()
	synth := &mockSynth{}
	player := &mockPlayer{}
	var fallback bytes.Buffer

	speaker := application.NewSynthSpeaker(synth, player, &fallback, dir, nil, discardLogger())
	speaker.Speak(context.Background(), "Paris is the capital of France.", "en")

	if len(player.played) != 1 || string(player.played[0]) != "audio:Paris is the capital of France." {
		t.Errorf("played: got %q", player.played)
	}
	if fallback.Len() != 0 {
		t.Errorf("fallback written on success: %q", fallback.String())
	}
	assertEmptyDir(t, dir)
}

func TestSpeaker_SpeakTwiceIndependent(t *testing.T) {
	dir := t.TempDir()
	player := &mockPlayer{}

	speaker := application.NewSynthSpeaker(&mockSynth{}, player, &bytes.Buffer{}, dir, nil, discardLogger())
	speaker.Speak(context.Background(), "same", "en")
	assertEmptyDir(t, dir)
	speaker.Speak(context.Background(), "same", "en")
	assertEmptyDir(t, dir)

	if len(player.played) != 2 {
		t.Fatalf("playbacks: got %d, want 2", len(player.played))
	}
	if player.paths[0] == player.paths[1] {
		t.Errorf("playbacks shared a temp file: %s", player.paths[0])
	}
}

func TestSpeaker_Fallback(t *testing.T) {
	tests := []struct {
		name   string
		synth  *mockSynth
		player *mockPlayer
	}{
		{
			name:   "synthesis failure",
			synth:  &mockSynth{err: domain.ErrServiceUnavailable},
			player: &mockPlayer{},
		},
		{
			name:   "synthesizer returned no audio",
			synth:  &mockSynth{silent: true},
			player: &mockPlayer{},
		},
		{
			name:   "playback failure",
			synth:  &mockSynth{},
			player: &mockPlayer{err: domain.ErrDeviceUnavailable},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			metrics := &recordingMetrics{}
			var fallback bytes.Buffer

			speaker := application.NewSynthSpeaker(tt.synth, tt.player, &fallback, dir, metrics, discardLogger())
			speaker.Speak(context.Background(), "hello there", "en")

			if got := fallback.String(); got != "Response (Audio Failed): hello there\n" {
				t.Errorf("fallback: got %q", got)
			}
			if metrics.count("speak/fallback") != 1 {
				t.Errorf("stages: %v", metrics.stages)
			}
			assertEmptyDir(t, dir)
		})
	}
}

func TestSpeaker_NoAudioSkipsPlayer(t *testing.T) {
	dir := t.TempDir()
	player := &mockPlayer{}
	var fallback bytes.Buffer

	speaker := application.NewSynthSpeaker(&mockSynth{silent: true}, player, &fallback, dir, nil, discardLogger())
	speaker.Speak(context.Background(), "quiet", "en")

	if len(player.paths) != 0 {
		t.Errorf("player called with %v", player.paths)
	}
	if got := fallback.String(); got != "Response (Audio Failed): quiet\n" {
		t.Errorf("fallback: got %q", got)
	}
	assertEmptyDir(t, dir)
}

func TestSpeaker_TempDirUnavailable(t *testing.T) {
	var fallback bytes.Buffer
	player := &mockPlayer{}

	speaker := application.NewSynthSpeaker(&mockSynth{}, player, &fallback, "/nonexistent/dir/for/test", nil, discardLogger())
	speaker.Speak(context.Background(), "text", "en")

	if len(player.paths) != 0 {
		t.Error("player called without a temp file")
	}
	if fallback.String() != "Response (Audio Failed): text\n" {
		t.Errorf("fallback: got %q", fallback.String())
	}
}

func TestNoopPlayer(t *testing.T) {
	err := (&application.NoopPlayer{}).Play(context.Background(), "x.mp3")
	if !errors.Is(err, domain.ErrDeviceUnavailable) {
		t.Errorf("got %v, want ErrDeviceUnavailable", err)
	}
}
