package openai_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"voice-assistant/internal/domain"
	"voice-assistant/internal/infra/openai"
)

func TestWhisperClient_Transcribe(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/audio/transcriptions" {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parsing form: %v", err)
		}
		if got := r.FormValue("language"); got != "en" {
			t.Errorf("language: got %q, want en", got)
		}
		if got := r.FormValue("model"); got != "whisper-1" {
			t.Errorf("model: got %q", got)
		}

		file, header, err := r.FormFile("file")
		if err != nil {
			t.Fatalf("form file: %v", err)
		}
		defer file.Close()
		if header.Filename != "audio.wav" {
			t.Errorf("filename: got %q", header.Filename)
		}
		if data, _ := io.ReadAll(file); string(data) != "RIFF-audio" {
			t.Errorf("audio: got %q", data)
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"text": " What time is it? "})
	}))
	defer server.Close()

	client := openai.NewWhisperClient("test-key", server.URL)
	sample := &domain.AudioSample{Data: []byte("RIFF-audio"), Encoding: domain.EncodingWAV}

	transcript, err := client.Transcribe(context.Background(), sample, "en-US")
	if err != nil {
		t.Fatalf("Transcribe error: %v", err)
	}

	text, ok := transcript.Text()
	if !ok || text != "What time is it?" {
		t.Errorf("transcript: got %q present=%v", text, ok)
	}
}

func TestWhisperClient_EmptyTextIsAmbiguous(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"text":""}`))
	}))
	defer server.Close()

	client := openai.NewWhisperClient("k", server.URL)

	transcript, err := client.Transcribe(context.Background(), &domain.AudioSample{Data: []byte("x"), Encoding: domain.EncodingMP3}, "en-US")
	if err != nil {
		t.Fatalf("Transcribe error: %v", err)
	}
	if transcript.Reason() != domain.ReasonAmbiguousAudio {
		t.Errorf("reason: got %q", transcript.Reason())
	}
}

func TestWhisperClient_ServiceError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeAPIError(w, http.StatusInternalServerError)
	}))
	defer server.Close()

	client := openai.NewWhisperClient("k", server.URL)

	transcript, err := client.Transcribe(context.Background(), &domain.AudioSample{Data: []byte("x"), Encoding: domain.EncodingWAV}, "en-US")
	if !errors.Is(err, domain.ErrServiceUnavailable) {
		t.Fatalf("Transcribe: got %v, want ErrServiceUnavailable", err)
	}
	if transcript.Reason() != domain.ReasonServiceUnavailable {
		t.Errorf("reason: got %q", transcript.Reason())
	}
}
