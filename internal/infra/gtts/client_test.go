package gtts_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"unicode/utf8"

	"voice-assistant/internal/domain"
	"voice-assistant/internal/infra/gtts"
)

func TestChunks(t *testing.T) {
	long := strings.Repeat("word ", 50)
	unbroken := strings.Repeat("x", 250)

	tests := []struct {
		name string
		text string
		want int
	}{
		{"empty", "   ", 0},
		{"short", "Paris is the capital of France.", 1},
		{"exactly limit", strings.Repeat("a", 100), 1},
		{"words", long, 3},
		{"no whitespace", unbroken, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chunks := gtts.Chunks(tt.text)
			if len(chunks) != tt.want {
				t.Fatalf("chunks: got %d, want %d (%q)", len(chunks), tt.want, chunks)
			}
			for _, c := range chunks {
				if n := utf8.RuneCountInString(c); n > 100 || n == 0 {
					t.Errorf("chunk length %d: %q", n, c)
				}
			}
		})
	}
}

func TestChunks_PrefersSentenceBreaks(t *testing.T) {
	first := "This first sentence is short enough to fit."
	second := strings.Repeat("and it goes on ", 5)
	text := first + " " + second + "until the end"

	chunks := gtts.Chunks(text)
	if len(chunks) < 2 {
		t.Fatalf("chunks: got %q", chunks)
	}
	if chunks[0] != first {
		t.Errorf("first chunk: got %q, want %q", chunks[0], first)
	}
	if strings.Join(chunks, " ") != text {
		t.Errorf("rejoined text differs: %q", strings.Join(chunks, " "))
	}
}

func TestClient_Synthesize(t *testing.T) {
	var (
		mu      sync.Mutex
		queries []string
		langs   []string
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/translate_tts" {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		mu.Lock()
		queries = append(queries, r.URL.Query().Get("q"))
		langs = append(langs, r.URL.Query().Get("tl"))
		mu.Unlock()

		w.Header().Set("Content-Type", "audio/mpeg")
		w.Write([]byte("mp3:" + r.URL.Query().Get("idx") + ";"))
	}))
	defer server.Close()

	client := gtts.NewClientWithURL(server.URL)
	text := strings.Repeat("hello there ", 12)

	speech, err := client.Synthesize(context.Background(), text, "es")
	if err != nil {
		t.Fatalf("Synthesize error: %v", err)
	}

	if speech.Encoding != domain.EncodingMP3 {
		t.Errorf("encoding: got %s, want mp3", speech.Encoding)
	}
	if string(speech.Data) != "mp3:0;mp3:1;" {
		t.Errorf("data: got %q", speech.Data)
	}
	if len(queries) != 2 || strings.Join(queries, " ") != strings.TrimSpace(text) {
		t.Errorf("queries: got %q", queries)
	}
	if langs[0] != "es" {
		t.Errorf("language: got %q, want es", langs[0])
	}
}

func TestClient_SynthesizeErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
	}{
		{"forbidden", http.StatusForbidden},
		{"unavailable", http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer server.Close()

			client := gtts.NewClientWithURL(server.URL)

			if _, err := client.Synthesize(context.Background(), "hello", "en"); !errors.Is(err, domain.ErrServiceUnavailable) {
				t.Fatalf("Synthesize: got %v, want ErrServiceUnavailable", err)
			}
		})
	}
}

func TestClient_SynthesizeEmptyText(t *testing.T) {
	client := gtts.NewClientWithURL("http://127.0.0.1:0")

	if _, err := client.Synthesize(context.Background(), " ", "en"); err == nil {
		t.Fatal("expected error for empty text")
	}
}
