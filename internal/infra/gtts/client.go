package gtts

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"voice-assistant/internal/domain"
	"voice-assistant/internal/infra"
)

const (
	DefaultBaseURL = "https://translate.google.com"

	// maxChunkLen is the longest text the translate_tts endpoint accepts.
	maxChunkLen = 100
)

// Client synthesizes MP3 speech through Google Translate's text-to-speech
// endpoint. Long text is split into chunks whose MP3 streams are concatenated.
type Client struct {
	httpClient *http.Client
	baseURL    string
	retry      infra.RetryConfig
}

func NewClient() *Client {
	return NewClientWithURL(DefaultBaseURL)
}

func NewClientWithURL(baseURL string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		baseURL:    strings.TrimRight(baseURL, "/"),
		retry:      infra.RetryConfigWithAttempts(2),
	}
}

func (c *Client) Synthesize(ctx context.Context, text, language string) (*domain.SpeechAudio, error) {
	chunks := Chunks(text)
	if len(chunks) == 0 {
		return nil, fmt.Errorf("nothing to synthesize")
	}

	var audio bytes.Buffer
	for i, chunk := range chunks {
		data, err := c.fetch(ctx, chunk, language, i, len(chunks))
		if err != nil {
			return nil, fmt.Errorf("chunk %d/%d: %w", i+1, len(chunks), err)
		}
		audio.Write(data)
	}

	return &domain.SpeechAudio{
		Data:     audio.Bytes(),
		Encoding: domain.EncodingMP3,
	}, nil
}

func (c *Client) fetch(ctx context.Context, chunk, language string, index, total int) ([]byte, error) {
	q := url.Values{}
	q.Set("ie", "UTF-8")
	q.Set("q", chunk)
	q.Set("tl", language)
	q.Set("client", "tw-ob")
	q.Set("total", fmt.Sprint(total))
	q.Set("idx", fmt.Sprint(index))
	q.Set("textlen", fmt.Sprint(utf8.RuneCountInString(chunk)))
	endpoint := c.baseURL + "/translate_tts?" + q.Encode()

	var data []byte
	err := infra.WithRetry(ctx, c.retry, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return infra.Permanent(fmt.Errorf("creating request: %w", err))
		}
		req.Header.Set("User-Agent", "Mozilla/5.0")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("sending request: %w: %w", domain.ErrServiceUnavailable, err)
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("reading response: %w", err)
		}

		if resp.StatusCode != http.StatusOK {
			apiErr := fmt.Errorf("tts error %d: %w", resp.StatusCode, domain.ErrServiceUnavailable)
			if infra.IsRetryableHTTPStatus(resp.StatusCode) {
				return apiErr
			}
			return infra.Permanent(apiErr)
		}
		if len(body) == 0 {
			return fmt.Errorf("empty audio: %w", domain.ErrServiceUnavailable)
		}

		data = body
		return nil
	})

	return data, err
}

// Chunks splits text into pieces of at most 100 runes, breaking after
// sentence punctuation or at whitespace where possible.
func Chunks(text string) []string {
	var chunks []string
	rest := []rune(strings.TrimSpace(text))

	for len(rest) > 0 {
		if len(rest) <= maxChunkLen {
			chunks = appendChunk(chunks, rest)
			break
		}

		cut := breakPoint(rest[:maxChunkLen+1])
		chunks = appendChunk(chunks, rest[:cut])
		rest = []rune(strings.TrimLeftFunc(string(rest[cut:]), unicode.IsSpace))
	}

	return chunks
}

// breakPoint picks where to end a chunk taken from window, whose last rune is
// the first one that does not fit.
func breakPoint(window []rune) int {
	limit := len(window) - 1
	for i := limit; i > 0; i-- {
		if strings.ContainsRune(".!?;:,", window[i-1]) && unicode.IsSpace(window[i]) {
			return i
		}
	}
	for i := limit; i > 0; i-- {
		if unicode.IsSpace(window[i]) {
			return i
		}
	}
	return limit
}

func appendChunk(chunks []string, r []rune) []string {
	if s := strings.TrimSpace(string(r)); s != "" {
		return append(chunks, s)
	}
	return chunks
}
