package openai

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	goopenai "github.com/sashabaranov/go-openai"

	"voice-assistant/internal/domain"
	"voice-assistant/internal/infra"
)

const DefaultBaseURL = "https://api.openai.com/v1"

func newClient(apiKey, baseURL string, timeout time.Duration) *goopenai.Client {
	cfg := goopenai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = strings.TrimRight(baseURL, "/")
	}
	cfg.HTTPClient = &http.Client{Timeout: timeout}
	return goopenai.NewClientWithConfig(cfg)
}

// classify wraps err as a service failure and marks client errors other than
// rate limiting as permanent.
func classify(op string, err error) error {
	wrapped := fmt.Errorf("%s: %w: %w", op, domain.ErrServiceUnavailable, err)

	status := 0
	var apiErr *goopenai.APIError
	var reqErr *goopenai.RequestError
	switch {
	case errors.As(err, &apiErr):
		status = apiErr.HTTPStatusCode
	case errors.As(err, &reqErr):
		status = reqErr.HTTPStatusCode
	}

	if status >= 400 && !infra.IsRetryableHTTPStatus(status) {
		return infra.Permanent(wrapped)
	}
	return wrapped
}
