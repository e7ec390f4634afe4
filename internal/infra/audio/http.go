package audio

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"voice-assistant/internal/domain"
)

const (
	maxUploadBytes = 10 << 20
	uploadQueueLen = 10
)

// HTTPSource takes utterances from clips POSTed to /audio. Each upload is
// one utterance, consumed in arrival order.
type HTTPSource struct {
	addr      string
	authToken string
	logger    *slog.Logger
	limiter   *RateLimiter
	mux       *http.ServeMux
	uploads   chan []byte

	mu       sync.Mutex
	server   *http.Server
	boundTo  string
	running  bool
	shutOnce sync.Once
}

func NewHTTPSource(addr string, authToken string, logger *slog.Logger) *HTTPSource {
	h := &HTTPSource{
		addr:      addr,
		authToken: authToken,
		logger:    logger,
		limiter:   NewRateLimiter(30, time.Minute),
		mux:       http.NewServeMux(),
		uploads:   make(chan []byte, uploadQueueLen),
	}
	h.mux.HandleFunc("POST /audio", h.limiter.Middleware(h.requireToken(h.handleUpload)))
	h.mux.HandleFunc("GET /health", h.handleHealth)
	return h
}

func (h *HTTPSource) Name() string {
	return "http"
}

// Start binds the listen address before returning, so an address already in
// use fails startup.
func (h *HTTPSource) Start(_ context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.running {
		return nil
	}

	ln, err := net.Listen("tcp", h.addr)
	if err != nil {
		return fmt.Errorf("binding %s: %v: %w", h.addr, err, domain.ErrDeviceUnavailable)
	}

	h.server = &http.Server{
		Handler:           h.mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	h.boundTo = ln.Addr().String()
	h.running = true

	go func() {
		if err := h.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			h.logger.Error("audio upload server error", "error", err)
		}
	}()

	h.logger.Info("accepting audio uploads", "addr", h.boundTo)
	return nil
}

// Addr is the bound address once started.
func (h *HTTPSource) Addr() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.boundTo
}

func (h *HTTPSource) Stop() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.running {
		return nil
	}
	h.running = false

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var err error
	if shutdownErr := h.server.Shutdown(ctx); shutdownErr != nil {
		h.logger.Warn("graceful shutdown failed, forcing close", "error", shutdownErr)
		if closeErr := h.server.Close(); closeErr != nil {
			err = fmt.Errorf("closing server: %w", closeErr)
		}
	}

	h.shutOnce.Do(func() { close(h.uploads) })
	return err
}

// Capture waits for the next uploaded clip, or returns
// domain.ErrCaptureTimeout if none arrives within timeout.
func (h *HTTPSource) Capture(ctx context.Context, timeout, phraseLimit time.Duration) (*domain.AudioSample, error) {
	var deadline <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		deadline = timer.C
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-deadline:
		return nil, domain.ErrCaptureTimeout
	case data, ok := <-h.uploads:
		if !ok {
			return nil, fmt.Errorf("upload queue closed: %w", domain.ErrDeviceUnavailable)
		}
		return newSample(data, timeout, phraseLimit), nil
	}
}

func (h *HTTPSource) Handler() http.Handler {
	return h.mux
}

// InjectAudio queues a clip as if it had been uploaded and reports whether
// there was room for it.
func (h *HTTPSource) InjectAudio(data []byte) bool {
	return h.enqueue(data)
}

func (h *HTTPSource) enqueue(data []byte) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.running && h.server != nil {
		return false
	}

	select {
	case h.uploads <- data:
		return true
	default:
		return false
	}
}

func (h *HTTPSource) requireToken(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if h.authToken == "" {
			next(w, r)
			return
		}

		token := r.Header.Get("X-Auth-Token")
		if token == "" {
			token = r.URL.Query().Get("token")
		}
		if token != h.authToken {
			h.logger.Warn("unauthorized audio upload", "remote_addr", r.RemoteAddr)
			writeJSON(w, http.StatusUnauthorized, map[string]any{"error": "unauthorized"})
			return
		}
		next(w, r)
	}
}

func (h *HTTPSource) handleUpload(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxUploadBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, map[string]any{"error": "clip too large", "limit": tooLarge.Limit})
			return
		}
		h.logger.Error("reading audio upload", "error", err)
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "failed to read body"})
		return
	}

	if len(data) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "empty audio"})
		return
	}

	if !h.enqueue(data) {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"error": "queue full, try again"})
		return
	}

	encoding := domain.DetectEncoding(data)
	h.logger.Info("received audio upload", "bytes", len(data), "encoding", encoding)
	writeJSON(w, http.StatusAccepted, map[string]any{
		"status":   "received",
		"bytes":    len(data),
		"encoding": encoding,
	})
}

func (h *HTTPSource) handleHealth(w http.ResponseWriter, _ *http.Request) {
	h.mu.Lock()
	running := h.running
	h.mu.Unlock()

	status, code := "ok", http.StatusOK
	if !running {
		status, code = "not_ready", http.StatusServiceUnavailable
	}

	writeJSON(w, code, map[string]any{
		"status":     status,
		"running":    running,
		"queue_size": len(h.uploads),
	})
}

func writeJSON(w http.ResponseWriter, code int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(body)
}
