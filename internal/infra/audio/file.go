package audio

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"voice-assistant/internal/domain"
)

const filePollInterval = 200 * time.Millisecond

var fileExtensions = map[string]bool{
	".wav":  true,
	".mp3":  true,
	".flac": true,
	".ogg":  true,
	".webm": true,
}

// FileSource takes utterances from audio files dropped into a directory.
// Each file is used once and renamed with a .processed suffix.
type FileSource struct {
	dir       string
	logger    *slog.Logger
	processed map[string]bool
	mu        sync.Mutex
}

func NewFileSource(dir string, logger *slog.Logger) *FileSource {
	return &FileSource{
		dir:       dir,
		logger:    logger,
		processed: make(map[string]bool),
	}
}

func (f *FileSource) Name() string {
	return "file"
}

func (f *FileSource) Start(_ context.Context) error {
	if err := os.MkdirAll(f.dir, 0755); err != nil {
		return fmt.Errorf("creating audio dir: %w", err)
	}
	f.logger.Info("watching for audio files", "dir", f.dir)
	return nil
}

func (f *FileSource) Stop() error {
	return nil
}

// Capture returns the next unprocessed file, or domain.ErrCaptureTimeout if
// none appears within timeout.
func (f *FileSource) Capture(ctx context.Context, timeout, phraseLimit time.Duration) (*domain.AudioSample, error) {
	var deadline <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		deadline = timer.C
	}

	ticker := time.NewTicker(filePollInterval)
	defer ticker.Stop()

	for {
		data, err := f.checkForNewFile()
		if err != nil {
			return nil, err
		}
		if data != nil {
			return newSample(data, timeout, phraseLimit), nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-deadline:
			return nil, domain.ErrCaptureTimeout
		case <-ticker.C:
		}
	}
}

func (f *FileSource) checkForNewFile() ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	entries, err := os.ReadDir(f.dir)
	if err != nil {
		return nil, fmt.Errorf("reading dir: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || !fileExtensions[filepath.Ext(entry.Name())] {
			continue
		}

		path := filepath.Join(f.dir, entry.Name())
		if f.processed[path] {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading file %s: %w", path, err)
		}

		f.processed[path] = true

		if err := os.Rename(path, path+".processed"); err != nil {
			f.logger.Warn("marking audio file processed", "path", path, "error", err)
		}

		return data, nil
	}

	return nil, nil
}

// newSample wraps an encoded clip received from outside the process.
func newSample(data []byte, timeout, phraseLimit time.Duration) *domain.AudioSample {
	sample := &domain.AudioSample{
		Data:        data,
		Encoding:    domain.DetectEncoding(data),
		Timeout:     timeout,
		PhraseLimit: phraseLimit,
	}
	if sample.Encoding == domain.EncodingWAV {
		if clip, err := DecodeWAV(data); err == nil {
			sample.SampleRate = clip.SampleRate
			sample.Duration = clip.Duration()
		}
	}
	return sample
}
