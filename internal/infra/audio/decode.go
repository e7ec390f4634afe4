package audio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/hajimehoshi/go-mp3"

	"voice-assistant/internal/domain"
)

// DecodeClip decodes a WAV or MP3 file into PCM-16 samples for playback.
func DecodeClip(data []byte) (*Clip, error) {
	switch enc := domain.DetectEncoding(data); enc {
	case domain.EncodingWAV:
		return DecodeWAV(data)
	case domain.EncodingMP3:
		return decodeMP3(data)
	default:
		return nil, fmt.Errorf("unsupported audio encoding: %s", enc)
	}
}

// decodeMP3 decodes to interleaved stereo; go-mp3 always emits two channels.
func decodeMP3(data []byte) (*Clip, error) {
	dec, err := mp3.NewDecoder(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("opening mp3: %w", err)
	}

	pcm, err := io.ReadAll(dec)
	if err != nil {
		return nil, fmt.Errorf("decoding mp3: %w", err)
	}

	if len(pcm) == 0 {
		return nil, errors.New("mp3 contains no audio")
	}

	samples := make([]int16, len(pcm)/2)
	for i := range samples {
		samples[i] = int16(binary.LittleEndian.Uint16(pcm[2*i:]))
	}

	return &Clip{
		Samples:    samples,
		SampleRate: dec.SampleRate(),
		Channels:   2,
	}, nil
}
