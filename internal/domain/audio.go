package domain

import (
	"bytes"
	"time"
)

type Encoding string

const (
	EncodingWAV     Encoding = "wav"
	EncodingMP3     Encoding = "mp3"
	EncodingFLAC    Encoding = "flac"
	EncodingOGG     Encoding = "ogg"
	EncodingWebM    Encoding = "webm"
	EncodingUnknown Encoding = "unknown"
)

// Extension returns the file extension conventionally used for the encoding,
// including the leading dot.
func (e Encoding) Extension() string {
	if e == EncodingUnknown || e == "" {
		return ".bin"
	}
	return "." + string(e)
}

// DetectEncoding sniffs the container format from the leading bytes of data.
func DetectEncoding(data []byte) Encoding {
	switch {
	case len(data) >= 12 && bytes.Equal(data[0:4], []byte("RIFF")) && bytes.Equal(data[8:12], []byte("WAVE")):
		return EncodingWAV
	case bytes.HasPrefix(data, []byte("fLaC")):
		return EncodingFLAC
	case bytes.HasPrefix(data, []byte("OggS")):
		return EncodingOGG
	case bytes.HasPrefix(data, []byte{0x1A, 0x45, 0xDF, 0xA3}):
		return EncodingWebM
	case bytes.HasPrefix(data, []byte("ID3")):
		return EncodingMP3
	case len(data) >= 2 && data[0] == 0xFF && data[1]&0xE0 == 0xE0:
		return EncodingMP3
	default:
		return EncodingUnknown
	}
}

// AudioSample is one captured utterance. It is owned by the capture source
// until handed to a transcriber and discarded after the transcription attempt.
type AudioSample struct {
	Data       []byte
	Encoding   Encoding
	SampleRate int
	Duration   time.Duration

	// Bounds the sample was captured under.
	Timeout     time.Duration
	PhraseLimit time.Duration
}

// SpeechAudio is a synthesized rendering of a reply, held only until played.
type SpeechAudio struct {
	Data     []byte
	Encoding Encoding
}
