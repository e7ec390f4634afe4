package audio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"time"
)

// wavHeader is the canonical 44-byte header of a PCM WAV file.
type wavHeader struct {
	ChunkID       [4]byte
	ChunkSize     uint32
	Format        [4]byte
	Subchunk1ID   [4]byte
	Subchunk1Size uint32
	AudioFormat   uint16
	NumChannels   uint16
	SampleRate    uint32
	ByteRate      uint32
	BlockAlign    uint16
	BitsPerSample uint16
	Subchunk2ID   [4]byte
	Subchunk2Size uint32
}

// Clip is decoded PCM-16 audio. Samples are interleaved when Channels > 1.
type Clip struct {
	Samples    []int16
	SampleRate int
	Channels   int
}

func (c *Clip) Duration() time.Duration {
	if c.SampleRate == 0 || c.Channels == 0 {
		return 0
	}
	frames := len(c.Samples) / c.Channels
	return time.Duration(frames) * time.Second / time.Duration(c.SampleRate)
}

// PCM returns the samples as little-endian 16-bit bytes.
func (c *Clip) PCM() []byte {
	out := make([]byte, len(c.Samples)*2)
	for i, s := range c.Samples {
		binary.LittleEndian.PutUint16(out[2*i:], uint16(s))
	}
	return out
}

// EncodeWAV encodes mono PCM-16 samples as a WAV file.
func EncodeWAV(samples []int16, sampleRate int) ([]byte, error) {
	if len(samples) == 0 {
		return nil, errors.New("cannot encode empty audio samples")
	}
	if sampleRate <= 0 {
		return nil, fmt.Errorf("sample rate must be positive, got %d", sampleRate)
	}

	dataSize := uint32(len(samples) * 2)
	header := wavHeader{
		ChunkID:       [4]byte{'R', 'I', 'F', 'F'},
		ChunkSize:     36 + dataSize,
		Format:        [4]byte{'W', 'A', 'V', 'E'},
		Subchunk1ID:   [4]byte{'f', 'm', 't', ' '},
		Subchunk1Size: 16,
		AudioFormat:   1,
		NumChannels:   1,
		SampleRate:    uint32(sampleRate),
		ByteRate:      uint32(sampleRate) * 2,
		BlockAlign:    2,
		BitsPerSample: 16,
		Subchunk2ID:   [4]byte{'d', 'a', 't', 'a'},
		Subchunk2Size: dataSize,
	}

	buf := bytes.NewBuffer(make([]byte, 0, 44+len(samples)*2))
	if err := binary.Write(buf, binary.LittleEndian, header); err != nil {
		return nil, fmt.Errorf("writing WAV header: %w", err)
	}
	if err := binary.Write(buf, binary.LittleEndian, samples); err != nil {
		return nil, fmt.Errorf("writing audio data: %w", err)
	}

	return buf.Bytes(), nil
}

// DecodeWAV decodes a 16-bit PCM WAV file. Chunks other than "fmt " and
// "data" are skipped, and a data chunk whose declared size overruns the file
// (as streamed WAV output often does) is truncated to what is present.
func DecodeWAV(data []byte) (*Clip, error) {
	if len(data) < 12 || string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return nil, errors.New("invalid WAV file: missing RIFF/WAVE header")
	}

	var (
		clip     Clip
		haveFmt  bool
		pcm      []byte
		haveData bool
	)

	offset := 12
	for offset+8 <= len(data) && !haveData {
		id := string(data[offset : offset+4])
		size := int(binary.LittleEndian.Uint32(data[offset+4 : offset+8]))
		body := offset + 8
		end := body + size
		if end > len(data) || end < body {
			end = len(data)
		}

		switch id {
		case "fmt ":
			if end-body < 16 {
				return nil, errors.New("invalid WAV file: short fmt chunk")
			}
			format := binary.LittleEndian.Uint16(data[body : body+2])
			channels := binary.LittleEndian.Uint16(data[body+2 : body+4])
			rate := binary.LittleEndian.Uint32(data[body+4 : body+8])
			bits := binary.LittleEndian.Uint16(data[body+14 : body+16])
			if format != 1 {
				return nil, fmt.Errorf("unsupported audio format: %d (only PCM is supported)", format)
			}
			if bits != 16 {
				return nil, fmt.Errorf("unsupported bit depth: %d (only 16-bit is supported)", bits)
			}
			if channels == 0 || rate == 0 {
				return nil, errors.New("invalid WAV file: zero channels or sample rate")
			}
			clip.Channels = int(channels)
			clip.SampleRate = int(rate)
			haveFmt = true
		case "data":
			pcm = data[body:end]
			haveData = true
		}

		offset = end + size%2
	}

	if !haveFmt {
		return nil, errors.New("invalid WAV file: missing fmt chunk")
	}
	if !haveData {
		return nil, errors.New("invalid WAV file: missing data chunk")
	}

	clip.Samples = make([]int16, len(pcm)/2)
	if err := binary.Read(bytes.NewReader(pcm[:len(clip.Samples)*2]), binary.LittleEndian, clip.Samples); err != nil {
		return nil, fmt.Errorf("reading audio samples: %w", err)
	}

	return &clip, nil
}
