package google

import (
	"context"
	"fmt"
	"strings"

	speech "cloud.google.com/go/speech/apiv1"
	"cloud.google.com/go/speech/apiv1/speechpb"
	"google.golang.org/api/option"

	"voice-assistant/internal/domain"
	"voice-assistant/internal/infra/audio"
)

// opusSampleRate is the decode rate of every Ogg/WebM Opus stream.
const opusSampleRate = 48000

// RecognizeFunc performs a synchronous recognition request.
type RecognizeFunc func(ctx context.Context, req *speechpb.RecognizeRequest) (*speechpb.RecognizeResponse, error)

// SpeechClient transcribes samples with Google Cloud Speech-to-Text.
type SpeechClient struct {
	recognize RecognizeFunc
	close     func() error
}

// NewSpeechClient connects to the Speech API. Without a credentials file or
// API key the client falls back to Application Default Credentials.
func NewSpeechClient(ctx context.Context, credentialsFile, apiKey string) (*SpeechClient, error) {
	var opts []option.ClientOption
	switch {
	case credentialsFile != "":
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	case apiKey != "":
		opts = append(opts, option.WithAPIKey(apiKey))
	}

	client, err := speech.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create speech client: %w", err)
	}

	return &SpeechClient{
		recognize: func(ctx context.Context, req *speechpb.RecognizeRequest) (*speechpb.RecognizeResponse, error) {
			return client.Recognize(ctx, req)
		},
		close: client.Close,
	}, nil
}

// NewSpeechClientWithRecognizer builds a client around an existing recognizer.
func NewSpeechClientWithRecognizer(recognize RecognizeFunc) *SpeechClient {
	return &SpeechClient{
		recognize: recognize,
		close:     func() error { return nil },
	}
}

func (c *SpeechClient) Close() error {
	return c.close()
}

func (c *SpeechClient) Transcribe(ctx context.Context, sample *domain.AudioSample, language string) (domain.Transcript, error) {
	req, err := recognizeRequest(sample, language)
	if err != nil {
		// Undecodable audio counts as unintelligible speech.
		return domain.Absent(domain.ReasonAmbiguousAudio), nil
	}

	resp, err := c.recognize(ctx, req)
	if err != nil {
		return domain.Absent(domain.ReasonServiceUnavailable),
			fmt.Errorf("google speech recognition: %w: %w", domain.ErrServiceUnavailable, err)
	}

	var parts []string
	for _, result := range resp.GetResults() {
		alts := result.GetAlternatives()
		if len(alts) == 0 {
			continue
		}
		if text := strings.TrimSpace(alts[0].GetTranscript()); text != "" {
			parts = append(parts, text)
		}
	}

	if len(parts) == 0 {
		return domain.Absent(domain.ReasonAmbiguousAudio), nil
	}

	return domain.Present(strings.Join(parts, " ")), nil
}

// recognizeRequest builds the request for sample. WAV and MP3 are decoded and
// sent as raw LINEAR16; the remaining containers are sent as they are.
func recognizeRequest(sample *domain.AudioSample, language string) (*speechpb.RecognizeRequest, error) {
	cfg := &speechpb.RecognitionConfig{
		LanguageCode:               language,
		EnableAutomaticPunctuation: true,
	}
	content := sample.Data

	switch sample.Encoding {
	case domain.EncodingWAV, domain.EncodingMP3:
		clip, err := audio.DecodeClip(sample.Data)
		if err != nil {
			return nil, err
		}
		content = clip.PCM()
		cfg.Encoding = speechpb.RecognitionConfig_LINEAR16
		cfg.SampleRateHertz = int32(clip.SampleRate)
		cfg.AudioChannelCount = int32(clip.Channels)
	case domain.EncodingFLAC:
		cfg.Encoding = speechpb.RecognitionConfig_FLAC
	case domain.EncodingOGG:
		cfg.Encoding = speechpb.RecognitionConfig_OGG_OPUS
		cfg.SampleRateHertz = opusSampleRate
	case domain.EncodingWebM:
		cfg.Encoding = speechpb.RecognitionConfig_WEBM_OPUS
		cfg.SampleRateHertz = opusSampleRate
	default:
		return nil, fmt.Errorf("unsupported audio encoding: %s", sample.Encoding)
	}

	return &speechpb.RecognizeRequest{
		Config: cfg,
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Content{Content: content},
		},
	}, nil
}
