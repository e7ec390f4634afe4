package google_test

import (
	"context"
	"errors"
	"testing"

	"cloud.google.com/go/speech/apiv1/speechpb"

	"voice-assistant/internal/domain"
	"voice-assistant/internal/infra/audio"
	"voice-assistant/internal/infra/google"
)

type fakeRecognizer struct {
	resp *speechpb.RecognizeResponse
	err  error
	reqs []*speechpb.RecognizeRequest
}

func (f *fakeRecognizer) recognize(_ context.Context, req *speechpb.RecognizeRequest) (*speechpb.RecognizeResponse, error) {
	f.reqs = append(f.reqs, req)
	return f.resp, f.err
}

func result(transcripts ...string) *speechpb.SpeechRecognitionResult {
	r := &speechpb.SpeechRecognitionResult{}
	for _, t := range transcripts {
		r.Alternatives = append(r.Alternatives, &speechpb.SpeechRecognitionAlternative{Transcript: t})
	}
	return r
}

func wavSample(t *testing.T) *domain.AudioSample {
	t.Helper()
	data, err := audio.EncodeWAV([]int16{1, 2, 3, 4}, 16000)
	if err != nil {
		t.Fatalf("encoding wav: %v", err)
	}
	return &domain.AudioSample{Data: data, Encoding: domain.EncodingWAV, SampleRate: 16000}
}

func TestSpeechClient_Transcribe(t *testing.T) {
	fake := &fakeRecognizer{resp: &speechpb.RecognizeResponse{
		Results: []*speechpb.SpeechRecognitionResult{
			result("What is the capital", "what is the capitol"),
			result(" of France?"),
		},
	}}
	client := google.NewSpeechClientWithRecognizer(fake.recognize)

	transcript, err := client.Transcribe(context.Background(), wavSample(t), "en-US")
	if err != nil {
		t.Fatalf("Transcribe error: %v", err)
	}

	text, ok := transcript.Text()
	if !ok || text != "What is the capital of France?" {
		t.Errorf("transcript: got %q present=%v", text, ok)
	}

	cfg := fake.reqs[0].GetConfig()
	if cfg.GetEncoding() != speechpb.RecognitionConfig_LINEAR16 {
		t.Errorf("encoding: got %v", cfg.GetEncoding())
	}
	if cfg.GetSampleRateHertz() != 16000 || cfg.GetAudioChannelCount() != 1 {
		t.Errorf("format: rate=%d channels=%d", cfg.GetSampleRateHertz(), cfg.GetAudioChannelCount())
	}
	if cfg.GetLanguageCode() != "en-US" {
		t.Errorf("language: got %q", cfg.GetLanguageCode())
	}
	if got := len(fake.reqs[0].GetAudio().GetContent()); got != 8 {
		t.Errorf("content: got %d bytes, want 8 bytes of PCM", got)
	}
}

func TestSpeechClient_NoResultsIsAmbiguous(t *testing.T) {
	tests := []struct {
		name string
		resp *speechpb.RecognizeResponse
	}{
		{"no results", &speechpb.RecognizeResponse{}},
		{"no alternatives", &speechpb.RecognizeResponse{Results: []*speechpb.SpeechRecognitionResult{{}}}},
		{"blank transcript", &speechpb.RecognizeResponse{Results: []*speechpb.SpeechRecognitionResult{result("  ")}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := google.NewSpeechClientWithRecognizer((&fakeRecognizer{resp: tt.resp}).recognize)

			transcript, err := client.Transcribe(context.Background(), wavSample(t), "en-US")
			if err != nil {
				t.Fatalf("Transcribe error: %v", err)
			}
			if transcript.Reason() != domain.ReasonAmbiguousAudio {
				t.Errorf("reason: got %q", transcript.Reason())
			}
		})
	}
}

func TestSpeechClient_ServiceError(t *testing.T) {
	fake := &fakeRecognizer{err: errors.New("rpc error: code = Unavailable")}
	client := google.NewSpeechClientWithRecognizer(fake.recognize)

	transcript, err := client.Transcribe(context.Background(), wavSample(t), "en-US")
	if !errors.Is(err, domain.ErrServiceUnavailable) {
		t.Fatalf("Transcribe: got %v, want ErrServiceUnavailable", err)
	}
	if transcript.Reason() != domain.ReasonServiceUnavailable {
		t.Errorf("reason: got %q", transcript.Reason())
	}
}

func TestSpeechClient_Encodings(t *testing.T) {
	tests := []struct {
		encoding domain.Encoding
		want     speechpb.RecognitionConfig_AudioEncoding
		rate     int32
	}{
		{domain.EncodingFLAC, speechpb.RecognitionConfig_FLAC, 0},
		{domain.EncodingOGG, speechpb.RecognitionConfig_OGG_OPUS, 48000},
		{domain.EncodingWebM, speechpb.RecognitionConfig_WEBM_OPUS, 48000},
	}

	for _, tt := range tests {
		t.Run(string(tt.encoding), func(t *testing.T) {
			fake := &fakeRecognizer{resp: &speechpb.RecognizeResponse{
				Results: []*speechpb.SpeechRecognitionResult{result("hi")},
			}}
			client := google.NewSpeechClientWithRecognizer(fake.recognize)

			sample := &domain.AudioSample{Data: []byte("encoded"), Encoding: tt.encoding}
			if _, err := client.Transcribe(context.Background(), sample, "en-US"); err != nil {
				t.Fatalf("Transcribe error: %v", err)
			}

			cfg := fake.reqs[0].GetConfig()
			if cfg.GetEncoding() != tt.want || cfg.GetSampleRateHertz() != tt.rate {
				t.Errorf("config: encoding=%v rate=%d", cfg.GetEncoding(), cfg.GetSampleRateHertz())
			}
			if string(fake.reqs[0].GetAudio().GetContent()) != "encoded" {
				t.Error("content was not sent as-is")
			}
		})
	}
}

func TestSpeechClient_UndecodableAudioIsAmbiguous(t *testing.T) {
	fake := &fakeRecognizer{}
	client := google.NewSpeechClientWithRecognizer(fake.recognize)

	sample := &domain.AudioSample{Data: []byte("not audio"), Encoding: domain.EncodingUnknown}
	transcript, err := client.Transcribe(context.Background(), sample, "en-US")
	if err != nil {
		t.Fatalf("Transcribe error: %v", err)
	}
	if transcript.Reason() != domain.ReasonAmbiguousAudio {
		t.Errorf("reason: got %q", transcript.Reason())
	}
	if len(fake.reqs) != 0 {
		t.Error("recognizer called for undecodable audio")
	}
}
