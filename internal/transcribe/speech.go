package transcribe

import (
	"context"
	"fmt"
	"os"
	"strings"

	speech "cloud.google.com/go/speech/apiv1"
	"cloud.google.com/go/speech/apiv1/speechpb"
	"google.golang.org/api/option"

	"github.com/jonathan/interview-screener/internal/audio"
)

// DefaultLanguageCode is used when no language is configured.
const DefaultLanguageCode = "en-US"

type recognizeFunc func(ctx context.Context, req *speechpb.RecognizeRequest) (*speechpb.RecognizeResponse, error)

// SpeechTranscriber uses Google Cloud Speech-to-Text synchronous recognition.
type SpeechTranscriber struct {
	languageCode string
	recognize    recognizeFunc
	close        func() error
}

// NewSpeechTranscriber creates a Cloud Speech client. When credentialsFile is
// empty, application default credentials are used.
func NewSpeechTranscriber(ctx context.Context, languageCode, credentialsFile string) (*SpeechTranscriber, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	client, err := speech.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create speech client: %w", err)
	}

	return &SpeechTranscriber{
		languageCode: languageCode,
		recognize: func(ctx context.Context, req *speechpb.RecognizeRequest) (*speechpb.RecognizeResponse, error) {
			return client.Recognize(ctx, req)
		},
		close: client.Close,
	}, nil
}

// RecognitionConfig returns the request config for normalized recordings.
func (t *SpeechTranscriber) RecognitionConfig() *speechpb.RecognitionConfig {
	lang := t.languageCode
	if lang == "" {
		lang = DefaultLanguageCode
	}
	return &speechpb.RecognitionConfig{
		Encoding:                   speechpb.RecognitionConfig_LINEAR16,
		SampleRateHertz:            audio.SampleRate,
		AudioChannelCount:          audio.Channels,
		LanguageCode:               lang,
		EnableAutomaticPunctuation: true,
	}
}

// Transcribe sends the file content and joins the top alternative of each result.
func (t *SpeechTranscriber) Transcribe(ctx context.Context, wavPath string) (string, error) {
	content, err := os.ReadFile(wavPath)
	if err != nil {
		return "", fmt.Errorf("failed to read audio: %w", err)
	}

	resp, err := t.recognize(ctx, &speechpb.RecognizeRequest{
		Config: t.RecognitionConfig(),
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Content{Content: content},
		},
	})
	if err != nil {
		return "", fmt.Errorf("speech recognition failed: %w", err)
	}

	parts := make([]string, 0, len(resp.GetResults()))
	for _, result := range resp.GetResults() {
		if alts := result.GetAlternatives(); len(alts) > 0 {
			if text := strings.TrimSpace(alts[0].GetTranscript()); text != "" {
				parts = append(parts, text)
			}
		}
	}
	return strings.Join(parts, " "), nil
}

// Close releases the client connection.
func (t *SpeechTranscriber) Close() error {
	if t.close == nil {
		return nil
	}
	return t.close()
}
