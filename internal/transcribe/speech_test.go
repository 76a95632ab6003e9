package transcribe

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"cloud.google.com/go/speech/apiv1/speechpb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempWav(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "answer.wav")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestSpeechTranscriber_JoinsResults(t *testing.T) {
	var got *speechpb.RecognizeRequest
	st := &SpeechTranscriber{
		recognize: func(_ context.Context, req *speechpb.RecognizeRequest) (*speechpb.RecognizeResponse, error) {
			got = req
			return &speechpb.RecognizeResponse{Results: []*speechpb.SpeechRecognitionResult{
				{Alternatives: []*speechpb.SpeechRecognitionAlternative{{Transcript: "I built "}, {Transcript: "ignored"}}},
				{Alternatives: nil},
				{Alternatives: []*speechpb.SpeechRecognitionAlternative{{Transcript: "a cache."}}},
			}}, nil
		},
	}

	text, err := st.Transcribe(context.Background(), writeTempWav(t, "RIFF"))
	require.NoError(t, err)
	assert.Equal(t, "I built a cache.", text)

	require.NotNil(t, got)
	assert.Equal(t, speechpb.RecognitionConfig_LINEAR16, got.GetConfig().GetEncoding())
	assert.Equal(t, int32(16000), got.GetConfig().GetSampleRateHertz())
	assert.Equal(t, DefaultLanguageCode, got.GetConfig().GetLanguageCode())
	assert.Equal(t, []byte("RIFF"), got.GetAudio().GetContent())
}

func TestSpeechTranscriber_Errors(t *testing.T) {
	st := &SpeechTranscriber{
		languageCode: "en-GB",
		recognize: func(context.Context, *speechpb.RecognizeRequest) (*speechpb.RecognizeResponse, error) {
			return nil, errors.New("quota exceeded")
		},
	}

	_, err := st.Transcribe(context.Background(), writeTempWav(t, "RIFF"))
	assert.ErrorContains(t, err, "quota exceeded")

	_, err = st.Transcribe(context.Background(), filepath.Join(t.TempDir(), "missing.wav"))
	assert.Error(t, err)

	assert.Equal(t, "en-GB", st.RecognitionConfig().GetLanguageCode())
	assert.NoError(t, st.Close())
}
