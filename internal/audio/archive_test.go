package audio

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUploader struct {
	objects []string
	err     error
}

func (f *fakeUploader) UploadFile(_ context.Context, objectName, path, contentType string) error {
	if f.err != nil {
		return f.err
	}
	if _, err := os.Stat(path); err != nil {
		return err
	}
	f.objects = append(f.objects, objectName+"|"+contentType)
	return nil
}

func writeWav(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "answer_1.wav")
	require.NoError(t, os.WriteFile(path, []byte("RIFF"), 0o644))
	return path
}

func TestObjectArchiver(t *testing.T) {
	path := writeWav(t)
	up := &fakeUploader{}

	require.NoError(t, ObjectArchiver{Store: up}.Archive(context.Background(), "cand", path))
	assert.Equal(t, []string{"cand/answer_1.wav|audio/wav"}, up.objects)
	assert.NoFileExists(t, path)
}

func TestObjectArchiver_KeepsFileOnFailure(t *testing.T) {
	path := writeWav(t)
	err := ObjectArchiver{Store: &fakeUploader{err: errors.New("offline")}}.Archive(context.Background(), "cand", path)
	assert.Error(t, err)
	assert.FileExists(t, path)
}

func TestLocalAndDiscardArchivers(t *testing.T) {
	path := writeWav(t)
	require.NoError(t, LocalArchiver{}.Archive(context.Background(), "cand", path))
	assert.FileExists(t, path)

	require.NoError(t, DiscardArchiver{}.Archive(context.Background(), "cand", path))
	assert.NoFileExists(t, path)
	assert.NoError(t, DiscardArchiver{}.Archive(context.Background(), "cand", path), "missing file is fine")
}
