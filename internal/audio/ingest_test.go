package audio

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedNow() time.Time { return time.UnixMilli(1700000000123) }

func copyConverter(t *testing.T) Converter {
	return ConverterFunc(func(_ context.Context, src, dst string) error {
		data, err := os.ReadFile(src)
		require.NoError(t, err)
		return os.WriteFile(dst, append([]byte("RIFF"), data...), 0o644)
	})
}

func listDir(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestIngest_Success(t *testing.T) {
	root := t.TempDir()
	in := NewIngestor(root, copyConverter(t), nil)
	in.Now = fixedNow

	wav, err := in.Ingest(context.Background(), "cand-1", strings.NewReader("opus-bytes"), "clip.webm")
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(root, "cand-1", "answer_1700000000123.wav"), wav)
	assert.Equal(t, []string{"answer_1700000000123.wav"}, listDir(t, filepath.Join(root, "cand-1")), "raw file must be removed")

	data, err := os.ReadFile(wav)
	require.NoError(t, err)
	assert.Equal(t, "RIFFopus-bytes", string(data))
}

func TestIngest_ConversionFailureCleansUp(t *testing.T) {
	root := t.TempDir()
	boom := errors.New("invalid data found when processing input")
	in := NewIngestor(root, ConverterFunc(func(_ context.Context, _, dst string) error {
		_ = os.WriteFile(dst, []byte("partial"), 0o644)
		return boom
	}), nil)

	_, err := in.Ingest(context.Background(), "cand-2", strings.NewReader("garbage"), "clip.ogg")

	var convErr *ConversionError
	require.ErrorAs(t, err, &convErr)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "ffmpeg")
	assert.Empty(t, listDir(t, filepath.Join(root, "cand-2")), "raw and partial wav must be removed")
}

func TestIngest_EmptyUpload(t *testing.T) {
	root := t.TempDir()
	called := false
	in := NewIngestor(root, ConverterFunc(func(context.Context, string, string) error {
		called = true
		return nil
	}), nil)

	_, err := in.Ingest(context.Background(), "cand-3", strings.NewReader(""), "a.webm")
	assert.ErrorIs(t, err, ErrEmptyUpload)
	assert.False(t, called)
	assert.Empty(t, listDir(t, filepath.Join(root, "cand-3")))
}

func TestIngest_RejectsPathTraversal(t *testing.T) {
	in := NewIngestor(t.TempDir(), copyConverter(t), nil)
	for _, id := range []string{"", "..", "../x", "a/b"} {
		_, err := in.Ingest(context.Background(), id, strings.NewReader("x"), "a.webm")
		assert.Error(t, err, id)
	}
}

func TestRawExtension(t *testing.T) {
	assert.Equal(t, ".webm", rawExtension("blob"))
	assert.Equal(t, ".ogg", rawExtension("Answer.OGG"))
	assert.Equal(t, ".webm", rawExtension("x.verylongext"))
}

func TestFFmpegConverter_Args(t *testing.T) {
	args := FFmpegConverter{}.Args("in.webm", "out.wav")
	joined := strings.Join(args, " ")
	assert.Contains(t, joined, "-i in.webm")
	assert.Contains(t, joined, "-ar 16000")
	assert.Contains(t, joined, "-ac 1")
	assert.Equal(t, "out.wav", args[len(args)-1])
}

func TestFFmpegConverter_MissingBinary(t *testing.T) {
	err := FFmpegConverter{Path: filepath.Join(t.TempDir(), "no-ffmpeg")}.Convert(context.Background(), "a", "b")
	assert.Error(t, err)
}
