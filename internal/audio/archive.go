package audio

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// Archiver decides what happens to a converted recording once it is transcribed.
type Archiver interface {
	Archive(ctx context.Context, candidateID, wavPath string) error
}

// LocalArchiver keeps recordings on disk.
type LocalArchiver struct{}

// Archive is a no-op.
func (LocalArchiver) Archive(context.Context, string, string) error { return nil }

// DiscardArchiver deletes recordings after transcription.
type DiscardArchiver struct{}

// Archive removes the file.
func (DiscardArchiver) Archive(_ context.Context, _ string, wavPath string) error {
	if err := os.Remove(wavPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove %s: %w", wavPath, err)
	}
	return nil
}

// Uploader copies a local file to object storage.
type Uploader interface {
	UploadFile(ctx context.Context, objectName, path, contentType string) error
}

// ObjectArchiver uploads recordings as {candidate}/{file} then removes the local copy.
type ObjectArchiver struct {
	Store  Uploader
	Logger *zap.Logger
}

// Archive uploads wavPath. The local file is kept when the upload fails.
func (a ObjectArchiver) Archive(ctx context.Context, candidateID, wavPath string) error {
	object := candidateID + "/" + filepath.Base(wavPath)
	if err := a.Store.UploadFile(ctx, object, wavPath, "audio/wav"); err != nil {
		return err
	}
	if err := os.Remove(wavPath); err != nil && !os.IsNotExist(err) && a.Logger != nil {
		a.Logger.Warn("uploaded recording but could not remove local copy", zap.String("path", wavPath), zap.Error(err))
	}
	return nil
}
