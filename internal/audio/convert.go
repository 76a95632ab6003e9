// Package audio stores uploaded answer recordings and normalizes them to
// 16 kHz mono WAV for transcription.
package audio

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Normalized output format.
const (
	SampleRate = 16000
	Channels   = 1
)

// Converter normalizes src into a WAV file at dst.
type Converter interface {
	Convert(ctx context.Context, src, dst string) error
}

// FFmpegConverter shells out to ffmpeg.
type FFmpegConverter struct {
	// Path is the ffmpeg binary; "ffmpeg" is looked up on PATH when empty.
	Path string
}

// Args returns the ffmpeg arguments used for a conversion.
func (c FFmpegConverter) Args(src, dst string) []string {
	return []string{
		"-hide_banner", "-loglevel", "error",
		"-y", "-i", src,
		"-ar", fmt.Sprint(SampleRate),
		"-ac", fmt.Sprint(Channels),
		"-f", "wav", dst,
	}
}

// Convert runs ffmpeg and reports its stderr on failure.
func (c FFmpegConverter) Convert(ctx context.Context, src, dst string) error {
	bin := c.Path
	if bin == "" {
		bin = "ffmpeg"
	}

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, bin, c.Args(src, dst)...)
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			return fmt.Errorf("ffmpeg: %w", err)
		}
		return fmt.Errorf("ffmpeg: %w: %s", err, msg)
	}
	return nil
}

// ConverterFunc adapts a function to Converter.
type ConverterFunc func(ctx context.Context, src, dst string) error

// Convert calls f.
func (f ConverterFunc) Convert(ctx context.Context, src, dst string) error {
	return f(ctx, src, dst)
}
