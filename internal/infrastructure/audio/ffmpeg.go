// Package audio normalizes uploaded recordings into the mono 16 kHz WAV the
// transcription service expects, by shelling out to ffmpeg.
package audio

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"go.uber.org/zap"
)

// FFmpeg converts arbitrary uploaded audio into a normalized waveform.
type FFmpeg struct {
	binary string
	logger *zap.Logger
}

// New creates a preprocessor. An empty binary falls back to "ffmpeg" on
// PATH.
func New(binary string, logger *zap.Logger) *FFmpeg {
	if binary == "" {
		binary = "ffmpeg"
	}
	return &FFmpeg{binary: binary, logger: logger}
}

// Preprocess implements the gateways' Preprocessor interface.
func (f *FFmpeg) Preprocess(ctx context.Context, inputPath, outputWAV string) error {
	cmd := exec.CommandContext(ctx, f.binary, conversionArgs(inputPath, outputWAV)...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("ffmpeg: %w: %s", err, lastLine(stderr.String()))
	}

	if f.logger != nil {
		f.logger.Debug("audio normalized",
			zap.String("input", inputPath),
			zap.String("output", outputWAV),
		)
	}
	return nil
}

// conversionArgs downmixes to mono and resamples to 16 kHz, overwriting any
// stale output from a previous failed run.
func conversionArgs(input, output string) []string {
	return []string{
		"-hide_banner",
		"-loglevel", "error",
		"-y",
		"-i", input,
		"-ac", "1",
		"-ar", "16000",
		output,
	}
}

func lastLine(s string) string {
	s = strings.TrimSpace(s)
	if idx := strings.LastIndex(s, "\n"); idx != -1 {
		return s[idx+1:]
	}
	return s
}
