// Package assemblyai runs the transcription stage against the AssemblyAI
// API through the official SDK.
package assemblyai

import (
	"context"
	"fmt"
	"os"

	aai "github.com/AssemblyAI/assemblyai-go-sdk"
	"go.uber.org/zap"

	"github.com/medscribe/medscribe/internal/domain/entities"
	"github.com/medscribe/medscribe/internal/usecase/pipeline"
)

// Client uploads a local waveform and waits for the transcript with speaker
// labels enabled.
type Client struct {
	sdk    *aai.Client
	logger *zap.Logger
}

// New creates a transcription client.
func New(apiKey string, logger *zap.Logger) *Client {
	return &Client{
		sdk:    aai.NewClient(apiKey),
		logger: logger,
	}
}

// Transcribe implements pipeline.Transcriber. The language hint AssemblyAI
// returns is carried through untouched; the normalizer re-detects the
// language from the text itself.
func (c *Client) Transcribe(ctx context.Context, wavPath string) (*pipeline.Transcription, error) {
	f, err := os.Open(wavPath)
	if err != nil {
		return nil, fmt.Errorf("open waveform: %w", err)
	}
	defer f.Close()

	uploadURL, err := c.sdk.Upload(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("upload to assemblyai: %w", err)
	}

	if c.logger != nil {
		c.logger.Info("🎙️ waveform uploaded, starting transcription",
			zap.String("file", wavPath),
		)
	}

	params := &aai.TranscriptOptionalParams{
		SpeakerLabels:     aai.Bool(true),
		LanguageDetection: aai.Bool(true),
	}
	transcript, err := c.sdk.Transcripts.TranscribeFromURL(ctx, uploadURL, params)
	if err != nil {
		return nil, fmt.Errorf("transcribe: %w", err)
	}
	if transcript.Status == aai.TranscriptStatusError {
		return nil, fmt.Errorf("assemblyai reported error: %s", strVal(transcript.Error))
	}

	return mapTranscript(transcript), nil
}

// mapTranscript converts the SDK response into the domain transcription.
func mapTranscript(t aai.Transcript) *pipeline.Transcription {
	out := &pipeline.Transcription{Text: strVal(t.Text)}
	for _, u := range t.Utterances {
		out.Utterances = append(out.Utterances, entities.Utterance{
			Speaker: strVal(u.Speaker),
			Text:    strVal(u.Text),
			StartMS: int64Val(u.Start),
			EndMS:   int64Val(u.End),
		})
	}
	return out
}

func strVal(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func int64Val(v *int64) int64 {
	if v == nil {
		return 0
	}
	return *v
}
