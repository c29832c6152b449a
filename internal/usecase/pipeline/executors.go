package pipeline

import (
	"context"

	"github.com/medscribe/medscribe/internal/domain/entities"
)

// Transcription is the raw result returned by the transcription collaborator
// before normalization.
type Transcription struct {
	Text       string
	Utterances []entities.Utterance
}

// Transcriber converts a normalized mono waveform into raw utterances.
type Transcriber interface {
	Transcribe(ctx context.Context, wavPath string) (*Transcription, error)
}

// Summarizer turns a transcript document into the structured summary. It is
// expected to return a fully valid record or fail outright; the orchestrator
// does not retry it.
type Summarizer interface {
	Summarize(ctx context.Context, transcript *entities.Transcript) (*entities.Summary, error)
}

// Translator translates a single text value into the target language. It is
// called once per leaf value of a summary.
type Translator interface {
	Translate(ctx context.Context, text, targetLang string) (string, error)
}

// Renderer produces the report file from a persisted summary and the
// doctor's letterhead metadata.
type Renderer interface {
	Render(ctx context.Context, summaryPath, language string, doctor *entities.Doctor) (string, error)
}

// DoctorDirectory resolves a doctor identifier to letterhead metadata.
// Implementations return entities.ErrDoctorNotFound for unknown identifiers.
type DoctorDirectory interface {
	GetDoctor(ctx context.Context, id string) (*entities.Doctor, error)
}

// Archiver mirrors a completed report to long-term storage. Archive failures
// are logged, never fatal.
type Archiver interface {
	ArchiveReport(ctx context.Context, reportPath string) error
}

// StatusPublisher receives every stage transition. Satisfied by
// *status.Publisher.
type StatusPublisher interface {
	Publish(s entities.Status)
	Current() entities.Status
}

// Runner is the orchestrator surface the ingestion gateways schedule work
// through. Satisfied by *Service.
type Runner interface {
	Run(ctx context.Context, req Request) error
}
