// Package pipeline contains the orchestrator that drives one audio artifact
// through transcribe → summarize → translate → render, serializing all jobs
// behind a single global lock.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	backoff "github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/medscribe/medscribe/internal/domain/entities"
)

// Config holds orchestrator tuning and artifact locations.
type Config struct {
	TranscriptsDir string
	SummariesDir   string

	// TranscribeAttempts is the total number of transcription attempts
	// before the job fails; TranscribeRetryDelay is the fixed wait between
	// them.
	TranscribeAttempts   int
	TranscribeRetryDelay time.Duration

	// DefaultDoctor is the inline report target used when a job carries no
	// doctor identifier.
	DefaultDoctor *entities.Doctor
}

// Request describes one accepted audio artifact. Exactly one of DoctorID or
// Doctor selects the report target; with neither set the configured default
// doctor is used.
type Request struct {
	WAVPath  string
	BaseName string
	Source   entities.Source
	DoctorID string
	Doctor   *entities.Doctor
}

// Service is the pipeline orchestrator. A single mutex guards the whole run,
// so pipeline execution is strictly serialized system-wide; gateways that
// accept asynchronously return before acquiring it.
type Service struct {
	mu sync.Mutex

	cfg         Config
	transcriber Transcriber
	summarizer  Summarizer
	translator  Translator
	renderer    Renderer
	directory   DoctorDirectory
	archiver    Archiver
	status      StatusPublisher
	logger      *zap.Logger
}

// NewService constructs the orchestrator. directory and archiver may be nil
// when the deployment has no doctor database or object storage.
func NewService(
	cfg Config,
	transcriber Transcriber,
	summarizer Summarizer,
	translator Translator,
	renderer Renderer,
	directory DoctorDirectory,
	archiver Archiver,
	statusPub StatusPublisher,
	logger *zap.Logger,
) *Service {
	if cfg.TranscribeAttempts < 1 {
		cfg.TranscribeAttempts = 1
	}
	return &Service{
		cfg:         cfg,
		transcriber: transcriber,
		summarizer:  summarizer,
		translator:  translator,
		renderer:    renderer,
		directory:   directory,
		archiver:    archiver,
		status:      statusPub,
		logger:      logger,
	}
}

// Run drives one job through every stage under the global execution lock.
// The orchestrator is the error boundary: a fatal stage error is recorded in
// the status slot and returned, never raised further, so callers only ever
// see a recorded outcome.
func (s *Service) Run(ctx context.Context, req Request) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job := &entities.Job{
		ID:       req.BaseName,
		Source:   req.Source,
		DoctorID: req.DoctorID,
		Stage:    entities.StageTranscribing,
	}

	if err := s.run(ctx, job, req); err != nil {
		job.Stage = entities.StageError
		job.LastErr = err.Error()
		s.status.Publish(entities.Status{
			Source:   job.Source,
			File:     job.ID,
			Language: job.Language,
			Stage:    entities.StageError,
			Error:    err.Error(),
		})
		if s.logger != nil {
			s.logger.Error("❌ pipeline failed",
				zap.String("job_id", job.ID),
				zap.String("source", string(job.Source)),
				zap.Error(err),
			)
		}
		return fmt.Errorf("pipeline %s: %w", job.ID, err)
	}

	if s.logger != nil {
		s.logger.Info("✅ pipeline completed",
			zap.String("job_id", job.ID),
			zap.String("language", job.Language),
		)
	}
	return nil
}

func (s *Service) run(ctx context.Context, job *entities.Job, req Request) error {
	s.publish(job, entities.StageTranscribing)

	raw, err := s.transcribeWithRetry(ctx, req.WAVPath)
	if err != nil {
		return fmt.Errorf("transcription failed: %w", err)
	}

	transcript := Normalize(job.ID, raw)
	job.Language = transcript.Language

	transcriptPath := filepath.Join(s.cfg.TranscriptsDir, job.ID+".json")
	if err := writeJSON(transcriptPath, transcript); err != nil {
		return fmt.Errorf("persist transcript: %w", err)
	}

	job.Stage = entities.StageSummarizing
	s.publish(job, entities.StageSummarizing)

	summary, err := s.summarizer.Summarize(ctx, transcript)
	if err != nil {
		return fmt.Errorf("summarization failed: %w", err)
	}
	summary.EnsureLists()

	// Translation is skipped entirely for the default language, not run as
	// a no-op.
	if transcript.Language != LanguageDefault {
		job.Stage = entities.StageTranslating
		s.publish(job, entities.StageTranslating)

		summary, err = s.translateSummary(ctx, summary, transcript.Language)
		if err != nil {
			return fmt.Errorf("translation failed: %w", err)
		}
	}

	summaryPath := filepath.Join(s.cfg.SummariesDir, job.ID+"_summary.json")
	if err := writeJSON(summaryPath, summary); err != nil {
		return fmt.Errorf("persist summary: %w", err)
	}

	job.Stage = entities.StageGeneratingPDF
	s.publish(job, entities.StageGeneratingPDF)

	doctor, err := s.resolveDoctor(ctx, req)
	if err != nil {
		return err
	}

	reportPath, err := s.renderer.Render(ctx, summaryPath, transcript.Language, doctor)
	if err != nil {
		return fmt.Errorf("report rendering failed: %w", err)
	}

	if s.archiver != nil {
		if err := s.archiver.ArchiveReport(ctx, reportPath); err != nil && s.logger != nil {
			s.logger.Warn("report archive upload failed",
				zap.String("job_id", job.ID),
				zap.Error(err),
			)
		}
	}

	job.Stage = entities.StageCompleted
	s.publish(job, entities.StageCompleted)
	return nil
}

// transcribeWithRetry invokes the transcription collaborator, treating empty
// results as transient until the configured attempts are exhausted.
func (s *Service) transcribeWithRetry(ctx context.Context, wavPath string) (*Transcription, error) {
	var result *Transcription

	attempt := func() error {
		raw, err := s.transcriber.Transcribe(ctx, wavPath)
		if err != nil {
			if s.logger != nil {
				s.logger.Warn("transcription attempt failed", zap.Error(err))
			}
			return err
		}
		if raw == nil || strings.TrimSpace(raw.Text) == "" {
			return entities.ErrEmptyTranscription
		}
		result = raw
		return nil
	}

	bo := backoff.WithMaxRetries(
		backoff.NewConstantBackOff(s.cfg.TranscribeRetryDelay),
		uint64(s.cfg.TranscribeAttempts-1),
	)
	if err := backoff.Retry(attempt, backoff.WithContext(bo, ctx)); err != nil {
		return nil, err
	}
	return result, nil
}

// translateSummary translates every leaf value field by field. Keys are
// never translated and the list-vs-scalar shape of each field is preserved.
// A single failed leaf fails the whole job; no partially translated summary
// is ever returned.
func (s *Service) translateSummary(ctx context.Context, summary *entities.Summary, lang string) (*entities.Summary, error) {
	out := &entities.Summary{}
	var err error

	if out.DoctorSummary, err = s.translator.Translate(ctx, summary.DoctorSummary, lang); err != nil {
		return nil, fmt.Errorf("doctor_summary: %w", err)
	}
	if out.Symptoms, err = s.translateList(ctx, summary.Symptoms, lang); err != nil {
		return nil, fmt.Errorf("symptoms: %w", err)
	}
	if out.PatientHistory, err = s.translateList(ctx, summary.PatientHistory, lang); err != nil {
		return nil, fmt.Errorf("patient_history: %w", err)
	}
	if out.RiskFactors, err = s.translateList(ctx, summary.RiskFactors, lang); err != nil {
		return nil, fmt.Errorf("risk_factors: %w", err)
	}
	if out.Prescription, err = s.translateList(ctx, summary.Prescription, lang); err != nil {
		return nil, fmt.Errorf("prescription: %w", err)
	}
	if out.Advice, err = s.translateList(ctx, summary.Advice, lang); err != nil {
		return nil, fmt.Errorf("advice: %w", err)
	}
	if out.RecommendedAction, err = s.translator.Translate(ctx, summary.RecommendedAction, lang); err != nil {
		return nil, fmt.Errorf("recommended_action: %w", err)
	}
	return out, nil
}

func (s *Service) translateList(ctx context.Context, values []string, lang string) ([]string, error) {
	out := make([]string, 0, len(values))
	for _, v := range values {
		t, err := s.translator.Translate(ctx, v, lang)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

// resolveDoctor selects the report target: inline metadata from the request,
// a directory lookup by identifier, or the configured default letterhead.
func (s *Service) resolveDoctor(ctx context.Context, req Request) (*entities.Doctor, error) {
	if req.Doctor != nil {
		return req.Doctor, nil
	}
	if req.DoctorID != "" && s.directory != nil {
		doctor, err := s.directory.GetDoctor(ctx, req.DoctorID)
		if err != nil {
			return nil, fmt.Errorf("doctor lookup %s: %w", req.DoctorID, err)
		}
		return doctor, nil
	}
	if s.cfg.DefaultDoctor != nil {
		return s.cfg.DefaultDoctor, nil
	}
	return nil, fmt.Errorf("no report target for job: doctor_id %q unresolvable and no default doctor configured", req.DoctorID)
}

func (s *Service) publish(job *entities.Job, stage entities.Stage) {
	s.status.Publish(entities.Status{
		Source:   job.Source,
		File:     job.ID,
		Language: job.Language,
		Stage:    stage,
	})
}

// writeJSON persists an artifact with indentation so the on-disk files stay
// human-inspectable.
func writeJSON(path string, v interface{}) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}
