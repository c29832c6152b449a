// Package watcher ingests audio files dropped into a watched directory by an
// external transfer process (the "bluetooth drop" channel). It polls on a
// fixed interval, waits for each candidate to settle, and runs the pipeline
// synchronously with at-least-once semantics: a file is recorded in the
// dedup ledger only after a successful run.
package watcher

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/medscribe/medscribe/internal/domain/entities"
	"github.com/medscribe/medscribe/internal/usecase/pipeline"
)

// Preprocessor converts an uploaded artifact to the normalized waveform the
// transcription service expects.
type Preprocessor interface {
	Preprocess(ctx context.Context, inputPath, outputWAV string) error
}

// allowedExtensions is the audio extension set accepted from the drop
// directory.
var allowedExtensions = map[string]struct{}{
	".wav": {},
	".mp3": {},
	".m4a": {},
	".aac": {},
	".ogg": {},
	".3gp": {},
}

// Config holds watcher locations and intervals.
type Config struct {
	DropDir      string
	UploadDir    string
	ProcessedDir string
	PollInterval time.Duration
	ReadyTimeout time.Duration
}

// Watcher is the directory-watch ingestion gateway. It owns the dedup ledger
// and blocks fully while a pipeline run is in flight, so its responsiveness
// to new files is serialized by pipeline duration.
type Watcher struct {
	cfg    Config
	ledger *Ledger
	ready  ReadinessDetector
	pre    Preprocessor
	runner pipeline.Runner
	logger *zap.Logger
}

// New constructs a watcher around an already loaded ledger.
func New(cfg Config, ledger *Ledger, pre Preprocessor, runner pipeline.Runner, logger *zap.Logger) *Watcher {
	return &Watcher{
		cfg:    cfg,
		ledger: ledger,
		ready:  NewReadinessDetector(cfg.ReadyTimeout),
		pre:    pre,
		runner: runner,
		logger: logger,
	}
}

// Start runs the polling loop until ctx is cancelled.
func (w *Watcher) Start(ctx context.Context) {
	if w.logger != nil {
		w.logger.Info("📡 drop-directory watcher running",
			zap.String("dir", w.cfg.DropDir),
			zap.Duration("poll_interval", w.cfg.PollInterval),
		)
	}

	ticker := time.NewTicker(w.cfg.PollInterval)
	defer ticker.Stop()

	for {
		w.sweep(ctx)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// sweep inspects the drop directory once. Failed ingestions stay out of the
// ledger and are retried on the next sweep.
func (w *Watcher) sweep(ctx context.Context) {
	entries, err := os.ReadDir(w.cfg.DropDir)
	if err != nil {
		// The drop directory may not exist until the first transfer.
		return
	}

	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if w.ledger.Contains(name) {
			continue
		}
		if _, ok := allowedExtensions[strings.ToLower(filepath.Ext(name))]; !ok {
			continue
		}

		src := filepath.Join(w.cfg.DropDir, name)
		if !w.ready.Wait(src) {
			if w.logger != nil {
				w.logger.Debug("file not stable yet", zap.String("file", name))
			}
			continue
		}

		if err := w.ingest(ctx, name, src); err != nil {
			if w.logger != nil {
				w.logger.Error("drop ingestion failed; will retry next poll",
					zap.String("file", name),
					zap.Error(err),
				)
			}
			continue
		}

		if err := w.ledger.MarkProcessed(name); err != nil && w.logger != nil {
			w.logger.Error("failed to persist dedup ledger",
				zap.String("file", name),
				zap.Error(err),
			)
		}
	}
}

// ingest copies the dropped file into the upload area under a
// collision-proof name, preprocesses it, and runs the pipeline synchronously
// under the global lock. The source file is removed only after a successful
// run so a failed job can be picked up again.
func (w *Watcher) ingest(ctx context.Context, name, src string) error {
	storedName := pipeline.UploadName(name)
	uploadPath := filepath.Join(w.cfg.UploadDir, storedName)
	if err := copyFile(src, uploadPath); err != nil {
		return fmt.Errorf("stage upload: %w", err)
	}

	base := pipeline.BaseName(storedName)
	wavPath := filepath.Join(w.cfg.ProcessedDir, base+".wav")
	if err := w.pre.Preprocess(ctx, uploadPath, wavPath); err != nil {
		w.discard(uploadPath, wavPath)
		return fmt.Errorf("preprocess: %w", err)
	}

	if err := w.runner.Run(ctx, pipeline.Request{
		WAVPath:  wavPath,
		BaseName: base,
		Source:   entities.SourceDirectoryWatch,
	}); err != nil {
		w.discard(uploadPath, wavPath)
		return err
	}

	if err := os.Remove(src); err != nil && w.logger != nil {
		w.logger.Warn("failed to remove ingested drop file",
			zap.String("file", name),
			zap.Error(err),
		)
	}
	return nil
}

// discard removes staged artifacts left behind by a failed ingestion. The
// retry on the next sweep stages fresh copies, so stale ones only waste disk.
func (w *Watcher) discard(paths ...string) {
	for _, p := range paths {
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) && w.logger != nil {
			w.logger.Warn("failed to remove staged file",
				zap.String("path", p),
				zap.Error(err),
			)
		}
	}
}

// copyFile copies src to dst. The drop directory usually lives on another
// filesystem, so a plain rename is not an option.
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
