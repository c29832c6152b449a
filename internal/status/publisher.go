// Package status holds the process-wide single-slot progress record. The
// slot is swapped atomically so concurrent readers never observe a torn
// value, and mirrored to a JSON file for external observers.
package status

import (
	"encoding/json"
	"fmt"
	"os"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/medscribe/medscribe/internal/domain/entities"
)

// Publisher owns the status slot. There is exactly one per process.
type Publisher struct {
	path   string
	cur    atomic.Value // entities.Status
	logger *zap.Logger
}

// NewPublisher creates a publisher backed by the given status file and
// initializes the slot to idle. The file is rewritten on the first Publish.
func NewPublisher(path string, logger *zap.Logger) *Publisher {
	p := &Publisher{path: path, logger: logger}
	p.cur.Store(entities.Status{Stage: entities.StageIdle, Timestamp: time.Now().Unix()})
	return p
}

// Reset publishes the idle slot. Called once at process start so observers
// polling the file see a fresh record.
func (p *Publisher) Reset() {
	p.Publish(entities.Status{Stage: entities.StageIdle})
}

// Publish overwrites the slot with the given record, stamping it with the
// current time. A failed file write is logged and swallowed; the status is
// advisory and must never fail a pipeline run.
func (p *Publisher) Publish(s entities.Status) {
	s.Timestamp = time.Now().Unix()
	p.cur.Store(s)
	if err := p.persist(s); err != nil && p.logger != nil {
		p.logger.Warn("failed to persist status record",
			zap.String("path", p.path),
			zap.Error(err),
		)
	}
}

// Current returns the slot's present value.
func (p *Publisher) Current() entities.Status {
	return p.cur.Load().(entities.Status)
}

// persist writes the record through a temp file and rename so observers
// reading the file never see a partial write.
func (p *Publisher) persist(s entities.Status) error {
	b, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal status: %w", err)
	}
	tmp := p.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return fmt.Errorf("write status: %w", err)
	}
	if err := os.Rename(tmp, p.path); err != nil {
		return fmt.Errorf("swap status: %w", err)
	}
	return nil
}
