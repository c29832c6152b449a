package watcher

import (
	"os"
	"time"
)

// ReadinessDetector decides when a file dropped by an external transfer
// process is safe to ingest. Files arrive written incrementally, so a file
// is ready only after its size holds constant and non-zero across two
// successive polls.
type ReadinessDetector struct {
	PollInterval time.Duration
	Timeout      time.Duration

	// statFile overrides filesystem stat in tests.
	statFile func(path string) (int64, error)
}

// NewReadinessDetector returns a detector with the given timeout and the
// standard half-second poll interval.
func NewReadinessDetector(timeout time.Duration) ReadinessDetector {
	return ReadinessDetector{
		PollInterval: 500 * time.Millisecond,
		Timeout:      timeout,
	}
}

// Wait polls until the file settles or the timeout elapses. A missing file
// is transient and keeps being polled; a file still growing at the deadline
// reports not ready.
func (d ReadinessDetector) Wait(path string) bool {
	var last int64 = -1
	deadline := time.Now().Add(d.Timeout)

	for time.Now().Before(deadline) {
		size, err := d.size(path)
		if err == nil {
			if size > 0 && size == last {
				return true
			}
			last = size
		}
		time.Sleep(d.PollInterval)
	}
	return false
}

func (d ReadinessDetector) size(path string) (int64, error) {
	if d.statFile != nil {
		return d.statFile(path)
	}
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}
