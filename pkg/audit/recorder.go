// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package audit

import (
	"context"
	"sync"
	"time"

	"github.com/canonical/access-service/internal/logging"
	"github.com/canonical/access-service/internal/monitoring"
	"github.com/canonical/access-service/internal/tracing"
	"github.com/canonical/access-service/internal/types"
)

const writeTimeout = 10 * time.Second

var _ RecorderInterface = (*Recorder)(nil)

// Recorder persists audit entries off the request path. Record never
// fails the caller: persistence errors are logged and swallowed, and a
// full queue drops the entry rather than blocking.
type Recorder struct {
	storage StorageInterface

	queue  chan *types.AuditEntry
	wg     sync.WaitGroup
	mu     sync.RWMutex
	closed bool

	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
	logger  logging.LoggerInterface
}

func NewRecorder(
	storage StorageInterface,
	queueSize int,
	tracer tracing.TracingInterface,
	monitor monitoring.MonitorInterface,
	logger logging.LoggerInterface,
) *Recorder {
	if queueSize <= 0 {
		queueSize = 1024
	}

	r := &Recorder{
		storage: storage,
		queue:   make(chan *types.AuditEntry, queueSize),
		tracer:  tracer,
		monitor: monitor,
		logger:  logger,
	}

	r.wg.Add(1)
	go r.worker()

	return r
}

// Record enqueues a sanitized copy of the entry for persistence. Safe
// to call from request handlers after the response is committed.
func (r *Recorder) Record(e *types.AuditEntry) {
	entry := *e
	entry.Metadata = SanitizeMetadata(e.Metadata)
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		r.logger.Warnf("audit recorder is shut down, dropping entry for tenant %s", entry.TenantID)
		return
	}

	select {
	case r.queue <- &entry:
	default:
		r.logger.Warnf("audit queue full, dropping entry for tenant %s action %s", entry.TenantID, entry.Action)
	}
}

func (r *Recorder) worker() {
	defer r.wg.Done()

	for e := range r.queue {
		r.persist(e)
	}
}

// persist uses a background context so audit writes survive the
// originating request's cancellation.
func (r *Recorder) persist(e *types.AuditEntry) {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()

	ctx, span := r.tracer.Start(ctx, "audit.Recorder.persist")
	defer span.End()

	if err := r.storage.InsertAuditEntry(ctx, e); err != nil {
		r.logger.Security().AuditWriteFailure(e.TenantID, e.Action, err)
		r.logger.Errorf("failed to persist audit entry: %v", err)
	}
}

// Shutdown stops accepting entries and drains the queue. Returns the
// context error when draining outlives the context.
func (r *Recorder) Shutdown(ctx context.Context) error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	close(r.queue)
	r.mu.Unlock()

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
