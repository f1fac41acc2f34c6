package service

import (
	"context"
	"log/slog"
	"time"

	"smsrelay/internal/cache"
	"smsrelay/internal/fanout"
	"smsrelay/internal/metrics"
	"smsrelay/internal/model"
	"smsrelay/internal/repo"
)

// Notifier receives enqueue events. Implementations must be best-effort:
// Publish has no error return on purpose.
type Notifier interface {
	Publish(ev fanout.Event)
}

const (
	// DefaultReclaimAfter is how long a claimed job may sit in processing
	// before the recovery pass hands it back to the queue.
	DefaultReclaimAfter = 2 * time.Minute

	// DefaultPreviewMax bounds the message preview in fanout events.
	DefaultPreviewMax = 50

	listLimit = 100
)

// QueueService owns the dispatch queue: producers enqueue outbound SMS,
// the admin-operated sender claims them one at a time and reports the
// outcome, and the recovery pass requeues claims that never got a report.
type QueueService struct {
	jobs         repo.JobRepository
	notifiers    []Notifier
	receipts     cache.ReceiptCache
	previewMax   int
	reclaimAfter time.Duration
}

func NewQueueService(jobs repo.JobRepository) *QueueService {
	return &QueueService{
		jobs:         jobs,
		previewMax:   DefaultPreviewMax,
		reclaimAfter: DefaultReclaimAfter,
	}
}

// WithNotifiers attaches fanout sinks for enqueue events.
func (s *QueueService) WithNotifiers(ns ...Notifier) *QueueService {
	s.notifiers = append(s.notifiers, ns...)
	return s
}

// WithReceiptCache attaches an optional cache written on reports.
func (s *QueueService) WithReceiptCache(c cache.ReceiptCache) *QueueService {
	s.receipts = c
	return s
}

// WithPreviewMax overrides the fanout preview length.
func (s *QueueService) WithPreviewMax(n int) *QueueService {
	if n > 0 {
		s.previewMax = n
	}
	return s
}

// WithReclaimAfter overrides the stall threshold.
func (s *QueueService) WithReclaimAfter(d time.Duration) *QueueService {
	if d > 0 {
		s.reclaimAfter = d
	}
	return s
}

// Enqueue inserts a pending job and broadcasts a truncated preview to any
// connected dashboards. Fanout failure can never fail the enqueue. kind
// tags the event ("otp" for codes, empty for plain messages).
func (s *QueueService) Enqueue(ctx context.Context, phone, message, kind string) (int64, error) {
	if phone == "" || message == "" {
		return 0, ErrInvalidInput
	}

	id, err := s.jobs.Insert(ctx, phone, message)
	if err != nil {
		return 0, err
	}

	metrics.JobsEnqueued.Inc()
	slog.Info("job enqueued", "id", id, "phone", phone)

	ev := fanout.Event{
		ID:             id,
		Phone:          phone,
		MessagePreview: truncate(message, s.previewMax),
		Kind:           kind,
	}
	for _, n := range s.notifiers {
		n.Publish(ev)
	}

	return id, nil
}

// ClaimNext hands the oldest pending job to the caller, atomically moving
// it to processing. A nil job with nil error means the queue is empty;
// losing a claim race to another poller looks identical.
func (s *QueueService) ClaimNext(ctx context.Context) (*model.Job, error) {
	job, err := s.jobs.ClaimOldestPending(ctx)
	if err != nil {
		return nil, err
	}
	if job == nil {
		return nil, nil
	}

	metrics.JobsClaimed.Inc()
	slog.Info("job claimed", "id", job.ID)
	return job, nil
}

// ReportResult finalizes a job. No ownership check: any caller with
// dispatch privilege may report any job id.
func (s *QueueService) ReportResult(ctx context.Context, id int64, status model.Status, errMsg string) error {
	if id <= 0 || !model.ValidReport(status) {
		return ErrInvalidInput
	}

	if err := s.jobs.Report(ctx, id, status, errMsg); err != nil {
		return err
	}

	if status == model.Sent {
		metrics.JobsSent.Inc()
	} else {
		metrics.JobsFailed.Inc()
	}
	slog.Info("job reported", "id", id, "status", string(status))

	if s.receipts != nil {
		if err := s.receipts.StoreReceipt(ctx, id, string(status), time.Now()); err != nil {
			slog.Warn("receipt cache write failed", "id", id, "error", err)
		}
	}

	return nil
}

// ListQueue returns up to 100 jobs, newest first. status may be empty or
// one of the four job states.
func (s *QueueService) ListQueue(ctx context.Context, status model.Status) ([]model.Job, error) {
	switch status {
	case "", model.Pending, model.Processing, model.Sent, model.Failed:
	default:
		return nil, ErrInvalidInput
	}
	return s.jobs.List(ctx, status, listLimit)
}

// ReclaimStuck requeues every job stuck in processing past the stall
// threshold, measured from claim time. No-op when nothing is stuck.
func (s *QueueService) ReclaimStuck(ctx context.Context) (int64, error) {
	cutoff := time.Now().Add(-s.reclaimAfter)

	n, err := s.jobs.ReclaimStuck(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		metrics.JobsReclaimed.Add(float64(n))
		slog.Warn("stuck jobs reclaimed", "count", n)
	}
	return n, nil
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
