package repo

import (
	"context"
	"time"

	"smsrelay/internal/model"
)

type JobRepository interface {
	// Insert stores a new pending job and returns its id.
	Insert(ctx context.Context, phone, message string) (int64, error)

	// ClaimOldestPending atomically moves the single oldest pending job to
	// processing and returns it. Returns nil when no pending job exists.
	ClaimOldestPending(ctx context.Context) (*model.Job, error)

	// Report finalizes a job as sent or failed, stamping sent_at. errMsg is
	// stored only for failures.
	Report(ctx context.Context, id int64, status model.Status, errMsg string) error

	// List returns up to limit jobs, newest first, optionally filtered by
	// exact status.
	List(ctx context.Context, status model.Status, limit int) ([]model.Job, error)

	// ReclaimStuck returns every processing job claimed before cutoff to
	// pending and reports how many rows were touched.
	ReclaimStuck(ctx context.Context, cutoff time.Time) (int64, error)
}
