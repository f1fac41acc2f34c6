package repo

import (
	"context"
	"time"

	"smsrelay/internal/model"
)

type OtpRepository interface {
	// Insert stores a new unused record and returns its id.
	Insert(ctx context.Context, phone, code string, expiresAt time.Time) (int64, error)

	// LatestByPhone returns the most recently created record for phone
	// regardless of its used/expired state, or nil when none exists. It
	// drives the request rate limit, which keys off creation time.
	LatestByPhone(ctx context.Context, phone string) (*model.OtpRecord, error)

	// FindValid returns the unused, unexpired record matching phone and the
	// exact code, or nil when there is no match.
	FindValid(ctx context.Context, phone, code string) (*model.OtpRecord, error)

	// MarkUsed flips a record's used flag. One-way.
	MarkUsed(ctx context.Context, id int64) error

	// DeleteUsed removes every used record for phone. Routine cleanup, not
	// correctness-critical.
	DeleteUsed(ctx context.Context, phone string) error
}
