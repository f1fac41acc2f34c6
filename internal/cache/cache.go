package cache

import (
	"context"
	"time"
)

// ReceiptCache records the reported outcome of a dispatched job so
// dashboards can resolve recent deliveries without hitting the queue table.
type ReceiptCache interface {
	StoreReceipt(ctx context.Context, jobID int64, status string, reportedAt time.Time) error
}
