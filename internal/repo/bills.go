package repo

import (
	"context"

	"smsrelay/internal/model"
)

// BillFilter narrows List results; empty fields are ignored.
type BillFilter struct {
	Phone string
	Month string
}

type BillRepository interface {
	List(ctx context.Context, f BillFilter) ([]model.Bill, error)
	GetByID(ctx context.Context, id int64) (*model.Bill, error)
}
