package repo

import (
	"context"
	"database/sql"
	"errors"
	"strconv"

	"smsrelay/internal/model"
)

type PostgresBillRepo struct {
	db *sql.DB
}

func NewPostgresBillRepo(db *sql.DB) *PostgresBillRepo {
	return &PostgresBillRepo{db: db}
}

func (r *PostgresBillRepo) List(ctx context.Context, f BillFilter) ([]model.Bill, error) {
	query := `
		SELECT id, phone, month, customer_name, customer_code, kwh, amount, due_dates, content, created_at
		FROM bills
		WHERE 1=1
	`
	args := []any{}
	if f.Phone != "" {
		args = append(args, f.Phone)
		query += ` AND phone = $` + strconv.Itoa(len(args))
	}
	if f.Month != "" {
		args = append(args, f.Month)
		query += ` AND month = $` + strconv.Itoa(len(args))
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Bill
	for rows.Next() {
		b, err := scanBill(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *PostgresBillRepo) GetByID(ctx context.Context, id int64) (*model.Bill, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, phone, month, customer_name, customer_code, kwh, amount, due_dates, content, created_at
		FROM bills
		WHERE id = $1
	`, id)

	b, err := scanBill(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func scanBill(scan func(...any) error) (model.Bill, error) {
	var (
		b            model.Bill
		customerName sql.NullString
		customerCode sql.NullString
		dueDates     sql.NullString
		content      sql.NullString
	)
	err := scan(
		&b.ID,
		&b.Phone,
		&b.Month,
		&customerName,
		&customerCode,
		&b.KWh,
		&b.Amount,
		&dueDates,
		&content,
		&b.CreatedAt,
	)
	if err != nil {
		return model.Bill{}, err
	}

	b.CustomerName = customerName.String
	b.CustomerCode = customerCode.String
	b.DueDates = dueDates.String
	b.RawContent = content.String
	return b, nil
}
