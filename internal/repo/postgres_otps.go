package repo

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"smsrelay/internal/model"
)

type PostgresOtpRepo struct {
	db *sql.DB
}

func NewPostgresOtpRepo(db *sql.DB) *PostgresOtpRepo {
	return &PostgresOtpRepo{db: db}
}

func (r *PostgresOtpRepo) Insert(ctx context.Context, phone, code string, expiresAt time.Time) (int64, error) {
	var id int64
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO otp_codes (phone, code, expires_at)
		VALUES ($1, $2, $3)
		RETURNING id
	`, phone, code, expiresAt.UTC()).Scan(&id)
	return id, err
}

func (r *PostgresOtpRepo) LatestByPhone(ctx context.Context, phone string) (*model.OtpRecord, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, phone, code, expires_at, used, created_at
		FROM otp_codes
		WHERE phone = $1
		ORDER BY created_at DESC, id DESC
		LIMIT 1
	`, phone)
	return scanOtp(row)
}

func (r *PostgresOtpRepo) FindValid(ctx context.Context, phone, code string) (*model.OtpRecord, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, phone, code, expires_at, used, created_at
		FROM otp_codes
		WHERE phone = $1
		  AND code = $2
		  AND expires_at > now()
		  AND used = FALSE
		ORDER BY created_at DESC, id DESC
		LIMIT 1
	`, phone, code)
	return scanOtp(row)
}

func (r *PostgresOtpRepo) MarkUsed(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE otp_codes SET used = TRUE WHERE id = $1
	`, id)
	return err
}

func (r *PostgresOtpRepo) DeleteUsed(ctx context.Context, phone string) error {
	_, err := r.db.ExecContext(ctx, `
		DELETE FROM otp_codes WHERE phone = $1 AND used = TRUE
	`, phone)
	return err
}

func scanOtp(row *sql.Row) (*model.OtpRecord, error) {
	var rec model.OtpRecord
	err := row.Scan(&rec.ID, &rec.Phone, &rec.Code, &rec.ExpiresAt, &rec.Used, &rec.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}
