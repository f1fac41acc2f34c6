package repo

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"time"

	"smsrelay/internal/model"
)

type PostgresJobRepo struct {
	db *sql.DB
}

func NewPostgresJobRepo(db *sql.DB) *PostgresJobRepo {
	return &PostgresJobRepo{db: db}
}

func (r *PostgresJobRepo) Insert(ctx context.Context, phone, message string) (int64, error) {
	var id int64
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO jobs (phone, message, status)
		VALUES ($1, $2, 'pending')
		RETURNING id
	`, phone, message).Scan(&id)
	return id, err
}

// ClaimOldestPending is a single statement so two concurrent pollers can
// never both win the same row: the inner select locks the oldest pending
// row (skipping rows locked by a racing claim) and the outer update only
// fires while the status guard still holds.
func (r *PostgresJobRepo) ClaimOldestPending(ctx context.Context) (*model.Job, error) {
	var (
		m         model.Job
		status    string
		claimedAt sql.NullTime
	)

	err := r.db.QueryRowContext(ctx, `
		UPDATE jobs
		SET status = 'processing', claimed_at = now()
		WHERE id = (
			SELECT id FROM jobs
			WHERE status = 'pending'
			ORDER BY created_at ASC, id ASC
			FOR UPDATE SKIP LOCKED
			LIMIT 1
		)
		AND status = 'pending'
		RETURNING id, phone, message, status, created_at, claimed_at
	`).Scan(&m.ID, &m.Phone, &m.Message, &status, &m.CreatedAt, &claimedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	m.Status = model.Status(status)
	if claimedAt.Valid {
		t := claimedAt.Time
		m.ClaimedAt = &t
	}
	return &m, nil
}

func (r *PostgresJobRepo) Report(ctx context.Context, id int64, status model.Status, errMsg string) error {
	var errVal sql.NullString
	if status == model.Failed && errMsg != "" {
		errVal = sql.NullString{String: errMsg, Valid: true}
	}

	_, err := r.db.ExecContext(ctx, `
		UPDATE jobs
		SET status = $2,
		    sent_at = now(),
		    error_message = $3
		WHERE id = $1
	`, id, string(status), errVal)
	return err
}

func (r *PostgresJobRepo) List(ctx context.Context, status model.Status, limit int) ([]model.Job, error) {
	if limit <= 0 || limit > 100 {
		limit = 100
	}

	query := `
		SELECT id, phone, message, status, created_at, claimed_at, sent_at, error_message
		FROM jobs
	`
	args := []any{}
	if status != "" {
		query += ` WHERE status = $1`
		args = append(args, string(status))
	}
	query += ` ORDER BY created_at DESC, id DESC LIMIT ` + strconv.Itoa(limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Job
	for rows.Next() {
		var (
			m         model.Job
			st        string
			claimedAt sql.NullTime
			sentAt    sql.NullTime
			errMsg    sql.NullString
		)
		if err := rows.Scan(
			&m.ID,
			&m.Phone,
			&m.Message,
			&st,
			&m.CreatedAt,
			&claimedAt,
			&sentAt,
			&errMsg,
		); err != nil {
			return nil, err
		}

		m.Status = model.Status(st)
		if claimedAt.Valid {
			t := claimedAt.Time
			m.ClaimedAt = &t
		}
		if sentAt.Valid {
			t := sentAt.Time
			m.SentAt = &t
		}
		if errMsg.Valid {
			s := errMsg.String
			m.ErrorMessage = &s
		}

		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *PostgresJobRepo) ReclaimStuck(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE jobs
		SET status = 'pending', claimed_at = NULL
		WHERE status = 'processing'
		  AND claimed_at < $1
	`, cutoff.UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
