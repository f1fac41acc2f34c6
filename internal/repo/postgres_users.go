package repo

import (
	"context"
	"database/sql"
	"errors"

	"smsrelay/internal/model"
)

type PostgresUserRepo struct {
	db *sql.DB
}

func NewPostgresUserRepo(db *sql.DB) *PostgresUserRepo {
	return &PostgresUserRepo{db: db}
}

func (r *PostgresUserRepo) GetByPhone(ctx context.Context, phone string) (*model.User, error) {
	var u model.User
	err := r.db.QueryRowContext(ctx, `
		SELECT id, phone, password, name, role
		FROM users
		WHERE phone = $1
	`, phone).Scan(&u.ID, &u.Phone, &u.Password, &u.Name, &u.Role)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *PostgresUserRepo) Create(ctx context.Context, phone, hashedPassword, name string) (int64, error) {
	var id int64
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO users (phone, password, name, role)
		VALUES ($1, $2, $3, 'user')
		RETURNING id
	`, phone, hashedPassword, name).Scan(&id)
	return id, err
}

func (r *PostgresUserRepo) UpdatePassword(ctx context.Context, phone, hashedPassword string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE users SET password = $2 WHERE phone = $1
	`, phone, hashedPassword)
	return err
}
