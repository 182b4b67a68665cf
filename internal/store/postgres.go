package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DB is the part of *pgxpool.Pool the repo needs.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Repo struct {
	db DB
}

func NewRepo(db DB) *Repo {
	return &Repo{db: db}
}

func (r *Repo) Load(ctx context.Context, device, key string) ([]byte, error) {
	var body []byte
	err := r.db.QueryRow(ctx, `
		SELECT body
		FROM client_records
		WHERE device_id=$1 AND key=$2
	`, device, key).Scan(&body)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return body, err
}

func (r *Repo) Save(ctx context.Context, device, key string, body []byte) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO client_records (device_id, key, body, updated_at)
		VALUES ($1,$2,$3,now())
		ON CONFLICT (device_id, key)
		DO UPDATE SET body=EXCLUDED.body, updated_at=now()
	`, device, key, body)
	return err
}

func (r *Repo) Delete(ctx context.Context, device, key string) error {
	_, err := r.db.Exec(ctx, `
		DELETE FROM client_records
		WHERE device_id=$1 AND key=$2
	`, device, key)
	return err
}
