package profiledata

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Overland-East-Bay/xprofile-membertype-field/internal/domain"
	"github.com/Overland-East-Bay/xprofile-membertype-field/internal/ports/out/profiledata"
)

// Repo is a Postgres implementation of profiledata.Repository.
type Repo struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

func (r *Repo) Get(ctx context.Context, field domain.FieldID, user domain.UserID) (string, bool, error) {
	if r.pool == nil {
		return "", false, errors.New("nil postgres pool")
	}
	var value string
	err := r.pool.QueryRow(ctx, `
		SELECT value FROM xprofile_data WHERE field_id = $1 AND user_id = $2
	`, int64(field), int64(user)).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", false, nil
		}
		return "", false, err
	}
	return value, true, nil
}

func (r *Repo) Put(ctx context.Context, rec profiledata.Record) error {
	if r.pool == nil {
		return errors.New("nil postgres pool")
	}
	lastUpdated := rec.LastUpdated
	if lastUpdated.IsZero() {
		lastUpdated = time.Now().UTC()
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO xprofile_data (field_id, user_id, value, last_updated)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (field_id, user_id) DO UPDATE SET
			value = EXCLUDED.value,
			last_updated = EXCLUDED.last_updated
	`, int64(rec.FieldID), int64(rec.UserID), rec.Value, lastUpdated.UTC())
	return err
}
