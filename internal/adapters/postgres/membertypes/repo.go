package membertypes

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/Overland-East-Bay/xprofile-membertype-field/internal/adapters/postgres"
	"github.com/Overland-East-Bay/xprofile-membertype-field/internal/domain"
	"github.com/Overland-East-Bay/xprofile-membertype-field/internal/ports/out/membertypes"
)

// Repo is a Postgres implementation of membertypes.Registry and membertypes.Assigner.
type Repo struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

func (r *Repo) Register(ctx context.Context, mt domain.MemberType) error {
	if r.pool == nil {
		return errors.New("nil postgres pool")
	}
	if mt.Name == "" || domain.NormalizeMemberTypeName(string(mt.Name)) != mt.Name {
		return membertypes.ErrInvalidName
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO member_types (
			external_id,
			name,
			label_name,
			singular_name,
			is_active
		) VALUES ($1, $2, $3, $4, $5)
	`,
		uuid.New(),
		string(mt.Name),
		mt.Labels.Name,
		mt.Labels.SingularName,
		mt.Active,
	)
	if err != nil {
		if pe, ok := postgres.AsPgError(err); ok && pe.Code == postgres.UniqueViolationCode && pe.ConstraintName == "member_types_name_unique" {
			return membertypes.ErrAlreadyExists
		}
		return err
	}
	return nil
}

func (r *Repo) Get(ctx context.Context, name domain.MemberTypeName) (domain.MemberType, error) {
	if r.pool == nil {
		return domain.MemberType{}, errors.New("nil postgres pool")
	}
	row := r.pool.QueryRow(ctx, `
		SELECT id, name, label_name, singular_name, is_active
		FROM member_types
		WHERE name = $1 AND is_active = true
	`, string(name))
	return scanMemberType(row)
}

func (r *Repo) List(ctx context.Context) ([]domain.MemberType, error) {
	if r.pool == nil {
		return nil, errors.New("nil postgres pool")
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, label_name, singular_name, is_active
		FROM member_types
		WHERE is_active = true
		ORDER BY id ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.MemberType, 0)
	for rows.Next() {
		mt, err := scanMemberType(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, mt)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Repo) SetMemberType(ctx context.Context, user domain.UserID, name domain.MemberTypeName) error {
	if r.pool == nil {
		return errors.New("nil postgres pool")
	}
	if name == "" {
		_, err := r.pool.Exec(ctx, `DELETE FROM member_type_assignments WHERE user_id = $1`, int64(user))
		return err
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO member_type_assignments (user_id, member_type, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (user_id) DO UPDATE SET
			member_type = EXCLUDED.member_type,
			updated_at = now()
	`, int64(user), string(name))
	return err
}

func (r *Repo) GetMemberType(ctx context.Context, user domain.UserID) (domain.MemberTypeName, bool, error) {
	if r.pool == nil {
		return "", false, errors.New("nil postgres pool")
	}
	var name string
	err := r.pool.QueryRow(ctx, `
		SELECT member_type FROM member_type_assignments WHERE user_id = $1
	`, int64(user)).Scan(&name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", false, nil
		}
		return "", false, err
	}
	return domain.MemberTypeName(name), true, nil
}

func scanMemberType(row interface {
	Scan(dest ...any) error
}) (domain.MemberType, error) {
	var (
		id           int64
		name         string
		labelName    string
		singularName string
		isActive     bool
	)
	if err := row.Scan(&id, &name, &labelName, &singularName, &isActive); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.MemberType{}, membertypes.ErrNotFound
		}
		return domain.MemberType{}, err
	}
	return domain.MemberType{
		Name: domain.MemberTypeName(name),
		DBID: id,
		Labels: domain.MemberTypeLabels{
			Name:         labelName,
			SingularName: singularName,
		},
		Active: isActive,
	}, nil
}
