package fieldrepo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/Overland-East-Bay/xprofile-membertype-field/internal/adapters/postgres"
	"github.com/Overland-East-Bay/xprofile-membertype-field/internal/domain"
	"github.com/Overland-East-Bay/xprofile-membertype-field/internal/ports/out/fieldrepo"
)

// Repo is a Postgres implementation of fieldrepo.Repository.
//
// Metadata is kept one row per key; selected_types is stored as a JSON array.
type Repo struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

func (r *Repo) Create(ctx context.Context, f domain.Field) (domain.Field, error) {
	if r.pool == nil {
		return domain.Field{}, errors.New("nil postgres pool")
	}
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO xprofile_fields (
			group_id,
			parent_id,
			type,
			name,
			description,
			is_required,
			is_default_option,
			can_delete,
			field_order,
			option_order,
			order_by
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id
	`,
		int64(f.GroupID),
		int64(f.ParentID),
		string(f.Type),
		f.Name,
		f.Description,
		f.IsRequired,
		f.IsDefaultOption,
		f.CanDelete,
		f.FieldOrder,
		f.OptionOrder,
		f.OrderBy,
	).Scan(&id)
	if err != nil {
		return domain.Field{}, err
	}
	f.ID = domain.FieldID(id)
	return f, nil
}

func (r *Repo) GetByID(ctx context.Context, id domain.FieldID) (domain.Field, error) {
	if r.pool == nil {
		return domain.Field{}, errors.New("nil postgres pool")
	}
	row := r.pool.QueryRow(ctx, selectFields+` WHERE id = $1`, int64(id))
	return scanField(row)
}

func (r *Repo) ListChildren(ctx context.Context, parent domain.FieldID) ([]domain.Field, error) {
	if r.pool == nil {
		return nil, errors.New("nil postgres pool")
	}
	if parent == 0 {
		return []domain.Field{}, nil
	}
	rows, err := r.pool.Query(ctx, selectFields+` WHERE parent_id = $1 ORDER BY option_order ASC, id ASC`, int64(parent))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.Field, 0)
	for rows.Next() {
		f, err := scanField(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Repo) GetMeta(ctx context.Context, id domain.FieldID) (domain.FieldMeta, error) {
	if r.pool == nil {
		return domain.FieldMeta{}, errors.New("nil postgres pool")
	}
	if _, err := r.GetByID(ctx, id); err != nil {
		return domain.FieldMeta{}, err
	}
	rows, err := r.pool.Query(ctx, `
		SELECT meta_key, meta_value FROM xprofile_meta WHERE field_id = $1
	`, int64(id))
	if err != nil {
		return domain.FieldMeta{}, err
	}
	defer rows.Close()

	var meta domain.FieldMeta
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return domain.FieldMeta{}, err
		}
		switch key {
		case domain.MetaKeyDefaultValue:
			meta.DefaultValue = value
		case domain.MetaKeyDisplayType:
			meta.DisplayType = domain.DisplayType(value)
		case domain.MetaKeyRestriction:
			meta.Restriction = domain.Restriction(value)
		case domain.MetaKeySelectedTypes:
			if err := json.Unmarshal([]byte(value), &meta.SelectedTypes); err != nil {
				return domain.FieldMeta{}, fmt.Errorf("decode %s for field %d: %w", key, id, err)
			}
		}
	}
	if err := rows.Err(); err != nil {
		return domain.FieldMeta{}, err
	}
	return meta, nil
}

func (r *Repo) SetMeta(ctx context.Context, id domain.FieldID, meta domain.FieldMeta) error {
	if r.pool == nil {
		return errors.New("nil postgres pool")
	}
	selected, err := json.Marshal(meta.SelectedTypes)
	if err != nil {
		return err
	}
	if meta.SelectedTypes == nil {
		selected = []byte("[]")
	}

	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM xprofile_meta WHERE field_id = $1`, int64(id)); err != nil {
			return err
		}
		values := []struct {
			key   string
			value string
		}{
			{domain.MetaKeyDefaultValue, meta.DefaultValue},
			{domain.MetaKeyDisplayType, string(meta.DisplayType)},
			{domain.MetaKeyRestriction, string(meta.Restriction)},
			{domain.MetaKeySelectedTypes, string(selected)},
		}
		for _, kv := range values {
			_, err := tx.Exec(ctx, `
				INSERT INTO xprofile_meta (field_id, meta_key, meta_value) VALUES ($1, $2, $3)
			`, int64(id), kv.key, kv.value)
			if err != nil {
				if pe, ok := postgres.AsPgError(err); ok && pe.Code == postgres.ForeignKeyViolationCode {
					return fieldrepo.ErrNotFound
				}
				return err
			}
		}
		return nil
	})
}

const selectFields = `
	SELECT
		id,
		group_id,
		parent_id,
		type,
		name,
		description,
		is_required,
		is_default_option,
		can_delete,
		field_order,
		option_order,
		order_by
	FROM xprofile_fields
`

func scanField(row interface {
	Scan(dest ...any) error
}) (domain.Field, error) {
	var (
		id, groupID, parentID   int64
		typ, name, description  string
		isRequired, isDefault   bool
		canDelete               bool
		fieldOrder, optionOrder int
		orderBy                 string
	)
	if err := row.Scan(
		&id,
		&groupID,
		&parentID,
		&typ,
		&name,
		&description,
		&isRequired,
		&isDefault,
		&canDelete,
		&fieldOrder,
		&optionOrder,
		&orderBy,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Field{}, fieldrepo.ErrNotFound
		}
		return domain.Field{}, err
	}
	return domain.Field{
		ID:              domain.FieldID(id),
		GroupID:         domain.GroupID(groupID),
		ParentID:        domain.FieldID(parentID),
		Type:            domain.FieldType(typ),
		Name:            name,
		Description:     description,
		IsRequired:      isRequired,
		IsDefaultOption: isDefault,
		CanDelete:       canDelete,
		FieldOrder:      fieldOrder,
		OptionOrder:     optionOrder,
		OrderBy:         orderBy,
	}, nil
}
