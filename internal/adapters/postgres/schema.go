package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Migrate creates every table the adapters need.
// Safe to call multiple times - uses IF NOT EXISTS.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

const schema = `
-- Member types, in registration order (id)
CREATE TABLE IF NOT EXISTS member_types (
    id BIGSERIAL PRIMARY KEY,
    external_id UUID NOT NULL,
    name TEXT NOT NULL,
    label_name TEXT NOT NULL DEFAULT '',
    singular_name TEXT NOT NULL DEFAULT '',
    is_active BOOLEAN NOT NULL DEFAULT TRUE,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    CONSTRAINT member_types_name_unique UNIQUE (name),
    CONSTRAINT member_types_external_id_unique UNIQUE (external_id)
);

-- One member type per user
CREATE TABLE IF NOT EXISTS member_type_assignments (
    user_id BIGINT PRIMARY KEY,
    member_type TEXT NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

-- Profile fields
CREATE TABLE IF NOT EXISTS xprofile_fields (
    id BIGSERIAL PRIMARY KEY,
    group_id BIGINT NOT NULL DEFAULT 0,
    parent_id BIGINT NOT NULL DEFAULT 0,
    type TEXT NOT NULL,
    name TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    is_required BOOLEAN NOT NULL DEFAULT FALSE,
    is_default_option BOOLEAN NOT NULL DEFAULT FALSE,
    can_delete BOOLEAN NOT NULL DEFAULT TRUE,
    field_order INT NOT NULL DEFAULT 0,
    option_order INT NOT NULL DEFAULT 0,
    order_by TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_xprofile_fields_parent_id ON xprofile_fields(parent_id);

-- Field metadata key/value store
CREATE TABLE IF NOT EXISTS xprofile_meta (
    field_id BIGINT NOT NULL REFERENCES xprofile_fields(id) ON DELETE CASCADE,
    meta_key TEXT NOT NULL,
    meta_value TEXT NOT NULL,
    PRIMARY KEY (field_id, meta_key)
);

-- Stored profile values
CREATE TABLE IF NOT EXISTS xprofile_data (
    field_id BIGINT NOT NULL,
    user_id BIGINT NOT NULL,
    value TEXT NOT NULL,
    last_updated TIMESTAMPTZ NOT NULL,
    PRIMARY KEY (field_id, user_id)
);

-- Replayable responses for retried saves
CREATE TABLE IF NOT EXISTS idempotency_keys (
    idempotency_key TEXT NOT NULL,
    user_id BIGINT NOT NULL,
    method TEXT NOT NULL,
    route TEXT NOT NULL,
    body_hash TEXT NOT NULL,
    status_code INT NOT NULL,
    content_type TEXT NOT NULL,
    body BYTEA NOT NULL,
    created_at TIMESTAMPTZ NOT NULL,
    PRIMARY KEY (idempotency_key, user_id, method, route, body_hash)
);
`
