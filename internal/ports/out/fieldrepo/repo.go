package fieldrepo

import (
	"context"

	"github.com/Overland-East-Bay/xprofile-membertype-field/internal/domain"
)

// Repository provides access to profile field definitions and their metadata.
type Repository interface {
	// Create stores f and returns it with its assigned ID. A non-zero f.ID is ignored.
	Create(ctx context.Context, f domain.Field) (domain.Field, error)

	GetByID(ctx context.Context, id domain.FieldID) (domain.Field, error)

	// ListChildren returns the fields whose ParentID is parent, ordered by OptionOrder then ID.
	ListChildren(ctx context.Context, parent domain.FieldID) ([]domain.Field, error)

	// GetMeta returns the field's metadata. Missing keys are left at their zero value;
	// a field with no metadata at all is not an error.
	GetMeta(ctx context.Context, id domain.FieldID) (domain.FieldMeta, error)

	// SetMeta replaces every metadata key of the field.
	SetMeta(ctx context.Context, id domain.FieldID, meta domain.FieldMeta) error
}
