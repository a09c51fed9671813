package profiledata

import (
	"context"
	"time"

	"github.com/Overland-East-Bay/xprofile-membertype-field/internal/domain"
)

// Record is a stored per-user, per-field value.
//
// Value is the raw stored form; see domain.DecodeStoredValue.
type Record struct {
	FieldID     domain.FieldID
	UserID      domain.UserID
	Value       string
	LastUpdated time.Time
}

// Repository provides access to stored profile field values.
type Repository interface {
	// Get returns the raw stored value; found is false when the user has no value for the field.
	Get(ctx context.Context, field domain.FieldID, user domain.UserID) (raw string, found bool, err error)

	// Put writes the record using last-write-wins semantics.
	Put(ctx context.Context, rec Record) error
}
