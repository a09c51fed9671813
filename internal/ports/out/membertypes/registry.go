package membertypes

import (
	"context"

	"github.com/Overland-East-Bay/xprofile-membertype-field/internal/domain"
)

// Registry provides access to the host's registered member types.
//
// Result ordering expectations:
// - List returns active member types in registration order.
type Registry interface {
	Register(ctx context.Context, mt domain.MemberType) error

	// Get returns an active member type by name. Unknown and inactive names yield ErrNotFound.
	Get(ctx context.Context, name domain.MemberTypeName) (domain.MemberType, error)

	List(ctx context.Context) ([]domain.MemberType, error)
}

// Assigner reads and writes a user's current member type.
type Assigner interface {
	// SetMemberType makes name the user's only member type. An empty name removes
	// every member type from the user.
	SetMemberType(ctx context.Context, user domain.UserID, name domain.MemberTypeName) error

	// GetMemberType returns the user's current member type; ok is false when none is set.
	GetMemberType(ctx context.Context, user domain.UserID) (name domain.MemberTypeName, ok bool, err error)
}
