package session

import (
	"context"

	"github.com/Overland-East-Bay/xprofile-membertype-field/internal/domain"
)

// DisplayedUser resolves the user whose profile is currently being displayed.
type DisplayedUser interface {
	DisplayedUserID(ctx context.Context) (domain.UserID, bool)
}
