package httpapi

import (
	"context"

	"github.com/Overland-East-Bay/xprofile-membertype-field/internal/domain"
	"github.com/Overland-East-Bay/xprofile-membertype-field/internal/ports/out/session"
)

type displayedUserKey struct{}

func WithDisplayedUser(ctx context.Context, user domain.UserID) context.Context {
	return context.WithValue(ctx, displayedUserKey{}, user)
}

func DisplayedUserFromContext(ctx context.Context) (domain.UserID, bool) {
	v, ok := ctx.Value(displayedUserKey{}).(domain.UserID)
	return v, ok && v != 0
}

type contextSession struct{}

func (contextSession) DisplayedUserID(ctx context.Context) (domain.UserID, bool) {
	return DisplayedUserFromContext(ctx)
}

// NewSession returns a session.DisplayedUser backed by the request context
// populated by NewDisplayedUserMiddleware.
func NewSession() session.DisplayedUser { return contextSession{} }
