package httpapi

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/Overland-East-Bay/xprofile-membertype-field/internal/app/fieldtype"
	"github.com/Overland-East-Bay/xprofile-membertype-field/internal/domain"
)

// DisplayedUserHeader names the user whose profile the request is about when
// the route does not say.
const DisplayedUserHeader = "X-Displayed-User"

// NewDisplayedUserMiddleware stores the displayed user in request context.
//
// The user comes from the X-Displayed-User header, falling back to
// defaultUser. A zero defaultUser means no displayed user.
func NewDisplayedUserMiddleware(defaultUser domain.UserID) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := defaultUser
			if raw := strings.TrimSpace(r.Header.Get(DisplayedUserHeader)); raw != "" {
				id, err := strconv.ParseInt(raw, 10, 64)
				if err != nil || id <= 0 {
					writeError(w, r, http.StatusBadRequest, "BAD_REQUEST", "malformed "+DisplayedUserHeader+" header", nil)
					return
				}
				user = domain.UserID(id)
			}
			if user == 0 {
				next.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithDisplayedUser(r.Context(), user)))
		})
	}
}

// RequestCache gives every request its own member type list memo.
func RequestCache(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r.WithContext(fieldtype.WithCache(r.Context())))
	})
}
