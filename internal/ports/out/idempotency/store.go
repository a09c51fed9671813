package idempotency

import (
	"context"
	"time"

	"github.com/Overland-East-Bay/xprofile-membertype-field/internal/domain"
)

// Key is the caller-provided idempotency key (Idempotency-Key header).
type Key string

// Fingerprint identifies a request for replay purposes: key + user + route + request body hash.
//
// Route is the HTTP method plus the concrete path (e.g. "POST /users/7/fields/3").
// An empty BodyHash addresses the record that remembers which body a key was first used with.
type Fingerprint struct {
	Key      Key
	User     domain.UserID
	Method   string
	Route    string
	BodyHash string
}

// Record is the stored response we can replay for a duplicate request.
type Record struct {
	StatusCode  int
	ContentType string
	Body        []byte
	CreatedAt   time.Time
}

// Store persists idempotency records for replaying safe responses on retries.
type Store interface {
	Get(ctx context.Context, fp Fingerprint) (Record, bool, error)
	Put(ctx context.Context, fp Fingerprint, rec Record) error
}
