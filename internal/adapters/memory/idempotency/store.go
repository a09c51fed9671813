package idempotency

import (
	"context"
	"sync"

	"github.com/Overland-East-Bay/xprofile-membertype-field/internal/domain"
	"github.com/Overland-East-Bay/xprofile-membertype-field/internal/ports/out/idempotency"
)

// Store keeps replay records per displayed user. Bodies are copied on the
// way in and out so a caller cannot mutate a stored response.
type Store struct {
	mu     sync.RWMutex
	byUser map[domain.UserID]map[idempotency.Fingerprint]idempotency.Record
}

func NewStore() *Store {
	return &Store{byUser: make(map[domain.UserID]map[idempotency.Fingerprint]idempotency.Record)}
}

func (s *Store) Get(_ context.Context, fp idempotency.Fingerprint) (idempotency.Record, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.byUser[fp.User][fp]
	if !ok {
		return idempotency.Record{}, false, nil
	}
	rec.Body = append([]byte(nil), rec.Body...)
	return rec, true, nil
}

// Put stores rec under fp, replacing any earlier record for the same fingerprint.
func (s *Store) Put(_ context.Context, fp idempotency.Fingerprint, rec idempotency.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	recs := s.byUser[fp.User]
	if recs == nil {
		recs = make(map[idempotency.Fingerprint]idempotency.Record)
		s.byUser[fp.User] = recs
	}
	rec.Body = append([]byte(nil), rec.Body...)
	recs[fp] = rec
	return nil
}
