package profiledata

import (
	"context"
	"sync"

	"github.com/Overland-East-Bay/xprofile-membertype-field/internal/domain"
	"github.com/Overland-East-Bay/xprofile-membertype-field/internal/ports/out/profiledata"
)

type key struct {
	fieldID domain.FieldID
	userID  domain.UserID
}

// Repo is an in-memory implementation of profiledata.Repository.
// It is safe for concurrent use.
type Repo struct {
	mu sync.RWMutex
	m  map[key]profiledata.Record
}

func NewRepo() *Repo {
	return &Repo{m: make(map[key]profiledata.Record)}
}

func (r *Repo) Get(ctx context.Context, field domain.FieldID, user domain.UserID) (string, bool, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.m[key{fieldID: field, userID: user}]
	return rec.Value, ok, nil
}

func (r *Repo) Put(ctx context.Context, rec profiledata.Record) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	r.m[key{fieldID: rec.FieldID, userID: rec.UserID}] = rec
	return nil
}
