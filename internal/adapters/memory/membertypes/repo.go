package membertypes

import (
	"context"
	"sync"

	"github.com/Overland-East-Bay/xprofile-membertype-field/internal/domain"
	"github.com/Overland-East-Bay/xprofile-membertype-field/internal/ports/out/membertypes"
)

// Repo is an in-memory implementation of membertypes.Registry and membertypes.Assigner.
// It is safe for concurrent use.
type Repo struct {
	mu sync.RWMutex

	order  []domain.MemberTypeName
	byName map[domain.MemberTypeName]domain.MemberType
	nextID int64

	byUser map[domain.UserID]domain.MemberTypeName
}

func NewRepo() *Repo {
	return &Repo{
		byName: make(map[domain.MemberTypeName]domain.MemberType),
		byUser: make(map[domain.UserID]domain.MemberTypeName),
	}
}

func (r *Repo) Register(ctx context.Context, mt domain.MemberType) error {
	_ = ctx
	if mt.Name == "" || domain.NormalizeMemberTypeName(string(mt.Name)) != mt.Name {
		return membertypes.ErrInvalidName
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byName[mt.Name]; ok {
		return membertypes.ErrAlreadyExists
	}
	r.nextID++
	if mt.DBID == 0 {
		mt.DBID = r.nextID
	}
	r.byName[mt.Name] = mt
	r.order = append(r.order, mt.Name)
	return nil
}

func (r *Repo) Get(ctx context.Context, name domain.MemberTypeName) (domain.MemberType, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	mt, ok := r.byName[name]
	if !ok || !mt.Active {
		return domain.MemberType{}, membertypes.ErrNotFound
	}
	return mt, nil
}

func (r *Repo) List(ctx context.Context) ([]domain.MemberType, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.MemberType, 0, len(r.order))
	for _, name := range r.order {
		if mt := r.byName[name]; mt.Active {
			out = append(out, mt)
		}
	}
	return out, nil
}

func (r *Repo) SetMemberType(ctx context.Context, user domain.UserID, name domain.MemberTypeName) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	if name == "" {
		delete(r.byUser, user)
		return nil
	}
	r.byUser[user] = name
	return nil
}

func (r *Repo) GetMemberType(ctx context.Context, user domain.UserID) (domain.MemberTypeName, bool, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	name, ok := r.byUser[user]
	return name, ok, nil
}
