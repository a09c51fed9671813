package fieldrepo

import (
	"context"
	"sort"
	"sync"

	"github.com/Overland-East-Bay/xprofile-membertype-field/internal/domain"
	"github.com/Overland-East-Bay/xprofile-membertype-field/internal/ports/out/fieldrepo"
)

// Repo is an in-memory implementation of fieldrepo.Repository.
// It is safe for concurrent use.
type Repo struct {
	mu sync.RWMutex

	nextID domain.FieldID
	byID   map[domain.FieldID]domain.Field
	meta   map[domain.FieldID]domain.FieldMeta
}

func NewRepo() *Repo {
	return &Repo{
		byID: make(map[domain.FieldID]domain.Field),
		meta: make(map[domain.FieldID]domain.FieldMeta),
	}
}

func (r *Repo) Create(ctx context.Context, f domain.Field) (domain.Field, error) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	f.ID = r.nextID
	r.byID[f.ID] = f
	return f, nil
}

func (r *Repo) GetByID(ctx context.Context, id domain.FieldID) (domain.Field, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.byID[id]
	if !ok {
		return domain.Field{}, fieldrepo.ErrNotFound
	}
	return f, nil
}

func (r *Repo) ListChildren(ctx context.Context, parent domain.FieldID) ([]domain.Field, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.Field, 0)
	for _, f := range r.byID {
		if f.ParentID == parent && parent != 0 {
			out = append(out, f)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].OptionOrder == out[j].OptionOrder {
			return out[i].ID < out[j].ID
		}
		return out[i].OptionOrder < out[j].OptionOrder
	})
	return out, nil
}

func (r *Repo) GetMeta(ctx context.Context, id domain.FieldID) (domain.FieldMeta, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	if _, ok := r.byID[id]; !ok {
		return domain.FieldMeta{}, fieldrepo.ErrNotFound
	}
	return cloneMeta(r.meta[id]), nil
}

func (r *Repo) SetMeta(ctx context.Context, id domain.FieldID, meta domain.FieldMeta) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[id]; !ok {
		return fieldrepo.ErrNotFound
	}
	r.meta[id] = cloneMeta(meta)
	return nil
}

func cloneMeta(m domain.FieldMeta) domain.FieldMeta {
	out := m
	if m.SelectedTypes != nil {
		out.SelectedTypes = append([]domain.MemberTypeName(nil), m.SelectedTypes...)
	}
	return out
}
