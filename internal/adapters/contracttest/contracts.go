package contracttest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/Overland-East-Bay/xprofile-membertype-field/internal/domain"
	fieldrepoport "github.com/Overland-East-Bay/xprofile-membertype-field/internal/ports/out/fieldrepo"
	idempotencyport "github.com/Overland-East-Bay/xprofile-membertype-field/internal/ports/out/idempotency"
	membertypesport "github.com/Overland-East-Bay/xprofile-membertype-field/internal/ports/out/membertypes"
	profiledataport "github.com/Overland-East-Bay/xprofile-membertype-field/internal/ports/out/profiledata"
)

type CleanupFunc = func()

// MemberTypeStore is the combined registry + assignment surface adapters provide.
type MemberTypeStore interface {
	membertypesport.Registry
	membertypesport.Assigner
}

type MemberTypeStoreFactory func(t *testing.T) (MemberTypeStore, CleanupFunc)
type FieldRepoFactory func(t *testing.T) (fieldrepoport.Repository, CleanupFunc)
type ProfileDataFactory func(t *testing.T) (profiledataport.Repository, CleanupFunc)
type IdemStoreFactory func(t *testing.T) (idempotencyport.Store, CleanupFunc)

// uniqueName returns a normalized member type name that cannot collide across runs
// against a shared database.
func uniqueName(prefix string) domain.MemberTypeName {
	return domain.MemberTypeName(prefix + "-" + uuid.NewString())
}

func uniqueUser() domain.UserID {
	return domain.UserID(int64(uuid.New().ID()) + 1)
}

func RunMemberTypeRegistry(t *testing.T, newStore MemberTypeStoreFactory) {
	t.Helper()
	ctx := context.Background()

	store, cleanup := newStore(t)
	if cleanup != nil {
		t.Cleanup(cleanup)
	}

	first := uniqueName("alumni")
	second := uniqueName("staff")
	retired := uniqueName("retired")
	for _, mt := range []domain.MemberType{
		{Name: first, Labels: domain.MemberTypeLabels{Name: "Alumni", SingularName: "Alumnus"}, Active: true},
		{Name: second, Labels: domain.MemberTypeLabels{Name: "Staff", SingularName: "Staff Member"}, Active: true},
		{Name: retired, Labels: domain.MemberTypeLabels{SingularName: "Retired"}, Active: false},
	} {
		if err := store.Register(ctx, mt); err != nil {
			t.Fatalf("Register(%s): %v", mt.Name, err)
		}
	}

	// Duplicate names are rejected.
	if err := store.Register(ctx, domain.MemberType{Name: first, Active: true}); !errors.Is(err, membertypesport.ErrAlreadyExists) {
		t.Fatalf("Register duplicate err=%v, want ErrAlreadyExists", err)
	}
	if err := store.Register(ctx, domain.MemberType{Name: "Not Normalized", Active: true}); !errors.Is(err, membertypesport.ErrInvalidName) {
		t.Fatalf("Register non-normalized err=%v, want ErrInvalidName", err)
	}

	got, err := store.Get(ctx, first)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Labels.SingularName != "Alumnus" || got.DBID == 0 {
		t.Fatalf("Get()=%+v, want singular label and DBID", got)
	}

	// Inactive and unknown types are not registered as far as callers are concerned.
	if _, err := store.Get(ctx, retired); !errors.Is(err, membertypesport.ErrNotFound) {
		t.Fatalf("Get(inactive) err=%v, want ErrNotFound", err)
	}
	if _, err := store.Get(ctx, uniqueName("bogus")); !errors.Is(err, membertypesport.ErrNotFound) {
		t.Fatalf("Get(unknown) err=%v, want ErrNotFound", err)
	}

	// List keeps registration order and hides inactive types.
	all, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	var ours []domain.MemberTypeName
	for _, mt := range all {
		switch mt.Name {
		case first, second, retired:
			ours = append(ours, mt.Name)
		}
	}
	if len(ours) != 2 || ours[0] != first || ours[1] != second {
		t.Fatalf("List() order=%v, want [%s %s]", ours, first, second)
	}

	// Assignment: set, replace, clear.
	user := uniqueUser()
	if _, ok, err := store.GetMemberType(ctx, user); err != nil || ok {
		t.Fatalf("GetMemberType(new user) ok=%v err=%v, want none", ok, err)
	}
	if err := store.SetMemberType(ctx, user, first); err != nil {
		t.Fatalf("SetMemberType: %v", err)
	}
	if err := store.SetMemberType(ctx, user, second); err != nil {
		t.Fatalf("SetMemberType replace: %v", err)
	}
	name, ok, err := store.GetMemberType(ctx, user)
	if err != nil || !ok || name != second {
		t.Fatalf("GetMemberType()=(%q,%v,%v), want %q", name, ok, err, second)
	}
	if err := store.SetMemberType(ctx, user, ""); err != nil {
		t.Fatalf("SetMemberType clear: %v", err)
	}
	if _, ok, err := store.GetMemberType(ctx, user); err != nil || ok {
		t.Fatalf("GetMemberType(cleared) ok=%v err=%v", ok, err)
	}
}

func RunFieldRepo(t *testing.T, newRepo FieldRepoFactory) {
	t.Helper()
	ctx := context.Background()

	repo, cleanup := newRepo(t)
	if cleanup != nil {
		t.Cleanup(cleanup)
	}

	parent, err := repo.Create(ctx, domain.Field{
		GroupID:     1,
		Type:        domain.FieldTypeMemberType,
		Name:        "Member Type",
		Description: "Pick one",
		IsRequired:  true,
		CanDelete:   true,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if parent.ID == 0 {
		t.Fatalf("Create returned zero ID")
	}
	got, err := repo.GetByID(ctx, parent.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Type != domain.FieldTypeMemberType || got.Name != "Member Type" || !got.IsRequired {
		t.Fatalf("GetByID()=%+v", got)
	}
	if _, err := repo.GetByID(ctx, parent.ID+100000); !errors.Is(err, fieldrepoport.ErrNotFound) {
		t.Fatalf("GetByID(missing) err=%v, want ErrNotFound", err)
	}

	// Children ordered by option order.
	for i, name := range []string{"b", "a"} {
		if _, err := repo.Create(ctx, domain.Field{
			GroupID:     1,
			ParentID:    parent.ID,
			Type:        domain.FieldTypeOption,
			Name:        name,
			OptionOrder: 2 - i,
		}); err != nil {
			t.Fatalf("Create child: %v", err)
		}
	}
	children, err := repo.ListChildren(ctx, parent.ID)
	if err != nil {
		t.Fatalf("ListChildren: %v", err)
	}
	if len(children) != 2 || children[0].Name != "a" || children[1].Name != "b" {
		t.Fatalf("ListChildren()=%+v", children)
	}

	// Metadata: empty by default, replaced wholesale.
	meta, err := repo.GetMeta(ctx, parent.ID)
	if err != nil {
		t.Fatalf("GetMeta(empty): %v", err)
	}
	if meta.DefaultValue != "" || meta.DisplayType != "" || len(meta.SelectedTypes) != 0 {
		t.Fatalf("GetMeta(empty)=%+v", meta)
	}
	want := domain.FieldMeta{
		DefaultValue:  "alumni",
		DisplayType:   domain.DisplayTypeRadio,
		Restriction:   domain.RestrictionRestricted,
		SelectedTypes: []domain.MemberTypeName{"staff", "alumni"},
	}
	if err := repo.SetMeta(ctx, parent.ID, want); err != nil {
		t.Fatalf("SetMeta: %v", err)
	}
	meta, err = repo.GetMeta(ctx, parent.ID)
	if err != nil {
		t.Fatalf("GetMeta: %v", err)
	}
	if meta.DefaultValue != want.DefaultValue || meta.DisplayType != want.DisplayType || meta.Restriction != want.Restriction {
		t.Fatalf("GetMeta()=%+v, want %+v", meta, want)
	}
	if len(meta.SelectedTypes) != 2 || meta.SelectedTypes[0] != "staff" || meta.SelectedTypes[1] != "alumni" {
		t.Fatalf("SelectedTypes=%v, want declared order", meta.SelectedTypes)
	}

	if err := repo.SetMeta(ctx, parent.ID, domain.FieldMeta{Restriction: domain.RestrictionRestricted}); err != nil {
		t.Fatalf("SetMeta(clear): %v", err)
	}
	meta, _ = repo.GetMeta(ctx, parent.ID)
	if meta.DefaultValue != "" || len(meta.SelectedTypes) != 0 || meta.Restriction != domain.RestrictionRestricted {
		t.Fatalf("GetMeta after replace=%+v", meta)
	}
	if err := repo.SetMeta(ctx, parent.ID+100000, want); !errors.Is(err, fieldrepoport.ErrNotFound) {
		t.Fatalf("SetMeta(missing) err=%v, want ErrNotFound", err)
	}
}

func RunProfileData(t *testing.T, newRepo ProfileDataFactory) {
	t.Helper()
	ctx := context.Background()

	repo, cleanup := newRepo(t)
	if cleanup != nil {
		t.Cleanup(cleanup)
	}

	field := domain.FieldID(uuid.New().ID()%1_000_000 + 1)
	user := uniqueUser()

	if _, found, err := repo.Get(ctx, field, user); err != nil || found {
		t.Fatalf("Get(absent) found=%v err=%v", found, err)
	}
	rec := profiledataport.Record{
		FieldID:     field,
		UserID:      user,
		Value:       "alumni",
		LastUpdated: time.Unix(1000, 0).UTC(),
	}
	if err := repo.Put(ctx, rec); err != nil {
		t.Fatalf("Put: %v", err)
	}
	raw, found, err := repo.Get(ctx, field, user)
	if err != nil || !found || raw != "alumni" {
		t.Fatalf("Get()=(%q,%v,%v), want alumni", raw, found, err)
	}

	// Overwrite semantics, including the empty value.
	rec.Value = ""
	if err := repo.Put(ctx, rec); err != nil {
		t.Fatalf("Put overwrite: %v", err)
	}
	raw, found, err = repo.Get(ctx, field, user)
	if err != nil || !found || raw != "" {
		t.Fatalf("Get() after overwrite=(%q,%v,%v), want empty but found", raw, found, err)
	}
}

func RunIdempotencyStore(t *testing.T, newStore IdemStoreFactory) {
	t.Helper()
	ctx := context.Background()

	store, cleanup := newStore(t)
	if cleanup != nil {
		t.Cleanup(cleanup)
	}

	user := uniqueUser()
	fp := idempotencyport.Fingerprint{
		Key:      idempotencyport.Key("k-" + uuid.NewString()),
		User:     user,
		Method:   "POST",
		Route:    "/users/1/fields/2",
		BodyHash: "",
	}
	if _, ok, err := store.Get(ctx, fp); err != nil || ok {
		t.Fatalf("Get before Put: ok=%v err=%v", ok, err)
	}
	rec := idempotencyport.Record{
		StatusCode:  0,
		ContentType: "text/plain",
		Body:        []byte("hash-abc"),
		CreatedAt:   time.Unix(123, 0).UTC(),
	}
	if err := store.Put(ctx, fp, rec); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, ok, err := store.Get(ctx, fp)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !ok {
		t.Fatalf("expected ok=true")
	}
	if string(got.Body) != "hash-abc" || got.ContentType != "text/plain" || got.StatusCode != 0 {
		t.Fatalf("unexpected record: %+v", got)
	}

	// Overwrite semantics.
	rec2 := rec
	rec2.Body = []byte("hash-def")
	if err := store.Put(ctx, fp, rec2); err != nil {
		t.Fatalf("Put overwrite: %v", err)
	}
	got, ok, err = store.Get(ctx, fp)
	if err != nil || !ok || string(got.Body) != "hash-def" {
		t.Fatalf("expected overwritten record, got ok=%v err=%v body=%q", ok, err, string(got.Body))
	}

	// Fingerprints are scoped per body hash.
	other := fp
	other.BodyHash = "abc"
	if _, ok, err := store.Get(ctx, other); err != nil || ok {
		t.Fatalf("Get other body hash: ok=%v err=%v", ok, err)
	}

	// Fingerprints are scoped per user.
	otherUser := fp
	otherUser.User = uniqueUser()
	if _, ok, err := store.Get(ctx, otherUser); err != nil || ok {
		t.Fatalf("Get other user: ok=%v err=%v", ok, err)
	}
	if err := store.Put(ctx, otherUser, rec); err != nil {
		t.Fatalf("Put other user: %v", err)
	}
	got, ok, err = store.Get(ctx, fp)
	if err != nil || !ok || string(got.Body) != "hash-def" {
		t.Fatalf("first user record changed: ok=%v err=%v body=%q", ok, err, string(got.Body))
	}
}
