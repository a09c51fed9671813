package idempotency

import (
	"context"
	"testing"
	"time"

	"github.com/Overland-East-Bay/xprofile-membertype-field/internal/ports/out/idempotency"
)

func saveFingerprint() idempotency.Fingerprint {
	return idempotency.Fingerprint{
		Key:      "k1",
		User:     7,
		Method:   "POST",
		Route:    "/users/7/fields/3",
		BodyHash: "abc123",
	}
}

func TestStore_PutThenGet(t *testing.T) {
	t.Parallel()

	s := NewStore()
	fp := saveFingerprint()
	rec := idempotency.Record{
		StatusCode:  200,
		ContentType: "application/json",
		Body:        []byte(`{"memberType":"alumni"}`),
		CreatedAt:   time.Unix(123, 0).UTC(),
	}
	if err := s.Put(context.Background(), fp, rec); err != nil {
		t.Fatalf("Put() err=%v", err)
	}

	got, ok, err := s.Get(context.Background(), fp)
	if err != nil || !ok {
		t.Fatalf("Get() ok=%v err=%v", ok, err)
	}
	if got.StatusCode != rec.StatusCode || got.ContentType != rec.ContentType || string(got.Body) != string(rec.Body) || !got.CreatedAt.Equal(rec.CreatedAt) {
		t.Fatalf("Get()=%+v, want %+v", got, rec)
	}
}

func TestStore_ScopedByUserAndBodyHash(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := NewStore()
	fp := saveFingerprint()
	if err := s.Put(ctx, fp, idempotency.Record{StatusCode: 200, Body: []byte("first")}); err != nil {
		t.Fatalf("Put() err=%v", err)
	}

	otherUser := fp
	otherUser.User = 8
	if _, ok, _ := s.Get(ctx, otherUser); ok {
		t.Fatalf("Get() for another user ok=true")
	}
	meta := fp
	meta.BodyHash = ""
	if _, ok, _ := s.Get(ctx, meta); ok {
		t.Fatalf("Get() without body hash ok=true")
	}

	// The same key used by another user is an independent record.
	if err := s.Put(ctx, otherUser, idempotency.Record{StatusCode: 200, Body: []byte("second")}); err != nil {
		t.Fatalf("Put() err=%v", err)
	}
	got, _, _ := s.Get(ctx, fp)
	if string(got.Body) != "first" {
		t.Fatalf("user 7 body=%q, want first", got.Body)
	}
}

func TestStore_CopiesBodies(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := NewStore()
	fp := saveFingerprint()
	body := []byte("abc")
	if err := s.Put(ctx, fp, idempotency.Record{Body: body}); err != nil {
		t.Fatalf("Put() err=%v", err)
	}
	body[0] = 'x'

	got, _, _ := s.Get(ctx, fp)
	got.Body[1] = 'y'
	again, _, _ := s.Get(ctx, fp)
	if string(again.Body) != "abc" {
		t.Fatalf("stored body=%q, want abc", again.Body)
	}
}
