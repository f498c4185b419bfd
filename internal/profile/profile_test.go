package profile

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/leadforte/leadforte_portal/internal/docstore"
	"github.com/leadforte/leadforte_portal/internal/lifecycle"
)

func TestCreateAndGet(t *testing.T) {
	svc := NewService(docstore.NewInMemory())
	fixed := time.Date(2026, time.January, 5, 8, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixed }
	ctx := context.Background()

	created, err := svc.Create(ctx, Profile{ID: "uid-1", Email: " Ngozi@Example.COM ", FullName: "Ngozi Eze", Phone: "+2348030000000"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.Role != lifecycle.RoleClient {
		t.Fatalf("expected default client role, got %s", created.Role)
	}

	got, err := svc.Get(ctx, "uid-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Email != "ngozi@example.com" || got.FullName != "Ngozi Eze" || got.Phone != "+2348030000000" {
		t.Fatalf("unexpected profile %+v", got)
	}
	if !got.CreatedAt.Equal(fixed) {
		t.Fatalf("expected created_at %s, got %s", fixed, got.CreatedAt)
	}

	session := got.Session()
	if session.UserID != "uid-1" || session.IsAdmin() {
		t.Fatalf("unexpected session %+v", session)
	}
}

func TestCreateRejectsDuplicateAndInvalid(t *testing.T) {
	svc := NewService(docstore.NewInMemory())
	ctx := context.Background()

	if _, err := svc.Create(ctx, Profile{ID: "uid-1", FullName: "A", Role: lifecycle.RoleAdmin}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.Create(ctx, Profile{ID: "uid-1", FullName: "B"}); !errors.Is(err, docstore.ErrDuplicate) {
		t.Fatalf("expected duplicate error, got %v", err)
	}
	if _, err := svc.Create(ctx, Profile{ID: "uid-2", FullName: "C", Role: "owner"}); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid for unknown role, got %v", err)
	}
	if _, err := svc.Create(ctx, Profile{ID: "uid-3"}); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid for missing name, got %v", err)
	}
}

func TestGetMissingProfile(t *testing.T) {
	svc := NewService(docstore.NewInMemory())
	if _, err := svc.Get(context.Background(), "nobody"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
