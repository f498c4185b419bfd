package profile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/leadforte/leadforte_portal/internal/docstore"
	"github.com/leadforte/leadforte_portal/internal/lifecycle"
)

var (
	// ErrNotFound is returned when no profile exists for an identity.
	ErrNotFound = errors.New("profile not found")
	// ErrInvalid is returned for incomplete profiles.
	ErrInvalid = errors.New("invalid profile")
)

// Profile is the portal record attached to an authenticated identity.
type Profile struct {
	ID        string
	Email     string
	FullName  string
	Role      lifecycle.Role
	Phone     string
	CreatedAt time.Time
}

// Session converts the profile into the caller session used by lifecycle operations.
func (p Profile) Session() lifecycle.Session {
	return lifecycle.Session{UserID: p.ID, FullName: p.FullName, Role: p.Role}
}

// Service stores profiles in the users collection keyed by identity id.
type Service struct {
	store docstore.Store
	now   func() time.Time
}

// NewService creates a profile service.
func NewService(store docstore.Store) *Service {
	return &Service{store: store, now: time.Now}
}

// Create stores a new profile. The role cannot be changed afterwards.
func (s *Service) Create(ctx context.Context, p Profile) (Profile, error) {
	if strings.TrimSpace(p.ID) == "" {
		return Profile{}, fmt.Errorf("%w: id is required", ErrInvalid)
	}
	if strings.TrimSpace(p.FullName) == "" {
		return Profile{}, fmt.Errorf("%w: full name is required", ErrInvalid)
	}
	if p.Role == "" {
		p.Role = lifecycle.RoleClient
	}
	if !p.Role.Valid() {
		return Profile{}, fmt.Errorf("%w: unknown role %q", ErrInvalid, p.Role)
	}
	p.Email = strings.ToLower(strings.TrimSpace(p.Email))
	p.FullName = strings.TrimSpace(p.FullName)
	p.Phone = strings.TrimSpace(p.Phone)
	p.CreatedAt = s.now().UTC().Truncate(time.Millisecond)

	fields := map[string]any{
		"email":     p.Email,
		"fullName":  p.FullName,
		"role":      string(p.Role),
		"createdAt": p.CreatedAt.UnixMilli(),
	}
	if p.Phone != "" {
		fields["phone"] = p.Phone
	}
	if _, err := s.store.Insert(ctx, docstore.CollectionUsers, p.ID, fields); err != nil {
		return Profile{}, fmt.Errorf("store profile: %w", err)
	}
	return p, nil
}

// Get loads the profile for an identity id.
func (s *Service) Get(ctx context.Context, id string) (Profile, error) {
	doc, err := s.store.Get(ctx, docstore.CollectionUsers, id)
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return Profile{}, ErrNotFound
		}
		return Profile{}, fmt.Errorf("load profile: %w", err)
	}
	p := Profile{
		ID:       doc.ID,
		Email:    stringField(doc.Data, "email"),
		FullName: stringField(doc.Data, "fullName"),
		Role:     lifecycle.Role(stringField(doc.Data, "role")),
		Phone:    stringField(doc.Data, "phone"),
	}
	if n, ok := doc.Data["createdAt"].(json.Number); ok {
		if ms, err := n.Int64(); err == nil {
			p.CreatedAt = time.UnixMilli(ms).UTC()
		}
	}
	return p, nil
}

func stringField(data map[string]any, key string) string {
	v, _ := data[key].(string)
	return v
}
