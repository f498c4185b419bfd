package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"golang.org/x/sync/errgroup"

	"github.com/leadforte/leadforte_portal/internal/docstore"
	"github.com/leadforte/leadforte_portal/internal/metrics"
	"github.com/leadforte/leadforte_portal/internal/notification"
	"github.com/leadforte/leadforte_portal/internal/rating"
)

const (
	defaultPlanName = "Standard"
	// notifyTimeout bounds delivery after a command's write has committed.
	notifyTimeout = 2 * time.Second
)

// Service records policies and claims and enforces their status rules on top
// of a document store.
type Service struct {
	store    docstore.Store
	notifier notification.Notifier
	logger   *slog.Logger
	now      func() time.Time

	notifyTimeout time.Duration
}

// NewService builds a lifecycle service. notifier and logger may be nil.
func NewService(store docstore.Store, notifier notification.Notifier, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{store: store, notifier: notifier, logger: logger, now: time.Now, notifyTimeout: notifyTimeout}
}

// QuoteInput captures a client's policy request.
type QuoteInput struct {
	OwnerID   string
	OwnerName string
	Category  rating.Category
	PlanName  string
	Premium   int64
}

// SubmitPolicyQuote records a new pending policy with a one year term
// starting now.
func (s *Service) SubmitPolicyQuote(ctx context.Context, input QuoteInput) (Policy, error) {
	if strings.TrimSpace(input.OwnerID) == "" {
		return Policy{}, validationf("owner id is required")
	}
	if input.Premium < 0 {
		return Policy{}, validationf("premium must not be negative")
	}
	category, ok := rating.ParseCategory(string(input.Category))
	if !ok {
		return Policy{}, validationf("unknown insurance category %q", input.Category)
	}
	plan := strings.TrimSpace(input.PlanName)
	if plan == "" {
		plan = defaultPlanName
	}

	start := s.now().UTC().Truncate(time.Millisecond)
	policy := Policy{
		OwnerID:      input.OwnerID,
		OwnerName:    input.OwnerName,
		Category:     category,
		PlanName:     plan,
		PolicyNumber: "LF-" + ulid.Make().String(),
		Premium:      input.Premium,
		Status:       PolicyPending,
		StartDate:    start,
		ExpiryDate:   start.AddDate(PolicyTermYears, 0, 0),
		CreatedAt:    start,
	}

	fields, err := encodePolicy(policy)
	if err != nil {
		return Policy{}, err
	}
	id, err := s.store.Insert(ctx, docstore.CollectionPolicies, "", fields)
	if err != nil {
		return Policy{}, providerErr("insert policy", err)
	}
	policy.ID = id

	metrics.PoliciesSubmitted.WithLabelValues(string(category)).Inc()
	s.notify(ctx, notification.Message{
		Kind:        notification.KindPolicySubmitted,
		Destination: policy.OwnerID,
		Subject:     policy.ID,
		Status:      string(policy.Status),
		Body:        fmt.Sprintf("Policy application %s (%s %s) submitted", policy.PolicyNumber, policy.Category, policy.PlanName),
	})
	return policy, nil
}

// ListPoliciesForOwner returns the owner's policies, newest first.
func (s *Service) ListPoliciesForOwner(ctx context.Context, ownerID string) ([]Policy, error) {
	if strings.TrimSpace(ownerID) == "" {
		return nil, validationf("owner id is required")
	}
	return s.queryPolicies(ctx, docstore.Eq(fieldOwnerID, ownerID))
}

// ListAllPolicies returns every policy, newest first. Admin only.
func (s *Service) ListAllPolicies(ctx context.Context, caller Session) ([]Policy, error) {
	if !caller.IsAdmin() {
		return nil, fmt.Errorf("%w: listing all policies requires admin", ErrAuthorization)
	}
	return s.queryPolicies(ctx)
}

// GetPolicy returns one policy visible to the caller. Policies owned by
// someone else are reported as not found.
func (s *Service) GetPolicy(ctx context.Context, caller Session, id string) (Policy, error) {
	policy, err := s.loadPolicy(ctx, id)
	if err != nil {
		return Policy{}, err
	}
	if !caller.IsAdmin() && policy.OwnerID != caller.UserID {
		return Policy{}, fmt.Errorf("%w: policy %s", ErrNotFound, id)
	}
	return policy, nil
}

// TransitionPolicy moves a policy to target. Re-applying the status a policy
// was already moved to succeeds without writing; pending is never a target.
func (s *Service) TransitionPolicy(ctx context.Context, id string, target PolicyStatus, callerRole Role) (Policy, error) {
	if callerRole != RoleAdmin {
		return Policy{}, fmt.Errorf("%w: policy transitions require admin", ErrAuthorization)
	}
	policy, err := s.loadPolicy(ctx, id)
	if err != nil {
		return Policy{}, err
	}
	if policy.Status == target && target.settled() {
		metrics.Transitions.WithLabelValues("policy", string(target), "noop").Inc()
		return policy, nil
	}
	if !policy.Status.CanTransitionTo(target) {
		return Policy{}, fmt.Errorf("%w: policy %s cannot move from %s to %s", ErrInvalidTransition, id, policy.Status, target)
	}

	if err := s.store.Update(ctx, docstore.CollectionPolicies, id, map[string]any{fieldStatus: string(target)}); err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return Policy{}, fmt.Errorf("%w: policy %s", ErrNotFound, id)
		}
		return Policy{}, providerErr("update policy", err)
	}
	policy.Status = target

	metrics.Transitions.WithLabelValues("policy", string(target), "applied").Inc()
	s.notify(ctx, notification.Message{
		Kind:        notification.KindPolicyTransitioned,
		Destination: policy.OwnerID,
		Subject:     policy.ID,
		Status:      string(target),
		Body:        fmt.Sprintf("Policy %s is now %s", policy.PolicyNumber, target),
	})
	return policy, nil
}

// ClaimInput captures a client's claim.
type ClaimInput struct {
	OwnerID      string
	OwnerName    string
	PolicyID     string
	Amount       int64
	Description  string
	EvidenceURLs []string
}

// FileClaim records a claim under review against an active policy owned by
// the claimant.
//
// The policy check and the claim write are separate store calls; a policy
// changed in between is not detected.
func (s *Service) FileClaim(ctx context.Context, input ClaimInput) (Claim, error) {
	if strings.TrimSpace(input.OwnerID) == "" {
		return Claim{}, validationf("owner id is required")
	}
	if strings.TrimSpace(input.PolicyID) == "" {
		return Claim{}, validationf("policy id is required")
	}
	if input.Amount < 0 {
		return Claim{}, validationf("amount must not be negative")
	}
	description := strings.TrimSpace(input.Description)
	if description == "" {
		return Claim{}, validationf("description is required")
	}
	urls, err := cleanEvidenceURLs(input.EvidenceURLs)
	if err != nil {
		return Claim{}, err
	}

	policy, err := s.loadPolicy(ctx, input.PolicyID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Claim{}, validationf("policy %s does not exist", input.PolicyID)
		}
		return Claim{}, err
	}
	if policy.OwnerID != input.OwnerID || policy.Status != PolicyActive {
		return Claim{}, fmt.Errorf("%w: policy %s", ErrPolicyNotEligible, input.PolicyID)
	}

	claim := Claim{
		PolicyID:     policy.ID,
		OwnerID:      input.OwnerID,
		OwnerName:    input.OwnerName,
		Amount:       input.Amount,
		Description:  description,
		Status:       ClaimUnderReview,
		EvidenceURLs: urls,
		CreatedAt:    s.now().UTC().Truncate(time.Millisecond),
	}
	fields, err := encodeClaim(claim)
	if err != nil {
		return Claim{}, err
	}
	id, err := s.store.Insert(ctx, docstore.CollectionClaims, "", fields)
	if err != nil {
		return Claim{}, providerErr("insert claim", err)
	}
	claim.ID = id

	metrics.ClaimsFiled.Inc()
	s.notify(ctx, notification.Message{
		Kind:        notification.KindClaimFiled,
		Destination: claim.OwnerID,
		Subject:     claim.ID,
		Status:      string(claim.Status),
		Body:        fmt.Sprintf("Claim for %d filed against policy %s", claim.Amount, policy.PolicyNumber),
	})
	return claim, nil
}

// ListClaimsForOwner returns the owner's claims, newest first.
func (s *Service) ListClaimsForOwner(ctx context.Context, ownerID string) ([]Claim, error) {
	if strings.TrimSpace(ownerID) == "" {
		return nil, validationf("owner id is required")
	}
	return s.queryClaims(ctx, docstore.Eq(fieldOwnerID, ownerID))
}

// ListAllClaims returns every claim, newest first. Admin only.
func (s *Service) ListAllClaims(ctx context.Context, caller Session) ([]Claim, error) {
	if !caller.IsAdmin() {
		return nil, fmt.Errorf("%w: listing all claims requires admin", ErrAuthorization)
	}
	return s.queryClaims(ctx)
}

// GetClaim returns one claim visible to the caller.
func (s *Service) GetClaim(ctx context.Context, caller Session, id string) (Claim, error) {
	claim, err := s.loadClaim(ctx, id)
	if err != nil {
		return Claim{}, err
	}
	if !caller.IsAdmin() && claim.OwnerID != caller.UserID {
		return Claim{}, fmt.Errorf("%w: claim %s", ErrNotFound, id)
	}
	return claim, nil
}

// TransitionClaim moves a claim to target. Re-applying the status a claim was
// already moved to succeeds without writing.
func (s *Service) TransitionClaim(ctx context.Context, id string, target ClaimStatus, callerRole Role) (Claim, error) {
	if callerRole != RoleAdmin {
		return Claim{}, fmt.Errorf("%w: claim transitions require admin", ErrAuthorization)
	}
	claim, err := s.loadClaim(ctx, id)
	if err != nil {
		return Claim{}, err
	}
	if claim.Status == target && target.settled() {
		metrics.Transitions.WithLabelValues("claim", string(target), "noop").Inc()
		return claim, nil
	}
	if !claim.Status.CanTransitionTo(target) {
		return Claim{}, fmt.Errorf("%w: claim %s cannot move from %s to %s", ErrInvalidTransition, id, claim.Status, target)
	}

	if err := s.store.Update(ctx, docstore.CollectionClaims, id, map[string]any{fieldStatus: string(target)}); err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return Claim{}, fmt.Errorf("%w: claim %s", ErrNotFound, id)
		}
		return Claim{}, providerErr("update claim", err)
	}
	claim.Status = target

	metrics.Transitions.WithLabelValues("claim", string(target), "applied").Inc()
	s.notify(ctx, notification.Message{
		Kind:        notification.KindClaimTransitioned,
		Destination: claim.OwnerID,
		Subject:     claim.ID,
		Status:      string(target),
		Body:        fmt.Sprintf("Claim %s is now %s", claim.ID, target),
	})
	return claim, nil
}

// Overview counts pending policies and claims under review. Admin only.
func (s *Service) Overview(ctx context.Context, caller Session) (Overview, error) {
	if !caller.IsAdmin() {
		return Overview{}, fmt.Errorf("%w: overview requires admin", ErrAuthorization)
	}

	var out Overview
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		docs, err := s.store.Query(gctx, docstore.CollectionPolicies, docstore.Eq(fieldStatus, string(PolicyPending)))
		if err != nil {
			return providerErr("query policies", err)
		}
		out.PendingPolicies = len(docs)
		return nil
	})
	g.Go(func() error {
		docs, err := s.store.Query(gctx, docstore.CollectionClaims, docstore.Eq(fieldStatus, string(ClaimUnderReview)))
		if err != nil {
			return providerErr("query claims", err)
		}
		out.ClaimsUnderReview = len(docs)
		return nil
	})
	if err := g.Wait(); err != nil {
		return Overview{}, err
	}
	return out, nil
}

func (s *Service) loadPolicy(ctx context.Context, id string) (Policy, error) {
	if strings.TrimSpace(id) == "" {
		return Policy{}, validationf("policy id is required")
	}
	doc, err := s.store.Get(ctx, docstore.CollectionPolicies, id)
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return Policy{}, fmt.Errorf("%w: policy %s", ErrNotFound, id)
		}
		return Policy{}, providerErr("get policy", err)
	}
	return decodePolicy(doc)
}

func (s *Service) loadClaim(ctx context.Context, id string) (Claim, error) {
	if strings.TrimSpace(id) == "" {
		return Claim{}, validationf("claim id is required")
	}
	doc, err := s.store.Get(ctx, docstore.CollectionClaims, id)
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return Claim{}, fmt.Errorf("%w: claim %s", ErrNotFound, id)
		}
		return Claim{}, providerErr("get claim", err)
	}
	return decodeClaim(doc)
}

func (s *Service) queryPolicies(ctx context.Context, filters ...docstore.Filter) ([]Policy, error) {
	docs, err := s.store.Query(ctx, docstore.CollectionPolicies, filters...)
	if err != nil {
		return nil, providerErr("query policies", err)
	}
	policies := make([]Policy, 0, len(docs))
	for _, doc := range docs {
		p, err := decodePolicy(doc)
		if err != nil {
			return nil, err
		}
		policies = append(policies, p)
	}
	sort.SliceStable(policies, func(i, j int) bool {
		if !policies[i].CreatedAt.Equal(policies[j].CreatedAt) {
			return policies[i].CreatedAt.After(policies[j].CreatedAt)
		}
		return policies[i].ID < policies[j].ID
	})
	return policies, nil
}

func (s *Service) queryClaims(ctx context.Context, filters ...docstore.Filter) ([]Claim, error) {
	docs, err := s.store.Query(ctx, docstore.CollectionClaims, filters...)
	if err != nil {
		return nil, providerErr("query claims", err)
	}
	claims := make([]Claim, 0, len(docs))
	for _, doc := range docs {
		c, err := decodeClaim(doc)
		if err != nil {
			return nil, err
		}
		claims = append(claims, c)
	}
	sort.SliceStable(claims, func(i, j int) bool {
		if !claims[i].CreatedAt.Equal(claims[j].CreatedAt) {
			return claims[i].CreatedAt.After(claims[j].CreatedAt)
		}
		return claims[i].ID < claims[j].ID
	})
	return claims, nil
}

func (s *Service) notify(ctx context.Context, msg notification.Message) {
	if s.notifier == nil {
		return
	}
	if msg.OccurredAt.IsZero() {
		msg.OccurredAt = s.now().UTC()
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.notifyTimeout)
	defer cancel()
	if err := s.notifier.Send(ctx, msg); err != nil {
		s.logger.Warn("notification failed",
			slog.String("kind", msg.Kind),
			slog.String("subject", msg.Subject),
			slog.Any("error", err),
		)
	}
}

func cleanEvidenceURLs(raw []string) ([]string, error) {
	urls := make([]string, 0, len(raw))
	for _, r := range raw {
		r = strings.TrimSpace(r)
		if r == "" {
			continue
		}
		u, err := url.Parse(r)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return nil, validationf("evidence url %q must be an absolute http(s) url", r)
		}
		urls = append(urls, u.String())
	}
	return urls, nil
}
