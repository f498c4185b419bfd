package lifecycle

import (
	"errors"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/leadforte/leadforte_portal/internal/rating"
)

// SessionLocalsKey is the fiber.Ctx locals key holding the caller's Session.
const SessionLocalsKey = "session"

// SessionFrom returns the session stored by the session middleware.
func SessionFrom(c *fiber.Ctx) (Session, bool) {
	s, ok := c.Locals(SessionLocalsKey).(Session)
	return s, ok && s.UserID != ""
}

// Handler exposes policy and claim endpoints.
type Handler struct {
	service *Service
}

// NewHandler constructs a lifecycle HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type quoteRequest struct {
	Category      string  `json:"category"`
	PlanName      string  `json:"plan_name"`
	Premium       *int64  `json:"premium"`
	DeclaredValue float64 `json:"declared_value"`
	Duration      float64 `json:"duration"`
}

type claimRequest struct {
	PolicyID     string   `json:"policy_id"`
	Amount       int64    `json:"amount"`
	Description  string   `json:"description"`
	EvidenceURLs []string `json:"evidence_urls"`
}

type transitionRequest struct {
	Status string `json:"status"`
}

type policyResponse struct {
	ID           string    `json:"id"`
	PolicyNumber string    `json:"policy_number"`
	OwnerID      string    `json:"owner_id"`
	OwnerName    string    `json:"owner_name"`
	Category     string    `json:"category"`
	PlanName     string    `json:"plan_name"`
	Premium      int64     `json:"premium"`
	Status       string    `json:"status"`
	StartDate    time.Time `json:"start_date"`
	ExpiryDate   time.Time `json:"expiry_date"`
	CreatedAt    time.Time `json:"created_at"`
}

type claimResponse struct {
	ID           string    `json:"id"`
	PolicyID     string    `json:"policy_id"`
	OwnerID      string    `json:"owner_id"`
	OwnerName    string    `json:"owner_name"`
	Amount       int64     `json:"amount"`
	Description  string    `json:"description"`
	Status       string    `json:"status"`
	EvidenceURLs []string  `json:"evidence_urls"`
	CreatedAt    time.Time `json:"created_at"`
}

// SubmitPolicy records a quote for the calling client. When no premium is
// supplied it is computed from the declared value.
func (h *Handler) SubmitPolicy(c *fiber.Ctx) error {
	session, ok := SessionFrom(c)
	if !ok {
		return fiber.NewError(http.StatusUnauthorized, "unauthorized")
	}
	var req quoteRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	category, ok := rating.ParseCategory(req.Category)
	if !ok {
		return fiber.NewError(http.StatusBadRequest, "unknown insurance category")
	}
	premium := rating.EstimatePremium(category, req.DeclaredValue, req.Duration)
	if req.Premium != nil {
		premium = *req.Premium
	}

	policy, err := h.service.SubmitPolicyQuote(c.UserContext(), QuoteInput{
		OwnerID:   session.UserID,
		OwnerName: session.FullName,
		Category:  category,
		PlanName:  req.PlanName,
		Premium:   premium,
	})
	if err != nil {
		return httpError(err)
	}
	return c.Status(http.StatusCreated).JSON(toPolicyResponse(policy))
}

// ListPolicies returns the caller's own policies.
func (h *Handler) ListPolicies(c *fiber.Ctx) error {
	session, ok := SessionFrom(c)
	if !ok {
		return fiber.NewError(http.StatusUnauthorized, "unauthorized")
	}
	policies, err := h.service.ListPoliciesForOwner(c.UserContext(), session.UserID)
	if err != nil {
		return httpError(err)
	}
	return c.Status(http.StatusOK).JSON(toPolicyResponses(policies))
}

// GetPolicy returns a single policy visible to the caller.
func (h *Handler) GetPolicy(c *fiber.Ctx) error {
	session, ok := SessionFrom(c)
	if !ok {
		return fiber.NewError(http.StatusUnauthorized, "unauthorized")
	}
	policy, err := h.service.GetPolicy(c.UserContext(), session, c.Params("policyId"))
	if err != nil {
		return httpError(err)
	}
	return c.Status(http.StatusOK).JSON(toPolicyResponse(policy))
}

// ListAllPolicies returns every policy for admins.
func (h *Handler) ListAllPolicies(c *fiber.Ctx) error {
	session, _ := SessionFrom(c)
	policies, err := h.service.ListAllPolicies(c.UserContext(), session)
	if err != nil {
		return httpError(err)
	}
	return c.Status(http.StatusOK).JSON(toPolicyResponses(policies))
}

// TransitionPolicy approves or rejects a policy.
func (h *Handler) TransitionPolicy(c *fiber.Ctx) error {
	session, _ := SessionFrom(c)
	var req transitionRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	policy, err := h.service.TransitionPolicy(c.UserContext(), c.Params("policyId"), PolicyStatus(req.Status), session.Role)
	if err != nil {
		return httpError(err)
	}
	return c.Status(http.StatusOK).JSON(toPolicyResponse(policy))
}

// FileClaim records a claim for the calling client.
func (h *Handler) FileClaim(c *fiber.Ctx) error {
	session, ok := SessionFrom(c)
	if !ok {
		return fiber.NewError(http.StatusUnauthorized, "unauthorized")
	}
	var req claimRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	claim, err := h.service.FileClaim(c.UserContext(), ClaimInput{
		OwnerID:      session.UserID,
		OwnerName:    session.FullName,
		PolicyID:     req.PolicyID,
		Amount:       req.Amount,
		Description:  req.Description,
		EvidenceURLs: req.EvidenceURLs,
	})
	if err != nil {
		return httpError(err)
	}
	return c.Status(http.StatusCreated).JSON(toClaimResponse(claim))
}

// ListClaims returns the caller's own claims.
func (h *Handler) ListClaims(c *fiber.Ctx) error {
	session, ok := SessionFrom(c)
	if !ok {
		return fiber.NewError(http.StatusUnauthorized, "unauthorized")
	}
	claims, err := h.service.ListClaimsForOwner(c.UserContext(), session.UserID)
	if err != nil {
		return httpError(err)
	}
	return c.Status(http.StatusOK).JSON(toClaimResponses(claims))
}

// GetClaim returns a single claim visible to the caller.
func (h *Handler) GetClaim(c *fiber.Ctx) error {
	session, ok := SessionFrom(c)
	if !ok {
		return fiber.NewError(http.StatusUnauthorized, "unauthorized")
	}
	claim, err := h.service.GetClaim(c.UserContext(), session, c.Params("claimId"))
	if err != nil {
		return httpError(err)
	}
	return c.Status(http.StatusOK).JSON(toClaimResponse(claim))
}

// ListAllClaims returns every claim for admins.
func (h *Handler) ListAllClaims(c *fiber.Ctx) error {
	session, _ := SessionFrom(c)
	claims, err := h.service.ListAllClaims(c.UserContext(), session)
	if err != nil {
		return httpError(err)
	}
	return c.Status(http.StatusOK).JSON(toClaimResponses(claims))
}

// TransitionClaim settles or denies a claim.
func (h *Handler) TransitionClaim(c *fiber.Ctx) error {
	session, _ := SessionFrom(c)
	var req transitionRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	claim, err := h.service.TransitionClaim(c.UserContext(), c.Params("claimId"), ClaimStatus(req.Status), session.Role)
	if err != nil {
		return httpError(err)
	}
	return c.Status(http.StatusOK).JSON(toClaimResponse(claim))
}

// Overview returns the admin work queue counts.
func (h *Handler) Overview(c *fiber.Ctx) error {
	session, _ := SessionFrom(c)
	overview, err := h.service.Overview(c.UserContext(), session)
	if err != nil {
		return httpError(err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"pending_policies":    overview.PendingPolicies,
		"claims_under_review": overview.ClaimsUnderReview,
	})
}

func httpError(err error) error {
	switch {
	case errors.Is(err, ErrPolicyNotEligible):
		return fiber.NewError(http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, ErrValidation):
		return fiber.NewError(http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrAuthorization):
		return fiber.NewError(http.StatusForbidden, err.Error())
	case errors.Is(err, ErrNotFound):
		return fiber.NewError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrInvalidTransition):
		return fiber.NewError(http.StatusConflict, err.Error())
	case errors.Is(err, ErrProvider):
		return fiber.NewError(http.StatusBadGateway, "storage temporarily unavailable")
	default:
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
}

func toPolicyResponse(p Policy) policyResponse {
	return policyResponse{
		ID:           p.ID,
		PolicyNumber: p.PolicyNumber,
		OwnerID:      p.OwnerID,
		OwnerName:    p.OwnerName,
		Category:     string(p.Category),
		PlanName:     p.PlanName,
		Premium:      p.Premium,
		Status:       string(p.Status),
		StartDate:    p.StartDate,
		ExpiryDate:   p.ExpiryDate,
		CreatedAt:    p.CreatedAt,
	}
}

func toPolicyResponses(policies []Policy) []policyResponse {
	out := make([]policyResponse, 0, len(policies))
	for _, p := range policies {
		out = append(out, toPolicyResponse(p))
	}
	return out
}

func toClaimResponse(c Claim) claimResponse {
	return claimResponse{
		ID:           c.ID,
		PolicyID:     c.PolicyID,
		OwnerID:      c.OwnerID,
		OwnerName:    c.OwnerName,
		Amount:       c.Amount,
		Description:  c.Description,
		Status:       string(c.Status),
		EvidenceURLs: c.EvidenceURLs,
		CreatedAt:    c.CreatedAt,
	}
}

func toClaimResponses(claims []Claim) []claimResponse {
	out := make([]claimResponse, 0, len(claims))
	for _, c := range claims {
		out = append(out, toClaimResponse(c))
	}
	return out
}
