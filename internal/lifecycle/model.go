package lifecycle

import (
	"time"

	"github.com/leadforte/leadforte_portal/internal/rating"
)

// Role is the portal role stored on a user's profile.
type Role string

const (
	RoleClient Role = "client"
	RoleAdmin  Role = "admin"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleClient || r == RoleAdmin
}

// Session identifies the caller of an operation. It is assembled per request
// from the verified identity and the stored profile; role claims carried by
// tokens are never used.
type Session struct {
	UserID   string
	FullName string
	Role     Role
}

// IsAdmin reports whether the session holds the admin role.
func (s Session) IsAdmin() bool {
	return s.Role == RoleAdmin
}

// PolicyStatus is the lifecycle state of a policy.
type PolicyStatus string

const (
	PolicyPending  PolicyStatus = "pending"
	PolicyActive   PolicyStatus = "active"
	PolicyExpired  PolicyStatus = "expired"
	PolicyRejected PolicyStatus = "rejected"
)

// PolicyTransitions lists the statuses each policy status may move to.
// Expired is only reachable outside these operations.
var PolicyTransitions = map[PolicyStatus][]PolicyStatus{
	PolicyPending: {PolicyActive, PolicyRejected},
}

// CanTransitionTo reports whether a policy may move from s to target.
func (s PolicyStatus) CanTransitionTo(target PolicyStatus) bool {
	for _, valid := range PolicyTransitions[s] {
		if valid == target {
			return true
		}
	}
	return false
}

// settled reports whether s is reached by a transition. Only settled statuses
// may be re-applied as a no-op.
func (s PolicyStatus) settled() bool {
	for _, targets := range PolicyTransitions {
		for _, t := range targets {
			if t == s {
				return true
			}
		}
	}
	return false
}

// ClaimStatus is the lifecycle state of a claim.
type ClaimStatus string

const (
	ClaimUnderReview ClaimStatus = "under-review"
	ClaimApproved    ClaimStatus = "approved"
	ClaimRejected    ClaimStatus = "rejected"
	ClaimPaid        ClaimStatus = "paid"
)

// ClaimTransitions lists the statuses each claim status may move to.
var ClaimTransitions = map[ClaimStatus][]ClaimStatus{
	ClaimUnderReview: {ClaimPaid, ClaimRejected},
}

// CanTransitionTo reports whether a claim may move from s to target.
func (s ClaimStatus) CanTransitionTo(target ClaimStatus) bool {
	for _, valid := range ClaimTransitions[s] {
		if valid == target {
			return true
		}
	}
	return false
}

func (s ClaimStatus) settled() bool {
	for _, targets := range ClaimTransitions {
		for _, t := range targets {
			if t == s {
				return true
			}
		}
	}
	return false
}

// PolicyTermYears is the fixed cover period of every policy.
const PolicyTermYears = 1

// Policy is an insurance policy request or contract.
type Policy struct {
	ID           string
	OwnerID      string
	OwnerName    string
	Category     rating.Category
	PlanName     string
	PolicyNumber string
	Premium      int64
	Status       PolicyStatus
	StartDate    time.Time
	ExpiryDate   time.Time
	CreatedAt    time.Time
}

// Claim is a request for settlement against an active policy.
type Claim struct {
	ID           string
	PolicyID     string
	OwnerID      string
	OwnerName    string
	Amount       int64
	Description  string
	Status       ClaimStatus
	EvidenceURLs []string
	CreatedAt    time.Time
}

// Overview summarises the work waiting for admins.
type Overview struct {
	PendingPolicies   int
	ClaimsUnderReview int
}
