package lifecycle

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/leadforte/leadforte_portal/internal/docstore"
	"github.com/leadforte/leadforte_portal/internal/rating"
)

// Stored field names follow the portal's existing collections.
const (
	fieldOwnerID = "userId"
	fieldStatus  = "status"
)

type policyRecord struct {
	OwnerID      string `json:"userId"`
	OwnerName    string `json:"userName"`
	Category     string `json:"type"`
	PlanName     string `json:"planName"`
	PolicyNumber string `json:"policyNumber,omitempty"`
	Premium      int64  `json:"premium"`
	Status       string `json:"status"`
	StartDate    int64  `json:"startDate"`
	ExpiryDate   int64  `json:"expiryDate"`
	CreatedAt    int64  `json:"createdAt"`
}

type claimRecord struct {
	PolicyID     string   `json:"policyId"`
	OwnerID      string   `json:"userId"`
	OwnerName    string   `json:"userName"`
	Amount       int64    `json:"amount"`
	Description  string   `json:"description"`
	Status       string   `json:"status"`
	EvidenceURLs []string `json:"evidenceUrls"`
	CreatedAt    int64    `json:"createdAt"`
}

func encodePolicy(p Policy) (map[string]any, error) {
	return toFields(policyRecord{
		OwnerID:      p.OwnerID,
		OwnerName:    p.OwnerName,
		Category:     string(p.Category),
		PlanName:     p.PlanName,
		PolicyNumber: p.PolicyNumber,
		Premium:      p.Premium,
		Status:       string(p.Status),
		StartDate:    p.StartDate.UnixMilli(),
		ExpiryDate:   p.ExpiryDate.UnixMilli(),
		CreatedAt:    p.CreatedAt.UnixMilli(),
	})
}

func decodePolicy(doc docstore.Document) (Policy, error) {
	var r policyRecord
	if err := fromFields(doc.Data, &r); err != nil {
		return Policy{}, fmt.Errorf("decode policy %s: %w", doc.ID, err)
	}
	return Policy{
		ID:           doc.ID,
		OwnerID:      r.OwnerID,
		OwnerName:    r.OwnerName,
		Category:     rating.Category(r.Category),
		PlanName:     r.PlanName,
		PolicyNumber: r.PolicyNumber,
		Premium:      r.Premium,
		Status:       PolicyStatus(r.Status),
		StartDate:    fromMillis(r.StartDate),
		ExpiryDate:   fromMillis(r.ExpiryDate),
		CreatedAt:    fromMillis(r.CreatedAt),
	}, nil
}

func encodeClaim(c Claim) (map[string]any, error) {
	urls := c.EvidenceURLs
	if urls == nil {
		urls = []string{}
	}
	return toFields(claimRecord{
		PolicyID:     c.PolicyID,
		OwnerID:      c.OwnerID,
		OwnerName:    c.OwnerName,
		Amount:       c.Amount,
		Description:  c.Description,
		Status:       string(c.Status),
		EvidenceURLs: urls,
		CreatedAt:    c.CreatedAt.UnixMilli(),
	})
}

func decodeClaim(doc docstore.Document) (Claim, error) {
	var r claimRecord
	if err := fromFields(doc.Data, &r); err != nil {
		return Claim{}, fmt.Errorf("decode claim %s: %w", doc.ID, err)
	}
	urls := r.EvidenceURLs
	if urls == nil {
		urls = []string{}
	}
	return Claim{
		ID:           doc.ID,
		PolicyID:     r.PolicyID,
		OwnerID:      r.OwnerID,
		OwnerName:    r.OwnerName,
		Amount:       r.Amount,
		Description:  r.Description,
		Status:       ClaimStatus(r.Status),
		EvidenceURLs: urls,
		CreatedAt:    fromMillis(r.CreatedAt),
	}, nil
}

func toFields(v any) (map[string]any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var fields map[string]any
	if err := dec.Decode(&fields); err != nil {
		return nil, err
	}
	return fields, nil
}

func fromFields(fields map[string]any, v any) error {
	raw, err := json.Marshal(fields)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, v)
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}
