// Package model defines the core types shared across the scrape pipeline.
package model

import "time"

// CompanyRecord is a single moving company as known to the pipeline.
// Name is the natural dedup key (case-sensitive exact match) and is the
// only required field; everything else is best-effort extraction output.
type CompanyRecord struct {
	Name            string    `json:"name"`
	Website         string    `json:"website,omitempty"`
	Phone           string    `json:"phone,omitempty"`
	Headquarters    string    `json:"headquarters,omitempty"`
	LocationsServed []string  `json:"locations_served,omitempty"`
	Rating          *float64  `json:"rating,omitempty"`
	Services        []string  `json:"services,omitempty"`
	YearsInBusiness *int      `json:"years_in_business,omitempty"`
	Description     string    `json:"description,omitempty"`
	Source          string    `json:"source"`
	LastUpdated     time.Time `json:"last_updated"`
}

// Valid reports whether the record may be persisted. Ratings outside
// [0, 5] are rejected rather than clamped.
func (r CompanyRecord) Valid() bool {
	if r.Name == "" {
		return false
	}
	if r.Rating != nil && (*r.Rating < 0 || *r.Rating > 5) {
		return false
	}
	if r.YearsInBusiness != nil && *r.YearsInBusiness < 0 {
		return false
	}
	return true
}

// CandidateBatch is the unvalidated output of one extractor run, in
// extraction order, not yet reconciled against the persisted set.
type CandidateBatch []CompanyRecord

// Sanitize drops candidates with no name and clears out-of-range optional
// fields, returning the survivors in their original order.
func (b CandidateBatch) Sanitize() CandidateBatch {
	out := make(CandidateBatch, 0, len(b))
	for _, c := range b {
		if c.Name == "" {
			continue
		}
		if c.Rating != nil && (*c.Rating < 0 || *c.Rating > 5) {
			c.Rating = nil
		}
		if c.YearsInBusiness != nil && *c.YearsInBusiness < 0 {
			c.YearsInBusiness = nil
		}
		out = append(out, c)
	}
	return out
}
