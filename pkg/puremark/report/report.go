// Package report holds the outcome of analyzing one product scan.
package report

import (
	"crypto/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/cognicore/puremark/pkg/puremark/diet"
	"github.com/cognicore/puremark/pkg/puremark/zones"
)

// Outcome says whether a scan was analyzed.
type Outcome string

const (
	OutcomeAnalyzed Outcome = "ANALYZED"
	OutcomeRejected Outcome = "REJECTED"
)

// AllergyHit is a user allergy found in one ingredient.
type AllergyHit struct {
	Ingredient  string `json:"ingredient"`
	Allergy     string `json:"allergy"`
	Confirmed   bool   `json:"confirmed"`
	Explanation string `json:"explanation"`
}

// Report is the full, explainable result of one scan.
type Report struct {
	ID        string    `json:"id"`
	ScanID    string    `json:"scan_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	KBVersion string    `json:"kb_version"`

	Outcome      Outcome `json:"outcome"`
	RejectReason string  `json:"reject_reason,omitempty"`

	Zones            *zones.Result         `json:"zones,omitempty"`
	DetectedLanguage string                `json:"detected_language,omitempty"`
	Ingredients      []diet.Ingredient     `json:"ingredients"`
	Classifications  []diet.Classification `json:"classifications"`
	Verdicts         []diet.Verdict        `json:"verdicts"`

	// Allergens are display names found in the ingredients themselves.
	Allergens []string `json:"allergens"`
	// AdvisoryAllergens come from "may contain" statements and are
	// labelled as such.
	AdvisoryAllergens []string     `json:"advisory_allergens"`
	UserAllergies     []AllergyHit `json:"user_allergies,omitempty"`
}

// Rejected reports whether the scan was refused before classification.
func (r Report) Rejected() bool { return r.Outcome == OutcomeRejected }

// Verdict returns the verdict for one diet.
func (r Report) Verdict(d diet.Diet) (diet.Verdict, bool) {
	for _, v := range r.Verdicts {
		if v.Diet == d {
			return v, true
		}
	}
	return diet.Verdict{}, false
}

// Builder stamps reports with time-ordered IDs.
type Builder struct {
	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
	now     func() time.Time
}

// NewBuilder creates a report builder.
func NewBuilder() *Builder {
	return &Builder{
		entropy: ulid.Monotonic(rand.Reader, 0),
		now:     time.Now,
	}
}

// New starts a report for a scan. Slices are empty, not nil, so the JSON
// form always carries them.
func (b *Builder) New(scanID, kbVersion string) Report {
	b.mu.Lock()
	now := b.now().UTC()
	id := ulid.MustNew(ulid.Timestamp(now), b.entropy).String()
	b.mu.Unlock()

	return Report{
		ID:                id,
		ScanID:            scanID,
		CreatedAt:         now,
		KBVersion:         kbVersion,
		Outcome:           OutcomeAnalyzed,
		Ingredients:       []diet.Ingredient{},
		Classifications:   []diet.Classification{},
		Verdicts:          []diet.Verdict{},
		Allergens:         []string{},
		AdvisoryAllergens: []string{},
	}
}

// Reject marks a report as refused.
func Reject(r Report, reason string) Report {
	r.Outcome = OutcomeRejected
	r.RejectReason = reason
	return r
}
