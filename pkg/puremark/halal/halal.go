// Package halal classifies ingredients and products under halal rules.
//
// Checks run in a fixed order. A dispositive match returns at once; a
// provisional match adds a reason code and lets later checks run, and the
// accumulated signals are weighed at the end. Haram matches are never
// overridden by a certification claim.
package halal

import (
	"fmt"
	"strings"

	"github.com/cognicore/puremark/pkg/puremark/diet"
	"github.com/cognicore/puremark/pkg/puremark/internalerr"
)

// Status is the halal verdict of an ingredient or product.
type Status string

const (
	Confirmed   Status = "HALAL_CONFIRMED"
	Haram       Status = "HARAM"
	Mushbooh    Status = "MUSHBOOH"
	NotVerified Status = "NOT_HALAL_UNVERIFIED"
)

// Tier implements diet.Status.
func (s Status) Tier() diet.Tier {
	switch s {
	case Haram:
		return diet.TierFail
	case Mushbooh, NotVerified:
		return diet.TierVerify
	}
	return diet.TierPass
}

// Result is a halal classification.
type Result = diet.Result[Status]

// Verdict is a halal product verdict.
type Verdict = diet.ProductVerdict[Status]

// Default decides what an ingredient with no signal at all resolves to.
type Default string

const (
	// DefaultHalal treats absence of evidence as HALAL_CONFIRMED/MEDIUM.
	DefaultHalal Default = "halal"
	// DefaultMushbooh treats it as MUSHBOOH/LOW.
	DefaultMushbooh Default = "mushbooh"
)

// ParseDefault validates a configured default.
func ParseDefault(s string) (Default, error) {
	switch d := Default(strings.ToLower(strings.TrimSpace(s))); d {
	case "", DefaultHalal:
		return DefaultHalal, nil
	case DefaultMushbooh:
		return d, nil
	}
	return "", fmt.Errorf("%w: unknown halal default %q", internalerr.ErrInvalidConfig, s)
}

// Options tune the classifier.
type Options struct {
	// Strict reports MUSHBOOH as NOT_HALAL_UNVERIFIED.
	Strict bool
	// UnknownDefault applies when no rule produced any signal.
	UnknownDefault Default
}

// DefaultOptions are strict mode with the permissive unknown default.
func DefaultOptions() Options {
	return Options{Strict: true, UnknownDefault: DefaultHalal}
}

// Policy returns the aggregation policy. Outside strict mode doubtful
// products stay MUSHBOOH.
func Policy(strict bool) diet.Policy[Status] {
	p := diet.Policy[Status]{
		Fail:             Haram,
		Verify:           NotVerified,
		Pass:             Confirmed,
		FailReason:       "Contains explicitly haram ingredient(s).",
		VerifyReason:     "Contains ingredient(s) with unverified halal source or processing.",
		PassReason:       "All detected ingredients are verified halal at ingredient level.",
		VerifyConfidence: diet.Low,
		PassConfidence:   diet.Medium,
	}
	if !strict {
		p.Verify = Mushbooh
		p.VerifyReason = "Contains ingredient(s) of doubtful halal status."
	}
	return p
}

// Aggregate folds ingredient results into a product verdict.
func Aggregate(results []Result, strict bool) Verdict {
	return diet.Aggregate(results, Policy(strict))
}
