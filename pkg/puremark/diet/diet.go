// Package diet holds the types shared by every diet classifier: the
// ingredient value, per-ingredient results, and product verdicts.
package diet

import (
	"fmt"
	"strings"

	"github.com/cognicore/puremark/pkg/puremark/internalerr"
	"github.com/cognicore/puremark/pkg/puremark/text"
)

// Diet names a supported dietary rule set.
type Diet string

const (
	Halal       Diet = "halal"
	Kosher      Diet = "kosher"
	Vegan       Diet = "vegan"
	Vegetarian  Diet = "vegetarian"
	Pescetarian Diet = "pescetarian"
)

// All lists the supported diets.
func All() []Diet {
	return []Diet{Halal, Kosher, Vegan, Vegetarian, Pescetarian}
}

// Parse maps a user-supplied name onto a Diet.
func Parse(name string) (Diet, error) {
	d := Diet(strings.ToLower(strings.TrimSpace(name)))
	for _, known := range All() {
		if d == known {
			return d, nil
		}
	}
	return "", fmt.Errorf("%w: %q", internalerr.ErrUnknownDiet, name)
}

// ParseList parses several names, dropping repeats.
func ParseList(names []string) ([]Diet, error) {
	var out []Diet
	seen := make(map[Diet]bool, len(names))
	for _, n := range names {
		d, err := Parse(n)
		if err != nil {
			return nil, err
		}
		if seen[d] {
			continue
		}
		seen[d] = true
		out = append(out, d)
	}
	return out, nil
}

// Confidence grades how sure a result is.
type Confidence string

const (
	High   Confidence = "HIGH"
	Medium Confidence = "MEDIUM"
	Low    Confidence = "LOW"
)

// Ingredient is one parsed food component. It is a value and is never
// modified after construction.
type Ingredient struct {
	// Original is the text as printed on the label, possibly not English.
	Original string `json:"original"`
	// Normalized is the canonical English form produced upstream.
	Normalized string `json:"normalized,omitempty"`
	// RawContext is the ingredient zone the ingredient came from. Only
	// lecithin source resolution reads it.
	RawContext string `json:"-"`
}

// NewIngredient builds an ingredient from label text alone.
func NewIngredient(original string) Ingredient {
	return Ingredient{Original: original, Normalized: text.Normalize(original)}
}

// Text returns the normalized text the rule lists are matched against.
func (i Ingredient) Text() string {
	if n := text.Normalize(i.Normalized); n != "" {
		return n
	}
	return text.Normalize(i.Original)
}

// Label returns the text reported back to users.
func (i Ingredient) Label() string {
	if strings.TrimSpace(i.Original) != "" {
		return i.Original
	}
	return i.Normalized
}

// Tier is the aggregation bucket of a status.
type Tier int

const (
	TierPass Tier = iota
	TierVerify
	TierFail
)

func (t Tier) String() string {
	switch t {
	case TierVerify:
		return "verify"
	case TierFail:
		return "fail"
	}
	return "pass"
}

// MarshalText implements encoding.TextMarshaler.
func (t Tier) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *Tier) UnmarshalText(b []byte) error {
	switch string(b) {
	case "pass":
		*t = TierPass
	case "verify":
		*t = TierVerify
	case "fail":
		*t = TierFail
	default:
		return fmt.Errorf("%w: tier %q", internalerr.ErrInvalidInput, b)
	}
	return nil
}

// Status is implemented by each diet's closed status enum.
type Status interface {
	~string
	Tier() Tier
}
