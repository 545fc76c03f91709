// Package zones splits raw label text into header, ingredient-list and
// allergen-advisory zones before any ingredient parsing happens.
package zones

import "strings"

// Status tells the caller whether the ingredient zone can be trusted.
type Status string

const (
	StatusOK            Status = "OK"
	StatusUnverified    Status = "UNVERIFIED"
	StatusNoIngredients Status = "NO_INGREDIENTS"
)

// LanguageUnknown is reported when no language marker was found.
const LanguageUnknown = "unknown"

// Span is a half-open byte range [Start, End) of the input text.
type Span struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Empty reports whether the span covers no text.
func (s Span) Empty() bool { return s.End <= s.Start }

// Of returns the spanned slice of raw.
func (s Span) Of(raw string) string {
	if s.Empty() || s.End > len(raw) {
		return ""
	}
	return raw[s.Start:s.End]
}

// Result is the segmentation of one label.
//
// HeaderZone and AdvisoryZone are the trimmed text of their spans.
// IngredientZone is the cleaned ingredient text, which may be shorter than
// its span because non-ingredient lines were dropped.
type Result struct {
	HeaderZone     string   `json:"header_zone"`
	IngredientZone string   `json:"ingredient_zone"`
	AdvisoryZone   string   `json:"allergen_advisory_zone"`
	Header         Span     `json:"header_span"`
	Ingredients    Span     `json:"ingredient_span"`
	Advisory       Span     `json:"advisory_span"`
	Language       string   `json:"detected_language"`
	Status         Status   `json:"parse_status"`
	Notes          []string `json:"notes,omitempty"`
}

// DefaultAcceptChars is the shortest unverified zone worth parsing.
const DefaultAcceptChars = 10

// Accept reports whether the ingredient zone should be handed to the
// ingredient parser. Unverified zones need at least minChars characters.
func (r Result) Accept(minChars int) bool {
	zone := strings.TrimSpace(r.IngredientZone)
	switch r.Status {
	case StatusOK:
		return zone != ""
	case StatusUnverified:
		if minChars <= 0 {
			minChars = DefaultAcceptChars
		}
		return len([]rune(zone)) >= minChars
	}
	return false
}
