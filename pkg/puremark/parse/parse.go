// Package parse defines the boundary to the external ingredient parser: the
// service that turns an ingredient zone into structured ingredient records,
// translating them to English on the way.
package parse

import (
	"context"
	"fmt"
	"strings"

	"github.com/cognicore/puremark/pkg/puremark/diet"
	"github.com/cognicore/puremark/pkg/puremark/internalerr"
	"github.com/cognicore/puremark/pkg/puremark/text"
)

// Parser structures an ingredient zone.
type Parser interface {
	Parse(ctx context.Context, zone, languageHint string) (Result, error)
}

// Ingredient is one parsed ingredient record.
type Ingredient struct {
	Original   string `json:"original"`
	English    string `json:"english,omitempty"`
	Normalized string `json:"normalized,omitempty"`
}

// Result is the parser output.
type Result struct {
	DetectedLanguage string       `json:"detected_language"`
	Ingredients      []Ingredient `json:"ingredients"`
	Allergens        []string     `json:"allergens,omitempty"`
}

// Validate rejects results with no usable ingredient.
func (r Result) Validate() error {
	if len(r.Ingredients) == 0 {
		return fmt.Errorf("%w: parser returned no ingredients", internalerr.ErrInvalidInput)
	}
	for i, ing := range r.Ingredients {
		if strings.TrimSpace(ing.Original) == "" && strings.TrimSpace(ing.English) == "" && strings.TrimSpace(ing.Normalized) == "" {
			return fmt.Errorf("%w: ingredient %d is empty", internalerr.ErrInvalidInput, i)
		}
	}
	return nil
}

// DietIngredients converts the records for classification. The zone the
// records came from is kept as raw context so source markers in the
// untranslated label are still seen.
func (r Result) DietIngredients(zone string) []diet.Ingredient {
	out := make([]diet.Ingredient, 0, len(r.Ingredients))
	for _, ing := range r.Ingredients {
		out = append(out, ing.Diet(zone))
	}
	return out
}

// Diet converts one record. Normalized falls back to the English form, then
// to the original text for untranslated records.
func (ing Ingredient) Diet(rawContext string) diet.Ingredient {
	original := strings.TrimSpace(ing.Original)
	normalized := strings.TrimSpace(ing.Normalized)
	if normalized == "" {
		normalized = strings.TrimSpace(ing.English)
	}
	if normalized == "" {
		normalized = original
	}
	if original == "" {
		original = normalized
	}
	return diet.Ingredient{
		Original:   original,
		Normalized: text.Normalize(normalized),
		RawContext: rawContext,
	}
}
