// Package allergen finds allergens in ingredients and in "may contain"
// advisory statements.
//
// Lecithin is handled before generic term matching and never falls through
// to it: sunflower lecithin does not carry soy, and lecithin of unknown
// source is reported as possible soy.
package allergen

import (
	"sort"
	"strings"

	"github.com/cognicore/puremark/pkg/puremark/diet"
	"github.com/cognicore/puremark/pkg/puremark/kb"
	"github.com/cognicore/puremark/pkg/puremark/source"
	"github.com/cognicore/puremark/pkg/puremark/text"
)

// PossibleSoy is reported by Detect for lecithin of unknown source.
const PossibleSoy = "Soy (possible)"

// Match is the detailed outcome of an allergy check.
type Match struct {
	IsAllergen   bool   `json:"is_allergen"`
	AllergenType string `json:"allergen_type,omitempty"`
	// Confirmed is false when the match is only possible, as for lecithin
	// of unknown source.
	Confirmed   bool   `json:"confirmed"`
	Explanation string `json:"explanation,omitempty"`
}

// Detector checks ingredients against the allergen taxonomy.
type Detector struct {
	allergens kb.Allergens
	sources   *source.Resolver
	headers   []string
}

// New builds a detector.
func New(k *kb.KnowledgeBase) *Detector {
	headers := make([]string, 0, len(k.Zones.AdvisoryHeaders))
	for _, h := range k.Zones.AdvisoryHeaders {
		headers = append(headers, text.Fold(h))
	}
	// Longest first so "may contain traces of" is removed before "may contain".
	sort.SliceStable(headers, func(i, j int) bool { return len(headers[i]) > len(headers[j]) })
	return &Detector{allergens: k.Allergens, sources: source.New(k), headers: headers}
}

// CheckAllergy reports whether s contains any of the user's allergies.
func (d *Detector) CheckAllergy(s string, allergies []string) bool {
	return d.CheckAllergyDetailed(s, allergies).IsAllergen
}

// CheckAllergyDetailed is CheckAllergy with an explanation.
func (d *Detector) CheckAllergyDetailed(s string, allergies []string) Match {
	return d.CheckIngredient(diet.NewIngredient(s), allergies)
}

// CheckIngredient checks a parsed ingredient, resolving lecithin over its
// raw context, original and normalized text.
func (d *Detector) CheckIngredient(ing diet.Ingredient, allergies []string) Match {
	if len(allergies) == 0 {
		return Match{}
	}

	if res := d.sources.ResolveIngredient(kb.FamilyLecithin, ing); res.Present {
		return d.lecithin(res, allergies)
	}

	for _, a := range allergies {
		terms := []string{a}
		if key, ok := d.allergens.Canonical(a); ok {
			entry, _ := d.allergens.Lookup(key)
			terms = entry.Terms
		}
		if d.matches(ing, terms) {
			return Match{IsAllergen: true, AllergenType: a, Confirmed: true, Explanation: "Contains " + a}
		}
	}
	return Match{}
}

func (d *Detector) lecithin(res source.Resolution, allergies []string) Match {
	if !res.Specific() {
		for _, a := range allergies {
			if key, _ := d.allergens.Canonical(a); key == "soy" {
				return Match{IsAllergen: true, AllergenType: a, Explanation: "Lecithin source unspecified - may contain soy"}
			}
		}
		return Match{Explanation: res.Explanation + " - no allergen match"}
	}

	carried := d.allergens.Lecithin[res.Source]
	for _, a := range allergies {
		key, _ := d.allergens.Canonical(a)
		for _, c := range carried {
			if c == key {
				return Match{
					IsAllergen:   true,
					AllergenType: a,
					Confirmed:    true,
					Explanation:  capitalize(res.Source) + " lecithin contains " + a,
				}
			}
		}
	}
	return Match{Explanation: res.Explanation + " - no allergen match"}
}

// Detect lists the display names of the allergens in an ingredient.
func (d *Detector) Detect(ing diet.Ingredient) []string {
	if res := d.sources.ResolveIngredient(kb.FamilyLecithin, ing); res.Present {
		if !res.Specific() {
			return []string{PossibleSoy}
		}
		var out []string
		for _, key := range d.allergens.Lecithin[res.Source] {
			if e, ok := d.allergens.Lookup(key); ok {
				out = append(out, e.Display)
			}
		}
		return out
	}

	var out []string
	for _, e := range d.allergens.Entries {
		if d.matches(ing, e.Terms) {
			out = append(out, e.Display)
		}
	}
	return out
}

func (d *Detector) matches(ing diet.Ingredient, terms []string) bool {
	return text.AnyMatchFolded(ing.Original, terms) || text.AnyMatchFolded(ing.Normalized, terms)
}

// ExtractFromAdvisory returns the allergen names in a "may contain"
// statement, sorted and without repeats. Headers such as "puede contener"
// are removed first so their words do not count.
func (d *Detector) ExtractFromAdvisory(zone string) []string {
	folded := text.Fold(zone)
	if folded == "" {
		return nil
	}
	for _, h := range d.headers {
		if h != "" {
			folded = strings.ReplaceAll(folded, h, " ")
		}
	}

	seen := make(map[string]struct{})
	for _, t := range d.allergens.Advisory {
		if text.MatchesFolded(folded, t.Term) {
			seen[t.Allergen] = struct{}{}
		}
	}
	return diet.SortedCodes(seen)
}

// AdvisoryLabel marks an advisory allergen so it is not mistaken for a
// confirmed one.
func AdvisoryLabel(name string) string {
	return name + " (may contain)"
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
