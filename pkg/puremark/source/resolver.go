// Package source works out which precursor an ambiguous ingredient was made
// from: sunflower or soy lecithin, fish or porcine gelatin, plant or animal
// glycerin.
//
// Upstream translation sometimes rewrites regional names ("lécithine de
// tournesol" comes back as "soy lecithin"), so candidates are tried in a
// fixed priority order and the first one naming a specific source wins.
package source

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/cognicore/puremark/pkg/puremark/diet"
	"github.com/cognicore/puremark/pkg/puremark/kb"
	"github.com/cognicore/puremark/pkg/puremark/text"
)

// Candidate labels used by ResolveIngredient.
const (
	FromRaw        = "raw"
	FromOriginal   = "original"
	FromNormalized = "normalized"
)

// Candidate is one text to search, labelled for the explanation.
type Candidate struct {
	Label string
	Text  string
}

// Resolution is the outcome of resolving one family.
type Resolution struct {
	Family kb.Family `json:"family"`
	// Present reports whether the family was mentioned at all.
	Present bool `json:"present"`
	// Source is a registry source name, kb.SourceUnspecified, or empty
	// when the family is absent.
	Source      string `json:"source,omitempty"`
	Explanation string `json:"explanation,omitempty"`
	// Candidate is the label of the candidate that named the source.
	Candidate string `json:"candidate,omitempty"`
}

// Specific reports whether a named source was found.
func (r Resolution) Specific() bool {
	return r.Present && r.Source != "" && r.Source != kb.SourceUnspecified
}

type markerSet struct {
	generic []string
	sources []kb.SourceTerms
}

// Resolver resolves every source-dependent family. It is immutable and safe
// for concurrent use.
type Resolver struct {
	lecithin kb.LecithinPatterns
	families map[kb.Family]markerSet
}

// New indexes the animal registry terms and the multilingual markers of k.
func New(k *kb.KnowledgeBase) *Resolver {
	r := &Resolver{
		lecithin: k.Sources.Lecithin,
		families: make(map[kb.Family]markerSet),
	}
	for _, f := range kb.AnimalFamilies() {
		rule, _ := k.Animal.Family(f)
		extra := k.Sources.Families[f]

		ms := markerSet{generic: foldAll(rule.GenericTerms, extra.Generic)}
		index := make(map[string]int)
		for _, s := range rule.Sources {
			index[s.Source] = len(ms.sources)
			ms.sources = append(ms.sources, kb.SourceTerms{Source: s.Source, Terms: foldAll(s.Terms)})
		}
		for _, s := range extra.Sources {
			if i, ok := index[s.Source]; ok {
				ms.sources[i].Terms = append(ms.sources[i].Terms, foldAll(s.Terms)...)
				continue
			}
			index[s.Source] = len(ms.sources)
			ms.sources = append(ms.sources, kb.SourceTerms{Source: s.Source, Terms: foldAll(s.Terms)})
		}
		if len(ms.generic) > 0 {
			r.families[f] = ms
		}
	}
	return r
}

// Supports reports whether f has markers to resolve against.
func (r *Resolver) Supports(f kb.Family) bool {
	if f == kb.FamilyLecithin {
		return len(r.lecithin.Generic) > 0
	}
	_, ok := r.families[f]
	return ok
}

// Present reports whether s mentions the family.
func (r *Resolver) Present(f kb.Family, s string) bool {
	return r.present(f, text.Fold(s))
}

// Resolve tries candidates in order. The first candidate that mentions the
// family together with a specific source wins; when candidates only carry
// the generic marker the source is unspecified.
func (r *Resolver) Resolve(f kb.Family, candidates ...Candidate) Resolution {
	res := Resolution{Family: f}
	for _, c := range candidates {
		folded := text.Fold(c.Text)
		if folded == "" || !r.present(f, folded) {
			continue
		}
		res.Present = true
		if src, ok := r.source(f, folded); ok {
			res.Source = src
			res.Candidate = c.Label
			res.Explanation = explain(f, src) + fromSuffix(c.Label)
			return res
		}
	}
	if res.Present {
		res.Source = kb.SourceUnspecified
		res.Explanation = unspecified(f)
	}
	return res
}

// ResolveIngredient checks that the ingredient itself mentions the family,
// then resolves the source over its original and normalized text. Lecithin
// first consults the raw label, since translation can rewrite its source;
// other families only look at the ingredient's own text.
func (r *Resolver) ResolveIngredient(f kb.Family, ing diet.Ingredient) Resolution {
	if !r.Present(f, ing.Original) && !r.Present(f, ing.Normalized) {
		return Resolution{Family: f}
	}
	var candidates []Candidate
	if f == kb.FamilyLecithin {
		candidates = append(candidates, Candidate{Label: FromRaw, Text: r.rawLecithin(ing.RawContext)})
	}
	candidates = append(candidates,
		Candidate{Label: FromOriginal, Text: ing.Original},
		Candidate{Label: FromNormalized, Text: ing.Normalized},
	)
	return r.Resolve(f, candidates...)
}

// rawLecithin returns the raw label segment naming the lecithin source. A
// label that names more than one lecithin source yields nothing, leaving
// each ingredient to its own text.
func (r *Resolver) rawLecithin(raw string) string {
	var (
		found string
		seg   string
	)
	for _, part := range strings.FieldsFunc(raw, func(c rune) bool { return c == ',' || c == ';' }) {
		folded := text.Fold(part)
		if !r.present(kb.FamilyLecithin, folded) {
			continue
		}
		src, ok := r.source(kb.FamilyLecithin, folded)
		if !ok {
			continue
		}
		if found != "" && found != src {
			return ""
		}
		found, seg = src, part
	}
	return seg
}

func (r *Resolver) present(f kb.Family, folded string) bool {
	if f == kb.FamilyLecithin {
		if anyRegexp(r.lecithin.Generic, folded) {
			return true
		}
		for _, s := range r.lecithin.Sources {
			if anyRegexp(s.Patterns, folded) {
				return true
			}
		}
		return false
	}
	ms, ok := r.families[f]
	return ok && anyFolded(folded, ms.generic)
}

func (r *Resolver) source(f kb.Family, folded string) (string, bool) {
	if f == kb.FamilyLecithin {
		for _, s := range r.lecithin.Sources {
			if anyRegexp(s.Patterns, folded) {
				return s.Source, true
			}
		}
		return "", false
	}
	for _, s := range r.families[f].sources {
		if anyFolded(folded, s.Terms) {
			return s.Source, true
		}
	}
	return "", false
}

var lecithinNames = map[string]string{
	"sunflower": "Sunflower lecithin detected",
	"soy":       "Soy lecithin detected",
	"rapeseed":  "Rapeseed/canola lecithin detected",
	"egg":       "Egg lecithin detected",
}

func explain(f kb.Family, src string) string {
	if f == kb.FamilyLecithin {
		if s, ok := lecithinNames[src]; ok {
			return s
		}
	}
	return fmt.Sprintf("%s source %q detected", familyName(f), src)
}

func unspecified(f kb.Family) string {
	return familyName(f) + " with unspecified source"
}

func fromSuffix(label string) string {
	if label == "" {
		return ""
	}
	return " (from " + label + " text)"
}

func familyName(f kb.Family) string {
	s := strings.ReplaceAll(string(f), "_", " ")
	return strings.ToUpper(s[:1]) + s[1:]
}

func anyRegexp(res []*regexp.Regexp, s string) bool {
	for _, re := range res {
		if re.MatchString(s) {
			return true
		}
	}
	return false
}

// anyFolded matches pre-folded phrases against a folded haystack.
func anyFolded(folded string, phrases []string) bool {
	for _, p := range phrases {
		if text.Matches(folded, p) {
			return true
		}
	}
	return false
}

func foldAll(lists ...[]string) []string {
	var out []string
	for _, l := range lists {
		for _, t := range l {
			out = append(out, text.Fold(t))
		}
	}
	return text.Dedupe(out)
}
