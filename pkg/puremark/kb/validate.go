package kb

import (
	"errors"
	"fmt"

	"github.com/cognicore/puremark/pkg/puremark/internalerr"
)

// Validate checks that every closed enumeration is fully covered and every
// status is known. It returns all problems joined, each wrapping
// internalerr.ErrInvalidConfig.
func (k *KnowledgeBase) Validate() error {
	var errs []error
	bad := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: %s", internalerr.ErrInvalidConfig, fmt.Sprintf(format, args...)))
	}

	if k.ENumbers.Len() == 0 {
		bad("e-number registry is empty")
	}

	seenCat := make(map[AlcoholCategory]bool)
	for _, r := range k.Alcohol {
		seenCat[r.Category] = true
		if len(r.Terms) == 0 {
			bad("alcohol category %q has no terms", r.Category)
		}
	}
	for _, c := range AlcoholCategories() {
		if !seenCat[c] {
			bad("alcohol category %q missing", c)
		}
	}
	if len(seenCat) != len(AlcoholCategories()) {
		bad("alcohol registry has unknown categories")
	}

	for _, r := range k.Animal.AlwaysHaram {
		if r.Status != StatusHaram {
			bad("always-haram category %q has status %q", r.Category, r.Status)
		}
	}
	for _, f := range AnimalFamilies() {
		rule, ok := k.Animal.Family(f)
		if !ok {
			bad("animal family %q missing", f)
			continue
		}
		if len(rule.GenericTerms) == 0 {
			bad("animal family %q has no generic terms", f)
		}
		if !rule.DefaultStatus.Valid() {
			bad("animal family %q has default status %q", f, rule.DefaultStatus)
		}
		for _, s := range rule.Sources {
			if !s.Status.Valid() {
				bad("animal family %q source %q has status %q", f, s.Source, s.Status)
			}
		}
	}
	for _, r := range k.Animal.SourceDependent {
		if !r.Family.Valid() || r.Family == FamilyLecithin {
			bad("unknown animal family %q", r.Family)
		}
	}
	for _, q := range []QualifiedRule{k.Animal.ProcessedDairy, k.Animal.StarterCultures, k.Animal.GelatinProducts} {
		if !q.Status.Valid() {
			bad("animal rule %q has status %q", q.ReasonCode, q.Status)
		}
	}
	for _, r := range k.Animal.Other {
		if !r.Status.Valid() {
			bad("animal category %q has status %q", r.Category, r.Status)
		}
	}

	for _, scheme := range []Scheme{SchemeHalal, SchemeKosher} {
		cs, ok := k.Certification[scheme]
		if !ok {
			bad("certification scheme %q missing", scheme)
			continue
		}
		for _, c := range cs.Certifiers {
			if c.Strength.Rank() == 0 {
				bad("certifier %q has strength %q", c.Code, c.Strength)
			}
		}
	}

	if len(k.Sources.Lecithin.Generic) == 0 {
		bad("lecithin generic patterns missing")
	}
	for f := range k.Sources.Families {
		if !f.Valid() {
			bad("unknown source family %q", f)
		}
	}

	if len(k.Allergens.Entries) == 0 {
		bad("allergen taxonomy is empty")
	}
	for alias, key := range k.Allergens.Aliases {
		if _, ok := k.Allergens.Lookup(key); !ok {
			bad("allergen alias %q points at unknown key %q", alias, key)
		}
	}
	for source, keys := range k.Allergens.Lecithin {
		for _, key := range keys {
			if _, ok := k.Allergens.Lookup(key); !ok {
				bad("lecithin source %q points at unknown allergen %q", source, key)
			}
		}
	}

	if len(k.Zones.IngredientHeaders) == 0 || len(k.Zones.AdvisoryHeaders) == 0 {
		bad("segmentation headers missing")
	}

	return errors.Join(errs...)
}
