// Package plant classifies ingredients under the vegan, vegetarian and
// pescetarian diets. These diets have no certification concept; the only
// source resolution is a "vegetable" or "plant" qualifier.
package plant

import (
	"fmt"
	"strings"

	"github.com/cognicore/puremark/pkg/puremark/diet"
	"github.com/cognicore/puremark/pkg/puremark/internalerr"
	"github.com/cognicore/puremark/pkg/puremark/kb"
	"github.com/cognicore/puremark/pkg/puremark/text"
)

// Status is the verdict of an ingredient or product.
type Status string

const (
	Compliant    Status = "COMPLIANT"
	NotCompliant Status = "NOT_COMPLIANT"
	Uncertain    Status = "UNCERTAIN"
)

// Tier implements diet.Status.
func (s Status) Tier() diet.Tier {
	switch s {
	case NotCompliant:
		return diet.TierFail
	case Uncertain:
		return diet.TierVerify
	}
	return diet.TierPass
}

// Result is a plant-diet classification.
type Result = diet.Result[Status]

// Verdict is a plant-diet product verdict.
type Verdict = diet.ProductVerdict[Status]

// Classifier applies the term lists of one knowledge base.
type Classifier struct {
	lists kb.Diets
}

// New builds a classifier.
func New(k *kb.KnowledgeBase) *Classifier {
	return &Classifier{lists: k.Diets}
}

// Classify dispatches to the rule set of d.
func (c *Classifier) Classify(ing diet.Ingredient, d diet.Diet) (Result, error) {
	switch d {
	case diet.Vegan:
		return c.Vegan(ing), nil
	case diet.Vegetarian:
		return c.Vegetarian(ing), nil
	case diet.Pescetarian:
		return c.Pescetarian(ing), nil
	}
	return Result{}, fmt.Errorf("%w: %s is not a plant diet", internalerr.ErrUnknownDiet, d)
}

func result(ing diet.Ingredient, s Status, conf diet.Confidence, code, evidence string) Result {
	var tr diet.Trail
	tr.Add(code, evidence)
	return diet.NewResult(ing, s, conf, &tr)
}

// Vegan forbids every animal product, dairy, egg and honey included.
func (c *Classifier) Vegan(ing diet.Ingredient) Result {
	l := c.lists
	t := ing.Text()

	if text.AnyMatch(t, l.VeganSafeVersions) {
		return result(ing, Compliant, diet.High, "explicitly_vegan", "Explicitly vegan/plant-based ingredient")
	}
	checks := []struct {
		terms    []string
		code     string
		evidence string
	}{
		{l.Meat, "contains_meat", "Contains meat - not vegan"},
		{l.FishSeafood, "contains_seafood", "Contains fish/seafood - not vegan"},
		{l.Dairy, "contains_dairy", "Contains dairy - not vegan"},
		{l.Egg, "contains_egg", "Contains egg - not vegan"},
		{l.BeeProducts, "contains_bee_product", "Contains honey/bee product - not vegan"},
		{l.AnimalDerivedAdditives, "animal_derived_additive", "Contains animal-derived additive"},
	}
	for _, ch := range checks {
		haystack := t
		if ch.code == "contains_dairy" {
			haystack = withoutAnalogues(t, l.PlantAnalogues)
		}
		if text.AnyMatch(haystack, ch.terms) {
			return result(ing, NotCompliant, diet.High, ch.code, ch.evidence)
		}
	}
	if text.AnyMatch(t, l.PossiblyAnimalDerived) {
		return result(ing, Uncertain, diet.Low, "possibly_animal_derived", "May be animal-derived - source unclear")
	}
	return result(ing, Compliant, diet.High, "plant_based", "Plant-based ingredient")
}

// Vegetarian forbids meat, fish and slaughter by-products but allows
// dairy, egg and honey.
func (c *Classifier) Vegetarian(ing diet.Ingredient) Result {
	l := c.lists
	t := ing.Text()

	switch {
	case text.AnyMatch(t, l.VegetarianExplicit):
		return result(ing, Compliant, diet.High, "explicitly_vegetarian", "Explicitly vegetarian/plant-based")
	case text.AnyMatch(t, l.Meat):
		return result(ing, NotCompliant, diet.High, "contains_meat", "Contains meat - not vegetarian")
	case text.AnyMatch(t, l.FishSeafood):
		return result(ing, NotCompliant, diet.High, "contains_seafood", "Contains fish/seafood - not vegetarian")
	case text.AnyMatch(t, l.VegetarianStrictAdditives):
		return result(ing, NotCompliant, diet.High, "animal_derived", "Contains animal-derived ingredient")
	case text.AnyMatch(t, l.VegetarianUncertain):
		if text.AnyMatch(t, l.PlantQualifiers) {
			return result(ing, Compliant, diet.High, "plant_derived", "Plant-derived source confirmed")
		}
		return result(ing, Uncertain, diet.Low, "possibly_animal_derived", "May be animal-derived - source unclear")
	}
	return result(ing, Compliant, diet.High, "vegetarian_compliant", "Vegetarian-compliant ingredient")
}

// Pescetarian forbids land-animal meat and its by-products only.
func (c *Classifier) Pescetarian(ing diet.Ingredient) Result {
	l := c.lists
	t := ing.Text()

	switch {
	case text.AnyMatch(t, l.Meat):
		return result(ing, NotCompliant, diet.High, "contains_meat", "Contains meat - not pescetarian")
	case text.AnyMatch(t, l.FishSeafood):
		return result(ing, Compliant, diet.High, "fish_allowed", "Fish/seafood - allowed for pescetarians")
	case text.AnyMatch(t, l.PescetarianMeatDerived):
		return result(ing, NotCompliant, diet.High, "meat_derived", "Derived from land animal - not pescetarian")
	case text.AnyMatch(t, l.GelatinTerms):
		switch {
		case text.AnyMatch(t, l.FishGelatinTerms):
			return result(ing, Compliant, diet.High, "fish_gelatin", "Fish gelatin - allowed for pescetarians")
		case text.AnyMatch(t, l.MeatGelatinQualifiers):
			return result(ing, NotCompliant, diet.High, "meat_gelatin", "Meat-derived gelatin - not pescetarian")
		}
		return result(ing, Uncertain, diet.Low, "gelatin_source_unknown", "Gelatin source unknown - may be meat-derived")
	}
	return result(ing, Compliant, diet.High, "pescetarian_compliant", "Pescetarian-compliant ingredient")
}

// withoutAnalogues blanks plant analogues such as "cocoa butter" or
// "coconut milk" so their dairy words do not match.
func withoutAnalogues(t string, analogues []string) string {
	for _, a := range analogues {
		a = text.Normalize(a)
		if a == "" {
			continue
		}
		t = strings.ReplaceAll(t, a, " ")
	}
	return t
}

// Policy returns the aggregation policy for a plant diet.
func Policy(d diet.Diet) diet.Policy[Status] {
	return diet.Policy[Status]{
		Fail:             NotCompliant,
		Verify:           Uncertain,
		Pass:             Compliant,
		FailReason:       fmt.Sprintf("Contains non-%s ingredient(s).", d),
		VerifyReason:     fmt.Sprintf("Contains ingredient(s) with uncertain %s status.", d),
		PassReason:       fmt.Sprintf("All ingredients appear %s-compliant.", d),
		VerifyConfidence: diet.Low,
		PassConfidence:   diet.High,
	}
}

// Aggregate folds ingredient results into a product verdict.
func Aggregate(results []Result, d diet.Diet) Verdict {
	return diet.Aggregate(results, Policy(d))
}
