// Package kosher classifies ingredients and products under kosher rules.
package kosher

import (
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/cognicore/puremark/pkg/puremark/certification"
	"github.com/cognicore/puremark/pkg/puremark/diet"
	"github.com/cognicore/puremark/pkg/puremark/kb"
	"github.com/cognicore/puremark/pkg/puremark/text"
)

// Status is the kosher verdict of an ingredient or product.
type Status string

const (
	Confirmed             Status = "KOSHER_CONFIRMED"
	NotKosher             Status = "NOT_KOSHER"
	RequiresCertification Status = "REQUIRES_CERTIFICATION"
)

// Tier implements diet.Status.
func (s Status) Tier() diet.Tier {
	switch s {
	case NotKosher:
		return diet.TierFail
	case RequiresCertification:
		return diet.TierVerify
	}
	return diet.TierPass
}

// Result is a kosher classification.
type Result = diet.Result[Status]

// Verdict is a kosher product verdict.
type Verdict = diet.ProductVerdict[Status]

// title capitalizes a family name. A Caser is not safe for concurrent use.
func title(s string) string {
	return cases.Title(language.English).String(s)
}

// Classifier applies the kosher rules of one knowledge base.
type Classifier struct {
	rules  kb.Kosher
	plants kb.Plants
	certs  *certification.Detector
}

// New builds a classifier.
func New(k *kb.KnowledgeBase) *Classifier {
	return &Classifier{rules: k.Kosher, plants: k.Plants, certs: certification.New(k)}
}

// Classify evaluates one ingredient. claim is a product-level kosher
// certification signal.
func (c *Classifier) Classify(ing diet.Ingredient, claim certification.Signal) Result {
	var tr diet.Trail
	status, conf := c.evaluate(ing, claim, &tr)
	return diet.NewResult(ing, status, conf, &tr)
}

func (c *Classifier) evaluate(ing diet.Ingredient, claim certification.Signal, tr *diet.Trail) (Status, diet.Confidence) {
	t := ing.Text()
	cert := certification.Max(c.certs.DetectAll(kb.SchemeKosher, ing.Original, ing.Normalized), claim).Strong()

	dispositive := []struct {
		terms    []string
		code     string
		evidence string
	}{
		{c.rules.ForbiddenLandAnimals, "forbidden_land_animal", "Contains forbidden land animal (non-kosher species)"},
		{c.rules.ForbiddenSeafood, "forbidden_seafood", "Contains forbidden seafood (no fins/scales)"},
		{c.rules.InsectDerived, "insect_derived", "Contains insect-derived ingredient"},
		{c.rules.BloodProducts, "blood_product", "Contains blood product"},
	}
	for _, d := range dispositive {
		if text.AnyMatch(t, d.terms) {
			tr.Add(d.code, d.evidence)
			return NotKosher, diet.High
		}
	}

	if text.AnyMatch(t, c.rules.GrapeProducts) {
		if !cert {
			tr.Add("grape_product_requires_supervision", "Grape/wine product requires kosher supervision")
			return RequiresCertification, diet.Medium
		}
		tr.Add("grape_product_certified", "Grape product with kosher certification")
	}

	if text.AnyMatch(t, c.rules.MeatDairyMix) {
		tr.Add(codeMeatDairy, "Contains meat and dairy combination")
		return NotKosher, diet.High
	}

	plantSafe := text.AnyMatch(t, c.plants.KosherSafe)
	for _, f := range c.rules.SourceDependent {
		if !text.AnyMatch(t, f.Terms) {
			continue
		}
		name := f.Family
		switch {
		case text.AnyMatch(t, f.KosherTerms):
			tr.Add(name+"_kosher", "Kosher "+name+" source confirmed")
		case text.AnyMatch(t, f.NotKosherTerms):
			tr.Add(name+"_not_kosher", "Non-kosher "+name+" source")
			return NotKosher, diet.High
		case plantSafe:
			tr.Add(name+"_plant_source_likely", title(name)+" appears to be plant-derived")
		case cert:
			tr.Add(name+"_certified", title(name)+" with kosher certification")
		case name == "gelatin":
			tr.Add("gelatin_source_unknown", "Gelatin source unknown - may be animal-derived")
			return RequiresCertification, diet.Low
		default:
			tr.Add(name+"_likely_plant", title(name)+" (commonly plant-derived in modern food)")
		}
	}

	if text.AnyMatch(t, c.rules.DairyMarkers) {
		tr.Add(codeDairy, "Dairy ingredient (affects meat/dairy separation)")
	}
	if text.AnyMatch(t, c.rules.MeatMarkers) {
		if !cert {
			tr.Add(codeMeatUncertified, "Meat ingredient requires kosher slaughter verification")
			return RequiresCertification, diet.Medium
		}
		tr.Add(codeMeatCertified, "Meat ingredient with kosher certification")
	}

	switch {
	case cert:
		if tr.Len() == 0 {
			tr.Add("kosher_certified", "Kosher certification detected")
		}
		return Confirmed, diet.High
	case tr.Len() > 0:
		return Confirmed, diet.Medium
	case plantSafe:
		tr.Add("plant_based_kosher", "Plant-based ingredient, inherently kosher")
		return Confirmed, diet.High
	}
	tr.Add("no_kosher_concerns", "No kosher concerns detected")
	return Confirmed, diet.Medium
}
