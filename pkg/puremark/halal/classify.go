package halal

import (
	"fmt"
	"strings"

	"github.com/cognicore/puremark/pkg/puremark/certification"
	"github.com/cognicore/puremark/pkg/puremark/diet"
	"github.com/cognicore/puremark/pkg/puremark/kb"
	"github.com/cognicore/puremark/pkg/puremark/source"
	"github.com/cognicore/puremark/pkg/puremark/text"
)

var (
	gelatinTerms         = []string{"gelatin", "gelatine", "e441"}
	porcineQualifiers    = []string{"porcine", "pig", "swine"}
	halalGelatinTerms    = []string{"halal gelatin", "halal gelatine", "gelatin (halal)", "gelatine (halal)"}
	fishGelatinTerms     = []string{"fish gelatin", "fish gelatine"}
	bovineGelatinTerms   = []string{"bovine gelatin", "bovine gelatine", "beef gelatin", "beef gelatine"}
	naturalFlavourTerms  = []string{"natural flavor", "natural flavour"}
	artificialFlavorTerm = []string{"artificial flavor", "artificial flavour"}
)

// kind is the weight a provisional signal carries in the final step.
type kind int

const (
	neutral kind = iota
	halalSignal
	doubtful
	haramSignal
)

func kindOf(s kb.HalalStatus) kind {
	switch s {
	case kb.StatusHalal:
		return halalSignal
	case kb.StatusMushbooh:
		return doubtful
	case kb.StatusHaram:
		return haramSignal
	}
	return neutral
}

// Which check settles a source-dependent family.
const (
	checkAnimal   = "animal"
	checkLecithin = "lecithin"
)

// familyCheck must name a check for every kb.Family.
func familyCheck(f kb.Family) string {
	switch f {
	case kb.FamilyLecithin:
		return checkLecithin
	case kb.FamilyGelatin,
		kb.FamilyEnzymes,
		kb.FamilyGlycerin,
		kb.FamilyStearates,
		kb.FamilyFattyAcids,
		kb.FamilyShortening,
		kb.FamilyCollagen,
		kb.FamilyTaurine,
		kb.FamilyVitaminA,
		kb.FamilyVitaminD3,
		kb.FamilyLCysteine,
		kb.FamilyCharcoal,
		kb.FamilyWax,
		kb.FamilyNaturalFlavors,
		kb.FamilyCetylStearylAlcohol:
		return checkAnimal
	}
	return ""
}

// Classifier applies the halal rules of one knowledge base. It holds no
// mutable state and is safe for concurrent use.
type Classifier struct {
	kb      *kb.KnowledgeBase
	sources *source.Resolver
	certs   *certification.Detector
	opts    Options
}

// New builds a classifier.
func New(k *kb.KnowledgeBase, opts Options) *Classifier {
	if opts.UnknownDefault == "" {
		opts.UnknownDefault = DefaultHalal
	}
	return &Classifier{
		kb:      k,
		sources: source.New(k),
		certs:   certification.New(k),
		opts:    opts,
	}
}

// Options returns the options the classifier was built with.
func (c *Classifier) Options() Options { return c.opts }

// Classify evaluates one ingredient. claim is a product-level certification
// signal (label claims outside the ingredient list); pass
// certification.None(kb.SchemeHalal) when there is none.
func (c *Classifier) Classify(ing diet.Ingredient, claim certification.Signal) Result {
	e := &evaluation{
		c:        c,
		ing:      ing,
		text:     ing.Text(),
		families: make(map[kb.Family]bool),
	}
	e.cert = certification.Max(c.certs.DetectAll(kb.SchemeHalal, ing.Original, ing.Normalized), claim)

	status, conf := e.run()
	if c.opts.Strict && status == Mushbooh {
		status = NotVerified
	}
	return diet.NewResult(ing, status, conf, &e.trail)
}

type evaluation struct {
	c        *Classifier
	ing      diet.Ingredient
	text     string
	cert     certification.Signal
	trail    diet.Trail
	counts   [4]int
	families map[kb.Family]bool
}

func (e *evaluation) add(k kind, code, evidence string) {
	if e.trail.Add(code, evidence) {
		e.counts[k]++
	}
}

type step func() (Status, diet.Confidence, bool)

func (e *evaluation) run() (Status, diet.Confidence) {
	for _, s := range []step{
		e.animal,
		e.colorants,
		e.eNumbers,
		e.alcohol,
		e.gelatin,
		e.lecithin,
		e.flavours,
	} {
		if status, conf, done := s(); done {
			return status, conf
		}
	}
	return e.final()
}

func (e *evaluation) animal() (Status, diet.Confidence, bool) {
	a := e.c.kb.Animal
	for _, r := range a.AlwaysHaram {
		if text.AnyMatch(e.text, r.Terms) {
			e.add(haramSignal, r.ReasonCode, r.Reason)
			return Haram, diet.High, true
		}
	}

	// Only the first family mentioned is resolved.
	for _, f := range kb.Families() {
		if familyCheck(f) != checkAnimal {
			continue
		}
		rule, ok := a.Family(f)
		if !ok {
			continue
		}
		res := e.c.sources.ResolveIngredient(f, e.ing)
		if !res.Present {
			continue
		}
		e.families[f] = true
		if e.family(rule, res) {
			return Haram, diet.High, true
		}
		break
	}

	if text.AnyMatch(e.text, a.ProcessedDairy.Terms) {
		e.qualified(a.ProcessedDairy, "dairy_halal_qualified", "Dairy with halal qualifier detected")
	}
	if text.AnyMatch(e.text, a.StarterCultures.Terms) {
		e.qualified(a.StarterCultures, "starter_culture_halal_qualified", "Starter culture with halal qualifier detected")
	}
	if text.AnyMatch(e.text, a.GelatinProducts.Terms) {
		e.qualified(a.GelatinProducts, "gelatin_product_halal_qualified", "Gelatin product labeled halal or plant-based")
	}
	for _, r := range a.Other {
		if !text.AnyMatch(e.text, r.Terms) {
			continue
		}
		e.add(kindOf(r.Status), r.ReasonCode, r.Reason)
		if r.Status == kb.StatusHaram {
			return Haram, diet.High, true
		}
	}
	return "", "", false
}

// family records the verdict for a resolved family and reports whether it
// is haram.
func (e *evaluation) family(rule kb.FamilyRule, res source.Resolution) bool {
	status, reason, code := rule.DefaultStatus, rule.DefaultReason, rule.ReasonCode
	if res.Specific() {
		if src, ok := rule.Source(res.Source); ok {
			status, reason = src.Status, src.Reason
			code = fmt.Sprintf("%s_%s_%s", rule.Family, src.Source, strings.ToLower(string(src.Status)))
		}
	}

	switch status {
	case kb.StatusHaram:
		e.add(haramSignal, code, reason)
		return true
	case kb.StatusMushbooh:
		if e.cert.Strong() {
			e.add(neutral, code+"_but_certified", reason+"; but strong halal certification detected")
			return false
		}
		e.add(doubtful, code, reason)
	case kb.StatusHalal:
		e.add(halalSignal, code, reason)
	}
	return false
}

func (e *evaluation) qualified(r kb.QualifiedRule, code, evidence string) {
	if text.AnyMatch(e.text, r.HalalQualifiers) {
		e.add(halalSignal, code, evidence)
		return
	}
	e.add(kindOf(r.Status), r.ReasonCode, r.Reason)
}

func (e *evaluation) colorants() (Status, diet.Confidence, bool) {
	for _, c := range e.trail.Codes() {
		if strings.Contains(c, "insect") {
			return "", "", false
		}
	}
	if text.AnyMatch(e.text, e.c.kb.Plants.HaramColorants) {
		e.add(haramSignal, "haram_carmine_cochineal", "Detected carmine/cochineal (commonly E120)")
		return Haram, diet.High, true
	}
	return "", "", false
}

func (e *evaluation) eNumbers() (Status, diet.Confidence, bool) {
	for _, code := range text.ExtractENumbers(e.text) {
		en, ok := e.c.kb.ENumbers.Lookup(code)
		if !ok {
			continue
		}
		evidence := fmt.Sprintf("Detected E%s (%s) - %s", en.Code, en.Name, en.Reason)
		switch en.Tier {
		case kb.TierAlwaysHaram:
			e.add(haramSignal, en.ReasonCode, evidence)
			return Haram, diet.High, true
		case kb.TierSourceDependent:
			e.add(doubtful, en.ReasonCode, evidence)
		}
	}
	return "", "", false
}

// alcohol stops at the first category that matches. Permitted categories
// come first in the registry.
func (e *evaluation) alcohol() (Status, diet.Confidence, bool) {
	for _, r := range e.c.kb.Alcohol {
		if !text.AnyMatch(e.text, r.Terms) {
			continue
		}
		switch {
		case r.Category.Permitted():
			e.add(halalSignal, r.ReasonCode, r.Reason)
		case e.cert.Strong():
			e.add(neutral, "alcohol_related_term_present_but_halal_cert_claim",
				r.Reason+"; but strong halal certification phrase detected")
		default:
			e.add(haramSignal, r.ReasonCode, r.Reason)
			return Haram, diet.High, true
		}
		break
	}
	return "", "", false
}

func (e *evaluation) gelatin() (Status, diet.Confidence, bool) {
	if !text.AnyMatch(e.text, gelatinTerms) {
		return "", "", false
	}
	switch {
	case text.AnyMatch(e.text, porcineQualifiers):
		e.trail = diet.Trail{}
		e.add(haramSignal, "haram_porcine_gelatin", "Porcine gelatin detected")
		return Haram, diet.High, true
	case text.AnyMatch(e.text, halalGelatinTerms):
		e.add(halalSignal, "halal_gelatin_explicit", "Gelatin explicitly labeled halal")
		return Confirmed, diet.High, true
	case text.AnyMatch(e.text, fishGelatinTerms):
		e.add(halalSignal, "fish_gelatin", "Fish-derived gelatin")
		return Confirmed, diet.High, true
	case text.AnyMatch(e.text, bovineGelatinTerms):
		e.add(doubtful, "bovine_gelatin_unverified", "Bovine gelatin without explicit halal certification")
	}
	return "", "", false
}

func (e *evaluation) lecithin() (Status, diet.Confidence, bool) {
	res := e.c.sources.ResolveIngredient(kb.FamilyLecithin, e.ing)
	if !res.Present {
		return "", "", false
	}
	switch res.Source {
	case "sunflower":
		e.add(halalSignal, "sunflower_lecithin_halal", "Sunflower lecithin detected - plant-based, halal")
		return Confirmed, diet.High, true
	case "rapeseed":
		e.add(halalSignal, "rapeseed_lecithin_halal", "Rapeseed/canola lecithin detected - plant-based, halal")
		return Confirmed, diet.High, true
	case "egg":
		e.add(halalSignal, "egg_lecithin_halal", "Egg lecithin detected - halal (note: egg allergen)")
		return Confirmed, diet.High, true
	case "soy":
		if e.cert.Strong() {
			e.add(halalSignal, "soy_lecithin_certified_halal", "Soy lecithin with halal certification - verified halal")
			return Confirmed, diet.High, true
		}
		e.add(doubtful, "soy_lecithin_unverified_mushbooh",
			"Soy lecithin detected - processing may involve alcohol; requires halal certification")
		return NotVerified, diet.Medium, true
	}
	if e.cert.Strong() {
		e.add(neutral, "lecithin_unspecified_but_certified", "Lecithin source unspecified, but product has halal certification")
		return "", "", false
	}
	e.add(doubtful, "lecithin_source_unspecified_mushbooh",
		"Lecithin detected but source not specified - possible soy, egg, or plant origin")
	return "", "", false
}

func (e *evaluation) flavours() (Status, diet.Confidence, bool) {
	if text.AnyMatch(e.text, naturalFlavourTerms) {
		if !e.families[kb.FamilyNaturalFlavors] {
			e.add(doubtful, "natural_flavour_source_unknown_mushbooh", "Natural flavours have undisclosed sources")
		}
	} else if text.AnyMatch(e.text, artificialFlavorTerm) {
		e.add(neutral, "artificial_flavour", "Artificial flavouring (no alcohol indicated)")
	}
	return "", "", false
}

// final weighs the provisional signals. A strong certification settles
// anything that was not dispositive.
func (e *evaluation) final() (Status, diet.Confidence) {
	if e.cert.Strong() {
		e.add(neutral, "halal_certification_detected", e.cert.Evidence)
		return Confirmed, diet.High
	}
	if e.counts[haramSignal] > 0 {
		return Haram, diet.High
	}
	if d := e.counts[doubtful]; d > 0 {
		if e.counts[halalSignal] >= d {
			return Confirmed, diet.High
		}
		if e.cert.Weak() {
			return Mushbooh, diet.Medium
		}
		return Mushbooh, diet.Low
	}
	if e.counts[halalSignal] > 0 {
		return Confirmed, diet.High
	}
	if text.AnyMatch(e.text, e.c.kb.Plants.InherentlyHalal) {
		e.add(halalSignal, "inherently_halal_by_nature", "Plant-based ingredient; halal by default")
		return Confirmed, diet.High
	}
	if e.c.opts.UnknownDefault == DefaultMushbooh {
		e.add(doubtful, "no_halal_evidence", "No halal evidence detected; treated as doubtful")
		return Mushbooh, diet.Low
	}
	e.add(neutral, "no_haram_indicators_detected", "No haram indicators detected; default halal")
	return Confirmed, diet.Medium
}
