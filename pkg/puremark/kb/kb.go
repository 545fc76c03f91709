// Package kb holds the immutable reference data the classifiers consult:
// E-numbers, alcohol terms, animal derivatives, certifiers, plant lists,
// allergens and label segmentation markers.
//
// A KnowledgeBase is built once by the config loader and never mutated.
// Reloading produces a new value with a new Version.
package kb

import (
	"regexp"
	"strings"
)

// HalalStatus is the registry-level verdict attached to a term or source.
type HalalStatus string

const (
	StatusHalal    HalalStatus = "HALAL"
	StatusMushbooh HalalStatus = "MUSHBOOH"
	StatusHaram    HalalStatus = "HARAM"
)

// Valid reports whether s is a known status.
func (s HalalStatus) Valid() bool {
	switch s {
	case StatusHalal, StatusMushbooh, StatusHaram:
		return true
	}
	return false
}

// Family is an ingredient family whose compliance depends on an
// undisclosed precursor.
type Family string

const (
	FamilyLecithin            Family = "lecithin"
	FamilyGelatin             Family = "gelatin"
	FamilyEnzymes             Family = "enzymes"
	FamilyGlycerin            Family = "glycerin"
	FamilyStearates           Family = "stearates"
	FamilyFattyAcids          Family = "fatty_acids"
	FamilyShortening          Family = "shortening"
	FamilyCollagen            Family = "collagen"
	FamilyTaurine             Family = "taurine"
	FamilyVitaminA            Family = "vitamin_a"
	FamilyVitaminD3           Family = "vitamin_d3"
	FamilyLCysteine           Family = "l_cysteine"
	FamilyCharcoal            Family = "charcoal"
	FamilyWax                 Family = "wax"
	FamilyNaturalFlavors      Family = "natural_flavors"
	FamilyCetylStearylAlcohol Family = "cetyl_stearyl_alcohol"
)

var families = []Family{
	FamilyLecithin,
	FamilyGelatin,
	FamilyEnzymes,
	FamilyGlycerin,
	FamilyStearates,
	FamilyFattyAcids,
	FamilyShortening,
	FamilyCollagen,
	FamilyTaurine,
	FamilyVitaminA,
	FamilyVitaminD3,
	FamilyLCysteine,
	FamilyCharcoal,
	FamilyWax,
	FamilyNaturalFlavors,
	FamilyCetylStearylAlcohol,
}

// Families lists every source-dependent family in canonical order.
func Families() []Family {
	out := make([]Family, len(families))
	copy(out, families)
	return out
}

// AnimalFamilies lists the families resolved through the animal registry,
// which is every family except lecithin.
func AnimalFamilies() []Family {
	return Families()[1:]
}

// Valid reports whether f is a known family.
func (f Family) Valid() bool {
	for _, known := range families {
		if f == known {
			return true
		}
	}
	return false
}

// SourceUnspecified is the source reported when only the generic family
// marker was found.
const SourceUnspecified = "unspecified"

// AlcoholCategory names one alcohol registry section.
type AlcoholCategory string

const (
	AlcoholHalalAlternatives AlcoholCategory = "halal_alternatives"
	AlcoholLowRiskFermented  AlcoholCategory = "low_risk_fermented"
	AlcoholExplicit          AlcoholCategory = "explicit_alcohols"
	AlcoholBeverages         AlcoholCategory = "alcoholic_beverages"
	AlcoholProcessing        AlcoholCategory = "alcohol_processing"
	AlcoholHighRiskExtracts  AlcoholCategory = "high_risk_extracts"
)

// AlcoholCategories lists the categories in evaluation order. Permitted
// categories come first.
func AlcoholCategories() []AlcoholCategory {
	return []AlcoholCategory{
		AlcoholHalalAlternatives,
		AlcoholLowRiskFermented,
		AlcoholExplicit,
		AlcoholBeverages,
		AlcoholProcessing,
		AlcoholHighRiskExtracts,
	}
}

// Permitted reports whether a hit in this category is a halal signal.
func (c AlcoholCategory) Permitted() bool {
	return c == AlcoholHalalAlternatives || c == AlcoholLowRiskFermented
}

// ENumberTier is one of the three E-number registry tiers.
type ENumberTier string

const (
	TierAlwaysHaram     ENumberTier = "always_haram"
	TierSourceDependent ENumberTier = "source_dependent"
	TierHalal           ENumberTier = "halal"
)

// Strength is the tier of a certification signal.
type Strength string

const (
	StrengthHigh   Strength = "HIGH"
	StrengthMedium Strength = "MEDIUM"
	StrengthWeak   Strength = "WEAK"
	StrengthNone   Strength = "NONE"
)

// Rank orders strengths, NONE lowest.
func (s Strength) Rank() int {
	switch s {
	case StrengthHigh:
		return 3
	case StrengthMedium:
		return 2
	case StrengthWeak:
		return 1
	}
	return 0
}

// Scheme names a certification scheme.
type Scheme string

const (
	SchemeHalal  Scheme = "halal"
	SchemeKosher Scheme = "kosher"
)

// ENumber is one registry entry.
type ENumber struct {
	Code       string
	Name       string
	Reason     string
	ReasonCode string
	Tier       ENumberTier
}

// ENumbers is the E-number registry indexed by code.
type ENumbers struct {
	byCode map[string]ENumber
}

// NewENumbers indexes entries by lowercase code.
func NewENumbers(entries []ENumber) ENumbers {
	idx := make(map[string]ENumber, len(entries))
	for _, e := range entries {
		idx[strings.ToLower(e.Code)] = e
	}
	return ENumbers{byCode: idx}
}

// Lookup returns the entry for code ("120", "150a").
func (r ENumbers) Lookup(code string) (ENumber, bool) {
	e, ok := r.byCode[strings.ToLower(code)]
	return e, ok
}

// Len returns the number of registered codes.
func (r ENumbers) Len() int { return len(r.byCode) }

// AlcoholRule is one alcohol registry category.
type AlcoholRule struct {
	Category   AlcoholCategory
	Terms      []string
	Reason     string
	ReasonCode string
}

// TermRule maps a term list to a fixed status.
type TermRule struct {
	Category   string
	Terms      []string
	Status     HalalStatus
	Reason     string
	ReasonCode string
}

// SourceRule is the verdict for one disclosed source of a family.
type SourceRule struct {
	Source string
	Terms  []string
	Status HalalStatus
	Reason string
}

// FamilyRule describes a source-dependent animal family.
type FamilyRule struct {
	Family        Family
	GenericTerms  []string
	Sources       []SourceRule
	DefaultStatus HalalStatus
	DefaultReason string
	ReasonCode    string
}

// Source returns the sub-rule for a named source.
func (f FamilyRule) Source(name string) (SourceRule, bool) {
	for _, s := range f.Sources {
		if s.Source == name {
			return s, true
		}
	}
	return SourceRule{}, false
}

// QualifiedRule is a term list whose status flips to halal when a halal
// qualifier is present.
type QualifiedRule struct {
	Terms           []string
	HalalQualifiers []string
	Status          HalalStatus
	Reason          string
	ReasonCode      string
}

// Animal is the animal-derivative registry.
type Animal struct {
	AlwaysHaram     []TermRule
	SourceDependent []FamilyRule
	ProcessedDairy  QualifiedRule
	StarterCultures QualifiedRule
	GelatinProducts QualifiedRule
	Other           []TermRule
}

// Family returns the rule for f.
func (a Animal) Family(f Family) (FamilyRule, bool) {
	for _, r := range a.SourceDependent {
		if r.Family == f {
			return r, true
		}
	}
	return FamilyRule{}, false
}

// Certifier is a registered certifying body.
type Certifier struct {
	Code     string
	Region   string
	FullName string
	Strength Strength
	Terms    []string
}

// CertScheme holds the markers of one certification scheme.
type CertScheme struct {
	Certifiers    []Certifier
	GenericStrong []string
	Phrases       []string
	WeakSignals   []string
}

// Plants holds the plant-safe reference lists.
type Plants struct {
	InherentlyHalal []string
	HaramColorants  []string
	KosherSafe      []string
}

// KosherFamily is a source-dependent family under kosher rules.
type KosherFamily struct {
	Family         string
	Terms          []string
	KosherTerms    []string
	NotKosherTerms []string
}

// Kosher holds the kosher rule lists.
type Kosher struct {
	ForbiddenLandAnimals []string
	ForbiddenSeafood     []string
	InsectDerived        []string
	BloodProducts        []string
	GrapeProducts        []string
	MeatDairyMix         []string
	DairyMarkers         []string
	MeatMarkers          []string
	SourceDependent      []KosherFamily
}

// Diets holds the term lists of the plant-based diets.
type Diets struct {
	Meat                      []string
	FishSeafood               []string
	Dairy                     []string
	Egg                       []string
	BeeProducts               []string
	AnimalDerivedAdditives    []string
	PossiblyAnimalDerived     []string
	VeganSafeVersions         []string
	PlantAnalogues            []string
	VegetarianExplicit        []string
	VegetarianStrictAdditives []string
	VegetarianUncertain       []string
	PlantQualifiers           []string
	PescetarianMeatDerived    []string
	GelatinTerms              []string
	FishGelatinTerms          []string
	MeatGelatinQualifiers     []string
}

// Allergen is one entry of the allergen taxonomy.
type Allergen struct {
	Key     string
	Display string
	Terms   []string
}

// AdvisoryTerm maps a "may contain" term to the reported allergen name.
type AdvisoryTerm struct {
	Term     string
	Allergen string
}

// Allergens is the allergen taxonomy.
type Allergens struct {
	Entries  []Allergen
	Aliases  map[string]string
	Lecithin map[string][]string
	Advisory []AdvisoryTerm
}

// Lookup returns the entry for a key.
func (a Allergens) Lookup(key string) (Allergen, bool) {
	for _, e := range a.Entries {
		if e.Key == key {
			return e, true
		}
	}
	return Allergen{}, false
}

// Canonical maps a user-supplied allergy name to a taxonomy key. Names that
// are neither keys nor aliases come back unchanged with ok false.
func (a Allergens) Canonical(name string) (string, bool) {
	n := strings.ToLower(strings.TrimSpace(name))
	if _, ok := a.Lookup(n); ok {
		return n, true
	}
	if key, ok := a.Aliases[n]; ok {
		return key, true
	}
	return n, false
}

// Language maps a language tag to its marker phrases.
type Language struct {
	Lang    string
	Markers []string
}

// Zones holds label segmentation markers.
type Zones struct {
	IngredientHeaders []string
	AdvisoryHeaders   []string
	NonIngredient     []*regexp.Regexp
	Languages         []Language
	CommonTerms       []string
}

// StrongTerms returns the leading common terms used by the product-name
// prefix heuristic.
func (z Zones) StrongTerms() []string {
	if len(z.CommonTerms) <= strongTermCount {
		return z.CommonTerms
	}
	return z.CommonTerms[:strongTermCount]
}

const strongTermCount = 20

// SourcePatterns are the regular expressions identifying one lecithin source.
type SourcePatterns struct {
	Source   string
	Patterns []*regexp.Regexp
}

// LecithinPatterns identifies lecithin and its source.
type LecithinPatterns struct {
	Generic []*regexp.Regexp
	Sources []SourcePatterns
}

// SourceTerms are the markers of one source, in any language.
type SourceTerms struct {
	Source string
	Terms  []string
}

// SourceMarkers are the extra multilingual markers of a family.
type SourceMarkers struct {
	Generic []string
	Sources []SourceTerms
}

// Sources holds the source-resolution markers.
type Sources struct {
	Lecithin LecithinPatterns
	Families map[Family]SourceMarkers
}

// KnowledgeBase is one immutable snapshot of the reference data.
type KnowledgeBase struct {
	Name    string
	Version string

	ENumbers      ENumbers
	Alcohol       []AlcoholRule
	Animal        Animal
	Certification map[Scheme]CertScheme
	Plants        Plants
	Kosher        Kosher
	Diets         Diets
	Allergens     Allergens
	Zones         Zones
	Sources       Sources
}

// Key is the cache key of this snapshot.
func (k *KnowledgeBase) Key() string {
	return k.Name + "@" + k.Version
}
