package config

import (
	"fmt"
	"regexp"

	"gopkg.in/yaml.v3"

	"github.com/cognicore/puremark/pkg/puremark/internalerr"
	"github.com/cognicore/puremark/pkg/puremark/kb"
	"github.com/cognicore/puremark/pkg/puremark/text"
)

// ENumberFile is the layout of enumbers.yaml.
type ENumberFile struct {
	AlwaysHaram     []ENumberEntry `yaml:"always_haram"`
	SourceDependent []ENumberEntry `yaml:"source_dependent"`
	Halal           []ENumberEntry `yaml:"halal"`
}

// ENumberEntry is one E-number row.
type ENumberEntry struct {
	Code       string `yaml:"code"`
	Name       string `yaml:"name"`
	Reason     string `yaml:"reason"`
	ReasonCode string `yaml:"reason_code"`
}

// AlcoholFile is the layout of alcohol.yaml.
type AlcoholFile struct {
	Categories []struct {
		Category   string   `yaml:"category"`
		Terms      []string `yaml:"terms"`
		Reason     string   `yaml:"reason"`
		ReasonCode string   `yaml:"reason_code"`
	} `yaml:"categories"`
}

// TermRuleEntry is a category with a fixed status.
type TermRuleEntry struct {
	Category   string   `yaml:"category"`
	Terms      []string `yaml:"terms"`
	Status     string   `yaml:"status"`
	Reason     string   `yaml:"reason"`
	ReasonCode string   `yaml:"reason_code"`
}

// QualifiedEntry is a term list with halal qualifiers.
type QualifiedEntry struct {
	Terms           []string `yaml:"terms"`
	HalalQualifiers []string `yaml:"halal_qualifiers"`
	Status          string   `yaml:"status"`
	Reason          string   `yaml:"reason"`
	ReasonCode      string   `yaml:"reason_code"`
}

// AnimalFile is the layout of animal.yaml.
type AnimalFile struct {
	AlwaysHaram     []TermRuleEntry `yaml:"always_haram"`
	SourceDependent []struct {
		Family       string   `yaml:"family"`
		GenericTerms []string `yaml:"generic_terms"`
		Sources      []struct {
			Source string   `yaml:"source"`
			Terms  []string `yaml:"terms"`
			Status string   `yaml:"status"`
			Reason string   `yaml:"reason"`
		} `yaml:"sources"`
		DefaultStatus string `yaml:"default_status"`
		DefaultReason string `yaml:"default_reason"`
		ReasonCode    string `yaml:"reason_code"`
	} `yaml:"source_dependent"`
	ProcessedDairy  QualifiedEntry  `yaml:"processed_dairy"`
	StarterCultures QualifiedEntry  `yaml:"starter_cultures"`
	GelatinProducts QualifiedEntry  `yaml:"gelatin_products"`
	Other           []TermRuleEntry `yaml:"other"`
}

// CertifierFile is the layout of certifiers.yaml.
type CertifierFile struct {
	Schemes map[string]struct {
		Certifiers []struct {
			Code     string   `yaml:"code"`
			Region   string   `yaml:"region"`
			FullName string   `yaml:"full_name"`
			Strength string   `yaml:"strength"`
			Terms    []string `yaml:"terms"`
		} `yaml:"certifiers"`
		GenericStrongTerms   []string `yaml:"generic_strong_terms"`
		CertificationPhrases []string `yaml:"certification_phrases"`
		WeakSignals          []string `yaml:"weak_signals"`
	} `yaml:"schemes"`
}

// PlantFile is the layout of plants.yaml.
type PlantFile struct {
	InherentlyHalal []string `yaml:"inherently_halal"`
	HaramColorants  []string `yaml:"haram_colorants"`
	KosherSafe      []string `yaml:"kosher_safe"`
}

// KosherFile is the layout of kosher.yaml.
type KosherFile struct {
	ForbiddenLandAnimals []string `yaml:"forbidden_land_animals"`
	ForbiddenSeafood     []string `yaml:"forbidden_seafood"`
	InsectDerived        []string `yaml:"insect_derived"`
	BloodProducts        []string `yaml:"blood_products"`
	GrapeProducts        []string `yaml:"grape_products"`
	MeatDairyMix         []string `yaml:"meat_dairy_mix"`
	DairyMarkers         []string `yaml:"dairy_markers"`
	MeatMarkers          []string `yaml:"meat_markers"`
	SourceDependent      []struct {
		Family         string   `yaml:"family"`
		Terms          []string `yaml:"terms"`
		KosherTerms    []string `yaml:"kosher_terms"`
		NotKosherTerms []string `yaml:"not_kosher_terms"`
	} `yaml:"source_dependent"`
}

// DietFile is the layout of diets.yaml.
type DietFile struct {
	Meat                      []string `yaml:"meat"`
	FishSeafood               []string `yaml:"fish_seafood"`
	Dairy                     []string `yaml:"dairy"`
	Egg                       []string `yaml:"egg"`
	BeeProducts               []string `yaml:"bee_products"`
	AnimalDerivedAdditives    []string `yaml:"animal_derived_additives"`
	PossiblyAnimalDerived     []string `yaml:"possibly_animal_derived"`
	VeganSafeVersions         []string `yaml:"vegan_safe_versions"`
	PlantAnalogues            []string `yaml:"plant_analogues"`
	VegetarianExplicit        []string `yaml:"vegetarian_explicit"`
	VegetarianStrictAdditives []string `yaml:"vegetarian_strict_additives"`
	VegetarianUncertain       []string `yaml:"vegetarian_uncertain"`
	PlantQualifiers           []string `yaml:"plant_qualifiers"`
	PescetarianMeatDerived    []string `yaml:"pescetarian_meat_derived"`
	GelatinTerms              []string `yaml:"gelatin_terms"`
	FishGelatinTerms          []string `yaml:"fish_gelatin_terms"`
	MeatGelatinQualifiers     []string `yaml:"meat_gelatin_qualifiers"`
}

// AllergenFile is the layout of allergens.yaml.
type AllergenFile struct {
	Allergens []struct {
		Key     string   `yaml:"key"`
		Display string   `yaml:"display"`
		Terms   []string `yaml:"terms"`
	} `yaml:"allergens"`
	Aliases       map[string]string   `yaml:"aliases"`
	Lecithin      map[string][]string `yaml:"lecithin"`
	AdvisoryTerms []struct {
		Term     string `yaml:"term"`
		Allergen string `yaml:"allergen"`
	} `yaml:"advisory_terms"`
}

// ZoneFile is the layout of zones.yaml.
type ZoneFile struct {
	IngredientHeaders     []string `yaml:"ingredient_headers"`
	AdvisoryHeaders       []string `yaml:"advisory_headers"`
	NonIngredientPatterns []string `yaml:"non_ingredient_patterns"`
	Languages             []struct {
		Lang    string   `yaml:"lang"`
		Markers []string `yaml:"markers"`
	} `yaml:"languages"`
	CommonIngredientTerms []string `yaml:"common_ingredient_terms"`
}

// SourceFile is the layout of sources.yaml. Family sources are kept as a
// YAML node so their order survives decoding.
type SourceFile struct {
	Lecithin struct {
		Generic []string `yaml:"generic"`
		Sources []struct {
			Source   string   `yaml:"source"`
			Patterns []string `yaml:"patterns"`
		} `yaml:"sources"`
	} `yaml:"lecithin"`
	Families map[string]struct {
		Generic []string  `yaml:"generic"`
		Sources yaml.Node `yaml:"sources"`
	} `yaml:"families"`
}

func decode(name string, data []byte, out any) error {
	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: parse %s: %v", internalerr.ErrInvalidConfig, name, err)
	}
	return nil
}

func terms(in []string) []string {
	out := make([]string, 0, len(in))
	for _, t := range in {
		out = append(out, text.Normalize(t))
	}
	return text.Dedupe(out)
}

func compile(patterns []string) ([]*regexp.Regexp, error) {
	out := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile("(?i)" + p)
		if err != nil {
			return nil, fmt.Errorf("%w: pattern %q: %v", internalerr.ErrInvalidConfig, p, err)
		}
		out = append(out, re)
	}
	return out, nil
}

func parseENumbers(data []byte) (kb.ENumbers, error) {
	var f ENumberFile
	if err := decode("enumbers.yaml", data, &f); err != nil {
		return kb.ENumbers{}, err
	}
	var entries []kb.ENumber
	seen := make(map[string]bool)
	add := func(tier kb.ENumberTier, rows []ENumberEntry) error {
		for _, r := range rows {
			code := text.Normalize(r.Code)
			if code == "" {
				return fmt.Errorf("%w: e-number without code in tier %s", internalerr.ErrInvalidConfig, tier)
			}
			if seen[code] {
				return fmt.Errorf("%w: e-number %s listed twice", internalerr.ErrDuplicate, code)
			}
			seen[code] = true
			rc := r.ReasonCode
			if rc == "" {
				rc = fmt.Sprintf("e%s_%s", code, tier)
			}
			entries = append(entries, kb.ENumber{Code: code, Name: r.Name, Reason: r.Reason, ReasonCode: rc, Tier: tier})
		}
		return nil
	}
	if err := add(kb.TierAlwaysHaram, f.AlwaysHaram); err != nil {
		return kb.ENumbers{}, err
	}
	if err := add(kb.TierSourceDependent, f.SourceDependent); err != nil {
		return kb.ENumbers{}, err
	}
	if err := add(kb.TierHalal, f.Halal); err != nil {
		return kb.ENumbers{}, err
	}
	return kb.NewENumbers(entries), nil
}

func parseAlcohol(data []byte) ([]kb.AlcoholRule, error) {
	var f AlcoholFile
	if err := decode("alcohol.yaml", data, &f); err != nil {
		return nil, err
	}
	rules := make([]kb.AlcoholRule, 0, len(f.Categories))
	for _, c := range f.Categories {
		rules = append(rules, kb.AlcoholRule{
			Category:   kb.AlcoholCategory(c.Category),
			Terms:      terms(c.Terms),
			Reason:     c.Reason,
			ReasonCode: c.ReasonCode,
		})
	}
	// Evaluation order is fixed by the enumeration, not by the file.
	ordered := make([]kb.AlcoholRule, 0, len(rules))
	for _, cat := range kb.AlcoholCategories() {
		for _, r := range rules {
			if r.Category == cat {
				ordered = append(ordered, r)
			}
		}
	}
	for _, r := range rules {
		known := false
		for _, cat := range kb.AlcoholCategories() {
			known = known || r.Category == cat
		}
		if !known {
			return nil, fmt.Errorf("%w: unknown alcohol category %q", internalerr.ErrInvalidConfig, r.Category)
		}
	}
	return ordered, nil
}

func termRules(in []TermRuleEntry, status kb.HalalStatus) []kb.TermRule {
	out := make([]kb.TermRule, 0, len(in))
	for _, r := range in {
		st := kb.HalalStatus(r.Status)
		if r.Status == "" {
			st = status
		}
		out = append(out, kb.TermRule{
			Category:   r.Category,
			Terms:      terms(r.Terms),
			Status:     st,
			Reason:     r.Reason,
			ReasonCode: r.ReasonCode,
		})
	}
	return out
}

func qualified(q QualifiedEntry) kb.QualifiedRule {
	return kb.QualifiedRule{
		Terms:           terms(q.Terms),
		HalalQualifiers: terms(q.HalalQualifiers),
		Status:          kb.HalalStatus(q.Status),
		Reason:          q.Reason,
		ReasonCode:      q.ReasonCode,
	}
}

func parseAnimal(data []byte) (kb.Animal, error) {
	var f AnimalFile
	if err := decode("animal.yaml", data, &f); err != nil {
		return kb.Animal{}, err
	}
	a := kb.Animal{
		AlwaysHaram:     termRules(f.AlwaysHaram, kb.StatusHaram),
		ProcessedDairy:  qualified(f.ProcessedDairy),
		StarterCultures: qualified(f.StarterCultures),
		GelatinProducts: qualified(f.GelatinProducts),
		Other:           termRules(f.Other, ""),
	}
	for _, fam := range f.SourceDependent {
		rule := kb.FamilyRule{
			Family:        kb.Family(fam.Family),
			GenericTerms:  terms(fam.GenericTerms),
			DefaultStatus: kb.HalalStatus(fam.DefaultStatus),
			DefaultReason: fam.DefaultReason,
			ReasonCode:    fam.ReasonCode,
		}
		for _, s := range fam.Sources {
			rule.Sources = append(rule.Sources, kb.SourceRule{
				Source: s.Source,
				Terms:  terms(s.Terms),
				Status: kb.HalalStatus(s.Status),
				Reason: s.Reason,
			})
		}
		a.SourceDependent = append(a.SourceDependent, rule)
	}
	return a, nil
}

func parseCertifiers(data []byte) (map[kb.Scheme]kb.CertScheme, error) {
	var f CertifierFile
	if err := decode("certifiers.yaml", data, &f); err != nil {
		return nil, err
	}
	out := make(map[kb.Scheme]kb.CertScheme, len(f.Schemes))
	for name, s := range f.Schemes {
		cs := kb.CertScheme{
			GenericStrong: terms(s.GenericStrongTerms),
			Phrases:       terms(s.CertificationPhrases),
			WeakSignals:   terms(s.WeakSignals),
		}
		for _, c := range s.Certifiers {
			cs.Certifiers = append(cs.Certifiers, kb.Certifier{
				Code:     c.Code,
				Region:   c.Region,
				FullName: c.FullName,
				Strength: kb.Strength(c.Strength),
				Terms:    terms(c.Terms),
			})
		}
		out[kb.Scheme(name)] = cs
	}
	return out, nil
}

func parsePlants(data []byte) (kb.Plants, error) {
	var f PlantFile
	if err := decode("plants.yaml", data, &f); err != nil {
		return kb.Plants{}, err
	}
	return kb.Plants{
		InherentlyHalal: terms(f.InherentlyHalal),
		HaramColorants:  terms(f.HaramColorants),
		KosherSafe:      terms(f.KosherSafe),
	}, nil
}

func parseKosher(data []byte) (kb.Kosher, error) {
	var f KosherFile
	if err := decode("kosher.yaml", data, &f); err != nil {
		return kb.Kosher{}, err
	}
	k := kb.Kosher{
		ForbiddenLandAnimals: terms(f.ForbiddenLandAnimals),
		ForbiddenSeafood:     terms(f.ForbiddenSeafood),
		InsectDerived:        terms(f.InsectDerived),
		BloodProducts:        terms(f.BloodProducts),
		GrapeProducts:        terms(f.GrapeProducts),
		MeatDairyMix:         terms(f.MeatDairyMix),
		DairyMarkers:         terms(f.DairyMarkers),
		MeatMarkers:          terms(f.MeatMarkers),
	}
	for _, sd := range f.SourceDependent {
		k.SourceDependent = append(k.SourceDependent, kb.KosherFamily{
			Family:         sd.Family,
			Terms:          terms(sd.Terms),
			KosherTerms:    terms(sd.KosherTerms),
			NotKosherTerms: terms(sd.NotKosherTerms),
		})
	}
	return k, nil
}

func parseDiets(data []byte) (kb.Diets, error) {
	var f DietFile
	if err := decode("diets.yaml", data, &f); err != nil {
		return kb.Diets{}, err
	}
	return kb.Diets{
		Meat:                      terms(f.Meat),
		FishSeafood:               terms(f.FishSeafood),
		Dairy:                     terms(f.Dairy),
		Egg:                       terms(f.Egg),
		BeeProducts:               terms(f.BeeProducts),
		AnimalDerivedAdditives:    terms(f.AnimalDerivedAdditives),
		PossiblyAnimalDerived:     terms(f.PossiblyAnimalDerived),
		VeganSafeVersions:         terms(f.VeganSafeVersions),
		PlantAnalogues:            terms(f.PlantAnalogues),
		VegetarianExplicit:        terms(f.VegetarianExplicit),
		VegetarianStrictAdditives: terms(f.VegetarianStrictAdditives),
		VegetarianUncertain:       terms(f.VegetarianUncertain),
		PlantQualifiers:           terms(f.PlantQualifiers),
		PescetarianMeatDerived:    terms(f.PescetarianMeatDerived),
		GelatinTerms:              terms(f.GelatinTerms),
		FishGelatinTerms:          terms(f.FishGelatinTerms),
		MeatGelatinQualifiers:     terms(f.MeatGelatinQualifiers),
	}, nil
}

func parseAllergens(data []byte) (kb.Allergens, error) {
	var f AllergenFile
	if err := decode("allergens.yaml", data, &f); err != nil {
		return kb.Allergens{}, err
	}
	a := kb.Allergens{
		Aliases:  make(map[string]string, len(f.Aliases)),
		Lecithin: make(map[string][]string, len(f.Lecithin)),
	}
	for _, e := range f.Allergens {
		a.Entries = append(a.Entries, kb.Allergen{Key: e.Key, Display: e.Display, Terms: terms(e.Terms)})
	}
	for alias, key := range f.Aliases {
		a.Aliases[text.Normalize(alias)] = key
	}
	for source, keys := range f.Lecithin {
		a.Lecithin[source] = keys
	}
	for _, t := range f.AdvisoryTerms {
		a.Advisory = append(a.Advisory, kb.AdvisoryTerm{Term: text.Normalize(t.Term), Allergen: t.Allergen})
	}
	return a, nil
}

func parseZones(data []byte) (kb.Zones, error) {
	var f ZoneFile
	if err := decode("zones.yaml", data, &f); err != nil {
		return kb.Zones{}, err
	}
	patterns, err := compile(f.NonIngredientPatterns)
	if err != nil {
		return kb.Zones{}, fmt.Errorf("zones.yaml: %w", err)
	}
	z := kb.Zones{
		IngredientHeaders: terms(f.IngredientHeaders),
		AdvisoryHeaders:   terms(f.AdvisoryHeaders),
		NonIngredient:     patterns,
		CommonTerms:       terms(f.CommonIngredientTerms),
	}
	for _, l := range f.Languages {
		z.Languages = append(z.Languages, kb.Language{Lang: l.Lang, Markers: terms(l.Markers)})
	}
	return z, nil
}

func parseSources(data []byte) (kb.Sources, error) {
	var f SourceFile
	if err := decode("sources.yaml", data, &f); err != nil {
		return kb.Sources{}, err
	}
	generic, err := compile(f.Lecithin.Generic)
	if err != nil {
		return kb.Sources{}, fmt.Errorf("sources.yaml: %w", err)
	}
	s := kb.Sources{
		Lecithin: kb.LecithinPatterns{Generic: generic},
		Families: make(map[kb.Family]kb.SourceMarkers, len(f.Families)),
	}
	for _, src := range f.Lecithin.Sources {
		res, err := compile(src.Patterns)
		if err != nil {
			return kb.Sources{}, fmt.Errorf("sources.yaml lecithin %s: %w", src.Source, err)
		}
		s.Lecithin.Sources = append(s.Lecithin.Sources, kb.SourcePatterns{Source: src.Source, Patterns: res})
	}
	for name, fam := range f.Families {
		markers := kb.SourceMarkers{Generic: terms(fam.Generic)}
		ordered, err := orderedSources(&fam.Sources)
		if err != nil {
			return kb.Sources{}, fmt.Errorf("sources.yaml %s: %w", name, err)
		}
		markers.Sources = ordered
		s.Families[kb.Family(name)] = markers
	}
	return s, nil
}

// orderedSources walks a mapping node of source name to term list,
// preserving document order.
func orderedSources(n *yaml.Node) ([]kb.SourceTerms, error) {
	if n.Kind == 0 {
		return nil, nil
	}
	if n.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%w: sources must be a mapping", internalerr.ErrInvalidConfig)
	}
	var out []kb.SourceTerms
	for i := 0; i+1 < len(n.Content); i += 2 {
		var list []string
		if err := n.Content[i+1].Decode(&list); err != nil {
			return nil, fmt.Errorf("%w: source %s: %v", internalerr.ErrInvalidConfig, n.Content[i].Value, err)
		}
		out = append(out, kb.SourceTerms{Source: n.Content[i].Value, Terms: terms(list)})
	}
	return out, nil
}
