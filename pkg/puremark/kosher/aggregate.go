package kosher

import "github.com/cognicore/puremark/pkg/puremark/diet"

// Tag is the meat/dairy category of an ingredient.
type Tag string

const (
	TagDairy  Tag = "dairy"
	TagMeat   Tag = "meat"
	TagPareve Tag = "pareve"
)

const (
	codeDairy           = "dairy_ingredient"
	codeMeatCertified   = "meat_kosher_certified"
	codeMeatUncertified = "meat_requires_certification"
	codeMeatDairy       = "meat_dairy_combination"
)

// Tags returns the meat/dairy categories of a classified ingredient, or
// pareve when it is neither.
func Tags(r Result) []Tag {
	var dairy, meat bool
	for _, c := range r.ReasonCodes {
		switch c {
		case codeDairy:
			dairy = true
		case codeMeatCertified, codeMeatUncertified:
			meat = true
		case codeMeatDairy:
			dairy, meat = true, true
		}
	}
	var out []Tag
	if dairy {
		out = append(out, TagDairy)
	}
	if meat {
		out = append(out, TagMeat)
	}
	if len(out) == 0 {
		out = append(out, TagPareve)
	}
	return out
}

// Policy is the kosher aggregation policy. A product mixing meat and dairy
// ingredients fails even when each ingredient passes on its own.
func Policy() diet.Policy[Status] {
	return diet.Policy[Status]{
		Fail:             NotKosher,
		Verify:           RequiresCertification,
		Pass:             Confirmed,
		FailReason:       "Contains non-kosher ingredient(s).",
		VerifyReason:     "Contains ingredient(s) requiring kosher certification verification.",
		PassReason:       "All detected ingredients appear kosher.",
		VerifyConfidence: diet.Low,
		PassConfidence:   diet.Medium,
		Extra:            meatWithDairy,
	}
}

func meatWithDairy(results []Result) (Verdict, bool) {
	var dairy, meat bool
	for _, r := range results {
		for _, t := range Tags(r) {
			switch t {
			case TagDairy:
				dairy = true
			case TagMeat:
				meat = true
			}
		}
	}
	if !dairy || !meat {
		return Verdict{}, false
	}
	return Verdict{
		Status:             NotKosher,
		Confidence:         diet.High,
		Reason:             "Contains both meat and dairy ingredients.",
		FailingIngredients: []string{},
		ReasonCodes:        []string{codeMeatDairy},
	}, true
}

// Aggregate folds ingredient results into a product verdict.
func Aggregate(results []Result) Verdict {
	return diet.Aggregate(results, Policy())
}
