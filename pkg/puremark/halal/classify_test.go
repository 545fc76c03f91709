package halal_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cognicore/puremark/pkg/puremark/certification"
	"github.com/cognicore/puremark/pkg/puremark/config"
	"github.com/cognicore/puremark/pkg/puremark/diet"
	"github.com/cognicore/puremark/pkg/puremark/halal"
	"github.com/cognicore/puremark/pkg/puremark/kb"
)

func newClassifier(t *testing.T, opts halal.Options) *halal.Classifier {
	t.Helper()
	k, err := config.Default()
	require.NoError(t, err)
	return halal.New(k, opts)
}

var noClaim = certification.None(kb.SchemeHalal)

func classify(c *halal.Classifier, s string) halal.Result {
	return c.Classify(diet.NewIngredient(s), noClaim)
}

func TestClassifyStrict(t *testing.T) {
	c := newClassifier(t, halal.DefaultOptions())
	cases := []struct {
		in     string
		status halal.Status
		conf   diet.Confidence
		code   string
	}{
		{"pork", halal.Haram, diet.High, "pork_haram"},
		{"pork, halal certified", halal.Haram, diet.High, "pork_haram"},
		{"lard", halal.Haram, diet.High, "pork_haram"},
		{"carmine", halal.Haram, diet.High, "insect_derived_haram"},
		{"gelatin", halal.NotVerified, diet.Low, "gelatin_source_unknown"},
		{"gelatin, JAKIM certified", halal.Confirmed, diet.High, "gelatin_source_unknown_but_certified"},
		{"fish gelatin", halal.Confirmed, diet.High, "fish_gelatin"},
		{"halal gelatin", halal.Confirmed, diet.High, "halal_gelatin_explicit"},
		{"beef gelatin", halal.NotVerified, diet.Low, "bovine_gelatin_unverified"},
		{"sunflower lecithin", halal.Confirmed, diet.High, "sunflower_lecithin_halal"},
		{"soy lecithin", halal.NotVerified, diet.Medium, "soy_lecithin_unverified_mushbooh"},
		{"soy lecithin (halal certified)", halal.Confirmed, diet.High, "soy_lecithin_certified_halal"},
		{"lecithin", halal.NotVerified, diet.Low, "lecithin_source_unspecified_mushbooh"},
		{"ethanol", halal.Haram, diet.High, "explicit_alcohol_haram"},
		{"vanilla bean", halal.Confirmed, diet.High, "halal_vanilla_alternative"},
		{"vanilla extract", halal.Haram, diet.High, "extract_alcohol_risk"},
		{"whey powder", halal.NotVerified, diet.Low, "dairy_rennet_unknown"},
		{"vegetable glycerin", halal.Confirmed, diet.High, "glycerin_plant_halal"},
		{"sugar", halal.Confirmed, diet.High, "inherently_halal_by_nature"},
		{"xylitol", halal.Confirmed, diet.Medium, "no_haram_indicators_detected"},
		{"natural flavors", halal.NotVerified, diet.Low, "natural_flavor_source_unknown"},
		{"honey", halal.Confirmed, diet.High, "bee_products_halal"},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			r := classify(c, tc.in)
			assert.Equal(t, tc.status, r.Status)
			assert.Equal(t, tc.conf, r.Confidence)
			assert.Contains(t, r.ReasonCodes, tc.code)
			assert.Equal(t, len(r.ReasonCodes), len(r.Evidence))
		})
	}
}

func TestStrictOffKeepsMushbooh(t *testing.T) {
	c := newClassifier(t, halal.Options{Strict: false})
	r := classify(c, "gelatin")
	assert.Equal(t, halal.Mushbooh, r.Status)
	assert.Equal(t, diet.Low, r.Confidence)
}

func TestWeakCertificationRaisesConfidence(t *testing.T) {
	c := newClassifier(t, halal.Options{Strict: false})
	r := classify(c, "gelatin, suitable for muslims")
	assert.Equal(t, halal.Mushbooh, r.Status)
	assert.Equal(t, diet.Medium, r.Confidence)
}

func TestProductClaimCertifies(t *testing.T) {
	c := newClassifier(t, halal.DefaultOptions())
	claim := certification.Signal{Scheme: kb.SchemeHalal, Strength: kb.StrengthHigh, Certifier: "JAKIM"}

	r := c.Classify(diet.NewIngredient("gelatin"), claim)
	assert.Equal(t, halal.Confirmed, r.Status)

	r = c.Classify(diet.NewIngredient("pork gelatin"), claim)
	assert.Equal(t, halal.Haram, r.Status)
}

func TestTranslatedLecithinUsesOriginal(t *testing.T) {
	c := newClassifier(t, halal.DefaultOptions())
	ing := diet.Ingredient{Original: "lécithine de tournesol", Normalized: "soy lecithin"}
	r := c.Classify(ing, noClaim)
	assert.Equal(t, halal.Confirmed, r.Status)
	assert.Contains(t, r.ReasonCodes, "sunflower_lecithin_halal")
}

func TestUnknownDefaultMushbooh(t *testing.T) {
	c := newClassifier(t, halal.Options{Strict: true, UnknownDefault: halal.DefaultMushbooh})
	r := classify(c, "xylitol")
	assert.Equal(t, halal.NotVerified, r.Status)
	assert.Equal(t, diet.Low, r.Confidence)

	// Inherently halal ingredients are unaffected.
	assert.Equal(t, halal.Confirmed, classify(c, "sugar").Status)
}

func TestClassifyIsDeterministic(t *testing.T) {
	c := newClassifier(t, halal.DefaultOptions())
	for _, in := range []string{"gelatin, JAKIM certified", "whey, starter culture, e471", "natural flavor"} {
		assert.Equal(t, classify(c, in), classify(c, in))
	}
}

func TestAggregate(t *testing.T) {
	c := newClassifier(t, halal.DefaultOptions())
	results := []halal.Result{classify(c, "sugar"), classify(c, "gelatin")}

	v := halal.Aggregate(results, true)
	assert.Equal(t, halal.NotVerified, v.Status)
	assert.Equal(t, diet.Low, v.Confidence)
	assert.Equal(t, []string{"gelatin"}, v.FailingIngredients)

	v = halal.Aggregate(append(results, classify(c, "pork")), true)
	assert.Equal(t, halal.Haram, v.Status)
	assert.Equal(t, diet.High, v.Confidence)
	assert.Equal(t, "Contains explicitly haram ingredient(s).", v.Reason)
	assert.Equal(t, []string{"pork"}, v.FailingIngredients)

	v = halal.Aggregate([]halal.Result{classify(c, "sugar"), classify(c, "salt")}, true)
	assert.Equal(t, halal.Confirmed, v.Status)
	assert.Equal(t, diet.Medium, v.Confidence)

	v = halal.Aggregate([]halal.Result{classify(newClassifier(t, halal.Options{}), "gelatin")}, false)
	assert.Equal(t, halal.Mushbooh, v.Status)
}

func TestParseDefault(t *testing.T) {
	d, err := halal.ParseDefault("Mushbooh")
	require.NoError(t, err)
	assert.Equal(t, halal.DefaultMushbooh, d)

	d, err = halal.ParseDefault("")
	require.NoError(t, err)
	assert.Equal(t, halal.DefaultHalal, d)

	_, err = halal.ParseDefault("maybe")
	assert.Error(t, err)
}
