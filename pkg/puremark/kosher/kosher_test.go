package kosher_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cognicore/puremark/pkg/puremark/certification"
	"github.com/cognicore/puremark/pkg/puremark/config"
	"github.com/cognicore/puremark/pkg/puremark/diet"
	"github.com/cognicore/puremark/pkg/puremark/kb"
	"github.com/cognicore/puremark/pkg/puremark/kosher"
)

func newClassifier(t *testing.T) *kosher.Classifier {
	t.Helper()
	k, err := config.Default()
	require.NoError(t, err)
	return kosher.New(k)
}

func classify(c *kosher.Classifier, s string) kosher.Result {
	return c.Classify(diet.NewIngredient(s), certification.None(kb.SchemeKosher))
}

func TestClassify(t *testing.T) {
	c := newClassifier(t)
	cases := []struct {
		in     string
		status kosher.Status
		conf   diet.Confidence
		code   string
	}{
		{"pork", kosher.NotKosher, diet.High, "forbidden_land_animal"},
		{"pork gelatin", kosher.NotKosher, diet.High, "forbidden_land_animal"},
		{"shrimp", kosher.NotKosher, diet.High, "forbidden_seafood"},
		{"carmine", kosher.NotKosher, diet.High, "insect_derived"},
		{"blood plasma", kosher.NotKosher, diet.High, "blood_product"},
		{"wine", kosher.RequiresCertification, diet.Medium, "grape_product_requires_supervision"},
		{"wine, OU kosher", kosher.Confirmed, diet.High, "grape_product_certified"},
		{"cheeseburger", kosher.NotKosher, diet.High, "meat_dairy_combination"},
		{"gelatin", kosher.RequiresCertification, diet.Low, "gelatin_source_unknown"},
		{"gelatin, certified kosher", kosher.Confirmed, diet.High, "gelatin_certified"},
		{"fish gelatin", kosher.Confirmed, diet.Medium, "gelatin_kosher"},
		{"animal rennet", kosher.NotKosher, diet.High, "rennet_not_kosher"},
		{"glycerin", kosher.Confirmed, diet.Medium, "glycerin_likely_plant"},
		{"milk", kosher.Confirmed, diet.Medium, "dairy_ingredient"},
		{"beef", kosher.RequiresCertification, diet.Medium, "meat_requires_certification"},
		{"chicken, OU kosher", kosher.Confirmed, diet.High, "meat_kosher_certified"},
		{"sugar", kosher.Confirmed, diet.High, "plant_based_kosher"},
		{"xylitol", kosher.Confirmed, diet.Medium, "no_kosher_concerns"},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			r := classify(c, tc.in)
			assert.Equal(t, tc.status, r.Status)
			assert.Equal(t, tc.conf, r.Confidence)
			assert.Contains(t, r.ReasonCodes, tc.code)
		})
	}
}

func TestEvidenceNamesFamily(t *testing.T) {
	r := classify(newClassifier(t), "glycerin")
	assert.Equal(t, []string{"Glycerin (commonly plant-derived in modern food)"}, r.Evidence)
}

func TestTags(t *testing.T) {
	c := newClassifier(t)
	assert.Equal(t, []kosher.Tag{kosher.TagDairy}, kosher.Tags(classify(c, "milk")))
	assert.Equal(t, []kosher.Tag{kosher.TagMeat}, kosher.Tags(classify(c, "beef")))
	assert.Equal(t, []kosher.Tag{kosher.TagPareve}, kosher.Tags(classify(c, "sugar")))
	assert.Equal(t, []kosher.Tag{kosher.TagDairy, kosher.TagMeat}, kosher.Tags(classify(c, "cheeseburger")))
}

func TestAggregate(t *testing.T) {
	c := newClassifier(t)

	v := kosher.Aggregate([]kosher.Result{classify(c, "sugar"), classify(c, "milk")})
	assert.Equal(t, kosher.Confirmed, v.Status)
	assert.Equal(t, diet.Medium, v.Confidence)
	assert.Equal(t, "All detected ingredients appear kosher.", v.Reason)

	v = kosher.Aggregate([]kosher.Result{classify(c, "sugar"), classify(c, "gelatin")})
	assert.Equal(t, kosher.RequiresCertification, v.Status)
	assert.Equal(t, diet.Low, v.Confidence)
	assert.Equal(t, []string{"gelatin"}, v.FailingIngredients)

	v = kosher.Aggregate([]kosher.Result{classify(c, "gelatin"), classify(c, "pork")})
	assert.Equal(t, kosher.NotKosher, v.Status)
	assert.Equal(t, []string{"pork"}, v.FailingIngredients)
}

// Certified meat and plain milk each pass, but not together.
func TestAggregateMeatWithDairy(t *testing.T) {
	c := newClassifier(t)
	meat := classify(c, "chicken, OU kosher")
	milk := classify(c, "milk")
	require.Equal(t, kosher.Confirmed, meat.Status)
	require.Equal(t, kosher.Confirmed, milk.Status)

	v := kosher.Aggregate([]kosher.Result{meat, classify(c, "sugar"), milk})
	assert.Equal(t, kosher.NotKosher, v.Status)
	assert.Equal(t, diet.High, v.Confidence)
	assert.Equal(t, "Contains both meat and dairy ingredients.", v.Reason)
	assert.Equal(t, []string{"meat_dairy_combination"}, v.ReasonCodes)
	assert.Empty(t, v.FailingIngredients)
}
