package plant_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cognicore/puremark/pkg/puremark/config"
	"github.com/cognicore/puremark/pkg/puremark/diet"
	"github.com/cognicore/puremark/pkg/puremark/internalerr"
	"github.com/cognicore/puremark/pkg/puremark/plant"
)

func newClassifier(t *testing.T) *plant.Classifier {
	t.Helper()
	k, err := config.Default()
	require.NoError(t, err)
	return plant.New(k)
}

type plantCase struct {
	in     string
	status plant.Status
	code   string
}

func run(t *testing.T, d diet.Diet, cases []plantCase) {
	t.Helper()
	c := newClassifier(t)
	for _, tc := range cases {
		t.Run(string(d)+"/"+tc.in, func(t *testing.T) {
			r, err := c.Classify(diet.NewIngredient(tc.in), d)
			require.NoError(t, err)
			assert.Equal(t, tc.status, r.Status)
			assert.Equal(t, []string{tc.code}, r.ReasonCodes)
			assert.Len(t, r.Evidence, 1)
		})
	}
}

func TestVegan(t *testing.T) {
	run(t, diet.Vegan, []plantCase{
		{"sunflower lecithin", plant.Compliant, "explicitly_vegan"},
		{"lecithin", plant.Uncertain, "possibly_animal_derived"},
		{"cocoa butter", plant.Compliant, "plant_based"},
		{"coconut milk", plant.Compliant, "plant_based"},
		{"milk chocolate", plant.NotCompliant, "contains_dairy"},
		{"chicken broth", plant.NotCompliant, "contains_meat"},
		{"anchovy", plant.NotCompliant, "contains_seafood"},
		{"egg yolk", plant.NotCompliant, "contains_egg"},
		{"honey", plant.NotCompliant, "contains_bee_product"},
		{"gelatin", plant.NotCompliant, "animal_derived_additive"},
		{"sugar", plant.Compliant, "plant_based"},
	})
}

func TestVegetarian(t *testing.T) {
	run(t, diet.Vegetarian, []plantCase{
		{"fish gelatin", plant.NotCompliant, "contains_seafood"},
		{"gelatin", plant.NotCompliant, "animal_derived"},
		{"chicken", plant.NotCompliant, "contains_meat"},
		{"milk", plant.Compliant, "vegetarian_compliant"},
		{"honey", plant.Compliant, "vegetarian_compliant"},
		{"vegetable glycerin", plant.Compliant, "plant_derived"},
		{"glycerin", plant.Uncertain, "possibly_animal_derived"},
		{"vegetarian cheese", plant.Compliant, "explicitly_vegetarian"},
	})
}

func TestPescetarian(t *testing.T) {
	run(t, diet.Pescetarian, []plantCase{
		{"fish gelatin", plant.Compliant, "fish_allowed"},
		{"tuna", plant.Compliant, "fish_allowed"},
		{"gelatin", plant.Uncertain, "gelatin_source_unknown"},
		{"pork gelatin", plant.NotCompliant, "contains_meat"},
		{"beef", plant.NotCompliant, "contains_meat"},
		{"milk", plant.Compliant, "pescetarian_compliant"},
	})
}

func TestClassifyRejectsOtherDiets(t *testing.T) {
	_, err := newClassifier(t).Classify(diet.NewIngredient("sugar"), diet.Halal)
	assert.True(t, errors.Is(err, internalerr.ErrUnknownDiet))
}

func TestAggregate(t *testing.T) {
	c := newClassifier(t)
	vegan := func(in ...string) []plant.Result {
		var out []plant.Result
		for _, s := range in {
			out = append(out, c.Vegan(diet.NewIngredient(s)))
		}
		return out
	}

	v := plant.Aggregate(vegan("sugar", "gelatin", "lecithin"), diet.Vegan)
	assert.Equal(t, plant.NotCompliant, v.Status)
	assert.Equal(t, diet.High, v.Confidence)
	assert.Equal(t, "Contains non-vegan ingredient(s).", v.Reason)
	assert.Equal(t, []string{"gelatin"}, v.FailingIngredients)
	assert.Equal(t, []string{"animal_derived_additive"}, v.ReasonCodes)

	v = plant.Aggregate(vegan("sugar", "lecithin"), diet.Vegan)
	assert.Equal(t, plant.Uncertain, v.Status)
	assert.Equal(t, diet.Low, v.Confidence)
	assert.Equal(t, "Contains ingredient(s) with uncertain vegan status.", v.Reason)

	v = plant.Aggregate(vegan("sugar", "cocoa butter"), diet.Vegan)
	assert.Equal(t, plant.Compliant, v.Status)
	assert.Equal(t, "All ingredients appear vegan-compliant.", v.Reason)
}
