package allergen_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cognicore/puremark/pkg/puremark/allergen"
	"github.com/cognicore/puremark/pkg/puremark/config"
	"github.com/cognicore/puremark/pkg/puremark/diet"
)

func newDetector(t *testing.T) *allergen.Detector {
	t.Helper()
	k, err := config.Default()
	require.NoError(t, err)
	return allergen.New(k)
}

func TestCheckAllergy(t *testing.T) {
	d := newDetector(t)
	cases := []struct {
		in        string
		allergies []string
		want      bool
	}{
		{"sunflower lecithin", []string{"soy"}, false},
		{"soy lecithin", []string{"soy"}, true},
		{"lecithin (soya)", []string{"soya"}, true},
		{"egg lecithin", []string{"egg"}, true},
		{"egg lecithin", []string{"soy"}, false},
		{"lecithin", []string{"soy"}, true},
		{"lecithin", []string{"milk"}, false},
		{"whey powder", []string{"dairy"}, true},
		{"roasted peanuts", []string{"peanut"}, true},
		{"almond flour", []string{"nuts"}, true},
		{"sugar", []string{"milk", "soy"}, false},
		{"lupin flour", []string{"lupin"}, true},
		{"milk", nil, false},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			assert.Equal(t, tc.want, d.CheckAllergy(tc.in, tc.allergies))
		})
	}
}

func TestCheckAllergyDetailed(t *testing.T) {
	d := newDetector(t)

	m := d.CheckAllergyDetailed("soy lecithin", []string{"soy"})
	assert.Equal(t, allergen.Match{
		IsAllergen:   true,
		AllergenType: "soy",
		Confirmed:    true,
		Explanation:  "Soy lecithin contains soy",
	}, m)

	m = d.CheckAllergyDetailed("lecithin", []string{"soy"})
	assert.True(t, m.IsAllergen)
	assert.False(t, m.Confirmed)
	assert.Equal(t, "Lecithin source unspecified - may contain soy", m.Explanation)

	m = d.CheckAllergyDetailed("sunflower lecithin", []string{"soy"})
	assert.False(t, m.IsAllergen)
	assert.Contains(t, m.Explanation, "Sunflower lecithin detected")
	assert.Contains(t, m.Explanation, "no allergen match")

	m = d.CheckAllergyDetailed("skimmed milk powder", []string{"milk"})
	assert.Equal(t, "Contains milk", m.Explanation)
	assert.True(t, m.Confirmed)
}

// The translation says soy, but the label itself says sunflower.
func TestCheckIngredientPrefersOriginal(t *testing.T) {
	d := newDetector(t)
	ing := diet.Ingredient{Original: "lecitina de girasol", Normalized: "soy lecithin"}
	assert.False(t, d.CheckIngredient(ing, []string{"soy"}).IsAllergen)
}

func TestDetect(t *testing.T) {
	d := newDetector(t)
	cases := []struct {
		in   string
		want []string
	}{
		{"soy lecithin", []string{"Soy"}},
		{"egg lecithin", []string{"Eggs"}},
		{"lecithin", []string{allergen.PossibleSoy}},
		{"sunflower lecithin", nil},
		{"rapeseed lecithin", nil},
		{"wheat flour", []string{"Wheat"}},
		{"milk chocolate with hazelnuts", []string{"Tree Nuts", "Milk"}},
		{"sugar", nil},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			assert.Equal(t, tc.want, d.Detect(diet.NewIngredient(tc.in)))
		})
	}
}

func TestExtractFromAdvisory(t *testing.T) {
	d := newDetector(t)
	cases := []struct {
		in   string
		want []string
	}{
		{"Puede contener: leche, frutos secos.", []string{"milk", "tree nuts"}},
		{"May contain traces of peanuts and sesame", []string{"peanuts", "sesame"}},
		{"Peut contenir des traces de lait et d'œufs", []string{"egg", "milk"}},
		{"Kann Spuren von Erdnüssen enthalten", nil},
		{"", nil},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			got := d.ExtractFromAdvisory(tc.in)
			if tc.want == nil {
				assert.Empty(t, got)
				return
			}
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestAdvisoryLabel(t *testing.T) {
	assert.Equal(t, "milk (may contain)", allergen.AdvisoryLabel("milk"))
}
