package text

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	assert.Equal(t, "soy lecithin", Normalize("  Soy \t Lecithin\n"))
	assert.Equal(t, "crème - fraîche's", Normalize("Crème – Fraîche’s"))
	assert.Equal(t, "", Normalize("   "))
}

func TestFold(t *testing.T) {
	assert.Equal(t, "lecithine de tournesol", Fold("Lécithine de  Tournesol"))
	assert.Equal(t, "oeufs", Fold("Œufs"))
	assert.Equal(t, "azucar", Fold("AZÚCAR"))
}

func TestFoldIndexedMapsBackToSource(t *testing.T) {
	src := "Ingrédients: sucre"
	folded, offsets := FoldIndexed(src)
	require.Equal(t, "ingredients: sucre", folded)
	require.Len(t, offsets, len(folded)+1)

	end := len("ingredients")
	assert.Equal(t, ":", src[offsets[end]:offsets[end]+1])
	assert.Equal(t, len(src), offsets[len(folded)])
}

func TestMatchesWordBoundary(t *testing.T) {
	cases := []struct {
		haystack, phrase string
		want             bool
	}{
		{"goat cheese", "oat", false},
		{"rolled oats, oat flour", "oat", true},
		{"gelatin", "gel", false},
		{"aloe vera gel", "gel", true},
		{"gélatine", "latine", false},
		{"omega-3 fish oil", "omega-3", true},
		{"Vegetable Glycerin", "vegetable glycerin", true},
		{"", "salt", false},
		{"salt", "", false},
	}
	for _, tc := range cases {
		t.Run(tc.haystack+"/"+tc.phrase, func(t *testing.T) {
			assert.Equal(t, tc.want, Matches(tc.haystack, tc.phrase))
		})
	}
}

func TestMatchesFolded(t *testing.T) {
	assert.True(t, MatchesFolded("Gélatine de porc", "gelatine de porc"))
	assert.False(t, Matches("Gélatine de porc", "gelatine de porc"))
}

func TestAnyMatchAndFirstMatch(t *testing.T) {
	phrases := []string{"vanilla bean", "vanilla extract"}
	got, ok := FirstMatch("Bourbon Vanilla Extract", phrases)
	require.True(t, ok)
	assert.Equal(t, "vanilla extract", got)

	assert.True(t, AnyMatch("ground vanilla bean", phrases))
	assert.False(t, AnyMatch("vanillin", phrases))
	assert.True(t, AnyMatchFolded("crème fraîche", []string{"creme fraiche"}))
}

func TestIndexWord(t *testing.T) {
	assert.Equal(t, -1, IndexWord("tiene leche", "contiene"))
	assert.Equal(t, 6, IndexWord("tiene contiene leche", "contiene"))
	assert.Equal(t, 0, IndexWord("contiene", "contiene"))
}

func TestExtractENumbers(t *testing.T) {
	got := ExtractENumbers("emulsifier (E471), colour: e-150a, E 330 and E number 1422, E471")
	assert.Equal(t, []string{"1422", "150a", "330", "471"}, got)
	assert.Nil(t, ExtractENumbers("sugar, cocoa butter"))
	assert.Nil(t, ExtractENumbers("spice 120"))
}

func TestDedupe(t *testing.T) {
	assert.Equal(t, []string{"b", "a"}, Dedupe([]string{"b", "", "a", "b"}))
	assert.Nil(t, Dedupe(nil))
}
