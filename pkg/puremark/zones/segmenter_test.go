package zones_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cognicore/puremark/pkg/puremark/config"
	"github.com/cognicore/puremark/pkg/puremark/zones"
)

func newSegmenter(t *testing.T) *zones.Segmenter {
	t.Helper()
	k, err := config.Default()
	require.NoError(t, err)
	return zones.New(k.Zones)
}

const chocolate = "Chocolate negro 85% Ingredientes: pasta de cacao, azúcar, manteca de cacao, emulgente (lecitina de soja), aroma. Puede contener: leche, frutos secos."

func TestSegmentLabeledSpanishLabel(t *testing.T) {
	res := newSegmenter(t).Segment(chocolate)

	assert.Equal(t, zones.StatusOK, res.Status)
	assert.Equal(t, "es", res.Language)
	assert.Equal(t, "Chocolate negro 85%", res.HeaderZone)
	assert.True(t, strings.HasPrefix(res.IngredientZone, "pasta de cacao"), res.IngredientZone)
	assert.Equal(t, "pasta de cacao, azúcar, manteca de cacao, emulgente (lecitina de soja), aroma.", res.IngredientZone)
	assert.Equal(t, "Puede contener: leche, frutos secos.", res.AdvisoryZone)
	assert.NotEmpty(t, res.Notes)
}

func TestSegmentTooShort(t *testing.T) {
	for _, raw := range []string{"", "   ", "abc", " ab \n"} {
		res := newSegmenter(t).Segment(raw)
		assert.Equal(t, zones.StatusNoIngredients, res.Status, "input %q", raw)
		assert.Empty(t, res.IngredientZone)
		assert.Equal(t, zones.LanguageUnknown, res.Language)
	}
}

func TestSegmentMergedHeader(t *testing.T) {
	res := newSegmenter(t).Segment("Ingre dientes: azúcar, sal, agua. Puede contener: soja")

	require.Equal(t, zones.StatusOK, res.Status)
	assert.Equal(t, "azúcar, sal, agua.", res.IngredientZone)
	assert.Equal(t, "Puede contener: soja", res.AdvisoryZone)
}

func TestSegmentFoldedHeader(t *testing.T) {
	res := newSegmenter(t).Segment("Tableta Ingrédientes: azúcar, sal, harina de trigo")

	require.Equal(t, zones.StatusOK, res.Status)
	assert.Equal(t, "Tableta", res.HeaderZone)
	assert.Equal(t, "azúcar, sal, harina de trigo", res.IngredientZone)
}

func TestSegmentIgnoresAdvisoryBeforeIngredients(t *testing.T) {
	res := newSegmenter(t).Segment("Contains: nuts. Ingredients: sugar, cocoa butter, milk powder.")

	require.Equal(t, zones.StatusOK, res.Status)
	assert.Equal(t, "Contains: nuts.", res.HeaderZone)
	assert.Equal(t, "sugar, cocoa butter, milk powder.", res.IngredientZone)
	assert.Empty(t, res.AdvisoryZone)
}

func TestSegmentDropsNonIngredientLines(t *testing.T) {
	raw := "Ingredients:\nsugar, cocoa butter\n250 g\nBest before 12/2025\n4006381333931\nmilk powder"
	res := newSegmenter(t).Segment(raw)

	require.Equal(t, zones.StatusOK, res.Status)
	assert.Equal(t, "sugar, cocoa butter milk powder", res.IngredientZone)
}

func TestSegmentZoneTooShortAfterCleanup(t *testing.T) {
	res := newSegmenter(t).Segment("Ingredients: 100% cocoa")

	assert.Equal(t, zones.StatusUnverified, res.Status)
	assert.Empty(t, res.IngredientZone)
	assert.False(t, res.Accept(zones.DefaultAcceptChars))
}

func TestSegmentFallback(t *testing.T) {
	raw := "Chocolate negro 85% Cacao: 78% pasta de cacao, azúcar, manteca de cacao, lecitina"
	res := newSegmenter(t).Segment(raw)

	require.Equal(t, zones.StatusUnverified, res.Status)
	assert.Equal(t, "78% pasta de cacao, azúcar, manteca de cacao, lecitina", res.IngredientZone)
	assert.Empty(t, res.HeaderZone)
	assert.True(t, res.Accept(zones.DefaultAcceptChars))
}

func TestSegmentFallbackCutsAtAdvisory(t *testing.T) {
	raw := "sugar, wheat flour, palm oil, salt. May contain: sesame"
	res := newSegmenter(t).Segment(raw)

	require.Equal(t, zones.StatusUnverified, res.Status)
	assert.Equal(t, "sugar, wheat flour, palm oil, salt.", res.IngredientZone)
	assert.Equal(t, "May contain: sesame", res.AdvisoryZone)
}

func TestSegmentFallbackShape(t *testing.T) {
	cases := []struct {
		raw  string
		want zones.Status
	}{
		{"sugar, salt; water flour milk", zones.StatusUnverified},
		{"sugar; salt; wheat flour milk", zones.StatusUnverified},
		{"sugar, salt, wheat flour milk", zones.StatusUnverified},
		{"sugar;salt;water", zones.StatusNoIngredients},
		{"sugar, salt water flour milk", zones.StatusNoIngredients},
		{"water, stones, sand, gravel, dust", zones.StatusNoIngredients},
	}
	seg := newSegmenter(t)
	for _, tc := range cases {
		t.Run(tc.raw, func(t *testing.T) {
			assert.Equal(t, tc.want, seg.Segment(tc.raw).Status)
		})
	}
}

func TestSegmentNoIngredients(t *testing.T) {
	seg := newSegmenter(t)

	res := seg.Segment("Best chocolate in the world, made with love, since 1902")
	assert.Equal(t, zones.StatusNoIngredients, res.Status)
	assert.Empty(t, res.IngredientZone)
	assert.Equal(t, "Best chocolate in the world, made with love, since 1902", res.HeaderZone)

	res = seg.Segment("Premium quality product. May contain traces of nuts.")
	assert.Equal(t, zones.StatusNoIngredients, res.Status)
	assert.Equal(t, "Premium quality product.", res.HeaderZone)
	assert.Equal(t, "May contain traces of nuts.", res.AdvisoryZone)
}

func TestSegmentZonesAreOrderedSlices(t *testing.T) {
	inputs := []string{
		chocolate,
		"Contains: nuts. Ingredients: sugar, cocoa butter, milk powder.",
		"Zutaten: Zucker, Kakaobutter, Vollmilchpulver. Kann Spuren enthalten von Nüssen.",
		"sugar, wheat flour, palm oil, salt. May contain: sesame",
		"Premium quality product. May contain traces of nuts.",
		"INGREDIENTS:\n\nwater\nsugar\n\nallergens: none",
		"ingredientes ingredientes: sal, sal, sal. contiene contiene",
	}
	seg := newSegmenter(t)
	for _, raw := range inputs {
		res := seg.Segment(raw)
		spans := []zones.Span{res.Header, res.Ingredients, res.Advisory}
		last := 0
		for _, sp := range spans {
			if sp.Empty() {
				continue
			}
			assert.GreaterOrEqual(t, sp.Start, last, "overlapping zones in %q", raw)
			assert.LessOrEqual(t, sp.End, len(raw))
			last = sp.End
		}
		assert.Equal(t, res.HeaderZone, res.Header.Of(raw))
		assert.Equal(t, res.AdvisoryZone, res.Advisory.Of(raw))
	}
}

func TestAccept(t *testing.T) {
	cases := []struct {
		name string
		res  zones.Result
		want bool
	}{
		{"ok", zones.Result{Status: zones.StatusOK, IngredientZone: "sugar"}, true},
		{"ok empty", zones.Result{Status: zones.StatusOK}, false},
		{"unverified long", zones.Result{Status: zones.StatusUnverified, IngredientZone: "sugar, salt, flour"}, true},
		{"unverified short", zones.Result{Status: zones.StatusUnverified, IngredientZone: "sugar"}, false},
		{"none", zones.Result{Status: zones.StatusNoIngredients, IngredientZone: "sugar, salt, flour"}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.res.Accept(zones.DefaultAcceptChars))
		})
	}
}
