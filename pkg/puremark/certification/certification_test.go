package certification_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cognicore/puremark/pkg/puremark/certification"
	"github.com/cognicore/puremark/pkg/puremark/config"
	"github.com/cognicore/puremark/pkg/puremark/kb"
)

func newDetector(t *testing.T) *certification.Detector {
	t.Helper()
	k, err := config.Default()
	require.NoError(t, err)
	return certification.New(k)
}

func TestDetectHalalTiers(t *testing.T) {
	d := newDetector(t)
	cases := []struct {
		in        string
		strength  kb.Strength
		certifier string
	}{
		{"gelatin, JAKIM certified", kb.StrengthHigh, "JAKIM"},
		{"certified by IFANCA", kb.StrengthHigh, "IFANCA"},
		{"Halal Certified beef", kb.StrengthHigh, ""},
		{"100% halal", kb.StrengthMedium, ""},
		{"suitable for Muslims", kb.StrengthWeak, ""},
		{"sugar", kb.StrengthNone, ""},
		{"", kb.StrengthNone, ""},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			s := d.Detect(kb.SchemeHalal, tc.in)
			assert.Equal(t, tc.strength, s.Strength)
			assert.Equal(t, tc.certifier, s.Certifier)
			assert.Equal(t, kb.SchemeHalal, s.Scheme)
		})
	}
}

// Certifier names are whole words: "mui" must not fire inside "muir".
func TestDetectCertifierNeedsWordBoundary(t *testing.T) {
	d := newDetector(t)
	assert.Equal(t, kb.StrengthNone, d.Detect(kb.SchemeHalal, "muir glen tomatoes").Strength)
}

func TestDetectKosher(t *testing.T) {
	d := newDetector(t)

	s := d.Detect(kb.SchemeKosher, "Star-K supervised")
	assert.Equal(t, kb.StrengthHigh, s.Strength)
	assert.Equal(t, "usa", s.Region)

	assert.Equal(t, kb.StrengthMedium, d.Detect(kb.SchemeKosher, "pareve").Strength)
	assert.Equal(t, kb.StrengthNone, d.Detect(kb.SchemeKosher, "halal certified").Strength)
}

func TestStrongAndMax(t *testing.T) {
	high := certification.Signal{Strength: kb.StrengthHigh}
	weak := certification.Signal{Strength: kb.StrengthWeak}
	none := certification.None(kb.SchemeHalal)

	assert.True(t, high.Strong())
	assert.True(t, certification.Signal{Strength: kb.StrengthMedium}.Strong())
	assert.False(t, weak.Strong())
	assert.True(t, weak.Weak())
	assert.Equal(t, high, certification.Max(weak, high))
	assert.Equal(t, weak, certification.Max(weak, none))
}

func TestDetectAllKeepsStrongest(t *testing.T) {
	d := newDetector(t)
	s := d.DetectAll(kb.SchemeHalal, "no pork", "", "halal approved")
	assert.Equal(t, kb.StrengthMedium, s.Strength)
}
