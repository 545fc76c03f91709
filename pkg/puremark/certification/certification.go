// Package certification detects third-party religious certification claims
// in label text and grades them by strength.
package certification

import (
	"github.com/cognicore/puremark/pkg/puremark/kb"
	"github.com/cognicore/puremark/pkg/puremark/text"
)

// Signal is the strongest certification claim found in a text.
type Signal struct {
	Scheme    kb.Scheme   `json:"scheme"`
	Strength  kb.Strength `json:"strength"`
	Certifier string      `json:"certifier,omitempty"`
	Region    string      `json:"region,omitempty"`
	// Evidence names the rule that fired.
	Evidence string `json:"evidence,omitempty"`
}

// None is the absent signal for a scheme.
func None(scheme kb.Scheme) Signal {
	return Signal{Scheme: scheme, Strength: kb.StrengthNone}
}

// Strong reports a HIGH or MEDIUM claim, strong enough to settle a
// doubtful source.
func (s Signal) Strong() bool {
	return s.Strength == kb.StrengthHigh || s.Strength == kb.StrengthMedium
}

// Weak reports a WEAK claim such as "suitable for Muslims".
func (s Signal) Weak() bool {
	return s.Strength == kb.StrengthWeak
}

// Max returns the stronger of two signals, a on ties.
func Max(a, b Signal) Signal {
	if b.Strength.Rank() > a.Strength.Rank() {
		return b
	}
	return a
}

// Detector checks text against the certifier registry.
type Detector struct {
	schemes map[kb.Scheme]kb.CertScheme
}

// New builds a detector over the schemes of k.
func New(k *kb.KnowledgeBase) *Detector {
	return &Detector{schemes: k.Certification}
}

// Detect returns the first tier that matches s: a named certifier, a
// generic strong phrase (HIGH), a certification phrase (MEDIUM), then a
// weak signal. Tiers do not accumulate.
func (d *Detector) Detect(scheme kb.Scheme, s string) Signal {
	none := None(scheme)
	cs, ok := d.schemes[scheme]
	if !ok {
		return none
	}
	norm := text.Normalize(s)
	if norm == "" {
		return none
	}

	for _, c := range cs.Certifiers {
		if text.AnyMatch(norm, c.Terms) {
			return Signal{
				Scheme:    scheme,
				Strength:  c.Strength,
				Certifier: c.FullName,
				Region:    c.Region,
				Evidence:  "Recognized certifier: " + c.FullName,
			}
		}
	}
	if text.AnyMatch(norm, cs.GenericStrong) {
		return Signal{Scheme: scheme, Strength: kb.StrengthHigh, Evidence: "Generic " + string(scheme) + " certification"}
	}
	if text.AnyMatch(norm, cs.Phrases) {
		return Signal{Scheme: scheme, Strength: kb.StrengthMedium, Evidence: "Certification phrase detected"}
	}
	if text.AnyMatch(norm, cs.WeakSignals) {
		return Signal{Scheme: scheme, Strength: kb.StrengthWeak, Evidence: "Weak certification signal"}
	}
	return none
}

// DetectAll runs Detect over several texts and keeps the strongest signal.
func (d *Detector) DetectAll(scheme kb.Scheme, texts ...string) Signal {
	best := None(scheme)
	for _, t := range texts {
		best = Max(best, d.Detect(scheme, t))
	}
	return best
}
