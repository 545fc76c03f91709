package zones

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode"

	"github.com/cognicore/puremark/pkg/puremark/kb"
	"github.com/cognicore/puremark/pkg/puremark/text"
)

const (
	minRawChars  = 5
	minZoneChars = 5
	// Headers shorter than this are not matched with spaces removed.
	minMergedHeader = 8
	// A fallback zone is only cut at an advisory marker past this offset.
	minFallbackCut = 10
	// Unlabeled text needs this list shape to count as ingredients.
	minFallbackSeps  = 2
	minFallbackWords = 5
	// Prefix heuristics only look this far into the text.
	prefixCommaWindow = 50
	prefixTermWindow  = 100
	minPrefixRest     = 20
)

var (
	percentPrefixRe = regexp.MustCompile(`\d+\s*%[^:]*:\s*`)
	numbersOnlyRe   = regexp.MustCompile(`^[\d\s.,]+$`)
	doubleSepRe     = regexp.MustCompile(`[,;]\s*[,;]`)
	spacesRe        = regexp.MustCompile(`\s+`)
)

// Segmenter finds zones using the markers of a knowledge base.
// It is safe for concurrent use.
type Segmenter struct {
	zones      kb.Zones
	ingredient []marker
	advisory   []marker
}

type marker struct {
	header string
	folded string
	merged string
}

// New builds a segmenter from the zone registry.
func New(z kb.Zones) *Segmenter {
	return &Segmenter{
		zones:      z,
		ingredient: markers(z.IngredientHeaders),
		advisory:   markers(z.AdvisoryHeaders),
	}
}

func markers(headers []string) []marker {
	out := make([]marker, 0, len(headers))
	for _, h := range headers {
		m := marker{header: strings.ToLower(h), folded: text.Fold(h)}
		if merged := strings.ReplaceAll(m.folded, " ", ""); len([]rune(merged)) >= minMergedHeader {
			m.merged = merged
		}
		out = append(out, m)
	}
	return out
}

// Segment splits raw label text into zones. It never fails: text it cannot
// make sense of comes back as NO_INGREDIENTS.
func (s *Segmenter) Segment(raw string) Result {
	if len(strings.TrimSpace(raw)) < minRawChars {
		return Result{
			Language: LanguageUnknown,
			Status:   StatusNoIngredients,
			Notes:    []string{"raw text too short or empty"},
		}
	}

	v := newViews(raw)
	res := Result{Language: s.language(v.lower.s)}
	res.Notes = append(res.Notes, "detected language: "+res.Language)

	ing, hasIng := s.find(v, s.ingredient, 0)
	advFrom := 0
	ingStart := 0
	if hasIng {
		ingStart = skipSeparators(raw, ing.end)
		advFrom = ingStart
		res.Notes = append(res.Notes, fmt.Sprintf("ingredient header %q at %d", ing.header, ing.start))
	}
	adv, hasAdv := s.find(v, s.advisory, advFrom)
	if hasAdv {
		res.Notes = append(res.Notes, fmt.Sprintf("advisory header %q at %d", adv.header, adv.start))
	}

	if !hasIng {
		return s.fallback(raw, res, adv, hasAdv)
	}

	res.Header = trimSpan(raw, Span{0, ing.start})
	end := len(raw)
	if hasAdv {
		end = adv.start
		res.Advisory = trimSpan(raw, Span{adv.start, len(raw)})
	}
	res.Ingredients = trimSpan(raw, Span{ingStart, end})
	res.Notes = append(res.Notes, fmt.Sprintf("ingredient zone: bytes %d-%d", res.Ingredients.Start, res.Ingredients.End))
	res.HeaderZone = res.Header.Of(raw)
	res.AdvisoryZone = res.Advisory.Of(raw)
	res.IngredientZone = s.clean(res.Ingredients.Of(raw))

	if len([]rune(res.IngredientZone)) < minZoneChars {
		res.Status = StatusUnverified
		res.Notes = append(res.Notes, "ingredient zone too short after cleanup")
		return res
	}
	res.Status = StatusOK
	return res
}

// fallback accepts unlabeled text that has the shape of an ingredient list.
func (s *Segmenter) fallback(raw string, res Result, adv match, hasAdv bool) Result {
	res.Notes = append(res.Notes, "no ingredient header found")

	if !s.looksLikeIngredients(raw) {
		res.Notes = append(res.Notes, "no ingredient-like content in fallback")
		res.Status = StatusNoIngredients
		if hasAdv {
			res.Header = trimSpan(raw, Span{0, adv.start})
			res.Advisory = trimSpan(raw, Span{adv.start, len(raw)})
		} else {
			res.Header = trimSpan(raw, Span{0, len(raw)})
		}
		res.HeaderZone = res.Header.Of(raw)
		res.AdvisoryZone = res.Advisory.Of(raw)
		return res
	}

	end := len(raw)
	if hasAdv {
		if adv.start > minFallbackCut {
			end = adv.start
			res.Advisory = trimSpan(raw, Span{adv.start, len(raw)})
			res.AdvisoryZone = res.Advisory.Of(raw)
		} else {
			res.Notes = append(res.Notes, "advisory header too close to start, ignored")
		}
	}
	zone := trimSpan(raw, Span{0, end})
	zone.Start += s.productPrefix(zone.Of(raw))
	res.Ingredients = trimSpan(raw, zone)
	res.IngredientZone = res.Ingredients.Of(raw)
	res.Status = StatusUnverified
	res.Notes = append(res.Notes, fmt.Sprintf("fallback: extracted %d chars as potential ingredients", len(res.IngredientZone)))
	return res
}

func (s *Segmenter) language(lower string) string {
	for _, l := range s.zones.Languages {
		for _, m := range l.Markers {
			if strings.Contains(lower, m) {
				return l.Lang
			}
		}
	}
	return LanguageUnknown
}

type match struct {
	header     string
	start, end int
}

// find returns the earliest marker occurrence at or after raw offset from.
// Each marker is tried exact, then accent-folded, then with spaces removed.
// On equal positions the longer match wins.
func (s *Segmenter) find(v views, ms []marker, from int) (match, bool) {
	var best match
	found := false
	consider := func(m match) {
		if !found || m.start < best.start || (m.start == best.start && m.end > best.end) {
			best = m
			found = true
		}
	}
	for _, m := range ms {
		if hit, ok := v.lower.index(m.header, from, true); ok {
			hit.header = m.header
			consider(hit)
			continue
		}
		if hit, ok := v.folded.index(m.folded, from, true); ok {
			hit.header = m.header
			consider(hit)
			continue
		}
		if m.merged == "" {
			continue
		}
		if hit, ok := v.merged.index(m.merged, from, false); ok {
			hit.header = m.header
			consider(hit)
		}
	}
	return best, found
}

// clean drops non-ingredient lines and tidies separators.
func (s *Segmenter) clean(zone string) string {
	var kept []string
	for _, line := range strings.Split(zone, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || s.nonIngredient(line) {
			continue
		}
		kept = append(kept, line)
	}
	out := spacesRe.ReplaceAllString(strings.Join(kept, " "), " ")
	out = doubleSepRe.ReplaceAllString(out, ",")
	return strings.TrimSpace(out)
}

func (s *Segmenter) nonIngredient(line string) bool {
	lower := strings.ToLower(line)
	if len([]rune(lower)) < 2 {
		return true
	}
	for _, re := range s.zones.NonIngredient {
		if re.MatchString(lower) {
			return true
		}
	}
	return numbersOnlyRe.MatchString(lower)
}

// looksLikeIngredients requires at least two known food terms and a list
// shape: two separators, commas and semicolons counted together, and five
// words.
func (s *Segmenter) looksLikeIngredients(raw string) bool {
	norm := text.Normalize(raw)
	terms := 0
	for _, t := range s.zones.CommonTerms {
		if text.Matches(norm, t) {
			terms++
			if terms >= 2 {
				break
			}
		}
	}
	if terms < 2 {
		return false
	}
	seps := strings.Count(raw, ",") + strings.Count(raw, ";")
	return seps >= minFallbackSeps && len(strings.Fields(raw)) >= minFallbackWords
}

// productPrefix returns how many bytes of a product name or percentage
// claim precede the ingredient list, or 0 when no prefix is recognised.
func (s *Segmenter) productPrefix(zone string) int {
	lower := lowerSameWidth(zone)
	strong := s.zones.StrongTerms()

	if loc := percentPrefixRe.FindStringIndex(zone); loc != nil {
		rest := lower[loc[1]:]
		if len(rest) > minPrefixRest && containsAny(rest, strong) {
			return loc[1]
		}
	}

	comma := strings.IndexByte(zone, ',')
	if comma <= 0 || comma >= prefixCommaWindow {
		return 0
	}
	if !strings.Contains(lower[:comma], "%") || !containsAny(lower[comma:], strong) {
		return 0
	}
	for _, t := range s.zones.CommonTerms {
		pos := strings.Index(lower, t)
		if pos < 0 || pos >= prefixTermWindow {
			continue
		}
		start := pos
		for start > 0 && !strings.ContainsRune(",;:", rune(zone[start-1])) {
			start--
		}
		for start < len(zone) && (zone[start] == ' ' || zone[start] == '\t' || zone[start] == '\n') {
			start++
		}
		return start
	}
	return 0
}

func containsAny(s string, terms []string) bool {
	for _, t := range terms {
		if strings.Contains(s, t) {
			return true
		}
	}
	return false
}

// lowerSameWidth lowercases the runes whose lowercase form has the same
// encoded width, so byte offsets stay valid in the original.
func lowerSameWidth(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		l := unicode.ToLower(r)
		if len(string(l)) != len(string(r)) {
			l = r
		}
		b.WriteRune(l)
	}
	return b.String()
}

func skipSeparators(raw string, i int) int {
	for i < len(raw) && strings.IndexByte(": \t\n\r", raw[i]) >= 0 {
		i++
	}
	return i
}

func trimSpan(raw string, sp Span) Span {
	if sp.Start < 0 {
		sp.Start = 0
	}
	if sp.End > len(raw) {
		sp.End = len(raw)
	}
	for sp.Start < sp.End && isSpace(raw[sp.Start]) {
		sp.Start++
	}
	for sp.End > sp.Start && isSpace(raw[sp.End-1]) {
		sp.End--
	}
	if sp.End <= sp.Start {
		return Span{}
	}
	return sp
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r' || b == '\f' || b == '\v'
}

// view is a transformed copy of the input with a byte offset map back into
// the input. off has one trailing entry equal to len(raw).
type view struct {
	s   string
	off []int
}

type views struct {
	lower  view
	folded view
	merged view
}

func newViews(raw string) views {
	var b strings.Builder
	off := make([]int, 0, len(raw)+1)
	for i, r := range raw {
		l := string(unicode.ToLower(r))
		b.WriteString(l)
		for j := 0; j < len(l); j++ {
			off = append(off, i)
		}
	}
	off = append(off, len(raw))
	lower := view{s: b.String(), off: off}

	fs, foff := text.FoldIndexed(raw)
	folded := view{s: fs, off: foff}

	b.Reset()
	moff := make([]int, 0, len(foff))
	for i := 0; i < len(fs); i++ {
		if isSpace(fs[i]) {
			continue
		}
		b.WriteByte(fs[i])
		moff = append(moff, foff[i])
	}
	moff = append(moff, len(raw))
	merged := view{s: b.String(), off: moff}

	return views{lower: lower, folded: folded, merged: merged}
}

// index finds p in the view at or after the raw offset from and maps the
// hit back onto the raw text.
func (v view) index(p string, from int, word bool) (match, bool) {
	if p == "" {
		return match{}, false
	}
	at := sort.SearchInts(v.off[:len(v.off)-1], from)
	if at >= len(v.s) {
		return match{}, false
	}
	var idx int
	if word {
		idx = text.IndexWord(v.s[at:], p)
	} else {
		idx = strings.Index(v.s[at:], p)
	}
	if idx < 0 {
		return match{}, false
	}
	start := at + idx
	return match{start: v.off[start], end: v.off[start+len(p)]}, true
}
