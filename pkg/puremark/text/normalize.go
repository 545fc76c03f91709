package text

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var punctuation = strings.NewReplacer(
	"–", "-", // en dash
	"—", "-", // em dash
	"−", "-", // minus sign
	"‘", "'",
	"’", "'",
	"ʼ", "'",
	"\u00a0", " ",
)

var ligatures = strings.NewReplacer(
	"œ", "oe",
	"æ", "ae",
	"ß", "ss",
	"ø", "o",
	"ł", "l",
)

// Normalize lowercases, trims, collapses whitespace runs and folds
// typographic dashes and apostrophes.
func Normalize(s string) string {
	if s == "" {
		return ""
	}
	s = punctuation.Replace(strings.ToLower(s))
	return strings.Join(strings.Fields(s), " ")
}

// Fold normalizes s and strips diacritics, so "lécithine" becomes "lecithine".
func Fold(s string) string {
	s = Normalize(s)
	if s == "" {
		return ""
	}
	return stripMarks(s)
}

func stripMarks(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return ligatures.Replace(out)
}

// FoldIndexed lowercases s and strips diacritics without touching
// whitespace. offsets[i] is the byte offset in s of the rune that produced
// byte i of the folded string; offsets has one extra trailing entry equal
// to len(s).
func FoldIndexed(s string) (string, []int) {
	var b strings.Builder
	offsets := make([]int, 0, len(s)+1)
	for i, r := range s {
		folded := stripMarks(punctuation.Replace(string(unicode.ToLower(r))))
		b.WriteString(folded)
		for j := 0; j < len(folded); j++ {
			offsets = append(offsets, i)
		}
	}
	offsets = append(offsets, len(s))
	return b.String(), offsets
}

// Matches reports whether phrase occurs in haystack after normalization.
// A phrase made of a single alphanumeric token must sit on word boundaries
// ("oat" never matches "goat"); any other phrase is a plain substring match.
func Matches(haystack, phrase string) bool {
	return contains(Normalize(haystack), Normalize(phrase))
}

// MatchesFolded is Matches over accent-folded forms.
func MatchesFolded(haystack, phrase string) bool {
	return contains(Fold(haystack), Fold(phrase))
}

// AnyMatch reports whether any phrase matches text.
func AnyMatch(text string, phrases []string) bool {
	_, ok := FirstMatch(text, phrases)
	return ok
}

// AnyMatchFolded reports whether any phrase matches text once both are folded.
func AnyMatchFolded(text string, phrases []string) bool {
	h := Fold(text)
	if h == "" {
		return false
	}
	for _, p := range phrases {
		if contains(h, Fold(p)) {
			return true
		}
	}
	return false
}

// FirstMatch returns the first phrase, in list order, that matches text.
func FirstMatch(text string, phrases []string) (string, bool) {
	h := Normalize(text)
	if h == "" {
		return "", false
	}
	for _, p := range phrases {
		if contains(h, Normalize(p)) {
			return p, true
		}
	}
	return "", false
}

func contains(h, p string) bool {
	if p == "" || h == "" {
		return false
	}
	if !isWord(p) {
		return strings.Contains(h, p)
	}
	from := 0
	for from <= len(h)-len(p) {
		idx := strings.Index(h[from:], p)
		if idx < 0 {
			return false
		}
		start := from + idx
		end := start + len(p)
		if boundaryBefore(h, start) && boundaryAfter(h, end) {
			return true
		}
		from = start + 1
	}
	return false
}

// IndexWord returns the byte index of the first occurrence of p in h that is
// not preceded by a letter or digit, or -1.
func IndexWord(h, p string) int {
	if p == "" {
		return -1
	}
	from := 0
	for from <= len(h)-len(p) {
		idx := strings.Index(h[from:], p)
		if idx < 0 {
			return -1
		}
		start := from + idx
		if boundaryBefore(h, start) {
			return start
		}
		from = start + 1
	}
	return -1
}

func isWord(p string) bool {
	for _, r := range p {
		if !isWordRune(r) {
			return false
		}
	}
	return true
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

func boundaryBefore(s string, i int) bool {
	if i == 0 {
		return true
	}
	r := lastRune(s[:i])
	return !isWordRune(r)
}

func boundaryAfter(s string, i int) bool {
	if i >= len(s) {
		return true
	}
	r, _ := utf8.DecodeRuneInString(s[i:])
	return !isWordRune(r)
}

func lastRune(s string) rune {
	r, _ := utf8.DecodeLastRuneInString(s)
	return r
}

var (
	eNumberRe      = regexp.MustCompile(`(?i)\be\s*-?\s*(\d{3,4}[a-d]?)\b`)
	eNumberSpeltRe = regexp.MustCompile(`(?i)\be[\s-]*number\s*(\d{3,4}[a-d]?)\b`)
)

// ExtractENumbers returns the E-number codes mentioned in s ("120", "150a"),
// sorted and without duplicates.
func ExtractENumbers(s string) []string {
	seen := make(map[string]struct{})
	for _, re := range []*regexp.Regexp{eNumberRe, eNumberSpeltRe} {
		for _, m := range re.FindAllStringSubmatch(s, -1) {
			seen[strings.ToLower(m[1])] = struct{}{}
		}
	}
	if len(seen) == 0 {
		return nil
	}
	codes := make([]string, 0, len(seen))
	for c := range seen {
		codes = append(codes, c)
	}
	sort.Strings(codes)
	return codes
}

// Dedupe drops empty strings and repeats, keeping first-seen order.
func Dedupe(items []string) []string {
	if len(items) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(items))
	out := make([]string, 0, len(items))
	for _, it := range items {
		if it == "" {
			continue
		}
		if _, ok := seen[it]; ok {
			continue
		}
		seen[it] = struct{}{}
		out = append(out, it)
	}
	return out
}
