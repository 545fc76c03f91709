package parse

import (
	"context"
	"strings"
)

// Splitter is an offline Parser. It splits an ingredient zone on commas and
// semicolons outside parentheses and does no translation, so Original and
// Normalized carry the label's own language.
type Splitter struct{}

// Parse implements Parser.
func (Splitter) Parse(ctx context.Context, zone, languageHint string) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	res := Result{DetectedLanguage: languageHint}
	for _, part := range Split(zone) {
		res.Ingredients = append(res.Ingredients, Ingredient{Original: part})
	}
	return res, res.Validate()
}

// Split breaks an ingredient list into items. Separators inside brackets
// belong to the item ("emulsifier (soy lecithin, E476)"). A trailing period
// ends the list.
func Split(zone string) []string {
	var (
		items   []string
		current strings.Builder
		depth   int
	)
	flush := func() {
		item := strings.Trim(strings.TrimSpace(current.String()), ".")
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
		current.Reset()
	}

	for _, r := range zone {
		switch r {
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			if depth > 0 {
				depth--
			}
		case ',', ';', '\n':
			if depth == 0 {
				flush()
				continue
			}
		}
		current.WriteRune(r)
	}
	flush()
	return items
}
