package puremark

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/cognicore/puremark/pkg/puremark/allergen"
	"github.com/cognicore/puremark/pkg/puremark/diet"
	"github.com/cognicore/puremark/pkg/puremark/halal"
	"github.com/cognicore/puremark/pkg/puremark/kosher"
	"github.com/cognicore/puremark/pkg/puremark/ocrtext"
	"github.com/cognicore/puremark/pkg/puremark/parse"
	"github.com/cognicore/puremark/pkg/puremark/plant"
	"github.com/cognicore/puremark/pkg/puremark/report"
	"github.com/cognicore/puremark/pkg/puremark/zones"
)

// Scan is one product to analyze. Either label text (RawText or HTML) or
// pre-parsed Ingredients must be given; with both, the ingredients are used
// and the text only supplies zones and the advisory statement.
type Scan struct {
	ID      string `json:"id,omitempty"`
	RawText string `json:"raw_text,omitempty"`
	// HTML is hOCR or HTML output of an OCR engine.
	HTML        string             `json:"html,omitempty"`
	Ingredients []parse.Ingredient `json:"ingredients,omitempty"`
	// Diets to evaluate; empty means all.
	Diets     []string `json:"diets,omitempty"`
	Allergies []string `json:"allergies,omitempty"`
	// Claims are label texts outside the ingredient list, such as a
	// certification logo caption.
	Claims []string `json:"claims,omitempty"`
}

// Rejection reasons are user-facing.
const (
	ReasonUnreadable    = "Could not extract text from the label. Please take a clearer photo of the ingredients list."
	ReasonNoIngredients = "No ingredient list found. Please crop to show the 'Ingredients:' section."
	ReasonUnverified    = "Ingredient list could not be verified. Please crop closer to the ingredient section."
	ReasonParseFailed   = "Could not understand the ingredient list. Please crop closer."
	ReasonOnlyAdvisory  = "Only allergen warnings were detected, but no ingredients. Please include the full ingredient list."
	ReasonUnclear       = "Could not read the ingredient list clearly. Zoom in, improve the lighting, and include the ingredients header if visible."
	ReasonTooFew        = "Very few ingredients detected. The text may be too small or blurry. Try zooming in closer."
)

// minTokens is the fewest words of label text worth segmenting.
const minTokens = 3

// Analyze runs the whole pipeline for one scan: segmentation, parsing,
// classification for every requested diet, allergens, and the journal.
// Scans that cannot be verified produce a rejected report, not an error.
func (e *Engine) Analyze(ctx context.Context, s Scan) (report.Report, error) {
	start := time.Now()
	diets := diet.All()
	if len(s.Diets) > 0 {
		var err error
		if diets, err = diet.ParseList(s.Diets); err != nil {
			return report.Report{}, err
		}
	}

	r := e.rules.Load()
	rep := e.reports.New(s.ID, r.kb.Key())
	rep, err := e.analyze(ctx, r, s, diets, rep)
	if err != nil {
		return report.Report{}, err
	}

	e.metrics.Scan(string(rep.Outcome), time.Since(start))
	e.logger.Debug("scan analyzed",
		zap.String("report", rep.ID),
		zap.String("scan", s.ID),
		zap.String("outcome", string(rep.Outcome)),
		zap.Int("ingredients", len(rep.Ingredients)),
		zap.Duration("took", time.Since(start)))

	if e.store != nil {
		if err := e.store.PutReport(ctx, rep); err != nil {
			e.logger.Warn("report journal failed", zap.String("report", rep.ID), zap.Error(err))
			return rep, fmt.Errorf("journal report %s: %w", rep.ID, err)
		}
	}
	return rep, nil
}

func (e *Engine) analyze(ctx context.Context, r *rules, s Scan, diets []diet.Diet, rep report.Report) (report.Report, error) {
	raw := s.RawText
	if s.HTML != "" {
		text, err := ocrtext.FromHTML(strings.NewReader(s.HTML))
		if err != nil {
			return report.Report{}, fmt.Errorf("scan %s: %w", s.ID, err)
		}
		raw = text
	}

	var zr zones.Result
	if strings.TrimSpace(raw) != "" {
		zr = r.segmenter.Segment(raw)
		e.metrics.Segmentation(string(zr.Status))
		rep.Zones = &zr
		rep.DetectedLanguage = zr.Language
	}

	var ings []diet.Ingredient
	if len(s.Ingredients) > 0 {
		for _, rec := range s.Ingredients {
			ings = append(ings, rec.Diet(zr.IngredientZone))
		}
	} else {
		if len(strings.Fields(raw)) < minTokens {
			return report.Reject(rep, ReasonUnreadable), nil
		}
		if zr.Status == zones.StatusNoIngredients {
			return report.Reject(rep, ReasonNoIngredients), nil
		}
		if !zr.Accept(zones.DefaultAcceptChars) {
			return report.Reject(rep, ReasonUnverified), nil
		}

		parsed, err := e.parser.Parse(ctx, zr.IngredientZone, zr.Language)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return report.Report{}, ctxErr
			}
			e.logger.Warn("ingredient parser failed", zap.String("scan", s.ID), zap.Error(err))
			return report.Reject(rep, ReasonParseFailed), nil
		}
		if parsed.DetectedLanguage != "" {
			rep.DetectedLanguage = parsed.DetectedLanguage
		}
		ings = parsed.DietIngredients(zr.IngredientZone)

		if len(ings) < e.minIngredients {
			switch {
			case len(strings.TrimSpace(zr.AdvisoryZone)) > 20:
				return report.Reject(rep, ReasonOnlyAdvisory), nil
			case zr.Status == zones.StatusUnverified:
				return report.Reject(rep, ReasonUnclear), nil
			}
			return report.Reject(rep, ReasonTooFew), nil
		}
	}
	rep.Ingredients = ings

	for _, d := range diets {
		claim := r.claims(d, s.Claims)
		var (
			cls []diet.Classification
			v   diet.Verdict
		)
		switch d {
		case diet.Halal:
			cls, v = evaluate(d, ings, func(ing diet.Ingredient) halal.Result {
				return r.halal.Classify(ing, claim)
			}, func(rs []halal.Result) halal.Verdict {
				return halal.Aggregate(rs, r.halal.Options().Strict)
			})
		case diet.Kosher:
			cls, v = evaluate(d, ings, func(ing diet.Ingredient) kosher.Result {
				return r.kosher.Classify(ing, claim)
			}, kosher.Aggregate)
		default:
			pd := d
			cls, v = evaluate(d, ings, func(ing diet.Ingredient) plant.Result {
				res, _ := r.plant.Classify(ing, pd)
				return res
			}, func(rs []plant.Result) plant.Verdict {
				return plant.Aggregate(rs, pd)
			})
		}
		for _, c := range cls {
			e.metrics.Classification(string(d), c.Status)
		}
		e.metrics.Verdict(string(d), v.Status)
		rep.Classifications = append(rep.Classifications, cls...)
		rep.Verdicts = append(rep.Verdicts, v)
	}

	rep.Allergens, rep.AdvisoryAllergens = allergens(r.allergens, ings, zr.AdvisoryZone)
	for _, ing := range ings {
		if len(s.Allergies) == 0 {
			break
		}
		m := r.allergens.CheckIngredient(ing, s.Allergies)
		if !m.IsAllergen {
			continue
		}
		rep.UserAllergies = append(rep.UserAllergies, report.AllergyHit{
			Ingredient:  ing.Label(),
			Allergy:     m.AllergenType,
			Confirmed:   m.Confirmed,
			Explanation: m.Explanation,
		})
	}
	return rep, nil
}

// evaluate classifies every ingredient under one diet and aggregates.
func evaluate[S diet.Status](
	d diet.Diet,
	ings []diet.Ingredient,
	classify func(diet.Ingredient) diet.Result[S],
	aggregate func([]diet.Result[S]) diet.ProductVerdict[S],
) ([]diet.Classification, diet.Verdict) {
	results := make([]diet.Result[S], 0, len(ings))
	erased := make([]diet.Classification, 0, len(ings))
	for _, ing := range ings {
		res := classify(ing)
		results = append(results, res)
		erased = append(erased, diet.Erase(d, res))
	}
	return erased, diet.EraseVerdict(d, aggregate(results))
}

// allergens collects confirmed allergens from the ingredients and labels
// advisory ones that are not already confirmed.
func allergens(det *allergen.Detector, ings []diet.Ingredient, advisory string) (confirmed, mayContain []string) {
	confirmed = []string{}
	seen := make(map[string]bool)
	for _, ing := range ings {
		for _, name := range det.Detect(ing) {
			key := strings.ToLower(name)
			if !seen[key] {
				seen[key] = true
				confirmed = append(confirmed, name)
			}
		}
	}

	mayContain = []string{}
	for _, name := range det.ExtractFromAdvisory(advisory) {
		if seen[strings.ToLower(name)] {
			continue
		}
		mayContain = append(mayContain, allergen.AdvisoryLabel(name))
	}
	return confirmed, mayContain
}

// AnalyzeBatch analyzes scans with at most workers in flight. Reports come
// back in input order. The first error cancels the remaining scans.
func (e *Engine) AnalyzeBatch(ctx context.Context, scans []Scan, workers int) ([]report.Report, error) {
	if workers <= 0 {
		workers = 1
	}
	out := make([]report.Report, len(scans))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range scans {
		i := i
		g.Go(func() error {
			rep, err := e.Analyze(gctx, scans[i])
			if err != nil {
				return fmt.Errorf("scan %d: %w", i, err)
			}
			out[i] = rep
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

