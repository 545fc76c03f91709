package puremark

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/cognicore/puremark/internal/logging"
	"github.com/cognicore/puremark/pkg/puremark/allergen"
	"github.com/cognicore/puremark/pkg/puremark/certification"
	"github.com/cognicore/puremark/pkg/puremark/config"
	"github.com/cognicore/puremark/pkg/puremark/diet"
	"github.com/cognicore/puremark/pkg/puremark/halal"
	"github.com/cognicore/puremark/pkg/puremark/internalerr"
	"github.com/cognicore/puremark/pkg/puremark/kb"
	"github.com/cognicore/puremark/pkg/puremark/kosher"
	"github.com/cognicore/puremark/pkg/puremark/metrics"
	"github.com/cognicore/puremark/pkg/puremark/parse"
	"github.com/cognicore/puremark/pkg/puremark/plant"
	"github.com/cognicore/puremark/pkg/puremark/report"
	"github.com/cognicore/puremark/pkg/puremark/store"
	"github.com/cognicore/puremark/pkg/puremark/zones"
)

// DefaultMinIngredients is the fewest parsed ingredients a scan needs.
const DefaultMinIngredients = 2

// Engine is the dietary rule engine facade. One instance serves any number
// of goroutines; the knowledge base behind it can be swapped while it runs.
type Engine struct {
	rules atomic.Pointer[rules]

	halalOpts      halal.Options
	minIngredients int
	watchDebounce  time.Duration

	logger  *zap.Logger
	metrics *metrics.Metrics
	store   store.Store
	parser  parse.Parser
	reports *report.Builder
}

// Options configures an Engine. Zero values get defaults.
type Options struct {
	// KnowledgeBase defaults to the shared embedded registries.
	KnowledgeBase *kb.KnowledgeBase
	// Halal nil means halal.DefaultOptions.
	Halal *halal.Options
	// MinIngredients below 1 means DefaultMinIngredients.
	MinIngredients int
	// WatchDebounce is how long Watch waits for writes to settle; zero
	// keeps the watcher default.
	WatchDebounce time.Duration

	Logger  *zap.Logger
	Metrics *metrics.Metrics
	// Store journals reports when set.
	Store store.Store
	// Parser defaults to parse.Splitter.
	Parser  parse.Parser
	Reports *report.Builder
}

// rules is every component built from one knowledge base snapshot.
type rules struct {
	kb        *kb.KnowledgeBase
	segmenter *zones.Segmenter
	certs     *certification.Detector
	halal     *halal.Classifier
	kosher    *kosher.Classifier
	plant     *plant.Classifier
	allergens *allergen.Detector
}

func newRules(k *kb.KnowledgeBase, opts halal.Options) *rules {
	return &rules{
		kb:        k,
		segmenter: zones.New(k.Zones),
		certs:     certification.New(k),
		halal:     halal.New(k, opts),
		kosher:    kosher.New(k),
		plant:     plant.New(k),
		allergens: allergen.New(k),
	}
}

// New creates an engine.
func New(opts Options) (*Engine, error) {
	k := opts.KnowledgeBase
	if k == nil {
		var err error
		if k, err = config.Default(); err != nil {
			return nil, fmt.Errorf("puremark: load knowledge base: %w", err)
		}
	}
	halalOpts := halal.DefaultOptions()
	if opts.Halal != nil {
		halalOpts = *opts.Halal
		if halalOpts.UnknownDefault == "" {
			halalOpts.UnknownDefault = halal.DefaultHalal
		}
	}
	e := &Engine{
		halalOpts:      halalOpts,
		minIngredients: opts.MinIngredients,
		watchDebounce:  opts.WatchDebounce,
		logger:         logging.OrNop(opts.Logger),
		metrics:        opts.Metrics,
		store:          opts.Store,
		parser:         opts.Parser,
		reports:        opts.Reports,
	}
	if e.minIngredients < 1 {
		e.minIngredients = DefaultMinIngredients
	}
	if e.parser == nil {
		e.parser = parse.Splitter{}
	}
	if e.reports == nil {
		e.reports = report.NewBuilder()
	}
	e.rules.Store(newRules(k, e.halalOpts))
	return e, nil
}

// Close closes the report store, if any.
func (e *Engine) Close() error {
	if e.store == nil {
		return nil
	}
	return e.store.Close()
}

// KnowledgeBase returns the active snapshot.
func (e *Engine) KnowledgeBase() *kb.KnowledgeBase {
	return e.rules.Load().kb
}

// SwapKnowledgeBase activates k for every call that starts afterwards.
// Calls already running finish on the snapshot they started with.
func (e *Engine) SwapKnowledgeBase(k *kb.KnowledgeBase) {
	prev := e.rules.Swap(newRules(k, e.halalOpts))
	e.logger.Info("knowledge base swapped",
		zap.String("from", prev.kb.Key()),
		zap.String("to", k.Key()))
}

// Watch reloads the registry directory of l on change until ctx ends.
func (e *Engine) Watch(ctx context.Context, l *config.Loader) error {
	w := &config.Watcher{
		Loader:   l,
		Logger:   e.logger,
		Debounce: e.watchDebounce,
		OnSwap: func(k *kb.KnowledgeBase) {
			e.metrics.Reload(nil)
			e.SwapKnowledgeBase(k)
		},
		OnError: e.metrics.Reload,
	}
	return w.Run(ctx)
}

// Segment splits raw label text into zones.
func (e *Engine) Segment(raw string) zones.Result {
	res := e.rules.Load().segmenter.Segment(raw)
	e.metrics.Segmentation(string(res.Status))
	return res
}

// Classify evaluates one ingredient under d. claims are product-level label
// texts ("Certified Halal by JAKIM") that may carry a certification.
func (e *Engine) Classify(ing diet.Ingredient, d diet.Diet, claims ...string) (diet.Classification, error) {
	r := e.rules.Load()
	out, err := r.classify(ing, d, r.claims(d, claims))
	if err != nil {
		return diet.Classification{}, err
	}
	e.metrics.Classification(string(d), out.Status)
	return out, nil
}

// Aggregate folds classifications of one diet into a product verdict.
func (e *Engine) Aggregate(results []diet.Classification, d diet.Diet) (diet.Verdict, error) {
	for _, c := range results {
		if c.Diet != d {
			return diet.Verdict{}, fmt.Errorf("%w: %s result in %s aggregation", internalerr.ErrInvalidInput, c.Diet, d)
		}
	}
	var v diet.Verdict
	switch d {
	case diet.Halal:
		v = diet.EraseVerdict(d, halal.Aggregate(restore[halal.Status](results), e.halalOpts.Strict))
	case diet.Kosher:
		v = diet.EraseVerdict(d, kosher.Aggregate(restore[kosher.Status](results)))
	case diet.Vegan, diet.Vegetarian, diet.Pescetarian:
		v = diet.EraseVerdict(d, plant.Aggregate(restore[plant.Status](results), d))
	default:
		return diet.Verdict{}, fmt.Errorf("%w: %q", internalerr.ErrUnknownDiet, d)
	}
	e.metrics.Verdict(string(d), v.Status)
	return v, nil
}

// CheckAllergy reports whether text contains any of allergies.
func (e *Engine) CheckAllergy(text string, allergies []string) bool {
	return e.rules.Load().allergens.CheckAllergy(text, allergies)
}

// CheckAllergyDetailed is CheckAllergy with an explanation.
func (e *Engine) CheckAllergyDetailed(text string, allergies []string) allergen.Match {
	return e.rules.Load().allergens.CheckAllergyDetailed(text, allergies)
}

// ExtractAdvisoryAllergens lists the allergens of a "may contain" zone.
func (e *Engine) ExtractAdvisoryAllergens(zone string) []string {
	return e.rules.Load().allergens.ExtractFromAdvisory(zone)
}

func restore[S diet.Status](in []diet.Classification) []diet.Result[S] {
	out := make([]diet.Result[S], len(in))
	for i, c := range in {
		out[i] = diet.Restore[S](c)
	}
	return out
}

// claims turns label claim texts into the strongest certification signal
// of d's scheme. Diets without certification get none.
func (r *rules) claims(d diet.Diet, texts []string) certification.Signal {
	switch d {
	case diet.Halal:
		return r.certs.DetectAll(kb.SchemeHalal, texts...)
	case diet.Kosher:
		return r.certs.DetectAll(kb.SchemeKosher, texts...)
	}
	return certification.Signal{}
}

func (r *rules) classify(ing diet.Ingredient, d diet.Diet, claim certification.Signal) (diet.Classification, error) {
	switch d {
	case diet.Halal:
		return diet.Erase(d, r.halal.Classify(ing, claim)), nil
	case diet.Kosher:
		return diet.Erase(d, r.kosher.Classify(ing, claim)), nil
	}
	res, err := r.plant.Classify(ing, d)
	if err != nil {
		return diet.Classification{}, err
	}
	return diet.Erase(d, res), nil
}
