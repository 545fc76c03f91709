// Command puremark classifies food ingredient labels for halal, kosher,
// vegan, vegetarian and pescetarian diets and detects allergens.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cognicore/puremark/internal/llm"
	"github.com/cognicore/puremark/internal/logging"
	"github.com/cognicore/puremark/pkg/puremark"
	"github.com/cognicore/puremark/pkg/puremark/config"
	"github.com/cognicore/puremark/pkg/puremark/halal"
	"github.com/cognicore/puremark/pkg/puremark/kb"
	"github.com/cognicore/puremark/pkg/puremark/metrics"
	"github.com/cognicore/puremark/pkg/puremark/store"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// app carries what every subcommand shares.
type app struct {
	configPath string
	logLevel   string
	kbDir      string

	settings *config.Settings
	logger   *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:          "puremark",
		Short:        "Dietary compliance and allergen checks for ingredient labels",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "Settings file (YAML)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	root.PersistentFlags().StringVar(&a.kbDir, "kb-dir", "", "Knowledge base registry directory (overrides kb.dir)")

	root.AddCommand(
		newSegmentCmd(a),
		newClassifyCmd(a),
		newAllergyCmd(a),
		newScanCmd(a),
		newReportsCmd(a),
		newKBCmd(a),
	)
	return root
}

func (a *app) setup() error {
	s, err := config.LoadSettings(a.configPath)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		s.Log.Level = a.logLevel
	}
	if a.kbDir != "" {
		s.KB.Dir = a.kbDir
	}
	logger, err := logging.New(logging.Config{Level: s.Log.Level, Format: s.Log.Format})
	if err != nil {
		return err
	}
	a.settings = s
	a.logger = logger
	return nil
}

// knowledgeBase loads the configured registries. Without a directory the
// embedded copy is used.
func (a *app) knowledgeBase() (*kb.KnowledgeBase, error) {
	if a.settings.KB.Dir == "" {
		return config.Default()
	}
	k, err := a.settings.Loader().Load()
	if err != nil {
		return nil, fmt.Errorf("load knowledge base %s: %w", a.settings.KB.Dir, err)
	}
	return k, nil
}

// engineOptions holds the per-command parts of an engine.
type engineOptions struct {
	store   store.Store
	metrics *metrics.Metrics
}

func (a *app) engine(eo engineOptions) (*puremark.Engine, error) {
	k, err := a.knowledgeBase()
	if err != nil {
		return nil, err
	}
	unknown, err := halal.ParseDefault(a.settings.Halal.UnknownDefault)
	if err != nil {
		return nil, err
	}

	opts := puremark.Options{
		KnowledgeBase:  k,
		Halal:          &halal.Options{Strict: a.settings.Halal.Strict, UnknownDefault: unknown},
		MinIngredients: a.settings.Scan.MinIngredients,
		Logger:         a.logger,
		Metrics:        eo.metrics,
		Store:          eo.store,
	}
	if p := a.settings.Parser; p.BaseURL != "" {
		opts.Parser = &llm.Client{
			BaseURL:    p.BaseURL,
			APIKey:     p.APIKey,
			Model:      p.Model,
			HTTPClient: &http.Client{Timeout: p.Timeout},
		}
		a.logger.Info("using language model parser", zap.String("model", p.Model))
	}
	return puremark.New(opts)
}

// watch reloads the knowledge base in the background when kb.watch is set.
// The returned stop function waits for the watcher to exit.
func (a *app) watch(ctx context.Context, e *puremark.Engine) (stop func()) {
	if !a.settings.KB.Watch || a.settings.KB.Dir == "" {
		return func() {}
	}
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := e.Watch(ctx, a.settings.Loader()); err != nil {
			a.logger.Warn("knowledge base watch stopped", zap.Error(err))
		}
	}()
	return func() {
		cancel()
		<-done
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
