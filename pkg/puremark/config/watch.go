package config

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/cognicore/puremark/pkg/puremark/kb"
)

// Watcher reloads a registry directory when its YAML files change and hands
// each new knowledge base to OnSwap. A reload that fails to parse or
// validate is logged and the previous snapshot stays active.
type Watcher struct {
	Loader   *Loader
	OnSwap   func(*kb.KnowledgeBase)
	OnError  func(error)
	Logger   *zap.Logger
	Debounce time.Duration
	Cache    *kb.Cache
}

// Run watches until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	if w.Loader == nil || w.Loader.Dir == "" {
		return fmt.Errorf("watch: registry directory required")
	}
	logger := w.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	debounce := w.Debounce
	if debounce <= 0 {
		debounce = 250 * time.Millisecond
	}
	cache := w.Cache
	if cache == nil {
		cache = kb.Shared()
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch: %w", err)
	}
	defer fw.Close()
	if err := fw.Add(w.Loader.Dir); err != nil {
		return fmt.Errorf("watch %s: %w", w.Loader.Dir, err)
	}
	logger.Info("watching knowledge base", zap.String("dir", w.Loader.Dir))

	timer := time.NewTimer(debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if filepath.Ext(ev.Name) != ".yaml" {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			timer.Reset(debounce)
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			logger.Warn("knowledge base watch error", zap.Error(err))
		case <-timer.C:
			w.reload(cache, logger)
		}
	}
}

func (w *Watcher) reload(cache *kb.Cache, logger *zap.Logger) {
	next, err := w.Loader.Load()
	if err != nil {
		logger.Error("knowledge base reload failed", zap.Error(err))
		if w.OnError != nil {
			w.OnError(err)
		}
		return
	}
	next = cache.Put(next)
	logger.Info("knowledge base reloaded",
		zap.String("name", next.Name),
		zap.String("version", next.Version))
	if w.OnSwap != nil {
		w.OnSwap(next)
	}
}
