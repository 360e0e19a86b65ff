package cli

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/aretw0/treetagger"
	"github.com/aretw0/treetagger/pkg/adapters/memory"
	"github.com/aretw0/treetagger/pkg/adapters/process"
	"github.com/aretw0/treetagger/pkg/adapters/redis"
	"github.com/aretw0/treetagger/pkg/model"
	"github.com/aretw0/treetagger/pkg/ports"
	"github.com/aretw0/treetagger/pkg/tagger"
)

// ErrNoModel is returned when neither the flags nor the config file name a model.
var ErrNoModel = errors.New("no model configured (use --model or 'model:' in the config file)")

// WrapperOptions are the CLI conventions applied on top of the engine config.
type WrapperOptions struct {
	// RedisURL enables the shared result cache.
	RedisURL string
	// CacheSize enables an in-memory result cache when RedisURL is empty.
	CacheSize int
	Observer  tagger.Observer
	// Launcher overrides process launching (tests).
	Launcher process.Launcher
}

// createWrapper initializes a Wrapper from an engine config.
func createWrapper(cfg process.Config, opts WrapperOptions, logger *slog.Logger) (*treetagger.Wrapper, func() error, error) {
	if cfg.Model == "" {
		return nil, nil, ErrNoModel
	}

	supOpts := append(cfg.Options(), process.WithLogger(logger))
	if opts.Launcher != nil {
		supOpts = append(supOpts, process.WithLauncher(opts.Launcher))
	}

	wrapperOpts := []treetagger.Option{
		treetagger.WithLogger(logger),
		treetagger.WithSupervisor(process.NewSupervisor(supOpts...)),
		treetagger.WithResolver(model.NewResolver(model.WithExistenceCheck(cfg.CheckModel))),
		treetagger.WithModel(cfg.Model),
	}
	if len(cfg.Args) > 0 {
		wrapperOpts = append(wrapperOpts, treetagger.WithEngineArgs(cfg.Args...))
	}
	if cfg.Probabilities {
		wrapperOpts = append(wrapperOpts, treetagger.WithProbabilities(cfg.Threshold))
	}
	if opts.Observer != nil {
		wrapperOpts = append(wrapperOpts, treetagger.WithObserver(opts.Observer))
	}

	cache, closeCache, err := createCache(opts)
	if err != nil {
		return nil, nil, err
	}
	if cache != nil {
		wrapperOpts = append(wrapperOpts, treetagger.WithCache(cache))
	}

	w, err := treetagger.New(wrapperOpts...)
	if err != nil {
		_ = closeCache()
		return nil, nil, fmt.Errorf("error initializing tagger: %w", err)
	}
	return w, closeCache, nil
}

func createCache(opts WrapperOptions) (ports.ResultCache, func() error, error) {
	noop := func() error { return nil }
	switch {
	case opts.RedisURL != "":
		c, err := redis.NewFromURL(opts.RedisURL)
		if err != nil {
			return nil, noop, err
		}
		return c, c.Close, nil
	case opts.CacheSize > 0:
		return memory.NewCache(opts.CacheSize), noop, nil
	}
	return nil, noop, nil
}
