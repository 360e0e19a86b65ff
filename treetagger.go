package treetagger

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/aretw0/treetagger/internal/logging"
	"github.com/aretw0/treetagger/internal/tokenize"
	"github.com/aretw0/treetagger/pkg/adapters/process"
	"github.com/aretw0/treetagger/pkg/domain"
	"github.com/aretw0/treetagger/pkg/model"
	"github.com/aretw0/treetagger/pkg/ports"
	"github.com/aretw0/treetagger/pkg/tagger"
)

// ErrPlainHandler is returned when a handler without probability support is
// installed on a Wrapper running in probability mode.
var ErrPlainHandler = errors.New("handler does not accept probability records")

// Wrapper is the high-level entry point for the library.
// It wraps a tagger.Tagger and adds result collection, caching and text tokenization.
type Wrapper struct {
	tagger    *tagger.Tagger
	route     *router
	handler   domain.Handler
	probH     domain.ProbabilityHandler
	modelSpec string
	prob      bool
	threshold float64
	cache     ports.ResultCache
	tokenizer ports.Tokenizer
	logger    *slog.Logger
	tagOpts   []tagger.Option

	mu sync.Mutex
}

// Option defines a functional option for configuring the Wrapper.
type Option func(*Wrapper)

// WithModel sets the initial model spec ("path" or "path:encoding").
func WithModel(spec string) Option {
	return func(w *Wrapper) {
		w.modelSpec = spec
	}
}

// WithHandler sets the handler Process dispatches to.
func WithHandler(h domain.Handler) Option {
	return func(w *Wrapper) {
		w.handler = h
	}
}

// WithProbabilityHandler sets the handler and enables probability mode.
func WithProbabilityHandler(h domain.ProbabilityHandler, threshold float64) Option {
	return func(w *Wrapper) {
		w.handler = h
		w.prob = true
		w.threshold = threshold
	}
}

// WithProbabilities enables probability mode without a handler, for use with Tag.
func WithProbabilities(threshold float64) Option {
	return func(w *Wrapper) {
		w.prob = true
		w.threshold = threshold
	}
}

// WithCache stores Tag results in c.
func WithCache(c ports.ResultCache) Option {
	return func(w *Wrapper) {
		w.cache = c
	}
}

// WithTokenizer replaces the default rule-based tokenizer used by TagText.
func WithTokenizer(t ports.Tokenizer) Option {
	return func(w *Wrapper) {
		w.tokenizer = t
	}
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(w *Wrapper) {
		w.logger = logger
	}
}

// WithSupervisor sets how engine sessions are started.
func WithSupervisor(s *process.Supervisor) Option {
	return func(w *Wrapper) {
		w.tagOpts = append(w.tagOpts, tagger.WithSupervisor(s))
	}
}

// WithResolver sets how model specs are resolved.
func WithResolver(r *model.Resolver) Option {
	return func(w *Wrapper) {
		w.tagOpts = append(w.tagOpts, tagger.WithResolver(r))
	}
}

// WithObserver registers an Observer for session and batch events.
func WithObserver(o tagger.Observer) Option {
	return func(w *Wrapper) {
		w.tagOpts = append(w.tagOpts, tagger.WithObserver(o))
	}
}

// WithEngineArgs appends extra engine flags before the model path.
func WithEngineArgs(args ...string) Option {
	return func(w *Wrapper) {
		w.tagOpts = append(w.tagOpts, tagger.WithEngineArgs(args...))
	}
}

// New creates a Wrapper. The engine is started lazily by the first batch.
func New(opts ...Option) (*Wrapper, error) {
	w := &Wrapper{
		tokenizer: tokenize.New(),
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(w)
	}
	ph, err := w.checkHandler(w.handler)
	if err != nil {
		return nil, err
	}
	w.probH = ph

	w.route = &router{}
	tagOpts := []tagger.Option{tagger.WithLogger(w.logger)}
	if w.prob {
		tagOpts = append(tagOpts, tagger.WithProbabilityHandler(w.route, w.threshold))
	} else {
		tagOpts = append(tagOpts, tagger.WithHandler(w.route))
	}
	w.tagger = tagger.New(append(tagOpts, w.tagOpts...)...)

	if w.modelSpec != "" {
		if err := w.tagger.SetModel(w.modelSpec); err != nil {
			return nil, err
		}
	}
	return w, nil
}

// checkHandler validates h against the configured mode and returns the
// probability side of h when probability mode is on.
func (w *Wrapper) checkHandler(h domain.Handler) (domain.ProbabilityHandler, error) {
	if h == nil || !w.prob {
		return nil, nil
	}
	ph, ok := h.(domain.ProbabilityHandler)
	if !ok {
		return nil, ErrPlainHandler
	}
	return ph, nil
}

// SetModel binds the Wrapper to another model. See tagger.Tagger.SetModel.
func (w *Wrapper) SetModel(spec string) error {
	if !w.mu.TryLock() {
		return domain.ErrConcurrentUsage
	}
	defer w.mu.Unlock()
	return w.tagger.SetModel(spec)
}

// Model returns the current model descriptor.
func (w *Wrapper) Model() (model.Descriptor, bool) {
	return w.tagger.Model()
}

// SetHandler replaces the handler used by Process.
func (w *Wrapper) SetHandler(h domain.Handler) error {
	ph, err := w.checkHandler(h)
	if err != nil {
		return err
	}
	if !w.mu.TryLock() {
		return domain.ErrConcurrentUsage
	}
	defer w.mu.Unlock()
	w.handler = h
	w.probH = ph
	return nil
}

// ProbabilityMode reports whether probability records are requested.
func (w *Wrapper) ProbabilityMode() bool {
	return w.prob
}

// State returns the lifecycle state of the engine session.
func (w *Wrapper) State() process.State {
	return w.tagger.State()
}

// Process tags tokens and streams records to the configured handler.
func (w *Wrapper) Process(ctx context.Context, tokens []string) error {
	if !w.mu.TryLock() {
		return domain.ErrConcurrentUsage
	}
	defer w.mu.Unlock()

	if w.handler == nil {
		return domain.ErrNoHandler
	}
	return w.dispatch(ctx, w.handler, w.probH, tokens)
}

// Tag tags tokens and returns the assembled results, one per token.
// Results are served from and stored in the cache when one is configured.
func (w *Wrapper) Tag(ctx context.Context, tokens []string) ([]domain.TaggedToken, error) {
	if !w.mu.TryLock() {
		return nil, domain.ErrConcurrentUsage
	}
	defer w.mu.Unlock()

	d, ok := w.tagger.Model()
	if !ok {
		return nil, domain.ErrNoModel
	}
	key := ports.CacheKey(d.Path+":"+d.Encoding, w.prob, w.threshold, tokens)
	if w.cache != nil && len(tokens) > 0 {
		results, hit, err := w.cache.Get(ctx, key)
		if err != nil {
			w.logger.Warn("cache lookup failed", "err", err)
		} else if hit {
			return results, nil
		}
	}

	c := &domain.Collector{}
	if err := w.dispatch(ctx, c, c, tokens); err != nil {
		return nil, err
	}
	results := c.Results
	if results == nil {
		results = []domain.TaggedToken{}
	}

	if w.cache != nil && len(tokens) > 0 {
		if err := w.cache.Put(ctx, key, results); err != nil {
			w.logger.Warn("cache store failed", "err", err)
		}
	}
	return results, nil
}

// TagText sanitizes and tokenizes text for lang and tags the tokens.
func (w *Wrapper) TagText(ctx context.Context, text, lang string) ([]domain.TaggedToken, error) {
	clean, err := tokenize.Sanitize(text)
	if err != nil {
		return nil, err
	}
	return w.Tag(ctx, w.tokenizer.Tokenize(clean, lang))
}

// Start launches the engine now instead of on the first batch, so that a
// broken installation is reported early.
func (w *Wrapper) Start(ctx context.Context) error {
	if !w.mu.TryLock() {
		return domain.ErrConcurrentUsage
	}
	defer w.mu.Unlock()
	return w.tagger.Start(ctx)
}

// Restart discards the current session and starts a new one.
func (w *Wrapper) Restart(ctx context.Context) error {
	if !w.mu.TryLock() {
		return domain.ErrConcurrentUsage
	}
	defer w.mu.Unlock()
	return w.tagger.Restart(ctx)
}

// Destroy stops the engine. A batch in flight fails with
// domain.ErrSessionTerminated. The Wrapper can be used again afterwards;
// the next batch starts a new session.
func (w *Wrapper) Destroy(ctx context.Context) error {
	return w.tagger.Shutdown(ctx)
}

func (w *Wrapper) dispatch(ctx context.Context, h domain.Handler, ph domain.ProbabilityHandler, tokens []string) error {
	w.route.set(h, ph)
	defer w.route.set(nil, nil)
	return w.tagger.Process(ctx, tokens)
}

// router forwards records to the handler of the batch in flight. The
// probability target is resolved when the handler is installed.
type router struct {
	mu     sync.Mutex
	target domain.Handler
	prob   domain.ProbabilityHandler
}

func (r *router) set(h domain.Handler, ph domain.ProbabilityHandler) {
	r.mu.Lock()
	r.target = h
	r.prob = ph
	r.mu.Unlock()
}

func (r *router) Token(token, tag, lemma string) error {
	r.mu.Lock()
	h := r.target
	r.mu.Unlock()
	if h == nil {
		return domain.ErrNoHandler
	}
	return h.Token(token, tag, lemma)
}

func (r *router) Probability(tag, lemma string, probability float64) error {
	r.mu.Lock()
	ph := r.prob
	r.mu.Unlock()
	if ph == nil {
		return domain.ErrNoHandler
	}
	return ph.Probability(tag, lemma, probability)
}
