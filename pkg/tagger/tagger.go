package tagger

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aretw0/treetagger/internal/logging"
	"github.com/aretw0/treetagger/pkg/adapters/process"
	"github.com/aretw0/treetagger/pkg/domain"
	"github.com/aretw0/treetagger/pkg/model"
	"github.com/aretw0/treetagger/pkg/protocol"
	"golang.org/x/sync/errgroup"
)

// Tagger owns at most one engine session and runs one batch at a time.
type Tagger struct {
	supervisor *process.Supervisor
	resolver   *model.Resolver
	handler    domain.Handler
	prob       domain.ProbabilityHandler
	threshold  float64
	extraArgs  []string
	observer   Observer
	logger     *slog.Logger

	busy atomic.Bool

	mu      sync.Mutex
	model   *model.Descriptor
	session *process.Session
	failed  error
}

// Option configures the Tagger.
type Option func(*Tagger)

// WithSupervisor sets how engine sessions are started.
func WithSupervisor(s *process.Supervisor) Option {
	return func(t *Tagger) {
		t.supervisor = s
	}
}

// WithResolver sets how model specs are resolved.
func WithResolver(r *model.Resolver) Option {
	return func(t *Tagger) {
		t.resolver = r
	}
}

// WithHandler selects plain mode: one Token call per input token.
func WithHandler(h domain.Handler) Option {
	return func(t *Tagger) {
		t.handler = h
		t.prob = nil
	}
}

// WithProbabilityHandler selects probability mode. Candidates with a probability
// strictly below threshold are suppressed; zero keeps all of them.
func WithProbabilityHandler(h domain.ProbabilityHandler, threshold float64) Option {
	return func(t *Tagger) {
		t.handler = h
		t.prob = h
		t.threshold = threshold
	}
}

// WithEngineArgs appends extra engine flags before the model path.
func WithEngineArgs(args ...string) Option {
	return func(t *Tagger) {
		t.extraArgs = append(t.extraArgs, args...)
	}
}

// WithObserver registers an Observer for session and batch events.
func WithObserver(o Observer) Option {
	return func(t *Tagger) {
		t.observer = o
	}
}

// WithLogger configures a logger for the Tagger.
func WithLogger(logger *slog.Logger) Option {
	return func(t *Tagger) {
		t.logger = logger
	}
}

// New creates a Tagger. A model must be set before the first batch.
func New(opts ...Option) *Tagger {
	t := &Tagger{
		resolver: model.NewResolver(),
		observer: nopObserver{},
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.supervisor == nil {
		t.supervisor = process.NewSupervisor(process.WithLogger(t.logger))
	}
	return t
}

// ProbabilityMode reports whether probability records are requested.
func (t *Tagger) ProbabilityMode() bool {
	return t.prob != nil
}

// Threshold returns the configured probability threshold.
func (t *Tagger) Threshold() float64 {
	return t.threshold
}

func (t *Tagger) flags() process.Flags {
	return process.Flags{
		Probabilities: t.prob != nil,
		Threshold:     t.threshold,
		Extra:         t.extraArgs,
	}
}

// SetModel resolves spec and binds the Tagger to it. Switching to a different
// model shuts the running session down; the next batch starts a new one.
func (t *Tagger) SetModel(spec string) error {
	if t.busy.Load() {
		return domain.ErrConcurrentUsage
	}
	d, err := t.resolver.Resolve(spec)
	if err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.model != nil && t.model.Equal(d) {
		return nil
	}
	t.model = &d
	t.failed = nil
	if t.session != nil {
		sess := t.session
		t.session = nil
		return sess.Shutdown(context.Background())
	}
	return nil
}

// Model returns the current model descriptor.
func (t *Tagger) Model() (model.Descriptor, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.model == nil {
		return model.Descriptor{}, false
	}
	return *t.model, true
}

// State returns the lifecycle state of the current session.
func (t *Tagger) State() process.State {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.failed != nil {
		return process.Failed
	}
	if t.session == nil {
		return process.NotStarted
	}
	return t.session.State()
}

// Session returns the current session, if any.
func (t *Tagger) Session() *process.Session {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.session
}

// Start launches the engine for the current model unless it is already running.
func (t *Tagger) Start(ctx context.Context) error {
	_, err := t.ensure(ctx)
	return err
}

// Restart discards the current session, failed or not, and starts a new one.
func (t *Tagger) Restart(ctx context.Context) error {
	if t.busy.Load() {
		return domain.ErrConcurrentUsage
	}
	if err := t.Shutdown(ctx); err != nil {
		return err
	}
	return t.Start(ctx)
}

// Shutdown stops the running session. A batch in flight fails with
// domain.ErrSessionTerminated. Calling it without a session is a no-op.
func (t *Tagger) Shutdown(ctx context.Context) error {
	t.mu.Lock()
	sess := t.session
	t.session = nil
	t.failed = nil
	t.mu.Unlock()

	if sess == nil {
		return nil
	}
	return sess.Shutdown(ctx)
}

func (t *Tagger) ensure(ctx context.Context) (*process.Session, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.model == nil {
		return nil, domain.ErrNoModel
	}
	if t.failed != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrSessionFailed, t.failed)
	}
	if t.session != nil {
		if t.session.IsAlive() {
			return t.session, nil
		}
		// The engine went away between batches.
		err := fmt.Errorf("%w: engine exited between batches", domain.ErrSessionTerminated)
		t.session.Fail(err)
		t.failed = err
		t.observer.SessionFailed(t.model.Name, err)
		return nil, fmt.Errorf("%w: %w", domain.ErrSessionFailed, err)
	}

	sess, err := t.supervisor.Start(ctx, *t.model, t.flags())
	if err != nil {
		t.failed = err
		t.observer.SessionFailed(t.model.Name, err)
		return nil, err
	}
	t.session = sess
	t.observer.SessionStarted(t.model.Name)
	return sess, nil
}

// Process tags tokens and blocks until every record was dispatched to the
// handler, in input order, or until the batch failed. Fatal failures leave
// the session in the Failed state; it must be restarted.
func (t *Tagger) Process(ctx context.Context, tokens []string) error {
	if !t.busy.CompareAndSwap(false, true) {
		return domain.ErrConcurrentUsage
	}
	defer t.busy.Store(false)

	if t.handler == nil {
		return domain.ErrNoHandler
	}
	if err := protocol.ValidateTokens(tokens); err != nil {
		return err
	}

	sess, err := t.ensure(ctx)
	if err != nil {
		return err
	}
	if len(tokens) == 0 {
		return nil
	}

	lines, err := protocol.Encode(tokens, sess.Descriptor.Charset())
	if err != nil {
		return err
	}

	started := time.Now()
	records, err := t.run(ctx, sess, tokens, lines)
	t.observer.BatchCompleted(sess.Descriptor.Name, len(tokens), records, time.Since(started), err)

	if err != nil {
		t.logger.Error("batch failed", "session", sess.ID, "tokens", len(tokens), "err", err)
		if sess.State() == process.Failed {
			t.mu.Lock()
			if t.session == sess {
				t.failed = err
			}
			t.mu.Unlock()
			t.observer.SessionFailed(sess.Descriptor.Name, err)
		}
		return err
	}
	t.logger.Debug("batch completed", "session", sess.ID, "tokens", len(tokens), "records", records)
	return nil
}

func (t *Tagger) run(ctx context.Context, sess *process.Session, tokens []string, lines [][]byte) (int, error) {
	pending := protocol.NewPendingQueue(len(tokens))
	var opts []protocol.ParserOption
	if t.prob != nil {
		opts = append(opts, protocol.WithProbabilities(t.prob, t.threshold))
	}
	parser := protocol.NewParser(pending, t.handler, opts...)

	// The first failure is the cause; whatever breaks after the engine
	// is killed is a consequence of it.
	var (
		once  sync.Once
		cause error
	)
	fail := func(err error) error {
		once.Do(func() {
			cause = err
			sess.Fail(err)
		})
		return err
	}

	stop := context.AfterFunc(ctx, func() {
		fail(fmt.Errorf("%w: %w", domain.ErrSessionTerminated, context.Cause(ctx)))
	})
	defer stop()

	var g errgroup.Group

	g.Go(func() error {
		w := sess.Writer()
		for i, tok := range tokens {
			pending.Push(tok)
			if err := w.WriteLine(lines[i]); err != nil {
				return fail(t.streamError(sess, err))
			}
		}
		if err := w.WriteLine(lines[len(tokens)]); err != nil {
			return fail(t.streamError(sess, err))
		}
		if err := w.Flush(); err != nil {
			return fail(t.streamError(sess, err))
		}
		return nil
	})

	g.Go(func() error {
		r := sess.Reader()
		for {
			line, err := r.ReadLine()
			if err != nil {
				return fail(t.readError(sess, err))
			}
			done, err := parser.Feed(line)
			if err != nil {
				return fail(err)
			}
			if done {
				return nil
			}
		}
	})

	err := g.Wait()
	stop()
	once.Do(func() {})
	if cause != nil {
		return parser.Records(), cause
	}
	return parser.Records(), err
}

// streamError maps a failed write to the session state: a session that was
// shut down reports ErrSessionTerminated, anything else stays a write failure.
func (t *Tagger) streamError(sess *process.Session, err error) error {
	if sess.State() == process.Terminated {
		return fmt.Errorf("%w: %w", domain.ErrSessionTerminated, err)
	}
	return err
}

func (t *Tagger) readError(sess *process.Session, err error) error {
	if sess.State() == process.Terminated {
		return fmt.Errorf("%w: session shut down", domain.ErrSessionTerminated)
	}
	if errors.Is(err, io.EOF) {
		sess.WaitExit(time.Second)
		return fmt.Errorf("%w: engine closed its output: %s", domain.ErrSessionTerminated, sess.Stderr())
	}
	return fmt.Errorf("%w: reading engine output: %w", domain.ErrSessionTerminated, err)
}
