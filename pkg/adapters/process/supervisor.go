package process

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/treetagger/internal/logging"
	"github.com/aretw0/treetagger/pkg/domain"
	"github.com/aretw0/treetagger/pkg/model"
	"github.com/google/uuid"
)

const (
	// DefaultGracePeriod is how long Shutdown waits for the engine to exit on its own.
	DefaultGracePeriod = 5 * time.Second
	// DefaultStartupGrace is how long Start watches for an immediate exit.
	DefaultStartupGrace = 50 * time.Millisecond
	// DefaultStderrTail is the number of diagnostic lines kept per session.
	DefaultStderrTail = 20
)

// Supervisor starts engine sessions.
type Supervisor struct {
	launcher     Launcher
	executable   string
	args         ArgsFunc
	grace        time.Duration
	startupGrace time.Duration
	tailLines    int
	logger       *slog.Logger
}

// Option configures the Supervisor.
type Option func(*Supervisor)

// WithLauncher replaces the os/exec launcher.
func WithLauncher(l Launcher) Option {
	return func(s *Supervisor) {
		s.launcher = l
	}
}

// WithExecutable sets the engine binary.
func WithExecutable(path string) Option {
	return func(s *Supervisor) {
		s.executable = path
	}
}

// WithArgs replaces the command line builder.
func WithArgs(fn ArgsFunc) Option {
	return func(s *Supervisor) {
		s.args = fn
	}
}

// WithGracePeriod sets how long Shutdown waits before killing the engine.
func WithGracePeriod(d time.Duration) Option {
	return func(s *Supervisor) {
		s.grace = d
	}
}

// WithStartupGrace sets the window in which an exiting engine counts as a failed start.
func WithStartupGrace(d time.Duration) Option {
	return func(s *Supervisor) {
		s.startupGrace = d
	}
}

// WithStderrTail sets how many diagnostic lines are kept per session.
func WithStderrTail(lines int) Option {
	return func(s *Supervisor) {
		s.tailLines = lines
	}
}

// WithLogger configures a logger for the Supervisor and its sessions.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Supervisor) {
		s.logger = logger
	}
}

// NewSupervisor creates a Supervisor. Without options it launches
// DefaultExecutable with TreeTaggerArgs.
func NewSupervisor(opts ...Option) *Supervisor {
	s := &Supervisor{
		launcher:     ExecLauncher{},
		executable:   DefaultExecutable(),
		args:         TreeTaggerArgs,
		grace:        DefaultGracePeriod,
		startupGrace: DefaultStartupGrace,
		tailLines:    DefaultStderrTail,
		logger:       logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Executable returns the engine binary the Supervisor launches.
func (s *Supervisor) Executable() string {
	return s.executable
}

// Start launches the engine for d. A launch error or an exit within the
// startup grace window is reported as domain.ErrStartFailure; it is never retried.
func (s *Supervisor) Start(ctx context.Context, d model.Descriptor, f Flags) (*Session, error) {
	args := s.args(d, f)
	child, err := s.launcher.Launch(ctx, s.executable, args)
	if err != nil {
		s.logger.Error("engine launch failed", "executable", s.executable, "err", err)
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrStartFailure, s.executable, err)
	}

	sess := newSession(uuid.NewString(), d, f, child, s.grace, s.tailLines, s.logger)

	if s.startupGrace > 0 {
		timer := time.NewTimer(s.startupGrace)
		defer timer.Stop()
		select {
		case <-child.Done():
			<-sess.drained
			err := fmt.Errorf("%w: %s exited immediately (%v): %s",
				domain.ErrStartFailure, s.executable, child.Err(), sess.Stderr())
			sess.Fail(err)
			return nil, err
		case <-timer.C:
		case <-ctx.Done():
			sess.Fail(ctx.Err())
			return nil, fmt.Errorf("%w: %w", domain.ErrStartFailure, ctx.Err())
		}
	}

	s.logger.Info("engine started",
		"session", sess.ID,
		"model", d.Name,
		"encoding", d.Encoding,
		"pid", child.Pid(),
		"probabilities", f.Probabilities,
	)
	return sess, nil
}
