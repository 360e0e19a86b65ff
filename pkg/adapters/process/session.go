package process

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/treetagger/pkg/model"
	"github.com/aretw0/treetagger/pkg/protocol"
	"golang.org/x/text/transform"
)

// State is the lifecycle state of a Session.
type State int

const (
	NotStarted State = iota
	Running
	Terminated
	Failed
)

func (s State) String() string {
	switch s {
	case NotStarted:
		return "not-started"
	case Running:
		return "running"
	case Terminated:
		return "terminated"
	case Failed:
		return "failed"
	}
	return "unknown"
}

// Session is one running engine bound to a model descriptor.
type Session struct {
	ID         string
	Descriptor model.Descriptor
	Flags      Flags

	child  Child
	writer *protocol.LineWriter
	reader *protocol.LineReader
	stderr *tail
	logger *slog.Logger
	grace  time.Duration

	mu      sync.Mutex
	state   State
	cause   error
	once    sync.Once
	drained chan struct{}
}

func newSession(id string, d model.Descriptor, f Flags, child Child, grace time.Duration, tailLines int, logger *slog.Logger) *Session {
	s := &Session{
		ID:         id,
		Descriptor: d,
		Flags:      f,
		child:      child,
		writer:     protocol.NewLineWriter(child.Stdin()),
		reader:     protocol.NewLineReader(child.Stdout(), d.Charset()),
		stderr:     newTail(tailLines),
		logger:     logger.With("session", id, "model", d.Name),
		grace:      grace,
		state:      Running,
		drained:    make(chan struct{}),
	}
	go s.drainStderr()
	return s
}

// maxStderrLine caps how much of a single diagnostic line is kept.
const maxStderrLine = 4096

// drainStderr keeps the diagnostic stream flowing until EOF so the engine
// never stalls on it, whatever the line length.
func (s *Session) drainStderr() {
	defer close(s.drained)
	br := bufio.NewReader(transform.NewReader(s.child.Stderr(), s.Descriptor.Charset().NewDecoder()))
	for {
		line, err := br.ReadString('\n')
		if line != "" {
			line = strings.TrimRight(line, "\r\n")
			if len(line) > maxStderrLine {
				line = line[:maxStderrLine] + "..."
			}
			s.stderr.Add(line)
			s.logger.Debug("engine stderr", "line", line)
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				// Undecodable output still has to be consumed.
				io.Copy(io.Discard, s.child.Stderr())
			}
			return
		}
	}
}

// Writer returns the engine input.
func (s *Session) Writer() *protocol.LineWriter {
	return s.writer
}

// Reader returns the engine output.
func (s *Session) Reader() *protocol.LineReader {
	return s.reader
}

// Stderr returns the last lines the engine wrote to its diagnostic stream.
func (s *Session) Stderr() string {
	return s.stderr.String()
}

// Pid returns the engine process id.
func (s *Session) Pid() int {
	return s.child.Pid()
}

// State returns the lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Cause returns the error that failed the session, if any.
func (s *Session) Cause() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cause
}

// IsAlive reports whether the session is running and its process has not exited.
func (s *Session) IsAlive() bool {
	if s.State() != Running {
		return false
	}
	select {
	case <-s.child.Done():
		return false
	default:
		return true
	}
}

// WaitExit waits up to d for the engine to exit and its diagnostic stream
// to be fully drained. It reports whether that happened in time.
func (s *Session) WaitExit(d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-s.child.Done():
	case <-timer.C:
		return false
	}
	select {
	case <-s.drained:
		return true
	case <-timer.C:
		return false
	}
}

// Fail marks the session as failed and kills the engine.
func (s *Session) Fail(cause error) {
	s.mu.Lock()
	if s.state == Running {
		s.state = Failed
		s.cause = cause
	}
	s.mu.Unlock()

	s.logger.Warn("session failed", "err", cause)
	s.once.Do(func() {
		s.stop(context.Background(), 0)
	})
}

// Shutdown closes the engine input, waits up to the grace period for the
// engine to exit and kills it afterwards. Calling it again is a no-op.
func (s *Session) Shutdown(ctx context.Context) error {
	var err error
	s.once.Do(func() {
		s.mu.Lock()
		if s.state == Running {
			s.state = Terminated
		}
		s.mu.Unlock()
		err = s.stop(ctx, s.grace)
	})
	return err
}

func (s *Session) stop(ctx context.Context, grace time.Duration) error {
	s.child.Stdin().Close()

	var killErr error
	if grace > 0 {
		timer := time.NewTimer(grace)
		defer timer.Stop()
		select {
		case <-s.child.Done():
		case <-timer.C:
			s.logger.Warn("engine ignored end of input, killing", "grace", grace)
			killErr = s.child.Kill()
		case <-ctx.Done():
			killErr = s.child.Kill()
		}
	} else {
		killErr = s.child.Kill()
	}

	<-s.child.Done()
	s.child.Stdout().Close()
	<-s.drained
	s.child.Stderr().Close()

	if killErr != nil {
		return fmt.Errorf("failed to kill engine: %w", killErr)
	}
	s.logger.Debug("engine stopped", "exit", s.child.Err())
	return nil
}
