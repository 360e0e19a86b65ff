package testutils

import (
	"context"
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"github.com/aretw0/treetagger/pkg/adapters/process"
)

// Launcher runs an Engine in-process behind pipes. It implements process.Launcher.
type Launcher struct {
	Engine *Engine
	// Err, when set, is returned by Launch instead of starting the engine.
	Err error

	mu       sync.Mutex
	launches [][]string
	children []*Child
}

// NewLauncher creates a Launcher for e.
func NewLauncher(e *Engine) *Launcher {
	return &Launcher{Engine: e}
}

func (l *Launcher) Launch(ctx context.Context, executable string, args []string) (process.Child, error) {
	if l.Err != nil {
		return nil, l.Err
	}

	inR, inW := io.Pipe()
	outR, outW := io.Pipe()
	errR, errW := io.Pipe()
	engineCtx, stop := context.WithCancel(context.Background())

	c := &Child{
		stdin:  inW,
		stdout: outR,
		stderr: errR,
		inR:    inR,
		outW:   outW,
		errW:   errW,
		stop:   stop,
		done:   make(chan struct{}),
	}

	l.mu.Lock()
	l.launches = append(l.launches, append([]string{executable}, args...))
	c.pid = 1000 + len(l.children)
	l.children = append(l.children, c)
	l.mu.Unlock()

	go func() {
		code := l.Engine.Run(engineCtx, inR, outW, errW, args)
		c.exit(code)
	}()
	return c, nil
}

// Launches returns the command lines of every launch so far.
func (l *Launcher) Launches() [][]string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([][]string(nil), l.launches...)
}

// Children returns every child launched so far.
func (l *Launcher) Children() []*Child {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]*Child(nil), l.children...)
}

// Child is an in-process engine. It implements process.Child.
type Child struct {
	stdin  *io.PipeWriter
	stdout *io.PipeReader
	stderr *io.PipeReader
	inR    *io.PipeReader
	outW   *io.PipeWriter
	errW   *io.PipeWriter
	stop   context.CancelFunc
	pid    int

	once   sync.Once
	done   chan struct{}
	err    error
	killed atomic.Bool
}

func (c *Child) exit(code int) {
	c.once.Do(func() {
		switch {
		case c.killed.Load():
			c.err = fmt.Errorf("signal: killed")
		case code != 0:
			c.err = fmt.Errorf("exit status %d", code)
		}
		c.inR.Close()
		c.outW.Close()
		c.errW.Close()
		close(c.done)
	})
}

func (c *Child) Stdin() io.WriteCloser { return c.stdin }
func (c *Child) Stdout() io.ReadCloser { return c.stdout }
func (c *Child) Stderr() io.ReadCloser { return c.stderr }
func (c *Child) Done() <-chan struct{} { return c.done }
func (c *Child) Err() error            { return c.err }
func (c *Child) Pid() int              { return c.pid }

// Kill stops the engine. A hanging engine returns as soon as it is killed.
func (c *Child) Kill() error {
	c.killed.Store(true)
	c.stop()
	c.inR.CloseWithError(io.ErrClosedPipe)
	c.outW.CloseWithError(io.ErrClosedPipe)
	c.errW.CloseWithError(io.ErrClosedPipe)
	return nil
}

// Exited reports whether the engine has exited.
func (c *Child) Exited() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}
