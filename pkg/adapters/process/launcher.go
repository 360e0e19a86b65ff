package process

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
)

// Child is a running engine process as seen by the Supervisor.
type Child interface {
	Stdin() io.WriteCloser
	Stdout() io.ReadCloser
	Stderr() io.ReadCloser
	// Done is closed once the process has exited.
	Done() <-chan struct{}
	// Err returns the exit error. Only valid after Done is closed.
	Err() error
	Kill() error
	Pid() int
}

// Launcher starts an executable and hands back its three streams.
type Launcher interface {
	Launch(ctx context.Context, executable string, args []string) (Child, error)
}

// ExecLauncher implements Launcher with os/exec.
type ExecLauncher struct {
	Dir string
	Env map[string]string
}

// Launch starts the executable. The process is not tied to ctx: its lifetime
// is owned by the Session.
func (l ExecLauncher) Launch(ctx context.Context, executable string, args []string) (Child, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cmd := exec.Command(executable, args...)
	cmd.Dir = l.Dir
	env := cmd.Environ()
	for k, v := range l.Env {
		env = append(env, fmt.Sprintf("%s=%s", k, v))
	}
	cmd.Env = env

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, err
	}

	// Plain pipes instead of StdoutPipe/StderrPipe: Wait runs concurrently
	// with the readers and must not close the read ends under them.
	outR, outW, err := os.Pipe()
	if err != nil {
		stdin.Close()
		return nil, err
	}
	errR, errW, err := os.Pipe()
	if err != nil {
		stdin.Close()
		outR.Close()
		outW.Close()
		return nil, err
	}
	cmd.Stdout = outW
	cmd.Stderr = errW

	if err := cmd.Start(); err != nil {
		stdin.Close()
		outR.Close()
		outW.Close()
		errR.Close()
		errW.Close()
		return nil, err
	}
	outW.Close()
	errW.Close()

	c := &execChild{
		cmd:    cmd,
		stdin:  stdin,
		stdout: outR,
		stderr: errR,
		done:   make(chan struct{}),
	}
	go func() {
		c.err = cmd.Wait()
		close(c.done)
	}()
	return c, nil
}

type execChild struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout *os.File
	stderr *os.File
	done   chan struct{}
	err    error
}

func (c *execChild) Stdin() io.WriteCloser { return c.stdin }
func (c *execChild) Stdout() io.ReadCloser { return c.stdout }
func (c *execChild) Stderr() io.ReadCloser { return c.stderr }
func (c *execChild) Done() <-chan struct{} { return c.done }
func (c *execChild) Err() error            { return c.err }
func (c *execChild) Pid() int              { return c.cmd.Process.Pid }

func (c *execChild) Kill() error {
	select {
	case <-c.done:
		return nil
	default:
	}
	return c.cmd.Process.Kill()
}

// DefaultExecutable locates the engine binary: $TREETAGGER_HOME/bin/tree-tagger
// when the variable is set, otherwise "tree-tagger" looked up on PATH.
func DefaultExecutable() string {
	name := "tree-tagger"
	if runtime.GOOS == "windows" {
		name += ".exe"
	}
	if home := os.Getenv("TREETAGGER_HOME"); home != "" {
		return filepath.Join(home, "bin", name)
	}
	return name
}
