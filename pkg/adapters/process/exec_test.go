package process_test

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/aretw0/treetagger/pkg/adapters/process"
	"github.com/aretw0/treetagger/pkg/domain"
	"github.com/aretw0/treetagger/pkg/tagger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildFixture compiles the fake engine from tests/fixtures into a temp binary.
func buildFixture(t *testing.T) string {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping fixture build in short mode")
	}

	wd, err := os.Getwd()
	require.NoError(t, err)

	root := wd
	for {
		if _, err := os.Stat(filepath.Join(root, "go.mod")); err == nil {
			break
		}
		parent := filepath.Dir(root)
		if parent == root {
			t.Fatal("could not find project root (go.mod)")
		}
		root = parent
	}

	exeName := "fakeengine"
	if runtime.GOOS == "windows" {
		exeName += ".exe"
	}
	destPath := filepath.Join(t.TempDir(), exeName)

	cmd := exec.Command("go", "build", "-o", destPath, "./tests/fixtures/fakeengine")
	cmd.Dir = root
	out, err := cmd.CombinedOutput()
	require.NoError(t, err, "Failed to build fixture: %s", string(out))

	return destPath
}

type lines []string

func (l *lines) Token(token, tag, lemma string) error {
	*l = append(*l, token+" "+tag+" "+lemma)
	return nil
}

func newExecTagger(t *testing.T, exe string, env map[string]string) (*tagger.Tagger, *lines) {
	t.Helper()
	out := &lines{}
	sup := process.NewSupervisor(
		process.WithLauncher(process.ExecLauncher{Env: env}),
		process.WithExecutable(exe),
		process.WithStartupGrace(100*time.Millisecond),
		process.WithGracePeriod(time.Second),
	)
	tg := tagger.New(tagger.WithSupervisor(sup), tagger.WithHandler(out))
	require.NoError(t, tg.SetModel("english-par-linux-3.2.bin:iso8859-1"))
	t.Cleanup(func() {
		tg.Shutdown(context.Background())
	})
	return tg, out
}

func TestExec_RoundTrip(t *testing.T) {
	exe := buildFixture(t)
	tg, out := newExecTagger(t, exe, nil)
	ctx := context.Background()

	require.NoError(t, tg.Process(ctx, []string{"This", "is", "a", "test", "."}))
	require.NoError(t, tg.Process(ctx, []string{"Straße"}))

	assert.Equal(t, []string{
		"This DT this",
		"is VBZ be",
		"a DT a",
		"test NN test",
		". SENT .",
		"Straße NP <unknown>",
	}, []string(*out))

	sess := tg.Session()
	require.NotNil(t, sess)
	assert.Greater(t, sess.Pid(), 0)
	require.NoError(t, tg.Shutdown(ctx))
	assert.Equal(t, process.Terminated, sess.State())
}

func TestExec_Crash(t *testing.T) {
	exe := buildFixture(t)
	tg, _ := newExecTagger(t, exe, map[string]string{"FAKEENGINE_CRASH_ON": "boom"})

	err := tg.Process(context.Background(), []string{"This", "boom"})
	assert.ErrorIs(t, err, domain.ErrSessionTerminated)
	assert.Contains(t, err.Error(), "cannot handle boom")
	assert.Equal(t, process.Failed, tg.State())
}

func TestExec_StartFailure(t *testing.T) {
	exe := buildFixture(t)
	tg, _ := newExecTagger(t, exe, map[string]string{"FAKEENGINE_FAIL_START": "ERROR: can't open parameter file"})

	err := tg.Start(context.Background())
	assert.ErrorIs(t, err, domain.ErrStartFailure)
}

func TestExec_MissingBinary(t *testing.T) {
	tg, _ := newExecTagger(t, filepath.Join(t.TempDir(), "no-such-tagger"), nil)

	err := tg.Start(context.Background())
	assert.ErrorIs(t, err, domain.ErrStartFailure)
	assert.Equal(t, process.Failed, tg.State())
}

func TestExec_LingeringEngineIsKilled(t *testing.T) {
	exe := buildFixture(t)
	tg, _ := newExecTagger(t, exe, map[string]string{"FAKEENGINE_LINGER": "1"})
	ctx := context.Background()

	require.NoError(t, tg.Process(ctx, []string{"This"}))
	sess := tg.Session()

	started := time.Now()
	require.NoError(t, tg.Shutdown(ctx))
	elapsed := time.Since(started)

	assert.GreaterOrEqual(t, elapsed, time.Second, "waits for the grace period")
	assert.Less(t, elapsed, 5*time.Second)
	assert.False(t, sess.IsAlive())
}

func TestExec_Timeout(t *testing.T) {
	exe := buildFixture(t)
	tg, _ := newExecTagger(t, exe, map[string]string{"FAKEENGINE_HANG_ON": "forever"})

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	err := tg.Process(ctx, []string{"This", "forever"})
	assert.ErrorIs(t, err, domain.ErrSessionTerminated)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
