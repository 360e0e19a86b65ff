package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/treetagger/internal/testutils"
	"github.com/aretw0/treetagger/pkg/adapters/process"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() process.Config {
	cfg := process.DefaultConfig()
	cfg.Model = "english.par:iso8859-1"
	cfg.StartupGrace = 5 * time.Millisecond
	cfg.GracePeriod = 200 * time.Millisecond
	return cfg
}

func TestRunTag_Stdin(t *testing.T) {
	var out bytes.Buffer
	err := RunTag(context.Background(), TagOptions{
		Config:  testConfig(),
		Wrapper: WrapperOptions{Launcher: testutils.NewLauncher(testutils.NewEngine())},
		Input:   strings.NewReader("This\nis\na\ntest\n.\n"),
		Output:  &out,
	})
	require.NoError(t, err)
	assert.Equal(t, "This\tDT\tthis\nis\tVBZ\tbe\na\tDT\ta\ntest\tNN\ttest\n.\tSENT\t.\n", out.String())
}

func TestRunTag_TextWithProbabilities(t *testing.T) {
	cfg := testConfig()
	cfg.Probabilities = true
	cfg.Threshold = 0.2

	var out bytes.Buffer
	err := RunTag(context.Background(), TagOptions{
		Config:  cfg,
		Wrapper: WrapperOptions{Launcher: testutils.NewLauncher(testutils.NewEngine()), CacheSize: 8},
		Text:    "lead",
		JSON:    true,
		Output:  &out,
	})
	require.NoError(t, err)
	assert.Equal(t, `{"token":"lead","tag":"NN","lemma":"lead","probabilities":[{"tag":"NN","lemma":"lead","probability":0.647454}]}`+"\n", out.String())
}

func TestRunTag_EngineArgs(t *testing.T) {
	cfg := testConfig()
	cfg.Args = []string{"-no-unknown"}
	launcher := testutils.NewLauncher(testutils.NewEngine())

	err := RunTag(context.Background(), TagOptions{
		Config:  cfg,
		Wrapper: WrapperOptions{Launcher: launcher},
		Input:   strings.NewReader("a\n"),
		Output:  &bytes.Buffer{},
	})
	require.NoError(t, err)
	require.Len(t, launcher.Launches(), 1)
	assert.Contains(t, launcher.Launches()[0], "-no-unknown")
}

func TestRunTag_NoModel(t *testing.T) {
	err := RunTag(context.Background(), TagOptions{Config: process.DefaultConfig()})
	assert.ErrorIs(t, err, ErrNoModel)
}

func TestRunTag_BadRedisURL(t *testing.T) {
	err := RunTag(context.Background(), TagOptions{
		Config:  testConfig(),
		Wrapper: WrapperOptions{RedisURL: "://nope"},
	})
	assert.Error(t, err)
}

func TestRunServe(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ready := make(chan string, 1)
	done := make(chan error, 1)
	go func() {
		done <- RunServe(ctx, ServeOptions{
			Config:  testConfig(),
			Wrapper: WrapperOptions{Launcher: testutils.NewLauncher(testutils.NewEngine())},
			Addr:    "127.0.0.1:0",
			Version: "test",
			Ready:   func(addr string) { ready <- addr },
		})
	}()

	var addr string
	select {
	case addr = <-ready:
	case err := <-done:
		t.Fatalf("server exited early: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not start")
	}

	resp, err := http.Post("http://"+addr+"/tag", "application/json", strings.NewReader(`{"tokens":["This","is"]}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Results []struct {
			Tag string `json:"tag"`
		} `json:"results"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Len(t, body.Results, 2)
	assert.Equal(t, "VBZ", body.Results[1].Tag)

	metrics, err := http.Get("http://" + addr + "/metrics")
	require.NoError(t, err)
	defer metrics.Body.Close()
	assert.Equal(t, http.StatusOK, metrics.StatusCode)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestRunServe_StartFailure(t *testing.T) {
	engine := testutils.NewEngine()
	engine.FailStart = "ERROR: can't open parameter file"
	cfg := testConfig()
	cfg.StartupGrace = time.Second

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := RunServe(ctx, ServeOptions{
		Config:  cfg,
		Wrapper: WrapperOptions{Launcher: testutils.NewLauncher(engine)},
		Addr:    "127.0.0.1:0",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "engine did not start")
}
