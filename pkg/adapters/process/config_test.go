package process

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	t.Run("YAML", func(t *testing.T) {
		cfg, err := LoadConfig("testdata/engine.yaml")
		require.NoError(t, err)

		assert.Equal(t, "/opt/treetagger/bin/tree-tagger", cfg.Executable)
		assert.Equal(t, "/opt/treetagger/lib/english.par:iso8859-1", cfg.Model)
		assert.True(t, cfg.CheckModel)
		assert.True(t, cfg.Probabilities)
		assert.Equal(t, 0.1, cfg.Threshold)
		assert.Equal(t, 2*time.Second, cfg.GracePeriod)
		assert.Equal(t, map[string]string{"LC_ALL": "C"}, cfg.Environment)
		assert.Equal(t, DefaultStartupGrace, cfg.StartupGrace, "unset keys keep defaults")

		flags := cfg.Flags()
		assert.True(t, flags.Probabilities)
		assert.Equal(t, []string{"-no-unknown"}, flags.Extra)
	})

	t.Run("JSON", func(t *testing.T) {
		cfg, err := LoadConfig("testdata/engine.json")
		require.NoError(t, err)

		assert.Equal(t, "tree-tagger", cfg.Executable)
		assert.Equal(t, "german.par:utf-8", cfg.Model)
		assert.Equal(t, 150*time.Millisecond, cfg.GracePeriod)
		assert.Equal(t, 5, cfg.StderrTail)
	})

	t.Run("Missing File", func(t *testing.T) {
		cfg, err := LoadConfig("testdata/nope.yaml")
		require.NoError(t, err)
		assert.Equal(t, DefaultConfig(), cfg)
	})

	t.Run("Unknown Key", func(t *testing.T) {
		_, err := LoadConfig("testdata/bad.yaml")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "unknown_key")
	})
}

func TestDecode_Overrides(t *testing.T) {
	cfg := DefaultConfig()
	err := Decode(map[string]any{
		"threshold":     "0.25",
		"probabilities": "true",
		"grace_period":  "1s",
	}, &cfg)
	require.NoError(t, err)

	assert.Equal(t, 0.25, cfg.Threshold)
	assert.True(t, cfg.Probabilities)
	assert.Equal(t, time.Second, cfg.GracePeriod)
}

func TestConfig_Options(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Executable = "/usr/local/bin/tree-tagger"
	cfg.GracePeriod = time.Second

	sup := NewSupervisor(cfg.Options()...)
	assert.Equal(t, "/usr/local/bin/tree-tagger", sup.Executable())
	assert.Equal(t, time.Second, sup.grace)
}
