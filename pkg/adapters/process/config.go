package process

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// Config is the engine configuration file (YAML or JSON).
type Config struct {
	Executable    string            `mapstructure:"executable"`
	Args          []string          `mapstructure:"args"`
	Environment   map[string]string `mapstructure:"env"`
	Dir           string            `mapstructure:"dir"`
	Model         string            `mapstructure:"model"`
	CheckModel    bool              `mapstructure:"check_model"`
	Probabilities bool              `mapstructure:"probabilities"`
	Threshold     float64           `mapstructure:"threshold"`
	GracePeriod   time.Duration     `mapstructure:"grace_period"`
	StartupGrace  time.Duration     `mapstructure:"startup_grace"`
	StderrTail    int               `mapstructure:"stderr_tail"`
}

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() Config {
	return Config{
		Executable:   DefaultExecutable(),
		GracePeriod:  DefaultGracePeriod,
		StartupGrace: DefaultStartupGrace,
		StderrTail:   DefaultStderrTail,
	}
}

// LoadConfig reads a configuration file. The format is chosen by extension;
// anything but .json is parsed as YAML. A missing file yields DefaultConfig.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to read engine config: %w", err)
	}

	raw := map[string]any{}
	if strings.ToLower(filepath.Ext(path)) == ".json" {
		if err := json.Unmarshal(data, &raw); err != nil {
			return cfg, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
		}
	} else {
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return cfg, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
		}
	}

	if err := Decode(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("invalid engine config %s: %w", filepath.Base(path), err)
	}
	return cfg, nil
}

// Decode applies a generic map (file contents, flag overrides) onto cfg.
// Durations accept Go duration strings ("2s", "150ms").
func Decode(raw map[string]any, cfg *Config) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		Result:           cfg,
	})
	if err != nil {
		return err
	}
	return dec.Decode(raw)
}

// Flags returns the engine output mode selected by the configuration.
func (c Config) Flags() Flags {
	return Flags{
		Probabilities: c.Probabilities,
		Threshold:     c.Threshold,
		Extra:         c.Args,
	}
}

// Options converts the configuration into Supervisor options.
func (c Config) Options() []Option {
	opts := []Option{
		WithLauncher(ExecLauncher{Dir: c.Dir, Env: c.Environment}),
		WithGracePeriod(c.GracePeriod),
		WithStartupGrace(c.StartupGrace),
		WithStderrTail(c.StderrTail),
	}
	if c.Executable != "" {
		opts = append(opts, WithExecutable(c.Executable))
	}
	return opts
}
