package main

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/aretw0/treetagger/internal/logging"
	"github.com/aretw0/treetagger/pkg/adapters/process"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "treetagger",
	Short: "Part-of-speech tagging and lemmatization with TreeTagger",
	Long: `treetagger keeps a TreeTagger process running and feeds it batches of tokens,
either from the command line or over HTTP.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logger, err := newLogger(cmd)
		if err != nil {
			return err
		}
		loadDotEnv(logger, ".env")
		return nil
	},
}

// loadDotEnv reads path into the environment. A missing file is fine; any
// other failure is logged and returned.
func loadDotEnv(logger *slog.Logger, path string) error {
	err := godotenv.Load(path)
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	logger.Warn("could not load env file", "path", path, "err", err)
	return err
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	addPersistentFlags(rootCmd)
}

func addPersistentFlags(cmd *cobra.Command) {
	// Persistent flags (available to all commands)
	cmd.PersistentFlags().String("config", "treetagger.yaml", "Engine configuration file (YAML or JSON)")
	cmd.PersistentFlags().String("log-level", "warn", "Log level: debug, info, warn, error")
	cmd.PersistentFlags().String("log-format", "text", "Log format: text, json")

	// Engine overrides (take precedence over the config file)
	cmd.PersistentFlags().StringP("model", "m", "", "Model spec: path[:encoding]")
	cmd.PersistentFlags().Bool("prob", false, "Request probability records")
	cmd.PersistentFlags().Float64("threshold", 0, "Suppress candidates below this probability")
	cmd.PersistentFlags().String("executable", "", "Path to the tree-tagger binary")
	cmd.PersistentFlags().String("redis", "", "Redis URL for the shared result cache")
	cmd.PersistentFlags().Int("cache-size", 0, "Entries kept in the in-memory result cache")
}

func newLogger(cmd *cobra.Command) (*slog.Logger, error) {
	levelName, _ := cmd.Flags().GetString("log-level")
	format, _ := cmd.Flags().GetString("log-format")
	level, err := logging.ParseLevel(levelName)
	if err != nil {
		return nil, err
	}
	return logging.NewWithWriter(os.Stderr, level, logging.Format(format)), nil
}

// loadConfig reads the config file and applies environment and flag overrides.
func loadConfig(cmd *cobra.Command) (process.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := process.LoadConfig(path)
	if err != nil {
		return cfg, err
	}

	overrides := map[string]any{}
	if v := os.Getenv("TREETAGGER_MODEL"); v != "" {
		overrides["model"] = v
	}
	if cmd.Flags().Changed("model") {
		overrides["model"], _ = cmd.Flags().GetString("model")
	}
	if cmd.Flags().Changed("prob") {
		overrides["probabilities"], _ = cmd.Flags().GetBool("prob")
	}
	if cmd.Flags().Changed("threshold") {
		overrides["threshold"], _ = cmd.Flags().GetFloat64("threshold")
		overrides["probabilities"] = true
	}
	if cmd.Flags().Changed("executable") {
		overrides["executable"], _ = cmd.Flags().GetString("executable")
	}
	if err := process.Decode(overrides, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func redisURL(cmd *cobra.Command) string {
	if cmd.Flags().Changed("redis") {
		v, _ := cmd.Flags().GetString("redis")
		return v
	}
	return os.Getenv("TREETAGGER_REDIS_URL")
}
