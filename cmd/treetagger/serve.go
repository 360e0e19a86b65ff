package main

import (
	"strings"

	"github.com/aretw0/treetagger"
	"github.com/aretw0/treetagger/internal/cli"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP tagging service",
	Long:  `Starts the engine and exposes POST /tag, GET /healthz and GET /metrics.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		logger, err := newLogger(cmd)
		if err != nil {
			return err
		}
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		addr, _ := cmd.Flags().GetString("addr")
		rps, _ := cmd.Flags().GetFloat64("rate")
		burst, _ := cmd.Flags().GetInt("burst")
		timeout, _ := cmd.Flags().GetDuration("request-timeout")
		cacheSize, _ := cmd.Flags().GetInt("cache-size")

		ctx := cli.NewSignalContext(cmd.Context())
		defer ctx.Cancel()

		err = cli.RunServe(ctx, cli.ServeOptions{
			Config:         cfg,
			Wrapper:        cli.WrapperOptions{RedisURL: redisURL(cmd), CacheSize: cacheSize},
			Addr:           addr,
			RateLimit:      rps,
			Burst:          burst,
			RequestTimeout: timeout,
			Version:        strings.TrimSpace(treetagger.Version),
			Logger:         logger,
			Banner:         cmd.OutOrStdout(),
		})
		if sig := ctx.Signal(); sig != nil {
			logger.Info("stopped", "signal", sig.String())
		}
		return err
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("addr", "a", ":8080", "Address to listen on")
	serveCmd.Flags().Float64("rate", 0, "Maximum tagging requests per second (0 disables)")
	serveCmd.Flags().Int("burst", 10, "Burst size for --rate")
	serveCmd.Flags().Duration("request-timeout", 0, "Per-request batch timeout (0 disables)")
}
