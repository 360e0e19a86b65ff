package main

import (
	"os"
	"strings"

	"github.com/aretw0/treetagger/internal/cli"
	"github.com/spf13/cobra"
)

var tagCmd = &cobra.Command{
	Use:   "tag [text...]",
	Short: "Tag text or one-token-per-line input",
	Long: `Tags the text given as arguments or with --text. Without text, tokens are read
from standard input, one per line, and tagged in batches.`,
	Example: `  treetagger tag -m english.par:iso8859-1 "This is a test."
  treetagger tag -m english.par --prob --threshold 0.1 < tokens.txt`,
	RunE: func(cmd *cobra.Command, args []string) error {
		logger, err := newLogger(cmd)
		if err != nil {
			return err
		}
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		text, _ := cmd.Flags().GetString("text")
		if text == "" && len(args) > 0 {
			text = strings.Join(args, " ")
		}
		lang, _ := cmd.Flags().GetString("lang")
		batch, _ := cmd.Flags().GetInt("batch-size")
		asJSON, _ := cmd.Flags().GetBool("json")
		cacheSize, _ := cmd.Flags().GetInt("cache-size")

		ctx := cli.NewSignalContext(cmd.Context())
		defer ctx.Cancel()

		return cli.RunTag(ctx, cli.TagOptions{
			Config:    cfg,
			Wrapper:   cli.WrapperOptions{RedisURL: redisURL(cmd), CacheSize: cacheSize},
			Text:      text,
			Lang:      lang,
			BatchSize: batch,
			JSON:      asJSON,
			Input:     os.Stdin,
			Output:    os.Stdout,
			Logger:    logger,
		})
	},
}

func init() {
	rootCmd.AddCommand(tagCmd)
	tagCmd.Flags().StringP("text", "t", "", "Text to tokenize and tag")
	tagCmd.Flags().StringP("lang", "l", "en", "Language of --text, for tokenization")
	tagCmd.Flags().Int("batch-size", cli.DefaultBatchSize, "Tokens per batch when reading stdin")
	tagCmd.Flags().Bool("json", false, "Print one JSON object per token")
}
