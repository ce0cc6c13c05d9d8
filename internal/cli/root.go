package cli

import (
	"errors"
	"io/fs"

	"github.com/joho/godotenv"
	"github.com/mgpai22/anuvad/internal/config"
	"github.com/mgpai22/anuvad/internal/logging"
	"github.com/spf13/cobra"
)

var (
	verbose    bool
	configPath string
	logger     *logging.Logger
)

var rootCmd = &cobra.Command{
	Use:   "anuvad",
	Short: "Translate subtitle files with an LLM chat API",
	Long: `Anuvad translates SRT, VTT, ASS/SSA and TTML subtitles through any
OpenAI compatible chat-completion API (DeepSeek by default).

Timing and markup are preserved, failed blocks fall back to the original
text, and interrupted runs can be resumed from the partial file.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger = logging.NewLogger(verbose)
		// .env is optional; existing environment variables win
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			logger.Warnw("Failed to load .env", "error", err)
		}
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			logger.Sync()
		}
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().
		BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().
		StringVarP(&configPath, "config", "c", "", "Config file (default ~/.config/anuvad/config.toml or ./anuvad.toml)")
	rootCmd.PersistentFlags().StringP("output", "o", "", "Output file path")
}

func loadConfig() (*config.Config, error) {
	cfg, path, exists, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if exists {
		logger.Debugw("Loaded config", "path", path)
	}
	return cfg, nil
}
