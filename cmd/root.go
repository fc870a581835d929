// Package cmd implements the CLI commands using Cobra.
package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"reviewero/internal/config"
	"reviewero/internal/observe"
	"reviewero/internal/ui"
)

// Version is set at build time via ldflags.
var Version = "dev"

const serviceCLI = "cli"

// Global flags
var (
	flagKind    string
	flagSeason  int
	flagEpisode int
	flagModel   string
	flagJSON    bool
	flagDebug   bool
)

// cfg holds the loaded configuration (merged: defaults < config file < flags).
var cfg *config.Config

// obs collects diagnostics for the current invocation.
var obs observe.Observer = observe.Nop()

var rootCmd = &cobra.Command{
	Use:   "reviewero [title or IMDb id]",
	Short: "Spoiler-free mini reviews for movies and series",
	Long: `Reviewero looks a title up on TMDB and asks Gemini for an eight line,
spoiler-free review. Run "reviewero serve" to expose the same reviews as a
Stremio addon.`,
	Args:              cobra.ArbitraryArgs,
	PersistentPreRunE: loadConfig,
	RunE:              reviewRun,
	SilenceErrors:     true,
	SilenceUsage:      true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		if !errors.Is(err, ui.ErrCancelled) {
			fmt.Fprintln(os.Stderr, ui.RenderError(err.Error()))
		}
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagModel, "model", "", "Gemini model (default from config)")
	rootCmd.PersistentFlags().BoolVarP(&flagDebug, "debug", "x", false, "Debug logging to stderr")

	rootCmd.Flags().StringVarP(&flagKind, "kind", "k", "movie", "Media kind: movie | series")
	rootCmd.Flags().IntVarP(&flagSeason, "season", "s", 0, "Season to review (series only)")
	rootCmd.Flags().IntVarP(&flagEpisode, "episode", "e", 0, "Episode to review (series only)")
	rootCmd.Flags().BoolVarP(&flagJSON, "json", "j", false, "Print the review as JSON")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(keysCmd)
	rootCmd.AddCommand(trendingCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadConfig loads and merges configuration: defaults < config file < CLI flags.
// A .env file in the working directory may provide key overrides.
func loadConfig(cmd *cobra.Command, args []string) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("loading .env: %w", err)
	}

	var err error
	cfg, err = config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// CLI flags override config file values
	if flagModel != "" {
		cfg.Model = flagModel
	}
	if flagDebug {
		cfg.Debug = true
	}

	// Re-validate after flag overrides
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logFile, err := cfg.ExpandLogFile()
	if err != nil {
		return fmt.Errorf("resolving log file: %w", err)
	}
	logger := observe.NewLogger(observe.Options{
		Debug:   cfg.Debug,
		Console: cfg.Debug || cmd == serveCmd,
		File:    logFile,
	})
	obs = observe.New(cfg.LogCapacity, logger)
	return nil
}

// debugf logs a message if debug mode is enabled.
func debugf(format string, args ...any) {
	obs.Debugf(serviceCLI, format, args...)
}

// dumpDiagnostics prints the buffered entries to stderr in debug mode.
func dumpDiagnostics() {
	if cfg == nil || !cfg.Debug {
		return
	}
	fmt.Fprintln(os.Stderr, "--- diagnostics ---")
	for _, e := range obs.Entries() {
		fmt.Fprintf(os.Stderr, "%s %-5s %-8s %s\n", e.Time.Format("15:04:05"), e.Level, e.Service, e.Message)
	}
}
