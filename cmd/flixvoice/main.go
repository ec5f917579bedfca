// Package main is the entry point for the FlixVoice CLI.
// FlixVoice is the voice command pipeline of the FlixMarket app: wake word
// detection, intent parsing, command processing and spoken responses.
package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/flixmarket/flixvoice/internal/config"
	"github.com/flixmarket/flixvoice/internal/logging"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	version = "0.1.0"
	cfgPath string
	envFile string
	verbose bool
	color   string

	cfg  *config.Config
	logs *logging.Logger

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#7C3AED"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#10B981"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#EF4444"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6B7280"))
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "flixvoice",
		Short: "FlixVoice - voice commands for FlixMarket",
		Long: titleStyle.Render("FlixVoice") + `

Hands-free FlixMarket: say "Hey Flix" and ask for nearby deals,
directions, reminders or your wallet.

Talk from the terminal:   flixvoice run
Serve a host UI:          flixvoice serve
Inspect parsing:          flixvoice parse "take me to the airport"

` + dimStyle.Render("Use 'flixvoice [command] --help' for more information."),
		Version:           version,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: setup,
		PersistentPostRun: func(*cobra.Command, []string) {
			if logs != nil {
				logs.Close()
			}
		},
	}

	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "config file path (default ~/.flixvoice/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env", "", "env file with FLIXVOICE_ overrides (default ./.env when present)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVar(&color, "color", "auto", "color output: auto, always or never")

	rootCmd.AddCommand(runCmd())
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(parseCmd())
	rootCmd.AddCommand(askCmd())
	rootCmd.AddCommand(placesCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("Error: "+err.Error()))
		os.Exit(1)
	}
}

// setup loads the env file, the configuration and the logger.
func setup(cmd *cobra.Command, args []string) error {
	if err := applyColor(color); err != nil {
		return err
	}
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return fmt.Errorf("load env file: %w", err)
		}
	} else if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}

	c, err := config.Load(cfgPath)
	if err != nil {
		return err
	}
	cfg = c

	level := logging.LogLevel(c.Log.Level)
	if verbose {
		level = logging.LevelDebug
	}
	logs, err = logging.New(logging.Config{
		Dir:     c.Log.Dir,
		Level:   level,
		Console: c.Log.Console,
	})
	if err != nil {
		return err
	}

	zl := logs.Zerolog()
	zl.Debug().
		Str("command", cmd.Name()).
		Str("config", cfgPath).
		Str("logFile", logs.Path()).
		Msg("flixvoice started")
	return nil
}
