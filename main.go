// package main is the entry point for the issue-migrator tool
package main

import (
	"log/slog"
	"os"

	checkcmd "github.com/alan/issue-migrator/cmd/check"
	migratecmd "github.com/alan/issue-migrator/cmd/migrate"
	"github.com/alan/issue-migrator/internal/config"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	var logLevel string
	var logFormat string

	rootCmd := &cobra.Command{
		Use:   "issue-migrator",
		Short: "A CLI tool for migrating issues from Bitbucket to GitHub",
		Long: `issue-migrator moves an issue tracker's content (issues, comments,
labels, milestones) from a Bitbucket repository to a GitHub repository
through GitHub's asynchronous bulk import endpoint, using a YAML
configuration file for repository identifiers and user mappings.`,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			setupLogger(logLevel, logFormat)
		},
	}

	// Credentials can live in a .env file next to the config.
	_ = godotenv.Load()

	// Add global flags
	rootCmd.PersistentFlags().StringVarP(&logLevel, "log-level", "l", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVarP(&logFormat, "log-format", "f", "text", "Log format (text, json)")

	rootCmd.AddCommand(migratecmd.NewMigrateCmd(config.LoadConfig))
	rootCmd.AddCommand(checkcmd.NewCheckCmd(config.LoadConfig))

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func setupLogger(level, format string) {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	var handler slog.Handler
	if format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	} else {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	}

	slog.SetDefault(slog.New(handler))
}
