// Package migrate implements the migrate subcommand, which runs the
// full extraction-transformation-submission pipeline.
package migrate

import (
	"fmt"
	"io"
	"os"

	"github.com/alan/issue-migrator/cmd"
	"github.com/alan/issue-migrator/internal/commands"
	"github.com/alan/issue-migrator/internal/github"
	"github.com/alan/issue-migrator/internal/migrate"
	"github.com/spf13/cobra"
)

// MigrateCommand encapsulates the migrate command with common functionality
type MigrateCommand struct {
	commands.BaseCommand
	Out io.Writer
}

// NewMigrateCmd creates the migrate command
func NewMigrateCmd(loadConfig func(string) (*cmd.Config, error)) *cobra.Command {
	migrateCmd := &MigrateCommand{Out: os.Stdout}
	var configFile string
	var dryRun bool
	var skip int

	cobraCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Migrate issues from Bitbucket to GitHub",
		Long: `Migrate issues from Bitbucket to GitHub.

Fetches every issue (with comments) from the configured Bitbucket
repository, maps them into GitHub's issue import schema and submits
them through the asynchronous bulk import endpoint, in ascending
source issue order.

Examples:
  issue-migrator migrate                  # Run the migration
  issue-migrator migrate --dry-run        # Print payloads without submitting
  issue-migrator migrate --skip 10        # Skip the first 10 fetched issues`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cobraCmd *cobra.Command, _ []string) error {
			migrateCmd.ConfigFile = &configFile
			migrateCmd.LoadConfig = loadConfig
			if err := migrateCmd.Init(); err != nil {
				return err
			}

			// Command-line flags override the config file.
			if cobraCmd.Flags().Changed("dry-run") {
				migrateCmd.Config.Options.DryRun = dryRun
			}
			if cobraCmd.Flags().Changed("skip") {
				migrateCmd.Config.Options.Skip = skip
			}

			return migrateCmd.Run()
		},
	}

	cobraCmd.Flags().StringVar(&configFile, "config", "migration.yaml", "Path to configuration file")
	cobraCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Map and print payloads without submitting")
	cobraCmd.Flags().IntVar(&skip, "skip", 0, "Skip the first N fetched issues")

	return cobraCmd
}

// Run executes the migrate command
func (mc *MigrateCommand) Run() error {
	options := mc.Config.Options

	rewriter := migrate.NewRewriter(mc.Config.BitbucketRepo)
	users := migrate.NewUserMap(mc.Config.UserMap, options.AssumeSameUser)
	mapper := migrate.NewMapper(mc.Config.BitbucketRepo, rewriter, users, options)
	milestones := github.NewMilestoneRegistry(mc.GitHub)
	importer := github.NewImporter(mc.GitHub, options.ImportsPerMinute)

	driver := migrate.NewDriver(mc.Bitbucket, importer, milestones, mapper, options, mc.Out)

	report, err := driver.Run(mc.Context)
	if err != nil {
		return fmt.Errorf("migration aborted: %w", err)
	}
	if failed := report.Failed(); failed > 0 {
		return fmt.Errorf("%d issue(s) failed to migrate", failed)
	}

	return nil
}
