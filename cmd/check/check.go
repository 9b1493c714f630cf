// Package check implements the check subcommand, a preflight that
// verifies both trackers are reachable with the configured credentials.
package check

import (
	"fmt"
	"io"
	"os"

	"github.com/alan/issue-migrator/cmd"
	"github.com/alan/issue-migrator/internal/commands"
	"github.com/spf13/cobra"
)

// CheckCommand encapsulates the check command with common functionality
type CheckCommand struct {
	commands.BaseCommand
	Out io.Writer
}

// NewCheckCmd creates the check command
func NewCheckCmd(loadConfig func(string) (*cmd.Config, error)) *cobra.Command {
	checkCmd := &CheckCommand{Out: os.Stdout}
	var configFile string

	cobraCmd := &cobra.Command{
		Use:   "check",
		Short: "Verify credentials and repository access on both trackers",
		Long: `Verify credentials and repository access on both trackers.

Confirms the Bitbucket repository is readable with the configured
credentials and the GitHub token can reach the destination repository,
without migrating anything.`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(_ *cobra.Command, _ []string) error {
			checkCmd.ConfigFile = &configFile
			checkCmd.LoadConfig = loadConfig
			if err := checkCmd.Init(); err != nil {
				return err
			}

			return checkCmd.Run()
		},
	}

	cobraCmd.Flags().StringVar(&configFile, "config", "migration.yaml", "Path to configuration file")

	return cobraCmd
}

// Run executes the check command
func (cc *CheckCommand) Run() error {
	count, err := cc.Bitbucket.Count(cc.Context)
	if err != nil {
		return fmt.Errorf("bitbucket check failed: %w", err)
	}
	fmt.Fprintf(cc.Out, "Bitbucket: %s reachable, %d issues\n", cc.Bitbucket.Repo(), count)

	login, err := cc.GitHub.GetAuthenticatedUser(cc.Context)
	if err != nil {
		return fmt.Errorf("github check failed: %w", err)
	}
	if err := cc.GitHub.GetRepository(cc.Context); err != nil {
		return fmt.Errorf("github check failed: %w", err)
	}
	fmt.Fprintf(cc.Out, "GitHub: authenticated as %s, %s reachable\n", login, cc.GitHub.Repo())

	return nil
}
