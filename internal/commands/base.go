// Package commands provides shared setup for issue-migrator subcommands.
package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/alan/issue-migrator/cmd"
	"github.com/alan/issue-migrator/internal/bitbucket"
	"github.com/alan/issue-migrator/internal/config"
	"github.com/alan/issue-migrator/internal/github"
)

// BaseCommand provides common fields and initialization for all commands
type BaseCommand struct {
	ConfigFile *string
	LoadConfig func(string) (*cmd.Config, error)
	Context    context.Context
	Config     *cmd.Config
	Bitbucket  *bitbucket.Client
	GitHub     *github.Client
}

// Init loads the configuration and constructs both API clients
func (bc *BaseCommand) Init() error {
	cfg, err := bc.LoadConfig(*bc.ConfigFile)
	if err != nil {
		return err
	}
	bc.Config = cfg
	bc.Context = context.Background()

	bbOwner, bbSlug, err := config.SplitRepo(cfg.BitbucketRepo)
	if err != nil {
		return err
	}
	password := ""
	if cfg.BitbucketUser != "" {
		password = os.Getenv("BITBUCKET_PASSWORD")
		if password == "" {
			return fmt.Errorf("bitbucket_user is set but BITBUCKET_PASSWORD environment variable is empty")
		}
	}
	bc.Bitbucket = bitbucket.NewClient(bbOwner, bbSlug, cfg.BitbucketUser, password)

	ghOwner, ghRepo, err := config.SplitRepo(cfg.GitHubRepo)
	if err != nil {
		return err
	}
	token, err := getGitHubToken()
	if err != nil {
		return err
	}
	bc.GitHub = github.NewClient(bc.Context, token, ghOwner, ghRepo)

	return nil
}

// getGitHubToken retrieves and validates the GitHub token
func getGitHubToken() (string, error) {
	token := os.Getenv("GITHUB_TOKEN")
	if token == "" {
		return "", fmt.Errorf("GITHUB_TOKEN environment variable is required")
	}
	return token, nil
}
