// Package config provides functions for loading and validating issue-migrator configuration files.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/alan/issue-migrator/cmd"
	"gopkg.in/yaml.v3"
)

// LoadConfig loads and validates the configuration from the specified file
func LoadConfig(filename string) (*cmd.Config, error) {
	data, err := os.ReadFile(filename) //nolint:gosec // Config filename is from command-line flag
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config cmd.Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := Validate(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// SaveConfig saves the configuration to the specified file
func SaveConfig(filename string, config *cmd.Config) error {
	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks that the configuration is usable before the pipeline runs
func Validate(config *cmd.Config) error {
	if _, _, err := SplitRepo(config.BitbucketRepo); err != nil {
		return fmt.Errorf("invalid bitbucket_repo: %w", err)
	}
	if _, _, err := SplitRepo(config.GitHubRepo); err != nil {
		return fmt.Errorf("invalid github_repo: %w", err)
	}
	if config.Options.Skip < 0 {
		return fmt.Errorf("skip must not be negative, got %d", config.Options.Skip)
	}
	if config.Options.ImportsPerMinute < 0 {
		return fmt.Errorf("imports_per_minute must not be negative, got %d", config.Options.ImportsPerMinute)
	}
	for _, id := range config.Options.OnlyIssues {
		if id <= 0 {
			return fmt.Errorf("only_issues entries must be positive, got %d", id)
		}
	}
	return nil
}

// SplitRepo splits an <owner>/<name> repository identifier into its parts
func SplitRepo(repo string) (owner, name string, err error) {
	parts := strings.Split(repo, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("expected <owner>/<name>, got %q", repo)
	}
	return parts[0], parts[1], nil
}
