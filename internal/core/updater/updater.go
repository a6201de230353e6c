// Package updater replaces the running binary with the latest GitHub release.
package updater

import (
	"context"
	"fmt"
	"strings"

	"github.com/creativeprojects/go-selfupdate"
	"github.com/guiyumin/teradl/internal/core/version"
)

const (
	repoOwner = "guiyumin"
	repoName  = "teradl"
)

// Status describes how the running build compares to the latest release
type Status struct {
	Current   string
	Latest    string
	Available bool
}

func newUpdater() (*selfupdate.Updater, error) {
	source, err := selfupdate.NewGitHubSource(selfupdate.GitHubConfig{})
	if err != nil {
		return nil, err
	}
	return selfupdate.NewUpdater(selfupdate.Config{
		Source: source,
	})
}

// currentVersion strips the "v" prefix so it compares as semver
func currentVersion() string {
	return strings.TrimPrefix(version.Version, "v")
}

func detectLatest(ctx context.Context) (*selfupdate.Updater, *selfupdate.Release, error) {
	updater, err := newUpdater()
	if err != nil {
		return nil, nil, err
	}

	latest, found, err := updater.DetectLatest(ctx, selfupdate.NewRepositorySlug(repoOwner, repoName))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to check for updates: %w", err)
	}
	if !found {
		return nil, nil, fmt.Errorf("no releases found for %s/%s", repoOwner, repoName)
	}
	return updater, latest, nil
}

// Check reports whether a newer release exists without installing it
func Check(ctx context.Context) (*Status, error) {
	_, latest, err := detectLatest(ctx)
	if err != nil {
		return nil, err
	}
	current := currentVersion()
	return &Status{
		Current:   current,
		Latest:    latest.Version(),
		Available: !latest.LessOrEqual(current),
	}, nil
}

// Update installs the latest release over the running executable. The
// returned status has Available set when an update was applied.
func Update(ctx context.Context) (*Status, error) {
	updater, latest, err := detectLatest(ctx)
	if err != nil {
		return nil, err
	}

	status := &Status{Current: currentVersion(), Latest: latest.Version()}
	if latest.LessOrEqual(status.Current) {
		return status, nil
	}

	exe, err := selfupdate.ExecutablePath()
	if err != nil {
		return nil, fmt.Errorf("failed to get executable path: %w", err)
	}
	if err := updater.UpdateTo(ctx, latest, exe); err != nil {
		return nil, fmt.Errorf("failed to update: %w", err)
	}

	status.Available = true
	return status, nil
}
