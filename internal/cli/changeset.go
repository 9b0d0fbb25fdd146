package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/sublime-tools/monorepo/internal/changeset"
	"github.com/sublime-tools/monorepo/pkg/semver"
)

var changesetCmd = &cobra.Command{
	Use:   "changeset",
	Short: "Manage pending and archived changesets",
}

var changesetAddOpts struct {
	Branch       string
	Bump         string
	Packages     []string
	Environments []string
	Commits      []string
}

var changesetAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Record or update the pending changeset for a branch",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		services := buildServices(cfg)

		var bump semver.BumpKind
		if changesetAddOpts.Bump != "" {
			parsed, err := semver.ParseBumpKind(changesetAddOpts.Bump)
			if err != nil {
				exitOnError(err, ExitValidationCritical)
			}
			bump = parsed
		}

		now := time.Now()
		existing, err := services.Changesets.Load(changesetAddOpts.Branch)
		createdAt := now
		if err == nil {
			createdAt = existing.CreatedAt
		} else if !errors.Is(err, changeset.ErrNotFound) {
			exitOnError(err, ExitIOFailure)
		}

		c := changeset.Changeset{
			Branch:       changesetAddOpts.Branch,
			Bump:         bump,
			Packages:     changesetAddOpts.Packages,
			Environments: changesetAddOpts.Environments,
			Commits:      changesetAddOpts.Commits,
			CreatedAt:    createdAt,
			UpdatedAt:    now,
		}

		if err := services.Changesets.Save(c); err != nil {
			exitOnError(err, ExitIOFailure)
		}

		fmt.Fprintf(cmd.ErrOrStderr(), "saved changeset for branch %q (%d packages)\n", c.Branch, len(c.Packages))
		return nil
	},
}

var changesetListCmd = &cobra.Command{
	Use:   "list",
	Short: "List pending changesets",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		services := buildServices(cfg)

		pending, err := services.Changesets.ListPending()
		if err != nil {
			exitOnError(err, ExitIOFailure)
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if err := enc.Encode(pending); err != nil {
			exitOnError(err, ExitIOFailure)
		}
		return nil
	},
}

var changesetArchiveOpts struct {
	Branch    string
	AppliedBy string
	GitCommit string
	Released  []string // name=version pairs
}

var changesetArchiveCmd = &cobra.Command{
	Use:   "archive",
	Short: "Archive the pending changeset for a branch as released",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		services := buildServices(cfg)

		pending, err := services.Changesets.Load(changesetArchiveOpts.Branch)
		if err != nil {
			exitOnError(err, ExitIOFailure)
		}

		released := make(map[string]string, len(changesetArchiveOpts.Released))
		for _, pair := range changesetArchiveOpts.Released {
			name, version, ok := strings.Cut(pair, "=")
			if !ok {
				exitOnError(fmt.Errorf("cli: --released entry %q must be name=version", pair), ExitValidationCritical)
			}
			released[name] = version
		}

		info := changeset.ReleaseInfo{
			AppliedBy:        changesetArchiveOpts.AppliedBy,
			AppliedAt:        time.Now(),
			GitCommit:        changesetArchiveOpts.GitCommit,
			ReleasedVersions: released,
		}

		if err := services.Changesets.Archive(pending, info); err != nil {
			if errors.Is(err, changeset.ErrConcurrentModification) {
				exitOnError(err, ExitConcurrentModification)
			}
			exitOnError(err, ExitIOFailure)
		}

		fmt.Fprintf(cmd.ErrOrStderr(), "archived changeset for branch %q\n", pending.Branch)
		return nil
	},
}

func init() {
	changesetAddCmd.Flags().StringVar(&changesetAddOpts.Branch, "branch", "", "branch the changeset belongs to (required)")
	changesetAddCmd.Flags().StringVar(&changesetAddOpts.Bump, "bump", "", "version bump this changeset implies: major, minor, or patch (empty means no version impact)")
	changesetAddCmd.Flags().StringSliceVar(&changesetAddOpts.Packages, "packages", nil, "packages affected by this changeset")
	changesetAddCmd.Flags().StringSliceVar(&changesetAddOpts.Environments, "environments", nil, "deployment environments this changeset targets")
	changesetAddCmd.Flags().StringSliceVar(&changesetAddOpts.Commits, "commits", nil, "commit hashes this changeset covers")
	changesetAddCmd.MarkFlagRequired("branch")

	changesetArchiveCmd.Flags().StringVar(&changesetArchiveOpts.Branch, "branch", "", "branch whose pending changeset to archive (required)")
	changesetArchiveCmd.Flags().StringVar(&changesetArchiveOpts.AppliedBy, "applied-by", "", "identity performing the release")
	changesetArchiveCmd.Flags().StringVar(&changesetArchiveOpts.GitCommit, "git-commit", "", "commit the release was cut from")
	changesetArchiveCmd.Flags().StringSliceVar(&changesetArchiveOpts.Released, "released", nil, "name=version pairs recording what was actually released")
	changesetArchiveCmd.MarkFlagRequired("branch")

	changesetCmd.AddCommand(changesetAddCmd, changesetListCmd, changesetArchiveCmd)
}
