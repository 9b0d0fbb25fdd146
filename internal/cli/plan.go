package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/sublime-tools/monorepo/internal/changedetect"
	"github.com/sublime-tools/monorepo/internal/config"
	"github.com/sublime-tools/monorepo/internal/logger"
	"github.com/sublime-tools/monorepo/internal/manifest"
	"github.com/sublime-tools/monorepo/internal/monorepo"
	"github.com/sublime-tools/monorepo/internal/planner"
	"github.com/sublime-tools/monorepo/internal/validate"
	"github.com/sublime-tools/monorepo/internal/vcs"
	"github.com/sublime-tools/monorepo/pkg/semver"
)

var planOpts struct {
	FromRef string
	ToRef   string
	Apply   bool
}

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Detect changes and plan version updates under the configured strategy",
	Long: "Detects file changes (against HEAD's worktree status, or between --from-ref and " +
		"--to-ref when given), classifies their impact, and plans version updates under the " +
		"configured version_strategy. Prints the plan as JSON; pass --apply to write the " +
		"planned versions back into each affected package's manifest.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		services := buildServices(cfg)

		repo, err := vcs.Open(opts.Root)
		if err != nil {
			exitOnError(err, ExitIOFailure)
		}

		toRef := planOpts.ToRef
		if toRef == "" {
			toRef, err = repo.CurrentCommit()
			if err != nil {
				exitOnError(err, ExitIOFailure)
			}
		}

		var fileChanges []changedetect.FileChange
		if planOpts.FromRef == "" {
			fileChanges, err = repo.StatusChanges()
		} else {
			fileChanges, err = repo.Diff(planOpts.FromRef, toRef)
		}
		if err != nil {
			exitOnError(err, ExitIOFailure)
		}

		var commits []planner.Commit
		if cfg.VersionStrategy.Kind == config.StrategyConventional {
			fromRef := planOpts.FromRef
			if fromRef == "" {
				fromRef = cfg.VersionStrategy.FromRef
			}
			commits, err = repo.Log(fromRef, toRef)
			if err != nil {
				exitOnError(err, ExitIOFailure)
			}
		}

		strategy, err := cfg.Strategy(commits)
		if err != nil {
			exitOnError(err, ExitValidationCritical)
		}

		result, err := services.ApplyChanges(fileChanges, nil, cfg.Thresholds(), strategy, planner.Options{})
		if err != nil {
			exitOnError(err, ExitIOFailure)
		}

		g, err := services.Graph()
		if err != nil {
			exitOnError(err, ExitIOFailure)
		}
		manualTargets, err := cfg.ManualTargets()
		if err != nil {
			exitOnError(err, ExitValidationCritical)
		}
		report := validate.ValidateRelease(g, cfg.ValidateOptions(), result, manualTargets)

		if err := printPlan(cmd, result, report); err != nil {
			exitOnError(err, ExitIOFailure)
		}

		if report.HasCritical() {
			logger.Error("plan has critical validation issues", "count", len(report.Issues))
			os.Exit(ExitValidationCritical)
		}
		if len(report.Issues) > 0 {
			logger.Warn("plan has non-critical validation issues", "count", len(report.Issues))
			if opts.Strict {
				os.Exit(ExitValidationWarning)
			}
		}

		if planOpts.Apply {
			if err := applyPlan(services, result); err != nil {
				exitOnError(err, ExitIOFailure)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "applied %d version changes\n", len(result.Changes))
		}

		return nil
	},
}

func init() {
	planCmd.Flags().StringVar(&planOpts.FromRef, "from-ref", "", "diff against this ref instead of the current worktree status")
	planCmd.Flags().StringVar(&planOpts.ToRef, "to-ref", "", "diff up to this ref (default: HEAD)")
	planCmd.Flags().BoolVar(&planOpts.Apply, "apply", false, "write planned versions back into package manifests")
}

func printPlan(cmd *cobra.Command, result *planner.Result, report *validate.Report) error {
	type changeView struct {
		Package    string `json:"package"`
		OldVersion string `json:"old_version"`
		NewVersion string `json:"new_version"`
		Bump       string `json:"bump"`
		Source     string `json:"source"`
	}
	type issueView struct {
		Message  string `json:"message"`
		Critical bool   `json:"critical"`
	}
	view := struct {
		Changes []changeView `json:"changes"`
		Issues  []issueView  `json:"issues"`
	}{}

	for _, c := range result.Changes {
		view.Changes = append(view.Changes, changeView{
			Package:    c.Package,
			OldVersion: c.OldVersion.String(),
			NewVersion: c.NewVersion.String(),
			Bump:       string(c.Bump),
			Source:     string(c.Source),
		})
	}
	for _, i := range report.Issues {
		view.Issues = append(view.Issues, issueView{Message: i.Err.Error(), Critical: i.Critical})
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(view)
}

// applyPlan persists every planned version change to its package's
// manifest file, re-reading each Document fresh since the Facade only
// keeps the typed Package in memory.
func applyPlan(services *monorepo.Services, result *planner.Result) error {
	reqsByPackage := make(map[string]map[manifest.DependencyKind]map[string]string)
	for _, edit := range result.RequirementEdits {
		if !edit.Rewritten {
			continue
		}
		if reqsByPackage[edit.Package] == nil {
			reqsByPackage[edit.Package] = make(map[manifest.DependencyKind]map[string]string)
		}
		if reqsByPackage[edit.Package][edit.Kind] == nil {
			reqsByPackage[edit.Package][edit.Kind] = make(map[string]string)
		}
		reqsByPackage[edit.Package][edit.Kind][edit.Dependency] = edit.NewReq
	}

	versions := make(map[string]semver.Version, len(result.Changes))
	for _, c := range result.Changes {
		versions[c.Package] = c.NewVersion
	}

	touched := make(map[string]bool, len(result.Changes))
	for name := range versions {
		touched[name] = true
	}
	for name := range reqsByPackage {
		touched[name] = true
	}

	for name := range touched {
		pkg, ok := services.Package(name)
		if !ok {
			continue
		}
		manifestPath := filepath.Join(pkg.AbsPath, "package.json")
		_, doc, err := manifest.Read(manifestPath)
		if err != nil {
			return err
		}

		edits := manifest.Edits{RequirementRewrites: reqsByPackage[name]}
		if newVersion, changed := versions[name]; changed {
			edits.NewVersion = &newVersion
		}
		if err := doc.Write(edits); err != nil {
			return err
		}
	}
	return nil
}
