// status replaces the teacher's consignment-status command, which
// read pkg/consignment/pkg/changelog records of a different domain
// entirely; this version runs Validation over the live Dependency
// Graph instead.
package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sublime-tools/monorepo/internal/logger"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Validate the workspace's dependency graph and report structural issues",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		services := buildServices(cfg)

		report, err := services.ValidateWorkspace(cfg.ValidateOptions())
		if err != nil {
			exitOnError(err, ExitIOFailure)
		}

		type issueView struct {
			Message  string `json:"message"`
			Critical bool   `json:"critical"`
		}
		view := make([]issueView, 0, len(report.Issues))
		for _, issue := range report.Issues {
			view = append(view, issueView{Message: issue.Err.Error(), Critical: issue.Critical})
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if err := enc.Encode(view); err != nil {
			exitOnError(err, ExitIOFailure)
		}

		if report.HasCritical() {
			logger.Error("workspace has critical validation issues", "count", len(report.Issues))
			os.Exit(ExitValidationCritical)
		}
		if len(report.Issues) > 0 {
			logger.Warn("workspace has non-critical validation issues", "count", len(report.Issues))
			if opts.Strict {
				os.Exit(ExitValidationWarning)
			}
		}
		fmt.Fprintln(cmd.ErrOrStderr(), "workspace is valid")
		return nil
	},
}
