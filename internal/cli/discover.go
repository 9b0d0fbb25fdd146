package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sublime-tools/monorepo/internal/discovery"
)

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Discover the workspace's package manager and member packages",
	RunE: func(cmd *cobra.Command, args []string) error {
		result, err := discovery.Discover(opts.Root)
		if err != nil {
			exitOnError(err, ExitIOFailure)
		}

		type packageView struct {
			Name    string `json:"name"`
			Version string `json:"version"`
			Path    string `json:"path"`
		}
		view := struct {
			Manager  string        `json:"manager"`
			Packages []packageView `json:"packages"`
		}{Manager: string(result.Manager)}

		for _, p := range result.Packages {
			view.Packages = append(view.Packages, packageView{
				Name:    p.Name,
				Version: p.Version.String(),
				Path:    p.RelPath,
			})
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if err := enc.Encode(view); err != nil {
			exitOnError(err, ExitIOFailure)
		}

		fmt.Fprintf(cmd.ErrOrStderr(), "discovered %d packages via %s\n", len(result.Packages), result.Manager)
		return nil
	},
}
