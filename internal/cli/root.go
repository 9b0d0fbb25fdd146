// Package cli wires the cobra command tree over the Facade
// (internal/monorepo), grounded on the teacher's internal/cli/root.go
// shape (a package-level root command, persistent --verbose/--log-level
// flags, fang as the execution entry point). The teacher's own root.go
// drove a logger API (logger.LogLevel/logger.Config/logger.Init) that
// matches neither internal/logger's shape here nor the key-value calls
// the teacher's other command files actually make, so this rewrite
// wires the new config/logger packages directly instead of reconciling
// any of the teacher's three drifted logger designs.
package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/sublime-tools/monorepo/internal/changeset"
	"github.com/sublime-tools/monorepo/internal/config"
	"github.com/sublime-tools/monorepo/internal/discovery"
	"github.com/sublime-tools/monorepo/internal/logger"
	"github.com/sublime-tools/monorepo/internal/monorepo"
)

// Version is set at build time via -ldflags.
var Version = "dev"

var opts struct {
	Root     string
	Config   string
	Verbose  bool
	LogLevel string
	Strict   bool
}

// RootCmd is the entry point cmd/monorepo wires into fang.Execute.
var RootCmd = &cobra.Command{
	Use:     "monorepo",
	Short:   "Workspace discovery, dependency graph, and release planning for polyglot monorepos",
	Version: Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level := opts.LogLevel
		if opts.Verbose {
			level = "debug"
		}
		lvl, err := logger.ParseLevel(level)
		if err != nil {
			return err
		}
		logger.SetGlobal(logger.New(os.Stderr, lvl, false))
		return nil
	},
}

func init() {
	RootCmd.PersistentFlags().StringVar(&opts.Root, "root", ".", "monorepo root directory")
	RootCmd.PersistentFlags().StringVar(&opts.Config, "config", "", "path to the config file (default: search .monorepo/ upward from root)")
	RootCmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "debug-level logging")
	RootCmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "info", "log level: debug, info, warn, error")
	RootCmd.PersistentFlags().BoolVar(&opts.Strict, "strict", true, "treat non-critical validation issues as a failing exit code")

	RootCmd.AddCommand(discoverCmd)
	RootCmd.AddCommand(statusCmd)
	RootCmd.AddCommand(planCmd)
	RootCmd.AddCommand(changesetCmd)
}

// loadConfig loads the configuration for opts.Root, falling back to
// documented defaults when no config file exists rather than failing,
// since a config file is optional per spec.md §6.
func loadConfig() *config.Config {
	if opts.Config != "" {
		cfg, err := config.Load(opts.Config)
		if err != nil {
			logger.Error("failed to load config", "path", opts.Config, "error", err)
			os.Exit(ExitIOFailure)
		}
		return cfg
	}

	path, err := config.FindConfig(opts.Root)
	if err != nil {
		logger.Debug("no config file found, using documented defaults", "root", opts.Root)
		return config.Config{}.WithDefaults()
	}

	cfg, err := config.Load(path)
	if err != nil {
		logger.Error("failed to load config", "path", path, "error", err)
		os.Exit(ExitIOFailure)
	}
	return cfg
}

// buildServices runs Workspace Discovery and opens the Changeset Store
// for opts.Root, producing the one Facade instance every command
// drives its operation through.
func buildServices(cfg *config.Config) *monorepo.Services {
	result, err := discovery.Discover(opts.Root)
	if err != nil {
		exitOnError(err, ExitIOFailure)
	}

	store, err := changeset.NewFileStore(filepath.Join(opts.Root, cfg.ChangesetDir))
	if err != nil {
		exitOnError(err, ExitIOFailure)
	}

	return monorepo.New(opts.Root, result.Packages, store)
}

// exitOnError logs err and exits with code when err is non-nil; it is
// a no-op otherwise, letting callers write `exitOnError(err, ...)`
// inline without an explicit `if err != nil` wrapper at every call site.
func exitOnError(err error, code int) {
	if err == nil {
		return
	}
	logger.Error(err.Error())
	fmt.Fprintln(os.Stderr, err)
	os.Exit(code)
}
