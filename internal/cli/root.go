// Package cli holds the cobra commands of the dailysim binary.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/appengine-ltd/dailysim/internal/content"
	"github.com/appengine-ltd/dailysim/internal/importer"
	"github.com/appengine-ltd/dailysim/internal/settings"
	"github.com/appengine-ltd/dailysim/internal/store"
	"github.com/appengine-ltd/dailysim/internal/workbook"
)

// Build carries the metadata injected by ldflags.
type Build struct {
	Version string
	Commit  string
	Date    string
}

func (b Build) String() string {
	return fmt.Sprintf("%s (%s) %s", b.Version, b.Commit, b.Date)
}

type app struct {
	configPath string
	cfg        settings.Settings
	log        *slog.Logger
}

func NewRootCmd(build Build) *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "dailysim",
		Short:         "Import daily-system workbooks and simulate their schedules",
		Version:       build.String(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.load(cmd)
		},
	}
	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", settings.DefaultPath, "settings file")

	root.AddCommand(initCmd(a))
	root.AddCommand(importCmd(a))
	root.AddCommand(inspectCmd(a))
	root.AddCommand(docsCmd(a))
	root.AddCommand(simulateCmd(a))
	root.AddCommand(versionCmd(build))
	return root
}

func (a *app) load(cmd *cobra.Command) error {
	cfg, err := settings.Load(settings.Resolve(a.configPath))
	if err != nil {
		return err
	}
	if err := settings.ApplyEnv(&cfg); err != nil {
		return err
	}
	a.cfg = cfg
	a.log = cfg.Logger(cmd.ErrOrStderr())
	return nil
}

func versionCmd(build Build) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return nil
		},
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "dailysim %s\n", build)
		},
	}
}

func isWorkbookPath(path string) bool {
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		return true
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm", ".csv":
		return true
	}
	return false
}

// importWorkbook reads and converts a workbook without persisting it.
func (a *app) importWorkbook(path string) (content.Database, importer.Report, error) {
	if strings.TrimSpace(path) == "" {
		return content.Database{}, importer.Report{}, fmt.Errorf("no workbook: pass a path or set workbook / DAILYSIM_WORKBOOK")
	}
	wb, err := workbook.Open(path)
	if err != nil {
		return content.Database{}, importer.Report{}, fmt.Errorf("open workbook: %w", err)
	}
	db, rep := importer.Import(wb, a.cfg.ImportOptions(a.log))
	return db, rep, nil
}

// source loads a stored database, or imports on the fly when path points
// at a workbook.
func (a *app) source(ctx context.Context, args []string) (content.Database, error) {
	path := a.cfg.Database
	if len(args) > 0 {
		path = args[0]
	}
	if isWorkbookPath(path) {
		db, rep, err := a.importWorkbook(path)
		if err != nil {
			return db, err
		}
		if !rep.Complete() {
			a.log.Warn("workbook import incomplete", "err", rep.Err())
		}
		return db, nil
	}
	db, err := store.Load(ctx, path)
	if err != nil {
		return db, fmt.Errorf("load %s: %w", path, err)
	}
	return db, nil
}
