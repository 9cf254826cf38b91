package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/appengine-ltd/dailysim/internal/content"
	"github.com/appengine-ltd/dailysim/internal/report"
	"github.com/appengine-ltd/dailysim/internal/session"
	"github.com/appengine-ltd/dailysim/internal/settings"
	"github.com/appengine-ltd/dailysim/internal/store"
)

func initCmd(a *app) *cobra.Command {
	var (
		user  bool
		force bool
	)
	cmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Write a settings file with the current values",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := settings.DefaultPath
			switch {
			case len(args) > 0:
				path = args[0]
			case user:
				p, err := settings.UserPath()
				if err != nil {
					return err
				}
				path = p
			}
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}
			if err := settings.Save(path, a.cfg); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
			return nil
		},
	}
	cmd.Flags().BoolVar(&user, "user", false, "write to the per-user config directory")
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	return cmd
}

func importCmd(a *app) *cobra.Command {
	var (
		out          string
		allowPartial bool
	)
	cmd := &cobra.Command{
		Use:   "import [workbook]",
		Short: "Import a workbook (.xlsx or a directory of .csv sheets) into the content store",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := a.cfg.Workbook
			if len(args) > 0 {
				path = args[0]
			}
			db, rep, err := a.importWorkbook(path)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			fmt.Fprint(w, rep.String())
			if !rep.Complete() {
				fmt.Fprintf(w, "%s sheets in workbook: %s\n", color.New(color.FgYellow).Sprint("INCOMPLETE"), strings.Join(rep.Existing, ", "))
				if !allowPartial {
					return fmt.Errorf("import incomplete, nothing written (use --allow-partial to keep what was built): %w", rep.Err())
				}
			}

			dest := a.cfg.Database
			if out != "" {
				dest = out
			}
			if err := store.Save(cmd.Context(), dest, db); err != nil {
				return fmt.Errorf("save %s: %w", dest, err)
			}
			st := content.Build(db).Stats()
			fmt.Fprintf(w, "%s %s: days=%d placement_sets=%d dialogue_ids=%d\n",
				color.New(color.FgGreen).Sprint("WROTE"), dest, st.Days, st.PlacementSets, st.DialogueIDs)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "destination (.db, .json or .json.zst); defaults to the database setting")
	cmd.Flags().BoolVar(&allowPartial, "allow-partial", false, "write even when a sheet is missing")
	return cmd
}

func inspectCmd(a *app) *cobra.Command {
	var markdown bool
	cmd := &cobra.Command{
		Use:   "inspect [database|workbook]",
		Short: "Summarize an imported database",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := a.source(cmd.Context(), args)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if markdown {
				fmt.Fprint(w, report.Markdown(db))
				return nil
			}
			st := content.Build(db).Stats()
			fmt.Fprintf(w, "days=%d placement_sets=%d dialogue_ids=%d dialogue_lines=%d\n",
				st.Days, st.PlacementSets, st.DialogueIDs, len(db.Dialogue))
			for _, d := range db.Days {
				times := make([]string, 0, len(d.Blocks))
				for _, b := range d.Blocks {
					times = append(times, b.Time)
				}
				fmt.Fprintf(w, "  day %d (id %d): %d blocks %s\n", d.DayNumber, d.ID, len(d.Blocks), strings.Join(times, " "))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&markdown, "markdown", false, "print the full markdown reference")
	return cmd
}

func docsCmd(a *app) *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:   "docs [database|workbook]",
		Short: "Write markdown reference pages for an imported database",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := a.source(cmd.Context(), args)
			if err != nil {
				return err
			}
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return err
			}
			files := report.Files(db)
			for _, f := range files {
				path := filepath.Join(dir, f.Name)
				if err := os.WriteFile(path, []byte(f.Content), 0o644); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
			}
			indexPath := filepath.Join(dir, "README.md")
			if err := os.WriteFile(indexPath, []byte(report.Index(files)), 0o644); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", indexPath)
			return nil
		},
	}
	cmd.Flags().StringVarP(&dir, "out", "o", filepath.Join("docs", "reference"), "output directory")
	return cmd
}

func simulateCmd(a *app) *cobra.Command {
	var (
		scenePath string
		plain     bool
	)
	cmd := &cobra.Command{
		Use:   "simulate [database|workbook]",
		Short: "Run an interactive clock and schedule session",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := a.source(cmd.Context(), args)
			if err != nil {
				return err
			}
			if scenePath == "" {
				scenePath = a.cfg.Scene
			}
			var scene settings.Scene
			if scenePath != "" {
				if scene, err = settings.LoadScene(scenePath); err != nil {
					return fmt.Errorf("load scene: %w", err)
				}
			}
			opts := session.OptionsFrom(a.cfg, scene, a.log)
			opts.Plain = plain
			s, err := session.New(db, opts)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			if err := s.Run(ctx, cmd.InOrStdin(), cmd.OutOrStdout()); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&scenePath, "scene", "", "scene file with anchors and npcs")
	cmd.Flags().BoolVar(&plain, "plain", false, "disable colored output")
	return cmd
}
