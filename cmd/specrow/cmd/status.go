package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/barysiuk/specrow/internal/core"
	"github.com/barysiuk/specrow/internal/core/session"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the project's templates and current session",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, err := resolveTargetDir(cmd)
		if err != nil {
			return err
		}

		cm := core.NewProjectConfigManager(dir)
		if !cm.Exists() {
			fmt.Fprintf(os.Stdout, "Project: %s [not initialized]\n", dir)
			fmt.Fprintln(os.Stdout, "To initialize it, run: specrow init --here")
			return nil
		}
		cfg, err := cm.Load()
		if err != nil {
			return err
		}

		fmt.Fprintf(os.Stdout, "Project: %s\n", dir)
		fmt.Fprintf(os.Stdout, "  Assistants: %s\n", orNone(strings.Join(cfg.SelectedAssistants, ", ")))
		fmt.Fprintf(os.Stdout, "  Script:     %s\n", orNone(cfg.ScriptFlavor))
		fmt.Fprintf(os.Stdout, "  Version:    %s\n", orNone(cfg.TemplateVersion))

		store := session.NewStore(dir)
		current := "(none)"
		if cfg.CurrentSession != nil && *cfg.CurrentSession != "" {
			current = *cfg.CurrentSession
			if _, err := store.SessionPath(current); err != nil {
				current += " (missing)"
			}
		}
		fmt.Fprintf(os.Stdout, "  Session:    %s\n", current)

		lock, err := core.ReadTemplateLock(dir)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		}
		if lock != nil && len(lock.Templates) > 0 {
			fmt.Fprintln(os.Stdout)
			fmt.Fprintf(os.Stdout, "Templates (%d):\n", len(lock.Templates))
			for _, t := range lock.Sorted() {
				version := t.Tag
				if version == "" {
					version = t.Source
				}
				fmt.Fprintf(os.Stdout, "  %-14s %-10s %s\n", t.Assistant, version, t.Asset)
			}
		}

		active, err := store.ListActive()
		if err != nil {
			return err
		}
		fmt.Fprintln(os.Stdout)
		fmt.Fprintf(os.Stdout, "Active sessions: %d\n", len(active))
		return nil
	},
}

func init() {
	addDirFlag(statusCmd)
	rootCmd.AddCommand(statusCmd)
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}
