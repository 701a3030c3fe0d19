package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/barysiuk/specrow/internal/core/assistant"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check which assistant tools are installed",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		missing := 0
		for _, a := range assistant.All() {
			switch {
			case !a.RequiresCLI():
				fmt.Fprintf(os.Stdout, "  -  %-24s %s\n", a.DisplayName, "IDE-based, no CLI needed")
			case a.IsInstalled():
				fmt.Fprintf(os.Stdout, "  ✓  %-24s %s\n", a.DisplayName, a.CLITool)
			default:
				missing++
				fmt.Fprintf(os.Stdout, "  ✗  %-24s %s not found (%s)\n", a.DisplayName, a.CLITool, a.InstallURL)
			}
		}
		fmt.Fprintln(os.Stdout)
		if missing > 0 {
			fmt.Fprintf(os.Stdout, "%d assistant CLI(s) not found. Templates can still be installed for them.\n", missing)
		} else {
			fmt.Fprintln(os.Stdout, "All assistant CLIs found.")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
}
