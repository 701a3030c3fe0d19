package cmd

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/barysiuk/specrow/internal/core"
	"github.com/barysiuk/specrow/internal/logging"
)

// resolveTargetDir resolves the --dir flag or falls back to cwd.
func resolveTargetDir(cmd *cobra.Command) (string, error) {
	dir, _ := cmd.Flags().GetString("dir")
	if dir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("getting current directory: %w", err)
		}
		return cwd, nil
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolving %s: %w", dir, err)
	}
	return abs, nil
}

// addDirFlag adds the -d/--dir project directory flag to a command.
func addDirFlag(cmd *cobra.Command) {
	cmd.Flags().StringP("dir", "d", "", "Project directory (default: current directory)")
}

// isTerminal reports whether f is attached to a terminal.
func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// openLogger opens ~/.specrow/logs/specrow.log. Logging is best-effort: a
// failure is reported once and a discarding logger is returned.
func openLogger(cmd *cobra.Command) *logging.Logger {
	debug, _ := cmd.Flags().GetBool("debug")

	base := core.DefaultGlobalDir()
	if base == "" {
		return nil
	}
	l, err := logging.New(base)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		return nil
	}
	if debug {
		l.Echo(os.Stderr)
	}
	return l
}

// confirm asks a yes/no question on out and reads the answer from in.
// Anything but "y" or "yes" is a no.
func confirm(in io.Reader, out io.Writer, question string) bool {
	fmt.Fprintf(out, "%s [y/N] ", question)
	answer, _ := bufio.NewReader(in).ReadString('\n')
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true
	}
	return false
}
