package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/barysiuk/specrow/internal/core/session"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Manage the current work session",
	Long: `Sessions are directories under specs/ holding one piece of work each.
The current session is recorded in .specify/config.json; helper scripts
should use these commands instead of editing that file.`,
}

var sessionCurrentCmd = &cobra.Command{
	Use:   "current",
	Short: "Print the current session id",
	Long: `Print the current session id. Nothing is printed when no session is
current. A pointer to a missing session directory is an error.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := newStore(cmd)
		if err != nil {
			return err
		}
		id, err := store.ReadCurrent()
		if err != nil || id == "" {
			return err
		}
		if _, err := store.SessionPath(id); err != nil {
			return err
		}
		fmt.Fprintln(os.Stdout, id)
		return nil
	},
}

var sessionSetCmd = &cobra.Command{
	Use:   "set <id-or-query>",
	Short: "Make a session current",
	Long: `Make a session current. The argument may be a full id, a number
("3" for "003-login"), a unique id prefix, or a fuzzy query.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := newStore(cmd)
		if err != nil {
			return err
		}
		m, err := store.FindSession(args[0])
		if err != nil {
			return err
		}
		if err := store.WriteCurrent(m.ID); err != nil {
			return err
		}
		fmt.Fprintln(os.Stdout, m.ID)
		return nil
	},
}

var sessionClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Clear the current session",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := newStore(cmd)
		if err != nil {
			return err
		}
		return store.ClearCurrent()
	},
}

var sessionListCmd = &cobra.Command{
	Use:   "list",
	Short: "List sessions, most recently updated first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := newStore(cmd)
		if err != nil {
			return err
		}
		all, _ := cmd.Flags().GetBool("all")
		asJSON, _ := cmd.Flags().GetBool("json")

		var sessions []session.Metadata
		if all {
			sessions, err = store.List()
		} else {
			sessions, err = store.ListActive()
		}
		if err != nil {
			return err
		}
		current, _ := store.ReadCurrent()

		if asJSON {
			if sessions == nil {
				sessions = []session.Metadata{}
			}
			return writeJSON(sessions)
		}

		if len(sessions) == 0 {
			fmt.Fprintln(os.Stdout, "No sessions.")
			return nil
		}
		for _, m := range sessions {
			marker := " "
			if m.ID == current {
				marker = "*"
			}
			fmt.Fprintf(os.Stdout, "%s %-30s  %-11s  %s  %s\n",
				marker, m.ID, m.Status, m.LastUpdated.Format("2006-01-02 15:04"), m.Name)
		}
		return nil
	},
}

var sessionResolveCmd = &cobra.Command{
	Use:   "resolve <intent...>",
	Short: "Pick or create the session for a piece of work and make it current",
	Long: `Resolve the session a piece of work belongs to. The current session is
reused when set. Otherwise an active session whose name shares most words
with the intent is reused. Otherwise a new draft session is created.

The session id is printed; --json adds whether it was reused and why.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := newStore(cmd)
		if err != nil {
			return err
		}
		res, err := store.ResolveOrCreate(strings.Join(args, " "))
		if err != nil {
			return err
		}
		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			path, err := store.SessionPath(res.SessionID)
			if err != nil {
				return err
			}
			return writeJSON(struct {
				*session.Resolution
				Path string `json:"path"`
			}{res, path})
		}
		fmt.Fprintln(os.Stdout, res.SessionID)
		return nil
	},
}

var sessionSetStatusCmd = &cobra.Command{
	Use:   "set-status <id-or-query> <status>",
	Short: "Set a session's status (draft, in-progress, completed)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := newStore(cmd)
		if err != nil {
			return err
		}
		status, err := session.ParseStatus(args[1])
		if err != nil {
			return err
		}
		m, err := store.FindSession(args[0])
		if err != nil {
			return err
		}
		if _, err := store.Touch(m.ID, status); err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "%s: %s\n", m.ID, status)
		return nil
	},
}

var sessionPathCmd = &cobra.Command{
	Use:   "path [id-or-query]",
	Short: "Print the directory of a session (default: the current one)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := newStore(cmd)
		if err != nil {
			return err
		}

		var id string
		if len(args) > 0 {
			m, err := store.FindSession(args[0])
			if err != nil {
				return err
			}
			id = m.ID
		} else {
			if id, err = store.ReadCurrent(); err != nil {
				return err
			}
			if id == "" {
				return fmt.Errorf("no current session; run 'specrow session resolve <intent>' first")
			}
		}

		path, err := store.SessionPath(id)
		if err != nil {
			return err
		}
		fmt.Fprintln(os.Stdout, path)
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{
		sessionCurrentCmd, sessionSetCmd, sessionClearCmd, sessionListCmd,
		sessionResolveCmd, sessionSetStatusCmd, sessionPathCmd,
	} {
		addDirFlag(c)
		sessionCmd.AddCommand(c)
	}
	sessionListCmd.Flags().Bool("all", false, "Include completed sessions")
	sessionListCmd.Flags().Bool("json", false, "Output as JSON")
	sessionResolveCmd.Flags().Bool("json", false, "Output as JSON")

	rootCmd.AddCommand(sessionCmd)
}

func newStore(cmd *cobra.Command) (*session.Store, error) {
	dir, err := resolveTargetDir(cmd)
	if err != nil {
		return nil, err
	}
	return session.NewStore(dir), nil
}

func writeJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
