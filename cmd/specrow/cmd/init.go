package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/barysiuk/specrow/internal/core"
	"github.com/barysiuk/specrow/internal/core/assistant"
	"github.com/barysiuk/specrow/internal/core/progress"
	"github.com/barysiuk/specrow/internal/core/release"
	"github.com/barysiuk/specrow/internal/tui"
)

// defaultAssistant is used when --ai is absent and no prompt can be shown.
const defaultAssistant = "copilot"

var initCmd = &cobra.Command{
	Use:   "init [project-name]",
	Short: "Create or update a project from the published templates",
	Long: `Fetch the template archive for each selected AI assistant and script
flavor, and merge it into a new project directory or the current one.

Archives come from the latest release of the template repository, or from
--local-dir when given. Assistants that fail are reported as warnings as
long as at least one succeeds.

Examples:
  specrow init my-app --ai claude,gemini
  specrow init --here --ai copilot --script ps
  specrow init . --local-dir ./dist --force`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInit,
}

func init() {
	f := initCmd.Flags()
	f.String("ai", "", "Comma-separated assistants (e.g. claude,gemini)")
	f.String("script", "", "Script flavor: sh or ps (default depends on the OS)")
	f.Bool("here", false, "Initialize in the current directory")
	f.Bool("force", false, "Merge into a non-empty current directory without asking")
	f.String("local-dir", "", "Directory with template archives (skips the release index)")
	f.String("repo", "", "Template repository as owner/name")
	f.String("github-token", "", "API token for the release index")
	f.String("template-prefix", "", "Asset name prefix of the template archives")
	f.Duration("timeout", release.DefaultTimeout, "Timeout for each request")
	f.Bool("no-interactive", false, "Never prompt")
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	here, _ := cmd.Flags().GetBool("here")
	force, _ := cmd.Flags().GetBool("force")
	noInteractive, _ := cmd.Flags().GetBool("no-interactive")

	name := ""
	if len(args) > 0 {
		name = strings.TrimSpace(args[0])
	}
	if name == "." {
		here, name = true, ""
	}
	if here && name != "" {
		return fmt.Errorf("cannot use both a project name and --here")
	}
	if !here && name == "" {
		return fmt.Errorf("a project name is required (or use --here)")
	}

	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting current directory: %w", err)
	}
	dest := cwd
	if !here {
		dest = filepath.Join(cwd, name)
		if _, err := os.Stat(dest); err == nil {
			return fmt.Errorf("directory %s already exists", dest)
		}
	}

	interactive := !noInteractive && isTerminal(os.Stdin) && isTerminal(os.Stdout)

	if here && !force {
		empty, err := core.IsEmptyDir(dest)
		if err != nil {
			return err
		}
		if !empty {
			if !interactive {
				return fmt.Errorf("current directory is not empty; use --force to merge templates into it")
			}
			if !confirm(os.Stdin, os.Stdout, "Current directory is not empty. Merge templates into it?") {
				return fmt.Errorf("aborted")
			}
		}
	}

	assistants, err := chooseAssistants(cmd, dest, interactive)
	if err != nil {
		return err
	}
	script, err := chooseScript(cmd, interactive)
	if err != nil {
		return err
	}

	env := core.NewEnvResolver(cwd, "")
	localDir := flagOrEnv(cmd, "local-dir", env, core.EnvTemplateDir, "")
	if localDir != "" {
		if localDir, err = filepath.Abs(localDir); err != nil {
			return fmt.Errorf("resolving --local-dir: %w", err)
		}
	}
	tokenFlag, _ := cmd.Flags().GetString("github-token")
	timeout, _ := cmd.Flags().GetDuration("timeout")

	client, err := release.NewClient(release.ClientOptions{
		APIURL:    env.Get(core.EnvAPIURL, ""),
		Repo:      flagOrEnv(cmd, "repo", env, core.EnvRepo, ""),
		Token:     env.ResolveToken(tokenFlag).Value,
		Timeout:   timeout,
		UserAgent: "specrow/" + Version,
	})
	if err != nil {
		return err
	}
	defer func() { _ = client.Close() }()

	log := openLogger(cmd)
	defer func() { _ = log.Close() }()

	prefix := flagOrEnv(cmd, "template-prefix", env, core.EnvTemplatePrefix, release.DefaultPrefix)
	orch := core.NewOrchestrator(release.NewResolver(client, prefix), release.NewFetcher(client, cwd))
	orch.SetLogger(log)

	source := client.Repo()
	if localDir != "" {
		source = localDir
	}
	log.Printf("init %s: assistants=%s script=%s source=%s", dest, strings.Join(assistants, ","), script, source)

	fmt.Fprintln(os.Stdout, tui.Banner("init", dest))
	tracker := progress.NewTracker("Acquire templates")
	tty := isTerminal(os.Stdout)
	if tty {
		live := progress.NewLive(os.Stdout, tracker, true)
		live.Attach()
		defer live.Detach()
	}

	start := time.Now()
	res, err := orch.Acquire(cmd.Context(), core.AcquireOptions{
		Destination:  dest,
		Assistants:   assistants,
		ScriptFlavor: script,
		ExistingDir:  here,
		LocalDir:     localDir,
		Tracker:      tracker,
	})
	if !tty {
		fmt.Fprintln(os.Stdout, tracker.Render())
	}

	var failed *core.AcquireFailedError
	if errors.As(err, &failed) {
		for _, o := range failed.Outcomes {
			fmt.Fprintln(os.Stderr, tui.RenderAcquireError(o.Err))
		}
		log.Printf("init %s: %v", dest, err)
		return err
	}
	if err != nil {
		return err
	}

	cm := core.NewProjectConfigManager(dest)
	if err := cm.RecordAcquisition(res, script); err != nil {
		return fmt.Errorf("recording project config: %w", err)
	}
	log.Printf("init %s: done in %s, version %s", dest, time.Since(start).Round(time.Millisecond), res.Version)

	fmt.Fprintln(os.Stdout)
	fmt.Fprint(os.Stdout, tui.RenderSummary(res))
	for _, o := range res.Failed() {
		fmt.Fprintln(os.Stderr, tui.RenderWarning(fmt.Sprintf("templates for %s were not installed", o.Assistant)))
		fmt.Fprintln(os.Stderr, tui.RenderAcquireError(o.Err))
	}

	steps := tui.NextSteps{ProjectName: name, Assistants: res.Succeeded(), ScriptFlavor: script}
	out, err := tui.RenderNextSteps(steps.Markdown(), 80, tty)
	if err != nil {
		fmt.Fprint(os.Stdout, steps.Markdown())
		return nil
	}
	fmt.Fprint(os.Stdout, out)
	return nil
}

// chooseAssistants returns the --ai list, asks when interactive, or falls
// back to the assistants already present in dest, then to copilot.
func chooseAssistants(cmd *cobra.Command, dest string, interactive bool) ([]string, error) {
	if flag, _ := cmd.Flags().GetString("ai"); flag != "" {
		list, err := assistant.ParseList(flag)
		if err != nil {
			return nil, err
		}
		return assistant.Names(list), nil
	}

	defaults := assistant.Names(assistant.DetectInFolder(dest))
	if len(defaults) == 0 {
		defaults = []string{defaultAssistant}
	}
	if !interactive {
		return defaults, nil
	}
	ids, err := tui.PickAssistants(os.Stdin, os.Stdout, defaults)
	if errors.Is(err, tui.ErrCancelled) {
		return nil, fmt.Errorf("aborted")
	}
	return ids, err
}

// chooseScript returns the --script value, asks when interactive, or uses
// the OS default.
func chooseScript(cmd *cobra.Command, interactive bool) (string, error) {
	if flag, _ := cmd.Flags().GetString("script"); flag != "" {
		if err := assistant.ValidateScriptFlavor(flag); err != nil {
			return "", err
		}
		return flag, nil
	}
	if !interactive {
		return assistant.DefaultScriptFlavor(), nil
	}
	script, err := tui.PickScript(os.Stdin, os.Stdout, assistant.DefaultScriptFlavor())
	if errors.Is(err, tui.ErrCancelled) {
		return "", fmt.Errorf("aborted")
	}
	return script, err
}

// flagOrEnv returns the flag value when set, otherwise the resolved
// environment setting, otherwise fallback.
func flagOrEnv(cmd *cobra.Command, flag string, env *core.EnvResolver, name, fallback string) string {
	if v, _ := cmd.Flags().GetString(flag); strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return env.Get(name, fallback)
}
