package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"wmtheme/internal/app"
	"wmtheme/internal/apperr"
	"wmtheme/internal/console"
	"wmtheme/internal/logging"
	"wmtheme/internal/source"
)

type ExitCoder interface {
	ExitCode() int
}

type exitError struct {
	code int
	msg  string
}

func (e *exitError) Error() string { return e.msg }
func (e *exitError) ExitCode() int { return e.code }

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	root, verbosity := newRootCmd()
	err := root.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(report(os.Stderr, err, *verbosity))
	}
}

// report prints err for the user and returns the exit code. Internal
// errors only show their cause chain with -vv.
func report(w io.Writer, err error, verbosity int) int {
	if ex, ok := err.(ExitCoder); ok {
		fmt.Fprintln(w, console.Error(err.Error()))
		return ex.ExitCode()
	}
	fmt.Fprintln(w, console.Error(apperr.Message(err)))
	if _, ok := apperr.AsFriendly(err); !ok {
		if logger, lerr := logging.New(w, "warn", "text", verbosity); lerr == nil {
			logger.Debug("operation failed", "error", err)
		}
	}
	return 1
}

// usage turns cobra argument errors into friendly ones.
func usage(check cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := check(cmd, args); err != nil {
			return apperr.New("CLI_USAGE", "%v", err)
		}
		return nil
	}
}

func newRootCmd() (*cobra.Command, *int) {
	var configDir string
	var jsonOutput bool
	verbosity := new(int)

	newSvc := func() (*app.Service, error) {
		return app.New(app.Options{ConfigDir: configDir, Verbosity: *verbosity})
	}

	cmd := &cobra.Command{
		Use:           "wmtheme",
		Short:         "Theme manager for LeftWM",
		Args:          usage(cobra.NoArgs),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return apperr.New("CLI_USAGE", "%v", err)
	})
	cmd.PersistentFlags().StringVar(&configDir, "config-dir", "", "configuration directory (default $WMTHEME_CONFIG_DIR or ~/.config/leftwm)")
	cmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output JSON")
	cmd.PersistentFlags().CountVarP(verbosity, "verbose", "v", "increase log verbosity (-vv for debug)")

	cmd.AddCommand(newInstallCmd(newSvc, &jsonOutput))
	cmd.AddCommand(newUninstallCmd(newSvc, &jsonOutput))
	cmd.AddCommand(newListCmd(newSvc, &jsonOutput))
	cmd.AddCommand(newNewCmd(newSvc, &jsonOutput))
	cmd.AddCommand(newUpgradeCmd(newSvc, &jsonOutput))
	cmd.AddCommand(newUpdateCmd(newSvc, &jsonOutput))
	cmd.AddCommand(newApplyCmd(newSvc, &jsonOutput))
	cmd.AddCommand(newStatusCmd(newSvc, &jsonOutput))
	cmd.AddCommand(newSearchCmd(newSvc, &jsonOutput))
	cmd.AddCommand(newSupportCmd(newSvc, &jsonOutput))
	cmd.AddCommand(newCurrentCmd(newSvc, &jsonOutput))
	cmd.AddCommand(newRegistryCmd(newSvc, &jsonOutput))
	cmd.AddCommand(newVersionCmd(&jsonOutput))

	return cmd, verbosity
}

func newInstallCmd(newSvc func() (*app.Service, error), jsonOutput *bool) *cobra.Command {
	var override bool
	cmd := &cobra.Command{
		Use:     "install <[registry/]name>",
		Aliases: []string{"i", "add"},
		Short:   "Install a theme",
		Args:    usage(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := newSvc()
			if err != nil {
				return err
			}
			res, err := svc.Install(cmd.Context(), args[0], override)
			if err != nil {
				return err
			}
			msg := fmt.Sprintf("installed %s to %s", res.Theme.Ref(), res.Theme.Directory)
			if len(res.Missing) > 0 {
				programs := make([]string, len(res.Missing))
				for i, dep := range res.Missing {
					programs[i] = dep.Program
				}
				msg += "\nmissing dependencies: " + strings.Join(programs, ", ")
			}
			return print(*jsonOutput, res, msg)
		},
	}
	cmd.Flags().BoolVar(&override, "override-checks", false, "install even if the host version is not supported")
	return cmd
}

func newUninstallCmd(newSvc func() (*app.Service, error), jsonOutput *bool) *cobra.Command {
	var noconfirm bool
	cmd := &cobra.Command{
		Use:     "uninstall <[registry/]name>",
		Aliases: []string{"rm", "remove"},
		Short:   "Uninstall a theme",
		Args:    usage(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := newSvc()
			if err != nil {
				return err
			}
			res, err := svc.Uninstall(args[0], noconfirm)
			if err != nil {
				return err
			}
			if !res.Removed {
				return print(*jsonOutput, res, "no changes made")
			}
			return print(*jsonOutput, res, "uninstalled "+res.Theme.Ref())
		},
	}
	cmd.Flags().BoolVar(&noconfirm, "noconfirm", false, "do not ask for confirmation")
	return cmd
}

func newListCmd(newSvc func() (*app.Service, error), jsonOutput *bool) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List installed themes",
		Args:    usage(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := newSvc()
			if err != nil {
				return err
			}
			themes, err := svc.List()
			if err != nil {
				return err
			}
			if *jsonOutput {
				return print(true, themes, "")
			}
			if len(themes) == 0 {
				fmt.Println("No themes installed.")
				return nil
			}
			fmt.Println(console.Heading("Installed themes:"))
			for _, rec := range themes {
				fmt.Println(console.ThemeLine(rec))
			}
			return nil
		},
	}
}

func newNewCmd(newSvc func() (*app.Service, error), jsonOutput *bool) *cobra.Command {
	return &cobra.Command{
		Use:     "new <name>",
		Aliases: []string{"create"},
		Short:   "Create a new local theme repository",
		Args:    usage(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := newSvc()
			if err != nil {
				return err
			}
			rec, err := svc.New(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return print(*jsonOutput, rec, fmt.Sprintf("created %s at %s", rec.Name, rec.Directory))
		},
	}
}

func newUpgradeCmd(newSvc func() (*app.Service, error), jsonOutput *bool) *cobra.Command {
	var skipDBUpdate bool
	cmd := &cobra.Command{
		Use:   "upgrade",
		Short: "Fetch the latest version of every installed theme",
		Args:  usage(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := newSvc()
			if err != nil {
				return err
			}
			res, err := svc.Upgrade(cmd.Context(), skipDBUpdate)
			if err != nil {
				return err
			}
			if *jsonOutput {
				return print(true, res, "")
			}
			if res.Update != nil {
				printRegistryFailures(res.Update.Registries)
			}
			if len(res.Themes) == 0 {
				fmt.Println("No themes to upgrade.")
				return nil
			}
			fmt.Println(console.Heading("Upgrading themes:"))
			for _, item := range res.Themes {
				if item.Error != "" {
					fmt.Printf("   %s: %s\n", item.Theme, console.Error("failed"))
					continue
				}
				fmt.Printf("   %s: ok\n", item.Theme)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&skipDBUpdate, "skip-db-update", false, "do not refresh registries first")
	return cmd
}

func printRegistryFailures(results []source.Result) {
	for _, r := range source.Failed(results) {
		fmt.Fprintf(os.Stderr, "%s %s: %s\n", console.Error("could not update registry"), r.Registry, r.Error)
	}
}

func newUpdateCmd(newSvc func() (*app.Service, error), jsonOutput *bool) *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:     "update",
		Aliases: []string{"up"},
		Short:   "Refresh registries and list available themes",
		Args:    usage(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := newSvc()
			if err != nil {
				return err
			}
			res, err := svc.Update(cmd.Context(), all)
			if err != nil {
				return err
			}
			if *jsonOutput {
				return print(true, res, "")
			}
			printRegistryFailures(res.Registries)
			fmt.Println(console.Heading("Available themes:"))
			for _, th := range res.Themes {
				line := console.ThemeLine(th.Record)
				if !th.Compatible {
					line += " (incompatible)"
				}
				fmt.Println(line)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "also list themes incompatible with the running host")
	return cmd
}

func newApplyCmd(newSvc func() (*app.Service, error), jsonOutput *bool) *cobra.Command {
	var noReset bool
	var override bool
	cmd := &cobra.Command{
		Use:     "apply <[registry/]name>",
		Aliases: []string{"use", "set"},
		Short:   "Make an installed theme current",
		Args:    usage(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := newSvc()
			if err != nil {
				return err
			}
			res, err := svc.Apply(cmd.Context(), args[0], noReset, override)
			if err != nil {
				return err
			}
			msg := "applied " + res.Theme.Ref()
			if res.Backup != "" {
				msg += "\nprevious current moved to " + res.Backup
			}
			return print(*jsonOutput, res, msg)
		},
	}
	cmd.Flags().BoolVar(&noReset, "no-reset", false, "do not reload the window manager")
	cmd.Flags().BoolVar(&override, "override-checks", false, "skip version and dependency checks")
	return cmd
}

func newStatusCmd(newSvc func() (*app.Service, error), jsonOutput *bool) *cobra.Command {
	return &cobra.Command{
		Use:     "status",
		Aliases: []string{"doctor"},
		Short:   "Show the current theme and configuration health",
		Args:    usage(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := newSvc()
			if err != nil {
				return err
			}
			report := svc.Status(cmd.Context())
			if *jsonOutput {
				return print(true, report, "")
			}
			if report.Current != nil {
				fmt.Printf("%s %s\n", console.Heading("Current theme:"), report.Current.Ref())
			} else {
				fmt.Println(console.Heading("Current theme:") + " none")
			}
			fmt.Printf("installed: %d, known: %d\n", len(report.Installed), report.Known)
			if report.HostVersion != "" {
				fmt.Printf("host version: %s\n", report.HostVersion)
			}
			if ev := report.LastChange; ev != nil {
				fmt.Printf("last change: %s %s (%s) at %s\n", ev.Operation, ev.Theme, ev.Status, ev.Timestamp)
			}
			for _, f := range report.Findings {
				fmt.Printf("- [%s] %s\n", f.Code, f.Message)
			}
			if !report.Healthy {
				return &exitError{code: 2, msg: "configuration is inconsistent"}
			}
			return nil
		},
	}
}

func newSearchCmd(newSvc func() (*app.Service, error), jsonOutput *bool) *cobra.Command {
	return &cobra.Command{
		Use:     "search <query>",
		Aliases: []string{"find"},
		Short:   "Search known themes by name",
		Args:    usage(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := newSvc()
			if err != nil {
				return err
			}
			hits := svc.Search(args[0])
			if *jsonOutput {
				return print(true, hits, "")
			}
			if len(hits) == 0 {
				fmt.Println("no results")
				return nil
			}
			for _, hit := range hits {
				fmt.Println(console.ThemeLine(hit.Record))
			}
			return nil
		},
	}
}

func newSupportCmd(newSvc func() (*app.Service, error), jsonOutput *bool) *cobra.Command {
	var open bool
	cmd := &cobra.Command{
		Use:     "support <[registry/]name>",
		Aliases: []string{"help-page"},
		Short:   "Show the support page of a theme",
		Args:    usage(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := newSvc()
			if err != nil {
				return err
			}
			lookup := svc.Support
			if open {
				lookup = svc.OpenSupport
			}
			url, err := lookup(args[0])
			if err != nil {
				return err
			}
			return print(*jsonOutput, map[string]string{"theme": args[0], "url": url}, url)
		},
	}
	cmd.Flags().BoolVar(&open, "open", false, "open the page in the default browser")
	return cmd
}

func newCurrentCmd(newSvc func() (*app.Service, error), jsonOutput *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "current <field>",
		Short: "Print a field of the current theme's theme.toml",
		Args:  usage(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := newSvc()
			if err != nil {
				return err
			}
			value, err := svc.Current(args[0])
			if err != nil {
				return err
			}
			return print(*jsonOutput, map[string]any{"field": args[0], "value": value}, fmt.Sprint(value))
		},
	}
}

func newRegistryCmd(newSvc func() (*app.Service, error), jsonOutput *bool) *cobra.Command {
	registryCmd := &cobra.Command{Use: "registry", Aliases: []string{"registries", "repo"}, Short: "Manage theme registries"}

	addCmd := &cobra.Command{
		Use:   "add <name> <url>",
		Short: "Add a remote registry",
		Args:  usage(cobra.ExactArgs(2)),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := newSvc()
			if err != nil {
				return err
			}
			reg, err := svc.RegistryAdd(args[0], args[1])
			if err != nil {
				return err
			}
			return print(*jsonOutput, reg, fmt.Sprintf("added registry %s (%s)", reg.Name, reg.URL))
		},
	}

	removeCmd := &cobra.Command{
		Use:     "remove <name>",
		Aliases: []string{"rm"},
		Short:   "Remove a remote registry",
		Args:    usage(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := newSvc()
			if err != nil {
				return err
			}
			if err := svc.RegistryRemove(args[0]); err != nil {
				return err
			}
			return print(*jsonOutput, map[string]string{"removed": args[0]}, "removed registry "+args[0])
		},
	}

	listCmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List registries",
		Args:    usage(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := newSvc()
			if err != nil {
				return err
			}
			regs := svc.RegistryList()
			if *jsonOutput {
				return print(true, regs, "")
			}
			for _, r := range regs {
				fmt.Printf("- %s (%s) %s themes=%d\n", r.Name, r.Kind, r.URL, len(r.Themes))
			}
			return nil
		},
	}

	registryCmd.AddCommand(addCmd, removeCmd, listCmd)
	return registryCmd
}

func print(jsonOutput bool, payload any, message string) error {
	if jsonOutput {
		blob, err := json.MarshalIndent(payload, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(blob))
		return nil
	}
	if message != "" {
		fmt.Println(message)
	}
	return nil
}
