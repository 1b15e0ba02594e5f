package shell

import (
	"context"
	"fmt"
	"strings"

	"github.com/bnema/nbassist/internal/reload"
	"github.com/spf13/cobra"
	"go.starlark.net/starlark"
)

// RunMagic dispatches a "%name args..." line.
func (s *Shell) RunMagic(ctx context.Context, line string) error {
	args := strings.Fields(strings.TrimPrefix(strings.TrimSpace(line), "%"))

	root := &cobra.Command{
		Use:           "%",
		Short:         "Shell magics",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.CompletionOptions.DisableDefaultCmd = true
	root.SetOut(s.out)
	root.SetErr(s.out)
	root.AddCommand(s.newReloadMagic(), s.newAutoreloadMagic())
	if s.magics != nil {
		root.AddCommand(s.magics()...)
	}
	root.SetArgs(args)

	return root.ExecuteContext(ctx)
}

func (s *Shell) newReloadMagic() *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "reload <name>...",
		Short: "Re-execute the module behind each name and rebind it",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range args {
				result, err := s.Reload(cmd.Context(), name)
				if err != nil {
					return err
				}
				if verbose {
					printDiff(cmd, result)
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "show the source diff")

	return cmd
}

func printDiff(cmd *cobra.Command, result reload.Result) {
	if result.Diff == "" {
		cmd.Printf("%s: source unchanged\n", result.Module.Name())
		return
	}
	cmd.Print(result.Diff)
}

func (s *Shell) newAutoreloadMagic() *cobra.Command {
	return &cobra.Command{
		Use:       "autoreload [on|off]",
		Short:     "Reload edited modules before each cell",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{"on", "off"},
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				cmd.Printf("autoreload is %s\n", onOff(s.watcher != nil))
				return nil
			}

			switch args[0] {
			case "on":
				return s.startAutoreload()
			case "off":
				return s.stopAutoreload()
			default:
				return fmt.Errorf("autoreload takes on or off, got %q", args[0])
			}
		},
	}
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

// Reload does "name = reload(name)" for a cell binding, or reloads an
// imported module by its module name.
func (s *Shell) Reload(ctx context.Context, name string) (reload.Result, error) {
	var target starlark.Value
	if v, ok := s.cell[name]; ok {
		target = v
	} else if m, ok := s.modules[name]; ok {
		target = m
	} else {
		return reload.Result{}, fmt.Errorf("name %q is not defined", name)
	}

	result, err := s.engine.Reload(ctx, target)
	if err != nil {
		return reload.Result{}, err
	}

	if _, bound := s.cell[name]; bound {
		s.cell[name] = result.Value
	}

	return result, nil
}
