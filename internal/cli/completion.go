package cli

import (
	"github.com/spf13/cobra"
)

// completionCommand creates the completion command for generating shell completions.
func (c *CLI) completionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for vesselflow.

Completions cover commands, flags and saved workspace ids.

  bash:        source <(vesselflow completion bash)
  zsh:         vesselflow completion zsh > "${fpath[1]}/_vesselflow"
  fish:        vesselflow completion fish | source
  powershell:  vesselflow completion powershell | Out-String | Invoke-Expression`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, out := cmd.Root(), cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return root.GenBashCompletionV2(out, true)
			case "zsh":
				return root.GenZshCompletion(out)
			case "fish":
				return root.GenFishCompletion(out, true)
			default:
				return root.GenPowerShellCompletionWithDesc(out)
			}
		},
	}
}

// completeWorkspaceIDs completes the first argument with saved workspace
// ids, described by name. withFiles also offers file names, for commands
// that take a graph file as well.
func (c *CLI) completeWorkspaceIDs(withFiles bool) func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
	directive := cobra.ShellCompDirectiveNoFileComp
	if withFiles {
		directive = cobra.ShellCompDirectiveDefault
	}
	return func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		if len(args) > 0 {
			return nil, cobra.ShellCompDirectiveNoFileComp
		}
		// completion runs without the root pre-run hook
		if err := c.loadConfig(); err != nil {
			return nil, directive
		}
		store, err := c.newStore(cmd.Context())
		if err != nil {
			return nil, directive
		}
		defer store.Close()

		list, err := store.List(cmd.Context())
		if err != nil {
			return nil, directive
		}
		out := make([]string, 0, len(list))
		for _, s := range list {
			out = append(out, s.ID+"\t"+s.Name)
		}
		return out, directive
	}
}
