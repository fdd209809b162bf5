package cli

import (
	"strings"

	"github.com/spf13/cobra"
)

// completionCommand writes shell completion scripts.
func (c *CLI) completionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "completion <bash|zsh|fish|powershell>",
		Short: "Generate shell completion scripts",
		Long: `Generate a completion script for gridengine. Layout names are completed
from the configured store.

  bash:       source <(gridengine completion bash)
  zsh:        gridengine completion zsh > "${fpath[1]}/_gridengine"
  fish:       gridengine completion fish > ~/.config/fish/completions/gridengine.fish
  powershell: gridengine completion powershell | Out-String | Invoke-Expression`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, w := cmd.Root(), c.stdout()
			switch args[0] {
			case "zsh":
				return root.GenZshCompletion(w)
			case "fish":
				return root.GenFishCompletion(w, true)
			case "powershell":
				return root.GenPowerShellCompletionWithDesc(w)
			}
			return root.GenBashCompletionV2(w, true)
		},
	}
}

// completeLayouts offers stored layout names for positional arguments.
// Store errors produce no suggestions.
func (c *CLI) completeLayouts(cmd *cobra.Command, args []string, prefix string) ([]string, cobra.ShellCompDirective) {
	ctx := cmd.Context()
	layouts, closeStore, err := c.openLayouts(ctx)
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}
	defer closeStore()

	names, err := layouts.List(ctx)
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}
	var out []string
	for _, name := range names {
		if strings.HasPrefix(name, prefix) {
			out = append(out, name)
		}
	}
	return out, cobra.ShellCompDirectiveNoFileComp
}
