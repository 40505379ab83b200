package cli

import (
	"github.com/spf13/cobra"

	skerrors "github.com/matzehuels/storekit/pkg/errors"
)

var completionShells = []string{"bash", "zsh", "fish", "powershell"}

// completionCommand prints a shell completion script for storekit.
func (c *CLI) completionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "completion <shell>",
		Short: "Print a shell completion script",
		Long: `Print a completion script for bash, zsh, fish, or powershell.

Completions cover subcommands and flags, e.g. "storekit cart <TAB>".

  $ source <(storekit completion bash)
  $ storekit completion zsh > "${fpath[1]}/_storekit"
  $ storekit completion fish > ~/.config/fish/completions/storekit.fish
  PS> storekit completion powershell | Out-String | Invoke-Expression`,
		DisableFlagsInUseLine: true,
		ValidArgs:             completionShells,
		Args:                  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, out := cmd.Root(), cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return root.GenBashCompletionV2(out, true)
			case "zsh":
				return root.GenZshCompletion(out)
			case "fish":
				return root.GenFishCompletion(out, true)
			case "powershell":
				return root.GenPowerShellCompletionWithDesc(out)
			}
			return skerrors.New(skerrors.ErrCodeInvalidInput, "unsupported shell %q (want one of %v)", args[0], completionShells)
		},
	}
}
