package cli

import (
	"os"
	"strings"

	"github.com/guiyumin/teradl/internal/core/config"
	"github.com/spf13/cobra"
)

var completionCmd = &cobra.Command{
	Use:   "completion [bash|zsh|fish|powershell]",
	Short: "Generate shell completion script",
	Long: `Generate shell completion script for teradl.

Bash:
  # Add to ~/.bashrc:
  source <(teradl completion bash)

Zsh:
  # Add to ~/.zshrc:
  source <(teradl completion zsh)

Fish:
  teradl completion fish > ~/.config/fish/completions/teradl.fish

PowerShell:
  teradl completion powershell >> $PROFILE
`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"bash", "zsh", "fish", "powershell"},
	RunE: func(cmd *cobra.Command, args []string) error {
		switch args[0] {
		case "bash":
			return rootCmd.GenBashCompletion(os.Stdout)
		case "zsh":
			return rootCmd.GenZshCompletion(os.Stdout)
		case "fish":
			return rootCmd.GenFishCompletion(os.Stdout, true)
		case "powershell":
			return rootCmd.GenPowerShellCompletion(os.Stdout)
		default:
			return cmd.Help()
		}
	},
}

func init() {
	rootCmd.AddCommand(completionCmd)

	rootCmd.ValidArgsFunction = completeShareURL
	configGetCmd.ValidArgsFunction = completeConfigKey
	configSetCmd.ValidArgsFunction = completeConfigKey
}

// completeShareURL suggests https://<host>/s/ for each allowed host
func completeShareURL(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}

	var completions []string
	for _, host := range config.LoadOrDefault().Hosts {
		candidate := "https://" + host + "/s/"
		if strings.HasPrefix(candidate, toComplete) {
			completions = append(completions, candidate)
		}
	}
	return completions, cobra.ShellCompDirectiveNoFileComp | cobra.ShellCompDirectiveNoSpace
}

// completeConfigKey completes the key argument of config get/set
func completeConfigKey(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}

	var completions []string
	for _, name := range configKeyNames() {
		if strings.HasPrefix(name, toComplete) {
			completions = append(completions, name)
		}
	}
	return completions, cobra.ShellCompDirectiveNoFileComp
}
