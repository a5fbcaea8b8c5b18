package commands

import (
	"github.com/spf13/cobra"

	"github.com/cleared-dev/teller/internal/buildinfo"
	"github.com/cleared-dev/teller/internal/config"
)

const configFlag = "config"

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "teller",
		Short:   "Personal banking ledger",
		Version: buildinfo.String(),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().String(configFlag, config.FileName, "path to teller.yaml")

	rootCmd.AddCommand(newInitCommand())
	rootCmd.AddCommand(newAccountCommand())
	rootCmd.AddCommand(newDepositCommand())
	rootCmd.AddCommand(newWithdrawCommand())
	rootCmd.AddCommand(newBalanceCommand())
	rootCmd.AddCommand(newHistoryCommand())
	rootCmd.AddCommand(newImportCommand())
	rootCmd.AddCommand(newShellCommand())

	return rootCmd
}
