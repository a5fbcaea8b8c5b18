package commands

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/teller/internal/banking"
	"github.com/cleared-dev/teller/internal/model"
)

func newAccountCommand() *cobra.Command {
	accountCmd := &cobra.Command{
		Use:   "account",
		Short: "Account operations",
	}
	accountCmd.AddCommand(newAccountCreateCommand())
	return accountCmd
}

func newAccountCreateCommand() *cobra.Command {
	var (
		params      banking.NewAccountParams
		accountType string
		opening     string
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Open a new account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.close()

			params.Type, err = model.ParseAccountType(accountType)
			if err != nil {
				return err
			}
			params.OpeningBalance, err = parseAmount(opening)
			if err != nil {
				return err
			}
			if params.Password == "" {
				p := newPrompter(cmd.InOrStdin(), cmd.OutOrStdout())
				if params.Password, err = p.ask("Choose a password: "); err != nil {
					return err
				}
			}

			acct, err := a.svc.CreateAccount(params)
			if err != nil {
				return err
			}
			printAccountDetails(cmd.OutOrStdout(), acct)
			return nil
		},
	}

	cmd.Flags().StringVar(&params.Username, "username", "", "login name (required)")
	_ = cmd.MarkFlagRequired("username")
	cmd.Flags().StringVar(&params.Owner.FirstName, "first-name", "", "first name")
	cmd.Flags().StringVar(&params.Owner.LastName, "last-name", "", "last name")
	cmd.Flags().StringVar(&params.Owner.Email, "email", "", "email address")
	cmd.Flags().StringVar(&accountType, "type", "savings", "account type (savings or checking)")
	cmd.Flags().StringVar(&opening, "opening-balance", "0", "initial balance")
	cmd.Flags().StringVar(&params.Password, "password", "", "password (prompted when omitted)")

	return cmd
}

func printAccountDetails(out io.Writer, acct *model.Account) {
	fmt.Fprintln(out, "Congratulations on creating your new online banking account!")
	fmt.Fprintf(out, "Account Number: %s\n", acct.Number)
	fmt.Fprintf(out, "Name: %s\n", acct.Owner.FullName())
	fmt.Fprintf(out, "Email: %s\n", acct.Owner.Email)
	fmt.Fprintf(out, "Initial Balance: $%s\n", acct.OpeningBalance.StringFixed(2))
	fmt.Fprintf(out, "Account Type: %s\n", acct.Type)
}
