package commands

import (
	"fmt"
	"io"
	"iter"
	"slices"
	"text/tabwriter"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/cleared-dev/teller/internal/banking"
	"github.com/cleared-dev/teller/internal/model"
)

// timestampLayout matches the month-first stamps shown to customers.
const timestampLayout = "01-02-2006 15:04:05"

// authFlags are shared by every command that acts on one account.
type authFlags struct {
	user     string
	password string
}

func (f *authFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.user, "user", "", "username or account number (required)")
	_ = cmd.MarkFlagRequired("user")
	cmd.Flags().StringVar(&f.password, "password", "", "password (prompted when omitted)")
}

func (f *authFlags) login(cmd *cobra.Command, a *app) (banking.Session, error) {
	password := f.password
	if password == "" {
		var err error
		p := newPrompter(cmd.InOrStdin(), cmd.OutOrStdout())
		if password, err = p.ask("Enter your password: "); err != nil {
			return banking.Session{}, err
		}
	}
	return a.svc.Login(f.user, password)
}

// sessionCommand builds a command that logs in and then runs fn.
func sessionCommand(use, short string, args cobra.PositionalArgs, fn func(cmd *cobra.Command, a *app, sess banking.Session, args []string) error) *cobra.Command {
	var auth authFlags
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  args,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.close()

			sess, err := auth.login(cmd, a)
			if err != nil {
				return err
			}
			return fn(cmd, a, sess, args)
		},
	}
	auth.register(cmd)
	return cmd
}

func newDepositCommand() *cobra.Command {
	return sessionCommand("deposit <amount>", "Deposit money", cobra.ExactArgs(1),
		func(cmd *cobra.Command, a *app, sess banking.Session, args []string) error {
			amount, err := parseAmount(args[0])
			if err != nil {
				return err
			}
			balance, err := a.svc.Deposit(sess, amount)
			if err != nil {
				return err
			}
			printMovement(cmd.OutOrStdout(), "Deposit", amount, balance)
			return nil
		})
}

func newWithdrawCommand() *cobra.Command {
	return sessionCommand("withdraw <amount>", "Withdraw money", cobra.ExactArgs(1),
		func(cmd *cobra.Command, a *app, sess banking.Session, args []string) error {
			amount, err := parseAmount(args[0])
			if err != nil {
				return err
			}
			balance, err := a.svc.Withdraw(sess, amount)
			if err != nil {
				return err
			}
			printMovement(cmd.OutOrStdout(), "Withdrawal", amount, balance)
			return nil
		})
}

func newBalanceCommand() *cobra.Command {
	return sessionCommand("balance", "Show the current balance", cobra.NoArgs,
		func(cmd *cobra.Command, a *app, sess banking.Session, _ []string) error {
			balance, err := a.svc.Balance(sess)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Current Balance: $%s\n", balance.StringFixed(2))
			return nil
		})
}

func newHistoryCommand() *cobra.Command {
	return sessionCommand("history", "List transactions ordered by amount", cobra.NoArgs,
		func(cmd *cobra.Command, a *app, sess banking.Session, _ []string) error {
			history, err := a.svc.History(sess)
			if err != nil {
				return err
			}
			printHistory(cmd.OutOrStdout(), history)
			return nil
		})
}

func printMovement(out io.Writer, kind string, amount, balance decimal.Decimal) {
	fmt.Fprintf(out, "%s of $%s successful. New balance: $%s\n", kind, amount.StringFixed(2), balance.StringFixed(2))
}

func printHistory(out io.Writer, history iter.Seq[model.Transaction]) {
	txns := slices.Collect(history)
	if len(txns) == 0 {
		fmt.Fprintln(out, "No transactions yet.")
		return
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TYPE\tAMOUNT\tTIMESTAMP")
	for _, t := range txns {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", t.Kind, t.Amount.StringFixed(2), t.Timestamp.Local().Format(timestampLayout))
	}
	tw.Flush()
}
