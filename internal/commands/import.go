package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/teller/internal/banking"
	"github.com/cleared-dev/teller/internal/importer"
)

func newImportCommand() *cobra.Command {
	var format string

	cmd := sessionCommand("import <statement.csv>", "Post a bank statement to an account", cobra.ExactArgs(1),
		func(cmd *cobra.Command, a *app, sess banking.Session, args []string) error {
			entries, err := importer.DefaultRegistry().ParseFile(format, args[0])
			if err != nil {
				return err
			}
			return postEntries(cmd, a.svc, sess, entries)
		})
	cmd.Flags().StringVar(&format, "format", "teller", "statement format (teller or chase)")

	return cmd
}

// postEntries applies credits as deposits and debits as withdrawals in file
// order. Rejected entries are reported and skipped.
func postEntries(cmd *cobra.Command, svc *banking.Service, sess banking.Session, entries []importer.Entry) error {
	out := cmd.OutOrStdout()
	rejected := 0
	for _, e := range entries {
		var err error
		if e.Amount.IsNegative() {
			_, err = svc.Withdraw(sess, e.Amount.Neg())
		} else {
			_, err = svc.Deposit(sess, e.Amount)
		}
		if err != nil {
			rejected++
			fmt.Fprintf(out, "row %d (%s): %v\n", e.Row, e.Description, err)
		}
	}

	balance, err := svc.Balance(sess)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Posted %d of %d entries. Balance: $%s\n", len(entries)-rejected, len(entries), balance.StringFixed(2))
	if rejected > 0 {
		return fmt.Errorf("%d of %d entries rejected", rejected, len(entries))
	}
	return nil
}
