package commands

import (
	"errors"
	"fmt"
	"io"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/cleared-dev/teller/internal/banking"
	"github.com/cleared-dev/teller/internal/model"
)

func newShellCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Interactive banking menu",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.close()

			sh := &shell{
				svc: a.svc,
				in:  newPrompter(cmd.InOrStdin(), cmd.OutOrStdout()),
				out: cmd.OutOrStdout(),
			}
			return sh.run()
		},
	}
}

// shell drives the numbered menus. Domain errors are printed and the menu
// is shown again; only end of input or a read failure ends the loop.
type shell struct {
	svc *banking.Service
	in  *prompter
	out io.Writer
}

func (sh *shell) run() error {
	fmt.Fprintln(sh.out, "Welcome to the Online Banking System!")
	for {
		fmt.Fprint(sh.out, "\nChoose an option:\n1. Create Account\n2. Log In\n3. Exit\n")
		choice, err := sh.in.ask("Enter your choice (1/2/3): ")
		if err != nil {
			return sh.stop(err)
		}

		switch choice {
		case "1":
			err = sh.createAccount()
		case "2":
			err = sh.login()
		case "3":
			// Flush anything a failed write-through left unsaved.
			if err := sh.svc.Save(); err != nil {
				return err
			}
			fmt.Fprintln(sh.out, "Goodbye!")
			return nil
		default:
			fmt.Fprintln(sh.out, "Invalid choice. Please enter 1, 2, or 3.")
		}
		if err != nil && !sh.report(err) {
			return sh.stop(err)
		}
	}
}

func (sh *shell) createAccount() error {
	var (
		params banking.NewAccountParams
		err    error
	)
	fields := []struct {
		label string
		dst   *string
	}{
		{"First name: ", &params.Owner.FirstName},
		{"Last name: ", &params.Owner.LastName},
		{"Email: ", &params.Owner.Email},
	}
	for _, f := range fields {
		if *f.dst, err = sh.in.ask(f.label); err != nil {
			return err
		}
	}

	fmt.Fprint(sh.out, "Account type:\n1. Savings\n2. Checking\n")
	choice, err := sh.in.ask("Enter your choice (1/2): ")
	if err != nil {
		return err
	}
	switch choice {
	case "1":
		params.Type = model.AccountTypeSavings
	case "2":
		params.Type = model.AccountTypeChecking
	default:
		fmt.Fprintln(sh.out, "Invalid choice. Defaulting to Savings.")
		params.Type = model.AccountTypeSavings
	}

	if params.Username, err = sh.in.ask("Choose a username: "); err != nil {
		return err
	}
	if params.Password, err = sh.in.ask("Choose a password: "); err != nil {
		return err
	}
	opening, err := sh.in.ask("Initial balance: ")
	if err != nil {
		return err
	}
	params.OpeningBalance = decimal.Zero
	if opening != "" {
		if params.OpeningBalance, err = parseAmount(opening); err != nil {
			return err
		}
	}

	acct, err := sh.svc.CreateAccount(params)
	if err != nil {
		return err
	}
	printAccountDetails(sh.out, acct)
	return nil
}

func (sh *shell) login() error {
	user, err := sh.in.ask("Username or account number: ")
	if err != nil {
		return err
	}
	password, err := sh.in.ask("Password: ")
	if err != nil {
		return err
	}
	sess, err := sh.svc.Login(user, password)
	if err != nil {
		return err
	}
	fmt.Fprintf(sh.out, "Welcome back, %s!\n", sess.Username)
	return sh.accountMenu(sess)
}

func (sh *shell) accountMenu(sess banking.Session) error {
	for {
		fmt.Fprint(sh.out, "\nAccount Options:\n1. Deposit\n2. Withdraw\n3. Check Balance\n4. Log out\n")
		choice, err := sh.in.ask("Enter your choice (1/2/3/4): ")
		if err != nil {
			return err
		}

		switch choice {
		case "1":
			err = sh.move(sess, "deposit", sh.svc.Deposit, "Deposit")
		case "2":
			err = sh.move(sess, "withdraw", sh.svc.Withdraw, "Withdrawal")
		case "3":
			err = sh.balance(sess)
		case "4":
			fmt.Fprintln(sh.out, "Logged out.")
			return nil
		default:
			fmt.Fprintln(sh.out, "Invalid choice. Please enter 1, 2, 3, or 4.")
		}
		if err != nil && !sh.report(err) {
			return err
		}
	}
}

func (sh *shell) move(sess banking.Session, verb string, op func(banking.Session, decimal.Decimal) (decimal.Decimal, error), kind string) error {
	raw, err := sh.in.ask(fmt.Sprintf("Enter the amount to %s: ", verb))
	if err != nil {
		return err
	}
	amount, err := parseAmount(raw)
	if err != nil {
		return err
	}
	balance, err := op(sess, amount)
	if err != nil {
		return err
	}
	printMovement(sh.out, kind, amount, balance)
	return nil
}

func (sh *shell) balance(sess banking.Session) error {
	balance, err := sh.svc.Balance(sess)
	if err != nil {
		return err
	}
	history, err := sh.svc.History(sess)
	if err != nil {
		return err
	}
	fmt.Fprintf(sh.out, "Current Balance: $%s\n", balance.StringFixed(2))
	printHistory(sh.out, history)
	return nil
}

// report prints a recoverable error and returns false for errors that must
// end the session.
func (sh *shell) report(err error) bool {
	if errors.Is(err, io.EOF) || errors.Is(err, errInput) {
		return false
	}
	fmt.Fprintf(sh.out, "Error: %v\n", err)
	return true
}

func (sh *shell) stop(err error) error {
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}
