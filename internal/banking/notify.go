package banking

import (
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/teller/internal/model"
)

// Notifier receives informational events. It never affects the outcome of
// the operation that raised them.
type Notifier interface {
	NotableBalance(acct *model.Account, threshold decimal.Decimal)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(acct *model.Account, threshold decimal.Decimal)

func (f NotifierFunc) NotableBalance(acct *model.Account, threshold decimal.Decimal) {
	f(acct, threshold)
}

// LogNotifier reports events through slog.
type LogNotifier struct {
	Logger *slog.Logger
}

func (n LogNotifier) NotableBalance(acct *model.Account, threshold decimal.Decimal) {
	logger := n.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("notable balance",
		slog.String("username", acct.Username),
		slog.String("balance", acct.Balance().StringFixed(2)),
		slog.String("threshold", threshold.StringFixed(2)))
}
