// Package metrics counts ledger operations in a private Prometheus registry.
// The CLI has no listener, so the registry is dumped in the textfile
// collector format when the process exits.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/shopspring/decimal"
)

// Collector holds the teller metrics. A nil *Collector is valid and records
// nothing.
type Collector struct {
	registry   *prometheus.Registry
	operations *prometheus.CounterVec
	notable    prometheus.Counter
	balance    *prometheus.GaugeVec
	accounts   *prometheus.GaugeVec
}

// New creates a Collector with its own registry.
func New() *Collector {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Collector{
		registry: registry,
		operations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "teller_operations_total",
			Help: "Ledger operations by kind and outcome",
		}, []string{"operation", "outcome"}),
		notable: factory.NewCounter(prometheus.CounterOpts{
			Name: "teller_notable_balance_events_total",
			Help: "Deposits that left a balance above the notable threshold",
		}),
		balance: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "teller_account_balance",
			Help: "Current account balance",
		}, []string{"account_number", "account_type"}),
		accounts: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "teller_accounts",
			Help: "Number of accounts by type",
		}, []string{"account_type"}),
	}
}

// Operation counts one operation with its outcome label.
func (c *Collector) Operation(op, outcome string) {
	if c == nil {
		return
	}
	c.operations.WithLabelValues(op, outcome).Inc()
}

// NotableBalance counts one notable-balance event.
func (c *Collector) NotableBalance() {
	if c == nil {
		return
	}
	c.notable.Inc()
}

// SetBalance records an account's balance.
func (c *Collector) SetBalance(accountNumber, accountType string, balance decimal.Decimal) {
	if c == nil {
		return
	}
	c.balance.WithLabelValues(accountNumber, accountType).Set(balance.InexactFloat64())
}

// SetAccounts records how many accounts of a type exist.
func (c *Collector) SetAccounts(accountType string, n int) {
	if c == nil {
		return
	}
	c.accounts.WithLabelValues(accountType).Set(float64(n))
}

// Registry exposes the underlying registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// WriteTextfile writes all metrics to path in the text exposition format.
func (c *Collector) WriteTextfile(path string) error {
	if c == nil || path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, c.registry); err != nil {
		return fmt.Errorf("writing metrics textfile: %w", err)
	}
	return nil
}
