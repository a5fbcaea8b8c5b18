package commands

import (
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/cleared-dev/teller/internal/auditlog"
	"github.com/cleared-dev/teller/internal/banking"
	"github.com/cleared-dev/teller/internal/config"
	"github.com/cleared-dev/teller/internal/credentials"
	"github.com/cleared-dev/teller/internal/metrics"
	"github.com/cleared-dev/teller/internal/model"
	"github.com/cleared-dev/teller/internal/store"
)

// app wires config, logging, metrics and the banking service for one run.
type app struct {
	cfg     *config.Config
	dataDir string
	logger  *slog.Logger
	metrics *metrics.Collector
	svc     *banking.Service
}

func newApp(cmd *cobra.Command) (*app, error) {
	cfgPath, err := cmd.Flags().GetString(configFlag)
	if err != nil {
		return nil, err
	}
	cfg, err := config.LoadOrDefault(cfgPath)
	if err != nil {
		return nil, err
	}

	logger, err := newLogger(cmd.ErrOrStderr(), cfg.Log)
	if err != nil {
		return nil, err
	}

	dataDir := cfg.Store.Dir
	if !filepath.IsAbs(dataDir) {
		dataDir = filepath.Join(filepath.Dir(cfgPath), dataDir)
	}
	st, err := store.Open(cfg.Store.Format, dataDir)
	if err != nil {
		return nil, err
	}

	collector := metrics.New()
	out := cmd.OutOrStdout()
	svc, err := banking.New(banking.Options{
		Store:          st,
		Policy:         credentials.Policy{MinLength: cfg.Security.MinPasswordLength},
		NotableBalance: cfg.Thresholds.NotableBalance,
		Notifier: banking.NotifierFunc(func(acct *model.Account, threshold decimal.Decimal) {
			fmt.Fprintf(out, "Oh, you got money! Balance $%s is above $%s.\n", acct.Balance().StringFixed(2), threshold.StringFixed(2))
			banking.LogNotifier{Logger: logger}.NotableBalance(acct, threshold)
		}),
		Audit:   auditlog.New(dataDir),
		Metrics: collector,
		Logger:  logger,
	})
	if err != nil {
		return nil, err
	}

	return &app{cfg: cfg, dataDir: dataDir, logger: logger, metrics: collector, svc: svc}, nil
}

// close writes the metrics textfile when one is configured.
func (a *app) close() {
	if err := a.metrics.WriteTextfile(a.cfg.Metrics.Textfile); err != nil {
		a.logger.Warn("failed to write metrics", slog.String("err", err.Error()))
	}
}

func newLogger(w io.Writer, lc config.LogConfig) (*slog.Logger, error) {
	level := slog.LevelWarn
	if lc.Level != "" {
		if err := level.UnmarshalText([]byte(lc.Level)); err != nil {
			return nil, fmt.Errorf("log level %q: %w", lc.Level, err)
		}
	}
	opts := &slog.HandlerOptions{Level: level}
	switch strings.ToLower(lc.Format) {
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	case "text", "":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	}
	return nil, fmt.Errorf("unknown log format %q", lc.Format)
}

func parseAmount(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimPrefix(strings.TrimSpace(s), "$"))
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q is not a number", model.ErrInvalidAmount, s)
	}
	return d, nil
}
