package commands

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/teller/internal/accounts"
	"github.com/cleared-dev/teller/internal/config"
	"github.com/cleared-dev/teller/internal/store"
)

func newInitCommand() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Initialize a teller data directory",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}

			absDir, err := filepath.Abs(dir)
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}

			return runInit(cmd.OutOrStdout(), absDir, format)
		},
	}

	cmd.Flags().StringVar(&format, "format", store.FormatJSON, "store format (json or csv)")

	return cmd
}

func runInit(out io.Writer, dir, format string) error {
	cfgPath := filepath.Join(dir, config.FileName)
	if _, err := os.Stat(cfgPath); err == nil {
		return fmt.Errorf("%s already exists", cfgPath)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("checking %s: %w", cfgPath, err)
	}

	cfg := config.Default()
	cfg.Store.Format = format

	// Open validates the format before anything is written.
	st, err := store.Open(format, filepath.Join(dir, cfg.Store.Dir))
	if err != nil {
		return err
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating directory %s: %w", dir, err)
	}
	if err := st.Save(accounts.NewSet()); err != nil {
		return fmt.Errorf("writing empty store: %w", err)
	}
	if err := config.Save(cfgPath, cfg); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	fmt.Fprintf(out, "Initialized teller at %s (%s store)\n", dir, format)
	return nil
}
