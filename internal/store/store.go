// Package store persists the account set between runs. Each data directory
// has exactly one authoritative format; a save always rewrites the whole
// snapshot.
package store

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/cleared-dev/teller/internal/accounts"
)

// Supported formats.
const (
	FormatJSON = "json"
	FormatCSV  = "csv"
)

// Store loads and saves the full account set.
type Store interface {
	// Load returns the persisted accounts, or an empty set on first run.
	Load() (*accounts.Set, error)
	// Save overwrites the persisted state with set.
	Save(set *accounts.Set) error
}

// Open returns the store for format rooted at dir.
func Open(format, dir string) (Store, error) {
	switch strings.ToLower(format) {
	case FormatJSON, "":
		return NewJSONStore(filepath.Join(dir, JSONFileName)), nil
	case FormatCSV:
		return NewCSVStore(dir), nil
	}
	return nil, fmt.Errorf("unknown store format %q (want %s or %s)", format, FormatJSON, FormatCSV)
}

// rename is swapped in tests to simulate a failing commit.
var rename = os.Rename

// writeFileAtomic writes through a temp file in the same directory and
// renames it over path, so readers never see a half-written snapshot.
func writeFileAtomic(path string, write func(w io.Writer) error) error {
	return writeFilesAtomic(stagedWrite{path: path, write: write})
}

// stagedWrite is one file of a multi-file snapshot.
type stagedWrite struct {
	path  string
	write func(w io.Writer) error

	tmp    string
	backup string
}

// writeFilesAtomic writes every file to a temp file first and only then
// swaps them into place in order. If a swap fails, files already swapped
// are restored from their backups, so the directory holds either the old
// snapshot or the new one.
func writeFilesAtomic(files ...stagedWrite) error {
	defer func() {
		for _, f := range files {
			if f.tmp != "" {
				os.Remove(f.tmp)
			}
		}
	}()

	for i := range files {
		if err := files[i].stage(); err != nil {
			return err
		}
	}

	for i := range files {
		if err := files[i].swap(); err != nil {
			for j := i - 1; j >= 0; j-- {
				files[j].restore()
			}
			return err
		}
	}

	for _, f := range files {
		if f.backup != "" {
			os.Remove(f.backup)
		}
	}
	return nil
}

func (f *stagedWrite) stage() error {
	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating data dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(f.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	f.tmp = tmp.Name()

	if err := f.write(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", f.tmp, err)
	}
	return nil
}

// swap moves the current file aside and the staged file into place.
func (f *stagedWrite) swap() error {
	if _, err := os.Lstat(f.path); err == nil {
		backup := f.path + ".bak"
		if err := rename(f.path, backup); err != nil {
			return fmt.Errorf("backing up %s: %w", f.path, err)
		}
		f.backup = backup
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("checking %s: %w", f.path, err)
	}

	if err := rename(f.tmp, f.path); err != nil {
		f.restore()
		return fmt.Errorf("replacing %s: %w", f.path, err)
	}
	f.tmp = ""
	return nil
}

// restore puts the previous file back, or removes the new one when there
// was no previous file.
func (f *stagedWrite) restore() {
	if f.backup == "" {
		if f.tmp == "" {
			os.Remove(f.path)
		}
		return
	}
	os.Rename(f.backup, f.path)
	f.backup = ""
}
