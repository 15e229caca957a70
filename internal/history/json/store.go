// Package json persists a history.History as a versioned JSON document.
package json

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/babarot/sift/internal/fs"
	"github.com/babarot/sift/internal/history"
)

const currentVersion = 1

var ErrUnsupportedVersion = errors.New("unsupported history version")

type document struct {
	Version      int                   `json:"version"`
	Transactions []history.Transaction `json:"transactions"`
}

// Store reads and writes the history file. Writes replace the file
// atomically and keep the previous contents as "<path>.backup".
type Store struct {
	path string
	lock *fs.FileLock
}

func NewStore(path string) *Store {
	return &Store{
		path: path,
		lock: fs.NewFileLock(path),
	}
}

func (s *Store) Path() string { return s.path }

// Load returns the stored transactions, newest first. A missing file
// loads as an empty history.
func (s *Store) Load() ([]history.Transaction, error) {
	if err := s.lock.RLock(); err != nil {
		return nil, err
	}
	defer s.lock.Unlock()

	data, err := fs.ReadWithBackup(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read history: %w", err)
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode history: %w", err)
	}
	if doc.Version > currentVersion {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, doc.Version)
	}
	slog.Debug("history loaded", "path", s.path, "transactions", len(doc.Transactions))
	return doc.Transactions, nil
}

// Save replaces the stored history with txs
func (s *Store) Save(txs []history.Transaction) error {
	if err := s.lock.Lock(); err != nil {
		return err
	}
	defer s.lock.Unlock()

	if txs == nil {
		txs = []history.Transaction{}
	}

	f, cleanup, commit, err := fs.CreateWithBackup(s.path)
	if err != nil {
		return fmt.Errorf("create history file: %w", err)
	}

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(document{Version: currentVersion, Transactions: txs}); err != nil {
		cleanup()
		return fmt.Errorf("encode history: %w", err)
	}

	if err := commit(); err != nil {
		cleanup()
		return fmt.Errorf("commit history: %w", err)
	}
	return nil
}
