// Package undo moves paths to the trash as named transactions and puts
// them back on request.
package undo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/babarot/sift/internal/fs"
	"github.com/babarot/sift/internal/history"
	"github.com/babarot/sift/internal/pathset"
	"github.com/babarot/sift/internal/trash"
)

// PathObserver is told about paths that were moved to the trash
type PathObserver interface {
	PathsDeleted(paths []string)
}

// Store persists the history between runs
type Store interface {
	Load() ([]history.Transaction, error)
	Save([]history.Transaction) error
}

// Entry is a history transaction with its current status
type Entry struct {
	Transaction history.Transaction `json:"transaction"`
	Status      history.Status      `json:"status"`
}

type Option func(*Manager)

// WithHistory uses h instead of a new history
func WithHistory(h *history.History) Option {
	return func(m *Manager) { m.history = h }
}

// WithCapacity bounds a history created by New
func WithCapacity(n int) Option {
	return func(m *Manager) { m.capacity = n }
}

// WithStore loads the history from s and saves every change to it
func WithStore(s Store) Option {
	return func(m *Manager) { m.store = s }
}

func WithObserver(o PathObserver) Option {
	return func(m *Manager) { m.observers = append(m.observers, o) }
}

func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) { m.logger = l }
}

// Manager runs deletes and restores one at a time against a trash gateway
type Manager struct {
	gateway   trash.Gateway
	history   *history.History
	capacity  int
	store     Store
	observers []PathObserver
	now       func() time.Time
	logger    *slog.Logger

	// opMu makes delete and restore single-flight
	opMu sync.Mutex

	// restored holds ids undone by this manager
	restoredMu sync.RWMutex
	restored   map[string]struct{}
}

func New(gateway trash.Gateway, opts ...Option) (*Manager, error) {
	m := &Manager{
		gateway:  gateway,
		capacity: history.DefaultCapacity,
		now:      time.Now,
		logger:   slog.Default(),
		restored: make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.history == nil {
		m.history = history.New(m.capacity)
	}

	if m.store != nil {
		txs, err := m.store.Load()
		if err != nil {
			return nil, fmt.Errorf("load history: %w", err)
		}
		if evicted := m.history.Replace(txs); len(evicted) > 0 {
			m.logger.Debug("history over capacity on load", "evicted", len(evicted))
		}
	}
	return m, nil
}

// DeleteFiles moves paths to the trash and records the ones that moved as
// a single transaction named bundleName. Nested paths are reduced to their
// top-most ancestor first. Each path is attempted independently.
func (m *Manager) DeleteFiles(ctx context.Context, paths []string, bundleName string) Result {
	m.opMu.Lock()
	defer m.opMu.Unlock()

	var (
		res      Result
		safe     []string
		failures []PathError
	)
	for _, p := range paths {
		if fs.IsUnsafePath(p) {
			failures = append(failures, PathError{Path: p, Err: ErrUnsafePath})
			continue
		}
		abs, err := filepath.Abs(p)
		if err != nil {
			failures = append(failures, PathError{Path: p, Err: err})
			continue
		}
		safe = append(safe, abs)
	}
	targets := pathset.Reduce(safe)
	res.Requested = len(failures) + len(targets)
	res.Failures = failures

	var records []history.Record
	for i, p := range targets {
		if err := ctx.Err(); err != nil {
			for _, rest := range targets[i:] {
				res.Failures = append(res.Failures, PathError{Path: rest, Err: err})
			}
			m.logger.Debug("delete cancelled", "remaining", len(targets)-i)
			break
		}
		trashPath, err := m.gateway.Trash(p)
		if err != nil {
			m.logger.Debug("failed to trash", "path", p, "error", err)
			res.Failures = append(res.Failures, PathError{Path: p, Err: err})
			if trashPath == "" {
				continue
			}
			// the full copy is in the trash; keep it restorable
		}
		m.logger.Debug("trashed", "path", p, "trash_path", trashPath)
		records = append(records, history.Record{OriginalPath: p, TrashPath: trashPath})
	}

	if len(records) == 0 {
		return res
	}

	name := bundleName
	if name == "" {
		name = fmt.Sprintf("%d items", len(records))
	}
	tx := history.NewTransaction(name, records)
	tx.Timestamp = m.now()
	for _, old := range m.history.Push(tx) {
		m.logger.Debug("evicted from history", "id", old.ID, "name", old.Name)
	}
	m.persist()
	res.Transaction = &tx

	deleted := tx.OriginalPaths()
	for _, o := range m.observers {
		o.PathsDeleted(deleted)
	}
	m.logger.Info("delete finished", "name", name, "moved", len(records), "failed", len(res.Failures))
	return res
}

// RestoreRecords puts every record of txs back where it came from. Every
// transaction is validated before anything moves; if a move still fails,
// the records already restored are moved back to the trash. On success the
// transactions leave the history.
func (m *Manager) RestoreRecords(ctx context.Context, txs []history.Transaction) error {
	m.opMu.Lock()
	defer m.opMu.Unlock()

	batch, err := m.validate(txs)
	if err != nil {
		return err
	}
	if len(batch) == 0 {
		return nil
	}

	var done []restoredRecord
	for _, tx := range batch {
		for _, r := range tx.Records {
			if err := ctx.Err(); err != nil {
				return errors.Join(&RestoreError{TransactionID: tx.ID, Name: tx.Name, Err: err}, m.revert(done))
			}
			if err := m.gateway.Restore(r.TrashPath, r.OriginalPath); err != nil {
				m.logger.Debug("restore failed, reverting", "path", r.OriginalPath, "error", err, "reverting", len(done))
				return errors.Join(
					&RestoreError{TransactionID: tx.ID, Name: tx.Name, Path: r.OriginalPath, Err: err},
					m.revert(done),
				)
			}
			done = append(done, restoredRecord{tx: tx, record: r})
		}
	}

	ids := make([]string, 0, len(batch))
	for _, tx := range batch {
		ids = append(ids, tx.ID)
	}
	m.history.Remove(ids...)
	m.restoredMu.Lock()
	for _, id := range ids {
		m.restored[id] = struct{}{}
	}
	m.restoredMu.Unlock()
	m.persist()

	m.logger.Info("restore finished", "transactions", len(batch), "files", len(done))
	return nil
}

type restoredRecord struct {
	tx     history.Transaction
	record history.Record
}

// validate resolves txs against the history and checks that every record
// can be restored. Duplicate transactions are restored once.
func (m *Manager) validate(txs []history.Transaction) ([]history.Transaction, error) {
	var (
		batch   []history.Transaction
		targets = make(map[string]struct{})
	)
	for _, tx := range txs {
		if slices.ContainsFunc(batch, func(b history.Transaction) bool { return b.ID == tx.ID }) {
			continue
		}
		current, ok := m.history.Get(tx.ID)
		if !ok {
			return nil, &RestoreError{TransactionID: tx.ID, Name: tx.Name, Err: ErrUnknownTransaction}
		}
		for _, r := range current.Records {
			if !fs.Exists(r.TrashPath) {
				return nil, &RestoreError{TransactionID: tx.ID, Name: current.Name, Path: r.TrashPath, Err: ErrInvalidRecord}
			}
			if _, dup := targets[r.OriginalPath]; dup || fs.Exists(r.OriginalPath) {
				return nil, &RestoreError{TransactionID: tx.ID, Name: current.Name, Path: r.OriginalPath, Err: trash.ErrFileExists}
			}
			targets[r.OriginalPath] = struct{}{}
		}
		batch = append(batch, current)
	}
	return batch, nil
}

// revert moves restored records back into the trash, newest first
func (m *Manager) revert(done []restoredRecord) error {
	var errs []error
	for _, d := range slices.Backward(done) {
		r := d.record
		var err error
		if rv, ok := m.gateway.(trash.Reverter); ok {
			err = rv.Revert(r.TrashPath, r.OriginalPath)
		} else {
			err = fs.Move(r.OriginalPath, r.TrashPath, true)
		}
		if errors.Is(err, fs.ErrSourceNotRemoved) {
			m.logger.Warn("moved back to the trash with leftovers", "path", r.OriginalPath, "error", err)
			continue
		}
		if err != nil {
			m.logger.Error("failed to move restored file back to the trash", "path", r.OriginalPath, "error", err)
			errs = append(errs, fmt.Errorf("revert %s: %w", r.OriginalPath, err))
		}
	}
	return errors.Join(errs...)
}

// Undo restores the most recent transaction
func (m *Manager) Undo(ctx context.Context) (history.Transaction, error) {
	list := m.history.List()
	if len(list) == 0 {
		return history.Transaction{}, ErrNothingToUndo
	}
	latest := list[0]
	return latest, m.RestoreRecords(ctx, []history.Transaction{latest})
}

// IsRecordValid reports whether every trashed path of tx still exists
func (m *Manager) IsRecordValid(tx history.Transaction) bool {
	for _, r := range tx.Records {
		if !fs.Exists(r.TrashPath) {
			return false
		}
	}
	return true
}

// Status derives the status of tx from the filesystem
func (m *Manager) Status(tx history.Transaction) history.Status {
	m.restoredMu.RLock()
	_, restored := m.restored[tx.ID]
	m.restoredMu.RUnlock()
	switch {
	case restored:
		return history.StatusRestored
	case m.IsRecordValid(tx):
		return history.StatusActive
	default:
		return history.StatusInvalidated
	}
}

// History returns the transactions, newest first
func (m *Manager) History() []history.Transaction {
	return m.history.List()
}

// Entries returns the transactions with their status, newest first
func (m *Manager) Entries() []Entry {
	list := m.history.List()
	entries := make([]Entry, 0, len(list))
	for _, tx := range list {
		entries = append(entries, Entry{Transaction: tx, Status: m.Status(tx)})
	}
	return entries
}

// Find returns the transaction with the given id or id prefix
func (m *Manager) Find(id string) (history.Transaction, error) {
	if tx, ok := m.history.Get(id); ok {
		return tx, nil
	}
	var found []history.Transaction
	for _, tx := range m.history.List() {
		if len(id) >= 4 && len(tx.ID) >= len(id) && tx.ID[:len(id)] == id {
			found = append(found, tx)
		}
	}
	if len(found) == 1 {
		return found[0], nil
	}
	return history.Transaction{}, fmt.Errorf("%w: %s", ErrUnknownTransaction, id)
}

// Prune drops invalidated transactions and returns how many were dropped
func (m *Manager) Prune() int {
	m.opMu.Lock()
	defer m.opMu.Unlock()

	var ids []string
	for _, e := range m.Entries() {
		if e.Status == history.StatusInvalidated {
			ids = append(ids, e.Transaction.ID)
		}
	}
	if len(ids) == 0 {
		return 0
	}
	n := m.history.Remove(ids...)
	m.persist()
	return n
}

func (m *Manager) persist() {
	if m.store == nil {
		return
	}
	if err := m.store.Save(m.history.List()); err != nil {
		m.logger.Warn("failed to save history", "error", err)
	}
}
