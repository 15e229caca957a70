// Package history keeps the bounded, most-recent-first list of delete
// transactions that can be undone.
package history

import (
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

// DefaultCapacity is the number of transactions kept when none is configured
const DefaultCapacity = 10

// Record ties a trashed path to where it now lives
type Record struct {
	OriginalPath string `json:"original_path"`
	TrashPath    string `json:"trash_path"`
}

// Transaction is one named, undoable delete of one or more paths
type Transaction struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Timestamp time.Time `json:"timestamp"`
	Records   []Record  `json:"records"`
	FileCount int       `json:"file_count"`
}

// NewTransaction returns a transaction with a fresh id, stamped now
func NewTransaction(name string, records []Record) Transaction {
	return Transaction{
		ID:        uuid.NewString(),
		Name:      name,
		Timestamp: time.Now(),
		Records:   slices.Clone(records),
		FileCount: len(records),
	}
}

func (t Transaction) TrashPaths() []string {
	return lo.Map(t.Records, func(r Record, _ int) string { return r.TrashPath })
}

func (t Transaction) OriginalPaths() []string {
	return lo.Map(t.Records, func(r Record, _ int) string { return r.OriginalPath })
}

// History is a bounded list of transactions, newest first. It is safe for
// concurrent use.
type History struct {
	mu       sync.RWMutex
	entries  []Transaction
	capacity int
}

// New returns an empty History. A capacity below 1 uses DefaultCapacity.
func New(capacity int) *History {
	if capacity < 1 {
		capacity = DefaultCapacity
	}
	return &History{capacity: capacity}
}

func (h *History) Capacity() int { return h.capacity }

// Push inserts tx as the newest entry and returns the entries evicted to
// stay within capacity, oldest last.
func (h *History) Push(tx Transaction) []Transaction {
	if tx.FileCount != len(tx.Records) {
		panic(fmt.Sprintf("history: transaction %s has file count %d but %d records", tx.ID, tx.FileCount, len(tx.Records)))
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.entries = slices.Insert(h.entries, 0, tx)
	if len(h.entries) <= h.capacity {
		return nil
	}
	evicted := slices.Clone(h.entries[h.capacity:])
	h.entries = h.entries[:h.capacity]
	return evicted
}

func (h *History) Get(id string) (Transaction, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return lo.Find(h.entries, func(tx Transaction) bool { return tx.ID == id })
}

// Remove drops the transactions with the given ids and reports how many
// were removed.
func (h *History) Remove(ids ...string) int {
	h.mu.Lock()
	defer h.mu.Unlock()

	before := len(h.entries)
	h.entries = slices.DeleteFunc(h.entries, func(tx Transaction) bool {
		return slices.Contains(ids, tx.ID)
	})
	return before - len(h.entries)
}

// List returns a copy of the entries, newest first
func (h *History) List() []Transaction {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return slices.Clone(h.entries)
}

func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.entries)
}

// Replace swaps in txs, newest first, keeping at most capacity entries.
// Entries with inconsistent file counts are dropped.
func (h *History) Replace(txs []Transaction) []Transaction {
	valid := lo.Filter(txs, func(tx Transaction, _ int) bool {
		return tx.FileCount == len(tx.Records)
	})
	slices.SortStableFunc(valid, func(a, b Transaction) int {
		return b.Timestamp.Compare(a.Timestamp)
	})

	h.mu.Lock()
	defer h.mu.Unlock()

	var evicted []Transaction
	if len(valid) > h.capacity {
		evicted = slices.Clone(valid[h.capacity:])
		valid = valid[:h.capacity]
	}
	h.entries = valid
	return evicted
}
