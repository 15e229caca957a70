// Package association links "owner" paths, such as an application bundle,
// to orphan paths that belong with them.
package association

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/babarot/sift/internal/fs"
	"github.com/babarot/sift/internal/pathset"
	"github.com/samber/lo"
)

const currentVersion = 1

var ErrUnsupportedVersion = errors.New("unsupported associations version")

// Store is a many-to-many relation between owners and orphans. It is safe
// for concurrent use and every operation is idempotent.
type Store struct {
	mu      sync.RWMutex
	owners  map[string]map[string]struct{}
	orphans map[string]map[string]struct{}
}

func New() *Store {
	return &Store{
		owners:  make(map[string]map[string]struct{}),
		orphans: make(map[string]map[string]struct{}),
	}
}

func clean(p string) string {
	if p == "" {
		return ""
	}
	return filepath.Clean(p)
}

func link(m map[string]map[string]struct{}, from, to string) {
	set, ok := m[from]
	if !ok {
		set = make(map[string]struct{})
		m[from] = set
	}
	set[to] = struct{}{}
}

func unlink(m map[string]map[string]struct{}, from, to string) {
	set, ok := m[from]
	if !ok {
		return
	}
	delete(set, to)
	if len(set) == 0 {
		delete(m, from)
	}
}

func sorted(set map[string]struct{}) []string {
	keys := lo.Keys(set)
	slices.Sort(keys)
	return keys
}

func (s *Store) AddAssociation(owner, orphan string) {
	owner, orphan = clean(owner), clean(orphan)
	if owner == "" || orphan == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	link(s.owners, owner, orphan)
	link(s.orphans, orphan, owner)
}

func (s *Store) RemoveAssociation(owner, orphan string) {
	owner, orphan = clean(owner), clean(orphan)
	s.mu.Lock()
	defer s.mu.Unlock()
	unlink(s.owners, owner, orphan)
	unlink(s.orphans, orphan, owner)
}

// AssociatedFiles returns the orphans linked to owner, sorted
func (s *Store) AssociatedFiles(owner string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sorted(s.owners[clean(owner)])
}

// Owners returns the owners orphan is linked to, sorted
func (s *Store) Owners(orphan string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sorted(s.orphans[clean(orphan)])
}

// IsPathAssociated reports whether path is linked to any owner
func (s *Store) IsPathAssociated(path string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.orphans[clean(path)]) > 0
}

// ClearAssociations unlinks every orphan of owner
func (s *Store) ClearAssociations(owner string) {
	owner = clean(owner)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clearOwner(owner)
}

func (s *Store) clearOwner(owner string) {
	for orphan := range s.owners[owner] {
		unlink(s.orphans, orphan, owner)
	}
	delete(s.owners, owner)
}

// RemovePath forgets path, and everything below it, both as an orphan and
// as an owner
func (s *Store) RemovePath(path string) {
	path = clean(path)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removePath(path)
}

func (s *Store) removePath(path string) {
	for orphan := range s.orphans {
		if orphan == path || pathset.IsAncestor(path, orphan) {
			s.removeOrphan(orphan)
		}
	}
	for owner := range s.owners {
		if owner == path || pathset.IsAncestor(path, owner) {
			s.clearOwner(owner)
		}
	}
}

func (s *Store) removeOrphan(orphan string) {
	for owner := range s.orphans[orphan] {
		unlink(s.owners, owner, orphan)
	}
	delete(s.orphans, orphan)
}

// PathsDeleted forgets every deleted path along with the entries inside
// deleted folders
func (s *Store) PathsDeleted(paths []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range paths {
		s.removePath(clean(p))
	}
}

// Snapshot returns every owner with its sorted orphans
func (s *Store) Snapshot() map[string][]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := make(map[string][]string, len(s.owners))
	for owner, set := range s.owners {
		snap[owner] = sorted(set)
	}
	return snap
}

type document struct {
	Version      int                 `json:"version"`
	Associations map[string][]string `json:"associations"`
}

// Load replaces the store contents with the file at path. A missing file
// leaves the store empty.
func (s *Store) Load(path string) error {
	lock := fs.NewFileLock(path)
	if err := lock.RLock(); err != nil {
		return err
	}
	defer lock.Unlock()

	data, err := fs.ReadWithBackup(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read associations: %w", err)
	}
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("decode associations: %w", err)
	}
	if doc.Version > currentVersion {
		return fmt.Errorf("%w: %d", ErrUnsupportedVersion, doc.Version)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.owners = make(map[string]map[string]struct{})
	s.orphans = make(map[string]map[string]struct{})
	for owner, orphans := range doc.Associations {
		for _, orphan := range orphans {
			owner, orphan := clean(owner), clean(orphan)
			if owner == "" || orphan == "" {
				continue
			}
			link(s.owners, owner, orphan)
			link(s.orphans, orphan, owner)
		}
	}
	return nil
}

// Save writes the store to path atomically
func (s *Store) Save(path string) error {
	lock := fs.NewFileLock(path)
	if err := lock.Lock(); err != nil {
		return err
	}
	defer lock.Unlock()

	f, cleanup, commit, err := fs.CreateWithBackup(path)
	if err != nil {
		return fmt.Errorf("create associations file: %w", err)
	}
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(document{Version: currentVersion, Associations: s.Snapshot()}); err != nil {
		cleanup()
		return fmt.Errorf("encode associations: %w", err)
	}
	if err := commit(); err != nil {
		cleanup()
		return fmt.Errorf("commit associations: %w", err)
	}
	return nil
}
