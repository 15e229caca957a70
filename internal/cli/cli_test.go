package cli

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/babarot/sift/internal/association"
	"github.com/babarot/sift/internal/config"
)

func newTestCLI(t *testing.T, state string) (*CLI, *bytes.Buffer) {
	t.Helper()
	cfg := *config.NewDefaultConfig()
	cfg.Core.Trash.Strategy = "dir"
	cfg.Core.Trash.Dir = filepath.Join(state, "trash")
	cfg.Core.History.Path = filepath.Join(state, "history.json")
	cfg.Core.Associations.Path = filepath.Join(state, "associations.json")
	cfg.Core.Delete.Confirm = false

	var out bytes.Buffer
	return &CLI{
		version: Version{AppName: "sift", Version: "v0.0.1", Revision: "abc", BuildDate: "today"},
		config:  cfg,
		out:     &out,
		errOut:  &bytes.Buffer{},
	}, &out
}

func writeFiles(t *testing.T, dir string, names ...string) []string {
	t.Helper()
	var paths []string
	for _, name := range names {
		p := filepath.Join(dir, name)
		if err := os.WriteFile(p, []byte(name), 0644); err != nil {
			t.Fatal(err)
		}
		paths = append(paths, p)
	}
	return paths
}

func exists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}

func TestPutHistoryRestore(t *testing.T) {
	state := t.TempDir()
	paths := writeFiles(t, t.TempDir(), "a.txt", "b.txt")

	c, out := newTestCLI(t, state)
	c.option.Put.Name = "cleanup"
	if err := c.Run("put", paths); err != nil {
		t.Fatalf("put failed: %v", err)
	}
	for _, p := range paths {
		if exists(p) {
			t.Errorf("Expected %s to be in the trash", p)
		}
	}
	if !strings.Contains(out.String(), `"cleanup"`) {
		t.Errorf("Expected the transaction name in the output, got %q", out.String())
	}

	// a second process sees the persisted history
	c, out = newTestCLI(t, state)
	if err := c.Run("history", nil); err != nil {
		t.Fatalf("history failed: %v", err)
	}
	if !strings.Contains(out.String(), "cleanup") || !strings.Contains(out.String(), "active") {
		t.Errorf("Expected an active cleanup transaction, got %q", out.String())
	}

	c, _ = newTestCLI(t, state)
	c.option.Restore.Last = true
	if err := c.Run("restore", nil); err != nil {
		t.Fatalf("restore failed: %v", err)
	}
	for _, p := range paths {
		if !exists(p) {
			t.Errorf("Expected %s to be restored", p)
		}
	}

	c, out = newTestCLI(t, state)
	if err := c.Run("history", nil); err != nil {
		t.Fatalf("history failed: %v", err)
	}
	if strings.Contains(out.String(), "cleanup") {
		t.Errorf("Expected the restored transaction to leave the history, got %q", out.String())
	}
}

func TestPutPartialFailure(t *testing.T) {
	state := t.TempDir()
	paths := writeFiles(t, t.TempDir(), "keep.txt")
	missing := filepath.Join(t.TempDir(), "missing.txt")

	c, _ := newTestCLI(t, state)
	err := c.Run("put", append(paths, missing))
	if !errors.Is(err, ErrPartialDelete) {
		t.Fatalf("Expected a partial delete error, got %v", err)
	}
	if exists(paths[0]) {
		t.Error("Expected the existing file to be moved even though another path failed")
	}

	c, _ = newTestCLI(t, state)
	if err := c.Run("put", []string{missing}); !errors.Is(err, ErrNothingDeleted) {
		t.Errorf("Expected ErrNothingDeleted, got %v", err)
	}
}

func TestRestoreByID(t *testing.T) {
	state := t.TempDir()
	paths := writeFiles(t, t.TempDir(), "report.pdf")

	c, _ := newTestCLI(t, state)
	if err := c.Run("put", paths); err != nil {
		t.Fatal(err)
	}
	id := c.undo.History()[0].ID

	c, _ = newTestCLI(t, state)
	if err := c.Run("restore", []string{id[:8]}); err != nil {
		t.Fatalf("restore by id prefix failed: %v", err)
	}
	if !exists(paths[0]) {
		t.Error("Expected the file to be restored")
	}

	c, _ = newTestCLI(t, state)
	if err := c.Run("restore", nil); !errors.Is(err, ErrNoTransaction) {
		t.Errorf("Expected ErrNoTransaction, got %v", err)
	}
}

func TestPruneInvalid(t *testing.T) {
	state := t.TempDir()
	paths := writeFiles(t, t.TempDir(), "gone.txt")

	c, _ := newTestCLI(t, state)
	if err := c.Run("put", paths); err != nil {
		t.Fatal(err)
	}
	trashed := c.undo.History()[0].Records[0].TrashPath
	if err := os.Remove(trashed); err != nil {
		t.Fatal(err)
	}

	c, out := newTestCLI(t, state)
	if err := c.Run("prune", []string{"invalid"}); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "Removed 1 invalid") {
		t.Errorf("Unexpected prune output %q", out.String())
	}

	c, _ = newTestCLI(t, state)
	if err := c.Run("prune", nil); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("Expected ErrInvalidArgument, got %v", err)
	}
}

func TestAssocLifecycle(t *testing.T) {
	state := t.TempDir()
	dir := t.TempDir()
	paths := writeFiles(t, dir, "App", "cache.db", "prefs.plist")
	owner, cache, prefs := paths[0], paths[1], paths[2]

	c, _ := newTestCLI(t, state)
	if err := c.Run("assoc", []string{"add", owner, cache, prefs}); err != nil {
		t.Fatal(err)
	}

	c, out := newTestCLI(t, state)
	if err := c.Run("assoc", []string{"ls", owner}); err != nil {
		t.Fatal(err)
	}
	if got := strings.Fields(out.String()); len(got) != 2 {
		t.Errorf("Expected 2 associated files, got %v", got)
	}

	// deleting an orphan drops it from the store
	c, _ = newTestCLI(t, state)
	if err := c.Run("put", []string{cache}); err != nil {
		t.Fatal(err)
	}
	store := association.New()
	if err := store.Load(filepath.Join(state, "associations.json")); err != nil {
		t.Fatal(err)
	}
	if store.IsPathAssociated(cache) {
		t.Error("Expected the deleted orphan to be forgotten")
	}
	if !store.IsPathAssociated(prefs) {
		t.Error("Expected the remaining orphan to stay associated")
	}

	c, _ = newTestCLI(t, state)
	if err := c.Run("assoc", []string{"bogus", owner}); !errors.Is(err, ErrAssocUsage) {
		t.Errorf("Expected ErrAssocUsage, got %v", err)
	}
}

func TestMetaOptions(t *testing.T) {
	c, out := newTestCLI(t, t.TempDir())
	c.option.Meta.Version = true
	if err := c.Run("", nil); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "version: v0.0.1") {
		t.Errorf("Unexpected version output %q", out.String())
	}

	c, out = newTestCLI(t, t.TempDir())
	c.option.Meta.ShowConfig = true
	if err := c.Run("", nil); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "BatchSize") {
		t.Errorf("Expected the config dump, got %q", out.String())
	}

	c, _ = newTestCLI(t, t.TempDir())
	if err := c.Run("", nil); !errors.Is(err, ErrNoCommand) {
		t.Errorf("Expected ErrNoCommand, got %v", err)
	}
}
