package undo

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/babarot/sift/internal/fs"
	"github.com/babarot/sift/internal/history"
	historyjson "github.com/babarot/sift/internal/history/json"
	"github.com/babarot/sift/internal/trash"
	"github.com/babarot/sift/internal/trash/dir"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path string, size int) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, make([]byte, size), 0644))
}

func newDirGateway(t *testing.T) *dir.Storage {
	t.Helper()
	s, err := dir.New(filepath.Join(t.TempDir(), "Trash"))
	require.NoError(t, err)
	return s
}

// failingGateway wraps a gateway and fails for chosen paths
type failingGateway struct {
	trash.Gateway
	failTrash   map[string]error
	failRestore map[string]error
	leftovers   map[string]bool
}

func (g *failingGateway) Trash(path string) (string, error) {
	if err, ok := g.failTrash[path]; ok {
		return "", err
	}
	trashPath, err := g.Gateway.Trash(path)
	if err == nil && g.leftovers[path] {
		err = fs.NewMoveError("remove", path, trashPath, fmt.Errorf("%w: %w", fs.ErrSourceNotRemoved, os.ErrPermission))
	}
	return trashPath, err
}

func (g *failingGateway) Restore(trashPath, originalPath string) error {
	if err, ok := g.failRestore[originalPath]; ok {
		return err
	}
	return g.Gateway.Restore(trashPath, originalPath)
}

type recordingObserver struct {
	paths []string
}

func (r *recordingObserver) PathsDeleted(paths []string) {
	r.paths = append(r.paths, paths...)
}

func TestDeleteFilesScenario(t *testing.T) {
	root := t.TempDir()
	a := filepath.Join(root, "a.txt")
	writeFile(t, a, 10)

	obs := &recordingObserver{}
	m, err := New(newDirGateway(t), WithObserver(obs))
	require.NoError(t, err)

	res := m.DeleteFiles(context.Background(), []string{a}, "Test Bundle")
	require.True(t, res.OK())
	assert.True(t, res.Complete())
	assert.NoError(t, res.Err())
	assert.Equal(t, 1, res.Requested)

	hist := m.History()
	require.Len(t, hist, 1)
	assert.Equal(t, "Test Bundle", hist[0].Name)
	assert.Equal(t, 1, hist[0].FileCount)
	assert.NoFileExists(t, a)
	assert.Equal(t, []string{a}, obs.paths)
	assert.Equal(t, history.StatusActive, m.Status(hist[0]))
}

func TestDeleteFilesReducesNestedPaths(t *testing.T) {
	root := t.TempDir()
	sub := filepath.Join(root, "sub")
	writeFile(t, filepath.Join(sub, "x"), 1)
	writeFile(t, filepath.Join(sub, "y"), 1)

	m, err := New(newDirGateway(t))
	require.NoError(t, err)

	res := m.DeleteFiles(context.Background(), []string{filepath.Join(sub, "x"), sub, filepath.Join(sub, "y"), sub}, "")
	require.True(t, res.Complete())
	assert.Equal(t, 1, res.Requested)
	assert.Equal(t, "1 items", res.Transaction.Name)
	assert.Equal(t, []string{sub}, res.Transaction.OriginalPaths())
}

func TestDeleteFilesPartialFailure(t *testing.T) {
	root := t.TempDir()
	a := filepath.Join(root, "a")
	b := filepath.Join(root, "b")
	writeFile(t, a, 1)
	writeFile(t, b, 1)

	gw := &failingGateway{
		Gateway:   newDirGateway(t),
		failTrash: map[string]error{b: trash.ErrPermissionDenied},
	}
	m, err := New(gw)
	require.NoError(t, err)

	res := m.DeleteFiles(context.Background(), []string{a, b, "/", ".."}, "mixed")
	assert.True(t, res.OK())
	assert.False(t, res.Complete())
	assert.Equal(t, 4, res.Requested)
	require.Len(t, res.Failures, 3)
	assert.ErrorIs(t, res.Err(), trash.ErrPermissionDenied)
	assert.ErrorIs(t, res.Err(), ErrUnsafePath)
	assert.Equal(t, 1, res.Transaction.FileCount)
	assert.FileExists(t, b)
}

func TestDeleteFilesKeepsCopyWithLeftovers(t *testing.T) {
	root := t.TempDir()
	a := filepath.Join(root, "a")
	b := filepath.Join(root, "b")
	writeFile(t, a, 1)
	writeFile(t, b, 1)

	gw := &failingGateway{Gateway: newDirGateway(t), leftovers: map[string]bool{b: true}}
	m, err := New(gw)
	require.NoError(t, err)

	res := m.DeleteFiles(context.Background(), []string{a, b}, "leftovers")
	require.True(t, res.OK())
	assert.False(t, res.Complete())
	require.Len(t, res.Failures, 1)
	assert.Equal(t, b, res.Failures[0].Path)
	assert.ErrorIs(t, res.Err(), fs.ErrSourceNotRemoved)
	assert.Equal(t, 2, res.Transaction.FileCount)
	assert.ElementsMatch(t, []string{a, b}, res.Transaction.OriginalPaths())
	for _, r := range res.Transaction.Records {
		assert.FileExists(t, r.TrashPath)
	}
}

func TestDeleteFilesNothingMoved(t *testing.T) {
	m, err := New(newDirGateway(t))
	require.NoError(t, err)

	res := m.DeleteFiles(context.Background(), []string{filepath.Join(t.TempDir(), "missing")}, "none")
	assert.False(t, res.OK())
	assert.Nil(t, res.Transaction)
	assert.ErrorIs(t, res.Err(), trash.ErrNotFound)
	assert.Empty(t, m.History())
}

func TestDeleteFilesCancelled(t *testing.T) {
	root := t.TempDir()
	a := filepath.Join(root, "a")
	writeFile(t, a, 1)

	m, err := New(newDirGateway(t))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res := m.DeleteFiles(ctx, []string{a}, "x")
	assert.False(t, res.OK())
	assert.ErrorIs(t, res.Err(), context.Canceled)
	assert.FileExists(t, a)
}

func TestHistoryCapacity(t *testing.T) {
	root := t.TempDir()
	m, err := New(newDirGateway(t))
	require.NoError(t, err)

	for i := range 12 {
		p := filepath.Join(root, fmt.Sprintf("f%d", i))
		writeFile(t, p, 1)
		require.True(t, m.DeleteFiles(context.Background(), []string{p}, fmt.Sprintf("T%d", i)).OK())
	}

	hist := m.History()
	require.Len(t, hist, 10)
	assert.Equal(t, "T11", hist[0].Name)
	assert.Equal(t, "T2", hist[9].Name)
}

func TestRestoreRoundTrip(t *testing.T) {
	root := t.TempDir()
	a := filepath.Join(root, "a")
	b := filepath.Join(root, "dir", "b")
	writeFile(t, a, 3)
	writeFile(t, b, 4)

	m, err := New(newDirGateway(t))
	require.NoError(t, err)
	res := m.DeleteFiles(context.Background(), []string{a, b}, "x")
	require.True(t, res.Complete())
	tx := *res.Transaction

	require.NoError(t, m.RestoreRecords(context.Background(), []history.Transaction{tx}))
	assert.FileExists(t, a)
	assert.FileExists(t, b)
	assert.Empty(t, m.History())
	assert.Equal(t, history.StatusRestored, m.Status(tx))

	err = m.RestoreRecords(context.Background(), []history.Transaction{tx})
	assert.ErrorIs(t, err, ErrUnknownTransaction)
}

func TestRestoreRejectsInvalidRecord(t *testing.T) {
	root := t.TempDir()
	a := filepath.Join(root, "a")
	b := filepath.Join(root, "b")
	writeFile(t, a, 1)
	writeFile(t, b, 1)

	m, err := New(newDirGateway(t))
	require.NoError(t, err)
	tx := *m.DeleteFiles(context.Background(), []string{a, b}, "x").Transaction

	require.NoError(t, os.Remove(tx.Records[1].TrashPath))
	assert.False(t, m.IsRecordValid(tx))
	assert.Equal(t, history.StatusInvalidated, m.Status(tx))

	err = m.RestoreRecords(context.Background(), []history.Transaction{tx})
	var rerr *RestoreError
	require.ErrorAs(t, err, &rerr)
	assert.ErrorIs(t, err, ErrInvalidRecord)
	assert.Equal(t, tx.ID, rerr.TransactionID)

	assert.NoFileExists(t, a)
	assert.NoFileExists(t, b)
	assert.Len(t, m.History(), 1)

	assert.Equal(t, 1, m.Prune())
	assert.Empty(t, m.History())
}

func TestRestoreRejectsOccupiedDestination(t *testing.T) {
	root := t.TempDir()
	a := filepath.Join(root, "a")
	writeFile(t, a, 1)

	m, err := New(newDirGateway(t))
	require.NoError(t, err)
	tx := *m.DeleteFiles(context.Background(), []string{a}, "x").Transaction

	writeFile(t, a, 2)
	err = m.RestoreRecords(context.Background(), []history.Transaction{tx})
	assert.ErrorIs(t, err, trash.ErrFileExists)
	assert.FileExists(t, tx.Records[0].TrashPath)
}

func TestRestoreRevertsOnMidwayFailure(t *testing.T) {
	root := t.TempDir()
	a := filepath.Join(root, "a")
	b := filepath.Join(root, "b")
	writeFile(t, a, 1)
	writeFile(t, b, 1)

	gw := &failingGateway{Gateway: newDirGateway(t)}
	m, err := New(gw)
	require.NoError(t, err)
	tx := *m.DeleteFiles(context.Background(), []string{a, b}, "x").Transaction

	gw.failRestore = map[string]error{tx.Records[1].OriginalPath: errors.New("disk on fire")}
	err = m.RestoreRecords(context.Background(), []history.Transaction{tx})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk on fire")

	for _, r := range tx.Records {
		assert.FileExists(t, r.TrashPath)
		assert.NoFileExists(t, r.OriginalPath)
	}
	assert.Len(t, m.History(), 1)
	assert.Equal(t, history.StatusActive, m.Status(tx))
}

func TestUndo(t *testing.T) {
	root := t.TempDir()
	m, err := New(newDirGateway(t))
	require.NoError(t, err)

	_, err = m.Undo(context.Background())
	assert.ErrorIs(t, err, ErrNothingToUndo)

	first := filepath.Join(root, "first")
	second := filepath.Join(root, "second")
	writeFile(t, first, 1)
	writeFile(t, second, 1)
	m.DeleteFiles(context.Background(), []string{first}, "first")
	m.DeleteFiles(context.Background(), []string{second}, "second")

	tx, err := m.Undo(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "second", tx.Name)
	assert.FileExists(t, second)
	assert.NoFileExists(t, first)
}

func TestFind(t *testing.T) {
	root := t.TempDir()
	p := filepath.Join(root, "p")
	writeFile(t, p, 1)

	m, err := New(newDirGateway(t))
	require.NoError(t, err)
	tx := *m.DeleteFiles(context.Background(), []string{p}, "x").Transaction

	got, err := m.Find(tx.ID[:8])
	require.NoError(t, err)
	assert.Equal(t, tx.ID, got.ID)

	_, err = m.Find("abc")
	assert.ErrorIs(t, err, ErrUnknownTransaction)
}

func TestPersistentHistory(t *testing.T) {
	root := t.TempDir()
	statePath := filepath.Join(t.TempDir(), "history.json")
	gw := newDirGateway(t)
	fixed := time.Date(2025, 5, 6, 7, 8, 9, 0, time.UTC)

	m, err := New(gw, WithStore(historyjson.NewStore(statePath)), WithClock(func() time.Time { return fixed }))
	require.NoError(t, err)
	p := filepath.Join(root, "p")
	writeFile(t, p, 1)
	tx := *m.DeleteFiles(context.Background(), []string{p}, "kept").Transaction

	reopened, err := New(gw, WithStore(historyjson.NewStore(statePath)))
	require.NoError(t, err)
	hist := reopened.History()
	require.Len(t, hist, 1)
	assert.Equal(t, tx.ID, hist[0].ID)
	assert.True(t, hist[0].Timestamp.Equal(fixed))

	require.NoError(t, reopened.RestoreRecords(context.Background(), hist))
	again, err := New(gw, WithStore(historyjson.NewStore(statePath)))
	require.NoError(t, err)
	assert.Empty(t, again.History())
}
