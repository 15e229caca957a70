package privileged

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/babarot/sift/internal/trash"
)

type fakeRunner struct {
	commands []string
	fail     bool
}

func (f *fakeRunner) RunPrivileged(_ context.Context, command string) (bool, string) {
	f.commands = append(f.commands, command)
	if f.fail {
		return false, "sudo: a password is required\n"
	}
	return true, ""
}

func TestTrashNamesDuplicates(t *testing.T) {
	root := t.TempDir()
	runner := &fakeRunner{}
	s := New(root, runner)

	var got []string
	for _, p := range []string{"/etc/a/hosts", "/etc/b/hosts", "/etc/c/hosts", "/opt/x.conf"} {
		dst, err := s.Trash(p)
		if err != nil {
			t.Fatalf("Trash(%s) error = %v", p, err)
		}
		got = append(got, filepath.Base(dst))
	}
	want := []string{"hosts", "hosts2", "hosts3", "x.conf"}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("name %d = %q, want %q", i, got[i], want[i])
		}
	}

	if len(runner.commands) != 4 {
		t.Fatalf("ran %d commands, want 4", len(runner.commands))
	}
	if !strings.Contains(runner.commands[0], "mv -n -- /etc/a/hosts ") {
		t.Errorf("unexpected command: %s", runner.commands[0])
	}
}

func TestCommandQuoting(t *testing.T) {
	cmd := command("/tmp/it's here", "/trash/it's here")
	if !strings.Contains(cmd, `'/tmp/it'"'"'s here'`) {
		t.Errorf("source not quoted: %s", cmd)
	}
	if !strings.HasPrefix(cmd, "mkdir -p -- /trash && ") {
		t.Errorf("parent not created: %s", cmd)
	}
}

func TestRunnerFailure(t *testing.T) {
	root := t.TempDir()
	s := New(root, &fakeRunner{fail: true})

	_, err := s.Trash("/etc/hosts")
	if !errors.Is(err, trash.ErrPermissionDenied) {
		t.Fatalf("Trash() error = %v, want ErrPermissionDenied", err)
	}
	if !strings.Contains(err.Error(), "password is required") {
		t.Errorf("runner output missing from error: %v", err)
	}

	// a failed move frees its name
	s.runner = &fakeRunner{}
	dst, err := s.Trash("/etc/hosts")
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Base(dst) != "hosts" {
		t.Errorf("name = %q, want hosts", filepath.Base(dst))
	}
}

func TestRestore(t *testing.T) {
	root := t.TempDir()
	runner := &fakeRunner{}
	s := New(root, runner)

	if err := s.Restore("/elsewhere/x", "/etc/x"); !errors.Is(err, trash.ErrInvalidStorage) {
		t.Errorf("Restore of foreign path error = %v", err)
	}
	if err := s.Restore(filepath.Join(root, "x"), root); !errors.Is(err, trash.ErrFileExists) {
		t.Errorf("Restore onto existing path error = %v", err)
	}
	if err := s.Restore(filepath.Join(root, "x"), "/nonexistent/dir/x"); err != nil {
		t.Errorf("Restore() error = %v", err)
	}
	if n := len(runner.commands); n != 1 {
		t.Errorf("ran %d commands, want 1", n)
	}
}

func TestNoRunner(t *testing.T) {
	s := New(t.TempDir(), nil)
	if s.Info().Available {
		t.Error("storage without runner should be unavailable")
	}
	if _, err := s.Trash("/etc/hosts"); !errors.Is(err, trash.ErrStorageNotReady) {
		t.Errorf("Trash() error = %v, want ErrStorageNotReady", err)
	}
}
