package association

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestAssociationScenario(t *testing.T) {
	s := New()
	s.AddAssociation("/Apps/Foo.app", "/tmp/orphan1")
	assert.True(t, s.IsPathAssociated("/tmp/orphan1"))

	s.ClearAssociations("/Apps/Foo.app")
	assert.False(t, s.IsPathAssociated("/tmp/orphan1"))
	assert.Empty(t, s.AssociatedFiles("/Apps/Foo.app"))
}

func TestManyToMany(t *testing.T) {
	s := New()
	s.AddAssociation("/Apps/A.app", "/lib/shared")
	s.AddAssociation("/Apps/B.app", "/lib/shared/")
	s.AddAssociation("/Apps/A.app", "/lib/a-only")
	s.AddAssociation("/Apps/A.app", "/lib/a-only")

	assert.Equal(t, []string{"/lib/a-only", "/lib/shared"}, s.AssociatedFiles("/Apps/A.app"))
	assert.Equal(t, []string{"/Apps/A.app", "/Apps/B.app"}, s.Owners("/lib/shared"))

	s.ClearAssociations("/Apps/A.app")
	assert.True(t, s.IsPathAssociated("/lib/shared"), "still owned by B")
	assert.False(t, s.IsPathAssociated("/lib/a-only"))

	s.RemoveAssociation("/Apps/B.app", "/lib/shared")
	s.RemoveAssociation("/Apps/B.app", "/lib/shared")
	assert.False(t, s.IsPathAssociated("/lib/shared"))
	assert.Empty(t, s.Snapshot())
}

func TestEmptyPathsIgnored(t *testing.T) {
	s := New()
	s.AddAssociation("", "/x")
	s.AddAssociation("/owner", "")
	assert.Empty(t, s.Snapshot())
}

func TestPathsDeleted(t *testing.T) {
	s := New()
	s.AddAssociation("/Apps/A.app", "/o1")
	s.AddAssociation("/Apps/A.app", "/o2")
	s.AddAssociation("/Apps/B.app", "/Apps/A.app")

	s.PathsDeleted([]string{"/o1", "/Apps/A.app"})

	assert.False(t, s.IsPathAssociated("/o1"))
	assert.False(t, s.IsPathAssociated("/o2"), "owner deleted")
	assert.False(t, s.IsPathAssociated("/Apps/A.app"), "deleted as orphan too")
	assert.Empty(t, s.Snapshot())
}

func TestPathsDeletedFolder(t *testing.T) {
	s := New()
	s.AddAssociation("/Apps/Foo.app", "/tmp/leftovers/orphan1")
	s.AddAssociation("/Apps/Foo.app", "/tmp/leftovers-keep")
	s.AddAssociation("/Other/Bar.app", "/var/bar")

	s.PathsDeleted([]string{"/tmp/leftovers"})
	assert.False(t, s.IsPathAssociated("/tmp/leftovers/orphan1"))
	assert.True(t, s.IsPathAssociated("/tmp/leftovers-keep"), "sibling with a common prefix")

	s.PathsDeleted([]string{"/Apps"})
	assert.Empty(t, s.AssociatedFiles("/Apps/Foo.app"))
	assert.False(t, s.IsPathAssociated("/tmp/leftovers-keep"))
	assert.Equal(t, map[string][]string{"/Other/Bar.app": {"/var/bar"}}, s.Snapshot())
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "associations.json")
	s := New()
	s.AddAssociation("/Apps/A.app", "/o1")
	s.AddAssociation("/Apps/A.app", "/o2")
	s.AddAssociation("/Apps/B.app", "/o2")
	require.NoError(t, s.Save(path))

	loaded := New()
	require.NoError(t, loaded.Load(path))
	assert.Equal(t, s.Snapshot(), loaded.Snapshot())
	assert.Equal(t, []string{"/Apps/A.app", "/Apps/B.app"}, loaded.Owners("/o2"))

	missing := New()
	require.NoError(t, missing.Load(filepath.Join(t.TempDir(), "nope.json")))
	assert.Empty(t, missing.Snapshot())

	bad := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"version": 2}`), 0600))
	assert.ErrorIs(t, New().Load(bad), ErrUnsupportedVersion)
}

func TestConcurrentAccess(t *testing.T) {
	s := New()
	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			owner := filepath.Join("/owner", string(rune('a'+i)))
			for j := range 50 {
				orphan := filepath.Join("/orphan", string(rune('a'+j%26)))
				s.AddAssociation(owner, orphan)
				s.IsPathAssociated(orphan)
				s.AssociatedFiles(owner)
			}
		}()
	}
	wg.Wait()
	assert.Len(t, s.Snapshot(), 8)
}

func TestSymmetryProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		paths := []string{"/a", "/b", "/c", "/d"}
		s := New()
		n := rapid.IntRange(0, 30).Draw(t, "ops")
		for range n {
			owner := rapid.SampledFrom(paths).Draw(t, "owner")
			orphan := rapid.SampledFrom(paths).Draw(t, "orphan")
			switch rapid.IntRange(0, 3).Draw(t, "op") {
			case 0, 1:
				s.AddAssociation(owner, orphan)
			case 2:
				s.RemoveAssociation(owner, orphan)
			case 3:
				s.RemovePath(orphan)
			}
		}
		for owner, orphans := range s.Snapshot() {
			for _, orphan := range orphans {
				if !s.IsPathAssociated(orphan) {
					t.Fatalf("%s listed under %s but not associated", orphan, owner)
				}
				found := false
				for _, o := range s.Owners(orphan) {
					found = found || o == owner
				}
				if !found {
					t.Fatalf("%s missing from owners of %s", owner, orphan)
				}
			}
		}
	})
}
