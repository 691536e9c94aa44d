package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const watchInitial = `
profiles:
  dev:
    dialect: sqlite
    path: a.db
`

const watchUpdated = `
profiles:
  dev:
    dialect: sqlite
    path: b.db
`

func writeProfiles(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
}

func TestWatchReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db.yaml")
	writeProfiles(t, path, watchInitial)

	changed := make(chan *File, 1)
	w, err := Watch(path,
		OnChange(func(f *File) {
			select {
			case changed <- f:
			default:
			}
		}),
		WithDebounce(10*time.Millisecond),
	)
	require.NoError(t, err)
	defer w.Close()

	p, err := w.Profile("")
	require.NoError(t, err)
	assert.Equal(t, "a.db", p.Path)

	writeProfiles(t, path, watchUpdated)
	select {
	case f := <-changed:
		p, err := f.Profile("")
		require.NoError(t, err)
		assert.Equal(t, "b.db", p.Path)
	case <-time.After(5 * time.Second):
		t.Fatal("reload did not happen")
	}

	p, err = w.Profile("")
	require.NoError(t, err)
	assert.Equal(t, "b.db", p.Path)
}

func TestWatchAtomicReplace(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "db.yaml")
	writeProfiles(t, path, watchInitial)

	changed := make(chan *File, 1)
	w, err := Watch(path,
		OnChange(func(f *File) {
			select {
			case changed <- f:
			default:
			}
		}),
		WithDebounce(10*time.Millisecond),
	)
	require.NoError(t, err)
	defer w.Close()

	// Replace the file the way editors do, write-then-rename.
	tmp := filepath.Join(dir, "db.yaml.tmp")
	writeProfiles(t, tmp, watchUpdated)
	require.NoError(t, os.Rename(tmp, path))

	select {
	case f := <-changed:
		p, err := f.Profile("")
		require.NoError(t, err)
		assert.Equal(t, "b.db", p.Path)
	case <-time.After(5 * time.Second):
		t.Fatal("reload did not happen")
	}
}

func TestWatchBadUpdateKeepsState(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db.yaml")
	writeProfiles(t, path, watchInitial)

	failed := make(chan error, 1)
	w, err := Watch(path,
		OnError(func(err error) {
			select {
			case failed <- err:
			default:
			}
		}),
		WithDebounce(10*time.Millisecond),
	)
	require.NoError(t, err)
	defer w.Close()

	writeProfiles(t, path, "profiles:\n  dev:\n    dialect: oracle\n")
	select {
	case err := <-failed:
		assert.Contains(t, err.Error(), "unsupported dialect")
	case <-time.After(5 * time.Second):
		t.Fatal("reload failure was not reported")
	}

	p, err := w.Profile("dev")
	require.NoError(t, err)
	assert.Equal(t, "a.db", p.Path)
}

func TestWatchMissingFile(t *testing.T) {
	_, err := Watch(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}
