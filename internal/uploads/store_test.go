package uploads_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noticeboard-app/noticeboard/internal/uploads"
	_ "github.com/noticeboard-app/noticeboard/testing"
)

var pngBytes = []byte{
	0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a,
	0x00, 0x00, 0x00, 0x0d, 'I', 'H', 'D', 'R',
}

func TestSaveSniffsMIMEAndWritesFile(t *testing.T) {
	store, err := uploads.NewStore(t.TempDir())
	require.NoError(t, err)

	stored, err := store.Save("me.png", bytes.NewReader(pngBytes))
	require.NoError(t, err)
	require.Equal(t, "me.png", stored.Name)
	require.Equal(t, "image/png", stored.MIME)
	require.Equal(t, ".png", filepath.Ext(stored.Path))
	require.Equal(t, int64(len(pngBytes)), stored.Size)

	data, err := os.ReadFile(stored.Path)
	require.NoError(t, err)
	require.Equal(t, pngBytes, data)
}

func TestSaveIgnoresClientDeclaredName(t *testing.T) {
	store, err := uploads.NewStore(t.TempDir())
	require.NoError(t, err)

	// A shell script named like an image keeps its real type.
	stored, err := store.Save("totally-a.png", bytes.NewReader([]byte("#!/bin/sh\necho hi\n")))
	require.NoError(t, err)
	require.NotEqual(t, "image/png", stored.MIME)
	require.NotContains(t, filepath.Base(stored.Path), "totally-a")
}

func TestRemove(t *testing.T) {
	store, err := uploads.NewStore(t.TempDir())
	require.NoError(t, err)

	stored, err := store.Save("me.png", bytes.NewReader(pngBytes))
	require.NoError(t, err)

	require.NoError(t, store.Remove(stored.Path))
	_, err = os.Stat(stored.Path)
	require.True(t, os.IsNotExist(err))

	// Removing again, or removing nothing, is a soft no-op.
	require.NoError(t, store.Remove(stored.Path))
	require.NoError(t, store.Remove(""))
}

func TestSweepRemovesOldOrphansOnly(t *testing.T) {
	store, err := uploads.NewStore(t.TempDir())
	require.NoError(t, err)

	orphan, err := store.Save("orphan.png", bytes.NewReader(pngBytes))
	require.NoError(t, err)
	kept, err := store.Save("kept.png", bytes.NewReader(pngBytes))
	require.NoError(t, err)
	fresh, err := store.Save("fresh.png", bytes.NewReader(pngBytes))
	require.NoError(t, err)

	// Age the first two past the cutoff.
	old := time.Now().Add(-2 * time.Hour)
	require.NoError(t, os.Chtimes(orphan.Path, old, old))
	require.NoError(t, os.Chtimes(kept.Path, old, old))

	removed, err := store.Sweep(time.Hour, func(path string) (bool, error) {
		return path == kept.Path, nil
	})
	require.NoError(t, err)
	require.Equal(t, 1, removed)

	_, err = os.Stat(orphan.Path)
	require.True(t, os.IsNotExist(err))
	_, err = os.Stat(kept.Path)
	require.NoError(t, err)
	_, err = os.Stat(fresh.Path)
	require.NoError(t, err)
}
