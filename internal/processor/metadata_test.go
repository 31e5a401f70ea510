package processor

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreationTimestamp(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shot.png")
	require.NoError(t, os.WriteFile(path, nil, 0o644))
	when := time.Date(2024, 3, 1, 10, 0, 42, 0, time.Local)
	require.NoError(t, os.Chtimes(path, when, when))

	ts, ok := CreationTimestamp(path)
	require.True(t, ok)
	assert.Equal(t, "2024-03-01 10:00", ts)

	_, ok = CreationTimestamp(filepath.Join(t.TempDir(), "missing.png"))
	assert.False(t, ok)
}
