package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetStats_ReportsNonZeroPageAccounting(t *testing.T) {
	s := newTestStore(t)
	stats, err := s.GetStats()
	require.NoError(t, err)
	assert.Greater(t, stats.PageCount, int64(0))
	assert.Greater(t, stats.PageSize, int64(0))
}

func TestHealthCheck_PassesOnFreshDatabase(t *testing.T) {
	s := newTestStore(t)
	assert.NoError(t, s.HealthCheck(context.Background()))
}

func TestWALCheckpointAndVacuum_DoNotError(t *testing.T) {
	s := newTestStore(t)
	assert.NoError(t, s.WALCheckpoint(""))
	assert.NoError(t, s.Vacuum())
}

func TestVacuumInto_ProducesAReadableCopy(t *testing.T) {
	s := newTestStore(t)
	dest := filepath.Join(t.TempDir(), "snapshot.db")

	require.NoError(t, s.VacuumInto(dest))

	fi, err := os.Stat(dest)
	require.NoError(t, err)
	assert.Greater(t, fi.Size(), int64(0))
}
