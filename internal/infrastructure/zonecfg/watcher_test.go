package zonecfg

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/labelops/engine/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcher(t *testing.T) {
	t.Run("initial load failure is fatal", func(t *testing.T) {
		_, err := NewWatcher(filepath.Join(t.TempDir(), "absent.json"), nil)
		require.Error(t, err)
		assert.ErrorIs(t, err, shared.ErrConfigInvalid)
	})

	t.Run("serves the loaded snapshot", func(t *testing.T) {
		w, err := NewWatcher(writeLayout(t, sampleLayout), nil)
		require.NoError(t, err)
		defer w.Close()

		cfg, err := w.Snapshot()
		require.NoError(t, err)
		assert.Len(t, cfg.Zones(), 2)
	})

	t.Run("reload picks up a changed file", func(t *testing.T) {
		path := writeLayout(t, sampleLayout)
		w, err := NewWatcher(path, nil)
		require.NoError(t, err)
		defer w.Close()

		require.NoError(t, os.WriteFile(path, []byte(`{
		  "zones": {"C": {"name": "New", "sections": {"rows": 1, "columns": 1}}}
		}`), 0o644))
		require.NoError(t, w.Reload())

		cfg, err := w.Snapshot()
		require.NoError(t, err)
		zones := cfg.Zones()
		require.Len(t, zones, 1)
		assert.Equal(t, "C", zones[0].Code)
	})

	t.Run("failed reload keeps the last good snapshot", func(t *testing.T) {
		path := writeLayout(t, sampleLayout)
		w, err := NewWatcher(path, nil)
		require.NoError(t, err)
		defer w.Close()

		require.NoError(t, os.WriteFile(path, []byte(`{"zones": {}}`), 0o644))
		err = w.Reload()
		require.Error(t, err)
		assert.ErrorIs(t, err, shared.ErrConfigInvalid)

		cfg, err := w.Snapshot()
		require.NoError(t, err)
		assert.Len(t, cfg.Zones(), 2, "previous layout still served")
	})

	t.Run("watch event triggers reload", func(t *testing.T) {
		path := writeLayout(t, sampleLayout)
		w, err := NewWatcher(path, nil)
		require.NoError(t, err)
		defer w.Close()

		require.NoError(t, os.WriteFile(path, []byte(`{
		  "zones": {"D": {"name": "Dock", "sections": {"rows": 4, "columns": 4}}}
		}`), 0o644))

		require.Eventually(t, func() bool {
			cfg, err := w.Snapshot()
			if err != nil {
				return false
			}
			zones := cfg.Zones()
			return len(zones) == 1 && zones[0].Code == "D"
		}, 3*time.Second, 20*time.Millisecond)
	})

	t.Run("in-flight snapshot is unaffected by a swap", func(t *testing.T) {
		path := writeLayout(t, sampleLayout)
		w, err := NewWatcher(path, nil)
		require.NoError(t, err)
		defer w.Close()

		before, err := w.Snapshot()
		require.NoError(t, err)

		require.NoError(t, os.WriteFile(path, []byte(`{
		  "zones": {"E": {"name": "East", "sections": {"rows": 1, "columns": 1}}}
		}`), 0o644))
		require.NoError(t, w.Reload())

		assert.Len(t, before.Zones(), 2, "held snapshot is immutable")

		after, err := w.Snapshot()
		require.NoError(t, err)
		assert.Len(t, after.Zones(), 1)
	})
}
