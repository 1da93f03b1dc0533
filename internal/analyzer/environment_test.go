package analyzer

import (
	"os"
	"path/filepath"
	"testing"

	"shot-sorter/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenEnvironment(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	s := config.Settings{
		DataDir:            dir,
		RequireBodycam:     true,
		GroupWindowSeconds: 30,
		ResultCacheSize:    10,
		OCRCacheMax:        100,
		OCRCachePrune:      10,
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "location_knowledge.json"), []byte("{broken"), 0644))

	env := OpenEnvironment(s)
	assert.False(t, env.Engine.Ready())
	assert.Equal(t, 0, env.LocationKB.SampleCount())
	assert.Equal(t, filepath.Join(dir, "location_knowledge.json"), env.LocationKB.FilePath)
	assert.Equal(t, 0, env.TriggerKB.LabeledCount())
	assert.Equal(t, 0, env.OCRCache.Len())
	assert.Equal(t, config.Default().Thresholds, env.Config.Thresholds)

	r := env.Analyzer.Run(filepath.Join(dir, "missing.png"))
	assert.Equal(t, ReasonLoad, r.Err)
	assert.NoError(t, env.Close())
}
