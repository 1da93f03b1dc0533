package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"shot-sorter/internal/analyzer"
	"shot-sorter/internal/config"
	"shot-sorter/internal/ocr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSettings(dir string) config.Settings {
	return config.Settings{
		DataDir:            dir,
		RequireBodycam:     true,
		GroupWindowSeconds: 30,
		ResultCacheSize:    10,
		OCRCacheMax:        100,
		OCRCachePrune:      10,
		PreloadDepth:       2,
		PreloadWorkers:     1,
	}
}

func TestRun(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	shot := filepath.Join(dir, "shot.png")
	require.NoError(t, os.WriteFile(shot, []byte("not an image"), 0644))

	t.Run("writes summary", func(t *testing.T) {
		t.Parallel()
		out := filepath.Join(t.TempDir(), "summary.json")
		require.Equal(t, 0, run(testSettings(t.TempDir()), []string{shot}, out))

		data, err := os.ReadFile(out)
		require.NoError(t, err)
		var got summaryFile
		require.NoError(t, json.Unmarshal(data, &got))
		assert.Equal(t, 1, got.Total)
		assert.Equal(t, 1, got.Skipped)
		require.Len(t, got.Files, 1)
		assert.Equal(t, analyzer.ReasonLoad, got.Files[0].Reason)
	})

	t.Run("flushes stores when the summary fails", func(t *testing.T) {
		t.Parallel()
		data := t.TempDir()
		cachePath := filepath.Join(data, "ocr_cache.json")
		cache := ocr.NewDiskCache(cachePath, 10, 1)
		cache.Put("abc", []string{"вылечил"}, "TAB")

		blocked := filepath.Join(data, "blocked")
		require.NoError(t, os.WriteFile(blocked, nil, 0644))
		code := run(testSettings(data), []string{shot}, filepath.Join(blocked, "summary.json"), analyzer.WithOCRCache(cache))
		assert.Equal(t, 1, code)

		loaded, err := ocr.LoadDiskCache(cachePath, 10, 1)
		require.NoError(t, err)
		_, ok := loaded.Get("abc")
		assert.True(t, ok)
	})
}
