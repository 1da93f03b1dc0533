package knowledge

import (
	"os"
	"path/filepath"
	"testing"

	"shot-sorter/internal/features"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocationKBRunningStats(t *testing.T) {
	t.Parallel()

	kb := NewLocationKB(filepath.Join(t.TempDir(), "location_knowledge.json"))

	require.NoError(t, kb.AddSample(features.Vector{"sandy_floor": 0.5}, "Sandy Shores", "a.png"))
	got := kb.Ranges()["Sandy Shores"]["sandy_floor"]
	assert.Equal(t, Stat{Min: 0.5, Max: 0.5, Sum: 0.5, Count: 1, Mean: 0.5}, got)

	require.NoError(t, kb.AddSample(features.Vector{"sandy_floor": 0.7}, "Sandy Shores", "b.png"))
	require.NoError(t, kb.AddSample(features.Vector{"sandy_floor": 0.3}, "Sandy Shores", "c.png"))
	got = kb.Ranges()["Sandy Shores"]["sandy_floor"]
	assert.InDelta(t, 0.3, got.Min, 1e-9)
	assert.InDelta(t, 0.7, got.Max, 1e-9)
	assert.InDelta(t, 0.5, got.Mean, 1e-9)
	assert.Equal(t, 3, got.Count)

	assert.Equal(t, 3, kb.SampleCount())
	assert.Equal(t, map[string]int{"Sandy Shores": 3}, kb.LocationCounts())
}

func TestLocationKBRoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "kb", "location_knowledge.json")
	kb := NewLocationKB(path)
	require.NoError(t, kb.AddSample(features.Vector{"elsh_beds": 0.2, "floor_h": 60}, "ELSH", "x.png"))
	require.NoError(t, kb.AddSample(features.Vector{"paleto_floor": 0.4}, "Paleto Bay", "y.png"))

	loaded, err := LoadLocationKB(path)
	require.NoError(t, err)
	if diff := cmp.Diff(kb.Ranges(), loaded.Ranges()); diff != "" {
		t.Errorf("ranges mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 2, loaded.SampleCount())
	assert.Equal(t, "x.png", loaded.Samples[0].Filename)
	assert.Equal(t, 1, loaded.Version)
}

func TestInMemoryRepositories(t *testing.T) {
	t.Parallel()

	loc := NewLocationKB("")
	require.NoError(t, loc.AddSample(features.Vector{"sandy_floor": 0.5}, "Sandy Shores", "a.png"))
	assert.Equal(t, map[string]int{"Sandy Shores": 1}, loc.LocationCounts())
	assert.NoError(t, loc.Save())

	trig := NewTriggerKB("")
	require.NoError(t, trig.AddSample("a.png", "TAB", []string{"выдал таблетки"}, nil))
	assert.Equal(t, 1, trig.LabeledCount())
	removed, err := trig.DeleteFile("a.png")
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
}

func TestLoadLocationKBFallbacks(t *testing.T) {
	t.Parallel()

	t.Run("missing", func(t *testing.T) {
		t.Parallel()
		kb, err := LoadLocationKB(filepath.Join(t.TempDir(), "none.json"))
		require.NoError(t, err)
		assert.Equal(t, 0, kb.SampleCount())
		assert.NotNil(t, kb.FeatureRanges)
	})

	t.Run("malformed", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "bad.json")
		require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))
		kb, err := LoadLocationKB(path)
		assert.Error(t, err)
		require.NotNil(t, kb)
		assert.Equal(t, 0, kb.SampleCount())
		assert.Equal(t, path, kb.FilePath)
	})

	t.Run("missing sum", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "old.json")
		data := `{"samples": [], "feature_ranges": {"ELSH": {"floor_v": {"min": 1, "max": 3, "count": 4, "mean": 2}}}, "version": 1}`
		require.NoError(t, os.WriteFile(path, []byte(data), 0644))
		kb, err := LoadLocationKB(path)
		require.NoError(t, err)

		require.NoError(t, kb.AddSample(features.Vector{"floor_v": 7}, "ELSH", "z.png"))
		st := kb.Ranges()["ELSH"]["floor_v"]
		assert.InDelta(t, 15, st.Sum, 1e-9)
		assert.InDelta(t, 3, st.Mean, 1e-9)
		assert.InDelta(t, 7, st.Max, 1e-9)
	})
}

func TestLocationKBReset(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "location_knowledge.json")
	kb := NewLocationKB(path)
	require.NoError(t, kb.AddSample(features.Vector{"a": 1}, "ELSH", "a.png"))
	require.FileExists(t, path)

	require.NoError(t, kb.Reset())
	assert.Equal(t, 0, kb.SampleCount())
	assert.Empty(t, kb.Ranges())
	assert.NoFileExists(t, path)

	require.NoError(t, kb.Reset())
}

func TestTriggerKBVocabulary(t *testing.T) {
	t.Parallel()

	kb := NewTriggerKB(filepath.Join(t.TempDir(), "trigger_knowledge.json"))
	require.NoError(t, kb.AddSample("a.png", CodeTablets, []string{"Выдал ТАБЛЕТКИ, пациенту (abc) ok"}, nil))

	assert.Equal(t, []string{"выдал", "таблетки", "пациенту"}, kb.Keywords(CodeTablets))
	assert.Empty(t, kb.Keywords(CodeVaccines))

	// Same file again replaces the sample and only appends new words.
	require.NoError(t, kb.AddSample("a.png", CodeTablets, []string{"таблетки снова"}, nil))
	assert.Equal(t, 1, kb.LabeledCount())
	assert.Equal(t, []string{"выдал", "таблетки", "пациенту", "снова"}, kb.Keywords(CodeTablets))
}

func TestTriggerKBPredict(t *testing.T) {
	t.Parallel()

	kb := NewTriggerKB(filepath.Join(t.TempDir(), "trigger_knowledge.json"))
	assert.Equal(t, Prediction{}, kb.Predict([]string{"anything"}))

	require.NoError(t, kb.AddSample("a.png", CodeVaccines, []string{"сделал прививку пациенту"}, nil))
	require.NoError(t, kb.AddSample("b.png", CodeTablets, []string{"таблетки пациенту"}, nil))

	p := kb.Predict([]string{"Сделал ПРИВИВКУ"})
	assert.Equal(t, CodeVaccines, p.Code)
	assert.InDelta(t, 1.0, p.Confidence, 1e-9)
	assert.Equal(t, []string{"сделал", "прививку"}, p.Words)

	// One hit is reported but not decided.
	p = kb.Predict([]string{"таблетки"})
	assert.Equal(t, "", p.Code)
	assert.Equal(t, []string{"таблетки"}, p.Words)

	// Ties break toward the first base code.
	p = kb.Predict([]string{"пациенту"})
	assert.Equal(t, "", p.Code)

	assert.Equal(t, Prediction{}, kb.Predict([]string{"ничего"}))
}

func TestTriggerKBDelete(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "trigger_knowledge.json")
	kb := NewTriggerKB(path)
	require.NoError(t, kb.AddSample("a.png", CodeTablets, []string{"таблетки"}, nil))
	require.NoError(t, kb.AddSample("b.png", CodeTablets, []string{"аспирин"}, nil))
	require.NoError(t, kb.AddSample("c.png", CodePMP, []string{"аптечку"}, nil))

	n, err := kb.DeleteFile("missing.png")
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	n, err = kb.DeleteFile("c.png")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, []string{"аптечку"}, kb.Keywords(CodePMP))

	n, err = kb.DeleteCategory(CodeTablets)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Empty(t, kb.Keywords(CodeTablets))

	loaded, err := LoadTriggerKB(path)
	require.NoError(t, err)
	assert.Equal(t, 0, loaded.LabeledCount())
	assert.Empty(t, loaded.Keywords(CodeTablets))
	assert.Equal(t, []string{"аптечку"}, loaded.Keywords(CodePMP))
}

func TestLoadTriggerKBDefaults(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "trigger_knowledge.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"labeled": null, "version": 1}`), 0644))

	kb, err := LoadTriggerKB(path)
	require.NoError(t, err)
	for _, c := range []string{CodeTablets, CodeVaccines, CodePMP} {
		assert.NotNil(t, kb.CatKeywords[c], c)
	}
	assert.Equal(t, 0, kb.LabeledCount())
}
