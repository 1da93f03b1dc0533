package analyzer

import (
	"errors"

	"shot-sorter/internal/config"
	"shot-sorter/internal/diag"
	"shot-sorter/internal/knowledge"
	"shot-sorter/internal/ocr"
)

// Environment is everything the command-line tools share: configuration,
// the OCR engine, the persisted stores and an analyzer over them.
type Environment struct {
	Settings   config.Settings
	Config     *config.Config
	Engine     *ocr.Engine
	LocationKB *knowledge.LocationKB
	TriggerKB  *knowledge.TriggerKB
	OCRCache   *ocr.DiskCache
	Analyzer   *Analyzer
}

// OpenEnvironment loads thresholds, knowledge bases and the OCR cache from
// the data directory and opens an OCR engine. Damaged files are reported and
// replaced by empty defaults; only the engine can be missing, in which case
// the placeholder engine is used.
func OpenEnvironment(s config.Settings, opts ...Option) *Environment {
	cfg, err := config.Load(s.ThresholdsPath())
	if err != nil {
		diag.Logf("config: %v", err)
	}
	locKB, err := knowledge.LoadLocationKB(s.LocationKBPath())
	if err != nil {
		diag.Logf("knowledge: %v", err)
	}
	trigKB, err := knowledge.LoadTriggerKB(s.TriggerKBPath())
	if err != nil {
		diag.Logf("knowledge: %v", err)
	}
	cache, err := ocr.LoadDiskCache(s.OCRCachePath(), s.OCRCacheMax, s.OCRCachePrune)
	if err != nil {
		diag.Logf("ocr cache: %v", err)
	}
	engine := ocr.Open(s.OCREngines, ocr.EngineSettings{
		Languages:   s.TesseractLanguages,
		ExecCommand: s.ExecCommand,
		ExecArgs:    s.ExecArgs,
	})

	base := []Option{
		WithBodycamRequired(s.RequireBodycam),
		WithGroupWindow(s.GroupWindow()),
		WithCacheSize(s.ResultCacheSize),
		WithKnowledge(locKB, trigKB),
		WithOCRCache(cache),
	}

	var rec ocr.TextRecognizer = engine
	if !engine.Ready() {
		rec = nil
	}
	return &Environment{
		Settings:   s,
		Config:     cfg,
		Engine:     engine,
		LocationKB: locKB,
		TriggerKB:  trigKB,
		OCRCache:   cache,
		Analyzer:   New(cfg, rec, append(base, opts...)...),
	}
}

// Close persists the OCR cache and releases the engine.
func (e *Environment) Close() error {
	return errors.Join(e.Analyzer.Close(), e.Engine.Close())
}
