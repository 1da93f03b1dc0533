package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
)

// ErrStaleThresholds is returned when a threshold file was outdated or
// unreadable and has been removed. Defaults remain in effect.
var ErrStaleThresholds = errors.New("threshold file discarded")

// tunables maps persisted threshold names to the fields they override.
func (c *Config) tunables() map[string]any {
	t := map[string]any{
		"THR_ELSH_FLOOR":        &c.Thresholds.ELSHFloor,
		"THR_ELSH_WALL_ORANGE":  &c.Thresholds.ELSHWallOrange,
		"THR_ELSH_BED":          &c.Thresholds.ELSHBed,
		"THR_ELSH_LAMP":         &c.Thresholds.ELSHLamp,
		"THR_PALETO_FLOOR_DARK": &c.Thresholds.PaletoFloorDark,
		"THR_PALETO_WALL_DARK":  &c.Thresholds.PaletoWallDark,
		"THR_PALETO_SKY":        &c.Thresholds.PaletoSky,
		"THR_SANDY_FLOOR_SAND":  &c.Thresholds.SandyFloorSand,
		"THR_SANDY_WALL_BEIGE":  &c.Thresholds.SandyWallBeige,
		"THR_SANDY_DOOR":        &c.Thresholds.SandyDoor,
		"THR_SANDY_MAP":         &c.Thresholds.SandyMap,
		"THR_SKIP_OCR":          &c.Thresholds.SkipOCR,
		"THR_DB_CONFIDENCE":     &c.Thresholds.DBConfidence,

		"ELSH_LAMP":  &c.Bands.ELSHLamp,
		"SANDY_MAP":  &c.Bands.SandyMap,
		"PALETO_SKY": &c.Bands.PaletoSky,

		"BODYCAM_TIMER_ROI":           &c.Bodycam.TimerROI,
		"BODYCAM_ROIS":                &c.Bodycam.ROIs,
		"BODYCAM_SCAN_STRIPS":         &c.Bodycam.ScanStrips,
		"BODYCAM_BGR_R_MIN":           &c.Bodycam.BGRRMin,
		"BODYCAM_BGR_BG_MAX":          &c.Bodycam.BGRBGMax,
		"BODYCAM_BGR_DOMINANCE":       &c.Bodycam.BGRDominance,
		"BODYCAM_BGR_DIM_R_MIN":       &c.Bodycam.DimRMin,
		"BODYCAM_BGR_DIM_R_MAX":       &c.Bodycam.DimRMax,
		"BODYCAM_BGR_DIM_G_MAX":       &c.Bodycam.DimGMax,
		"BODYCAM_BGR_DIM_B_MAX":       &c.Bodycam.DimBMax,
		"BODYCAM_BGR_DIM_DOMINANCE":   &c.Bodycam.DimDominance,
		"BODYCAM_BGR_DIM_MIN_CONFIRM": &c.Bodycam.DimMinConfirm,
		"BODYCAM_RED_THR":             &c.Bodycam.RedThreshold,
		"BODYCAM_RED_THR_SOFT":        &c.Bodycam.RedThresholdSoft,
		"BODYCAM_MAX_RED_RATIO":       &c.Bodycam.MaxRedRatio,
		"BODYCAM_BLOB_MAX_X":          &c.Bodycam.BlobMaxX,
		"WARM_CORNER_HUE_MAX":         &c.Bodycam.WarmHueMax,
		"WARM_CORNER_HUE_MIN2":        &c.Bodycam.WarmHueMin2,
		"WARM_CORNER_SAT_MIN":         &c.Bodycam.WarmSatMin,
		"WARM_CORNER_VAL_MIN":         &c.Bodycam.WarmValMin,
		"WARM_CORNER_STRONG_RATIO":    &c.Bodycam.WarmStrongRatio,
		"WARM_CORNER_STRONG_RDOM":     &c.Bodycam.WarmStrongRDom,
		"WARM_CORNER_WEAK_RATIO":      &c.Bodycam.WarmWeakRatio,
		"WARM_CORNER_WEAK_RDOM":       &c.Bodycam.WarmWeakRDom,
		"BC_TINT_SAT_MIN":             &c.Bodycam.TintSatMin,
		"BC_TINT_CORNER_RATIO":        &c.Bodycam.TintCornerRatio,
		"BC_TINT_CORNERS_NEEDED":      &c.Bodycam.TintCornersNeeded,
		"BC_VIGNETTE_VAL_MAX":         &c.Bodycam.VignetteValMax,
	}

	ranges := map[string]*Range{
		"ELSH_FLOOR":          &c.Bands.ELSHFloor,
		"ELSH_WALL_ORANGE":    &c.Bands.ELSHWallOrange,
		"ELSH_BED":            &c.Bands.ELSHBed,
		"ELSH_CLOTHES":        &c.Bands.ELSHClothes,
		"PALETO_FLOOR":        &c.Bands.PaletoFloor,
		"PALETO_WALL_GRAY":    &c.Bands.PaletoWallGray,
		"PALETO_WALL_DARK":    &c.Bands.PaletoWallDark,
		"PALETO_WALL_BLUE":    &c.Bands.PaletoWallBlue,
		"SANDY_FLOOR":         &c.Bands.SandyFloor,
		"SANDY_WALL":          &c.Bands.SandyWall,
		"SANDY_FLOOR_BROWN":   &c.Bands.SandyFloorBrown,
		"SANDY_DOOR":          &c.Bands.SandyDoor,
		"TEXT_PURPLE":         &c.Text.Purple,
		"TEXT_GREEN":          &c.Text.Green,
		"TEXT_ORANGE":         &c.Text.Orange,
		"TEXT_WHITE":          &c.Text.White,
		"TEXT_YELLOW":         &c.Text.Yellow,
		"TEXT_GRAY":           &c.Text.Gray,
		"TEXT_RED":            &c.Text.Red,
		"TEXT_RED2":           &c.Text.Red2,
		"BODYCAM_RED_STRICT":  &c.Bodycam.RedStrict,
		"BODYCAM_RED2_STRICT": &c.Bodycam.Red2Strict,
		"BODYCAM_RED_DIM":     &c.Bodycam.RedDim,
		"BODYCAM_RED2_DIM":    &c.Bodycam.Red2Dim,
		"BODYCAM_RED_SOFT":    &c.Bodycam.RedSoft,
		"BODYCAM_RED2_SOFT":   &c.Bodycam.Red2Soft,
	}
	for name, r := range ranges {
		t[name+"_LO"] = &r.Lo
		t[name+"_HI"] = &r.Hi
	}

	blobs := map[string]*BlobCriteria{
		"STRICT": &c.Bodycam.BlobStrict,
		"DIM":    &c.Bodycam.BlobDim,
		"SOFT":   &c.Bodycam.BlobSoft,
	}
	for name, b := range blobs {
		p := "BODYCAM_BLOB_" + name + "_"
		t[p+"R_MIN"] = &b.RMin
		t[p+"G_MAX"] = &b.GMax
		t[p+"B_MAX"] = &b.BMax
		t[p+"DOM"] = &b.Dominance
		t[p+"CIRC"] = &b.Circularity
		t[p+"AREA_MIN"] = &b.AreaMin
		t[p+"AREA_MAX"] = &b.AreaMax
	}
	t["BODYCAM_BLOB_DIM_R_MAX"] = &c.Bodycam.BlobDim.RMax

	return t
}

// Load returns the default configuration overridden by the threshold file at
// path. A missing file is not an error. An outdated or malformed file is
// deleted and ErrStaleThresholds is returned alongside the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to read thresholds: %w", err)
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		_ = os.Remove(path)
		return cfg, fmt.Errorf("%w: %v", ErrStaleThresholds, err)
	}

	var version int
	if v, ok := raw["_version"]; ok {
		_ = json.Unmarshal(v, &version)
	}
	if version < ThresholdVersion {
		_ = os.Remove(path)
		return cfg, fmt.Errorf("%w: version %d < %d", ErrStaleThresholds, version, ThresholdVersion)
	}

	tun := cfg.tunables()
	for key, msg := range raw {
		target, ok := tun[key]
		if !ok {
			continue
		}
		// Decode into a scratch value so a bad entry leaves the default intact.
		tmp := reflect.New(reflect.TypeOf(target).Elem())
		if err := json.Unmarshal(msg, tmp.Interface()); err != nil {
			continue
		}
		reflect.ValueOf(target).Elem().Set(tmp.Elem())
	}
	return cfg, nil
}

// SaveThresholds writes every tunable threshold with the current version.
func (c *Config) SaveThresholds(path string) error {
	out := map[string]any{"_version": ThresholdVersion}
	for k, v := range c.tunables() {
		out[k] = v
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal thresholds: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write thresholds: %w", err)
	}
	return nil
}
