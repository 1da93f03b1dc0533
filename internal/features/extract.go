package features

import (
	"shot-sorter/internal/config"
	"shot-sorter/internal/diag"
	"shot-sorter/internal/image"
	"shot-sorter/pkg/colorutil"
	"shot-sorter/pkg/geometry"
)

// Names of the band-ratio features.
const (
	ELSHFloor      = "elsh_floor"
	ELSHWallOrange = "elsh_wall_or"
	ELSHBeds       = "elsh_beds"
	ELSHClothes    = "elsh_clothes"
	ELSHLamp       = "elsh_lamp"

	PaletoFloor    = "paleto_floor"
	PaletoWallGray = "paleto_wall_gray"
	PaletoWallDark = "paleto_wall_dark"
	PaletoWallBlue = "paleto_wall_blue"
	PaletoSky      = "paleto_sky"

	SandyFloor      = "sandy_floor"
	SandyWall       = "sandy_wall"
	SandyFloorBrown = "sandy_floor_br"
	SandyDoor       = "sandy_door"
	SandyMinimap    = "sandy_mm"
)

// Fixed corner and center windows, in reference pixels.
var (
	cornerUpperLeft  = geometry.R(30, 50, 300, 300)
	cornerUpperRight = geometry.R(1590, 50, 300, 300)
	cornerLowerLeft  = geometry.R(30, 650, 300, 300)
	cornerLowerRight = geometry.R(1590, 650, 300, 300)
	centerWindow     = geometry.R(600, 300, 720, 480)
)

var statPrefixes = []string{
	"floor_", "wall_l_", "wall_r_", "ceiling_", "center_", "minimap_",
	"floor_std_", "wall_std_", "corner_ul_", "corner_ur_", "corner_ll_", "corner_lr_",
}

// Keys returns the names Extract always sets, ratios first.
func Keys() []string {
	keys := []string{
		ELSHFloor, ELSHWallOrange, ELSHBeds, ELSHClothes, ELSHLamp,
		PaletoFloor, PaletoWallGray, PaletoWallDark, PaletoWallBlue, PaletoSky,
		SandyFloor, SandyWall, SandyFloorBrown, SandyDoor, SandyMinimap,
	}
	for _, p := range statPrefixes {
		keys = append(keys, p+"h", p+"s", p+"v")
	}
	return append(keys, "img_w", "img_h")
}

// Extract computes the feature vector of a frame. All regions are read from
// the quarter-size HSV view. Ratios are rounded to six decimals and channel
// statistics to two.
func Extract(ctx *image.Context, cfg *config.Config, tr *diag.Trace) Vector {
	reg := cfg.Regions
	b := cfg.Bands

	floors := []geometry.RectInt{reg.Floor, reg.FloorCenter}
	walls := []geometry.RectInt{reg.WallLeft, reg.WallRight, reg.WallCenter}
	sideWalls := []geometry.RectInt{reg.WallLeft, reg.WallRight}

	ratio := func(r geometry.RectInt, band colorutil.Range) float64 {
		m, ok := ctx.CropMask(r, true, band)
		if !ok {
			return 0
		}
		return image.Ratio(m)
	}
	// Average over the zones that exist in this frame.
	ratioMulti := func(zones []geometry.RectInt, band colorutil.Range) float64 {
		sum, n := 0.0, 0
		for _, z := range zones {
			m, ok := ctx.CropMask(z, true, band)
			if !ok {
				continue
			}
			sum += image.Ratio(m)
			n++
		}
		if n == 0 {
			return 0
		}
		return sum / float64(n)
	}

	v := Vector{
		ELSHFloor:      ratioMulti(floors, b.ELSHFloor),
		ELSHWallOrange: ratioMulti(walls, b.ELSHWallOrange),
		ELSHBeds:       ratio(reg.BedArea, b.ELSHBed),
		ELSHClothes:    ratio(reg.BedArea, b.ELSHClothes),
		ELSHLamp:       ratio(reg.Ceiling, b.ELSHLamp),

		PaletoFloor:    ratioMulti(floors, b.PaletoFloor),
		PaletoWallGray: ratioMulti(walls, b.PaletoWallGray),
		PaletoWallDark: ratioMulti(walls, b.PaletoWallDark),
		PaletoWallBlue: ratioMulti(walls, b.PaletoWallBlue),
		PaletoSky:      ratio(reg.Horizon, b.PaletoSky),

		SandyFloor:      ratioMulti(floors, b.SandyFloor),
		SandyWall:       ratioMulti(walls, b.SandyWall),
		SandyFloorBrown: ratioMulti(floors, b.SandyFloorBrown),
		SandyDoor:       ratioMulti(sideWalls, b.SandyDoor),
		SandyMinimap:    ratio(reg.Minimap, b.SandyMap),
	}
	for k, x := range v {
		v[k] = image.Round(x, 6)
	}

	stats := func(prefix string, r geometry.RectInt, std bool) {
		var vals []float64
		if m, ok := ctx.CropHSVSmall(r); ok {
			mean, sd := image.MeanStd(m)
			vals = mean
			if std {
				vals = sd
			}
		}
		for i, ch := range []string{"h", "s", "v"} {
			x := 0.0
			if i < len(vals) {
				x = vals[i]
			}
			v[prefix+ch] = image.Round(x, 2)
		}
	}
	stats("floor_", reg.Floor, false)
	stats("wall_l_", reg.WallLeft, false)
	stats("wall_r_", reg.WallRight, false)
	stats("ceiling_", reg.Ceiling, false)
	stats("center_", centerWindow, false)
	stats("minimap_", reg.Minimap, false)
	stats("floor_std_", reg.Floor, true)
	stats("wall_std_", reg.WallLeft, true)
	stats("corner_ul_", cornerUpperLeft, false)
	stats("corner_ur_", cornerUpperRight, false)
	stats("corner_ll_", cornerLowerLeft, false)
	stats("corner_lr_", cornerLowerRight, false)

	v["img_w"] = float64(ctx.Width())
	v["img_h"] = float64(ctx.Height())

	tr.Addf("  [features] ELSH: floor=%.4f wall_or=%.4f beds=%.4f clothes=%.4f lamp=%.4f",
		v[ELSHFloor], v[ELSHWallOrange], v[ELSHBeds], v[ELSHClothes], v[ELSHLamp])
	tr.Addf("  [features] PALETO: floor=%.4f wall_dark=%.4f wall_blue=%.4f sky=%.4f",
		v[PaletoFloor], v[PaletoWallDark], v[PaletoWallBlue], v[PaletoSky])
	tr.Addf("  [features] SANDY: floor=%.4f wall=%.4f door=%.4f map=%.4f",
		v[SandyFloor], v[SandyWall], v[SandyDoor], v[SandyMinimap])
	return v
}
