// Package config provides the classification constants: reference regions,
// HSV bands, keyword lists and numeric thresholds.
package config

import (
	"shot-sorter/pkg/colorutil"
	"shot-sorter/pkg/geometry"
)

// ThresholdVersion is the current threshold file format version. Files with a
// lower version are discarded on load.
const ThresholdVersion = 41

// HSV is shorthand for an OpenCV-convention triple.
type HSV = colorutil.HSV

// Range is shorthand for an HSV band.
type Range = colorutil.Range

// Rect is shorthand for a reference-resolution rectangle.
type Rect = geometry.RectInt

// Regions holds the named reference rectangles.
type Regions struct {
	Minimap     Rect
	Horizon     Rect
	Ceiling     Rect
	WallLeft    Rect
	WallRight   Rect
	Floor       Rect
	FloorCenter Rect
	WallCenter  Rect
	BedArea     Rect
	Clock       Rect
}

// TextBands are the chat text colors used to build the colored-text mask.
type TextBands struct {
	Purple Range
	Green  Range
	Orange Range
	White  Range
	Yellow Range
	Gray   Range
	Red    Range
	Red2   Range
}

// All returns the bands in mask-union order.
func (t TextBands) All() []Range {
	return []Range{t.Purple, t.Green, t.Orange, t.White, t.Yellow, t.Gray, t.Red, t.Red2}
}

// LocationBands are the interior colors of each hospital.
type LocationBands struct {
	ELSHFloor      Range
	ELSHWallOrange Range
	ELSHBed        Range
	ELSHClothes    Range
	ELSHLamp       Range

	PaletoFloor    Range
	PaletoWallGray Range
	PaletoWallDark Range
	PaletoWallBlue Range
	PaletoSky      Range

	SandyFloor      Range
	SandyWall       Range
	SandyFloorBrown Range
	SandyDoor       Range
	SandyMap        Range
}

// LocationThresholds are the rule-scorer and knowledge-base thresholds.
type LocationThresholds struct {
	ELSHFloor       float64
	ELSHWallOrange  float64
	ELSHBed         float64
	ELSHLamp        float64
	PaletoFloorDark float64
	PaletoWallDark  float64
	PaletoSky       float64
	SandyFloorSand  float64
	SandyWallBeige  float64
	SandyDoor       float64
	SandyMap        float64
	SkipOCR         float64
	WeightMinimap   float64
	WeightCenter    float64

	DBConfidence float64
	MinDBSamples int
}

// BlobCriteria is one tier of red-blob acceptance.
type BlobCriteria struct {
	RMin, RMax       float64
	GMax, BMax       float64
	Dominance        float64
	Circularity      float64
	AreaMin, AreaMax int
}

// Accepts reports whether a component passes this tier.
func (b BlobCriteria) Accepts(area, circ float64, originX int, r, g, bl float64, maxX int) bool {
	if area < float64(b.AreaMin) || area > float64(b.AreaMax) {
		return false
	}
	if circ < b.Circularity || r < b.RMin || (b.RMax > 0 && r > b.RMax) {
		return false
	}
	if g > b.GMax || bl > b.BMax {
		return false
	}
	return r > g*b.Dominance && r > bl*b.Dominance && originX <= maxX
}

// Bodycam holds every body-camera detector constant.
type Bodycam struct {
	TimerROI   Rect
	ROIs       []Rect
	ScanStrips []Rect

	RedStrict  Range
	Red2Strict Range
	RedDim     Range
	Red2Dim    Range
	RedSoft    Range
	Red2Soft   Range

	BGRRMin       int
	BGRBGMax      int
	BGRDominance  float64
	DimRMin       int
	DimRMax       int
	DimGMax       int
	DimBMax       int
	DimDominance  float64
	DimMinConfirm int

	RedThreshold     float64
	RedThresholdSoft float64
	MaxRedRatio      float64

	BlobStrict BlobCriteria
	BlobDim    BlobCriteria
	BlobSoft   BlobCriteria
	BlobMaxX   int

	WarmHueMax      int
	WarmHueMin2     int
	WarmSatMin      int
	WarmValMin      int
	WarmStrongRatio float64
	WarmStrongRDom  float64
	WarmWeakRatio   float64
	WarmWeakRDom    float64
	WarmCorners     []Rect

	TintSatMin        int
	TintCornerRatio   float64
	TintCornersNeeded int
	VignetteValMax    int
	TintCenter        Rect
	TintCorners       []Rect
}

// Keywords holds the trigger vocabularies. All entries are lowercase.
type Keywords struct {
	Tablets      []string
	Vaccines     []string
	PMP          []string
	PMPConfirm   []string
	Reject       []string
	Refuse       []string
	FuzzyTablets []string
	FuzzyVaccine []string
	FuzzyPMP     []string
}

// MinimapKeyword maps minimap street names to a location display name.
type MinimapKeyword struct {
	Location string
	Words    []string
}

// Config is the complete classification configuration.
// It is treated as immutable once loaded.
type Config struct {
	ChatScanROIs []Rect
	Text         TextBands
	Keywords     Keywords
	Regions      Regions
	Bands        LocationBands
	Thresholds   LocationThresholds
	Bodycam      Bodycam
	Hospitals    []MinimapKeyword

	NightStart int
	NightEnd   int
}

// Default returns the built-in configuration.
func Default() *Config {
	r := geometry.R
	band := func(lo, hi HSV) Range { return colorutil.NewRange(lo, hi) }

	strips := make([]Rect, 0, 13)
	for y := 400; y <= 900; y += 50 {
		strips = append(strips, r(0, y, 300, 50))
	}
	strips = append(strips, r(0, 0, 300, 50), r(0, 50, 300, 50))

	return &Config{
		ChatScanROIs: []Rect{
			r(0, 700, 800, 380),
			r(0, 800, 650, 280),
			r(400, 780, 1120, 280),
			r(300, 700, 1320, 360),
			r(0, 650, 960, 430),
			// lower resolutions such as 1558x871
			r(0, 500, 600, 350),
			r(0, 550, 500, 300),
			r(0, 450, 700, 400),
			r(0, 400, 800, 450),
		},
		Text: TextBands{
			Purple: band(HSV{120, 30, 120}, HSV{160, 200, 255}),
			Green:  band(HSV{35, 60, 120}, HSV{85, 255, 255}),
			Orange: band(HSV{10, 80, 140}, HSV{30, 255, 255}),
			White:  band(HSV{0, 0, 160}, HSV{180, 45, 255}),
			Yellow: band(HSV{20, 80, 160}, HSV{40, 255, 255}),
			Gray:   band(HSV{0, 0, 120}, HSV{180, 30, 200}),
			Red:    band(HSV{0, 60, 120}, HSV{10, 255, 255}),
			Red2:   band(HSV{170, 60, 120}, HSV{180, 255, 255}),
		},
		Keywords: defaultKeywords(),
		Regions: Regions{
			Minimap:     r(40, 900, 260, 130),
			Horizon:     r(300, 60, 1320, 280),
			Ceiling:     r(400, 20, 1120, 180),
			WallLeft:    r(30, 180, 200, 520),
			WallRight:   r(1690, 180, 200, 520),
			Floor:       r(350, 730, 1220, 220),
			FloorCenter: r(600, 780, 720, 150),
			WallCenter:  r(500, 200, 920, 400),
			BedArea:     r(400, 300, 1120, 450),
			Clock:       r(140, 870, 170, 65),
		},
		Bands: LocationBands{
			ELSHFloor:      band(HSV{50, 3, 150}, HSV{100, 40, 220}),
			ELSHWallOrange: band(HSV{15, 100, 80}, HSV{35, 255, 210}),
			ELSHBed:        band(HSV{85, 60, 80}, HSV{110, 255, 230}),
			ELSHClothes:    band(HSV{100, 20, 140}, HSV{125, 100, 230}),
			ELSHLamp:       band(HSV{0, 0, 230}, HSV{180, 25, 255}),

			PaletoFloor:    band(HSV{0, 0, 45}, HSV{180, 20, 90}),
			PaletoWallGray: band(HSV{0, 0, 75}, HSV{180, 20, 130}),
			PaletoWallDark: band(HSV{60, 10, 50}, HSV{130, 60, 115}),
			PaletoWallBlue: band(HSV{80, 8, 60}, HSV{120, 80, 130}),
			PaletoSky:      band(HSV{88, 12, 50}, HSV{155, 130, 200}),

			SandyFloor:      band(HSV{18, 25, 120}, HSV{42, 255, 230}),
			SandyWall:       band(HSV{20, 10, 120}, HSV{40, 60, 210}),
			SandyFloorBrown: band(HSV{20, 40, 70}, HSV{38, 130, 175}),
			SandyDoor:       band(HSV{10, 120, 15}, HSV{30, 255, 50}),
			SandyMap:        band(HSV{14, 80, 90}, HSV{32, 210, 195}),
		},
		Thresholds: LocationThresholds{
			ELSHFloor:       0.001,
			ELSHWallOrange:  0.05,
			ELSHBed:         0.002,
			ELSHLamp:        0.005,
			PaletoFloorDark: 0.15,
			PaletoWallDark:  0.15,
			PaletoSky:       0.50,
			SandyFloorSand:  0.30,
			SandyWallBeige:  0.06,
			SandyDoor:       0.10,
			SandyMap:        0.06,
			SkipOCR:         0.02,
			WeightMinimap:   4.0,
			WeightCenter:    3.0,
			DBConfidence:    0.05,
			MinDBSamples:    3,
		},
		Bodycam: Bodycam{
			TimerROI: r(68, 836, 70, 19),
			ROIs: []Rect{
				r(0, 790, 90, 70), r(0, 810, 70, 60), r(0, 830, 60, 50), r(0, 760, 130, 110), r(10, 800, 80, 70),
				r(0, 850, 80, 50), r(0, 870, 100, 40), r(0, 20, 90, 70), r(0, 40, 80, 60), r(0, 10, 110, 90),
				r(1830, 20, 90, 70), r(1820, 10, 100, 90), r(1830, 790, 90, 70), r(1820, 810, 100, 60),
			},
			ScanStrips: strips,

			RedStrict:  band(HSV{0, 100, 80}, HSV{10, 255, 255}),
			Red2Strict: band(HSV{170, 100, 80}, HSV{180, 255, 255}),
			RedDim:     band(HSV{0, 60, 50}, HSV{15, 255, 220}),
			Red2Dim:    band(HSV{165, 60, 50}, HSV{180, 255, 220}),
			RedSoft:    band(HSV{0, 40, 40}, HSV{20, 255, 255}),
			Red2Soft:   band(HSV{160, 40, 40}, HSV{180, 255, 255}),

			BGRRMin:       100,
			BGRBGMax:      95,
			BGRDominance:  1.3,
			DimRMin:       80,
			DimRMax:       220,
			DimGMax:       90,
			DimBMax:       85,
			DimDominance:  1.2,
			DimMinConfirm: 3,

			RedThreshold:     0.002,
			RedThresholdSoft: 0.003,
			MaxRedRatio:      0.25,

			BlobStrict: BlobCriteria{RMin: 140, GMax: 90, BMax: 90, Dominance: 1.5, Circularity: 0.35, AreaMin: 10, AreaMax: 800},
			BlobDim:    BlobCriteria{RMin: 90, RMax: 220, GMax: 95, BMax: 95, Dominance: 1.2, Circularity: 0.30, AreaMin: 10, AreaMax: 800},
			BlobSoft:   BlobCriteria{RMin: 70, GMax: 110, BMax: 110, Dominance: 1.1, Circularity: 0.25, AreaMin: 8, AreaMax: 1000},
			BlobMaxX:   400,

			WarmHueMax:      25,
			WarmHueMin2:     170,
			WarmSatMin:      40,
			WarmValMin:      40,
			WarmStrongRatio: 0.3,
			WarmStrongRDom:  0.3,
			WarmWeakRatio:   0.15,
			WarmWeakRDom:    0.15,
			WarmCorners: []Rect{
				r(0, 780, 100, 80), r(0, 800, 80, 70), r(0, 830, 70, 60), r(0, 10, 100, 80),
				r(0, 20, 80, 70), r(1820, 780, 100, 80), r(1820, 10, 100, 80),
			},

			TintSatMin:        25,
			TintCornerRatio:   0.4,
			TintCornersNeeded: 3,
			VignetteValMax:    100,
			TintCenter:        r(600, 300, 720, 480),
			TintCorners: []Rect{
				r(0, 780, 120, 100), r(0, 840, 80, 60), r(0, 10, 120, 100),
				r(0, 30, 80, 70), r(1800, 10, 120, 100), r(1800, 780, 120, 100),
			},
		},
		Hospitals: []MinimapKeyword{
			{Location: "ELSH", Words: []string{"alta", "pillbox", "strawberry", "textile", "mission", "chamberlain",
				"integrity", "rockford", "davis", "vespucci", "vinewood"}},
			{Location: "Sandy Shores", Words: []string{"sandy", "shores", "desert", "grand", "senora", "harmony"}},
			{Location: "Paleto Bay", Words: []string{"paleto", "bay", "procopio", "blaine", "grapeseed"}},
		},
		NightStart: 22,
		NightEnd:   12,
	}
}

// IsNight reports whether an hour falls inside the night window. The window
// wraps midnight: hours >= NightStart or < NightEnd.
func (c *Config) IsNight(hour int) bool {
	return hour >= c.NightStart || hour < c.NightEnd
}
