package location

import (
	"shot-sorter/internal/config"
	"shot-sorter/internal/diag"
	"shot-sorter/internal/features"
)

// Signal strengths above which the bed or lamp colors settle the scene as ELSH.
const (
	elshBedsStrong = 0.100
	elshLampStrong = 0.050
)

// RuleScore is the outcome of the color rules. Winner is Unknown when no
// score reaches 0.003.
type RuleScore struct {
	ELSH, Sandy, Paleto float64
	Winner              Location
	Confidence          float64
}

// ScoreRules scores each hospital from the feature vector. Raw evidence is
// accumulated per hospital, then a strong bed or lamp signal suppresses
// Paleto and Sandy, while Paleto or Sandy floors otherwise suppress ELSH.
func ScoreRules(cfg *config.Config, vec features.Vector, tr *diag.Trace) RuleScore {
	th := cfg.Thresholds
	f := vec.Get

	beds := f(features.ELSHBeds)
	lamp := f(features.ELSHLamp)
	clothes := f(features.ELSHClothes)
	elshFloor := f(features.ELSHFloor)
	wallOrange := f(features.ELSHWallOrange)

	pFloor := f(features.PaletoFloor)
	pWallDark := f(features.PaletoWallDark)
	pWallBlue := f(features.PaletoWallBlue)

	sFloor := f(features.SandyFloor)
	sWall := f(features.SandyWall)
	sFloorBrown := f(features.SandyFloorBrown)
	sDoor := f(features.SandyDoor)
	sMap := f(features.SandyMinimap)

	floorH, floorS, floorV := f("floor_h"), f("floor_s"), f("floor_v")
	centerS := f("center_s")

	elsh := 0.0
	if beds >= 0.002 {
		elsh += beds * 8
		tr.Addf("  [E] beds=%.4f +%.4f", beds, beds*8)
	}
	if lamp >= 0.005 {
		elsh += lamp*10 + 0.3
		tr.Addf("  [E] lamp=%.4f +%.4f", lamp, lamp*10+0.3)
	}
	if clothes >= 0.001 {
		elsh += clothes * 6
		tr.Addf("  [E] clothes=%.4f +%.4f", clothes, clothes*6)
	}
	if elshFloor >= 0.001 {
		elsh += elshFloor * 3
	}
	if wallOrange >= 0.05 && sFloor < 0.20 {
		elsh += wallOrange * 3
		if wallOrange >= 0.10 {
			elsh += 0.2
		}
	}
	if floorH >= 40 && floorH <= 110 && floorV >= 90 {
		elsh += 0.06
	}
	if centerS >= 30 {
		elsh += centerS / 1000
	}

	paleto := 0.0
	if pFloor >= 0.04 {
		paleto += pFloor * 10
		tr.Addf("  [P] floor=%.4f +%.4f", pFloor, pFloor*10)
	}
	if pWallDark >= 0.03 && pFloor >= 0.03 {
		paleto += pWallDark * 9
		tr.Addf("  [P] wall_dark=%.4f +%.4f", pWallDark, pWallDark*9)
	}
	if pWallBlue >= 0.02 && pFloor >= 0.03 {
		paleto += pWallBlue * 4
		tr.Addf("  [P] wall_blue=%.4f +%.4f", pWallBlue, pWallBlue*4)
	}
	if floorH >= 55 && floorH <= 110 && floorV <= 115 && pFloor >= 0.03 {
		paleto += 0.15
		tr.Addf("  [P] dark floor H=%.0f V=%.0f +0.15", floorH, floorV)
	}

	sandy := 0.0
	if sFloor >= 0.03 {
		sandy += sFloor * 10
		tr.Addf("  [S] floor=%.4f +%.4f", sFloor, sFloor*10)
	}
	if sDoor >= 0.01 {
		sandy += sDoor * 12
		tr.Addf("  [S] door=%.4f +%.4f", sDoor, sDoor*12)
	}
	if floorS >= 45 {
		sandy += 0.30
		tr.Addf("  [S] saturated floor S=%.0f +0.30", floorS)
	}
	if floorH >= 18 && floorH <= 48 && floorS >= 45 {
		sandy += 0.20
		tr.Addf("  [S] warm floor H=%.0f S=%.0f +0.20", floorH, floorS)
	}
	if sFloorBrown >= 0.015 {
		sandy += sFloorBrown * 3
	}
	if sMap >= th.SandyMap {
		sandy += sMap * th.WeightMinimap
	}
	if sWall >= th.SandyWallBeige && pFloor < 0.05 && beds < 0.002 {
		sandy += sWall * 0.5
	}

	var e, s, p float64
	strong := (beds >= elshBedsStrong || lamp >= elshLampStrong) && sFloor < 0.03 && sDoor < 0.01
	if strong {
		e, p, s = elsh, paleto*0.05, sandy*0.05
		tr.Addf("  [rules] ELSH dominates (beds=%.4f lamp=%.4f)", beds, lamp)
	} else {
		e = elsh
		if pFloor >= 0.04 {
			e = elsh * 0.1
			tr.Addf("  [rules] Paleto suppresses ELSH (floor=%.4f)", pFloor)
		}
		if sFloor >= 0.03 {
			e = elsh * 0.2
			tr.Addf("  [rules] Sandy suppresses ELSH (floor=%.4f)", sFloor)
		}
		p, s = paleto, sandy
	}
	if e > 0 && e < 0.02 {
		e = 0.02
	}

	rs := RuleScore{
		ELSH:   min(e, 1),
		Sandy:  max(s, 0),
		Paleto: max(p, 0),
	}
	tr.Addf("  [scores] E=%.4f S=%.4f P=%.4f", rs.ELSH, rs.Sandy, rs.Paleto)

	scores := []float64{rs.ELSH, rs.Sandy, rs.Paleto}
	best, second := 0, -1
	for i := 1; i < len(scores); i++ {
		if scores[i] > scores[best] {
			best = i
		}
	}
	for i := range scores {
		if i != best && (second < 0 || scores[i] > scores[second]) {
			second = i
		}
	}
	if scores[best] >= 0.003 {
		rs.Winner = Known[best]
		rs.Confidence = scores[best] - scores[second]
	}
	tr.Addf("  [rules] -> %s (confidence=%.4f)", rs.Winner.Key(), rs.Confidence)
	return rs
}
