package location

import (
	"math"
	"sort"

	"shot-sorter/internal/features"
	"shot-sorter/internal/image"
	"shot-sorter/internal/knowledge"

	"gonum.org/v1/gonum/stat"
)

// featureWeights emphasize the band ratios that separate the hospitals.
// Unlisted features weigh 1.
var featureWeights = map[string]float64{
	features.ELSHBeds:       7,
	features.ELSHClothes:    5,
	features.ELSHFloor:      4,
	features.ELSHLamp:       10,
	features.ELSHWallOrange: 3,

	features.PaletoFloor:    9,
	features.PaletoWallDark: 8,
	features.PaletoWallBlue: 4,
	features.PaletoSky:      2,

	features.SandyFloor:      9,
	features.SandyDoor:       8,
	features.SandyWall:       3,
	features.SandyFloorBrown: 3,
	features.SandyMinimap:    5,

	"floor_h": 4,
	"floor_s": 3,
	"floor_v": 5,
}

// FeatureMatch explains one feature's contribution to a location score.
type FeatureMatch struct {
	Value      float64
	Mean       float64
	Similarity float64
	Score      float64
}

// Prediction is the outcome of the learned tier.
type Prediction struct {
	Key        string
	Location   Location
	Confidence float64
	Scores     map[string]float64
	Details    map[string]FeatureMatch
}

// PredictFromKB scores a feature vector against per-location statistics.
// Each feature's similarity is 1 - |v-mean|/range, floored at 0 and boosted
// by 1.3 (capped at 1) when v lies inside the observed range. The location
// score is the weighted mean similarity. Confidence is the margin over the
// runner-up; with a single known location there is no runner-up and the
// confidence is 0. Features absent from a location's statistics are skipped.
func PredictFromKB(ranges map[string]map[string]knowledge.Stat, vec features.Vector) Prediction {
	if len(ranges) == 0 {
		return Prediction{Key: Unknown.Key()}
	}

	locs := make([]string, 0, len(ranges))
	for loc := range ranges {
		locs = append(locs, loc)
	}
	sort.Strings(locs)

	scores := make(map[string]float64, len(locs))
	details := make(map[string]map[string]FeatureMatch, len(locs))
	keys := vec.Keys()
	for _, loc := range locs {
		st := ranges[loc]
		sims := make([]float64, 0, len(keys))
		weights := make([]float64, 0, len(keys))
		d := make(map[string]FeatureMatch)
		for _, k := range keys {
			r, ok := st[k]
			if !ok {
				continue
			}
			v := vec[k]
			w, ok := featureWeights[k]
			if !ok {
				w = 1
			}
			sim := math.Max(0, 1-math.Abs(v-r.Mean)/math.Max(r.Max-r.Min, 0.001))
			if v >= r.Min && v <= r.Max {
				sim = math.Min(1, sim*1.3)
			}
			sims = append(sims, sim)
			weights = append(weights, w)
			d[k] = FeatureMatch{
				Value:      image.Round(v, 4),
				Mean:       image.Round(r.Mean, 4),
				Similarity: image.Round(sim, 3),
				Score:      image.Round(sim*w, 3),
			}
		}
		if len(sims) > 0 {
			scores[loc] = stat.Mean(sims, weights)
		} else {
			scores[loc] = 0
		}
		details[loc] = d
	}

	best := locs[0]
	for _, loc := range locs[1:] {
		if scores[loc] > scores[best] {
			best = loc
		}
	}

	conf := 0.0
	if len(locs) > 1 {
		ordered := make([]float64, 0, len(scores))
		for _, s := range scores {
			ordered = append(ordered, s)
		}
		sort.Sort(sort.Reverse(sort.Float64Slice(ordered)))
		conf = math.Min(ordered[0]-ordered[1], 1)
	}

	return Prediction{
		Key:        best,
		Location:   FromKey(best),
		Confidence: conf,
		Scores:     scores,
		Details:    details[best],
	}
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
