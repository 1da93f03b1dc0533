package bodycam

import (
	"shot-sorter/internal/image"

	"gocv.io/x/gocv"
)

// pixels returns the interleaved BGR bytes of a continuous 3-channel Mat.
func pixels(m gocv.Mat) []byte {
	if m.Empty() || m.Channels() != 3 {
		return nil
	}
	return m.ToBytes()
}

// tenths converts a dominance factor for the integer comparison
// r*10 > g*int(d*10).
func tenths(d float64) int {
	return int(d * 10)
}

func countStrictBGR(px []byte, rMin, bgMax int, dom float64) int {
	ds := tenths(dom)
	n := 0
	for i := 0; i+2 < len(px); i += 3 {
		b, g, r := int(px[i]), int(px[i+1]), int(px[i+2])
		if r >= rMin && g <= bgMax && b <= bgMax && r*10 > g*ds && r*10 > b*ds {
			n++
		}
	}
	return n
}

func countDimBGR(px []byte, rMin, rMax, gMax, bMax int, dom float64) int {
	ds := tenths(dom)
	n := 0
	for i := 0; i+2 < len(px); i += 3 {
		b, g, r := int(px[i]), int(px[i+1]), int(px[i+2])
		if r >= rMin && r <= rMax && g <= gMax && b <= bMax && r*10 > g*ds && r*10 > b*ds {
			n++
		}
	}
	return n
}

// redDominance is the share of pixels noticeably redder than green and blue.
func redDominance(px []byte) float64 {
	total := len(px) / 3
	if total == 0 {
		return 0
	}
	n := 0
	for i := 0; i+2 < len(px); i += 3 {
		b, g, r := float64(px[i]), float64(px[i+1]), float64(px[i+2])
		if r > g*1.1 && r > b*1.1 && r > 50 {
			n++
		}
	}
	return float64(n) / float64(total)
}

// reddish counts pixels passing the loose precheck rule.
func reddish(px []byte) float64 {
	total := len(px) / 3
	if total == 0 {
		return 0
	}
	n := 0
	for i := 0; i+2 < len(px); i += 3 {
		b, g, r := float64(px[i]), float64(px[i+1]), float64(px[i+2])
		if r > 35 && r > g*1.05 && r > b*1.05 {
			n++
		}
	}
	return float64(n) / float64(total)
}

func meanBGR(m gocv.Mat) (b, g, r float64) {
	mean, _ := image.MeanStd(m)
	if len(mean) < 3 {
		return 0, 0, 0
	}
	return mean[0], mean[1], mean[2]
}
