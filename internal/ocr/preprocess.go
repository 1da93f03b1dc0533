package ocr

import (
	"image"

	"gocv.io/x/gocv"
)

// ToGray returns a single-channel copy of img.
func ToGray(img gocv.Mat) gocv.Mat {
	gray := gocv.NewMat()
	if img.Channels() == 1 {
		img.CopyTo(&gray)
		return gray
	}
	gocv.CvtColor(img, &gray, gocv.ColorBGRToGray)
	return gray
}

// ToBGR converts a single-channel image to 3 channels.
func ToBGR(gray gocv.Mat) gocv.Mat {
	bgr := gocv.NewMat()
	gocv.CvtColor(gray, &bgr, gocv.ColorGrayToBGR)
	return bgr
}

// Scale resizes img by a uniform factor.
func Scale(img gocv.Mat, factor float64, interp gocv.InterpolationFlags) gocv.Mat {
	out := gocv.NewMat()
	gocv.Resize(img, &out, image.Point{}, factor, factor, interp)
	return out
}

// Otsu binarizes a gray image; inverse selects THRESH_BINARY_INV.
func Otsu(gray gocv.Mat, inverse bool) gocv.Mat {
	out := gocv.NewMat()
	typ := gocv.ThresholdBinary
	if inverse {
		typ = gocv.ThresholdBinaryInv
	}
	gocv.Threshold(gray, &out, 0, 255, typ|gocv.ThresholdOtsu)
	return out
}

// Invert returns the bitwise complement.
func Invert(img gocv.Mat) gocv.Mat {
	out := gocv.NewMat()
	gocv.BitwiseNot(img, &out)
	return out
}

// Equalize applies CLAHE with clip limit 3 over an 8x8 grid.
func Equalize(gray gocv.Mat) gocv.Mat {
	clahe := gocv.NewCLAHEWithParams(3.0, image.Pt(8, 8))
	defer clahe.Close()
	out := gocv.NewMat()
	clahe.Apply(gray, &out)
	return out
}

// BinaryPair upscales a gray crop and returns its Otsu binarization followed
// by the inverted binarization, both as BGR. Used for clocks and timers.
// The caller closes both Mats.
func BinaryPair(gray gocv.Mat, factor float64, equalize bool) []gocv.Mat {
	big := Scale(gray, factor, gocv.InterpolationLinear)
	defer big.Close()
	src := big
	if equalize {
		src = Equalize(big)
		defer src.Close()
	}
	bin := Otsu(src, false)
	defer bin.Close()
	inv := Invert(bin)
	defer inv.Close()
	return []gocv.Mat{ToBGR(bin), ToBGR(inv)}
}

// CloseAll releases every Mat in ms.
func CloseAll(ms []gocv.Mat) {
	for i := range ms {
		ms[i].Close()
	}
}
