package trigger

import (
	goimage "image"

	"shot-sorter/internal/config"
	"shot-sorter/internal/ocr"
	"shot-sorter/pkg/colorutil"

	"gocv.io/x/gocv"
)

const (
	// maxVariants caps how many preprocessed renditions of a region are read.
	maxVariants = 2

	variantScale = 1.8
)

var (
	variantWhite  = colorutil.NewRange(colorutil.HSV{0, 0, 150}, colorutil.HSV{180, 50, 255})
	variantPurple = colorutil.NewRange(colorutil.HSV{120, 25, 110}, colorutil.HSV{165, 220, 255})
)

// variantFunc renders one OCR input from a BGR region. ok is false when the
// rendition has too little content to be worth reading.
type variantFunc func(roi gocv.Mat, text config.TextBands) (gocv.Mat, bool)

// variantOrder is the preference order of renditions.
var variantOrder = []variantFunc{
	rawVariant,
	coloredTextVariant,
	claheVariant,
	otsuVariant,
	whitePurpleVariant,
}

// Variants returns up to limit renditions of roi in preference order. The
// caller closes them.
func Variants(roi gocv.Mat, text config.TextBands, limit int) []gocv.Mat {
	out := make([]gocv.Mat, 0, limit)
	for _, f := range variantOrder {
		if len(out) >= limit {
			break
		}
		if m, ok := f(roi, text); ok {
			out = append(out, m)
		}
	}
	return out
}

func rawVariant(roi gocv.Mat, _ config.TextBands) (gocv.Mat, bool) {
	return roi.Clone(), true
}

// bandMask returns the union of band masks over an HSV image.
func bandMask(hsv gocv.Mat, bands ...config.Range) gocv.Mat {
	out := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), hsv.Rows(), hsv.Cols(), gocv.MatTypeCV8U)
	m := gocv.NewMat()
	defer m.Close()
	for _, b := range bands {
		lo, hi := b.Scalars()
		gocv.InRangeWithScalar(hsv, lo, hi, &m)
		gocv.BitwiseOr(out, m, &out)
	}
	return out
}

func toHSV(bgr gocv.Mat) gocv.Mat {
	hsv := gocv.NewMat()
	gocv.CvtColor(bgr, &hsv, gocv.ColorBGRToHSV)
	return hsv
}

// maskVariant scales a binary mask with nearest-neighbour sampling and
// returns it as BGR when it has more than minPixels set.
func maskVariant(mask gocv.Mat, minPixels int) (gocv.Mat, bool) {
	if gocv.CountNonZero(mask) <= minPixels {
		return gocv.Mat{}, false
	}
	big := ocr.Scale(mask, variantScale, gocv.InterpolationNearestNeighbor)
	defer big.Close()
	return ocr.ToBGR(big), true
}

// ColoredTextMask isolates chat text by its known colors and cleans the mask
// with a 3x1 close and a 2x2 open.
func ColoredTextMask(roi gocv.Mat, text config.TextBands) gocv.Mat {
	hsv := toHSV(roi)
	defer hsv.Close()
	mask := bandMask(hsv, text.All()...)

	closeK := gocv.GetStructuringElement(gocv.MorphRect, goimage.Pt(3, 1))
	defer closeK.Close()
	openK := gocv.GetStructuringElement(gocv.MorphRect, goimage.Pt(2, 2))
	defer openK.Close()
	gocv.MorphologyEx(mask, &mask, gocv.MorphClose, closeK)
	gocv.MorphologyEx(mask, &mask, gocv.MorphOpen, openK)
	return mask
}

func coloredTextVariant(roi gocv.Mat, text config.TextBands) (gocv.Mat, bool) {
	mask := ColoredTextMask(roi, text)
	defer mask.Close()
	return maskVariant(mask, 50)
}

func claheVariant(roi gocv.Mat, _ config.TextBands) (gocv.Mat, bool) {
	gray := ocr.ToGray(roi)
	defer gray.Close()
	eq := ocr.Equalize(gray)
	defer eq.Close()
	big := ocr.Scale(eq, variantScale, gocv.InterpolationLinear)
	defer big.Close()
	bin := ocr.Otsu(big, true)
	defer bin.Close()
	return ocr.ToBGR(bin), true
}

func otsuVariant(roi gocv.Mat, _ config.TextBands) (gocv.Mat, bool) {
	gray := ocr.ToGray(roi)
	defer gray.Close()
	big := ocr.Scale(gray, variantScale, gocv.InterpolationLinear)
	defer big.Close()
	bin := ocr.Otsu(big, false)
	defer bin.Close()
	return ocr.ToBGR(bin), true
}

func whitePurpleVariant(roi gocv.Mat, _ config.TextBands) (gocv.Mat, bool) {
	hsv := toHSV(roi)
	defer hsv.Close()
	mask := bandMask(hsv, variantWhite, variantPurple)
	defer mask.Close()
	return maskVariant(mask, 30)
}
