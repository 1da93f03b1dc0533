package bodycam

import (
	goimage "image"

	"shot-sorter/internal/config"
	"shot-sorter/internal/image"
	"shot-sorter/pkg/colorutil"

	"gocv.io/x/gocv"
)

var (
	precheckRed  = colorutil.NewRange(colorutil.HSV{0, 30, 30}, colorutil.HSV{20, 255, 255})
	precheckRed2 = colorutil.NewRange(colorutil.HSV{160, 30, 30}, colorutil.HSV{180, 255, 255})
)

// PrecheckFlag names the memoized precheck outcome on an image.Context.
const PrecheckFlag = "bodycam.precheck"

// Precheck is a cheap test for any trace of red or saturation where the
// indicator can appear. Frames smaller than 400x200 always pass. The outcome
// is memoized on ctx.
func Precheck(ctx *image.Context, bc *config.Bodycam) bool {
	return ctx.Flag(PrecheckFlag, func() bool { return precheck(ctx, bc) })
}

func precheck(ctx *image.Context, bc *config.Bodycam) bool {
	w, h := ctx.Width(), ctx.Height()
	if w < 400 || h < 200 {
		return true
	}

	lw := max(1, int(150*ctx.ScaleX()))
	th := max(1, int(110*ctx.ScaleY()))
	bh := max(1, int(150*ctx.ScaleY()))
	corners := []goimage.Rectangle{
		goimage.Rect(0, h-bh, lw, h),
		goimage.Rect(0, 0, lw, th),
		goimage.Rect(w-lw, 0, w, th),
		goimage.Rect(w-lw, h-bh, w, h),
	}
	for _, rect := range corners {
		z, ok := ctx.CropPixels(rect)
		if !ok {
			continue
		}
		if reddish(pixels(z)) > 0.0005 {
			return true
		}
		if meanSaturation(z) > 20 {
			return true
		}
	}

	if g, ok := ctx.CropGray(bc.TimerROI); ok && image.GrayStd(g) > 15 {
		return true
	}

	m := ctx.Mask(true, precheckRed, precheckRed2)
	return image.Ratio(m) > 0.0002
}

func meanSaturation(bgr gocv.Mat) float64 {
	hsv := gocv.NewMat()
	defer hsv.Close()
	gocv.CvtColor(bgr, &hsv, gocv.ColorBGRToHSV)
	mean, _ := image.MeanStd(hsv)
	if len(mean) < 2 {
		return 0
	}
	return mean[1]
}
