package image

import (
	"image"
	"math"
	"strings"

	"shot-sorter/pkg/colorutil"
	"shot-sorter/pkg/geometry"

	"gocv.io/x/gocv"
)

type cropKey struct {
	view string
	rect image.Rectangle
}

// Context wraps one decoded screenshot and memoizes every derived view:
// gray, HSV, quarter-size BGR and HSV, per-band masks and crops. Each view is
// computed at most once. Mats returned by a Context remain owned by it and
// are released by Close; callers must not close them.
//
// A Context is not safe for concurrent use.
type Context struct {
	src            gocv.Mat
	width, height  int
	scaleX, scaleY float64

	gray, hsv, small, hsvSmall *gocv.Mat

	masks map[string]*gocv.Mat
	crops map[cropKey]*gocv.Mat

	chatDone bool
	chatRect image.Rectangle
	chatOK   bool

	flags map[string]bool
}

// NewContext takes ownership of a BGR frame.
func NewContext(src gocv.Mat) *Context {
	c := &Context{
		src:   src,
		masks: make(map[string]*gocv.Mat),
		crops: make(map[cropKey]*gocv.Mat),
		flags: make(map[string]bool),
	}
	if !src.Empty() {
		c.width, c.height = src.Cols(), src.Rows()
	}
	c.scaleX = float64(c.width) / geometry.ReferenceWidth
	c.scaleY = float64(c.height) / geometry.ReferenceHeight
	return c
}

// Close releases the frame and all derived views.
func (c *Context) Close() {
	for _, m := range []*gocv.Mat{c.gray, c.hsv, c.small, c.hsvSmall} {
		if m != nil {
			m.Close()
		}
	}
	for _, m := range c.masks {
		m.Close()
	}
	for _, m := range c.crops {
		m.Close()
	}
	c.gray, c.hsv, c.small, c.hsvSmall = nil, nil, nil, nil
	c.masks = make(map[string]*gocv.Mat)
	c.crops = make(map[cropKey]*gocv.Mat)
	c.src.Close()
}

// Width returns the frame width in pixels.
func (c *Context) Width() int { return c.width }

// Height returns the frame height in pixels.
func (c *Context) Height() int { return c.height }

// ScaleX returns width / 1920.
func (c *Context) ScaleX() float64 { return c.scaleX }

// ScaleY returns height / 1080.
func (c *Context) ScaleY() float64 { return c.scaleY }

// Empty reports whether the frame has no pixels.
func (c *Context) Empty() bool { return c.width == 0 || c.height == 0 }

// Source returns the BGR frame.
func (c *Context) Source() gocv.Mat { return c.src }

func (c *Context) convert(slot **gocv.Mat, from gocv.Mat, code gocv.ColorConversionCode) gocv.Mat {
	if *slot == nil {
		m := gocv.NewMat()
		if !from.Empty() {
			gocv.CvtColor(from, &m, code)
		}
		*slot = &m
	}
	return **slot
}

// Gray returns the grayscale view.
func (c *Context) Gray() gocv.Mat {
	return c.convert(&c.gray, c.src, gocv.ColorBGRToGray)
}

// HSV returns the full-resolution HSV view.
func (c *Context) HSV() gocv.Mat {
	return c.convert(&c.hsv, c.src, gocv.ColorBGRToHSV)
}

// Small returns the quarter-size BGR view.
func (c *Context) Small() gocv.Mat {
	if c.small == nil {
		m := gocv.NewMat()
		w, h := c.width>>2, c.height>>2
		if w > 0 && h > 0 {
			gocv.Resize(c.src, &m, image.Pt(w, h), 0, 0, gocv.InterpolationArea)
		}
		c.small = &m
	}
	return *c.small
}

// HSVSmall returns the quarter-size HSV view.
func (c *Context) HSVSmall() gocv.Mat {
	return c.convert(&c.hsvSmall, c.Small(), gocv.ColorBGRToHSV)
}

// Bounds maps a reference rectangle to clamped pixel bounds of the full frame
// (or of the quarter-size frame when small is set).
func (c *Context) Bounds(r geometry.RectInt, small bool) (image.Rectangle, bool) {
	if small {
		sm := c.Small()
		return r.Scaled(c.scaleX*0.25, c.scaleY*0.25, sm.Cols(), sm.Rows())
	}
	return r.Scaled(c.scaleX, c.scaleY, c.width, c.height)
}

func (c *Context) crop(view string, src gocv.Mat, rect image.Rectangle) (gocv.Mat, bool) {
	key := cropKey{view: view, rect: rect}
	if m, ok := c.crops[key]; ok {
		return *m, !m.Empty()
	}
	var m gocv.Mat
	if !src.Empty() && !rect.Empty() {
		region := src.Region(rect)
		m = region.Clone()
		region.Close()
	} else {
		m = gocv.NewMat()
	}
	c.crops[key] = &m
	return m, !m.Empty()
}

func (c *Context) cropRef(view string, src gocv.Mat, r geometry.RectInt, small bool) (gocv.Mat, bool) {
	rect, ok := c.Bounds(r, small)
	if !ok {
		return c.crop(view, src, image.Rectangle{})
	}
	return c.crop(view, src, rect)
}

// Crop returns the BGR pixels of a reference rectangle.
func (c *Context) Crop(r geometry.RectInt) (gocv.Mat, bool) {
	return c.cropRef("bgr", c.src, r, false)
}

// CropGray returns the grayscale pixels of a reference rectangle.
func (c *Context) CropGray(r geometry.RectInt) (gocv.Mat, bool) {
	return c.cropRef("gray", c.Gray(), r, false)
}

// CropHSV returns the HSV pixels of a reference rectangle.
func (c *Context) CropHSV(r geometry.RectInt) (gocv.Mat, bool) {
	return c.cropRef("hsv", c.HSV(), r, false)
}

// CropHSVSmall returns the quarter-size HSV pixels of a reference rectangle.
func (c *Context) CropHSVSmall(r geometry.RectInt) (gocv.Mat, bool) {
	return c.cropRef("hsv-small", c.HSVSmall(), r, true)
}

func (c *Context) clampPixels(rect image.Rectangle) image.Rectangle {
	return rect.Intersect(image.Rect(0, 0, c.width, c.height))
}

// CropPixels returns BGR pixels of a rectangle given in frame pixels.
func (c *Context) CropPixels(rect image.Rectangle) (gocv.Mat, bool) {
	return c.crop("bgr", c.src, c.clampPixels(rect))
}

// CropGrayPixels returns grayscale pixels of a rectangle given in frame pixels.
func (c *Context) CropGrayPixels(rect image.Rectangle) (gocv.Mat, bool) {
	return c.crop("gray", c.Gray(), c.clampPixels(rect))
}

func maskKey(small bool, ranges []colorutil.Range) string {
	keys := make([]string, len(ranges))
	for i, r := range ranges {
		keys[i] = r.Key()
	}
	prefix := "full:"
	if small {
		prefix = "small:"
	}
	return prefix + strings.Join(keys, "|")
}

// Mask returns the binary mask of pixels inside any of the given bands,
// computed on the full or quarter-size HSV view.
func (c *Context) Mask(small bool, ranges ...colorutil.Range) gocv.Mat {
	key := maskKey(small, ranges)
	if m, ok := c.masks[key]; ok {
		return *m
	}

	var m gocv.Mat
	src := c.HSV()
	if small {
		src = c.HSVSmall()
	}
	switch {
	case src.Empty() || len(ranges) == 0:
		m = gocv.NewMat()
	case len(ranges) == 1:
		m = gocv.NewMat()
		lo, hi := ranges[0].Scalars()
		gocv.InRangeWithScalar(src, lo, hi, &m)
	default:
		first := c.Mask(small, ranges[0])
		m = first.Clone()
		for _, r := range ranges[1:] {
			next := c.Mask(small, r)
			gocv.BitwiseOr(m, next, &m)
		}
	}
	c.masks[key] = &m
	return m
}

// CropMask returns the band mask restricted to a reference rectangle.
func (c *Context) CropMask(r geometry.RectInt, small bool, ranges ...colorutil.Range) (gocv.Mat, bool) {
	mask := c.Mask(small, ranges...)
	return c.cropRef("mask:"+maskKey(small, ranges), mask, r, small)
}

// Ratio returns the fraction of non-zero pixels in a binary Mat.
func Ratio(mask gocv.Mat) float64 {
	total := mask.Rows() * mask.Cols()
	if total == 0 {
		return 0
	}
	return float64(gocv.CountNonZero(mask)) / float64(total)
}

// MeanStd returns per-channel mean and standard deviation.
func MeanStd(m gocv.Mat) (mean, std []float64) {
	ch := m.Channels()
	mean = make([]float64, ch)
	std = make([]float64, ch)
	if m.Empty() {
		return mean, std
	}
	mm, sm := gocv.NewMat(), gocv.NewMat()
	defer mm.Close()
	defer sm.Close()
	gocv.MeanStdDev(m, &mm, &sm)
	for i := 0; i < ch; i++ {
		mean[i] = mm.GetDoubleAt(i, 0)
		std[i] = sm.GetDoubleAt(i, 0)
	}
	return mean, std
}

// GrayStd returns the standard deviation of a single-channel Mat.
func GrayStd(m gocv.Mat) float64 {
	_, std := MeanStd(m)
	if len(std) == 0 {
		return 0
	}
	return std[0]
}

// Flag returns the memoized outcome of a named frame test, running compute
// on first use.
func (c *Context) Flag(name string, compute func() bool) bool {
	if v, ok := c.flags[name]; ok {
		return v
	}
	v := compute()
	c.flags[name] = v
	return v
}

// DetectChatArea looks for the densest text strip in the lower half of the
// frame and returns a pixel rectangle around it. The result is memoized.
func (c *Context) DetectChatArea() (image.Rectangle, bool) {
	if c.chatDone {
		return c.chatRect, c.chatOK
	}
	c.chatDone = true
	if c.Empty() {
		return image.Rectangle{}, false
	}

	stripH := max(1, int(60*c.scaleY))
	step := (stripH + 1) / 2
	floor := max(0, c.height/2)
	bestScore := 0.0
	var best image.Rectangle

	for y := c.height - stripH; y > floor; y -= step {
		for _, x := range []int{0, int(float64(c.width) * 0.1)} {
			xEnd := min(c.width, x+int(700*c.scaleX))
			strip, ok := c.CropGrayPixels(image.Rect(x, y, xEnd, y+stripH))
			if !ok {
				continue
			}
			std := GrayStd(strip)
			if std < 15 {
				continue
			}
			score := float64(countContours(strip)) * std
			if score > bestScore {
				bestScore = score
				roiY := max(0, y-stripH*3)
				roiH := min(c.height-roiY, stripH*8)
				best = image.Rect(x, roiY, xEnd, roiY+roiH)
			}
		}
	}

	if bestScore > 500 && !best.Empty() {
		c.chatRect, c.chatOK = best, true
	}
	return c.chatRect, c.chatOK
}

// countContours binarizes a gray image with Otsu and counts external contours.
func countContours(gray gocv.Mat) int {
	bin := gocv.NewMat()
	defer bin.Close()
	gocv.Threshold(gray, &bin, 0, 255, gocv.ThresholdBinary|gocv.ThresholdOtsu)
	contours := gocv.FindContours(bin, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer contours.Close()
	return contours.Size()
}

// HasTextRegion reports whether a gray image has enough contrast and at least
// minContours Otsu blobs to be worth reading.
func HasTextRegion(gray gocv.Mat, minContours int) bool {
	if gray.Empty() || GrayStd(gray) < 10 {
		return false
	}
	return countContours(gray) >= minContours
}

// Round rounds v to the given number of decimals.
func Round(v float64, decimals int) float64 {
	p := math.Pow(10, float64(decimals))
	return math.RoundToEven(v*p) / p
}
