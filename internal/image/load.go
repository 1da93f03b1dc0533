// Package image provides screenshot decoding, file identity helpers and the
// per-image analysis context.
package image

import (
	"bytes"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"gocv.io/x/gocv"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// ErrDecode is returned when file bytes cannot be decoded as an image.
var ErrDecode = errors.New("cannot decode image")

// hashPrefix is how many leading bytes identify a file's content.
const hashPrefix = 64 * 1024

// SupportedFormats returns the list of supported image formats.
func SupportedFormats() []string {
	return []string{".png", ".jpg", ".jpeg", ".bmp", ".tiff", ".tif", ".webp"}
}

// IsSupportedFormat checks if the given path has a supported image format.
func IsSupportedFormat(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, format := range SupportedFormats() {
		if ext == format {
			return true
		}
	}
	return false
}

// Load reads and decodes a screenshot into a BGR Mat. Paths are read through
// os so non-ASCII names work regardless of the OpenCV build.
func Load(path string) (gocv.Mat, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return gocv.NewMat(), fmt.Errorf("failed to read image: %w", err)
	}
	m, err := Decode(data)
	if err != nil {
		return m, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return m, nil
}

// Decode decodes encoded image bytes into a 3-channel BGR Mat. OpenCV is tried
// first; formats its build lacks fall back to the Go decoders.
func Decode(data []byte) (gocv.Mat, error) {
	if len(data) == 0 {
		return gocv.NewMat(), ErrDecode
	}
	m, err := gocv.IMDecode(data, gocv.IMReadColor)
	if err == nil && !m.Empty() {
		return m, nil
	}
	m.Close()

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return gocv.NewMat(), fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return imageToMat(img)
}

// imageToMat converts a Go image.Image to a BGR gocv.Mat.
func imageToMat(img image.Image) (gocv.Mat, error) {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width <= 0 || height <= 0 {
		return gocv.NewMat(), ErrDecode
	}

	data := make([]byte, 0, width*height*3)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			// OpenCV uses BGR format
			data = append(data, uint8(b>>8), uint8(g>>8), uint8(r>>8))
		}
	}
	m, err := gocv.NewMatFromBytes(height, width, gocv.MatTypeCV8UC3, data)
	if err != nil {
		return gocv.NewMat(), fmt.Errorf("failed to build mat: %w", err)
	}
	return m, nil
}

// ContentHash returns the hex MD5 of the first 64 KiB of the file.
func ContentHash(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	h := md5.New()
	if _, err := io.CopyN(h, f, hashPrefix); err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to hash file: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

var stemTimestamps = []*regexp.Regexp{
	regexp.MustCompile(`(\d{4})-(\d{2})-(\d{2})\s+(\d{2})(\d{2})(\d{2})`),
	regexp.MustCompile(`(\d{4})-(\d{2})-(\d{2})\s+(\d{2})-(\d{2})-(\d{2})`),
}

// FileTimestamp returns the capture time of a screenshot: parsed from the file
// stem when it carries "YYYY-MM-DD HHMMSS" or "YYYY-MM-DD HH-MM-SS" (local
// time), else the file modification time. ok is false when neither exists.
func FileTimestamp(path string) (time.Time, bool) {
	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	for _, re := range stemTimestamps {
		m := re.FindStringSubmatch(stem)
		if m == nil {
			continue
		}
		if ts, ok := parseStamp(m[1:]); ok {
			return ts, true
		}
	}

	info, err := os.Stat(path)
	if err != nil {
		return time.Time{}, false
	}
	return info.ModTime(), true
}

func parseStamp(parts []string) (time.Time, bool) {
	v := make([]int, len(parts))
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return time.Time{}, false
		}
		v[i] = n
	}
	year, month, day, hour, minute, sec := v[0], v[1], v[2], v[3], v[4], v[5]
	if month < 1 || month > 12 || day < 1 || day > 31 || hour > 23 || minute > 59 || sec > 59 {
		return time.Time{}, false
	}
	ts := time.Date(year, time.Month(month), day, hour, minute, sec, 0, time.Local)
	// time.Date normalizes overflowing days; reject those like a strict parser would.
	if ts.Day() != day {
		return time.Time{}, false
	}
	return ts, true
}
