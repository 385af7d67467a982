package image

import (
	"image"
	"image/color"
	"image/draw"

	"golang.org/x/xerrors"
)

var (
	ErrDimensionMismatch = xerrors.New("image dimensions do not match")
	ErrEmptyExtent       = xerrors.New("image has an empty extent")
	ErrStageOutput       = xerrors.New("stage produced an unexpected extent")
)

// Result is the outcome of an exact pixel comparison.
type Result struct {
	Identical       bool `json:"identical"`
	TotalPixels     int  `json:"totalPixels"`
	DifferentPixels int  `json:"differentPixels"`
}

type Scanner interface {
	Scan(first image.Image, second image.Image) (Result, error)
}

type Visualizer interface {
	Visualize(first image.Image, second image.Image, background color.Color) (*image.RGBA, error)
}

// Comparable reports whether both images are non-nil and share width and height.
func Comparable(first image.Image, second image.Image) bool {
	if first == nil || second == nil {
		return false
	}
	fb := first.Bounds()
	sb := second.Bounds()
	return fb.Dx() == sb.Dx() && fb.Dy() == sb.Dy()
}

// toRGBA returns img as an origin-anchored *image.RGBA. An image that is
// already in that form is returned as-is and must not be written to.
func toRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok && rgba.Rect.Min == (image.Point{}) {
		return rgba
	}

	bounds := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, bounds.Min, draw.Src)
	return rgba
}
