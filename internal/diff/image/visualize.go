package image

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/disintegration/gift"
	"golang.org/x/xerrors"
)

// DefaultExposure is the exposure boost, in stops, applied to the raw difference.
const DefaultExposure = 4.0

// MaskVisualizer renders differences as an amplified difference image laid
// over a flat background, weighted by the luminance of that difference.
type MaskVisualizer struct {
	exposure float64
}

func NewMaskVisualizer(exposure float64) *MaskVisualizer {
	return &MaskVisualizer{
		exposure,
	}
}

func (m *MaskVisualizer) Visualize(first image.Image, second image.Image, background color.Color) (*image.RGBA, error) {
	if !Comparable(first, second) {
		return nil, ErrDimensionMismatch
	}
	if first.Bounds().Empty() {
		return nil, ErrEmptyExtent
	}

	difference, err := m.difference(toRGBA(first), toRGBA(second))
	if err != nil {
		return nil, xerrors.Errorf("failed to blend difference: %w", err)
	}

	amplified, err := m.amplify(difference)
	if err != nil {
		return nil, xerrors.Errorf("failed to adjust exposure: %w", err)
	}

	fill, err := m.fill(amplified.Rect, background)
	if err != nil {
		return nil, xerrors.Errorf("failed to fill background: %w", err)
	}

	mask, err := m.mask(amplified)
	if err != nil {
		return nil, xerrors.Errorf("failed to build luminance mask: %w", err)
	}

	composite, err := m.composite(fill, amplified, mask)
	if err != nil {
		return nil, xerrors.Errorf("failed to blend with mask: %w", err)
	}

	return composite, nil
}

// difference is a difference blend: |a-b| on the colour channels and
// source-over on alpha, so the result is opaque wherever either input is.
func (m *MaskVisualizer) difference(first *image.RGBA, second *image.RGBA) (*image.RGBA, error) {
	width := first.Rect.Dx()
	height := first.Rect.Dy()
	if width != second.Rect.Dx() || height != second.Rect.Dy() {
		return nil, ErrDimensionMismatch
	}

	diff := image.NewRGBA(image.Rect(0, 0, width, height))

	forEachRowBand(height, func(startY int, endY int) {
		for y := startY; y < endY; y++ {
			firstRow := first.PixOffset(0, y)
			secondRow := second.PixOffset(0, y)
			diffRow := diff.PixOffset(0, y)

			for x := 0; x < width*4; x += 4 {
				f := first.Pix[firstRow+x : firstRow+x+4 : firstRow+x+4]
				s := second.Pix[secondRow+x : secondRow+x+4 : secondRow+x+4]
				d := diff.Pix[diffRow+x : diffRow+x+4 : diffRow+x+4]

				d[0] = absDiff(f[0], s[0])
				d[1] = absDiff(f[1], s[1])
				d[2] = absDiff(f[2], s[2])
				d[3] = uint8(int(f[3]) + int(s[3]) - (int(f[3])*int(s[3])+127)/255)
			}
		}
	})

	return diff, nil
}

func (m *MaskVisualizer) amplify(difference *image.RGBA) (*image.RGBA, error) {
	gain := float32(math.Exp2(m.exposure))

	g := gift.New(gift.ColorFunc(func(r0, g0, b0, a0 float32) (float32, float32, float32, float32) {
		return clamp01(r0 * gain), clamp01(g0 * gain), clamp01(b0 * gain), a0
	}))

	bounds := g.Bounds(difference.Rect)
	if !bounds.Eq(difference.Rect) {
		return nil, ErrStageOutput
	}

	amplified := image.NewRGBA(bounds)
	g.Draw(amplified, difference)
	return amplified, nil
}

func (m *MaskVisualizer) fill(bounds image.Rectangle, background color.Color) (*image.RGBA, error) {
	if background == nil {
		return nil, xerrors.New("background color is nil")
	}
	if bounds.Empty() {
		return nil, ErrEmptyExtent
	}

	opaque := color.NRGBAModel.Convert(background).(color.NRGBA)
	opaque.A = 255

	fill := image.NewRGBA(bounds)
	draw.Draw(fill, bounds, &image.Uniform{C: opaque}, image.Point{}, draw.Src)
	return fill, nil
}

func (m *MaskVisualizer) mask(amplified *image.RGBA) (*image.Gray, error) {
	g := gift.New(gift.Grayscale())

	bounds := g.Bounds(amplified.Rect)
	if !bounds.Eq(amplified.Rect) {
		return nil, ErrStageOutput
	}

	gray := image.NewRGBA(bounds)
	g.Draw(gray, amplified)

	// The grayscale output carries identical R, G and B, so the red channel
	// is the mask value.
	mask := image.NewGray(bounds)
	for y := 0; y < bounds.Dy(); y++ {
		grayRow := gray.PixOffset(0, y)
		maskRow := mask.PixOffset(0, y)
		for x := 0; x < bounds.Dx(); x++ {
			mask.Pix[maskRow+x] = gray.Pix[grayRow+x*4]
		}
	}
	return mask, nil
}

// composite linearly interpolates from background to foreground by mask/255.
func (m *MaskVisualizer) composite(background *image.RGBA, foreground *image.RGBA, mask *image.Gray) (*image.RGBA, error) {
	bounds := background.Rect
	if !bounds.Eq(foreground.Rect) || !bounds.Eq(mask.Rect) {
		return nil, ErrStageOutput
	}

	result := image.NewRGBA(bounds)

	forEachRowBand(bounds.Dy(), func(startY int, endY int) {
		for y := startY; y < endY; y++ {
			backgroundRow := background.PixOffset(0, y)
			foregroundRow := foreground.PixOffset(0, y)
			resultRow := result.PixOffset(0, y)
			maskRow := mask.PixOffset(0, y)

			for x := 0; x < bounds.Dx(); x++ {
				weight := int(mask.Pix[maskRow+x])
				for c := 0; c < 4; c++ {
					b := int(background.Pix[backgroundRow+x*4+c])
					f := int(foreground.Pix[foregroundRow+x*4+c])
					result.Pix[resultRow+x*4+c] = uint8((b*(255-weight) + f*weight + 127) / 255)
				}
			}
		}
	})

	return result, nil
}

func absDiff(a uint8, b uint8) uint8 {
	if a > b {
		return a - b
	}
	return b - a
}

func clamp01(v float32) float32 {
	if v < 0 {
		return 0
	} else if v > 1 {
		return 1
	}
	return v
}
