package image

import (
	"image"
	"image/color"
)

// Comparison holds a scan result and, when the visualizer succeeded, the
// rendered diff. DiffErr records why Diff is nil.
type Comparison struct {
	Result
	Diff    *image.RGBA
	DiffErr error
}

type Comparator struct {
	Scanner    Scanner
	Visualizer Visualizer
}

func NewComparator() *Comparator {
	return &Comparator{
		Scanner:    NewPixelScanner(),
		Visualizer: NewMaskVisualizer(DefaultExposure),
	}
}

// Compare rejects mismatched dimensions before running either stage. A
// visualizer failure does not invalidate the scan result.
func (c *Comparator) Compare(first image.Image, second image.Image, background color.Color) (*Comparison, error) {
	if !Comparable(first, second) {
		return nil, ErrDimensionMismatch
	}

	result, err := c.Scanner.Scan(first, second)
	if err != nil {
		return nil, err
	}

	diff, err := c.Visualizer.Visualize(first, second, background)
	return &Comparison{
		Result:  result,
		Diff:    diff,
		DiffErr: err,
	}, nil
}
