package session

import (
	"errors"
	"image"
	diffimage "image-compare/internal/diff/image"
	"image/color"
	"math"

	"github.com/go-logr/logr"
	"github.com/nfnt/resize"
	"golang.org/x/xerrors"
)

const (
	maxDisplayWidth  = 600
	maxDisplayHeight = 800
)

var (
	ErrMissingImage = xerrors.New("both images must be loaded to compare them")
	ErrSizeMismatch = xerrors.New("The images must be the same size to compare them.")
	ErrNoDiff       = xerrors.New("no diff image available")
	ErrInvalidSlot  = xerrors.New("slot must be 1 or 2")
)

type Slot int

const (
	First Slot = iota + 1
	Second
)

// State is owned by a single goroutine.
type State struct {
	Log        logr.Logger
	Comparator *diffimage.Comparator

	images      [2]image.Image
	sources     [2]string
	background  color.Color
	result      *diffimage.Result
	diff        *image.RGBA
	displaySize image.Point
}

func NewState(log logr.Logger, background color.Color) *State {
	return &State{
		Log:        log,
		Comparator: diffimage.NewComparator(),
		background: background,
	}
}

func (s *State) index(slot Slot) (int, error) {
	if slot != First && slot != Second {
		return 0, ErrInvalidSlot
	}
	return int(slot) - 1, nil
}

func (s *State) Load(slot Slot, source string, img image.Image) error {
	i, err := s.index(slot)
	if err != nil {
		return err
	}

	s.images[i] = img
	s.sources[i] = source
	s.diff = nil
	s.updateDisplaySize(img)

	s.Log.V(1).Info("Loaded image", "slot", slot, "source", source, "bounds", img.Bounds().String())
	return nil
}

func (s *State) Clear(slot Slot) error {
	i, err := s.index(slot)
	if err != nil {
		return err
	}

	s.images[i] = nil
	s.sources[i] = ""
	s.diff = nil
	if s.images[0] == nil && s.images[1] == nil {
		s.displaySize = image.Point{}
	}

	s.Log.V(1).Info("Cleared image", "slot", slot)
	return nil
}

func (s *State) SetBackground(c color.Color) {
	s.background = c
	s.diff = nil
}

func (s *State) Background() color.Color {
	return s.background
}

func (s *State) Compare() (*diffimage.Comparison, error) {
	if s.images[0] == nil || s.images[1] == nil {
		return nil, ErrMissingImage
	}

	comparison, err := s.Comparator.Compare(s.images[0], s.images[1], s.background)
	if err != nil {
		if errors.Is(err, diffimage.ErrDimensionMismatch) {
			s.Log.Info("Refused to compare", "first", s.images[0].Bounds().Size().String(), "second", s.images[1].Bounds().Size().String())
			return nil, ErrSizeMismatch
		}
		return nil, xerrors.Errorf("failed to compare images: %w", err)
	}

	result := comparison.Result
	s.result = &result
	s.diff = comparison.Diff
	if comparison.DiffErr != nil {
		s.Log.Error(comparison.DiffErr, "Failed to render diff image")
	}

	return comparison, nil
}

// Diff returns the current diff image or nil.
func (s *State) Diff() *image.RGBA {
	return s.diff
}

// Preview scales the diff to the shared display size.
func (s *State) Preview() (image.Image, error) {
	if s.diff == nil {
		return nil, ErrNoDiff
	}
	if s.displaySize.Eq(image.Point{}) || s.displaySize.Eq(s.diff.Rect.Size()) {
		return s.diff, nil
	}
	return resize.Resize(uint(s.displaySize.X), uint(s.displaySize.Y), s.diff, resize.Bilinear), nil
}

func (s *State) updateDisplaySize(img image.Image) {
	if img == nil || !s.displaySize.Eq(image.Point{}) {
		return
	}
	s.displaySize = fitDisplaySize(img.Bounds().Size())
}

func fitDisplaySize(size image.Point) image.Point {
	if size.X <= 0 || size.Y <= 0 {
		return image.Point{}
	}

	width := float64(size.X)
	height := float64(size.Y)
	aspectRatio := width / height

	if width > maxDisplayWidth {
		width = maxDisplayWidth
		height = width / aspectRatio
	}
	if height > maxDisplayHeight {
		height = maxDisplayHeight
		width = height * aspectRatio
	}

	return image.Pt(int(math.Max(1, math.Round(width))), int(math.Max(1, math.Round(height))))
}
