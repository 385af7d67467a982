package image

import (
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestMaskVisualizer_Visualize(t *testing.T) {
	mv := NewMaskVisualizer(DefaultExposure)

	t.Run("IdenticalIsSolidBackground", func(t *testing.T) {
		img := createTestImage(31, 17, color.RGBA{R: 40, G: 90, B: 200, A: 255})
		background := color.RGBA{R: 12, G: 200, B: 99, A: 255}

		got, err := mv.Visualize(img, img, background)
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}

		want := createTestImage(31, 17, background)
		if diff := cmp.Diff(want.Pix, got.Pix); diff != "" {
			t.Errorf("(-want +got):\n%s", diff)
		}
	})

	t.Run("SinglePixelRedOnBlack", func(t *testing.T) {
		first := createTestImage(2, 2, opaqueBlack)
		second := withPixel(first, 0, 0, color.RGBA{R: 255, A: 255})

		got, err := mv.Visualize(first, second, color.White)
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if !got.Rect.Eq(image.Rect(0, 0, 2, 2)) {
			t.Fatalf("Expected 2x2 bounds, got %v", got.Rect)
		}

		tinted := got.RGBAAt(0, 0)
		if tinted.R != 255 || tinted.A != 255 {
			t.Errorf("Expected opaque full red channel at (0,0), got %+v", tinted)
		}
		if tinted.G != tinted.B || tinted.G == 255 {
			t.Errorf("Expected a red tint at (0,0), got %+v", tinted)
		}

		white := color.RGBA{R: 255, G: 255, B: 255, A: 255}
		for _, p := range []image.Point{{1, 0}, {0, 1}, {1, 1}} {
			if c := got.RGBAAt(p.X, p.Y); c != white {
				t.Errorf("Expected white at %v, got %+v", p, c)
			}
		}
	})

	t.Run("TranslucentBackgroundIsOpaque", func(t *testing.T) {
		img := createTestImage(4, 4, color.White)

		got, err := mv.Visualize(img, img, color.NRGBA{R: 255, A: 10})
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}

		want := color.RGBA{R: 255, A: 255}
		if c := got.RGBAAt(3, 3); c != want {
			t.Errorf("Expected %+v, got %+v", want, c)
		}
	})

	t.Run("OffsetBounds", func(t *testing.T) {
		first := createTestImage(10, 10, opaqueBlack).SubImage(image.Rect(2, 2, 6, 6))
		second := createTestImage(4, 4, opaqueBlack)

		got, err := mv.Visualize(first, second, color.White)
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if !got.Rect.Eq(image.Rect(0, 0, 4, 4)) {
			t.Errorf("Expected origin-anchored 4x4 bounds, got %v", got.Rect)
		}
	})

	t.Run("FaintDifferenceIsAmplified", func(t *testing.T) {
		first := createTestImage(1, 1, color.RGBA{R: 100, G: 100, B: 100, A: 255})
		second := createTestImage(1, 1, color.RGBA{R: 104, G: 104, B: 104, A: 255})

		amplified, err := mv.amplify(mustDifference(t, mv, first, second))
		if err != nil {
			t.Fatal(err)
		}
		if c := amplified.RGBAAt(0, 0); c.R != 64 || c.G != 64 || c.B != 64 {
			t.Errorf("Expected a 16x gain on a difference of 4, got %+v", c)
		}
	})

	t.Run("DimensionMismatch", func(t *testing.T) {
		got, err := mv.Visualize(createTestImage(100, 50, color.White), createTestImage(100, 60, color.White), color.White)
		if !errors.Is(err, ErrDimensionMismatch) {
			t.Errorf("Expected ErrDimensionMismatch, got %v", err)
		}
		if got != nil {
			t.Errorf("Expected no image, got %v", got.Rect)
		}
	})

	t.Run("EmptyExtent", func(t *testing.T) {
		got, err := mv.Visualize(createTestImage(0, 5, color.White), createTestImage(0, 5, color.White), color.White)
		if !errors.Is(err, ErrEmptyExtent) {
			t.Errorf("Expected ErrEmptyExtent, got %v", err)
		}
		if got != nil {
			t.Errorf("Expected no image, got %v", got.Rect)
		}
	})

	t.Run("NilBackground", func(t *testing.T) {
		img := createTestImage(2, 2, color.White)

		got, err := mv.Visualize(img, img, nil)
		if err == nil {
			t.Error("Expected an error for a nil background")
		}
		if got != nil {
			t.Errorf("Expected no image, got %v", got.Rect)
		}
	})
}

func TestMaskVisualizer_Difference(t *testing.T) {
	mv := NewMaskVisualizer(DefaultExposure)

	first := createTestImage(1, 1, color.RGBA{R: 200, G: 10, B: 0, A: 255})
	second := createTestImage(1, 1, color.RGBA{R: 50, G: 30, B: 0, A: 255})

	got := mustDifference(t, mv, first, second).RGBAAt(0, 0)
	want := color.RGBA{R: 150, G: 20, B: 0, A: 255}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}

	transparent := createTestImage(1, 1, color.Transparent)
	got = mustDifference(t, mv, transparent, transparent).RGBAAt(0, 0)
	if diff := cmp.Diff(color.RGBA{}, got); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
}

func mustDifference(t *testing.T, mv *MaskVisualizer, first *image.RGBA, second *image.RGBA) *image.RGBA {
	t.Helper()

	diff, err := mv.difference(first, second)
	if err != nil {
		t.Fatal(err)
	}
	return diff
}

func BenchmarkMaskVisualizer_Visualize(b *testing.B) {
	mv := NewMaskVisualizer(DefaultExposure)
	img1 := createTestImage(1920, 1080, color.White)
	img2 := createTestImage(1920, 1080, color.Black)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = mv.Visualize(img1, img2, color.Black)
	}
}
