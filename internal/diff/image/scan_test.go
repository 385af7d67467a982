package image

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"runtime"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func createTestImage(width, height int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: c}, image.Point{}, draw.Src)
	return img
}

func withPixel(img *image.RGBA, x, y int, c color.RGBA) *image.RGBA {
	clone := image.NewRGBA(img.Rect)
	copy(clone.Pix, img.Pix)
	clone.SetRGBA(x, y, c)
	return clone
}

var opaqueBlack = color.RGBA{A: 255}

func TestPixelScanner_Scan(t *testing.T) {
	type in struct {
		first  image.Image
		second image.Image
	}

	type want struct {
		first Result
		err   error
	}

	tests := []struct {
		name string
		in   in
		want want
	}{
		{
			func() string {
				_, _, line, _ := runtime.Caller(1)
				return fmt.Sprintf("L%d", line)
			}(),
			in{
				createTestImage(100, 100, color.White),
				createTestImage(100, 100, color.White),
			},
			want{
				Result{Identical: true, TotalPixels: 10000, DifferentPixels: 0},
				nil,
			},
		},
		{
			func() string {
				_, _, line, _ := runtime.Caller(1)
				return fmt.Sprintf("L%d", line)
			}(),
			in{
				createTestImage(100, 100, color.White),
				createTestImage(100, 100, color.Black),
			},
			want{
				Result{Identical: false, TotalPixels: 10000, DifferentPixels: 10000},
				nil,
			},
		},
		{
			func() string {
				_, _, line, _ := runtime.Caller(1)
				return fmt.Sprintf("L%d", line)
			}(),
			in{
				createTestImage(2, 2, opaqueBlack),
				withPixel(createTestImage(2, 2, opaqueBlack), 0, 0, color.RGBA{R: 255, A: 255}),
			},
			want{
				Result{Identical: false, TotalPixels: 4, DifferentPixels: 1},
				nil,
			},
		},
		{
			func() string {
				_, _, line, _ := runtime.Caller(1)
				return fmt.Sprintf("L%d", line)
			}(),
			in{
				createTestImage(7, 13, opaqueBlack),
				withPixel(createTestImage(7, 13, opaqueBlack), 6, 12, color.RGBA{A: 254}),
			},
			want{
				Result{Identical: false, TotalPixels: 91, DifferentPixels: 1},
				nil,
			},
		},
		{
			func() string {
				_, _, line, _ := runtime.Caller(1)
				return fmt.Sprintf("L%d", line)
			}(),
			in{
				createTestImage(100, 50, color.White),
				createTestImage(100, 60, color.White),
			},
			want{
				Result{},
				ErrDimensionMismatch,
			},
		},
		{
			func() string {
				_, _, line, _ := runtime.Caller(1)
				return fmt.Sprintf("L%d", line)
			}(),
			in{
				createTestImage(10, 10, color.White),
				nil,
			},
			want{
				Result{},
				ErrDimensionMismatch,
			},
		},
		{
			func() string {
				_, _, line, _ := runtime.Caller(1)
				return fmt.Sprintf("L%d", line)
			}(),
			in{
				createTestImage(0, 0, color.White),
				createTestImage(0, 0, color.Black),
			},
			want{
				Result{Identical: true, TotalPixels: 0, DifferentPixels: 0},
				nil,
			},
		},
		{
			func() string {
				_, _, line, _ := runtime.Caller(1)
				return fmt.Sprintf("L%d", line)
			}(),
			in{
				createTestImage(20, 20, color.White).SubImage(image.Rect(5, 5, 15, 15)),
				createTestImage(10, 10, color.White),
			},
			want{
				Result{Identical: true, TotalPixels: 100, DifferentPixels: 0},
				nil,
			},
		},
		{
			func() string {
				_, _, line, _ := runtime.Caller(1)
				return fmt.Sprintf("L%d", line)
			}(),
			in{
				func() image.Image {
					img := image.NewNRGBA(image.Rect(0, 0, 3, 3))
					draw.Draw(img, img.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)
					return img
				}(),
				createTestImage(3, 3, color.White),
			},
			want{
				Result{Identical: true, TotalPixels: 9, DifferentPixels: 0},
				nil,
			},
		},
	}
	for _, tt := range tests {
		name := tt.name
		in := tt.in
		want := tt.want
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			got, err := NewPixelScanner().Scan(in.first, in.second)
			if !errors.Is(err, want.err) {
				t.Errorf("want error %v, got %v", want.err, err)
			}
			if diff := cmp.Diff(want.first, got); diff != "" {
				t.Errorf("(-want +got):\n%s", diff)
			}
		})
	}
}

func TestPixelScanner_Properties(t *testing.T) {
	scanner := NewPixelScanner()

	base := createTestImage(64, 48, color.RGBA{R: 10, G: 20, B: 30, A: 255})
	other := createTestImage(64, 48, color.RGBA{R: 10, G: 20, B: 30, A: 255})
	for y := 0; y < 48; y += 3 {
		for x := 0; x < 64; x += 5 {
			other.SetRGBA(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 30, A: 255})
		}
	}

	t.Run("Reflexive", func(t *testing.T) {
		got, err := scanner.Scan(base, base)
		if err != nil {
			t.Fatal(err)
		}
		if !got.Identical || got.DifferentPixels != 0 {
			t.Errorf("Expected identical result, got %+v", got)
		}
	})

	t.Run("Symmetric", func(t *testing.T) {
		forward, err := scanner.Scan(base, other)
		if err != nil {
			t.Fatal(err)
		}
		backward, err := scanner.Scan(other, base)
		if err != nil {
			t.Fatal(err)
		}
		if diff := cmp.Diff(forward, backward); diff != "" {
			t.Errorf("(-forward +backward):\n%s", diff)
		}
	})

	t.Run("Bounded", func(t *testing.T) {
		got, err := scanner.Scan(base, other)
		if err != nil {
			t.Fatal(err)
		}
		if got.TotalPixels != 64*48 {
			t.Errorf("Expected TotalPixels to be %d, got %d", 64*48, got.TotalPixels)
		}
		if got.DifferentPixels > got.TotalPixels {
			t.Errorf("DifferentPixels %d exceeds TotalPixels %d", got.DifferentPixels, got.TotalPixels)
		}
		if got.Identical != (got.DifferentPixels == 0) {
			t.Errorf("Identical %v disagrees with DifferentPixels %d", got.Identical, got.DifferentPixels)
		}
	})
}

func BenchmarkPixelScanner_Scan_Small(b *testing.B) {
	scanner := NewPixelScanner()
	img1 := createTestImage(1920, 1080, color.White)
	img2 := createTestImage(1920, 1080, color.White)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = scanner.Scan(img1, img2)
	}
}

func BenchmarkPixelScanner_Scan_Large(b *testing.B) {
	scanner := NewPixelScanner()
	img1 := createTestImage(3840, 2160, color.White)
	img2 := createTestImage(3840, 2160, color.Black)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = scanner.Scan(img1, img2)
	}
}
