package image

import (
	"image"
	"runtime"
	"sync"
	"sync/atomic"
)

type PixelScanner struct{}

func NewPixelScanner() *PixelScanner {
	return &PixelScanner{}
}

// Scan counts the pixels whose RGBA bytes differ between first and second.
// Mismatched dimensions yield the zero Result together with ErrDimensionMismatch.
func (p *PixelScanner) Scan(first image.Image, second image.Image) (Result, error) {
	if !Comparable(first, second) {
		return Result{}, ErrDimensionMismatch
	}

	firstRGBA := toRGBA(first)
	secondRGBA := toRGBA(second)

	width := firstRGBA.Rect.Dx()
	height := firstRGBA.Rect.Dy()
	totalPixelCount := width * height

	var differentPixelCount int64
	forEachRowBand(height, func(startY int, endY int) {
		p.processRows(firstRGBA, secondRGBA, width, startY, endY, &differentPixelCount)
	})

	different := int(differentPixelCount)
	return Result{
		Identical:       different == 0,
		TotalPixels:     totalPixelCount,
		DifferentPixels: different,
	}, nil
}

func (p *PixelScanner) processRows(first *image.RGBA, second *image.RGBA, width int, startY int, endY int, differentCount *int64) {
	var localDifferent int64

	for y := startY; y < endY; y++ {
		firstRow := first.Pix[first.PixOffset(0, y) : first.PixOffset(0, y)+width*4]
		secondRow := second.Pix[second.PixOffset(0, y) : second.PixOffset(0, y)+width*4]

		for offset := 0; offset < len(firstRow); offset += 4 {
			if firstRow[offset] != secondRow[offset] ||
				firstRow[offset+1] != secondRow[offset+1] ||
				firstRow[offset+2] != secondRow[offset+2] ||
				firstRow[offset+3] != secondRow[offset+3] {
				localDifferent++
			}
		}
	}

	atomic.AddInt64(differentCount, localDifferent)
}

// forEachRowBand splits [0, height) into one contiguous band per worker and
// waits for fn to finish on all of them.
func forEachRowBand(height int, fn func(startY int, endY int)) {
	// Use GOMAXPROCS instead of runtime.NumCPU() to consider cgroup.
	// https://tip.golang.org/doc/go1.25#container-aware-gomaxprocs
	numWorkers := runtime.GOMAXPROCS(0)
	if numWorkers > height {
		numWorkers = max(height, 1)
	}

	rowsPerWorker := height / numWorkers

	var wg sync.WaitGroup
	wg.Add(numWorkers)

	for i := 0; i < numWorkers; i++ {
		startY := i * rowsPerWorker
		endY := startY + rowsPerWorker
		if i == numWorkers-1 {
			endY = height
		}

		go func(startY int, endY int) {
			defer wg.Done()
			fn(startY, endY)
		}(startY, endY)
	}

	wg.Wait()
}
