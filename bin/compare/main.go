package main

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"image"
	"image-compare/internal/config"
	diffimage "image-compare/internal/diff/image"
	"image-compare/internal/loader"
	"image-compare/internal/preferences"
	"image-compare/internal/storage"
	"image/color"
	"image/png"
	"log"
	"os"
	"time"

	"golang.org/x/sync/errgroup"
)

type CompareOutput struct {
	Identical       bool   `json:"identical"`
	TotalPixels     int    `json:"totalPixels"`
	DifferentPixels int    `json:"differentPixels"`
	DiffPath        string `json:"diffPath,omitempty"`
	DiffError       string `json:"diffError,omitempty"`
}

func main() {
	if err := config.LoadDotEnv(); err != nil {
		log.Fatalf("Failed to load .env: %v", err)
	}

	var backend string
	var directory string
	var bucket string
	var background string
	var output string
	var exposure float64
	flag.StringVar(&backend, "storage-backend", config.EnvOrDefault("STORAGE_BACKEND", "file"), "Storage backend (file or s3)")
	flag.StringVar(&directory, "directory", config.EnvOrDefault("DIRECTORY", "/tmp"), "Output directory")
	flag.StringVar(&bucket, "s3-bucket", config.EnvOrDefault("S3_BUCKET", ""), "Bucket for the s3 backend")
	flag.StringVar(&background, "background", config.EnvOrDefault("BACKGROUND", ""), "Diff background color (#rrggbb, #rgb or r,g,b); defaults to the stored preference")
	flag.StringVar(&output, "output", "", "Storage key for the diff image; generated when empty")
	flag.Float64Var(&exposure, "exposure", config.EnvOrDefault("EXPOSURE", diffimage.DefaultExposure), "Exposure adjustment in EV applied to the raw difference")

	flag.Parse()

	args := flag.Args()
	if len(args) < 2 {
		log.Fatalf("first, second not specified")
	}
	firstSource := args[0]
	secondSource := args[1]

	ctx := context.Background()
	s, err := storage.New(ctx, storage.Config{
		Backend:   backend,
		Directory: directory,
		Bucket:    bucket,
	})
	if err != nil {
		log.Fatalf("Failed to create storage backend: %v", err)
	}

	var bg color.Color
	if background != "" {
		bg, err = preferences.ParseColor(background)
	} else {
		bg, err = preferences.NewStore(s).Background(ctx)
	}
	if err != nil {
		log.Fatalf("Failed to resolve background color: %v", err)
	}

	l := loader.NewLoader(s)
	var first, second image.Image
	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		img, err := l.Load(egCtx, firstSource)
		first = img
		return err
	})
	eg.Go(func() error {
		img, err := l.Load(egCtx, secondSource)
		second = img
		return err
	})
	if err := eg.Wait(); err != nil {
		log.Fatalf("Failed to load image: %v", err)
	}

	comparator := &diffimage.Comparator{
		Scanner:    diffimage.NewPixelScanner(),
		Visualizer: diffimage.NewMaskVisualizer(exposure),
	}
	comparison, err := comparator.Compare(first, second, bg)
	if err != nil {
		if errors.Is(err, diffimage.ErrDimensionMismatch) {
			log.Fatalf("The images must be the same size to compare them: %v and %v", first.Bounds().Size(), second.Bounds().Size())
		}
		log.Fatalf("Failed to compare images: %v", err)
	}

	result := CompareOutput{
		Identical:       comparison.Identical,
		TotalPixels:     comparison.TotalPixels,
		DifferentPixels: comparison.DifferentPixels,
	}

	if comparison.DiffErr != nil {
		result.DiffError = comparison.DiffErr.Error()
	} else {
		var buffer bytes.Buffer
		if err := png.Encode(&buffer, comparison.Diff); err != nil {
			log.Fatalf("Failed to encode diff image: %v", err)
		}

		key := output
		if key == "" {
			h := sha256.New()
			h.Write([]byte(firstSource + secondSource))
			hash := fmt.Sprintf("%x", h.Sum(nil))[:16]
			key = fmt.Sprintf("ImageCompare/diff/%s/%s.png", hash, time.Now().Format("20060102150405"))
		}

		result.DiffPath, err = s.Put(ctx, key, buffer.Bytes())
		if err != nil {
			log.Fatalf("Failed to save diff image: %v", err)
		}
	}

	if err := json.NewEncoder(os.Stdout).Encode(result); err != nil {
		log.Fatalf("Failed to encode result: %v", err)
	}
}
