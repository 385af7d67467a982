package main

import (
	"context"
	"flag"
	"image-compare/internal/config"
	diffimage "image-compare/internal/diff/image"
	"image-compare/internal/preferences"
	"image-compare/internal/runnable"
	"image-compare/internal/storage"
	"log"
	"os"
	"os/signal"
)

func main() {
	if err := config.LoadDotEnv(); err != nil {
		log.Fatalf("Failed to load .env: %v", err)
	}

	var backend string
	var directory string
	var bucket string
	var exposure float64
	var debug bool
	flag.StringVar(&backend, "storage-backend", config.EnvOrDefault("STORAGE_BACKEND", "file"), "Storage backend (file or s3)")
	flag.StringVar(&directory, "directory", config.EnvOrDefault("DIRECTORY", "/tmp"), "Storage directory for the file backend")
	flag.StringVar(&bucket, "s3-bucket", config.EnvOrDefault("S3_BUCKET", ""), "Bucket for the s3 backend")
	flag.Float64Var(&exposure, "exposure", config.EnvOrDefault("EXPOSURE", diffimage.DefaultExposure), "Exposure adjustment in EV applied to the raw difference")
	flag.BoolVar(&debug, "debug", config.EnvOrDefault("DEBUG", false), "Log as text and serve /debug/pprof")
	flag.Parse()

	runnable.Debug = debug

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	s, err := storage.New(ctx, storage.Config{
		Backend:   backend,
		Directory: directory,
		Bucket:    bucket,
	})
	if err != nil {
		log.Fatalf("Failed to create storage backend: %v", err)
	}

	comparator := &diffimage.Comparator{
		Scanner:    diffimage.NewPixelScanner(),
		Visualizer: diffimage.NewMaskVisualizer(exposure),
	}

	server := runnable.NewServer(preferences.NewStore(s), comparator)
	if err := server.Start(ctx); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
