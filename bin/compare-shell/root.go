package main

import (
	"bufio"
	"image-compare/internal/config"
	"image-compare/internal/loader"
	"image-compare/internal/preferences"
	"image-compare/internal/session"
	"image-compare/internal/storage"
	"log/slog"
	"os"

	"github.com/go-logr/logr"
	"github.com/spf13/cobra"
	"golang.org/x/xerrors"
)

var (
	logLevel  string
	logger    *slog.Logger
	backend   string
	directory string
	bucket    string
)

var rootCmd = &cobra.Command{
	Use:   "compare-shell",
	Short: "Interactive pixel comparison of two images",
	Long: `compare-shell reads one command per line from stdin. Load two images
into slots 1 and 2, then compare them to count differing pixels and render
an amplified difference over the background color.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		var level slog.Level
		if err := level.UnmarshalText([]byte(logLevel)); err != nil {
			level = slog.LevelInfo
		}

		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
		slog.SetDefault(logger)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		s, err := storage.New(ctx, storage.Config{
			Backend:   backend,
			Directory: directory,
			Bucket:    bucket,
		})
		if err != nil {
			return xerrors.Errorf("failed to create storage backend: %w", err)
		}

		store := preferences.NewStore(s)
		background, err := store.Background(ctx)
		if err != nil {
			logger.Warn("Falling back to the default background", "error", err)
		}

		sh := &shell{
			state:       session.NewState(logr.FromSlogHandler(logger.Handler()).WithName("session"), background),
			loader:      loader.NewLoader(s),
			preferences: store,
			storage:     s,
			out:         cmd.OutOrStdout(),
			errOut:      cmd.ErrOrStderr(),
		}
		return sh.run(ctx, bufio.NewScanner(cmd.InOrStdin()))
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", config.EnvOrDefault("GO_LOG", "info"), "Log level (debug, info, warn, error)")
	rootCmd.Flags().StringVar(&backend, "storage-backend", config.EnvOrDefault("STORAGE_BACKEND", "file"), "Storage backend (file or s3)")
	rootCmd.Flags().StringVar(&directory, "directory", config.EnvOrDefault("DIRECTORY", "."), "Storage directory for the file backend")
	rootCmd.Flags().StringVar(&bucket, "s3-bucket", config.EnvOrDefault("S3_BUCKET", ""), "Bucket for the s3 backend")
}
