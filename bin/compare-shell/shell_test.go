package main

import (
	"bufio"
	"bytes"
	"context"
	"image"
	"image-compare/internal/loader"
	"image-compare/internal/preferences"
	"image-compare/internal/session"
	"image-compare/internal/storage"
	"image/color"
	"image/draw"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-logr/logr"
)

func writePNG(t *testing.T, path string, width, height int, c color.Color) {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: c}, image.Point{}, draw.Src)

	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
}

func newTestShell(t *testing.T) (*shell, string, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()

	directory := t.TempDir()
	s, err := storage.NewFileStorage(context.Background(), storage.FileConfig{Directory: directory})
	if err != nil {
		t.Fatal(err)
	}

	var out, errOut bytes.Buffer
	return &shell{
		state:       session.NewState(logr.Discard(), preferences.DefaultBackground),
		loader:      loader.NewLoader(s),
		preferences: preferences.NewStore(s),
		storage:     s,
		out:         &out,
		errOut:      &errOut,
	}, directory, &out, &errOut
}

func runScript(t *testing.T, sh *shell, lines ...string) {
	t.Helper()

	script := strings.Join(lines, "\n") + "\n"
	if err := sh.run(context.Background(), bufio.NewScanner(strings.NewReader(script))); err != nil {
		t.Fatal(err)
	}
}

func TestShell(t *testing.T) {
	t.Run("CompareAndSave", func(t *testing.T) {
		sh, directory, out, errOut := newTestShell(t)
		first := filepath.Join(directory, "first.png")
		second := filepath.Join(directory, "second.png")
		writePNG(t, first, 1200, 400, color.White)
		writePNG(t, second, 1200, 400, color.Black)

		runScript(t, sh,
			"open 1 "+first,
			"open 2 "+second,
			"compare",
			"save diff.png",
			"preview preview.png",
			"status",
			"quit",
			"open 1 never-read.png",
		)

		if errOut.Len() != 0 {
			t.Fatalf("Unexpected errors: %s", errOut.String())
		}
		if !strings.Contains(out.String(), "Different Pixels: 480,000  Total Pixels: 480,000") {
			t.Errorf("Expected counts in output, got %s", out.String())
		}
		if !strings.Contains(out.String(), "Display: 600x200") {
			t.Errorf("Expected display size in output, got %s", out.String())
		}

		for name, want := range map[string]image.Point{"diff.png": image.Pt(1200, 400), "preview.png": image.Pt(600, 200)} {
			f, err := os.Open(filepath.Join(directory, name))
			if err != nil {
				t.Fatal(err)
			}
			config, err := png.DecodeConfig(f)
			f.Close()
			if err != nil {
				t.Fatal(err)
			}
			if got := image.Pt(config.Width, config.Height); got != want {
				t.Errorf("%s: expected %v, got %v", name, want, got)
			}
		}
	})

	t.Run("SizeMismatch", func(t *testing.T) {
		sh, directory, out, errOut := newTestShell(t)
		first := filepath.Join(directory, "first.png")
		second := filepath.Join(directory, "second.png")
		writePNG(t, first, 100, 50, color.White)
		writePNG(t, second, 100, 60, color.White)

		runScript(t, sh, "open 1 "+first, "open 2 "+second, "compare", "status")

		if !strings.Contains(errOut.String(), "The images must be the same size to compare them.") {
			t.Errorf("Expected size mismatch error, got %s", errOut.String())
		}
		if !strings.Contains(out.String(), "Different Pixels: ---  Total Pixels: ---") {
			t.Errorf("Expected unset counts, got %s", out.String())
		}
	})

	t.Run("Identical", func(t *testing.T) {
		sh, directory, out, _ := newTestShell(t)
		path := filepath.Join(directory, "same.png")
		writePNG(t, path, 3, 3, color.White)

		runScript(t, sh, "open 1 "+path, "open 2 "+path, "compare")

		if !strings.Contains(out.String(), "Images are Identical") {
			t.Errorf("Expected identical label, got %s", out.String())
		}
	})

	t.Run("BackgroundIsPersisted", func(t *testing.T) {
		sh, _, out, errOut := newTestShell(t)

		runScript(t, sh, "background", "background #0f0", "background 1,2")

		if !strings.Contains(out.String(), "#000000") || !strings.Contains(out.String(), "#00ff00") {
			t.Errorf("Unexpected output %s", out.String())
		}
		if errOut.Len() == 0 {
			t.Error("Expected an error for an invalid color")
		}

		got, err := sh.preferences.Background(context.Background())
		if err != nil {
			t.Fatal(err)
		}
		if got.Hex() != "#00ff00" {
			t.Errorf("Expected stored #00ff00, got %s", got.Hex())
		}
	})

	t.Run("Errors", func(t *testing.T) {
		sh, _, _, errOut := newTestShell(t)

		runScript(t, sh, "open 3 x.png", "compare", "save out.png", "bogus")

		for _, want := range []string{
			session.ErrInvalidSlot.Error(),
			session.ErrMissingImage.Error(),
			session.ErrNoDiff.Error(),
			"unknown command",
		} {
			if !strings.Contains(errOut.String(), want) {
				t.Errorf("Expected %q in %s", want, errOut.String())
			}
		}
	})
}
