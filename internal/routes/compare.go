package routes

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"image"
	diffimage "image-compare/internal/diff/image"
	"image-compare/internal/loader"
	"image-compare/internal/myhttp"
	"image-compare/internal/preferences"
	"image/color"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
	"golang.org/x/xerrors"
)

const maxUploadSize = 64 << 20

var tracer = otel.Tracer("image-compare/internal/routes")

type CompareResponse struct {
	Identical       bool   `json:"identical"`
	TotalPixels     int    `json:"totalPixels"`
	DifferentPixels int    `json:"differentPixels"`
	DiffData        string `json:"diffData,omitempty"`
	DiffError       string `json:"diffError,omitempty"`
}

func Compare(comparator *diffimage.Comparator, store *preferences.Store, comparisons metric.Int64Counter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := myhttp.Logger(r.Context())

		if err := r.ParseMultipartForm(maxUploadSize); err != nil {
			logger.Info("failed to parse multipart form", "error", err)
			http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
			return
		}

		var first, second image.Image
		eg, _ := errgroup.WithContext(r.Context())
		eg.Go(func() error {
			img, err := decodeFormFile(r.MultipartForm, "first")
			first = img
			return err
		})
		eg.Go(func() error {
			img, err := decodeFormFile(r.MultipartForm, "second")
			second = img
			return err
		})
		if err := eg.Wait(); err != nil {
			logger.Info("failed to decode upload", "error", err)
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		background, err := requestBackground(r, store)
		if err != nil {
			logger.Info("invalid background", "error", err)
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		traced := &diffimage.Comparator{
			Scanner:    tracedScanner{ctx: r.Context(), next: comparator.Scanner},
			Visualizer: tracedVisualizer{ctx: r.Context(), next: comparator.Visualizer},
		}
		comparison, err := traced.Compare(first, second, background)
		if err != nil {
			if errors.Is(err, diffimage.ErrDimensionMismatch) {
				http.Error(w, "The images must be the same size to compare them.", http.StatusUnprocessableEntity)
				return
			}
			logger.Error("failed to compare images", "error", err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}

		comparisons.Add(r.Context(), 1, metric.WithAttributes(
			attribute.Bool("identical", comparison.Identical),
		))

		response := CompareResponse{
			Identical:       comparison.Identical,
			TotalPixels:     comparison.TotalPixels,
			DifferentPixels: comparison.DifferentPixels,
		}
		if comparison.DiffErr != nil {
			logger.Warn("failed to render diff image", "error", comparison.DiffErr)
			response.DiffError = comparison.DiffErr.Error()
		} else {
			var buffer bytes.Buffer
			if err := png.Encode(&buffer, comparison.Diff); err != nil {
				logger.Error("failed to encode diff image", "error", err)
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				return
			}
			response.DiffData = base64.StdEncoding.EncodeToString(buffer.Bytes())
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(response); err != nil {
			logger.Error("failed to encode response", "error", err)
		}
	}
}

func decodeFormFile(form *multipart.Form, field string) (image.Image, error) {
	headers := form.File[field]
	if len(headers) == 0 {
		return nil, xerrors.Errorf("missing form file %q", field)
	}

	file, err := headers[0].Open()
	if err != nil {
		return nil, xerrors.Errorf("failed to open form file %q: %w", field, err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, xerrors.Errorf("failed to read form file %q: %w", field, err)
	}

	return loader.Decode(field, data)
}

func requestBackground(r *http.Request, store *preferences.Store) (color.Color, error) {
	if v := r.FormValue("background"); v != "" {
		return preferences.ParseColor(v)
	}
	return store.Background(r.Context())
}

type tracedScanner struct {
	ctx  context.Context
	next diffimage.Scanner
}

func (t tracedScanner) Scan(first image.Image, second image.Image) (diffimage.Result, error) {
	_, span := tracer.Start(t.ctx, "scan")
	defer span.End()

	result, err := t.next.Scan(first, second)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return result, err
	}
	span.SetAttributes(
		attribute.Int("pixels.total", result.TotalPixels),
		attribute.Int("pixels.different", result.DifferentPixels),
	)
	return result, nil
}

type tracedVisualizer struct {
	ctx  context.Context
	next diffimage.Visualizer
}

func (t tracedVisualizer) Visualize(first image.Image, second image.Image, background color.Color) (*image.RGBA, error) {
	_, span := tracer.Start(t.ctx, "visualize", trace.WithAttributes(
		attribute.String("bounds", first.Bounds().String()),
	))
	defer span.End()

	diff, err := t.next.Visualize(first, second, background)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
	}
	return diff, err
}
