package routes

import (
	"encoding/json"
	"image-compare/internal/myhttp"
	"image-compare/internal/preferences"
	"io"
	"net/http"

	"github.com/lucasb-eyer/go-colorful"
)

type BackgroundResponse struct {
	Red   float64 `json:"red"`
	Green float64 `json:"green"`
	Blue  float64 `json:"blue"`
	Hex   string  `json:"hex"`
}

type BackgroundRequest struct {
	Color string `json:"color"`
}

func GetBackground(store *preferences.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := store.Background(r.Context())
		if err != nil {
			myhttp.Logger(r.Context()).Error("failed to read background", "error", err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}

		writeBackground(w, r, c)
	}
}

func PutBackground(store *preferences.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := myhttp.Logger(r.Context())

		body, err := io.ReadAll(io.LimitReader(r.Body, 1<<10))
		if err != nil {
			logger.Info("failed to read request body", "error", err)
			http.Error(w, "Failed to read request body", http.StatusBadRequest)
			return
		}

		var request BackgroundRequest
		if err := json.Unmarshal(body, &request); err != nil {
			http.Error(w, "Invalid JSON format", http.StatusBadRequest)
			return
		}

		c, err := preferences.ParseColor(request.Color)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		if err := store.SetBackground(r.Context(), c); err != nil {
			logger.Error("failed to store background", "error", err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		logger.Info("background updated", "color", c.Hex())

		writeBackground(w, r, c)
	}
}

func writeBackground(w http.ResponseWriter, r *http.Request, c colorful.Color) {
	b, err := json.Marshal(BackgroundResponse{
		Red:   c.R,
		Green: c.G,
		Blue:  c.B,
		Hex:   c.Hex(),
	})
	if err != nil {
		myhttp.Logger(r.Context()).Error("failed to marshal json", "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(b)
}
