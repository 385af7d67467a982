package preferences

import (
	"context"
	"encoding/json"
	"errors"
	"image-compare/internal/storage"
	"strconv"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/xerrors"
)

const backgroundKey = "preferences/background-color.json"

// DefaultBackground is used until a background has been stored.
var DefaultBackground = colorful.Color{R: 0, G: 0, B: 0}

type backgroundDocument struct {
	Red   float64 `json:"red"`
	Green float64 `json:"green"`
	Blue  float64 `json:"blue"`
}

// Store persists user preferences as small JSON documents in a storage backend.
type Store struct {
	storage storage.Storage
}

func NewStore(s storage.Storage) *Store {
	return &Store{
		storage: s,
	}
}

func (s *Store) Background(ctx context.Context) (colorful.Color, error) {
	data, err := s.storage.Get(ctx, s.storage.URL(backgroundKey))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return DefaultBackground, nil
		}
		return DefaultBackground, xerrors.Errorf("failed to read background color: %w", err)
	}

	var document backgroundDocument
	if err := json.Unmarshal(data, &document); err != nil {
		return DefaultBackground, xerrors.Errorf("failed to decode background color: %w", err)
	}

	return colorful.Color{R: document.Red, G: document.Green, B: document.Blue}.Clamped(), nil
}

func (s *Store) SetBackground(ctx context.Context, c colorful.Color) error {
	c = c.Clamped()

	data, err := json.Marshal(backgroundDocument{
		Red:   c.R,
		Green: c.G,
		Blue:  c.B,
	})
	if err != nil {
		return xerrors.Errorf("failed to encode background color: %w", err)
	}

	if _, err := s.storage.Put(ctx, backgroundKey, data); err != nil {
		return xerrors.Errorf("failed to store background color: %w", err)
	}
	return nil
}

// ParseColor accepts "#rrggbb", "#rgb" or "r,g,b" with 0-255 channels.
func ParseColor(s string) (colorful.Color, error) {
	s = strings.TrimSpace(s)

	if strings.Contains(s, ",") {
		parts := strings.Split(s, ",")
		if len(parts) != 3 {
			return colorful.Color{}, xerrors.Errorf("invalid color %q: want three channels", s)
		}

		var channels [3]float64
		for i, part := range parts {
			v, err := strconv.ParseUint(strings.TrimSpace(part), 10, 8)
			if err != nil {
				return colorful.Color{}, xerrors.Errorf("invalid color %q: %w", s, err)
			}
			channels[i] = float64(v) / 255.0
		}
		return colorful.Color{R: channels[0], G: channels[1], B: channels[2]}, nil
	}

	if !strings.HasPrefix(s, "#") {
		s = "#" + s
	}
	if len(s) == 4 {
		s = string([]byte{'#', s[1], s[1], s[2], s[2], s[3], s[3]})
	}

	c, err := colorful.Hex(s)
	if err != nil {
		return colorful.Color{}, xerrors.Errorf("invalid color %q: %w", s, err)
	}
	return c, nil
}
