package loader

import (
	"bytes"
	"context"
	"image"
	"image-compare/internal/retry"
	"image-compare/internal/storage"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
	"golang.org/x/xerrors"
)

var ErrDecode = xerrors.New("file was not an image")

// maxRemoteSize caps the bytes read from a remote source.
const maxRemoteSize = 64 << 20

// Loader turns a source into a decoded image. A source is a local path, an
// http(s) URL or, when Storage is set, a URL understood by that storage.
type Loader struct {
	Client  *http.Client
	Storage storage.Storage
}

func NewLoader(s storage.Storage) *Loader {
	return &Loader{
		Client: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &retry.Transport{
				Base:     http.DefaultTransport,
				Strategy: retry.ExponentialBackOff(100*time.Millisecond, 2*time.Second, 3, nil),
				Policy:   retry.DefaultPolicy(),
			},
		},
		Storage: s,
	}
}

func (l *Loader) Load(ctx context.Context, source string) (image.Image, error) {
	data, err := l.read(ctx, source)
	if err != nil {
		return nil, err
	}
	return Decode(source, data)
}

// Decode decodes data with any registered format. source only labels errors.
func Decode(source string, data []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, xerrors.Errorf("%s (%v): %w", source, err, ErrDecode)
	}
	return img, nil
}

func (l *Loader) read(ctx context.Context, source string) ([]byte, error) {
	switch {
	case strings.HasPrefix(source, "http://"), strings.HasPrefix(source, "https://"):
		return l.fetch(ctx, source)
	case strings.HasPrefix(source, "s3://"):
		if l.Storage == nil {
			return nil, xerrors.Errorf("no storage configured for %s", source)
		}
		data, err := l.Storage.Get(ctx, source)
		if err != nil {
			return nil, xerrors.Errorf("failed to read %s: %w", source, err)
		}
		return data, nil
	default:
		data, err := os.ReadFile(source)
		if err != nil {
			return nil, xerrors.Errorf("failed to read %s: %w", source, err)
		}
		return data, nil
	}
}

func (l *Loader) fetch(ctx context.Context, url string) ([]byte, error) {
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, xerrors.Errorf("failed to create request: %w", err)
	}

	client := l.Client
	if client == nil {
		client = http.DefaultClient
	}

	response, err := client.Do(request)
	if err != nil {
		return nil, xerrors.Errorf("failed to fetch %s: %w", url, err)
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		return nil, xerrors.Errorf("failed to fetch %s: %s", url, response.Status)
	}

	data, err := io.ReadAll(io.LimitReader(response.Body, maxRemoteSize))
	if err != nil {
		return nil, xerrors.Errorf("failed to read %s: %w", url, err)
	}
	return data, nil
}
