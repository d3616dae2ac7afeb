package rescache

import (
	"context"
	"fmt"
	"image"
	"image/draw"
	_ "image/gif"  // register decoders
	_ "image/jpeg" // register decoders
	_ "image/png"  // register decoders
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	_ "golang.org/x/image/bmp"  // register decoders
	_ "golang.org/x/image/tiff" // register decoders
	_ "golang.org/x/image/webp" // register decoders
	"golang.org/x/sync/singleflight"
)

const bytesPerMB = 1 << 20

// Fetcher opens the raw bytes behind a resolved URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (io.ReadCloser, error)
}

// HTTPFetcher fetches over HTTP(S).
type HTTPFetcher struct {
	Client *http.Client // nil = http.DefaultClient
}

// Fetch issues a GET and fails on any non-200 status.
func (f HTTPFetcher) Fetch(ctx context.Context, url string) (io.ReadCloser, error) {
	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("GET %s: %s", url, resp.Status)
	}
	return resp.Body, nil
}

// FileFetcher reads keys as paths relative to Root. A "file://" prefix is stripped.
type FileFetcher struct {
	Root string
}

// Fetch opens the file named by url.
func (f FileFetcher) Fetch(ctx context.Context, url string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path := strings.TrimPrefix(url, "file://")
	if f.Root != "" && !filepath.IsAbs(path) {
		path = filepath.Join(f.Root, path)
	}
	return os.Open(path)
}

// Decoder turns fetched bytes into a GPU handle and its size estimate in MB.
type Decoder func(r io.Reader) (Resource, float64, error)

// TextureImage is a decoded RGBA8 image ready for upload.
type TextureImage struct {
	ID     string
	Width  int
	Height int
	Pix    []uint8

	disposed bool
}

// Dispose releases the texel buffer.
func (t *TextureImage) Dispose() error {
	if t.disposed {
		return ErrAlreadyDisposed
	}
	t.disposed = true
	t.Pix = nil
	return nil
}

// Disposed reports whether Dispose has run.
func (t *TextureImage) Disposed() bool { return t.disposed }

// ModelBlob is an undecoded model payload (glTF/GLB bytes).
type ModelBlob struct {
	ID   string
	Data []byte

	disposed bool
}

// Dispose releases the payload.
func (m *ModelBlob) Dispose() error {
	if m.disposed {
		return ErrAlreadyDisposed
	}
	m.disposed = true
	m.Data = nil
	return nil
}

// Disposed reports whether Dispose has run.
func (m *ModelBlob) Disposed() bool { return m.disposed }

// DecodeTexture decodes png/jpeg/gif/bmp/tiff/webp into RGBA8. The size
// estimate includes a full mip chain (4/3 of the base level).
func DecodeTexture(r io.Reader) (Resource, float64, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, 0, err
	}
	bounds := img.Bounds()
	rgba, ok := img.(*image.RGBA)
	if !ok {
		rgba = image.NewRGBA(bounds)
		draw.Draw(rgba, bounds, img, bounds.Min, draw.Src)
	}
	tex := &TextureImage{
		ID:     uuid.NewString(),
		Width:  bounds.Dx(),
		Height: bounds.Dy(),
		Pix:    rgba.Pix,
	}
	sizeMB := float64(len(rgba.Pix)) * 4 / 3 / bytesPerMB
	return tex, sizeMB, nil
}

// DecodeModel keeps the model payload as-is.
func DecodeModel(r io.Reader) (Resource, float64, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, 0, err
	}
	return &ModelBlob{ID: uuid.NewString(), Data: data}, float64(len(data)) / bytesPerMB, nil
}

// ResourceLoadError reports a fetch or decode failure. It is handed back to
// the caller and never reaches the cache.
type ResourceLoadError struct {
	Key string
	Err error
}

func (e *ResourceLoadError) Error() string {
	return fmt.Sprintf("load %s: %v", e.Key, e.Err)
}

func (e *ResourceLoadError) Unwrap() error { return e.Err }

// Load is a finished fetch+decode.
type Load struct {
	Key      string
	Kind     Kind
	Resource Resource
	SizeMB   float64
	Err      error // *ResourceLoadError on failure
}

// Loader fetches and decodes resources off the frame goroutine. Concurrent
// requests for the same key share one fetch. Finished loads queue on
// Completed until the frame goroutine drains them into the cache.
type Loader struct {
	fetcher   Fetcher
	decoders  [numKinds]Decoder
	group     singleflight.Group
	completed chan Load
}

// NewLoader creates a loader with the stock texture and model decoders.
// buffer is the number of finished loads that may wait for Drain before
// loader goroutines block.
func NewLoader(fetcher Fetcher, buffer int) *Loader {
	if buffer < 1 {
		buffer = 16
	}
	l := &Loader{
		fetcher:   fetcher,
		completed: make(chan Load, buffer),
	}
	l.decoders[Texture] = DecodeTexture
	l.decoders[Model] = DecodeModel
	return l
}

// SetDecoder overrides the decoder for kind.
func (l *Loader) SetDecoder(kind Kind, d Decoder) {
	l.decoders[kind] = d
}

// Request starts loading key as kind in the background and returns
// immediately. If a load for the same key and kind is already in flight the
// request joins it, and the fetch keeps running under the first caller's ctx.
// The returned channel yields the shared result; callers may ignore it.
func (l *Loader) Request(ctx context.Context, key string, kind Kind) <-chan singleflight.Result {
	return l.group.DoChan(flightKey(key, kind), func() (any, error) {
		load := l.load(ctx, key, kind)
		l.completed <- load
		return load, load.Err
	})
}

func flightKey(key string, kind Kind) string {
	return kind.String() + "\x00" + key
}

// Completed yields finished loads in completion order.
func (l *Loader) Completed() <-chan Load {
	return l.completed
}

// Drain moves every finished load into c without blocking and returns the
// number inserted plus the failures. Must run on the frame goroutine.
func (l *Loader) Drain(c *ResourceCache) (int, []Load) {
	inserted := 0
	var failed []Load
	for {
		select {
		case ld := <-l.completed:
			if ld.Err != nil {
				logrus.WithField("key", ld.Key).WithError(ld.Err).Warn("resource load failed")
				failed = append(failed, ld)
				continue
			}
			c.Put(ld.Key, ld.Resource, ld.Kind, ld.SizeMB)
			inserted++
		default:
			return inserted, failed
		}
	}
}

func (l *Loader) load(ctx context.Context, key string, kind Kind) Load {
	ld := Load{Key: key, Kind: kind}
	fail := func(err error) Load {
		ld.Err = &ResourceLoadError{Key: key, Err: err}
		return ld
	}
	if kind >= numKinds || l.decoders[kind] == nil {
		return fail(fmt.Errorf("no decoder for %v", kind))
	}
	rc, err := l.fetcher.Fetch(ctx, key)
	if err != nil {
		return fail(err)
	}
	defer rc.Close()
	res, size, err := l.decoders[kind](rc)
	if err != nil {
		return fail(err)
	}
	ld.Resource = res
	ld.SizeMB = size
	return ld
}
