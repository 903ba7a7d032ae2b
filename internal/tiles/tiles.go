// internal/tiles/tiles.go
//
// Cuts a dish photo into the 3×2 grid of tiles the game reveals one by one.
//
// Pipeline per dish and variant:
//   1. Find <dir>/<dishId>.{png,jpg,jpeg}.
//   2. Decode, downscale wide sources to MaxWidth (nfnt/resize, Lanczos3).
//   3. Center-crop to 3:2.
//   4. Cut 3 columns × 2 rows; the last column/row absorbs the remainder.
//   5. Regular: JPEG q95. Blurred: blur, 0.8 brightness, 0.6 saturation, JPEG q40.
//
// All six tiles of a variant are rendered together (errgroup) and cached, and
// concurrent requests for the same dish share one render (singleflight) that
// does not end when the request that started it goes away.
package tiles

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"regexp"
	"sync"
	"time"

	"github.com/disintegration/imaging"
	"github.com/nfnt/resize"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// Grid shape.
const (
	Cols  = 3
	Rows  = 2
	Count = Cols * Rows
)

// Encoding settings per variant.
const (
	RegularQuality = 95
	BlurredQuality = 40
	BlurSigma      = 30
	// ×0.8 brightness and ×0.6 saturation as imaging percentages
	blurBrightness = -20 // ×0.8
	blurSaturation = -40 // ×0.6
)

// DefaultMaxWidth caps the source width before cropping.
const DefaultMaxWidth = 1800

// RenderTimeout bounds one shared render of a dish's six tiles.
const RenderTimeout = 30 * time.Second

var (
	ErrInvalidIndex  = errors.New("tile index must be 0-5")
	ErrInvalidDishID = errors.New("invalid dish id")
	ErrImageNotFound = errors.New("image not found")
	ErrDecode        = errors.New("image could not be decoded")
)

// Variant selects the regular or the blurred teaser rendering.
type Variant int

const (
	Regular Variant = iota
	Blurred
)

func (v Variant) String() string {
	if v == Blurred {
		return "blurred"
	}
	return "regular"
}

var dishIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,128}$`)

var extensions = []string{".png", ".jpg", ".jpeg"}

type cacheKey struct {
	dishID  string
	variant Variant
}

// Service renders and caches tiles for images under one directory.
type Service struct {
	dir      string
	maxWidth uint

	group singleflight.Group

	mu    sync.RWMutex
	cache map[cacheKey][][]byte

	beforeRender func() // test hook
}

// NewService serves images from dir. maxWidth 0 means DefaultMaxWidth.
func NewService(dir string, maxWidth uint) *Service {
	if maxWidth == 0 {
		maxWidth = DefaultMaxWidth
	}
	return &Service{dir: dir, maxWidth: maxWidth, cache: map[cacheKey][][]byte{}}
}

// Tile returns tile index of dishID as JPEG bytes.
func (s *Service) Tile(ctx context.Context, dishID string, index int, v Variant) ([]byte, error) {
	if index < 0 || index >= Count {
		return nil, ErrInvalidIndex
	}
	if !dishIDPattern.MatchString(dishID) {
		return nil, ErrInvalidDishID
	}

	key := cacheKey{dishID, v}
	s.mu.RLock()
	set, ok := s.cache[key]
	s.mu.RUnlock()
	if ok {
		return set[index], nil
	}

	// The shared render outlives any one caller; each caller stops waiting
	// when its own context ends.
	ch := s.group.DoChan(dishID+"/"+v.String(), func() (any, error) {
		rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), RenderTimeout)
		defer cancel()
		if s.beforeRender != nil {
			s.beforeRender()
		}
		set, err := s.render(rctx, dishID, v)
		if err != nil {
			return nil, err
		}
		s.mu.Lock()
		s.cache[key] = set
		s.mu.Unlock()
		return set, nil
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([][]byte)[index], nil
	}
}

// Forget drops cached tiles for dishID.
func (s *Service) Forget(dishID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.cache, cacheKey{dishID, Regular})
	delete(s.cache, cacheKey{dishID, Blurred})
}

func (s *Service) locate(dishID string) (string, error) {
	for _, ext := range extensions {
		p := filepath.Join(s.dir, dishID+ext)
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrImageNotFound, dishID)
}

func (s *Service) render(ctx context.Context, dishID string, v Variant) ([][]byte, error) {
	path, err := s.locate(dishID)
	if err != nil {
		return nil, err
	}
	src, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrDecode, filepath.Base(path), err)
	}
	if b := src.Bounds(); b.Dx() > int(s.maxWidth) {
		src = resize.Resize(s.maxWidth, 0, src, resize.Lanczos3)
	}
	cropped := CropToGrid(src)
	w, h := cropped.Bounds().Dx(), cropped.Bounds().Dy()

	out := make([][]byte, Count)
	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < Count; i++ {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			tile := imaging.Crop(cropped, Rect(w, h, i))
			b, err := encode(tile, v)
			if err != nil {
				return fmt.Errorf("tile %d: %w", i, err)
			}
			out[i] = b
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	log.Debug().Str("dishId", dishID).Stringer("variant", v).Int("w", w).Int("h", h).Msg("tiles rendered")
	return out, nil
}

// CropToGrid center-crops img to a 3:2 aspect ratio: wider images keep their
// height, taller ones keep their width.
func CropToGrid(img image.Image) *image.NRGBA {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w*2 > h*3 {
		w = roundDiv(h*3, 2)
	} else {
		h = roundDiv(w*2, 3)
	}
	return imaging.CropCenter(img, w, h)
}

// Rect is the rectangle of tile index within a w×h grid image. Tiles are
// row-major; the last column and row absorb any remainder.
func Rect(w, h, index int) image.Rectangle {
	col, row := index%Cols, index/Cols
	tw, th := w/Cols, h/Rows
	x0, y0 := col*tw, row*th
	x1, y1 := x0+tw, y0+th
	if col == Cols-1 {
		x1 = w
	}
	if row == Rows-1 {
		y1 = h
	}
	return image.Rect(x0, y0, x1, y1)
}

func encode(tile *image.NRGBA, v Variant) ([]byte, error) {
	q := RegularQuality
	var img image.Image = tile
	if v == Blurred {
		blurred := imaging.Blur(tile, BlurSigma)
		blurred = imaging.AdjustBrightness(blurred, blurBrightness)
		img = imaging.AdjustSaturation(blurred, blurSaturation)
		q = BlurredQuality
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(q)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func roundDiv(a, b int) int { return (a + b/2) / b }
