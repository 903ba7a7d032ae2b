package tiles

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeImage saves a w×h PNG whose left half is red and right half blue.
func writeImage(t *testing.T, dir, name string, w, h int) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := color.NRGBA{R: 220, A: 255}
			if x >= w/2 {
				c = color.NRGBA{B: 220, A: 255}
			}
			img.SetNRGBA(x, y, c)
		}
	}
	require.NoError(t, imaging.Save(img, filepath.Join(dir, name)))
}

func decode(t *testing.T, b []byte) image.Image {
	t.Helper()
	img, err := jpeg.Decode(bytes.NewReader(b))
	require.NoError(t, err)
	return img
}

func TestRect(t *testing.T) {
	assert.Equal(t, image.Rect(0, 0, 100, 100), Rect(300, 200, 0))
	assert.Equal(t, image.Rect(200, 100, 300, 200), Rect(300, 200, 5))

	// remainder goes to the last column and row
	assert.Equal(t, image.Rect(66, 0, 132, 66), Rect(200, 133, 1))
	assert.Equal(t, image.Rect(132, 66, 200, 133), Rect(200, 133, 5))
}

func TestCropToGrid(t *testing.T) {
	for _, tc := range []struct {
		w, h, wantW, wantH int
	}{
		{300, 200, 300, 200},
		{200, 200, 200, 133},
		{400, 100, 150, 100},
	} {
		img := image.NewNRGBA(image.Rect(0, 0, tc.w, tc.h))
		got := CropToGrid(img).Bounds()
		assert.Equal(t, tc.wantW, got.Dx(), "%dx%d", tc.w, tc.h)
		assert.Equal(t, tc.wantH, got.Dy(), "%dx%d", tc.w, tc.h)
	}
}

func TestTileRegular(t *testing.T) {
	dir := t.TempDir()
	writeImage(t, dir, "ramen.png", 300, 200)
	s := NewService(dir, 0)

	b, err := s.Tile(context.Background(), "ramen", 0, Regular)
	require.NoError(t, err)
	img := decode(t, b)
	assert.Equal(t, 100, img.Bounds().Dx())
	assert.Equal(t, 100, img.Bounds().Dy())

	r, _, bl, _ := img.At(50, 50).RGBA()
	assert.Greater(t, r, bl, "first tile comes from the red half")

	b, err = s.Tile(context.Background(), "ramen", 5, Regular)
	require.NoError(t, err)
	r, _, bl, _ = decode(t, b).At(50, 50).RGBA()
	assert.Greater(t, bl, r, "last tile comes from the blue half")
}

func TestTileBlurredIsSmallerAndDuller(t *testing.T) {
	dir := t.TempDir()
	writeImage(t, dir, "ramen.png", 300, 200)
	s := NewService(dir, 0)
	ctx := context.Background()

	sharp, err := s.Tile(ctx, "ramen", 1, Regular)
	require.NoError(t, err)
	blurred, err := s.Tile(ctx, "ramen", 1, Blurred)
	require.NoError(t, err)
	assert.Less(t, len(blurred), len(sharp))

	img := decode(t, blurred)
	assert.Equal(t, 100, img.Bounds().Dx())
	r, _, _, _ := img.At(10, 50).RGBA()
	sr, _, _, _ := decode(t, sharp).At(10, 50).RGBA()
	assert.Less(t, r, sr)
}

func TestTileErrors(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.jpg"), []byte("not an image"), 0o644))
	s := NewService(dir, 0)
	ctx := context.Background()

	_, err := s.Tile(ctx, "ramen", 6, Regular)
	assert.ErrorIs(t, err, ErrInvalidIndex)
	_, err = s.Tile(ctx, "ramen", -1, Regular)
	assert.ErrorIs(t, err, ErrInvalidIndex)
	_, err = s.Tile(ctx, "../etc/passwd", 0, Regular)
	assert.ErrorIs(t, err, ErrInvalidDishID)
	_, err = s.Tile(ctx, "missing", 0, Regular)
	assert.ErrorIs(t, err, ErrImageNotFound)
	_, err = s.Tile(ctx, "broken", 0, Regular)
	assert.ErrorIs(t, err, ErrDecode)
}

func TestTileDownscalesWideSources(t *testing.T) {
	dir := t.TempDir()
	writeImage(t, dir, "wide.jpg", 600, 400)
	s := NewService(dir, 300)

	b, err := s.Tile(context.Background(), "wide", 2, Regular)
	require.NoError(t, err)
	assert.Equal(t, 100, decode(t, b).Bounds().Dx())
}

func TestTileCachedAndConcurrent(t *testing.T) {
	dir := t.TempDir()
	writeImage(t, dir, "pho.jpeg", 300, 200)
	s := NewService(dir, 0)
	ctx := context.Background()

	var wg sync.WaitGroup
	results := make([][]byte, Count)
	for i := 0; i < Count; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			b, err := s.Tile(ctx, "pho", i, Regular)
			assert.NoError(t, err)
			results[i] = b
		}()
	}
	wg.Wait()
	for i, b := range results {
		assert.NotEmpty(t, b, "tile %d", i)
	}

	// cached bytes survive the source disappearing
	require.NoError(t, os.Remove(filepath.Join(dir, "pho.jpeg")))
	b, err := s.Tile(ctx, "pho", 3, Regular)
	require.NoError(t, err)
	assert.Equal(t, results[3], b)

	s.Forget("pho")
	_, err = s.Tile(ctx, "pho", 3, Regular)
	assert.ErrorIs(t, err, ErrImageNotFound)
}

func TestTileRenderOutlivesFirstCaller(t *testing.T) {
	dir := t.TempDir()
	writeImage(t, dir, "ramen.png", 300, 200)
	s := NewService(dir, 0)

	var renders atomic.Int32
	var once sync.Once
	started, release := make(chan struct{}), make(chan struct{})
	s.beforeRender = func() {
		renders.Add(1)
		once.Do(func() { close(started) })
		<-release
	}

	ctx, cancel := context.WithCancel(context.Background())
	first := make(chan error, 1)
	go func() {
		_, err := s.Tile(ctx, "ramen", 0, Regular)
		first <- err
	}()
	<-started
	cancel()
	require.ErrorIs(t, <-first, context.Canceled)

	second := make(chan error, 1)
	go func() {
		b, err := s.Tile(context.Background(), "ramen", 3, Regular)
		if err == nil && len(b) == 0 {
			err = os.ErrInvalid
		}
		second <- err
	}()
	close(release)

	require.NoError(t, <-second)
	assert.Equal(t, int32(1), renders.Load())
}
