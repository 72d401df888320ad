package imageio

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

func sampleImage() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, 3, 2))
	for y := 0; y < 2; y++ {
		for x := 0; x < 3; x++ {
			img.SetRGBA(x, y, color.RGBA{R: uint8(40 * x), G: uint8(90 * y), B: 200, A: 255})
		}
	}
	return img
}

func requireSamePixels(t *testing.T, want *image.RGBA, got image.Image) {
	t.Helper()
	require.Equal(t, want.Bounds(), got.Bounds())
	for y := 0; y < want.Bounds().Dy(); y++ {
		for x := 0; x < want.Bounds().Dx(); x++ {
			r1, g1, b1, a1 := want.At(x, y).RGBA()
			r2, g2, b2, a2 := got.At(x, y).RGBA()
			require.Equal(t, [4]uint32{r1, g1, b1, a1}, [4]uint32{r2, g2, b2, a2}, "pixel %d,%d", x, y)
		}
	}
}

func TestFormatFromPath(t *testing.T) {
	tests := []struct {
		path    string
		want    Format
		wantErr bool
	}{
		{path: "a.png", want: FormatPNG},
		{path: "dir/A.PNG", want: FormatPNG},
		{path: "a.jpg", want: FormatJPEG},
		{path: "a.jpeg", want: FormatJPEG},
		{path: "a.bmp", want: FormatBMP},
		{path: "a.tif", want: FormatTIFF},
		{path: "a.tiff", want: FormatTIFF},
		{path: "a.gif", wantErr: true},
		{path: "noext", wantErr: true},
	}
	for _, tc := range tests {
		got, err := FormatFromPath(tc.path)
		if tc.wantErr {
			require.ErrorIs(t, err, ErrUnsupportedFormat, tc.path)
			continue
		}
		require.NoError(t, err, tc.path)
		require.Equal(t, tc.want, got, tc.path)
	}
}

func TestFileSinkLosslessFormats(t *testing.T) {
	dir := t.TempDir()
	img := sampleImage()
	sink := FileSink{}

	for _, name := range []string{"nested/out.png", "out.bmp", "out.tiff"} {
		path := filepath.Join(dir, name)
		require.NoError(t, sink.Save(context.Background(), img, path))

		f, err := os.Open(path)
		require.NoError(t, err)
		var decoded image.Image
		switch filepath.Ext(name) {
		case ".png":
			decoded, err = png.Decode(f)
		case ".bmp":
			decoded, err = bmp.Decode(f)
		case ".tiff":
			decoded, err = tiff.Decode(f)
		}
		require.NoError(t, f.Close())
		require.NoError(t, err, name)
		requireSamePixels(t, img, decoded)
	}
}

func TestFileSinkJPEG(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.jpg")
	require.NoError(t, FileSink{}.Save(context.Background(), sampleImage(), path))
	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Positive(t, info.Size())
}

func TestFileSinkErrors(t *testing.T) {
	dir := t.TempDir()
	sink := FileSink{}

	require.ErrorIs(t, sink.Save(context.Background(), sampleImage(), filepath.Join(dir, "out.gif")), ErrUnsupportedFormat)
	require.Error(t, sink.Save(context.Background(), sampleImage(), ""))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, sink.Save(ctx, sampleImage(), filepath.Join(dir, "out.png")), context.Canceled)
	_, err := os.Stat(filepath.Join(dir, "out.png"))
	require.True(t, os.IsNotExist(err))

	// parent is a regular file
	blocker := filepath.Join(dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))
	require.Error(t, sink.Save(context.Background(), sampleImage(), filepath.Join(blocker, "out.png")))
}

func TestEncodeUnknownFormat(t *testing.T) {
	var buf bytes.Buffer
	require.ErrorIs(t, Encode(&buf, sampleImage(), Format("webp")), ErrUnsupportedFormat)
	require.NoError(t, Encode(&buf, sampleImage(), FormatPNG))
	require.Positive(t, buf.Len())
}
