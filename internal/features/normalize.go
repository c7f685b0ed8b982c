// Package features turns image files into fixed-length pixel vectors and
// provides the weak fingerprint used to detect file changes.
package features

import (
	"bufio"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
)

// MaxPixels bounds width*height of a source image. Headers claiming more
// are rejected before any pixel buffer is allocated.
const MaxPixels = 1 << 26

// Vector is a flattened RGB image: row-major, channel fastest, one byte per
// component.
type Vector []uint8

// SupportedExtensions lists the accepted file suffixes, lower case.
var SupportedExtensions = []string{"png", "jpg", "jpeg", "tiff", "bmp", "gif"}

// SupportedExtension reports whether path ends in one of SupportedExtensions,
// ignoring case.
func SupportedExtension(path string) bool {
	lower := strings.ToLower(path)
	for _, ext := range SupportedExtensions {
		if strings.HasSuffix(lower, "."+ext) {
			return true
		}
	}
	return false
}

// Validate checks the extension and decodes only the image header, so that
// non-image files fail before a full decode is attempted.
func Validate(path string) error {
	if !SupportedExtension(path) {
		return invalid(path, ErrUnsupportedFormat, fmt.Errorf("%q", filepath.Ext(path)))
	}
	f, err := os.Open(path)
	if err != nil {
		return invalid(path, ErrUnreadable, err)
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(bufio.NewReader(f))
	if err != nil {
		return invalid(path, ErrUndecodable, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return invalid(path, ErrMalformedImage, fmt.Errorf("dimensions %dx%d", cfg.Width, cfg.Height))
	}
	if int64(cfg.Width)*int64(cfg.Height) > MaxPixels {
		return invalid(path, ErrMalformedImage, fmt.Errorf("dimensions %dx%d exceed %d pixels", cfg.Width, cfg.Height, MaxPixels))
	}
	return nil
}

// Normalize validates and decodes the image at path and flattens it onto
// canvas. Any failure is an *InvalidImageError.
func Normalize(path string, canvas Canvas) (Vector, error) {
	if err := canvas.Validate(); err != nil {
		return nil, err
	}
	if err := Validate(path); err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, invalid(path, ErrUnreadable, err)
	}
	defer f.Close()

	img, _, err := image.Decode(bufio.NewReader(f))
	if err != nil {
		return nil, invalid(path, ErrUndecodable, err)
	}
	if b := img.Bounds(); b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, invalid(path, ErrMalformedImage, fmt.Errorf("dimensions %dx%d", b.Dx(), b.Dy()))
	}
	return Flatten(img, canvas)
}

// Flatten converts img to opaque RGB, resamples it to the canvas size and
// returns the pixel components in row-major order.
func Flatten(img image.Image, canvas Canvas) (Vector, error) {
	interp, err := canvas.interpolator()
	if err != nil {
		return nil, err
	}

	src := opaqueRGB(img)
	dst := src
	if src.Bounds().Dx() != canvas.Width || src.Bounds().Dy() != canvas.Height {
		dst = image.NewNRGBA(image.Rect(0, 0, canvas.Width, canvas.Height))
		interp.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	}

	out := make(Vector, canvas.Len())
	n := 0
	for y := 0; y < canvas.Height; y++ {
		for x := 0; x < canvas.Width; x++ {
			i := dst.PixOffset(x, y)
			out[n] = dst.Pix[i]
			out[n+1] = dst.Pix[i+1]
			out[n+2] = dst.Pix[i+2]
			n += 3
		}
	}
	return out, nil
}

// opaqueRGB copies img into a zero-origin NRGBA with every alpha forced to
// 0xff. Colour channels keep their non-premultiplied values, grey is
// replicated across channels.
func opaqueRGB(img image.Image) *image.NRGBA {
	b := img.Bounds()
	out := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			i := out.PixOffset(x-b.Min.X, y-b.Min.Y)
			out.Pix[i], out.Pix[i+1], out.Pix[i+2] = straightRGB(img.At(x, y))
			out.Pix[i+3] = 0xff
		}
	}
	return out
}

// straightRGB returns the stored colour of c without alpha. Non-premultiplied
// colours are read directly; the generic conversion would first multiply by
// alpha and turn transparent pixels black.
func straightRGB(c color.Color) (r, g, b uint8) {
	switch c := c.(type) {
	case color.NRGBA:
		return c.R, c.G, c.B
	case color.NRGBA64:
		return uint8(c.R >> 8), uint8(c.G >> 8), uint8(c.B >> 8)
	}
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	return n.R, n.G, n.B
}
