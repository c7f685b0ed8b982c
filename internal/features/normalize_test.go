package features

import (
	"bytes"
	"encoding/binary"
	"errors"
	"hash/crc32"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

var smallCanvas = Canvas{Width: 8, Height: 5, Filter: FilterCatmullRom}

func solid(w, h int, c color.Color) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func gradient(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.NRGBA{uint8(x * 7 % 256), uint8(y * 11 % 256), uint8((x + y) % 256), 255})
		}
	}
	return img
}

func writeImage(t *testing.T, path string, img image.Image) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	switch filepath.Ext(path) {
	case ".png", ".PNG":
		err = png.Encode(f, img)
	case ".jpg", ".jpeg":
		err = jpeg.Encode(f, img, &jpeg.Options{Quality: 90})
	case ".gif":
		err = gif.Encode(f, img, nil)
	case ".bmp":
		err = bmp.Encode(f, img)
	case ".tiff":
		err = tiff.Encode(f, img, nil)
	default:
		t.Fatalf("no encoder for %s", path)
	}
	if err != nil {
		t.Fatalf("encode %s: %v", path, err)
	}
}

func TestNormalize_AllFormatsHaveCanvasLength(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.png", "b.jpg", "c.jpeg", "d.gif", "e.bmp", "f.tiff", "g.PNG"} {
		p := filepath.Join(dir, name)
		writeImage(t, p, gradient(37, 23))

		v, err := Normalize(p, smallCanvas)
		if err != nil {
			t.Fatalf("Normalize(%s): %v", name, err)
		}
		if len(v) != smallCanvas.Len() {
			t.Fatalf("%s: got length %d, want %d", name, len(v), smallCanvas.Len())
		}
	}
}

func TestNormalize_DefaultCanvasLength(t *testing.T) {
	p := filepath.Join(t.TempDir(), "big.png")
	writeImage(t, p, gradient(100, 60))

	v, err := Normalize(p, DefaultCanvas())
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if len(v) != 3*320*240 {
		t.Fatalf("got length %d, want %d", len(v), 3*320*240)
	}
}

func TestNormalize_GrayIsReplicated(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, smallCanvas.Width, smallCanvas.Height))
	for i := range img.Pix {
		img.Pix[i] = 77
	}
	p := filepath.Join(t.TempDir(), "gray.png")
	writeImage(t, p, img)

	v, err := Normalize(p, smallCanvas)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	for i, x := range v {
		if x != 77 {
			t.Fatalf("component %d = %d, want 77", i, x)
		}
	}
}

func TestNormalize_AlphaDiscarded(t *testing.T) {
	p := filepath.Join(t.TempDir(), "clear.png")
	writeImage(t, p, solid(smallCanvas.Width, smallCanvas.Height, color.NRGBA{100, 150, 200, 0}))

	v, err := Normalize(p, smallCanvas)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if v[0] != 100 || v[1] != 150 || v[2] != 200 {
		t.Fatalf("first pixel = %v, want [100 150 200]", v[:3])
	}
}

func TestNormalize_AlphaDiscarded16Bit(t *testing.T) {
	img := image.NewNRGBA64(image.Rect(0, 0, smallCanvas.Width, smallCanvas.Height))
	for y := 0; y < smallCanvas.Height; y++ {
		for x := 0; x < smallCanvas.Width; x++ {
			a := uint16(0)
			if x == 1 {
				a = 0x8000
			}
			img.SetNRGBA64(x, y, color.NRGBA64{R: 100 << 8, G: 150 << 8, B: 200 << 8, A: a})
		}
	}
	p := filepath.Join(t.TempDir(), "clear16.png")
	writeImage(t, p, img)

	v, err := Normalize(p, smallCanvas)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if v[0] != 100 || v[1] != 150 || v[2] != 200 {
		t.Fatalf("transparent pixel = %v, want [100 150 200]", v[:3])
	}
	if v[3] != 100 || v[4] != 150 || v[5] != 200 {
		t.Fatalf("half transparent pixel = %v, want [100 150 200]", v[3:6])
	}
}

func TestValidate_RejectsOversizedHeader(t *testing.T) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, solid(1, 1, color.NRGBA{1, 2, 3, 255})); err != nil {
		t.Fatal(err)
	}
	data := buf.Bytes()
	// IHDR data starts at byte 16: width, height, then 5 bytes; CRC covers type+data.
	binary.BigEndian.PutUint32(data[16:20], 60000)
	binary.BigEndian.PutUint32(data[20:24], 60000)
	binary.BigEndian.PutUint32(data[29:33], crc32.ChecksumIEEE(data[12:29]))
	p := filepath.Join(t.TempDir(), "huge.png")
	if err := os.WriteFile(p, data, 0o644); err != nil {
		t.Fatal(err)
	}

	err := Validate(p)
	if !errors.Is(err, ErrMalformedImage) || !errors.Is(err, ErrInvalidImage) {
		t.Fatalf("Validate = %v, want ErrMalformedImage", err)
	}
	if _, err := Normalize(p, smallCanvas); !errors.Is(err, ErrMalformedImage) {
		t.Fatalf("Normalize = %v, want ErrMalformedImage", err)
	}
}

func TestNormalize_ChannelOrder(t *testing.T) {
	img := solid(smallCanvas.Width, smallCanvas.Height, color.NRGBA{0, 0, 0, 255})
	img.Set(1, 0, color.NRGBA{1, 2, 3, 255})
	p := filepath.Join(t.TempDir(), "order.png")
	writeImage(t, p, img)

	v, err := Normalize(p, smallCanvas)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if v[3] != 1 || v[4] != 2 || v[5] != 3 {
		t.Fatalf("pixel (1,0) = %v, want [1 2 3]", v[3:6])
	}
}

func TestNormalize_Deterministic(t *testing.T) {
	p := filepath.Join(t.TempDir(), "g.jpg")
	writeImage(t, p, gradient(50, 31))

	a, err := Normalize(p, smallCanvas)
	if err != nil {
		t.Fatal(err)
	}
	b, err := Normalize(p, smallCanvas)
	if err != nil {
		t.Fatal(err)
	}
	if Fingerprint(a, smallCanvas.Width) != Fingerprint(b, smallCanvas.Width) {
		t.Fatalf("fingerprints differ across runs")
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("component %d differs: %d vs %d", i, a[i], b[i])
		}
	}
}

func TestValidate_RejectsUnsupportedExtension(t *testing.T) {
	p := filepath.Join(t.TempDir(), "notes.txt")
	if err := os.WriteFile(p, []byte("hello"), 0o644); err != nil {
		t.Fatal(err)
	}
	err := Validate(p)
	if !errors.Is(err, ErrInvalidImage) || !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("expected unsupported format, got %v", err)
	}
	var ie *InvalidImageError
	if !errors.As(err, &ie) || ie.Path != p {
		t.Fatalf("expected *InvalidImageError for %s, got %#v", p, err)
	}
}

func TestValidate_RejectsGarbageWithImageExtension(t *testing.T) {
	p := filepath.Join(t.TempDir(), "fake.png")
	if err := os.WriteFile(p, []byte("definitely not a png"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := Validate(p); !errors.Is(err, ErrUndecodable) {
		t.Fatalf("expected undecodable, got %v", err)
	}
	if _, err := Normalize(p, smallCanvas); !errors.Is(err, ErrInvalidImage) {
		t.Fatalf("expected invalid image, got %v", err)
	}
}

func TestNormalize_TruncatedFileFails(t *testing.T) {
	dir := t.TempDir()
	full := filepath.Join(dir, "full.gif")
	writeImage(t, full, gradient(40, 40))
	data, err := os.ReadFile(full)
	if err != nil {
		t.Fatal(err)
	}
	cut := filepath.Join(dir, "cut.gif")
	if err := os.WriteFile(cut, data[:len(data)/2], 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Normalize(cut, smallCanvas); !errors.Is(err, ErrInvalidImage) {
		t.Fatalf("expected invalid image for truncated gif, got %v", err)
	}
}

func TestValidate_MissingFile(t *testing.T) {
	err := Validate(filepath.Join(t.TempDir(), "gone.png"))
	if !errors.Is(err, ErrUnreadable) {
		t.Fatalf("expected unreadable, got %v", err)
	}
}

func TestCanvas_Validate(t *testing.T) {
	if err := DefaultCanvas().Validate(); err != nil {
		t.Fatalf("default canvas: %v", err)
	}
	if err := (Canvas{Width: 0, Height: 10}).Validate(); err == nil {
		t.Fatalf("expected error for zero width")
	}
	if err := (Canvas{Width: 4, Height: 4, Filter: "lanczos"}).Validate(); err == nil {
		t.Fatalf("expected error for unknown filter")
	}
}

func TestSupportedExtension(t *testing.T) {
	for _, p := range []string{"a.png", "A.JPG", "x.jpeg", "y.Tiff", "z.bmp", "w.GIF"} {
		if !SupportedExtension(p) {
			t.Errorf("%s should be supported", p)
		}
	}
	for _, p := range []string{"a.webp", "png", "a.png.txt", "a.tif"} {
		if SupportedExtension(p) {
			t.Errorf("%s should not be supported", p)
		}
	}
}
