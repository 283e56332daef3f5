package locate

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"math"
	"math/rand"
	"testing"

	"gocv.io/x/gocv"
	"golang.org/x/image/draw"

	"remotehands/internal/template"
)

// matImage is a SearchImage over a plain Mat, for driving scanners directly.
type matImage struct {
	mat gocv.Mat
}

func (m matImage) Original() gocv.Mat { return m.mat }
func (m matImage) Search() gocv.Mat   { return m.mat }

// noiseTemplate builds a feature-rich template: a grid of randomly colored
// blocks. Seeded, so every run produces the same pixels.
func noiseTemplate(w, h int) *image.RGBA {
	rng := rand.New(rand.NewSource(42))
	const block = 8
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for by := 0; by < h; by += block {
		for bx := 0; bx < w; bx += block {
			c := color.RGBA{
				R: uint8(rng.Intn(256)),
				G: uint8(rng.Intn(256)),
				B: uint8(rng.Intn(256)),
				A: 255,
			}
			for y := by; y < by+block && y < h; y++ {
				for x := bx; x < bx+block && x < w; x++ {
					img.SetRGBA(x, y, c)
				}
			}
		}
	}
	return img
}

// widgetTemplate builds a low-feature template resembling a flat UI button:
// a light face, a dark border, and a pair of interior rules.
func widgetTemplate(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	face := color.RGBA{R: 210, G: 210, B: 215, A: 255}
	border := color.RGBA{R: 60, G: 60, B: 70, A: 255}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			switch {
			case x < 3 || y < 3 || x >= w-3 || y >= h-3:
				img.SetRGBA(x, y, border)
			case y == h/3 || x == w/4:
				img.SetRGBA(x, y, border)
			default:
				img.SetRGBA(x, y, face)
			}
		}
	}
	return img
}

// gradientScreenImage builds a smooth 640x480 background with no repeated
// structure, so nothing on it correlates with the test templates.
func gradientScreenImage() *image.RGBA {
	const w, h = 640, 480
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, color.RGBA{
				R: uint8(40 + 120*x/w),
				G: uint8(60 + 100*y/h),
				B: uint8(90 + 60*(x+y)/(w+h)),
				A: 255,
			})
		}
	}
	return img
}

// embedInto pastes src into dst with its top-left corner at (x, y).
func embedInto(dst *image.RGBA, src image.Image, x, y int) {
	b := src.Bounds()
	draw.Draw(dst, image.Rect(x, y, x+b.Dx(), y+b.Dy()), src, b.Min, draw.Src)
}

// scaledImage resizes src by factor with high-quality interpolation.
func scaledImage(src *image.RGBA, factor float64) *image.RGBA {
	b := src.Bounds()
	w := int(math.Round(float64(b.Dx()) * factor))
	h := int(math.Round(float64(b.Dy()) * factor))
	out := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(out, out.Bounds(), src, b, draw.Src, nil)
	return out
}

// brightened returns a copy of src with all channels shifted by delta,
// clamped to [0, 255].
func brightened(src *image.RGBA, delta int) *image.RGBA {
	b := src.Bounds()
	out := image.NewRGBA(b)
	clamp := func(v int) uint8 {
		if v < 0 {
			return 0
		}
		if v > 255 {
			return 255
		}
		return uint8(v)
	}
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := src.RGBAAt(x, y)
			out.SetRGBA(x, y, color.RGBA{
				R: clamp(int(c.R) + delta),
				G: clamp(int(c.G) + delta),
				B: clamp(int(c.B) + delta),
				A: 255,
			})
		}
	}
	return out
}

// recompressed round-trips src through JPEG at the given quality, degrading
// it with the block artifacts of a lossy template capture.
func recompressed(t *testing.T, src *image.RGBA, quality int) *image.RGBA {
	t.Helper()
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, src, &jpeg.Options{Quality: quality}); err != nil {
		t.Fatalf("encode jpeg: %v", err)
	}
	decoded, err := jpeg.Decode(&buf)
	if err != nil {
		t.Fatalf("decode jpeg: %v", err)
	}
	out := image.NewRGBA(decoded.Bounds())
	draw.Draw(out, out.Bounds(), decoded, decoded.Bounds().Min, draw.Src)
	return out
}

// imageToMat converts a Go image to a Mat and registers cleanup.
func imageToMat(t *testing.T, img image.Image) gocv.Mat {
	t.Helper()
	mat, err := gocv.ImageToMatRGB(img)
	if err != nil {
		t.Fatalf("convert image: %v", err)
	}
	t.Cleanup(func() { mat.Close() })
	return mat
}

// putTemplate converts img and hands ownership of the Mat to the store,
// which closes it.
func putTemplate(t *testing.T, store *template.Store, name string, img image.Image) {
	t.Helper()
	mat, err := gocv.ImageToMatRGB(img)
	if err != nil {
		t.Fatalf("convert template image: %v", err)
	}
	store.Put(name, mat)
}
