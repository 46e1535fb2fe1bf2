package imaging

import (
	"bytes"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"math"

	"admctl/pkg/errors"
)

// Size is a target bounding box for a derivative. The output never exceeds
// the box and always preserves the source aspect ratio.
type Size struct {
	MaxWidth  int
	MaxHeight int
}

// Derivative bounding boxes for the three raster copies produced from a
// trigger image.
var (
	ThumbSize = Size{MaxWidth: 200, MaxHeight: 200}
	GhostSize = Size{MaxWidth: 600, MaxHeight: 600}
	ARSize    = Size{MaxWidth: 1024, MaxHeight: 1024}
)

// jpegQuality is the fixed re-encode quality factor (0.8) for lossy formats.
const jpegQuality = 80

// Derived is one resized raster copy of a source image.
type Derived struct {
	Data   []byte
	Width  int
	Height int
	Format string // "jpeg", "png" or "gif", same as the source
}

// Resize decodes src, scales it to fit within size while preserving aspect
// ratio, and re-encodes it at the source format. Lossy formats are encoded
// at the fixed quality factor; lossless formats ignore it. The transformation
// is pure: no I/O, no mutation of src.
func Resize(src []byte, size Size) (*Derived, error) {
	img, format, err := image.Decode(bytes.NewReader(src))
	if err != nil {
		return nil, errors.NewDecodeError(err)
	}

	bounds := img.Bounds()
	w, h := fitWithin(bounds.Dx(), bounds.Dy(), size)
	scaled := scaleBilinear(img, w, h)

	var buf bytes.Buffer
	switch format {
	case "jpeg":
		err = jpeg.Encode(&buf, scaled, &jpeg.Options{Quality: jpegQuality})
	case "png":
		err = png.Encode(&buf, scaled)
	case "gif":
		err = gif.Encode(&buf, scaled, nil)
	default:
		// Decoded but not a format we can write back; keep the source type
		// contract strict rather than silently converting.
		err = image.ErrFormat
	}
	if err != nil {
		return nil, errors.NewEncodeError(format, err)
	}
	if buf.Len() == 0 {
		return nil, errors.NewEncodeError(format, nil)
	}

	return &Derived{Data: buf.Bytes(), Width: w, Height: h, Format: format}, nil
}

// fitWithin computes the scaled dimensions for a source of srcW x srcH inside
// the target box. Landscape-or-wider sources are bounded by height first,
// portrait or square sources by width, then the other dimension follows the
// aspect ratio. Both results are rounded to the nearest integer pixel.
func fitWithin(srcW, srcH int, size Size) (int, int) {
	aspectRatio := float64(srcW) / float64(srcH)

	var width, height float64
	if srcW > srcH {
		height = math.Min(float64(size.MaxHeight), float64(size.MaxWidth)/aspectRatio)
		width = height * aspectRatio
	} else {
		width = math.Min(float64(size.MaxWidth), float64(size.MaxHeight)*aspectRatio)
		height = width / aspectRatio
	}

	w := int(math.Round(width))
	h := int(math.Round(height))
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	return w, h
}

// scaleBilinear resamples img to dstW x dstH with bilinear interpolation.
func scaleBilinear(img image.Image, dstW, dstH int) *image.NRGBA {
	srcBounds := img.Bounds()
	srcW := srcBounds.Dx()
	srcH := srcBounds.Dy()

	dst := image.NewNRGBA(image.Rect(0, 0, dstW, dstH))

	xRatio := float64(srcW) / float64(dstW)
	yRatio := float64(srcH) / float64(dstH)

	for y := 0; y < dstH; y++ {
		srcY := (float64(y)+0.5)*yRatio - 0.5
		y0 := int(math.Floor(srcY))
		y1 := y0 + 1
		fy := srcY - float64(y0)
		y0 = clamp(y0, 0, srcH-1)
		y1 = clamp(y1, 0, srcH-1)

		for x := 0; x < dstW; x++ {
			srcX := (float64(x)+0.5)*xRatio - 0.5
			x0 := int(math.Floor(srcX))
			x1 := x0 + 1
			fx := srcX - float64(x0)
			x0 = clamp(x0, 0, srcW-1)
			x1 = clamp(x1, 0, srcW-1)

			c00 := nrgbaAt(img, srcBounds.Min.X+x0, srcBounds.Min.Y+y0)
			c10 := nrgbaAt(img, srcBounds.Min.X+x1, srcBounds.Min.Y+y0)
			c01 := nrgbaAt(img, srcBounds.Min.X+x0, srcBounds.Min.Y+y1)
			c11 := nrgbaAt(img, srcBounds.Min.X+x1, srcBounds.Min.Y+y1)

			dst.SetNRGBA(x, y, color.NRGBA{
				R: lerp2(c00.R, c10.R, c01.R, c11.R, fx, fy),
				G: lerp2(c00.G, c10.G, c01.G, c11.G, fx, fy),
				B: lerp2(c00.B, c10.B, c01.B, c11.B, fx, fy),
				A: lerp2(c00.A, c10.A, c01.A, c11.A, fx, fy),
			})
		}
	}

	return dst
}

func nrgbaAt(img image.Image, x, y int) color.NRGBA {
	return color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
}

// lerp2 interpolates the four surrounding samples of one channel.
func lerp2(c00, c10, c01, c11 uint8, fx, fy float64) uint8 {
	top := float64(c00)*(1-fx) + float64(c10)*fx
	bottom := float64(c01)*(1-fx) + float64(c11)*fx
	return uint8(math.Round(top*(1-fy) + bottom*fy))
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
