// Package pngcodec turns raw RGB8 byte buffers into PNG files and back.
package pngcodec

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
)

// BytesPerPixel is the payload carried by one pixel (R, G, B).
const BytesPerPixel = 3

// Codec encodes and decodes 8-bit RGB images.
type Codec interface {
	// Encode writes pixels (len == width*height*3) as one image.
	// compress requests the highest compression effort.
	Encode(w io.Writer, width, height int, pixels []byte, compress bool) error
	// Decode reads one image and returns its dimensions and RGB payload.
	Decode(r io.Reader) (width int, height int, pixels []byte, err error)
}

// PNG is the Codec backed by image/png.
type PNG struct{}

var _ Codec = PNG{}

// New returns the PNG codec.
func New() Codec {
	return PNG{}
}

func (PNG) Encode(w io.Writer, width, height int, pixels []byte, compress bool) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("invalid image dimensions %dx%d", width, height)
	}
	if want := width * height * BytesPerPixel; len(pixels) != want {
		return fmt.Errorf("pixel buffer is %d bytes, want %d for %dx%d", len(pixels), want, width, height)
	}

	// Fully opaque NRGBA makes image/png emit 8-bit truecolor without alpha.
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for i, j := 0, 0; i < len(pixels); i, j = i+BytesPerPixel, j+4 {
		img.Pix[j] = pixels[i]
		img.Pix[j+1] = pixels[i+1]
		img.Pix[j+2] = pixels[i+2]
		img.Pix[j+3] = 0xff
	}

	level := png.BestSpeed
	if compress {
		level = png.BestCompression
	}
	enc := &png.Encoder{CompressionLevel: level}
	if err := enc.Encode(w, img); err != nil {
		return fmt.Errorf("failed to encode png: %w", err)
	}
	return nil
}

func (PNG) Decode(r io.Reader) (int, int, []byte, error) {
	img, err := png.Decode(r)
	if err != nil {
		return 0, 0, nil, fmt.Errorf("failed to decode png: %w", err)
	}

	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	pixels := make([]byte, 0, width*height*BytesPerPixel)

	switch m := img.(type) {
	case *image.RGBA:
		for y := 0; y < height; y++ {
			row := m.Pix[y*m.Stride : y*m.Stride+width*4]
			pixels = appendRGB(pixels, row)
		}
	case *image.NRGBA:
		for y := 0; y < height; y++ {
			row := m.Pix[y*m.Stride : y*m.Stride+width*4]
			pixels = appendRGB(pixels, row)
		}
	default:
		for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
			for x := bounds.Min.X; x < bounds.Max.X; x++ {
				c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
				pixels = append(pixels, c.R, c.G, c.B)
			}
		}
	}

	return width, height, pixels, nil
}

func appendRGB(dst, rgba []byte) []byte {
	for i := 0; i+3 < len(rgba); i += 4 {
		dst = append(dst, rgba[i], rgba[i+1], rgba[i+2])
	}
	return dst
}
