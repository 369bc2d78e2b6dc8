package imagerender

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	"image/jpeg"

	"github.com/gen2brain/go-fitz"
	"github.com/rs/zerolog/log"
)

// ColorMode defines the color mode for rendering
type ColorMode string

const (
	ColorRGB  ColorMode = "rgb"
	ColorGray ColorMode = "gray"
)

// Options controls thumbnail output.
type Options struct {
	DPI     int
	Quality int
	Color   ColorMode
}

// DefaultOptions renders small previews suitable for a page grid.
var DefaultOptions = Options{DPI: 48, Quality: 70, Color: ColorRGB}

// Thumbnail is an encoded JPEG preview.
type Thumbnail struct {
	Data   []byte
	Width  int
	Height int
}

// RenderThumbnail renders the first page of an in-memory PDF as JPEG.
// Split pages are single-page documents, so this is their preview.
func RenderThumbnail(pdfData []byte, opts Options) (*Thumbnail, error) {
	if opts.DPI <= 0 {
		opts.DPI = DefaultOptions.DPI
	}
	if opts.Quality <= 0 || opts.Quality > 100 {
		opts.Quality = DefaultOptions.Quality
	}

	doc, err := fitz.NewFromMemory(pdfData)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer doc.Close()

	if doc.NumPage() == 0 {
		return nil, fmt.Errorf("document has no pages")
	}

	img, err := doc.ImageDPI(0, float64(opts.DPI))
	if err != nil {
		return nil, fmt.Errorf("failed to render page: %w", err)
	}

	bounds := img.Bounds()
	var finalImg image.Image = img
	if opts.Color == ColorGray {
		grayImg := image.NewGray(bounds)
		draw.Draw(grayImg, bounds, img, image.Point{}, draw.Src)
		finalImg = grayImg
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, finalImg, &jpeg.Options{Quality: opts.Quality}); err != nil {
		return nil, fmt.Errorf("failed to encode JPEG: %w", err)
	}

	log.Debug().
		Int("width", bounds.Dx()).
		Int("height", bounds.Dy()).
		Int("jpeg_size", buf.Len()).
		Int("dpi", opts.DPI).
		Str("color", string(opts.Color)).
		Msg("rendered thumbnail")

	return &Thumbnail{Data: buf.Bytes(), Width: bounds.Dx(), Height: bounds.Dy()}, nil
}

