// Package metadata turns an uploaded binary into the immutable facts the
// ingestion pipeline persists: perceptual hash, dominant color, dimensions,
// animation flag, extension and byte size.
package metadata

import (
	"bytes"
	"fmt"
	"image"
	"image/gif"
	_ "image/jpeg"
	_ "image/png"
	"path/filepath"
	"strings"

	"github.com/nfnt/resize"
	_ "golang.org/x/image/webp"

	"artboard/internal/apperr"
	"artboard/internal/media/phash"
	"artboard/internal/media/sniffer"
)

type Metadata struct {
	PHash         uint64
	DominantColor string // #rrggbb
	Width         int
	Height        int
	SizeBytes     int64
	Extension     string // leading dot included
	Animated      bool
}

// Bounds are the configured dimension limits for accepted uploads.
type Bounds struct {
	MinWidth  int
	MinHeight int
	MaxWidth  int
	MaxHeight int
}

type Extractor struct {
	bounds Bounds
}

func NewExtractor(bounds Bounds) *Extractor {
	return &Extractor{bounds: bounds}
}

// Extract decodes data and computes the upload metadata. It fails with a
// ValidationError for undecodable content or out-of-range dimensions and
// never touches persistent state.
func (e *Extractor) Extract(data []byte, filename string) (Metadata, error) {
	if len(data) == 0 {
		return Metadata{}, apperr.Validation("file", apperr.ReasonMalformed)
	}

	head := data
	if len(head) > 512 {
		head = head[:512]
	}
	sniffed, err := sniffer.DetectHead(head)
	if err != nil {
		return Metadata{}, apperr.Validation("file", apperr.ReasonUnsupportedMedia)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return Metadata{}, apperr.Validation("file", apperr.ReasonUnsupportedMedia)
	}

	width := img.Bounds().Dx()
	height := img.Bounds().Dy()
	if width < e.bounds.MinWidth || height < e.bounds.MinHeight {
		return Metadata{}, apperr.Validation("dimensions", apperr.ReasonTooSmall)
	}
	if width > e.bounds.MaxWidth || height > e.bounds.MaxHeight {
		return Metadata{}, apperr.Validation("dimensions", apperr.ReasonTooLarge)
	}

	hash, err := phash.FromImage(img)
	if err != nil {
		return Metadata{}, apperr.Validation("file", apperr.ReasonMalformed)
	}

	animated := false
	if sniffed.Type == sniffer.TypeGIF {
		if g, err := gif.DecodeAll(bytes.NewReader(data)); err == nil {
			animated = len(g.Image) > 1
		}
	}

	return Metadata{
		PHash:         hash,
		DominantColor: dominantColor(img),
		Width:         width,
		Height:        height,
		SizeBytes:     int64(len(data)),
		Extension:     extension(filename, sniffed),
		Animated:      animated,
	}, nil
}

// dominantColor downsamples the image to a single pixel and renders it as
// an RGB hex string.
func dominantColor(img image.Image) string {
	pixel := resize.Resize(1, 1, img, resize.Bilinear)
	r, g, b, _ := pixel.At(pixel.Bounds().Min.X, pixel.Bounds().Min.Y).RGBA()
	return fmt.Sprintf("#%02x%02x%02x", uint8(r>>8), uint8(g>>8), uint8(b>>8))
}

func extension(filename string, sniffed sniffer.Result) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" || ext == "." {
		return sniffed.Extension()
	}
	if ext == ".jpeg" {
		return ".jpg"
	}
	return ext
}
