package rgbimage

import (
	"bufio"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"math"
	"path/filepath"
	"strings"

	"spheretrace/vmath/vec3"
)

var ErrBadDimensions = errors.New("image dimensions must be at least 1x1")

// Image is a row-major grid of RGB pixels.  Channel values are nominally in
// [0, 255] but may stray outside it until the image is encoded.
type Image struct {
	RowSize, ColSize int
	Pixels           []vec3.T
}

func New(rowSize, colSize int) (*Image, error) {
	if rowSize < 1 || colSize < 1 {
		return nil, fmt.Errorf("%w: got %dx%d", ErrBadDimensions, rowSize, colSize)
	}
	im := &Image{}
	im.Resize(rowSize, colSize)
	return im, nil
}

func (s *Image) Resize(rowSize, colSize int) {
	s.RowSize = rowSize
	s.ColSize = colSize
	s.Pixels = make([]vec3.T, rowSize*colSize)
}

func (s *Image) Set(r, c int, v vec3.T) {
	s.Pixels[r*s.ColSize+c] = v
}

func (s *Image) At(r, c int) vec3.T {
	return s.Pixels[r*s.ColSize+c]
}

func (s *Image) Fill(v vec3.T) {
	for i := range s.Pixels {
		s.Pixels[i] = v
	}
}

// Cut copies out the rows [rowSrc, rowLim) and columns [colSrc, colLim).
func (s *Image) Cut(rowSrc, rowLim, colSrc, colLim int) *Image {
	dst := &Image{}
	dst.Resize(rowLim-rowSrc, colLim-colSrc)

	for r := rowSrc; r < rowLim; r++ {
		copy(dst.Pixels[(r-rowSrc)*dst.ColSize:(r-rowSrc+1)*dst.ColSize], s.Pixels[r*s.ColSize+colSrc:r*s.ColSize+colLim])
	}

	return dst
}

// Paste copies src into s with its top-left corner at (rowSrc, colSrc).
func (s *Image) Paste(src *Image, rowSrc, colSrc int) {
	for r := 0; r < src.RowSize; r++ {
		dstIndex := (rowSrc+r)*s.ColSize + colSrc
		copy(s.Pixels[dstIndex:dstIndex+src.ColSize], src.Pixels[r*src.ColSize:(r+1)*src.ColSize])
	}
}

// Validate checks that the image is a well-formed rectangle.
func (s *Image) Validate() error {
	if s.RowSize < 1 || s.ColSize < 1 {
		return fmt.Errorf("%w: got %dx%d", ErrBadDimensions, s.RowSize, s.ColSize)
	}
	if len(s.Pixels) != s.RowSize*s.ColSize {
		return fmt.Errorf("pixel count %d doesn't match %dx%d", len(s.Pixels), s.RowSize, s.ColSize)
	}
	return nil
}

// RGB8 rounds and clamps the pixel at (r, c) to 8-bit channels.  NaN maps
// to 0.
func (s *Image) RGB8(r, c int) [3]uint8 {
	v := s.At(r, c)
	return [3]uint8{clamp8(v[0]), clamp8(v[1]), clamp8(v[2])}
}

func clamp8(x float64) uint8 {
	x = math.Round(x)
	switch {
	case math.IsNaN(x), x <= 0:
		return 0
	case x >= 255:
		return 255
	}
	return uint8(x)
}

func (s *Image) ToNRGBA() *image.NRGBA {
	out := image.NewNRGBA(image.Rect(0, 0, s.ColSize, s.RowSize))
	for r := 0; r < s.RowSize; r++ {
		for c := 0; c < s.ColSize; c++ {
			px := s.RGB8(r, c)
			out.SetNRGBA(c, r, color.NRGBA{R: px[0], G: px[1], B: px[2], A: 255})
		}
	}
	return out
}

// WritePPM writes the image as a plain-text (P3) portable pixmap.
func WritePPM(im *Image, w io.Writer) error {
	if err := im.Validate(); err != nil {
		return fmt.Errorf("while validating image: %w", err)
	}

	bw := bufio.NewWriter(w)
	if _, err := fmt.Fprintf(bw, "P3\n%d %d\n255\n", im.ColSize, im.RowSize); err != nil {
		return fmt.Errorf("while writing header: %w", err)
	}

	for r := 0; r < im.RowSize; r++ {
		for c := 0; c < im.ColSize; c++ {
			px := im.RGB8(r, c)
			if _, err := fmt.Fprintf(bw, "%d %d %d\n", px[0], px[1], px[2]); err != nil {
				return fmt.Errorf("while writing pixel (%d, %d): %w", r, c, err)
			}
		}
	}

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("while flushing: %w", err)
	}
	return nil
}

func WritePNG(im *Image, w io.Writer) error {
	if err := im.Validate(); err != nil {
		return fmt.Errorf("while validating image: %w", err)
	}
	if err := png.Encode(w, im.ToNRGBA()); err != nil {
		return fmt.Errorf("while encoding png: %w", err)
	}
	return nil
}

type Format int

const (
	FormatPPM Format = iota
	FormatPNG
)

func (f Format) String() string {
	switch f {
	case FormatPPM:
		return "ppm"
	case FormatPNG:
		return "png"
	}
	return fmt.Sprintf("Format(%d)", int(f))
}

func (f Format) ContentType() string {
	if f == FormatPNG {
		return "image/png"
	}
	return "image/x-portable-pixmap"
}

func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "ppm", "pmm":
		return FormatPPM, nil
	case "png":
		return FormatPNG, nil
	}
	return 0, fmt.Errorf("unknown image format %q", s)
}

// FormatForPath guesses the format from a file name's extension.
func FormatForPath(name string) (Format, error) {
	ext := strings.TrimPrefix(filepath.Ext(name), ".")
	if ext == "" {
		return 0, fmt.Errorf("no extension on %q", name)
	}
	return ParseFormat(ext)
}

func Write(im *Image, f Format, w io.Writer) error {
	switch f {
	case FormatPPM:
		return WritePPM(im, w)
	case FormatPNG:
		return WritePNG(im, w)
	}
	return fmt.Errorf("unknown image format %v", f)
}
