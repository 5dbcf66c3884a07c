package camera

import (
	"errors"
	"fmt"

	"spheretrace/ray"
	"spheretrace/vmath/vec2"
	"spheretrace/vmath/vec3"
)

// ErrNotOrthogonal is returned when a window's orientation vector is not
// orthogonal to its viewing direction.
var ErrNotOrthogonal = errors.New("orientation must be orthogonal to the viewing direction")

// ErrBadWindow is returned for non-positive window dimensions or degenerate
// direction vectors.
var ErrBadWindow = errors.New("invalid window geometry")

type Camera interface {
	// Ray returns the primary ray through pixel (curRow, curCol) of an
	// imgRows x imgCols image.  jitter offsets the sample from the pixel
	// center, in units of the window's pixel size.
	Ray(curRow, imgRows, curCol, imgCols int, jitter vec2.T) ray.Ray
}

type WindowConfig struct {
	Eye vec3.T

	// Half-extents of the window: distance from its center to the top border
	// and to the right border.
	SizeX, SizeY float64

	Distance float64

	// ViewingDirection points from the eye towards the window center.
	ViewingDirection vec3.T

	// Orientation points from the window center towards its top border.
	Orientation vec3.T
}

// Window is a pinhole camera looking through a rectangular window.  Rows of
// the image run top to bottom along Up, columns left to right along Right.
type Window struct {
	Eye   vec3.T
	SizeX float64
	SizeY float64

	Center vec3.T

	// Up and Right run from Center to the top and right borders.
	Up    vec3.T
	Right vec3.T

	TopLeft     vec3.T
	TopRight    vec3.T
	BottomLeft  vec3.T
	BottomRight vec3.T
}

func NewWindow(cfg WindowConfig) (*Window, error) {
	if cfg.SizeX <= 0 || cfg.SizeY <= 0 {
		return nil, fmt.Errorf("%w: window size (%v, %v) must be positive", ErrBadWindow, cfg.SizeX, cfg.SizeY)
	}
	if cfg.Distance <= 0 {
		return nil, fmt.Errorf("%w: window distance %v must be positive", ErrBadWindow, cfg.Distance)
	}

	view, err := vec3.Unit(cfg.ViewingDirection)
	if err != nil {
		return nil, fmt.Errorf("%w: while normalizing viewing direction: %v", ErrBadWindow, err)
	}
	orient, err := vec3.Unit(cfg.Orientation)
	if err != nil {
		return nil, fmt.Errorf("%w: while normalizing orientation: %v", ErrBadWindow, err)
	}

	if vec3.IProd(cfg.ViewingDirection, cfg.Orientation) != 0 {
		return nil, fmt.Errorf("%w: viewing direction %v, orientation %v", ErrNotOrthogonal, cfg.ViewingDirection, cfg.Orientation)
	}

	w := &Window{
		Eye:    cfg.Eye,
		SizeX:  cfg.SizeX,
		SizeY:  cfg.SizeY,
		Center: vec3.AddVV(cfg.Eye, vec3.MulVS(view, cfg.Distance)),
		Up:     vec3.MulVS(orient, cfg.SizeX),
	}

	// Orientation and view are orthogonal unit vectors, so their cross
	// product can't vanish.
	w.Right = vec3.MulVS(vec3.Neg(vec3.MustUnit(vec3.CProd(cfg.Orientation, cfg.ViewingDirection))), cfg.SizeY)

	w.TopLeft = vec3.SubVV(vec3.AddVV(w.Center, w.Up), w.Right)
	w.TopRight = vec3.AddVV(vec3.AddVV(w.Center, w.Up), w.Right)
	w.BottomLeft = vec3.SubVV(vec3.SubVV(w.Center, w.Up), w.Right)
	w.BottomRight = vec3.AddVV(vec3.SubVV(w.Center, w.Up), w.Right)

	return w, nil
}

// PixelSize is the window size divided by the resolution, along the up and
// right axes.  It is the unit of Ray's jitter.
func (w *Window) PixelSize(imgRows, imgCols int) (float64, float64) {
	return w.SizeX / float64(imgRows), w.SizeY / float64(imgCols)
}

func (w *Window) Ray(curRow, imgRows, curCol, imgCols int, jitter vec2.T) ray.Ray {
	rowStep := 2.0 / float64(imgRows)
	colStep := 2.0 / float64(imgCols)

	down := (float64(curRow) + 0.5) * rowStep
	across := (float64(curCol) + 0.5) * colStep

	// Up and Right have lengths SizeX and SizeY.
	rowSize, colSize := w.PixelSize(imgRows, imgCols)
	down += jitter[0] * rowSize / w.SizeX
	across += jitter[1] * colSize / w.SizeY

	p := vec3.AddVV(
		vec3.SubVV(w.TopLeft, vec3.MulVS(w.Up, down)),
		vec3.MulVS(w.Right, across),
	)

	return ray.Ray{
		Point: w.Eye,
		Slope: vec3.SubVV(p, w.Eye),
	}
}
