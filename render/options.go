package render

import (
	"errors"
	"fmt"
	"math"

	"spheretrace/scene"
	"spheretrace/vmath/vec3"
)

var (
	ErrBadResolution = errors.New("resolution must be positive")
	ErrBadOptions    = errors.New("invalid render options")
)

type Antialiasing struct {
	Enabled         bool
	SamplesPerPixel int

	// FilterRadius bounds the jitter applied to each sample, in pixels.
	FilterRadius float64
}

type Options struct {
	scene.TraceOptions

	Antialiasing Antialiasing

	// Workers caps the number of rows chunks rendered at once.  Zero means
	// one per CPU.
	Workers int

	// RowsPerChunk is the unit of work handed to a worker.
	RowsPerChunk int

	// Seed determines every random choice of the render.  The same seed gives
	// the same image whatever the worker count.
	Seed int64
}

func DefaultOptions() *Options {
	return &Options{
		TraceOptions: scene.TraceOptions{
			MaxBounces: 4,
			Epsilon:    1e-4,
			Policy:     scene.WeightedAverage,
			Model:      scene.Bounce,
			Background: vec3.T{0, 0, 0},
		},
		Antialiasing: Antialiasing{
			Enabled:         false,
			SamplesPerPixel: 8,
			FilterRadius:    1,
		},
		Workers:      0,
		RowsPerChunk: 4,
		Seed:         1,
	}
}

func (o *Options) Validate() error {
	if err := o.TraceOptions.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrBadOptions, err)
	}
	if o.Antialiasing.Enabled {
		if o.Antialiasing.SamplesPerPixel <= 0 {
			return fmt.Errorf("%w: samples per pixel %d must be positive", ErrBadOptions, o.Antialiasing.SamplesPerPixel)
		}
		if !(o.Antialiasing.FilterRadius > 0) || math.IsInf(o.Antialiasing.FilterRadius, 1) {
			return fmt.Errorf("%w: filter radius %v must be positive and finite", ErrBadOptions, o.Antialiasing.FilterRadius)
		}
	}
	if o.Workers < 0 {
		return fmt.Errorf("%w: worker count %d is negative", ErrBadOptions, o.Workers)
	}
	if o.RowsPerChunk <= 0 {
		return fmt.Errorf("%w: rows per chunk %d must be positive", ErrBadOptions, o.RowsPerChunk)
	}
	return nil
}

// samples returns how many rays are traced per pixel.
func (o *Options) samples() int {
	if o.Antialiasing.Enabled {
		return o.Antialiasing.SamplesPerPixel
	}
	return 1
}
