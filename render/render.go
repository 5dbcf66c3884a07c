package render

import (
	"context"
	"fmt"
	"math/rand"
	"runtime"
	"sync"

	"spheretrace/rgbimage"
	"spheretrace/scene"
	"spheretrace/vmath/vec2"
	"spheretrace/vmath/vec3"

	"github.com/golang/glog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// ProgressFunction is told how many rows are finished out of the total.
type ProgressFunction func(int, int)

type chunkWorker struct {
	scene *scene.Scene
	opts  *Options
	rng   *rand.Rand

	// The dimensions of the overall image, not just this chunk.
	imgRows int
	imgCols int

	rowSrc int
	rowLim int

	out *rgbimage.Image

	rays int
}

// pixelSeed mixes the render seed with a pixel's coordinates (splitmix64
// finalizer), so each pixel draws from its own stream.
func pixelSeed(seed int64, r, c int) int64 {
	x := uint64(seed) ^ (uint64(uint32(r))<<32 | uint64(uint32(c)))
	x += 0x9e3779b97f4a7c15
	x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
	x = (x ^ (x >> 27)) * 0x94d049bb133111eb
	return int64(x ^ (x >> 31))
}

func (w *chunkWorker) renderPixel(cr, cc int) vec3.T {
	w.rng.Seed(pixelSeed(w.opts.Seed, cr, cc))

	if !w.opts.Antialiasing.Enabled {
		primary := w.scene.Camera.Ray(cr, w.imgRows, cc, w.imgCols, vec2.T{})
		color, rays := w.scene.SampleRay(primary, &w.opts.TraceOptions, w.rng)
		w.rays += rays
		return color
	}

	accum := vec3.T{}
	n := w.opts.Antialiasing.SamplesPerPixel
	for cs := 0; cs < n; cs++ {
		jitter := vec2.MulVS(vec2.RandomInUnitDisk(w.rng), w.opts.Antialiasing.FilterRadius)
		primary := w.scene.Camera.Ray(cr, w.imgRows, cc, w.imgCols, jitter)
		color, rays := w.scene.SampleRay(primary, &w.opts.TraceOptions, w.rng)
		w.rays += rays
		accum = vec3.AddVV(accum, color)
	}
	return vec3.DivVS(accum, float64(n))
}

func (w *chunkWorker) Render(ctx context.Context, rowDone func()) error {
	for cr := w.rowSrc; cr < w.rowLim; cr++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		for cc := 0; cc < w.imgCols; cc++ {
			w.out.Set(cr-w.rowSrc, cc, w.renderPixel(cr, cc))
		}
		rowDone()
	}
	return nil
}

// Capture renders s into an imgRows x imgCols image.  Rows run top to bottom,
// columns left to right.
func Capture(ctx context.Context, s *scene.Scene, imgRows, imgCols int, opts *Options, progressFunction ProgressFunction) (*rgbimage.Image, error) {
	tracer := otel.Tracer("spheretrace/render")
	var span trace.Span
	ctx, span = tracer.Start(ctx, "render.Capture")
	defer span.End()

	span.SetAttributes(
		attribute.Int("rows", imgRows),
		attribute.Int("cols", imgCols),
		attribute.Int("samples", opts.samples()),
		attribute.String("model", opts.Model.String()),
	)

	img, err := capture(ctx, s, imgRows, imgCols, opts, progressFunction)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetStatus(codes.Ok, "")
	return img, nil
}

func capture(ctx context.Context, s *scene.Scene, imgRows, imgCols int, opts *Options, progressFunction ProgressFunction) (*rgbimage.Image, error) {
	if imgRows <= 0 || imgCols <= 0 {
		return nil, fmt.Errorf("%w: got %dx%d", ErrBadResolution, imgRows, imgCols)
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("before rendering: %w", err)
	}

	img, err := rgbimage.New(imgRows, imgCols)
	if err != nil {
		return nil, fmt.Errorf("while allocating image: %w", err)
	}

	if progressFunction == nil {
		progressFunction = func(int, int) {}
	}

	if len(s.Elements) == 0 {
		img.Fill(opts.Background)
		progressFunction(imgRows, imgRows)
		return img, nil
	}

	workers := opts.Workers
	if workers == 0 {
		workers = runtime.NumCPU()
	}

	// progressMutex locks both curProgress and img.
	progressMutex := sync.Mutex{}
	curProgress := 0
	rowDone := func() {
		progressMutex.Lock()
		defer progressMutex.Unlock()
		curProgress++
		progressFunction(curProgress, imgRows)
		glog.V(1).Infof("Rendered row %d of %d", curProgress, imgRows)
	}

	// Use errgroup and semaphore to limit concurrency.
	eg, ctx := errgroup.WithContext(ctx)
	sem := semaphore.NewWeighted(int64(workers))

	for rowSrc := 0; rowSrc < imgRows; rowSrc += opts.RowsPerChunk {
		rowLim := rowSrc + opts.RowsPerChunk
		if rowLim > imgRows {
			rowLim = imgRows
		}

		if err := sem.Acquire(ctx, 1); err != nil {
			// A failed chunk cancels ctx; its error is the one worth reporting.
			if egErr := eg.Wait(); egErr != nil {
				return nil, fmt.Errorf("while waiting for completion of errgroup: %w", egErr)
			}
			return nil, fmt.Errorf("while acquiring concurrency limiter semaphore: %w", err)
		}

		worker := &chunkWorker{
			scene:   s,
			opts:    opts,
			rng:     rand.New(rand.NewSource(opts.Seed)),
			imgRows: imgRows,
			imgCols: imgCols,
			rowSrc:  rowSrc,
			rowLim:  rowLim,
		}
		worker.out = img.Cut(rowSrc, rowLim, 0, imgCols)

		eg.Go(func() error {
			defer sem.Release(1)
			if err := worker.Render(ctx, rowDone); err != nil {
				return fmt.Errorf("while rendering rows [%d, %d): %w", worker.rowSrc, worker.rowLim, err)
			}

			recordChunk(ctx, opts, (worker.rowLim-worker.rowSrc)*imgCols, worker.rays)

			progressMutex.Lock()
			defer progressMutex.Unlock()
			img.Paste(worker.out, worker.rowSrc, 0)
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, fmt.Errorf("while waiting for completion of errgroup: %w", err)
	}

	return img, nil
}
