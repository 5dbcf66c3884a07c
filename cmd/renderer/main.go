// renderer traces a scene of spheres and writes the result as a PPM or PNG
// image, either to a local file or to a gs://bucket/object destination.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	runtimepprof "runtime/pprof"
	"strings"
	"syscall"
	"time"

	"spheretrace/healthz"
	"spheretrace/render"
	"spheretrace/rgbimage"
	"spheretrace/scene"
	"spheretrace/scenepack"
	"spheretrace/sink"

	"cloud.google.com/go/profiler"
	"cloud.google.com/go/storage"
	"contrib.go.opencensus.io/exporter/stackdriver"
	cloudmetrics "github.com/GoogleCloudPlatform/opentelemetry-operations-go/exporter/metric"
	cloudtrace "github.com/GoogleCloudPlatform/opentelemetry-operations-go/exporter/trace"
	"github.com/golang/glog"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	googleopt "google.golang.org/api/option"
)

var (
	sceneFile = flag.String("scene", "", "JSON scene file.  If empty, the built-in demo scene is rendered.")
	output    = flag.String("output", "output.ppm", "Output path, or gs://bucket/object")
	format    = flag.String("format", "", "Output format (ppm or png).  If empty, guessed from the output extension.")
	overwrite = flag.Bool("overwrite", false, "Replace the output if it already exists?")
	rows      = flag.Int("rows", scenepack.DefaultRows, "Output image rows")
	cols      = flag.Int("cols", scenepack.DefaultCols, "Output image columns")

	maxBounces   = flag.Int("max-bounces", 4, "Maximum number of surfaces a ray may hit")
	epsilon      = flag.Float64("epsilon", 1e-4, "Minimum hit distance, and the offset of bounce origins from surfaces")
	policy       = flag.String("policy", "average", "How colors along a ray combine: average or multiply")
	model        = flag.String("model", "bounce", "Shading model: bounce or direct")
	samples      = flag.Int("samples", 1, "Rays per pixel.  More than 1 turns on antialiasing.")
	filterRadius = flag.Float64("filter-radius", 1, "Antialiasing jitter radius, in pixels")
	seed         = flag.Int64("seed", 1, "Random seed.  The same seed always gives the same image.")
	workers      = flag.Int("workers", 0, "Concurrent row chunks.  0 means one per CPU.")

	cpuprofile      = flag.String("cpu-profile", "", "write cpu profile to `file`")
	memprofile      = flag.String("mem-profile", "", "write memory profile to `file`")
	enableProfiling = flag.Bool("profiler", false, "Enable Cloud Profiler?")

	debugListen          = flag.String("debug-listen", "", "Server address:port for debug endpoint.  Disabled if empty.")
	monitoring           = flag.Bool("monitoring", false, "Enable monitoring?")
	monitoringProject    = flag.String("monitoring-project", "", "Override project used for monitoring integration.  If not specified, the project associated with Application Default Credentials is used.")
	monitoringTraceRatio = flag.Float64("monitoring-trace-ratio", 1.0, "What ratio of traces should be exported?")
)

func main() {
	flag.Parse()
	defer glog.Flush()

	glog.Infof("flags:")
	flag.VisitAll(func(f *flag.Flag) {
		glog.Infof("%s: %q", f.Name, f.Value.String())
	})

	if *cpuprofile != "" {
		f, err := os.Create(*cpuprofile)
		if err != nil {
			glog.Exitf("could not create CPU profile: %v", err)
		}
		defer f.Close()
		if err := runtimepprof.StartCPUProfile(f); err != nil {
			glog.Exitf("could not start CPU profile: %v", err)
		}
		defer runtimepprof.StopCPUProfile()
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := do(ctx); err != nil {
		glog.Exitf("Error: %v", err)
	}

	if *memprofile != "" {
		f, err := os.Create(*memprofile)
		if err != nil {
			glog.Exitf("could not create memory profile: %v", err)
		}
		defer f.Close()
		if err := runtimepprof.WriteHeapProfile(f); err != nil {
			glog.Exitf("could not write memory profile: %v", err)
		}
	}
}

func do(ctx context.Context) error {
	// Cloud Profiler initialization, best done as early as possible.
	if *enableProfiling {
		if err := profiler.Start(profiler.Config{
			Service:        "spheretrace-renderer",
			ServiceVersion: "0.0.1",
			ProjectID:      *monitoringProject,
		}); err != nil {
			return fmt.Errorf("while starting profiler: %w", err)
		}
	}

	if *monitoring {
		shutdown, err := installMonitoring(ctx)
		if err != nil {
			return fmt.Errorf("while installing monitoring: %w", err)
		}
		defer shutdown()
	}

	pack, err := loadPack()
	if err != nil {
		return err
	}

	setFlags := map[string]bool{}
	flag.Visit(func(f *flag.Flag) {
		setFlags[f.Name] = true
	})
	if err := applyFlagOverrides(pack, setFlags); err != nil {
		return fmt.Errorf("while applying flags: %w", err)
	}

	outFormat, err := outputFormat()
	if err != nil {
		return err
	}

	health := healthz.New()
	if *debugListen != "" {
		startDebugServer(health)
	}

	var gcs *storage.Client
	if strings.HasPrefix(*output, "gs://") {
		gcs, err = storage.NewClient(ctx, googleopt.WithGRPCConnectionPool(1))
		if err != nil {
			return fmt.Errorf("while creating GCS client: %w", err)
		}
		defer gcs.Close()
	}

	glog.Infof("Rendering %d spheres at %dx%d", len(pack.Scene.Elements), pack.Rows, pack.Cols)
	start := time.Now()
	img, err := render.Capture(ctx, pack.Scene, pack.Rows, pack.Cols, pack.Options, health.SetProgress)
	if err != nil {
		return fmt.Errorf("while rendering: %w", err)
	}
	glog.Infof("Rendered in %v", time.Since(start))

	if err := sink.New(gcs, sink.WithOverwrite(*overwrite)).Write(ctx, *output, img, outFormat); err != nil {
		return fmt.Errorf("while writing output: %w", err)
	}
	glog.Infof("Wrote %s", *output)

	return nil
}

func loadPack() (*scenepack.Pack, error) {
	if *sceneFile == "" {
		glog.Infof("No scene file given, rendering the demo scene")
		pack, err := scenepack.Build(scenepack.DemoFile())
		if err != nil {
			return nil, fmt.Errorf("while building demo scene: %w", err)
		}
		return pack, nil
	}

	return scenepack.Load(*sceneFile)
}

// applyFlagOverrides copies the flags named in set over the scene file's
// render settings.
func applyFlagOverrides(p *scenepack.Pack, set map[string]bool) error {
	o := p.Options

	if set["rows"] {
		p.Rows = *rows
	}
	if set["cols"] {
		p.Cols = *cols
	}
	if set["max-bounces"] {
		o.MaxBounces = *maxBounces
	}
	if set["epsilon"] {
		o.Epsilon = *epsilon
	}
	if set["policy"] {
		pol, err := scene.ParsePolicy(*policy)
		if err != nil {
			return err
		}
		o.Policy = pol
	}
	if set["model"] {
		m, err := scene.ParseModel(*model)
		if err != nil {
			return err
		}
		o.Model = m
	}
	if set["samples"] {
		o.Antialiasing.Enabled = *samples > 1
		o.Antialiasing.SamplesPerPixel = *samples
	}
	if set["filter-radius"] {
		o.Antialiasing.FilterRadius = *filterRadius
	}
	if set["seed"] {
		o.Seed = *seed
	}
	if set["workers"] {
		o.Workers = *workers
	}

	return o.Validate()
}

func outputFormat() (rgbimage.Format, error) {
	if *format != "" {
		return rgbimage.ParseFormat(*format)
	}
	f, err := rgbimage.FormatForPath(*output)
	if err != nil {
		glog.Warningf("Couldn't guess output format (%v), writing ppm", err)
		return rgbimage.FormatPPM, nil
	}
	return f, nil
}

func startDebugServer(health *healthz.Handler) {
	debugServeMux := http.NewServeMux()
	debugServeMux.Handle("/healthz", health)
	debugServeMux.Handle("/readyz", health)
	debugServeMux.HandleFunc("/debug/pprof/", pprof.Index)
	debugServeMux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	debugServeMux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	debugServeMux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	debugServeMux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	debugServer := &http.Server{
		Addr:    *debugListen,
		Handler: debugServeMux,

		ReadTimeout:    30 * time.Second,
		WriteTimeout:   30 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	go func() {
		if err := debugServer.ListenAndServe(); err != nil {
			glog.Errorf("Debug server died: %v", err)
		}
	}()
}

// installMonitoring sets up trace and metric export to Google Cloud.  The
// returned function flushes and stops every exporter.
func installMonitoring(ctx context.Context) (func(), error) {
	metricsOpts := []cloudmetrics.Option{}
	traceOpts := []cloudtrace.Option{}
	if *monitoringProject != "" {
		metricsOpts = append(metricsOpts, cloudmetrics.WithProjectID(*monitoringProject))
		traceOpts = append(traceOpts, cloudtrace.WithProjectID(*monitoringProject))
	}

	_, traceShutdown, err := cloudtrace.InstallNewPipeline(traceOpts, sdktrace.WithSampler(sdktrace.TraceIDRatioBased(*monitoringTraceRatio)))
	if err != nil {
		return nil, fmt.Errorf("while installing Cloud Trace OpenTelemetry trace pipeline: %w", err)
	}

	pusher, err := cloudmetrics.InstallNewPipeline(metricsOpts)
	if err != nil {
		traceShutdown()
		return nil, fmt.Errorf("while installing Cloud Metrics OpenTelemetry meter pipeline: %w", err)
	}

	if err := render.RegisterViews(); err != nil {
		pusher.Stop(ctx)
		traceShutdown()
		return nil, fmt.Errorf("while registering render views: %w", err)
	}

	exporter, err := stackdriver.NewExporter(stackdriver.Options{
		ProjectID:         *monitoringProject,
		MetricPrefix:      "spheretrace",
		ReportingInterval: 60 * time.Second,
	})
	if err != nil {
		pusher.Stop(ctx)
		traceShutdown()
		return nil, fmt.Errorf("while creating Stackdriver exporter: %w", err)
	}
	if err := exporter.StartMetricsExporter(); err != nil {
		pusher.Stop(ctx)
		traceShutdown()
		return nil, fmt.Errorf("while starting Stackdriver metrics exporter: %w", err)
	}

	return func() {
		exporter.StopMetricsExporter()
		exporter.Flush()
		pusher.Stop(ctx)
		traceShutdown()
	}, nil
}
