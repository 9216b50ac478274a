// raycaster renders a scene of Phong-shaded spheres, either once to a file or
// on demand over HTTP.
package main

import (
	"context"
	"flag"
	"fmt"
	"image/png"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	rpprof "runtime/pprof"
	"strconv"
	"strings"
	"syscall"
	"time"

	"raycaster/camera"
	"raycaster/framebuffer"
	"raycaster/framestore"
	"raycaster/render"
	"raycaster/renderhandler"
	"raycaster/rendermetrics"
	"raycaster/scenepack"
	"raycaster/vmath/vec3"

	"cloud.google.com/go/storage"
	"contrib.go.opencensus.io/exporter/stackdriver"
	cloudmetrics "github.com/GoogleCloudPlatform/opentelemetry-operations-go/exporter/metric"
	cloudtrace "github.com/GoogleCloudPlatform/opentelemetry-operations-go/exporter/trace"
	"github.com/golang/glog"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"golang.org/x/time/rate"
	googleopt "google.golang.org/api/option"
)

var (
	sceneFile  = flag.String("scene", "", "Scene file to render.  If empty, the built-in demo scene is used.")
	writeScene = flag.String("write-scene", "", "Write the built-in demo scene to this file and exit.")

	eye        = flag.String("eye", "10,0,0", "Eye position, as x,y,z")
	view       = flag.String("view", "0,0,0", "Point the camera looks at, as x,y,z")
	viewUp     = flag.String("view-up", "0,0,10", "Up direction of the camera, as x,y,z")
	horizontal = flag.Float64("horizontal", 20, "Width of the field of view, in world units")
	vertical   = flag.Float64("vertical", 20, "Height of the field of view, in world units")
	width      = flag.Int("width", 512, "Output image width in pixels")
	height     = flag.Int("height", 512, "Output image height in pixels")
	requestNo  = flag.Int64("request-no", 0, "Request number to tag the rendered frame with")

	threshold = flag.Int("threshold", render.DefaultThreshold, "Row span below which a tile is rendered directly")
	workers   = flag.Int("workers", 0, "Number of tiles rendered at once.  0 means GOMAXPROCS.")

	outputFile   = flag.String("output-file", "output.png", "Output file.  The extension picks the format: .png or .frame")
	outputBucket = flag.String("output-bucket", "", "If set, also upload the encoded frame to this GCS bucket")
	cacheDir     = flag.String("cache-dir", "", "If set, cache rendered frames in a badger database in this directory")

	listen      = flag.String("listen", "", "If set, serve renders over HTTP on this address instead of rendering once")
	debugListen = flag.String("debug-listen", "127.0.0.1:8001", "Server address:port for debug endpoint.")
	maxQPS      = flag.Float64("max-qps", 10, "Renders per second accepted by the HTTP server")
	maxBurst    = flag.Int("max-burst", 4, "Burst of renders accepted by the HTTP server")

	monitoring           = flag.Bool("monitoring", false, "Enable monitoring?")
	monitoringProject    = flag.String("monitoring-project", "", "Override project used for monitoring integration.  If not specified, the project associated with Application Default Credentials is used.")
	monitoringTraceRatio = flag.Float64("monitoring-trace-ratio", 0.0001, "What ratio of traces should be exported?")
	metrics              = flag.Bool("metrics", false, "Export render metrics to Cloud Monitoring?")

	cpuprofile = flag.String("cpu-profile", "", "write cpu profile to `file`")
	memprofile = flag.String("mem-profile", "", "write memory profile to `file`")
)

func main() {
	flag.Parse()
	defer glog.Flush()

	glog.CopyStandardLogTo("INFO")

	glog.Infof("flags:")
	flag.VisitAll(func(f *flag.Flag) {
		glog.Infof("%s: %q", f.Name, f.Value.String())
	})

	if err := withCPUProfile(*cpuprofile, do); err != nil {
		glog.Exitf("Error: %v", err)
	}

	if *memprofile != "" {
		f, err := os.Create(*memprofile)
		if err != nil {
			glog.Exitf("Could not create memory profile: %v", err)
		}
		defer f.Close()
		runtime.GC()
		if err := rpprof.WriteHeapProfile(f); err != nil {
			glog.Exitf("Could not write memory profile: %v", err)
		}
	}
}

// withCPUProfile runs fn, profiling it into the file name if name is not
// empty.  The profile is complete by the time withCPUProfile returns, even if
// fn fails.
func withCPUProfile(name string, fn func() error) error {
	if name == "" {
		return fn()
	}

	f, err := os.Create(name)
	if err != nil {
		return fmt.Errorf("while creating CPU profile: %w", err)
	}
	defer f.Close()

	if err := rpprof.StartCPUProfile(f); err != nil {
		return fmt.Errorf("while starting CPU profile: %w", err)
	}
	err = fn()
	rpprof.StopCPUProfile()
	return err
}

func do() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if *writeScene != "" {
		if err := scenepack.SaveScene(*writeScene, scenepack.Predefined()); err != nil {
			return fmt.Errorf("while writing demo scene: %w", err)
		}
		glog.Infof("Wrote demo scene to %s", *writeScene)
		return nil
	}

	if *monitoring {
		metricsOpts := []cloudmetrics.Option{}
		traceOpts := []cloudtrace.Option{}
		if *monitoringProject != "" {
			metricsOpts = append(metricsOpts, cloudmetrics.WithProjectID(*monitoringProject))
			traceOpts = append(traceOpts, cloudtrace.WithProjectID(*monitoringProject))
		}

		_, traceShutdown, err := cloudtrace.InstallNewPipeline(traceOpts, sdktrace.WithSampler(sdktrace.TraceIDRatioBased(*monitoringTraceRatio)))
		if err != nil {
			return fmt.Errorf("while installing Cloud Trace OpenTelemetry trace pipeline: %w", err)
		}
		defer traceShutdown()

		pusher, err := cloudmetrics.InstallNewPipeline(metricsOpts)
		if err != nil {
			return fmt.Errorf("while installing Cloud Metrics OpenTelemetry meter pipeline: %w", err)
		}
		defer pusher.Stop(ctx)
	}

	if *metrics {
		exporter, err := stackdriver.NewExporter(stackdriver.Options{
			ProjectID:         *monitoringProject,
			MetricPrefix:      "raycaster",
			ReportingInterval: 60 * time.Second,
		})
		if err != nil {
			return fmt.Errorf("while creating metrics exporter: %w", err)
		}
		if err := exporter.StartMetricsExporter(); err != nil {
			return fmt.Errorf("while starting metrics exporter: %w", err)
		}
		defer exporter.Flush()
		defer exporter.StopMetricsExporter()

		if err := rendermetrics.Register(); err != nil {
			return fmt.Errorf("while registering render metrics: %w", err)
		}
	}

	s := scenepack.Predefined()
	if *sceneFile != "" {
		var err error
		s, err = scenepack.LoadScene(*sceneFile)
		if err != nil {
			return fmt.Errorf("while loading scene: %w", err)
		}
	}
	glog.Infof("Scene has %d objects and %d lights", len(s.Objects), len(s.Lights))

	sceneBytes, err := scenepack.Marshal(s)
	if err != nil {
		return fmt.Errorf("while encoding scene: %w", err)
	}

	renderer := render.New(render.WithThreshold(*threshold), render.WithWorkers(*workers))
	producer := render.NewProducer(renderer, s)

	var cache framestore.Store
	if *cacheDir != "" {
		badgerStore, err := framestore.OpenBadgerStore(*cacheDir)
		if err != nil {
			return fmt.Errorf("while opening frame cache: %w", err)
		}
		defer badgerStore.Close()
		cache = badgerStore
	}

	debugServeMux := http.NewServeMux()
	debugServeMux.HandleFunc("/healthz", healthz)
	debugServeMux.HandleFunc("/readyz", healthz)
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
		if err := debugServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			glog.Errorf("Debug server died: %v", err)
		}
	}()
	defer debugServer.Close()

	if *listen != "" {
		return serve(ctx, producer, sceneBytes, cache)
	}

	params, err := cameraParams()
	if err != nil {
		return err
	}

	f, err := renderOnce(ctx, producer, params, sceneBytes, cache)
	if err != nil {
		return err
	}

	if err := writeOutput(*outputFile, f); err != nil {
		return err
	}

	if *outputBucket != "" {
		gcs, err := storage.NewClient(ctx, googleopt.WithGRPCConnectionPool(1))
		if err != nil {
			return fmt.Errorf("while creating GCS client: %w", err)
		}
		defer gcs.Close()

		key := framestore.Key(params, sceneBytes)
		if err := framestore.NewGCSStore(gcs, *outputBucket).Put(ctx, key, f); err != nil {
			return fmt.Errorf("while uploading frame: %w", err)
		}
		glog.Infof("Uploaded frame to gs://%s/frames/%s", *outputBucket, key)
	}

	return nil
}

func healthz(w http.ResponseWriter, r *http.Request) {
	w.Write([]byte("200 OK"))
}

func serve(ctx context.Context, producer *render.Producer, sceneBytes []byte, cache framestore.Store) error {
	opts := []renderhandler.HandlerOpt{
		renderhandler.WithRateLimit(rate.Limit(*maxQPS), *maxBurst),
	}
	if cache != nil {
		opts = append(opts, renderhandler.WithCache(cache))
	}

	serveMux := http.NewServeMux()
	serveMux.Handle("/render", renderhandler.New(producer, sceneBytes, opts...))
	server := &http.Server{
		Addr:    *listen,
		Handler: serveMux,

		ReadTimeout:    30 * time.Second,
		WriteTimeout:   5 * time.Minute,
		MaxHeaderBytes: 1 << 20,
	}

	errCh := make(chan error, 1)
	go func() {
		glog.Infof("Serving renders on %s", *listen)
		errCh <- server.ListenAndServe()
	}()

	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("while serving http: %w", err)
	case <-signalCh:
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("while shutting down http server: %w", err)
	}
	return nil
}

func renderOnce(ctx context.Context, producer *render.Producer, params camera.Params, sceneBytes []byte, cache framestore.Store) (*framebuffer.Frame, error) {
	key := framestore.Key(params, sceneBytes)

	if cache != nil {
		f, ok, err := cache.Get(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("while reading frame cache: %w", err)
		}
		if ok {
			glog.Infof("Frame cache hit for key %s", key)
			f.RequestNo = *requestNo
			return f, nil
		}
	}

	var f *framebuffer.Frame
	obs := render.ObserverFunc(func(red, green, blue []uint8, no int64) {
		f = &framebuffer.Frame{
			Width:     params.Width,
			Height:    params.Height,
			RequestNo: no,
			Red:       red,
			Green:     green,
			Blue:      blue,
		}
	})
	if err := producer.Produce(ctx, params, *requestNo, obs); err != nil {
		return nil, err
	}

	if cache != nil {
		if err := cache.Put(ctx, key, f); err != nil {
			return nil, fmt.Errorf("while writing frame cache: %w", err)
		}
	}

	return f, nil
}

func writeOutput(name string, f *framebuffer.Frame) error {
	switch filepath.Ext(name) {
	case ".frame":
		if err := framebuffer.WriteToFile(f, name); err != nil {
			return fmt.Errorf("while writing frame: %w", err)
		}
	case ".png":
		out, err := os.Create(name)
		if err != nil {
			return fmt.Errorf("while creating output file: %w", err)
		}
		if err := png.Encode(out, f.Image()); err != nil {
			out.Close()
			return fmt.Errorf("while encoding png: %w", err)
		}
		if err := out.Close(); err != nil {
			return fmt.Errorf("while closing output file: %w", err)
		}
	default:
		return fmt.Errorf("unsupported output extension %q (want .png or .frame)", filepath.Ext(name))
	}

	glog.Infof("Wrote %dx%d image to %s", f.Width, f.Height, name)
	return nil
}

func cameraParams() (camera.Params, error) {
	p := camera.Params{
		Horizontal: *horizontal,
		Vertical:   *vertical,
		Width:      *width,
		Height:     *height,
	}

	var err error
	if p.Eye, err = parseTriple(*eye); err != nil {
		return camera.Params{}, fmt.Errorf("while parsing --eye: %w", err)
	}
	if p.View, err = parseTriple(*view); err != nil {
		return camera.Params{}, fmt.Errorf("while parsing --view: %w", err)
	}
	if p.ViewUp, err = parseTriple(*viewUp); err != nil {
		return camera.Params{}, fmt.Errorf("while parsing --view-up: %w", err)
	}

	return p, nil
}

// parseTriple parses "x,y,z".
func parseTriple(s string) (vec3.T, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return vec3.T{}, fmt.Errorf("%q does not have three comma-separated components", s)
	}

	var v vec3.T
	for i, part := range parts {
		c, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return vec3.T{}, fmt.Errorf("component %d of %q: %w", i, s, err)
		}
		v[i] = c
	}
	return v, nil
}
