package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/aretw0/treetagger/internal/logging"
	httpadapter "github.com/aretw0/treetagger/pkg/adapters/http"
	"github.com/aretw0/treetagger/pkg/adapters/process"
	"github.com/aretw0/treetagger/pkg/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// DefaultBatchSize bounds how many input lines are sent to the engine at once.
const DefaultBatchSize = 10000

// ShutdownTimeout bounds the graceful HTTP shutdown.
const ShutdownTimeout = 5 * time.Second

// TagOptions configures a one-shot tagging run.
type TagOptions struct {
	Config  process.Config
	Wrapper WrapperOptions
	// Text, when set, is tokenized for Lang instead of reading Input.
	Text      string
	Lang      string
	BatchSize int
	JSON      bool
	Input     io.Reader
	Output    io.Writer
	Printer   []PrinterOption
	Logger    *slog.Logger
}

// RunTag tags Text or the tokens read from Input and prints the results.
func RunTag(ctx context.Context, opts TagOptions) error {
	if opts.Logger == nil {
		opts.Logger = logging.NewNop()
	}
	w, closeCache, err := createWrapper(opts.Config, opts.Wrapper, opts.Logger)
	if err != nil {
		return err
	}
	defer closeCache()
	defer func() {
		if err := w.Destroy(context.Background()); err != nil {
			opts.Logger.Warn("engine shutdown failed", "err", err)
		}
	}()

	printer := NewPrinter(opts.Output, DetectFormat(opts.Output, opts.JSON), opts.Printer...)

	if opts.Text != "" {
		lang := opts.Lang
		if lang == "" {
			lang = "en"
		}
		results, err := w.TagText(ctx, opts.Text, lang)
		if err != nil {
			return err
		}
		return printer.Print(results)
	}

	return ReadBatches(opts.Input, opts.BatchSize, func(tokens []string) error {
		results, err := w.Tag(ctx, tokens)
		if err != nil {
			return err
		}
		return printer.Print(results)
	})
}

// ServeOptions configures the HTTP service.
type ServeOptions struct {
	Config         process.Config
	Wrapper        WrapperOptions
	Addr           string
	RateLimit      float64
	Burst          int
	RequestTimeout time.Duration
	Version        string
	Logger         *slog.Logger
	// Banner, when set, receives a startup banner.
	Banner io.Writer
	// Ready is called with the bound address once the listener is up.
	Ready func(addr string)
}

// RunServe starts the engine, serves HTTP until ctx is done and then shuts
// down the listener and the engine.
func RunServe(ctx context.Context, opts ServeOptions) error {
	if opts.Logger == nil {
		opts.Logger = logging.NewNop()
	}
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics, err := observability.NewMetrics(reg)
	if err != nil {
		return err
	}
	opts.Wrapper.Observer = metrics

	w, closeCache, err := createWrapper(opts.Config, opts.Wrapper, opts.Logger)
	if err != nil {
		return err
	}
	defer closeCache()
	defer func() {
		if err := w.Destroy(context.Background()); err != nil {
			opts.Logger.Warn("engine shutdown failed", "err", err)
		}
	}()

	if err := w.Start(ctx); err != nil {
		return fmt.Errorf("engine did not start: %w", err)
	}

	handler := httpadapter.NewHandler(w,
		httpadapter.WithGatherer(reg),
		httpadapter.WithRateLimit(opts.RateLimit, opts.Burst),
		httpadapter.WithRequestTimeout(opts.RequestTimeout),
		httpadapter.WithVersion(opts.Version),
		httpadapter.WithLogger(opts.Logger),
	)

	ln, err := net.Listen("tcp", opts.Addr)
	if err != nil {
		return err
	}
	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Channel to listen for errors coming from the listener.
	serverErrors := make(chan error, 1)
	go func() {
		opts.Logger.Info("listening", "addr", ln.Addr().String())
		serverErrors <- srv.Serve(ln)
	}()
	if opts.Banner != nil {
		PrintBanner(opts.Banner, opts.Version, ln.Addr().String(), opts.Config.Model)
	}
	if opts.Ready != nil {
		opts.Ready(ln.Addr().String())
	}

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		opts.Logger.Warn("graceful shutdown did not complete", "timeout", ShutdownTimeout, "err", err)
		return srv.Close()
	}
	opts.Logger.Info("server stopped")
	return nil
}
