package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	_ "gocloud.dev/blob/fileblob"
	_ "gocloud.dev/blob/gcsblob"
	_ "gocloud.dev/blob/memblob"
	_ "gocloud.dev/blob/s3blob"

	"github.com/MrTarik2112/FileCreator/internal/config"
	"github.com/MrTarik2112/FileCreator/internal/logging"
	"github.com/MrTarik2112/FileCreator/internal/metrics"
	"github.com/MrTarik2112/FileCreator/internal/progress"
	"github.com/MrTarik2112/FileCreator/internal/report"
	"github.com/MrTarik2112/FileCreator/pkg/rangefill"
)

// createFlags holds flag values; only flags the user set override the
// loaded configuration.
type createFlags struct {
	workers        int
	bufferSize     int64
	fill           string
	turbo          bool
	interval       time.Duration
	rateLimit      int64
	sync           bool
	allocation     string
	logFormat      string
	logLevel       string
	metricsAddress string
	reportURL      string
	quiet          bool
}

func buildCreateCommand(stdout, stderr io.Writer) *cobra.Command {
	var f createFlags

	cmd := &cobra.Command{
		Use:   "create [path] [size]",
		Short: "Create a file of the given size",
		Long: `Create a file of the given size by writing disjoint byte ranges in parallel.

The size accepts a plain byte count or a number with a unit: B, KB, MB, GB,
TB or PB (1024-based), for example "100MB", "1.5 GB" or "1073741824".
Path and size may also come from the config file or FILECREATOR_PATH and
FILECREATOR_SIZE.`,
		Example: `  filecreator create disk.img 10GB
  filecreator create data.bin 512 MB --fill random --workers 8
  filecreator create -c job.yaml --report-url file:///var/lib/filecreator`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			cfg, err = applyCreateArgs(cmd, cfg, args, &f)
			if err != nil {
				return err
			}
			return runCreate(cmd.Context(), cfg, f.quiet, stdout, stderr)
		},
	}

	fl := cmd.Flags()
	fl.IntVarP(&f.workers, "workers", "w", 0, "Number of parallel workers (0 = auto)")
	fl.VarP(newSizeFlag(&f.bufferSize), "buffer", "b", "Buffer size per worker (default 32MB)")
	fl.StringVar(&f.fill, "fill", "", "Data pattern: zero or random (default zero)")
	fl.BoolVar(&f.turbo, "turbo", false, "Use at least 4 workers and 32MB buffers")
	fl.DurationVar(&f.interval, "interval", 0, "Progress sampling interval (default 30ms)")
	fl.Var(newSizeFlag(&f.rateLimit), "rate-limit", "Cap combined write rate per second, e.g. 200MB (0 = unlimited)")
	fl.BoolVar(&f.sync, "sync", false, "Flush the file to stable storage before finishing")
	fl.StringVar(&f.allocation, "allocation", "", "Preallocation: auto, fallocate or truncate (default auto)")
	fl.StringVar(&f.logFormat, "log-format", "", "Log format: text or json")
	fl.StringVar(&f.logLevel, "log-level", "", "Log level: debug, info, warn or error")
	fl.StringVar(&f.metricsAddress, "metrics-address", "", "Serve Prometheus metrics on this address while running")
	fl.StringVar(&f.reportURL, "report-url", "", "Bucket URL to store the run report in")
	fl.BoolVarP(&f.quiet, "quiet", "q", false, "Suppress progress output")

	return cmd
}

// applyCreateArgs layers positional arguments and explicitly set flags over
// cfg, then validates and normalizes the result.
func applyCreateArgs(cmd *cobra.Command, cfg config.Config, args []string, f *createFlags) (config.Config, error) {
	var override config.Config
	if len(args) > 0 {
		override.Path = args[0]
	}
	if len(args) > 1 {
		size, err := parseSize(args[1:])
		if err != nil {
			return config.Config{}, err
		}
		override.Size = size
	}
	cfg = cfg.Merge(override)

	fl := cmd.Flags()
	if fl.Changed("workers") {
		cfg.Workers = f.workers
	}
	if fl.Changed("buffer") {
		cfg.BufferSize = f.bufferSize
	}
	if fl.Changed("fill") {
		cfg.Fill = f.fill
	}
	if fl.Changed("turbo") {
		cfg.Turbo = f.turbo
	}
	if fl.Changed("interval") {
		cfg.Interval = f.interval
	}
	if fl.Changed("rate-limit") {
		cfg.RateLimit = f.rateLimit
	}
	if fl.Changed("sync") {
		cfg.Sync = f.sync
	}
	if fl.Changed("allocation") {
		cfg.Allocation = f.allocation
	}
	if fl.Changed("log-format") {
		cfg.Log.Format = f.logFormat
	}
	if fl.Changed("log-level") {
		cfg.Log.Level = f.logLevel
	}
	if fl.Changed("metrics-address") {
		cfg.Metrics.Address = f.metricsAddress
	}
	if fl.Changed("report-url") {
		cfg.Report.URL = f.reportURL
	}

	if err := cfg.Validate(); err != nil {
		return config.Config{}, withCode(ExitInvalidArgs, err)
	}
	return cfg.Normalize(runtime.NumCPU()), nil
}

func runCreate(ctx context.Context, cfg config.Config, quiet bool, stdout, stderr io.Writer) error {
	logger := logging.Setup(cfg.Log, stderr)
	jobID := logging.NewJobID()
	ctx = logging.WithJobID(ctx, jobID)
	log := logging.JobLogger(logger, jobID)

	job, err := cfg.Job()
	if err != nil {
		return withCode(ExitInvalidArgs, err)
	}
	opts, err := cfg.Options(log)
	if err != nil {
		return withCode(ExitInvalidArgs, err)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			fmt.Fprintln(stderr, "\n[filecreator] Received interrupt, stopping workers...")
			cancel()
		case <-ctx.Done():
		}
	}()

	var m *metrics.Metrics
	if cfg.Metrics.Address != "" {
		reg := prometheus.NewRegistry()
		m = metrics.New(reg, metrics.DefaultNamespace)
		srv, err := metrics.StartServer(cfg.Metrics.Address, reg)
		if err != nil {
			return withCode(ExitSinkError, err)
		}
		metricsLog := logging.Component("metrics").With("job_id", jobID)
		metricsLog.Info("serving metrics", "address", srv.Addr())
		go logServeError(srv.Err(), metricsLog)
		defer func() {
			shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
			defer done()
			srv.Shutdown(shutdownCtx)
		}()
	}

	out := stdout
	if quiet {
		out = io.Discard
	}
	reporter := progress.NewReporter(progress.Options{
		Path:       job.Path,
		TotalSize:  job.Size,
		Workers:    job.Workers,
		BufferSize: job.BufferSize,
		Fill:       job.Fill.String(),
		Turbo:      cfg.Turbo,
		Output:     out,
	})
	fmt.Fprintf(out, "[filecreator] Job: %s\n", jobID)
	reporter.Start()

	startedAt := time.Now()
	j, err := rangefill.Start(ctx, job, opts)
	if err != nil {
		sum := rangefill.Summary{Path: job.Path, TotalBytes: job.Size, Workers: job.Workers, BufferSize: job.BufferSize, Err: err}
		if m != nil {
			m.Finish(sum)
		}
		return err
	}

	for snap := range j.Snapshots() {
		reporter.Update(snap)
		if m != nil {
			m.Observe(snap)
		}
	}
	sum, jobErr := j.Wait()
	reporter.Finish(sum)
	if m != nil {
		m.Finish(sum)
	}

	if cfg.Report.URL != "" {
		r := report.New(jobID, job, opts, j.Extents(), sum, startedAt)
		r.Settings.Turbo = cfg.Turbo
		if err := saveReport(ctx, cfg.Report.URL, r); err != nil && jobErr == nil {
			return withCode(ExitSinkError, err)
		}
	}

	return jobErr
}

// saveReport stores r even when ctx is already canceled, so interrupted runs
// are recorded too.
func saveReport(ctx context.Context, bucketURL string, r *report.Report) error {
	log := logging.Component("report").With("job_id", logging.JobID(ctx))
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
	defer cancel()

	store, err := report.Open(ctx, bucketURL)
	if err != nil {
		log.Error("open report bucket failed", "error", err)
		return err
	}
	defer store.Close()

	key, err := store.Save(ctx, r)
	if err != nil {
		log.Error("save report failed", "error", err)
		return err
	}
	log.Info("report saved", "bucket", bucketURL, "key", key)
	return nil
}

// logServeError reports a metrics server that stopped for any reason other
// than shutdown. The job keeps running without the endpoint.
func logServeError(errs <-chan error, log *slog.Logger) {
	if err := <-errs; err != nil {
		log.Error("metrics server stopped", "error", err)
	}
}
