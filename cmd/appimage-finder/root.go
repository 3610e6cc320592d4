package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"appimagefinder/internal/adapters/output"
	"appimagefinder/internal/core/appimage"
	"appimagefinder/internal/core/version"
	"appimagefinder/internal/core/window"
	"appimagefinder/internal/modkit"
	"appimagefinder/internal/platform/config"
	perr "appimagefinder/internal/platform/errors"
	"appimagefinder/internal/platform/logger"
	"appimagefinder/internal/platform/metrics"
	"appimagefinder/internal/platform/store"
	"appimagefinder/internal/services/finder/domain"
	"appimagefinder/internal/services/finder/ingest"
	findermod "appimagefinder/internal/services/finder/module"
)

// cliFlags holds the raw command line
type cliFlags struct {
	start, end       string
	format, output   string
	arch             string
	includeChecksums bool
	keepAll          bool
	summary          bool

	cacheDir    string
	workers     int
	delay       time.Duration
	metricsFile string
	ledger      string
}

func newRootCmd(out io.Writer) *cobra.Command {
	f := &cliFlags{}
	cmd := &cobra.Command{
		Use:   "appimage-finder",
		Short: "Find AppImage releases published on GitHub in a time window.",
		Long: `appimage-finder scans the hourly GH Archive event dumps for published
releases that carry AppImage assets, keeps the newest release per repository
and architecture, and writes the result as JSON, CSV or Parquet.

Times are UTC and may be given as YYYY, YYYY-MM, YYYY-MM-DD or YYYY-MM-DD-HH.
The end time covers the last hour of its own granularity.`,
		Version:       version.Info().Version,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), cmd, f, out)
		},
	}
	cmd.SetOut(out)

	fs := cmd.Flags()
	fs.StringVar(&f.start, "start-time", "", "Window start (YYYY[-MM[-DD[-HH]]], UTC)")
	fs.StringVar(&f.end, "end-time", "", "Window end, inclusive (YYYY[-MM[-DD[-HH]]], UTC)")
	fs.StringVar(&f.format, "format", string(output.JSON), "Output format: json or csv or parquet")
	fs.StringVarP(&f.output, "output", "o", "appimages", "Output file prefix; files are <prefix>-<arch>.<ext>")
	fs.StringVar(&f.arch, "arch", string(appimage.ArchAll), "Architecture: x86_64 or aarch64 or all")
	fs.BoolVar(&f.includeChecksums, "include-checksums", false, "Also emit checksum files of kept AppImages. They share the AppImage's repo and arch, so use --keep-all to get both; otherwise whichever the release lists first wins")
	fs.BoolVar(&f.keepAll, "keep-all", false, "Keep every release instead of the newest per repo and architecture")
	fs.BoolVar(&f.summary, "summary", false, "Print a per-architecture summary table")
	fs.StringVar(&f.cacheDir, "cache-dir", "", "Shard cache directory (env APPIMAGE_INGEST_CACHE_DIR, default "+ingest.DefaultCacheDir+")")
	fs.IntVar(&f.workers, "workers", 0, "Hours fetched in parallel (env APPIMAGE_FINDER_WORKERS, default 1)")
	fs.DurationVar(&f.delay, "delay", 0, "Pause between hours (env APPIMAGE_FINDER_DELAY, default 200ms)")
	fs.StringVar(&f.metricsFile, "metrics-file", "", "Write Prometheus metrics to this textfile when done")
	fs.StringVar(&f.ledger, "ledger", "", "Run ledger: sqlite or none or a postgres:// URL (env APPIMAGE_LEDGER_DRIVER)")

	cmd.AddCommand(newVersionCmd())
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), version.Info().String())
			return err
		},
	}
}

// applyFlags pushes explicitly set flags into the environment so module
// config readers see them over env defaults
func applyFlags(cmd *cobra.Command, f *cliFlags, root config.Conf) error {
	set := func(flag string, c config.Conf, key, val string) error {
		if !cmd.Flags().Changed(flag) {
			return nil
		}
		return c.Set(key, val)
	}
	ing := root.Prefix("APPIMAGE_INGEST_")
	fin := root.Prefix("APPIMAGE_FINDER_")
	led := root.Prefix("APPIMAGE_LEDGER_")

	if err := set("cache-dir", ing, "CACHE_DIR", f.cacheDir); err != nil {
		return err
	}
	if err := set("workers", fin, "WORKERS", strconv.Itoa(f.workers)); err != nil {
		return err
	}
	if err := set("delay", fin, "DELAY", f.delay.String()); err != nil {
		return err
	}
	if !cmd.Flags().Changed("ledger") {
		return nil
	}
	v := strings.TrimSpace(f.ledger)
	if strings.HasPrefix(v, "postgres://") || strings.HasPrefix(v, "postgresql://") {
		if err := led.Set("URL", v); err != nil {
			return err
		}
		v = store.DriverPostgres
	}
	switch strings.ToLower(v) {
	case store.DriverSQLite, store.DriverPostgres, store.DriverNone:
		return led.Set("DRIVER", strings.ToLower(v))
	default:
		return perr.WithField(perr.InvalidArgf("unknown ledger %q (want sqlite, none or a postgres URL)", f.ledger), "ledger")
	}
}

// request validates the scan parameters before anything touches disk or network
func request(f *cliFlags) (domain.Request, output.Format, error) {
	if f.start == "" {
		return domain.Request{}, "", perr.WithField(perr.InvalidArgf("--start-time is required"), "start-time")
	}
	if f.end == "" {
		return domain.Request{}, "", perr.WithField(perr.InvalidArgf("--end-time is required"), "end-time")
	}
	w, err := window.Resolve(f.start, f.end)
	if err != nil {
		return domain.Request{}, "", err
	}
	target, err := appimage.ParseTarget(f.arch)
	if err != nil {
		return domain.Request{}, "", err
	}
	format, err := output.ParseFormat(f.format)
	if err != nil {
		return domain.Request{}, "", err
	}
	return domain.Request{
		Window:           w,
		Target:           target,
		IncludeChecksums: f.includeChecksums,
		KeepAll:          f.keepAll,
	}, format, nil
}

func run(ctx context.Context, cmd *cobra.Command, f *cliFlags, out io.Writer) error {
	log := logger.Get()
	root := config.New()

	req, format, err := request(f)
	if err != nil {
		return err
	}
	if err := applyFlags(cmd, f, root); err != nil {
		return err
	}

	deps := modkit.Deps{Log: *log, Cfg: root, Metrics: metrics.New()}
	cacheDir := ingest.FetchOptionsFromConfig(deps).CacheDir

	ledgerCfg, err := findermod.LedgerConfig(root, cacheDir)
	if err != nil {
		return err
	}
	st, err := store.Open(ctx, ledgerCfg, store.WithLogger(*log))
	if err != nil {
		log.Warn().Err(err).Msg("ledger unavailable, continuing without it")
		st = &store.Store{Driver: store.DriverNone}
	}
	defer func() {
		if err := st.Close(); err != nil {
			log.Warn().Err(err).Msg("failed to close ledger store")
		}
	}()
	deps.Store = st

	mod, err := findermod.New(ctx, deps)
	if err != nil {
		return err
	}
	defer func() { _ = mod.Close() }()

	res, runErr := modkit.MustPortsOf[domain.RunnerPort](mod).Run(ctx, req)
	defer func() {
		if err := deps.Metrics.WriteTextfile(f.metricsFile); err != nil {
			log.Warn().Err(err).Str("path", f.metricsFile).Msg("failed to write metrics textfile")
		}
	}()
	if runErr != nil {
		return runErr
	}

	var files []string
	if !res.Empty {
		files, err = output.Write(res.Records, output.Options{Prefix: f.output, Format: format, Target: req.Target})
		if err != nil {
			return err
		}
	}

	if f.summary {
		if err := output.PrintSummary(out, res, files); err != nil {
			return err
		}
	} else if err := printResult(out, res, files, f.output, format); err != nil {
		return err
	}

	if res.Partial {
		return errInterrupted
	}
	return nil
}

// printResult is the one line report used without --summary
func printResult(out io.Writer, res domain.Result, files []string, prefix string, format output.Format) error {
	if res.Empty {
		_, err := fmt.Fprintln(out, "No AppImage releases found in the requested window.")
		return err
	}
	name := output.FileName(prefix, "<arch>", format)
	if res.Target != appimage.ArchAll {
		name = files[0]
	}
	_, err := fmt.Fprintf(out, "Found %d AppImage records in %d files, saved as %s\n", len(res.Records), len(files), name)
	return err
}
