package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/JavaZeroo/dev-scripts/internal/logger"
	"github.com/JavaZeroo/dev-scripts/pkg/config"
	"github.com/JavaZeroo/dev-scripts/pkg/daterange"
	"github.com/JavaZeroo/dev-scripts/pkg/download"
	"github.com/JavaZeroo/dev-scripts/pkg/hook"
	"github.com/JavaZeroo/dev-scripts/pkg/index"
	"github.com/JavaZeroo/dev-scripts/pkg/model"
	"github.com/JavaZeroo/dev-scripts/pkg/orchestrator"
	"github.com/JavaZeroo/dev-scripts/pkg/progress"
)

type downloadFlags struct {
	startDate     string
	endDate       string
	last          string
	downloadDir   string
	numWorkers    int
	pythonVersion string
	arch          string
	variant       string
	buildPrefix   string
	baseURL       string
	minVersion    string
	retries       int
	insecure      bool
	dryRun        bool
}

// NewDownloadCmd creates the download command.
func NewDownloadCmd() *cobra.Command {
	flags := &downloadFlags{}

	cmd := &cobra.Command{
		Use:   "download",
		Short: "Download nightly build packages for a date range",
		Long: `Download build packages published on the remote version index.
Dates come either from an explicit --start-date/--end-date pair (YYYYMMDD,
inclusive) or from a shortcut like --last 7days / --last 2weeks.

Partial downloads are resumed from the existing local bytes; re-running the
same range only fetches what is missing.`,
		Example: `  dev-scripts download --start-date 20251201 --end-date 20251215
  dev-scripts download --last 7days --python-version cp310
  dev-scripts download --last 2weeks --dry-run`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDownload(cmd, flags)
		},
	}

	cmd.Flags().StringVar(&flags.startDate, "start-date", "", "start date YYYYMMDD (inclusive)")
	cmd.Flags().StringVar(&flags.endDate, "end-date", "", "end date YYYYMMDD (inclusive)")
	cmd.Flags().StringVar(&flags.last, "last", "", "date range shortcut, e.g. 7days, 2weeks, 3months")
	cmd.Flags().StringVar(&flags.downloadDir, "download-dir", "", "destination directory")
	cmd.Flags().IntVar(&flags.numWorkers, "num-workers", 0, "number of concurrent transfers")
	cmd.Flags().StringVar(&flags.pythonVersion, "python-version", "", "python tag filter (cp39/cp310/cp311)")
	cmd.Flags().StringVar(&flags.arch, "arch", "", "architecture directory (aarch64, x86_64, ...)")
	cmd.Flags().StringVar(&flags.variant, "variant", "", "variant directory")
	cmd.Flags().StringVar(&flags.buildPrefix, "build-prefix", "", "build directory prefix (master_, nightly_, ...)")
	cmd.Flags().StringVar(&flags.baseURL, "base-url", "", "index root URL")
	cmd.Flags().StringVar(&flags.minVersion, "version", "", "version constraint, e.g. '>= 2.4.0'")
	cmd.Flags().IntVar(&flags.retries, "retries", 0, "max retries per request")
	cmd.Flags().BoolVar(&flags.insecure, "insecure", false, "skip TLS certificate verification")
	cmd.Flags().BoolVar(&flags.dryRun, "dry-run", false, "list matching files without downloading")
	cmd.MarkFlagsMutuallyExclusive("last", "start-date")
	cmd.MarkFlagsMutuallyExclusive("last", "end-date")

	return cmd
}

func runDownload(cmd *cobra.Command, flags *downloadFlags) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyDownloadFlags(cmd, cfg, flags)

	idx, err := index.New(index.Options{
		BaseURL:     cfg.Downloader.BaseURL,
		BuildPrefix: cfg.Downloader.BuildPrefix,
		Variant:     cfg.Downloader.Variant,
		Arch:        cfg.Downloader.Arch,
		Timeout:     cfg.Downloader.ConnectTimeout + cfg.Downloader.ReadTimeout,
		Retries:     cfg.Downloader.Retries,
		Insecure:    cfg.Downloader.Insecure,
	})
	if err != nil {
		return err
	}

	dl := download.NewManager(download.Options{
		Retries:       cfg.Downloader.Retries,
		HeaderTimeout: cfg.Downloader.ConnectTimeout,
		Insecure:      cfg.Downloader.Insecure,
	})

	reporter := progress.NewReporter(progress.ReporterOptions{})

	orch := &orchestrator.Orchestrator{
		Index: idx,
		DL:    dl,
		Hook:  hook.NewExecutor(),
		Hooks: orchestrator.Hooks{OnEvent: logEvent},
	}

	opts := orchestrator.Options{
		Range: daterange.Spec{
			Last:  flags.last,
			Start: flags.startDate,
			End:   flags.endDate,
		},
		Predicate: model.Predicate{
			PythonTag:         cfg.Downloader.PythonVersion,
			VersionConstraint: flags.minVersion,
		},
		Dir:         cfg.Downloader.DownloadDir,
		Concurrency: cfg.Downloader.MaxWorkers,
		DryRun:      flags.dryRun,
		Sink:        reporter,
		HookPath:    cfg.Downloader.PostDownloadHook,
	}

	if !flags.dryRun {
		reporter.Start()
	}
	report, err := orch.Run(cmd.Context(), opts)
	if !flags.dryRun {
		reporter.Stop()
	}
	if err != nil {
		return err
	}

	printReport(report, flags.dryRun)
	if report.HasFailures() {
		return fmt.Errorf("%d task(s) and %d listing(s) failed",
			len(report.Failed), len(report.ListingFailures))
	}
	return nil
}

// applyDownloadFlags overrides the loaded config with every flag the user
// actually set, producing the single fully-resolved configuration the
// pipeline runs from.
func applyDownloadFlags(cmd *cobra.Command, cfg *config.Config, flags *downloadFlags) {
	set := cmd.Flags().Changed
	if set("download-dir") {
		cfg.Downloader.DownloadDir = flags.downloadDir
	}
	if set("num-workers") && flags.numWorkers > 0 {
		cfg.Downloader.MaxWorkers = flags.numWorkers
	}
	if set("python-version") {
		cfg.Downloader.PythonVersion = flags.pythonVersion
	}
	if set("arch") {
		cfg.Downloader.Arch = flags.arch
	}
	if set("variant") {
		cfg.Downloader.Variant = flags.variant
	}
	if set("build-prefix") {
		cfg.Downloader.BuildPrefix = flags.buildPrefix
	}
	if set("base-url") {
		cfg.Downloader.BaseURL = flags.baseURL
	}
	if set("retries") && flags.retries > 0 {
		cfg.Downloader.Retries = flags.retries
	}
	if set("insecure") {
		cfg.Downloader.Insecure = flags.insecure
	}
}

func logEvent(e orchestrator.Event) {
	switch e.Phase {
	case "listing":
		logger.Debugf("listing %s", e.ID)
	case "planning":
		logger.Infof("[dry-run] %s", e.Msg)
	case "downloading":
		logger.Debugf("downloading %s", e.Msg)
	}
}

func printReport(report *orchestrator.Report, dryRun bool) {
	if dryRun {
		logger.Infof("[dry-run] %s", report.Summary())
	} else {
		logger.Info(report.Summary())
	}
	for _, lf := range report.ListingFailures {
		logger.Warn("listing unavailable", logger.Fields{"date": lf.Date, "err": lf.Err})
	}
	for _, f := range report.Failed {
		logger.Error("task failed", logger.Fields{"file": f.Filename, "reason": f.Reason})
	}
	if !report.HasFailures() && !dryRun {
		logger.Successf("all downloads finished at %s", time.Now().Format(time.Kitchen))
	}
}
