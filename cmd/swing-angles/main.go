// Command swing-angles computes joint angles for every captured swing under
// a trial directory and writes them as one CSV table. It can also store the
// run in SQLite, render per-swing plots and an HTML report, and score the
// angles against a reference table. Subcommands manage and read back the
// database; run "swing-angles help" for the list.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/banshee-data/swing.kinematics/internal/anglesdb"
	"github.com/banshee-data/swing.kinematics/internal/body"
	"github.com/banshee-data/swing.kinematics/internal/config"
	"github.com/banshee-data/swing.kinematics/internal/evaluate"
	"github.com/banshee-data/swing.kinematics/internal/export"
	"github.com/banshee-data/swing.kinematics/internal/fsutil"
	"github.com/banshee-data/swing.kinematics/internal/kinematics"
	"github.com/banshee-data/swing.kinematics/internal/monitoring"
	"github.com/banshee-data/swing.kinematics/internal/report"
	"github.com/banshee-data/swing.kinematics/internal/security"
	"github.com/banshee-data/swing.kinematics/internal/timeseries"
	"github.com/banshee-data/swing.kinematics/internal/timeutil"
	"github.com/banshee-data/swing.kinematics/internal/trial"
	"github.com/banshee-data/swing.kinematics/internal/units"
	"github.com/banshee-data/swing.kinematics/internal/version"
)

var (
	configPath  = flag.String("config", "", "path to run config JSON (defaults to "+config.DefaultConfigPath+" when present)")
	inputDir    = flag.String("in", "", "trial directory, one sub-directory per session")
	outputCSV   = flag.String("out", "", "joint angle CSV to write")
	dbPath      = flag.String("db", "", "sqlite database to record the run in")
	plotsDir    = flag.String("plots", "", "directory for per-swing PNG plots")
	reportHTML  = flag.String("report", "", "HTML report to write")
	referenceIn = flag.String("reference", "", "reference joint angle CSV to evaluate against")
	metricsCSV  = flag.String("metrics", "", "error metrics CSV to write when -reference is set")
	workers     = flag.Int("workers", 0, "number of trials processed concurrently")
	hand        = flag.String("hand", "", "batter hand override for sign conventions (R or L)")
	verboseFlag = flag.Bool("v", false, "log per-trial detail")
	showVersion = flag.Bool("version", false, "print version and exit")
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Println("swing-angles", version.String())
		return
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	applyFlags(cfg)
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	monitoring.SetVerbose(cfg.GetVerbose())

	if flag.NArg() > 0 {
		if err := runCommand(flag.Args(), cfg, fsutil.OSFileSystem{}, os.Stdout); err != nil {
			log.Fatalf("swing-angles %s: %v", flag.Arg(0), err)
		}
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, fsutil.OSFileSystem{}, timeutil.RealClock{}); err != nil {
		log.Fatalf("swing-angles: %v", err)
	}
}

// loadConfig reads path, or the default config when path is empty and the
// default file exists. With neither, every field takes its built-in default.
func loadConfig(path string) (*config.RunConfig, error) {
	if path != "" {
		return config.LoadRunConfig(path)
	}
	if _, err := os.Stat(config.DefaultConfigPath); err == nil {
		return config.LoadRunConfig(config.DefaultConfigPath)
	}
	return config.EmptyRunConfig(), nil
}

// applyFlags copies explicitly set flags over the config file values.
func applyFlags(cfg *config.RunConfig) {
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "in":
			cfg.InputDir = inputDir
		case "out":
			cfg.OutputCSV = outputCSV
		case "db":
			cfg.DatabasePath = dbPath
		case "plots":
			cfg.PlotsDir = plotsDir
		case "report":
			cfg.ReportHTML = reportHTML
		case "reference":
			cfg.ReferenceCSV = referenceIn
		case "metrics":
			cfg.MetricsCSV = metricsCSV
		case "workers":
			cfg.Workers = workers
		case "hand":
			cfg.BatterHandOverride = hand
		case "v":
			cfg.Verbose = verboseFlag
		}
	})
}

// run executes one batch: discover, compute, then write every configured
// output. Failed trials are logged and skipped; the batch fails when none
// succeeds.
func run(ctx context.Context, cfg *config.RunConfig, fsys fsutil.FileSystem, clock timeutil.Clock) error {
	override := body.SideNone
	if h := cfg.GetBatterHandOverride(); h != "" {
		side, err := body.ParseSide(h)
		if err != nil {
			return err
		}
		override = side
	}

	trials, err := trial.Discover(fsys, cfg.GetInputDir(), trial.DiscoverOptions{
		Extension:     cfg.GetTrialExtension(),
		ExcludeSuffix: cfg.GetExcludeSuffix(),
	})
	if err != nil {
		return err
	}
	if len(trials) == 0 {
		return fmt.Errorf("no trials found under %s", cfg.GetInputDir())
	}
	monitoring.Logf("found %d trials under %s", len(trials), cfg.GetInputDir())

	outcomes := kinematics.Run(ctx, body.DefaultModel(), trials, kinematics.Options{
		Workers:    cfg.GetWorkers(),
		BatterHand: override,
		Load: func(t trial.Trial) (*timeseries.Series, error) {
			return trial.LoadMarkers(fsys, t.Path)
		},
		Clock: clock,
	})

	evUnits := cfg.GetExitVelocityUnits()
	var results []*kinematics.Result
	failed := 0
	for _, o := range outcomes {
		if o.Err != nil {
			failed++
			monitoring.Logf("skipping %s: %v", o.Trial.SessionSwing, o.Err)
			continue
		}
		results = append(results, o.Result)
		md := o.Trial.Metadata
		monitoring.Debugf("%s: swing %d, hand %s, exit velocity %.1f %s",
			o.Trial.SessionSwing, md.Swing, md.BatterHand, units.ConvertExitVelocity(md.ExitVelocity, evUnits), evUnits)
	}
	if len(results) == 0 {
		return errors.New("no trial produced joint angles")
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("run interrupted after %d trials: %w", len(results), err)
	}

	if err := writeFile(fsys, cfg.GetOutputCSV(), func(w io.Writer) error {
		return export.WriteAngles(w, results)
	}); err != nil {
		return fmt.Errorf("failed to write angles: %w", err)
	}
	monitoring.Logf("wrote %d trials to %s", len(results), cfg.GetOutputCSV())

	if path := cfg.GetDatabasePath(); path != "" {
		if err := record(path, cfg, clock, results, failed); err != nil {
			return err
		}
	}

	if dir := cfg.GetPlotsDir(); dir != "" {
		for _, res := range results {
			if _, err := report.WriteJointPlots(fsys, dir, res); err != nil {
				return err
			}
		}
		monitoring.Logf("wrote %d joint plots to %s", len(results), dir)
	}

	var metrics []evaluate.Metric
	if ref := cfg.GetReferenceCSV(); ref != "" {
		metrics, err = evaluateAgainst(fsys, ref, cfg, results)
		if err != nil {
			return err
		}
	}

	if path := cfg.GetReportHTML(); path != "" {
		if err := writeFile(fsys, path, func(w io.Writer) error {
			return report.WriteHTMLReport(w, results, metrics, evUnits)
		}); err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}
		monitoring.Logf("wrote report to %s", path)
	}
	return nil
}

// record stores the run and every result in the angles database.
func record(path string, cfg *config.RunConfig, clock timeutil.Clock, results []*kinematics.Result, failed int) error {
	db, err := anglesdb.Open(path)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := db.MigrateUp(); err != nil {
		return err
	}

	cfgJSON, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	runID, err := db.StartRun(clock, string(cfgJSON))
	if err != nil {
		return err
	}
	for _, res := range results {
		if err := db.RecordResult(runID, res); err != nil {
			return err
		}
	}
	if err := db.FinishRun(clock, runID, failed); err != nil {
		return err
	}
	monitoring.Logf("recorded run %s in %s", runID, path)
	return nil
}

// evaluateAgainst scores results against the reference table and writes the
// metrics CSV, plus comparison and error plots when plots are enabled.
func evaluateAgainst(fsys fsutil.FileSystem, refPath string, cfg *config.RunConfig, results []*kinematics.Result) ([]evaluate.Metric, error) {
	f, err := fsys.Open(refPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open reference: %w", err)
	}
	reference, err := export.ReadAngles(f)
	f.Close()
	if err != nil {
		return nil, fmt.Errorf("reference %s: %w", refPath, err)
	}

	source := export.FromResults(results)
	metrics := evaluate.Compare(source, reference, evaluate.Options{
		Skip:     cfg.SkipSet(),
		Decimals: cfg.GetTimeRoundDecimals(),
	})
	monitoring.Logf("computed %d metrics against %s", len(metrics), refPath)

	if path := cfg.GetMetricsCSV(); path != "" {
		if err := writeFile(fsys, path, func(w io.Writer) error {
			return evaluate.WriteMetrics(w, metrics)
		}); err != nil {
			return nil, fmt.Errorf("failed to write metrics: %w", err)
		}
	}

	if dir := cfg.GetPlotsDir(); dir != "" {
		if err := fsys.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create plots dir: %w", err)
		}
		for _, ss := range source.SessionSwings() {
			if len(reference.Session(ss).Rows) == 0 {
				continue
			}
			path, err := security.OutputPath(dir, ss+"_comparison.png")
			if err != nil {
				return nil, err
			}
			if err := report.WriteComparisonPlot(fsys, path, ss, source, reference); err != nil {
				return nil, err
			}
		}
		if len(report.MAEBars(metrics)) > 0 {
			if err := report.WriteMAEPlot(fsys, filepath.Join(dir, "median_absolute_error.png"), metrics); err != nil {
				return nil, err
			}
		}
	}
	return metrics, nil
}

// writeFile creates path and its parent directory and streams fn's output
// into it.
func writeFile(fsys fsutil.FileSystem, path string, fn func(w io.Writer) error) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := fsys.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := fsys.Create(path)
	if err != nil {
		return err
	}
	if err := fn(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
