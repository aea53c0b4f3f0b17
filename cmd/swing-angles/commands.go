package main

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/banshee-data/swing.kinematics/internal/anglesdb"
	"github.com/banshee-data/swing.kinematics/internal/config"
	"github.com/banshee-data/swing.kinematics/internal/evaluate"
	"github.com/banshee-data/swing.kinematics/internal/fsutil"
	"github.com/banshee-data/swing.kinematics/internal/monitoring"
	"github.com/banshee-data/swing.kinematics/internal/report"
	"github.com/banshee-data/swing.kinematics/internal/units"
)

const commandHelp = `Usage: swing-angles [flags] [command]

With no command the batch runs over -in.

Commands:
  migrate up|down|status  manage the -db schema
  runs [run_id]           list stored runs, or the trials of one run
  export <run_id>         write a stored run to -out as a joint angle CSV
  plot-metrics <csv>      plot the median absolute error bars of a metrics CSV into -plots
`

// runCommand executes the subcommand named by args[0]. Output meant for the
// user goes to w; progress goes through the monitoring logger.
func runCommand(args []string, cfg *config.RunConfig, fsys fsutil.FileSystem, w io.Writer) error {
	switch args[0] {
	case "migrate":
		if len(args) < 2 {
			return errors.New("usage: swing-angles -db <path> migrate up|down|status")
		}
		return withDB(cfg, func(db *anglesdb.DB) error { return migrateCommand(db, args[1], w) })
	case "runs":
		return withDB(cfg, func(db *anglesdb.DB) error {
			if len(args) > 1 {
				return listTrials(db, args[1], cfg.GetExitVelocityUnits(), w)
			}
			return listRuns(db, w)
		})
	case "export":
		if len(args) < 2 {
			return errors.New("usage: swing-angles -db <path> -out <csv> export <run_id>")
		}
		return withDB(cfg, func(db *anglesdb.DB) error { return exportRun(db, args[1], cfg, fsys) })
	case "plot-metrics":
		if len(args) < 2 {
			return errors.New("usage: swing-angles -plots <dir> plot-metrics <metrics.csv>")
		}
		return plotMetrics(fsys, args[1], cfg.GetPlotsDir())
	case "help":
		_, err := io.WriteString(w, commandHelp)
		return err
	default:
		return fmt.Errorf("unknown command %q\n\n%s", args[0], commandHelp)
	}
}

func withDB(cfg *config.RunConfig, fn func(db *anglesdb.DB) error) error {
	path := cfg.GetDatabasePath()
	if path == "" {
		return errors.New("no database configured; set -db or database_path")
	}
	db, err := anglesdb.Open(path)
	if err != nil {
		return err
	}
	defer db.Close()
	return fn(db)
}

func migrateCommand(db *anglesdb.DB, action string, w io.Writer) error {
	switch action {
	case "up":
		monitoring.Logf("running migrations...")
		if err := db.MigrateUp(); err != nil {
			return err
		}
	case "down":
		monitoring.Logf("rolling back one migration...")
		if err := db.MigrateDown(); err != nil {
			return err
		}
	case "status":
	default:
		return fmt.Errorf("unknown migrate action %q", action)
	}
	version, dirty, err := db.MigrateVersion()
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "schema version %d (dirty: %v)\n", version, dirty)
	return err
}

func listRuns(db *anglesdb.DB, w io.Writer) error {
	runs, err := db.ListRuns()
	if err != nil {
		return err
	}
	for _, r := range runs {
		finished := "running"
		if !r.FinishedAt.IsZero() {
			finished = r.FinishedAt.Format(time.RFC3339)
		}
		trials, err := db.ListTrials(r.ID)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "%s\t%s\t%s\t%d trials\t%d failed\n",
			r.ID, r.StartedAt.Format(time.RFC3339), finished, len(trials), r.FailedTrials); err != nil {
			return err
		}
	}
	return nil
}

func listTrials(db *anglesdb.DB, runID, evUnits string, w io.Writer) error {
	run, err := db.GetRun(runID)
	if err != nil {
		return err
	}
	trials, err := db.ListTrials(run.ID)
	if err != nil {
		return err
	}
	for _, t := range trials {
		md := t.Metadata
		if _, err := fmt.Fprintf(w, "%s\tuser %s\thand %s\tswing %d\t%d samples\texit velocity %.1f %s\n",
			t.SessionSwing, md.UserID, md.BatterHand, md.Swing, t.Samples,
			units.ConvertExitVelocity(md.ExitVelocity, evUnits), evUnits); err != nil {
			return err
		}
	}
	return nil
}

func exportRun(db *anglesdb.DB, runID string, cfg *config.RunConfig, fsys fsutil.FileSystem) error {
	tbl, err := db.LoadTable(runID)
	if err != nil {
		return err
	}
	if err := writeFile(fsys, cfg.GetOutputCSV(), tbl.Write); err != nil {
		return fmt.Errorf("failed to write angles: %w", err)
	}
	monitoring.Logf("exported run %s (%d rows) to %s", runID, len(tbl.Rows), cfg.GetOutputCSV())
	return nil
}

func plotMetrics(fsys fsutil.FileSystem, metricsPath, dir string) error {
	if dir == "" {
		return errors.New("no plots directory configured; set -plots or plots_dir")
	}
	f, err := fsys.Open(metricsPath)
	if err != nil {
		return fmt.Errorf("failed to open metrics: %w", err)
	}
	metrics, err := evaluate.ReadMetrics(f)
	f.Close()
	if err != nil {
		return fmt.Errorf("metrics %s: %w", metricsPath, err)
	}
	path := filepath.Join(dir, "median_absolute_error.png")
	if err := report.WriteMAEPlot(fsys, path, metrics); err != nil {
		return fmt.Errorf("metrics %s: %w", metricsPath, err)
	}
	monitoring.Logf("wrote %s", path)
	return nil
}
