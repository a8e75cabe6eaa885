// ABOUTME: Offline repair utility for synchro databases
// ABOUTME: Backs up, then restores the New sentinel and cached intervals on every stored contact

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v2"

	"github.com/harperreed/synchro/cadence"
	"github.com/harperreed/synchro/config"
	"github.com/harperreed/synchro/db"
	"github.com/harperreed/synchro/models"
)

func main() {
	app := &cli.App{
		Name:  "synchro-migrate",
		Usage: "Repair scheduling fields on every stored contact",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "db", Usage: "Path to database file (defaults to SYNCHRO_DB_PATH)"},
			&cli.BoolFlag{Name: "dry-run", Usage: "Show what would change without writing"},
			&cli.BoolFlag{Name: "backup", Value: true, Usage: "Create a backup before writing"},
		},
		Action: run,
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	path := cfg.DBPath
	if c.IsSet("db") {
		path = c.String("db")
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("database file does not exist: %s", path)
	}

	logger := cfg.Logger(os.Stderr).WithPrefix("migrate")
	calc, err := cfg.Calculator()
	if err != nil {
		return err
	}

	conn, err := db.OpenDatabase(path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() { _ = conn.Close() }()

	dryRun := c.Bool("dry-run")
	if c.Bool("backup") && !dryRun {
		backupPath := fmt.Sprintf("%s.backup.%s", path, time.Now().Format("20060102-150405"))
		if _, err := conn.ExecContext(c.Context, `VACUUM INTO ?`, backupPath); err != nil {
			return fmt.Errorf("failed to create backup: %w", err)
		}
		logger.Info("backup created", "path", backupPath)
	}

	r := &repairer{
		store:   db.NewStore(conn),
		catalog: cfg.Catalog(),
		calc:    calc,
		now:     time.Now().UTC(),
		dryRun:  dryRun,
		logger:  logger,
	}
	rep, err := r.run(c.Context)
	if err != nil {
		return err
	}
	logger.Info("repair finished",
		"dry_run", dryRun, "owners", rep.Owners, "contacts", rep.Contacts,
		"sentinel_fixed", rep.SentinelFixed, "intervals_filled", rep.IntervalsFilled, "rescheduled", rep.Rescheduled)
	return nil
}

type report struct {
	Owners          int
	Contacts        int
	SentinelFixed   int
	IntervalsFilled int
	Rescheduled     int
}

type repairer struct {
	store   *db.Store
	catalog *cadence.Catalog
	calc    *cadence.Calculator
	now     time.Time
	dryRun  bool
	logger  *log.Logger
}

func (r *repairer) run(ctx context.Context) (report, error) {
	var rep report
	owners, err := r.store.Contacts.Owners(ctx)
	if err != nil {
		return rep, err
	}
	for _, owner := range owners {
		rep.Owners++
		if err := r.repairOwner(ctx, owner, &rep); err != nil {
			return rep, fmt.Errorf("owner %s: %w", owner, err)
		}
	}
	return rep, nil
}

func (r *repairer) repairOwner(ctx context.Context, owner string, rep *report) error {
	settings, err := r.store.Settings.Get(ctx, owner)
	if err != nil {
		return err
	}
	contacts, err := r.store.Contacts.List(ctx, owner)
	if err != nil {
		return err
	}
	for i := range contacts {
		c := &contacts[i]
		rep.Contacts++
		if !r.fix(c, settings.PipelineStages, rep) {
			continue
		}
		r.logger.Info("contact repaired", "contact_id", c.ID, "stage", c.PipelineStage,
			"next_due", c.NextDue, "interval_days", c.TargetIntervalDays, "dry_run", r.dryRun)
		if r.dryRun {
			continue
		}
		// Groups are left as stored.
		c.Groups = nil
		if err := r.store.Contacts.Update(ctx, c); err != nil {
			return err
		}
	}
	return nil
}

// fix repairs c in memory and reports whether anything changed. New contacts
// never carry a due date or interval; scheduled ones need both.
func (r *repairer) fix(c *models.Contact, custom []models.PipelineStage, rep *report) bool {
	if !c.Scheduled() {
		if c.NextDue == nil && c.TargetIntervalDays == 0 {
			return false
		}
		c.NextDue = nil
		c.TargetIntervalDays = 0
		rep.SentinelFixed++
		return true
	}

	changed := false
	p := r.catalog.Resolve(c.PipelineStage, custom)
	if c.TargetIntervalDays <= 0 {
		c.TargetIntervalDays = p.IntervalDays
		rep.IntervalsFilled++
		changed = true
	}
	if c.NextDue == nil {
		c.NextDue = r.calc.Next(c.LastContactDate, r.now, p.WithInterval(c.TargetIntervalDays))
		rep.Rescheduled++
		changed = true
	}
	return changed
}
