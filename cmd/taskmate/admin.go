package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"text/tabwriter"

	"golang.org/x/term"

	"github.com/Strob0t/TaskMate/internal/adapter/csvimport"
	"github.com/Strob0t/TaskMate/internal/adapter/postgres"
	"github.com/Strob0t/TaskMate/internal/config"
	"github.com/Strob0t/TaskMate/internal/domain/priority"
	"github.com/Strob0t/TaskMate/internal/logger"
	"github.com/Strob0t/TaskMate/internal/service"
)

// runAdmin dispatches admin subcommands.
func runAdmin(args []string) error {
	if len(args) == 0 || args[0] == "help" || args[0] == "--help" {
		printAdminHelp()
		return nil
	}

	switch args[0] {
	case "migrate-status":
		return runAdminMigrateStatus(args[1:])
	case "rollback":
		return runAdminRollback(args[1:])
	case "import-tasks":
		return runAdminImportTasks(args[1:])
	case "top":
		return runAdminTop(args[1:])
	default:
		printAdminHelp()
		return fmt.Errorf("unknown admin command: %s", args[0])
	}
}

func printAdminHelp() {
	fmt.Fprintf(os.Stderr, `Usage: taskmate admin <command> [options]

Commands:
  migrate-status   Show the applied schema version
  rollback         Roll back the most recent migrations
  import-tasks     Import tasks from a CSV file
  top              Print the most urgent pending tasks
  help             Show this help message

Examples:
  taskmate admin migrate-status
  taskmate admin rollback --steps 1
  taskmate admin import-tasks --file tasks_data.csv
  taskmate admin top --n 10
  taskmate admin top --n 10 --json
`)
}

// adminDeps holds the services admin commands work with.
type adminDeps struct {
	cfg      *config.Config
	tasks    *service.TaskService
	priority *service.PriorityService
}

func loadAdminConfig() (*config.Config, error) {
	cfg, err := config.LoadFrom(configPath())
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	log, _ := logger.New(config.Logging{Level: "warn", Service: cfg.Logging.Service})
	slog.SetDefault(log)
	return cfg, nil
}

func loadAdminDeps(ctx context.Context) (*adminDeps, func(), error) {
	cfg, err := loadAdminConfig()
	if err != nil {
		return nil, nil, err
	}

	pool, err := postgres.NewPool(ctx, cfg.Postgres)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to database: %w", err)
	}
	store := postgres.NewStore(pool)

	sched := service.NewScheduler()
	if err := sched.Load(ctx, store); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("load dependency graph: %w", err)
	}

	deps := &adminDeps{
		cfg:      cfg,
		tasks:    service.NewTaskService(store, sched, nil, nil),
		priority: service.NewPriorityService(store, sched, nil, cfg.Scheduler),
	}
	return deps, pool.Close, nil
}

func runAdminMigrateStatus(args []string) error {
	fs := flag.NewFlagSet("migrate-status", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := loadAdminConfig()
	if err != nil {
		return err
	}
	v, err := postgres.MigrationVersion(context.Background(), cfg.Postgres.DSN)
	if err != nil {
		return fmt.Errorf("migration version: %w", err)
	}
	fmt.Printf("schema version: %d\n", v)
	return nil
}

func runAdminRollback(args []string) error {
	fs := flag.NewFlagSet("rollback", flag.ContinueOnError)
	steps := fs.Int("steps", 1, "number of migrations to roll back")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := loadAdminConfig()
	if err != nil {
		return err
	}
	ctx := context.Background()
	if err := postgres.RollbackMigrations(ctx, cfg.Postgres.DSN, *steps); err != nil {
		return fmt.Errorf("rollback: %w", err)
	}
	v, err := postgres.MigrationVersion(ctx, cfg.Postgres.DSN)
	if err != nil {
		return fmt.Errorf("migration version: %w", err)
	}
	fmt.Fprintf(os.Stderr, "Rolled back %d migration(s); schema version is now %d\n", *steps, v)
	return nil
}

func runAdminImportTasks(args []string) error {
	fs := flag.NewFlagSet("import-tasks", flag.ContinueOnError)
	file := fs.String("file", "", "CSV file to import (required)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *file == "" {
		return fmt.Errorf("--file is required")
	}

	f, err := os.Open(*file)
	if err != nil {
		return fmt.Errorf("open %s: %w", *file, err)
	}
	defer f.Close()

	rows, err := csvimport.Parse(f)
	if err != nil {
		return fmt.Errorf("parse %s: %w", *file, err)
	}

	ctx := context.Background()
	deps, cleanup, err := loadAdminDeps(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	sum, err := csvimport.Import(ctx, rows, deps.tasks)
	if err != nil {
		return fmt.Errorf("import (created %d before failing): %w", sum.Created, err)
	}
	fmt.Fprintf(os.Stderr, "Imported %d task(s), %d assigned\n", sum.Created, sum.Assigned)
	return nil
}

func runAdminTop(args []string) error {
	fs := flag.NewFlagSet("top", flag.ContinueOnError)
	n := fs.Int("n", 0, "number of tasks (default from config)")
	asJSON := fs.Bool("json", false, "force JSON output")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx := context.Background()
	deps, cleanup, err := loadAdminDeps(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	count := *n
	if count == 0 {
		count = deps.priority.DefaultN()
	}
	top, err := deps.priority.TopN(ctx, count)
	if err != nil {
		return fmt.Errorf("rank tasks: %w", err)
	}

	if *asJSON || !term.IsTerminal(int(os.Stdout.Fd())) { //nolint:gosec // fd fits in int
		return writeTopJSON(os.Stdout, top)
	}
	return writeTopTable(os.Stdout, top)
}

func writeTopJSON(w io.Writer, top []priority.Entry) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(top)
}

func writeTopTable(w io.Writer, top []priority.Entry) error {
	if len(top) == 0 {
		_, err := fmt.Fprintln(w, "No pending tasks.")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "RANK\tID\tPRIORITY\tDEADLINE\tDAYS_LEFT\tROLE\tDESCRIPTION")
	for i := range top {
		e := &top[i]
		_, _ = fmt.Fprintf(tw, "%d\t%d\t%d\t%s\t%d\t%s\t%s\n",
			i+1, e.ID, e.Priority, e.Deadline, e.DaysLeft, e.TargetRole, e.Description)
	}
	return tw.Flush()
}
