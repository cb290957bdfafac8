package main

import (
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/erp/migrator/internal/infrastructure/config"
	"github.com/erp/migrator/internal/infrastructure/logger"
	"github.com/erp/migrator/internal/infrastructure/migration"
	"github.com/erp/migrator/migrations"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

const defaultMigrationsPath = "migrations"

// schemaCommand runs against an open migrator
type schemaCommand struct {
	usage string
	run   func(m *migration.Migrator, args []string, log *zap.Logger) error
}

// fileCommand works on migration files and needs no database
type fileCommand struct {
	usage string
	run   func(dir string, args []string, log *zap.Logger) error
}

var errUsage = errors.New("invalid arguments")

var schemaCommands = map[string]schemaCommand{
	"up": {"Apply all pending migrations", func(m *migration.Migrator, _ []string, _ *zap.Logger) error {
		return m.Up()
	}},
	"down": {"Roll back all migrations", func(m *migration.Migrator, _ []string, _ *zap.Logger) error {
		return m.Down()
	}},
	"step": {"<n>  Apply n migrations (negative rolls back)", func(m *migration.Migrator, args []string, _ *zap.Logger) error {
		n, err := intArg(args)
		if err != nil {
			return err
		}
		return m.Steps(n)
	}},
	"goto": {"<version>  Migrate to a specific version", func(m *migration.Migrator, args []string, _ *zap.Logger) error {
		n, err := intArg(args)
		if err != nil || n < 0 {
			return errUsage
		}
		return m.GoTo(uint(n))
	}},
	"force": {"<version>  Set the version without running migrations (repairs a dirty state)", func(m *migration.Migrator, args []string, _ *zap.Logger) error {
		n, err := intArg(args)
		if err != nil {
			return err
		}
		return m.Force(n)
	}},
	"version": {"Show the applied version", func(m *migration.Migrator, _ []string, log *zap.Logger) error {
		v, dirty, err := m.Version()
		if err != nil {
			return err
		}
		if v == 0 {
			log.Info("No migrations applied")
			return nil
		}
		log.Info("Current migration version", zap.Uint("version", v), zap.Bool("dirty", dirty))
		return nil
	}},
	"drop": {"-confirm  Drop every object of the target schema", func(m *migration.Migrator, args []string, _ *zap.Logger) error {
		if len(args) == 0 || (args[0] != "-confirm" && args[0] != "--confirm") {
			return fmt.Errorf("%w: drop needs -confirm", errUsage)
		}
		return m.Drop()
	}},
}

var fileCommands = map[string]fileCommand{
	"create": {"<name> [description]  Write a new up/down pair", func(dir string, args []string, log *zap.Logger) error {
		if len(args) == 0 {
			return fmt.Errorf("%w: create needs a name", errUsage)
		}
		desc := ""
		if len(args) > 1 {
			desc = args[1]
		}
		if dir == "" {
			dir = defaultMigrationsPath
		}
		mf, err := migration.CreateMigration(dir, args[0], desc)
		if err != nil {
			return err
		}
		log.Info("Migration created",
			zap.String("version", mf.Version),
			zap.String("up_file", mf.UpPath),
			zap.String("down_file", mf.DownPath),
		)
		return nil
	}},
	"list": {"List available migrations", func(dir string, _ []string, log *zap.Logger) error {
		names, err := listMigrations(dir)
		if err != nil {
			return err
		}
		log.Info("Available migrations", zap.Int("count", len(names)))
		for _, n := range names {
			fmt.Println("  -", n)
		}
		return nil
	}},
	"check": {"Verify every up migration has a down twin", func(dir string, _ []string, log *zap.Logger) error {
		fsys := migrationsFS(dir)
		if err := migration.CheckPairs(fsys); err != nil {
			return err
		}
		log.Info("Migration files are paired")
		return nil
	}},
}

func main() {
	var migrationsPath, logLevel string
	flag.StringVar(&migrationsPath, "path", "", "Read migrations from a directory instead of the embedded schema")
	flag.StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	flag.Usage = printUsage
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}
	name, rest := args[0], args[1:]

	log, err := logger.ForTool("migrate", &logger.Config{
		Level:      logLevel,
		Format:     "console",
		Output:     "stdout",
		TimeFormat: "2006-01-02 15:04:05",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	if fc, ok := fileCommands[name]; ok {
		if err := fc.run(migrationsPath, rest, log); err != nil {
			log.Fatal("Command failed", zap.String("command", name), zap.Error(err))
		}
		return
	}

	sc, ok := schemaCommands[name]
	if !ok {
		log.Error("Unknown command", zap.String("command", name))
		printUsage()
		os.Exit(1)
	}

	m, closeDB, err := openMigrator(migrationsPath, log)
	if err != nil {
		log.Fatal("Failed to prepare migrator", zap.Error(err))
	}
	defer closeDB()

	if err := sc.run(m, rest, log); err != nil {
		if errors.Is(err, errUsage) {
			log.Error("Invalid arguments", zap.String("command", name), zap.Error(err))
			printUsage()
			os.Exit(1)
		}
		log.Fatal("Command failed", zap.String("command", name), zap.Error(err))
	}
}

// openMigrator connects to DATABASE_URL and loads migrations from dir, or the
// embedded schema when dir is empty.
func openMigrator(dir string, log *zap.Logger) (*migration.Migrator, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load configuration: %w", err)
	}
	if cfg.Database.IsSQLite() {
		return nil, nil, errors.New("schema migrations target PostgreSQL; SQLite stores are created by the import tool")
	}

	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("ping database: %w", err)
	}

	var m *migration.Migrator
	if dir == "" {
		m, err = migration.New(db, log)
	} else {
		abs, absErr := filepath.Abs(dir)
		if absErr != nil {
			_ = db.Close()
			return nil, nil, absErr
		}
		log.Info("Using migrations from disk", zap.String("path", abs))
		m, err = migration.NewFromPath(db, abs, log)
	}
	if err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	// closing the migrator also closes db
	return m, func() { _ = m.Close() }, nil
}

func listMigrations(dir string) ([]string, error) {
	if dir == "" {
		return migration.ListMigrationsFS(migrations.FS)
	}
	return migration.ListMigrations(dir)
}

func migrationsFS(dir string) fs.FS {
	if dir == "" {
		return migrations.FS
	}
	return os.DirFS(dir)
}

func intArg(args []string) (int, error) {
	if len(args) == 0 {
		return 0, fmt.Errorf("%w: a number is required", errUsage)
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a number", errUsage, args[0])
	}
	return n, nil
}

func printUsage() {
	fmt.Println("Target store schema migration tool")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  migrate [flags] <command> [arguments]")
	fmt.Println()
	fmt.Println("Commands:")
	names := make([]string, 0, len(schemaCommands)+len(fileCommands))
	usage := make(map[string]string)
	for n, c := range schemaCommands {
		names = append(names, n)
		usage[n] = c.usage
	}
	for n, c := range fileCommands {
		names = append(names, n)
		usage[n] = c.usage
	}
	sort.Strings(names)
	for _, n := range names {
		fmt.Printf("  %-9s %s\n", n, usage[n])
	}
	fmt.Println()
	fmt.Println("Flags:")
	flag.PrintDefaults()
	fmt.Println()
	fmt.Println("Environment Variables:")
	fmt.Println("  DATABASE_URL  PostgreSQL connection URL (required for schema commands)")
}
