package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/golang-migrate/migrate/v4"
	"github.com/jmoiron/sqlx"
	"github.com/juju/errors"
	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/osvaldobrewjaria/fazumclube/internal/config"
	"github.com/osvaldobrewjaria/fazumclube/internal/repository/postgres"
	"github.com/osvaldobrewjaria/fazumclube/pkg/logger"
)

const usage = `usage: migrate <command>

commands:
  up          apply every pending migration
  down [n]    roll back n migrations (default 1)
  version     print the current schema version
  force <v>   set the version without running migrations`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	log, err := logger.New(cfg.Server.Environment)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if err := run(cfg, log, os.Args[1], os.Args[2:]); err != nil {
		log.Fatal("migration failed", zap.String("command", os.Args[1]), zap.Error(err))
	}
}

func run(cfg *config.Config, log *zap.Logger, command string, args []string) error {
	db, err := sqlx.Connect("postgres", cfg.Database.DSN())
	if err != nil {
		return errors.Annotate(err, "connecting to database")
	}
	defer db.Close()

	m, err := postgres.NewMigrator(db.DB)
	if err != nil {
		return err
	}

	switch command {
	case "up":
		err = m.Up()
	case "down":
		steps := 1
		if len(args) > 0 {
			if steps, err = strconv.Atoi(args[0]); err != nil || steps < 1 {
				return errors.NotValidf("step count %q", args[0])
			}
		}
		err = m.Steps(-steps)
	case "version":
		version, dirty, verr := m.Version()
		if errors.Is(verr, migrate.ErrNilVersion) {
			log.Info("no migrations applied")
			return nil
		}
		if verr != nil {
			return errors.Annotate(verr, "reading version")
		}
		log.Info("schema version", zap.Uint("version", version), zap.Bool("dirty", dirty))
		return nil
	case "force":
		if len(args) == 0 {
			return errors.BadRequestf("force needs a version")
		}
		version, perr := strconv.Atoi(args[0])
		if perr != nil {
			return errors.NotValidf("version %q", args[0])
		}
		err = m.Force(version)
	default:
		fmt.Fprintln(os.Stderr, usage)
		return errors.NotSupportedf("command %q", command)
	}

	if errors.Is(err, migrate.ErrNoChange) {
		log.Info("schema already up to date")
		return nil
	}
	if err != nil {
		return errors.Annotatef(err, "running %s", command)
	}
	log.Info("migration finished", zap.String("command", command))
	return nil
}
