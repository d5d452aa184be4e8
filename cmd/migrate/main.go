// Command migrate applies, inspects and rolls back the embedded SQL migrations.
//
//	migrate up
//	migrate status
//	migrate down [version]
//	migrate auto        (non-production only)
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"vacancyhub/internal/config"
	"vacancyhub/internal/database"
	"vacancyhub/internal/middleware"

	"gorm.io/gorm"
)

type command func(ctx context.Context, env *runEnv, args []string) error

type runEnv struct {
	cfg      *config.Config
	db       *gorm.DB
	migrator *database.Migrator
	log      *slog.Logger
}

var commands = map[string]command{
	"up":     cmdUp,
	"status": cmdStatus,
	"down":   cmdDown,
	"auto":   cmdAuto,
}

var errUsage = errors.New("usage: migrate <up|status|down [version]|auto>")

func main() {
	flag.Parse()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, flag.Args()); err != nil {
		middleware.Logger.Error("migrate failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errUsage
	}
	cmd, ok := commands[args[0]]
	if !ok {
		return fmt.Errorf("unknown command %q: %w", args[0], errUsage)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	db, err := database.Open(cfg)
	if err != nil {
		return err
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}

	env := &runEnv{
		cfg:      cfg,
		db:       db,
		migrator: database.NewMigrator(db, database.Embedded()),
		log:      middleware.Logger.With("command", args[0]),
	}
	return cmd(ctx, env, args[1:])
}

func cmdUp(ctx context.Context, env *runEnv, _ []string) error {
	applied, err := env.migrator.Up(ctx)
	if err != nil {
		return err
	}
	env.log.Info("schema up to date", slog.Int("applied", len(applied)))
	return nil
}

func cmdStatus(ctx context.Context, env *runEnv, _ []string) error {
	applied, err := env.migrator.Applied(ctx)
	if err != nil {
		return err
	}
	pending, err := env.migrator.Pending(ctx)
	if err != nil {
		return err
	}

	for _, m := range applied {
		fmt.Printf("applied  %06d_%s  %s\n", m.Version, m.Name, m.AppliedAt.Format("2006-01-02 15:04:05"))
	}
	for _, m := range pending {
		fmt.Printf("pending  %s\n", m)
	}
	fmt.Printf("%d applied, %d pending\n", len(applied), len(pending))
	return nil
}

// cmdDown rolls back the newest applied migration. An explicit version must
// name that migration.
func cmdDown(ctx context.Context, env *runEnv, args []string) error {
	applied, err := env.migrator.Applied(ctx)
	if err != nil {
		return err
	}
	if len(applied) == 0 {
		env.log.Info("nothing to roll back")
		return nil
	}

	version := applied[len(applied)-1].Version
	if len(args) > 0 {
		if version, err = strconv.Atoi(args[0]); err != nil {
			return fmt.Errorf("invalid version %q: %w", args[0], err)
		}
	}
	if err := env.migrator.Down(ctx, version); err != nil {
		return err
	}
	env.log.Info("rolled back", slog.Int("version", version))
	return nil
}

func cmdAuto(ctx context.Context, env *runEnv, _ []string) error {
	if env.cfg.IsProduction() {
		return errors.New("auto schema is disabled in production, use 'up'")
	}
	if err := database.AutoMigrate(ctx, env.db); err != nil {
		return fmt.Errorf("auto schema: %w", err)
	}
	env.log.Warn("schema synced from models; SQL migrations were not recorded")
	return nil
}
