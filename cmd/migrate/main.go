package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"cafe-pos/internal/config"
	"cafe-pos/internal/database"
	"cafe-pos/internal/database/migrations"
	"cafe-pos/internal/logger"
)

func main() {
	cfg := config.Load()

	set := flag.NewFlagSet("migrate", flag.ExitOnError)
	dir := set.String("dir", cfg.Database.MigrationsDir, "directory holding the SQL migrations")
	seed := set.Bool("seed", false, "also apply development seed data")
	down := set.Bool("down", false, "roll back every migration")
	to := set.Uint("to", 0, "migrate up or down to this version")
	set.Parse(os.Args[1:])

	log := logger.NewWithWriter(os.Stdout, cfg.Log.Level)

	if cfg.Database.Driver == "sqlite" {
		log.Fatal("MIGRATE", "SQL migrations target postgres; SQLite builds its schema at startup")
	}

	bunDB, err := database.Open(context.Background(), cfg.Database, log)
	if err != nil {
		log.Fatal("DATABASE", err.Error())
	}
	defer bunDB.Close()

	runner := migrations.NewRunner(bunDB, migrations.Options{MigrationsDir: *dir, SeedData: *seed}, log)
	defer runner.Close()

	switch {
	case *down:
		err = runner.Down()
	case *to > 0:
		err = runner.To(*to)
	default:
		err = runner.Run()
	}
	if err != nil {
		log.Fatal("MIGRATE", err.Error())
	}
	log.Info("MIGRATE", fmt.Sprintf("Migrations in %s applied", *dir))
}
