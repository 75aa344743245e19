package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"os"

	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"

	"github.com/pageza/foodgram/backend/internal/database"
	"github.com/pageza/foodgram/backend/internal/logging"
	"github.com/pageza/foodgram/backend/migrations"
)

func main() {
	rollback := flag.Bool("rollback", false, "Rollback the last migration")
	flag.Parse()

	log := logging.New(os.Getenv("LOG_LEVEL"), false)

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL environment variable is not set")
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		log.WithError(err).Fatal("failed to connect to database")
	}
	defer db.Close()

	ctx := context.Background()
	if *rollback {
		name, err := database.RollbackLast(ctx, db, migrations.FS, log)
		if errors.Is(err, database.ErrNoMigrations) {
			log.Fatal("no migrations to rollback")
		}
		if err != nil {
			log.WithError(err).Fatal("rollback failed")
		}
		log.WithField("migration", name).Info("successfully rolled back migration")
		return
	}

	applied, err := database.RunSQLMigrations(ctx, db, migrations.FS, log)
	if err != nil {
		log.WithError(err).Fatal("migration failed")
	}
	log.WithFields(logrus.Fields{"applied": len(applied)}).Info("all migrations applied successfully")
}
