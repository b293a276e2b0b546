package main

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	appcfg "userapi/internal/app/config"
	appdb "userapi/internal/app/db"
	"userapi/internal/app/repository"
)

// Creates the missing tables and exits. Safe to run against a migrated database.
func main() {
	if err := run(context.Background()); err != nil {
		logrus.Fatalf("migration failed: %v", err)
	}
	fmt.Println("DB schema OK")
}

func run(ctx context.Context) error {
	cfg, err := appcfg.FromEnv(appcfg.Path())
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	db, err := appdb.Connect(cfg)
	if err != nil {
		return fmt.Errorf("db connect: %w", err)
	}
	defer appdb.Close(db)

	return appdb.EnsureSchema(ctx, db, repository.Models()...)
}
