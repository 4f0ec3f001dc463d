package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/Freeeeeet/aula_backend/internal/app"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

const usage = `Usage: migrate [up|down|version]

  up       apply all pending migrations (default)
  down     roll back the last migration
  version  print the current schema version

Reads DB_DSN and MIGRATIONS_DIR from the environment or .env.`

func main() {
	flag.Usage = func() { fmt.Fprintln(os.Stderr, usage) }
	flag.Parse()

	command := "up"
	if flag.NArg() > 0 {
		command = flag.Arg(0)
	}

	// Миграциям нужен только DSN, остальной конфиг сервера не обязателен
	_ = godotenv.Load(".env")
	dsn := os.Getenv("DB_DSN")
	if dsn == "" {
		log.Fatal("DB_DSN is required but not set")
	}

	logger := app.NewLogger(os.Getenv("ENV"), os.Getenv("LOG_LEVEL"))
	defer logger.Sync()

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		logger.Fatal("Failed to create connection pool", zap.Error(err))
	}
	defer pool.Close()

	migrator, err := app.NewMigrator(pool, os.Getenv("MIGRATIONS_DIR"), logger)
	if err != nil {
		logger.Fatal("Failed to create migrator", zap.Error(err))
	}
	defer migrator.Close()

	switch command {
	case "up":
		err = migrator.Run(ctx)
	case "down":
		err = migrator.Down(ctx)
	case "version":
		var version int64
		version, err = migrator.Version(ctx)
		if err == nil {
			fmt.Println(version)
		}
	default:
		flag.Usage()
		os.Exit(2)
	}
	if err != nil {
		logger.Fatal("Migration command failed", zap.String("command", command), zap.Error(err))
	}
}
