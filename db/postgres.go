// db/postgres.go
package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	logger "github.com/smplabs/warden/logging"
)

var Postgres *sql.DB

func InitPostgres() error {
	db, err := sql.Open("pgx", viper.GetString("postgres.dsn"))
	if err != nil {
		return fmt.Errorf("failed to open Postgres connection: %w", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(15 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to connect to Postgres: %w", err)
	}

	Postgres = db
	logger.Info("Successfully connected to Postgres")
	return nil
}

func ClosePostgres() {
	if Postgres != nil {
		if err := Postgres.Close(); err != nil {
			logger.Error("Error closing Postgres connection", zap.Error(err))
		}
	}
}
