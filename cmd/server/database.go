package main

import (
	"context"

	dbi "github.com/fieldcrew/api/internal/database/interfaces"
	"github.com/fieldcrew/api/internal/database/postgres"
	platformconfig "github.com/fieldcrew/api/internal/platform/config"
)

func connect(ctx context.Context, cfg *platformconfig.Config) (*postgres.Client, error) {
	pg := cfg.Database.Postgres
	pgConfig := &dbi.PostgreSQLConfig{
		Host:               pg.Host,
		Port:               pg.Port,
		Username:           pg.Username,
		Password:           pg.Password,
		Database:           pg.Database,
		SSLMode:            pg.SSLMode,
		Schema:             pg.Schema,
		MaxOpenConnections: pg.MaxOpenConns,
		MaxIdleConnections: pg.MaxIdleConns,
		MaxLifetime:        int(pg.ConnMaxLifetime.Seconds()),
		ConnectTimeout:     pg.ConnectTimeout,
	}
	return postgres.NewClient(ctx, pgConfig, pgConfig.Database)
}
