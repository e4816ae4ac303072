package database

import (
	"errors"
	"fmt"
	"log/slog"
)

func NewRecordUpdater(cfg Config) (updater RecordUpdater, err error) {
	switch cfg.Type {
	case "postgres":
		updater, err = NewPostgresUpdater(cfg)
	case "sqlite":
		if cfg.ConnectionString == "" {
			return nil, errors.New("sqlite requires a connection string")
		}
		updater = NewSQLiteUpdater(cfg.ConnectionString, cfg.Table)
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", cfg.Type)
	}
	if err != nil {
		return nil, err
	}

	slog.Info("record updater configured", "type", cfg.Type, "table", cfg.Table)
	return updater, nil
}
