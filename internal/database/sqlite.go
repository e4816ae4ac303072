package database

import (
	"context"
	"database/sql"
	"log/slog"
	"strings"

	"github.com/jo-hoe/logomigrator/internal/common"
	_ "modernc.org/sqlite"
)

// SQLiteUpdater updates rows of a local SQLite database file.
type SQLiteUpdater struct {
	connectionString string
	query            string
}

func NewSQLiteUpdater(connectionString, table string) *SQLiteUpdater {
	quoted := `"` + strings.ReplaceAll(table, `"`, `""`) + `"`
	return &SQLiteUpdater{
		connectionString: connectionString,
		query:            "UPDATE " + quoted + " SET image_url = ?, thumbnail_url = ? WHERE id = ?",
	}
}

func (s *SQLiteUpdater) UpdateImageURLs(ctx context.Context, id, imageURL, thumbnailURL string) error {
	db, err := sql.Open("sqlite", s.connectionString)
	if err != nil {
		return &common.DatabaseError{Op: "connect", Err: err}
	}
	defer func() {
		_ = db.Close()
	}()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return &common.DatabaseError{Op: "begin", Err: err}
	}

	result, err := tx.ExecContext(ctx, s.query, imageURL, thumbnailURL, id)
	if err != nil {
		if rerr := tx.Rollback(); rerr != nil {
			slog.Warn("rollback failed", "id", id, "error", rerr)
		}
		return &common.DatabaseError{Op: "update", Err: err}
	}

	if err := tx.Commit(); err != nil {
		return &common.DatabaseError{Op: "commit", Err: err}
	}

	if n, err := result.RowsAffected(); err == nil && n == 0 {
		slog.Warn("no record matched id", "id", id)
	}
	return nil
}
