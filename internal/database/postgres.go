package database

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jo-hoe/logomigrator/internal/common"
)

const defaultSSLMode = "disable"

// PostgresUpdater opens a dedicated connection for every update.
type PostgresUpdater struct {
	dsn   string
	query string
}

func NewPostgresUpdater(cfg Config) (*PostgresUpdater, error) {
	dsn := cfg.ConnectionString
	if dsn == "" {
		dsn = postgresDSN(cfg)
	}
	if _, err := pgx.ParseConfig(dsn); err != nil {
		return nil, fmt.Errorf("invalid postgres configuration: %w", err)
	}

	table := pgx.Identifier(strings.Split(cfg.Table, ".")).Sanitize()
	return &PostgresUpdater{
		dsn:   dsn,
		query: "UPDATE " + table + " SET image_url = $1, thumbnail_url = $2 WHERE id = $3",
	}, nil
}

func postgresDSN(cfg Config) string {
	sslMode := cfg.SSLMode
	if sslMode == "" {
		sslMode = defaultSSLMode
	}
	port := cfg.Port
	if port == 0 {
		port = 5432
	}

	u := url.URL{
		Scheme:   "postgres",
		Host:     net.JoinHostPort(cfg.Host, strconv.Itoa(port)),
		Path:     "/" + cfg.Name,
		RawQuery: url.Values{"sslmode": []string{sslMode}}.Encode(),
	}
	if cfg.User != "" {
		u.User = url.UserPassword(cfg.User, cfg.Password)
	}
	return u.String()
}

func (p *PostgresUpdater) UpdateImageURLs(ctx context.Context, id, imageURL, thumbnailURL string) error {
	conn, err := pgx.Connect(ctx, p.dsn)
	if err != nil {
		return &common.DatabaseError{Op: "connect", Err: err}
	}
	defer func() {
		if cerr := conn.Close(context.WithoutCancel(ctx)); cerr != nil {
			slog.Debug("failed to close database connection", "error", cerr)
		}
	}()

	tx, err := conn.Begin(ctx)
	if err != nil {
		return &common.DatabaseError{Op: "begin", Err: err}
	}

	tag, err := tx.Exec(ctx, p.query, imageURL, thumbnailURL, id)
	if err != nil {
		if rerr := tx.Rollback(context.WithoutCancel(ctx)); rerr != nil {
			slog.Warn("rollback failed", "id", id, "error", rerr)
		}
		return &common.DatabaseError{Op: "update", Err: err}
	}

	if err := tx.Commit(ctx); err != nil {
		return &common.DatabaseError{Op: "commit", Err: err}
	}

	if tag.RowsAffected() == 0 {
		slog.Warn("no record matched id", "id", id)
	}
	return nil
}
