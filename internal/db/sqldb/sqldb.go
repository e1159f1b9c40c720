// Package sqldb provides a SQL-backed implementation of the link store.
// It runs on PostgreSQL through pgx or on SQLite through modernc.org/sqlite,
// keeping one row per user link in the user_links table.
package sqldb

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"github.com/patric-chuzhbe/linkfy/internal/models"
)

//go:embed migrations/*.sql
var migrations embed.FS

const (
	DriverPostgres = "pgx"
	DriverSQLite   = "sqlite"
)

var gooseDialects = map[string]string{
	DriverPostgres: "postgres",
	DriverSQLite:   "sqlite3",
}

// SQLDB is a link store over database/sql.
type SQLDB struct {
	database          *sql.DB
	connectionTimeout time.Duration
}

type initOptions struct {
	DBPreReset bool
}

// InitOption tunes New.
type InitOption func(*initOptions)

// WithDBPreReset drops the schema before migrating. Tests use it to start clean.
func WithDBPreReset(DBPreReset bool) InitOption {
	return func(options *initOptions) {
		options.DBPreReset = DBPreReset
	}
}

// New opens the database with the given driver ("pgx" or "sqlite"),
// runs the embedded migrations and returns a ready store.
func New(
	ctx context.Context,
	driver string,
	databaseDSN string,
	connectionTimeout time.Duration,
	optionsProto ...InitOption,
) (*SQLDB, error) {
	options := &initOptions{
		DBPreReset: false,
	}
	for _, protoOption := range optionsProto {
		protoOption(options)
	}

	dialect, ok := gooseDialects[driver]
	if !ok {
		return nil, fmt.Errorf("in internal/db/sqldb/sqldb.go/New(): unsupported driver %q", driver)
	}

	database, err := sql.Open(driver, databaseDSN)
	if err != nil {
		return nil, err
	}
	if driver == DriverSQLite {
		// A single connection keeps in-memory databases alive and avoids SQLITE_BUSY.
		database.SetMaxOpenConns(1)
	}

	result := &SQLDB{
		database:          database,
		connectionTimeout: connectionTimeout,
	}

	if err := result.Ping(ctx); err != nil {
		_ = database.Close()
		return nil,
			fmt.Errorf(
				"in internal/db/sqldb/sqldb.go/New(): error while `result.Ping()` calling: %w",
				err,
			)
	}

	if options.DBPreReset {
		if err := result.resetDB(ctx); err != nil {
			return nil,
				fmt.Errorf(
					"in internal/db/sqldb/sqldb.go/New(): error while `result.resetDB()` calling: %w",
					err,
				)
		}
	}

	goose.SetBaseFS(migrations)
	if err := goose.SetDialect(dialect); err != nil {
		return nil,
			fmt.Errorf(
				"in internal/db/sqldb/sqldb.go/New(): error while `goose.SetDialect()` calling: %w",
				err,
			)
	}

	if err := goose.UpContext(ctx, result.database, "migrations"); err != nil {
		return nil,
			fmt.Errorf(
				"in internal/db/sqldb/sqldb.go/New(): error while `goose.Up()` calling: %w",
				err,
			)
	}

	return result, nil
}

// GetUserLinks returns every link of the user ordered by code.
func (db *SQLDB) GetUserLinks(ctx context.Context, email string) ([]models.LinkRecord, error) {
	ctx, cancel := db.withTimeout(ctx)
	defer cancel()

	rows, err := db.database.QueryContext(
		ctx,
		`
			SELECT code, original_url, link_date
				FROM user_links
				WHERE user_email = $1
				ORDER BY code
		`,
		email,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []models.LinkRecord{}
	for rows.Next() {
		var record models.LinkRecord
		if err := rows.Scan(&record.Code, &record.OriginalURL, &record.Date); err != nil {
			return nil, err
		}
		result = append(result, record)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

// SaveUserLink upserts the record into the user's collection.
func (db *SQLDB) SaveUserLink(ctx context.Context, email string, record models.LinkRecord) error {
	ctx, cancel := db.withTimeout(ctx)
	defer cancel()

	_, err := db.database.ExecContext(
		ctx,
		`
			INSERT INTO user_links (user_email, code, original_url, link_date)
				VALUES ($1, $2, $3, $4)
				ON CONFLICT (user_email, code) DO UPDATE
				SET
					original_url = EXCLUDED.original_url,
					link_date = EXCLUDED.link_date
		`,
		email,
		record.Code,
		record.OriginalURL,
		record.Date,
	)

	return err
}

func (db *SQLDB) Ping(ctx context.Context) error {
	ctx, cancel := db.withTimeout(ctx)
	defer cancel()

	return db.database.PingContext(ctx)
}

func (db *SQLDB) Close() error {
	return db.database.Close()
}

func (db *SQLDB) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if db.connectionTimeout <= 0 {
		return context.WithCancel(ctx)
	}

	return context.WithTimeout(ctx, db.connectionTimeout)
}

func (db *SQLDB) resetDB(ctx context.Context) error {
	for _, statement := range []string{
		`DROP TABLE IF EXISTS user_links`,
		`DROP TABLE IF EXISTS goose_db_version`,
	} {
		if _, err := db.database.ExecContext(ctx, statement); err != nil {
			return err
		}
	}

	return nil
}
