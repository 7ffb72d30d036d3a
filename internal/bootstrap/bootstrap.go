// Package bootstrap provisions the diary database: it creates the database
// if needed, applies the schema file in one batch and reports the tables
// that exist afterwards. Running it again against a provisioned server is
// expected to be a no-op as long as the schema file itself is idempotent.
package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/alexandernizov/moodiary/internal/pkg/logger/sl"
)

var (
	ErrNoConnection   = errors.New("can't establish connection to db")
	ErrUnknownDialect = errors.New("unknown database dialect")
)

type Options struct {
	Dialect    Dialect
	Connect    ConnectOptions
	SchemaPath string

	// Open defaults to sql.Open.
	Open func(driverName, dsn string) (*sql.DB, error)
}

type Bootstrapper struct {
	log *slog.Logger
	opt Options
}

func New(log *slog.Logger, opt Options) *Bootstrapper {
	if opt.Open == nil {
		opt.Open = sql.Open
	}
	return &Bootstrapper{log: log, opt: opt}
}

// Run provisions the database and returns the table names present in it.
// Every connection it acquires is released before it returns.
func (b *Bootstrapper) Run(ctx context.Context) ([]string, error) {
	const op = "bootstrap.Run"
	d := b.opt.Dialect
	opt := b.opt.Connect

	var (
		tables    []string
		reconnect bool
	)

	b.log.Info("connecting to database server",
		slog.String("dialect", d.Driver()),
		slog.String("host", opt.Host),
		slog.Int("port", opt.Port),
		slog.String("user", opt.User),
	)

	err := b.withConn(ctx, d.ServerDSN(opt), func(conn *sql.Conn) error {
		b.log.Info("creating database if not exists", slog.String("database", opt.DBname))
		if err := d.CreateDatabase(ctx, conn, opt); err != nil {
			return fmt.Errorf("create database: %w", err)
		}

		b.log.Info("using database", slog.String("database", opt.DBname))
		switched, err := d.SelectDatabase(ctx, conn, opt)
		if err != nil {
			return fmt.Errorf("use database: %w", err)
		}
		if !switched {
			reconnect = true
			return nil
		}

		tables, err = b.apply(ctx, conn)
		return err
	})
	if err == nil && reconnect {
		b.log.Info("reconnecting to database", slog.String("database", opt.DBname))
		err = b.withConn(ctx, d.DatabaseDSN(opt), func(conn *sql.Conn) error {
			var err error
			tables, err = b.apply(ctx, conn)
			return err
		})
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return tables, nil
}

type Report struct {
	Version      string
	ConnectionID string
	Tables       []string
}

// Inspect connects straight to the target database and reports what it
// finds there without changing anything.
func (b *Bootstrapper) Inspect(ctx context.Context) (Report, error) {
	const op = "bootstrap.Inspect"
	d := b.opt.Dialect
	opt := b.opt.Connect

	b.log.Info("connecting to database",
		slog.String("dialect", d.Driver()),
		slog.String("host", opt.Host),
		slog.Int("port", opt.Port),
		slog.String("user", opt.User),
		slog.String("database", opt.DBname),
	)

	var report Report
	err := b.withConn(ctx, d.DatabaseDSN(opt), func(conn *sql.Conn) error {
		var err error
		report.Version, report.ConnectionID, err = d.ServerInfo(ctx, conn)
		if err != nil {
			return fmt.Errorf("server info: %w", err)
		}
		b.log.Info("connected", slog.String("version", report.Version), slog.String("connection_id", report.ConnectionID))

		report.Tables, err = d.ListTables(ctx, conn)
		if err != nil {
			return fmt.Errorf("list tables: %w", err)
		}
		return nil
	})
	if err != nil {
		return Report{}, fmt.Errorf("%s: %w", op, err)
	}

	if len(report.Tables) == 0 {
		b.log.Warn("no tables found", slog.String("database", opt.DBname))
	}
	for _, table := range report.Tables {
		b.log.Info("table", slog.String("name", table))
	}
	return report, nil
}

// withConn pins a single connection for fn and always releases it.
func (b *Bootstrapper) withConn(ctx context.Context, dsn string, fn func(conn *sql.Conn) error) error {
	db, err := b.opt.Open(b.opt.Dialect.Driver(), dsn)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrNoConnection, err)
	}
	db.SetMaxOpenConns(1)

	defer func() {
		if err := db.Close(); err != nil {
			b.log.Error("error during closing connection", sl.Err(err))
		}
		b.log.Info("connection closed")
	}()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %w", ErrNoConnection, err)
	}

	conn, err := db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrNoConnection, err)
	}
	defer conn.Close()

	return fn(conn)
}

func (b *Bootstrapper) apply(ctx context.Context, conn *sql.Conn) ([]string, error) {
	b.log.Info("reading schema", slog.String("path", b.opt.SchemaPath))
	schema, err := os.ReadFile(b.opt.SchemaPath)
	if err != nil {
		return nil, fmt.Errorf("read schema: %w", err)
	}

	if strings.TrimSpace(string(schema)) == "" {
		b.log.Warn("schema file is empty, nothing to execute", slog.String("path", b.opt.SchemaPath))
	} else {
		b.log.Info("executing schema")
		if _, err := conn.ExecContext(ctx, string(schema)); err != nil {
			return nil, fmt.Errorf("execute schema: %w", err)
		}
		b.log.Info("schema applied successfully")
	}

	tables, err := b.opt.Dialect.ListTables(ctx, conn)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}

	b.log.Info("current tables", slog.String("database", b.opt.Connect.DBname), slog.Int("count", len(tables)))
	for _, table := range tables {
		b.log.Info("table", slog.String("name", table))
	}
	return tables, nil
}
