package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
)

type ConnectOptions struct {
	Host      string
	Port      int
	User      string
	Password  string
	DBname    string
	Charset   string
	Collation string

	MultiStatements bool
	ParseTime       bool
}

// Dialect holds the statements that differ between database servers.
type Dialect interface {
	Driver() string
	// ServerDSN addresses the server without selecting the target database.
	ServerDSN(opt ConnectOptions) string
	// DatabaseDSN addresses the target database directly.
	DatabaseDSN(opt ConnectOptions) string
	CreateDatabase(ctx context.Context, conn *sql.Conn, opt ConnectOptions) error
	// SelectDatabase makes opt.DBname the target of later statements on conn.
	// It returns false when the server can't switch databases on a live
	// connection and a new one to DatabaseDSN is required.
	SelectDatabase(ctx context.Context, conn *sql.Conn, opt ConnectOptions) (bool, error)
	ListTables(ctx context.Context, conn *sql.Conn) ([]string, error)
	// ServerInfo returns the server version and the id the server assigned
	// to conn.
	ServerInfo(ctx context.Context, conn *sql.Conn) (version, connID string, err error)
}

func DialectByName(name string) (Dialect, error) {
	switch name {
	case "mysql", "mariadb":
		return MySQL{}, nil
	case "postgres":
		return Postgres{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDialect, name)
	}
}

// MySQL also serves MariaDB.
type MySQL struct{}

func (MySQL) Driver() string { return "mysql" }

func (m MySQL) ServerDSN(opt ConnectOptions) string {
	return m.config(opt, "").FormatDSN()
}

func (m MySQL) DatabaseDSN(opt ConnectOptions) string {
	return m.config(opt, opt.DBname).FormatDSN()
}

func (MySQL) config(opt ConnectOptions, dbname string) *mysql.Config {
	cfg := mysql.NewConfig()
	cfg.User = opt.User
	cfg.Passwd = opt.Password
	cfg.Net = "tcp"
	cfg.Addr = net.JoinHostPort(opt.Host, strconv.Itoa(opt.Port))
	cfg.DBName = dbname
	cfg.MultiStatements = opt.MultiStatements
	cfg.ParseTime = opt.ParseTime
	if opt.Collation != "" {
		cfg.Collation = opt.Collation
	}
	if opt.Charset != "" {
		cfg.Params = map[string]string{"charset": opt.Charset}
	}
	return cfg
}

func (MySQL) CreateDatabase(ctx context.Context, conn *sql.Conn, opt ConnectOptions) error {
	query := fmt.Sprintf("CREATE DATABASE IF NOT EXISTS %s CHARACTER SET %s COLLATE %s",
		quoteMySQL(opt.DBname), opt.Charset, opt.Collation)
	_, err := conn.ExecContext(ctx, query)
	return err
}

func (MySQL) SelectDatabase(ctx context.Context, conn *sql.Conn, opt ConnectOptions) (bool, error) {
	_, err := conn.ExecContext(ctx, "USE "+quoteMySQL(opt.DBname))
	return err == nil, err
}

func (MySQL) ListTables(ctx context.Context, conn *sql.Conn) ([]string, error) {
	return scanNames(ctx, conn, "SHOW TABLES")
}

func (MySQL) ServerInfo(ctx context.Context, conn *sql.Conn) (string, string, error) {
	return serverInfo(ctx, conn, "SELECT VERSION(), CONNECTION_ID()")
}

func quoteMySQL(ident string) string {
	return "`" + strings.ReplaceAll(ident, "`", "``") + "`"
}

// Postgres creates the database from the "postgres" maintenance database.
// Charset maps to ENCODING 'UTF8'; collation is left to the server default.
type Postgres struct{}

const postgresMaintenanceDB = "postgres"

func (Postgres) Driver() string { return "postgres" }

func (p Postgres) ServerDSN(opt ConnectOptions) string {
	return p.dsn(opt, postgresMaintenanceDB)
}

func (p Postgres) DatabaseDSN(opt ConnectOptions) string {
	return p.dsn(opt, opt.DBname)
}

func (Postgres) dsn(opt ConnectOptions, dbname string) string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(opt.User, opt.Password),
		Host:     net.JoinHostPort(opt.Host, strconv.Itoa(opt.Port)),
		Path:     "/" + dbname,
		RawQuery: "sslmode=disable",
	}
	return u.String()
}

func (Postgres) CreateDatabase(ctx context.Context, conn *sql.Conn, opt ConnectOptions) error {
	var exists bool
	row := conn.QueryRowContext(ctx, "SELECT EXISTS (SELECT 1 FROM pg_database WHERE datname = $1)", opt.DBname)
	if err := row.Scan(&exists); err != nil {
		return err
	}
	if exists {
		return nil
	}

	_, err := conn.ExecContext(ctx, fmt.Sprintf("CREATE DATABASE %s ENCODING 'UTF8'", pq.QuoteIdentifier(opt.DBname)))
	return err
}

func (Postgres) SelectDatabase(ctx context.Context, conn *sql.Conn, opt ConnectOptions) (bool, error) {
	return false, nil
}

func (Postgres) ListTables(ctx context.Context, conn *sql.Conn) ([]string, error) {
	return scanNames(ctx, conn, "SELECT tablename FROM pg_catalog.pg_tables WHERE schemaname = 'public' ORDER BY tablename")
}

func (Postgres) ServerInfo(ctx context.Context, conn *sql.Conn) (string, string, error) {
	return serverInfo(ctx, conn, "SELECT version(), pg_backend_pid()")
}

func serverInfo(ctx context.Context, conn *sql.Conn, query string) (string, string, error) {
	var (
		version string
		connID  int64
	)
	if err := conn.QueryRowContext(ctx, query).Scan(&version, &connID); err != nil {
		return "", "", err
	}
	return version, strconv.FormatInt(connID, 10), nil
}

func scanNames(ctx context.Context, conn *sql.Conn, query string) ([]string, error) {
	rows, err := conn.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}
