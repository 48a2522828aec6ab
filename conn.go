package sqlgate

import (
	"database/sql"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"time"

	"github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/mbellgren/sqlgate/internal/resolve"
)

// openDB opens the engine-selected driver for one call. The handle is
// capped to a single connection and must be closed by the caller on every
// exit path; database/sql autocommit semantics apply (no explicit
// transactions are started by the gateway).
func openDB(d *resolve.Descriptor) (*sql.DB, error) {
	var (
		db  *sql.DB
		err error
	)

	switch d.Engine {
	case resolve.EnginePostgres:
		db, err = sql.Open("pgx", postgresDSN(d))
	case resolve.EngineMySQL:
		db, err = sql.Open("mysql", mysqlDSN(d))
	default:
		return nil, fmt.Errorf("unsupported engine %q", d.Engine)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open %s connection: %w", d.Engine, err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)
	return db, nil
}

func mysqlDSN(d *resolve.Descriptor) string {
	cfg := mysql.NewConfig()
	cfg.User = d.User
	cfg.Passwd = d.Password
	cfg.Net = "tcp"
	cfg.Addr = net.JoinHostPort(d.Host, strconv.Itoa(d.Port))
	cfg.DBName = d.Database
	cfg.Timeout = d.ConnectTimeout
	cfg.ParseTime = true
	return cfg.FormatDSN()
}

func postgresDSN(d *resolve.Descriptor) string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   net.JoinHostPort(d.Host, strconv.Itoa(d.Port)),
		Path:   "/" + d.Database,
	}
	q := url.Values{}
	q.Set("connect_timeout", strconv.Itoa(int(d.ConnectTimeout/time.Second)))
	u.RawQuery = q.Encode()
	return u.String()
}
