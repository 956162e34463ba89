// SPDX-License-Identifier: GPL-3.0-or-later

package resource

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5"
	_ "github.com/jackc/pgx/v5/stdlib"
	goora "github.com/sijms/go-ora/v2"
)

// DataSource is a live handle to the database behind a pool: the pool's JDBC URL
// translated to a database/sql driver and DSN.
type DataSource struct {
	Name     string
	JDBCURL  string
	Username string
	Driver   string
	dsn      string
}

// NewDataSource translates a JDBC URL. Unknown sub-protocols fail with ErrUnsupported.
func NewDataSource(name, jdbcURL, username, password string) (*DataSource, error) {
	ds := &DataSource{Name: name, JDBCURL: jdbcURL, Username: username}

	var err error
	switch {
	case strings.HasPrefix(jdbcURL, "jdbc:mysql:"), strings.HasPrefix(jdbcURL, "jdbc:mariadb:"):
		ds.Driver = "mysql"
		ds.dsn, err = mysqlDSN(jdbcURL, username, password)
	case strings.HasPrefix(jdbcURL, "jdbc:postgresql:"):
		ds.Driver = "pgx"
		ds.dsn, err = postgresDSN(jdbcURL, username, password)
	case strings.HasPrefix(jdbcURL, "jdbc:oracle:thin:"):
		ds.Driver = "oracle"
		ds.dsn, err = oracleDSN(jdbcURL, username, password)
	default:
		return nil, fmt.Errorf("data source '%s': url '%s': %w", name, jdbcURL, ErrUnsupported)
	}
	if err != nil {
		return nil, fmt.Errorf("data source '%s': %w", name, err)
	}
	return ds, nil
}

// DSN returns the driver connection string with the password masked.
func (d *DataSource) DSN() string { return redactDSN(d.dsn) }

// Open returns a pinged connection pool. The caller closes it.
func (d *DataSource) Open(ctx context.Context) (*sql.DB, error) {
	db, err := sql.Open(d.Driver, d.dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w (dsn=%s)", d.Driver, err, d.DSN())
	}

	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(10 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w (dsn=%s)", d.Driver, err, d.DSN())
	}
	return db, nil
}

// jdbc:mysql://host[:port][/database][?params]
func mysqlDSN(jdbcURL, username, password string) (string, error) {
	u, err := url.Parse(strings.TrimPrefix(jdbcURL, "jdbc:"))
	if err != nil {
		return "", err
	}
	if u.Host == "" {
		return "", fmt.Errorf("url '%s' has no host", jdbcURL)
	}

	cfg := mysql.NewConfig()
	cfg.User = username
	cfg.Passwd = password
	cfg.Net = "tcp"
	cfg.Addr = hostPort(u.Host, "3306")
	cfg.DBName = strings.TrimPrefix(u.Path, "/")
	cfg.Timeout = 5 * time.Second
	if tz := u.Query().Get("serverTimezone"); tz != "" {
		if loc, err := time.LoadLocation(tz); err == nil {
			cfg.Loc = loc
		}
	}
	return cfg.FormatDSN(), nil
}

// jdbc:postgresql://host[:port]/database[?params] or jdbc:postgresql:database
func postgresDSN(jdbcURL, username, password string) (string, error) {
	rest := strings.TrimPrefix(jdbcURL, "jdbc:postgresql:")

	u := &url.URL{Scheme: "postgres", Host: "localhost:5432"}
	if strings.HasPrefix(rest, "//") {
		pu, err := url.Parse("postgres:" + rest)
		if err != nil {
			return "", err
		}
		u.Host = hostPort(pu.Host, "5432")
		u.Path = pu.Path
		q := url.Values{}
		if mode := pu.Query().Get("sslmode"); mode != "" {
			q.Set("sslmode", mode)
		}
		if app := pu.Query().Get("ApplicationName"); app != "" {
			q.Set("application_name", app)
		}
		u.RawQuery = q.Encode()
	} else {
		u.Path = "/" + rest
	}
	if username != "" {
		u.User = url.UserPassword(username, password)
	}

	dsn := u.String()
	if _, err := pgx.ParseConfig(dsn); err != nil {
		return "", fmt.Errorf("url '%s': %v", jdbcURL, redactDSN(err.Error()))
	}
	return dsn, nil
}

// jdbc:oracle:thin:[user/pass]@host:port:SID or jdbc:oracle:thin:[user/pass]@//host[:port]/service
func oracleDSN(jdbcURL, username, password string) (string, error) {
	rest := strings.TrimPrefix(jdbcURL, "jdbc:oracle:thin:")
	at := strings.LastIndexByte(rest, '@')
	if at < 0 {
		return "", fmt.Errorf("url '%s' has no '@'", jdbcURL)
	}
	rest = rest[at+1:]
	if strings.HasPrefix(rest, "(") {
		return "", fmt.Errorf("url '%s': connect descriptors: %w", jdbcURL, ErrUnsupported)
	}

	var host, port, service string
	var options map[string]string

	if strings.HasPrefix(rest, "//") {
		addr, svc, ok := strings.Cut(strings.TrimPrefix(rest, "//"), "/")
		if !ok || svc == "" {
			return "", fmt.Errorf("url '%s' has no service name", jdbcURL)
		}
		host, port = splitHostPort(addr, "1521")
		service = svc
	} else {
		parts := strings.Split(rest, ":")
		if len(parts) != 3 || parts[2] == "" {
			return "", fmt.Errorf("url '%s' is not host:port:sid", jdbcURL)
		}
		host, port = parts[0], parts[1]
		options = map[string]string{"SID": parts[2]}
	}
	if host == "" {
		return "", fmt.Errorf("url '%s' has no host", jdbcURL)
	}

	p, err := strconv.Atoi(port)
	if err != nil {
		return "", fmt.Errorf("url '%s': bad port '%s'", jdbcURL, port)
	}
	return goora.BuildUrl(host, p, service, username, password, options), nil
}

func hostPort(hp, defPort string) string {
	host, port := splitHostPort(hp, defPort)
	return net.JoinHostPort(host, port)
}

func splitHostPort(hp, defPort string) (string, string) {
	if host, port, err := net.SplitHostPort(hp); err == nil {
		return host, port
	}
	return strings.Trim(hp, "[]"), defPort
}

// redactDSN masks the password of a URL-style or user:pass@ style DSN.
func redactDSN(dsn string) string {
	if dsn == "" {
		return dsn
	}

	authStart := 0
	if i := strings.Index(dsn, "://"); i != -1 {
		authStart = i + 3
	}
	rel := strings.LastIndex(dsn[authStart:], "@")
	if rel == -1 {
		return dsn
	}
	at := authStart + rel

	userinfo := dsn[authStart:at]
	colon := strings.IndexByte(userinfo, ':')
	if colon < 0 {
		return dsn
	}
	return dsn[:authStart] + userinfo[:colon] + ":****" + dsn[at:]
}
