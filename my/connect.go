package my

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"

	"dbperf/store"
	"dbperf/store/sqlstore"
)

// DSN converts a mysql:// URL into a go-sql-driver DSN. Strings that are
// already in driver form are returned unchanged.
func DSN(rawURL string) (string, error) {
	if !strings.HasPrefix(rawURL, "mysql://") {
		if _, err := mysql.ParseDSN(rawURL); err != nil {
			return "", err
		}
		return rawURL, nil
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}

	cfg := mysql.NewConfig()
	cfg.Net = "tcp"
	cfg.Addr = u.Host
	if u.Port() == "" {
		cfg.Addr = u.Host + ":3306"
	}
	cfg.User = u.User.Username()
	cfg.Passwd, _ = u.User.Password()
	cfg.DBName = strings.TrimPrefix(u.Path, "/")
	cfg.ParseTime = true
	cfg.InterpolateParams = true
	cfg.AllowCleartextPasswords = true
	cfg.Timeout = 30 * time.Second
	cfg.Loc = time.UTC
	return cfg.FormatDSN(), nil
}

func Connect(ctx context.Context, rawURL string, maxConns int) (*sqlx.DB, error) {
	dsn, err := DSN(rawURL)
	if err != nil {
		return nil, fmt.Errorf("mysql dsn: %w", err)
	}
	db, err := sqlx.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}
	if maxConns < 1 {
		maxConns = 10
	}
	db.SetMaxOpenConns(maxConns)
	db.SetMaxIdleConns(maxConns)
	db.SetConnMaxLifetime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// Open connects and prepares the events table.
func Open(ctx context.Context, rawURL string, maxConns int) (*sqlstore.Store, error) {
	db, err := Connect(ctx, rawURL, maxConns)
	if err != nil {
		return nil, err
	}
	s, err := sqlstore.New(ctx, db, store.MySQL)
	if err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}
