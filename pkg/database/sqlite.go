package database

import (
	"fmt"
	"net/url"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"github.com/noah-isme/epiviu-api/pkg/config"
)

// NewSQLite opens a file-backed SQLite database with foreign keys enforced on
// every connection.
func NewSQLite(cfg config.DatabaseConfig) (*sqlx.DB, error) {
	params := url.Values{}
	params.Set("_foreign_keys", "on")
	params.Set("_busy_timeout", "5000")
	params.Set("_journal_mode", "WAL")
	dsn := fmt.Sprintf("file:%s?%s", cfg.Path, params.Encode())

	db, err := sqlx.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}

	// SQLite serialises writers; one pooled connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}
