// Package sqlstore implements store.CandleStore and store.TradeStore on
// a single SQLite database via gorm, reusing gorm.io/driver/sqlite's
// dialector but pointed at modernc.org/sqlite's pure-Go driver instead
// of the default cgo mattn/go-sqlite3 one, keeping the binary cgo-free.
// AutoMigrate runs over a single *gorm.DB against a WAL-mode DSN.
package sqlstore

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	_ "modernc.org/sqlite"
)

// Store is a single gorm.DB backing both candle and trade persistence.
type Store struct {
	db *gorm.DB
}

// Open creates (or opens) the SQLite file at path and migrates every
// model this package owns.
func Open(path string) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("sqlstore: database path cannot be empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&cache=shared", path)
	db, err := gorm.Open(&sqlite.Dialector{DriverName: "sqlite", DSN: dsn}, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&candleModel{}, &tradeModel{}); err != nil {
		return nil, err
	}
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.SetMaxOpenConns(4)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying connection.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Candles returns the store.CandleStore view of this database.
func (s *Store) Candles() *CandleStore { return &CandleStore{db: s.db} }

// Trades returns the store.TradeStore view of this database.
func (s *Store) Trades() *TradeStore { return &TradeStore{db: s.db} }
