package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"bus-pricing/internal/config"
	"bus-pricing/internal/logger"

	_ "github.com/lib/pq"
)

// DB обёртка над подключением к PostgreSQL
type DB struct {
	*sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS bus_terminals (
	terminal_name TEXT PRIMARY KEY,
	base_price    NUMERIC(12, 2) NOT NULL CHECK (base_price >= 0)
)`

// Connect открывает пул соединений и проверяет доступность базы
func Connect(cfg *config.DatabaseConfig, log *logger.Logger) (*DB, error) {
	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s connect_timeout=5",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode)

	sqlDB, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(5 * time.Minute)

	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Info("Successfully connected to PostgreSQL")
	return &DB{DB: sqlDB}, nil
}

// Migrate создаёт таблицу терминалов, если её ещё нет
func (db *DB) Migrate(ctx context.Context) error {
	if db == nil || db.DB == nil {
		return errors.New("database is not initialized")
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

// Health проверяет состояние базы данных
func (db *DB) Health() error {
	if db == nil || db.DB == nil {
		return errors.New("database is not initialized")
	}
	return db.Ping()
}

// Close закрывает подключение
func (db *DB) Close() error {
	if db == nil || db.DB == nil {
		return nil
	}
	return db.DB.Close()
}
