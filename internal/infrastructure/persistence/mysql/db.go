package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"donation-server/internal/infrastructure/config"

	_ "github.com/go-sql-driver/mysql"
)

// donationsSchema 寄付台帳テーブル
const donationsSchema = `
	CREATE TABLE IF NOT EXISTS donations (
		donation_id      VARCHAR(36)  NOT NULL PRIMARY KEY,
		channel          VARCHAR(16)  NOT NULL,
		caller           VARCHAR(32)  NOT NULL,
		amount           VARCHAR(16)  NOT NULL,
		card_last4       CHAR(4)      NOT NULL,
		status           VARCHAR(16)  NOT NULL,
		reference_number VARCHAR(64)  NULL,
		error_message    VARCHAR(255) NULL,
		created_at       DATETIME(6)  NOT NULL,
		INDEX idx_donations_created_at (created_at)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4
`

// DB データベース接続を保持する
type DB struct {
	*sql.DB
}

// NewDB 新しいデータベース接続を作成
func NewDB(cfg *config.DatabaseConfig) (*DB, error) {
	db, err := sql.Open("mysql", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{DB: db}, nil
}

// EnsureSchema 寄付台帳テーブルが無ければ作成する
func (db *DB) EnsureSchema(ctx context.Context) error {
	if _, err := db.ExecContext(ctx, donationsSchema); err != nil {
		return fmt.Errorf("failed to create donations table: %w", err)
	}
	return nil
}

// Close データベース接続を閉じる
func (db *DB) Close() error {
	return db.DB.Close()
}

// HealthCheck データベースのヘルスチェックを実行
func (db *DB) HealthCheck() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return db.PingContext(ctx)
}
