// Package db はスキャンカタログ用のgorm接続を提供します。
package db

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"inimage_backend/internal/platform/config"
)

// 接続リトライの間隔
var retryInterval = 3 * time.Second

// サポートするドライバー
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config はデータベース接続の設定です。
type Config struct {
	Driver       string
	Path         string
	Host         string
	Port         string
	User         string
	Password     string
	Name         string
	SSLMode      string
	InstanceName string
}

// ConfigFrom はアプリケーション設定から接続設定を作ります。
func ConfigFrom(c config.DatabaseConfig) Config {
	return Config{
		Driver:       c.Driver,
		Path:         c.Path,
		Host:         c.Host,
		Port:         c.Port,
		User:         c.User,
		Password:     c.Password,
		Name:         c.Name,
		SSLMode:      c.SSLMode,
		InstanceName: c.InstanceName,
	}
}

// BuildDSN はPostgreSQLの接続文字列を生成します。
// InstanceName が設定されている場合はCloud SQLのUnixソケットを使用します。
func BuildDSN(cfg Config) string {
	sslmode := cfg.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}
	parts := []string{}
	if cfg.InstanceName != "" {
		parts = append(parts, "host=/cloudsql/"+cfg.InstanceName)
	} else {
		parts = append(parts, "host="+cfg.Host, "port="+cfg.Port)
	}
	parts = append(parts,
		"user="+cfg.User,
		"password="+cfg.Password,
		"dbname="+cfg.Name,
		"sslmode="+sslmode,
	)
	return strings.Join(parts, " ")
}

// ConnectWithRetry は timeout に達するまで opener による接続を繰り返します。
func ConnectWithRetry(dsn string, timeout time.Duration, opener func(dsn string) (*gorm.DB, error)) (*gorm.DB, error) {
	deadline := time.Now().Add(timeout)
	for {
		db, err := opener(dsn)
		if err == nil {
			return db, nil
		}
		if time.Now().Add(retryInterval).After(deadline) {
			return nil, fmt.Errorf("DB connect failed after %v: %w", timeout, err)
		}
		slog.Warn("DB connect failed, retrying", "error", err)
		time.Sleep(retryInterval)
	}
}

// Open は設定のドライバーでデータベースに接続します。
func Open(cfg Config, timeout time.Duration) (*gorm.DB, error) {
	switch cfg.Driver {
	case DriverSQLite:
		if cfg.Path == "" {
			return nil, errors.New("sqlite path is required")
		}
		return ConnectWithRetry(cfg.Path, timeout, func(dsn string) (*gorm.DB, error) {
			return gorm.Open(sqlite.Open(dsn), &gorm.Config{})
		})
	case DriverPostgres:
		return ConnectWithRetry(BuildDSN(cfg), timeout, func(dsn string) (*gorm.DB, error) {
			return gorm.Open(postgres.Open(dsn), &gorm.Config{})
		})
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}
