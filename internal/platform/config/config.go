// Package config はアプリケーション設定を環境変数・設定ファイル・.env から読み込みます。
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix は環境変数のプレフィックスです（例: INIMAGE_SERVER_PORT）。
const EnvPrefix = "INIMAGE"

// Config はアプリケーション全体の設定です。
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Log        LogConfig        `mapstructure:"log"`
	Scan       ScanConfig       `mapstructure:"scan"`
	Vision     VisionConfig     `mapstructure:"vision"`
	BrandLinks BrandLinksConfig `mapstructure:"brandlinks"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Gemini     GeminiConfig     `mapstructure:"gemini"`
	Auth       AuthConfig       `mapstructure:"auth"`
}

// ServerConfig はHTTPサーバーの設定です。
type ServerConfig struct {
	Port               string        `mapstructure:"port"`
	Environment        string        `mapstructure:"environment"`
	AllowedOrigins     []string      `mapstructure:"allowed_origins"`
	ShutdownTimeout    time.Duration `mapstructure:"shutdown_timeout"`
	MaxMultipartMemory int64         `mapstructure:"max_multipart_memory"`
}

// LogConfig はログ出力の設定です。
type LogConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // text, json
}

// ScanConfig はスキャンパイプラインの設定です。
type ScanConfig struct {
	ResultsDir string `mapstructure:"results_dir"`
	Workers    int    `mapstructure:"workers"`
}

// VisionConfig はロゴ検出（Cloud Vision）の設定です。
type VisionConfig struct {
	CredentialsFile string        `mapstructure:"credentials_file"`
	CredentialsJSON string        `mapstructure:"credentials_json"`
	Endpoint        string        `mapstructure:"endpoint"`
	Timeout         time.Duration `mapstructure:"timeout"`
	RatePerMinute   int           `mapstructure:"rate_per_minute"` // 0 は無制限
}

// BrandLinksConfig はブランドリンクテーブルの読み込み元の設定です。
// RedisKey が設定されていればRedisのハッシュ、Source が設定されていればJSONファイルまたはURLを使用します。
type BrandLinksConfig struct {
	Source   string `mapstructure:"source"`
	RedisKey string `mapstructure:"redis_key"`
}

// RedisConfig はRedisの接続設定です。Addr が空の場合はRedisを使用しません。
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// DatabaseConfig はスキャンカタログのRDB設定です。Driver が空の場合はカタログを使用しません。
type DatabaseConfig struct {
	Driver         string        `mapstructure:"driver"` // sqlite, postgres
	Path           string        `mapstructure:"path"`   // sqlite のファイルパス
	Host           string        `mapstructure:"host"`
	Port           string        `mapstructure:"port"`
	User           string        `mapstructure:"user"`
	Password       string        `mapstructure:"password"`
	Name           string        `mapstructure:"name"`
	SSLMode        string        `mapstructure:"sslmode"`
	InstanceName   string        `mapstructure:"instance_name"` // Cloud SQL の接続名
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
	AutoMigrate    bool          `mapstructure:"auto_migrate"`
}

// GeminiConfig はブランド分析（Gemini）の設定です。
type GeminiConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	APIKey   string        `mapstructure:"api_key"`
	Project  string        `mapstructure:"project"`
	Location string        `mapstructure:"location"`
	Model    string        `mapstructure:"model"`
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
}

// AuthConfig は管理画面APIの認証設定です。JWTSecret が空の場合は認証を行いません。
type AuthConfig struct {
	JWTSecret string        `mapstructure:"jwt_secret"`
	TokenTTL  time.Duration `mapstructure:"token_ttl"`
}

// Load は設定を読み込みます。
// 優先順位は 環境変数 > 設定ファイル > 既定値 です。.env があれば先に環境変数へ読み込みます。
// configFile が空の場合はカレントディレクトリと ./config から config.yaml を探します。
func Load(configFile string) (*Config, error) {
	// .env はローカル開発用で、存在しなくてもよい
	_ = godotenv.Load()

	v := viper.New()
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults は全キーの既定値を設定します。AutomaticEnv はここで登録されたキーのみを Unmarshal に反映します。
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{})
	v.SetDefault("server.shutdown_timeout", "10s")
	v.SetDefault("server.max_multipart_memory", 32<<20)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("scan.results_dir", "results")
	v.SetDefault("scan.workers", 4)

	v.SetDefault("vision.credentials_file", "")
	v.SetDefault("vision.credentials_json", "")
	v.SetDefault("vision.endpoint", "")
	v.SetDefault("vision.timeout", "30s")
	v.SetDefault("vision.rate_per_minute", 600)

	v.SetDefault("brandlinks.source", "")
	v.SetDefault("brandlinks.redis_key", "")

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("database.driver", "")
	v.SetDefault("database.path", "inimage.db")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.user", "")
	v.SetDefault("database.password", "")
	v.SetDefault("database.name", "inimage")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.instance_name", "")
	v.SetDefault("database.connect_timeout", "60s")
	v.SetDefault("database.auto_migrate", true)

	v.SetDefault("gemini.enabled", false)
	v.SetDefault("gemini.api_key", "")
	v.SetDefault("gemini.project", "")
	v.SetDefault("gemini.location", "us-central1")
	v.SetDefault("gemini.model", "gemini-2.5-flash")
	v.SetDefault("gemini.cache_ttl", "24h")

	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.token_ttl", "1h")
}

func validate(cfg *Config) error {
	if cfg.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}
	if cfg.Scan.ResultsDir == "" {
		return fmt.Errorf("results directory is required (set %s_SCAN_RESULTS_DIR)", EnvPrefix)
	}
	if cfg.Scan.Workers <= 0 {
		return fmt.Errorf("scan workers must be positive, got: %d", cfg.Scan.Workers)
	}
	if cfg.Vision.RatePerMinute < 0 {
		return fmt.Errorf("vision rate_per_minute must not be negative, got: %d", cfg.Vision.RatePerMinute)
	}

	switch cfg.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("log format must be 'text' or 'json', got: %s", cfg.Log.Format)
	}

	switch cfg.Database.Driver {
	case "", "sqlite":
	case "postgres":
		if cfg.Database.User == "" || cfg.Database.Name == "" {
			return fmt.Errorf("database user and name are required for postgres")
		}
	default:
		return fmt.Errorf("database driver must be 'sqlite' or 'postgres', got: %s", cfg.Database.Driver)
	}

	if cfg.BrandLinks.RedisKey != "" && cfg.Redis.Addr == "" {
		return fmt.Errorf("redis addr is required when brandlinks.redis_key is set")
	}
	if cfg.Gemini.Enabled && cfg.Gemini.APIKey == "" && cfg.Gemini.Project == "" {
		return fmt.Errorf("gemini requires an API key or a Vertex AI project")
	}
	return nil
}
