package database

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Database はデータベース接続プールを保持します
type Database struct {
	Pool *pgxpool.Pool
}

// ConnectionParams はデータベース接続パラメータ。
// URL が指定された場合は URL を優先し、個別パラメータは無視します。
type ConnectionParams struct {
	URL      string
	Password string // URL にパスワードが含まれない場合に使用
	Host     string
	Port     int
	User     string
	DBName   string
	SSLMode  string
}

// ConnString は pgx に渡す接続文字列を返します
func (p ConnectionParams) ConnString() string {
	if p.URL != "" {
		return p.URL
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host,
		p.Port,
		p.User,
		quoteValue(p.Password),
		p.DBName,
		p.SSLMode,
	)
}

// quoteValue は keyword/value 形式の値をクォートします
func quoteValue(v string) string {
	v = strings.ReplaceAll(v, `\`, `\\`)
	v = strings.ReplaceAll(v, `'`, `\'`)
	return "'" + v + "'"
}

// PoolConfig は接続パラメータから pgxpool.Config を作成します
func PoolConfig(params ConnectionParams) (*pgxpool.Config, error) {
	cfg, err := pgxpool.ParseConfig(params.ConnString())
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w", redact(err, params))
	}

	if params.URL != "" && cfg.ConnConfig.Password == "" && params.Password != "" {
		cfg.ConnConfig.Password = params.Password
	}

	return cfg, nil
}

// New は新しいデータベース接続を作成します
func New(ctx context.Context, params ConnectionParams) (*Database, error) {
	cfg, err := PoolConfig(params)
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	// 接続テスト
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Database{Pool: pool}, nil
}

// Close はデータベース接続を閉じます
func (db *Database) Close() {
	if db == nil || db.Pool == nil {
		return
	}
	db.Pool.Close()
}

// redact はパース失敗時のエラーに資格情報が含まれないようにします
func redact(err error, params ConnectionParams) error {
	if params.URL == "" {
		return err
	}
	u, parseErr := url.Parse(params.URL)
	if parseErr != nil {
		return fmt.Errorf("invalid database URL")
	}
	return fmt.Errorf("invalid database URL %q", u.Redacted())
}
