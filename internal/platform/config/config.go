package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// DefaultEnvFile は起動時に読み込む環境変数ファイル
const DefaultEnvFile = ".env.local"

// Config はアプリケーション全体の設定を保持します
type Config struct {
	// Database設定
	Database DatabaseConfig

	// OpenAI設定（Embeddings用）
	OpenAI OpenAIConfig

	// HTTPサーバ設定
	Server ServerConfig

	// ログ設定
	Log LogConfig

	// NumberingLock が true の場合、採番から挿入までをアドバイザリロックで直列化する
	NumberingLock bool
}

// DatabaseConfig はデータベース接続設定。
// URL が空の場合は個別パラメータで接続します。
type DatabaseConfig struct {
	URL        string
	ServiceKey string // URL にパスワードが無い場合に使用する資格情報
	Host       string
	Port       int
	User       string
	Password   string
	DBName     string
	SSLMode    string
}

// OpenAIConfig はOpenAI API設定
type OpenAIConfig struct {
	APIKey             string
	BaseURL            string
	EmbeddingModel     string
	EmbeddingDimension int
	MaxInputTokens     int
}

// ServerConfig はHTTPサーバ設定
type ServerConfig struct {
	Port             int
	AllowedOrigins   []string
	DebugEnvEndpoint bool // /debug/env を公開するか
}

// LogConfig はログ設定
type LogConfig struct {
	Level  string
	Format string
}

// Load は環境変数または.envファイルから設定を読み込みます。
// .envファイルの値はプロセスの環境変数を上書きします。
func Load(envFilePath string) (*Config, error) {
	if envFilePath != "" {
		if err := godotenv.Overload(envFilePath); err != nil {
			// ファイルが存在しない場合はエラーとしない（環境変数のみで動作可能）
			if !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("failed to load env file %s: %w", envFilePath, err)
			}
		}
	}

	cfg := &Config{
		Database: DatabaseConfig{
			URL:        getEnv("SUPABASE_URL", ""),
			ServiceKey: getEnv("SUPABASE_SERVICE_ROLE_KEY", ""),
			Host:       getEnv("DB_HOST", "localhost"),
			Port:       getEnvAsInt("DB_PORT", 5432),
			User:       getEnv("DB_USER", "postgres"),
			Password:   getEnv("DB_PASSWORD", ""),
			DBName:     getEnv("DB_NAME", "postgres"),
			SSLMode:    getEnv("DB_SSLMODE", "disable"),
		},
		OpenAI: OpenAIConfig{
			APIKey:             getEnv("OPENAI_API_KEY", ""),
			BaseURL:            getEnv("OPENAI_BASE_URL", ""),
			EmbeddingModel:     getEnv("OPENAI_MODEL_EMBED", "text-embedding-3-small"),
			EmbeddingDimension: getEnvAsInt("OPENAI_EMBEDDING_DIMENSION", StoredEmbeddingDimension),
			MaxInputTokens:     getEnvAsInt("EMBED_MAX_INPUT_TOKENS", 8191),
		},
		Server: ServerConfig{
			Port:             getEnvAsInt("PORT", 8080),
			AllowedOrigins:   ParseOrigins(os.Getenv("ALLOWED_ORIGINS")),
			DebugEnvEndpoint: getEnvAsBool("DEBUG_ENV_ENDPOINT", false),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		NumberingLock: getEnvAsBool("NUMBERING_LOCK", false),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// StoredEmbeddingDimension は messages.embedding 列 (VECTOR(1536)) の次元数
const StoredEmbeddingDimension = 1536

// Validate は設定値の整合性を検証します
func (c *Config) Validate() error {
	if c.OpenAI.EmbeddingDimension <= 0 {
		return fmt.Errorf("OPENAI_EMBEDDING_DIMENSION must be positive, got %d", c.OpenAI.EmbeddingDimension)
	}
	if c.OpenAI.EmbeddingDimension != StoredEmbeddingDimension {
		return fmt.Errorf("OPENAI_EMBEDDING_DIMENSION must be %d to match the messages.embedding column, got %d",
			StoredEmbeddingDimension, c.OpenAI.EmbeddingDimension)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("PORT must be between 1 and 65535, got %d", c.Server.Port)
	}
	return nil
}

// DatabasePassword は接続に使用するパスワードを返します
func (c DatabaseConfig) DatabasePassword() string {
	if c.URL != "" {
		return c.ServiceKey
	}
	if c.Password == "" {
		return c.ServiceKey
	}
	return c.Password
}

// ParseOrigins はカンマ区切りのオリジン一覧を分解し、空要素を除外します
func ParseOrigins(value string) []string {
	var origins []string
	for _, o := range strings.Split(value, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

// getEnv は環境変数を取得し、存在しない場合はデフォルト値を返します
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt は環境変数を整数として取得します
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsBool は環境変数を真偽値として取得します
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
