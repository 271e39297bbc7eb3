// Package config は環境変数から設定を読み込み、アプリケーション全体で使用する設定を提供します。
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// ストア種別
const (
	StoreMemory = "memory"
	StoreRedis  = "redis"
	StoreSQLite = "sqlite"
)

// Config はアプリケーションの設定を保持する構造体です。
type Config struct {
	// サーバー設定
	Port    string // HTTPサーバーのポート番号
	GinMode string // Ginの実行モード (debug, release, test)

	// セッション設定
	SessionSecret        string // セッションCookie署名用の秘密鍵（必須）
	SessionStore         string // セッションの保存先 (memory, redis)
	SessionRedisAddr     string // セッション用Redisのアドレス
	SessionRedisPassword string // セッション用Redisのパスワード
	SessionMaxAgeSeconds int    // セッションの最大有効期間（秒、0はブラウザセッション）

	// ユーザーストア設定
	UserStore          string // ユーザーの保存先 (memory, redis, sqlite)
	UserRedisURL       string // ユーザーストア用Redis接続URL
	UserSQLitePath     string // ユーザーストア用SQLiteファイルのパス
	EnforceUniqueEmail bool   // 登録時にメールアドレスの重複を拒否するか

	// パスワードハッシュ設定
	BcryptCost int // bcryptのコスト

	// CORS設定
	CORSAllowedOrigins string // CORS許可オリジン（カンマ区切り、空なら無効）

	// ログ設定
	LogLevel  string // zerologのレベル (debug, info, warn, error)
	LogFormat string // 出力形式 (json, console)
}

// Load は環境変数から設定を読み込みます。
// release モード以外では .env.local と .env も読み込みます。
func Load() (*Config, error) {
	if os.Getenv("GIN_MODE") != "release" {
		loadEnvFiles(".env.local", ".env")
	}

	ginMode := getEnv("GIN_MODE", "debug")
	defaultFormat := "console"
	if ginMode == "release" {
		defaultFormat = "json"
	}

	config := &Config{
		// サーバー設定
		Port:    getEnv("PORT", "3000"),
		GinMode: ginMode,

		// セッション設定
		SessionSecret:        getEnv("SESSION_SECRET", ""),
		SessionStore:         strings.ToLower(getEnv("SESSION_STORE", StoreMemory)),
		SessionRedisAddr:     getEnv("SESSION_REDIS_ADDR", "127.0.0.1:6379"),
		SessionRedisPassword: getEnv("SESSION_REDIS_PASSWORD", ""),
		SessionMaxAgeSeconds: getEnvAsInt("SESSION_MAX_AGE_SECONDS", 0),

		// ユーザーストア設定
		UserStore:          strings.ToLower(getEnv("USER_STORE", StoreMemory)),
		UserRedisURL:       getEnv("USER_REDIS_URL", "redis://127.0.0.1:6379/0"),
		UserSQLitePath:     getEnv("USER_SQLITE_PATH", "session-gate.db"),
		EnforceUniqueEmail: getEnvAsBool("ENFORCE_UNIQUE_EMAIL", false),

		// パスワードハッシュ設定
		BcryptCost: getEnvAsInt("BCRYPT_COST", 10),

		// CORS設定
		CORSAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", ""),

		// ログ設定
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", defaultFormat),
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// loadEnvFiles は作業ディレクトリ、次に親ディレクトリから環境ファイルを読み込みます。
// 既に設定済みの環境変数は上書きしません。
func loadEnvFiles(names ...string) {
	dirs := []string{""}
	if cwd, err := os.Getwd(); err == nil {
		if parent := filepath.Dir(cwd); parent != "" && parent != cwd {
			dirs = append(dirs, parent)
		}
	}

	for _, name := range names {
		for _, dir := range dirs {
			if err := godotenv.Load(filepath.Join(dir, name)); err == nil {
				break
			}
		}
	}
}

// Validate は設定の妥当性を検証します。
func (c *Config) Validate() error {
	if c.SessionSecret == "" {
		return fmt.Errorf("SESSION_SECRET is required")
	}

	switch c.SessionStore {
	case StoreMemory:
	case StoreRedis:
		if c.SessionRedisAddr == "" {
			return fmt.Errorf("SESSION_REDIS_ADDR is required when SESSION_STORE=redis")
		}
	default:
		return fmt.Errorf("unsupported SESSION_STORE: %q", c.SessionStore)
	}

	switch c.UserStore {
	case StoreMemory:
	case StoreRedis:
		if c.UserRedisURL == "" {
			return fmt.Errorf("USER_REDIS_URL is required when USER_STORE=redis")
		}
	case StoreSQLite:
		if c.UserSQLitePath == "" {
			return fmt.Errorf("USER_SQLITE_PATH is required when USER_STORE=sqlite")
		}
	default:
		return fmt.Errorf("unsupported USER_STORE: %q", c.UserStore)
	}

	if c.SessionMaxAgeSeconds < 0 {
		return fmt.Errorf("SESSION_MAX_AGE_SECONDS must not be negative")
	}

	return nil
}

// IsRelease は release モードで動作しているかを返します。
func (c *Config) IsRelease() bool {
	return c.GinMode == "release"
}

// AllowedOrigins は CORS 許可オリジンを配列で返します。
func (c *Config) AllowedOrigins() []string {
	var origins []string
	for _, o := range strings.Split(c.CORSAllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

// getEnv は環境変数を取得し、存在しない場合はデフォルト値を返します。
func getEnv(key string, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvAsInt は環境変数を整数として取得します。
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

// getEnvAsBool は環境変数を真偽値として取得します。
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
