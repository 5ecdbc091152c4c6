package config

import (
	"crypto/subtle"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config アプリケーション全体の設定
type Config struct {
	Server        ServerConfig
	Gateway       GatewayConfig
	Twilio        TwilioConfig
	IVR           IVRConfig
	SMS           SMSConfig
	EventLog      EventLogConfig
	Database      DatabaseConfig
	Redis         RedisConfig
	JWT           JWTConfig
	AdminAPI      AdminAPIConfig
	OpenTelemetry OpenTelemetryConfig
	Environment   string
}

// ServerConfig サーバー設定
type ServerConfig struct {
	Port         int
	GRPCPort     int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// GatewayConfig カード決済ゲートウェイ設定
// クライアント識別情報は呼び出し箇所ではなくここで一元管理する。
type GatewayConfig struct {
	Endpoint        string
	APIKey          string
	Version         string
	SoftwareName    string
	SoftwareVersion string
	Command         string
	Timeout         time.Duration
}

// TwilioConfig Webhook署名検証の設定
type TwilioConfig struct {
	AuthToken     string
	PublicBaseURL string // 署名計算に使う外部公開URL（リバースプロキシ配下の場合）
}

// SignatureEnabled 署名検証が有効かどうかを返す
func (c *TwilioConfig) SignatureEnabled() bool {
	return c.AuthToken != ""
}

// IVRConfig 電話寄付フローの設定
type IVRConfig struct {
	AudioBaseURL   string
	Voice          string
	FinishOnKey    string
	InputTimeout   time.Duration
	ConfirmTimeout time.Duration
	RetryTimeout   time.Duration
	RetryDigit     string
	ReplayTokenTTL time.Duration
}

// SMSConfig SMS寄付フローの設定
type SMSConfig struct {
	SessionTTL time.Duration
}

// EventLogConfig イベントログ設定
type EventLogConfig struct {
	Capacity int
	Redact   bool
}

// DatabaseConfig データベース設定
type DatabaseConfig struct {
	Enabled         bool
	Host            string
	Port            int
	User            string
	Password        string
	Database        string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// RedisConfig Redis設定
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
	Enabled  bool
}

// JWTConfig JWT設定
type JWTConfig struct {
	Secret     string
	Expiration time.Duration
	Issuer     string
}

// AdminAPIConfig 管理API設定
type AdminAPIConfig struct {
	Enabled    bool
	APIKey     string
	AllowedIPs []string
}

// OpenTelemetryConfig OpenTelemetry設定
type OpenTelemetryConfig struct {
	Enabled         bool
	ServiceName     string
	ServiceVersion  string
	Environment     string
	OTLPEndpoint    string
	OTLPInsecure    bool
	TraceExporter   string // "otlp", "stdout"
	MetricsExporter string // "otlp", "stdout"
}

// Load 設定を読み込む
func Load() (*Config, error) {
	// .envファイルを読み込む（存在しない場合は無視）
	_ = godotenv.Load()

	env := getEnv("ENVIRONMENT", "development")
	port := getEnvAsInt("SERVER_PORT", getEnvAsInt("PORT", 3000))

	cfg := &Config{
		Environment: env,
		Server: ServerConfig{
			Port:        port,
			GRPCPort:    getEnvAsInt("GRPC_PORT", port+1),
			ReadTimeout: getEnvAsDuration("SERVER_READ_TIMEOUT", 15*time.Second),
			// 決済ゲートウェイの応答を待つためGATEWAY_TIMEOUTより長くする
			WriteTimeout: getEnvAsDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
			IdleTimeout:  getEnvAsDuration("SERVER_IDLE_TIMEOUT", 60*time.Second),
		},
		Gateway: GatewayConfig{
			Endpoint:        getEnv("GATEWAY_ENDPOINT", "https://x1.cardknox.com/gatewayjson"),
			APIKey:          getEnv("CARDKNOX_API_KEY", ""),
			Version:         getEnv("GATEWAY_VERSION", "4.5.6"),
			SoftwareName:    getEnv("GATEWAY_SOFTWARE_NAME", "DonationSMS"),
			SoftwareVersion: getEnv("GATEWAY_SOFTWARE_VERSION", "4.5.6"),
			Command:         getEnv("GATEWAY_COMMAND", "cc:sale"),
			Timeout:         getEnvAsDuration("GATEWAY_TIMEOUT", 10*time.Second),
		},
		Twilio: TwilioConfig{
			AuthToken:     getEnv("TWILIO_AUTH_TOKEN", ""),
			PublicBaseURL: strings.TrimRight(getEnv("PUBLIC_BASE_URL", ""), "/"),
		},
		IVR: IVRConfig{
			AudioBaseURL:   strings.TrimRight(getEnv("IVR_AUDIO_BASE_URL", "https://raw.githubusercontent.com/kmvyyg/donation/main"), "/"),
			Voice:          getEnv("IVR_VOICE", "man"),
			FinishOnKey:    getEnv("IVR_FINISH_ON_KEY", "#"),
			InputTimeout:   getEnvAsDuration("IVR_INPUT_TIMEOUT", 10*time.Second),
			ConfirmTimeout: getEnvAsDuration("IVR_CONFIRM_TIMEOUT", 10*time.Second),
			RetryTimeout:   getEnvAsDuration("IVR_RETRY_TIMEOUT", 5*time.Second),
			RetryDigit:     getEnv("IVR_RETRY_DIGIT", "1"),
			ReplayTokenTTL: getEnvAsDuration("IVR_REPLAY_TOKEN_TTL", 10*time.Minute),
		},
		SMS: SMSConfig{
			SessionTTL: getEnvAsDuration("SMS_SESSION_TTL", 30*time.Minute),
		},
		EventLog: EventLogConfig{
			Capacity: getEnvAsInt("EVENT_LOG_CAPACITY", 100),
			Redact:   getEnvAsBool("EVENT_LOG_REDACT", true),
		},
		Database: DatabaseConfig{
			Enabled:         getEnvAsBool("DB_ENABLED", false),
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnvAsInt("DB_PORT", 3306),
			User:            getEnv("DB_USER", "root"),
			Password:        getEnv("DB_PASSWORD", ""),
			Database:        getEnv("DB_NAME", "donation_db"),
			MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
			ConnMaxIdleTime: getEnvAsDuration("DB_CONN_MAX_IDLE_TIME", 10*time.Minute),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnvAsInt("REDIS_PORT", 6379),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
		},
		JWT: jwtFromEnv(),
		AdminAPI: AdminAPIConfig{
			Enabled:    getEnvAsBool("ADMIN_API_ENABLED", true),
			APIKey:     getEnv("ADMIN_API_KEY", ""),
			AllowedIPs: getEnvAsSlice("ADMIN_API_ALLOWED_IPS"),
		},
		OpenTelemetry: OpenTelemetryConfig{
			Enabled:         getEnvAsBool("OTEL_ENABLED", false),
			ServiceName:     getEnv("OTEL_SERVICE_NAME", "donation-server"),
			ServiceVersion:  getEnv("OTEL_SERVICE_VERSION", "1.0.0"),
			Environment:     env,
			OTLPEndpoint:    getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318"),
			OTLPInsecure:    getEnvAsBool("OTEL_EXPORTER_OTLP_INSECURE", true),
			TraceExporter:   getEnv("OTEL_TRACES_EXPORTER", "otlp"),
			MetricsExporter: getEnv("OTEL_METRICS_EXPORTER", "otlp"),
		},
	}

	// 必須設定の検証
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// LoadJWT JWT設定のみを読み込む（運用CLIでのトークン発行用）
func LoadJWT() (*JWTConfig, error) {
	_ = godotenv.Load()

	cfg := jwtFromEnv()
	if cfg.Secret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	return &cfg, nil
}

func jwtFromEnv() JWTConfig {
	return JWTConfig{
		Secret:     getEnv("JWT_SECRET", ""),
		Expiration: getEnvAsDuration("JWT_EXPIRATION", time.Hour),
		Issuer:     getEnv("JWT_ISSUER", "donation-server"),
	}
}

// validate 設定の検証
func (c *Config) validate() error {
	if c.Gateway.APIKey == "" {
		return fmt.Errorf("CARDKNOX_API_KEY is required")
	}
	if c.Gateway.Timeout <= 0 {
		return fmt.Errorf("GATEWAY_TIMEOUT must be positive")
	}
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.AdminAPI.Enabled && c.AdminAPI.APIKey == "" {
		return fmt.Errorf("ADMIN_API_KEY is required when admin API is enabled")
	}
	if c.Database.Enabled && c.Database.Database == "" {
		return fmt.Errorf("DB_NAME is required")
	}
	if len(c.IVR.RetryDigit) != 1 {
		return fmt.Errorf("IVR_RETRY_DIGIT must be a single key")
	}
	return nil
}

// DSN データベース接続文字列を返す
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		c.User,
		c.Password,
		c.Host,
		c.Port,
		c.Database,
	)
}

// Address Redis接続アドレスを返す
func (c *RedisConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// KeyMatches 提示されたAPIキーが設定値と一致するかを定数時間で比較する
func (c *AdminAPIConfig) KeyMatches(given string) bool {
	if c.APIKey == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(given), []byte(c.APIKey)) == 1
}

// AllowsIP IPアドレスが許可リスト（単一アドレスまたはCIDR）に含まれるかを返す
// 許可リストが空の場合は全て許可する。
func (c *AdminAPIConfig) AllowsIP(ip string) bool {
	if len(c.AllowedIPs) == 0 {
		return true
	}
	parsed := net.ParseIP(ip)
	for _, allowed := range c.AllowedIPs {
		if ip == allowed {
			return true
		}
		if parsed == nil || !strings.Contains(allowed, "/") {
			continue
		}
		if _, network, err := net.ParseCIDR(allowed); err == nil && network.Contains(parsed) {
			return true
		}
	}
	return false
}

// AudioURL 音声ファイル名から再生URLを返す
func (c *IVRConfig) AudioURL(name string) string {
	if name == "" || c.AudioBaseURL == "" {
		return ""
	}
	return c.AudioBaseURL + "/" + name
}

// getEnv 環境変数を取得（デフォルト値付き）
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt 環境変数を整数として取得
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsBool 環境変数を真偽値として取得
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsDuration 環境変数を時間として取得
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsSlice カンマ区切りの環境変数をスライスとして取得
func getEnvAsSlice(key string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return nil
	}
	var values []string
	for _, v := range strings.Split(valueStr, ",") {
		if v = strings.TrimSpace(v); v != "" {
			values = append(values, v)
		}
	}
	return values
}
