package infra

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config — корневая структура конфигурации консоли.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Upstream UpstreamConfig `mapstructure:"upstream"`
	Poller   PollerConfig   `mapstructure:"poller"`
	Chat     ChatConfig     `mapstructure:"chat"`
	Status   StatusConfig   `mapstructure:"status"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Logger   LoggerConfig   `mapstructure:"logger"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
}

// ServerConfig описывает настройки HTTP-сервера.
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// Addr возвращает адрес для net/http.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// UpstreamConfig описывает бэкенд SAUDE, из которого читаются данные дашборда.
type UpstreamConfig struct {
	BaseURL      string        `mapstructure:"base_url"`
	Timeout      time.Duration `mapstructure:"timeout"`
	FunctionsKey string        `mapstructure:"functions_key"` // x-functions-key
	BearerToken  string        `mapstructure:"bearer_token"`

	RateLimit float64 `mapstructure:"rate_limit"` // запросов в секунду на весь процесс
	RateBurst int     `mapstructure:"rate_burst"`

	// Настройки Circuit Breaker
	CBMaxRequests uint32        `mapstructure:"cb_max_requests"`
	CBInterval    time.Duration `mapstructure:"cb_interval"`
	CBTimeout     time.Duration `mapstructure:"cb_timeout"`
	CBFailures    uint32        `mapstructure:"cb_failures"`

	RetryAttempts uint `mapstructure:"retry_attempts"`
}

// PollerConfig — периоды опроса виджетов.
type PollerConfig struct {
	DecisionsInterval time.Duration `mapstructure:"decisions_interval"`
	FeedInterval      time.Duration `mapstructure:"feed_interval"`
	LogsInterval      time.Duration `mapstructure:"logs_interval"`
}

type ChatConfig struct {
	Timeout      time.Duration `mapstructure:"timeout"`
	DiscardStale bool          `mapstructure:"discard_stale"`
}

// StatusConfig настраивает фоновый опрос статусов durable-инстансов.
type StatusConfig struct {
	Interval    time.Duration `mapstructure:"interval"`
	InstanceIDs []string      `mapstructure:"instance_ids"`
	MaxTracked  int           `mapstructure:"max_tracked"`
	BufferSize  int           `mapstructure:"buffer_size"`
}

// RedisConfig описывает подключение к Redis (общий кэш ответов бэкенда).
// Пустой Addr — кэш выключен.
type RedisConfig struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
}

// AuthConfig содержит пути к RSA ключам и учетку оператора.
type AuthConfig struct {
	PublicKeyPath  string        `mapstructure:"public_key_path"`
	PrivateKeyPath string        `mapstructure:"private_key_path"`
	TokenTTL       time.Duration `mapstructure:"token_ttl"`
	BcryptCost     int           `mapstructure:"bcrypt_cost"`

	OperatorUsername     string `mapstructure:"operator_username"`
	OperatorPasswordHash string `mapstructure:"operator_password_hash"`

	PublicKey  []byte
	PrivateKey []byte
}

// Enabled — периметр закрыт только если есть публичный ключ.
func (a AuthConfig) Enabled() bool {
	return len(a.PublicKey) > 0
}

// LoggerConfig настраивает поведение zap логгера.
type LoggerConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // json, console
}

type MetricsConfig struct {
	Path string `mapstructure:"path"`
}

// LoadConfig инициализирует конфигурацию, объединяя значения из файла, .env и ENV.
func LoadConfig() (*Config, error) {
	// .env нужен только локально, в контейнере его нет
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("error reading .env: %w", err)
	}

	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")

	// UPSTREAM_BASE_URL=http://saude:8000 перекроет upstream.base_url
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Если файла нет — работаем на ENV и дефолтах
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}

	cfg.Upstream.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.Upstream.BaseURL), "/")
	if cfg.Upstream.BaseURL == "" {
		return nil, errors.New("upstream.base_url is required")
	}

	cfg.Auth.PublicKey = loadKeyResource(cfg.Auth.PublicKeyPath, "AUTH_PUBLIC_KEY_DATA")
	cfg.Auth.PrivateKey = loadKeyResource(cfg.Auth.PrivateKeyPath, "AUTH_PRIVATE_KEY_DATA")

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	// Пустые дефолты нужны, чтобы AutomaticEnv видел ключ при Unmarshal
	for _, key := range []string{
		"server.host",
		"upstream.functions_key", "upstream.bearer_token",
		"redis.addr", "redis.password",
		"auth.public_key_path", "auth.private_key_path", "auth.operator_password_hash",
	} {
		v.SetDefault(key, "")
	}
	v.SetDefault("redis.db", 0)
	v.SetDefault("status.instance_ids", []string{})

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 5*time.Second)
	v.SetDefault("server.shutdown_timeout", 5*time.Second)

	v.SetDefault("upstream.base_url", "http://localhost:8000")
	v.SetDefault("upstream.timeout", 20*time.Second)
	v.SetDefault("upstream.rate_limit", 50.0)
	v.SetDefault("upstream.rate_burst", 20)
	v.SetDefault("upstream.cb_max_requests", 3)
	v.SetDefault("upstream.cb_interval", 5*time.Second)
	v.SetDefault("upstream.cb_timeout", 30*time.Second)
	v.SetDefault("upstream.cb_failures", 5)
	v.SetDefault("upstream.retry_attempts", 3)

	v.SetDefault("poller.decisions_interval", 30*time.Second)
	v.SetDefault("poller.feed_interval", 10*time.Second)
	v.SetDefault("poller.logs_interval", 10*time.Second)

	v.SetDefault("chat.timeout", 60*time.Second)
	v.SetDefault("chat.discard_stale", false)

	v.SetDefault("status.interval", 30*time.Second)
	v.SetDefault("status.max_tracked", 256)
	v.SetDefault("status.buffer_size", 1000)

	v.SetDefault("redis.cache_ttl", 2*time.Second)

	v.SetDefault("auth.token_ttl", 12*time.Hour)
	v.SetDefault("auth.bcrypt_cost", 12)
	v.SetDefault("auth.operator_username", "operator")

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "json")

	v.SetDefault("metrics.path", "/metrics")
}

// loadKeyResource: PEM из ENV (Docker/K8s) либо из файла по пути из конфига.
func loadKeyResource(path string, envDataKey string) []byte {
	if data := os.Getenv(envDataKey); data != "" {
		return []byte(data)
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err == nil {
			return data
		}
	}
	return nil
}
