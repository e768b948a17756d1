package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

var ErrInvalidConfig = errors.New("invalid config")

type Config struct {
	Env         string `mapstructure:"ENV"`
	LogLevel    string `mapstructure:"LOG_LEVEL"`
	ServiceName string `mapstructure:"SERVICE_NAME"`
	ServerHost  string `mapstructure:"SERVER_HOST"`
	ServerPort  string `mapstructure:"SERVER_PORT"`

	DbDriver   string `mapstructure:"DB_DRIVER"`
	DbName     string `mapstructure:"POSTGRES_DB"`
	DbHost     string `mapstructure:"POSTGRES_HOST"`
	DbPort     string `mapstructure:"POSTGRES_PORT"`
	DbUser     string `mapstructure:"POSTGRES_USER"`
	DbPas      string `mapstructure:"POSTGRES_PASSWORD"`
	SqlitePath string `mapstructure:"SQLITE_PATH"`

	RedisAddr       string        `mapstructure:"REDIS_ADDR"`
	RedisPassword   string        `mapstructure:"REDIS_PASSWORD"`
	RedisDB         int           `mapstructure:"REDIS_DB"`
	ProductCacheTTL time.Duration `mapstructure:"PRODUCT_CACHE_TTL"`

	KafkaBrokers    []string `mapstructure:"KAFKA_BROKERS"`
	KafkaOrderTopic string   `mapstructure:"KAFKA_ORDER_TOPIC"`

	AuthTokenKey         string        `mapstructure:"AUTH_TOKEN_KEY"`
	AccessTokenDuration  time.Duration `mapstructure:"ACCESS_TOKEN_DURATION"`
	RefreshTokenDuration time.Duration `mapstructure:"REFRESH_TOKEN_DURATION"`
	AdminEmail           string        `mapstructure:"ADMIN_EMAIL"`
	AdminPassword        string        `mapstructure:"ADMIN_PASSWORD"`

	OtelEndpoint string `mapstructure:"OTEL_EXPORTER_OTLP_ENDPOINT"`

	ShippingFlatCost      int64 `mapstructure:"SHIPPING_FLAT_COST"`
	FreeShippingThreshold int64 `mapstructure:"FREE_SHIPPING_THRESHOLD"`
	TaxRateBps            int64 `mapstructure:"TAX_RATE_BPS"`

	RateLimitCapacity        int     `mapstructure:"RATE_LIMIT_CAPACITY"`
	RateLimitRefillPerSecond float64 `mapstructure:"RATE_LIMIT_REFILL_PER_SECOND"`

	DefaultPageSize int `mapstructure:"DEFAULT_PAGE_SIZE"`
	MaxPageSize     int `mapstructure:"MAX_PAGE_SIZE"`
}

var defaults = map[string]any{
	"ENV":                          "dev",
	"LOG_LEVEL":                    "info",
	"SERVICE_NAME":                 "retail-platform-backend",
	"SERVER_HOST":                  "0.0.0.0",
	"SERVER_PORT":                  "8080",
	"DB_DRIVER":                    "postgres",
	"POSTGRES_DB":                  "shop",
	"POSTGRES_HOST":                "localhost",
	"POSTGRES_PORT":                "5432",
	"POSTGRES_USER":                "postgres",
	"POSTGRES_PASSWORD":            "",
	"SQLITE_PATH":                  "shop.db",
	"REDIS_ADDR":                   "",
	"REDIS_PASSWORD":               "",
	"REDIS_DB":                     0,
	"PRODUCT_CACHE_TTL":            "5m",
	"KAFKA_BROKERS":                "",
	"KAFKA_ORDER_TOPIC":            "shop.orders",
	"AUTH_TOKEN_KEY":               "",
	"ACCESS_TOKEN_DURATION":        "15m",
	"REFRESH_TOKEN_DURATION":       "720h",
	"ADMIN_EMAIL":                  "",
	"ADMIN_PASSWORD":               "",
	"OTEL_EXPORTER_OTLP_ENDPOINT":  "",
	"SHIPPING_FLAT_COST":           0,
	"FREE_SHIPPING_THRESHOLD":      0,
	"TAX_RATE_BPS":                 0,
	"RATE_LIMIT_CAPACITY":          60,
	"RATE_LIMIT_REFILL_PER_SECOND": 1.0,
	"DEFAULT_PAGE_SIZE":            20,
	"MAX_PAGE_SIZE":                100,
}

func newViper(path string) *viper.Viper {
	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	v.AutomaticEnv()
	if path != "" {
		v.SetConfigFile(path)
	}
	return v
}

/*
Load 讀取設定, path 為空時只看環境變數與預設值.
環境變數優先於設定檔.
*/
func Load(path string) (*Config, error) {
	v := newViper(path)
	return read(v, path)
}

func read(v *viper.Viper, path string) (*Config, error) {
	if path != "" {
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	cf := &Config{}
	if err := v.Unmarshal(cf); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cf.KafkaBrokers = splitList(cf.KafkaBrokers)

	if err := cf.Validate(); err != nil {
		return nil, err
	}
	return cf, nil
}

// env 給的 "a:9092,b:9092" 會變成單一元素
func splitList(in []string) []string {
	var out []string
	for _, s := range in {
		for _, part := range strings.Split(s, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func (c *Config) Validate() error {
	var errs []error
	switch c.DbDriver {
	case "postgres", "sqlite":
	default:
		errs = append(errs, fmt.Errorf("DB_DRIVER must be postgres or sqlite, got %q", c.DbDriver))
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("LOG_LEVEL: %w", err))
	}
	if c.AccessTokenDuration <= 0 || c.RefreshTokenDuration <= 0 {
		errs = append(errs, errors.New("token durations must be positive"))
	}
	if c.ShippingFlatCost < 0 || c.FreeShippingThreshold < 0 || c.TaxRateBps < 0 {
		errs = append(errs, errors.New("pricing values cannot be negative"))
	}
	if c.DefaultPageSize <= 0 || c.MaxPageSize < c.DefaultPageSize {
		errs = append(errs, errors.New("page sizes must satisfy 0 < DEFAULT_PAGE_SIZE <= MAX_PAGE_SIZE"))
	}
	if len(errs) > 0 {
		return errors.Join(append([]error{ErrInvalidConfig}, errs...)...)
	}
	return nil
}

func (c *Config) IsDev() bool {
	return c.Env == "dev"
}

func (c *Config) Addr() string {
	return c.ServerHost + ":" + c.ServerPort
}

/*
Watch 監看設定檔, 變更時只套用 LOG_LEVEL, 其餘設定需重啟.
path 為空時不做任何事.
*/
func Watch(path string, onLevel func(zerolog.Level)) {
	if path == "" {
		return
	}
	v := newViper(path)
	if err := v.ReadInConfig(); err != nil {
		return
	}
	v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		level, err := zerolog.ParseLevel(v.GetString("LOG_LEVEL"))
		if err != nil {
			return
		}
		onLevel(level)
	})
	v.WatchConfig()
}
