package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config представляет конфигурацию приложения
type Config struct {
	Server    ServerConfig    `json:"server"`
	Storage   StorageConfig   `json:"storage"`
	Database  DatabaseConfig  `json:"database"`
	Redis     RedisConfig     `json:"redis"`
	Cache     CacheConfig     `json:"cache"`
	Kafka     KafkaConfig     `json:"kafka"`
	Logger    LoggerConfig    `json:"logger"`
	Tax       TaxConfig       `json:"tax"`
	Pricing   PricingConfig   `json:"pricing"`
	RateLimit RateLimitConfig `json:"rate_limit"`
	Metrics   MetricsConfig   `json:"metrics"`
}

// ServerConfig представляет конфигурацию HTTP сервера
type ServerConfig struct {
	Port         string `json:"port"`
	Host         string `json:"host"`
	ReadTimeout  int    `json:"read_timeout"`
	WriteTimeout int    `json:"write_timeout"`
}

// StorageConfig выбирает хранилище реестра терминалов: postgres | memory
type StorageConfig struct {
	Driver string `json:"driver"`
}

// DatabaseConfig представляет конфигурацию базы данных
type DatabaseConfig struct {
	Host     string `json:"host"`
	Port     string `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	DBName   string `json:"db_name"`
	SSLMode  string `json:"ssl_mode"`
}

// RedisConfig представляет конфигурацию Redis
type RedisConfig struct {
	Enabled  bool   `json:"enabled"`
	Host     string `json:"host"`
	Port     string `json:"port"`
	Password string `json:"password"`
	DB       int    `json:"db"`
}

// CacheConfig описывает кеш базовых цен
type CacheConfig struct {
	Enabled    bool `json:"enabled"`
	TTLMinutes int  `json:"ttl_minutes"`
}

// KafkaConfig представляет конфигурацию Kafka
type KafkaConfig struct {
	Enabled bool     `json:"enabled"`
	Brokers []string `json:"brokers"`
	GroupID string   `json:"group_id"`
	Topics  Topics   `json:"topics"`
}

// Topics представляет список топиков Kafka
type Topics struct {
	Terminals string `json:"terminals"`
	Pricing   string `json:"pricing"`
}

// LoggerConfig представляет конфигурацию логгера
type LoggerConfig struct {
	Level  string `json:"level"`
	Format string `json:"format"`
	File   string `json:"file"`
}

// TaxRateConfig описывает один налог: имя, ставка в процентах и необязательный период действия.
type TaxRateConfig struct {
	Name    string `json:"name"`
	Percent string `json:"percent"`
	From    string `json:"from,omitempty"`
	To      string `json:"to,omitempty"`
}

// TaxConfig хранит налоговые ставки
type TaxConfig struct {
	Rates []TaxRateConfig `json:"rates"`
}

// PricingConfig хранит настройки расчёта цены
type PricingConfig struct {
	Descriptions bool `json:"descriptions"`
}

// RateLimitConfig описывает настройки rate limiting
type RateLimitConfig struct {
	Enabled       bool   `json:"enabled"`
	Backend       string `json:"backend"` // redis | memory
	Requests      int    `json:"requests"`
	WindowSeconds int    `json:"window_seconds"`
	Burst         int    `json:"burst"`
	KeyPrefix     string `json:"key_prefix"`
}

// MetricsConfig описывает экспорт Prometheus метрик
type MetricsConfig struct {
	Enabled   bool   `json:"enabled"`
	Namespace string `json:"namespace"`
}

// Load загружает конфигурацию из переменных окружения (и .env, если он есть)
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Server: ServerConfig{
			Port:         getEnv("SERVER_PORT", "8080"),
			Host:         getEnv("SERVER_HOST", "0.0.0.0"),
			ReadTimeout:  getEnvAsInt("SERVER_READ_TIMEOUT", 10),
			WriteTimeout: getEnvAsInt("SERVER_WRITE_TIMEOUT", 10),
		},
		Storage: StorageConfig{
			Driver: strings.ToLower(getEnv("STORAGE_DRIVER", "postgres")),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "bus_pricing"),
			Password: getEnv("DB_PASSWORD", "bus_pricing"),
			DBName:   getEnv("DB_NAME", "bus_pricing"),
			SSLMode:  getEnv("DB_SSL_MODE", "disable"),
		},
		Redis: RedisConfig{
			Enabled:  getEnvAsBool("REDIS_ENABLED", true),
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Cache: CacheConfig{
			Enabled:    getEnvAsBool("CACHE_ENABLED", true),
			TTLMinutes: getEnvAsInt("CACHE_TTL_MINUTES", 15),
		},
		Kafka: KafkaConfig{
			Enabled: getEnvAsBool("KAFKA_ENABLED", true),
			Brokers: strings.Split(getEnv("KAFKA_BROKERS", "localhost:9092"), ","),
			GroupID: getEnv("KAFKA_GROUP_ID", "bus-pricing"),
			Topics: Topics{
				Terminals: getEnv("KAFKA_TOPIC_TERMINALS", "bus-terminals"),
				Pricing:   getEnv("KAFKA_TOPIC_PRICING", "pricing"),
			},
		},
		Logger: LoggerConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
			File:   getEnv("LOG_FILE", ""),
		},
		Tax: TaxConfig{
			Rates: parseTaxRates(getEnv("TAX_RATES", "VAT:21")),
		},
		Pricing: PricingConfig{
			Descriptions: getEnvAsBool("PRICING_DESCRIPTIONS", true),
		},
		RateLimit: RateLimitConfig{
			Enabled:       getEnvAsBool("RATE_LIMIT_ENABLED", false),
			Backend:       strings.ToLower(getEnv("RATE_LIMIT_BACKEND", "redis")),
			Requests:      getEnvAsInt("RATE_LIMIT_REQUESTS", 100),
			WindowSeconds: getEnvAsInt("RATE_LIMIT_WINDOW_SECONDS", 60),
			Burst:         getEnvAsInt("RATE_LIMIT_BURST", 10),
			KeyPrefix:     getEnv("RATE_LIMIT_KEY_PREFIX", "ratelimit"),
		},
		Metrics: MetricsConfig{
			Enabled:   getEnvAsBool("METRICS_ENABLED", true),
			Namespace: getEnv("METRICS_NAMESPACE", "bus_pricing"),
		},
	}
}

// parseTaxRates разбирает список вида "VAT:21,City:2:2025-01-01:2025-12-31".
// Пустые элементы пропускаются, проверка значений выполняется сервисом налогов.
func parseTaxRates(raw string) []TaxRateConfig {
	var rates []TaxRateConfig
	for _, entry := range strings.Split(raw, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		parts := strings.Split(entry, ":")
		rate := TaxRateConfig{Name: strings.TrimSpace(parts[0])}
		if len(parts) > 1 {
			rate.Percent = strings.TrimSpace(parts[1])
		}
		if len(parts) > 2 {
			rate.From = strings.TrimSpace(parts[2])
		}
		if len(parts) > 3 {
			rate.To = strings.TrimSpace(parts[3])
		}
		rates = append(rates, rate)
	}
	return rates
}

// getEnv получает значение переменной окружения с значением по умолчанию
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// getEnvAsInt получает значение переменной окружения как int с значением по умолчанию
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool получает значение переменной окружения как bool с значением по умолчанию
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := strings.ToLower(getEnv(key, ""))
	if valueStr == "true" || valueStr == "1" || valueStr == "yes" {
		return true
	}
	if valueStr == "false" || valueStr == "0" || valueStr == "no" {
		return false
	}
	return defaultValue
}
