package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	platformstrings "thingapi/pkg/platform/strings"
)

// Store drivers accepted by StoreConfig.Driver.
const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
)

// Geocoder providers accepted by GeocoderConfig.Provider.
const (
	GeocoderGoogle = "google"
	GeocoderStatic = "static"
)

// Server captures process level configuration.
type Server struct {
	Addr           string         `yaml:"addr"`
	LogLevel       string         `yaml:"log_level"`
	LogFormat      string         `yaml:"log_format"`
	RequestTimeout time.Duration  `yaml:"request_timeout"`
	Store          StoreConfig    `yaml:"store"`
	Postgres       PostgresConfig `yaml:"postgres"`
	Mongo          MongoConfig    `yaml:"mongo"`
	Redis          RedisConfig    `yaml:"redis"`
	Geocoder       GeocoderConfig `yaml:"geocoder"`
	Kafka          KafkaConfig    `yaml:"kafka"`
	CORS           CORSConfig     `yaml:"cors"`
}

// StoreConfig selects the record store backend.
type StoreConfig struct {
	Driver string `yaml:"driver"`
}

// PostgresConfig holds the DSN passed to lib/pq.
type PostgresConfig struct {
	DSN          string `yaml:"dsn"`
	MaxOpenConns int    `yaml:"max_open_conns"`
}

// MongoConfig locates the information collection.
type MongoConfig struct {
	URI        string `yaml:"uri"`
	Database   string `yaml:"database"`
	Collection string `yaml:"collection"`
}

// RedisConfig configures the geocode cache. An empty URL disables it.
type RedisConfig struct {
	URL          string        `yaml:"url"`
	PoolSize     int           `yaml:"pool_size"`
	MinIdleConns int           `yaml:"min_idle_conns"`
	DialTimeout  time.Duration `yaml:"dial_timeout"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// GeocoderConfig selects and configures the geocoding provider.
type GeocoderConfig struct {
	Provider string        `yaml:"provider"`
	BaseURL  string        `yaml:"base_url"`
	APIKey   string        `yaml:"api_key"`
	Timeout  time.Duration `yaml:"timeout"`
	CacheTTL time.Duration `yaml:"cache_ttl"`
}

// KafkaConfig configures the lifecycle event sink. No brokers means events
// are only logged.
type KafkaConfig struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

// CORSConfig lists origins allowed to call the API from a browser.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// Defaults returns the configuration used when nothing is set.
func Defaults() Server {
	return Server{
		Addr:           ":3000",
		LogLevel:       "info",
		LogFormat:      "json",
		RequestTimeout: 30 * time.Second,
		Store:          StoreConfig{Driver: DriverMemory},
		Postgres:       PostgresConfig{MaxOpenConns: 10},
		Mongo: MongoConfig{
			Database:   "thingapi",
			Collection: "informations",
		},
		Redis: RedisConfig{
			PoolSize:     10,
			MinIdleConns: 2,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		Geocoder: GeocoderConfig{
			Provider: GeocoderStatic,
			BaseURL:  "https://maps.googleapis.com/maps/api/geocode/json",
			Timeout:  10 * time.Second,
			CacheTTL: 24 * time.Hour,
		},
		Kafka: KafkaConfig{Topic: "thingapi.information.events"},
		CORS:  CORSConfig{AllowedOrigins: []string{"*"}},
	}
}

// Load reads the optional YAML file named by THINGAPI_CONFIG on top of the
// defaults, then applies environment overrides.
func Load() (Server, error) {
	cfg := Defaults()
	if path := os.Getenv("THINGAPI_CONFIG"); path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return Server{}, err
		}
	}
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return Server{}, err
	}
	return cfg, nil
}

// FromEnv builds a Server config from defaults and environment variables only.
func FromEnv() Server {
	cfg := Defaults()
	cfg.applyEnv()
	return cfg
}

func (c *Server) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

func (c *Server) applyEnv() {
	setString(&c.Addr, "THINGAPI_ADDR")
	setString(&c.LogLevel, "THINGAPI_LOG_LEVEL")
	setString(&c.LogFormat, "THINGAPI_LOG_FORMAT")
	setDuration(&c.RequestTimeout, "THINGAPI_REQUEST_TIMEOUT")

	setString(&c.Store.Driver, "THINGAPI_STORE_DRIVER")
	setString(&c.Postgres.DSN, "THINGAPI_POSTGRES_DSN")
	setInt(&c.Postgres.MaxOpenConns, "THINGAPI_POSTGRES_MAX_OPEN_CONNS")
	setString(&c.Mongo.URI, "THINGAPI_MONGO_URI")
	setString(&c.Mongo.Database, "THINGAPI_MONGO_DATABASE")
	setString(&c.Mongo.Collection, "THINGAPI_MONGO_COLLECTION")

	setString(&c.Redis.URL, "THINGAPI_REDIS_URL")
	setInt(&c.Redis.PoolSize, "THINGAPI_REDIS_POOL_SIZE")

	setString(&c.Geocoder.Provider, "THINGAPI_GEOCODER_PROVIDER")
	setString(&c.Geocoder.BaseURL, "THINGAPI_GEOCODER_BASE_URL")
	setString(&c.Geocoder.APIKey, "THINGAPI_GEOCODER_API_KEY")
	setDuration(&c.Geocoder.Timeout, "THINGAPI_GEOCODER_TIMEOUT")
	setDuration(&c.Geocoder.CacheTTL, "THINGAPI_GEOCODER_CACHE_TTL")

	setList(&c.Kafka.Brokers, "THINGAPI_KAFKA_BROKERS")
	setString(&c.Kafka.Topic, "THINGAPI_KAFKA_TOPIC")
	setList(&c.CORS.AllowedOrigins, "THINGAPI_CORS_ALLOWED_ORIGINS")
}

// Validate rejects configurations the server cannot start with.
func (c Server) Validate() error {
	switch c.Store.Driver {
	case DriverMemory:
	case DriverPostgres:
		if c.Postgres.DSN == "" {
			return fmt.Errorf("store driver %q requires THINGAPI_POSTGRES_DSN", c.Store.Driver)
		}
	case DriverMongo:
		if c.Mongo.URI == "" {
			return fmt.Errorf("store driver %q requires THINGAPI_MONGO_URI", c.Store.Driver)
		}
	default:
		return fmt.Errorf("unknown store driver %q", c.Store.Driver)
	}

	switch c.Geocoder.Provider {
	case GeocoderStatic:
	case GeocoderGoogle:
		if c.Geocoder.APIKey == "" {
			return fmt.Errorf("geocoder provider %q requires an API key", c.Geocoder.Provider)
		}
	default:
		return fmt.Errorf("unknown geocoder provider %q", c.Geocoder.Provider)
	}

	if c.RequestTimeout <= 0 {
		return fmt.Errorf("request timeout must be positive")
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}

func setList(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = platformstrings.SplitList(v)
	}
}
