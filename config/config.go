// Package config loads process settings from the environment.
package config

import (
	"crypto/tls"
	"fmt"
	"os"
	"strings"
	"time"

	env "github.com/Netflix/go-env"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

const (
	BackendTables = "tables"
	BackendMongo  = "mongo"
	BackendBadger = "badger"
)

// Server holds the settings of the employees service and storage-init.
type Server struct {
	Port          string        `env:"PORT,default=5000"`
	Backend       string        `env:"STORE_BACKEND,default=tables" validate:"oneof=tables mongo badger"`
	StorageConn   string        `env:"STORAGE_CONNECTION_STRING" validate:"required_if=Backend tables"`
	Table         string        `env:"EMPLOYEES_TABLE,default=Employees" validate:"required"`
	MongoURI      string        `env:"MONGO_URI" validate:"required_if=Backend mongo"`
	MongoDatabase string        `env:"MONGO_DATABASE,default=employees" validate:"required"`
	BadgerPath    string        `env:"BADGER_PATH,default=./data" validate:"required_if=Backend badger"`
	RedisConn     string        `env:"REDIS_CONNECTION_STRING"`
	CacheTTL      time.Duration `env:"CACHE_TTL,default=30s" validate:"gt=0"`
	Debug         bool          `env:"DEBUG"`
	LogFormat     string        `env:"LOG_FORMAT" validate:"omitempty,oneof=text json"`
}

// Client holds the settings of employee-cli.
type Client struct {
	APIBase   string        `env:"API_BASE,default=http://localhost:5000" validate:"required,url"`
	Timeout   time.Duration `env:"CLIENT_TIMEOUT" validate:"gte=0"`
	Debug     bool          `env:"DEBUG"`
	LogFormat string        `env:"LOG_FORMAT" validate:"omitempty,oneof=text json"`
}

var validate = validator.New()

// LoadServer reads a .env file when present, then the environment.
// FUNCTIONS_CUSTOMHANDLER_PORT overrides PORT when set.
func LoadServer() (Server, error) {
	_ = godotenv.Load()
	var cfg Server
	if _, err := env.UnmarshalFromEnviron(&cfg); err != nil {
		return Server{}, fmt.Errorf("config error: %w", err)
	}
	if port, ok := os.LookupEnv("FUNCTIONS_CUSTOMHANDLER_PORT"); ok && port != "" {
		cfg.Port = port
	}
	if err := validate.Struct(cfg); err != nil {
		return Server{}, fmt.Errorf("config error: %w", err)
	}
	return cfg, nil
}

// LoadClient reads a .env file when present, then the environment.
func LoadClient() (Client, error) {
	_ = godotenv.Load()
	var cfg Client
	if _, err := env.UnmarshalFromEnviron(&cfg); err != nil {
		return Client{}, fmt.Errorf("config error: %w", err)
	}
	if err := validate.Struct(cfg); err != nil {
		return Client{}, fmt.Errorf("config error: %w", err)
	}
	return cfg, nil
}

// ListenAddr returns the address the service binds to.
func (s Server) ListenAddr() string {
	return ":" + s.Port
}

// NewLogger builds a logrus logger honouring DEBUG and LOG_FORMAT.
func NewLogger(debug bool, format string) *log.Logger {
	logger := log.New()
	if debug {
		logger.SetLevel(log.DebugLevel)
	}
	if format == "json" {
		logger.SetFormatter(&log.JSONFormatter{})
	}
	return logger
}

// RedisOptions accepts either a redis:// URL or the Azure style
// "host:port,password=...,ssl=true" connection string.
func RedisOptions(conn string) (*redis.Options, error) {
	if strings.TrimSpace(conn) == "" {
		return nil, fmt.Errorf("empty redis connection string")
	}
	opts, err := redis.ParseURL(conn)
	if err == nil {
		return opts, nil
	}
	parts := strings.Split(conn, ",")
	opts = &redis.Options{Addr: strings.TrimSpace(parts[0])}
	for _, p := range parts[1:] {
		kv := strings.SplitN(p, "=", 2)
		if len(kv) != 2 {
			continue
		}
		switch strings.ToLower(strings.TrimSpace(kv[0])) {
		case "password":
			opts.Password = kv[1]
		case "ssl":
			if strings.EqualFold(strings.TrimSpace(kv[1]), "true") {
				opts.TLSConfig = &tls.Config{}
			}
		}
	}
	return opts, nil
}
