// internal/config/config.go
// Loader konfigurasi dari environment variables

package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	AppName  string
	AppEnv   string
	AppPort  string
	LogLevel string

	MySQL struct {
		Host     string
		Port     string
		DB       string
		User     string
		Password string
		MaxOpen  int
		MaxIdle  int
	}

	// Cache holds the monthly artifact store settings. The directory is
	// validated once at startup by the store, not lazily on use.
	Cache struct {
		Dir        string
		StaleAfter time.Duration
	}

	// SLA knobs for the penalty pipeline.
	SLA struct {
		ContractTag string
	}
}

func Load() *Config {
	// .env untuk dev; di container semua datang dari ENV
	if err := godotenv.Load(); err == nil {
		log.Println("loaded .env")
	}

	c := &Config{}
	c.AppName = getEnv("APP_NAME", "sla-penalty")
	c.AppEnv = getEnv("APP_ENV", "development")
	c.AppPort = getEnv("APP_PORT", "8080")
	c.LogLevel = getEnv("LOG_LEVEL", "info")

	c.MySQL.Host = getEnv("MYSQL_HOST", "localhost")
	c.MySQL.Port = getEnv("MYSQL_PORT", "3306")
	c.MySQL.DB = getEnv("MYSQL_DB", "sla")
	c.MySQL.User = getEnv("MYSQL_USER", "root")
	c.MySQL.Password = getEnv("MYSQL_PASSWORD", "")
	c.MySQL.MaxOpen = getEnvInt("MYSQL_MAX_OPEN_CONNS", 20)
	c.MySQL.MaxIdle = getEnvInt("MYSQL_MAX_IDLE_CONNS", 10)

	c.Cache.Dir = getEnv("CACHE_DIR", "cache_data")
	c.Cache.StaleAfter = time.Duration(getEnvInt("CACHE_STALE_HOURS", 24)) * time.Hour

	c.SLA.ContractTag = getEnv("SLA_CONTRACT_TAG", "PWD")

	if os.Getenv("ADMIN_JWT_SECRET") == "" {
		log.Println("[WARN] ADMIN_JWT_SECRET is not set, waiver/refresh endpoints will reject requests")
	}

	return c
}

// DSN renders the MySQL connection string.
func (c *Config) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true&loc=UTC",
		c.MySQL.User, c.MySQL.Password, c.MySQL.Host, c.MySQL.Port, c.MySQL.DB)
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		var i int
		_, err := fmt.Sscanf(v, "%d", &i)
		if err == nil {
			return i
		}
	}
	return def
}
