// Package config loads settings from the process environment (and optional
// .env files) through viper. Service packages build their typed config on top
// of the helpers here.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// DSN returns a key/value connection string for the pgx-backed gorm driver.
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

// DefaultJWTSecret is the development-only signing secret.
const DefaultJWTSecret = "change-me"

// JWTConfig holds session token settings.
type JWTConfig struct {
	Secret     string
	SessionTTL time.Duration
}

// KafkaConfig holds broker settings.
type KafkaConfig struct {
	Brokers     []string
	GroupPrefix string
}

// RedisConfig holds cache settings. An empty Addr disables caching.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// Load reads .env.local and .env (when present) into the environment and
// returns a viper instance that resolves keys as PREFIX_KEY env variables.
func Load(prefix string) (*viper.Viper, error) {
	for _, f := range []string{".env.local", ".env"} {
		// Missing files are fine; the real environment always wins.
		_ = godotenv.Load(f)
	}

	v := viper.New()
	v.SetEnvPrefix(prefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("app_env", "development")
	v.SetDefault("db_host", "localhost")
	v.SetDefault("db_port", "5432")
	v.SetDefault("db_user", "postgres")
	v.SetDefault("db_password", "postgres")
	v.SetDefault("db_sslmode", "disable")
	v.SetDefault("jwt_secret", DefaultJWTSecret)
	v.SetDefault("jwt_session_ttl", "168h")
	v.SetDefault("kafka_brokers", "localhost:9092")
	v.SetDefault("kafka_group_prefix", "")
	v.SetDefault("redis_db", 0)
	v.SetDefault("redis_ttl", "10m")

	return v, nil
}

// GetServicePort returns the listen address for the given key, defaulting to :8080.
func GetServicePort(v *viper.Viper, key string) string {
	port := v.GetString(key)
	if port == "" {
		return ":8080"
	}
	if !strings.HasPrefix(port, ":") && !strings.Contains(port, ":") {
		port = ":" + port
	}
	return port
}

// GetAppEnv returns the application environment name.
func GetAppEnv(v *viper.Viper) string {
	return v.GetString("app_env")
}

// LoadDatabaseConfig reads the DB_* keys; dbNameKey selects the database name key.
func LoadDatabaseConfig(v *viper.Viper, dbNameKey string) DatabaseConfig {
	return DatabaseConfig{
		Host:     v.GetString("db_host"),
		Port:     v.GetString("db_port"),
		User:     v.GetString("db_user"),
		Password: v.GetString("db_password"),
		DBName:   v.GetString(strings.ToLower(dbNameKey)),
		SSLMode:  v.GetString("db_sslmode"),
	}
}

// LoadJWTConfig reads the JWT_* keys.
func LoadJWTConfig(v *viper.Viper) JWTConfig {
	return JWTConfig{
		Secret:     v.GetString("jwt_secret"),
		SessionTTL: v.GetDuration("jwt_session_ttl"),
	}
}

// LoadKafkaConfig reads KAFKA_BROKERS (comma separated) and KAFKA_GROUP_PREFIX.
func LoadKafkaConfig(v *viper.Viper) KafkaConfig {
	var brokers []string
	for _, b := range strings.Split(v.GetString("kafka_brokers"), ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return KafkaConfig{
		Brokers:     brokers,
		GroupPrefix: v.GetString("kafka_group_prefix"),
	}
}

// LoadRedisConfig reads the REDIS_* keys.
func LoadRedisConfig(v *viper.Viper) RedisConfig {
	return RedisConfig{
		Addr:     v.GetString("redis_url"),
		Password: v.GetString("redis_password"),
		DB:       v.GetInt("redis_db"),
		TTL:      v.GetDuration("redis_ttl"),
	}
}
