// Package config builds the ride service configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/rohitbhanushali/uber-clone-source-code/internal/auth"
	"github.com/rohitbhanushali/uber-clone-source-code/pkg/config"
)

const envPrefix = "RIDE"

// MapboxConfig holds map, geocoding and directions settings.
type MapboxConfig struct {
	Token          string
	BaseURL        string
	GeocodingLimit int
	GeocodingTypes string
	DebounceDelay  time.Duration
	RequestTimeout time.Duration
}

// ServiceConfig holds all configuration for the ride service.
type ServiceConfig struct {
	Port            string
	AppEnv          string
	DBConfig        config.DatabaseConfig
	JWTConfig       config.JWTConfig
	KafkaConfig     config.KafkaConfig
	RedisConfig     config.RedisConfig
	Mapbox          MapboxConfig
	Firebase        auth.FirebaseConfig
	IdentityBaseURL string
	MetricsEnabled  bool
}

// MissingEnvError lists required variables that are unset.
type MissingEnvError struct {
	Vars []string
}

func (e *MissingEnvError) Error() string {
	return "Missing required environment variables: " + strings.Join(e.Vars, ", ")
}

// ErrInsecureJWTSecret is returned in production when jwt_secret is unset or
// still the development default.
var ErrInsecureJWTSecret = errors.New("RIDE_JWT_SECRET must be set to a non-default value in production")

// firebaseEnv maps config keys to the variable names of the web app. Each
// key also answers to RIDE_<KEY>.
var firebaseEnv = []struct {
	key      string
	env      string
	required bool
}{
	{"firebase_api_key", "NEXT_PUBLIC_FIREBASE_API_KEY", true},
	{"firebase_auth_domain", "NEXT_PUBLIC_FIREBASE_AUTH_DOMAIN", true},
	{"firebase_project_id", "NEXT_PUBLIC_FIREBASE_PROJECT_ID", true},
	{"firebase_storage_bucket", "NEXT_PUBLIC_FIREBASE_STORAGE_BUCKET", true},
	{"firebase_messaging_sender_id", "NEXT_PUBLIC_FIREBASE_MESSAGING_SENDER_ID", true},
	{"firebase_app_id", "NEXT_PUBLIC_FIREBASE_APP_ID", true},
	{"firebase_measurement_id", "NEXT_PUBLIC_FIREBASE_MEASUREMENT_ID", false},
}

// Load reads configuration from environment variables and .env files.
// Missing Firebase credentials are an error; a missing Mapbox token is not.
func Load() (*ServiceConfig, error) {
	v, err := config.Load(envPrefix)
	if err != nil {
		return nil, err
	}
	bindAliases(v)

	v.SetDefault("db_name", "rides")
	v.SetDefault("mapbox_base_url", "https://api.mapbox.com")
	v.SetDefault("geocoding_limit", 5)
	v.SetDefault("geocoding_types", "place,address,poi")
	v.SetDefault("autocomplete_delay", "500ms")
	v.SetDefault("upstream_timeout", "10s")
	v.SetDefault("metrics_enabled", true)

	cfg := &ServiceConfig{
		Port:        config.GetServicePort(v, "service_port"),
		AppEnv:      config.GetAppEnv(v),
		DBConfig:    config.LoadDatabaseConfig(v, "DB_NAME"),
		JWTConfig:   config.LoadJWTConfig(v),
		KafkaConfig: config.LoadKafkaConfig(v),
		RedisConfig: config.LoadRedisConfig(v),
		Mapbox: MapboxConfig{
			Token:          v.GetString("mapbox_token"),
			BaseURL:        v.GetString("mapbox_base_url"),
			GeocodingLimit: v.GetInt("geocoding_limit"),
			GeocodingTypes: v.GetString("geocoding_types"),
			DebounceDelay:  v.GetDuration("autocomplete_delay"),
			RequestTimeout: v.GetDuration("upstream_timeout"),
		},
		Firebase: auth.FirebaseConfig{
			APIKey:            v.GetString("firebase_api_key"),
			AuthDomain:        v.GetString("firebase_auth_domain"),
			ProjectID:         v.GetString("firebase_project_id"),
			StorageBucket:     v.GetString("firebase_storage_bucket"),
			MessagingSenderID: v.GetString("firebase_messaging_sender_id"),
			AppID:             v.GetString("firebase_app_id"),
			MeasurementID:     v.GetString("firebase_measurement_id"),
		},
		IdentityBaseURL: v.GetString("identity_base_url"),
		MetricsEnabled:  v.GetBool("metrics_enabled"),
	}

	var missing []string
	for _, f := range firebaseEnv {
		if f.required && strings.TrimSpace(v.GetString(f.key)) == "" {
			missing = append(missing, f.env)
		}
	}
	if len(missing) > 0 {
		return nil, &MissingEnvError{Vars: missing}
	}

	if cfg.AppEnv == "production" {
		secret := strings.TrimSpace(cfg.JWTConfig.Secret)
		if secret == "" || secret == config.DefaultJWTSecret {
			return nil, ErrInsecureJWTSecret
		}
	}
	return cfg, nil
}

// MapboxWarning returns the message shown when map features are unavailable,
// or "" when the token is set.
func (c *ServiceConfig) MapboxWarning() string {
	if c.Mapbox.Token != "" {
		return ""
	}
	return "Mapbox token is missing. Please add NEXT_PUBLIC_MAPBOX_TOKEN to your .env.local file"
}

func bindAliases(v *viper.Viper) {
	for _, f := range firebaseEnv {
		_ = v.BindEnv(f.key, envPrefix+"_"+strings.ToUpper(f.key), f.env)
	}
	_ = v.BindEnv("mapbox_token", envPrefix+"_MAPBOX_TOKEN", "NEXT_PUBLIC_MAPBOX_TOKEN")
}

// String summarises the config without secrets.
func (c *ServiceConfig) String() string {
	return fmt.Sprintf("port=%s env=%s db=%s@%s/%s kafka=%v redis=%t mapbox=%t firebase=%s",
		c.Port, c.AppEnv, c.DBConfig.User, c.DBConfig.Host, c.DBConfig.DBName,
		c.KafkaConfig.Brokers, c.RedisConfig.Addr != "", c.Mapbox.Token != "", c.Firebase.ProjectID)
}
