package config

import (
	"errors"
	"log"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Auth providers understood by AuthConfig.Provider.
const (
	AuthProviderFirebase = "firebase"
	AuthProviderJWT      = "jwt"
)

// Config represents the overall application configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Push     PushConfig     `yaml:"push"`
	Firebase FirebaseConfig `yaml:"firebase"`
	Auth     AuthConfig     `yaml:"auth"`
	Dispatch DispatchConfig `yaml:"dispatch"`
}

// DispatchConfig bounds the fan-out of a single notification request.
type DispatchConfig struct {
	Concurrency int `yaml:"concurrency"`
}

// PushConfig holds the VAPID keys for web push notifications.
type PushConfig struct {
	PublicKey  string `yaml:"vapid_public_key"`
	PrivateKey string `yaml:"vapid_private_key"`
	Subject    string `yaml:"subject"`
	TTL        int    `yaml:"ttl"`
}

// FirebaseConfig points at the service account used for FCM and ID-token checks.
// An empty ProjectID disables native push.
type FirebaseConfig struct {
	ProjectID       string `yaml:"project_id"`
	CredentialsFile string `yaml:"credentials_file"`
}

// AuthConfig selects how bearer identity tokens are verified.
type AuthConfig struct {
	Provider  string `yaml:"provider"`
	JWTSecret string `yaml:"jwt_secret"`
	JWTIssuer string `yaml:"jwt_issuer"`
}

// ServerConfig holds the server-related configuration.
type ServerConfig struct {
	Port            int     `yaml:"port"`
	BasePath        string  `yaml:"base_path"`
	RateLimitPerSec float64 `yaml:"rate_limit_per_sec"`
	RateLimitBurst  int     `yaml:"rate_limit_burst"`
	CacheTTLSeconds int     `yaml:"cache_ttl_seconds"`
}

// DatabaseConfig holds the database connection configuration.
type DatabaseConfig struct {
	DSN                    string `yaml:"dsn"`
	MaxOpenConns           int    `yaml:"max_open_conns"`
	MaxIdleConns           int    `yaml:"max_idle_conns"`
	ConnMaxLifetimeMinutes int    `yaml:"conn_max_lifetime_minutes"`
}

// Load reads the configuration from the given path.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg Config
	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, err
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (cfg *Config) applyDefaults() {
	if cfg.Server.Port <= 0 {
		cfg.Server.Port = 8080
	}
	cfg.Server.BasePath = "/" + strings.Trim(cfg.Server.BasePath, "/")
	if cfg.Server.RateLimitPerSec <= 0 {
		cfg.Server.RateLimitPerSec = 10
	}
	if cfg.Server.RateLimitBurst <= 0 {
		cfg.Server.RateLimitBurst = 5
	}
	if cfg.Server.CacheTTLSeconds <= 0 {
		cfg.Server.CacheTTLSeconds = 300
	}

	if cfg.Push.TTL <= 0 {
		cfg.Push.TTL = 3600
	}

	if cfg.Auth.Provider == "" {
		cfg.Auth.Provider = AuthProviderFirebase
	}

	if cfg.Dispatch.Concurrency <= 0 {
		log.Printf("dispatch.concurrency is not set or invalid; defaulting to 8")
		cfg.Dispatch.Concurrency = 8
	}
}

// Validate reports settings the service cannot start without.
func (cfg *Config) Validate() error {
	if cfg.Push.PublicKey == "" || cfg.Push.PrivateKey == "" {
		return errors.New("push.vapid_public_key and push.vapid_private_key must be configured")
	}
	if cfg.Database.DSN == "" {
		return errors.New("database.dsn must be configured")
	}
	switch cfg.Auth.Provider {
	case AuthProviderFirebase:
		if cfg.Firebase.ProjectID == "" {
			return errors.New("auth.provider is firebase but firebase.project_id is empty")
		}
	case AuthProviderJWT:
		if cfg.Auth.JWTSecret == "" {
			return errors.New("auth.provider is jwt but auth.jwt_secret is empty")
		}
	default:
		return errors.New("auth.provider must be one of: firebase, jwt")
	}
	return nil
}
