package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// InsecureDefaultSigningKey is the fallback used when no signing key is
// configured. Startup logs a warning whenever it is in effect.
const InsecureDefaultSigningKey = "your-secret-key"

type ServerConfig struct {
	Address string `mapstructure:"address"`
	Debug   bool   `mapstructure:"debug"`
}

type AuthConfig struct {
	SigningKey           string   `mapstructure:"signing_key"`
	SigningMethod        string   `mapstructure:"signing_method"`
	TokenExpirationHours int      `mapstructure:"token_expiration_hours"`
	Issuer               string   `mapstructure:"issuer"`
	Audience             []string `mapstructure:"audience"`
	ContextKey           string   `mapstructure:"context_key"`
	TokenLookup          string   `mapstructure:"token_lookup"`
	AuthScheme           string   `mapstructure:"auth_scheme"`
}

type StoreConfig struct {
	// Driver selects the Users backend: "memory" or "sqlite".
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
}

type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type LimitConfig struct {
	Max           int `mapstructure:"max"`
	WindowMinutes int `mapstructure:"window_minutes"`

	// SkipSuccessful refunds requests that complete without error, so only
	// failures count against the budget.
	SkipSuccessful bool `mapstructure:"skip_successful"`
}

func (l LimitConfig) Window() time.Duration {
	return time.Duration(l.WindowMinutes) * time.Minute
}

type LimitsConfig struct {
	// Login throttles failed sign-in attempts per client.
	Login LimitConfig `mapstructure:"login"`
	// API caps overall request volume per client.
	API LimitConfig `mapstructure:"api"`
}

type SeedConfig struct {
	AdminName     string `mapstructure:"admin_name"`
	AdminEmail    string `mapstructure:"admin_email"`
	AdminPassword string `mapstructure:"admin_password"`
}

type Config struct {
	Server ServerConfig `mapstructure:"server"`
	Auth   AuthConfig   `mapstructure:"auth"`
	Store  StoreConfig  `mapstructure:"store"`
	Redis  RedisConfig  `mapstructure:"redis"`
	Limits LimitsConfig `mapstructure:"limits"`
	Seed   SeedConfig   `mapstructure:"seed"`
}

// LoadConfig reads config.yaml (or the given file) with environment
// overrides under the AUTH_ prefix, e.g. AUTH_SERVER_ADDRESS=:8080.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()

	if path == "" {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	} else {
		v.SetConfigFile(path)
	}

	v.SetEnvPrefix("AUTH")
	v.SetEnvKeyReplacer(newEnvKeyReplacer())
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		// Running on defaults plus env vars is fine; a broken file is not.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	return &c, nil
}

func newEnvKeyReplacer() *strings.Replacer {
	return strings.NewReplacer(".", "_")
}

// UsingDefaultSigningKey reports whether the insecure fallback key is active.
func (c *Config) UsingDefaultSigningKey() bool {
	return c.Auth.SigningKey == InsecureDefaultSigningKey
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.address", ":3000")
	v.SetDefault("server.debug", false)

	v.SetDefault("auth.signing_key", InsecureDefaultSigningKey)
	v.SetDefault("auth.signing_method", "HS256")
	v.SetDefault("auth.token_expiration_hours", 8)
	v.SetDefault("auth.issuer", "")
	v.SetDefault("auth.audience", []string{})
	v.SetDefault("auth.context_key", "user")
	v.SetDefault("auth.token_lookup", "header:Authorization")
	v.SetDefault("auth.auth_scheme", "Bearer")

	v.SetDefault("store.driver", "memory")
	v.SetDefault("store.dsn", "file:auth.db?cache=shared&mode=rwc")

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("limits.login.max", 20)
	v.SetDefault("limits.login.window_minutes", 15)
	v.SetDefault("limits.login.skip_successful", true)
	v.SetDefault("limits.api.max", 300)
	v.SetDefault("limits.api.window_minutes", 15)
	v.SetDefault("limits.api.skip_successful", true)

	v.SetDefault("seed.admin_name", "admin")
	v.SetDefault("seed.admin_email", "admin@spsgroup.com.br")
	v.SetDefault("seed.admin_password", "1234")
}

// authOptions adapts the loaded config to the library's Config contract.
type authOptions struct {
	cfg AuthConfig
}

func (o authOptions) GetSigningKey() string    { return o.cfg.SigningKey }
func (o authOptions) GetSigningMethod() string { return o.cfg.SigningMethod }
func (o authOptions) GetContextKey() string    { return o.cfg.ContextKey }
func (o authOptions) GetTokenExpiration() int  { return o.cfg.TokenExpirationHours }
func (o authOptions) GetTokenLookup() string   { return o.cfg.TokenLookup }
func (o authOptions) GetAuthScheme() string    { return o.cfg.AuthScheme }
func (o authOptions) GetIssuer() string        { return o.cfg.Issuer }
func (o authOptions) GetAudience() []string    { return o.cfg.Audience }
