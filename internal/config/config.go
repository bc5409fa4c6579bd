// Package config loads settings for the exam client and the local exam
// service from careerpath.yaml, a .env file and CAREERPATH_* variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"careerpath/internal/store"
)

const EnvPrefix = "CAREERPATH"

type Config struct {
	API     APIConfig     `mapstructure:"api"`
	Store   StoreConfig   `mapstructure:"store"`
	Session SessionConfig `mapstructure:"session"`
	Log     LogConfig     `mapstructure:"log"`
	Service ServiceConfig `mapstructure:"service"`

	// ConfigFile is the file that was read, empty when only defaults and the
	// environment were used.
	ConfigFile string `mapstructure:"-"`
	// EnvFileLoaded reports whether a .env file was found.
	EnvFileLoaded bool `mapstructure:"-"`
}

type APIConfig struct {
	BaseURL string            `mapstructure:"base_url"`
	Token   string            `mapstructure:"token"`
	Timeout time.Duration     `mapstructure:"timeout"`
	Headers map[string]string `mapstructure:"headers"`
}

type StoreConfig struct {
	Backend    string `mapstructure:"backend"`
	SQLitePath string `mapstructure:"sqlite_path"`
	RedisURL   string `mapstructure:"redis_url"`
	RedisTTL   string `mapstructure:"redis_ttl"`
}

// Options converts the section into store.Open arguments.
func (s StoreConfig) Options() store.Options {
	return store.Options{
		Backend:    s.Backend,
		SQLitePath: s.SQLitePath,
		RedisURL:   s.RedisURL,
		RedisTTL:   s.RedisTTL,
	}
}

type SessionConfig struct {
	FallbackPath  string        `mapstructure:"fallback_path"`
	SubmitTimeout time.Duration `mapstructure:"submit_timeout"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type ServiceConfig struct {
	Addr      string `mapstructure:"addr"`
	DBPath    string `mapstructure:"db_path"`
	JWTSecret string `mapstructure:"jwt_secret"`
	SeedFile  string `mapstructure:"seed_file"`
}

// Load reads configuration in increasing priority: defaults, the config file,
// then the environment (after the env files, .env by default, have been
// merged into it). An empty path searches for careerpath.yaml in the working
// directory. Variables already set in the environment win over env files.
func Load(path string, envFiles ...string) (*Config, error) {
	envLoaded := true
	if err := godotenv.Load(envFiles...); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("load .env: %w", err)
		}
		envLoaded = false
	}

	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("careerpath")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.ConfigFile = v.ConfigFileUsed()
	cfg.EnvFileLoaded = envLoaded

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api.base_url", "http://127.0.0.1:8080/api")
	v.SetDefault("api.token", "")
	v.SetDefault("api.timeout", "10s")
	v.SetDefault("api.headers", map[string]string{})
	v.SetDefault("store.backend", store.BackendMemory)
	v.SetDefault("store.sqlite_path", "careerpath-session.db")
	v.SetDefault("store.redis_url", "redis://127.0.0.1:6379/0")
	v.SetDefault("store.redis_ttl", "24h")
	v.SetDefault("session.fallback_path", "/courses")
	v.SetDefault("session.submit_timeout", "30s")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("service.addr", ":8080")
	v.SetDefault("service.db_path", "careerpath-exams.db")
	v.SetDefault("service.jwt_secret", "")
	v.SetDefault("service.seed_file", "")
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.API.BaseURL) == "" {
		return errors.New("config: api.base_url is required")
	}
	if c.API.Timeout <= 0 {
		return fmt.Errorf("config: api.timeout must be positive, got %s", c.API.Timeout)
	}
	switch c.Store.Backend {
	case store.BackendMemory, store.BackendSQLite, store.BackendRedis:
	default:
		return fmt.Errorf("config: unknown store.backend %q", c.Store.Backend)
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("config: log.format must be text or json, got %q", c.Log.Format)
	}
	return nil
}

// DefaultHeaders returns the headers sent for every exam service request,
// including the bearer token when one is configured.
func (a APIConfig) DefaultHeaders() map[string]string {
	headers := make(map[string]string, len(a.Headers)+1)
	for name, value := range a.Headers {
		headers[name] = value
	}
	if token := strings.TrimSpace(a.Token); token != "" {
		headers["Authorization"] = "Bearer " + token
	}
	return headers
}
