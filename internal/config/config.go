package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/subosito/gotenv"
	"gopkg.in/yaml.v3"
)

const (
	// DotEnvFile is loaded from the working directory when present.
	DotEnvFile = ".env"

	// FileEnvKey names an optional YAML file overlaid before the environment.
	FileEnvKey = "CALL_MANAGER_CONFIG"
)

// Config holds all configuration required by the API process.
// Precedence, lowest first: defaults, YAML file, environment (including .env).
// No business logic should depend on raw environment variables.
type Config struct {
	App        AppConfig        `yaml:"app"`
	ElevenLabs ElevenLabsConfig `yaml:"elevenlabs"`
	Auth       AuthConfig       `yaml:"auth"`
	Throttle   ThrottleConfig   `yaml:"throttle"`
	CORS       CORSConfig       `yaml:"cors"`
}

type AppConfig struct {
	Env  string `yaml:"env"`
	Port int    `yaml:"port"`
}

type ElevenLabsConfig struct {
	APIKey  string        `yaml:"api_key"`
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

type AuthConfig struct {
	JWTSecret   string `yaml:"jwt_secret"`
	JWTIssuer   string `yaml:"jwt_issuer"`
	JWTAudience string `yaml:"jwt_audience"`

	// TokenTTL is the default lifetime of tokens minted by the CLI.
	TokenTTL time.Duration `yaml:"token_ttl"`
}

type ThrottleConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`

	// RedisAddr enables the cross-instance in-flight cap when set.
	RedisAddr   string `yaml:"redis_addr"`
	MaxInFlight int    `yaml:"max_inflight"`
}

type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// Defaults returns the configuration used when nothing is set.
func Defaults() Config {
	return Config{
		App: AppConfig{Env: "local", Port: 3000},
		ElevenLabs: ElevenLabsConfig{
			BaseURL: "https://api.elevenlabs.io",
			Timeout: 30 * time.Second,
		},
		Auth:     AuthConfig{JWTIssuer: "call-manager", TokenTTL: 24 * time.Hour},
		Throttle: ThrottleConfig{RPS: 20, Burst: 40, MaxInFlight: 10},
		CORS:     CORSConfig{AllowedOrigins: []string{"*"}},
	}
}

func Load() (Config, error) {
	if err := LoadDotEnv(DotEnvFile); err != nil {
		return Config{}, err
	}

	c := Defaults()
	if path := strings.TrimSpace(os.Getenv(FileEnvKey)); path != "" {
		if err := c.overlayFile(path); err != nil {
			return Config{}, err
		}
	}
	if err := c.overlayEnv(); err != nil {
		return Config{}, err
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// LoadDotEnv loads KEY=VALUE pairs from path into the process environment.
// Variables already set are kept. A missing file is not an error.
func LoadDotEnv(path string) error {
	if err := gotenv.Load(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

func (c *Config) overlayFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal([]byte(expandEnvVars(string(data))), c); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	return nil
}

// expandEnvVars replaces ${VAR} with its value. Unset variables are left as-is.
func expandEnvVars(content string) string {
	return envVarPattern.ReplaceAllStringFunc(content, func(match string) string {
		if val, ok := os.LookupEnv(match[2 : len(match)-1]); ok {
			return val
		}
		return match
	})
}

func (c *Config) overlayEnv() error {
	var parseErrs []error

	envString("APP_ENV", &c.App.Env)
	parseErrs = appendErr(parseErrs, envInt("PORT", &c.App.Port))

	envString("ELEVENLABS_API_KEY", &c.ElevenLabs.APIKey)
	envString("ELEVENLABS_BASE_URL", &c.ElevenLabs.BaseURL)
	parseErrs = appendErr(parseErrs, envDuration("ELEVENLABS_TIMEOUT", &c.ElevenLabs.Timeout))

	envString("AUTH_JWT_SECRET", &c.Auth.JWTSecret)
	envString("AUTH_JWT_ISSUER", &c.Auth.JWTIssuer)
	envString("AUTH_JWT_AUDIENCE", &c.Auth.JWTAudience)
	parseErrs = appendErr(parseErrs, envDuration("AUTH_TOKEN_TTL", &c.Auth.TokenTTL))

	parseErrs = appendErr(parseErrs, envFloat("RATE_LIMIT_RPS", &c.Throttle.RPS))
	parseErrs = appendErr(parseErrs, envInt("RATE_LIMIT_BURST", &c.Throttle.Burst))
	envString("REDIS_ADDR", &c.Throttle.RedisAddr)
	parseErrs = appendErr(parseErrs, envInt("REDIS_MAX_INFLIGHT", &c.Throttle.MaxInFlight))

	if v := strings.TrimSpace(os.Getenv("CORS_ALLOWED_ORIGINS")); v != "" {
		c.CORS.AllowedOrigins = splitList(v)
	}

	return joinErrors(parseErrs)
}

func (c Config) Validate() error {
	var errs []error

	if !isValidEnv(c.App.Env) {
		errs = append(errs, fmt.Errorf("APP_ENV must be one of local, dev, staging, production, got %q", c.App.Env))
	}
	if c.App.Port <= 0 || c.App.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT must be a valid port, got %d", c.App.Port))
	}

	if c.IsProduction() && c.ElevenLabs.APIKey == "" {
		errs = append(errs, errors.New("ELEVENLABS_API_KEY is required in production"))
	}
	if u, err := url.Parse(c.ElevenLabs.BaseURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, fmt.Errorf("ELEVENLABS_BASE_URL must be an absolute http(s) URL, got %q", c.ElevenLabs.BaseURL))
	}
	if c.ElevenLabs.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("ELEVENLABS_TIMEOUT must be positive, got %s", c.ElevenLabs.Timeout))
	}

	if c.IsProduction() && c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("AUTH_JWT_SECRET is required in production"))
	}
	if c.Auth.TokenTTL <= 0 {
		errs = append(errs, fmt.Errorf("AUTH_TOKEN_TTL must be positive, got %s", c.Auth.TokenTTL))
	}

	if c.Throttle.RPS <= 0 {
		errs = append(errs, fmt.Errorf("RATE_LIMIT_RPS must be positive, got %v", c.Throttle.RPS))
	}
	if c.Throttle.Burst < 1 {
		errs = append(errs, fmt.Errorf("RATE_LIMIT_BURST must be at least 1, got %d", c.Throttle.Burst))
	}
	if c.Throttle.RedisAddr != "" && c.Throttle.MaxInFlight < 1 {
		errs = append(errs, fmt.Errorf("REDIS_MAX_INFLIGHT must be at least 1, got %d", c.Throttle.MaxInFlight))
	}

	if len(c.CORS.AllowedOrigins) == 0 {
		errs = append(errs, errors.New("CORS_ALLOWED_ORIGINS must not be empty"))
	}

	return joinErrors(errs)
}

// Warnings lists non-fatal problems worth logging at startup.
func (c Config) Warnings() []string {
	var out []string
	if c.ElevenLabs.APIKey == "" {
		out = append(out, "ELEVENLABS_API_KEY is not set; provider calls will be rejected upstream")
	}
	if c.Auth.JWTSecret == "" {
		out = append(out, "AUTH_JWT_SECRET is not set; the API is unauthenticated")
	}
	return out
}

func (c Config) IsProduction() bool {
	return c.App.Env == "production"
}

func (c Config) HTTPAddr() string {
	return fmt.Sprintf(":%d", c.App.Port)
}

// AuthEnabled reports whether API callers must present a token.
func (c Config) AuthEnabled() bool {
	return c.Auth.JWTSecret != ""
}

func envString(key string, dst *string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

func envInt(key string, dst *int) error {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("%s must be an integer, got %q", key, v)
	}
	*dst = n
	return nil
}

func envFloat(key string, dst *float64) error {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fmt.Errorf("%s must be a number, got %q", key, v)
	}
	*dst = f
	return nil
}

func envDuration(key string, dst *time.Duration) error {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("%s must be a duration, got %q", key, v)
	}
	*dst = d
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func appendErr(errs []error, err error) []error {
	if err != nil {
		errs = append(errs, err)
	}
	return errs
}

func isValidEnv(v string) bool {
	switch v {
	case "local", "dev", "staging", "production":
		return true
	default:
		return false
	}
}

func joinErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	if len(errs) == 1 {
		return errs[0]
	}
	var b strings.Builder
	b.WriteString("config errors:\n")
	for _, e := range errs {
		b.WriteString("- ")
		b.WriteString(e.Error())
		b.WriteString("\n")
	}
	return errors.New(strings.TrimSpace(b.String()))
}
