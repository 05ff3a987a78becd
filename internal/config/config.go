package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port        int      `yaml:"port"`
		PublicURL   string   `yaml:"public_url"`
		CORSOrigins []string `yaml:"cors_origins"`
		RateLimit   struct {
			Capacity        int `yaml:"capacity"`
			RefillPerSecond int `yaml:"refill_per_second"`
		} `yaml:"rate_limit"`
	} `yaml:"server"`

	LLM struct {
		Provider  string        `yaml:"provider"`
		APIKey    string        `yaml:"api_key"`
		Model     string        `yaml:"model"`
		BaseURL   string        `yaml:"base_url"`
		Timeout   time.Duration `yaml:"timeout"`
		MaxTokens int           `yaml:"max_tokens"`
	} `yaml:"llm"`

	Persistence struct {
		URL string `yaml:"url"`
		Key string `yaml:"key"`
	} `yaml:"persistence"`

	Redis struct {
		URL    string `yaml:"url"`
		Prefix string `yaml:"prefix"`
	} `yaml:"redis"`

	Email struct {
		Provider   string `yaml:"provider"`
		APIKey     string `yaml:"api_key"`
		BaseURL    string `yaml:"base_url"`
		From       string `yaml:"from"`
		FromName   string `yaml:"from_name"`
		TemplateID int    `yaml:"template_id"`
		ListID     int    `yaml:"list_id"`
		SMTPAddr   string `yaml:"smtp_addr"`
		SMTPUser   string `yaml:"smtp_user"`
	} `yaml:"email"`

	Token struct {
		TTLDays int `yaml:"ttl_days"`
	} `yaml:"token"`

	Worker struct {
		Concurrency int           `yaml:"concurrency"`
		MaxAttempts int           `yaml:"max_attempts"`
		TaskTimeout time.Duration `yaml:"task_timeout"`
		PollWait    time.Duration `yaml:"poll_wait"`
	} `yaml:"worker"`

	// Minio is optional; reports are only archived when Endpoint is set.
	Minio struct {
		Endpoint   string `yaml:"endpoint"`
		AccessKey  string `yaml:"accessKey"`
		SecretKey  string `yaml:"secretKey"`
		BucketName string `yaml:"bucketName"`
		Region     string `yaml:"region"`
		UseSSL     bool   `yaml:"useSSL"`
	} `yaml:"minio"`

	Admin struct {
		APIKeys map[string]string `yaml:"api_keys"`
	} `yaml:"admin"`

	Log struct {
		Level       string `yaml:"level"`
		Development bool   `yaml:"development"`
	} `yaml:"log"`
}

// Load baca .env, config.yaml (optional), lalu env override, default, dan validasi.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	var cfg Config
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist):
		// env saja sudah cukup
	default:
		return nil, err
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyEnv() error {
	str := func(key string, dst *string) {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			*dst = v
		}
	}
	num := func(key string, dst *int) error {
		v, ok := os.LookupEnv(key)
		if !ok || v == "" {
			return nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*dst = n
		return nil
	}

	str("LLM_API_KEY", &c.LLM.APIKey)
	str("LLM_MODEL", &c.LLM.Model)
	str("LLM_PROVIDER", &c.LLM.Provider)
	str("LLM_BASE_URL", &c.LLM.BaseURL)
	str("PERSISTENCE_URL", &c.Persistence.URL)
	str("PERSISTENCE_KEY", &c.Persistence.Key)
	str("REDIS_URL", &c.Redis.URL)
	str("EMAIL_PROVIDER", &c.Email.Provider)
	str("EMAIL_PROVIDER_KEY", &c.Email.APIKey)
	str("PUBLIC_URL", &c.Server.PublicURL)
	str("LOG_LEVEL", &c.Log.Level)
	if v := os.Getenv("ADMIN_API_KEY"); v != "" {
		if c.Admin.APIKeys == nil {
			c.Admin.APIKeys = map[string]string{}
		}
		c.Admin.APIKeys["env"] = v
	}
	return errors.Join(
		num("PORT", &c.Server.Port),
		num("TOKEN_TTL_DAYS", &c.Token.TTLDays),
		num("EMAIL_TEMPLATE_ID", &c.Email.TemplateID),
		num("EMAIL_LIST_ID", &c.Email.ListID),
	)
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.PublicURL == "" {
		c.Server.PublicURL = "http://localhost:" + strconv.Itoa(c.Server.Port)
	}
	if len(c.Server.CORSOrigins) == 0 {
		c.Server.CORSOrigins = []string{"*"}
	}
	if c.Server.RateLimit.Capacity == 0 {
		c.Server.RateLimit.Capacity = 10
	}
	if c.Server.RateLimit.RefillPerSecond == 0 {
		c.Server.RateLimit.RefillPerSecond = 1
	}
	if c.LLM.Provider == "" {
		c.LLM.Provider = "openai"
	}
	c.LLM.Provider = strings.ToLower(c.LLM.Provider)
	if c.LLM.Timeout == 0 {
		c.LLM.Timeout = 90 * time.Second
	}
	if c.Email.Provider == "" {
		c.Email.Provider = "brevo"
	}
	if c.Token.TTLDays == 0 {
		c.Token.TTLDays = 7
	}
	if c.Worker.Concurrency == 0 {
		c.Worker.Concurrency = 2
	}
	if c.Worker.MaxAttempts == 0 {
		c.Worker.MaxAttempts = 3
	}
	if c.Worker.TaskTimeout == 0 {
		c.Worker.TaskTimeout = 5 * time.Minute
	}
	if c.Worker.PollWait == 0 {
		c.Worker.PollWait = 5 * time.Second
	}
	if c.Minio.BucketName == "" {
		c.Minio.BucketName = "launchlab-reports"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

// Validate reports every missing or malformed setting at once.
func (c *Config) Validate() error {
	var errs []error
	if c.LLM.APIKey == "" {
		errs = append(errs, errors.New("LLM_API_KEY is required"))
	}
	if c.LLM.Provider != "openai" && c.LLM.Provider != "anthropic" {
		errs = append(errs, fmt.Errorf("llm.provider %q not supported (openai, anthropic)", c.LLM.Provider))
	}
	if c.Persistence.URL == "" {
		errs = append(errs, errors.New("PERSISTENCE_URL is required"))
	}
	if c.Persistence.Key == "" {
		errs = append(errs, errors.New("PERSISTENCE_KEY is required"))
	}
	if u, err := url.Parse(c.Server.PublicURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, fmt.Errorf("server.public_url %q must be an absolute http(s) URL", c.Server.PublicURL))
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d out of range", c.Server.Port))
	}
	if c.Token.TTLDays < 1 {
		errs = append(errs, errors.New("token.ttl_days must be positive"))
	}
	if c.Worker.Concurrency < 1 || c.Worker.MaxAttempts < 1 {
		errs = append(errs, errors.New("worker.concurrency and worker.max_attempts must be positive"))
	}
	return errors.Join(errs...)
}

// Addr is the listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Server.Port)
}

// TokenTTL is the lifetime of a report access token.
func (c *Config) TokenTTL() time.Duration {
	return time.Duration(c.Token.TTLDays) * 24 * time.Hour
}
