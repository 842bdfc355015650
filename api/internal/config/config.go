package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"recipe-lens/api/internal/ingredient"
	"recipe-lens/api/internal/recipe/gemini"
	"recipe-lens/api/internal/vision"
)

// Config is assembled from defaults, an optional YAML file, then the environment.
type Config struct {
	Port string `yaml:"port"`

	GeminiAPIKey    string        `yaml:"gemini_api_key"`
	GeminiModel     string        `yaml:"gemini_model"`
	GenerateTimeout time.Duration `yaml:"generate_timeout"`

	CustomDetectorURL   string        `yaml:"custom_detector_url"`
	StandardDetectorURL string        `yaml:"standard_detector_url"`
	DetectConfidence    float64       `yaml:"detect_confidence"`
	DetectTimeout       time.Duration `yaml:"detect_timeout"`
	DetectMaxSide       int           `yaml:"detect_max_side"`

	MaxUploadMB int `yaml:"max_upload_mb"`

	DatabaseURL      string `yaml:"database_url"`
	TelegramBotToken string `yaml:"telegram_bot_token"`

	ExcludeLabels []string `yaml:"exclude_labels"`
}

func defaults() *Config {
	return &Config{
		Port:            "8000",
		GeminiModel:     gemini.DefaultModel,
		GenerateTimeout: 60 * time.Second,

		DetectConfidence: vision.DefaultConfidence,
		DetectTimeout:    30 * time.Second,
		DetectMaxSide:    1280,

		MaxUploadMB: 20,

		ExcludeLabels: append([]string(nil), ingredient.DefaultExcluded...),
	}
}

func getEnv(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

func getEnvDuration(k string, def time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		if n, nerr := strconv.Atoi(v); nerr == nil {
			return time.Duration(n) * time.Second, nil
		}
		return 0, fmt.Errorf("%s: %w", k, err)
	}
	return d, nil
}

func getEnvInt(k string, def int) (int, error) {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", k, err)
	}
	return n, nil
}

func getEnvFloat(k string, def float64) (float64, error) {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", k, err)
	}
	return f, nil
}

// Load builds the configuration. path may be empty; a missing file is an error.
func Load(path string) (*Config, error) {
	cfg := defaults()

	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(b, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg.Port = getEnv("PORT", cfg.Port)
	cfg.GeminiAPIKey = getEnv("GEMINI_API_KEY", cfg.GeminiAPIKey)
	cfg.GeminiModel = getEnv("GEMINI_MODEL", cfg.GeminiModel)
	cfg.CustomDetectorURL = getEnv("CUSTOM_DETECTOR_URL", cfg.CustomDetectorURL)
	cfg.StandardDetectorURL = getEnv("STANDARD_DETECTOR_URL", cfg.StandardDetectorURL)
	cfg.DatabaseURL = getEnv("DATABASE_URL", cfg.DatabaseURL)
	cfg.TelegramBotToken = getEnv("TELEGRAM_BOT_TOKEN", cfg.TelegramBotToken)

	var err error
	if cfg.GenerateTimeout, err = getEnvDuration("GENERATE_TIMEOUT", cfg.GenerateTimeout); err != nil {
		return nil, err
	}
	if cfg.DetectTimeout, err = getEnvDuration("DETECT_TIMEOUT", cfg.DetectTimeout); err != nil {
		return nil, err
	}
	if cfg.DetectConfidence, err = getEnvFloat("DETECT_CONFIDENCE", cfg.DetectConfidence); err != nil {
		return nil, err
	}
	if cfg.DetectMaxSide, err = getEnvInt("DETECT_MAX_SIDE", cfg.DetectMaxSide); err != nil {
		return nil, err
	}
	if cfg.MaxUploadMB, err = getEnvInt("MAX_UPLOAD_MB", cfg.MaxUploadMB); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.DetectConfidence <= 0 || c.DetectConfidence >= 1 {
		return fmt.Errorf("detect_confidence must be in (0,1), got %v", c.DetectConfidence)
	}
	if c.MaxUploadMB <= 0 {
		return fmt.Errorf("max_upload_mb must be positive, got %d", c.MaxUploadMB)
	}
	if strings.TrimSpace(c.Port) == "" {
		return fmt.Errorf("port is empty")
	}
	return nil
}

// MaxUploadBytes is the request body limit for image uploads.
func (c *Config) MaxUploadBytes() int64 { return int64(c.MaxUploadMB) << 20 }
