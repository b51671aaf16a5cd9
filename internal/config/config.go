package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

const (
	// ConfigPathEnvVar points at an explicit YAML config file.
	ConfigPathEnvVar = "CONFIG_PATH"
	// EnvPrefix marks variables that override config keys. A double
	// underscore separates sections: MEALREC_RANKER__SHORTLIST_SIZE.
	EnvPrefix = "MEALREC_"
)

// DefaultConfigPaths are tried in order when CONFIG_PATH is unset.
var DefaultConfigPaths = []string{"config.yaml", "config.yml"}

type Config struct {
	Catalog   CatalogConfig   `koanf:"catalog"`
	Database  DatabaseConfig  `koanf:"database"`
	Planner   PlannerConfig   `koanf:"planner"`
	Ranker    RankerConfig    `koanf:"ranker"`
	Extractor ExtractorConfig `koanf:"extractor"`
	Predictor PredictorConfig `koanf:"predictor"`
	Telegram  TelegramConfig  `koanf:"telegram"`
	Log       LogConfig       `koanf:"log"`
	Server    ServerConfig    `koanf:"server"`
}

// CatalogConfig selects where food items come from.
type CatalogConfig struct {
	Source string `koanf:"source" validate:"oneof=csv sqlite"`
	Path   string `koanf:"path"`
}

type DatabaseConfig struct {
	Path string `koanf:"path" validate:"required"`
}

type PlannerConfig struct {
	BandPolicy string `koanf:"band_policy" validate:"oneof=strict loose"`
	// Seed for the random fallback picker; 0 seeds from the clock.
	Seed int64 `koanf:"seed"`
}

type RankerConfig struct {
	ShortlistSize int      `koanf:"shortlist_size" validate:"gte=1"`
	TopN          int      `koanf:"top_n" validate:"gte=1"`
	BoostIDs      []string `koanf:"boost_ids"`
	BoostValue    float64  `koanf:"boost_value" validate:"gte=0"`
	// Boosts gives individual items their own boost and wins over BoostIDs.
	Boosts         map[string]float64 `koanf:"boosts"`
	PredictTimeout time.Duration      `koanf:"predict_timeout"`
	Workers        int                `koanf:"workers" validate:"gte=1"`
}

// AllBoosts merges BoostIDs and Boosts into one map.
func (r RankerConfig) AllBoosts() map[string]float64 {
	out := make(map[string]float64, len(r.BoostIDs)+len(r.Boosts))
	for _, id := range r.BoostIDs {
		if id = strings.TrimSpace(id); id != "" {
			out[id] = r.BoostValue
		}
	}
	for id, b := range r.Boosts {
		out[id] = b
	}
	return out
}

type ExtractorConfig struct {
	Provider  string        `koanf:"provider" validate:"oneof=rule openai groq gemini"`
	Model     string        `koanf:"model"`
	BaseURL   string        `koanf:"base_url"`
	APIKey    string        `koanf:"api_key"`
	Timeout   time.Duration `koanf:"timeout"`
	CacheSize int           `koanf:"cache_size" validate:"gte=0"`
	// RateLimit is in requests per second; 0 disables limiting.
	RateLimit float64 `koanf:"rate_limit" validate:"gte=0"`
	Burst     int     `koanf:"burst" validate:"gte=0"`
}

type PredictorConfig struct {
	Source           string        `koanf:"source" validate:"oneof=csv sqlite http"`
	Path             string        `koanf:"path"`
	URL              string        `koanf:"url" validate:"required_if=Source http"`
	Timeout          time.Duration `koanf:"timeout"`
	FailureThreshold uint32        `koanf:"failure_threshold"`
	OpenTimeout      time.Duration `koanf:"open_timeout"`
}

type TelegramConfig struct {
	BotToken   string `koanf:"bot_token"`
	WebhookURL string `koanf:"webhook_url"`
	// AdminUserID may use the /metrics command.
	AdminUserID int64 `koanf:"admin_user_id"`
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format" validate:"oneof=json console"`
}

type ServerConfig struct {
	Addr            string        `koanf:"addr" validate:"required"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// Defaults returns the configuration used when nothing overrides it.
func Defaults() Config {
	return Config{
		Catalog:  CatalogConfig{Source: "csv", Path: "data/meals.csv"},
		Database: DatabaseConfig{Path: "data/meal-recommender.db"},
		Planner:  PlannerConfig{BandPolicy: "strict"},
		Ranker: RankerConfig{
			ShortlistSize:  50,
			TopN:           10,
			BoostValue:     2.0,
			Boosts:         map[string]float64{},
			PredictTimeout: 2 * time.Second,
			Workers:        8,
		},
		Extractor: ExtractorConfig{
			Provider:  "rule",
			Timeout:   5 * time.Second,
			CacheSize: 256,
			RateLimit: 1,
			Burst:     3,
		},
		Predictor: PredictorConfig{
			Source:           "csv",
			Path:             "data/predictions.csv",
			Timeout:          2 * time.Second,
			FailureThreshold: 5,
			OpenTimeout:      30 * time.Second,
		},
		Log:    LogConfig{Level: "info", Format: "json"},
		Server: ServerConfig{Addr: ":8080", ShutdownTimeout: 10 * time.Second},
	}
}

// Load reads .env, then layers defaults, the YAML file named by CONFIG_PATH
// (or the first of DefaultConfigPaths found) and MEALREC_ variables.
func Load() (*Config, error) {
	// A missing .env is fine; real deployments set the environment directly.
	_ = godotenv.Load()
	return LoadFrom(findConfigFile())
}

// LoadFrom is Load with an explicit file path. An empty path skips the file layer.
func LoadFrom(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Defaults(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := applyConventionalEnv(&cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks field constraints and cross-field requirements.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if c.Extractor.Provider != "rule" && c.Extractor.APIKey == "" {
		return fmt.Errorf("invalid config: extractor provider %s needs an API key", c.Extractor.Provider)
	}
	return nil
}

func findConfigFile() string {
	if p := os.Getenv(ConfigPathEnvVar); p != "" {
		return p
	}
	for _, p := range DefaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

func envTransformFunc(key string) string {
	key = strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
	return strings.ReplaceAll(key, "__", ".")
}

// applyConventionalEnv fills secrets from the variables providers document,
// so an existing OPENAI_API_KEY or TELEGRAM_BOT_TOKEN works unchanged.
func applyConventionalEnv(cfg *Config) error {
	if cfg.Extractor.APIKey == "" {
		switch cfg.Extractor.Provider {
		case "openai":
			cfg.Extractor.APIKey = os.Getenv("OPENAI_API_KEY")
		case "groq":
			cfg.Extractor.APIKey = os.Getenv("GROQ_API_KEY")
		case "gemini":
			cfg.Extractor.APIKey = os.Getenv("GEMINI_API_KEY")
		}
	}
	if cfg.Telegram.BotToken == "" {
		cfg.Telegram.BotToken = os.Getenv("TELEGRAM_BOT_TOKEN")
	}
	if cfg.Telegram.WebhookURL == "" {
		cfg.Telegram.WebhookURL = os.Getenv("TELEGRAM_WEBHOOK_URL")
	}
	if cfg.Telegram.AdminUserID == 0 {
		if raw := os.Getenv("TELEGRAM_ALLOW_USER_ID"); raw != "" {
			id, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				return errors.New("TELEGRAM_ALLOW_USER_ID must be an integer")
			}
			cfg.Telegram.AdminUserID = id
		}
	}
	return nil
}
