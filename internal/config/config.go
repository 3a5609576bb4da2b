package config

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	StoreMongo  = "mongo"
	StoreMemory = "memory"
)

type Config struct {
	Port              string   `mapstructure:"API_PORT"`
	Env               string   `mapstructure:"ENV"`
	Debug             bool     `mapstructure:"DEBUG"`
	StoreDriver       string   `mapstructure:"STORE_DRIVER"`
	MongoURI          string   `mapstructure:"MONGO_URI"`
	MongoDatabase     string   `mapstructure:"MONGO_DATABASE"`
	JWTSecret         string   `mapstructure:"JWT_SECRET"`
	RedisURL          string   `mapstructure:"REDIS_URL"`
	CORSOrigins       []string `mapstructure:"CORS_ORIGINS"`
	BcryptCost        int      `mapstructure:"BCRYPT_COST"`
	CookieSecure      bool     `mapstructure:"COOKIE_SECURE"`
	S3Bucket          string   `mapstructure:"S3_BUCKET"`
	S3Endpoint        string   `mapstructure:"S3_ENDPOINT"`
	S3PublicBaseURL   string   `mapstructure:"S3_PUBLIC_BASE_URL"`
	NutritionixAppID  string   `mapstructure:"NUTRITIONIX_APP_ID"`
	NutritionixAPIKey string   `mapstructure:"NUTRITIONIX_API_KEY"`
	NutritionixURL    string   `mapstructure:"NUTRITIONIX_BASE_URL"`
	TextbeltAPIKey    string   `mapstructure:"TEXTBELT_API_KEY"`
	TextbeltURL       string   `mapstructure:"TEXTBELT_URL"`
}

var keys = []string{
	"API_PORT", "ENV", "DEBUG", "STORE_DRIVER", "MONGO_URI", "MONGO_DATABASE",
	"JWT_SECRET", "REDIS_URL", "CORS_ORIGINS", "BCRYPT_COST", "COOKIE_SECURE",
	"S3_BUCKET", "S3_ENDPOINT", "S3_PUBLIC_BASE_URL",
	"NUTRITIONIX_APP_ID", "NUTRITIONIX_API_KEY", "NUTRITIONIX_BASE_URL",
	"TEXTBELT_API_KEY", "TEXTBELT_URL",
}

// Load reads .env (when present) into the environment and then the
// environment into a Config.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("API_PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("DEBUG", false)
	v.SetDefault("STORE_DRIVER", StoreMongo)
	v.SetDefault("MONGO_DATABASE", "medico")
	v.SetDefault("CORS_ORIGINS", "http://localhost:5173")
	v.SetDefault("BCRYPT_COST", 12)
	v.SetDefault("COOKIE_SECURE", false)

	for _, key := range keys {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("bind %s: %w", key, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg.CORSOrigins = splitList(v.GetString("CORS_ORIGINS"))
	cfg.StoreDriver = strings.ToLower(strings.TrimSpace(cfg.StoreDriver))
	return cfg, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// Validate reports the first setting that prevents the server from starting.
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	switch c.StoreDriver {
	case StoreMongo:
		if c.MongoURI == "" {
			return fmt.Errorf("MONGO_URI is required when STORE_DRIVER is %q", StoreMongo)
		}
	case StoreMemory:
	default:
		return fmt.Errorf("STORE_DRIVER must be %q or %q, got %q", StoreMongo, StoreMemory, c.StoreDriver)
	}
	if c.BcryptCost < 10 || c.BcryptCost > 14 {
		return fmt.Errorf("BCRYPT_COST must be between 10 and 14, got %d", c.BcryptCost)
	}
	if c.S3Bucket != "" && c.S3PublicBaseURL == "" {
		return fmt.Errorf("S3_PUBLIC_BASE_URL is required when S3_BUCKET is set")
	}
	return nil
}
