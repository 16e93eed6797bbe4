package core

import (
	"fmt"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

const (
	EnvAPIKey  = "AVALAI_API_KEY"
	EnvBaseURL = "BASE_URL"
)

type Config struct {
	Env         string `yaml:"env" env:"PAINTER_ENV" env-default:"prod"`
	APIKey      string `yaml:"api_key" env:"AVALAI_API_KEY"`
	BaseURL     string `yaml:"base_url" env:"BASE_URL"`
	ImageModel  string `yaml:"image_model" env:"IMAGE_MODEL" env-default:"dall-e-3"`
	MetricsFile string `yaml:"metrics_file" env:"METRICS_FILE" env-default:""`
	Telegram    struct {
		Enabled bool   `yaml:"enabled" env:"ENABLED" env-default:"false"`
		Token   string `yaml:"token" env:"TOKEN" env-default:""`
		ChatID  int64  `yaml:"chat_id" env:"CHAT_ID" env-default:"0"`
	} `yaml:"telegram" env-prefix:"TELEGRAM_"`
	Mongo struct {
		Enabled  bool   `yaml:"enabled" env:"ENABLED" env-default:"false"`
		Host     string `yaml:"host" env:"HOST" env-default:"127.0.0.1"`
		Port     string `yaml:"port" env:"PORT" env-default:"27017"`
		User     string `yaml:"user" env:"USER" env-default:"admin"`
		Password string `yaml:"password" env:"PASSWORD" env-default:"pass"`
		Database string `yaml:"database" env:"DATABASE" env-default:"painter"`
	} `yaml:"mongo" env-prefix:"MONGO_"`
}

// Credentials is the pair every API call needs.
type Credentials struct {
	APIKey  string
	BaseURL string
}

// Missing lists the environment names of absent credential fields.
func (c Credentials) Missing() []string {
	var missing []string
	if c.APIKey == "" {
		missing = append(missing, EnvAPIKey)
	}
	if c.BaseURL == "" {
		missing = append(missing, EnvBaseURL)
	}
	return missing
}

func (c *Config) Credentials() Credentials {
	return Credentials{APIKey: c.APIKey, BaseURL: c.BaseURL}
}

// Validate fails with a *ConfigurationError naming every missing variable.
func (c *Config) Validate() error {
	if missing := c.Credentials().Missing(); len(missing) > 0 {
		return &ConfigurationError{Missing: missing}
	}
	return nil
}

// LoadConfig reads .env (if present), then the optional YAML file at path,
// with process environment taking precedence. The result is validated.
func LoadConfig(path string) (*Config, error) {
	_ = godotenv.Load()

	conf := &Config{}
	var err error
	if path != "" {
		err = cleanenv.ReadConfig(path, conf)
	} else {
		err = cleanenv.ReadEnv(conf)
	}
	if err != nil {
		desc, _ := cleanenv.GetDescription(conf, nil)
		return nil, fmt.Errorf("config: %s; %s", err, desc)
	}

	if err = conf.Validate(); err != nil {
		return nil, err
	}
	return conf, nil
}
