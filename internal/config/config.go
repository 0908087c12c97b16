package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration lets yaml carry values like "24h" or "5m".
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	td, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(td)
	return nil
}

func (d Duration) Std() time.Duration { return time.Duration(d) }

type Config struct {
	Server struct {
		Port int `yaml:"port"`
	} `yaml:"server"`
	Database struct {
		DSN string `yaml:"url"`
	} `yaml:"database"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`
	Email struct {
		SMTPHost     string `yaml:"smtp_host"`
		SMTPPort     int    `yaml:"smtp_port"`
		SMTPUser     string `yaml:"smtp_user"`
		SMTPPassword string `yaml:"smtp_password"`
		FromEmail    string `yaml:"from_email"`
	} `yaml:"email"`
	Client struct {
		BaseURL string `yaml:"base_url"`
	} `yaml:"client"`
	JWT struct {
		Secret string `yaml:"secret"`
	} `yaml:"jwt"`
	Registration struct {
		// how long an unverified placeholder may live; "0s" keeps them forever
		PendingTTL Duration `yaml:"pending_ttl"`
	} `yaml:"registration"`
	Cache struct {
		// profile cache entry lifetime; "0s" means no expiry
		ProfileTTL Duration `yaml:"profile_ttl"`
	} `yaml:"cache"`
}

func LoadConfig() *Config {
	f, err := os.Open("config/config.yaml")
	if err != nil {
		panic("Failed to open config.yaml: " + err.Error())
	}
	defer f.Close()

	var cfg Config
	if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
		panic("Failed to parse config.yaml: " + err.Error())
	}

	// secrets may come from the environment instead of the file
	if v := os.Getenv("JWT_SECRET"); v != "" {
		cfg.JWT.Secret = v
	}
	if v := os.Getenv("SMTP_PASSWORD"); v != "" {
		cfg.Email.SMTPPassword = v
	}
	if cfg.JWT.Secret == "" {
		panic("jwt secret is not configured")
	}
	return &cfg
}
