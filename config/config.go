package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Mail      Mail      `yaml:"mail" validate:"required"`
	Push      Push      `yaml:"push" validate:"required"`
	Scheduler Scheduler `yaml:"scheduler" validate:"required"`
	Meta      Meta      `yaml:"meta" validate:"required"`
}

type Mail struct {
	APIKey    string `yaml:"api_key" comment:"Transactional mail API key" validate:"required"`
	FromName  string `yaml:"from_name" default:"StudyTraka" comment:"Sender display name" validate:"required"`
	FromEmail string `yaml:"from_email" default:"reminders@studytraka.com" comment:"Sender address, must be verified with the mail provider" validate:"required,email"`
}

type Push struct {
	VapidPublicKey  string `yaml:"vapid_public_key" comment:"VAPID public key (generate with cmd/vapidgen)" validate:"required"`
	VapidPrivateKey string `yaml:"vapid_private_key" comment:"VAPID private key (generate with cmd/vapidgen)" validate:"required"`
	Subscriber      string `yaml:"subscriber" default:"mailto:admin@studytraka.com" comment:"Contact identity placed in the VAPID token sub claim" validate:"required"`
	TTLSeconds      int    `yaml:"ttl_seconds" default:"86400" comment:"How long a push service may hold an undelivered message" validate:"required,min=1"`
}

type Scheduler struct {
	Secret           string `yaml:"secret" comment:"Shared bearer secret the external cron trigger must present" validate:"required"`
	LookaheadMinutes int    `yaml:"lookahead_minutes" default:"60" comment:"How far ahead events are pulled per invocation" validate:"required,min=1"`
	WindowSeconds    int    `yaml:"window_seconds" default:"60" comment:"Width of the reminder firing window, should match the trigger period" validate:"required,min=1"`
	TimeoutSeconds   int    `yaml:"timeout_seconds" default:"10" comment:"Per-call timeout for mail and push transports" validate:"required,min=1"`
}

type Meta struct {
	PostgresURL string `yaml:"postgres_url" default:"postgresql:///studytraka" comment:"Postgres URL" validate:"required"`
	RedisURL    string `yaml:"redis_url" default:"redis://localhost:6379" comment:"Redis URL" validate:"required"`
	Port        string `yaml:"port" default:":8017" comment:"Port to run the server on" validate:"required"`
	AppURL      string `yaml:"app_url" default:"https://studytraka.com" comment:"Public frontend URL used for links in reminder messages" validate:"required,httporhttps"`
}

// Load reads and validates the config file. The returned value is treated as
// immutable for the life of the process.
func Load(path string, v *validator.Validate) (*Config, error) {
	f, err := os.ReadFile(path)

	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	var cfg Config

	err = yaml.Unmarshal(f, &cfg)

	if err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	err = v.Struct(cfg)

	if err != nil {
		return nil, fmt.Errorf("configError: %w", err)
	}

	return &cfg, nil
}
