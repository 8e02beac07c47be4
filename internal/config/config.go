package config

import (
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config is the process configuration, read from the environment with
// the WATCHRELAY_ prefix. A .env file in the working directory is
// loaded first when present.
type Config struct {
	HertzAddr         string        `split_words:"true" default:":8080"`
	HTTPAddr          string        `split_words:"true" default:":8081"`
	KeepAliveInterval time.Duration `split_words:"true" default:"30s"`
	SubscriberBuffer  int           `split_words:"true" default:"32"`
}

func Load() (Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("watchrelay", &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
