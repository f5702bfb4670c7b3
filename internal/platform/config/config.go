package config

import (
	"time"

	"github.com/caarlos0/env/v11"
)

// Config is centralized process configuration.
// Defaults mirror the production balancer policy; keep infra values here and
// pass typed config into builders.
type Config struct {
	ServiceName string `env:"SERVICE_NAME" envDefault:"juicerscribe"`
	PostgresDSN string `env:"POSTGRES_DSN"`

	YouTubeAPIKey string `env:"YOUTUBE_API_KEY"`
	ChannelName   string `env:"YOUTUBE_CHANNEL_NAME" envDefault:"xQc"`

	PollInterval  time.Duration `env:"CHECK_INTERVAL" envDefault:"5s"`
	FetchCooldown time.Duration `env:"FETCH_COOLDOWN" envDefault:"5s"`
	SearchTimeout time.Duration `env:"SEARCH_TIMEOUT" envDefault:"30s"`

	WorkingCapitalFloor float64 `env:"WORKING_CAPITAL_THRESHOLD" envDefault:"5"`
	TargetCapitalRatio  float64 `env:"TARGET_WORKING_CAPITAL_RATIO" envDefault:"0.8"`
	ValueDeadBand       float64 `env:"MIN_VALUE_THRESHOLD" envDefault:"0.25"`
	MaxVideosPerBatch   int     `env:"MAX_VIDEOS_PER_BATCH" envDefault:"10"`
	SearchPageSize      int     `env:"SEARCH_PAGE_SIZE" envDefault:"100"`
	LookbackDays        int     `env:"DAYS_TO_LOOK_BACK" envDefault:"730"`
	DateWindowDays      int     `env:"DATE_WINDOW_DAYS" envDefault:"30"`
}

func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
