package config

import (
	"fmt"
	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"supmap-guidance/internal/camera"
	"supmap-guidance/internal/directions"
	"supmap-guidance/internal/guidance"
	"supmap-guidance/internal/navigation"
	"time"
)

type Env string

const (
	EnvProd Env = "prod"
	EnvDev  Env = "dev"
)

func (e Env) IsValid() bool {
	switch e {
	case EnvProd, EnvDev:
		return true
	}
	return false
}

type Config struct {
	APIServerHost         string `env:"API_SERVER_HOST"`
	APIServerPort         string `env:"API_SERVER_PORT" envDefault:"8081" validate:"required"`
	RedisHost             string `env:"REDIS_HOST" envDefault:"localhost" validate:"required"`
	RedisPort             string `env:"REDIS_PORT" envDefault:"6379" validate:"required"`
	RedisIncidentsChannel string `env:"REDIS_INCIDENTS_CHANNEL" envDefault:"incidents"`
	Env                   Env    `env:"ENV" envDefault:"prod"`

	// AllowedOrigins are host patterns accepted for cross-origin websocket connections.
	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:","`

	ValhallaURL       string        `env:"VALHALLA_URL" validate:"required,url"`
	NominatimURL      string        `env:"NOMINATIM_URL" envDefault:"https://nominatim.openstreetmap.org" validate:"required,url"`
	UserAgent         string        `env:"USER_AGENT" envDefault:"supmap-guidance"`
	DirectionsTimeout time.Duration `env:"DIRECTIONS_TIMEOUT" envDefault:"7s" validate:"gt=0"`
	GeocodeTimeout    time.Duration `env:"GEOCODE_TIMEOUT" envDefault:"5s" validate:"gt=0"`
	LocationTimeout   time.Duration `env:"LOCATION_TIMEOUT" envDefault:"10s" validate:"gt=0"`
	NotificationTTL   time.Duration `env:"NOTIFICATION_TTL" envDefault:"2s" validate:"gt=0"`
	SessionTTL        time.Duration `env:"SESSION_TTL" envDefault:"30m" validate:"gt=0"`
	TravelMode        string        `env:"TRAVEL_MODE" envDefault:"driving" validate:"oneof=driving walking"`
	WantAlternates    bool          `env:"WANT_ALTERNATES" envDefault:"true"`
	Alternates        int           `env:"ALTERNATES" envDefault:"2" validate:"gte=0"`
	Language          string        `env:"LANGUAGE" envDefault:"en-US"`

	StepAdvanceRadiusMeters float64 `env:"STEP_ADVANCE_RADIUS_METERS" envDefault:"50" validate:"gt=0"`
	FollowDistanceMeters    float64 `env:"FOLLOW_DISTANCE_METERS" envDefault:"500" validate:"gt=0"`
	FollowHeadingDegrees    float64 `env:"FOLLOW_HEADING_DEGREES" envDefault:"0" validate:"gte=0,lt=360"`
	FollowPitchDegrees      float64 `env:"FOLLOW_PITCH_DEGREES" envDefault:"60" validate:"gte=0,lte=90"`
	IncidentRadiusMeters    float64 `env:"INCIDENT_RADIUS_METERS" envDefault:"30" validate:"gt=0"`
}

func New() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if !cfg.Env.IsValid() {
		return nil, fmt.Errorf("invalid env variable (must be 'prod' or 'dev')")
	}
	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) Guidance() guidance.Config {
	return guidance.Config{
		Mode:            directions.Mode(c.TravelMode),
		WantAlternates:  c.WantAlternates,
		LocationTimeout: c.LocationTimeout,
		NotificationTTL: c.NotificationTTL,
		Navigation: navigation.Config{
			StepAdvanceRadiusMeters: c.StepAdvanceRadiusMeters,
		},
		Camera: camera.Config{
			FollowDistanceMeters: c.FollowDistanceMeters,
			FollowHeadingDegrees: c.FollowHeadingDegrees,
			FollowPitchDegrees:   c.FollowPitchDegrees,
		},
	}
}

func (c *Config) Directions() directions.ClientOptions {
	return directions.ClientOptions{
		Timeout:    c.DirectionsTimeout,
		Language:   c.Language,
		Alternates: c.Alternates,
	}
}
