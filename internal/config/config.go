package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	KafkaBrokers     []string `envconfig:"KAFKA_BROKERS" default:"localhost:9092" validate:"required,min=1"`
	KafkaSourceTopic string   `envconfig:"KAFKA_SOURCE_TOPIC" default:"raw-radar-volumes" validate:"required"`
	KafkaSinkTopic   string   `envconfig:"KAFKA_SINK_TOPIC" default:"hail-diagnostics" validate:"required"`
	KafkaGroupID     string   `envconfig:"KAFKA_GROUP_ID" default:"hail-retrieval-etl"`

	HTTPAddr        string        `envconfig:"HTTP_ADDR" default:":8080"`
	LogLevel        string        `envconfig:"LOG_LEVEL" default:"info" validate:"oneof=debug info warn error"`
	LogFormat       string        `envconfig:"LOG_FORMAT" default:"json" validate:"oneof=json text"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`

	BatchSize          int           `envconfig:"BATCH_SIZE" default:"10" validate:"gt=0"`
	BatchFlushInterval time.Duration `envconfig:"BATCH_FLUSH_INTERVAL" default:"500ms"`

	// Retrieval configuration. RadarBand selects the default membership-table
	// calibration; HSDATablePath overrides it with a JSON table from disk.
	RadarBand     string `envconfig:"RADAR_BAND" default:"S" validate:"oneof=S C"`
	HSDATablePath string `envconfig:"HSDA_TABLE_PATH"`

	MESHMethod   string  `envconfig:"MESH_METHOD" default:"mh2019_75" validate:"oneof=witt1998 mh2019_75 mh2019_95"`
	MinRangeKM   float64 `envconfig:"MIN_RANGE_KM" default:"10" validate:"gte=0"`
	MaxRangeKM   float64 `envconfig:"MAX_RANGE_KM" default:"150" validate:"gtfield=MinRangeKM"`
	CorrectCBand bool    `envconfig:"CORRECT_CBAND_REFL" default:"true"`

	// Sounding enrichment: fetches isotherm level heights for volumes that
	// arrive without them. Disabled unless a base URL is configured.
	SoundingURL       string        `envconfig:"SOUNDING_URL" validate:"omitempty,url"`
	SoundingTimeout   time.Duration `envconfig:"SOUNDING_TIMEOUT" default:"5s"`
	SoundingCacheSize int           `envconfig:"SOUNDING_CACHE_SIZE" default:"256" validate:"gt=0"`
}

// SoundingEnabled reports whether the sounding enrichment adapter should be
// wired up.
func (c *Config) SoundingEnabled() bool {
	return c.SoundingURL != ""
}

// Load reads configuration from the environment, applying defaults where
// unset. A local .env file is honored when present; missing is not an error.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &cfg, nil
}
