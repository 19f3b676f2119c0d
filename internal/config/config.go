package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/infrabrasil/vazios/internal/scorer"
)

// Config holds the full application configuration.
type Config struct {
	Store   StoreConfig   `yaml:"store" mapstructure:"store"`
	Server  ServerConfig  `yaml:"server" mapstructure:"server"`
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
	Scoring ScoringConfig `yaml:"scoring" mapstructure:"scoring"`
	Recalc  RecalcConfig  `yaml:"recalc" mapstructure:"recalc"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port         int      `yaml:"port" mapstructure:"port"`
	RateLimit    float64  `yaml:"rate_limit" mapstructure:"rate_limit"` // requests per second, 0 = unlimited
	RateBurst    int      `yaml:"rate_burst" mapstructure:"rate_burst"`
	CORSOrigins  []string `yaml:"cors_origins" mapstructure:"cors_origins"`
	CacheEntries int      `yaml:"cache_entries" mapstructure:"cache_entries"`
	CacheTTLSecs int      `yaml:"cache_ttl_secs" mapstructure:"cache_ttl_secs"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// ScoringConfig holds the territorial-gap thresholds.
type ScoringConfig struct {
	MinRelevantPopulation   int64   `yaml:"min_relevant_population" mapstructure:"min_relevant_population"`
	MinChargingPoints       int     `yaml:"min_charging_points" mapstructure:"min_charging_points"`
	MaxReasonableDistanceKM float64 `yaml:"max_reasonable_distance_km" mapstructure:"max_reasonable_distance_km"`
	IdealRatioPer100k       float64 `yaml:"ideal_ratio_per_100k" mapstructure:"ideal_ratio_per_100k"`
	GapScoreThreshold       int     `yaml:"gap_score_threshold" mapstructure:"gap_score_threshold"`
}

// Parameters converts the scoring section to scorer parameters.
func (s ScoringConfig) Parameters() scorer.Parameters {
	return scorer.Parameters{
		MinRelevantPopulation:   s.MinRelevantPopulation,
		MinChargingPoints:       s.MinChargingPoints,
		MaxReasonableDistanceKM: s.MaxReasonableDistanceKM,
		IdealRatioPer100k:       s.IdealRatioPer100k,
		GapScoreThreshold:       s.GapScoreThreshold,
	}
}

// RecalcConfig configures the indicator recalculation job.
type RecalcConfig struct {
	AssignRadiusKM float64 `yaml:"assign_radius_km" mapstructure:"assign_radius_km"`
	Workers        int     `yaml:"workers" mapstructure:"workers"`
	IntervalMins   int     `yaml:"interval_mins" mapstructure:"interval_mins"` // 0 = only on demand
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("VAZIOS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	d := scorer.DefaultParameters()
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "vazios.db")
	v.SetDefault("store.max_conns", 10)
	v.SetDefault("store.min_conns", 2)
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.rate_limit", 20)
	v.SetDefault("server.rate_burst", 40)
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("server.cache_entries", 64)
	v.SetDefault("server.cache_ttl_secs", 300)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("scoring.min_relevant_population", d.MinRelevantPopulation)
	v.SetDefault("scoring.min_charging_points", d.MinChargingPoints)
	v.SetDefault("scoring.max_reasonable_distance_km", d.MaxReasonableDistanceKM)
	v.SetDefault("scoring.ideal_ratio_per_100k", d.IdealRatioPer100k)
	v.SetDefault("scoring.gap_score_threshold", d.GapScoreThreshold)
	v.SetDefault("recalc.assign_radius_km", 15.0)
	v.SetDefault("recalc.workers", 4)
	v.SetDefault("recalc.interval_mins", 0)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
