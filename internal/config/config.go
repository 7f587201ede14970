package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
	Discovery DiscoveryConfig `yaml:"discovery" mapstructure:"discovery"`
}

// StoreConfig configures the database backends. The deal source is always
// Postgres; the profile store may be postgres or sqlite.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	SQLitePath  string `yaml:"sqlite_path" mapstructure:"sqlite_path"`
}

// ServerConfig configures the profile read API.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// DiscoveryConfig holds the workspace-scoped tuning knobs for the ICP
// discovery pipeline. The thresholds are business-tuned heuristics; the
// defaults below are the canonical values and should not be changed
// without product review. The struct is passed explicitly per call;
// there is no process-global discovery state.
type DiscoveryConfig struct {
	// Readiness gate thresholds.
	MinClosedDeals          int `yaml:"min_closed_deals" mapstructure:"min_closed_deals"`
	RegressionContactRoles  int `yaml:"regression_contact_roles" mapstructure:"regression_contact_roles"`
	PointBasedContactRoles  int `yaml:"point_based_contact_roles" mapstructure:"point_based_contact_roles"`
	DescriptiveContactRoles int `yaml:"descriptive_contact_roles" mapstructure:"descriptive_contact_roles"`

	// Pattern significance thresholds.
	MinClusterDeals int     `yaml:"min_cluster_deals" mapstructure:"min_cluster_deals"`
	MinGroupSize    int     `yaml:"min_group_size" mapstructure:"min_group_size"`
	MinComboCount   int     `yaml:"min_combo_count" mapstructure:"min_combo_count"`
	MaxCommittees   int     `yaml:"max_committees" mapstructure:"max_committees"`
	MinLeadsPerSrc  int     `yaml:"min_leads_per_source" mapstructure:"min_leads_per_source"`
	SweetSpotMult   float64 `yaml:"sweet_spot_multiplier" mapstructure:"sweet_spot_multiplier"`
	MinRelevance    float64 `yaml:"min_field_relevance" mapstructure:"min_field_relevance"`

	// LiftCeiling caps lift when the loss-side frequency is zero.
	LiftCeiling float64 `yaml:"lift_ceiling" mapstructure:"lift_ceiling"`

	// Confidence tier cluster sizes (high/medium/low deal counts).
	ConfidenceHighN int `yaml:"confidence_high_n" mapstructure:"confidence_high_n"`
	ConfidenceMedN  int `yaml:"confidence_med_n" mapstructure:"confidence_med_n"`
	ConfidenceLowN  int `yaml:"confidence_low_n" mapstructure:"confidence_low_n"`

	// Feature matrix fan-out.
	FetchConcurrency int     `yaml:"fetch_concurrency" mapstructure:"fetch_concurrency"`
	FetchRatePerSec  float64 `yaml:"fetch_rate_per_sec" mapstructure:"fetch_rate_per_sec"`

	// Conversation enrichment retry bound.
	EnrichMaxAttempts int `yaml:"enrich_max_attempts" mapstructure:"enrich_max_attempts"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("ICP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "postgres")
	v.SetDefault("store.sqlite_path", "icp.db")
	v.SetDefault("server.port", 8080)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("discovery.min_closed_deals", 30)
	v.SetDefault("discovery.regression_contact_roles", 200)
	v.SetDefault("discovery.point_based_contact_roles", 100)
	v.SetDefault("discovery.descriptive_contact_roles", 20)
	v.SetDefault("discovery.min_cluster_deals", 5)
	v.SetDefault("discovery.min_group_size", 3)
	v.SetDefault("discovery.min_combo_count", 5)
	v.SetDefault("discovery.max_committees", 10)
	v.SetDefault("discovery.min_leads_per_source", 5)
	v.SetDefault("discovery.sweet_spot_multiplier", 1.2)
	v.SetDefault("discovery.min_field_relevance", 60)
	v.SetDefault("discovery.lift_ceiling", 10)
	v.SetDefault("discovery.confidence_high_n", 30)
	v.SetDefault("discovery.confidence_med_n", 15)
	v.SetDefault("discovery.confidence_low_n", 5)
	v.SetDefault("discovery.fetch_concurrency", 8)
	v.SetDefault("discovery.fetch_rate_per_sec", 100)
	v.SetDefault("discovery.enrich_max_attempts", 2)

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

// DefaultDiscovery returns the canonical discovery thresholds. Tests and
// callers without a loaded config file use this.
func DefaultDiscovery() DiscoveryConfig {
	return DiscoveryConfig{
		MinClosedDeals:          30,
		RegressionContactRoles:  200,
		PointBasedContactRoles:  100,
		DescriptiveContactRoles: 20,
		MinClusterDeals:         5,
		MinGroupSize:            3,
		MinComboCount:           5,
		MaxCommittees:           10,
		MinLeadsPerSrc:          5,
		SweetSpotMult:           1.2,
		MinRelevance:            60,
		LiftCeiling:             10,
		ConfidenceHighN:         30,
		ConfidenceMedN:          15,
		ConfidenceLowN:          5,
		FetchConcurrency:        8,
		FetchRatePerSec:         100,
		EnrichMaxAttempts:       2,
	}
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
