package config

import (
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig
	MongoDB   MongoDBConfig
	JWT       JWTConfig
	Draw      DrawConfig
	Stats     StatsConfig
	Scheduler SchedulerConfig
	Bootstrap BootstrapConfig
	LogLevel  string
}

// ServerConfig holds server-specific configuration
type ServerConfig struct {
	Port         string
	AllowedHosts []string
}

// MongoDBConfig holds MongoDB-specific configuration
type MongoDBConfig struct {
	URI      string
	Database string
}

// JWTConfig holds JWT-specific configuration
type JWTConfig struct {
	Secret    string
	ExpiresIn int
}

// DrawConfig holds draw execution configuration
type DrawConfig struct {
	// EligibilityPolicy selects which sold tickets enter the draw:
	// all_sold, exclude_instant_winners or flagged_only.
	EligibilityPolicy string
	// SeedSource selects where draw seeds come from: LOCAL_CSPRNG or
	// DRAND_BEACON.
	SeedSource string
	DrandURL   string
}

// StatsConfig holds competition stats configuration
type StatsConfig struct {
	// CacheTTLSeconds bounds how stale the cached stats may be.
	CacheTTLSeconds int
}

// SchedulerConfig holds background job configuration
type SchedulerConfig struct {
	// CloseIntervalSeconds is how often expired competitions are swept.
	CloseIntervalSeconds int
	// SnapshotGraceSeconds is how long a CLOSED competition may sit without
	// a snapshot before the scheduler starts warning about it.
	SnapshotGraceSeconds int
}

// BootstrapConfig holds the initial operator account created at startup
type BootstrapConfig struct {
	AdminEmail    string
	AdminPassword string
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		// It's okay if config file is not found, we'll use environment variables
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// setDefaults sets default values for configuration
func setDefaults() {
	viper.SetDefault("Server.Port", "4000")
	viper.SetDefault("Server.AllowedHosts", []string{"localhost:3000"})
	viper.SetDefault("MongoDB.URI", "mongodb://localhost:27017")
	viper.SetDefault("MongoDB.Database", "draw-engine")
	viper.SetDefault("JWT.ExpiresIn", 24*60*60) // 24 hours
	viper.SetDefault("Draw.EligibilityPolicy", "all_sold")
	viper.SetDefault("Draw.SeedSource", "LOCAL_CSPRNG")
	viper.SetDefault("Draw.DrandURL", "https://api.drand.sh")
	viper.SetDefault("Stats.CacheTTLSeconds", 30)
	viper.SetDefault("Scheduler.CloseIntervalSeconds", 60)
	viper.SetDefault("Scheduler.SnapshotGraceSeconds", 900)
	viper.SetDefault("LogLevel", "info")
}
