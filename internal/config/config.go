package config

import (
	"fmt"
	"os"

	"sentinel/internal/logging"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// Config is the full service configuration.
type Config struct {
	Chain     *ChainConfig       `mapstructure:"chain"`
	Scanner   *ScannerConfig     `mapstructure:"scanner"`
	Detection *DetectionConfig   `mapstructure:"detection"`
	Pricing   *PricingConfig     `mapstructure:"pricing"`
	State     *StateConfig       `mapstructure:"state"`
	Output    *OutputConfig      `mapstructure:"output"`
	API       *APIConfig         `mapstructure:"api"`
	Logging   *logging.LogConfig `mapstructure:"logging"`
}

// ChainConfig describes the chain under watch and how to reach it.
type ChainConfig struct {
	ChainID        uint64        `mapstructure:"chain_id"`
	Nodes          []*NodeConfig `mapstructure:"nodes"`
	ExplorerURL    string        `mapstructure:"explorer_url"`
	ExplorerAPIKey string        `mapstructure:"explorer_api_key"`
}

// NodeConfig is one RPC endpoint.
type NodeConfig struct {
	Name      string `mapstructure:"name"`
	URL       string `mapstructure:"url"`
	RateLimit int    `mapstructure:"rate_limit"`
	Priority  int    `mapstructure:"priority"`
}

// ScannerConfig controls the block scan loop.
type ScannerConfig struct {
	Workers      int    `mapstructure:"workers"`
	BatchSize    int    `mapstructure:"batch_size"`
	StartBlock   uint64 `mapstructure:"start_block"`
	PollInterval string `mapstructure:"poll_interval"`
	EnableTrace  bool   `mapstructure:"enable_trace"`
}

// DetectionConfig carries the detector thresholds. Zero values mean the
// built-in defaults.
type DetectionConfig struct {
	USDThreshold           float64  `mapstructure:"usd_threshold"`
	SupplyPctThreshold     float64  `mapstructure:"supply_pct_threshold"`
	TransfersThreshold     int      `mapstructure:"transfers_threshold"`
	WindowHours            int      `mapstructure:"window_hours"`
	VictimTxCountThreshold uint64   `mapstructure:"victim_tx_count_threshold"`
	FunderTxCountThreshold uint64   `mapstructure:"funder_tx_count_threshold"`
	ExtraRouters           []string `mapstructure:"extra_routers"`
}

// PricingConfig points at the price API.
type PricingConfig struct {
	APIURL string `mapstructure:"api_url"`
	APIKey string `mapstructure:"api_key"`
}

// StateConfig locates the persistence database.
type StateConfig struct {
	DBPath string `mapstructure:"db_path"`
}

// KafkaConfig describes the findings topic.
type KafkaConfig struct {
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

// OutputConfig selects where findings go.
type OutputConfig struct {
	Format    string       `mapstructure:"format"` // file, kafka or stdout
	Directory string       `mapstructure:"directory"`
	Kafka     *KafkaConfig `mapstructure:"kafka"`
}

// APIConfig controls the HTTP query surface.
type APIConfig struct {
	Listen string `mapstructure:"listen"`
}

// LoadConfig resolves configuration: the SENTINEL_DB_DSN environment
// variable wins, then configs/database.yaml pointing at Postgres, then the
// given YAML file.
func LoadConfig(configPath string) (*Config, error) {
	if dsn := os.Getenv("SENTINEL_DB_DSN"); dsn != "" {
		logger := logrus.New()
		dbConfig, err := NewDatabaseConfig(dsn, logger)
		if err != nil {
			return nil, fmt.Errorf("connect config database: %w", err)
		}
		defer dbConfig.Close()

		config, err := dbConfig.LoadConfig()
		if err != nil {
			return nil, fmt.Errorf("load config from database: %w", err)
		}
		logger.Info("configuration loaded from database")
		return config, nil
	}

	dbConfigFile := "configs/database.yaml"
	if _, err := os.Stat(dbConfigFile); err == nil {
		dbViper := viper.New()
		dbViper.SetConfigFile(dbConfigFile)
		dbViper.SetConfigType("yaml")

		if err := dbViper.ReadInConfig(); err == nil {
			if dsn := dbViper.GetString("database.dsn"); dsn != "" {
				logger := logrus.New()
				if dbConfig, err := NewDatabaseConfig(dsn, logger); err == nil {
					defer dbConfig.Close()
					if config, err := dbConfig.LoadConfig(); err == nil {
						logger.Info("configuration loaded from database")
						return config, nil
					}
				}
			}
		}
	}

	return LoadConfigFromFile(configPath)
}

// LoadConfigFromFile loads the YAML configuration file.
func LoadConfigFromFile(configPath string) (*Config, error) {
	viper.SetConfigFile(configPath)
	viper.SetConfigType("yaml")

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}
	return &config, nil
}

// GetDefaultConfig returns a runnable mainnet configuration; node URL and
// credentials still have to be supplied.
func GetDefaultConfig() *Config {
	return &Config{
		Chain: &ChainConfig{
			ChainID: 1,
			Nodes: []*NodeConfig{
				{
					Name:      "local_node",
					URL:       "",
					RateLimit: 1000,
					Priority:  1,
				},
			},
			ExplorerURL: "https://api.etherscan.io/api",
		},
		Scanner: &ScannerConfig{
			Workers:      2,
			BatchSize:    100,
			PollInterval: "12s",
			EnableTrace:  true,
		},
		Detection: &DetectionConfig{
			USDThreshold:           500000,
			SupplyPctThreshold:     5,
			TransfersThreshold:     7,
			WindowHours:            120,
			VictimTxCountThreshold: 2000,
			FunderTxCountThreshold: 9999,
		},
		Pricing: &PricingConfig{
			APIURL: "https://api.coingecko.com/api/v3",
		},
		State: &StateConfig{
			DBPath: "./data/sentinel.db",
		},
		Output: &OutputConfig{
			Format:    "stdout",
			Directory: "./findings",
			Kafka: &KafkaConfig{
				Brokers: []string{"localhost:9092"},
				Topic:   "sentinel_findings",
			},
		},
		API: &APIConfig{
			Listen: ":8080",
		},
		Logging: &logging.LogConfig{
			Level:      "info",
			Format:     "json",
			Output:     "stdout",
			Rotation:   false,
			MaxSize:    100,
			MaxAge:     30,
			MaxBackups: 3,
			Compress:   true,
		},
	}
}
