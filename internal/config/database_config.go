package config

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"
)

// DatabaseConfig loads configuration from a shared Postgres instance, so a
// fleet of scanners can be retuned without redeploying.
type DatabaseConfig struct {
	DB     *sql.DB
	logger *logrus.Logger
}

// NewDatabaseConfig connects and verifies the configuration database.
func NewDatabaseConfig(dsn string, logger *logrus.Logger) (*DatabaseConfig, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open config database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping config database: %w", err)
	}
	return &DatabaseConfig{DB: db, logger: logger}, nil
}

// LoadConfig assembles a full Config from the database tables, falling back
// to defaults for anything unset.
func (dc *DatabaseConfig) LoadConfig() (*Config, error) {
	config := GetDefaultConfig()

	chainConfig, err := dc.loadChainConfig()
	if err != nil {
		return nil, fmt.Errorf("load chain config: %w", err)
	}
	if chainConfig != nil {
		config.Chain = chainConfig
	}

	if err := dc.loadDetectionConfig(config.Detection); err != nil {
		return nil, fmt.Errorf("load detection config: %w", err)
	}
	if err := dc.loadOutputConfig(config.Output); err != nil {
		return nil, fmt.Errorf("load output config: %w", err)
	}
	return config, nil
}

func (dc *DatabaseConfig) loadChainConfig() (*ChainConfig, error) {
	rows, err := dc.DB.Query(`SELECT name, url, rate_limit, priority FROM chain_nodes WHERE is_active = true ORDER BY priority`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var nodes []*NodeConfig
	for rows.Next() {
		var node NodeConfig
		if err := rows.Scan(&node.Name, &node.URL, &node.RateLimit, &node.Priority); err != nil {
			return nil, err
		}
		nodes = append(nodes, &node)
	}
	if len(nodes) == 0 {
		return nil, nil
	}

	config := &ChainConfig{ChainID: 1, Nodes: nodes}
	settings, err := dc.settings("chain_config")
	if err != nil {
		return nil, err
	}
	for key, value := range settings {
		switch key {
		case "chain_id":
			if v, err := strconv.ParseUint(value, 10, 64); err == nil {
				config.ChainID = v
			}
		case "explorer_url":
			config.ExplorerURL = value
		case "explorer_api_key":
			config.ExplorerAPIKey = value
		}
	}
	return config, nil
}

func (dc *DatabaseConfig) loadDetectionConfig(config *DetectionConfig) error {
	settings, err := dc.settings("detection_config")
	if err != nil {
		return err
	}
	for key, value := range settings {
		switch key {
		case "usd_threshold":
			if v, err := strconv.ParseFloat(value, 64); err == nil {
				config.USDThreshold = v
			}
		case "supply_pct_threshold":
			if v, err := strconv.ParseFloat(value, 64); err == nil {
				config.SupplyPctThreshold = v
			}
		case "transfers_threshold":
			if v, err := strconv.Atoi(value); err == nil {
				config.TransfersThreshold = v
			}
		case "window_hours":
			if v, err := strconv.Atoi(value); err == nil {
				config.WindowHours = v
			}
		case "victim_tx_count_threshold":
			if v, err := strconv.ParseUint(value, 10, 64); err == nil {
				config.VictimTxCountThreshold = v
			}
		case "funder_tx_count_threshold":
			if v, err := strconv.ParseUint(value, 10, 64); err == nil {
				config.FunderTxCountThreshold = v
			}
		case "extra_routers":
			var routers []string
			if err := json.Unmarshal([]byte(value), &routers); err == nil {
				config.ExtraRouters = routers
			}
		}
	}
	return nil
}

func (dc *DatabaseConfig) loadOutputConfig(config *OutputConfig) error {
	settings, err := dc.settings("output_config")
	if err != nil {
		return err
	}
	for key, value := range settings {
		switch key {
		case "format":
			config.Format = value
		case "directory":
			config.Directory = value
		case "kafka_brokers":
			var brokers []string
			if err := json.Unmarshal([]byte(value), &brokers); err == nil {
				if config.Kafka == nil {
					config.Kafka = &KafkaConfig{}
				}
				config.Kafka.Brokers = brokers
			}
		case "kafka_topic":
			if config.Kafka == nil {
				config.Kafka = &KafkaConfig{}
			}
			config.Kafka.Topic = value
		}
	}
	return nil
}

func (dc *DatabaseConfig) settings(table string) (map[string]string, error) {
	rows, err := dc.DB.Query(fmt.Sprintf(`SELECT config_key, config_value FROM %s WHERE is_active = true`, table))
	if err != nil {
		// A missing table means that section is simply not managed here.
		if strings.Contains(err.Error(), "does not exist") {
			return nil, nil
		}
		return nil, err
	}
	defer rows.Close()

	settings := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, err
		}
		settings[key] = value
	}
	return settings, rows.Err()
}

// UpdateConfig upserts one setting.
func (dc *DatabaseConfig) UpdateConfig(table, key, value string) error {
	switch table {
	case "chain_config", "detection_config", "output_config":
	default:
		return fmt.Errorf("unsupported config table: %s", table)
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (config_key, config_value, updated_at)
		VALUES ($1, $2, CURRENT_TIMESTAMP)
		ON CONFLICT (config_key)
		DO UPDATE SET config_value = $2, updated_at = CURRENT_TIMESTAMP
	`, table)
	_, err := dc.DB.Exec(query, key, value)
	return err
}

// Close releases the database connection.
func (dc *DatabaseConfig) Close() error {
	if dc.DB != nil {
		return dc.DB.Close()
	}
	return nil
}
