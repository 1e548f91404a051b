package config

import "time"

// ValidateConfig checks the assembled configuration before startup.
func ValidateConfig(config *Config) bool {
	if config == nil || config.Chain == nil {
		return false
	}
	if !validateScannerConfig(config.Scanner) {
		return false
	}
	if !validateDetectionConfig(config.Detection) {
		return false
	}
	return validateOutputConfig(config.Output)
}

func validateNodeConfig(node *NodeConfig) bool {
	if node == nil {
		return false
	}
	if node.Name == "" || node.URL == "" {
		return false
	}
	return node.RateLimit >= 0
}

func validateScannerConfig(config *ScannerConfig) bool {
	if config == nil {
		return false
	}
	if config.Workers <= 0 || config.BatchSize <= 0 {
		return false
	}
	if config.PollInterval != "" {
		if _, err := time.ParseDuration(config.PollInterval); err != nil {
			return false
		}
	}
	return true
}

func validateDetectionConfig(config *DetectionConfig) bool {
	if config == nil {
		return false
	}
	if config.USDThreshold < 0 || config.TransfersThreshold < 0 || config.WindowHours < 0 {
		return false
	}
	return config.SupplyPctThreshold >= 0 && config.SupplyPctThreshold <= 100
}

func validateKafkaConfig(config *KafkaConfig) bool {
	if config == nil {
		return false
	}
	return len(config.Brokers) > 0 && config.Topic != ""
}

func validateOutputConfig(config *OutputConfig) bool {
	if config == nil {
		return false
	}

	switch config.Format {
	case "file", "kafka", "stdout":
	default:
		return false
	}

	if config.Format == "kafka" {
		return validateKafkaConfig(config.Kafka)
	}
	return true
}
