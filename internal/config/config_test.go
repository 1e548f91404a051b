package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetDefaultConfig(t *testing.T) {
	config := GetDefaultConfig()

	assert.NotNil(t, config)
	assert.NotNil(t, config.Chain)
	assert.NotNil(t, config.Scanner)
	assert.NotNil(t, config.Detection)
	assert.NotNil(t, config.Pricing)
	assert.NotNil(t, config.State)
	assert.NotNil(t, config.Output)
	assert.NotNil(t, config.Logging)

	assert.Equal(t, uint64(1), config.Chain.ChainID)
	assert.NotEmpty(t, config.Chain.Nodes)
	firstNode := config.Chain.Nodes[0]
	assert.Equal(t, "local_node", firstNode.Name)
	assert.Equal(t, "", firstNode.URL) // supplied via YAML or database
	assert.Equal(t, 1000, firstNode.RateLimit)
	assert.Equal(t, 1, firstNode.Priority)

	assert.Equal(t, 2, config.Scanner.Workers)
	assert.Equal(t, 100, config.Scanner.BatchSize)
	assert.Equal(t, "12s", config.Scanner.PollInterval)
	assert.True(t, config.Scanner.EnableTrace)

	assert.Equal(t, float64(500000), config.Detection.USDThreshold)
	assert.Equal(t, float64(5), config.Detection.SupplyPctThreshold)
	assert.Equal(t, 7, config.Detection.TransfersThreshold)
	assert.Equal(t, 120, config.Detection.WindowHours)
	assert.Equal(t, uint64(2000), config.Detection.VictimTxCountThreshold)
	assert.Equal(t, uint64(9999), config.Detection.FunderTxCountThreshold)

	assert.Equal(t, "stdout", config.Output.Format)
	assert.Equal(t, "./findings", config.Output.Directory)
	assert.NotNil(t, config.Output.Kafka)
	assert.Equal(t, []string{"localhost:9092"}, config.Output.Kafka.Brokers)
	assert.Equal(t, "sentinel_findings", config.Output.Kafka.Topic)

	assert.Equal(t, "info", config.Logging.Level)
	assert.Equal(t, "json", config.Logging.Format)
	assert.Equal(t, "stdout", config.Logging.Output)
}

func TestNodeConfigValidation(t *testing.T) {
	tests := []struct {
		name  string
		node  *NodeConfig
		valid bool
	}{
		{
			name: "valid node config",
			node: &NodeConfig{
				Name:      "test_node",
				URL:       "https://mainnet.infura.io/v3/test-key",
				RateLimit: 100,
				Priority:  1,
			},
			valid: true,
		},
		{
			name: "empty name",
			node: &NodeConfig{
				Name:      "",
				URL:       "https://mainnet.infura.io/v3/test-key",
				RateLimit: 100,
				Priority:  1,
			},
			valid: false,
		},
		{
			name: "empty URL",
			node: &NodeConfig{
				Name:      "test_node",
				URL:       "",
				RateLimit: 100,
				Priority:  1,
			},
			valid: false,
		},
		{
			name: "negative rate limit",
			node: &NodeConfig{
				Name:      "test_node",
				URL:       "https://mainnet.infura.io/v3/test-key",
				RateLimit: -1,
				Priority:  1,
			},
			valid: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.valid, validateNodeConfig(tt.node))
		})
	}
}

func TestDetectionConfigValidation(t *testing.T) {
	tests := []struct {
		name   string
		config *DetectionConfig
		valid  bool
	}{
		{
			name: "valid detection config",
			config: &DetectionConfig{
				USDThreshold:       500000,
				SupplyPctThreshold: 5,
				TransfersThreshold: 7,
				WindowHours:        120,
			},
			valid: true,
		},
		{
			name: "negative usd threshold",
			config: &DetectionConfig{
				USDThreshold:       -1,
				SupplyPctThreshold: 5,
				TransfersThreshold: 7,
				WindowHours:        120,
			},
			valid: false,
		},
		{
			name: "supply threshold above 100 percent",
			config: &DetectionConfig{
				USDThreshold:       500000,
				SupplyPctThreshold: 150,
				TransfersThreshold: 7,
				WindowHours:        120,
			},
			valid: false,
		},
		{
			name: "negative transfers threshold",
			config: &DetectionConfig{
				USDThreshold:       500000,
				SupplyPctThreshold: 5,
				TransfersThreshold: -1,
				WindowHours:        120,
			},
			valid: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.valid, validateDetectionConfig(tt.config))
		})
	}
}

func TestKafkaConfigValidation(t *testing.T) {
	tests := []struct {
		name   string
		config *KafkaConfig
		valid  bool
	}{
		{
			name: "valid kafka config",
			config: &KafkaConfig{
				Brokers: []string{"localhost:9092", "localhost:9093"},
				Topic:   "sentinel_findings",
			},
			valid: true,
		},
		{
			name: "empty brokers",
			config: &KafkaConfig{
				Brokers: []string{},
				Topic:   "sentinel_findings",
			},
			valid: false,
		},
		{
			name: "empty topic",
			config: &KafkaConfig{
				Brokers: []string{"localhost:9092"},
				Topic:   "",
			},
			valid: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.valid, validateKafkaConfig(tt.config))
		})
	}
}

func TestOutputConfigValidation(t *testing.T) {
	tests := []struct {
		name   string
		config *OutputConfig
		valid  bool
	}{
		{
			name: "valid file output config",
			config: &OutputConfig{
				Format:    "file",
				Directory: "./findings",
			},
			valid: true,
		},
		{
			name: "valid kafka output config",
			config: &OutputConfig{
				Format: "kafka",
				Kafka: &KafkaConfig{
					Brokers: []string{"localhost:9092"},
					Topic:   "sentinel_findings",
				},
			},
			valid: true,
		},
		{
			name: "invalid format",
			config: &OutputConfig{
				Format:    "invalid",
				Directory: "./findings",
			},
			valid: false,
		},
		{
			name: "kafka format without kafka config",
			config: &OutputConfig{
				Format: "kafka",
				Kafka:  nil,
			},
			valid: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.valid, validateOutputConfig(tt.config))
		})
	}
}

func TestConfigValidation(t *testing.T) {
	validConfig := GetDefaultConfig()
	assert.True(t, ValidateConfig(validConfig))

	assert.False(t, ValidateConfig(nil))

	invalidConfig := &Config{
		Chain:     nil,
		Scanner:   validConfig.Scanner,
		Detection: validConfig.Detection,
		Output:    validConfig.Output,
		Logging:   validConfig.Logging,
	}
	assert.False(t, ValidateConfig(invalidConfig))
}

func BenchmarkGetDefaultConfig(b *testing.B) {
	for i := 0; i < b.N; i++ {
		GetDefaultConfig()
	}
}
