package output

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"sentinel/internal/config"
	"sentinel/internal/finding"

	"github.com/sirupsen/logrus"
)

// Publisher delivers findings to whatever sink the operator configured.
type Publisher interface {
	Publish(f *finding.Finding) error
	Close() error
}

// NewPublisher builds a publisher from the output configuration. KAFKA_BROKERS
// in the environment overrides the configured broker list.
func NewPublisher(cfg *config.OutputConfig, logger *logrus.Logger) (Publisher, error) {
	if cfg == nil {
		return NewStdoutPublisher(logger), nil
	}

	switch cfg.Format {
	case "kafka":
		brokers := []string{"localhost:9092"}
		topic := "sentinel_findings"
		if cfg.Kafka != nil {
			if len(cfg.Kafka.Brokers) > 0 {
				brokers = cfg.Kafka.Brokers
			}
			if cfg.Kafka.Topic != "" {
				topic = cfg.Kafka.Topic
			}
		}
		if env := os.Getenv("KAFKA_BROKERS"); env != "" {
			brokers = strings.Split(env, ",")
		}
		return NewKafkaPublisher(brokers, topic, logger)
	case "file":
		return NewFilePublisher(cfg.Directory, logger)
	case "stdout", "":
		return NewStdoutPublisher(logger), nil
	default:
		return nil, fmt.Errorf("unsupported output format: %s", cfg.Format)
	}
}

// FilePublisher appends findings as JSON lines to a timestamped file, synced
// after every write so an abrupt exit loses nothing.
type FilePublisher struct {
	file   *os.File
	logger *logrus.Logger
}

// NewFilePublisher creates the output directory and the findings file.
func NewFilePublisher(dir string, logger *logrus.Logger) (*FilePublisher, error) {
	if dir == "" {
		dir = "./findings"
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	name := fmt.Sprintf("findings_%s.jsonl", time.Now().Format("20060102_150405"))
	file, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return nil, fmt.Errorf("create findings file: %w", err)
	}

	logger.WithField("path", file.Name()).Info("findings file publisher initialized")
	return &FilePublisher{file: file, logger: logger}, nil
}

func (p *FilePublisher) Publish(f *finding.Finding) error {
	if f == nil {
		return nil
	}

	data, err := json.Marshal(f)
	if err != nil {
		return fmt.Errorf("serialize finding: %w", err)
	}
	data = append(data, '\n')

	if _, err := p.file.Write(data); err != nil {
		return fmt.Errorf("write finding: %w", err)
	}
	if err := p.file.Sync(); err != nil {
		return fmt.Errorf("sync findings file: %w", err)
	}
	return nil
}

func (p *FilePublisher) Close() error {
	if p.file != nil {
		return p.file.Close()
	}
	return nil
}

// StdoutPublisher prints findings as single-line JSON, for dry runs and
// piping into other tooling.
type StdoutPublisher struct {
	logger *logrus.Logger
}

// NewStdoutPublisher creates a stdout publisher.
func NewStdoutPublisher(logger *logrus.Logger) *StdoutPublisher {
	return &StdoutPublisher{logger: logger}
}

func (p *StdoutPublisher) Publish(f *finding.Finding) error {
	if f == nil {
		return nil
	}
	data, err := json.Marshal(f)
	if err != nil {
		return fmt.Errorf("serialize finding: %w", err)
	}
	fmt.Println(string(data))
	return nil
}

func (p *StdoutPublisher) Close() error {
	return nil
}
