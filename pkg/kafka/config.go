package kafka

import (
	"time"
)

// Config holds Kafka producer configuration.
type Config struct {
	Brokers  []string
	ClientID string

	BatchSize    int
	BatchTimeout time.Duration
	RequiredAcks int // 0: no ack, 1: leader ack, -1: all replicas ack
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Brokers:      []string{"localhost:9092"},
		ClientID:     "kubestock-inventory",
		BatchSize:    100,
		BatchTimeout: 10 * time.Millisecond,
		RequiredAcks: -1,
	}
}

// Topics contains the inventory Kafka topic names. Movement events and
// alert events go to separate topics so consumers can subscribe to alerts
// without replaying the full movement stream.
var Topics = struct {
	InventoryEvents string
	AlertEvents     string
}{
	InventoryEvents: "kubestock.inventory.events",
	AlertEvents:     "kubestock.inventory.alerts",
}
