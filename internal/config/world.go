package config

import "time"

// World holds settings for the encrypted world server session.
type World struct {
	// Write queue / timeouts
	WriteTimeout  time.Duration `yaml:"write_timeout"`   // per-write deadline (default: 5s)
	ReadTimeout   time.Duration `yaml:"read_timeout"`    // socket poll deadline (default: 200ms)
	SendQueueSize int           `yaml:"send_queue_size"` // outbound packet queue capacity (default: 64)

	// Keepalive, 0 disables
	PingInterval time.Duration `yaml:"ping_interval"`
}

// DefaultWorld returns World config with sensible defaults.
func DefaultWorld() World {
	return World{
		WriteTimeout:  5 * time.Second,
		ReadTimeout:   200 * time.Millisecond,
		SendQueueSize: 64,
		PingInterval:  30 * time.Second,
	}
}
