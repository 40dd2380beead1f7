package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Client holds all configuration for the realm client.
type Client struct {
	// Login server
	Auth Auth `yaml:"auth"`

	// World server session
	World World `yaml:"world"`

	// Optional realm snapshot storage
	Database DatabaseConfig `yaml:"database"`

	LogLevel string `yaml:"log_level"` // debug, info, warn, error
}

// Auth holds the login server connection and client identity fields
// announced in the logon challenge.
type Auth struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	RealmID  uint8  `yaml:"realm_id"`

	// Client identity, sent reversed on the wire
	Game     string `yaml:"game"`
	Platform string `yaml:"platform"`
	OS       string `yaml:"os"`
	Locale   string `yaml:"locale"`

	Version  Version `yaml:"version"`
	Timezone uint32  `yaml:"timezone"`

	ReadTimeout       time.Duration `yaml:"read_timeout"`        // socket poll deadline (default: 200ms)
	WriteTimeout      time.Duration `yaml:"write_timeout"`       // per-write deadline (default: 5s)
	RealmPollInterval time.Duration `yaml:"realm_poll_interval"` // realm list refresh (default: 1s)
	VerifyServerProof bool          `yaml:"verify_server_proof"`
}

// Version is the client version triple plus build number.
type Version struct {
	Major uint8  `yaml:"major"`
	Minor uint8  `yaml:"minor"`
	Patch uint8  `yaml:"patch"`
	Build uint16 `yaml:"build"`
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d (%d)", v.Major, v.Minor, v.Patch, v.Build)
}

// Address returns host:port of the login server.
func (a Auth) Address() string {
	return net.JoinHostPort(a.Host, strconv.Itoa(a.Port))
}

// DatabaseConfig holds PostgreSQL connection parameters.
// Snapshots are only stored when Enabled is set.
type DatabaseConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	SSLMode  string `yaml:"sslmode"`
}

// DSN returns the PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

// DefaultClient returns Client config matching a stock 3.3.5a (12340) client.
func DefaultClient() Client {
	return Client{
		Auth: Auth{
			Host:     "127.0.0.1",
			Port:     3724,
			RealmID:  1,
			Game:     "WoW",
			Platform: "x86",
			OS:       "Win",
			Locale:   "enUS",
			Version: Version{
				Major: 3,
				Minor: 3,
				Patch: 5,
				Build: 12340,
			},
			ReadTimeout:       200 * time.Millisecond,
			WriteTimeout:      5 * time.Second,
			RealmPollInterval: time.Second,
			VerifyServerProof: true,
		},
		World: DefaultWorld(),
		Database: DatabaseConfig{
			Host:     "127.0.0.1",
			Port:     5432,
			User:     "realmgo",
			Password: "realmgo",
			DBName:   "realmgo",
			SSLMode:  "disable",
		},
		LogLevel: "info",
	}
}

// Validate reports the first field that cannot be put on the wire.
func (c Client) Validate() error {
	if c.Auth.Host == "" {
		return errors.New("auth.host is empty")
	}
	if c.Auth.Port <= 0 || c.Auth.Port > 65535 {
		return fmt.Errorf("auth.port %d out of range", c.Auth.Port)
	}
	tags := map[string]string{
		"auth.game":     c.Auth.Game,
		"auth.platform": c.Auth.Platform,
		"auth.os":       c.Auth.OS,
		"auth.locale":   c.Auth.Locale,
	}
	for name, v := range tags {
		if len(v) > 4 {
			return fmt.Errorf("%s %q longer than 4 bytes", name, v)
		}
	}
	if c.Auth.ReadTimeout <= 0 {
		return fmt.Errorf("auth.read_timeout must be positive, got %s", c.Auth.ReadTimeout)
	}
	if c.Auth.WriteTimeout <= 0 {
		return fmt.Errorf("auth.write_timeout must be positive, got %s", c.Auth.WriteTimeout)
	}
	if c.Auth.RealmPollInterval <= 0 {
		return fmt.Errorf("auth.realm_poll_interval must be positive, got %s", c.Auth.RealmPollInterval)
	}
	if c.World.SendQueueSize <= 0 {
		return fmt.Errorf("world.send_queue_size must be positive, got %d", c.World.SendQueueSize)
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// ParseLevel maps a log_level string onto a slog level. Empty means info.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log_level %q", s)
	}
}

// Load loads client config from a YAML file.
// If the file doesn't exist, returns defaults.
func Load(path string) (Client, error) {
	cfg := DefaultClient()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("validating config %s: %w", path, err)
	}

	return cfg, nil
}
