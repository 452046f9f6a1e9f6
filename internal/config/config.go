package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the complete server configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Game     GameConfig     `mapstructure:"game"`
	Replay   ReplayConfig   `mapstructure:"replay"`
}

// ServerConfig holds listener and session settings.
type ServerConfig struct {
	LeasePeriod time.Duration   `mapstructure:"lease_period"`
	MaxSessions int             `mapstructure:"max_sessions"`
	GRPC        GRPCConfig      `mapstructure:"grpc"`
	WebSocket   WebSocketConfig `mapstructure:"websocket"`
}

// GRPCConfig configures the health and admin listener.
type GRPCConfig struct {
	Address              string `mapstructure:"address"`
	MaxConcurrentStreams int    `mapstructure:"max_concurrent_streams"`
}

// WebSocketConfig configures the player-facing HTTP listener.
type WebSocketConfig struct {
	Address           string   `mapstructure:"address"`
	Path              string   `mapstructure:"path"`
	AllowedOrigins    []string `mapstructure:"allowed_origins"`
	MessagesPerSecond float64  `mapstructure:"messages_per_second"`
	Burst             int      `mapstructure:"burst"`
	SendBuffer        int      `mapstructure:"send_buffer"`
}

// DatabaseConfig configures the Postgres pool. An empty URL disables
// persistence.
type DatabaseConfig struct {
	URL            string        `mapstructure:"url"`
	MaxConns       int32         `mapstructure:"max_conns"`
	MinConns       int32         `mapstructure:"min_conns"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
}

// Enabled reports whether a database is configured.
func (d DatabaseConfig) Enabled() bool {
	return d.URL != ""
}

// LoggingConfig selects the zap level and encoder.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Auth modes.
const (
	AuthModeGuest    = "guest"
	AuthModePassword = "password"
)

// AuthConfig selects how players identify themselves.
type AuthConfig struct {
	Mode       string `mapstructure:"mode"`
	BcryptCost int    `mapstructure:"bcrypt_cost"`
}

// GameConfig holds defaults for new tables.
type GameConfig struct {
	Seats              int   `mapstructure:"seats"`
	KingdomSize        int   `mapstructure:"kingdom_size"`
	AutoPlayTreasures  bool  `mapstructure:"auto_play_treasures"`
	VerifyConservation bool  `mapstructure:"verify_conservation"`
	Seed               int64 `mapstructure:"seed"`
}

// ReplayConfig controls replay recording.
type ReplayConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Dir     string `mapstructure:"dir"`
}

// EnvPrefix prefixes every environment override, e.g. KINGDOM_SERVER_GRPC_ADDRESS.
const EnvPrefix = "KINGDOM"

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.lease_period", 5*time.Minute)
	v.SetDefault("server.max_sessions", 1000)
	v.SetDefault("server.grpc.address", ":17171")
	v.SetDefault("server.grpc.max_concurrent_streams", 100)
	v.SetDefault("server.websocket.address", ":8080")
	v.SetDefault("server.websocket.path", "/ws")
	v.SetDefault("server.websocket.allowed_origins", []string{})
	v.SetDefault("server.websocket.messages_per_second", 20.0)
	v.SetDefault("server.websocket.burst", 40)
	v.SetDefault("server.websocket.send_buffer", 256)

	v.SetDefault("database.url", "")
	v.SetDefault("database.max_conns", 10)
	v.SetDefault("database.min_conns", 1)
	v.SetDefault("database.connect_timeout", 5*time.Second)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")

	v.SetDefault("auth.mode", AuthModeGuest)
	v.SetDefault("auth.bcrypt_cost", 10)

	v.SetDefault("game.seats", 2)
	v.SetDefault("game.kingdom_size", 10)
	v.SetDefault("game.auto_play_treasures", true)
	v.SetDefault("game.verify_conservation", false)
	v.SetDefault("game.seed", 0)

	v.SetDefault("replay.enabled", false)
	v.SetDefault("replay.dir", "replays")
}

// Load reads the YAML file at path, applies KINGDOM_* environment overrides
// and validates the result. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		_, err := os.Stat(path)
		switch {
		case err == nil:
			v.SetConfigFile(path)
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("failed to read config %s: %w", path, err)
			}
		case !errors.Is(err, os.ErrNotExist):
			return nil, fmt.Errorf("failed to stat config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks ranges and enumerations.
func (c *Config) Validate() error {
	if c.Server.LeasePeriod <= 0 {
		return fmt.Errorf("server.lease_period must be positive")
	}
	if c.Server.GRPC.Address == "" {
		return fmt.Errorf("server.grpc.address is required")
	}
	if c.Server.WebSocket.Address == "" {
		return fmt.Errorf("server.websocket.address is required")
	}
	if !strings.HasPrefix(c.Server.WebSocket.Path, "/") {
		return fmt.Errorf("server.websocket.path must start with /")
	}
	if c.Server.WebSocket.MessagesPerSecond <= 0 || c.Server.WebSocket.Burst <= 0 {
		return fmt.Errorf("server.websocket rate limit must be positive")
	}
	if c.Server.WebSocket.SendBuffer <= 0 {
		return fmt.Errorf("server.websocket.send_buffer must be positive")
	}

	if c.Database.Enabled() && c.Database.MinConns > c.Database.MaxConns {
		return fmt.Errorf("database.min_conns exceeds database.max_conns")
	}

	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("logging.format must be json or console, got %q", c.Logging.Format)
	}

	switch c.Auth.Mode {
	case AuthModeGuest:
	case AuthModePassword:
		if !c.Database.Enabled() {
			return fmt.Errorf("auth.mode %q requires database.url", c.Auth.Mode)
		}
	default:
		return fmt.Errorf("auth.mode must be %s or %s, got %q", AuthModeGuest, AuthModePassword, c.Auth.Mode)
	}
	if c.Auth.BcryptCost < 4 || c.Auth.BcryptCost > 31 {
		return fmt.Errorf("auth.bcrypt_cost must be between 4 and 31")
	}

	if c.Game.Seats < 2 || c.Game.Seats > 6 {
		return fmt.Errorf("game.seats must be between 2 and 6, got %d", c.Game.Seats)
	}
	if c.Game.KingdomSize <= 0 {
		return fmt.Errorf("game.kingdom_size must be positive")
	}

	if c.Replay.Enabled && c.Replay.Dir == "" {
		return fmt.Errorf("replay.dir is required when replay is enabled")
	}
	return nil
}
