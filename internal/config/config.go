// Package config provides configuration management using viper.
// It supports loading from YAML files and environment variable overrides.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// BettingMode selects which ledger backs a chat's roulette sessions.
const (
	// BettingModeCoins wagers the platform-wide coin balance.
	BettingModeCoins = "coins"
	// BettingModeChips wagers the chat-local chip balance.
	BettingModeChips = "chips"
)

// Config holds all application configuration.
type Config struct {
	Bot       BotConfig       `mapstructure:"bot"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Admin     AdminConfig     `mapstructure:"admin"`
	Whitelist WhitelistConfig `mapstructure:"whitelist"`
	Daily     DailyConfig     `mapstructure:"daily"`
	Roulette  RouletteConfig  `mapstructure:"roulette"`
}

// BotConfig holds Telegram bot configuration.
type BotConfig struct {
	Token string `mapstructure:"token"`
}

// DatabaseConfig holds PostgreSQL connection configuration.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	PoolSize        int           `mapstructure:"pool_size"`
	ConnectTimeout  time.Duration `mapstructure:"connect_timeout"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
	MaxConnIdleTime time.Duration `mapstructure:"max_conn_idle_time"`
}

// AdminConfig holds admin user configuration.
type AdminConfig struct {
	IDs []int64 `mapstructure:"ids"`
}

// WhitelistConfig holds chat whitelist configuration.
type WhitelistConfig struct {
	Chats []int64 `mapstructure:"chats"`
}

// DailyConfig holds daily reward configuration.
type DailyConfig struct {
	Reward        int64 `mapstructure:"reward"`
	CooldownHours int   `mapstructure:"cooldown_hours"`
}

// RouletteConfig holds configuration for the roulette session engine.
type RouletteConfig struct {
	MinBet              int64            `mapstructure:"min_bet"`
	MaxBet              int64            `mapstructure:"max_bet"`
	WeaponSelectSeconds int              `mapstructure:"weapon_select_seconds"`
	AcceptSeconds       int              `mapstructure:"accept_seconds"`
	TurnSeconds         int              `mapstructure:"turn_seconds"`
	TickSeconds         int              `mapstructure:"tick_seconds"`
	BettingMode         string           `mapstructure:"betting_mode"`
	ChatBettingModes    map[int64]string `mapstructure:"chat_betting_modes"`
	InitialChips        int64            `mapstructure:"initial_chips"`
}

// DSN returns the PostgreSQL connection string.
func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=disable",
		d.User, d.Password, d.Host, d.Port, d.Name,
	)
}

// Load reads configuration from file and environment variables.
// It looks for config.yaml in the config directory.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set defaults
	setDefaults(v)

	// Configure viper
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	// Enable environment variable override
	// Environment variables use underscore separator and uppercase
	// e.g., BOT_TOKEN, DATABASE_HOST, ROULETTE_MAX_BET
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file (optional - env vars can provide all config)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found is OK - we can use env vars
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Roulette.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	// Database defaults
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "gamebot")
	v.SetDefault("database.name", "gamebot")
	v.SetDefault("database.pool_size", 20)
	v.SetDefault("database.connect_timeout", "10s")
	v.SetDefault("database.max_conn_lifetime", "1h")
	v.SetDefault("database.max_conn_idle_time", "30m")

	// Daily reward defaults
	v.SetDefault("daily.reward", 500)
	v.SetDefault("daily.cooldown_hours", 24)

	// Roulette defaults
	v.SetDefault("roulette.min_bet", 10)
	v.SetDefault("roulette.max_bet", 1000)
	v.SetDefault("roulette.weapon_select_seconds", 30)
	v.SetDefault("roulette.accept_seconds", 60)
	v.SetDefault("roulette.turn_seconds", 60)
	v.SetDefault("roulette.tick_seconds", 10)
	v.SetDefault("roulette.betting_mode", BettingModeCoins)
	v.SetDefault("roulette.initial_chips", 1000)
}

// validate checks roulette settings that would otherwise break sessions at
// runtime.
func (r *RouletteConfig) validate() error {
	if r.MinBet <= 0 || r.MaxBet < r.MinBet {
		return fmt.Errorf("invalid roulette bet bounds: min=%d max=%d", r.MinBet, r.MaxBet)
	}
	switch r.BettingMode {
	case BettingModeCoins, BettingModeChips:
	default:
		return fmt.Errorf("unknown roulette betting mode %q", r.BettingMode)
	}
	for chatID, mode := range r.ChatBettingModes {
		if mode != BettingModeCoins && mode != BettingModeChips {
			return fmt.Errorf("unknown betting mode %q for chat %d", mode, chatID)
		}
	}
	return nil
}

// BettingModeFor returns the betting mode in force for a chat. Per-chat
// overrides win over the global default. The mode is fixed for the lifetime
// of any session started in the chat.
func (r *RouletteConfig) BettingModeFor(chatID int64) string {
	if mode, ok := r.ChatBettingModes[chatID]; ok {
		return mode
	}
	return r.BettingMode
}

// IsAdmin checks if a user ID is in the admin list.
func (c *Config) IsAdmin(userID int64) bool {
	for _, id := range c.Admin.IDs {
		if id == userID {
			return true
		}
	}
	return false
}

// IsChatAllowed checks if a chat ID is in the whitelist.
func (c *Config) IsChatAllowed(chatID int64) bool {
	// Empty whitelist means all chats are allowed
	if len(c.Whitelist.Chats) == 0 {
		return true
	}
	for _, id := range c.Whitelist.Chats {
		if id == chatID {
			return true
		}
	}
	return false
}
