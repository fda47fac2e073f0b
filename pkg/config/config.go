// Package config provides configuration management for the swap agent.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/jonasrmichel/swap-agent/pkg/types"
	"github.com/jonasrmichel/swap-agent/pkg/venue"
)

// Config holds the complete swap agent configuration.
type Config struct {
	// Runtime settings
	Verbose bool `json:"verbose"`
	DryRun  bool `json:"dry_run"`

	// Agent policy
	Agent AgentSettings `json:"agent"`

	// Simulated venue pools
	Venues []VenueSettings `json:"venues"`

	// Accounts funded at startup
	Funding []FundingSettings `json:"funding"`

	// Audit sinks
	Audit AuditSettings `json:"audit"`
}

// AgentSettings holds the per-authority policy installed at initialization.
type AgentSettings struct {
	Authority          string `json:"authority"` // seed for the authority identity
	MinProfitThreshold uint64 `json:"min_profit_threshold"`
	MaxSlippageBps     uint16 `json:"max_slippage_bps"`
}

// VenueSettings holds the pool configuration for a single venue.
type VenueSettings struct {
	Venue    string            `json:"venue"`
	Enabled  bool              `json:"enabled"`
	FeeBps   uint16            `json:"fee_bps"`
	Reserves map[string]uint64 `json:"reserves"`
}

// FundingSettings seeds an account with a starting balance.
type FundingSettings struct {
	Account string `json:"account"` // seed for the account identity
	Asset   string `json:"asset"`
	Amount  uint64 `json:"amount"`
}

// AuditSettings configures the audit event sinks.
type AuditSettings struct {
	SQLitePath string `json:"sqlite_path"` // empty disables the durable log
	ListenAddr string `json:"listen_addr"` // empty disables the WebSocket feed
}

// DefaultConfig returns a default configuration: all four venues enabled
// with a mispriced jupiter/raydium pair so a demo run has a path to route.
func DefaultConfig() *Config {
	return &Config{
		Verbose: true,
		DryRun:  false,

		Agent: AgentSettings{
			Authority:          "authority",
			MinProfitThreshold: 100,
			MaxSlippageBps:     100,
		},

		Venues: []VenueSettings{
			{Venue: "jupiter", Enabled: true, FeeBps: 30, Reserves: map[string]uint64{"SOL": 1_000_000_000, "USDC": 2_000_000_000}},
			{Venue: "raydium", Enabled: true, FeeBps: 30, Reserves: map[string]uint64{"SOL": 2_000_000_000, "USDC": 1_000_000_000}},
			{Venue: "phoenix", Enabled: true, FeeBps: 20, Reserves: map[string]uint64{"SOL": 500_000_000, "USDC": 750_000_000}},
			{Venue: "meteora", Enabled: true, FeeBps: 25, Reserves: map[string]uint64{"SOL": 750_000_000, "USDC": 500_000_000}},
		},

		Funding: []FundingSettings{
			{Account: "trader", Asset: "SOL", Amount: 100_000_000},
		},

		Audit: AuditSettings{
			SQLitePath: "swap-agent.db",
			ListenAddr: "", // off by default
		},
	}
}

// LoadFromFile loads configuration from a JSON file.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// LoadFromEnv loads configuration from environment variables.
func LoadFromEnv() *Config {
	cfg := DefaultConfig()
	cfg.applyEnvOverrides()
	return cfg
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("AGENT_VERBOSE"); v != "" {
		c.Verbose = strings.ToLower(v) == "true"
	}
	if v := os.Getenv("AGENT_DRY_RUN"); v != "" {
		c.DryRun = strings.ToLower(v) == "true"
	}
	if v := os.Getenv("AGENT_AUTHORITY"); v != "" {
		c.Agent.Authority = v
	}
	if v := os.Getenv("AGENT_MIN_PROFIT_THRESHOLD"); v != "" {
		if val, err := strconv.ParseUint(v, 10, 64); err == nil {
			c.Agent.MinProfitThreshold = val
		}
	}
	if v := os.Getenv("AGENT_MAX_SLIPPAGE_BPS"); v != "" {
		if val, err := strconv.ParseUint(v, 10, 16); err == nil {
			c.Agent.MaxSlippageBps = uint16(val)
		}
	}
	if v := os.Getenv("AGENT_AUDIT_DB"); v != "" {
		c.Audit.SQLitePath = v
	}
	if v := os.Getenv("AGENT_LISTEN_ADDR"); v != "" {
		c.Audit.ListenAddr = v
	}
}

// SaveToFile saves the configuration to a JSON file.
func (c *Config) SaveToFile(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	if c.Agent.Authority == "" {
		return fmt.Errorf("agent.authority must be set")
	}
	if c.Agent.MaxSlippageBps > 10000 {
		return fmt.Errorf("agent.max_slippage_bps %d exceeds 10000", c.Agent.MaxSlippageBps)
	}
	for _, v := range c.Venues {
		if !types.Venue(v.Venue).Valid() {
			return fmt.Errorf("unknown venue %q", v.Venue)
		}
		if v.FeeBps > 10000 {
			return fmt.Errorf("venue %s: fee_bps %d exceeds 10000", v.Venue, v.FeeBps)
		}
	}
	for _, f := range c.Funding {
		if f.Account == "" || f.Asset == "" {
			return fmt.Errorf("funding entries need account and asset")
		}
	}
	return nil
}

// EnabledVenues returns pool configurations for the enabled venues.
func (c *Config) EnabledVenues() []venue.PoolConfig {
	var pools []venue.PoolConfig
	for _, v := range c.Venues {
		if !v.Enabled {
			continue
		}
		reserves := make(map[types.Asset]uint64, len(v.Reserves))
		for asset, amount := range v.Reserves {
			reserves[types.Asset(asset)] = amount
		}
		pools = append(pools, venue.PoolConfig{
			Venue:    types.Venue(v.Venue),
			FeeBps:   v.FeeBps,
			Reserves: reserves,
		})
	}
	return pools
}
