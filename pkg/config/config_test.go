package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonasrmichel/swap-agent/pkg/types"
)

func TestDefaultConfigValidates(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Len(t, cfg.EnabledVenues(), 4)
}

func TestValidateRejectsBadValues(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Agent.MaxSlippageBps = 10001
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Venues[0].Venue = "orca"
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Agent.Authority = ""
	assert.Error(t, cfg.Validate())
}

func TestFileRoundTripAndEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	cfg := DefaultConfig()
	cfg.Agent.MinProfitThreshold = 12345
	cfg.Venues[3].Enabled = false
	require.NoError(t, cfg.SaveToFile(path))

	t.Setenv("AGENT_MAX_SLIPPAGE_BPS", "77")
	loaded, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, uint64(12345), loaded.Agent.MinProfitThreshold)
	assert.Equal(t, uint16(77), loaded.Agent.MaxSlippageBps)
	assert.Len(t, loaded.EnabledVenues(), 3)
}

func TestEnabledVenuesConversion(t *testing.T) {
	pools := DefaultConfig().EnabledVenues()
	for _, p := range pools {
		assert.True(t, p.Venue.Valid())
		assert.NotEmpty(t, p.Reserves)
	}
	assert.Equal(t, types.VenueJupiter, pools[0].Venue)
}
