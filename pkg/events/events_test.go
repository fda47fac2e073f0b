package events

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonasrmichel/swap-agent/pkg/types"
)

func sampleResult(tradeID uint64) *types.ExecutionResult {
	return &types.ExecutionResult{
		ID:        "exec-1",
		Actor:     types.AddressOf("trader"),
		Profit:    200,
		Path:      []types.Venue{types.VenueJupiter, types.VenueRaydium},
		TradeID:   tradeID,
		Timestamp: time.Unix(1700000000, 0).UTC(),
	}
}

type captureSink struct {
	events []*types.ExecutionResult
	err    error
}

func (c *captureSink) Emit(result *types.ExecutionResult) error {
	c.events = append(c.events, result)
	return c.err
}

func TestMultiSinkDeliversToAll(t *testing.T) {
	a := &captureSink{}
	b := &captureSink{err: errors.New("sink down")}
	c := &captureSink{}

	err := MultiSink{a, b, c}.Emit(sampleResult(1))
	assert.EqualError(t, err, "sink down")
	// Every sink still received the event.
	assert.Len(t, a.events, 1)
	assert.Len(t, b.events, 1)
	assert.Len(t, c.events, 1)
}

func TestSQLiteSinkRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.db")
	sink, err := NewSQLiteSink(path)
	require.NoError(t, err)
	defer sink.Close()

	require.NoError(t, sink.Emit(sampleResult(1)))
	require.NoError(t, sink.Emit(sampleResult(2)))

	n, err := sink.Count(types.AddressOf("trader"))
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	loaded, err := sink.Load()
	require.NoError(t, err)
	require.Len(t, loaded, 2)
	assert.Equal(t, uint64(1), loaded[0].TradeID)
	assert.Equal(t, uint64(2), loaded[1].TradeID)
	assert.Equal(t, sampleResult(1).Actor, loaded[0].Actor)
	assert.Equal(t, []types.Venue{types.VenueJupiter, types.VenueRaydium}, loaded[1].Path)
}

func TestLogSinkNilLogger(t *testing.T) {
	assert.NoError(t, NewLogSink(nil).Emit(sampleResult(1)))
}
