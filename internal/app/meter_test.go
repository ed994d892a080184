package app

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corey/gourmand/internal/ports"
)

func usage(in, out int) ports.TokenUsage {
	return ports.TokenUsage{InputTokens: in, OutputTokens: out}
}

func TestTokenMeter_Empty(t *testing.T) {
	m := NewTokenMeter(5 * time.Minute)
	assert.Equal(t, float64(0), m.TokensPerMin())
	assert.Equal(t, float64(0), m.MsPerToken())
	assert.Equal(t, int64(0), m.TotalTokens())
}

func TestTokenMeter_SingleSample(t *testing.T) {
	m := NewTokenMeter(5 * time.Minute)
	m.RecordAt(time.Now(), usage(800, 200), time.Second)
	// Single sample → 0 rate (need at least 2 points for a span)
	assert.Equal(t, float64(0), m.TokensPerMin())
	assert.Equal(t, int64(1000), m.TotalTokens())
}

func TestTokenMeter_BurnRate(t *testing.T) {
	m := NewTokenMeter(5 * time.Minute)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	m.RecordAt(base, usage(400, 100), time.Second)
	m.RecordAt(base.Add(1*time.Minute), usage(400, 100), time.Second)
	m.RecordAt(base.Add(2*time.Minute), ports.TokenUsage{TotalTokens: 500}, time.Second)

	// 1500 tokens / 2 minutes = 750 tokens/min
	assert.InDelta(t, 750.0, m.TokensPerMinAt(base.Add(2*time.Minute)), 0.01)
	assert.Equal(t, int64(1500), m.TotalTokens())
}

func TestTokenMeter_PartialEviction(t *testing.T) {
	m := NewTokenMeter(5 * time.Minute)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	m.RecordAt(base, usage(100, 0), 0)                    // will be evicted
	m.RecordAt(base.Add(3*time.Minute), usage(200, 0), 0) // kept
	m.RecordAt(base.Add(4*time.Minute), usage(300, 0), 0) // kept

	// 500 tokens over 3 minutes (from 3:00 to 6:00)
	assert.InDelta(t, 166.67, m.TokensPerMinAt(base.Add(6*time.Minute)), 0.01)

	// Total is lifetime, not affected by eviction
	assert.Equal(t, int64(600), m.TotalTokens())
}

func TestTokenMeter_Speed(t *testing.T) {
	m := NewTokenMeter(30 * time.Minute)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	m.RecordAt(base, usage(10, 100), 1*time.Second)                          // 10 ms/tok
	m.RecordAt(base.Add(time.Second), usage(10, 5), 10*time.Second)          // too few tokens
	m.RecordAt(base.Add(2*time.Second), usage(10, 100), 50*time.Millisecond) // too fast
	m.RecordAt(base.Add(3*time.Second), usage(10, 200), 4*time.Second)       // 20 ms/tok
	assert.Equal(t, float64(0), m.MsPerTokenAt(base.Add(4*time.Second)), "two measurable replies are not enough")

	m.RecordAt(base.Add(4*time.Second), usage(10, 100), 3*time.Second) // 30 ms/tok
	assert.InDelta(t, 20.0, m.MsPerTokenAt(base.Add(5*time.Second)), 0.001)
}

func TestTokenMeter_Reset(t *testing.T) {
	m := NewTokenMeter(5 * time.Minute)
	m.Record(usage(300, 200), time.Second)
	m.Reset()
	assert.Equal(t, float64(0), m.TokensPerMin())
	assert.Equal(t, int64(0), m.TotalTokens())
}

type stubConverser struct {
	resp *ports.ConverseResponse
	err  error
}

func (s stubConverser) Converse(context.Context, *ports.ConverseRequest) (*ports.ConverseResponse, error) {
	return s.resp, s.err
}

func TestMeteredConverser(t *testing.T) {
	meter := NewTokenMeter(5 * time.Minute)
	mc := &meteredConverser{
		next:  stubConverser{resp: &ports.ConverseResponse{Usage: usage(70, 30)}},
		meter: meter,
	}
	_, err := mc.Converse(context.Background(), &ports.ConverseRequest{})
	require.NoError(t, err)
	assert.Equal(t, int64(100), meter.TotalTokens())

	failing := &meteredConverser{next: stubConverser{err: assert.AnError}, meter: meter}
	_, err = failing.Converse(context.Background(), &ports.ConverseRequest{})
	assert.ErrorIs(t, err, assert.AnError)
	assert.Equal(t, int64(100), meter.TotalTokens())
}
