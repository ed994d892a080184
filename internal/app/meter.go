package app

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/corey/gourmand/internal/ports"
)

// TokenMeter tracks a rolling token burn rate and the median generation
// speed (ms per output token) of completed Converse calls.
// Safe for concurrent use.
type TokenMeter struct {
	mu      sync.Mutex
	window  time.Duration
	samples []meterSample
	total   int64
}

type meterSample struct {
	ts       time.Time
	tokens   int
	msPerTok float64 // 0 when the reply was too short to measure
}

// minSpeedSamples is the number of measurable replies needed before
// MsPerToken reports anything.
const minSpeedSamples = 3

// NewTokenMeter creates a meter with the given rolling window.
func NewTokenMeter(window time.Duration) *TokenMeter {
	return &TokenMeter{window: window}
}

// Record adds one completed call at the current time.
func (m *TokenMeter) Record(usage ports.TokenUsage, latency time.Duration) {
	m.RecordAt(time.Now(), usage, latency)
}

// RecordAt adds one completed call at a specific timestamp. Replies with
// fewer than 10 output tokens or under 100ms count toward the burn rate
// but not toward speed.
func (m *TokenMeter) RecordAt(ts time.Time, usage ports.TokenUsage, latency time.Duration) {
	tokens := usage.TotalTokens
	if tokens == 0 {
		tokens = usage.InputTokens + usage.OutputTokens
	}
	s := meterSample{ts: ts, tokens: tokens}
	if usage.OutputTokens >= 10 && latency >= 100*time.Millisecond {
		s.msPerTok = float64(latency.Milliseconds()) / float64(usage.OutputTokens)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.samples = append(m.samples, s)
	m.total += int64(tokens)
	m.evict(ts)
}

// TokensPerMin returns the current burn rate in tokens per minute.
func (m *TokenMeter) TokensPerMin() float64 {
	return m.TokensPerMinAt(time.Now())
}

// TokensPerMinAt computes the burn rate as of the given time. At least two
// samples are needed for a span.
func (m *TokenMeter) TokensPerMinAt(now time.Time) float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.evict(now)
	if len(m.samples) < 2 {
		return 0
	}
	span := now.Sub(m.samples[0].ts)
	if span <= 0 {
		return 0
	}
	sum := 0
	for _, s := range m.samples {
		sum += s.tokens
	}
	return float64(sum) / span.Minutes()
}

// MsPerToken returns the median ms per output token within the window, or 0
// with too few measurable replies.
func (m *TokenMeter) MsPerToken() float64 {
	return m.MsPerTokenAt(time.Now())
}

// MsPerTokenAt is MsPerToken as of the given time.
func (m *TokenMeter) MsPerTokenAt(now time.Time) float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.evict(now)
	var rates []float64
	for _, s := range m.samples {
		if s.msPerTok > 0 {
			rates = append(rates, s.msPerTok)
		}
	}
	if len(rates) < minSpeedSamples {
		return 0
	}
	sort.Float64s(rates)
	return rates[len(rates)/2]
}

// TotalTokens returns the lifetime total of recorded tokens.
func (m *TokenMeter) TotalTokens() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.total
}

// Reset clears all samples and the lifetime total.
func (m *TokenMeter) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.samples = nil
	m.total = 0
}

// evict removes samples older than the window. Caller holds mu.
func (m *TokenMeter) evict(now time.Time) {
	cutoff := now.Add(-m.window)
	i := 0
	for i < len(m.samples) && m.samples[i].ts.Before(cutoff) {
		i++
	}
	if i > 0 {
		m.samples = m.samples[i:]
	}
}

// meteredConverser records every successful call on a TokenMeter.
type meteredConverser struct {
	next  ports.Converser
	meter *TokenMeter
}

func (m *meteredConverser) Converse(ctx context.Context, req *ports.ConverseRequest) (*ports.ConverseResponse, error) {
	resp, err := m.next.Converse(ctx, req)
	if err == nil && resp != nil {
		m.meter.Record(resp.Usage, resp.Latency)
	}
	return resp, err
}
