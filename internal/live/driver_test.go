package live

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradeengine/internal/candle"
	"tradeengine/internal/logger"
)

// fakeSource returns a fixed, pre-seeded batch of candles per timeframe
// regardless of the requested limit/endTime, and counts calls made to
// it so tests can assert the bootstrap fetch happened exactly once per
// symbol/timeframe.
type fakeSource struct {
	m1, m5 []candle.Candle
	calls  int
}

func (f *fakeSource) FetchCandles(ctx context.Context, symbol string, tf candle.Timeframe, limit int, endTime int64) ([]candle.Candle, error) {
	f.calls++
	if tf == candle.TF5m {
		return f.m5, nil
	}
	return f.m1, nil
}

// fakeCandleStore is an in-memory store.CandleStore recording every
// saved batch.
type fakeCandleStore struct {
	saved []candle.Candle
}

func (f *fakeCandleStore) CountInRange(ctx context.Context, symbol string, tf candle.Timeframe, t0, t1 int64) (int, error) {
	return 0, nil
}

func (f *fakeCandleStore) GetCandles(ctx context.Context, symbol string, tf candle.Timeframe, t0, t1 int64) ([]candle.Candle, error) {
	return nil, nil
}

func (f *fakeCandleStore) GetLastCandle(ctx context.Context, symbol string, tf candle.Timeframe) (*candle.Candle, error) {
	return nil, nil
}

func (f *fakeCandleStore) SaveCandles(ctx context.Context, candles []candle.Candle) error {
	f.saved = append(f.saved, candles...)
	return nil
}

func TestConfigWithDefaultsFillsEverythingWhenUnset(t *testing.T) {
	out := Config{}.withDefaults()
	assert.Equal(t, 15*time.Second, out.PollInterval)
	assert.Equal(t, 5, out.FetchLimit)
	assert.Equal(t, 300, out.InitialLoadBars)
	assert.Equal(t, 500, out.Buffer1mSize)
	assert.Equal(t, 500, out.Buffer5mSize)
}

func TestConfigWithDefaultsLeavesExplicitValuesAlone(t *testing.T) {
	cfg := Config{PollInterval: 30 * time.Second, FetchLimit: 10, InitialLoadBars: 100, Buffer1mSize: 200, Buffer5mSize: 100}
	out := cfg.withDefaults()
	assert.Equal(t, cfg, out)
}

func TestClosedOnlyDropsTheStillFormingBar(t *testing.T) {
	cs := []candle.Candle{{CloseTime: 100}, {CloseTime: 200}, {CloseTime: 300}}
	out := closedOnly(cs, 250)
	assert.Equal(t, []candle.Candle{{CloseTime: 100}, {CloseTime: 200}}, out)
}

func TestClosedOnlyKeepsAllWhenNoneAreStillForming(t *testing.T) {
	cs := []candle.Candle{{CloseTime: 100}, {CloseTime: 200}}
	out := closedOnly(cs, 300)
	assert.Equal(t, cs, out)
}

func TestClosedOnlyEmptyInputIsEmptyOutput(t *testing.T) {
	assert.Empty(t, closedOnly(nil, 100))
}

func TestNowUsesLastCandleCloseTimeWhenPresent(t *testing.T) {
	m1 := []candle.Candle{{CloseTime: 100}, {CloseTime: 200}}
	assert.Equal(t, int64(200), now(m1))
}

func TestNowFallsBackToWallClockWhenEmpty(t *testing.T) {
	before := time.Now().UnixMilli()
	got := now(nil)
	after := time.Now().UnixMilli()
	assert.GreaterOrEqual(t, got, before)
	assert.LessOrEqual(t, got, after)
}

func TestBootstrapSeedsBufferAndPersistsCandlesPerTimeframe(t *testing.T) {
	nowMs := time.Now().UnixMilli()
	src := &fakeSource{
		m1: []candle.Candle{{Symbol: "BTCUSDT", Timeframe: candle.TF1m, OpenTime: nowMs - 2*60*1000, CloseTime: nowMs - 60*1000}},
		m5: []candle.Candle{{Symbol: "BTCUSDT", Timeframe: candle.TF5m, OpenTime: nowMs - 10*60*1000, CloseTime: nowMs - 5*60*1000}},
	}
	candles := &fakeCandleStore{}
	d := &Driver{
		cfg:     Config{Symbols: []string{"BTCUSDT"}}.withDefaults(),
		source:  src,
		candles: candles,
		log:     logger.Nop(),
		buf:     newBuffer(),
	}

	err := d.bootstrap(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, src.calls)
	assert.Len(t, d.buf.Window("BTCUSDT", candle.TF1m), 1)
	assert.Len(t, d.buf.Window("BTCUSDT", candle.TF5m), 1)
	assert.Len(t, candles.saved, 2)
}

func TestBootstrapPropagatesFetchErrors(t *testing.T) {
	d := &Driver{
		cfg:     Config{Symbols: []string{"BTCUSDT"}}.withDefaults(),
		source:  failingSource{},
		candles: &fakeCandleStore{},
		log:     logger.Nop(),
		buf:     newBuffer(),
	}

	err := d.bootstrap(context.Background())
	assert.Error(t, err)
}

type failingSource struct{}

func (failingSource) FetchCandles(ctx context.Context, symbol string, tf candle.Timeframe, limit int, endTime int64) ([]candle.Candle, error) {
	return nil, assert.AnError
}
