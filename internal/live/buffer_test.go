package live

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradeengine/internal/candle"
)

func TestBufferPutAppendsStrictlyNewerCandles(t *testing.T) {
	b := newBuffer()
	appended := b.Put("BTCUSDT", candle.TF1m, []candle.Candle{{OpenTime: 100}, {OpenTime: 200}}, 500)
	require.Len(t, appended, 2)
	assert.Len(t, b.Window("BTCUSDT", candle.TF1m), 2)
}

func TestBufferPutUpsertsCurrentlyFormingBar(t *testing.T) {
	b := newBuffer()
	b.Put("BTCUSDT", candle.TF1m, []candle.Candle{{OpenTime: 100, Close: 10}}, 500)
	appended := b.Put("BTCUSDT", candle.TF1m, []candle.Candle{{OpenTime: 100, Close: 11}}, 500)
	assert.Empty(t, appended)
	window := b.Window("BTCUSDT", candle.TF1m)
	require.Len(t, window, 1)
	assert.Equal(t, 11.0, window[0].Close)
}

func TestBufferPutDropsStaleOutOfOrderCandles(t *testing.T) {
	b := newBuffer()
	b.Put("BTCUSDT", candle.TF1m, []candle.Candle{{OpenTime: 200}}, 500)
	appended := b.Put("BTCUSDT", candle.TF1m, []candle.Candle{{OpenTime: 100}}, 500)
	assert.Empty(t, appended)
	assert.Len(t, b.Window("BTCUSDT", candle.TF1m), 1)
}

func TestBufferPutTrimsToMax(t *testing.T) {
	b := newBuffer()
	for i := int64(1); i <= 10; i++ {
		b.Put("BTCUSDT", candle.TF1m, []candle.Candle{{OpenTime: i}}, 5)
	}
	window := b.Window("BTCUSDT", candle.TF1m)
	require.Len(t, window, 5)
	assert.Equal(t, int64(6), window[0].OpenTime)
	assert.Equal(t, int64(10), window[len(window)-1].OpenTime)
}

func TestBufferPutEmptyFreshIsNoOp(t *testing.T) {
	b := newBuffer()
	appended := b.Put("BTCUSDT", candle.TF1m, nil, 500)
	assert.Nil(t, appended)
}

func TestBufferWindowIsIsolatedBySymbolAndTimeframe(t *testing.T) {
	b := newBuffer()
	b.Put("BTCUSDT", candle.TF1m, []candle.Candle{{OpenTime: 1}}, 500)
	b.Put("ETHUSDT", candle.TF1m, []candle.Candle{{OpenTime: 1}, {OpenTime: 2}}, 500)
	b.Put("BTCUSDT", candle.TF5m, []candle.Candle{{OpenTime: 1}, {OpenTime: 2}, {OpenTime: 3}}, 500)

	assert.Len(t, b.Window("BTCUSDT", candle.TF1m), 1)
	assert.Len(t, b.Window("ETHUSDT", candle.TF1m), 2)
	assert.Len(t, b.Window("BTCUSDT", candle.TF5m), 3)
}

func TestBufferWindowReturnsACopyNotTheInternalSlice(t *testing.T) {
	b := newBuffer()
	b.Put("BTCUSDT", candle.TF1m, []candle.Candle{{OpenTime: 1, Close: 5}}, 500)
	window := b.Window("BTCUSDT", candle.TF1m)
	window[0].Close = 999

	fresh := b.Window("BTCUSDT", candle.TF1m)
	assert.Equal(t, 5.0, fresh[0].Close)
}
