// Package candle defines the immutable OHLCV record shared by every
// timeframe stream in the engine.
package candle

import "fmt"

// Timeframe tags the two synchronized streams the strategy consumes.
type Timeframe string

const (
	TF1m Timeframe = "1m"
	TF5m Timeframe = "5m"
)

// Candle is an immutable OHLCV record. OpenTime is the candle's epoch-
// millisecond open timestamp; CloseTime = OpenTime + timeframe duration.
// All price/volume fields are float64 — indicator math operates on
// plain floats, while money figures derived from a candle at
// signal-construction time are converted once into decimal.Decimal
// and never round-trip back.
type Candle struct {
	OpenTime  int64
	CloseTime int64
	Symbol    string
	Timeframe Timeframe
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    float64
	// TakerBuyVolume is optional; 0 means the feed did not report it.
	TakerBuyVolume float64
}

// Body is |close-open|.
func (c Candle) Body() float64 {
	if c.Close >= c.Open {
		return c.Close - c.Open
	}
	return c.Open - c.Close
}

// BodyPercent is body / (high-low) * 100, or 0 for a zero-range candle.
func (c Candle) BodyPercent() float64 {
	rng := c.High - c.Low
	if rng <= 0 {
		return 0
	}
	return c.Body() / rng * 100
}

// UpperWick is the distance from the top of the body to the high.
func (c Candle) UpperWick() float64 {
	top := c.Open
	if c.Close > top {
		top = c.Close
	}
	return c.High - top
}

// LowerWick is the distance from the bottom of the body to the low.
func (c Candle) LowerWick() float64 {
	bottom := c.Open
	if c.Close < bottom {
		bottom = c.Close
	}
	return bottom - c.Low
}

// Typical is (H+L+C)/3, used by VWAP.
func (c Candle) Typical() float64 {
	return (c.High + c.Low + c.Close) / 3
}

// TakerSellVolume derives the sell-side split when TakerBuyVolume was
// reported by the feed.
func (c Candle) TakerSellVolume() float64 {
	if c.TakerBuyVolume <= 0 {
		return 0
	}
	v := c.Volume - c.TakerBuyVolume
	if v < 0 {
		return 0
	}
	return v
}

// Delta is the signed taker buy/sell volume split; 0 when not reported.
func (c Candle) Delta() float64 {
	if c.TakerBuyVolume <= 0 {
		return 0
	}
	return c.TakerBuyVolume - c.TakerSellVolume()
}

func (c Candle) String() string {
	return fmt.Sprintf("%s/%s@%d O=%.4f H=%.4f L=%.4f C=%.4f V=%.4f", c.Symbol, c.Timeframe, c.OpenTime, c.Open, c.High, c.Low, c.Close, c.Volume)
}

// Closes extracts the close-price series from a candle slice, oldest first.
func Closes(cs []Candle) []float64 {
	out := make([]float64, len(cs))
	for i, c := range cs {
		out[i] = c.Close
	}
	return out
}

// Highs extracts the high-price series.
func Highs(cs []Candle) []float64 {
	out := make([]float64, len(cs))
	for i, c := range cs {
		out[i] = c.High
	}
	return out
}

// Lows extracts the low-price series.
func Lows(cs []Candle) []float64 {
	out := make([]float64, len(cs))
	for i, c := range cs {
		out[i] = c.Low
	}
	return out
}

// Volumes extracts the volume series.
func Volumes(cs []Candle) []float64 {
	out := make([]float64, len(cs))
	for i, c := range cs {
		out[i] = c.Volume
	}
	return out
}
