package sqlstore

import (
	"context"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"tradeengine/internal/candle"
	"tradeengine/internal/store"
)

// candleModel is the gorm row shape for one OHLCV bar. The unique index
// on (symbol, timeframe, open_time) is what makes SaveCandles idempotent
// across overlapping gap-fill windows.
type candleModel struct {
	ID              int64   `gorm:"column:id;primaryKey"`
	Symbol          string  `gorm:"column:symbol;uniqueIndex:idx_candle_key"`
	Timeframe       string  `gorm:"column:timeframe;uniqueIndex:idx_candle_key"`
	OpenTime        int64   `gorm:"column:open_time;uniqueIndex:idx_candle_key"`
	CloseTime       int64   `gorm:"column:close_time"`
	Open            float64 `gorm:"column:open"`
	High            float64 `gorm:"column:high"`
	Low             float64 `gorm:"column:low"`
	Close           float64 `gorm:"column:close"`
	Volume          float64 `gorm:"column:volume"`
	TakerBuyVolume  float64 `gorm:"column:taker_buy_volume"`
}

func (candleModel) TableName() string { return "candles" }

func fromCandle(c candle.Candle) candleModel {
	return candleModel{
		Symbol:         strings.ToUpper(c.Symbol),
		Timeframe:      string(c.Timeframe),
		OpenTime:       c.OpenTime,
		CloseTime:      c.CloseTime,
		Open:           c.Open,
		High:           c.High,
		Low:            c.Low,
		Close:          c.Close,
		Volume:         c.Volume,
		TakerBuyVolume: c.TakerBuyVolume,
	}
}

func (m candleModel) toCandle() candle.Candle {
	return candle.Candle{
		Symbol:         m.Symbol,
		Timeframe:      candle.Timeframe(m.Timeframe),
		OpenTime:       m.OpenTime,
		CloseTime:      m.CloseTime,
		Open:           m.Open,
		High:           m.High,
		Low:            m.Low,
		Close:          m.Close,
		Volume:         m.Volume,
		TakerBuyVolume: m.TakerBuyVolume,
	}
}

// CandleStore implements store.CandleStore.
type CandleStore struct {
	db *gorm.DB
}

var _ store.CandleStore = (*CandleStore)(nil)

// SaveCandles upserts every candle, keyed on (symbol, timeframe, open_time).
func (s *CandleStore) SaveCandles(ctx context.Context, candles []candle.Candle) error {
	if len(candles) == 0 {
		return nil
	}
	rows := make([]candleModel, len(candles))
	for i, c := range candles {
		rows[i] = fromCandle(c)
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "symbol"}, {Name: "timeframe"}, {Name: "open_time"}},
		DoUpdates: clause.AssignmentColumns([]string{"close_time", "open", "high", "low", "close", "volume", "taker_buy_volume"}),
	}).Create(&rows).Error
}

// GetCandles returns candles in [t0, t1], ascending by open_time.
func (s *CandleStore) GetCandles(ctx context.Context, symbol string, tf candle.Timeframe, t0, t1 int64) ([]candle.Candle, error) {
	var rows []candleModel
	err := s.db.WithContext(ctx).
		Where("symbol = ? AND timeframe = ? AND open_time BETWEEN ? AND ?", strings.ToUpper(symbol), string(tf), t0, t1).
		Order("open_time ASC").Find(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]candle.Candle, len(rows))
	for i, r := range rows {
		out[i] = r.toCandle()
	}
	return out, nil
}

// CountInRange reports how many candles already exist in [t0, t1].
func (s *CandleStore) CountInRange(ctx context.Context, symbol string, tf candle.Timeframe, t0, t1 int64) (int, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&candleModel{}).
		Where("symbol = ? AND timeframe = ? AND open_time BETWEEN ? AND ?", strings.ToUpper(symbol), string(tf), t0, t1).
		Count(&n).Error
	return int(n), err
}

// GetLastCandle returns the most recent stored candle, or nil.
func (s *CandleStore) GetLastCandle(ctx context.Context, symbol string, tf candle.Timeframe) (*candle.Candle, error) {
	var row candleModel
	err := s.db.WithContext(ctx).
		Where("symbol = ? AND timeframe = ?", strings.ToUpper(symbol), string(tf)).
		Order("open_time DESC").First(&row).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	c := row.toCandle()
	return &c, nil
}
