package sqlstore

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"tradeengine/internal/breakout"
	"tradeengine/internal/store"
	"tradeengine/internal/trade"
)

// tradeModel is the gorm row shape for a persisted trade. Decimal fields
// are stored as strings to avoid float round-trip error on money values.
type tradeModel struct {
	ID         int64   `gorm:"column:id;primaryKey"`
	Symbol     string  `gorm:"column:symbol;index"`
	Direction  string  `gorm:"column:direction"`
	EntryTime  int64   `gorm:"column:entry_time"`
	EntryPrice string  `gorm:"column:entry_price"`
	Size       string  `gorm:"column:size"`
	StopLoss   string  `gorm:"column:stop_loss"`
	TakeProfit string  `gorm:"column:take_profit"`
	ExitTime   *int64  `gorm:"column:exit_time"`
	ExitPrice  *string `gorm:"column:exit_price"`
	ExitReason *string `gorm:"column:exit_reason"`
	PnL        *string        `gorm:"column:pnl"`
	PnLPercent *string        `gorm:"column:pnl_percent"`
	Status     string         `gorm:"column:status"`
	Metadata   datatypes.JSON `gorm:"column:metadata"`
}

func (tradeModel) TableName() string { return "trades" }

func decFromString(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func toTrade(m tradeModel) trade.Trade {
	t := trade.Trade{
		ID:         m.ID,
		Symbol:     m.Symbol,
		Direction:  breakout.Direction(m.Direction),
		EntryTime:  m.EntryTime,
		EntryPrice: decFromString(m.EntryPrice),
		Size:       decFromString(m.Size),
		StopLoss:   decFromString(m.StopLoss),
		TakeProfit: decFromString(m.TakeProfit),
		Status:     trade.Status(m.Status),
	}
	if m.ExitTime != nil {
		t.ExitTime = m.ExitTime
	}
	if m.ExitPrice != nil {
		v := decFromString(*m.ExitPrice)
		t.ExitPrice = &v
	}
	if m.ExitReason != nil {
		v := trade.ExitReason(*m.ExitReason)
		t.ExitReason = &v
	}
	if m.PnL != nil {
		v := decFromString(*m.PnL)
		t.PnL = &v
	}
	if m.PnLPercent != nil {
		v := decFromString(*m.PnLPercent)
		t.PnLPercent = &v
	}
	if len(m.Metadata) > 0 {
		var md map[string]string
		if json.Unmarshal(m.Metadata, &md) == nil {
			t.Metadata = md
		}
	}
	return t
}

func toTrades(rows []tradeModel) []trade.Trade {
	out := make([]trade.Trade, len(rows))
	for i, m := range rows {
		out[i] = toTrade(m)
	}
	return out
}

// TradeStore implements store.TradeStore.
type TradeStore struct {
	db *gorm.DB
}

var _ store.TradeStore = (*TradeStore)(nil)

func (s *TradeStore) SaveTrade(ctx context.Context, t trade.Trade) (int64, error) {
	m := tradeModel{
		Symbol:     t.Symbol,
		Direction:  string(t.Direction),
		EntryTime:  t.EntryTime,
		EntryPrice: t.EntryPrice.String(),
		Size:       t.Size.String(),
		StopLoss:   t.StopLoss.String(),
		TakeProfit: t.TakeProfit.String(),
		Status:     string(trade.StatusOpen),
	}
	if len(t.Metadata) > 0 {
		if raw, err := json.Marshal(t.Metadata); err == nil {
			m.Metadata = datatypes.JSON(raw)
		}
	}
	if err := s.db.WithContext(ctx).Create(&m).Error; err != nil {
		return 0, err
	}
	return m.ID, nil
}

// CloseTrade recomputes PnL server-side from the trade's stored entry
// price/size/direction and marks it CLOSED.
func (s *TradeStore) CloseTrade(ctx context.Context, id int64, exitPrice float64, exitTime int64, reason trade.ExitReason) (trade.Trade, error) {
	var m tradeModel
	if err := s.db.WithContext(ctx).First(&m, id).Error; err != nil {
		return trade.Trade{}, err
	}
	rec := toTrade(m)

	exit := decimal.NewFromFloat(exitPrice)
	gross := exit.Sub(rec.EntryPrice).Mul(rec.Size)
	if rec.Direction == breakout.Short {
		gross = gross.Neg()
	}
	var pnlPct decimal.Decimal
	if denom := rec.EntryPrice.Mul(rec.Size); denom.Sign() != 0 {
		pnlPct = gross.Div(denom).Mul(decimal.NewFromInt(100))
	}

	exitStr := exit.String()
	reasonStr := string(reason)
	pnlStr := gross.String()
	pnlPctStr := pnlPct.String()

	if err := s.db.WithContext(ctx).Model(&m).Updates(map[string]interface{}{
		"exit_time":   exitTime,
		"exit_price":  exitStr,
		"exit_reason": reasonStr,
		"pnl":         pnlStr,
		"pnl_percent": pnlPctStr,
		"status":      string(trade.StatusClosed),
	}).Error; err != nil {
		return trade.Trade{}, err
	}

	m.ExitTime = &exitTime
	m.ExitPrice = &exitStr
	m.ExitReason = &reasonStr
	m.PnL = &pnlStr
	m.PnLPercent = &pnlPctStr
	m.Status = string(trade.StatusClosed)
	return toTrade(m), nil
}

func (s *TradeStore) CancelTrade(ctx context.Context, id int64) error {
	return s.db.WithContext(ctx).Model(&tradeModel{}).Where("id = ?", id).
		Update("status", string(trade.StatusCancelled)).Error
}

func (s *TradeStore) GetOpenTrades(ctx context.Context, symbol string) ([]trade.Trade, error) {
	var rows []tradeModel
	q := s.db.WithContext(ctx).Where("status = ?", string(trade.StatusOpen))
	if symbol != "" {
		q = q.Where("symbol = ?", symbol)
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	return toTrades(rows), nil
}

func (s *TradeStore) GetTradeHistory(ctx context.Context, symbol string, limit int) ([]trade.Trade, error) {
	if limit <= 0 {
		limit = 200
	}
	var rows []tradeModel
	q := s.db.WithContext(ctx).Order("entry_time DESC").Limit(limit)
	if symbol != "" {
		q = q.Where("symbol = ?", symbol)
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	return toTrades(rows), nil
}

func (s *TradeStore) GetTradeStats(ctx context.Context, symbol string) (store.TradeStats, error) {
	rows, err := s.GetTradeHistory(ctx, symbol, 100000)
	if err != nil {
		return store.TradeStats{}, err
	}
	var stats store.TradeStats
	var grossWin, grossLoss float64
	for _, t := range rows {
		if t.Status != trade.StatusClosed || t.PnL == nil {
			continue
		}
		stats.Total++
		pnl, _ := t.PnL.Float64()
		stats.TotalPnL += pnl
		if pnl >= 0 {
			stats.Wins++
			grossWin += pnl
		} else {
			stats.Losses++
			grossLoss += -pnl
		}
	}
	if stats.Total > 0 {
		stats.WinRate = float64(stats.Wins) / float64(stats.Total)
	}
	if grossLoss > 0 {
		stats.ProfitFactor = grossWin / grossLoss
	}
	return stats, nil
}

func (s *TradeStore) ClearTrades(ctx context.Context) error {
	return s.db.WithContext(ctx).Exec(fmt.Sprintf("DELETE FROM %s", tradeModel{}.TableName())).Error
}
