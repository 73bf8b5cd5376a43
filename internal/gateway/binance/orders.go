package binance

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/adshao/go-binance/v2/futures"
	"github.com/tidwall/gjson"

	"tradeengine/internal/breakout"
)

// PlaceOrder submits a LIMIT or MARKET order for live trading. `price`
// is ignored for MARKET orders.
func (s *Source) PlaceOrder(ctx context.Context, symbol string, dir breakout.Direction, orderType string, quantity, price float64) (orderID int64, err error) {
	side := futures.SideTypeBuy
	if dir == breakout.Short {
		side = futures.SideTypeSell
	}
	svc := s.client.NewCreateOrderService().
		Symbol(strings.ToUpper(symbol)).
		Side(side).
		Quantity(strconv.FormatFloat(quantity, 'f', -1, 64))

	switch strings.ToUpper(orderType) {
	case "MARKET":
		svc = svc.Type(futures.OrderTypeMarket)
	default:
		svc = svc.Type(futures.OrderTypeLimit).
			TimeInForce(futures.TimeInForceTypeGTC).
			Price(strconv.FormatFloat(price, 'f', -1, 64))
	}

	order, err := svc.Do(ctx)
	if err != nil {
		return 0, fmt.Errorf("binance: placeOrder %s: %w", symbol, err)
	}
	return order.OrderID, nil
}

// CancelOrder cancels a resting order by id.
func (s *Source) CancelOrder(ctx context.Context, symbol string, orderID int64) error {
	_, err := s.client.NewCancelOrderService().
		Symbol(strings.ToUpper(symbol)).
		OrderID(orderID).
		Do(ctx)
	if err != nil {
		return fmt.Errorf("binance: cancelOrder %s/%d: %w", symbol, orderID, err)
	}
	return nil
}

// Position is the subset of exchange position-risk state the live
// driver needs to reconcile its in-memory ActivePosition.
type Position struct {
	Symbol       string
	Quantity     float64 // signed: positive long, negative short
	EntryPrice   float64
	MarkPrice    float64
	UnrealizedPnL float64
}

// GetPosition returns the exchange's current position for symbol, or a
// zero-quantity Position if flat. Parsed with gjson since only a few
// fields of the account-position payload are needed.
func (s *Source) GetPosition(ctx context.Context, symbol string) (Position, error) {
	risks, err := s.client.NewGetPositionRiskService().Symbol(strings.ToUpper(symbol)).Do(ctx)
	if err != nil {
		return Position{}, fmt.Errorf("binance: getPosition %s: %w", symbol, err)
	}
	if len(risks) == 0 {
		return Position{Symbol: symbol}, nil
	}
	raw, err := json.Marshal(risks[0])
	if err != nil {
		return Position{}, fmt.Errorf("binance: getPosition %s: %w", symbol, err)
	}
	body := string(raw)
	return Position{
		Symbol:        symbol,
		Quantity:      gjson.Get(body, "positionAmt").Float(),
		EntryPrice:    gjson.Get(body, "entryPrice").Float(),
		MarkPrice:     gjson.Get(body, "markPrice").Float(),
		UnrealizedPnL: gjson.Get(body, "unRealizedProfit").Float(),
	}, nil
}

// ClosePosition sends a reduce-only MARKET order sized to flatten the
// exchange's current position for symbol.
func (s *Source) ClosePosition(ctx context.Context, symbol string) error {
	pos, err := s.GetPosition(ctx, symbol)
	if err != nil {
		return err
	}
	if pos.Quantity == 0 {
		return nil
	}
	side := futures.SideTypeSell
	qty := pos.Quantity
	if qty < 0 {
		side = futures.SideTypeBuy
		qty = -qty
	}
	_, err = s.client.NewCreateOrderService().
		Symbol(strings.ToUpper(symbol)).
		Side(side).
		Type(futures.OrderTypeMarket).
		ReduceOnly(true).
		Quantity(strconv.FormatFloat(qty, 'f', -1, 64)).
		Do(ctx)
	if err != nil {
		return fmt.Errorf("binance: closePosition %s: %w", symbol, err)
	}
	return nil
}
