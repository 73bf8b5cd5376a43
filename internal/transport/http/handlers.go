package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"tradeengine/internal/execution"
	"tradeengine/internal/portfolio"
)

type handlers struct {
	portfolioMgr *portfolio.Manager
	engine       *execution.Engine
	symbols      []string
}

func (h *handlers) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *handlers) portfolio(c *gin.Context) {
	if h.portfolioMgr == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "portfolio manager not wired"})
		return
	}
	curve := h.portfolioMgr.EquityCurve()
	var last *portfolio.EquityPoint
	if len(curve) > 0 {
		last = &curve[len(curve)-1]
	}
	c.JSON(http.StatusOK, gin.H{
		"balance":      h.portfolioMgr.Balance().String(),
		"can_trade":    h.portfolioMgr.CanTrade(),
		"max_drawdown": h.portfolioMgr.MaxDrawdown(),
		"equity_point_count": len(curve),
		"latest":       last,
	})
}

func (h *handlers) positions(c *gin.Context) {
	if h.engine == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "execution engine not wired"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"positions": h.engine.Positions()})
}

func (h *handlers) state(c *gin.Context) {
	symbol := c.Param("symbol")
	if h.engine == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "execution engine not wired"})
		return
	}
	snap, ok := h.engine.Snapshot(symbol)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown symbol", "symbol": symbol})
		return
	}
	c.JSON(http.StatusOK, snap)
}
