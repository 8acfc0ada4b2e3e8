package handlers

import (
	"net/http"

	"forecaster/internal/api/models"

	"github.com/gin-gonic/gin"
)

// Market handles GET /api/v1/market: the market snapshot panel. A failed
// quote yields nil value fields rather than failing the whole panel.
func (h *Handler) Market(c *gin.Context) {
	ctx := c.Request.Context()
	resp := models.MarketResponse{
		AsOf:   h.Now(),
		Quotes: make([]models.MarketQuote, 0, len(h.Cfg.Indices)),
	}

	for _, idx := range h.Cfg.Indices {
		entry := models.MarketQuote{Symbol: idx.Symbol, Name: idx.Name}
		quote, err := h.Quotes.GetQuote(ctx, idx.Symbol)
		if err != nil {
			h.Logger.Warn(ctx, "market quote failed", map[string]interface{}{
				"symbol": idx.Symbol,
				"reason": err.Error(),
			})
		} else {
			value := quote.Last
			pct := quote.ChangePercent
			entry.Value = &value
			entry.ChangePct = &pct
		}
		resp.Quotes = append(resp.Quotes, entry)
	}
	c.JSON(http.StatusOK, resp)
}
