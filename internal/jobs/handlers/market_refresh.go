// Package handlers contains the asynq task handlers.
package handlers

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/smartbudget/smartbudget-server/internal/events"
	"github.com/smartbudget/smartbudget-server/internal/jobs"
	"github.com/smartbudget/smartbudget-server/internal/market"
)

// MarketRefreshHandler regenerates the quote snapshot and publishes the
// change so connected dashboards repaint.
type MarketRefreshHandler struct {
	quotes *market.QuoteService
	bus    *events.Bus
	log    *slog.Logger
}

func NewMarketRefreshHandler(quotes *market.QuoteService, bus *events.Bus, log *slog.Logger) *MarketRefreshHandler {
	if log == nil {
		log = slog.Default()
	}

	return &MarketRefreshHandler{
		quotes: quotes,
		bus:    bus,
		log:    log,
	}
}

func (h *MarketRefreshHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload jobs.MarketRefreshPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		h.log.ErrorContext(ctx, "market refresh: failed to decode payload",
			slog.Any("task_type", t.Type()),
			slog.String("error", err.Error()),
		)
		return err
	}

	refreshed := h.quotes.Refresh(ctx)

	if h.bus != nil {
		h.bus.Publish(ctx, events.TopicMarket, refreshed)
	}

	h.log.InfoContext(ctx, "market quotes refreshed",
		slog.String("task_type", t.Type()),
		slog.Int("quotes", len(refreshed)),
	)

	return nil
}
