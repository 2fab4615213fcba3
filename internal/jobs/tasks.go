package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	TaskTypeMarketRefresh = "market:refresh"
)

const (
	QueueCritical = "critical"
	QueueDefault  = "default"
	QueueLow      = "low"
)

// MarketRefreshPayload selects which symbols to refresh; empty means all.
type MarketRefreshPayload struct {
	Symbols []string `json:"symbols"`
}

func NewMarketRefreshTask(symbols []string) (*asynq.Task, error) {
	payload, err := json.Marshal(MarketRefreshPayload{Symbols: symbols})
	if err != nil {
		return nil, err
	}

	return asynq.NewTask(TaskTypeMarketRefresh, payload, asynq.Queue(QueueLow)), nil
}
