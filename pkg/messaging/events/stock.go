// Package events holds the concrete event payloads published by the server.
package events

import (
	"encoding/json"
	"time"

	"github.com/shopanalyser/backend/pkg/messaging"
)

// StockLowEvent is published after a sale leaves a product at or below its
// reorder point.
type StockLowEvent struct {
	ProductID    int64     `json:"product_id"`
	Name         string    `json:"name"`
	Stock        int64     `json:"stock"`
	ReorderPoint int64     `json:"reorder_point"`
	OccurredAt   time.Time `json:"occurred_at"`
}

func (e StockLowEvent) Subject() string {
	return messaging.ProductsStockLowSubject
}

func (e StockLowEvent) Payload() ([]byte, error) {
	return json.Marshal(e)
}
