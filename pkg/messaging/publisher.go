// Package messaging defines the event contract between the application and
// its message broker.
package messaging

import "context"

// ProductsStockLowSubject carries reorder alerts for products whose stock
// fell to or below their reorder point.
const ProductsStockLowSubject = "products.stock.low"

type Event interface {
	Subject() string
	Payload() ([]byte, error)
}

type Publisher interface {
	Publish(ctx context.Context, event Event) error
}
