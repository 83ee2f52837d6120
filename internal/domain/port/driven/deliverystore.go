package driven

import (
	"context"

	"github.com/ericfisherdev/homeworkbot/internal/domain/model"
)

// DeliveryStore defines the driven port for the delivery journal.
type DeliveryStore interface {
	Record(ctx context.Context, d model.Delivery) error
	// ListRecent returns up to limit deliveries, newest first.
	ListRecent(ctx context.Context, limit int) ([]model.Delivery, error)
}
