package model

import "time"

// Delivery is one attempt to send a message through the messaging channel.
type Delivery struct {
	ID        string
	Kind      DeliveryKind
	Text      string
	Delivered bool
	Error     string // Empty when Delivered is true.
	CreatedAt time.Time
}
