// Package viewmodel defines presentation-ready structs for templ components.
// View models decouple template rendering from domain model types.
package viewmodel

// StatusViewModel holds presentation-ready data for the poll loop panel.
type StatusViewModel struct {
	State               string
	StateClass          string // "ok", "warn" or "error"
	Cursor              int64
	CursorTime          string // Cursor rendered as a UTC timestamp.
	BackoffDelay        string
	ConsecutiveFailures int
	LastError           string
	LastIterationAt     string // Empty when the loop has not run yet.
	LastSuccessAt       string
	Iterations          int64
	Notifications       int64
}

// DeliveryViewModel holds presentation-ready data for one journal row.
type DeliveryViewModel struct {
	Kind      string
	Text      string
	Delivered bool
	Error     string
	CreatedAt string
}

// PageViewModel is everything the status page renders.
type PageViewModel struct {
	Title          string
	Status         StatusViewModel
	Deliveries     []DeliveryViewModel
	JournalEnabled bool
	RefreshSeconds int
	GeneratedAt    string
}
