package model

// ReviewItem is a single homework entry returned by the review API.
// Only the fields the bot acts on are decoded.
type ReviewItem struct {
	Name   string       `json:"homework_name"`
	Status ReviewStatus `json:"status"`
}

// ValidatedResponse is a structurally valid review API payload.
// NextCursor is nil when the server did not supply current_date.
type ValidatedResponse struct {
	Items      []ReviewItem
	NextCursor *int64
}
