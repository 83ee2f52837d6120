package driven

import "context"

// ReviewClient defines the driven port for reading homework review statuses.
type ReviewClient interface {
	// FetchStatuses returns the raw JSON payload describing items whose
	// review status changed since the given cursor (Unix seconds).
	// Failures are returned as *model.ProtocolError.
	FetchStatuses(ctx context.Context, since int64) ([]byte, error)
}
