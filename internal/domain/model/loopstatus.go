package model

import "time"

// LoopStatus is a point-in-time snapshot of the poll loop, published for
// read-only consumers such as the status API.
type LoopStatus struct {
	State               LoopState
	Cursor              int64
	BackoffDelay        time.Duration
	ConsecutiveFailures int
	LastError           string
	LastIterationAt     time.Time
	LastSuccessAt       time.Time
	Iterations          int64
	Notifications       int64
}
