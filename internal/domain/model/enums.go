package model

// ReviewStatus represents the review state of a homework item as reported by
// the review API.
type ReviewStatus string

const (
	ReviewStatusReviewing ReviewStatus = "reviewing"
	ReviewStatusApproved  ReviewStatus = "approved"
	ReviewStatusRejected  ReviewStatus = "rejected"
)

// DeliveryKind distinguishes status notifications from failure reports.
type DeliveryKind string

const (
	DeliveryKindStatus      DeliveryKind = "status"
	DeliveryKindErrorReport DeliveryKind = "error_report"
)

// DeliveryFailure classifies why the messaging channel rejected a message.
type DeliveryFailure string

const (
	DeliveryUnauthorized DeliveryFailure = "unauthorized"
	DeliveryBadRequest   DeliveryFailure = "bad_request"
	DeliveryChannel      DeliveryFailure = "channel"
)

// LoopState is the phase the poll loop is currently in.
type LoopState string

const (
	LoopStateIdle        LoopState = "idle"
	LoopStateFetching    LoopState = "fetching"
	LoopStateValidating  LoopState = "validating"
	LoopStateTranslating LoopState = "translating"
	LoopStateNotifying   LoopState = "notifying"
	LoopStateSleeping    LoopState = "sleeping"
	LoopStateBackoff     LoopState = "backoff"
	LoopStateStopped     LoopState = "stopped"
)
