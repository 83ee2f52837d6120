package model

import "fmt"

// ProtocolError reports anything wrong with the review API's response:
// transport faults, malformed payloads, remote-reported errors, or values
// outside the data contract.
type ProtocolError struct {
	Message string
	Err     error
}

// NewProtocolError creates a ProtocolError. err may be nil.
func NewProtocolError(message string, err error) *ProtocolError {
	return &ProtocolError{Message: message, Err: err}
}

func (e *ProtocolError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	if e.Message == "" {
		return e.Err.Error()
	}
	return e.Message + ": " + e.Err.Error()
}

func (e *ProtocolError) Unwrap() error { return e.Err }

// DeliveryError reports a failure to send a message through the messaging
// channel. A DeliveryError is never itself reported through the channel.
type DeliveryError struct {
	Kind DeliveryFailure
	Err  error
}

// NewDeliveryError creates a DeliveryError of the given kind.
func NewDeliveryError(kind DeliveryFailure, err error) *DeliveryError {
	return &DeliveryError{Kind: kind, Err: err}
}

func (e *DeliveryError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("delivery failed (%s)", e.Kind)
	}
	return fmt.Sprintf("delivery failed (%s): %v", e.Kind, e.Err)
}

func (e *DeliveryError) Unwrap() error { return e.Err }
