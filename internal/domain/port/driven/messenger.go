package driven

import "context"

// Messenger defines the driven port for delivering a text message to the user.
type Messenger interface {
	// Send delivers text. Channel-specific failures should be returned as
	// *model.DeliveryError so the kind of failure is preserved.
	Send(ctx context.Context, text string) error
}
