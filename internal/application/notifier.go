package application

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/ericfisherdev/homeworkbot/internal/domain/model"
	"github.com/ericfisherdev/homeworkbot/internal/domain/port/driven"
	"github.com/ericfisherdev/homeworkbot/internal/metrics"
)

// Notifier delivers messages through the primary messenger and turns every
// channel failure into a *model.DeliveryError. Mirrors receive a copy of each
// successfully delivered message on a best-effort basis. Every attempt is
// written to the journal when one is configured.
type Notifier struct {
	messenger driven.Messenger
	mirrors   []driven.Messenger
	journal   driven.DeliveryStore
	now       func() time.Time
}

// NewNotifier creates a Notifier. journal may be nil.
func NewNotifier(messenger driven.Messenger, journal driven.DeliveryStore, mirrors ...driven.Messenger) *Notifier {
	return &Notifier{
		messenger: messenger,
		mirrors:   mirrors,
		journal:   journal,
		now:       time.Now,
	}
}

// Notify sends a status notification.
func (n *Notifier) Notify(ctx context.Context, text string) error {
	return n.deliver(ctx, model.DeliveryKindStatus, text)
}

// ReportError sends a best-effort message describing a review API failure.
func (n *Notifier) ReportError(ctx context.Context, err error) error {
	return n.deliver(ctx, model.DeliveryKindErrorReport, "Error: review API: "+err.Error())
}

func (n *Notifier) deliver(ctx context.Context, kind model.DeliveryKind, text string) error {
	err := n.messenger.Send(ctx, text)

	var deliveryErr *model.DeliveryError
	if err != nil && !errors.As(err, &deliveryErr) {
		deliveryErr = model.NewDeliveryError(model.DeliveryChannel, err)
	}

	record := model.Delivery{
		ID:        uuid.NewString(),
		Kind:      kind,
		Text:      text,
		Delivered: err == nil,
		CreatedAt: n.now().UTC(),
	}

	if err != nil {
		record.Error = deliveryErr.Error()
		metrics.Notifications.WithLabelValues(string(kind), "failed").Inc()
		n.record(ctx, record)
		return deliveryErr
	}

	metrics.Notifications.WithLabelValues(string(kind), "delivered").Inc()
	slog.Info("message sent", "kind", kind, "text", text)
	n.record(ctx, record)

	for _, m := range n.mirrors {
		if mErr := m.Send(ctx, text); mErr != nil {
			slog.Warn("mirror delivery failed", "kind", kind, "error", mErr)
		}
	}

	return nil
}

func (n *Notifier) record(ctx context.Context, d model.Delivery) {
	if n.journal == nil {
		return
	}
	if err := n.journal.Record(ctx, d); err != nil {
		slog.Error("journal write failed", "delivery", d.ID, "error", err)
	}
}
