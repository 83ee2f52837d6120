package web

import (
	"time"

	vm "github.com/ericfisherdev/homeworkbot/internal/adapter/driving/web/viewmodel"
	"github.com/ericfisherdev/homeworkbot/internal/domain/model"
)

const timeLayout = "2006-01-02 15:04:05 UTC"

// toStatusViewModel converts a loop snapshot to its presentation form.
func toStatusViewModel(s model.LoopStatus) vm.StatusViewModel {
	return vm.StatusViewModel{
		State:               string(s.State),
		StateClass:          stateClass(s),
		Cursor:              s.Cursor,
		CursorTime:          time.Unix(s.Cursor, 0).UTC().Format(timeLayout),
		BackoffDelay:        s.BackoffDelay.String(),
		ConsecutiveFailures: s.ConsecutiveFailures,
		LastError:           s.LastError,
		LastIterationAt:     formatTime(s.LastIterationAt),
		LastSuccessAt:       formatTime(s.LastSuccessAt),
		Iterations:          s.Iterations,
		Notifications:       s.Notifications,
	}
}

// toDeliveryViewModels converts journal rows, preserving their order.
func toDeliveryViewModels(deliveries []model.Delivery) []vm.DeliveryViewModel {
	out := make([]vm.DeliveryViewModel, 0, len(deliveries))
	for _, d := range deliveries {
		out = append(out, vm.DeliveryViewModel{
			Kind:      string(d.Kind),
			Text:      d.Text,
			Delivered: d.Delivered,
			Error:     d.Error,
			CreatedAt: formatTime(d.CreatedAt),
		})
	}
	return out
}

func stateClass(s model.LoopStatus) string {
	switch {
	case s.State == model.LoopStateStopped:
		return "error"
	case s.State == model.LoopStateBackoff || s.ConsecutiveFailures > 0:
		return "warn"
	default:
		return "ok"
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(timeLayout)
}
