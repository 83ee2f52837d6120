// Package application contains use-case orchestration services.
package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/ericfisherdev/homeworkbot/internal/domain/model"
	"github.com/ericfisherdev/homeworkbot/internal/domain/port/driven"
	"github.com/ericfisherdev/homeworkbot/internal/logging"
	"github.com/ericfisherdev/homeworkbot/internal/metrics"
)

// refreshRequest represents a manual poll trigger.
type refreshRequest struct {
	done chan error
}

// PollService runs the status polling loop: fetch, validate, translate the
// most recent item, notify, advance the cursor, sleep. Failed iterations sleep
// through the Backoff instead of the poll interval.
//
// The cursor, backoff and counters are owned by the goroutine running Start.
// Other goroutines observe the loop only through Status and RefreshNow.
type PollService struct {
	client       driven.ReviewClient
	notifier     *Notifier
	backoff      *Backoff
	interval     time.Duration
	reportErrors bool
	refreshCh    chan refreshRequest
	now          func() time.Time

	cursor        int64
	state         model.LoopState
	failures      int
	iterations    int64
	notifications int64
	lastErr       string
	lastRunAt     time.Time
	lastSuccessAt time.Time
	pending       *refreshRequest

	status atomic.Pointer[model.LoopStatus]
}

// NewPollService creates a PollService that starts polling from cursor.
// When reportErrors is set, review API failures are reported to the user
// before backing off.
func NewPollService(
	client driven.ReviewClient,
	notifier *Notifier,
	backoff *Backoff,
	interval time.Duration,
	cursor int64,
	reportErrors bool,
) *PollService {
	s := &PollService{
		client:       client,
		notifier:     notifier,
		backoff:      backoff,
		interval:     interval,
		reportErrors: reportErrors,
		refreshCh:    make(chan refreshRequest),
		now:          time.Now,
		cursor:       cursor,
		state:        model.LoopStateIdle,
	}
	metrics.Cursor.Set(float64(cursor))
	s.publish()
	return s
}

// Start runs the polling loop until ctx is canceled. A failed iteration never
// stops the loop.
func (s *PollService) Start(ctx context.Context) {
	slog.Info("poll service started", "cursor", s.cursor, "interval", s.interval)
	defer func() {
		s.setState(model.LoopStateStopped)
		slog.Info("poll service stopped")
	}()

	for {
		err := s.runIteration(ctx)
		s.completeRefresh(err)

		if ctx.Err() != nil {
			return
		}

		if err != nil {
			s.handleFailure(ctx, err)
			if ctx.Err() != nil {
				return
			}
			s.acceptRefresh()
			continue
		}

		s.backoff.OnSuccess()
		if !s.wait(ctx) {
			return
		}
	}
}

// RunOnce performs a single iteration without sleeping or backing off.
// It must not be called while Start is running.
func (s *PollService) RunOnce(ctx context.Context) error {
	return s.runIteration(ctx)
}

// RefreshNow interrupts the poll interval sleep and waits for the resulting
// iteration. If the loop is backing off, the request is served once the
// backoff ends. It returns the iteration's error, or ctx.Err().
func (s *PollService) RefreshNow(ctx context.Context) error {
	slog.Info("manual poll requested")

	done := make(chan error, 1)
	req := refreshRequest{done: done}

	select {
	case s.refreshCh <- req:
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Status returns the latest snapshot of the loop. Safe for concurrent use.
func (s *PollService) Status() model.LoopStatus {
	return *s.status.Load()
}

// Cursor returns the cursor the next fetch will use. Like RunOnce, it must
// not be called while Start is running; use Status instead.
func (s *PollService) Cursor() int64 {
	return s.cursor
}

// runIteration executes one fetch/notify cycle and updates the counters.
func (s *PollService) runIteration(ctx context.Context) error {
	err := s.iterate(ctx)

	s.iterations++
	s.lastRunAt = s.now()
	if err == nil {
		s.failures = 0
		s.lastErr = ""
		s.lastSuccessAt = s.lastRunAt
	} else if ctx.Err() == nil {
		s.failures++
		s.lastErr = err.Error()
	}
	if ctx.Err() == nil {
		metrics.Iterations.WithLabelValues(classify(err)).Inc()
	}
	s.setState(model.LoopStateIdle)

	return err
}

// iterate is one pass of the state machine. Any fetch fault is reported as a
// *model.ProtocolError; a panic anywhere is converted into a plain error.
func (s *PollService) iterate(ctx context.Context) (err error) {
	defer func() {
		if v := recover(); v != nil {
			err = fmt.Errorf("poll iteration panicked: %v", v)
		}
	}()

	s.setState(model.LoopStateFetching)
	raw, err := s.client.FetchStatuses(ctx, s.cursor)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		var protoErr *model.ProtocolError
		if !errors.As(err, &protoErr) {
			err = model.NewProtocolError("fetch statuses", err)
		}
		return err
	}

	s.setState(model.LoopStateValidating)
	resp, err := ValidateResponse(raw)
	if err != nil {
		return err
	}

	if len(resp.Items) == 0 {
		slog.Debug("no status changes", "cursor", s.cursor)
	} else {
		// The API lists the most recent change first; only that one is reported.
		item := resp.Items[0]

		s.setState(model.LoopStateTranslating)
		text, err := TranslateStatus(item)
		if err != nil {
			return err
		}

		s.setState(model.LoopStateNotifying)
		if err := s.notifier.Notify(ctx, text); err != nil {
			return err
		}
		s.notifications++
		slog.Debug("status change delivered", "item", item.Name, "status", item.Status)
	}

	if resp.NextCursor != nil {
		s.cursor = *resp.NextCursor
		metrics.Cursor.Set(float64(s.cursor))
	}

	return nil
}

// handleFailure logs err by kind, reports review API failures when enabled,
// and sleeps through the backoff.
func (s *PollService) handleFailure(ctx context.Context, err error) {
	var deliveryErr *model.DeliveryError
	var protoErr *model.ProtocolError

	switch {
	case errors.As(err, &deliveryErr):
		// Never report a delivery failure through the channel that just failed.
		slog.Error("message delivery failed", "kind", deliveryErr.Kind, "error", err)
	case errors.As(err, &protoErr):
		slog.Error("review API failure", "cursor", s.cursor, "error", err)
		if s.reportErrors {
			if reportErr := s.notifier.ReportError(ctx, protoErr); reportErr != nil {
				slog.Error("failed to report review API failure", "error", reportErr)
			}
		}
	default:
		logging.Critical(ctx, "unexpected poll failure", "error", err)
	}

	s.setState(model.LoopStateBackoff)
	if _, err := s.backoff.OnFailure(ctx); err != nil {
		return
	}
	s.setState(model.LoopStateIdle)
}

// wait sleeps for the poll interval. It returns false when ctx is canceled.
// A manual refresh request ends the sleep early.
func (s *PollService) wait(ctx context.Context) bool {
	s.setState(model.LoopStateSleeping)

	timer := time.NewTimer(s.interval)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	case req := <-s.refreshCh:
		s.pending = &req
		return true
	}
}

// acceptRefresh picks up a refresh request that arrived while the loop was
// backing off, so the next iteration answers it.
func (s *PollService) acceptRefresh() {
	select {
	case req := <-s.refreshCh:
		s.pending = &req
	default:
	}
}

func (s *PollService) completeRefresh(err error) {
	if s.pending == nil {
		return
	}
	s.pending.done <- err
	s.pending = nil
}

func (s *PollService) setState(state model.LoopState) {
	s.state = state
	s.publish()
}

func (s *PollService) publish() {
	s.status.Store(&model.LoopStatus{
		State:               s.state,
		Cursor:              s.cursor,
		BackoffDelay:        s.backoff.Delay(),
		ConsecutiveFailures: s.failures,
		LastError:           s.lastErr,
		LastIterationAt:     s.lastRunAt,
		LastSuccessAt:       s.lastSuccessAt,
		Iterations:          s.iterations,
		Notifications:       s.notifications,
	})
}

// classify maps an iteration outcome to its metrics label.
func classify(err error) string {
	var deliveryErr *model.DeliveryError
	var protoErr *model.ProtocolError

	switch {
	case err == nil:
		return metrics.ResultSuccess
	case errors.As(err, &deliveryErr):
		return metrics.ResultDeliveryError
	case errors.As(err, &protoErr):
		return metrics.ResultProtocolError
	default:
		return metrics.ResultInternalError
	}
}
