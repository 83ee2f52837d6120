package application_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/homeworkbot/internal/application"
	"github.com/ericfisherdev/homeworkbot/internal/domain/model"
)

const testD0 = 10 * time.Second

// loopHarness wires a PollService to mocks. Backoff sleeps are recorded, and
// the first one cancels the loop's context so Start returns after exactly one
// failed iteration unless stopAfterSleeps says otherwise.
type loopHarness struct {
	client    *mockReviewClient
	messenger *mockMessenger
	journal   *mockJournal
	backoff   *application.Backoff
	svc       *application.PollService

	mu     sync.Mutex
	sleeps []time.Duration
}

func newLoopHarness(t *testing.T, client *mockReviewClient, reportErrors bool) *loopHarness {
	t.Helper()

	h := &loopHarness{
		client:    client,
		messenger: &mockMessenger{},
		journal:   &mockJournal{},
	}

	b, err := application.NewBackoff(testD0, 2560*time.Second)
	require.NoError(t, err)
	h.backoff = b

	notifier := application.NewNotifier(h.messenger, h.journal)
	h.svc = application.NewPollService(client, notifier, b, time.Millisecond, 500, reportErrors)

	return h
}

// runUntilSleeps starts the loop and cancels it once n backoff sleeps happened.
func (h *loopHarness) runUntilSleeps(t *testing.T, n int) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	h.backoff.SetSleep(func(_ context.Context, d time.Duration) error {
		h.mu.Lock()
		defer h.mu.Unlock()
		h.sleeps = append(h.sleeps, d)
		if len(h.sleeps) >= n {
			cancel()
		}
		return nil
	})

	done := make(chan struct{})
	go func() {
		h.svc.Start(ctx)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("poll loop did not stop")
	}
}

// --- RunOnce scenarios ---

func TestRunOnce_StatusChangeNotifiesAndAdvancesCursor(t *testing.T) {
	client := staticClient(`{"homeworks": [{"homework_name": "lab1", "status": "approved"}], "current_date": 1000}`)
	h := newLoopHarness(t, client, true)

	err := h.svc.RunOnce(context.Background())

	require.NoError(t, err)
	sent := h.messenger.sent()
	require.Len(t, sent, 1)
	verdict, _ := application.Verdict(model.ReviewStatusApproved)
	assert.Contains(t, sent[0], "lab1")
	assert.Contains(t, sent[0], verdict)
	assert.Equal(t, int64(1000), h.svc.Cursor())
	assert.Equal(t, []int64{500}, client.calls)
}

func TestRunOnce_OnlyFirstItemIsReported(t *testing.T) {
	client := staticClient(`{"homeworks": [
		{"homework_name": "lab3", "status": "reviewing"},
		{"homework_name": "lab2", "status": "approved"}
	], "current_date": 1200}`)
	h := newLoopHarness(t, client, true)

	require.NoError(t, h.svc.RunOnce(context.Background()))

	sent := h.messenger.sent()
	require.Len(t, sent, 1)
	assert.Contains(t, sent[0], "lab3")
	assert.NotContains(t, sent[0], "lab2")
}

func TestRunOnce_EmptyListSendsNothing(t *testing.T) {
	h := newLoopHarness(t, staticClient(`{"homeworks": [], "current_date": 2000}`), true)

	require.NoError(t, h.svc.RunOnce(context.Background()))

	assert.Empty(t, h.messenger.sent())
	assert.Equal(t, int64(2000), h.svc.Cursor())
}

func TestRunOnce_CursorKeptWithoutCurrentDate(t *testing.T) {
	h := newLoopHarness(t, staticClient(`{"homeworks": []}`), true)

	require.NoError(t, h.svc.RunOnce(context.Background()))

	assert.Equal(t, int64(500), h.svc.Cursor())
}

func TestRunOnce_TransportErrorBecomesProtocolError(t *testing.T) {
	client := &mockReviewClient{
		respond: func(int, int64) ([]byte, error) { return nil, errors.New("dial tcp: connection refused") },
	}
	h := newLoopHarness(t, client, true)

	err := h.svc.RunOnce(context.Background())

	var protoErr *model.ProtocolError
	require.True(t, errors.As(err, &protoErr))
	assert.Contains(t, err.Error(), "connection refused")
	assert.Equal(t, int64(500), h.svc.Cursor())
}

// TestRunOnce_DeliveryFailureKeepsCursor verifies that a status change whose
// notification failed is fetched again on the next iteration.
func TestRunOnce_DeliveryFailureKeepsCursor(t *testing.T) {
	h := newLoopHarness(t, staticClient(`{"homeworks": [{"homework_name": "lab1", "status": "rejected"}], "current_date": 1000}`), true)
	h.messenger.err = model.NewDeliveryError(model.DeliveryBadRequest, errors.New("chat not found"))

	err := h.svc.RunOnce(context.Background())

	var deliveryErr *model.DeliveryError
	require.True(t, errors.As(err, &deliveryErr))
	assert.Equal(t, int64(500), h.svc.Cursor())
}

func TestRunOnce_StatusSnapshot(t *testing.T) {
	h := newLoopHarness(t, staticClient(`{"homeworks": [{"homework_name": "lab1", "status": "approved"}], "current_date": 1000}`), true)

	require.NoError(t, h.svc.RunOnce(context.Background()))

	status := h.svc.Status()
	assert.Equal(t, model.LoopStateIdle, status.State)
	assert.Equal(t, int64(1000), status.Cursor)
	assert.Equal(t, int64(1), status.Iterations)
	assert.Equal(t, int64(1), status.Notifications)
	assert.Equal(t, 0, status.ConsecutiveFailures)
	assert.Empty(t, status.LastError)
	assert.False(t, status.LastSuccessAt.IsZero())
	assert.Equal(t, testD0, status.BackoffDelay)
}

// --- Start scenarios ---

func TestStart_RemoteErrorIsReportedAndBacksOff(t *testing.T) {
	h := newLoopHarness(t, staticClient(`{"code": "not_authenticated", "message": "bad token"}`), true)

	h.runUntilSleeps(t, 1)

	assert.Equal(t, []string{"Error: review API: bad token"}, h.messenger.sent())
	assert.Equal(t, []time.Duration{testD0}, h.sleeps)
	assert.Equal(t, 2*testD0, h.backoff.Delay())

	require.Len(t, h.journal.records, 1)
	assert.Equal(t, model.DeliveryKindErrorReport, h.journal.records[0].Kind)

	status := h.svc.Status()
	assert.Equal(t, model.LoopStateStopped, status.State)
	assert.Equal(t, 1, status.ConsecutiveFailures)
	assert.Equal(t, "bad token", status.LastError)
}

func TestStart_UnknownStatusBacksOffWithoutNotification(t *testing.T) {
	h := newLoopHarness(t, staticClient(`{"homeworks": [{"homework_name": "lab2", "status": "in_progress"}]}`), true)

	h.runUntilSleeps(t, 1)

	sent := h.messenger.sent()
	require.Len(t, sent, 1)
	assert.Contains(t, sent[0], "Error: review API:")
	assert.Contains(t, sent[0], "in_progress")
	assert.Equal(t, 2*testD0, h.backoff.Delay())
}

func TestStart_ErrorReportingDisabled(t *testing.T) {
	h := newLoopHarness(t, staticClient(`{"code": "not_authenticated", "message": "bad token"}`), false)

	h.runUntilSleeps(t, 1)

	assert.Empty(t, h.messenger.sent())
	assert.Equal(t, 2*testD0, h.backoff.Delay())
}

func TestStart_DeliveryFailureIsNotReported(t *testing.T) {
	h := newLoopHarness(t, staticClient(`{"homeworks": [{"homework_name": "lab1", "status": "approved"}], "current_date": 1000}`), true)
	h.messenger.err = model.NewDeliveryError(model.DeliveryUnauthorized, errors.New("401"))

	h.runUntilSleeps(t, 1)

	// Only the status notification was attempted; no report about the failure.
	sent := h.messenger.sent()
	require.Len(t, sent, 1)
	assert.Contains(t, sent[0], "lab1")
	assert.Equal(t, 2*testD0, h.backoff.Delay())
}

func TestStart_FailedReportStillBacksOff(t *testing.T) {
	h := newLoopHarness(t, staticClient(`{"error": {"error": "Wrong from_date format"}}`), true)
	h.messenger.err = errors.New("telegram unavailable")

	h.runUntilSleeps(t, 1)

	assert.Len(t, h.messenger.sent(), 1)
	assert.Equal(t, []time.Duration{testD0}, h.sleeps)
}

func TestStart_ConsecutiveFailuresDoubleDelay(t *testing.T) {
	h := newLoopHarness(t, staticClient(`not json`), false)

	h.runUntilSleeps(t, 4)

	assert.Equal(t, []time.Duration{testD0, 2 * testD0, 4 * testD0, 8 * testD0}, h.sleeps)
	assert.Equal(t, 16*testD0, h.backoff.Delay())
	assert.Equal(t, 4, h.svc.Status().ConsecutiveFailures)
}

func TestStart_SuccessResetsBackoff(t *testing.T) {
	client := &mockReviewClient{}
	h := newLoopHarness(t, client, false)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	client.respond = func(call int, _ int64) ([]byte, error) {
		switch call {
		case 1, 2:
			return []byte(`{"code": "server_error"}`), nil
		case 3:
			return []byte(`{"homeworks": [], "current_date": 3000}`), nil
		default:
			cancel()
			return nil, context.Canceled
		}
	}
	h.backoff.SetSleep(func(_ context.Context, d time.Duration) error {
		h.sleeps = append(h.sleeps, d)
		return nil
	})

	done := make(chan struct{})
	go func() {
		h.svc.Start(ctx)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("poll loop did not stop")
	}

	assert.Equal(t, []time.Duration{testD0, 2 * testD0}, h.sleeps)
	assert.Equal(t, testD0, h.backoff.Delay())
	assert.Equal(t, []int64{500, 500, 500, 3000}, client.calls)
	assert.Equal(t, 0, h.svc.Status().ConsecutiveFailures)
}

func TestStart_PanicIsContainedAndBacksOff(t *testing.T) {
	client := &mockReviewClient{
		respond: func(int, int64) ([]byte, error) { panic("nil map write") },
	}
	h := newLoopHarness(t, client, true)

	h.runUntilSleeps(t, 1)

	// Unexpected failures are not review API failures and are not reported.
	assert.Empty(t, h.messenger.sent())
	assert.Equal(t, 2*testD0, h.backoff.Delay())
	assert.Contains(t, h.svc.Status().LastError, "nil map write")
}

func TestStart_StopsWhenContextCanceled(t *testing.T) {
	h := newLoopHarness(t, staticClient(`{"homeworks": []}`), true)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan struct{})
	go func() {
		h.svc.Start(ctx)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("poll loop did not stop")
	}
	assert.Equal(t, model.LoopStateStopped, h.svc.Status().State)
}

func TestRefreshNow_WakesSleepingLoop(t *testing.T) {
	client := staticClient(`{"homeworks": [], "current_date": 1000}`)
	messenger := &mockMessenger{}
	b, err := application.NewBackoff(testD0, time.Hour)
	require.NoError(t, err)
	svc := application.NewPollService(client, application.NewNotifier(messenger, nil), b, time.Hour, 0, true)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		svc.Start(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	require.Eventually(t, func() bool {
		return svc.Status().State == model.LoopStateSleeping
	}, 2*time.Second, 5*time.Millisecond)

	reqCtx, reqCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer reqCancel()
	require.NoError(t, svc.RefreshNow(reqCtx))

	assert.Equal(t, 2, client.callCount())
	assert.Equal(t, int64(2), svc.Status().Iterations)
}

func TestRefreshNow_ServedDuringFailureStreak(t *testing.T) {
	client := staticClient(`{"code": "not_authenticated", "message": "bad token"}`)
	b, err := application.NewBackoff(testD0, time.Hour)
	require.NoError(t, err)
	b.SetSleep(func(ctx context.Context, _ time.Duration) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(5 * time.Millisecond):
			return nil
		}
	})
	svc := application.NewPollService(client, application.NewNotifier(&mockMessenger{}, nil), b, time.Hour, 0, false)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		svc.Start(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	require.Eventually(t, func() bool {
		return svc.Status().ConsecutiveFailures > 0
	}, 2*time.Second, time.Millisecond)

	reqCtx, reqCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer reqCancel()
	err = svc.RefreshNow(reqCtx)

	var protoErr *model.ProtocolError
	require.True(t, errors.As(err, &protoErr), "got %v", err)
	assert.EqualError(t, err, "bad token")
}

func TestRefreshNow_ContextCanceled(t *testing.T) {
	b, err := application.NewBackoff(testD0, time.Hour)
	require.NoError(t, err)
	svc := application.NewPollService(staticClient(`{"homeworks": []}`), application.NewNotifier(&mockMessenger{}, nil), b, time.Hour, 0, true)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// Nobody is running the loop, so the request can only end via ctx.
	assert.ErrorIs(t, svc.RefreshNow(ctx), context.Canceled)
}
