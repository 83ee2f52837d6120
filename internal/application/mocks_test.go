package application_test

import (
	"context"
	"sync"

	"github.com/ericfisherdev/homeworkbot/internal/domain/model"
)

// --- Mock implementations ---

type mockReviewClient struct {
	mu      sync.Mutex
	calls   []int64
	respond func(call int, since int64) ([]byte, error)
}

func (m *mockReviewClient) FetchStatuses(_ context.Context, since int64) ([]byte, error) {
	m.mu.Lock()
	m.calls = append(m.calls, since)
	call := len(m.calls)
	m.mu.Unlock()

	return m.respond(call, since)
}

func (m *mockReviewClient) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

// staticClient always returns the same payload.
func staticClient(payload string) *mockReviewClient {
	return &mockReviewClient{
		respond: func(int, int64) ([]byte, error) { return []byte(payload), nil },
	}
}

type mockMessenger struct {
	mu    sync.Mutex
	texts []string
	err   error
}

func (m *mockMessenger) Send(_ context.Context, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.texts = append(m.texts, text)
	return m.err
}

func (m *mockMessenger) sent() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.texts...)
}

type mockJournal struct {
	records []model.Delivery
	err     error
}

func (m *mockJournal) Record(_ context.Context, d model.Delivery) error {
	m.records = append(m.records, d)
	return m.err
}

func (m *mockJournal) ListRecent(_ context.Context, limit int) ([]model.Delivery, error) {
	if limit > len(m.records) {
		limit = len(m.records)
	}
	return m.records[:limit], nil
}
