// Package web implements the HTML status page driving adapter using templ components.
package web

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/ericfisherdev/homeworkbot/internal/adapter/driving/web/templates"
	vm "github.com/ericfisherdev/homeworkbot/internal/adapter/driving/web/viewmodel"
	"github.com/ericfisherdev/homeworkbot/internal/domain/model"
	"github.com/ericfisherdev/homeworkbot/internal/domain/port/driven"
)

const (
	pageTitle         = "Homework review bot"
	pageDeliveryLimit = 25
	pageRefresh       = 30
)

// StatusSource provides the poll loop snapshot.
type StatusSource interface {
	Status() model.LoopStatus
}

// Handler is the web driving adapter that serves HTML via templ components.
type Handler struct {
	loop    StatusSource
	journal driven.DeliveryStore
	logger  *slog.Logger
	now     func() time.Time
}

// NewHandler creates a Handler. journal may be nil when the delivery journal
// is disabled.
func NewHandler(loop StatusSource, journal driven.DeliveryStore, logger *slog.Logger) *Handler {
	return &Handler{
		loop:    loop,
		journal: journal,
		logger:  logger,
		now:     time.Now,
	}
}

// StatusPage renders the loop status and the most recent deliveries.
// A journal read failure still renders the page without the table.
func (h *Handler) StatusPage(w http.ResponseWriter, r *http.Request) {
	page := h.buildPage(r.Context())
	layout := templates.Layout(page.Title, page.RefreshSeconds, templates.StatusPage(page))

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := layout.Render(r.Context(), w); err != nil {
		h.logger.Error("failed to render status page", "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}

func (h *Handler) buildPage(ctx context.Context) vm.PageViewModel {
	page := vm.PageViewModel{
		Title:          pageTitle,
		Status:         toStatusViewModel(h.loop.Status()),
		JournalEnabled: h.journal != nil,
		RefreshSeconds: pageRefresh,
		GeneratedAt:    formatTime(h.now()),
	}

	if h.journal == nil {
		return page
	}

	deliveries, err := h.journal.ListRecent(ctx, pageDeliveryLimit)
	if err != nil {
		h.logger.Error("failed to list deliveries for status page", "error", err)
		page.JournalEnabled = false
		return page
	}
	page.Deliveries = toDeliveryViewModels(deliveries)

	return page
}
