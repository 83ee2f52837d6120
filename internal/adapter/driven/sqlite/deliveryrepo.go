package sqlite

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ericfisherdev/homeworkbot/internal/domain/model"
	"github.com/ericfisherdev/homeworkbot/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.DeliveryStore = (*DeliveryRepo)(nil)

// DeliveryRepo is the SQLite implementation of the DeliveryStore port interface.
type DeliveryRepo struct {
	db *DB
}

// NewDeliveryRepo creates a new DeliveryRepo backed by the given DB.
func NewDeliveryRepo(db *DB) *DeliveryRepo {
	return &DeliveryRepo{db: db}
}

// Record appends a delivery attempt to the journal.
func (r *DeliveryRepo) Record(ctx context.Context, d model.Delivery) error {
	const query = `INSERT INTO deliveries (id, kind, text, delivered, error, created_at) VALUES (?, ?, ?, ?, ?, ?)`

	createdAt := d.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	_, err := r.db.Writer.ExecContext(ctx, query,
		d.ID, string(d.Kind), d.Text, d.Delivered, d.Error,
		createdAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint") {
			return fmt.Errorf("record delivery %s: duplicate id", d.ID)
		}
		return fmt.Errorf("record delivery %s: %w", d.ID, err)
	}

	return nil
}

// ListRecent returns up to limit deliveries, newest first.
func (r *DeliveryRepo) ListRecent(ctx context.Context, limit int) ([]model.Delivery, error) {
	const query = `SELECT id, kind, text, delivered, error, created_at FROM deliveries ORDER BY seq DESC LIMIT ?`

	if limit <= 0 {
		return nil, nil
	}

	rows, err := r.db.Reader.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list deliveries: %w", err)
	}
	defer rows.Close()

	var deliveries []model.Delivery
	for rows.Next() {
		d, err := scanDelivery(rows)
		if err != nil {
			return nil, fmt.Errorf("scan delivery: %w", err)
		}
		deliveries = append(deliveries, d)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate deliveries: %w", err)
	}

	return deliveries, nil
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanDelivery(s scanner) (model.Delivery, error) {
	var d model.Delivery
	var kind, createdAt string

	if err := s.Scan(&d.ID, &kind, &d.Text, &d.Delivered, &d.Error, &createdAt); err != nil {
		return model.Delivery{}, err
	}
	d.Kind = model.DeliveryKind(kind)

	var err error
	d.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return model.Delivery{}, fmt.Errorf("parse created_at: %w", err)
	}

	return d, nil
}

// parseTime tries multiple SQLite datetime formats.
func parseTime(s string) (time.Time, error) {
	formats := []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02 15:04:05",
		"2006-01-02T15:04:05",
	}

	for _, format := range formats {
		if t, err := time.Parse(format, s); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("unrecognized time format: %s", s)
}
