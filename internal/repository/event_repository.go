package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/trialworks/adherence-api/internal/models"
)

// EventRepository persists participant activity events.
type EventRepository struct {
	db *sqlx.DB
}

// NewEventRepository constructs the repository.
func NewEventRepository(db *sqlx.DB) *EventRepository {
	return &EventRepository{db: db}
}

// MapByParticipant returns the participant's events keyed by event id.
func (r *EventRepository) MapByParticipant(ctx context.Context, studyID, userID string) (models.EventTimestampMap, error) {
	const query = `SELECT id, app_id, study_id, user_id, event_id, timestamp, created_at
        FROM study_activity_events WHERE study_id = $1 AND user_id = $2`
	var events []models.ActivityEvent
	if err := r.db.SelectContext(ctx, &events, query, studyID, userID); err != nil {
		return nil, fmt.Errorf("list activity events: %w", err)
	}
	timestamps := make(models.EventTimestampMap, len(events))
	for _, event := range events {
		timestamps[event.EventID] = event.Timestamp
	}
	return timestamps, nil
}

// Upsert stores an event occurrence, re-timing it if it already exists.
func (r *EventRepository) Upsert(ctx context.Context, event *models.ActivityEvent) error {
	const query = `INSERT INTO study_activity_events
        (id, app_id, study_id, user_id, event_id, timestamp, created_at)
        VALUES (:id, :app_id, :study_id, :user_id, :event_id, :timestamp, :created_at)
        ON CONFLICT (app_id, study_id, user_id, event_id) DO UPDATE SET
        timestamp = EXCLUDED.timestamp`
	if _, err := r.db.NamedExecContext(ctx, query, event); err != nil {
		return fmt.Errorf("upsert activity event: %w", err)
	}
	return nil
}
