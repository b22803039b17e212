package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/trialworks/adherence-api/internal/models"
)

// AdherenceRecordRepository persists participant adherence records.
type AdherenceRecordRepository struct {
	db *sqlx.DB
}

// NewAdherenceRecordRepository constructs the repository.
func NewAdherenceRecordRepository(db *sqlx.DB) *AdherenceRecordRepository {
	return &AdherenceRecordRepository{db: db}
}

// ListByParticipant returns every adherence record for one participant in
// one study.
func (r *AdherenceRecordRepository) ListByParticipant(ctx context.Context, studyID, userID string) ([]models.AdherenceRecord, error) {
	const query = `SELECT id, app_id, study_id, user_id, session_instance_guid, started_on, finished_on,
        declined, client_time_zone, updated_at
        FROM adherence_records WHERE study_id = $1 AND user_id = $2`
	var records []models.AdherenceRecord
	if err := r.db.SelectContext(ctx, &records, query, studyID, userID); err != nil {
		return nil, fmt.Errorf("list adherence records: %w", err)
	}
	return records, nil
}

// Upsert replaces the participant's record for a session instance. Writes
// are wholesale: a null timestamp in the new record clears the column.
func (r *AdherenceRecordRepository) Upsert(ctx context.Context, record *models.AdherenceRecord) error {
	const query = `INSERT INTO adherence_records
        (id, app_id, study_id, user_id, session_instance_guid, started_on, finished_on, declined, client_time_zone, updated_at)
        VALUES (:id, :app_id, :study_id, :user_id, :session_instance_guid, :started_on, :finished_on, :declined, :client_time_zone, :updated_at)
        ON CONFLICT (app_id, study_id, user_id, session_instance_guid) DO UPDATE SET
        started_on = EXCLUDED.started_on,
        finished_on = EXCLUDED.finished_on,
        declined = EXCLUDED.declined,
        client_time_zone = EXCLUDED.client_time_zone,
        updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, record); err != nil {
		return fmt.Errorf("upsert adherence record: %w", err)
	}
	return nil
}
