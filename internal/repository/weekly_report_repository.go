package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/trialworks/adherence-api/internal/models"
)

// WeeklyReportRepository persists the regenerated weekly report rows.
// Labels are stored as a text array so coordinator dashboards can search
// them without unpacking the JSON payload.
type WeeklyReportRepository struct {
	db *sqlx.DB
}

// NewWeeklyReportRepository constructs the repository.
func NewWeeklyReportRepository(db *sqlx.DB) *WeeklyReportRepository {
	return &WeeklyReportRepository{db: db}
}

// Upsert replaces the single report row for one participant. Regeneration
// is wholesale, so there is nothing to merge.
func (r *WeeklyReportRepository) Upsert(ctx context.Context, report *models.WeeklyAdherenceReport) error {
	payload, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("marshal weekly report: %w", err)
	}

	const query = `INSERT INTO weekly_adherence_reports
        (app_id, study_id, user_id, adherence_percent, labels, payload, created_on)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        ON CONFLICT (app_id, study_id, user_id) DO UPDATE SET
        adherence_percent = EXCLUDED.adherence_percent,
        labels = EXCLUDED.labels,
        payload = EXCLUDED.payload,
        created_on = EXCLUDED.created_on`
	_, err = r.db.ExecContext(ctx, query,
		report.AppID,
		report.StudyID,
		report.UserID,
		report.AdherencePercent,
		pq.StringArray(report.Labels),
		payload,
		report.CreatedOn,
	)
	if err != nil {
		return fmt.Errorf("upsert weekly report: %w", err)
	}
	return nil
}
