package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/trialworks/adherence-api/internal/models"
	appErrors "github.com/trialworks/adherence-api/pkg/errors"
)

// TimelineRepository loads study timelines. Timelines are authored by the
// study design service; this API only reads them.
type TimelineRepository struct {
	db *sqlx.DB
}

// NewTimelineRepository constructs the repository.
func NewTimelineRepository(db *sqlx.DB) *TimelineRepository {
	return &TimelineRepository{db: db}
}

type timelineRow struct {
	StudyID string `db:"study_id"`
	GUID    string `db:"guid"`
	Payload []byte `db:"payload"`
}

// GetByStudy returns the study's timeline with its flattened metadata rows
// attached. The scheduled-session payload is stored as one JSON document;
// the metadata rows live in their own table so they stay queryable.
func (r *TimelineRepository) GetByStudy(ctx context.Context, studyID string) (*models.Timeline, error) {
	const query = `SELECT study_id, guid, payload FROM timelines WHERE study_id = $1`
	var row timelineRow
	if err := r.db.GetContext(ctx, &row, query, studyID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "study timeline not found")
		}
		return nil, fmt.Errorf("load timeline: %w", err)
	}

	timeline := &models.Timeline{}
	if err := json.Unmarshal(row.Payload, timeline); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrBadTimeline.Code, appErrors.ErrBadTimeline.Status,
			"timeline payload is not valid JSON")
	}
	timeline.StudyID = row.StudyID
	timeline.GUID = row.GUID

	const metaQuery = `SELECT session_instance_guid, time_window_guid, session_guid, session_name,
        session_symbol, session_start_event_id, session_instance_start_day, session_instance_end_day,
        study_burst_id, study_burst_num, time_window_persistent
        FROM timeline_metadata WHERE study_id = $1 ORDER BY session_instance_start_day, session_instance_guid`
	if err := r.db.SelectContext(ctx, &timeline.Metadata, metaQuery, studyID); err != nil {
		return nil, fmt.Errorf("load timeline metadata: %w", err)
	}
	return timeline, nil
}
