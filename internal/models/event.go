package models

import "time"

// ActivityEvent is a named, timestamped occurrence in a participant's study
// timeline (enrollment, a custom milestone, a study burst origin). Events
// anchor day-offset scheduling.
type ActivityEvent struct {
	ID        string    `db:"id" json:"-"`
	AppID     string    `db:"app_id" json:"-"`
	StudyID   string    `db:"study_id" json:"-"`
	UserID    string    `db:"user_id" json:"-"`
	EventID   string    `db:"event_id" json:"eventId"`
	Timestamp time.Time `db:"timestamp" json:"timestamp"`
	CreatedAt time.Time `db:"created_at" json:"-"`
}

// EventTimestampMap indexes event timestamps by event id. Absence of an
// entry means the event has not occurred for this participant.
type EventTimestampMap map[string]time.Time
