package dto

import "time"

// UpsertAdherenceRequest replaces a participant's adherence record for one
// session instance. Writes are wholesale: omitted timestamps clear their
// columns.
type UpsertAdherenceRequest struct {
	SessionInstanceGUID string     `json:"sessionInstanceGuid" binding:"required"`
	StartedOn           *time.Time `json:"startedOn"`
	FinishedOn          *time.Time `json:"finishedOn"`
	Declined            bool       `json:"declined"`
	ClientTimeZone      string     `json:"clientTimeZone" binding:"omitempty,iana_tz"`
}

// RecordEventRequest registers or re-times an activity event for a
// participant.
type RecordEventRequest struct {
	EventID   string    `json:"eventId" binding:"required"`
	Timestamp time.Time `json:"timestamp" binding:"required"`
}

// AdherenceQuery captures the shared query parameters of the report
// endpoints.
type AdherenceQuery struct {
	TimeZone   string `form:"tz" binding:"omitempty,iana_tz"`
	ActiveOnly bool   `form:"activeOnly"`
}

// ScheduleExportQuery selects the export format for a resolved schedule.
type ScheduleExportQuery struct {
	TimeZone string `form:"tz" binding:"omitempty,iana_tz"`
	Format   string `form:"format" binding:"omitempty,oneof=csv pdf"`
}
