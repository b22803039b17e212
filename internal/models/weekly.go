package models

import "time"

// WeeklyAdherenceReport narrows the full event streams to the 7-day window
// containing each event's current day. One row is persisted per
// (app, study, user) and regenerated wholesale on every adherence-affecting
// write; there is no incremental update and no history.
type WeeklyAdherenceReport struct {
	AppID            string                    `db:"app_id" json:"-"`
	StudyID          string                    `db:"study_id" json:"-"`
	UserID           string                    `db:"user_id" json:"-"`
	ClientTimeZone   string                    `db:"-" json:"clientTimeZone"`
	CreatedOn        time.Time                 `db:"created_on" json:"createdOn"`
	AdherencePercent int                       `db:"adherence_percent" json:"adherencePercent"`
	ByDayEntries     map[int][]*EventStreamDay `db:"-" json:"byDayEntries"`
	Labels           []string                  `db:"-" json:"-"`
	NextActivity     *NextActivity             `db:"-" json:"nextActivity,omitempty"`
}

// NextActivity points at the nearest upcoming session when the current week
// holds no scheduled activity.
type NextActivity struct {
	SessionGUID   string `json:"sessionGuid"`
	SessionName   string `json:"sessionName"`
	SessionSymbol string `json:"sessionSymbol,omitempty"`
	Label         string `json:"label,omitempty"`
	Week          int    `json:"week"`
	StudyBurstID  string `json:"studyBurstId,omitempty"`
	StudyBurstNum int    `json:"studyBurstNum,omitempty"`
	StartDate     string `json:"startDate"`
}
