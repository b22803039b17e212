package models

// Timeline is the static, participant-agnostic expansion of a study's
// schedule definition. It is authored once per study and read-only here.
type Timeline struct {
	GUID        string             `json:"guid,omitempty"`
	StudyID     string             `json:"-"`
	Duration    string             `json:"duration,omitempty"`
	Schedule    []ScheduledSession `json:"schedule"`
	Sessions    []SessionInfo      `json:"sessions,omitempty"`
	Assessments []AssessmentInfo   `json:"assessments,omitempty"`
	StudyBursts []StudyBurstInfo   `json:"studyBursts,omitempty"`
	Metadata    []TimelineMetadata `json:"-"`
}

// ScheduledSession is one session occurrence with day offsets relative to a
// named start event.
type ScheduledSession struct {
	RefGUID        string                `json:"refGuid"`
	InstanceGUID   string                `json:"instanceGuid"`
	StartEventID   string                `json:"startEventId"`
	StartDay       int                   `json:"startDay"`
	EndDay         int                   `json:"endDay"`
	StartTime      string                `json:"startTime,omitempty"`
	TimeWindowGUID string                `json:"timeWindowGuid"`
	Persistent     bool                  `json:"persistent,omitempty"`
	StudyBurstID   string                `json:"studyBurstId,omitempty"`
	StudyBurstNum  int                   `json:"studyBurstNum,omitempty"`
	Assessments    []ScheduledAssessment `json:"assessments,omitempty"`
}

// ScheduledAssessment references an assessment inside a scheduled session.
type ScheduledAssessment struct {
	RefKey       string `json:"refKey"`
	InstanceGUID string `json:"instanceGuid"`
}

// SessionInfo carries display metadata for one session definition.
type SessionInfo struct {
	GUID   string `json:"guid"`
	Name   string `json:"label"`
	Symbol string `json:"symbol,omitempty"`
}

// AssessmentInfo carries display metadata for one assessment definition.
type AssessmentInfo struct {
	Key               string `json:"key"`
	GUID              string `json:"guid"`
	AppID             string `json:"appId,omitempty"`
	Identifier        string `json:"identifier,omitempty"`
	Label             string `json:"label,omitempty"`
	MinutesToComplete int    `json:"minutesToComplete,omitempty"`
}

// StudyBurstInfo describes a repeating burst of sessions.
type StudyBurstInfo struct {
	Identifier    string `json:"identifier"`
	OriginEventID string `json:"originEventId,omitempty"`
	Interval      string `json:"interval,omitempty"`
	Occurrences   int    `json:"occurrences,omitempty"`
}

// TimelineMetadata is one flattened row per scheduled session time window
// instance. It is the unit the adherence generators iterate over.
type TimelineMetadata struct {
	SessionInstanceGUID     string `db:"session_instance_guid" json:"sessionInstanceGuid"`
	TimeWindowGUID          string `db:"time_window_guid" json:"timeWindowGuid"`
	SessionGUID             string `db:"session_guid" json:"sessionGuid"`
	SessionName             string `db:"session_name" json:"sessionName"`
	SessionSymbol           string `db:"session_symbol" json:"sessionSymbol,omitempty"`
	SessionStartEventID     string `db:"session_start_event_id" json:"sessionStartEventId"`
	SessionInstanceStartDay int    `db:"session_instance_start_day" json:"sessionInstanceStartDay"`
	SessionInstanceEndDay   int    `db:"session_instance_end_day" json:"sessionInstanceEndDay"`
	StudyBurstID            string `db:"study_burst_id" json:"studyBurstId,omitempty"`
	StudyBurstNum           int    `db:"study_burst_num" json:"studyBurstNum,omitempty"`
	TimeWindowPersistent    bool   `db:"time_window_persistent" json:"timeWindowPersistent"`
}
