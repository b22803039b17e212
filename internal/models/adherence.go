package models

import "time"

// SessionCompletionState classifies one scheduled window instance for one
// participant. The set is closed; classification lives in the service layer.
type SessionCompletionState string

const (
	// CompletionNotApplicable means the anchoring event never fired, so the
	// window cannot be evaluated at all.
	CompletionNotApplicable   SessionCompletionState = "not_applicable"
	CompletionNotYetAvailable SessionCompletionState = "not_yet_available"
	CompletionUnstarted       SessionCompletionState = "unstarted"
	CompletionStarted         SessionCompletionState = "started"
	CompletionCompleted       SessionCompletionState = "completed"
	CompletionAbandoned       SessionCompletionState = "abandoned"
	CompletionExpired         SessionCompletionState = "expired"
	CompletionDeclined        SessionCompletionState = "declined"
)

// Valid returns true when the state is a supported value.
func (s SessionCompletionState) Valid() bool {
	switch s {
	case CompletionNotApplicable, CompletionNotYetAvailable, CompletionUnstarted,
		CompletionStarted, CompletionCompleted, CompletionAbandoned,
		CompletionExpired, CompletionDeclined:
		return true
	default:
		return false
	}
}

// Countable reports whether the state participates in adherence percentage
// math. Windows the participant could never have acted on do not count.
func (s SessionCompletionState) Countable() bool {
	switch s {
	case CompletionNotApplicable, CompletionNotYetAvailable, "":
		return false
	default:
		return true
	}
}

// Terminal reports whether no further participant action can change the state.
func (s SessionCompletionState) Terminal() bool {
	switch s {
	case CompletionCompleted, CompletionAbandoned, CompletionExpired, CompletionDeclined:
		return true
	default:
		return false
	}
}

// StudyProgress classifies a participant's overall position in the study.
type StudyProgress string

const (
	ProgressNoSchedule StudyProgress = "no_schedule"
	ProgressUnstarted  StudyProgress = "unstarted"
	ProgressInProgress StudyProgress = "in_progress"
	ProgressDone       StudyProgress = "done"
)

// AdherenceRecord is one participant interaction with a session instance.
// There is at most one record per session instance per participant; writes
// replace wholesale.
type AdherenceRecord struct {
	ID                  string     `db:"id" json:"-"`
	AppID               string     `db:"app_id" json:"-"`
	StudyID             string     `db:"study_id" json:"-"`
	UserID              string     `db:"user_id" json:"-"`
	SessionInstanceGUID string     `db:"session_instance_guid" json:"sessionInstanceGuid"`
	StartedOn           *time.Time `db:"started_on" json:"startedOn,omitempty"`
	FinishedOn          *time.Time `db:"finished_on" json:"finishedOn,omitempty"`
	Declined            bool       `db:"declined" json:"declined"`
	ClientTimeZone      string     `db:"client_time_zone" json:"clientTimeZone,omitempty"`
	UpdatedAt           time.Time  `db:"updated_at" json:"-"`
}
