package models

// ParticipantSchedule is a timeline resolved against one participant's event
// timestamps: every datable occurrence carries concrete calendar dates and
// internal scheduling fields are stripped.
type ParticipantSchedule struct {
	DateRange   *DateRange        `json:"dateRange,omitempty"`
	Schedule    []ResolvedSession `json:"schedule"`
	Sessions    []SessionInfo     `json:"sessions,omitempty"`
	Assessments []AssessmentInfo  `json:"assessments,omitempty"`
	StudyBursts []StudyBurstInfo  `json:"studyBursts,omitempty"`
}

// DateRange spans the earliest start date to the latest end date of the
// resolved schedule.
type DateRange struct {
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}

// ResolvedSession is a scheduled session occurrence with concrete dates.
// Event id and raw day offsets are intentionally absent: they carry no
// meaning once resolved.
type ResolvedSession struct {
	RefGUID       string                `json:"refGuid"`
	InstanceGUID  string                `json:"instanceGuid"`
	StartDate     string                `json:"startDate"`
	EndDate       string                `json:"endDate"`
	StartTime     string                `json:"startTime,omitempty"`
	Persistent    bool                  `json:"persistent,omitempty"`
	StudyBurstID  string                `json:"studyBurstId,omitempty"`
	StudyBurstNum int                   `json:"studyBurstNum,omitempty"`
	Assessments   []ScheduledAssessment `json:"assessments,omitempty"`
}
