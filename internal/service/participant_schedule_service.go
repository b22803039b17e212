package service

import (
	"sort"

	"go.uber.org/zap"

	"github.com/trialworks/adherence-api/internal/models"
	appErrors "github.com/trialworks/adherence-api/pkg/errors"
)

// ParticipantScheduleService resolves a study timeline against one
// participant's event timestamps, turning day offsets into calendar dates.
type ParticipantScheduleService struct {
	logger *zap.Logger
}

// NewParticipantScheduleService creates the generator.
func NewParticipantScheduleService(logger *zap.Logger) *ParticipantScheduleService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ParticipantScheduleService{logger: logger}
}

// Generate resolves every scheduled session whose anchor event the
// participant has experienced. Sessions anchored on events that never
// fired are dropped from the output entirely, not emitted with holes.
// Dates come from calendar-day arithmetic in the client's time zone, so
// offsets land on the expected civil date across DST transitions. The
// result is ordered by start date, then start time within a day.
func (g *ParticipantScheduleService) Generate(state *AdherenceState, timeline *models.Timeline) (*models.ParticipantSchedule, error) {
	if timeline == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "study has no timeline")
	}

	byDate := make(map[string][]models.ResolvedSession)
	var minStart, maxEnd string
	dropped := 0

	for _, sess := range timeline.Schedule {
		ts, ok := state.EventTimestamp(sess.StartEventID)
		if !ok {
			dropped++
			continue
		}
		base := localDate(ts, state.Location())
		startDate := base.AddDate(0, 0, sess.StartDay).Format(dateLayout)
		endDate := base.AddDate(0, 0, sess.EndDay).Format(dateLayout)

		byDate[startDate] = append(byDate[startDate], models.ResolvedSession{
			RefGUID:       sess.RefGUID,
			InstanceGUID:  sess.InstanceGUID,
			StartDate:     startDate,
			EndDate:       endDate,
			StartTime:     sess.StartTime,
			Persistent:    sess.Persistent,
			StudyBurstID:  sess.StudyBurstID,
			StudyBurstNum: sess.StudyBurstNum,
			Assessments:   sess.Assessments,
		})
		if minStart == "" || startDate < minStart {
			minStart = startDate
		}
		if maxEnd == "" || endDate > maxEnd {
			maxEnd = endDate
		}
	}

	if dropped > 0 {
		g.logger.Debug("dropped unanchored scheduled sessions",
			zap.String("timeline_guid", timeline.GUID),
			zap.Int("dropped", dropped))
	}

	// ISO date strings sort chronologically, so a string sort over the
	// map keys gives date order for free.
	dates := make([]string, 0, len(byDate))
	for date := range byDate {
		dates = append(dates, date)
	}
	sort.Strings(dates)

	schedule := make([]models.ResolvedSession, 0, len(timeline.Schedule))
	for _, date := range dates {
		day := byDate[date]
		sort.SliceStable(day, func(i, j int) bool {
			return day[i].StartTime < day[j].StartTime
		})
		schedule = append(schedule, day...)
	}

	result := &models.ParticipantSchedule{
		Schedule:    schedule,
		Sessions:    timeline.Sessions,
		Assessments: timeline.Assessments,
		StudyBursts: timeline.StudyBursts,
	}
	if minStart != "" {
		result.DateRange = &models.DateRange{StartDate: minStart, EndDate: maxEnd}
	}
	return result, nil
}
