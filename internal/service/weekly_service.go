package service

import (
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/trialworks/adherence-api/internal/models"
)

// WeeklyService narrows the full event streams down to each stream's
// current 7-day window.
type WeeklyService struct {
	eventStreams *EventStreamService
	logger       *zap.Logger
}

// NewWeeklyService creates the generator on top of the event stream
// generator it derives from.
func NewWeeklyService(eventStreams *EventStreamService, logger *zap.Logger) *WeeklyService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WeeklyService{eventStreams: eventStreams, logger: logger}
}

// Generate builds the current-week report. Each stream contributes the day
// entries whose windows overlap that stream's current week, keyed by
// day-of-week; entries that opened before the week started are pinned to
// day 0. The percentage covers only the selected windows. When the week is
// empty the report instead carries a pointer to an upcoming activity.
//
// The weekly view always derives from an unrestricted full-history pass:
// week selection is its own filter and must not compound with the
// active-only filter.
func (s *WeeklyService) Generate(state *AdherenceState) (*models.WeeklyAdherenceReport, error) {
	full, err := s.eventStreams.Generate(state.WithShowActive(false))
	if err != nil {
		return nil, err
	}

	byDay := make(map[int][]*models.EventStreamDay)
	labelSet := make(map[string]struct{})
	var weekStates []models.SessionCompletionState

	for _, stream := range full.Streams {
		if stream.DaysSinceEvent == nil {
			continue
		}
		week := *stream.DaysSinceEvent / 7
		weekStart := week * 7
		weekEnd := weekStart + 6

		for _, day := range stream.Days() {
			if day.StartDay == nil {
				continue
			}
			startDay := *day.StartDay
			overlaps := false
			for _, win := range day.TimeWindows {
				endDay := startDay
				if win.EndDay != nil {
					endDay = *win.EndDay
				}
				if startDay <= weekEnd && endDay >= weekStart {
					overlaps = true
					break
				}
			}
			if !overlaps {
				continue
			}

			dayOfWeek := startDay - weekStart
			if dayOfWeek < 0 {
				dayOfWeek = 0
			}
			day.Week = week + 1
			day.Label = dayLabel(day)
			labelSet[day.Label] = struct{}{}
			byDay[dayOfWeek] = append(byDay[dayOfWeek], day)
			for _, win := range day.TimeWindows {
				weekStates = append(weekStates, win.State)
			}
		}
	}

	report := &models.WeeklyAdherenceReport{
		ClientTimeZone:   state.ClientTimeZone(),
		CreatedOn:        state.Now(),
		AdherencePercent: adherencePercent(weekStates),
		ByDayEntries:     byDay,
		Labels:           sortedLabels(labelSet),
	}
	if len(byDay) == 0 {
		report.NextActivity = nextActivity(full.Streams)
	}
	return report, nil
}

// dayLabel renders the searchable label for a selected day. Burst-scheduled
// sessions are labelled by their burst, everything else by session name.
func dayLabel(day *models.EventStreamDay) string {
	if day.StudyBurstID != "" {
		return fmt.Sprintf("%s %d / Week %d", day.StudyBurstID, day.StudyBurstNum, day.Week)
	}
	return fmt.Sprintf("%s / Week %d", day.SessionName, day.Week)
}

func sortedLabels(set map[string]struct{}) []string {
	labels := make([]string, 0, len(set))
	for label := range set {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	return labels
}

// nextActivity returns the first future day entry with a resolvable start
// date, scanning streams in their registration order. This is the
// first-found day in iteration order, not necessarily the chronologically
// nearest one across streams.
func nextActivity(streams []*models.EventStream) *models.NextActivity {
	for _, stream := range streams {
		if stream.DaysSinceEvent == nil {
			continue
		}
		current := *stream.DaysSinceEvent
		for _, day := range stream.Days() {
			if day.StartDay == nil || *day.StartDay <= current {
				continue
			}
			if day.StartDate == "" {
				continue
			}
			next := &models.NextActivity{
				SessionGUID:   day.SessionGUID,
				SessionName:   day.SessionName,
				SessionSymbol: day.SessionSymbol,
				Week:          *day.StartDay/7 + 1,
				StudyBurstID:  day.StudyBurstID,
				StudyBurstNum: day.StudyBurstNum,
				StartDate:     day.StartDate,
			}
			labelDay := *day
			labelDay.Week = next.Week
			next.Label = dayLabel(&labelDay)
			return next
		}
	}
	return nil
}
