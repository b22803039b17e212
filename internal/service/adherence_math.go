package service

import (
	"math"
	"time"

	"github.com/trialworks/adherence-api/internal/models"
)

const dateLayout = "2006-01-02"

// classifyCompletion maps one window instance to its completion state.
// Absent data always degrades to a defined state, never an error:
// a missing event yields not_applicable, a missing record yields
// unstarted or expired depending on the window. A finish timestamp wins
// over expiry regardless of when it was recorded; a declined record wins
// over everything once the window is reachable.
func classifyCompletion(record *models.AdherenceRecord, startDay, endDay int, daysSinceEvent *int) models.SessionCompletionState {
	if daysSinceEvent == nil {
		return models.CompletionNotApplicable
	}
	days := *daysSinceEvent
	if days < startDay {
		return models.CompletionNotYetAvailable
	}
	if record != nil {
		if record.Declined {
			return models.CompletionDeclined
		}
		if record.FinishedOn != nil {
			return models.CompletionCompleted
		}
	}
	if days > endDay {
		if record != nil && record.StartedOn != nil {
			return models.CompletionAbandoned
		}
		return models.CompletionExpired
	}
	if record != nil && record.StartedOn != nil {
		return models.CompletionStarted
	}
	return models.CompletionUnstarted
}

// adherencePercent computes round(100 * completed / countable) over the
// provided states. With zero countable states the participant has nothing
// they could have adhered to, which reports as 100.
func adherencePercent(states []models.SessionCompletionState) int {
	var countable, completed int
	for _, state := range states {
		if !state.Countable() {
			continue
		}
		countable++
		if state == models.CompletionCompleted {
			completed++
		}
	}
	if countable == 0 {
		return 100
	}
	return int(math.Round(100 * float64(completed) / float64(countable)))
}

// classifyProgress derives the participant's overall study position from the
// full set of streams.
func classifyProgress(streams []*models.EventStream) models.StudyProgress {
	states := collectStates(streams)
	if len(states) == 0 {
		return models.ProgressNoSchedule
	}
	var started, pending bool
	for _, state := range states {
		switch state {
		case models.CompletionStarted, models.CompletionCompleted,
			models.CompletionAbandoned, models.CompletionDeclined:
			started = true
		}
		switch state {
		case models.CompletionNotApplicable, models.CompletionNotYetAvailable,
			models.CompletionUnstarted, models.CompletionStarted:
			pending = true
		}
	}
	if !started {
		return models.ProgressUnstarted
	}
	if !pending {
		return models.ProgressDone
	}
	return models.ProgressInProgress
}

func collectStates(streams []*models.EventStream) []models.SessionCompletionState {
	var states []models.SessionCompletionState
	for _, stream := range streams {
		for _, day := range stream.Days() {
			for _, win := range day.TimeWindows {
				states = append(states, win.State)
			}
		}
	}
	return states
}

// localDate truncates t to its calendar date in loc, at local midnight.
func localDate(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, loc)
}

// daysBetween counts whole calendar days from a to b as observed in loc.
// The count is over civil dates, so a 23- or 25-hour DST day still counts
// as exactly one day.
func daysBetween(a, b time.Time, loc *time.Location) int {
	da := localDate(a, loc)
	db := localDate(b, loc)
	ua := time.Date(da.Year(), da.Month(), da.Day(), 0, 0, 0, 0, time.UTC)
	ub := time.Date(db.Year(), db.Month(), db.Day(), 0, 0, 0, 0, time.UTC)
	return int(ub.Sub(ua).Hours() / 24)
}
