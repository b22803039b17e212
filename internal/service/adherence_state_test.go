package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trialworks/adherence-api/internal/models"
)

func newStateFixture(t *testing.T, params AdherenceStateParams) *AdherenceState {
	t.Helper()
	state, err := NewAdherenceState(params)
	require.NoError(t, err)
	return state
}

func TestNewAdherenceStateTimeZones(t *testing.T) {
	state := newStateFixture(t, AdherenceStateParams{})
	assert.Equal(t, "UTC", state.ClientTimeZone())

	state = newStateFixture(t, AdherenceStateParams{ClientTimeZone: "Asia/Jakarta"})
	assert.Equal(t, "Asia/Jakarta", state.ClientTimeZone())

	_, err := NewAdherenceState(AdherenceStateParams{ClientTimeZone: "Mars/Olympus_Mons"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Mars/Olympus_Mons")
}

func TestDaysSinceEvent(t *testing.T) {
	now := time.Date(2015, 2, 12, 10, 0, 0, 0, time.UTC)
	state := newStateFixture(t, AdherenceStateParams{
		Events: models.EventTimestampMap{
			"timeline_retrieved":  time.Date(2015, 2, 2, 0, 0, 0, 0, time.UTC),
			"custom:clinic_visit": time.Date(2015, 3, 1, 0, 0, 0, 0, time.UTC),
		},
		Now: now,
	})

	days := state.DaysSinceEvent("timeline_retrieved")
	require.NotNil(t, days)
	assert.Equal(t, 10, *days)

	assert.Nil(t, state.DaysSinceEvent("custom:clinic_visit"), "future event must resolve to nil, not negative")
	assert.Nil(t, state.DaysSinceEvent("never_fired"))
}

func TestDaysSinceEventUsesClientCalendar(t *testing.T) {
	// 23:30 UTC on Feb 2 is already Feb 3 in Jakarta (UTC+7). One minute
	// later in Jakarta local time it is still the same calendar day there,
	// while a UTC calendar would say zero days have passed.
	state := newStateFixture(t, AdherenceStateParams{
		Events: models.EventTimestampMap{
			"timeline_retrieved": time.Date(2015, 2, 2, 23, 30, 0, 0, time.UTC),
		},
		Now:            time.Date(2015, 2, 3, 0, 30, 0, 0, time.UTC),
		ClientTimeZone: "Asia/Jakarta",
	})

	days := state.DaysSinceEvent("timeline_retrieved")
	require.NotNil(t, days)
	assert.Equal(t, 0, *days)

	utcState := newStateFixture(t, AdherenceStateParams{
		Events: models.EventTimestampMap{
			"timeline_retrieved": time.Date(2015, 2, 2, 23, 30, 0, 0, time.UTC),
		},
		Now: time.Date(2015, 2, 3, 0, 30, 0, 0, time.UTC),
	})
	days = utcState.DaysSinceEvent("timeline_retrieved")
	require.NotNil(t, days)
	assert.Equal(t, 1, *days)
}

func TestEventStreamDayIdentity(t *testing.T) {
	state := newStateFixture(t, AdherenceStateParams{
		Events: models.EventTimestampMap{
			"timeline_retrieved": time.Date(2015, 2, 2, 0, 0, 0, 0, time.UTC),
		},
		Now: time.Date(2015, 2, 2, 12, 0, 0, 0, time.UTC),
	})

	meta := models.TimelineMetadata{
		SessionInstanceGUID:     "inst-1",
		TimeWindowGUID:          "win-1",
		SessionGUID:             "sess-1",
		SessionName:             "Daily Survey",
		SessionStartEventID:     "timeline_retrieved",
		SessionInstanceStartDay: 0,
		SessionInstanceEndDay:   0,
	}

	first := state.EventStreamDay(meta)
	second := state.EventStreamDay(meta)
	assert.Same(t, first, second, "repeated lookups must return the same day entry")

	stream := state.EventStream("timeline_retrieved")
	assert.Len(t, stream.ByDayEntries[0], 1, "repeated lookups must not register duplicates")
}

func TestEventStreamDayResolvesCalendarDates(t *testing.T) {
	state := newStateFixture(t, AdherenceStateParams{
		Events: models.EventTimestampMap{
			"timeline_retrieved": time.Date(2015, 2, 2, 0, 0, 0, 0, time.UTC),
		},
		Now: time.Date(2015, 2, 2, 12, 0, 0, 0, time.UTC),
	})

	day := state.EventStreamDay(models.TimelineMetadata{
		SessionInstanceGUID:     "inst-1",
		TimeWindowGUID:          "win-1",
		SessionGUID:             "sess-1",
		SessionStartEventID:     "timeline_retrieved",
		SessionInstanceStartDay: 7,
		SessionInstanceEndDay:   13,
	})
	assert.Equal(t, "2015-02-09", day.StartDate)

	orphan := state.EventStreamDay(models.TimelineMetadata{
		SessionInstanceGUID:     "inst-2",
		TimeWindowGUID:          "win-2",
		SessionGUID:             "sess-2",
		SessionStartEventID:     "never_fired",
		SessionInstanceStartDay: 0,
		SessionInstanceEndDay:   6,
	})
	assert.Empty(t, orphan.StartDate, "day anchored on an unexperienced event has no date")
}

func TestWithShowActiveStartsFresh(t *testing.T) {
	state := newStateFixture(t, AdherenceStateParams{
		Events: models.EventTimestampMap{
			"timeline_retrieved": time.Date(2015, 2, 2, 0, 0, 0, 0, time.UTC),
		},
		Now: time.Date(2015, 2, 2, 12, 0, 0, 0, time.UTC),
	})
	state.EventStream("timeline_retrieved")
	require.Len(t, state.Streams(), 1)

	fresh := state.WithShowActive(true)
	assert.True(t, fresh.ShowActive())
	assert.Empty(t, fresh.Streams(), "derived state must not inherit memoized streams")
	assert.Equal(t, state.Now(), fresh.Now())
	assert.Equal(t, state.ClientTimeZone(), fresh.ClientTimeZone())
}

func TestRecordForInstance(t *testing.T) {
	started := time.Date(2015, 2, 3, 9, 0, 0, 0, time.UTC)
	state := newStateFixture(t, AdherenceStateParams{
		Records: []models.AdherenceRecord{
			{SessionInstanceGUID: "inst-1", StartedOn: &started},
		},
		Now: time.Date(2015, 2, 4, 0, 0, 0, 0, time.UTC),
	})

	rec := state.RecordForInstance("inst-1")
	require.NotNil(t, rec)
	assert.Equal(t, started, *rec.StartedOn)
	assert.Nil(t, state.RecordForInstance("inst-2"))
}
