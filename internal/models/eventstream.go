package models

import (
	"sort"
	"time"
)

// EventStream is the adherence history for all sessions anchored to one
// start event. Day entries are keyed by the window's start day offset.
type EventStream struct {
	StartEventID   string                    `json:"startEventId"`
	EventTimestamp *time.Time                `json:"eventTimestamp,omitempty"`
	DaysSinceEvent *int                      `json:"daysSinceEvent,omitempty"`
	StudyBurstID   string                    `json:"studyBurstId,omitempty"`
	StudyBurstNum  int                       `json:"studyBurstNum,omitempty"`
	ByDayEntries   map[int][]*EventStreamDay `json:"byDayEntries"`
}

// NewEventStream constructs an empty stream for the given event.
func NewEventStream(eventID string) *EventStream {
	return &EventStream{
		StartEventID: eventID,
		ByDayEntries: make(map[int][]*EventStreamDay),
	}
}

// AddEntry registers a day entry under its start day offset.
func (s *EventStream) AddEntry(startDay int, day *EventStreamDay) {
	s.ByDayEntries[startDay] = append(s.ByDayEntries[startDay], day)
}

// DayOffsets returns the registered start day offsets in ascending order.
func (s *EventStream) DayOffsets() []int {
	offsets := make([]int, 0, len(s.ByDayEntries))
	for offset := range s.ByDayEntries {
		offsets = append(offsets, offset)
	}
	sort.Ints(offsets)
	return offsets
}

// Days flattens all day entries in ascending start day order.
func (s *EventStream) Days() []*EventStreamDay {
	var days []*EventStreamDay
	for _, offset := range s.DayOffsets() {
		days = append(days, s.ByDayEntries[offset]...)
	}
	return days
}

// EventStreamDay groups the windows of one session instance that open on the
// same day. Repeated lookups during a generation pass must return the same
// object, so days are cached by (instance guid, event id, start day).
type EventStreamDay struct {
	SessionGUID   string               `json:"sessionGuid"`
	SessionName   string               `json:"sessionName"`
	SessionSymbol string               `json:"sessionSymbol,omitempty"`
	Label         string               `json:"label,omitempty"`
	Week          int                  `json:"week,omitempty"`
	StudyBurstID  string               `json:"studyBurstId,omitempty"`
	StudyBurstNum int                  `json:"studyBurstNum,omitempty"`
	StartDay      *int                 `json:"startDay,omitempty"`
	StartDate     string               `json:"startDate,omitempty"`
	TimeWindows   []*EventStreamWindow `json:"timeWindows"`
}

// AddWindow inserts a window, replacing any prior entry for the same time
// window so the same logical window is never duplicated.
func (d *EventStreamDay) AddWindow(win *EventStreamWindow) {
	for i, existing := range d.TimeWindows {
		if existing.TimeWindowGUID == win.TimeWindowGUID {
			d.TimeWindows[i] = win
			return
		}
	}
	d.TimeWindows = append(d.TimeWindows, win)
}

// EventStreamWindow is one scheduled window occurrence with its classified
// completion state.
type EventStreamWindow struct {
	SessionInstanceGUID string                 `json:"sessionInstanceGuid"`
	TimeWindowGUID      string                 `json:"timeWindowGuid"`
	EndDay              *int                   `json:"endDay,omitempty"`
	EndDate             string                 `json:"endDate,omitempty"`
	State               SessionCompletionState `json:"state"`
}

// EventStreamReport is the full-history adherence view for one participant.
type EventStreamReport struct {
	Timestamp        time.Time      `json:"timestamp"`
	ClientTimeZone   string         `json:"clientTimeZone"`
	AdherencePercent int            `json:"adherencePercent"`
	Progress         StudyProgress  `json:"progression"`
	Streams          []*EventStream `json:"streams"`
}
