package service

import (
	"fmt"
	"time"

	"github.com/trialworks/adherence-api/internal/models"
	appErrors "github.com/trialworks/adherence-api/pkg/errors"
)

// eventStreamDayKey identifies one day entry within one event stream. Two
// metadata rows with the same instance, event and start day describe two
// windows of the same day entry and must resolve to the same object.
type eventStreamDayKey struct {
	sessionInstanceGUID string
	startEventID        string
	startDay            int
}

// AdherenceState holds everything a single report generation needs: the
// flattened timeline metadata, the participant's activity events and
// adherence records, the evaluation instant and the client time zone.
// It memoizes stream and day-entry construction so every generator that
// walks the metadata lands on the same shared objects.
//
// A state is scoped to one generation pass and is not safe for concurrent
// use.
type AdherenceState struct {
	now            time.Time
	location       *time.Location
	clientTimeZone string
	showActive     bool

	metadata []models.TimelineMetadata
	events   models.EventTimestampMap
	records  map[string]*models.AdherenceRecord

	streams     map[string]*models.EventStream
	streamOrder []string
	days        map[eventStreamDayKey]*models.EventStreamDay
	daysSince   map[string]*int
}

// AdherenceStateParams carries the inputs for NewAdherenceState.
type AdherenceStateParams struct {
	Metadata       []models.TimelineMetadata
	Records        []models.AdherenceRecord
	Events         models.EventTimestampMap
	Now            time.Time
	ClientTimeZone string
	ShowActive     bool
}

// NewAdherenceState builds a fresh state. An empty ClientTimeZone falls
// back to UTC; an unknown IANA name is a validation error.
func NewAdherenceState(params AdherenceStateParams) (*AdherenceState, error) {
	tz := params.ClientTimeZone
	if tz == "" {
		tz = "UTC"
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status,
			fmt.Sprintf("unknown client time zone %q", tz))
	}

	now := params.Now
	if now.IsZero() {
		now = time.Now()
	}

	records := make(map[string]*models.AdherenceRecord, len(params.Records))
	for i := range params.Records {
		rec := params.Records[i]
		records[rec.SessionInstanceGUID] = &rec
	}

	events := params.Events
	if events == nil {
		events = models.EventTimestampMap{}
	}

	return &AdherenceState{
		now:            now,
		location:       loc,
		clientTimeZone: tz,
		showActive:     params.ShowActive,
		metadata:       params.Metadata,
		events:         events,
		records:        records,
		streams:        make(map[string]*models.EventStream),
		days:           make(map[eventStreamDayKey]*models.EventStreamDay),
		daysSince:      make(map[string]*int),
	}, nil
}

// WithShowActive returns a state over the same inputs with the given
// active-only flag and empty memo caches. Generators mutate the shared
// day entries they resolve, so reusing caches across passes with a
// different visibility filter would leak entries between reports.
func (s *AdherenceState) WithShowActive(showActive bool) *AdherenceState {
	return &AdherenceState{
		now:            s.now,
		location:       s.location,
		clientTimeZone: s.clientTimeZone,
		showActive:     showActive,
		metadata:       s.metadata,
		events:         s.events,
		records:        s.records,
		streams:        make(map[string]*models.EventStream),
		days:           make(map[eventStreamDayKey]*models.EventStreamDay),
		daysSince:      make(map[string]*int),
	}
}

// Now returns the evaluation instant in the client's time zone.
func (s *AdherenceState) Now() time.Time {
	return s.now.In(s.location)
}

// ClientTimeZone returns the resolved IANA zone name.
func (s *AdherenceState) ClientTimeZone() string {
	return s.clientTimeZone
}

// Location returns the loaded client time zone.
func (s *AdherenceState) Location() *time.Location {
	return s.location
}

// ShowActive reports whether generation is restricted to currently open
// windows.
func (s *AdherenceState) ShowActive() bool {
	return s.showActive
}

// Metadata returns the flattened timeline rows in timeline order.
func (s *AdherenceState) Metadata() []models.TimelineMetadata {
	return s.metadata
}

// RecordForInstance returns the participant's adherence record for a
// session instance, or nil when they never touched it.
func (s *AdherenceState) RecordForInstance(sessionInstanceGUID string) *models.AdherenceRecord {
	return s.records[sessionInstanceGUID]
}

// EventTimestamp returns the timestamp of an activity event the
// participant has experienced.
func (s *AdherenceState) EventTimestamp(eventID string) (time.Time, bool) {
	ts, ok := s.events[eventID]
	return ts, ok
}

// DaysSinceEvent returns how many whole calendar days have passed in the
// client's time zone since the event fired. Events the participant has
// not experienced, and events timestamped in the future, both return nil:
// a window anchored on them is simply not applicable yet.
func (s *AdherenceState) DaysSinceEvent(eventID string) *int {
	if cached, ok := s.daysSince[eventID]; ok {
		return cached
	}
	var result *int
	if ts, ok := s.events[eventID]; ok {
		days := daysBetween(ts, s.now, s.location)
		if days >= 0 {
			result = &days
		}
	}
	s.daysSince[eventID] = result
	return result
}

// EventStream returns the stream for an event id, creating and
// registering it on first use. Streams keep their first-use order so
// report output is deterministic for a given timeline.
func (s *AdherenceState) EventStream(eventID string) *models.EventStream {
	if stream, ok := s.streams[eventID]; ok {
		return stream
	}
	stream := models.NewEventStream(eventID)
	if ts, ok := s.events[eventID]; ok {
		local := ts.In(s.location)
		stream.EventTimestamp = &local
	}
	s.streams[eventID] = stream
	s.streamOrder = append(s.streamOrder, eventID)
	return stream
}

// EventStreamDay resolves the day entry a metadata row belongs to,
// creating it and attaching it to its stream exactly once. Repeated calls
// with rows that share the (instance, event, start day) key return the
// same entry, which is what lets multiple time windows accumulate under
// one day.
func (s *AdherenceState) EventStreamDay(meta models.TimelineMetadata) *models.EventStreamDay {
	key := eventStreamDayKey{
		sessionInstanceGUID: meta.SessionInstanceGUID,
		startEventID:        meta.SessionStartEventID,
		startDay:            meta.SessionInstanceStartDay,
	}
	if day, ok := s.days[key]; ok {
		return day
	}

	startDay := meta.SessionInstanceStartDay
	day := &models.EventStreamDay{
		SessionGUID:   meta.SessionGUID,
		SessionName:   meta.SessionName,
		SessionSymbol: meta.SessionSymbol,
		StudyBurstID:  meta.StudyBurstID,
		StudyBurstNum: meta.StudyBurstNum,
		StartDay:      &startDay,
	}
	if ts, ok := s.events[meta.SessionStartEventID]; ok {
		day.StartDate = localDate(ts, s.location).AddDate(0, 0, startDay).Format(dateLayout)
	}

	s.days[key] = day
	s.EventStream(meta.SessionStartEventID).AddEntry(startDay, day)
	return day
}

// Streams returns every stream created so far, in first-use order.
func (s *AdherenceState) Streams() []*models.EventStream {
	streams := make([]*models.EventStream, 0, len(s.streamOrder))
	for _, eventID := range s.streamOrder {
		streams = append(streams, s.streams[eventID])
	}
	return streams
}
