package service

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/trialworks/adherence-api/internal/models"
	appErrors "github.com/trialworks/adherence-api/pkg/errors"
)

// EventStreamService builds the full-history adherence report for one
// participant by walking the timeline's flattened metadata.
type EventStreamService struct {
	logger *zap.Logger
}

// NewEventStreamService creates the generator.
func NewEventStreamService(logger *zap.Logger) *EventStreamService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EventStreamService{logger: logger}
}

// Generate walks every metadata row, groups windows into per-event streams
// and per-day entries via the state's caches, classifies each window, and
// aggregates the overall percentage and study progress.
//
// Persistent windows never appear: they are open-ended and carry no
// adherence signal. When the state is restricted to active windows, rows
// whose window is not currently open are skipped before any stream or
// day entry is created, so inactive streams do not show up empty.
func (g *EventStreamService) Generate(state *AdherenceState) (*models.EventStreamReport, error) {
	for _, meta := range state.Metadata() {
		if err := validateMetadata(meta); err != nil {
			g.logger.Error("malformed timeline metadata",
				zap.String("session_instance_guid", meta.SessionInstanceGUID),
				zap.Error(err))
			return nil, err
		}
		if meta.TimeWindowPersistent {
			continue
		}

		daysSince := state.DaysSinceEvent(meta.SessionStartEventID)
		if state.ShowActive() {
			if daysSince == nil || *daysSince < meta.SessionInstanceStartDay || *daysSince > meta.SessionInstanceEndDay {
				continue
			}
		}

		stream := state.EventStream(meta.SessionStartEventID)
		stream.DaysSinceEvent = daysSince
		if meta.StudyBurstID != "" {
			stream.StudyBurstID = meta.StudyBurstID
			stream.StudyBurstNum = meta.StudyBurstNum
		}

		day := state.EventStreamDay(meta)

		endDay := meta.SessionInstanceEndDay
		win := &models.EventStreamWindow{
			SessionInstanceGUID: meta.SessionInstanceGUID,
			TimeWindowGUID:      meta.TimeWindowGUID,
			EndDay:              &endDay,
		}
		if ts, ok := state.EventTimestamp(meta.SessionStartEventID); ok {
			win.EndDate = localDate(ts, state.Location()).AddDate(0, 0, endDay).Format(dateLayout)
		}
		win.State = classifyCompletion(
			state.RecordForInstance(meta.SessionInstanceGUID),
			meta.SessionInstanceStartDay,
			meta.SessionInstanceEndDay,
			daysSince,
		)
		day.AddWindow(win)
	}

	streams := state.Streams()
	return &models.EventStreamReport{
		Timestamp:        state.Now(),
		ClientTimeZone:   state.ClientTimeZone(),
		AdherencePercent: adherencePercent(collectStates(streams)),
		Progress:         classifyProgress(streams),
		Streams:          streams,
	}, nil
}

// validateMetadata rejects rows a generator cannot place: identity fields
// must be present and the window's day offsets must describe a real span.
func validateMetadata(meta models.TimelineMetadata) error {
	switch {
	case meta.SessionInstanceGUID == "":
		return appErrors.Clone(appErrors.ErrBadTimeline, "timeline metadata row is missing its session instance guid")
	case meta.TimeWindowGUID == "":
		return appErrors.Clone(appErrors.ErrBadTimeline,
			fmt.Sprintf("session instance %s is missing its time window guid", meta.SessionInstanceGUID))
	case meta.SessionStartEventID == "":
		return appErrors.Clone(appErrors.ErrBadTimeline,
			fmt.Sprintf("session instance %s is missing its start event id", meta.SessionInstanceGUID))
	case meta.SessionInstanceStartDay < 0:
		return appErrors.Clone(appErrors.ErrBadTimeline,
			fmt.Sprintf("session instance %s has a negative start day", meta.SessionInstanceGUID))
	case meta.SessionInstanceEndDay < meta.SessionInstanceStartDay:
		return appErrors.Clone(appErrors.ErrBadTimeline,
			fmt.Sprintf("session instance %s ends before it starts", meta.SessionInstanceGUID))
	}
	return nil
}
