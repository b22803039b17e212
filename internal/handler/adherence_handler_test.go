package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trialworks/adherence-api/internal/dto"
	"github.com/trialworks/adherence-api/internal/middleware"
	"github.com/trialworks/adherence-api/internal/models"
	"github.com/trialworks/adherence-api/internal/service"
	"github.com/trialworks/adherence-api/pkg/export"
)

var handlerT0 = time.Date(2015, 2, 2, 0, 0, 0, 0, time.UTC)

type fakeTimelineRepo struct {
	timeline *models.Timeline
}

func (f *fakeTimelineRepo) GetByStudy(_ context.Context, _ string) (*models.Timeline, error) {
	return f.timeline, nil
}

type fakeRecordRepo struct {
	upserts int
}

func (f *fakeRecordRepo) ListByParticipant(_ context.Context, _, _ string) ([]models.AdherenceRecord, error) {
	return nil, nil
}

func (f *fakeRecordRepo) Upsert(_ context.Context, _ *models.AdherenceRecord) error {
	f.upserts++
	return nil
}

type fakeEventRepo struct {
	upserts int
}

func (f *fakeEventRepo) MapByParticipant(_ context.Context, _, _ string) (models.EventTimestampMap, error) {
	return models.EventTimestampMap{"timeline_retrieved": handlerT0}, nil
}

func (f *fakeEventRepo) Upsert(_ context.Context, _ *models.ActivityEvent) error {
	f.upserts++
	return nil
}

type fakeWeeklyRepo struct{}

func (f *fakeWeeklyRepo) Upsert(_ context.Context, _ *models.WeeklyAdherenceReport) error {
	return nil
}

type handlerFixture struct {
	adherence *service.AdherenceService
	records   *fakeRecordRepo
	events    *fakeEventRepo
}

func newHandlerFixture(t *testing.T) *handlerFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)
	require.NoError(t, dto.RegisterValidators())

	records := &fakeRecordRepo{}
	events := &fakeEventRepo{}
	eventStreams := service.NewEventStreamService(nil)
	adherence := service.NewAdherenceService(service.AdherenceServiceParams{
		Timelines: &fakeTimelineRepo{timeline: &models.Timeline{
			GUID: "timeline-1",
			Metadata: []models.TimelineMetadata{
				{
					SessionInstanceGUID:     "inst-1",
					TimeWindowGUID:          "win-1",
					SessionGUID:             "sess-1",
					SessionName:             "Baseline Survey",
					SessionStartEventID:     "timeline_retrieved",
					SessionInstanceStartDay: 0,
					SessionInstanceEndDay:   6,
				},
			},
			Schedule: []models.ScheduledSession{
				{
					RefGUID:        "sess-1",
					InstanceGUID:   "inst-1",
					StartEventID:   "timeline_retrieved",
					StartDay:       0,
					EndDay:         6,
					TimeWindowGUID: "win-1",
				},
			},
			Sessions: []models.SessionInfo{{GUID: "sess-1", Name: "Baseline Survey"}},
		}},
		Records:       records,
		Events:        events,
		WeeklyReports: &fakeWeeklyRepo{},
		EventStreams:  eventStreams,
		Weekly:        service.NewWeeklyService(eventStreams, nil),
		Schedules:     service.NewParticipantScheduleService(nil),
		Cache:         service.NewCacheService(nil, nil, time.Minute, nil, false),
		CSV:           export.NewCSVExporter(","),
		PDF:           export.NewPDFExporter("Trialworks"),
		Config:        service.AdherenceConfig{AppID: "trialworks", DefaultTimeZone: "UTC"},
		Now:           func() time.Time { return handlerT0.AddDate(0, 0, 1) },
	})

	return &handlerFixture{adherence: adherence, records: records, events: events}
}

func participantContext(t *testing.T, method, target string, body []byte) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	var reader *bytes.Reader
	if body == nil {
		reader = bytes.NewReader(nil)
	} else {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequest(method, target, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Params = gin.Params{
		{Key: "studyId", Value: "study-1"},
		{Key: "userId", Value: "user-1"},
	}
	return c, w
}

func TestAdherenceHandlerEventStream(t *testing.T) {
	f := newHandlerFixture(t)
	handler := NewAdherenceHandler(f.adherence)

	c, w := participantContext(t, http.MethodGet, "/studies/study-1/participants/user-1/adherence/eventstream", nil)
	handler.EventStream(c)

	require.Equal(t, http.StatusOK, w.Code)
	var envelope struct {
		Data models.EventStreamReport `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.Len(t, envelope.Data.Streams, 1)
	assert.Equal(t, "timeline_retrieved", envelope.Data.Streams[0].StartEventID)
}

func TestAdherenceHandlerEventStreamRejectsBadZone(t *testing.T) {
	f := newHandlerFixture(t)
	handler := NewAdherenceHandler(f.adherence)

	c, w := participantContext(t, http.MethodGet, "/x?tz=Mars%2FOlympus_Mons", nil)
	handler.EventStream(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAdherenceHandlerWeekly(t *testing.T) {
	f := newHandlerFixture(t)
	handler := NewAdherenceHandler(f.adherence)

	c, w := participantContext(t, http.MethodGet, "/studies/study-1/participants/user-1/adherence/weekly", nil)
	handler.Weekly(c)

	require.Equal(t, http.StatusOK, w.Code)
	var envelope struct {
		Data models.WeeklyAdherenceReport `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.NotEmpty(t, envelope.Data.ByDayEntries)
}

func TestAdherenceHandlerUpsertRecord(t *testing.T) {
	f := newHandlerFixture(t)
	handler := NewAdherenceHandler(f.adherence)

	body, _ := json.Marshal(dto.UpsertAdherenceRequest{SessionInstanceGUID: "inst-1"})
	c, w := participantContext(t, http.MethodPost, "/x", body)
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "staff-1", Role: models.RoleCoordinator})
	handler.UpsertRecord(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, f.records.upserts)
	assert.Contains(t, w.Body.String(), "staff-1")
}

func TestAdherenceHandlerUpsertRecordInvalidBody(t *testing.T) {
	f := newHandlerFixture(t)
	handler := NewAdherenceHandler(f.adherence)

	c, w := participantContext(t, http.MethodPost, "/x", []byte(`{"declined": "yes"}`))
	handler.UpsertRecord(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Zero(t, f.records.upserts)
}

func TestAdherenceHandlerRecordEvent(t *testing.T) {
	f := newHandlerFixture(t)
	handler := NewAdherenceHandler(f.adherence)

	body, _ := json.Marshal(dto.RecordEventRequest{
		EventID:   "custom:clinic_visit",
		Timestamp: handlerT0.AddDate(0, 0, 3),
	})
	c, w := participantContext(t, http.MethodPost, "/x", body)
	handler.RecordEvent(c)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, 1, f.events.upserts)
}

func TestScheduleHandlerSchedule(t *testing.T) {
	f := newHandlerFixture(t)
	handler := NewScheduleHandler(f.adherence)

	c, w := participantContext(t, http.MethodGet, "/x", nil)
	handler.Schedule(c)

	require.Equal(t, http.StatusOK, w.Code)
	var envelope struct {
		Data models.ParticipantSchedule `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.Len(t, envelope.Data.Schedule, 1)
	assert.Equal(t, "2015-02-02", envelope.Data.Schedule[0].StartDate)
}

func TestScheduleHandlerExportCSV(t *testing.T) {
	f := newHandlerFixture(t)
	handler := NewScheduleHandler(f.adherence)

	c, w := participantContext(t, http.MethodGet, "/x?format=csv", nil)
	handler.Export(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "schedule-user-1.csv")
	assert.Contains(t, w.Body.String(), "Baseline Survey")
}

func TestScheduleHandlerExportRejectsUnknownFormat(t *testing.T) {
	f := newHandlerFixture(t)
	handler := NewScheduleHandler(f.adherence)

	c, w := participantContext(t, http.MethodGet, "/x?format=xlsx", nil)
	handler.Export(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
