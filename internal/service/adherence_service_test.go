package service

import (
	"context"
	"encoding/json"
	"path"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trialworks/adherence-api/internal/dto"
	"github.com/trialworks/adherence-api/internal/models"
	appErrors "github.com/trialworks/adherence-api/pkg/errors"
	"github.com/trialworks/adherence-api/pkg/export"
	"github.com/trialworks/adherence-api/pkg/jobs"
)

type mockTimelineRepo struct {
	timeline *models.Timeline
	err      error
	calls    int
}

func (m *mockTimelineRepo) GetByStudy(_ context.Context, _ string) (*models.Timeline, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.timeline, nil
}

type mockRecordRepo struct {
	records []models.AdherenceRecord
	upserts []*models.AdherenceRecord
}

func (m *mockRecordRepo) ListByParticipant(_ context.Context, _, _ string) ([]models.AdherenceRecord, error) {
	return m.records, nil
}

func (m *mockRecordRepo) Upsert(_ context.Context, record *models.AdherenceRecord) error {
	m.upserts = append(m.upserts, record)
	return nil
}

type mockEventRepo struct {
	events  models.EventTimestampMap
	upserts []*models.ActivityEvent
}

func (m *mockEventRepo) MapByParticipant(_ context.Context, _, _ string) (models.EventTimestampMap, error) {
	return m.events, nil
}

func (m *mockEventRepo) Upsert(_ context.Context, event *models.ActivityEvent) error {
	m.upserts = append(m.upserts, event)
	return nil
}

type mockWeeklyRepo struct {
	upserts []*models.WeeklyAdherenceReport
}

func (m *mockWeeklyRepo) Upsert(_ context.Context, report *models.WeeklyAdherenceReport) error {
	m.upserts = append(m.upserts, report)
	return nil
}

type mockDispatcher struct {
	jobs []jobs.Job
}

func (m *mockDispatcher) Enqueue(job jobs.Job) error {
	m.jobs = append(m.jobs, job)
	return nil
}

type stubCacheRepo struct {
	store map[string][]byte
}

func (s *stubCacheRepo) Get(_ context.Context, key string, dest interface{}) error {
	payload, ok := s.store[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(payload, dest)
}

func (s *stubCacheRepo) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	if s.store == nil {
		s.store = make(map[string][]byte)
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	s.store[key] = payload
	return nil
}

func (s *stubCacheRepo) DeleteByPattern(_ context.Context, pattern string) error {
	for key := range s.store {
		if ok, _ := path.Match(pattern, key); ok {
			delete(s.store, key)
		}
	}
	return nil
}

type adherenceFixture struct {
	service   *AdherenceService
	timelines *mockTimelineRepo
	records   *mockRecordRepo
	events    *mockEventRepo
	weekly    *mockWeeklyRepo
	queue     *mockDispatcher
	cache     *stubCacheRepo
}

func newAdherenceFixture(t *testing.T) *adherenceFixture {
	t.Helper()

	timelines := &mockTimelineRepo{
		timeline: &models.Timeline{
			GUID:     "timeline-1",
			Metadata: singleWindowMetadata(),
			Schedule: []models.ScheduledSession{
				{
					RefGUID:        "sess-1",
					InstanceGUID:   "inst-1",
					StartEventID:   "timeline_retrieved",
					StartDay:       0,
					EndDay:         0,
					TimeWindowGUID: "win-1",
				},
			},
			Sessions: []models.SessionInfo{{GUID: "sess-1", Name: "Baseline Survey"}},
		},
	}
	records := &mockRecordRepo{}
	events := &mockEventRepo{events: models.EventTimestampMap{"timeline_retrieved": fixtureT0}}
	weekly := &mockWeeklyRepo{}
	queue := &mockDispatcher{}
	cache := &stubCacheRepo{store: make(map[string][]byte)}

	eventStreams := NewEventStreamService(nil)
	service := NewAdherenceService(AdherenceServiceParams{
		Timelines:     timelines,
		Records:       records,
		Events:        events,
		WeeklyReports: weekly,
		EventStreams:  eventStreams,
		Weekly:        NewWeeklyService(eventStreams, nil),
		Schedules:     NewParticipantScheduleService(nil),
		Cache:         NewCacheService(cache, nil, time.Minute, nil, true),
		Queue:         queue,
		CSV:           export.NewCSVExporter(","),
		PDF:           export.NewPDFExporter("Trialworks"),
		Config:        AdherenceConfig{AppID: "trialworks", DefaultTimeZone: "UTC"},
	})
	service.now = func() time.Time { return fixtureT0.AddDate(0, 0, 1) }

	return &adherenceFixture{
		service:   service,
		timelines: timelines,
		records:   records,
		events:    events,
		weekly:    weekly,
		queue:     queue,
		cache:     cache,
	}
}

func TestAdherenceServiceEventStreamReportCaches(t *testing.T) {
	f := newAdherenceFixture(t)

	report, err := f.service.EventStreamReport(context.Background(), "study-1", "user-1", dto.AdherenceQuery{})
	require.NoError(t, err)
	require.Len(t, report.Streams, 1)
	assert.Equal(t, 1, f.timelines.calls)

	again, err := f.service.EventStreamReport(context.Background(), "study-1", "user-1", dto.AdherenceQuery{})
	require.NoError(t, err)
	assert.Equal(t, 1, f.timelines.calls, "second read must come from cache")
	assert.Equal(t, report.AdherencePercent, again.AdherencePercent)
}

func TestAdherenceServiceActiveOnlyVariantIsCachedSeparately(t *testing.T) {
	f := newAdherenceFixture(t)

	_, err := f.service.EventStreamReport(context.Background(), "study-1", "user-1", dto.AdherenceQuery{})
	require.NoError(t, err)
	_, err = f.service.EventStreamReport(context.Background(), "study-1", "user-1", dto.AdherenceQuery{ActiveOnly: true})
	require.NoError(t, err)
	assert.Equal(t, 2, f.timelines.calls, "visibility variants must not share a cache entry")
}

func TestAdherenceServiceWeeklyReportPersists(t *testing.T) {
	f := newAdherenceFixture(t)

	report, err := f.service.WeeklyReport(context.Background(), "study-1", "user-1", "")
	require.NoError(t, err)

	require.Len(t, f.weekly.upserts, 1)
	persisted := f.weekly.upserts[0]
	assert.Equal(t, "trialworks", persisted.AppID)
	assert.Equal(t, "study-1", persisted.StudyID)
	assert.Equal(t, "user-1", persisted.UserID)
	assert.Equal(t, report.AdherencePercent, persisted.AdherencePercent)

	_, err = f.service.WeeklyReport(context.Background(), "study-1", "user-1", "")
	require.NoError(t, err)
	assert.Len(t, f.weekly.upserts, 1, "cache hit must not re-persist")
}

func TestAdherenceServiceUpsertRecordInvalidatesAndQueues(t *testing.T) {
	f := newAdherenceFixture(t)

	_, err := f.service.EventStreamReport(context.Background(), "study-1", "user-1", dto.AdherenceQuery{})
	require.NoError(t, err)
	require.NotEmpty(t, f.cache.store)

	started := fixtureT0.Add(2 * time.Hour)
	err = f.service.UpsertRecord(context.Background(), "study-1", "user-1", dto.UpsertAdherenceRequest{
		SessionInstanceGUID: "inst-1",
		StartedOn:           &started,
	})
	require.NoError(t, err)

	require.Len(t, f.records.upserts, 1)
	saved := f.records.upserts[0]
	assert.Equal(t, "trialworks", saved.AppID)
	assert.NotEmpty(t, saved.ID)
	assert.Empty(t, f.cache.store, "adherence writes must drop every cached report variant")

	require.Len(t, f.queue.jobs, 1)
	assert.Equal(t, JobTypeWeeklyRegen, f.queue.jobs[0].Type)
	assert.Equal(t, "user-1", f.queue.jobs[0].UserID)
}

func TestAdherenceServiceUpsertRecordRejectsInvertedTimestamps(t *testing.T) {
	f := newAdherenceFixture(t)

	started := fixtureT0.Add(4 * time.Hour)
	finished := fixtureT0.Add(2 * time.Hour)
	err := f.service.UpsertRecord(context.Background(), "study-1", "user-1", dto.UpsertAdherenceRequest{
		SessionInstanceGUID: "inst-1",
		StartedOn:           &started,
		FinishedOn:          &finished,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.Empty(t, f.records.upserts)
	assert.Empty(t, f.queue.jobs)
}

func TestAdherenceServiceRecordEventQueuesRegeneration(t *testing.T) {
	f := newAdherenceFixture(t)

	err := f.service.RecordEvent(context.Background(), "study-1", "user-1", dto.RecordEventRequest{
		EventID:   "custom:clinic_visit",
		Timestamp: fixtureT0.AddDate(0, 0, 1),
	})
	require.NoError(t, err)

	require.Len(t, f.events.upserts, 1)
	assert.Equal(t, "custom:clinic_visit", f.events.upserts[0].EventID)
	require.Len(t, f.queue.jobs, 1)
}

func TestAdherenceServiceHandleRegenerationJob(t *testing.T) {
	f := newAdherenceFixture(t)

	err := f.service.HandleRegenerationJob(context.Background(), jobs.Job{
		Type:    JobTypeWeeklyRegen,
		StudyID: "study-1",
		UserID:  "user-1",
	})
	require.NoError(t, err)
	assert.Len(t, f.weekly.upserts, 1)
}

func TestAdherenceServiceExportScheduleCSV(t *testing.T) {
	f := newAdherenceFixture(t)

	payload, contentType, err := f.service.ExportSchedule(context.Background(), "study-1", "user-1", dto.ScheduleExportQuery{Format: "csv"})
	require.NoError(t, err)
	assert.Equal(t, "text/csv", contentType)
	assert.Contains(t, string(payload), "Baseline Survey")
	assert.Contains(t, string(payload), "2015-02-02")
}
