package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/trialworks/adherence-api/internal/dto"
	"github.com/trialworks/adherence-api/internal/models"
	appErrors "github.com/trialworks/adherence-api/pkg/errors"
	"github.com/trialworks/adherence-api/pkg/export"
	"github.com/trialworks/adherence-api/pkg/jobs"
)

// JobTypeWeeklyRegen identifies a weekly report regeneration job.
const JobTypeWeeklyRegen = "weekly_regen"

type timelineRepository interface {
	GetByStudy(ctx context.Context, studyID string) (*models.Timeline, error)
}

type adherenceRecordRepository interface {
	ListByParticipant(ctx context.Context, studyID, userID string) ([]models.AdherenceRecord, error)
	Upsert(ctx context.Context, record *models.AdherenceRecord) error
}

type activityEventRepository interface {
	MapByParticipant(ctx context.Context, studyID, userID string) (models.EventTimestampMap, error)
	Upsert(ctx context.Context, event *models.ActivityEvent) error
}

type weeklyReportRepository interface {
	Upsert(ctx context.Context, report *models.WeeklyAdherenceReport) error
}

type reportDispatcher interface {
	Enqueue(job jobs.Job) error
}

// AdherenceConfig tunes the orchestration layer.
type AdherenceConfig struct {
	AppID           string
	CacheTTL        time.Duration
	DefaultTimeZone string
	ExportMaxRows   int
}

// AdherenceServiceParams bundles the dependencies of AdherenceService.
type AdherenceServiceParams struct {
	Timelines     timelineRepository
	Records       adherenceRecordRepository
	Events        activityEventRepository
	WeeklyReports weeklyReportRepository
	EventStreams  *EventStreamService
	Weekly        *WeeklyService
	Schedules     *ParticipantScheduleService
	Cache         *CacheService
	Metrics       *MetricsService
	Queue         reportDispatcher
	CSV           *export.CSVExporter
	PDF           *export.PDFExporter
	Logger        *zap.Logger
	Config        AdherenceConfig
	Now           func() time.Time
}

// AdherenceService loads participant data, drives the report generators,
// and keeps the cached and persisted report copies in sync with writes.
type AdherenceService struct {
	timelines     timelineRepository
	records       adherenceRecordRepository
	events        activityEventRepository
	weeklyReports weeklyReportRepository
	eventStreams  *EventStreamService
	weekly        *WeeklyService
	schedules     *ParticipantScheduleService
	cache         *CacheService
	metrics       *MetricsService
	queue         reportDispatcher
	csv           *export.CSVExporter
	pdf           *export.PDFExporter
	logger        *zap.Logger
	config        AdherenceConfig
	now           func() time.Time
}

// NewAdherenceService constructs the orchestrator.
func NewAdherenceService(params AdherenceServiceParams) *AdherenceService {
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg := params.Config
	if cfg.AppID == "" {
		cfg.AppID = "adherence"
	}
	if cfg.DefaultTimeZone == "" {
		cfg.DefaultTimeZone = "UTC"
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &AdherenceService{
		timelines:     params.Timelines,
		records:       params.Records,
		events:        params.Events,
		weeklyReports: params.WeeklyReports,
		eventStreams:  params.EventStreams,
		weekly:        params.Weekly,
		schedules:     params.Schedules,
		cache:         params.Cache,
		metrics:       params.Metrics,
		queue:         params.Queue,
		csv:           params.CSV,
		pdf:           params.PDF,
		logger:        logger,
		config:        cfg,
		now:           now,
	}
}

// AttachQueue wires the regeneration dispatcher after construction. The
// queue's handler is a method on this service, so the two cannot be built
// in one step.
func (s *AdherenceService) AttachQueue(queue reportDispatcher) {
	s.queue = queue
}

// EventStreamReport returns the full-history adherence report for one
// participant, cached per (study, user, zone, visibility) variant.
func (s *AdherenceService) EventStreamReport(ctx context.Context, studyID, userID string, query dto.AdherenceQuery) (*models.EventStreamReport, error) {
	tz := s.resolveTimeZone(query.TimeZone)
	key := eventStreamCacheKey(studyID, userID, tz, query.ActiveOnly)

	cached := &models.EventStreamReport{}
	if hit, _ := s.cache.Get(ctx, key, cached); hit {
		return cached, nil
	}

	state, _, err := s.buildState(ctx, studyID, userID, tz, query.ActiveOnly)
	if err != nil {
		return nil, err
	}

	start := s.now()
	report, err := s.eventStreams.Generate(state)
	if err != nil {
		return nil, err
	}
	s.metrics.ObserveReportGeneration("eventstream", s.now().Sub(start))

	if err := s.cache.Set(ctx, key, report, s.config.CacheTTL); err != nil {
		s.logger.Warn("failed to cache event stream report", zap.String("study_id", studyID), zap.Error(err))
	}
	return report, nil
}

// WeeklyReport returns the current-week report, regenerating and
// persisting it on a cache miss.
func (s *AdherenceService) WeeklyReport(ctx context.Context, studyID, userID, timeZone string) (*models.WeeklyAdherenceReport, error) {
	tz := s.resolveTimeZone(timeZone)
	key := weeklyCacheKey(studyID, userID, tz)

	cached := &models.WeeklyAdherenceReport{}
	if hit, _ := s.cache.Get(ctx, key, cached); hit {
		return cached, nil
	}
	return s.regenerateWeekly(ctx, studyID, userID, tz)
}

// Schedule resolves the study timeline against the participant's events.
func (s *AdherenceService) Schedule(ctx context.Context, studyID, userID, timeZone string) (*models.ParticipantSchedule, error) {
	tz := s.resolveTimeZone(timeZone)
	key := scheduleCacheKey(studyID, userID, tz)

	cached := &models.ParticipantSchedule{}
	if hit, _ := s.cache.Get(ctx, key, cached); hit {
		return cached, nil
	}

	state, timeline, err := s.buildState(ctx, studyID, userID, tz, false)
	if err != nil {
		return nil, err
	}

	start := s.now()
	schedule, err := s.schedules.Generate(state, timeline)
	if err != nil {
		return nil, err
	}
	s.metrics.ObserveReportGeneration("schedule", s.now().Sub(start))

	if err := s.cache.Set(ctx, key, schedule, s.config.CacheTTL); err != nil {
		s.logger.Warn("failed to cache schedule", zap.String("study_id", studyID), zap.Error(err))
	}
	return schedule, nil
}

// ExportSchedule renders the resolved schedule as CSV or PDF bytes.
func (s *AdherenceService) ExportSchedule(ctx context.Context, studyID, userID string, query dto.ScheduleExportQuery) ([]byte, string, error) {
	schedule, err := s.Schedule(ctx, studyID, userID, query.TimeZone)
	if err != nil {
		return nil, "", err
	}
	if s.config.ExportMaxRows > 0 && len(schedule.Schedule) > s.config.ExportMaxRows {
		return nil, "", appErrors.Clone(appErrors.ErrValidation,
			fmt.Sprintf("schedule exceeds the export limit of %d rows", s.config.ExportMaxRows))
	}

	dataset := scheduleDataset(schedule)
	switch query.Format {
	case "pdf":
		payload, err := s.pdf.Render(dataset, fmt.Sprintf("Participant schedule %s", userID))
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
		}
		return payload, "application/pdf", nil
	default:
		payload, err := s.csv.Render(dataset)
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
		}
		return payload, "text/csv", nil
	}
}

// UpsertRecord replaces the participant's adherence record for a session
// instance, invalidates cached reports, and queues a weekly regeneration.
func (s *AdherenceService) UpsertRecord(ctx context.Context, studyID, userID string, req dto.UpsertAdherenceRequest) error {
	if req.StartedOn != nil && req.FinishedOn != nil && req.FinishedOn.Before(*req.StartedOn) {
		return appErrors.Clone(appErrors.ErrValidation, "finishedOn precedes startedOn")
	}

	record := &models.AdherenceRecord{
		ID:                  uuid.NewString(),
		AppID:               s.config.AppID,
		StudyID:             studyID,
		UserID:              userID,
		SessionInstanceGUID: req.SessionInstanceGUID,
		StartedOn:           req.StartedOn,
		FinishedOn:          req.FinishedOn,
		Declined:            req.Declined,
		ClientTimeZone:      req.ClientTimeZone,
		UpdatedAt:           s.now().UTC(),
	}
	if err := s.records.Upsert(ctx, record); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save adherence record")
	}
	s.afterAdherenceWrite(ctx, studyID, userID)
	return nil
}

// RecordEvent stores or re-times an activity event for the participant.
func (s *AdherenceService) RecordEvent(ctx context.Context, studyID, userID string, req dto.RecordEventRequest) error {
	event := &models.ActivityEvent{
		ID:        uuid.NewString(),
		AppID:     s.config.AppID,
		StudyID:   studyID,
		UserID:    userID,
		EventID:   req.EventID,
		Timestamp: req.Timestamp,
		CreatedAt: s.now().UTC(),
	}
	if err := s.events.Upsert(ctx, event); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save activity event")
	}
	s.afterAdherenceWrite(ctx, studyID, userID)
	return nil
}

// HandleRegenerationJob is the queue handler: it rebuilds and re-persists
// the participant's weekly report.
func (s *AdherenceService) HandleRegenerationJob(ctx context.Context, job jobs.Job) error {
	if job.Attempt > 0 {
		s.metrics.RecordJobRetry()
	}
	_, err := s.regenerateWeekly(ctx, job.StudyID, job.UserID, s.config.DefaultTimeZone)
	return err
}

func (s *AdherenceService) afterAdherenceWrite(ctx context.Context, studyID, userID string) {
	if err := s.cache.Invalidate(ctx, participantCachePattern(studyID, userID)); err != nil {
		s.logger.Warn("failed to invalidate cached reports",
			zap.String("study_id", studyID),
			zap.String("user_id", userID),
			zap.Error(err))
	}
	if s.queue == nil {
		return
	}
	job := jobs.Job{
		ID:      uuid.NewString(),
		Type:    JobTypeWeeklyRegen,
		StudyID: studyID,
		UserID:  userID,
	}
	if err := s.queue.Enqueue(job); err != nil {
		s.logger.Warn("failed to queue weekly regeneration",
			zap.String("study_id", studyID),
			zap.String("user_id", userID),
			zap.Error(err))
	}
}

func (s *AdherenceService) regenerateWeekly(ctx context.Context, studyID, userID, tz string) (*models.WeeklyAdherenceReport, error) {
	state, _, err := s.buildState(ctx, studyID, userID, tz, false)
	if err != nil {
		return nil, err
	}

	start := s.now()
	report, err := s.weekly.Generate(state)
	if err != nil {
		return nil, err
	}
	s.metrics.ObserveReportGeneration("weekly", s.now().Sub(start))

	report.AppID = s.config.AppID
	report.StudyID = studyID
	report.UserID = userID
	if s.weeklyReports != nil {
		if err := s.weeklyReports.Upsert(ctx, report); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist weekly report")
		}
	}
	if err := s.cache.Set(ctx, weeklyCacheKey(studyID, userID, tz), report, s.config.CacheTTL); err != nil {
		s.logger.Warn("failed to cache weekly report", zap.String("study_id", studyID), zap.Error(err))
	}
	return report, nil
}

func (s *AdherenceService) buildState(ctx context.Context, studyID, userID, tz string, showActive bool) (*AdherenceState, *models.Timeline, error) {
	timeline, err := s.timelines.GetByStudy(ctx, studyID)
	if err != nil {
		return nil, nil, err
	}
	records, err := s.records.ListByParticipant(ctx, studyID, userID)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load adherence records")
	}
	events, err := s.events.MapByParticipant(ctx, studyID, userID)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load activity events")
	}

	state, err := NewAdherenceState(AdherenceStateParams{
		Metadata:       timeline.Metadata,
		Records:        records,
		Events:         events,
		Now:            s.now(),
		ClientTimeZone: tz,
		ShowActive:     showActive,
	})
	if err != nil {
		return nil, nil, err
	}
	return state, timeline, nil
}

func (s *AdherenceService) resolveTimeZone(tz string) string {
	if tz == "" {
		return s.config.DefaultTimeZone
	}
	return tz
}

func scheduleDataset(schedule *models.ParticipantSchedule) export.Dataset {
	headers := []string{"Start Date", "End Date", "Start Time", "Session", "Instance", "Burst"}
	rows := make([]map[string]string, 0, len(schedule.Schedule))
	names := make(map[string]string, len(schedule.Sessions))
	for _, sess := range schedule.Sessions {
		names[sess.GUID] = sess.Name
	}
	for _, item := range schedule.Schedule {
		burst := ""
		if item.StudyBurstID != "" {
			burst = fmt.Sprintf("%s %d", item.StudyBurstID, item.StudyBurstNum)
		}
		name := names[item.RefGUID]
		if name == "" {
			name = item.RefGUID
		}
		rows = append(rows, map[string]string{
			"Start Date": item.StartDate,
			"End Date":   item.EndDate,
			"Start Time": item.StartTime,
			"Session":    name,
			"Instance":   item.InstanceGUID,
			"Burst":      burst,
		})
	}
	return export.Dataset{Headers: headers, Rows: rows}
}
