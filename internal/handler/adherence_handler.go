package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/trialworks/adherence-api/internal/dto"
	"github.com/trialworks/adherence-api/internal/service"
	appErrors "github.com/trialworks/adherence-api/pkg/errors"
	"github.com/trialworks/adherence-api/pkg/response"
)

// AdherenceHandler exposes the adherence report and write endpoints.
type AdherenceHandler struct {
	adherence *service.AdherenceService
}

// NewAdherenceHandler constructs the adherence handler.
func NewAdherenceHandler(adherence *service.AdherenceService) *AdherenceHandler {
	return &AdherenceHandler{adherence: adherence}
}

// EventStream returns the full-history adherence report.
// @Summary Full-history adherence report
// @Tags adherence
// @Produce json
// @Param studyId path string true "study id"
// @Param userId path string true "participant id"
// @Param tz query string false "IANA time zone"
// @Param activeOnly query bool false "restrict to currently open windows"
// @Success 200 {object} response.Envelope{data=models.EventStreamReport}
// @Router /studies/{studyId}/participants/{userId}/adherence/eventstream [get]
func (h *AdherenceHandler) EventStream(c *gin.Context) {
	var query dto.AdherenceQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid query parameters"))
		return
	}

	start := time.Now()
	report, err := h.adherence.EventStreamReport(c.Request.Context(), c.Param("studyId"), c.Param("userId"), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	meta := map[string]interface{}{"processing_time_ms": time.Since(start).Milliseconds()}
	response.JSON(c, http.StatusOK, report, meta)
}

// Weekly returns the current-week adherence report.
// @Summary Current-week adherence report
// @Tags adherence
// @Produce json
// @Param studyId path string true "study id"
// @Param userId path string true "participant id"
// @Param tz query string false "IANA time zone"
// @Success 200 {object} response.Envelope{data=models.WeeklyAdherenceReport}
// @Router /studies/{studyId}/participants/{userId}/adherence/weekly [get]
func (h *AdherenceHandler) Weekly(c *gin.Context) {
	var query dto.AdherenceQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid query parameters"))
		return
	}

	report, err := h.adherence.WeeklyReport(c.Request.Context(), c.Param("studyId"), c.Param("userId"), query.TimeZone)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report)
}

// UpsertRecord replaces the participant's adherence record for one session
// instance.
func (h *AdherenceHandler) UpsertRecord(c *gin.Context) {
	var req dto.UpsertAdherenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid adherence payload"))
		return
	}

	if err := h.adherence.UpsertRecord(c.Request.Context(), c.Param("studyId"), c.Param("userId"), req); err != nil {
		response.Error(c, err)
		return
	}
	meta := map[string]interface{}{}
	if claims := claimsFromContext(c); claims != nil {
		meta["recorded_by"] = claims.UserID
	}
	response.JSON(c, http.StatusOK, gin.H{"status": "accepted"}, meta)
}

// RecordEvent registers or re-times an activity event.
func (h *AdherenceHandler) RecordEvent(c *gin.Context) {
	var req dto.RecordEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid event payload"))
		return
	}

	if err := h.adherence.RecordEvent(c.Request.Context(), c.Param("studyId"), c.Param("userId"), req); err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, gin.H{"status": "recorded"})
}
