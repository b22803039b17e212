package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/trialworks/adherence-api/internal/dto"
	"github.com/trialworks/adherence-api/internal/service"
	appErrors "github.com/trialworks/adherence-api/pkg/errors"
	"github.com/trialworks/adherence-api/pkg/response"
)

// ScheduleHandler exposes the resolved participant schedule.
type ScheduleHandler struct {
	adherence *service.AdherenceService
}

// NewScheduleHandler constructs the schedule handler.
func NewScheduleHandler(adherence *service.AdherenceService) *ScheduleHandler {
	return &ScheduleHandler{adherence: adherence}
}

// Schedule returns the timeline resolved to concrete dates for one
// participant.
// @Summary Resolved participant schedule
// @Tags schedule
// @Produce json
// @Param studyId path string true "study id"
// @Param userId path string true "participant id"
// @Param tz query string false "IANA time zone"
// @Success 200 {object} response.Envelope{data=models.ParticipantSchedule}
// @Router /studies/{studyId}/participants/{userId}/schedule [get]
func (h *ScheduleHandler) Schedule(c *gin.Context) {
	var query dto.AdherenceQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid query parameters"))
		return
	}

	schedule, err := h.adherence.Schedule(c.Request.Context(), c.Param("studyId"), c.Param("userId"), query.TimeZone)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, schedule)
}

// Export streams the resolved schedule as a CSV or PDF attachment.
func (h *ScheduleHandler) Export(c *gin.Context) {
	var query dto.ScheduleExportQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid query parameters"))
		return
	}
	if query.Format == "" {
		query.Format = "csv"
	}

	userID := c.Param("userId")
	payload, contentType, err := h.adherence.ExportSchedule(c.Request.Context(), c.Param("studyId"), userID, query)
	if err != nil {
		response.Error(c, err)
		return
	}

	filename := fmt.Sprintf("schedule-%s.%s", userID, query.Format)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, contentType, payload)
}
