package api

import (
	"net/http"
	"strconv"
	"time"

	"spotbuddy/workout-bot/internal/domain"
	"spotbuddy/workout-bot/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// GroupHandler serves the per-group views of the mini-app.
type GroupHandler struct {
	groupService    service.GroupService
	calendarService service.CalendarService
	exportService   service.ExportService
	now             func() time.Time
	logger          logrus.FieldLogger
}

func NewGroupHandler(
	groupService service.GroupService,
	calendarService service.CalendarService,
	exportService service.ExportService,
	logger logrus.FieldLogger,
) *GroupHandler {
	return &GroupHandler{
		groupService:    groupService,
		calendarService: calendarService,
		exportService:   exportService,
		now:             time.Now,
		logger:          logger,
	}
}

func groupIDParam(c *gin.Context) (domain.TelegramID, bool) {
	id, err := domain.ParseTelegramID(c.Param("groupId"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid group ID format.")
		return 0, false
	}
	return id, true
}

// GetMembers handles GET /api/groups/:groupId/members.
func (h *GroupHandler) GetMembers(c *gin.Context) {
	groupID, ok := groupIDParam(c)
	if !ok {
		return
	}
	members, err := h.groupService.GetMembers(c.Request.Context(), groupID)
	if err != nil {
		respondServiceError(c, h.logger, err, "Failed to retrieve group members.")
		return
	}
	c.JSON(http.StatusOK, members)
}

// GetWorkoutsByDate handles GET /api/groups/:groupId/workouts/:date.
func (h *GroupHandler) GetWorkoutsByDate(c *gin.Context) {
	groupID, ok := groupIDParam(c)
	if !ok {
		return
	}
	day, err := domain.ParseDate(c.Param("date"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Date must be formatted as YYYY-MM-DD.")
		return
	}
	workouts, err := h.groupService.GetWorkoutsByDate(c.Request.Context(), groupID, day)
	if err != nil {
		respondServiceError(c, h.logger, err, "Failed to retrieve workouts for date.")
		return
	}
	c.JSON(http.StatusOK, workouts)
}

// periodOrCurrent reads month and year, defaulting each to the current
// UTC month.
func (h *GroupHandler) periodOrCurrent(c *gin.Context) (domain.MonthPeriod, bool) {
	now := h.now().UTC()
	rawYear := c.DefaultQuery("year", strconv.Itoa(now.Year()))
	rawMonth := c.DefaultQuery("month", strconv.Itoa(int(now.Month())))
	period, err := parseMonthPeriod(rawYear, rawMonth)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, err.Error())
		return domain.MonthPeriod{}, false
	}
	return period, true
}

// GetCalendar handles GET /api/groups/:groupId/calendar?month=&year=.
func (h *GroupHandler) GetCalendar(c *gin.Context) {
	groupID, ok := groupIDParam(c)
	if !ok {
		return
	}
	period, ok := h.periodOrCurrent(c)
	if !ok {
		return
	}
	cal, err := h.calendarService.GetCalendar(c.Request.Context(), groupID, period)
	if err != nil {
		respondServiceError(c, h.logger, err, "Failed to build calendar.")
		return
	}
	c.JSON(http.StatusOK, cal)
}

// ExportMonth handles GET /api/groups/:groupId/export?month=&year=.
func (h *GroupHandler) ExportMonth(c *gin.Context) {
	groupID, ok := groupIDParam(c)
	if !ok {
		return
	}
	period, ok := h.periodOrCurrent(c)
	if !ok {
		return
	}
	export, err := h.exportService.ExportGroupMonth(c.Request.Context(), groupID, period)
	if err != nil {
		respondServiceError(c, h.logger, err, "Failed to export workouts.")
		return
	}
	c.JSON(http.StatusOK, export)
}

// ListExports handles GET /api/groups/:groupId/exports.
func (h *GroupHandler) ListExports(c *gin.Context) {
	groupID, ok := groupIDParam(c)
	if !ok {
		return
	}
	exports, err := h.exportService.ListExports(c.Request.Context(), groupID)
	if err != nil {
		respondServiceError(c, h.logger, err, "Failed to list exports.")
		return
	}
	c.JSON(http.StatusOK, exports)
}
