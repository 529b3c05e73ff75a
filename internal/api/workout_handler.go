package api

import (
	"errors"
	"net/http"
	"strconv"

	"spotbuddy/workout-bot/internal/domain"
	"spotbuddy/workout-bot/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// WorkoutHandler serves the workout endpoints used by the mini-app.
type WorkoutHandler struct {
	workoutService service.WorkoutService
	logger         logrus.FieldLogger
}

func NewWorkoutHandler(workoutService service.WorkoutService, logger logrus.FieldLogger) *WorkoutHandler {
	return &WorkoutHandler{workoutService: workoutService, logger: logger}
}

// --- DTOs for API (Data Transfer Objects) ---

// CreateWorkoutRequest is the mini-app submission. Identifiers may arrive
// as numbers or numeric strings.
type CreateWorkoutRequest struct {
	UserID    domain.TelegramID    `json:"user_id"`
	GroupID   domain.TelegramID    `json:"group_id"`
	Exercises []domain.Exercise    `json:"exercises"`
	Cardio    *service.CardioInput `json:"cardio"`
	Mood      domain.Mood          `json:"mood"`
	Notes     string               `json:"notes"`
	Timezone  string               `json:"timezone"`
}

// UpdateWorkoutRequest replaces a workout's content.
type UpdateWorkoutRequest struct {
	Exercises []domain.Exercise `json:"exercises"`
	Mood      domain.Mood       `json:"mood"`
	Notes     string            `json:"notes"`
}

// --- Handler Methods ---

// CreateWorkout handles POST /api/workouts.
func (h *WorkoutHandler) CreateWorkout(c *gin.Context) {
	var req CreateWorkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	workout, err := h.workoutService.CreateWorkout(c.Request.Context(), service.CreateWorkoutInput{
		UserID:    req.UserID,
		GroupID:   req.GroupID,
		Exercises: req.Exercises,
		Cardio:    req.Cardio,
		Mood:      req.Mood,
		Notes:     req.Notes,
		Timezone:  req.Timezone,
	})
	if err != nil {
		respondServiceError(c, h.logger, err, "Failed to save workout.")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "data": workout})
}

// GetUserWorkouts handles GET /api/workouts/:userId?groupId=.
func (h *WorkoutHandler) GetUserWorkouts(c *gin.Context) {
	userID, err := domain.ParseTelegramID(c.Param("userId"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid user ID format.")
		return
	}
	var groupID *domain.TelegramID
	if raw := c.Query("groupId"); raw != "" {
		id, err := domain.ParseTelegramID(raw)
		if err != nil {
			abortWithError(c, http.StatusBadRequest, "Invalid group ID format.")
			return
		}
		groupID = &id
	}

	workouts, err := h.workoutService.GetUserWorkouts(c.Request.Context(), userID, groupID)
	if err != nil {
		respondServiceError(c, h.logger, err, "Failed to retrieve workouts.")
		return
	}
	c.JSON(http.StatusOK, workouts)
}

// GetGroupWorkouts handles GET /api/workouts/group/:groupId?month=&year=.
// The range is bounded only when both month and year are given.
func (h *WorkoutHandler) GetGroupWorkouts(c *gin.Context) {
	groupID, err := domain.ParseTelegramID(c.Param("groupId"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid group ID format.")
		return
	}
	var period *domain.MonthPeriod
	if c.Query("month") != "" && c.Query("year") != "" {
		p, err := parseMonthPeriod(c.Query("year"), c.Query("month"))
		if err != nil {
			abortWithError(c, http.StatusBadRequest, err.Error())
			return
		}
		period = &p
	}

	workouts, err := h.workoutService.GetGroupWorkouts(c.Request.Context(), groupID, period)
	if err != nil {
		respondServiceError(c, h.logger, err, "Failed to retrieve group workouts.")
		return
	}
	c.JSON(http.StatusOK, workouts)
}

// UpdateWorkout handles PUT /api/workouts/:workoutId. An unknown id still
// answers 200 with null data.
func (h *WorkoutHandler) UpdateWorkout(c *gin.Context) {
	var req UpdateWorkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	workout, err := h.workoutService.UpdateWorkout(c.Request.Context(), c.Param("workoutId"), req.Exercises, req.Mood, req.Notes)
	if err != nil {
		respondServiceError(c, h.logger, err, "Failed to update workout.")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": workout})
}

// DeleteWorkout handles DELETE /api/workouts/:workoutId.
func (h *WorkoutHandler) DeleteWorkout(c *gin.Context) {
	if err := h.workoutService.DeleteWorkout(c.Request.Context(), c.Param("workoutId")); err != nil {
		respondServiceError(c, h.logger, err, "Failed to delete workout.")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Workout deleted"})
}

var errBadPeriod = errors.New("month and year must be numeric")

func parseMonthPeriod(rawYear, rawMonth string) (domain.MonthPeriod, error) {
	year, err := strconv.Atoi(rawYear)
	if err != nil {
		return domain.MonthPeriod{}, errBadPeriod
	}
	month, err := strconv.Atoi(rawMonth)
	if err != nil {
		return domain.MonthPeriod{}, errBadPeriod
	}
	return domain.NewMonthPeriod(year, month)
}

// respondServiceError maps service errors to status codes. Store failures
// are logged and answered with fallback.
func respondServiceError(c *gin.Context, logger logrus.FieldLogger, err error, fallback string) {
	switch {
	case errors.Is(err, service.ErrValidationFailed):
		abortWithError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrUserNotFound):
		abortWithError(c, http.StatusNotFound, "User not found.")
	case errors.Is(err, service.ErrExportDisabled):
		abortWithError(c, http.StatusNotImplemented, "Exports are not configured.")
	default:
		requestLogger(c, logger).WithError(err).WithField("route", c.FullPath()).Error("service call failed")
		abortWithError(c, http.StatusInternalServerError, fallback)
	}
}
