package api

import (
	"net/http"

	"spotbuddy/workout-bot/internal/domain"
	"spotbuddy/workout-bot/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type UserHandler struct {
	userService service.UserService
	logger      logrus.FieldLogger
}

func NewUserHandler(userService service.UserService, logger logrus.FieldLogger) *UserHandler {
	return &UserHandler{userService: userService, logger: logger}
}

// GetUser handles GET /api/users/:userId.
func (h *UserHandler) GetUser(c *gin.Context) {
	userID, err := domain.ParseTelegramID(c.Param("userId"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid user ID format.")
		return
	}
	user, err := h.userService.GetUser(c.Request.Context(), userID)
	if err != nil {
		respondServiceError(c, h.logger, err, "Failed to retrieve user.")
		return
	}
	c.JSON(http.StatusOK, user)
}
