package api

import (
	"context"
	"net/http"

	"spotbuddy/workout-bot/internal/bot"

	"github.com/gin-gonic/gin"
	"github.com/go-telegram/bot/models"
	"github.com/sirupsen/logrus"
)

// UpdateDispatcher handles one Telegram update.
type UpdateDispatcher interface {
	Dispatch(ctx context.Context, update *models.Update) bot.Result
}

type WebhookHandler struct {
	dispatcher UpdateDispatcher
	logger     logrus.FieldLogger
}

func NewWebhookHandler(dispatcher UpdateDispatcher, logger logrus.FieldLogger) *WebhookHandler {
	return &WebhookHandler{dispatcher: dispatcher, logger: logger}
}

// HandleUpdate handles POST /webhook. It always answers 200 so Telegram
// does not redeliver updates that failed on our side.
func (h *WebhookHandler) HandleUpdate(c *gin.Context) {
	var update models.Update
	if err := c.ShouldBindJSON(&update); err != nil {
		requestLogger(c, h.logger).WithError(err).Warn("undecodable webhook payload")
		c.String(http.StatusOK, "ok")
		return
	}

	// Dispatch logs and answers its own failures.
	res := h.dispatcher.Dispatch(c.Request.Context(), &update)
	requestLogger(c, h.logger).WithFields(logrus.Fields{
		"update_id": update.ID,
		"event":     res.Event,
		"failed":    res.Err != nil,
	}).Debug("webhook update dispatched")
	c.String(http.StatusOK, "ok")
}
