package bot

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/sirupsen/logrus"
)

// Client is the subset of the Bot API used outside of dispatch.
type Client interface {
	Messenger
	GetMe(ctx context.Context) (*models.User, error)
	SetMyCommands(ctx context.Context, params *tgbot.SetMyCommandsParams) (bool, error)
	SetWebhook(ctx context.Context, params *tgbot.SetWebhookParams) (bool, error)
}

// NewClient creates a Bot API client without the startup getMe round trip.
// serverURL may be empty for api.telegram.org.
func NewClient(token, serverURL string) (*tgbot.Bot, error) {
	opts := []tgbot.Option{
		tgbot.WithSkipGetMe(),
		tgbot.WithHTTPClient(time.Minute, &http.Client{Timeout: 30 * time.Second}),
	}
	if serverURL != "" {
		opts = append(opts, tgbot.WithServerURL(serverURL))
	}
	return tgbot.New(token, opts...)
}

// Commands is the command menu shown in private and group chats.
var Commands = []models.BotCommand{
	{Command: "start", Description: "🏋️ Start Spot Buddy - Track your gym workouts"},
	{Command: "help", Description: "❓ Get help and learn how to use Spot Buddy"},
}

// Username asks Telegram for the bot's username. Failures yield "".
func Username(ctx context.Context, client Client, logger logrus.FieldLogger) string {
	me, err := client.GetMe(ctx)
	if err != nil {
		logger.WithError(err).Warn("getMe failed, group invite button disabled")
		return ""
	}
	return me.Username
}

// Setup publishes the command menu for both scopes and points the webhook
// at webhookURL. Every step is attempted; failures are logged and joined.
func Setup(ctx context.Context, client Client, webhookURL string, logger logrus.FieldLogger) error {
	var errs []error

	scopes := []struct {
		name  string
		scope models.BotCommandScope
	}{
		{"default", &models.BotCommandScopeDefault{}},
		{"all_group_chats", &models.BotCommandScopeAllGroupChats{}},
	}
	for _, s := range scopes {
		if _, err := client.SetMyCommands(ctx, &tgbot.SetMyCommandsParams{
			Commands: Commands,
			Scope:    s.scope,
		}); err != nil {
			logger.WithError(err).WithField("scope", s.name).Error("failed to set bot commands")
			errs = append(errs, fmt.Errorf("set commands (%s): %w", s.name, err))
		}
	}

	if _, err := client.SetWebhook(ctx, &tgbot.SetWebhookParams{URL: webhookURL}); err != nil {
		logger.WithError(err).WithField("url", webhookURL).Error("failed to register webhook")
		errs = append(errs, fmt.Errorf("set webhook: %w", err))
	} else {
		logger.WithField("url", webhookURL).Info("webhook registered")
	}
	return errors.Join(errs...)
}
