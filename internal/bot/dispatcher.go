package bot

import (
	"context"
	"fmt"
	"strings"

	"spotbuddy/workout-bot/internal/domain"
	"spotbuddy/workout-bot/internal/observability"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/sirupsen/logrus"
)

// Messenger sends chat messages. *tgbot.Bot implements it.
type Messenger interface {
	SendMessage(ctx context.Context, params *tgbot.SendMessageParams) (*models.Message, error)
}

// Registrar records first contact with the bot.
type Registrar interface {
	RegisterContact(ctx context.Context, user *domain.User, group *domain.Group) error
}

// Result reports what Dispatch did with one update.
type Result struct {
	Event Event
	Err   error
}

// Dispatcher routes classified updates to their handlers.
type Dispatcher struct {
	messenger   Messenger
	registrar   Registrar
	miniAppURL  string
	botUsername string
	logger      logrus.FieldLogger
}

// NewDispatcher builds a dispatcher. botUsername may be empty when getMe
// failed; the "Add to Group" button is then left out.
func NewDispatcher(messenger Messenger, registrar Registrar, miniAppURL, botUsername string, logger logrus.FieldLogger) *Dispatcher {
	return &Dispatcher{
		messenger:   messenger,
		registrar:   registrar,
		miniAppURL:  miniAppURL,
		botUsername: botUsername,
		logger:      logger,
	}
}

var errorReplies = map[Event]string{
	EventStart:         "Error starting app. Please try again.",
	EventHelp:          "Error getting help. Please try again.",
	EventWorkoutLogged: "Couldn't share your workout with the group. Please try again.",
}

// Dispatch handles one update. Handler failures, panics included, are
// logged and answered with the event's error text; they never propagate.
func (d *Dispatcher) Dispatch(ctx context.Context, update *models.Update) Result {
	res := Result{Event: ClassifyFor(update, d.botUsername)}
	if res.Event == EventIgnored {
		observability.RecordBotUpdate(string(res.Event), "ok")
		return res
	}

	log := d.logger.WithFields(logrus.Fields{
		"update_id": update.ID,
		"event":     res.Event,
		"chat_id":   update.Message.Chat.ID,
	})
	res.Err = d.handle(ctx, res.Event, update.Message)
	if res.Err == nil {
		observability.RecordBotUpdate(string(res.Event), "ok")
		log.Debug("update handled")
		return res
	}

	observability.RecordBotUpdate(string(res.Event), "error")
	log.WithError(res.Err).Error("bot handler failed")
	if _, err := d.messenger.SendMessage(ctx, &tgbot.SendMessageParams{
		ChatID: update.Message.Chat.ID,
		Text:   errorReplies[res.Event],
	}); err != nil {
		log.WithError(err).Warn("failed to send error reply")
	}
	return res
}

func (d *Dispatcher) handle(ctx context.Context, event Event, msg *models.Message) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()

	switch event {
	case EventStart:
		return d.handleStart(ctx, msg)
	case EventHelp:
		return d.handleHelp(ctx, msg)
	case EventWorkoutLogged:
		return d.handleWorkoutLogged(ctx, msg)
	}
	return nil
}

func (d *Dispatcher) handleStart(ctx context.Context, msg *models.Message) error {
	if msg.From == nil {
		return fmt.Errorf("start without sender in chat %d", msg.Chat.ID)
	}
	user := &domain.User{
		TelegramID: domain.TelegramID(msg.From.ID),
		Username:   msg.From.Username,
		FirstName:  msg.From.FirstName,
	}
	group := &domain.Group{
		TelegramChatID: domain.TelegramID(msg.Chat.ID),
		Title:          msg.Chat.Title,
		Type:           string(msg.Chat.Type),
	}
	if err := d.registrar.RegisterContact(ctx, user, group); err != nil {
		return fmt.Errorf("register contact: %w", err)
	}

	buttons := [][]models.InlineKeyboardButton{
		{{Text: "💪 Open Spot Buddy", URL: d.deepLink(user.TelegramID, group.TelegramChatID)}},
	}
	if d.botUsername != "" {
		buttons = append(buttons, []models.InlineKeyboardButton{
			{Text: "➕ Add to Group", URL: "https://t.me/" + d.botUsername + "?startgroup=true"},
		})
	}

	_, err := d.messenger.SendMessage(ctx, &tgbot.SendMessageParams{
		ChatID:      msg.Chat.ID,
		Text:        welcomeText(msg.From.FirstName),
		ParseMode:   models.ParseModeMarkdownV1,
		ReplyMarkup: &models.InlineKeyboardMarkup{InlineKeyboard: buttons},
	})
	return err
}

func (d *Dispatcher) deepLink(userID, groupID domain.TelegramID) string {
	return fmt.Sprintf("%s?user_id=%d&group_id=%d", d.miniAppURL, userID, groupID)
}

func (d *Dispatcher) handleHelp(ctx context.Context, msg *models.Message) error {
	_, err := d.messenger.SendMessage(ctx, &tgbot.SendMessageParams{
		ChatID:    msg.Chat.ID,
		Text:      helpText,
		ParseMode: models.ParseModeMarkdownV1,
	})
	return err
}

func (d *Dispatcher) handleWorkoutLogged(ctx context.Context, msg *models.Message) error {
	payload, err := parseWebAppData(msg.WebAppData.Data)
	if err != nil {
		return fmt.Errorf("decode web app data: %w", err)
	}
	name := "Someone"
	if msg.From != nil && msg.From.FirstName != "" {
		name = msg.From.FirstName
	}
	_, err = d.messenger.SendMessage(ctx, &tgbot.SendMessageParams{
		ChatID: msg.Chat.ID,
		Text:   name + " just logged a workout!\n" + payload.Summary,
	})
	return err
}

var markdownEscaper = strings.NewReplacer("_", `\_`, "*", `\*`, "`", "\\`", "[", `\[`)

func welcomeText(firstName string) string {
	if firstName == "" {
		firstName = "User"
	}
	return fmt.Sprintf(welcomeTemplate, markdownEscaper.Replace(firstName))
}

const welcomeTemplate = `👋 Welcome to Spot Buddy, %s!

🏋️ *Track Your Workouts* - Log exercises, sets, reps, duration, mood & notes
📱 *Stay Motivated* - See your gym buddy's workouts in real-time
🎯 *Multiple Groups* - Use it for yourself or with friends

*How to Use:*
1️⃣ Tap below to open the app
2️⃣ Log your workouts
3️⃣ *Add to a group* to see your friends' workouts and keep each other accountable
4️⃣ Track progress together! 💪

*Commands:*
/start - Open Spot Buddy
/help - Get help

*Solo or Group?*
• Use it solo to track your personal workouts
• Add to group to see all member's workouts and motivate each other`

const helpText = `*Spot Buddy Help* 💪

*Features:*
📝 Log Workouts - Record exercises with sets, reps, duration
😊 Mood Tracking - Rate how you felt during workout
📝 Add Notes - Write down any observations
👥 Group Tracking - See all group members' workouts
📅 Calendar View - Visual calendar of all workouts

*How it Works:*
1. Use */start* to open the app
2. Tap "Log" to add a new workout
3. Tap "Calendar" to see group workouts
4. Tap any date to see who worked out that day

*Tips:*
💡 Add the bot to your group to track workouts together
💡 Workouts show up in every group you share

Need more help? Check the app interface!`
