// Package bot adapts Telegram updates to the workout services.
package bot

import (
	"encoding/json"
	"strings"

	"github.com/go-telegram/bot/models"
)

// Event is the kind of update the bot reacts to.
type Event string

const (
	EventIgnored       Event = "ignored"
	EventStart         Event = "start"
	EventHelp          Event = "help"
	EventWorkoutLogged Event = "workout_logged"
)

// WebAppPayload is what the mini-app hands to Telegram.WebApp.sendData.
type WebAppPayload struct {
	Action  string `json:"action"`
	Summary string `json:"summary"`
}

const actionWorkoutLogged = "workout_logged"

// Classify maps an update to an Event, accepting commands addressed to any
// bot.
func Classify(update *models.Update) Event {
	return ClassifyFor(update, "")
}

// ClassifyFor is Classify for a bot named username: "/start@other_bot" is
// ignored once the name is known.
func ClassifyFor(update *models.Update, username string) Event {
	if update == nil || update.Message == nil {
		return EventIgnored
	}
	msg := update.Message

	if msg.WebAppData != nil {
		payload, err := parseWebAppData(msg.WebAppData.Data)
		if err != nil || payload.Action != actionWorkoutLogged {
			return EventIgnored
		}
		return EventWorkoutLogged
	}

	switch command(msg.Text, username) {
	case "start":
		return EventStart
	case "help":
		return EventHelp
	}
	return EventIgnored
}

// command extracts "start" from "/start", "/start@spot_buddy_bot" or
// "/start payload". It returns "" for plain text.
func command(text, username string) string {
	fields := strings.Fields(text)
	if len(fields) == 0 || !strings.HasPrefix(fields[0], "/") {
		return ""
	}
	name, target, addressed := strings.Cut(fields[0][1:], "@")
	if addressed && username != "" && !strings.EqualFold(target, username) {
		return ""
	}
	return strings.ToLower(name)
}

func parseWebAppData(data string) (WebAppPayload, error) {
	var p WebAppPayload
	err := json.Unmarshal([]byte(data), &p)
	return p, err
}
