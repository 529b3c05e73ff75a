package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// TelegramID is a user or chat identifier issued by Telegram.
// Group chats have negative identifiers.
type TelegramID int64

// UnmarshalJSON accepts both numbers and numeric strings. The mini-app
// forwards identifiers straight from its URL query, so they arrive quoted.
func (id *TelegramID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = 0
		return nil
	}
	raw := string(data)
	if strings.HasPrefix(raw, `"`) {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		raw = strings.TrimSpace(s)
		if raw == "" || raw == "null" || raw == "undefined" {
			*id = 0
			return nil
		}
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid telegram id %q", raw)
	}
	*id = TelegramID(v)
	return nil
}

// ParseTelegramID parses a path or query parameter.
func ParseTelegramID(s string) (TelegramID, error) {
	v, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid telegram id %q", s)
	}
	return TelegramID(v), nil
}

func (id TelegramID) String() string {
	return strconv.FormatInt(int64(id), 10)
}

// User is created or refreshed the first time a person talks to the bot.
type User struct {
	TelegramID TelegramID `bson:"telegram_id" json:"telegram_id"`
	Username   string     `bson:"username" json:"username"`
	FirstName  string     `bson:"first_name,omitempty" json:"first_name,omitempty"`
	CreatedAt  time.Time  `bson:"created_at" json:"created_at"`
	UpdatedAt  time.Time  `bson:"updated_at" json:"updated_at"`
}

// DisplayName is what other group members see next to a workout.
func (u *User) DisplayName() string {
	switch {
	case u.Username != "":
		return u.Username
	case u.FirstName != "":
		return u.FirstName
	default:
		return UnknownUsername
	}
}

// UnknownUsername stands in for submitters without a users row.
const UnknownUsername = "Unknown User"

// Submitter is the user summary attached to aggregated workouts.
type Submitter struct {
	Username   string     `json:"username"`
	TelegramID TelegramID `json:"telegram_id"`
}

// SubmitterFor builds the summary for id, falling back to a placeholder
// when the user is unknown.
func SubmitterFor(id TelegramID, u *User) Submitter {
	if u == nil {
		return Submitter{Username: UnknownUsername, TelegramID: id}
	}
	return Submitter{Username: u.DisplayName(), TelegramID: u.TelegramID}
}
