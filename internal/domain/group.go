package domain

import "time"

// Group represents a Telegram chat where /start was issued. Private chats
// are stored too, so a solo user still has a group to log against.
type Group struct {
	TelegramChatID TelegramID `bson:"telegram_chat_id" json:"telegram_chat_id"`
	Title          string     `bson:"title" json:"title"`
	Type           string     `bson:"type,omitempty" json:"type,omitempty"`
	CreatedAt      time.Time  `bson:"created_at" json:"created_at"`
	UpdatedAt      time.Time  `bson:"updated_at" json:"updated_at"`
}

// Membership is the authoritative join between users and groups.
// Exactly one document per (user_id, group_id); rows are never removed.
type Membership struct {
	UserID   TelegramID `bson:"user_id" json:"user_id"`
	GroupID  TelegramID `bson:"group_id" json:"group_id"`
	JoinedAt time.Time  `bson:"joined_at" json:"joined_at"`
}

// MemberInfo is the user shape returned in group rosters.
type MemberInfo struct {
	ID         TelegramID `json:"id"`
	Username   string     `json:"username"`
	TelegramID TelegramID `json:"telegram_id"`
}

// Member wraps MemberInfo under "users" to keep the roster payload
// compatible with the mini-app.
type Member struct {
	Users MemberInfo `json:"users"`
}
