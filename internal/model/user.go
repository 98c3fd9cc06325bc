package model

import "time"

// User is a person who talks to the bot. Created on first contact,
// identified by their Telegram account id.
type User struct {
	ID               string    `db:"id" json:"id"`
	TelegramID       int64     `db:"telegram_id" json:"telegram_id"`
	FirstName        string    `db:"first_name" json:"first_name"`
	ZodiacSign       *string   `db:"zodiac_sign" json:"zodiac_sign,omitempty"`
	PredictionsCount int       `db:"predictions_count" json:"predictions_count"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time `db:"updated_at" json:"updated_at"`
}
