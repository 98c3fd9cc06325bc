package dto

import "time"

// UserResponseDTO is returned in API responses
type UserResponseDTO struct {
	ID               string    `json:"id"`
	TelegramID       int64     `json:"telegram_id"`
	FirstName        string    `json:"first_name"`
	ZodiacSign       *string   `json:"zodiac_sign,omitempty"`
	PredictionsCount int       `json:"predictions_count"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// UserCreateDTO registers a Telegram identity; presented with the service key
type UserCreateDTO struct {
	TelegramID int64  `json:"telegram_id" validate:"required"`
	FirstName  string `json:"first_name" validate:"required,min=1,max=64"`
}

// UserUpdateDTO is used for profile edits; absent fields are left unchanged
type UserUpdateDTO struct {
	FirstName  *string `json:"first_name" validate:"omitempty,min=1,max=64"`
	ZodiacSign *string `json:"zodiac_sign" validate:"omitempty,oneof=aries taurus gemini cancer leo virgo libra scorpio sagittarius capricorn aquarius pisces"`
}

// RankingEntryDTO is one row of the purchase-count leaderboard
type RankingEntryDTO struct {
	FirstName        string `json:"first_name"`
	PredictionsCount int    `json:"predictions_count"`
}
