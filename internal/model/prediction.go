package model

import "time"

// Prediction is the daily horoscope text a user paid for. At most one
// exists per (user, prediction_date); the database enforces this.
type Prediction struct {
	ID             string    `db:"id" json:"id"`
	UserID         string    `db:"user_id" json:"user_id"`
	ZodiacSign     string    `db:"zodiac_sign" json:"zodiac_sign"`
	Text           string    `db:"text" json:"text"`
	PredictionDate time.Time `db:"prediction_date" json:"prediction_date"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}
