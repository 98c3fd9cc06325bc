package dto

import "time"

type PredictionResponseDTO struct {
	ID             string    `json:"id"`
	ZodiacSign     string    `json:"zodiac_sign"`
	Text           string    `json:"text"`
	PredictionDate string    `json:"prediction_date"`
	CreatedAt      time.Time `json:"created_at"`
}

type CanPurchaseResponseDTO struct {
	CanPurchase       bool   `json:"can_purchase"`
	Reason            string `json:"reason,omitempty"`
	RetryAfterSeconds int64  `json:"retry_after_seconds,omitempty"`
}

// ErrorResponseDTO is the JSON body of a failed request.
type ErrorResponseDTO struct {
	Error             string `json:"error"`
	RetryAfterSeconds int64  `json:"retry_after_seconds,omitempty"`
}
