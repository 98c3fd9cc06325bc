package dto

import "time"

type PaymentResponseDTO struct {
	PaymentID string    `json:"payment_id"`
	Amount    int64     `json:"amount"`
	Currency  string    `json:"currency"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// PaymentConfirmDTO carries the processor reference of a settled payment.
type PaymentConfirmDTO struct {
	TelegramChargeID *string `json:"telegram_charge_id"`
}
