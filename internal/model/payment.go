package model

import "time"

// PaymentStatus is the lifecycle state of a payment. Transitions are
// monotonic: pending -> completed or failed, refunded only from completed.
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
	PaymentRefunded  PaymentStatus = "refunded"
)

// Payment is a recorded intent to buy one prediction. Amount is in the
// smallest unit of the currency (1 XTR for Telegram Stars).
type Payment struct {
	ID               string        `db:"id" json:"id"`
	UserID           string        `db:"user_id" json:"user_id"`
	Amount           int64         `db:"amount" json:"amount"`
	Currency         string        `db:"currency" json:"currency"`
	Status           PaymentStatus `db:"status" json:"status"`
	TelegramChargeID *string       `db:"telegram_charge_id" json:"telegram_charge_id,omitempty"`
	CreatedAt        time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time     `db:"updated_at" json:"updated_at"`
}
