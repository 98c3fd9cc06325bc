package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"app/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrPaymentNotFound is returned when no payment with the given id
	// is owned by the given user.
	ErrPaymentNotFound = errors.New("payment_not_found")
	// ErrPaymentAlreadyProcessed is returned when a grant is attempted
	// on a payment that is no longer pending.
	ErrPaymentAlreadyProcessed = errors.New("payment_already_processed")
	// ErrDuplicatePrediction is returned when the (user, date) uniqueness
	// constraint rejects a second prediction for the same day.
	ErrDuplicatePrediction = errors.New("duplicate_prediction")
)

const pgUniqueViolation = "23505"

type PaymentRepository interface {
	CreatePayment(ctx context.Context, userID string, amount int64, currency string) (*model.Payment, error)
	// GetPayment is scoped to the owning user; other users see ErrPaymentNotFound.
	GetPayment(ctx context.Context, paymentID, userID string) (*model.Payment, error)
	// GrantPrediction atomically completes a pending payment, inserts the
	// day's prediction and bumps the user's counter. All three writes
	// commit together or not at all.
	GrantPrediction(ctx context.Context, paymentID, userID string, sign string, date time.Time, text string, chargeID *string) (*model.Prediction, error)
}

type paymentRepo struct {
	pool *pgxpool.Pool
}

func NewPaymentRepo(pool *pgxpool.Pool) PaymentRepository {
	return &paymentRepo{pool: pool}
}

const paymentColumns = `id, user_id, amount, currency, status, telegram_charge_id, created_at, updated_at`

func scanPayment(row pgx.Row) (*model.Payment, error) {
	var p model.Payment
	err := row.Scan(&p.ID, &p.UserID, &p.Amount, &p.Currency, &p.Status, &p.TelegramChargeID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *paymentRepo) CreatePayment(ctx context.Context, userID string, amount int64, currency string) (*model.Payment, error) {
	query := `
		INSERT INTO payments (user_id, amount, currency, status)
		VALUES ($1, $2, $3, 'pending')
		RETURNING ` + paymentColumns
	p, err := scanPayment(r.pool.QueryRow(ctx, query, userID, amount, currency))
	if err != nil {
		return nil, fmt.Errorf("creating payment for user %s: %w", userID, err)
	}
	return p, nil
}

func (r *paymentRepo) GetPayment(ctx context.Context, paymentID, userID string) (*model.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE id = $1 AND user_id = $2`
	p, err := scanPayment(r.pool.QueryRow(ctx, query, paymentID, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPaymentNotFound
		}
		return nil, fmt.Errorf("fetching payment %s: %w", paymentID, err)
	}
	return p, nil
}

func (r *paymentRepo) GrantPrediction(ctx context.Context, paymentID, userID string, sign string, date time.Time, text string, chargeID *string) (*model.Prediction, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("starting grant transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	// Lock the payment row so two concurrent confirmations serialize here.
	var status model.PaymentStatus
	const lockQ = `SELECT status FROM payments WHERE id = $1 AND user_id = $2 FOR UPDATE`
	if err := tx.QueryRow(ctx, lockQ, paymentID, userID).Scan(&status); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPaymentNotFound
		}
		return nil, fmt.Errorf("locking payment %s: %w", paymentID, err)
	}
	if status != model.PaymentPending {
		return nil, ErrPaymentAlreadyProcessed
	}

	const completeQ = `
		UPDATE payments
		SET status = 'completed',
		    telegram_charge_id = COALESCE($2, telegram_charge_id),
		    updated_at = now()
		WHERE id = $1`
	if _, err := tx.Exec(ctx, completeQ, paymentID, chargeID); err != nil {
		return nil, fmt.Errorf("completing payment %s: %w", paymentID, err)
	}

	const insertQ = `
		INSERT INTO predictions (user_id, zodiac_sign, text, prediction_date)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + predictionColumns
	p, err := scanPrediction(tx.QueryRow(ctx, insertQ, userID, sign, text, date.UTC().Format("2006-01-02")))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return nil, ErrDuplicatePrediction
		}
		return nil, fmt.Errorf("inserting prediction for user %s: %w", userID, err)
	}

	const bumpQ = `
		UPDATE users
		SET predictions_count = predictions_count + 1,
		    updated_at = now()
		WHERE id = $1`
	if _, err := tx.Exec(ctx, bumpQ, userID); err != nil {
		return nil, fmt.Errorf("incrementing prediction count for user %s: %w", userID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing grant for payment %s: %w", paymentID, err)
	}
	return p, nil
}
