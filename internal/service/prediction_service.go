package service

import (
	"context"
	"errors"
	"time"

	"app/internal/model"
	"app/internal/repository"
	"app/internal/zodiac"

	"github.com/rs/zerolog"
)

var (
	// ErrEntitlementDenied means the user already holds today's prediction.
	ErrEntitlementDenied = errors.New("entitlement denied: prediction already purchased today")
	// ErrMissingZodiacSign means the profile has no sign set; the payment
	// is left untouched so the user can confirm later.
	ErrMissingZodiacSign = errors.New("zodiac sign not set")

	ErrPaymentNotFound      = repository.ErrPaymentNotFound
	ErrAlreadyProcessed     = repository.ErrPaymentAlreadyProcessed
	ErrDuplicateEntitlement = repository.ErrDuplicatePrediction
)

// CanPurchaseResult reports whether a new purchase is allowed and, when
// it is not, how long until the next calendar day opens the window again.
type CanPurchaseResult struct {
	Allowed    bool
	RetryAfter time.Duration
}

type PredictionService interface {
	// CanPurchase is a pure read: it never mutates state and is safe to
	// call concurrently.
	CanPurchase(ctx context.Context, userID string) (CanPurchaseResult, error)
	// OpenPayment re-checks the entitlement and records a pending payment.
	OpenPayment(ctx context.Context, userID string) (*model.Payment, error)
	Lookup(ctx context.Context, paymentID, userID string) (*model.Payment, error)
	// Confirm drives the payment through pending -> completed and issues
	// the day's prediction in one transaction. Replays return
	// ErrAlreadyProcessed and never double-grant.
	Confirm(ctx context.Context, paymentID, userID string, chargeID *string) (*model.Prediction, error)
	Today(ctx context.Context, userID string) (*model.Prediction, error)
	History(ctx context.Context, userID string, limit int) ([]model.Prediction, error)
}

type predictionService struct {
	paymentRepo    repository.PaymentRepository
	predictionRepo repository.PredictionRepository
	userRepo       repository.UserRepository
	price          int64
	currency       string
	clock          func() time.Time
	logger         zerolog.Logger
}

// NewPredictionService wires the purchase flow. clock supplies the
// current time so the calendar-day logic stays deterministic in tests;
// nil means time.Now.
func NewPredictionService(
	paymentRepo repository.PaymentRepository,
	predictionRepo repository.PredictionRepository,
	userRepo repository.UserRepository,
	price int64,
	currency string,
	clock func() time.Time,
	logger zerolog.Logger,
) PredictionService {
	if clock == nil {
		clock = time.Now
	}
	return &predictionService{
		paymentRepo:    paymentRepo,
		predictionRepo: predictionRepo,
		userRepo:       userRepo,
		price:          price,
		currency:       currency,
		clock:          clock,
		logger:         logger.With().Str("service", "PredictionService").Logger(),
	}
}

// startOfNextDay returns midnight UTC of the following calendar date.
func startOfNextDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, 1)
}

func (s *predictionService) CanPurchase(ctx context.Context, userID string) (CanPurchaseResult, error) {
	now := s.clock()
	existing, err := s.predictionRepo.GetByUserAndDate(ctx, userID, now)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("Failed to check today's prediction")
		return CanPurchaseResult{}, err
	}
	if existing != nil {
		return CanPurchaseResult{Allowed: false, RetryAfter: startOfNextDay(now).Sub(now.UTC())}, nil
	}
	return CanPurchaseResult{Allowed: true}, nil
}

func (s *predictionService) OpenPayment(ctx context.Context, userID string) (*model.Payment, error) {
	// Re-checked here rather than trusted from an earlier CanPurchase
	// call, to guard the race between check and open.
	res, err := s.CanPurchase(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !res.Allowed {
		return nil, ErrEntitlementDenied
	}
	p, err := s.paymentRepo.CreatePayment(ctx, userID, s.price, s.currency)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("Failed to create payment")
		return nil, err
	}
	return p, nil
}

func (s *predictionService) Lookup(ctx context.Context, paymentID, userID string) (*model.Payment, error) {
	return s.paymentRepo.GetPayment(ctx, paymentID, userID)
}

func (s *predictionService) Confirm(ctx context.Context, paymentID, userID string, chargeID *string) (*model.Prediction, error) {
	payment, err := s.paymentRepo.GetPayment(ctx, paymentID, userID)
	if err != nil {
		return nil, err
	}
	if payment.Status != model.PaymentPending {
		return nil, ErrAlreadyProcessed
	}

	// The sign check runs before any write so a failed generation can
	// never consume a paid slot.
	user, err := s.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	if user.ZodiacSign == nil || !zodiac.Valid(zodiac.Sign(*user.ZodiacSign)) {
		return nil, ErrMissingZodiacSign
	}

	now := s.clock()
	sign := zodiac.Sign(*user.ZodiacSign)
	text := zodiac.Generate(sign, now)

	prediction, err := s.paymentRepo.GrantPrediction(ctx, paymentID, userID, string(sign), now, text, chargeID)
	if err != nil {
		if !errors.Is(err, ErrAlreadyProcessed) && !errors.Is(err, ErrDuplicateEntitlement) {
			s.logger.Error().Err(err).Str("payment_id", paymentID).Msg("Failed to grant prediction")
		}
		return nil, err
	}
	return prediction, nil
}

func (s *predictionService) Today(ctx context.Context, userID string) (*model.Prediction, error) {
	return s.predictionRepo.GetByUserAndDate(ctx, userID, s.clock())
}

func (s *predictionService) History(ctx context.Context, userID string, limit int) ([]model.Prediction, error) {
	if limit <= 0 || limit > 100 {
		limit = 100
	}
	return s.predictionRepo.ListByUser(ctx, userID, limit)
}
