package service

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"app/internal/model"
	"app/internal/repository"
	"app/internal/zodiac"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errStorageDown = errors.New("storage temporarily unavailable")

// memStore is an in-memory stand-in for the three repositories. Its
// mutex gives GrantPrediction the same all-or-nothing semantics the
// database transaction provides.
type memStore struct {
	mu          sync.Mutex
	users       map[string]*model.User
	payments    map[string]*model.Payment
	predictions map[string]*model.Prediction // userID|date
	seq         int
	failGrants  int // next N grants abort before any write
}

func newMemStore() *memStore {
	return &memStore{
		users:       make(map[string]*model.User),
		payments:    make(map[string]*model.Payment),
		predictions: make(map[string]*model.Prediction),
	}
}

func dateKey(userID string, date time.Time) string {
	return userID + "|" + date.UTC().Format("2006-01-02")
}

func (s *memStore) nextID() string {
	s.seq++
	return strconv.Itoa(s.seq)
}

func (s *memStore) addUser(sign *string) *model.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := &model.User{
		ID:         s.nextID(),
		TelegramID: int64(1000 + s.seq),
		FirstName:  "Test",
		ZodiacSign: sign,
	}
	s.users[u.ID] = u
	return u
}

func (s *memStore) UpsertByTelegramID(ctx context.Context, telegramID int64, firstName string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.TelegramID == telegramID {
			u.FirstName = firstName
			return u, nil
		}
	}
	u := &model.User{ID: s.nextID(), TelegramID: telegramID, FirstName: firstName}
	s.users[u.ID] = u
	return u, nil
}

func (s *memStore) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.users[id], nil
}

func (s *memStore) GetUserByTelegramID(ctx context.Context, telegramID int64) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.TelegramID == telegramID {
			return u, nil
		}
	}
	return nil, nil
}

func (s *memStore) UpdateProfile(ctx context.Context, id string, firstName, zodiacSign *string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.users[id]
	if u == nil {
		return nil, nil
	}
	if firstName != nil {
		u.FirstName = *firstName
	}
	if zodiacSign != nil {
		u.ZodiacSign = zodiacSign
	}
	return u, nil
}

func (s *memStore) ListByPredictionsCount(ctx context.Context, limit int) ([]model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.User
	for _, u := range s.users {
		out = append(out, *u)
	}
	return out, nil
}

func (s *memStore) CreatePayment(ctx context.Context, userID string, amount int64, currency string) (*model.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := &model.Payment{
		ID:       s.nextID(),
		UserID:   userID,
		Amount:   amount,
		Currency: currency,
		Status:   model.PaymentPending,
	}
	s.payments[p.ID] = p
	return p, nil
}

func (s *memStore) GetPayment(ctx context.Context, paymentID, userID string) (*model.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.payments[paymentID]
	if p == nil || p.UserID != userID {
		return nil, repository.ErrPaymentNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *memStore) GrantPrediction(ctx context.Context, paymentID, userID string, sign string, date time.Time, text string, chargeID *string) (*model.Prediction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.payments[paymentID]
	if p == nil || p.UserID != userID {
		return nil, repository.ErrPaymentNotFound
	}
	if p.Status != model.PaymentPending {
		return nil, repository.ErrPaymentAlreadyProcessed
	}
	if s.failGrants > 0 {
		s.failGrants--
		return nil, errStorageDown
	}
	key := dateKey(userID, date)
	if _, exists := s.predictions[key]; exists {
		return nil, repository.ErrDuplicatePrediction
	}

	p.Status = model.PaymentCompleted
	p.TelegramChargeID = chargeID
	pred := &model.Prediction{
		ID:             s.nextID(),
		UserID:         userID,
		ZodiacSign:     sign,
		Text:           text,
		PredictionDate: date.UTC().Truncate(24 * time.Hour),
	}
	s.predictions[key] = pred
	s.users[userID].PredictionsCount++
	return pred, nil
}

func (s *memStore) GetByUserAndDate(ctx context.Context, userID string, date time.Time) (*model.Prediction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	pred, ok := s.predictions[dateKey(userID, date)]
	if !ok {
		return nil, nil
	}
	cp := *pred
	return &cp, nil
}

func (s *memStore) ListByUser(ctx context.Context, userID string, limit int) ([]model.Prediction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Prediction
	for _, pred := range s.predictions {
		if pred.UserID == userID {
			out = append(out, *pred)
		}
	}
	return out, nil
}

type fixture struct {
	store *memStore
	now   time.Time
	mu    sync.Mutex
	svc   PredictionService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store: newMemStore(),
		now:   time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
	}
	clock := func() time.Time {
		f.mu.Lock()
		defer f.mu.Unlock()
		return f.now
	}
	f.svc = NewPredictionService(f.store, f.store, f.store, 1, "XTR", clock, zerolog.Nop())
	return f
}

func (f *fixture) advance(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d)
	f.mu.Unlock()
}

func signPtr(s zodiac.Sign) *string {
	v := string(s)
	return &v
}

func TestCanPurchaseAllowedForNewUser(t *testing.T) {
	f := newFixture(t)
	user := f.store.addUser(signPtr(zodiac.Leo))

	res, err := f.svc.CanPurchase(context.Background(), user.ID)
	require.NoError(t, err)
	assert.True(t, res.Allowed)
	assert.Zero(t, res.RetryAfter)
}

func TestPurchaseFlow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := f.store.addUser(signPtr(zodiac.Leo))

	payment, err := f.svc.OpenPayment(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentPending, payment.Status)
	assert.Equal(t, int64(1), payment.Amount)
	assert.Equal(t, "XTR", payment.Currency)

	prediction, err := f.svc.Confirm(ctx, payment.ID, user.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, "leo", prediction.ZodiacSign)
	assert.NotEmpty(t, prediction.Text)
	assert.Equal(t, "2024-05-01", prediction.PredictionDate.Format("2006-01-02"))

	// The day's entitlement is now consumed.
	res, err := f.svc.CanPurchase(ctx, user.ID)
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Equal(t, 14*time.Hour, res.RetryAfter) // 10:00 -> next midnight UTC

	// Counter moved and the payment settled.
	stored, _ := f.store.GetUserByID(ctx, user.ID)
	assert.Equal(t, 1, stored.PredictionsCount)
	settled, err := f.svc.Lookup(ctx, payment.ID, user.ID)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentCompleted, settled.Status)

	// The next calendar day opens the window again.
	f.advance(15 * time.Hour)
	res, err = f.svc.CanPurchase(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, res.Allowed)
}

func TestOpenPaymentDeniedAfterPurchase(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := f.store.addUser(signPtr(zodiac.Virgo))

	payment, err := f.svc.OpenPayment(ctx, user.ID)
	require.NoError(t, err)
	_, err = f.svc.Confirm(ctx, payment.ID, user.ID, nil)
	require.NoError(t, err)

	_, err = f.svc.OpenPayment(ctx, user.ID)
	assert.ErrorIs(t, err, ErrEntitlementDenied)
}

func TestConfirmWithoutZodiacSignKeepsPaymentPending(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := f.store.addUser(nil)

	payment, err := f.svc.OpenPayment(ctx, user.ID)
	require.NoError(t, err)

	_, err = f.svc.Confirm(ctx, payment.ID, user.ID, nil)
	assert.ErrorIs(t, err, ErrMissingZodiacSign)

	// The paid slot is not burned: the payment stays pending and the
	// confirmation succeeds once the sign is set.
	p, err := f.svc.Lookup(ctx, payment.ID, user.ID)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentPending, p.Status)

	_, err = f.store.UpdateProfile(ctx, user.ID, nil, signPtr(zodiac.Aries))
	require.NoError(t, err)
	prediction, err := f.svc.Confirm(ctx, payment.ID, user.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, "aries", prediction.ZodiacSign)
}

func TestConfirmReplayIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := f.store.addUser(signPtr(zodiac.Leo))

	payment, err := f.svc.OpenPayment(ctx, user.ID)
	require.NoError(t, err)

	_, err = f.svc.Confirm(ctx, payment.ID, user.ID, nil)
	require.NoError(t, err)

	_, err = f.svc.Confirm(ctx, payment.ID, user.ID, nil)
	assert.ErrorIs(t, err, ErrAlreadyProcessed)

	stored, _ := f.store.GetUserByID(ctx, user.ID)
	assert.Equal(t, 1, stored.PredictionsCount, "replay must not double-grant")
}

func TestConfirmAndLookupAreOwnershipScoped(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.store.addUser(signPtr(zodiac.Leo))
	stranger := f.store.addUser(signPtr(zodiac.Virgo))

	payment, err := f.svc.OpenPayment(ctx, owner.ID)
	require.NoError(t, err)

	_, err = f.svc.Lookup(ctx, payment.ID, stranger.ID)
	assert.ErrorIs(t, err, ErrPaymentNotFound)

	_, err = f.svc.Confirm(ctx, payment.ID, stranger.ID, nil)
	assert.ErrorIs(t, err, ErrPaymentNotFound)

	// The owner is unaffected by the stranger's attempts.
	_, err = f.svc.Confirm(ctx, payment.ID, owner.ID, nil)
	assert.NoError(t, err)
}

func TestConfirmUnknownPayment(t *testing.T) {
	f := newFixture(t)
	user := f.store.addUser(signPtr(zodiac.Leo))

	_, err := f.svc.Confirm(context.Background(), "missing", user.ID, nil)
	assert.ErrorIs(t, err, ErrPaymentNotFound)
}

func TestConfirmRetriesAfterTransientFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := f.store.addUser(signPtr(zodiac.Leo))

	payment, err := f.svc.OpenPayment(ctx, user.ID)
	require.NoError(t, err)

	f.store.failGrants = 3
	for i := 0; i < 3; i++ {
		_, err = f.svc.Confirm(ctx, payment.ID, user.ID, nil)
		assert.ErrorIs(t, err, errStorageDown)
	}

	prediction, err := f.svc.Confirm(ctx, payment.ID, user.ID, nil)
	require.NoError(t, err)
	assert.NotEmpty(t, prediction.Text)

	stored, _ := f.store.GetUserByID(ctx, user.ID)
	assert.Equal(t, 1, stored.PredictionsCount, "aborted attempts must not grant")
}

func TestConcurrentConfirmGrantsExactlyOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := f.store.addUser(signPtr(zodiac.Leo))

	payment, err := f.svc.OpenPayment(ctx, user.ID)
	require.NoError(t, err)

	const callers = 8
	errs := make(chan error, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.Confirm(ctx, payment.ID, user.ID, nil)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	var successes, replays int
	for err := range errs {
		switch {
		case err == nil:
			successes++
		case errors.Is(err, ErrAlreadyProcessed) || errors.Is(err, ErrDuplicateEntitlement):
			replays++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, successes)
	assert.Equal(t, callers-1, replays)

	stored, _ := f.store.GetUserByID(ctx, user.ID)
	assert.Equal(t, 1, stored.PredictionsCount)
}

func TestTodayAndHistory(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := f.store.addUser(signPtr(zodiac.Leo))

	today, err := f.svc.Today(ctx, user.ID)
	require.NoError(t, err)
	assert.Nil(t, today)

	for day := 0; day < 3; day++ {
		payment, err := f.svc.OpenPayment(ctx, user.ID)
		require.NoError(t, err)
		_, err = f.svc.Confirm(ctx, payment.ID, user.ID, nil)
		require.NoError(t, err)
		f.advance(24 * time.Hour)
	}

	history, err := f.svc.History(ctx, user.ID, 10)
	require.NoError(t, err)
	assert.Len(t, history, 3)
}

func TestRetryAfterCountsToNextCalendarDay(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := f.store.addUser(signPtr(zodiac.Leo))

	// Purchase one minute past midnight: the wait is just under a day,
	// a date boundary rather than 24h from purchase.
	f.mu.Lock()
	f.now = time.Date(2024, 5, 1, 0, 1, 0, 0, time.UTC)
	f.mu.Unlock()

	payment, err := f.svc.OpenPayment(ctx, user.ID)
	require.NoError(t, err)
	_, err = f.svc.Confirm(ctx, payment.ID, user.ID, nil)
	require.NoError(t, err)

	res, err := f.svc.CanPurchase(ctx, user.ID)
	require.NoError(t, err)
	require.False(t, res.Allowed)
	assert.Equal(t, 23*time.Hour+59*time.Minute, res.RetryAfter)
}

func TestGeneratedTextMatchesSignAndDate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := f.store.addUser(signPtr(zodiac.Leo))

	payment, err := f.svc.OpenPayment(ctx, user.ID)
	require.NoError(t, err)
	prediction, err := f.svc.Confirm(ctx, payment.ID, user.ID, nil)
	require.NoError(t, err)

	want := zodiac.Generate(zodiac.Leo, time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, want, prediction.Text)
}

func TestChargeIDStoredOnConfirm(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := f.store.addUser(signPtr(zodiac.Leo))

	payment, err := f.svc.OpenPayment(ctx, user.ID)
	require.NoError(t, err)

	charge := "tg_charge_123"
	_, err = f.svc.Confirm(ctx, payment.ID, user.ID, &charge)
	require.NoError(t, err)

	settled, err := f.svc.Lookup(ctx, payment.ID, user.ID)
	require.NoError(t, err)
	require.NotNil(t, settled.TelegramChargeID)
	assert.Equal(t, charge, *settled.TelegramChargeID)
}
