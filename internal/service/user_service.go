package service

import (
	"context"
	"errors"

	"app/internal/model"
	"app/internal/repository"
	"app/internal/zodiac"

	"github.com/rs/zerolog"
)

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrInvalidZodiacSign = errors.New("invalid zodiac sign")
)

type UserService interface {
	// Register creates the user on first contact or refreshes their name.
	Register(ctx context.Context, telegramID int64, firstName string) (*model.User, error)
	Get(ctx context.Context, id string) (*model.User, error)
	GetByTelegramID(ctx context.Context, telegramID int64) (*model.User, error)
	UpdateProfile(ctx context.Context, id string, firstName, zodiacSign *string) (*model.User, error)
	Rankings(ctx context.Context, limit int) ([]model.User, error)
}

type userService struct {
	userRepo repository.UserRepository
	logger   zerolog.Logger
}

func NewUserService(userRepo repository.UserRepository, logger zerolog.Logger) UserService {
	return &userService{
		userRepo: userRepo,
		logger:   logger.With().Str("service", "UserService").Logger(),
	}
}

func (s *userService) Register(ctx context.Context, telegramID int64, firstName string) (*model.User, error) {
	u, err := s.userRepo.UpsertByTelegramID(ctx, telegramID, firstName)
	if err != nil {
		s.logger.Error().Err(err).Int64("telegram_id", telegramID).Msg("Failed to register user")
		return nil, err
	}
	return u, nil
}

func (s *userService) Get(ctx context.Context, id string) (*model.User, error) {
	u, err := s.userRepo.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrUserNotFound
	}
	return u, nil
}

func (s *userService) GetByTelegramID(ctx context.Context, telegramID int64) (*model.User, error) {
	u, err := s.userRepo.GetUserByTelegramID(ctx, telegramID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrUserNotFound
	}
	return u, nil
}

func (s *userService) UpdateProfile(ctx context.Context, id string, firstName, zodiacSign *string) (*model.User, error) {
	if zodiacSign != nil && !zodiac.Valid(zodiac.Sign(*zodiacSign)) {
		return nil, ErrInvalidZodiacSign
	}
	u, err := s.userRepo.UpdateProfile(ctx, id, firstName, zodiacSign)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", id).Msg("Failed to update profile")
		return nil, err
	}
	if u == nil {
		return nil, ErrUserNotFound
	}
	return u, nil
}

func (s *userService) Rankings(ctx context.Context, limit int) ([]model.User, error) {
	if limit <= 0 || limit > 100 {
		limit = 100
	}
	users, err := s.userRepo.ListByPredictionsCount(ctx, limit)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to fetch rankings")
		return nil, err
	}
	return users, nil
}
