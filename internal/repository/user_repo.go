package repository

import (
	"context"
	"errors"
	"fmt"

	"app/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type UserRepository interface {
	// UpsertByTelegramID creates the user on first contact or refreshes
	// their display name, returning the stored row either way.
	UpsertByTelegramID(ctx context.Context, telegramID int64, firstName string) (*model.User, error)
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	GetUserByTelegramID(ctx context.Context, telegramID int64) (*model.User, error)
	UpdateProfile(ctx context.Context, id string, firstName, zodiacSign *string) (*model.User, error)
	ListByPredictionsCount(ctx context.Context, limit int) ([]model.User, error)
}

type userRepo struct {
	pool *pgxpool.Pool
}

func NewUserRepo(pool *pgxpool.Pool) UserRepository {
	return &userRepo{pool: pool}
}

const userColumns = `id, telegram_id, first_name, zodiac_sign, predictions_count, created_at, updated_at`

func scanUser(row pgx.Row) (*model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.TelegramID, &u.FirstName, &u.ZodiacSign, &u.PredictionsCount, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *userRepo) UpsertByTelegramID(ctx context.Context, telegramID int64, firstName string) (*model.User, error) {
	query := `
		INSERT INTO users (telegram_id, first_name)
		VALUES ($1, $2)
		ON CONFLICT (telegram_id) DO UPDATE
		SET first_name = EXCLUDED.first_name,
		    updated_at = now()
		RETURNING ` + userColumns
	u, err := scanUser(r.pool.QueryRow(ctx, query, telegramID, firstName))
	if err != nil {
		return nil, fmt.Errorf("upserting user for telegram id %d: %w", telegramID, err)
	}
	return u, nil
}

func (r *userRepo) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	u, err := scanUser(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("fetching user %s: %w", id, err)
	}
	return u, nil
}

func (r *userRepo) GetUserByTelegramID(ctx context.Context, telegramID int64) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE telegram_id = $1`
	u, err := scanUser(r.pool.QueryRow(ctx, query, telegramID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("fetching user for telegram id %d: %w", telegramID, err)
	}
	return u, nil
}

func (r *userRepo) UpdateProfile(ctx context.Context, id string, firstName, zodiacSign *string) (*model.User, error) {
	query := `
		UPDATE users
		SET first_name = COALESCE($2, first_name),
		    zodiac_sign = COALESCE($3, zodiac_sign),
		    updated_at = now()
		WHERE id = $1
		RETURNING ` + userColumns
	u, err := scanUser(r.pool.QueryRow(ctx, query, id, firstName, zodiacSign))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("updating profile for user %s: %w", id, err)
	}
	return u, nil
}

func (r *userRepo) ListByPredictionsCount(ctx context.Context, limit int) ([]model.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		ORDER BY predictions_count DESC, created_at ASC
		LIMIT $1`
	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("listing user rankings: %w", err)
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning ranking row: %w", err)
		}
		users = append(users, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating ranking rows: %w", err)
	}
	return users, nil
}
