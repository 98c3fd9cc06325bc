package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"app/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PredictionRepository interface {
	// GetByUserAndDate returns the prediction for a calendar date, or
	// nil if the user has none for that day.
	GetByUserAndDate(ctx context.Context, userID string, date time.Time) (*model.Prediction, error)
	ListByUser(ctx context.Context, userID string, limit int) ([]model.Prediction, error)
}

type predictionRepo struct {
	pool *pgxpool.Pool
}

func NewPredictionRepo(pool *pgxpool.Pool) PredictionRepository {
	return &predictionRepo{pool: pool}
}

const predictionColumns = `id, user_id, zodiac_sign, text, prediction_date, created_at`

func scanPrediction(row pgx.Row) (*model.Prediction, error) {
	var p model.Prediction
	err := row.Scan(&p.ID, &p.UserID, &p.ZodiacSign, &p.Text, &p.PredictionDate, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *predictionRepo) GetByUserAndDate(ctx context.Context, userID string, date time.Time) (*model.Prediction, error) {
	query := `SELECT ` + predictionColumns + ` FROM predictions WHERE user_id = $1 AND prediction_date = $2`
	p, err := scanPrediction(r.pool.QueryRow(ctx, query, userID, date.UTC().Format("2006-01-02")))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("fetching prediction for user %s on %s: %w", userID, date.Format("2006-01-02"), err)
	}
	return p, nil
}

func (r *predictionRepo) ListByUser(ctx context.Context, userID string, limit int) ([]model.Prediction, error) {
	query := `
		SELECT ` + predictionColumns + `
		FROM predictions
		WHERE user_id = $1
		ORDER BY prediction_date DESC
		LIMIT $2`
	rows, err := r.pool.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("listing predictions for user %s: %w", userID, err)
	}
	defer rows.Close()

	var predictions []model.Prediction
	for rows.Next() {
		p, err := scanPrediction(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning prediction row: %w", err)
		}
		predictions = append(predictions, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating prediction rows: %w", err)
	}
	return predictions, nil
}
