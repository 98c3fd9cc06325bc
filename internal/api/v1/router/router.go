package router

import (
	"context"
	"net/http"
	"strings"
	"time"

	"app/internal/api/v1/handler"
	"app/internal/config"
	"app/internal/db"
	"app/internal/middleware"
	"app/internal/repository"
	"app/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
)

func New(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (http.Handler, *pgxpool.Pool, error) {
	logger.Info().Str("environment", cfg.Environment).Msg("Router initializing")

	// 1. Open DB connection (connection pooling)
	pool, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to connect to database")
		return nil, nil, err
	}
	logger.Info().Msg("Database connection successful")

	if err := db.ApplyMigrations(ctx, pool, cfg.MigrationsDir); err != nil {
		pool.Close()
		logger.Error().Err(err).Msg("Failed to apply migrations")
		return nil, nil, err
	}

	// 2. Initialize validator
	validate := validator.New(validator.WithRequiredStructEnabled())

	// 3. Initialize repositories & services & handlers
	userRepo := repository.NewUserRepo(pool)
	paymentRepo := repository.NewPaymentRepo(pool)
	predictionRepo := repository.NewPredictionRepo(pool)

	userSvc := service.NewUserService(userRepo, logger)
	predictionSvc := service.NewPredictionService(
		paymentRepo, predictionRepo, userRepo,
		cfg.PredictionPrice, cfg.PredictionCurrency,
		nil, logger,
	)

	tokenTTL := time.Duration(cfg.TokenTTLMinutes) * time.Minute
	authHandler := handler.NewAuthHandler(userSvc, validate, cfg.JWTSecret, tokenTTL, logger)
	userHandler := handler.NewUserHandler(userSvc, validate, logger)
	predictionHandler := handler.NewPredictionHandler(predictionSvc, logger)
	paymentHandler := handler.NewPaymentHandler(predictionSvc, logger)
	zodiacHandler := handler.NewZodiacHandler()

	// 4. Initialize middleware
	authMiddleware := middleware.AuthMiddleware(cfg.JWTSecret, logger)
	serviceKeyMiddleware := middleware.ServiceKeyMiddleware(cfg.BotAPIKey)

	// 5. Create ServeMux router
	apiV1Mux := http.NewServeMux()
	authHandler.RegisterRoutes(apiV1Mux, serviceKeyMiddleware)
	userHandler.RegisterRoutes(apiV1Mux, authMiddleware)
	userHandler.RegisterServiceRoutes(apiV1Mux, serviceKeyMiddleware)
	predictionHandler.RegisterRoutes(apiV1Mux, authMiddleware)
	paymentHandler.RegisterRoutes(apiV1Mux, authMiddleware)
	zodiacHandler.RegisterRoutes(apiV1Mux)

	mux := http.NewServeMux()

	// Mount the API v1 routes under /v1
	mux.Handle("/v1/", http.StripPrefix("/v1", apiV1Mux))

	// Redirect bare root-level requests to /v1/{path}
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/" {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"message":"Prediction Bot API","status":"active"}`))
			return
		}
		if strings.HasPrefix(r.URL.Path, "/v1/") {
			http.NotFound(w, r)
			return
		}
		http.Redirect(w, r, "/v1"+r.URL.Path, http.StatusMovedPermanently)
	})

	// 6. Apply CORS middleware
	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})

	return middleware.LoggerMiddleware(logger, c.Handler(mux)), pool, nil
}
