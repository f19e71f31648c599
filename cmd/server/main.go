package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/warbots/server/internal/auth"
	"github.com/warbots/server/internal/config"
	"github.com/warbots/server/internal/handler"
	"github.com/warbots/server/internal/logger"
	"github.com/warbots/server/internal/middleware"
	"github.com/warbots/server/internal/repository/postgres"
	redisrepo "github.com/warbots/server/internal/repository/redis"
	"github.com/warbots/server/internal/service"
)

func main() {
	logger.Init()
	cfg := config.Load()
	log.Info().Str("databaseURL", cfg.DatabaseURL).Msg("Config loaded")

	// Database
	db, err := postgres.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Database connection failed")
	}
	defer db.Close()

	// Redis
	redisClient, err := redisrepo.NewClient(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Redis connection failed")
	}
	defer redisClient.Close()

	// Enable Redis keyspace notifications for timer expiry events.
	if err := redisClient.Underlying().ConfigSet(context.Background(), "notify-keyspace-events", "Ex").Err(); err != nil {
		log.Warn().Err(err).Msg("Failed to set Redis keyspace notifications (timer expiry may not work)")
	}

	// Repos
	userRepo := postgres.NewUserRepo(db)
	gameRepo := postgres.NewGameRepo(db)
	turnRepo := postgres.NewTurnRepo(db)

	// Auth
	jwtMgr := auth.NewJWTManager(cfg.JWTSecret)
	googleOAuth := auth.NewGoogleOAuth(
		os.Getenv("GOOGLE_CLIENT_ID"),
		os.Getenv("GOOGLE_CLIENT_SECRET"),
		os.Getenv("GOOGLE_REDIRECT_URL"),
	)

	// Realtime hub (WebSocket + SSE fan-out)
	hub := handler.NewHub()

	// Services
	turnSvc := service.NewTurnService(gameRepo, turnRepo, redisClient, hub)
	gameSvc := service.NewGameService(gameRepo, turnRepo, hub)
	gameSvc.SetTurnService(turnSvc)
	orderSvc := service.NewOrderService(gameRepo, turnRepo, redisClient)

	// Timer listener (auto-resolve on deadline expiry)
	timerListener := service.NewTimerListener(redisClient.Underlying(), turnSvc, turnRepo)

	// Handlers
	authHandler := handler.NewAuthHandler(googleOAuth, jwtMgr, userRepo)
	userHandler := handler.NewUserHandler(userRepo)
	gameHandler := handler.NewGameHandler(gameSvc)
	orderHandler := handler.NewOrderHandler(orderSvc, turnSvc)
	stateHandler := handler.NewStateHandler(orderSvc, turnRepo)
	eventsHandler := handler.NewEventsHandler(hub, gameSvc, jwtMgr)
	wsHandler := handler.NewWSHandler(hub, jwtMgr)

	// Router
	mux := http.NewServeMux()
	authMw := auth.Middleware(jwtMgr)

	// Health
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	// Auth (public)
	mux.HandleFunc("GET /auth/google/login", authHandler.GoogleLogin)
	mux.HandleFunc("GET /auth/google/callback", authHandler.GoogleCallback)
	mux.HandleFunc("POST /auth/refresh", authHandler.RefreshToken)
	mux.HandleFunc("GET /auth/dev", authHandler.DevLogin)

	// Protected API routes
	api := http.NewServeMux()
	api.HandleFunc("GET /users/me", userHandler.GetMe)
	api.HandleFunc("PATCH /users/me", userHandler.UpdateMe)
	api.HandleFunc("GET /users/{id}", userHandler.GetUser)
	api.HandleFunc("POST /games", gameHandler.CreateGame)
	api.HandleFunc("GET /games", gameHandler.ListGames)
	api.HandleFunc("GET /games/mine", gameHandler.ListMyGames)
	api.HandleFunc("GET /games/{id}", gameHandler.GetGame)
	api.HandleFunc("POST /games/{id}/join", gameHandler.JoinGame)
	api.HandleFunc("POST /games/{id}/ai", gameHandler.AddAI)
	api.HandleFunc("GET /games/{id}/colors", gameHandler.AvailableColors)
	api.HandleFunc("POST /games/{id}/start", gameHandler.StartGame)
	api.HandleFunc("DELETE /games/{id}", gameHandler.DeleteGame)
	api.HandleFunc("GET /games/{id}/state", stateHandler.GetState)
	api.HandleFunc("POST /games/{id}/turns", orderHandler.SubmitTurn)
	api.HandleFunc("PUT /games/{id}/orders", orderHandler.SaveDraft)
	api.HandleFunc("GET /games/{id}/turns/{n}/logs", stateHandler.TurnLogs)

	mux.Handle("/api/v1/", http.StripPrefix("/api/v1", authMw(api)))

	// Streaming endpoints (auth via query param, not middleware)
	mux.HandleFunc("GET /api/v1/games/{id}/events", eventsHandler.ServeEvents)
	mux.HandleFunc("GET /api/v1/ws", wsHandler.ServeWS)

	// Apply global middleware
	root := middleware.Chain(mux, middleware.Logger, middleware.CORS("*"), middleware.JSON)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      root,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Recover active games (rehydrate Redis from Postgres after restart)
	if err := turnSvc.RecoverActiveGames(context.Background()); err != nil {
		log.Error().Err(err).Msg("Failed to recover active games (non-fatal)")
	}

	// Start timer listener
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go timerListener.Start(ctx)

	go func() {
		log.Info().Str("port", cfg.Port).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("Server shutdown error")
	}
	log.Info().Msg("Server stopped")
}
