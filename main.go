package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"remindbot/ai"
	"remindbot/handlers"
	"remindbot/logger"
	"remindbot/middleware"
	"remindbot/store"
)

func main() {
	godotenv.Load()
	logger.Init(os.Getenv("LOG_LEVEL"))

	token := os.Getenv("TELEGRAM_API_TOKEN")
	if token == "" {
		logger.Fatal().Msg("TELEGRAM_API_TOKEN not set")
	}
	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		middleware.JWTSecret = []byte(secret)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// History log
	dbPath := os.Getenv("DB_PATH")
	if dbPath == "" {
		dbPath = "./remindbot.db"
	}
	history, err := store.OpenHistory(dbPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open history database")
	}
	defer history.Close()

	registry := store.NewRegistry()

	hub := handlers.NewHub()
	go hub.Run()

	// Enrichment collaborators are optional; the bot degrades to plain
	// reminders without them.
	var images handlers.ImageFinder
	if key := os.Getenv("PEXELS_API_KEY"); key != "" {
		images = ai.NewPexelsClient(key)
	} else {
		logger.Warn().Msg("PEXELS_API_KEY not set, reminder images disabled")
	}

	var jokes handlers.JokeTeller
	openai := ai.NewOpenAIClient(os.Getenv("OPENAI_KEY"), "gpt-4o-mini")
	if openai.IsConfigured() {
		jokes = openai
	} else {
		logger.Warn().Msg("OPENAI_KEY not set, reminder jokes disabled")
	}

	bot := handlers.NewTelegramBot(token)
	scheduler := handlers.NewScheduler(ctx, registry, history, bot, images, jokes, hub)
	dialog := handlers.NewCancelDialog(registry, scheduler)
	bot.SetRouter(handlers.NewRouter(scheduler, dialog, bot))

	adminPassword := os.Getenv("ADMIN_PASSWORD")
	if adminPassword == "" {
		adminPassword = "change-me"
		logger.Warn().Msg("ADMIN_PASSWORD not set, using default")
	}
	authHandler, err := handlers.NewAuthHandler(adminPassword)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize auth")
	}
	reminderHandler := handlers.NewReminderHandler(registry, scheduler, history)

	mux := http.NewServeMux()

	// Public routes
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)
	mux.HandleFunc("GET /api/ws", hub.HandleWebSocket)
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	// Protected routes
	mux.HandleFunc("GET /api/reminders", withAuth(reminderHandler.List))
	mux.HandleFunc("POST /api/reminders", withAuth(reminderHandler.Create))
	mux.HandleFunc("DELETE /api/reminders/{id}", withAuth(reminderHandler.Delete))
	mux.HandleFunc("GET /api/history", withAuth(reminderHandler.History))

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	server := &http.Server{Addr: ":" + port, Handler: corsMiddleware(mux)}

	go func() {
		logger.Info().Str("port", port).Msg("remindbot server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	go bot.Poll(ctx)

	<-ctx.Done()
	logger.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	server.Shutdown(shutdownCtx)
}

// withAuth wraps a handler with admin token authentication.
func withAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			http.Error(w, "Authorization header required", http.StatusUnauthorized)
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == authHeader {
			http.Error(w, "Invalid authorization format", http.StatusUnauthorized)
			return
		}

		claims, err := middleware.ValidateToken(tokenString)
		if err != nil {
			http.Error(w, "Invalid token", http.StatusUnauthorized)
			return
		}

		ctx := middleware.SetSubject(r.Context(), claims.Subject)
		next.ServeHTTP(w, r.WithContext(ctx))
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
