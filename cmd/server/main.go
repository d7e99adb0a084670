package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/ayush/digital-library/internal/auth"
	"github.com/ayush/digital-library/internal/config"
	"github.com/ayush/digital-library/internal/library"
	"github.com/ayush/digital-library/internal/middleware"
	"github.com/ayush/digital-library/internal/store"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()
	log := logger.Sugar()

	cfg := config.Load()
	ctx := context.Background()

	// ── PostgreSQL ────────────────────────────────────────────
	pgPool, err := pgxpool.New(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("postgres connect: %v", err)
	}
	defer pgPool.Close()
	userStore := store.NewPostgresStore(pgPool)
	if err := userStore.Migrate(ctx); err != nil {
		log.Fatalf("postgres migrate: %v", err)
	}

	// ── MongoDB ──────────────────────────────────────────────
	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		log.Fatalf("mongo connect: %v", err)
	}
	defer mongoClient.Disconnect(ctx)
	bookStore := store.NewMongoStore(mongoClient.Database(cfg.MongoDB))
	if err := bookStore.EnsureIndexes(ctx); err != nil {
		log.Fatalf("mongo indexes: %v", err)
	}

	// ── Redis ────────────────────────────────────────────────
	rdb, err := store.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword)
	if err != nil {
		log.Fatalf("redis connect: %v", err)
	}
	defer rdb.Close()
	catalogCache := store.NewCatalogCache(rdb)

	// ── MinIO ────────────────────────────────────────────────
	coverStore, err := store.NewMinioStore(
		ctx, cfg.MinioEndpoint, cfg.MinioAccessKey,
		cfg.MinioSecretKey, cfg.MinioBucket, cfg.MinioUseSSL,
	)
	if err != nil {
		log.Fatalf("minio connect: %v", err)
	}

	// ── Handlers ─────────────────────────────────────────────
	if cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET must be set")
	}
	tokens := auth.NewTokenIssuer(cfg.JWTSecret)
	authHandler := auth.NewHandler(userStore, tokens, cfg.CookieSecure, log)
	libraryHandler := library.NewHandler(bookStore, catalogCache, coverStore, log)
	requireAuth := middleware.RequireAuth(tokens, userStore)

	// ── Router ───────────────────────────────────────────────
	allowedOrigins := []string{"http://localhost:5173", "http://localhost:3000", "http://localhost:8080"}
	if cfg.FrontendURL != "" {
		allowedOrigins = append(allowedOrigins, cfg.FrontendURL)
	}

	r := chi.NewRouter()
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"ok"}`))
	})

	// Auth routes
	r.Post("/register", authHandler.Register)
	r.Post("/login", authHandler.Login)
	r.Post("/logout", authHandler.Logout)
	r.With(requireAuth).Get("/profile", authHandler.Profile)

	// Catalog routes
	r.Route("/api/books", func(r chi.Router) {
		r.Get("/", libraryHandler.ListAvailable)
		r.Get("/{id}/cover", libraryHandler.Cover)

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Post("/", libraryHandler.Add)
			r.Post("/add", libraryHandler.Add)
			r.Put("/borrow/{id}", libraryHandler.Borrow)
			r.Put("/return/{id}", libraryHandler.Return)
			r.Get("/mybooks", libraryHandler.Mine)
			r.Put("/{id}/cover", libraryHandler.UploadCover)
		})
	})

	// ── Server ───────────────────────────────────────────────
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		log.Infof("Backend listening on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down...")
	shutCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	srv.Shutdown(shutCtx)
}
