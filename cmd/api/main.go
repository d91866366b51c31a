package main

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.uber.org/zap"

	_ "github.com/cowriteapp/cowrite/docs"
	"github.com/cowriteapp/cowrite/internal/auth"
	"github.com/cowriteapp/cowrite/internal/broadcast"
	"github.com/cowriteapp/cowrite/internal/circle"
	"github.com/cowriteapp/cowrite/internal/config"
	"github.com/cowriteapp/cowrite/internal/contribution"
	"github.com/cowriteapp/cowrite/internal/database"
	"github.com/cowriteapp/cowrite/internal/invitation"
	"github.com/cowriteapp/cowrite/internal/mailer"
	"github.com/cowriteapp/cowrite/internal/policy"
	"github.com/cowriteapp/cowrite/internal/story"
	"github.com/cowriteapp/cowrite/internal/user"
	mw "github.com/cowriteapp/cowrite/pkg/middleware"
)

// @title           CoWrite API
// @version         1.0
// @description     Collaborative storytelling backend
// @BasePath        /api/v1
func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	db, err := database.NewPostgresConnection(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	logger.Info("connected to database")

	tokens := auth.NewTokens(cfg.JWTSecret, cfg.TokenTTL)

	// Membership policy shared by every feature
	pol := policy.New(policy.NewRepository(db))

	// Broadcast hub for story event fan-out
	hub := broadcast.NewHub(logger)

	var m mailer.Mailer
	if cfg.SMTPHost != "" {
		m = mailer.NewSMTP(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.SMTPFrom)
	} else {
		logger.Info("no SMTP host configured, logging invitations instead")
		m = mailer.NewLog(logger)
	}

	// User feature
	userRepo := user.NewRepository(db)
	userService := user.NewService(userRepo, tokens)
	userHandler := user.NewHandler(userService)

	// Circle feature
	circleRepo := circle.NewRepository(db)
	circleService := circle.NewService(circleRepo, pol)
	circleHandler := circle.NewHandler(circleService)

	// Contribution feature (publishes into the hub)
	contributionRepo := contribution.NewRepository(db)
	contributionService := contribution.NewService(contributionRepo, pol, hub, logger)
	contributionHandler := contribution.NewHandler(contributionService)

	// Story feature (opening turns go through the contribution service)
	storyRepo := story.NewRepository(db)
	storyService := story.NewService(storyRepo, pol, contributionService, logger)
	storyHandler := story.NewHandler(storyService)

	// Invitation feature
	invitationRepo := invitation.NewRepository(db)
	invitationService := invitation.NewService(invitationRepo, pol, m, logger, cfg.AppURL)
	invitationHandler := invitation.NewHandler(invitationService)

	// SSE subscriptions
	broadcastHandler := broadcast.NewHandler(hub, pol, logger)

	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	r.Route("/api/v1", func(r chi.Router) {
		// Public routes
		r.Post("/auth/register", userHandler.Register)
		r.Post("/auth/login", userHandler.Login)
		r.Get("/invitations/{token}", invitationHandler.Lookup)

		// Authenticated routes
		r.Group(func(r chi.Router) {
			r.Use(mw.Auth(tokens, userService))

			r.Delete("/auth/logout", userHandler.Logout)
			r.Get("/auth/me", userHandler.Me)
			r.Post("/invitations/{token}/accept", invitationHandler.Accept)

			r.Route("/circles", func(r chi.Router) {
				r.Post("/", circleHandler.Create)
				r.Get("/", circleHandler.List)
				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", circleHandler.Get)
					r.Put("/", circleHandler.Update)
					r.Delete("/", circleHandler.Delete)
					r.Post("/invitations", invitationHandler.Create)
					r.Get("/stories", storyHandler.List)
					r.Post("/stories", storyHandler.Create)
				})
			})

			r.Route("/stories/{id}", func(r chi.Router) {
				r.Get("/", storyHandler.Get)
				r.Patch("/complete", storyHandler.Complete)
				r.Post("/contributions", contributionHandler.Create)
				r.Get("/events", broadcastHandler.Subscribe)
			})

			r.Patch("/contributions/{id}", contributionHandler.Update)

			r.Route("/admin", func(r chi.Router) {
				r.Use(mw.RequireSuperAdmin)

				r.Get("/circles", circleHandler.AdminList)
				r.Get("/circles/{id}", circleHandler.AdminGet)
				r.Delete("/circles/{id}", circleHandler.AdminDelete)

				r.Get("/stories", storyHandler.AdminList)
				r.Get("/stories/{id}", storyHandler.AdminGet)

				r.Get("/users", userHandler.AdminList)
				r.Get("/users/{id}", userHandler.AdminGet)
				r.Delete("/users/{id}", userHandler.AdminDelete)
				r.Post("/users/{id}/impersonate", userHandler.Impersonate)

				r.Patch("/contributions/{id}", contributionHandler.AdminUpdate)
				r.Delete("/contributions/{id}", contributionHandler.AdminDelete)
			})
		})
	})

	logger.Info("server starting", zap.String("port", cfg.Port))
	if err := http.ListenAndServe(":"+cfg.Port, r); err != nil {
		logger.Fatal("server failed", zap.Error(err))
	}
}
