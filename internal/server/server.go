// Package server is the composition root: it builds the storage, services,
// handlers and router, and runs the HTTP server.
//
// DEPENDENCY FLOW:
//
//	config.Config ─→ sqlstore.DB ─→ services ─→ handlers ─→ chi router
//	             └─→ TokenService, DiscordProvider, HTTPPreviewer ─┘
//
// New wires the real infrastructure from configuration. NewHandler takes the
// already-built pieces, so tests can assemble the whole API around an
// in-memory database and fake upstreams.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sakif/findsboard/internal/activity"
	"github.com/sakif/findsboard/internal/auth"
	"github.com/sakif/findsboard/internal/config"
	"github.com/sakif/findsboard/internal/handler"
	"github.com/sakif/findsboard/internal/middleware"
	"github.com/sakif/findsboard/internal/model"
	"github.com/sakif/findsboard/internal/preview"
	"github.com/sakif/findsboard/internal/repository/sqlstore"
	"github.com/sakif/findsboard/internal/service"
)

const shutdownTimeout = 30 * time.Second

// Dependencies are the externally built pieces NewHandler needs.
type Dependencies struct {
	DB        *sqlstore.DB
	Tokens    *auth.TokenService
	Provider  service.IdentityProvider
	Previewer preview.Previewer
	Activity  service.ActivityRecorder
	Login     service.LoginConfig
	Logger    *slog.Logger
}

// Server owns the database and the audit recorder; both are closed when
// Start returns.
type Server struct {
	handler  http.Handler
	config   *config.Config
	logger   *slog.Logger
	db       *sqlstore.DB
	activity *activity.Recorder
}

// New opens and migrates the database and wires every dependency from cfg.
// cfg must already have passed ValidateServe.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Server, error) {
	db, err := sqlstore.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.Migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating database: %w", err)
	}

	tokens, err := auth.NewTokenService(cfg.JWTSecret, cfg.SessionTTL)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating token service: %w", err)
	}

	recorder := activity.New(db.Logs(), logger)

	previewCfg := preview.DefaultConfig()
	previewer := preview.New(previewCfg, &http.Client{Timeout: previewCfg.Timeout}, logger)

	deps := Dependencies{
		DB:     db,
		Tokens: tokens,
		Provider: auth.NewDiscordProvider(auth.DiscordConfig{
			ClientID:     cfg.DiscordClientID,
			ClientSecret: cfg.DiscordClientSecret,
		}),
		Previewer: previewer,
		Activity:  recorder,
		Login:     LoginConfig(cfg),
		Logger:    logger,
	}

	return &Server{
		handler:  NewHandler(deps),
		config:   cfg,
		logger:   logger,
		db:       db,
		activity: recorder,
	}, nil
}

// LoginConfig maps the configured client redirect URIs onto login targets.
func LoginConfig(cfg *config.Config) service.LoginConfig {
	return service.LoginConfig{
		GuildID: cfg.DiscordGuildID,
		Targets: map[service.LoginTarget]service.LoginDestination{
			service.LoginWeb: {
				CallbackURL: cfg.CallbackURL(string(service.LoginWeb)),
				RedirectURI: cfg.RedirectURIWeb,
			},
			service.LoginApp: {
				CallbackURL: cfg.CallbackURL(string(service.LoginApp)),
				RedirectURI: cfg.RedirectURIApp,
			},
		},
	}
}

// Handler is the fully wired router.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// NewHandler builds services and handlers on top of deps and mounts them.
//
// MIDDLEWARE ORDER:
//  1. RequestID: assigns the id the request log line carries
//  2. RealIP: client address from proxy headers
//  3. Recoverer: a panic becomes a 500 instead of a dead connection
//  4. Authenticate: bearer token → Identity (never rejects)
//  5. Logger: sees both the request id and the identity
//
// Individual routes add RequireAuth or RequireAdmin. The services repeat
// their own checks, so a route missing a guard still cannot be abused.
func NewHandler(deps Dependencies) http.Handler {
	db, logger := deps.DB, deps.Logger

	notifier := service.NewNotifier(db.Subscriptions(), db.Notifications(), logger)

	finds := service.NewFindService(db.Finds(), db.Tags(), db.Users(), notifier, deps.Activity, logger)
	tags := service.NewTagService(db.Tags(), deps.Activity)
	reviews := service.NewReviewService(db.Reviews(), db.Finds(), notifier, deps.Activity)
	lists := service.NewListService(db.Lists(), db.Finds(), db.Users(), notifier, deps.Activity)
	comments := service.NewCommentService(db.Comments(), db.Finds(), db.Reviews(), db.Lists(), notifier)
	subs := service.NewSubscriptionService(db.Subscriptions(), db.Notifications(), db.Finds(), db.Reviews(), db.Tags(), db.Users(), db.Lists())
	emoji := service.NewEmojiService(db.Emoji(), deps.Activity)
	users := service.NewUserService(db.Users(), db.Stats(), deps.Activity, logger)
	logs := service.NewLogService(db.Logs())
	search := service.NewSearchService(db.Finds(), db.Reviews(), db.Tags(), db.Users(), db.Stats())
	login := service.NewLoginService(deps.Provider, deps.Tokens, db.Users(), deps.Activity, deps.Login, logger)

	findH := handler.NewFindHandler(finds, reviews, logger)
	tagH := handler.NewTagHandler(tags, logger)
	reviewH := handler.NewReviewHandler(reviews, logger)
	listH := handler.NewListHandler(lists, logger)
	userH := handler.NewUserHandler(users, finds, lists, logger)
	subH := handler.NewSubscriptionHandler(subs, logger)
	emojiH := handler.NewEmojiHandler(emoji, logger)
	logH := handler.NewLogHandler(logs, logger)
	siteH := handler.NewSiteHandler(search, deps.Previewer, logger)
	authH := handler.NewAuthHandler(login, logger)

	findComments := handler.NewCommentHandler(comments, model.CommentOnFind, logger)
	reviewComments := handler.NewCommentHandler(comments, model.CommentOnReview, logger)
	listComments := handler.NewCommentHandler(comments, model.CommentOnList, logger)

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(auth.Authenticate(deps.Tokens, db.Users(), logger))
	r.Use(middleware.Logger(logger))

	r.Route("/v1", func(r chi.Router) {
		r.Get("/", siteH.HandleIndex)
		r.Get("/search", siteH.HandleSearch)
		r.Get("/stats", siteH.HandleStats)
		r.With(auth.RequireAuth).Get("/util/urlPreview", siteH.HandleURLPreview)

		r.Get("/auth/discord/{target}", authH.HandleBegin)
		r.Get("/auth/discord/{target}/callback", authH.HandleCallback)

		r.Route("/finds", func(r chi.Router) {
			r.Get("/", findH.HandleList)
			r.Get("/{id}", findH.HandleGet)
			r.Get("/{id}/reviews", findH.HandleReviews)
			r.Get("/{id}/comments", findComments.HandleList)

			r.Group(func(r chi.Router) {
				r.Use(auth.RequireAuth)
				r.Post("/", findH.HandleCreate)
				r.Patch("/{id}", findH.HandleUpdate)
				r.Delete("/{id}", findH.HandleDelete)
				r.Post("/{id}/tags", findH.HandleAttachTag)
				r.Delete("/{id}/tags/{tagId}", findH.HandleDetachTag)
				r.Post("/{id}/comments", findComments.HandleCreate)
				r.Delete("/{id}/comments/{commentId}", findComments.HandleDelete)
			})
		})

		r.Route("/tags", func(r chi.Router) {
			r.Get("/", tagH.HandleList)
			r.Get("/name/{name}", tagH.HandleGetByName)
			r.Get("/{id}", tagH.HandleGet)
			r.With(auth.RequireAdmin).Delete("/{id}", tagH.HandleDelete)
		})

		r.Route("/reviews", func(r chi.Router) {
			r.Get("/", reviewH.HandleList)
			r.Get("/{id}", reviewH.HandleGet)
			r.Get("/{id}/comments", reviewComments.HandleList)

			r.Group(func(r chi.Router) {
				r.Use(auth.RequireAuth)
				r.Post("/", reviewH.HandleCreate)
				r.Patch("/{id}", reviewH.HandleUpdate)
				r.Delete("/{id}", reviewH.HandleDelete)
				r.Post("/{id}/comments", reviewComments.HandleCreate)
				r.Delete("/{id}/comments/{commentId}", reviewComments.HandleDelete)
			})
		})

		r.Route("/lists", func(r chi.Router) {
			r.Get("/", listH.HandleList)
			r.Get("/{id}", listH.HandleGet)
			r.Get("/{id}/comments", listComments.HandleList)

			r.Group(func(r chi.Router) {
				r.Use(auth.RequireAuth)
				r.Post("/", listH.HandleCreate)
				r.Patch("/{id}", listH.HandleUpdate)
				r.Delete("/{id}", listH.HandleDelete)
				r.Post("/{id}/items", listH.HandleAddItem)
				r.Delete("/{id}/items/{findId}", listH.HandleRemoveItem)
				r.Post("/{id}/comments", listComments.HandleCreate)
				r.Delete("/{id}/comments/{commentId}", listComments.HandleDelete)
			})
		})

		r.Route("/users", func(r chi.Router) {
			r.Get("/", userH.HandleList)
			r.Get("/{id}", userH.HandleGet)
			r.Get("/{id}/finds", userH.HandleFinds)
			r.Get("/{id}/lists", userH.HandleLists)
			r.Get("/{id}/stats", userH.HandleStats)

			r.Group(func(r chi.Router) {
				r.Use(auth.RequireAdmin)
				r.Post("/{id}/admin", userH.HandleGrantAdmin)
				r.Delete("/{id}", userH.HandleDelete)
			})
		})

		r.Route("/me", func(r chi.Router) {
			r.Use(auth.RequireAuth)
			r.Get("/", userH.HandleMe)
			r.Get("/subscriptions", subH.HandleList)
			r.Get("/notifications", subH.HandleNotifications)
			r.Post("/notifications/{id}/read", subH.HandleMarkRead)
		})

		r.Route("/subscriptions", func(r chi.Router) {
			r.Use(auth.RequireAuth)
			r.Post("/", subH.HandleCreate)
			r.Delete("/{id}", subH.HandleDelete)
		})

		r.Route("/emoji", func(r chi.Router) {
			r.Get("/", emojiH.HandleList)
			r.With(auth.RequireAuth).Post("/", emojiH.HandleCreate)
			r.With(auth.RequireAuth).Delete("/{id}", emojiH.HandleDelete)
		})

		r.Route("/logs", func(r chi.Router) {
			r.Use(auth.RequireAdmin)
			r.Get("/", logH.HandleList)
			r.Get("/{id}", logH.HandleGet)
		})
	})

	return r
}

// Start serves until SIGINT/SIGTERM or ctx is cancelled, then shuts down.
//
// SHUTDOWN ORDER:
//  1. Stop accepting connections and drain in-flight requests (30s)
//  2. Wait for pending audit log writes
//  3. Close the database
func (s *Server) Start(ctx context.Context) error {
	defer s.db.Close()
	defer s.activity.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("publicURL", s.config.PublicURL),
			slog.String("dialect", string(s.db.Dialect())),
			slog.String("env", s.config.AppEnv),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))
	case <-ctx.Done():
		s.logger.Info("shutdown requested")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	s.logger.Info("server stopped gracefully")
	return nil
}
