package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jeffgoval/massage/internal/auth"
	"github.com/jeffgoval/massage/internal/bookings"
	"github.com/jeffgoval/massage/internal/cache"
	"github.com/jeffgoval/massage/internal/catalog"
	"github.com/jeffgoval/massage/internal/chat"
	"github.com/jeffgoval/massage/internal/config"
	"github.com/jeffgoval/massage/internal/db"
	"github.com/jeffgoval/massage/internal/favorites"
	"github.com/jeffgoval/massage/internal/feed"
	"github.com/jeffgoval/massage/internal/media"
	"github.com/jeffgoval/massage/internal/middleware"
	"github.com/jeffgoval/massage/internal/notifications"
	"github.com/jeffgoval/massage/internal/pricing"
	"github.com/jeffgoval/massage/internal/roles"
	"github.com/jeffgoval/massage/internal/tenants"
	"github.com/jeffgoval/massage/internal/transport"
	"github.com/jeffgoval/massage/internal/users"
	"github.com/jeffgoval/massage/internal/validation"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	if cfg.JWTSecret == "" {
		logger.Error("JWT_SECRET is required")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, database, cols, err := db.Connect(ctx, cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		logger.Error("mongo connection failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger.Info("mongo connected")
	defer client.Disconnect(context.Background())

	if err := db.EnsureIndexes(ctx, cols); err != nil {
		logger.Error("index creation failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	var cacheStore cache.Cache = cache.NewNoop()
	var feedBus feed.Feed = feed.NewNoop()
	if cfg.RedisURL != "" || cfg.RedisAddr != "" {
		var redisCache *cache.RedisCache
		var err error
		if cfg.RedisURL != "" {
			redisCache, err = cache.NewRedisFromURL(cfg.RedisURL)
		} else {
			redisCache = cache.NewRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		}
		if err != nil {
			logger.Error("redis connection failed", slog.String("error", err.Error()))
			os.Exit(1)
		}
		if err := redisCache.Ping(ctx); err != nil {
			logger.Error("redis connection failed", slog.String("error", err.Error()))
			os.Exit(1)
		}
		logger.Info("redis connected")
		cacheStore = redisCache
		feedBus = feed.NewRedis(redisCache.Client())
	} else {
		logger.Info("redis not configured, cache and change feed disabled")
	}

	jwtManager := &auth.Manager{
		Secret:     []byte(cfg.JWTSecret),
		AccessTTL:  time.Duration(cfg.AccessTTLMinutes) * time.Minute,
		RefreshTTL: time.Duration(cfg.RefreshTTLMinutes) * time.Minute,
		Issuer:     "massage",
	}

	brevo := notifications.NewBrevoClient(cfg.BrevoAPIKey, cfg.BrevoSenderEmail, cfg.BrevoSenderName, cfg.BrevoSandbox)
	if brevo == nil {
		logger.Info("brevo mailer disabled")
	} else {
		logger.Info("brevo mailer enabled", slog.String("sender", cfg.BrevoSenderEmail), slog.Bool("sandbox", cfg.BrevoSandbox))
	}

	val := validation.New()
	cacheTTL := time.Duration(cfg.CacheTTLSeconds) * time.Second

	pricingRepo := pricing.NewRepository(cols.PricingConfigs)
	pricingService := pricing.NewService(pricingRepo, cfg.Timezone)

	packageRepo := catalog.NewPackageRepository(cols.Packages)
	reviewRepo := catalog.NewReviewRepository(cols.Reviews)

	tenantRepo := tenants.NewRepository(cols.Tenants)
	tenantService := tenants.NewService(tenantRepo, packageRepo, reviewRepo, pricingService, cacheStore, cacheTTL, cfg.Timezone)
	tenantHandler := tenants.NewHandler(tenantService, val, logger)

	catalogService := catalog.NewService(packageRepo, reviewRepo, tenantService, cfg.Timezone)
	catalogHandler := catalog.NewHandler(catalogService, val, logger)

	pricingHandler := pricing.NewHandler(pricingService, tenantService, val, logger)

	userRepo := users.NewRepository(cols.Users)
	userService := users.NewService(userRepo, tenantService, logger, cfg.Timezone)
	userHandler := users.NewHandler(userService, jwtManager, val, logger, cfg.CookieSecure)

	if err := userService.EnsureAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword); err != nil {
		logger.Error("admin bootstrap failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	chatRepo := chat.NewRepository(cols.Chats, cols.Messages)
	chatService := chat.NewService(chatRepo, feedBus, logger, cfg.Timezone)
	chatHandler := chat.NewHandler(chatService, val, logger)

	favoriteRepo := favorites.NewRepository(cols.Favorites)
	favoriteService := favorites.NewService(favoriteRepo, feedBus, logger, cfg.Timezone)
	favoriteHandler := favorites.NewHandler(favoriteService, val, logger)

	// A missing mailer stays a nil interface so booking follow-ups skip it.
	var mailer bookings.Mailer
	if brevo != nil {
		mailer = brevo
	}
	bookingRepo := bookings.NewRepository(cols.Bookings)
	bookingService := bookings.NewService(bookingRepo, tenantService, catalogService, pricingService, chatService, userService, mailer, feedBus, logger, cfg.Timezone)
	bookingHandler := bookings.NewHandler(bookingService, val, logger)

	mediaService, err := media.NewService(database)
	if err != nil {
		logger.Error("media bucket init failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
	mediaHandler := media.NewHandler(mediaService, tenantService, logger)

	r := chi.NewRouter()
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Recoverer)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Metrics())
	r.Use(middleware.CORS(cfg.FrontendOrigin))

	authLimiter := middleware.NewRateLimiter(cfg.RateLimitAuth, time.Duration(cfg.RateLimitWindowSec)*time.Second)
	bookingLimiter := middleware.NewRateLimiter(cfg.RateLimitBookings, time.Duration(cfg.RateLimitWindowSec)*time.Second)
	messageLimiter := middleware.NewRateLimiter(cfg.RateLimitMessages, time.Duration(cfg.RateLimitWindowSec)*time.Second)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		transport.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api", func(api chi.Router) {
		api.Use(chiMiddleware.Timeout(30 * time.Second))

		api.Route("/auth", func(ar chi.Router) {
			ar.With(authLimiter.Middleware).Post("/register", userHandler.Register)
			ar.With(authLimiter.Middleware).Post("/login", userHandler.Login)
			ar.Post("/refresh", userHandler.Refresh)
			ar.Post("/logout", userHandler.Logout)
			ar.With(middleware.RequireAuth(jwtManager)).Get("/me", userHandler.Me)
		})

		api.Get("/tenants", tenantHandler.Search)
		api.Get("/profiles/{slug}", tenantHandler.PublicProfile)
		api.Get("/tenants/{tenantId}/packages", catalogHandler.PublicPackages)
		api.Get("/tenants/{tenantId}/reviews", catalogHandler.PublicReviews)
		api.Get("/media/{id}", mediaHandler.Serve)

		api.Group(func(authed chi.Router) {
			authed.Use(middleware.RequireAuth(jwtManager))

			authed.Group(func(chats chi.Router) {
				chats.Use(middleware.RequirePermission(roles.PermChat))
				chats.Post("/chats", chatHandler.Start)
				chats.Get("/chats", chatHandler.List)
				chats.Get("/chats/{id}/messages", chatHandler.Messages)
				chats.With(messageLimiter.Middleware).Post("/chats/{id}/messages", chatHandler.Send)
				chats.Post("/chats/{id}/read", chatHandler.MarkRead)
				chats.Get("/chats/{id}/stream", chatHandler.Stream)
			})

			authed.Group(func(clients chi.Router) {
				clients.Use(middleware.RequirePermission(roles.PermBook))
				clients.Post("/favorites", favoriteHandler.Toggle)
				clients.Get("/favorites", favoriteHandler.List)
				clients.Get("/favorites/{tenantId}", favoriteHandler.Check)
				clients.With(bookingLimiter.Middleware).Post("/bookings", bookingHandler.Create)
			})

			authed.With(middleware.RequirePermission(roles.PermReview)).
				Post("/tenants/{tenantId}/reviews", catalogHandler.CreateReview)

			// Role-specific listing and the client-cancel path are decided in
			// the bookings service, so these stay behind plain auth.
			authed.Get("/bookings", bookingHandler.List)
			authed.Get("/bookings/{id}", bookingHandler.Get)
			authed.Patch("/bookings/{id}/status", bookingHandler.UpdateStatus)

			authed.Group(func(pro chi.Router) {
				pro.Use(middleware.RequirePermission(roles.PermManageProfile))
				pro.Get("/me/profile", tenantHandler.Me)
				pro.Put("/me/profile", tenantHandler.UpdateMe)
				pro.Post("/me/avatar", mediaHandler.UploadAvatar)
				pro.Get("/me/packages", catalogHandler.MyPackages)
				pro.Post("/me/packages", catalogHandler.CreatePackage)
				pro.Put("/me/packages/{id}", catalogHandler.UpdatePackage)
				pro.Delete("/me/packages/{id}", catalogHandler.DeletePackage)
			})

			authed.Group(func(pro chi.Router) {
				pro.Use(middleware.RequirePermission(roles.PermManageAvailability))
				pro.Get("/me/pricing", pricingHandler.Get)
				pro.Put("/me/pricing", pricingHandler.Save)
			})

			authed.Group(func(admin chi.Router) {
				admin.Use(middleware.RequirePermission(roles.PermManageUsers))
				admin.Get("/admin/users", userHandler.AdminList)
				admin.Patch("/admin/users/{id}/active", userHandler.AdminSetActive)
				admin.Patch("/admin/users/{id}/role", userHandler.AdminChangeRole)
			})

			authed.With(middleware.RequirePermission(roles.PermModerate)).
				Post("/admin/chats/dedupe", chatHandler.Dedupe)
		})
	})

	srv := &http.Server{
		Addr:    cfg.ServerAddr,
		Handler: r,
	}

	go func() {
		logger.Info("server started", slog.String("addr", cfg.ServerAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", slog.String("error", err.Error()))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.String("error", err.Error()))
	}
}
