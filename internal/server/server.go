// Package server contains the HTTP handlers for the application's API endpoints.
package server

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"taleweave/internal/assethost"
	"taleweave/internal/cache"
	"taleweave/internal/config"
	"taleweave/internal/database"
	"taleweave/internal/generation"
	"taleweave/internal/middleware"
	"taleweave/internal/models"
	"taleweave/internal/repository"
	"taleweave/internal/service"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	promMiddleware *fiberprometheus.FiberPrometheus
	userRepo       repository.UserRepository
	storyRepo      repository.StoryRepository
	commentRepo    repository.CommentRepository
	authService    *service.AuthService
	userService    *service.UserService
	storyService   *service.StoryService
	mediaService   *service.MediaService
	generator      *generation.Generator
}

// NewServer creates a new server instance with all dependencies.
// A nil database from Connect is tolerated: the server starts in degraded
// mode where the health probe reports the outage and data routes answer
// per-request with a database error.
func NewServer(cfg *config.Config) (*Server, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		middleware.Logger.Error("starting without database", "error", err)
		db = nil
	} else if err := database.Migrate(db, cfg); err != nil {
		return nil, err
	}

	cache.InitRedis(cfg.RedisURL)

	return NewServerWithDeps(cfg, db, cache.GetClient()), nil
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// Use this in tests or when a bootstrap layer establishes DB/Redis itself.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) *Server {
	models.SetEnvironment(cfg.Env)

	var userRepo repository.UserRepository
	var storyRepo repository.StoryRepository
	var commentRepo repository.CommentRepository
	if db != nil {
		userRepo = repository.NewUserRepository(db)
		storyRepo = repository.NewStoryRepository(db)
		commentRepo = repository.NewCommentRepository(db)
	}

	var host service.AssetPublisher
	if cfg.AssetHostURL != "" {
		host = assethost.New(cfg.AssetHostURL, cfg.AssetHostKey, cfg.AssetHostSecret)
	}
	mediaService := service.NewMediaService(host, cfg.UploadDir)

	var completions generation.CompletionClient
	if cfg.GenerationAPIKey != "" {
		completions = generation.NewClient(cfg.GenerationAPIURL, cfg.GenerationAPIKey)
	}

	server := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		promMiddleware: middleware.InitMetrics("taleweave-api"),
		userRepo:       userRepo,
		storyRepo:      storyRepo,
		commentRepo:    commentRepo,
		mediaService:   mediaService,
		generator:      generation.NewGenerator(completions),
	}
	if db != nil {
		server.authService = service.NewAuthService(userRepo, cfg.JWTSecret)
		server.userService = service.NewUserService(userRepo, storyRepo, mediaService)
		server.storyService = service.NewStoryService(storyRepo, commentRepo)
	}

	return server
}

// ErrorHandler translates errors that escape handlers (unmatched routes,
// body-limit overruns, recovered panics) into the failure envelope. Nothing
// on the JSON API surface may answer with Fiber's plain-text default.
func (s *Server) ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		code = fiberErr.Code
	}

	if code >= fiber.StatusInternalServerError {
		middleware.Logger.ErrorContext(c.UserContext(), "unhandled error",
			slog.String("error", err.Error()))
		return models.RespondWithError(c, code, models.NewInternalError(err))
	}
	return models.RespondWithError(c, code, err)
}

// Shutdown releases the server's external resources.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			return err
		}
	}
	if s.db != nil {
		sqlDB, err := s.db.DB()
		if err != nil {
			return err
		}
		return sqlDB.Close()
	}
	return nil
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	// Panic recovery
	app.Use(recover.New())

	// Request ID for tracing
	app.Use(requestid.New())

	// Context middleware to propagate request ID and user ID
	app.Use(middleware.ContextMiddleware())

	// Prometheus metrics
	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	// Security headers
	app.Use(helmet.New())

	// Structured logging middleware (after requestid and context middleware)
	app.Use(middleware.StructuredLogger())

	// CORS must run before middlewares that can short-circuit (e.g. limiter)
	// so browser clients still receive CORS headers on error responses.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000"
	}

	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
		MaxAge:           86400, // 24 hours
	}))

	// Global rate limiting (100 requests per minute per IP)
	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: 1 * time.Minute,
		// Never rate-limit preflight requests; they are handled by CORS.
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return models.RespondWithError(c, fiber.StatusTooManyRequests,
				models.NewRateLimitError("Too many requests, please try again later"))
		},
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	app.Get("/health", s.HealthCheck)

	// Metrics endpoint for Prometheus
	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	// Local-mode uploaded assets
	if s.config.UploadDir != "" {
		app.Static("/uploads", s.config.UploadDir)
	}

	api := app.Group("/api", s.RequireDatabase())

	// Public user/auth routes
	users := api.Group("/users")
	users.Post("/register", middleware.RateLimit(
		s.redis, 3, 10*time.Minute, "register"), s.Register)
	users.Post("/login", middleware.RateLimit(
		s.redis, 10, 5*time.Minute, "login"), s.Login)
	users.Post("/forgot-password", middleware.RateLimit(
		s.redis, 3, 15*time.Minute, "forgot_password"), s.ForgotPassword)
	users.Post("/reset-password", s.ResetPassword)

	// Protected profile routes
	profile := users.Group("/profile", s.AuthRequired())
	profile.Get("/", s.GetProfile)
	profile.Put("/", s.UpdateProfile)
	profile.Delete("/", s.DeleteProfile)
	profile.Post("/picture", s.UploadProfilePicture)

	// Story routes. Specific paths must be registered before the generic
	// /:id routes or Fiber will swallow them.
	stories := api.Group("/stories")
	stories.Post("/generate", s.AuthRequired(), middleware.RateLimit(
		s.redis, 5, time.Minute, "generate"), s.GenerateStory)
	stories.Get("/user/:userId", s.AuthRequired(), s.GetUserStories)
	stories.Get("/", s.GetStories)
	stories.Post("/", s.AuthRequired(), middleware.RateLimit(
		s.redis, 10, time.Minute, "create_story"), s.CreateStory)
	stories.Post("/:id/like", s.AuthRequired(), s.ToggleLike)
	stories.Post("/:id/comments", s.AuthRequired(), middleware.RateLimit(
		s.redis, 15, time.Minute, "create_comment"), s.AddComment)
	stories.Get("/:id", s.GetStory)
	stories.Put("/:id", s.AuthRequired(), s.UpdateStory)
	stories.Delete("/:id", s.AuthRequired(), s.DeleteStory)
}

// HealthCheck handles GET /health. It reports the database status instead of
// failing, so a degraded instance is still observable.
func (s *Server) HealthCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 5*time.Second)
	defer cancel()

	dbStatus := "connected"
	if err := database.Health(ctx, s.db); err != nil {
		dbStatus = "disconnected"
	}

	redisStatus := "connected"
	if s.redis == nil {
		redisStatus = "unavailable"
	} else if err := s.redis.Ping(ctx).Err(); err != nil {
		redisStatus = "disconnected"
	}

	status := "ok"
	if dbStatus != "connected" {
		status = "degraded"
	}

	return c.JSON(fiber.Map{
		"status":   status,
		"database": dbStatus,
		"redis":    redisStatus,
		"time":     time.Now(),
	})
}

// RequireDatabase rejects data-dependent requests while the server runs in
// degraded mode, instead of letting handlers hit a nil connection.
func (s *Server) RequireDatabase() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if s.db == nil {
			return models.RespondWithError(c, fiber.StatusInternalServerError,
				models.NewInternalError(database.ErrNotConnected))
		}
		return c.Next()
	}
}

// AuthRequired returns the authentication middleware
func (s *Server) AuthRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		tokenString := ""
		if authHeader != "" {
			parts := strings.Split(authHeader, " ")
			if len(parts) == 2 && parts[0] == "Bearer" {
				tokenString = parts[1]
			}
		}
		if tokenString == "" {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Authorization required"))
		}

		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fiber.NewError(fiber.StatusUnauthorized, "Invalid signing method")
			}
			return []byte(s.config.JWTSecret), nil
		})
		if err != nil || !token.Valid {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Invalid or expired token"))
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Invalid token claims"))
		}

		if issuer, issuerOk := claims["iss"].(string); !issuerOk || issuer != "taleweave-api" {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Invalid token issuer"))
		}
		if audience, audienceOk := claims["aud"].(string); !audienceOk || audience != "taleweave-client" {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Invalid token audience"))
		}

		sub, ok := claims["sub"].(string)
		if !ok {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Invalid subject claim"))
		}
		userID, err := strconv.ParseUint(sub, 10, 32)
		if err != nil || userID == 0 {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Invalid subject claim"))
		}

		c.Locals("userID", uint(userID))
		// Sync to UserContext for logging and downstream services.
		ctx := context.WithValue(c.UserContext(), middleware.UserIDKey, uint(userID))
		c.SetUserContext(ctx)

		return c.Next()
	}
}
