package server

import (
	"backend-fieldtrack/internal/attendance"
	"backend-fieldtrack/internal/auth"
	"backend-fieldtrack/internal/config"
	"backend-fieldtrack/internal/location"
	"backend-fieldtrack/internal/partner"
	"backend-fieldtrack/internal/report"
	"backend-fieldtrack/internal/stream"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

type Server struct {
	App    *fiber.App
	Cfg    config.Config
	DB     *pgxpool.Pool
	Redis  *redis.Client
	Stream *stream.Hub
}

func NewServer(cfg config.Config, db *pgxpool.Pool, redisClient *redis.Client) *Server {
	app := fiber.New()
	app.Use(recover.New())
	app.Use(logger.New())

	s := &Server{
		App:    app,
		Cfg:    cfg,
		DB:     db,
		Redis:  redisClient,
		Stream: stream.NewHub(redisClient),
	}

	registerRoutes(s)
	return s
}

func registerRoutes(s *Server) {
	s.App.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	jwtMiddleware := auth.JWTMiddleware(s.Cfg.JWTSecret)

	auth.RegisterRoutes(s.App.Group("/auth"), auth.NewService(s.Cfg.JWTSecret, s.DB))
	partner.RegisterRoutes(s.App.Group("/partners"), partner.NewService(s.DB), jwtMiddleware)
	location.RegisterRoutes(s.App.Group("/locations"), location.NewService(s.DB), jwtMiddleware)
	attendance.RegisterRoutes(s.App.Group("/attendance"), attendance.NewService(s.DB, s.Stream, s.Cfg.DBTimeout), jwtMiddleware)
	report.RegisterRoutes(s.App.Group("/reports"), report.NewService(s.DB), jwtMiddleware)
	stream.RegisterRoutes(s.App.Group("/stream"), s.Stream)
}
