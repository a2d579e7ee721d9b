package main

import (
	"log"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/websocket/v2"
	"github.com/joho/godotenv"

	"github.com/TarangPatel19273/Chat-App-sub000/internal/cache"
	"github.com/TarangPatel19273/Chat-App-sub000/internal/handlers"
	"github.com/TarangPatel19273/Chat-App-sub000/internal/identity"
	"github.com/TarangPatel19273/Chat-App-sub000/internal/middleware"
	"github.com/TarangPatel19273/Chat-App-sub000/internal/repository"
	"github.com/TarangPatel19273/Chat-App-sub000/internal/service"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	if os.Getenv("JWT_SECRET") == "" {
		log.Fatal("JWT_SECRET is required")
	}

	slogger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	app := fiber.New(fiber.Config{
		AppName: "Messaging Core",
	})

	// Middleware
	app.Use(requestid.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     os.Getenv("ALLOWED_ORIGINS"),
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowMethods:     "GET, POST, PUT, DELETE, OPTIONS",
		AllowCredentials: true,
	}))
	app.Use(limiter.New(limiter.Config{
		Max:        120,
		Expiration: time.Minute,
	}))

	db, err := repository.InitDB()
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	// Redis is optional; without it the service reads straight from the store.
	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		redisAddr = "localhost:6379"
	}
	redisDB := 0
	if dbStr := os.Getenv("REDIS_DB"); dbStr != "" {
		if parsedDB, err := strconv.Atoi(dbStr); err == nil {
			redisDB = parsedDB
		}
	}
	redisCache := cache.NewRedisCache(redisAddr, os.Getenv("REDIS_PASSWORD"), redisDB)
	if err := redisCache.Ping(); err != nil {
		log.Printf("WARNING: Redis connection failed: %v. Running without cache.", err)
		redisCache = nil
	}
	messageCache := cache.NewMessageCache(redisCache)
	userCache := cache.NewUserCache(redisCache)

	// Repositories
	userRepo := repository.NewUserRepository(db)
	messageRepo := repository.NewMessageRepository(db)
	groupRepo := repository.NewGroupRepository(db)
	cursorRepo := repository.NewCursorRepository(db)

	// External collaborators: swap in real implementations here when the
	// identity/relationship providers live elsewhere.
	resolver := identity.NewRepoResolver(userRepo)
	relationship := identity.NewOpenRelationships(userRepo)
	reporter := service.NewSlogReporter(slogger)

	// Services
	messageService := service.NewMessageService(messageRepo, messageCache, relationship, reporter, slogger)
	groupService := service.NewGroupService(groupRepo, cursorRepo, messageRepo, resolver, messageCache, slogger)
	presenceService := service.NewPresenceService(userRepo, userCache)

	// Handlers
	messageHandler := handlers.NewMessageHandler(messageService)
	groupHandler := handlers.NewGroupHandler(groupService)
	wsHandler := handlers.NewWebSocketHandler(messageService, groupService, presenceService, slogger)

	api := app.Group("/api", middleware.AuthRequired())

	api.Get("/rooms/with/:peerId", messageHandler.OpenRoom)
	api.Get("/conversations", messageHandler.ListConversations)
	api.Post("/rooms/:roomId/messages", messageHandler.SendMessage)
	api.Post("/rooms/:roomId/read/:senderId", messageHandler.MarkRead)
	api.Delete("/rooms/:roomId/messages/:messageId", messageHandler.DeleteMessage)
	api.Get("/rooms/:roomId/unread/:senderId", messageHandler.UnreadCount)

	api.Post("/groups", groupHandler.CreateGroup)
	api.Get("/groups", groupHandler.GetMyGroups)
	api.Get("/groups/:id/members", groupHandler.GetGroupMembers)
	api.Post("/groups/:id/members", groupHandler.AddMember)
	api.Delete("/groups/:id/members/:userId", groupHandler.RemoveMember)
	api.Post("/groups/:id/leave", groupHandler.LeaveGroup)
	api.Delete("/groups/:id", groupHandler.DeleteGroup)
	api.Post("/groups/:id/messages", groupHandler.SendMessage)
	api.Delete("/groups/:id/messages/:messageId", groupHandler.DeleteMessage)
	api.Post("/groups/:id/read", groupHandler.MarkRead)
	api.Get("/groups/:id/unread", groupHandler.UnreadCount)

	ws := app.Group("/ws", middleware.AuthRequired(), func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	ws.Get("/rooms/:roomId", websocket.New(wsHandler.HandleRoom))
	ws.Get("/groups/:id", websocket.New(wsHandler.HandleGroup))

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	log.Fatal(app.Listen(":" + port))
}
