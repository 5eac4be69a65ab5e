package bootstrap

import (
	"context"
	"log"
	"time"

	"realtime-chat-be/internal/broker"
	"realtime-chat-be/internal/config"
	"realtime-chat-be/internal/controller"
	"realtime-chat-be/internal/gateway"
	"realtime-chat-be/internal/pkg/logger"
	"realtime-chat-be/internal/pkg/mailer"
	"realtime-chat-be/internal/pkg/serverutils"
	"realtime-chat-be/internal/presence"
	"realtime-chat-be/internal/registry"
	"realtime-chat-be/internal/repository/memory"
	"realtime-chat-be/internal/repository/unitofwork"
	"realtime-chat-be/internal/service"
	"realtime-chat-be/internal/session"
	"realtime-chat-be/internal/websocket"
	pkgNats "realtime-chat-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	AuthController controller.IAuthController
	RoomController controller.IRoomController
	UserController controller.IUserController

	// WebSocket transport
	WebSocketHandler *websocket.Handler

	// Auth middleware shared by controllers
	AuthMiddleware fiber.Handler

	// Core engine, exposed for main.go to run background loops
	Broker          *broker.Broker
	SessionManager  *session.Manager
	NotifierService service.INotifierService

	// Held for shutdown
	NatsPublisher *pkgNats.Publisher
	Logger        *logger.ZapLogger
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")
	store := gateway.NewGormGateway(uowFactory)

	emailService := mailer.NewEmailService(
		cfg.SMTP.Host,
		cfg.SMTP.Port,
		cfg.SMTP.Email,
		cfg.SMTP.Password,
		cfg.SMTP.SenderName,
		cfg.App.ClientURL,
	)

	// 2. Event bus (in-process, presence fanout)
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// 3. Infrastructure
	natsPub, err := pkgNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
		natsPub = nil
	}

	var rdb *redis.Client
	if cfg.App.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.App.RedisURL)
		if err != nil {
			log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
			opt = &redis.Options{
				Addr: cfg.App.RedisURL,
			}
		}
		rdb = redis.NewClient(opt)
		if _, err := rdb.Ping(context.Background()).Result(); err != nil {
			log.Printf("[WARN] Failed to connect to Redis: %v", err)
		}
	}

	denylist := memory.NewTokenDenylist()

	// 4. Core engine
	roomRegistry := registry.New(store, sysLogger)
	tracker := presence.NewTracker(store, pubSub, sysLogger)

	deliveryLogger := logger.NewIsolatedLogger(cfg.App.DeliveryLogPath)
	sessionManager := session.NewManager(roomRegistry, tracker, deliveryLogger)
	deliveryBroker := broker.New(store, roomRegistry, sessionManager, rdb, deliveryLogger)
	sessionManager.BindPublisher(deliveryBroker)

	// 5. Services
	tokenTTL := time.Duration(cfg.Auth.TokenTTLHours) * time.Hour
	authService := service.NewAuthService(store, emailService, natsPub, denylist, cfg.Auth.JWTSecret, tokenTTL, sysLogger)
	roomService := service.NewRoomService(store, roomRegistry, natsPub, cfg.Chat.HistoryLimit, sysLogger)
	userService := service.NewUserService(store, tracker, cfg.Chat.HistoryLimit)
	notifierService := service.NewNotifierService(pubSub, sessionManager, sysLogger)

	// 6. Transport
	authMiddleware := serverutils.JwtMiddleware(cfg.Auth.JWTSecret, denylist)
	wsHandler := websocket.NewHandler(sessionManager, store, denylist, cfg.Auth.JWTSecret, sysLogger)

	return &Container{
		AuthController:   controller.NewAuthController(authService),
		RoomController:   controller.NewRoomController(roomService),
		UserController:   controller.NewUserController(userService),
		WebSocketHandler: wsHandler,
		AuthMiddleware:   authMiddleware,
		Broker:           deliveryBroker,
		SessionManager:   sessionManager,
		NotifierService:  notifierService,
		NatsPublisher:    natsPub,
		Logger:           sysLogger,
	}
}
