package bootstrap

import (
	"context"
	"log"

	"memento-be/internal/config"
	"memento-be/internal/controller"
	"memento-be/internal/pkg/logger"
	"memento-be/internal/pkg/mailer"
	"memento-be/internal/repository/memory"
	"memento-be/internal/repository/unitofwork"
	"memento-be/internal/service"
	"memento-be/internal/websocket"
	"memento-be/pkg/cist"
	"memento-be/pkg/cist/policy"
	"memento-be/pkg/cist/template"
	"memento-be/pkg/llm/factory"
	pktNats "memento-be/pkg/nats"
	"memento-be/pkg/qcache"
	"memento-be/pkg/question"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	AuthController    controller.IAuthController
	UserController    controller.IUserController
	PhotoController   controller.IPhotoController
	SessionController controller.ISessionController

	// Background services, exposed for main to run.
	PipelineConsumerService service.IPipelineConsumerService

	// WebSocket transport
	WebSocketHub        *websocket.Hub
	ConversationService service.IConversationService
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	emailService := mailer.NewEmailService(
		cfg.SMTP.Host,
		cfg.SMTP.Port,
		cfg.SMTP.Email,
		cfg.SMTP.Password,
		cfg.SMTP.SenderName,
	)

	// 2. Dispatch bus for the production pipeline
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermillLogger)

	// 3. Model providers: a heavy model for the background pipeline, a
	// light one for interactive replies.
	heavyProvider, err := factory.NewLLMProvider(cfg.Ai.Provider, cfg.Ai.HeavyModel, cfg.Ai.APIKey, cfg.Ai.BaseURL)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize heavy LLM provider: %v", err)
	}
	lightProvider, err := factory.NewLLMProvider(cfg.Ai.Provider, cfg.Ai.LightModel, cfg.Ai.APIKey, cfg.Ai.BaseURL)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize light LLM provider: %v", err)
	}
	log.Printf("[INFO] Using LLM provider: %s (heavy: %s, light: %s)", cfg.Ai.Provider, cfg.Ai.HeavyModel, cfg.Ai.LightModel)

	// 4. Infrastructure
	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS publisher: %v", err)
	}
	natsSub, err := pktNats.NewSubscriber(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS subscriber: %v", err)
	}

	opt, err := redis.ParseURL(cfg.App.RedisURL)
	if err != nil {
		log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
		opt = &redis.Options{Addr: cfg.App.RedisURL}
	}
	rdb := redis.NewClient(opt)

	// The question cache rides Redis in production; a process-local store
	// keeps a single node alive when Redis is unreachable.
	var cacheStore qcache.Store
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		log.Printf("[WARN] Failed to connect to Redis: %v. Question cache falls back to in-process store", err)
		cacheStore = qcache.NewMemoryStore()
	} else {
		cacheStore = qcache.NewRedisStore(rdb)
	}
	questionCache := qcache.NewQuestionCache(cacheStore, sysLogger)
	taskStore := qcache.NewTaskStore(cacheStore)

	sessionCache := memory.NewSessionCache()
	templates := template.NewStore()
	generator := question.NewGenerator(heavyProvider, lightProvider, templates)

	// 5. Services
	producerService := service.NewProducerService(pubSub, service.TopicProduceQuestions, taskStore, sysLogger)
	pipelineConsumer := service.NewPipelineConsumerService(
		pubSub,
		service.TopicProduceQuestions,
		uowFactory,
		generator,
		questionCache,
		taskStore,
		natsPub,
		sysLogger,
	)

	authService := service.NewAuthService(uowFactory, natsPub, cfg.Auth.TokenTTLHours)
	userService := service.NewUserService(uowFactory)
	photoService := service.NewPhotoService(uowFactory)
	sessionService := service.NewSessionService(uowFactory, sessionCache, questionCache, natsPub)

	router := policy.NewRuleRouter(policy.NewEngine())
	conversationService := service.NewConversationService(
		uowFactory,
		sessionCache,
		questionCache,
		router,
		generator,
		cist.NewStubScorer(),
		producerService,
		natsPub,
		emailService,
		sysLogger,
	)

	// Audit trail over the domain event stream.
	if natsSub != nil {
		service.NewEventListenerService(natsSub, sysLogger).Start()
	}

	// 6. WebSocket transport with its own log file
	wsLogger := logger.NewIsolatedLogger("logs/websocket.log")
	wsHub := websocket.NewHub(rdb, wsLogger)
	go wsHub.Run()

	return &Container{
		AuthController:    controller.NewAuthController(authService),
		UserController:    controller.NewUserController(userService),
		PhotoController:   controller.NewPhotoController(photoService),
		SessionController: controller.NewSessionController(sessionService, conversationService, producerService),

		PipelineConsumerService: pipelineConsumer,

		WebSocketHub:        wsHub,
		ConversationService: conversationService,
	}
}
