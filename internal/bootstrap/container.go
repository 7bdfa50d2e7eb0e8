package bootstrap

import (
	"context"
	"log"
	"path/filepath"
	"time"

	"ai-partner-be/internal/config"
	"ai-partner-be/internal/handler"
	"ai-partner-be/internal/pkg/logger"
	"ai-partner-be/internal/service"
	"ai-partner-be/internal/websocket"
	"ai-partner-be/pkg/knowledge"
	"ai-partner-be/pkg/llm/factory"
	"ai-partner-be/pkg/llm/safegen"

	pktNats "ai-partner-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
)

type Container struct {
	ChatHandler    *handler.ChatHandler
	WebSocketHub   *websocket.Hub
	TriggerService *service.TriggerService
	Store          *knowledge.Store
}

func NewContainer(cfg *config.Config) *Container {
	// 1. Loggers
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")
	wsLogger := logger.NewIsolatedLogger("logs/websocket.log")

	// 2. Redis (optional cross-instance relay)
	var rdb *redis.Client
	if cfg.App.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.App.RedisURL)
		if err != nil {
			log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
			opt = &redis.Options{Addr: cfg.App.RedisURL}
		}
		rdb = redis.NewClient(opt)
		if _, err := rdb.Ping(context.Background()).Result(); err != nil {
			log.Printf("[WARN] Failed to connect to Redis: %v. Relay disabled", err)
			rdb = nil
		}
	}

	// 3. WebSocket Hub
	wsHub := websocket.NewHub(rdb, wsLogger)
	go wsHub.Run()

	// 4. Knowledge Store
	store := knowledge.NewStore(sysLogger, filepath.Join(cfg.Knowledge.DataDir, cfg.Knowledge.ConversationFile))
	backupPath := filepath.Join(cfg.Knowledge.DataDir, cfg.Knowledge.BackupFile)
	if err := store.Load(backupPath); err != nil {
		log.Printf("[WARN] No knowledge backup at %s (%v), seeding initial corpus", backupPath, err)
		store.Seed()
	}
	log.Printf("[INFO] Knowledge store ready: %d documents", store.Count())

	// 5. LLM Provider
	llmProvider, err := factory.NewLLMProvider(
		cfg.Ai.LLMProvider,
		cfg.Ai.LLMModel,
		cfg.Ai.OllamaBaseURL,
		cfg.Ai.HuggingFaceKey,
	)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM Provider: %v", err)
	}
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)

	responder := safegen.New(llmProvider, time.Duration(cfg.Ai.GenerateTimeoutSec)*time.Second, sysLogger)

	// 6. In-process progress bus
	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NewStdLogger(false, false))

	// 7. Activity tracking (feeds the silence trigger)
	activity := cache.New(24*time.Hour, 1*time.Hour)

	// 8. Services
	chatService := service.NewChatService(
		store,
		responder,
		pubSub,
		activity,
		sysLogger,
		time.Duration(cfg.App.ThinkingStepDelayMs)*time.Millisecond,
	)

	forwarder := service.NewProgressForwarder(pubSub, wsHub, wsLogger)
	if err := forwarder.Start(context.Background()); err != nil {
		log.Printf("[WARN] Progress forwarder failed to start: %v", err)
	}

	// 9. NATS trigger lane (optional)
	var natsSub *pktNats.Subscriber
	if cfg.App.NatsURL != "" {
		natsSub, err = pktNats.NewSubscriber(cfg.App.NatsURL)
		if err != nil {
			log.Printf("[WARN] Failed to connect to NATS Subscriber: %v", err)
		}
	}

	triggerService := service.NewTriggerService(wsHub, natsSub, activity, 72*time.Hour, sysLogger)
	if err := triggerService.Start(); err != nil {
		log.Printf("[WARN] Trigger lane start failed: %v", err)
	}

	return &Container{
		ChatHandler:    handler.NewChatHandler(chatService, wsHub, wsLogger),
		WebSocketHub:   wsHub,
		TriggerService: triggerService,
		Store:          store,
	}
}
