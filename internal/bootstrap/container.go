package bootstrap

import (
	"context"
	"fmt"

	"study-assistant-be/internal/config"
	"study-assistant-be/internal/controller"
	"study-assistant-be/internal/handler"
	"study-assistant-be/internal/pkg/logger"
	"study-assistant-be/internal/pkg/serverutils"
	"study-assistant-be/internal/repository/memory"
	"study-assistant-be/internal/repository/unitofwork"
	"study-assistant-be/internal/service"
	"study-assistant-be/internal/websocket"
	"study-assistant-be/pkg/cache"
	"study-assistant-be/pkg/corpus"
	"study-assistant-be/pkg/embedding"
	"study-assistant-be/pkg/events"
	"study-assistant-be/pkg/llm/factory"
	pktNats "study-assistant-be/pkg/nats"
	"study-assistant-be/pkg/parser"
	"study-assistant-be/pkg/rag/command"
	"study-assistant-be/pkg/rag/engine/vectorindex"
	"study-assistant-be/pkg/rag/registry"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const eventTopic = "assistant_events"

type Container struct {
	Logger logger.ILogger

	// Controllers
	SessionController   controller.ISessionController
	AssistantController controller.IAssistantController
	ChatController      controller.IChatController
	EventHandler        *handler.EventHandler

	// Services, also driven in-process by the terminal client
	SessionService   service.ISessionService
	AssistantService service.IAssistantService
	ChatService      service.IChatService

	// Background workers (run by cmd/rest)
	ConsumerService service.IConsumerService
	CorpusSync      service.ICorpusSyncService
	CorpusWatcher   *corpus.Watcher
	NatsSubscriber  *pktNats.Subscriber
	WebSocketHub    *websocket.Hub
	Workspaces      *memory.WorkspaceRepository

	closers []func()
}

func NewContainer(db *gorm.DB, cfg *config.Config) (*Container, error) {
	// 1. Core facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.IsProduction())
	eventLogger := logger.NewIsolatedLogger(cfg.App.EventLogFilePath)
	c := &Container{Logger: sysLogger}

	// 2. AI providers
	embeddingProvider := embedding.NewOllamaProvider(cfg.Ai.OllamaBaseURL, cfg.Ai.EmbeddingModel)
	llmBaseURL := cfg.Ai.LLMBaseURL
	if llmBaseURL == "" && cfg.Ai.LLMProvider == "ollama" {
		llmBaseURL = cfg.Ai.OllamaBaseURL
	}
	llmProvider, err := factory.NewLLMProvider(factory.Config{
		Provider: cfg.Ai.LLMProvider,
		Model:    cfg.Ai.LLMModel,
		BaseURL:  llmBaseURL,
		APIKey:   cfg.Ai.HuggingFaceKey,
	})
	if err != nil {
		return nil, fmt.Errorf("llm provider: %w", err)
	}
	sysLogger.Info("BOOTSTRAP", "AI providers ready", map[string]interface{}{
		"embedding_model": cfg.Ai.EmbeddingModel,
		"llm_provider":    cfg.Ai.LLMProvider,
		"llm_model":       cfg.Ai.LLMModel,
	})

	parsers := []parser.Parser{parser.NewTextParser()}
	if cfg.Ai.ParserURL != "" {
		parsers = append(parsers, parser.NewServiceParser(cfg.Ai.ParserURL))
	}

	eng := vectorindex.New(uowFactory, parser.NewRegistry(parsers...), embeddingProvider, llmProvider, vectorindex.Options{
		ChunkSize:           cfg.Retrieval.ChunkSize,
		ChunkOverlap:        cfg.Retrieval.ChunkOverlap,
		TopK:                cfg.Retrieval.TopK,
		SimilarityThreshold: cfg.Retrieval.SimilarityThreshold,
		Temperature:         cfg.Retrieval.Temperature,
	}, sysLogger)

	// 3. Infrastructure
	var rdb *redis.Client
	if cfg.App.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.App.RedisURL)
		if err != nil {
			sysLogger.Warn("BOOTSTRAP", "Failed to parse Redis URL, using it as address", map[string]interface{}{"error": err.Error()})
			opt = &redis.Options{Addr: cfg.App.RedisURL}
		}
		rdb = redis.NewClient(opt)
		if err := rdb.Ping(context.Background()).Err(); err != nil {
			sysLogger.Warn("BOOTSTRAP", "Failed to connect to Redis", map[string]interface{}{"error": err.Error()})
		}
		c.closers = append(c.closers, func() { rdb.Close() })
	}

	var listings cache.Cache = cache.NewMemory(cfg.Cache.TTL)
	if cfg.Cache.Driver == "redis" && rdb != nil {
		listings = cache.NewRedis(rdb, cfg.Cache.TTL)
	}

	bus := events.NewBus(events.NewGoChannel(256), eventTopic)
	c.closers = append(c.closers, func() { bus.Close() })
	publisher := events.Multi{bus}

	if cfg.App.NatsURL != "" {
		natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL, eventLogger)
		if err != nil {
			sysLogger.Warn("BOOTSTRAP", "Failed to connect NATS publisher", map[string]interface{}{"error": err.Error()})
		} else {
			publisher = append(publisher, natsPub)
			c.closers = append(c.closers, natsPub.Close)
		}
		natsSub, err := pktNats.NewSubscriber(cfg.App.NatsURL, eventLogger)
		if err != nil {
			sysLogger.Warn("BOOTSTRAP", "Failed to connect NATS subscriber", map[string]interface{}{"error": err.Error()})
		} else {
			c.NatsSubscriber = natsSub
			c.closers = append(c.closers, natsSub.Close)
		}
	}

	// 4. Domain
	workspaces := memory.NewWorkspaceRepository(cfg.Session.IdleTTL, sysLogger)
	store := corpus.NewFSStore(cfg.Corpus.Root)
	reg := registry.New(store, eng, service.NewCatalogService(uowFactory), listings, sysLogger,
		registry.WithListLimits(cfg.Retrieval.ListLimits...),
		registry.WithPublisher(publisher),
		registry.WithConversations(workspaces),
	)
	dispatcher := command.NewDispatcher(reg, eng, publisher, sysLogger)

	if cfg.Corpus.Watch {
		watcher, err := corpus.NewWatcher(cfg.Corpus.Root, sysLogger)
		if err != nil {
			sysLogger.Warn("BOOTSTRAP", "Corpus watcher unavailable", map[string]interface{}{"error": err.Error()})
		} else {
			c.CorpusWatcher = watcher
		}
	}

	// 5. Services
	c.Workspaces = workspaces
	c.SessionService = service.NewSessionService(workspaces, cfg.Session.JWTSecret, cfg.Session.TokenTTL, sysLogger)
	c.AssistantService = service.NewAssistantService(reg, dispatcher, workspaces)
	c.ChatService = service.NewChatService(dispatcher, workspaces)
	c.CorpusSync = service.NewCorpusSyncService(reg, publisher, sysLogger)

	c.WebSocketHub = websocket.NewHub(rdb, eventLogger)
	c.ConsumerService = service.NewConsumerService(bus, c.WebSocketHub, eventLogger)

	// 6. Controllers
	auth := serverutils.NewJwtMiddleware(cfg.Session.JWTSecret)
	c.SessionController = controller.NewSessionController(c.SessionService, auth)
	c.AssistantController = controller.NewAssistantController(c.AssistantService, auth)
	c.ChatController = controller.NewChatController(c.ChatService, auth)
	c.EventHandler = handler.NewEventHandler(c.WebSocketHub, auth, eventLogger)

	return c, nil
}

// Close releases connections in reverse order of creation.
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	if z, ok := c.Logger.(*logger.ZapLogger); ok {
		_ = z.Sync()
	}
}
