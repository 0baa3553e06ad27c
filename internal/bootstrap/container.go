package bootstrap

import (
	"log"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"gamebook-engine/internal/config"
	"gamebook-engine/internal/controller"
	"gamebook-engine/internal/pkg/logger"
	"gamebook-engine/internal/repository/contract"
	"gamebook-engine/internal/repository/implementation"
	"gamebook-engine/internal/repository/memory"
	"gamebook-engine/internal/service"
	"gamebook-engine/pkg/artifactcache"
	"gamebook-engine/pkg/dice"
	"gamebook-engine/pkg/gamebook/content"
	"gamebook-engine/pkg/gamebook/decision"
	"gamebook-engine/pkg/gamebook/executor"
	"gamebook-engine/pkg/gamebook/rules"
	"gamebook-engine/pkg/gamebook/trace"
	"gamebook-engine/pkg/generation/factory"
	pktNats "gamebook-engine/pkg/nats"
)

type Container struct {
	// Controllers
	GameController controller.IGameController

	// Background Services (Exposed for main.go to run)
	ConsumerService service.IConsumerService

	// Core pipeline (exposed for simulation and tests)
	Pipeline *executor.Pipeline
	Recorder *trace.Recorder
	Sections contract.SectionRepository
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core Facades
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")
	pipelineLogger := logger.NewIsolatedLogger(cfg.App.PipelineLogPath)

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// 3. Storage backend selected by config
	var (
		sections  contract.SectionRepository
		traceRepo contract.TraceRepository
	)
	switch cfg.Storage.Backend {
	case "postgres":
		sections = implementation.NewSectionRepository(db)
		traceRepo = implementation.NewTraceRepository(db)
		log.Printf("[INFO] Using Storage Backend: POSTGRES")
	case "redis":
		opt, err := redis.ParseURL(cfg.App.RedisURL)
		if err != nil {
			log.Fatalf("[FATAL] Invalid REDIS_URL: %v", err)
		}
		rdb := redis.NewClient(opt)
		sections = implementation.NewRedisSectionRepository(rdb)
		traceRepo = memory.NewTraceRepository()
		log.Printf("[INFO] Using Storage Backend: REDIS")
	default:
		sections = memory.NewSectionRepository()
		traceRepo = memory.NewTraceRepository()
		log.Printf("[INFO] Using Storage Backend: MEMORY")
	}

	// 4. Generation Provider based on Config
	provider, err := factory.NewProvider(
		cfg.Generation.Provider,
		cfg.Generation.Defaults.Model,
		cfg.Generation.OllamaURL,
		cfg.Generation.GeminiAPIKey,
	)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize Generation Provider: %v", err)
	}
	log.Printf("[INFO] Using Generation Provider: %s (%s)", cfg.Generation.Provider, cfg.Generation.Defaults.Model)

	// 5. NATS (optional durable event export)
	var natsPub *pktNats.Publisher
	if cfg.App.NatsURL != "" {
		natsPub, err = pktNats.NewPublisher(cfg.App.NatsURL)
		if err != nil {
			log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
		}
	}

	// 6. Core pipeline
	cache := artifactcache.New(artifactcache.Options{
		TTL:      cfg.Cache.TTL,
		Capacity: cfg.Cache.Capacity,
	})
	recorder := trace.NewRecorder(cfg.Trace.Retention, traceRepo, pubSub, sysLogger)

	contentMgr := content.NewManager(cache, sections, provider, cfg.Generation.ContentSettings(), pipelineLogger)
	rulesMgr := rules.NewManager(cache, sections, provider, cfg.Generation.RulesSettings(), pipelineLogger)
	decisionStage := decision.NewStage(nil, pipelineLogger)
	roller := dice.NewRoller()

	pipeline := executor.NewPipeline(
		contentMgr,
		rulesMgr,
		decisionStage,
		roller,
		recorder,
		pipelineLogger,
		executor.Config{
			MaxAttempts:  cfg.Pipeline.MaxAttempts,
			StageTimeout: cfg.Pipeline.StageTimeout,
		},
	)

	// 7. Services & Controllers
	gameService := service.NewGameService(pipeline, contentMgr, recorder)
	consumerService := service.NewConsumerService(pubSub, natsPub, sysLogger)

	return &Container{
		GameController:  controller.NewGameController(gameService),
		ConsumerService: consumerService,
		Pipeline:        pipeline,
		Recorder:        recorder,
		Sections:        sections,
	}
}
