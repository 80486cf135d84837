package bootstrap

import (
	"context"
	"log"

	"stallpick-be/internal/config"
	"stallpick-be/internal/controller"
	"stallpick-be/internal/handler"
	"stallpick-be/internal/pkg/logger"
	"stallpick-be/internal/repository/memory"
	"stallpick-be/internal/repository/unitofwork"
	"stallpick-be/internal/service"
	"stallpick-be/internal/websocket"
	pktAmqp "stallpick-be/pkg/amqp"
	pktNats "stallpick-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	SessionController controller.ISessionController
	StateController   controller.IStateController
	EventController   controller.IEventController
	RealtimeHandler   *handler.RealtimeHandler

	// Services
	UowFactory unitofwork.RepositoryFactory
	Resolver   service.ISessionResolver
	StateStore service.IStateStore
	EventLog   service.IEventLog
	Actions    service.IActionService

	// Realtime
	Hub         *websocket.Hub
	ChangeRelay *service.ChangeRelay

	Logger logger.ILogger

	closers []func()
}

// NewContainer wires the application. A nil db selects the in-memory store.
func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")
	wsLogger := logger.NewIsolatedLogger(cfg.Realtime.LogFilePath)

	var uowFactory unitofwork.RepositoryFactory
	if db != nil {
		uowFactory = unitofwork.NewRepositoryFactory(db)
	} else {
		sysLogger.Warn("Bootstrap", "DB_CONNECTION_STRING is empty, using in-memory store", nil)
		uowFactory = memory.NewRepositoryFactory(memory.NewStore())
	}

	var rdb *redis.Client
	if cfg.Realtime.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.Realtime.RedisURL)
		if err != nil {
			log.Printf("Warning: invalid REDIS_URL, running single-instance: %v", err)
		} else {
			rdb = redis.NewClient(opt)
		}
	}

	sinks, closeSinks := analyticsSinks(cfg, sysLogger)
	c := build(uowFactory, cfg, rdb, sysLogger, wsLogger, sinks...)
	c.closers = append(c.closers, closeSinks...)
	if rdb != nil {
		c.closers = append(c.closers, func() { _ = rdb.Close() })
	}
	c.closers = append(c.closers, func() {
		_ = sysLogger.Sync()
		_ = wsLogger.Sync()
	})
	return c
}

// NewInMemoryContainer wires the application over store with no redis and
// no analytics sink.
func NewInMemoryContainer(store *memory.Store, cfg *config.Config, log logger.ILogger) *Container {
	return build(memory.NewRepositoryFactory(store), cfg, nil, log, log)
}

func build(
	uowFactory unitofwork.RepositoryFactory,
	cfg *config.Config,
	rdb *redis.Client,
	sysLogger logger.ILogger,
	wsLogger logger.ILogger,
	sinks ...service.AnalyticsSink,
) *Container {
	// Change feed
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{OutputChannelBuffer: 1024},
		watermillLogger,
	)
	changeFeed := service.NewChangeFeed(pubSub, service.ChangesTopic)

	// Realtime
	hub := websocket.NewHub(rdb, cfg.Realtime.ClientBuffer, wsLogger)
	relay := service.NewChangeRelay(pubSub, service.ChangesTopic, hub, wsLogger)

	// Services
	var cache *memory.SessionCache
	if cfg.Realtime.SessionCacheTTL > 0 {
		cache = memory.NewSessionCache(cfg.Realtime.SessionCacheTTL)
	}
	stateStore := service.NewStateStore(uowFactory, changeFeed, sysLogger)
	resolver := service.NewSessionResolver(uowFactory, cache, stateStore, sysLogger)
	eventLog := service.NewEventLog(uowFactory, sysLogger, sinks...)
	actions := service.NewActionService(uowFactory, stateStore, eventLog, hub, sysLogger)

	c := &Container{
		SessionController: controller.NewSessionController(resolver),
		StateController:   controller.NewStateController(stateStore, actions),
		EventController:   controller.NewEventController(eventLog, actions),
		RealtimeHandler:   handler.NewRealtimeHandler(resolver, hub, wsLogger),

		UowFactory: uowFactory,
		Resolver:   resolver,
		StateStore: stateStore,
		EventLog:   eventLog,
		Actions:    actions,

		Hub:         hub,
		ChangeRelay: relay,
		Logger:      sysLogger,
	}
	c.closers = append(c.closers, func() { _ = pubSub.Close() })
	return c
}

func analyticsSinks(cfg *config.Config, sysLogger logger.ILogger) ([]service.AnalyticsSink, []func()) {
	switch cfg.Analytics.Sink {
	case "nats":
		pub, err := pktNats.NewPublisher(cfg.Analytics.NatsURL)
		if err != nil {
			sysLogger.Warn("Bootstrap", "NATS analytics sink unavailable", map[string]interface{}{"error": err.Error()})
			return nil, nil
		}
		return []service.AnalyticsSink{pub}, []func(){pub.Close}
	case "amqp":
		pub, err := pktAmqp.NewPublisher(cfg.Analytics.AmqpURL, cfg.Analytics.Queue)
		if err != nil {
			sysLogger.Warn("Bootstrap", "AMQP analytics sink unavailable", map[string]interface{}{"error": err.Error()})
			return nil, nil
		}
		return []service.AnalyticsSink{pub}, []func(){pub.Close}
	}
	return nil, nil
}

// Start runs the background relays until ctx is done.
func (c *Container) Start(ctx context.Context) error {
	go c.Hub.Run(ctx)
	return c.ChangeRelay.Start(ctx)
}

func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
}
