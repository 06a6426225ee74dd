package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bus-pricing/internal/config"
	"bus-pricing/internal/database"
	"bus-pricing/internal/handlers"
	"bus-pricing/internal/kafka"
	"bus-pricing/internal/logger"
	"bus-pricing/internal/metrics"
	"bus-pricing/internal/models"
	"bus-pricing/internal/money"
	"bus-pricing/internal/redis"
	"bus-pricing/internal/services"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/shopspring/decimal"
)

// Фабричные функции для подключения внешних сервисов (подменяемые в тестах).
var (
	dbConnect        = database.Connect
	redisConnect     = redis.Connect
	newKafkaProducer = kafka.NewProducer
	newKafkaConsumer = kafka.NewConsumer
	kafkaHealthCheck = handlers.CheckKafkaHealth
	loadConfig       = config.Load
	newLogger        = logger.New
)

const (
	storageDriverPostgres = "postgres"
	storageDriverMemory   = "memory"
)

// Маршруты API, у каждого свой бюджет rate limit на клиента
const (
	routeDraftPrice      = "/api/pricing/draft"
	routeTerminals       = "/api/bus-terminals"
	routeTerminalByName  = "/api/bus-terminals/{name}"
	routeRateLimitStatus = "/api/rate-limit/status"
)

var limitedRoutes = []string{routeDraftPrice, routeTerminals, routeTerminalByName, routeRateLimitStatus}

// application агрегирует собранные зависимости.
type application struct {
	cfg      *config.Config
	log      *logger.Logger
	db       *database.DB
	redis    *redis.Client
	producer *kafka.Producer
	consumer *kafka.Consumer
	mux      *http.ServeMux
	server   *http.Server
}

func main() {
	app, err := buildApplication()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build app: %v\n", err)
		os.Exit(1)
	}
	app.log.Info("Starting bus pricing server...")

	go func() {
		app.log.WithField("address", app.server.Addr).Info("HTTP server starting")
		if err := app.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			app.log.WithError(err).Fatal("HTTP server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	app.log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := app.server.Shutdown(ctx); err != nil {
		app.log.WithError(err).Error("Server forced to shutdown")
	}
	app.close()
	app.log.Info("Server exited")
}

// close освобождает внешние подключения; все Close безопасны для nil.
func (a *application) close() {
	_ = a.consumer.Stop()
	_ = a.producer.Close()
	_ = a.redis.Close()
	_ = a.db.Close()
}

// buildApplication создает все зависимости (подменяемые в тестах).
func buildApplication() (*application, error) {
	cfg := loadConfig()
	log := newLogger(&cfg.Logger)
	app := &application{cfg: cfg, log: log}

	taxRates, err := services.NewTaxRateService(&cfg.Tax)
	if err != nil {
		return nil, fmt.Errorf("tax rates: %w", err)
	}

	terminals, dbHealth, err := app.openTerminalStore()
	if err != nil {
		return nil, err
	}

	var redisHealth handlers.RedisHealth
	if cfg.Redis.Enabled {
		app.redis, err = redisConnect(&cfg.Redis, log)
		if err != nil {
			app.close()
			return nil, fmt.Errorf("redis connect: %w", err)
		}
		redisHealth = app.redis
	}

	var lookup services.TerminalLookup = terminals
	var cache *services.CachedTerminalLookup
	if app.redis != nil && cfg.Cache.Enabled {
		cache = services.NewCachedTerminalLookup(terminals, app.redis, log, time.Duration(cfg.Cache.TTLMinutes)*time.Minute)
		lookup = cache
	}

	var producer handlers.EventProducer
	var kafkaBrokers []string
	if cfg.Kafka.Enabled {
		app.producer, err = newKafkaProducer(&cfg.Kafka, log)
		if err != nil {
			app.close()
			return nil, fmt.Errorf("kafka producer: %w", err)
		}
		producer = app.producer
		kafkaBrokers = cfg.Kafka.Brokers

		app.consumer, err = newKafkaConsumer(&cfg.Kafka, log)
		if err != nil {
			app.close()
			return nil, fmt.Errorf("kafka consumer: %w", err)
		}
		registerEventHandlers(app.consumer, cache, log)
		if err := app.consumer.Start(); err != nil {
			app.close()
			return nil, fmt.Errorf("kafka consumer start: %w", err)
		}
	}

	registry := prometheus.NewRegistry()
	var m *metrics.Metrics
	var drafts services.DraftRecorder
	var events handlers.EventMetrics
	if cfg.Metrics.Enabled {
		registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		m = metrics.New(cfg.Metrics.Namespace, registry)
		drafts = m
		events = m
	}

	pricingService := services.NewPricingService(services.NewBasePriceService(lookup), taxRates, log, &cfg.Pricing, drafts)
	rateLimiter := services.NewRateLimiter(app.redis, log, &cfg.RateLimit)
	validator := handlers.NewRequestValidator()

	routes := routeSet{
		pricing:   handlers.NewPricingHandler(pricingService, validator, producer, events, log),
		terminals: handlers.NewTerminalHandler(terminals, validator, producer, events, log),
		health:    handlers.NewHealthHandler(dbHealth, redisHealth, kafkaBrokers, kafkaHealthCheck),
		rateLimit: handlers.NewRateLimitHandler(rateLimiter, log, &cfg.RateLimit, limitedRoutes...),
		limiter:   rateLimiter,
		metrics:   m,
		gatherer:  registry,
	}

	app.mux = setupRoutes(routes, log)
	app.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:      app.mux,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}
	return app, nil
}

// openTerminalStore выбирает хранилище по STORAGE_DRIVER
func (a *application) openTerminalStore() (services.TerminalRegistry, handlers.DBHealth, error) {
	switch a.cfg.Storage.Driver {
	case storageDriverMemory:
		a.log.Warn("Using in-memory terminal registry, data is lost on restart")
		return services.NewMemoryTerminalStore(), nil, nil
	case storageDriverPostgres, "":
		db, err := dbConnect(&a.cfg.Database, a.log)
		if err != nil {
			return nil, nil, fmt.Errorf("db connect: %w", err)
		}
		a.db = db

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := db.Migrate(ctx); err != nil {
			a.close()
			return nil, nil, fmt.Errorf("db migrate: %w", err)
		}
		return services.NewTerminalService(db, a.log), db, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage driver %q", a.cfg.Storage.Driver)
	}
}

// routeSet собранные хендлеры для регистрации маршрутов
type routeSet struct {
	pricing   *handlers.PricingHandler
	terminals *handlers.TerminalHandler
	health    *handlers.HealthHandler
	rateLimit *handlers.RateLimitHandler
	limiter   *services.RateLimiter
	metrics   *metrics.Metrics
	gatherer  prometheus.Gatherer
}

// setupRoutes настраивает маршруты HTTP сервера
func setupRoutes(routes routeSet, log *logger.Logger) *http.ServeMux {
	mux := http.NewServeMux()

	api := func(route string, h http.HandlerFunc) http.Handler {
		return routes.metrics.Middleware(route, corsMiddleware(handlers.RateLimitMiddleware(routes.limiter, log, route, h)))
	}
	probe := func(route string, h http.HandlerFunc) http.Handler {
		return routes.metrics.Middleware(route, corsMiddleware(h))
	}

	// Health check endpoints
	mux.Handle("/health", probe("/health", routes.health.Health))
	mux.Handle("/health/readiness", probe("/health/readiness", routes.health.Readiness))
	mux.Handle("/health/liveness", probe("/health/liveness", routes.health.Liveness))

	// Pricing endpoints
	mux.Handle(routeDraftPrice, api(routeDraftPrice, routes.pricing.DraftPrice))

	// Terminal registry endpoints
	mux.Handle(routeTerminals, api(routeTerminals, routes.terminals.CreateTerminal))
	mux.Handle(routeTerminals+"/", api(routeTerminalByName, routes.terminals.GetTerminal))

	// Rate limit status
	mux.Handle(routeRateLimitStatus, api(routeRateLimitStatus, routes.rateLimit.Status))

	if routes.metrics != nil {
		mux.Handle("/metrics", metrics.Handler(routes.gatherer))
	}

	return mux
}

// registerEventHandlers регистрирует обработчики событий Kafka.
// Consumer подписан только на топик терминалов: регистрация терминала на другом инстансе прогревает локальный кеш базовых цен.
func registerEventHandlers(consumer *kafka.Consumer, cache *services.CachedTerminalLookup, log *logger.Logger) {
	consumer.RegisterHandler(models.EventTypeTerminalCreated, func(ctx context.Context, event *models.Event) error {
		terminal, err := terminalFromEvent(event)
		if err != nil {
			return err
		}
		log.WithField("event_id", event.ID).WithField("terminal_name", terminal.TerminalName).Info("Processing terminal created event")
		if cache != nil {
			cache.Warm(ctx, terminal)
		}
		return nil
	})
}

// terminalFromEvent восстанавливает терминал из данных события terminal.created
func terminalFromEvent(event *models.Event) (*models.Terminal, error) {
	name, _ := event.Data["terminal_name"].(string)
	rawPrice, _ := event.Data["base_price"].(string)
	if name == "" || rawPrice == "" {
		return nil, fmt.Errorf("event %s: missing terminal_name or base_price", event.ID)
	}
	price, err := decimal.NewFromString(rawPrice)
	if err != nil {
		return nil, fmt.Errorf("event %s: invalid base_price: %w", event.ID, err)
	}
	return &models.Terminal{TerminalName: name, BasePrice: money.NewAmount(price)}, nil
}

// corsMiddleware добавляет CORS заголовки
func corsMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next(w, r)
	}
}
