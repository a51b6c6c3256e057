package di

import (
	"context"
	"fmt"
	"time"

	"ChronoSignal/internal/domain/repository"
	domsvc "ChronoSignal/internal/domain/service"
	"ChronoSignal/internal/handler/api"
	"ChronoSignal/internal/handler/ws"
	internalrepo "ChronoSignal/internal/repository"
	icache "ChronoSignal/internal/service/cache"
	svcmetrics "ChronoSignal/internal/service/metrics"
	"ChronoSignal/internal/service/finnhub"
	"ChronoSignal/internal/service/ratelimit"
	"ChronoSignal/internal/services/analytics"
	"ChronoSignal/internal/usecase"
	pkgch "ChronoSignal/pkg/clickhouse"
	"ChronoSignal/pkg/config"
	xhttp "ChronoSignal/pkg/http"
	pkgkafka "ChronoSignal/pkg/kafka"
	applogger "ChronoSignal/pkg/logger"
	"ChronoSignal/pkg/metrics"
	"ChronoSignal/pkg/server"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// ProvideLogger builds the application logger from the log section.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	l, err := applogger.New(&applogger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l.With(applogger.String("env", cfg.Environment)), nil
}

// ProvideRegistry creates the registry every collector registers on.
func ProvideRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// ProvideMetrics creates the domain metrics recorder.
func ProvideMetrics(reg *prometheus.Registry) repository.Metrics {
	return metrics.New(reg)
}

// ProvideClickHouseClient connects to ClickHouse. It returns a nil client when disabled.
func ProvideClickHouseClient(cfg *config.Config, l *applogger.Logger) (*pkgch.Client, func(), error) {
	if !cfg.ClickHouse.Enabled {
		l.Info("clickhouse disabled, /api/signal and the scanner will report no feature store")
		return nil, func() {}, nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := pkgch.NewClient(ctx,
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("clickhouse client: %w", err)
	}
	l.Info("clickhouse connected",
		applogger.String("host", cfg.ClickHouse.Host),
		applogger.String("database", cfg.ClickHouse.Database),
	)
	cleanup := func() {
		if err := client.Close(); err != nil {
			l.Warn("clickhouse close error", applogger.Error(err))
		}
	}
	return client, cleanup, nil
}

// ProvideFeatureStore returns a nil store when ClickHouse is disabled.
func ProvideFeatureStore(client *pkgch.Client, cfg *config.Config, l *applogger.Logger) repository.FeatureStore {
	if client == nil {
		return nil
	}
	store := internalrepo.NewCHFeatureStore(client.DB(), cfg.ClickHouse.Database)
	store.SetLogger(l)
	return store
}

// ProvideCache returns Redis behind a short in-process layer when enabled and
// an in-process TTL cache otherwise.
func ProvideCache(cfg *config.Config, l *applogger.Logger) (icache.Store, func(), error) {
	if !cfg.Redis.Enabled {
		return icache.NewTTLCache(), func() {}, nil
	}
	rc := icache.NewRedisCache(icache.RedisConfig{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rc.Ping(ctx); err != nil {
		_ = rc.Close()
		return nil, nil, fmt.Errorf("redis: %w", err)
	}
	l.Info("redis connected", applogger.String("addr", cfg.Redis.Addr))
	cleanup := func() {
		if err := rc.Close(); err != nil {
			l.Warn("redis close error", applogger.Error(err))
		}
	}
	return icache.NewLayeredCache(rc, 2*time.Second), cleanup, nil
}

// ProvideAnalyzerFacade binds the configured backend.
func ProvideAnalyzerFacade(cfg *config.Config) (*analytics.AnalyzerFacade, error) {
	a := cfg.Analytics
	return analytics.NewAnalyzerFacade(analytics.FacadeConfig{
		Backend:  analytics.Backend(a.Backend),
		Advanced: analytics.HTTPAdvancedFactory(a.ServiceURL, a.Timeout, a.Attempts),
	})
}

// ProvideAnalyzer wraps the facade with latency and error histograms.
func ProvideAnalyzer(f *analytics.AnalyzerFacade, reg *prometheus.Registry) domsvc.SignalAnalyzer {
	return svcmetrics.NewAnalyzerMetrics(reg).Instrument(string(f.Backend()), f)
}

// ProvideKafkaProducer creates a Kafka producer. It returns nil when Kafka is disabled.
func ProvideKafkaProducer(cfg *config.Config, reg *prometheus.Registry, l *applogger.Logger) (*pkgkafka.Producer, func(), error) {
	if !cfg.Kafka.Enabled {
		return nil, func() {}, nil
	}
	p := cfg.Kafka.Producer
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatching(p.BatchSize, p.BatchBytes, p.Linger),
		pkgkafka.WithTimeouts(p.WriteTimeout, p.ReadTimeout),
		pkgkafka.WithMaxAttempts(p.MaxAttempts),
		pkgkafka.WithAsync(p.Async),
		pkgkafka.WithHashByKey(true),
		pkgkafka.WithProducerRegisterer(reg),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("kafka producer: %w", err)
	}
	cleanup := func() {
		if err := producer.Close(); err != nil {
			l.Warn("kafka producer close", applogger.Error(err))
		}
	}
	return producer, cleanup, nil
}

// ProvideHub creates the websocket broadcaster.
func ProvideHub(l *applogger.Logger) *ws.Hub {
	return ws.NewHub(l)
}

// ProvideSignalPublisher fans events out to Kafka (when enabled) and websocket clients.
func ProvideSignalPublisher(producer *pkgkafka.Producer, hub *ws.Hub, cfg *config.Config) repository.SignalPublisher {
	var sink repository.SignalPublisher = internalrepo.NopSignalPublisher{}
	if producer != nil {
		sink = internalrepo.NewKafkaSignalPublisher(producer, cfg.Kafka.SignalsTopic)
	}
	return usecase.NewMultiPublisher(sink, hub)
}

// ProvideSignalService wires the analyzer with storage, cache and publishing.
func ProvideSignalService(
	store repository.FeatureStore,
	analyzer domsvc.SignalAnalyzer,
	f *analytics.AnalyzerFacade,
	cache icache.Store,
	pub repository.SignalPublisher,
	m repository.Metrics,
	cfg *config.Config,
	l *applogger.Logger,
) *usecase.SignalService {
	l.Info("analyzer bound", applogger.String("backend", string(f.Backend())))
	return usecase.NewSignalService(store, analyzer, string(f.Backend()),
		usecase.WithCache(cache, cfg.Analytics.CacheTTL),
		usecase.WithPublisher(pub),
		usecase.WithMetrics(m),
		usecase.WithLogger(l),
	)
}

func ProvideCandlesUseCase(store repository.FeatureStore) *usecase.CandlesUseCase {
	return usecase.NewCandlesUseCase(store)
}

// ProvideSignalsHandler creates the /api handler with a per-client rate limit.
func ProvideSignalsHandler(l *applogger.Logger, svc *usecase.SignalService, candles *usecase.CandlesUseCase, cfg *config.Config) *api.SignalsEchoHandler {
	rl := ratelimit.New(cfg.RateLimit.RPS, cfg.RateLimit.Burst)
	return api.NewSignalsEchoHandler(l, svc, candles, rl)
}

// ProvideHTTPServer builds the Echo server with every route.
func ProvideHTTPServer(cfg *config.Config, l *applogger.Logger, reg *prometheus.Registry, signals *api.SignalsEchoHandler, hub *ws.Hub) *xhttp.Server {
	metricsPath := ""
	if cfg.Metrics.Enabled {
		metricsPath = cfg.Metrics.Path
	}
	return xhttp.NewServer([]xhttp.ServerOption{
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithMetrics(metricsPath, reg, reg),
		xhttp.WithLogger(l),
	}, signals, hub)
}

// ProvideKafkaConsumer creates a Kafka consumer. It returns nil when Kafka is disabled.
func ProvideKafkaConsumer(cfg *config.Config, reg *prometheus.Registry, l *applogger.Logger) (*pkgkafka.Consumer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	c := cfg.Kafka.Consumer
	consumer, err := pkgkafka.NewConsumer(
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(c.GroupID),
		pkgkafka.WithConsumerWorkers(c.Workers),
		pkgkafka.WithConsumerBufferSize(c.BufferSize),
		pkgkafka.WithConsumerRetry(c.RetryMax, c.BackoffMin, c.BackoffMax),
		pkgkafka.WithConsumerDLQ(c.DLQTopic),
		pkgkafka.WithConsumerFetch(c.MinBytes, c.MaxBytes),
		pkgkafka.WithConsumerRegisterer(reg),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	consumer.SetLogger(l)
	return consumer, nil
}

// ProvideKafkaTicksHandler analyzes rolling tick windows, at most RPS times per second per symbol.
func ProvideKafkaTicksHandler(svc *usecase.SignalService, m repository.Metrics, cfg *config.Config, l *applogger.Logger) *usecase.KafkaTicksHandler {
	windows := usecase.NewPriceWindows(cfg.Analytics.Window, repository.NormalizeTimeframe(cfg.Scanner.TF).Duration())
	h := usecase.NewKafkaTicksHandler(cfg.Kafka.TicksTopic, windows, svc,
		ratelimit.New(cfg.RateLimit.RPS, cfg.RateLimit.Burst), m)
	h.SetLogger(l)
	return h
}

// ProvideScanner returns nil when the scanner is disabled.
func ProvideScanner(cfg *config.Config, svc *usecase.SignalService, cache icache.Store, l *applogger.Logger) *usecase.SignalScanner {
	if !cfg.Scanner.Enabled {
		return nil
	}
	return usecase.NewSignalScanner(usecase.ScannerConfig{
		Schedule: cfg.Scanner.Cron,
		Symbols:  cfg.Scanner.Symbols,
		N:        cfg.Scanner.N,
		TF:       repository.NormalizeTimeframe(cfg.Scanner.TF),
	}, svc, cache, l)
}

// ProvideTradeStream feeds Finnhub trades into the ticks handler. It returns nil when disabled.
func ProvideTradeStream(cfg *config.Config, kh *usecase.KafkaTicksHandler, l *applogger.Logger) *finnhub.Client {
	if !cfg.Stream.Enabled {
		return nil
	}
	c := finnhub.New(finnhub.Config{
		URL:            cfg.Stream.URL,
		APIKey:         cfg.Stream.APIKey,
		Symbols:        cfg.Stream.Symbols,
		ReconnectDelay: cfg.Stream.ReconnectDelay,
		PingInterval:   cfg.Stream.PingInterval,
	}, kh)
	c.SetLogger(l)
	return c
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	httpServer *xhttp.Server,
	consumer *pkgkafka.Consumer,
	kh *usecase.KafkaTicksHandler,
	scanner *usecase.SignalScanner,
	stream *finnhub.Client,
	pub repository.SignalPublisher,
) *server.App {
	return server.New(cfg, l, httpServer, consumer, kh, scanner, stream, pub)
}
