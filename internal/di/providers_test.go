package di

import (
	"context"
	"testing"

	"ChronoSignal/internal/services/analytics"
	"ChronoSignal/pkg/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitializeApp_DefaultsNeedNoInfrastructure(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)
	cfg.Log.Output = "stderr"

	app, cleanup, err := InitializeApp(cfg)
	require.NoError(t, err)
	t.Cleanup(cleanup)
	assert.NotNil(t, app)
}

func TestProvideAnalyzerFacade(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)

	f, err := ProvideAnalyzerFacade(cfg)
	require.NoError(t, err)
	assert.Equal(t, analytics.BackendClassical, f.Backend())

	cfg.Analytics.Backend = "quantum"
	f, err = ProvideAnalyzerFacade(cfg)
	require.NoError(t, err)
	assert.Equal(t, analytics.BackendClassical, f.Backend())
}

func TestProvideSignalPublisher_WithoutKafka(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)
	reg := ProvideRegistry()
	l, err := ProvideLogger(cfg)
	require.NoError(t, err)

	p, cleanup, err := ProvideKafkaProducer(cfg, reg, l)
	require.NoError(t, err)
	assert.Nil(t, p)
	cleanup()

	pub := ProvideSignalPublisher(p, ProvideHub(l), cfg)
	svc := ProvideSignalService(nil, analytics.NewClassicalAnalyzer(), analytics.NewClassicalFacade(), nil, pub, ProvideMetrics(reg), cfg, l)
	ev, err := svc.AnalyzePrices(context.Background(), "BTCUSDT", []float64{1, 2, 3})
	require.NoError(t, err)
	assert.Equal(t, "BTCUSDT", ev.Instrument)
}

func TestProvideKafkaProducer_CleanupClosesProducer(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)
	cfg.Kafka.Enabled = true
	cfg.Kafka.Brokers = []string{"127.0.0.1:9092"}
	l, err := ProvideLogger(cfg)
	require.NoError(t, err)

	p, cleanup, err := ProvideKafkaProducer(cfg, ProvideRegistry(), l)
	require.NoError(t, err)
	require.NotNil(t, p)
	require.NotNil(t, cleanup)

	cleanup()
	// the app shutdown path closes the same producer through the publisher
	assert.NoError(t, p.Close())
}
