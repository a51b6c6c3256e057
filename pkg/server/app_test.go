package server

import (
	"context"
	"errors"
	"testing"
	"time"

	"ChronoSignal/internal/domain/models"
	xhttp "ChronoSignal/pkg/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type closingPublisher struct {
	closed bool
	err    error
}

func (p *closingPublisher) Publish(context.Context, models.SignalEvent) error { return nil }

func (p *closingPublisher) Close() error {
	p.closed = true
	return p.err
}

func newTestHTTP() *xhttp.Server {
	reg := prometheus.NewRegistry()
	return xhttp.NewServer([]xhttp.ServerOption{
		xhttp.WithHost("127.0.0.1"),
		xhttp.WithPort(0),
		xhttp.WithMetrics("/metrics", reg, reg),
	})
}

func TestApp_RunUntilCancelled(t *testing.T) {
	pub := &closingPublisher{}
	app := New(nil, nil, newTestHTTP(), nil, nil, nil, nil, pub)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.RunContext(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("app did not stop")
	}
	assert.True(t, pub.closed)
}

func TestApp_ShutdownErrorsAreReturned(t *testing.T) {
	cause := errors.New("flush failed")
	app := New(nil, nil, newTestHTTP(), nil, nil, nil, nil, &closingPublisher{err: cause})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := app.RunContext(ctx)
	assert.ErrorIs(t, err, cause)
}
