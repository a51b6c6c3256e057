package server

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"ChronoSignal/internal/domain/repository"
	"ChronoSignal/internal/service/finnhub"
	"ChronoSignal/internal/usecase"
	"ChronoSignal/pkg/config"
	xhttp "ChronoSignal/pkg/http"
	pkgkafka "ChronoSignal/pkg/kafka"
	applogger "ChronoSignal/pkg/logger"
)

// App encapsulates the entire application lifecycle.
type App struct {
	cfg        *config.Config
	log        *applogger.Logger
	httpServer *xhttp.Server
	consumer   *pkgkafka.Consumer
	ticks      pkgkafka.MessageHandler
	scanner    *usecase.SignalScanner
	stream     *finnhub.Client
	publisher  repository.SignalPublisher
	wg         sync.WaitGroup
}

// New creates an App. consumer, ticks, scanner and stream are optional.
func New(
	cfg *config.Config,
	l *applogger.Logger,
	httpServer *xhttp.Server,
	consumer *pkgkafka.Consumer,
	ticks pkgkafka.MessageHandler,
	scanner *usecase.SignalScanner,
	stream *finnhub.Client,
	publisher repository.SignalPublisher,
) *App {
	if l == nil {
		l = applogger.NewNop()
	}
	return &App{
		cfg:        cfg,
		log:        l,
		httpServer: httpServer,
		consumer:   consumer,
		ticks:      ticks,
		scanner:    scanner,
		stream:     stream,
		publisher:  publisher,
	}
}

// Run starts the application and blocks until SIGINT or SIGTERM.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return a.RunContext(ctx)
}

// RunContext starts every component and blocks until ctx is done or the
// HTTP server fails, then shuts down.
func (a *App) RunContext(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	if err := a.httpServer.Start(); err != nil {
		return fmt.Errorf("http server: %w", err)
	}

	if a.consumer != nil && a.ticks != nil {
		a.consumer.RegisterHandler(a.ticks)
		if err := a.consumer.Start(runCtx); err != nil {
			a.log.Error("kafka consumer start error", applogger.Error(err))
		} else {
			a.log.Info("kafka consumer started", applogger.String("topic", a.ticks.Topic()))
		}
	}

	if a.scanner != nil {
		if err := a.scanner.Start(); err != nil {
			a.log.Error("scanner start error", applogger.Error(err))
		}
	}

	if a.stream != nil {
		a.wg.Add(1)
		go func() {
			defer a.wg.Done()
			if err := a.stream.Run(runCtx); err != nil {
				a.log.Error("trade stream error", applogger.Error(err))
			}
		}()
	}

	var runErr error
	select {
	case <-ctx.Done():
		a.log.Info("shutdown signal received")
	case err := <-a.httpServer.Err():
		a.log.Error("http server error", applogger.Error(err))
		runErr = err
	}
	cancel()

	if err := a.shutdown(); err != nil {
		return errors.Join(runErr, err)
	}
	return runErr
}

// shutdown stops producers of work before the sinks they write to.
func (a *App) shutdown() error {
	timeout := 15 * time.Second
	if a.cfg != nil && a.cfg.Server.ShutdownTimeout > 0 {
		timeout = a.cfg.Server.ShutdownTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	var errs []error
	if a.scanner != nil {
		if err := a.scanner.Stop(ctx); err != nil {
			a.log.Warn("scanner stop error", applogger.Error(err))
			errs = append(errs, err)
		}
	}
	a.wg.Wait()
	if err := a.httpServer.Stop(ctx); err != nil {
		a.log.Error("http shutdown error", applogger.Error(err))
		errs = append(errs, err)
	}
	if a.consumer != nil {
		if err := a.consumer.Stop(ctx); err != nil {
			a.log.Warn("kafka consumer stop error", applogger.Error(err))
			errs = append(errs, err)
		}
	}
	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			a.log.Warn("publisher close error", applogger.Error(err))
			errs = append(errs, err)
		}
	}

	a.log.Info("shutdown complete")
	return errors.Join(errs...)
}
