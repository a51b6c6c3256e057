package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ChronoSignal/internal/domain/models"
	domrepo "ChronoSignal/internal/domain/repository"
	icache "ChronoSignal/internal/service/cache"
	applogger "ChronoSignal/pkg/logger"

	"github.com/robfig/cron/v3"
)

const scannerLockKey = "signal-scanner"

// LatestAnalyzer is the part of SignalService the scanner drives.
type LatestAnalyzer interface {
	Latest(ctx context.Context, symbol string, n int, tf domrepo.Timeframe) (models.SignalEvent, error)
}

type ScannerConfig struct {
	Schedule      string
	Symbols       []string
	N             int
	TF            domrepo.Timeframe
	SymbolTimeout time.Duration
}

// SignalScanner periodically refreshes the latest signal of a fixed symbol
// list. With a shared Locker only one replica scans per tick.
type SignalScanner struct {
	cfg    ScannerConfig
	svc    LatestAnalyzer
	locker icache.Locker
	cron   *cron.Cron
	log    *applogger.Logger
}

func NewSignalScanner(cfg ScannerConfig, svc LatestAnalyzer, locker icache.Locker, l *applogger.Logger) *SignalScanner {
	if l == nil {
		l = applogger.NewNop()
	}
	if cfg.SymbolTimeout <= 0 {
		cfg.SymbolTimeout = 10 * time.Second
	}
	if !cfg.TF.Valid() {
		cfg.TF = domrepo.DefaultTimeframe()
	}
	cl := cronLogger{l}
	return &SignalScanner{
		cfg:    cfg,
		svc:    svc,
		locker: locker,
		cron:   cron.New(cron.WithLogger(cl), cron.WithChain(cron.SkipIfStillRunning(cl))),
		log:    l,
	}
}

// Start schedules the scan. It returns an error for an unparsable schedule.
func (s *SignalScanner) Start() error {
	if _, err := s.cron.AddFunc(s.cfg.Schedule, func() { s.scanAll(context.Background()) }); err != nil {
		return fmt.Errorf("schedule scanner %q: %w", s.cfg.Schedule, err)
	}
	s.cron.Start()
	s.log.Info("signal scanner started",
		applogger.String("schedule", s.cfg.Schedule),
		applogger.Strings("symbols", s.cfg.Symbols),
	)
	return nil
}

// Stop prevents new runs and waits for a running scan or ctx.
func (s *SignalScanner) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		s.log.Info("signal scanner stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// scanAll returns the number of symbols that produced a signal.
func (s *SignalScanner) scanAll(ctx context.Context) int {
	if s.locker != nil {
		ok, err := s.locker.TryLock(ctx, scannerLockKey, lockTTL(s.cfg))
		if err != nil {
			s.log.Warn("scanner lock", applogger.Error(err))
			return 0
		}
		if !ok {
			s.log.Debug("scanner lock held elsewhere")
			return 0
		}
		defer func() {
			if err := s.locker.Unlock(ctx, scannerLockKey); err != nil {
				s.log.Warn("scanner unlock", applogger.Error(err))
			}
		}()
	}

	start := time.Now()
	produced := 0
	for _, sym := range s.cfg.Symbols {
		if ctx.Err() != nil {
			break
		}
		sctx, cancel := context.WithTimeout(ctx, s.cfg.SymbolTimeout)
		_, err := s.svc.Latest(sctx, sym, s.cfg.N, s.cfg.TF)
		cancel()
		switch {
		case err == nil:
			produced++
		case errors.Is(err, ErrNoData), errors.Is(err, ErrNonFiniteSignal):
			s.log.Debug("scanner skip", applogger.String("symbol", sym), applogger.Error(err))
		default:
			s.log.Warn("scanner symbol failed", applogger.String("symbol", sym), applogger.Error(err))
		}
	}
	s.log.Info("scan done",
		applogger.Int("symbols", len(s.cfg.Symbols)),
		applogger.Int("produced", produced),
		applogger.Duration("took", time.Since(start)),
	)
	return produced
}

func lockTTL(cfg ScannerConfig) time.Duration {
	return time.Duration(len(cfg.Symbols)+1) * cfg.SymbolTimeout
}

// cronLogger adapts the application logger to cron.Logger.
type cronLogger struct{ l *applogger.Logger }

var _ cron.Logger = cronLogger{}

func (c cronLogger) Info(msg string, kv ...interface{}) {
	c.l.Debug("cron: "+msg, applogger.Any("kv", kv))
}

func (c cronLogger) Error(err error, msg string, kv ...interface{}) {
	c.l.Error("cron: "+msg, applogger.Error(err), applogger.Any("kv", kv))
}
