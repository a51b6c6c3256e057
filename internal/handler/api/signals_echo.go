package api

import (
	"context"
	"errors"

	models "ChronoSignal/internal/domain/models"
	domrepo "ChronoSignal/internal/domain/repository"
	"ChronoSignal/internal/usecase"
	xhttp "ChronoSignal/pkg/http"
	xlogger "ChronoSignal/pkg/logger"

	"github.com/labstack/echo/v4"
)

// SignalService is what the signal routes need from usecase.SignalService.
type SignalService interface {
	Latest(ctx context.Context, symbol string, n int, tf domrepo.Timeframe) (models.SignalEvent, error)
	AnalyzePrices(ctx context.Context, symbol string, prices []float64) (models.SignalEvent, error)
	Backend() string
}

type CandlesService interface {
	GetCandles(ctx context.Context, p usecase.GetCandlesParams) (*usecase.GetCandlesResult, error)
}

// RateLimiter admits or rejects one request for a key.
type RateLimiter interface {
	Allow(key string) bool
}

var _ SignalService = (*usecase.SignalService)(nil)

// SignalsEchoHandler serves the signal and candle endpoints under /api.
type SignalsEchoHandler struct {
	logger  *xlogger.Logger
	svc     SignalService
	candles CandlesService
	rl      RateLimiter
}

// NewSignalsEchoHandler builds the handler. candles and rl may be nil.
func NewSignalsEchoHandler(logger *xlogger.Logger, svc SignalService, candles CandlesService, rl RateLimiter) *SignalsEchoHandler {
	if logger == nil {
		logger = xlogger.NewNop()
	}
	return &SignalsEchoHandler{logger: logger, svc: svc, candles: candles, rl: rl}
}

func (h *SignalsEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api", h.rateLimit)
	g.GET("/signal", h.Latest)
	g.POST("/signal/analyze", h.Analyze)
	g.GET("/backend", h.Backend)
	if h.candles != nil {
		g.GET("/candles", h.Candles)
	}
}

func (h *SignalsEchoHandler) rateLimit(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if h.rl != nil && !h.rl.Allow(c.RealIP()) {
			return xhttp.AppErrorResponse(c, xhttp.TooManyRequestsError())
		}
		return next(c)
	}
}

// Latest handles GET /api/signal?symbol=&n=&tf=.
func (h *SignalsEchoHandler) Latest(c echo.Context) error {
	req := &models.LatestSignalRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	tf := domrepo.NormalizeTimeframe(req.TF)

	ev, err := h.svc.Latest(c.Request().Context(), req.Symbol, req.N, tf)
	if err != nil {
		return h.fail(c, "latest signal", err)
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "private, max-age=5")
	return xhttp.SuccessResponse(c, ev)
}

// Analyze handles POST /api/signal/analyze with a caller-supplied price series.
func (h *SignalsEchoHandler) Analyze(c echo.Context) error {
	req := &models.AnalyzeSignalRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	ev, err := h.svc.AnalyzePrices(c.Request().Context(), req.Symbol, req.Prices)
	if err != nil {
		return h.fail(c, "analyze signal", err)
	}
	return xhttp.SuccessResponse(c, ev)
}

func (h *SignalsEchoHandler) Backend(c echo.Context) error {
	return xhttp.SuccessResponse(c, map[string]string{"backend": h.svc.Backend()})
}

func (h *SignalsEchoHandler) Candles(c echo.Context) error {
	req := &models.CandlesRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.candles.GetCandles(c.Request().Context(), usecase.GetCandlesParams{
		Symbol:    req.Symbol,
		Timeframe: domrepo.NormalizeTimeframe(req.TF),
		Limit:     req.N,
	})
	if err != nil {
		return h.fail(c, "candles", err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *SignalsEchoHandler) fail(c echo.Context, op string, err error) error {
	appErr := toAppError(err)
	if appErr.Status >= 500 {
		h.logger.Error(op+" usecase error", xlogger.Error(err))
	} else {
		h.logger.Debug(op+" rejected", xlogger.Error(err))
	}
	return xhttp.AppErrorResponse(c, appErr)
}

func toAppError(err error) *xhttp.AppError {
	switch {
	case errors.Is(err, usecase.ErrNonFiniteSignal):
		return xhttp.UnprocessableErrorf("signal is not finite for this price series").WithError(err)
	case errors.Is(err, usecase.ErrNoData):
		return xhttp.NotFoundErrorf("no candles found").WithError(err)
	case errors.Is(err, usecase.ErrNoFeatureStore):
		return xhttp.ServiceUnavailableErrorf("feature store is not configured").WithError(err)
	case errors.Is(err, context.DeadlineExceeded):
		return xhttp.ServiceUnavailableErrorf("upstream timeout").WithError(err)
	default:
		return xhttp.InternalErrorf("Something went wrong").WithError(err)
	}
}
