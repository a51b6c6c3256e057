package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	models "ChronoSignal/internal/domain/models"
	domrepo "ChronoSignal/internal/domain/repository"
	"ChronoSignal/internal/service/ratelimit"
	"ChronoSignal/internal/usecase"
	xhttp "ChronoSignal/pkg/http"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubService struct {
	latestErr error
	gotN      int
	gotTF     domrepo.Timeframe
	gotPrices []float64
}

func (s *stubService) Latest(_ context.Context, symbol string, n int, tf domrepo.Timeframe) (models.SignalEvent, error) {
	s.gotN, s.gotTF = n, tf
	if s.latestErr != nil {
		return models.SignalEvent{}, s.latestErr
	}
	return models.SignalEvent{Backend: "classical", SignalResult: models.SignalResult{Instrument: symbol, SignalStrength: 0.1, Confidence: 0.9}}, nil
}

func (s *stubService) AnalyzePrices(_ context.Context, symbol string, prices []float64) (models.SignalEvent, error) {
	s.gotPrices = prices
	return models.SignalEvent{SignalResult: models.SignalResult{Instrument: symbol, Confidence: 0.5}}, nil
}

func (s *stubService) Backend() string { return "classical" }

func newTestEcho(svc SignalService, rl RateLimiter) *echo.Echo {
	reg := prometheus.NewRegistry()
	srv := xhttp.NewServer([]xhttp.ServerOption{xhttp.WithMetrics("/metrics", reg, reg)},
		NewSignalsEchoHandler(nil, svc, usecase.NewCandlesUseCase(nil), rl))
	return srv.Echo()
}

func serve(e *echo.Echo, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestLatest_DefaultsAndResult(t *testing.T) {
	svc := &stubService{}
	rec := serve(newTestEcho(svc, nil), http.MethodGet, "/api/signal?symbol=BTCUSDT", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 120, svc.gotN)
	assert.Equal(t, domrepo.TF1m, svc.gotTF)

	var resp struct {
		Data models.SignalEvent `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "BTCUSDT", resp.Data.Instrument)
	assert.Equal(t, 0.1, resp.Data.SignalStrength)
	assert.NotEmpty(t, rec.Header().Get(echo.HeaderCacheControl))
}

func TestLatest_Validation(t *testing.T) {
	e := newTestEcho(&stubService{}, nil)

	for _, target := range []string{
		"/api/signal",
		"/api/signal?symbol=BTC&tf=1h",
		"/api/signal?symbol=BTC&n=9000",
	} {
		rec := serve(e, http.MethodGet, target, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code, target)
	}
}

func TestLatest_ErrorMapping(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   string
	}{
		{fmt.Errorf("X: %w", usecase.ErrNonFiniteSignal), http.StatusUnprocessableEntity, "ERR_UNPROCESSABLE"},
		{fmt.Errorf("X/1m: %w", usecase.ErrNoData), http.StatusNotFound, "ERR_NOT_FOUND"},
		{usecase.ErrNoFeatureStore, http.StatusServiceUnavailable, "ERR_UNAVAILABLE"},
		{context.DeadlineExceeded, http.StatusServiceUnavailable, "ERR_UNAVAILABLE"},
		{fmt.Errorf("boom"), http.StatusInternalServerError, "ERR_INTERNAL"},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			rec := serve(newTestEcho(&stubService{latestErr: tt.err}, nil), http.MethodGet, "/api/signal?symbol=X", "")
			assert.Equal(t, tt.status, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.code)
		})
	}
}

func TestAnalyze(t *testing.T) {
	svc := &stubService{}
	e := newTestEcho(svc, nil)

	rec := serve(e, http.MethodPost, "/api/signal/analyze", `{"symbol":"ETHUSDT","prices":[1,2,3]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []float64{1, 2, 3}, svc.gotPrices)
	assert.Contains(t, rec.Body.String(), `"instrument":"ETHUSDT"`)

	rec = serve(e, http.MethodPost, "/api/signal/analyze", `{"prices":[]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"instrument":"UNKNOWN"`)

	rec = serve(e, http.MethodPost, "/api/signal/analyze", `{"symbol":"ETHUSDT"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(e, http.MethodPost, "/api/signal/analyze", `{"prices":"nope"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBackendAndCandles(t *testing.T) {
	e := newTestEcho(&stubService{}, nil)

	rec := serve(e, http.MethodGet, "/api/backend", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"backend":"classical"`)

	rec = serve(e, http.MethodGet, "/api/candles?symbol=BTC", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestRateLimit(t *testing.T) {
	e := newTestEcho(&stubService{}, ratelimit.New(0.001, 1))

	assert.Equal(t, http.StatusOK, serve(e, http.MethodGet, "/api/backend", "").Code)
	rec := serve(e, http.MethodGet, "/api/backend", "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Contains(t, rec.Body.String(), "ERR_RATE_LIMITED")
}
