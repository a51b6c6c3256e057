package analytics

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"ChronoSignal/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPAdvancedAnalyzer_Analyze(t *testing.T) {
	var got signalRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, signalAnalyzePath, r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"signal_strength":0.8,"confidence":0.65,"temporal_correlation":0.91,"resonance_phase":2.5}`))
	}))
	defer srv.Close()

	a, err := NewHTTPAdvancedAnalyzer(srv.URL+"/", time.Second, 1)
	require.NoError(t, err)

	res, err := a.Analyze(context.Background(), []float64{10, 11, 12})
	require.NoError(t, err)
	assert.Equal(t, []float64{10, 11, 12}, got.Prices)
	assert.Equal(t, models.SignalResult{
		Instrument:          models.UnknownInstrument,
		SignalStrength:      0.8,
		Confidence:          0.65,
		TemporalCorrelation: 0.91,
		ResonancePhase:      2.5,
	}, res)
}

func TestHTTPAdvancedAnalyzer_RetriesThenFails(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		http.Error(w, "model not loaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	a, err := NewHTTPAdvancedAnalyzer(srv.URL, time.Second, 3)
	require.NoError(t, err)

	_, err = a.Analyze(context.Background(), nil)
	require.Error(t, err)
	var compErr *ComputationError
	require.ErrorAs(t, err, &compErr)
	assert.Contains(t, err.Error(), "503")
	assert.Equal(t, int32(3), atomic.LoadInt32(&hits))
}

func TestHTTPAdvancedFactory_EmptyURL(t *testing.T) {
	_, err := NewAnalyzerFacade(FacadeConfig{
		Backend:  BackendAdvanced,
		Advanced: HTTPAdvancedFactory("", time.Second, 1),
	})
	var initErr *InitializationError
	require.ErrorAs(t, err, &initErr)
	assert.Contains(t, err.Error(), "url is empty")
}
