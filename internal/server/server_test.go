package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"spikewatch/internal/market"
	"spikewatch/internal/supervisor"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func idleTask(ctx context.Context, _ string) { <-ctx.Done() }

func newTestServer(t *testing.T) (*Server, *market.Store, *supervisor.Supervisor) {
	t.Helper()
	store := market.NewStore([]string{"BTC", "ETH"}, 5)
	sup := supervisor.New(store, zap.NewNop(), nil, []supervisor.TaskFunc{idleTask, idleTask})

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	sup.Run(ctx)

	return New(store, sup, zap.NewNop()), store, sup
}

func doRequest(t *testing.T, s *Server, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func TestStateEndpointReturnsSnapshot(t *testing.T) {
	s, store, _ := newTestServer(t)

	store.Update("BTC", market.VenueBinance, func(st *market.ExchangeState) {
		st.ApplyCandle(market.Candle{Open: 1, Close: 2, Volume: 42})
	})

	rec := doRequest(t, s, http.MethodGet, "/api/state")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body struct {
		Symbols map[string]market.SymbolSnapshot `json:"symbols"`
		Active  []string                         `json:"active"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Contains(t, body.Symbols, "BTC")
	assert.InDelta(t, 42.0, body.Symbols["BTC"].Venues[market.VenueBinance].CurrentVolume, 1e-9)
	assert.Empty(t, body.Active)
}

func TestWatchStartActivatesSymbol(t *testing.T) {
	s, _, sup := newTestServer(t)

	// Lower-case path symbols are accepted.
	rec := doRequest(t, s, http.MethodPut, "/api/watch/btc")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, sup.IsActive("BTC"))

	rec = doRequest(t, s, http.MethodGet, "/api/watch")
	var body struct {
		Active []string `json:"active"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, []string{"BTC"}, body.Active)
}

func TestWatchStartUnknownSymbolIs404(t *testing.T) {
	s, _, sup := newTestServer(t)

	rec := doRequest(t, s, http.MethodPut, "/api/watch/DOGE")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Empty(t, sup.Active())
}

func TestWatchStopDeactivatesSymbol(t *testing.T) {
	s, _, sup := newTestServer(t)

	require.NoError(t, sup.Start("BTC"))
	rec := doRequest(t, s, http.MethodDelete, "/api/watch/BTC")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, sup.IsActive("BTC"))
}

func TestWatchStopIdempotent(t *testing.T) {
	s, _, _ := newTestServer(t)

	rec := doRequest(t, s, http.MethodDelete, "/api/watch/BTC")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHealthEndpoint(t *testing.T) {
	s, _, _ := newTestServer(t)

	rec := doRequest(t, s, http.MethodGet, "/healthz")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Symbols int `json:"symbols"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 2, body.Symbols)
}
