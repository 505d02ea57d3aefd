package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"signalgate/internal/ledger"
	"signalgate/internal/queue"
	"signalgate/internal/ranking"
	"signalgate/internal/ratelimit"
	"signalgate/internal/refresher"
	"signalgate/internal/reprocess"
	"signalgate/internal/signal"
	"signalgate/internal/store"
)

const testAdminToken = "test-admin-token"

func newTestServer(t *testing.T) *Server {
	t.Helper()
	st, err := store.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	ld := ledger.New(st)
	limiter := ratelimit.New(60)
	publisher := ranking.NewPublisher()
	inQueue := queue.New[*signal.Signal](4)
	approvedQueue := queue.New[*signal.Signal](4)
	reprocessEngine := reprocess.New(st, ld, approvedQueue)
	src := ranking.NewHTTPSource(ranking.HTTPSourceConfig{})
	ref := refresher.New(st, src, publisher, reprocessEngine)

	return New(Config{
		Store:           st,
		Ledger:          ld,
		Limiter:         limiter,
		Publisher:       publisher,
		Refresher:       ref,
		Reprocess:       reprocessEngine,
		InQueue:         inQueue,
		ApprovedQueue:   approvedQueue,
		DecisionWorkers: 2,
		ForwardWorkers:  2,
		AdminToken:      testAdminToken,
		Debug:           true,
	})
}

func doRequest(s *Server, method, path, token string, body []byte) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestWebhookIn_AcceptsValidBuySignal(t *testing.T) {
	s := newTestServer(t)
	body := []byte(`{"ticker":"aapl","side":"buy"}`)
	rec := doRequest(s, http.MethodPost, "/webhook/in", "", body)
	require.Equal(t, http.StatusAccepted, rec.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp["signal_id"])

	got, err := s.store.GetSignal(context.Background(), resp["signal_id"])
	require.NoError(t, err)
	require.Equal(t, "AAPL", got.Ticker)
	require.Equal(t, signal.StatusReceived, got.Status)
}

func TestWebhookIn_RejectsMissingTicker(t *testing.T) {
	s := newTestServer(t)
	rec := doRequest(s, http.MethodPost, "/webhook/in", "", []byte(`{"side":"buy"}`))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWebhookIn_RejectsMalformedJSON(t *testing.T) {
	s := newTestServer(t)
	rec := doRequest(s, http.MethodPost, "/webhook/in", "", []byte(`not json`))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWebhookIn_BackpressureLeavesNoSignalPersisted(t *testing.T) {
	s := newTestServer(t)
	// Fill InQueue (capacity 4) without draining it.
	for i := 0; i < 4; i++ {
		require.NoError(t, s.inQueue.TryPush(&signal.Signal{SignalID: signal.NewID()}))
	}

	rec := doRequest(s, http.MethodPost, "/webhook/in", "", []byte(`{"ticker":"msft","side":"buy"}`))
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rows, err := s.store.ListSignals(context.Background(), store.SignalFilter{Ticker: "MSFT", Limit: 10})
	require.NoError(t, err)
	require.Empty(t, rows)
}

func TestAdmin_RequiresBearerToken(t *testing.T) {
	s := newTestServer(t)
	rec := doRequest(s, http.MethodGet, "/admin/strategies", "", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAdmin_RejectsWrongToken(t *testing.T) {
	s := newTestServer(t)
	rec := doRequest(s, http.MethodGet, "/admin/strategies", "wrong-token", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAdmin_ListStrategies(t *testing.T) {
	s := newTestServer(t)
	rec := doRequest(s, http.MethodGet, "/admin/strategies", testAdminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string][]store.Strategy
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp["strategies"])
}

func TestAdmin_CreateAndActivateStrategy(t *testing.T) {
	s := newTestServer(t)
	body := []byte(`{"id":"strat-2","name":"second","url":"http://example.test/rank","top_n":10,"refresh_interval_sec":60}`)
	rec := doRequest(s, http.MethodPost, "/admin/strategies", testAdminToken, body)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(s, http.MethodPost, "/admin/strategies/strat-2/activate", testAdminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	active, err := s.store.ActiveStrategy(context.Background())
	require.NoError(t, err)
	require.Equal(t, "strat-2", active.ID)
}

func TestAdmin_PauseResumeRefresherAndRateLimiter(t *testing.T) {
	s := newTestServer(t)
	rec := doRequest(s, http.MethodPost, "/admin/refresher/pause", testAdminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, s.refresher.Paused())

	rec = doRequest(s, http.MethodPost, "/admin/refresher/resume", testAdminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.False(t, s.refresher.Paused())

	rec = doRequest(s, http.MethodPost, "/admin/ratelimit/pause", testAdminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.False(t, s.limiter.Enabled())

	rec = doRequest(s, http.MethodPost, "/admin/ratelimit/resume", testAdminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, s.limiter.Enabled())
}

func TestAdmin_SystemInfo(t *testing.T) {
	s := newTestServer(t)
	rec := doRequest(s, http.MethodGet, "/admin/system/info", testAdminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Contains(t, resp, "active_strategy_id")
	require.Contains(t, resp, "reprocess_health")
}

func TestAdmin_ClosePosition_NoOpenPositionReturnsConflict(t *testing.T) {
	s := newTestServer(t)
	rec := doRequest(s, http.MethodPost, "/admin/positions/tsla/close", testAdminToken, nil)
	require.Equal(t, http.StatusConflict, rec.Code)
}

func TestAdmin_ClosePosition_OpenPositionEnqueuesExit(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	entry := &signal.Signal{SignalID: signal.NewID(), Ticker: "TSLA", ReceivedAt: time.Now()}
	_, err := s.store.InsertSignal(ctx, entry, signal.StatusApproved, signal.TypeBuy)
	require.NoError(t, err)
	outcome, err := s.ledger.TryOpen(ctx, "TSLA", entry.SignalID)
	require.NoError(t, err)
	require.Equal(t, ledger.OutcomeOpened, outcome)

	rec := doRequest(s, http.MethodPost, "/admin/positions/tsla/close", testAdminToken, nil)
	require.Equal(t, http.StatusAccepted, rec.Code)

	sig, err := s.approvedQueue.Pop(nil)
	require.NoError(t, err)
	require.Equal(t, "TSLA", sig.Ticker)
	require.Equal(t, signal.TypePositionClose, sig.SignalType)
}

func TestAdmin_SellAll_SkipsTickersWithoutOpenPosition(t *testing.T) {
	s := newTestServer(t)
	rec := doRequest(s, http.MethodPost, "/admin/positions/sell-all", testAdminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Enqueued []string `json:"enqueued"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Empty(t, resp.Enqueued)
}
