package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"signalgate/internal/ledger"
	"signalgate/internal/metrics"
	"signalgate/internal/signal"
	"signalgate/internal/store"
)

func (s *Server) handleListStrategies(c *gin.Context) {
	strategies, err := s.store.ListStrategies(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"strategies": strategies})
}

type strategyRequest struct {
	ID                           string `json:"id"`
	Name                         string `json:"name" binding:"required"`
	URL                          string `json:"url"`
	TopN                         int    `json:"top_n"`
	RefreshIntervalSec           int    `json:"refresh_interval_sec"`
	ReprocessEnabled             bool   `json:"reprocess_enabled"`
	ReprocessWindowSeconds       int    `json:"reprocess_window_seconds"`
	MaxSignalsPerTicker          int    `json:"max_signals_per_ticker"`
	RespectSellChronologyEnabled bool   `json:"respect_sell_chronology_enabled"`
	SellChronologyWindowSeconds  int    `json:"sell_chronology_window_seconds"`
}

func (s *Server) handleCreateStrategy(c *gin.Context) {
	var req strategyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	st := &store.Strategy{
		ID:                           req.ID,
		Name:                         req.Name,
		URL:                          req.URL,
		TopN:                         req.TopN,
		RefreshIntervalSec:           req.RefreshIntervalSec,
		ReprocessEnabled:             req.ReprocessEnabled,
		ReprocessWindowSeconds:       req.ReprocessWindowSeconds,
		MaxSignalsPerTicker:          req.MaxSignalsPerTicker,
		RespectSellChronologyEnabled: req.RespectSellChronologyEnabled,
		SellChronologyWindowSeconds:  req.SellChronologyWindowSeconds,
	}
	if err := s.store.UpsertStrategy(c.Request.Context(), st); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": st.ID})
}

func (s *Server) handleUpdateStrategy(c *gin.Context) {
	var req strategyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	req.ID = c.Param("id")
	st := &store.Strategy{
		ID:                           req.ID,
		Name:                         req.Name,
		URL:                          req.URL,
		TopN:                         req.TopN,
		RefreshIntervalSec:           req.RefreshIntervalSec,
		ReprocessEnabled:             req.ReprocessEnabled,
		ReprocessWindowSeconds:       req.ReprocessWindowSeconds,
		MaxSignalsPerTicker:          req.MaxSignalsPerTicker,
		RespectSellChronologyEnabled: req.RespectSellChronologyEnabled,
		SellChronologyWindowSeconds:  req.SellChronologyWindowSeconds,
	}
	if err := s.store.UpsertStrategy(c.Request.Context(), st); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "strategy updated"})
}

func (s *Server) handleActivateStrategy(c *gin.Context) {
	id := c.Param("id")
	if err := s.store.SwitchActiveStrategy(c.Request.Context(), id); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	s.hub.Broadcast(Event{Type: EventFinvizStrategyChanged, Data: gin.H{"id": id}})
	c.JSON(http.StatusOK, gin.H{"message": "strategy activated"})
}

func (s *Server) handleDeleteStrategy(c *gin.Context) {
	id := c.Param("id")
	if err := s.store.DeleteStrategy(c.Request.Context(), id); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "strategy deleted"})
}

func (s *Server) handlePauseRefresher(c *gin.Context) {
	s.refresher.Pause()
	c.JSON(http.StatusOK, gin.H{"message": "refresher paused"})
}

func (s *Server) handleResumeRefresher(c *gin.Context) {
	s.refresher.Resume()
	c.JSON(http.StatusOK, gin.H{"message": "refresher resumed"})
}

func (s *Server) handleForceRefresh(c *gin.Context) {
	s.refresher.ForceRefresh(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"message": "refresh complete", "generation": s.refresher.Publisher.Current().Generation})
}

func (s *Server) handlePauseRateLimiter(c *gin.Context) {
	s.limiter.Pause()
	c.JSON(http.StatusOK, gin.H{"message": "rate limiter paused"})
}

func (s *Server) handleResumeRateLimiter(c *gin.Context) {
	s.limiter.Resume()
	c.JSON(http.StatusOK, gin.H{"message": "rate limiter resumed"})
}

func (s *Server) handleResetMetrics(c *gin.Context) {
	metrics.DecisionsTotal.Reset()
	metrics.ForwardResultsTotal.Reset()
	metrics.SignalsReceivedTotal.Reset()
	metrics.ReprocessOutcomesTotal.Reset()
	c.JSON(http.StatusOK, gin.H{"message": "metrics reset"})
}

func (s *Server) handleSystemInfo(c *gin.Context) {
	strategy, err := s.store.ActiveStrategy(c.Request.Context())
	var activeStrategyID string
	if err == nil {
		activeStrategyID = strategy.ID
	}
	health := s.reprocess.HealthSnapshot()
	c.JSON(http.StatusOK, gin.H{
		"ranking_generation": s.publisher.Current().Generation,
		"in_queue_depth":     s.inQueue.Len(),
		"approved_queue_depth": s.approvedQueue.Len(),
		"decision_workers":   s.decisionWorkers,
		"forward_workers":    s.forwardWorkers,
		"active_strategy_id": activeStrategyID,
		"refresher_paused":   s.refresher.Paused(),
		"rate_limiter_enabled": s.limiter.Enabled(),
		"reprocess_health": gin.H{
			"status":       health.Status,
			"success_rate": health.SuccessRate,
			"last_cycle_at": health.LastCycleAt,
		},
	})
}

func (s *Server) handleListSignals(c *gin.Context) {
	filter := store.SignalFilter{
		Ticker:     upperTicker(c.Query("ticker")),
		Status:     signal.Status(c.Query("status")),
		SignalType: signal.Type(c.Query("signal_type")),
		Limit:      queryInt(c, "limit", 100),
		Offset:     queryInt(c, "offset", 0),
	}
	if since := c.Query("since"); since != "" {
		if t, err := time.Parse(time.RFC3339, since); err == nil {
			filter.Since = t
		}
	}
	if until := c.Query("until"); until != "" {
		if t, err := time.Parse(time.RFC3339, until); err == nil {
			filter.Until = t
		}
	}

	rows, err := s.store.ListSignals(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"signals": rows})
}

// handleClosePosition synthesizes a POSITION_CLOSE signal with action=exit
// for the given ticker and enqueues it for forwarding, per spec.md §6.
func (s *Server) handleClosePosition(c *gin.Context) {
	ticker := upperTicker(c.Param("ticker"))
	s.synthesizeExit(c, ticker, signal.TypePositionClose)
}

// handleSellAll synthesizes one SELL_ALL signal per open ticker, per
// spec.md §6, skipping any ticker already CLOSING per the Design Notes'
// open-question resolution.
func (s *Server) handleSellAll(c *gin.Context) {
	ctx := c.Request.Context()
	tickers, err := s.ledger.OpenTickers(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	var enqueued, skipped []string
	for _, ticker := range tickers {
		ok := s.enqueueExit(ctx, ticker, signal.TypeSellAll)
		if ok {
			enqueued = append(enqueued, ticker)
		} else {
			skipped = append(skipped, ticker)
		}
	}
	c.JSON(http.StatusOK, gin.H{"enqueued": enqueued, "skipped_already_closing": skipped})
}

func (s *Server) synthesizeExit(c *gin.Context, ticker string, signalType signal.Type) {
	ctx := c.Request.Context()
	if ok := s.enqueueExit(ctx, ticker, signalType); !ok {
		c.JSON(http.StatusConflict, gin.H{"error": "position already closing or not open"})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"message": "exit enqueued", "ticker": ticker})
}

// enqueueExit marks the ticker's position CLOSING and pushes a synthesized
// exit signal onto ApprovedQueue. Returns false if the position was not
// OPEN (already CLOSING, or no position at all).
func (s *Server) enqueueExit(ctx context.Context, ticker string, signalType signal.Type) bool {
	sig := &signal.Signal{
		SignalID:   signal.NewID(),
		Ticker:     ticker,
		Action:     signal.ActionExit,
		ReceivedAt: time.Now(),
	}
	if _, err := s.store.InsertSignal(ctx, sig, signal.StatusApproved, signalType); err != nil {
		log.Errorf("synthesize exit for %s: insert failed: %v", ticker, err)
		return false
	}

	outcome, err := s.ledger.TryBeginClose(ctx, ticker, sig.SignalID)
	if err != nil {
		log.Errorf("synthesize exit for %s: begin close failed: %v", ticker, err)
		return false
	}
	if outcome != ledger.OutcomeClosing {
		return false
	}

	if err := s.approvedQueue.Push(sig, nil); err != nil {
		log.Errorf("synthesize exit for %s: enqueue failed: %v", ticker, err)
		return false
	}
	return true
}

func queryInt(c *gin.Context, key string, def int) int {
	v := c.Query(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
