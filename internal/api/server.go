// Package api implements the ingress webhook and the token-authenticated
// admin HTTP/WebSocket surface, per spec.md §6, built on gin-gonic/gin in
// the route-group-plus-handler-method style of SynapseStrike/api/tactics.go.
package api

import (
	"context"
	"crypto/subtle"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"signalgate/internal/ledger"
	"signalgate/internal/logging"
	"signalgate/internal/metrics"
	"signalgate/internal/queue"
	"signalgate/internal/ranking"
	"signalgate/internal/ratelimit"
	"signalgate/internal/refresher"
	"signalgate/internal/reprocess"
	"signalgate/internal/signal"
	"signalgate/internal/store"
)

var log = logging.For("api")

// Server wires the ingress and admin HTTP surfaces over the shared pipeline
// components.
type Server struct {
	engine *gin.Engine
	hub    *Hub

	store     store.Store
	ledger    *ledger.Ledger
	limiter   *ratelimit.Limiter
	publisher *ranking.Publisher
	refresher *refresher.Refresher
	reprocess *reprocess.Engine

	inQueue       *queue.Queue[*signal.Signal]
	approvedQueue *queue.Queue[*signal.Signal]

	decisionWorkers int
	forwardWorkers  int

	adminToken string
}

// Config bundles every collaborator the Server needs. It is intentionally a
// plain struct of already-constructed components: composition happens once,
// in cmd/signalgate/main.go.
type Config struct {
	Store           store.Store
	Ledger          *ledger.Ledger
	Limiter         *ratelimit.Limiter
	Publisher       *ranking.Publisher
	Refresher       *refresher.Refresher
	Reprocess       *reprocess.Engine
	InQueue         *queue.Queue[*signal.Signal]
	ApprovedQueue   *queue.Queue[*signal.Signal]
	DecisionWorkers int
	ForwardWorkers  int
	AdminToken      string
	Debug           bool
}

// New builds a Server and registers all routes.
func New(cfg Config) *Server {
	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	s := &Server{
		engine:          gin.New(),
		hub:             NewHub(),
		store:           cfg.Store,
		ledger:          cfg.Ledger,
		limiter:         cfg.Limiter,
		publisher:       cfg.Publisher,
		refresher:       cfg.Refresher,
		reprocess:       cfg.Reprocess,
		inQueue:         cfg.InQueue,
		approvedQueue:   cfg.ApprovedQueue,
		decisionWorkers: cfg.DecisionWorkers,
		forwardWorkers:  cfg.ForwardWorkers,
		adminToken:      cfg.AdminToken,
	}
	s.engine.Use(gin.Recovery())
	s.routes()
	return s
}

// Handler exposes the underlying http.Handler for the HTTP server to serve.
func (s *Server) Handler() http.Handler { return s.engine }

// Hub exposes the WebSocket broadcaster so other components (decision,
// forward, reprocess, refresher) can publish typed events.
func (s *Server) Hub() *Hub { return s.hub }

func (s *Server) routes() {
	s.engine.POST("/webhook/in", s.handleWebhookIn)
	s.engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{})))

	admin := s.engine.Group("/admin")
	admin.Use(s.authMiddleware())
	{
		admin.GET("/strategies", s.handleListStrategies)
		admin.POST("/strategies", s.handleCreateStrategy)
		admin.PUT("/strategies/:id", s.handleUpdateStrategy)
		admin.POST("/strategies/:id/activate", s.handleActivateStrategy)
		admin.DELETE("/strategies/:id", s.handleDeleteStrategy)

		admin.POST("/refresher/pause", s.handlePauseRefresher)
		admin.POST("/refresher/resume", s.handleResumeRefresher)
		admin.POST("/refresher/force-refresh", s.handleForceRefresh)

		admin.POST("/ratelimit/pause", s.handlePauseRateLimiter)
		admin.POST("/ratelimit/resume", s.handleResumeRateLimiter)

		admin.POST("/metrics/reset", s.handleResetMetrics)
		admin.GET("/system/info", s.handleSystemInfo)

		admin.GET("/signals", s.handleListSignals)

		admin.POST("/positions/:ticker/close", s.handleClosePosition)
		admin.POST("/positions/sell-all", s.handleSellAll)

		admin.GET("/ws", func(c *gin.Context) { s.hub.ServeWS(c.Writer, c.Request) })
	}
}

// authMiddleware enforces the shared admin bearer token with a
// constant-time comparison. This is deliberately not session- or
// JWT-based: spec.md §1 names "no authentication beyond a shared token"
// as an explicit Non-goal.
func (s *Server) authMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		const prefix = "Bearer "
		header := c.GetHeader("Authorization")
		if len(header) <= len(prefix) || header[:len(prefix)] != prefix {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}
		token := header[len(prefix):]
		if subtle.ConstantTimeCompare([]byte(token), []byte(s.adminToken)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		c.Next()
	}
}

type webhookInRequest struct {
	Ticker string  `json:"ticker" binding:"required"`
	Side   string  `json:"side"`
	Action string  `json:"action"`
	Price  *string `json:"price"`
	Time   *string `json:"time"`
}

// handleWebhookIn implements the sole ingestion endpoint of spec.md §6:
// 202 on accept, 503 on backpressure, 400 on malformed body. Nothing is
// persisted on a Validation or Backpressure rejection.
func (s *Server) handleWebhookIn(c *gin.Context) {
	raw, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot read body"})
		return
	}

	var req webhookInRequest
	if err := bindJSON(raw, &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed payload: " + err.Error()})
		return
	}
	if req.Ticker == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ticker is required"})
		return
	}

	// Reject on backpressure before persisting anything: spec.md §9 requires
	// that an InQueue-at-capacity rejection leaves no signal row behind.
	if s.inQueue.Len() >= s.inQueue.Cap() {
		metrics.IngressBackpressureTotal.Inc()
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "backpressure"})
		return
	}

	receivedAt := time.Now()
	if req.Time != nil {
		if t, err := time.Parse(time.RFC3339, *req.Time); err == nil {
			receivedAt = t
		}
	}

	sig := &signal.Signal{
		SignalID:        signal.NewID(),
		Ticker:          upperTicker(req.Ticker),
		Side:            signal.Side(req.Side),
		Action:          signal.Action(req.Action),
		Price:           signal.NullDecimalFromString(req.Price),
		ReceivedAt:      receivedAt,
		OriginalPayload: raw,
	}
	class := sig.Class()
	sig.SignalType = signal.DetermineSignalType(class)

	if _, err := s.store.InsertSignal(context.Background(), sig, signal.StatusReceived, sig.SignalType); err != nil {
		log.Errorf("insert signal %s: %v", sig.SignalID, err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "store unavailable"})
		return
	}

	if err := s.inQueue.TryPush(sig); err != nil {
		// Lost the race against the capacity pre-check above. The signal
		// row is already durable; mark it rejected rather than leaving it
		// stuck at RECEIVED forever.
		metrics.IngressBackpressureTotal.Inc()
		_ = s.store.SetSignalStatus(context.Background(), sig.SignalID, signal.StatusRejected, "ingress", "backpressure")
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "backpressure"})
		return
	}

	metrics.SignalsReceivedTotal.WithLabelValues(string(sig.SignalType)).Inc()
	c.JSON(http.StatusAccepted, gin.H{"signal_id": sig.SignalID})
}
