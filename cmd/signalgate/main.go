// Command signalgate runs the trading-signal admission and forwarding
// pipeline: ingress, decision, ranking refresh, reprocessing, and
// forwarding, wired together per SPEC_FULL.md §5.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	osignal "os/signal"
	"syscall"
	"time"

	"signalgate/internal/api"
	"signalgate/internal/config"
	"signalgate/internal/decision"
	"signalgate/internal/forward"
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

var log = logging.For("main")

func main() {
	if err := run(); err != nil {
		log.Errorf("fatal: %v", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if cfg.Debug {
		logging.SetLevel("debug")
	} else {
		logging.SetLevel("info")
	}

	st, err := store.Open(cfg.DatabasePath)
	if err != nil {
		return err
	}
	defer st.Close()

	ld := ledger.New(st)
	limiter := ratelimit.New(cfg.MaxRequestsPerMinute)
	limiter.OnWait(func(d time.Duration) { metrics.RateLimiterWaitSeconds.Observe(d.Seconds()) })

	inQueue := queue.New[*signal.Signal](cfg.InQueueCapacity)
	approvedQueue := queue.New[*signal.Signal](cfg.ApprovedQueueCapacity)

	publisher := ranking.NewPublisher()
	src := ranking.NewHTTPSource(ranking.HTTPSourceConfig{
		URL:       cfg.RankingSourceURL,
		Timeout:   10 * time.Second,
		PageParam: "page",
		MaxPages:  20,
		PageSize:  100,
	})

	reprocessEngine := reprocess.New(st, ld, approvedQueue)
	ref := refresher.New(st, src, publisher, reprocessEngine)
	ref.ReprocessSoftDeadline = cfg.ReprocessSoftDeadline

	decisionPool := &decision.Pool{
		Size:          cfg.DecisionWorkers,
		RetryCap:      cfg.DecisionRetryCap,
		Store:         st,
		Ledger:        ld,
		Ranking:       publisher,
		InQueue:       inQueue,
		ApprovedQueue: approvedQueue,
	}

	forwardPool := &forward.Pool{
		Size:                cfg.ForwardWorkers,
		Store:               st,
		Ledger:              ld,
		Limiter:             limiter,
		Queue:               approvedQueue,
		DestURL:             cfg.DestWebhookURL,
		RequestTimeout:      cfg.DestWebhookTimeout,
		RewriteSideToAction: cfg.RewriteSideToAction,
	}

	srv := api.New(api.Config{
		Store:           st,
		Ledger:          ld,
		Limiter:         limiter,
		Publisher:       publisher,
		Refresher:       ref,
		Reprocess:       reprocessEngine,
		InQueue:         inQueue,
		ApprovedQueue:   approvedQueue,
		DecisionWorkers: cfg.DecisionWorkers,
		ForwardWorkers:  cfg.ForwardWorkers,
		AdminToken:      cfg.AdminToken,
		Debug:           cfg.Debug,
	})

	ctx, stop := osignal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// workCtx deliberately outlives ctx's cancellation: pools must keep
	// processing in-flight and queued work through the drain window below,
	// not abort every outbound call the instant the shutdown signal fires.
	workCtx := context.Background()
	done := make(chan struct{})

	go decisionPool.Run(workCtx, done)
	go forwardPool.Run(workCtx, done)
	go ref.Run(workCtx, done)
	go reportQueueDepths(inQueue, approvedQueue, done)

	httpServer := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: srv.Handler(),
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infof("listening on %s", cfg.ListenAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		log.Infof("shutdown signal received, draining queues")
	case err := <-errCh:
		if err != nil {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownDrainDeadline)
	defer cancel()
	_ = httpServer.Shutdown(shutdownCtx)

	drainQueues(shutdownCtx, inQueue, approvedQueue)

	close(done)
	return nil
}

// reportQueueDepths keeps metrics.QueueDepth current so a Prometheus scrape
// always reflects the live queue lengths, not just what handleSystemInfo
// happens to report on request.
func reportQueueDepths(inQueue, approvedQueue *queue.Queue[*signal.Signal], done <-chan struct{}) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		metrics.QueueDepth.WithLabelValues("in_queue").Set(float64(inQueue.Len()))
		metrics.QueueDepth.WithLabelValues("approved_queue").Set(float64(approvedQueue.Len()))
		select {
		case <-done:
			return
		case <-ticker.C:
		}
	}
}

// drainQueues waits for InQueue and then ApprovedQueue to empty, up to the
// shutdown deadline, before the worker pools are torn down, per spec.md §5's
// graceful-shutdown drain requirement.
func drainQueues(ctx context.Context, inQueue, approvedQueue *queue.Queue[*signal.Signal]) {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()
	for {
		if inQueue.Len() == 0 && approvedQueue.Len() == 0 {
			return
		}
		select {
		case <-ctx.Done():
			log.Warnf("drain deadline exceeded: in_queue=%d approved_queue=%d", inQueue.Len(), approvedQueue.Len())
			return
		case <-ticker.C:
		}
	}
}
