// Package forward implements the forwarding worker pool: M workers
// draining ApprovedQueue, rate-limited HTTP delivery to the downstream
// webhook, per spec.md §4.6.
package forward

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"signalgate/internal/ledger"
	"signalgate/internal/logging"
	"signalgate/internal/metrics"
	"signalgate/internal/queue"
	"signalgate/internal/ratelimit"
	"signalgate/internal/signal"
	"signalgate/internal/store"
)

var log = logging.For("forward")

// outboundPayload is the wire shape POSTed to the destination webhook.
type outboundPayload struct {
	SignalID string          `json:"signal_id"`
	Ticker   string          `json:"ticker"`
	Side     signal.Side     `json:"side,omitempty"`
	Action   signal.Action   `json:"action,omitempty"`
	Price    *string         `json:"price,omitempty"`
	Raw      json.RawMessage `json:"raw,omitempty"`
}

// Pool runs a fixed-size pool of forwarding workers.
type Pool struct {
	Size int

	Store     store.Store
	Ledger    *ledger.Ledger
	Limiter   *ratelimit.Limiter
	Queue     *queue.Queue[*signal.Signal]

	DestURL       string
	RequestTimeout time.Duration
	RewriteSideToAction bool

	client *http.Client
	once   sync.Once
}

func (p *Pool) httpClient() *http.Client {
	p.once.Do(func() {
		timeout := p.RequestTimeout
		if timeout == 0 {
			timeout = 10 * time.Second
		}
		p.client = &http.Client{Timeout: timeout}
	})
	return p.client
}

// Run blocks until done is closed, fanning work out across Size goroutines.
func (p *Pool) Run(ctx context.Context, done <-chan struct{}) {
	var wg sync.WaitGroup
	for i := 0; i < p.Size; i++ {
		wg.Add(1)
		workerID := fmt.Sprintf("forward-%d", i)
		go func() {
			defer wg.Done()
			p.runWorker(ctx, done, workerID)
		}()
	}
	wg.Wait()
}

func (p *Pool) runWorker(ctx context.Context, done <-chan struct{}, workerID string) {
	for {
		sig, err := p.Queue.Pop(done)
		if err != nil {
			return
		}
		p.processOne(ctx, workerID, sig)
	}
}

func (p *Pool) processOne(ctx context.Context, workerID string, sig *signal.Signal) {
	defer func() {
		if r := recover(); r != nil {
			log.Errorf("panic forwarding signal %s: %v", sig.SignalID, r)
		}
	}()

	permit, err := p.Limiter.Acquire(ctx)
	if err != nil {
		log.Warnf("worker %s: acquire aborted for %s: %v", workerID, sig.SignalID, err)
		return
	}

	status, postErr := p.post(ctx, sig)
	p.Limiter.OnResponse(permit, status)

	if postErr == nil && status >= 200 && status < 300 {
		p.onSuccess(ctx, workerID, sig)
		return
	}
	p.onFailure(ctx, workerID, sig, status, postErr)
}

func (p *Pool) post(ctx context.Context, sig *signal.Signal) (int, error) {
	body := p.buildPayload(sig)
	encoded, err := json.Marshal(body)
	if err != nil {
		return 0, fmt.Errorf("forward: encode payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.DestURL, bytes.NewReader(encoded))
	if err != nil {
		return 0, fmt.Errorf("forward: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient().Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode, nil
}

func (p *Pool) buildPayload(sig *signal.Signal) outboundPayload {
	out := outboundPayload{
		SignalID: sig.SignalID,
		Ticker:   sig.Ticker,
		Side:     sig.Side,
		Action:   sig.Action,
		Raw:      sig.OriginalPayload,
	}
	if sig.Price.Valid {
		s := sig.Price.Decimal.String()
		out.Price = &s
	}
	if p.RewriteSideToAction && out.Action == "" {
		out.Action = signal.Action(out.Side)
	}
	return out
}

func (p *Pool) onSuccess(ctx context.Context, workerID string, sig *signal.Signal) {
	if err := p.Store.SetSignalStatus(ctx, sig.SignalID, signal.StatusForwardedOK, workerID, "2xx"); err != nil {
		log.Errorf("worker %s: failed to record FORWARDED_OK for %s: %v", workerID, sig.SignalID, err)
	}
	metrics.ForwardResultsTotal.WithLabelValues("ok").Inc()

	if !sig.IsSellFamily() {
		return
	}
	if err := p.Ledger.FinalizeClose(ctx, sig.Ticker); err != nil {
		log.Errorf("worker %s: failed to finalize close for %s: %v", workerID, sig.Ticker, err)
	}
}

func (p *Pool) onFailure(ctx context.Context, workerID string, sig *signal.Signal, status int, postErr error) {
	detail := "network_error"
	result := "error"
	switch {
	case postErr != nil:
		log.Warnf("worker %s: forward %s failed: %v", workerID, sig.SignalID, postErr)
		if ctx.Err() != nil {
			detail = "timeout"
			result = "timeout"
		}
	default:
		detail = fmt.Sprintf("http_%d", status)
	}

	if err := p.Store.SetSignalStatus(ctx, sig.SignalID, signal.StatusForwardedErr, workerID, detail); err != nil {
		log.Errorf("worker %s: failed to record FORWARDED_ERR for %s: %v", workerID, sig.SignalID, err)
	}
	metrics.ForwardResultsTotal.WithLabelValues(result).Inc()
}
