package status

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/yanun0323/errors"
	"github.com/yanun0323/logs"

	"streamfolio/pkg/exception"
)

const (
	// DefaultInterval is the reference status poll cadence.
	DefaultInterval = 30 * time.Second

	statusPath = "/api/stream/status"
)

// StreamStatus is the streaming-mode metadata reported by the backend.
// Informational only; revaluation correctness never depends on it.
type StreamStatus struct {
	Sources            []string `json:"sources"`
	PollingIntervalSec int      `json:"polling_interval"`
	Realtime           bool     `json:"realtime"`
}

// Poller periodically queries the status endpoint and hands each result to
// a callback.
type Poller struct {
	baseURL    string
	interval   time.Duration
	onStatus   func(StreamStatus)
	httpClient *http.Client

	cancel  context.CancelFunc
	done    chan struct{}
	running atomic.Bool
}

// NewPoller builds a poller. A non-positive interval falls back to
// DefaultInterval; a nil httpClient gets a 10s-timeout default.
func NewPoller(baseURL string, interval time.Duration, onStatus func(StreamStatus), httpClient *http.Client) *Poller {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Poller{
		baseURL:    strings.TrimRight(baseURL, "/"),
		interval:   interval,
		onStatus:   onStatus,
		httpClient: httpClient,
	}
}

// Start begins polling until Stop or ctx cancellation. Starting a running
// poller is a no-op.
func (p *Poller) Start(ctx context.Context) {
	if p == nil || ctx == nil {
		return
	}
	if !p.running.CompareAndSwap(false, true) {
		return
	}

	runCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.done = make(chan struct{})

	go func() {
		defer close(p.done)
		defer p.running.Store(false)

		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()

		p.poll(runCtx)
		for {
			select {
			case <-runCtx.Done():
				return
			case <-ticker.C:
				p.poll(runCtx)
			}
		}
	}()
}

// Stop halts polling and waits for the loop to exit.
func (p *Poller) Stop() {
	if p == nil || !p.running.Load() {
		return
	}
	if p.cancel != nil {
		p.cancel()
	}
	if p.done != nil {
		<-p.done
	}
}

func (p *Poller) poll(ctx context.Context) {
	st, err := p.fetch(ctx)
	if err != nil {
		if ctx.Err() == nil {
			logs.Errorf("fetch stream status, err: %+v", err)
		}
		return
	}
	if p.onStatus != nil {
		p.onStatus(st)
	}
}

func (p *Poller) fetch(ctx context.Context) (StreamStatus, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+statusPath, nil)
	if err != nil {
		return StreamStatus{}, errors.Wrap(err, "build status request")
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return StreamStatus{}, errors.Wrap(err, "fetch status")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return StreamStatus{}, errors.Wrap(exception.ErrStatusStatus, resp.Status)
	}

	var st StreamStatus
	if err := json.NewDecoder(resp.Body).Decode(&st); err != nil {
		return StreamStatus{}, errors.Wrap(err, "decode status")
	}
	return st, nil
}
