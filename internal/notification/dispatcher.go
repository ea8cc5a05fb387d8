package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"
)

type Worker struct {
	ID         int
	WorkerPool chan chan Notification
	JobChannel chan Notification
	Logger     *slog.Logger
}

func NewWorker(id int, workerPool chan chan Notification, logger *slog.Logger) *Worker {
	return &Worker{
		ID:         id,
		WorkerPool: workerPool,
		JobChannel: make(chan Notification),
		Logger:     logger,
	}
}

// Start runs the worker until quit is closed. A worker only observes quit
// while idle, so a job it has been handed is always processed.
func (w *Worker) Start(quit <-chan struct{}, wg *sync.WaitGroup, process func(Notification)) {
	wg.Add(1)
	go func() {
		defer wg.Done()

		for {
			select {
			case w.WorkerPool <- w.JobChannel:
			case <-quit:
				w.Logger.Debug("notification worker shutting down", "worker_id", w.ID)
				return
			}

			select {
			case job := <-w.JobChannel:
				process(job)
			case <-quit:
				w.Logger.Debug("notification worker shutting down", "worker_id", w.ID)
				return
			}
		}
	}()
}

type Config struct {
	PushURL    string
	APIKey     string
	Timeout    time.Duration
	MaxWorkers int
	QueueSize  int
}

// Dispatcher delivers notifications to the push gateway from a fixed pool of
// workers fed by a bounded queue. Without a push URL messages are only
// logged. Shutdown stops intake and delivers what is already queued.
type Dispatcher struct {
	pushURL    string
	apiKey     string
	httpClient *http.Client
	tokens     TokenResolver
	logger     *slog.Logger

	jobQueue   chan Notification
	workerPool chan chan Notification
	maxWorkers int
	quit       chan struct{}
	ctx        context.Context
	cancel     context.CancelFunc
	wg         sync.WaitGroup
	once       sync.Once

	mu       sync.RWMutex
	closed   bool
	stopOnce sync.Once
}

func NewDispatcher(cfg Config, tokens TokenResolver, logger *slog.Logger) *Dispatcher {
	ctx, cancel := context.WithCancel(context.Background())

	maxWorkers := cfg.MaxWorkers
	if maxWorkers <= 0 {
		maxWorkers = 4
	}
	queueSize := cfg.QueueSize
	if queueSize <= 0 {
		queueSize = 100
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	d := &Dispatcher{
		pushURL:    cfg.PushURL,
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: timeout},
		tokens:     tokens,
		logger:     logger,

		maxWorkers: maxWorkers,
		jobQueue:   make(chan Notification, queueSize),
		workerPool: make(chan chan Notification, maxWorkers),
		quit:       make(chan struct{}),
		ctx:        ctx,
		cancel:     cancel,
	}

	d.start()

	return d
}

func (d *Dispatcher) start() {
	d.once.Do(func() {
		for i := 0; i < d.maxWorkers; i++ {
			worker := NewWorker(i, d.workerPool, d.logger)
			worker.Start(d.quit, &d.wg, d.deliver)
		}

		d.wg.Add(1)
		go d.dispatch()

		d.logger.Info("notification dispatcher started",
			"max_workers", d.maxWorkers,
			"queue_size", cap(d.jobQueue),
			"push_enabled", d.pushURL != "")
	})
}

// dispatch hands queued jobs to idle workers until the queue is closed and
// empty, then releases the workers.
func (d *Dispatcher) dispatch() {
	defer d.wg.Done()
	defer close(d.quit)

	for job := range d.jobQueue {
		jobChannel := <-d.workerPool
		jobChannel <- job
	}
}

// Notify queues n for delivery. A full queue, or a dispatcher that is
// shutting down, drops the notification.
func (d *Dispatcher) Notify(_ context.Context, n Notification) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		d.logger.Warn("notification dispatcher stopped, dropping notification", "title", n.Title)
		return
	}

	select {
	case d.jobQueue <- n:
	default:
		d.logger.Warn("notification queue full, dropping notification",
			"title", n.Title,
			"queue_capacity", cap(d.jobQueue))
	}
}

// Deliver sends n on the calling goroutine, bypassing the queue. Command line
// tools use it so that the process does not exit before delivery.
func (d *Dispatcher) Deliver(n Notification) {
	d.deliver(n)
}

// Shutdown stops accepting notifications, waits for the queued ones to be
// delivered and then cancels anything still outstanding. Each delivery is
// bounded by the HTTP timeout. Calling it again is a no-op.
func (d *Dispatcher) Shutdown() {
	d.stopOnce.Do(func() {
		d.logger.Info("shutting down notification dispatcher", "queued", len(d.jobQueue))

		d.mu.Lock()
		d.closed = true
		close(d.jobQueue)
		d.mu.Unlock()

		d.wg.Wait()
		d.cancel()
		d.logger.Info("notification dispatcher shutdown complete")
	})
}

type pushPayload struct {
	Tokens []string          `json:"tokens"`
	Title  string            `json:"title"`
	Body   string            `json:"body"`
	Data   map[string]string `json:"data,omitempty"`
}

func (d *Dispatcher) deliver(n Notification) {
	ctx, cancel := context.WithTimeout(d.ctx, d.httpClient.Timeout)
	defer cancel()

	var (
		tokens []string
		err    error
	)
	if len(n.Usernames) > 0 {
		tokens, err = d.tokens.TokensForUsers(ctx, n.Usernames)
	} else {
		tokens, err = d.tokens.TokensForGroup(ctx, n.GroupID)
	}
	if err != nil {
		d.logger.Error("failed to resolve device tokens", "error", err, "title", n.Title)
		return
	}
	if len(tokens) == 0 {
		d.logger.Debug("no devices registered for notification", "title", n.Title)
		return
	}

	if d.pushURL == "" {
		d.logger.Info("push disabled, notification logged only",
			"title", n.Title,
			"body", n.Body,
			"devices", len(tokens))
		return
	}

	if err := d.send(ctx, pushPayload{Tokens: tokens, Title: n.Title, Body: n.Body, Data: n.Data}); err != nil {
		d.logger.Error("push notification failed", "error", err, "title", n.Title, "devices", len(tokens))
		return
	}
	d.logger.Info("push notification sent", "title", n.Title, "devices", len(tokens))
}

func (d *Dispatcher) send(ctx context.Context, payload pushPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal push payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.pushURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create push request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if d.apiKey != "" {
		req.Header.Set("Authorization", "key="+d.apiKey)
	}

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("push request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("push gateway returned status %d", resp.StatusCode)
	}
	return nil
}
