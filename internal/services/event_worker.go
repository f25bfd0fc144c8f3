package services

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/canopyhq/canopy/internal/config"
	"github.com/canopyhq/canopy/pkg/logger"
	"github.com/hibiken/asynq"
)

// EventWorker drains domain events from the async queue.
type EventWorker struct {
	server    *asynq.Server
	mux       *asynq.ServeMux
	processor func(context.Context, *DomainEvent) error
	wg        sync.WaitGroup
	running   bool
	mu        sync.Mutex
}

// NewEventWorker creates a new worker instance.
func NewEventWorker(cfg *config.RedisConfig) *EventWorker {
	if !cfg.Enabled {
		return nil
	}

	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}

	server := asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				"default": 1,
			},
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				logger.Infof("[EventWorker] Error processing task %s: %v", task.Type(), err)
			}),
		},
	)

	return &EventWorker{
		server: server,
		mux:    asynq.NewServeMux(),
	}
}

// SetProcessor sets the function to dispatch events.
func (w *EventWorker) SetProcessor(processor func(context.Context, *DomainEvent) error) {
	w.processor = processor
}

// Start begins processing events.
func (w *EventWorker) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return nil
	}

	w.mux.HandleFunc(TaskTypeDomainEvent, w.handleEventTask)

	w.running = true
	w.wg.Add(1)

	go func() {
		defer w.wg.Done()
		logger.Infof("[EventWorker] Starting async worker...")
		if err := w.server.Run(w.mux); err != nil {
			logger.Infof("[EventWorker] Server error: %v", err)
		}
	}()

	return nil
}

// Stop gracefully shuts down the worker.
func (w *EventWorker) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.running {
		return
	}

	logger.Infof("[EventWorker] Shutting down...")
	w.server.Shutdown()
	w.running = false
	w.wg.Wait()
	logger.Infof("[EventWorker] Shutdown complete")
}

// handleEventTask dispatches a single queued event.
func (w *EventWorker) handleEventTask(ctx context.Context, t *asynq.Task) error {
	var event DomainEvent
	if err := json.Unmarshal(t.Payload(), &event); err != nil {
		logger.Infof("[EventWorker] Failed to unmarshal event: %v", err)
		return err
	}

	logger.Infof("[EventWorker] Processing event: id=%s, type=%s, org=%d",
		event.ID, event.Type, event.OrganizationID)

	if w.processor == nil {
		logger.Infof("[EventWorker] Warning: no processor set")
		return nil
	}

	return w.processor(ctx, &event)
}

// Global worker instance
var (
	globalEventWorker *EventWorker
	eventWorkerOnce   sync.Once
)

// InitEventWorker initializes the global worker.
func InitEventWorker(cfg *config.RedisConfig) *EventWorker {
	eventWorkerOnce.Do(func() {
		globalEventWorker = NewEventWorker(cfg)
	})
	return globalEventWorker
}
