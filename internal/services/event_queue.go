package services

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/canopyhq/canopy/internal/config"
	"github.com/canopyhq/canopy/pkg/logger"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

const TaskTypeDomainEvent = "event:dispatch"

// Domain event types published by the services.
const (
	EventScorecardSubmitted = "scorecard.submitted"
	EventStageChanged       = "application.stage_changed"
	EventAssignmentAdded    = "assignment.added"
	EventAssignmentRemoved  = "assignment.removed"
	EventDailyDigest        = "digest.daily"
)

// DomainEvent is a fire-and-forget notification about a pipeline mutation.
// Publishing never blocks the originating request and delivery failure never
// affects its outcome.
type DomainEvent struct {
	ID             string                 `json:"id"` // delivery/idempotency key
	Type           string                 `json:"type"`
	OrganizationID uint                   `json:"organization_id"`
	JobID          uint                   `json:"job_id,omitempty"`
	ApplicationID  uint                   `json:"application_id,omitempty"`
	ActorID        uint                   `json:"actor_id,omitempty"` // member id
	OccurredAt     time.Time              `json:"occurred_at"`
	Payload        map[string]interface{} `json:"payload,omitempty"`
}

// EventQueue defines the interface for domain event dispatch.
type EventQueue interface {
	// Publish adds an event to the queue
	Publish(event *DomainEvent) error
	// IsAsync returns true if the queue dispatches asynchronously
	IsAsync() bool
	// Close gracefully shuts down the queue
	Close() error
}

// Global event queue instance
var (
	globalEventQueue EventQueue
	eventQueueOnce   sync.Once
)

// InitEventQueue initializes the global event queue based on config.
func InitEventQueue(cfg *config.Config) EventQueue {
	eventQueueOnce.Do(func() {
		if cfg.Redis.Enabled {
			queue, err := NewAsyncEventQueue(&cfg.Redis)
			if err != nil {
				logger.Infof("[EventQueue] Redis unavailable, falling back to sync mode: %v", err)
				globalEventQueue = NewSyncEventQueue()
			} else {
				logger.Infof("[EventQueue] Async queue initialized with Redis at %s", cfg.Redis.Addr)
				globalEventQueue = queue
			}
		} else {
			logger.Infof("[EventQueue] Sync queue initialized (Redis disabled)")
			globalEventQueue = NewSyncEventQueue()
		}
	})
	return globalEventQueue
}

// GetEventQueue returns the global event queue instance.
func GetEventQueue() EventQueue {
	return globalEventQueue
}

// stamp fills in the delivery id and timestamp if the publisher did not.
func stamp(event *DomainEvent) {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now()
	}
}

// AsyncEventQueue implements EventQueue using asynq (Redis-based).
type AsyncEventQueue struct {
	client *asynq.Client
}

// NewAsyncEventQueue creates a new Redis-based async queue.
func NewAsyncEventQueue(cfg *config.RedisConfig) (*AsyncEventQueue, error) {
	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}

	client := asynq.NewClient(redisOpt)

	// Verify the connection before committing to async mode
	inspector := asynq.NewInspector(redisOpt)
	defer inspector.Close()

	if _, err := inspector.Queues(); err != nil {
		client.Close()
		return nil, err
	}

	return &AsyncEventQueue{client: client}, nil
}

// Publish enqueues the event for asynchronous dispatch.
func (q *AsyncEventQueue) Publish(event *DomainEvent) error {
	stamp(event)

	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	t := asynq.NewTask(TaskTypeDomainEvent, payload)
	info, err := q.client.Enqueue(t,
		asynq.Queue("default"),
		asynq.MaxRetry(3),
	)
	if err != nil {
		return err
	}

	logger.Infof("[EventQueue] Event enqueued: id=%s, type=%s, queue=%s", event.ID, event.Type, info.Queue)
	return nil
}

func (q *AsyncEventQueue) IsAsync() bool {
	return true
}

func (q *AsyncEventQueue) Close() error {
	return q.client.Close()
}

// SyncEventQueue implements EventQueue with in-process dispatch (no Redis).
type SyncEventQueue struct {
	processor func(context.Context, *DomainEvent) error
}

func NewSyncEventQueue() *SyncEventQueue {
	return &SyncEventQueue{}
}

// SetProcessor sets the function that dispatches events in sync mode.
func (q *SyncEventQueue) SetProcessor(processor func(context.Context, *DomainEvent) error) {
	q.processor = processor
}

// Publish dispatches the event in a goroutine so the caller never blocks on
// delivery.
func (q *SyncEventQueue) Publish(event *DomainEvent) error {
	stamp(event)

	if q.processor == nil {
		logger.Infof("[EventQueue] Warning: no processor set, event %s dropped", event.Type)
		return nil
	}

	go func() {
		ctx := context.Background()
		if err := q.processor(ctx, event); err != nil {
			logger.Infof("[EventQueue] Event dispatch failed: %v", err)
		}
	}()

	return nil
}

func (q *SyncEventQueue) IsAsync() bool {
	return false
}

func (q *SyncEventQueue) Close() error {
	return nil
}
