package events

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/Ridwan414/shobdotori/internal/logger"
)

// Config holds event bus configuration.
type Config struct {
	BufferSize int
	Workers    int
}

// DefaultConfig returns the default event bus configuration.
func DefaultConfig() Config {
	return Config{BufferSize: 1000, Workers: 2}
}

// EventBus delivers events to consumers from a buffered channel.
// Publishing never blocks: a full buffer drops the event.
type EventBus struct {
	eventChan chan ProgressEvent
	workers   int

	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	running atomic.Bool
	closing sync.Once

	mu        sync.RWMutex
	consumers []Consumer
	drops     DropObserver

	received  atomic.Uint64
	processed atomic.Uint64
	dropped   atomic.Uint64
	failures  atomic.Uint64

	log logger.Logger
}

// New creates and starts an event bus.
func New(cfg Config) *EventBus {
	def := DefaultConfig()
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = def.BufferSize
	}
	if cfg.Workers <= 0 {
		cfg.Workers = def.Workers
	}

	ctx, cancel := context.WithCancel(context.Background())
	eb := &EventBus{
		eventChan: make(chan ProgressEvent, cfg.BufferSize),
		workers:   cfg.Workers,
		ctx:       ctx,
		cancel:    cancel,
		log:       logger.Global().Module("events"),
	}

	eb.running.Store(true)
	for i := range eb.workers {
		eb.wg.Go(func() { eb.worker(i) })
	}

	eb.log.Debug("event bus started",
		logger.Int("buffer_size", cfg.BufferSize),
		logger.Int("workers", cfg.Workers))
	return eb
}

// RegisterConsumer adds a consumer. Names must be unique.
func (eb *EventBus) RegisterConsumer(consumer Consumer) error {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	for _, existing := range eb.consumers {
		if existing.Name() == consumer.Name() {
			return fmt.Errorf("consumer %s already registered", consumer.Name())
		}
	}
	eb.consumers = append(eb.consumers, consumer)

	eb.log.Info("registered event consumer", logger.String("consumer", consumer.Name()))
	return nil
}

// SetDropObserver installs an observer for dropped events.
func (eb *EventBus) SetDropObserver(o DropObserver) {
	eb.mu.Lock()
	defer eb.mu.Unlock()
	eb.drops = o
}

// TryPublish queues event and reports whether it was accepted.
// A nil bus, a stopped bus and a bus without consumers drop silently.
func (eb *EventBus) TryPublish(event ProgressEvent) bool {
	if eb == nil || !eb.running.Load() {
		return false
	}

	eb.mu.RLock()
	hasConsumers := len(eb.consumers) > 0
	drops := eb.drops
	eb.mu.RUnlock()
	if !hasConsumers {
		return false
	}

	select {
	case eb.eventChan <- event:
		eb.received.Add(1)
		return true
	default:
		eb.dropped.Add(1)
		if drops != nil {
			drops.EventDropped(string(event.Type))
		}
		eb.log.Debug("event dropped due to full buffer",
			logger.String("type", string(event.Type)),
			logger.String("dialect", event.Dialect))
		return false
	}
}

func (eb *EventBus) worker(id int) {
	log := eb.log.With(logger.Int("worker_id", id))
	for {
		select {
		case <-eb.ctx.Done():
			// Drain what is already queued so shutdown does not lose accepted events
			for {
				select {
				case event := <-eb.eventChan:
					eb.processEvent(event, log)
				default:
					return
				}
			}
		case event := <-eb.eventChan:
			eb.processEvent(event, log)
		}
	}
}

// processEvent sends event to every consumer, isolating panics.
func (eb *EventBus) processEvent(event ProgressEvent, log logger.Logger) {
	eb.mu.RLock()
	consumers := make([]Consumer, len(eb.consumers))
	copy(consumers, eb.consumers)
	eb.mu.RUnlock()

	for _, consumer := range consumers {
		func() {
			defer func() {
				if r := recover(); r != nil {
					eb.failures.Add(1)
					log.Error("consumer panicked",
						logger.String("consumer", consumer.Name()),
						logger.Any("panic", r),
						logger.String("type", string(event.Type)))
				}
			}()

			if err := consumer.ProcessEvent(event); err != nil {
				eb.failures.Add(1)
				log.Warn("consumer error",
					logger.String("consumer", consumer.Name()),
					logger.String("type", string(event.Type)),
					logger.Error(err))
				return
			}
			eb.processed.Add(1)
		}()
	}
}

// Shutdown stops accepting events, lets workers drain the queue and waits
// for them until ctx is done.
func (eb *EventBus) Shutdown(ctx context.Context) error {
	if eb == nil {
		return nil
	}
	eb.closing.Do(func() {
		eb.running.Store(false)
		eb.cancel()
	})

	done := make(chan struct{})
	go func() {
		eb.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		eb.log.Debug("event bus shutdown complete")
		return nil
	case <-ctx.Done():
		eb.log.Warn("event bus shutdown timeout exceeded")
		return fmt.Errorf("event bus shutdown: %w", ctx.Err())
	}
}

// Stats returns current statistics.
func (eb *EventBus) Stats() Stats {
	if eb == nil {
		return Stats{}
	}
	return Stats{
		EventsReceived:  eb.received.Load(),
		EventsProcessed: eb.processed.Load(),
		EventsDropped:   eb.dropped.Load(),
		ConsumerErrors:  eb.failures.Load(),
	}
}
