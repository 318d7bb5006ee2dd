package event

import (
	"context"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

// Worker drains the bus and fans events out to type subscribers. It is a
// lifecycle component: Start launches the drain loop, Stop waits for it.
type Worker struct {
	mu            sync.Mutex
	subscriptions map[string][]func(event Queueable)
	cancel        context.CancelFunc
	done          chan struct{}
}

var (
	instance = &Worker{
		subscriptions: map[string][]func(event Queueable){},
	}
	l = log.WithField("context", "event_worker")
)

func GetWorker() *Worker {
	return instance
}

// Subscribe registers a delivery function for an event type. Register
// everything before Start; subscriptions are not meant to change while
// the loop runs.
func Subscribe(eventType string, fn func(event Queueable)) {
	instance.mu.Lock()
	defer instance.mu.Unlock()
	instance.subscriptions[eventType] = append(instance.subscriptions[eventType], fn)
}

func (w *Worker) Start(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.done = make(chan struct{})

	go func() {
		defer close(w.done)
		l.Trace("events runner go")
		for {
			select {
			case <-runCtx.Done():
				l.Info("shutting down event worker by cancelled context")
				return
			default:
				time.Sleep(1 * time.Millisecond)
				event := Bus.DQ()
				if event == nil {
					continue
				}
				if event.Expired() {
					continue
				}

				w.mu.Lock()
				subscribers := w.subscriptions[event.Type()]
				w.mu.Unlock()
				if len(subscribers) == 0 {
					Bus.NQ(event)
					continue
				}
				for _, sub := range subscribers {
					sub(event)
					if event.IsDropped() {
						break
					}
				}

				if event.IsDropped() {
					continue
				}
				if !event.IsProcessed() {
					Bus.NQ(event)
				}
			}
		}
	}()
	return nil
}

func (w *Worker) Stop(ctx context.Context) error {
	if w.cancel == nil {
		return nil
	}
	w.cancel()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-w.done:
		return nil
	}
}
