// Package notify renders weather notifications produced by the background
// job. Payloads are queued and handed to a Renderer by a single goroutine.
package notify

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/vzahanych/weather-ph/internal/metrics"
	"github.com/vzahanych/weather-ph/internal/models"
	"go.uber.org/zap"
)

var ErrQueueClosed = errors.New("notification queue is closed")

// Notifier accepts a payload for later rendering.
type Notifier interface {
	Enqueue(ctx context.Context, payload models.NotificationPayload) error
}

// Renderer shows one notification to the user.
type Renderer interface {
	Render(ctx context.Context, payload models.NotificationPayload) error
	Name() string
}

// Format returns the notification title and body.
func Format(p models.NotificationPayload) (title, body string) {
	title = fmt.Sprintf("%s: %.1f°C, %s", p.LocationName, p.Temperature, p.Description)
	body = fmt.Sprintf("Humidity %d%% | Wind %.1f km/h | Rain %d%% | Pressure %.0f hPa",
		p.Humidity, p.WindSpeed, p.PrecipitationProbability, p.Pressure)
	return title, body
}

type Queue struct {
	renderer Renderer
	logger   *zap.Logger
	metrics  *metrics.Metrics

	mu     sync.RWMutex
	closed bool
	items  chan models.NotificationPayload
	wg     sync.WaitGroup
}

func NewQueue(renderer Renderer, size int, logger *zap.Logger, m *metrics.Metrics) *Queue {
	if size <= 0 {
		size = 16
	}
	q := &Queue{
		renderer: renderer,
		logger:   logger.With(zap.String("renderer", renderer.Name())),
		metrics:  m,
		items:    make(chan models.NotificationPayload, size),
	}

	q.wg.Add(1)
	go q.work()

	return q
}

// Enqueue blocks while the queue is full, until ctx ends.
func (q *Queue) Enqueue(ctx context.Context, payload models.NotificationPayload) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return ErrQueueClosed
	}

	select {
	case q.items <- payload:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("failed to enqueue notification: %w", ctx.Err())
	}
}

// Close stops accepting payloads and waits until queued ones are rendered.
func (q *Queue) Close(ctx context.Context) error {
	q.mu.Lock()
	if !q.closed {
		q.closed = true
		close(q.items)
	}
	q.mu.Unlock()

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (q *Queue) work() {
	defer q.wg.Done()

	for p := range q.items {
		if err := q.renderer.Render(context.Background(), p); err != nil {
			q.logger.Error("Failed to render notification",
				zap.String("location", p.LocationName),
				zap.Error(err))
			q.metrics.RecordNotification(q.renderer.Name(), "failed")
			continue
		}
		q.metrics.RecordNotification(q.renderer.Name(), "sent")
	}
}
