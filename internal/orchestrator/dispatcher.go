package orchestrator

import (
	"sync"

	"go.uber.org/zap"
)

// Dispatcher runs completion callbacks away from the worker goroutine.
type Dispatcher interface {
	Post(fn func())
}

// Looper is a Dispatcher backed by one goroutine, so callbacks never run
// concurrently with each other. Panics in callbacks are logged and the
// looper keeps going.
type Looper struct {
	mu     sync.RWMutex
	posts  chan func()
	done   chan struct{}
	closed bool
	logger *zap.Logger
}

func NewLooper(logger *zap.Logger) *Looper {
	l := &Looper{
		posts:  make(chan func(), 64),
		done:   make(chan struct{}),
		logger: logger,
	}
	go l.loop()
	return l
}

// Post queues fn. After Close, fn runs on the caller's goroutine so that no
// callback is ever lost.
func (l *Looper) Post(fn func()) {
	l.mu.RLock()
	if l.closed {
		l.mu.RUnlock()
		l.invoke(fn)
		return
	}
	l.posts <- fn
	l.mu.RUnlock()
}

// Close runs every queued callback and stops the looper goroutine.
func (l *Looper) Close() {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		<-l.done
		return
	}
	l.closed = true
	close(l.posts)
	l.mu.Unlock()

	<-l.done
}

func (l *Looper) loop() {
	defer close(l.done)
	for fn := range l.posts {
		l.invoke(fn)
	}
}

func (l *Looper) invoke(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("Callback panicked", zap.Any("recovered", r), zap.Stack("stack"))
		}
	}()
	fn()
}
