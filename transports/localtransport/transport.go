// Package localtransport implements wirebus.Transport inside one process.
//
// Several clients can share one Transport to talk to each other without a
// broker. Payloads are buffered on Send and handlers run on a goroutine
// pool, so Send never waits for a handler to finish.
package localtransport

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"

	"github.com/RobertWHurst/wirebus"
)

var (
	// ErrClosed is returned by Send after Close.
	ErrClosed = errors.New("localtransport: transport closed")

	// ErrNoHandlers is returned by Send when no handler is registered for
	// the target service.
	ErrNoHandlers = errors.New("localtransport: no handlers for service")
)

type Option func(*options)

type options struct {
	poolSize     int
	maxBlocking  int
	nonblocking  bool
	panicHandler func(any)
}

// WithPoolSize limits the number of handlers running at once. A size of
// zero or less means unlimited, which is the default.
func WithPoolSize(size int) Option {
	return func(o *options) { o.poolSize = size }
}

// WithMaxBlocking caps the number of Send calls waiting for a free worker.
// Zero means no cap.
func WithMaxBlocking(n int) Option {
	return func(o *options) { o.maxBlocking = n }
}

// WithNonblocking makes Send fail instead of wait when the pool is
// exhausted.
func WithNonblocking() Option {
	return func(o *options) { o.nonblocking = true }
}

// WithPanicHandler is called with the value of any panic raised by a
// handler. By default panics are logged.
func WithPanicHandler(fn func(any)) Option {
	return func(o *options) { o.panicHandler = fn }
}

type Transport struct {
	pool *ants.Pool

	mu            sync.RWMutex
	handlers      map[string][]wirebus.HandlerFunc
	queueHandlers map[string][]wirebus.HandlerFunc
	closed        bool

	queueNext atomic.Uint64
}

var _ wirebus.Transport = &Transport{}

func New(opts ...Option) (*Transport, error) {
	o := options{
		panicHandler: func(p any) {
			wirebus.Logger().Named("local").Error("handler panicked", zap.Any("panic", p))
		},
	}
	for _, opt := range opts {
		opt(&o)
	}

	pool, err := ants.NewPool(o.poolSize,
		ants.WithNonblocking(o.nonblocking),
		ants.WithMaxBlockingTasks(o.maxBlocking),
		ants.WithPanicHandler(o.panicHandler),
	)
	if err != nil {
		return nil, fmt.Errorf("localtransport: create pool: %w", err)
	}

	return &Transport{
		pool:          pool,
		handlers:      make(map[string][]wirebus.HandlerFunc),
		queueHandlers: make(map[string][]wirebus.HandlerFunc),
	}, nil
}

// Send buffers the payload and schedules every broadcast handler of
// serviceName plus one queue handler, chosen round robin.
func (t *Transport) Send(serviceName, subject, sourceServiceName, replySubject string, reader io.Reader) error {
	t.mu.RLock()
	if t.closed {
		t.mu.RUnlock()
		return ErrClosed
	}
	targets := append([]wirebus.HandlerFunc(nil), t.handlers[serviceName]...)
	if queue := t.queueHandlers[serviceName]; len(queue) > 0 {
		targets = append(targets, queue[t.queueNext.Add(1)%uint64(len(queue))])
	}
	t.mu.RUnlock()

	if len(targets) == 0 {
		return fmt.Errorf("%w %q", ErrNoHandlers, serviceName)
	}

	data, err := io.ReadAll(io.LimitReader(reader, wirebus.MaxDecodeSize))
	if err != nil {
		return err
	}

	for _, handler := range targets {
		err := t.pool.Submit(func() {
			handler(subject, sourceServiceName, replySubject, bytes.NewReader(data))
		})
		if err != nil {
			return fmt.Errorf("localtransport: schedule delivery to %s: %w", serviceName, err)
		}
	}
	return nil
}

func (t *Transport) Handle(serviceName string, handler wirebus.HandlerFunc) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.handlers[serviceName] = append(t.handlers[serviceName], handler)
}

func (t *Transport) HandleQueue(serviceName string, handler wirebus.HandlerFunc) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.queueHandlers[serviceName] = append(t.queueHandlers[serviceName], handler)
}

// Running returns the number of handlers currently executing.
func (t *Transport) Running() int {
	return t.pool.Running()
}

// Close stops accepting messages and releases the pool. Handlers that are
// already running are not interrupted. Close may be called more than once,
// and by every client sharing the transport.
func (t *Transport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return nil
	}
	t.closed = true
	t.handlers = nil
	t.queueHandlers = nil
	t.pool.Release()
	return nil
}
