package wirebus

import (
	"errors"
	"sync/atomic"
)

// ErrBindingClosed is returned by operations on a binding that has been
// released.
var ErrBindingClosed = errors.New("wirebus: binding closed")

// BindType specifies whether a binding receives all messages (broadcast)
// or only a share of messages (load-balanced).
type BindType int

const (
	// BindTypeNormal means all instances receive each message.
	BindTypeNormal BindType = iota
	// BindTypeOnce is like BindTypeNormal but releases itself after one message.
	BindTypeOnce
	// BindTypeQueue means only one instance receives each message.
	BindTypeQueue
)

func (t BindType) String() string {
	switch t {
	case BindTypeNormal:
		return "normal"
	case BindTypeOnce:
		return "once"
	case BindTypeQueue:
		return "queue"
	default:
		return "unknown"
	}
}

// Binding is a subscription to messages on one subject. It is released
// exactly once, either by Unbind or, for BindTypeOnce, after its first
// message. Messages are consumed with Next or To.
type Binding struct {
	client      *Client
	bindType    BindType
	subject     string
	handlerChan chan *Message
	done        chan struct{}
	released    atomic.Bool
}

func newBinding(client *Client, bindType BindType, subject string) *Binding {
	b := &Binding{
		client:      client,
		bindType:    bindType,
		subject:     subject,
		handlerChan: make(chan *Message, BindingBufferSize),
		done:        make(chan struct{}),
	}
	client.register(b)
	return b
}

// Subject returns the subject the binding was created for.
func (b *Binding) Subject() string { return b.subject }

// Type returns the binding's delivery mode.
func (b *Binding) Type() BindType { return b.bindType }

// IsBound reports whether the binding has not been released yet.
func (b *Binding) IsBound() bool {
	return !b.released.Load()
}

// Next blocks until the next message arrives and returns it. After the
// binding is released, Next returns a Message carrying ErrBindingClosed.
func (b *Binding) Next() *Message {
	if !b.IsBound() {
		return &Message{err: ErrBindingClosed}
	}

	select {
	case msg := <-b.handlerChan:
		if b.bindType == BindTypeOnce {
			b.Unbind()
		}
		return msg
	case <-b.done:
		return &Message{err: ErrBindingClosed}
	}
}

// To spawns a goroutine that calls handler for each message until the
// binding is released. Calling To on a released binding does nothing.
func (b *Binding) To(handler func(msg *Message)) *Binding {
	if !b.IsBound() {
		return b
	}

	go func() {
		for {
			select {
			case msg := <-b.handlerChan:
				if b.bindType == BindTypeOnce {
					b.Unbind()
					handler(msg)
					return
				}
				handler(msg)
			case <-b.done:
				return
			}
		}
	}()
	return b
}

// Unbind releases the binding. Only the first call has an effect; later
// calls return ErrBindingClosed.
func (b *Binding) Unbind() error {
	if !b.released.CompareAndSwap(false, true) {
		return ErrBindingClosed
	}
	b.client.unregister(b)
	close(b.done)
	return nil
}

// deliver queues msg for the binding. It blocks while the buffer is full
// and gives up once the binding is released.
func (b *Binding) deliver(msg *Message) {
	select {
	case <-b.done:
		return
	default:
	}

	select {
	case b.handlerChan <- msg:
	case <-b.done:
	}
}
