package wirebus

import (
	"bytes"
	"io"
	"math/rand/v2"
	"sync"
	"time"

	"go.uber.org/zap"
)

var (
	// MaxDecodeSize caps the number of payload bytes Message.Into reads.
	MaxDecodeSize = int64(1024 * 1024 * 5) // 5 MB

	// BindingBufferSize is the number of messages a binding queues before
	// delivery blocks the transport.
	BindingBufferSize = 100

	// DefaultRequestTimeout is used by ServiceClient.Request.
	DefaultRequestTimeout = 30 * time.Second
)

// Client is a service's connection to the bus. It routes inbound messages
// to bindings by subject and sends outbound messages through its transport.
type Client struct {
	serviceName string
	transport   Transport
	encoder     Encoder

	handlerChansMu sync.RWMutex
	handlerChans   map[string]map[*Binding]chan *Message

	queueHandlerChansMu sync.RWMutex
	queueHandlerChans   map[string]map[*Binding]chan *Message
}

func NewClient(serviceName string, transport Transport, encoder Encoder) *Client {
	c := &Client{
		serviceName:       serviceName,
		transport:         transport,
		encoder:           encoder,
		handlerChans:      make(map[string]map[*Binding]chan *Message),
		queueHandlerChans: make(map[string]map[*Binding]chan *Message),
	}
	transport.Handle(serviceName, c.handleMessage)
	transport.HandleQueue(serviceName, c.handleQueueMessage)
	return c
}

// ServiceName returns the name this client sends as.
func (c *Client) ServiceName() string {
	return c.serviceName
}

// Service returns a client for sending to remoteServiceName.
func (c *Client) Service(remoteServiceName string) *ServiceClient {
	return &ServiceClient{
		client:            c,
		remoteServiceName: remoteServiceName,
	}
}

// Bind subscribes to every message sent to subject on this service.
func (c *Client) Bind(subject string) *Binding {
	return newBinding(c, BindTypeNormal, subject)
}

// BindOnce subscribes to the next message sent to subject and releases the
// binding after it has been received.
func (c *Client) BindOnce(subject string) *Binding {
	return newBinding(c, BindTypeOnce, subject)
}

// BindQueue subscribes to a share of the messages sent to subject. Each
// message goes to one queue binding across all instances of the service.
func (c *Client) BindQueue(subject string) *Binding {
	return newBinding(c, BindTypeQueue, subject)
}

func (c *Client) Close() error {
	return c.transport.Close()
}

func (c *Client) newMessage(subject, sourceServiceName, replySubject string, reader io.Reader) *Message {
	return &Message{
		subject:           subject,
		sourceServiceName: sourceServiceName,
		replySubject:      replySubject,
		data:              reader,
		client:            c,
	}
}

func (c *Client) handleMessage(subject, sourceServiceName, replySubject string, reader io.Reader) {
	c.handlerChansMu.RLock()
	bindings := make([]*Binding, 0, len(c.handlerChans[subject]))
	for b := range c.handlerChans[subject] {
		bindings = append(bindings, b)
	}
	c.handlerChansMu.RUnlock()

	if len(bindings) == 0 {
		Logger().Debug("no binding for message",
			zap.String("service", c.serviceName),
			zap.String("subject", subject),
			zap.String("source", sourceServiceName))
		discard(reader)
		return
	}

	if len(bindings) == 1 {
		bindings[0].deliver(c.newMessage(subject, sourceServiceName, replySubject, reader))
		return
	}

	// Fan-out needs the payload buffered so that each binding can read it.
	data, err := io.ReadAll(io.LimitReader(reader, MaxDecodeSize))
	for _, b := range bindings {
		msg := c.newMessage(subject, sourceServiceName, replySubject, bytes.NewReader(data))
		msg.err = err
		b.deliver(msg)
	}
}

func (c *Client) handleQueueMessage(subject, sourceServiceName, replySubject string, reader io.Reader) {
	c.queueHandlerChansMu.RLock()
	bindings := make([]*Binding, 0, len(c.queueHandlerChans[subject]))
	for b := range c.queueHandlerChans[subject] {
		bindings = append(bindings, b)
	}
	c.queueHandlerChansMu.RUnlock()

	if len(bindings) == 0 {
		Logger().Debug("no queue binding for message",
			zap.String("service", c.serviceName),
			zap.String("subject", subject),
			zap.String("source", sourceServiceName))
		discard(reader)
		return
	}

	b := bindings[rand.N(len(bindings))]
	b.deliver(c.newMessage(subject, sourceServiceName, replySubject, reader))
}

// discard releases a payload nobody will read so that a streaming
// transport can stop feeding it.
func discard(reader io.Reader) {
	if closer, ok := reader.(io.Closer); ok {
		closer.Close()
	}
}

func (c *Client) register(b *Binding) {
	mu, chans := &c.handlerChansMu, c.handlerChans
	if b.bindType == BindTypeQueue {
		mu, chans = &c.queueHandlerChansMu, c.queueHandlerChans
	}

	mu.Lock()
	defer mu.Unlock()
	if _, ok := chans[b.subject]; !ok {
		chans[b.subject] = make(map[*Binding]chan *Message)
	}
	chans[b.subject][b] = b.handlerChan
}

func (c *Client) unregister(b *Binding) {
	mu, chans := &c.handlerChansMu, c.handlerChans
	if b.bindType == BindTypeQueue {
		mu, chans = &c.queueHandlerChansMu, c.queueHandlerChans
	}

	mu.Lock()
	defer mu.Unlock()
	delete(chans[b.subject], b)
	if len(chans[b.subject]) == 0 {
		delete(chans, b.subject)
	}
}
