package wirebus

import "io"

// HandlerFunc receives one inbound message from a transport. The reader is
// only valid until the handler's message has been fully consumed.
type HandlerFunc func(subject, sourceServiceName, replySubject string, reader io.Reader)

// Transport moves opaque payloads between services.
type Transport interface {
	// Send delivers the payload read from reader to subject on serviceName.
	Send(serviceName, subject, sourceServiceName, replySubject string, reader io.Reader) error

	// Handle registers a handler for messages to serviceName. Every
	// instance of the service receives every message.
	Handle(serviceName string, handler HandlerFunc)

	// HandleQueue registers a handler for load-balanced messages to
	// serviceName. Each message is delivered to a single instance.
	HandleQueue(serviceName string, handler HandlerFunc)

	// Close releases the transport's subscriptions and connections.
	Close() error
}
