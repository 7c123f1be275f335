// Package natstransport implements wirebus.Transport over NATS.
//
// A message is streamed in two steps. The sender publishes a msgpack encoded
// Send envelope to the service subject; every receiver answers with a
// SendAck naming a fresh inbox, then the sender publishes the payload to
// those inboxes as a sequence of Chunk frames ending with an EOF frame.
// Payloads of any size are therefore never held in memory as a whole.
package natstransport

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/vmihailenco/msgpack/v5"
	"go.uber.org/zap"

	"github.com/RobertWHurst/wirebus"
)

var (
	// SendTimeout is the maximum time to wait for a receiver to accept a
	// stream.
	SendTimeout = 5 * time.Second

	// ChunkSize is the payload size of each streamed chunk.
	ChunkSize = 1024 * 16

	// ChunkTimeout is the maximum gap between two chunks of one stream.
	ChunkTimeout = 5 * time.Minute

	// AckWindow is how long Send keeps collecting acknowledgements after
	// the first one arrived.
	AckWindow = 25 * time.Millisecond
)

// ErrClosed is returned by Send after Close.
var ErrClosed = errors.New("natstransport: transport closed")

// Send is the envelope that opens a stream.
type Send struct {
	SourceServiceName string `msgpack:"sourceServiceName"`
	ReplySubject      string `msgpack:"replySubject"`
	Subject           string `msgpack:"subject"`
}

// SendAck tells the sender where to publish the stream's chunks.
type SendAck struct {
	DataSubject string `msgpack:"dataSubject"`
}

// Chunk is one frame of a streamed payload.
type Chunk struct {
	Index int    `msgpack:"index"`
	Data  []byte `msgpack:"data,omitempty"`
	Error string `msgpack:"error,omitempty"`
	IsEOF bool   `msgpack:"isEof,omitempty"`
}

type Transport struct {
	conn     *nats.Conn
	ownsConn bool

	mu            sync.Mutex
	subscriptions []*nats.Subscription
	subscribeErr  error
	closed        bool
}

var _ wirebus.Transport = &Transport{}

// New returns a transport using an existing connection. Close leaves the
// connection open.
func New(conn *nats.Conn) *Transport {
	return &Transport{conn: conn}
}

// Connect dials url and returns a transport that owns the connection. Close
// drains and closes it.
func Connect(url string, opts ...nats.Option) (*Transport, error) {
	opts = append([]nats.Option{
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger().Warn("disconnected", zap.Error(err))
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger().Info("reconnected", zap.String("url", c.ConnectedUrl()))
		}),
	}, opts...)

	conn, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("natstransport: connect %s: %w", url, err)
	}
	return &Transport{conn: conn, ownsConn: true}, nil
}

func logger() *zap.Logger {
	return wirebus.Logger().Named("nats")
}

func (t *Transport) Send(serviceName, subject, sourceServiceName, replySubject string, reader io.Reader) error {
	t.mu.Lock()
	closed, subscribeErr := t.closed, t.subscribeErr
	t.mu.Unlock()
	if closed {
		return ErrClosed
	}
	if subscribeErr != nil {
		return subscribeErr
	}

	sendBuf, err := msgpack.Marshal(&Send{
		SourceServiceName: sourceServiceName,
		ReplySubject:      replySubject,
		Subject:           subject,
	})
	if err != nil {
		return err
	}

	dataSubjects, err := t.openStreams(namespace(serviceName), sendBuf)
	if err != nil {
		return fmt.Errorf("natstransport: open stream to %s: %w", serviceName, err)
	}

	return writeChunks(reader, ChunkSize, func(chunkBuf []byte) error {
		for _, dataSubject := range dataSubjects {
			if err := t.conn.Publish(dataSubject, chunkBuf); err != nil {
				return err
			}
		}
		return nil
	})
}

// openStreams publishes the envelope and collects the data subject of every
// receiver that accepts it: each broadcast subscriber plus one member of the
// queue group. It waits SendTimeout for the first acknowledgement and
// AckWindow for each further one.
func (t *Transport) openStreams(natsSubject string, sendBuf []byte) ([]string, error) {
	inbox := nats.NewInbox()
	acks, err := t.conn.SubscribeSync(inbox)
	if err != nil {
		return nil, err
	}
	defer acks.Unsubscribe()

	if err := t.conn.PublishRequest(natsSubject, inbox, sendBuf); err != nil {
		return nil, err
	}

	var dataSubjects []string
	wait := SendTimeout
	for {
		ackMsg, err := acks.NextMsg(wait)
		if err != nil {
			if errors.Is(err, nats.ErrTimeout) && len(dataSubjects) > 0 {
				return dataSubjects, nil
			}
			if errors.Is(err, nats.ErrTimeout) {
				return nil, nats.ErrNoResponders
			}
			return nil, err
		}

		// The server answers with an empty status message when nobody is
		// subscribed.
		if len(ackMsg.Data) == 0 {
			if len(dataSubjects) == 0 {
				return nil, nats.ErrNoResponders
			}
			continue
		}

		var sendAck SendAck
		if err := msgpack.Unmarshal(ackMsg.Data, &sendAck); err != nil {
			return nil, err
		}
		dataSubjects = append(dataSubjects, sendAck.DataSubject)
		wait = AckWindow
	}
}

// writeChunks reads r to the end and publishes it as Chunk frames. A read
// error is forwarded to the receiver in a final frame before it is
// returned.
func writeChunks(r io.Reader, size int, publish func([]byte) error) error {
	buf := make([]byte, size)
	index := 0
	for {
		n, readErr := r.Read(buf)
		isEOF := errors.Is(readErr, io.EOF)

		chunk := &Chunk{Index: index, Data: buf[:n], IsEOF: isEOF}
		if readErr != nil && !isEOF {
			chunk.Error = readErr.Error()
		}

		chunkBuf, err := msgpack.Marshal(chunk)
		if err != nil {
			return err
		}
		if err := publish(chunkBuf); err != nil {
			return err
		}

		if chunk.Error != "" {
			return readErr
		}
		if isEOF {
			return nil
		}
		index++
	}
}

// readChunks copies Chunk frames from next into pw until the EOF frame. Out
// of order frames, sender errors and timeouts close pw with an error.
func readChunks(next func(time.Duration) (*nats.Msg, error), pw *io.PipeWriter) {
	expected := 0
	for {
		dataMsg, err := next(ChunkTimeout)
		if err != nil {
			pw.CloseWithError(err)
			return
		}

		var chunk Chunk
		if err := msgpack.Unmarshal(dataMsg.Data, &chunk); err != nil {
			pw.CloseWithError(err)
			return
		}
		if chunk.Error != "" {
			pw.CloseWithError(errors.New(chunk.Error))
			return
		}
		if chunk.Index != expected {
			pw.CloseWithError(fmt.Errorf("natstransport: expected chunk %d, got %d", expected, chunk.Index))
			return
		}
		expected++

		if len(chunk.Data) > 0 {
			if _, err := pw.Write(chunk.Data); err != nil {
				pw.CloseWithError(err)
				return
			}
		}
		if chunk.IsEOF {
			pw.Close()
			return
		}
	}
}

type errReader struct {
	err error
}

func (r *errReader) Read(p []byte) (n int, err error) {
	return 0, r.err
}

// receive accepts one stream and hands its payload to handler as a pipe.
func (t *Transport) receive(handler wirebus.HandlerFunc) nats.MsgHandler {
	return func(natsMsg *nats.Msg) {
		var send Send
		if err := msgpack.Unmarshal(natsMsg.Data, &send); err != nil {
			logger().Warn("malformed stream envelope", zap.String("subject", natsMsg.Subject), zap.Error(err))
			return
		}

		fail := func(err error) {
			logger().Warn("failed to accept stream",
				zap.String("subject", send.Subject),
				zap.String("source", send.SourceServiceName),
				zap.Error(err))
			handler(send.Subject, send.SourceServiceName, send.ReplySubject, &errReader{err: err})
		}

		dataSubject := nats.NewInbox()
		ackBuf, err := msgpack.Marshal(&SendAck{DataSubject: dataSubject})
		if err != nil {
			fail(err)
			return
		}

		dataSubscription, err := t.conn.SubscribeSync(dataSubject)
		if err != nil {
			fail(err)
			return
		}

		if err := natsMsg.Respond(ackBuf); err != nil {
			dataSubscription.Unsubscribe()
			fail(err)
			return
		}

		pr, pw := io.Pipe()
		go func() {
			defer dataSubscription.Unsubscribe()
			readChunks(dataSubscription.NextMsg, pw)
		}()

		handler(send.Subject, send.SourceServiceName, send.ReplySubject, pr)
	}
}

func (t *Transport) Handle(serviceName string, handler wirebus.HandlerFunc) {
	t.subscribe(serviceName, false, handler)
}

func (t *Transport) HandleQueue(serviceName string, handler wirebus.HandlerFunc) {
	t.subscribe(serviceName, true, handler)
}

func (t *Transport) subscribe(serviceName string, queue bool, handler wirebus.HandlerFunc) {
	natsSubject := namespace(serviceName)

	var (
		sub *nats.Subscription
		err error
	)
	if queue {
		sub, err = t.conn.QueueSubscribe(natsSubject, natsSubject, t.receive(handler))
	} else {
		sub, err = t.conn.Subscribe(natsSubject, t.receive(handler))
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if err != nil {
		logger().Error("subscribe failed",
			zap.String("subject", natsSubject),
			zap.Bool("queue", queue),
			zap.Error(err))
		t.subscribeErr = err
		return
	}
	t.subscriptions = append(t.subscriptions, sub)
}

// Close unsubscribes every handler. If the transport created the
// connection with Connect, the connection is drained and closed as well.
func (t *Transport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return nil
	}
	t.closed = true

	var errs []error
	for _, sub := range t.subscriptions {
		if err := sub.Unsubscribe(); err != nil && !errors.Is(err, nats.ErrConnectionClosed) {
			errs = append(errs, err)
		}
	}
	t.subscriptions = nil

	if t.ownsConn {
		if err := t.conn.Drain(); err != nil && !errors.Is(err, nats.ErrConnectionClosed) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
