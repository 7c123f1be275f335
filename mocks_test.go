package wirebus

import (
	"bytes"
	"io"
	"reflect"
	"sync"
	"testing"

	"github.com/RobertWHurst/wirebus/codec"
)

type mockEncoder struct {
	encodeFunc func(v any) ([]byte, error)
	decodeFunc func(data []byte, v any) error
}

func (m *mockEncoder) Encode(v any) ([]byte, error) {
	if m.encodeFunc != nil {
		return m.encodeFunc(v)
	}
	return []byte("encoded"), nil
}

func (m *mockEncoder) Decode(data []byte, v any) error {
	if m.decodeFunc != nil {
		return m.decodeFunc(data, v)
	}
	return nil
}

type mockTransport struct {
	sendFunc        func(serviceName, subject, sourceServiceName, replySubject string, reader io.Reader) error
	handleFunc      func(serviceName string, handler HandlerFunc)
	handleQueueFunc func(serviceName string, handler HandlerFunc)
	closeFunc       func() error
}

func (m *mockTransport) Send(serviceName, subject, sourceServiceName, replySubject string, reader io.Reader) error {
	if m.sendFunc != nil {
		return m.sendFunc(serviceName, subject, sourceServiceName, replySubject, reader)
	}
	return nil
}

func (m *mockTransport) Handle(serviceName string, handler HandlerFunc) {
	if m.handleFunc != nil {
		m.handleFunc(serviceName, handler)
	}
}

func (m *mockTransport) HandleQueue(serviceName string, handler HandlerFunc) {
	if m.handleQueueFunc != nil {
		m.handleQueueFunc(serviceName, handler)
	}
}

func (m *mockTransport) Close() error {
	if m.closeFunc != nil {
		return m.closeFunc()
	}
	return nil
}

// typedEncoder carries values in the binary codec format, deriving the
// shape from the Go type on both sides.
type typedEncoder struct{}

func (typedEncoder) Encode(v any) ([]byte, error) {
	p, err := codec.SerializeType(v, reflect.TypeOf(v))
	return p.Bytes(), err
}

func (typedEncoder) Decode(data []byte, v any) error {
	dst := reflect.ValueOf(v).Elem()
	out, err := codec.DeserializeType(codec.NewPayload(data), dst.Type())
	if err != nil {
		return err
	}
	dst.Set(reflect.ValueOf(out))
	return nil
}

type sentMessage struct {
	serviceName, subject, source, replySubject string
	payload                                    []byte
}

// harness is a client wired to a mock transport. It captures the inbound
// handlers the client registers and records every outbound message.
type harness struct {
	client    *Client
	transport *mockTransport
	broadcast HandlerFunc
	queue     HandlerFunc

	mu      sync.Mutex
	sent    []sentMessage
	sendErr error
	onSend  func(sentMessage)
}

func newHarness(serviceName string) *harness {
	h := &harness{}
	h.transport = &mockTransport{
		handleFunc:      func(_ string, handler HandlerFunc) { h.broadcast = handler },
		handleQueueFunc: func(_ string, handler HandlerFunc) { h.queue = handler },
		sendFunc: func(serviceName, subject, sourceServiceName, replySubject string, reader io.Reader) error {
			payload, err := io.ReadAll(reader)
			if err != nil {
				return err
			}
			msg := sentMessage{serviceName, subject, sourceServiceName, replySubject, payload}

			h.mu.Lock()
			h.sent = append(h.sent, msg)
			sendErr, onSend := h.sendErr, h.onSend
			h.mu.Unlock()

			if sendErr != nil {
				return sendErr
			}
			if onSend != nil {
				onSend(msg)
			}
			return nil
		},
	}
	h.client = NewClient(serviceName, h.transport, typedEncoder{})
	return h
}

// publish hands an encoded value to the client as the transport would.
func (h *harness) publish(t testing.TB, subject, source, replySubject string, v any) {
	t.Helper()
	h.broadcast(subject, source, replySubject, readerOf(t, v))
}

func (h *harness) publishQueue(t testing.TB, subject, source string, v any) {
	t.Helper()
	h.queue(subject, source, "", readerOf(t, v))
}

func (h *harness) lastSent(t testing.TB) sentMessage {
	t.Helper()
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.sent) == 0 {
		t.Fatal("Expected a message to be sent, got none")
	}
	return h.sent[len(h.sent)-1]
}

func (h *harness) boundSubjects() int {
	h.client.handlerChansMu.RLock()
	defer h.client.handlerChansMu.RUnlock()
	return len(h.client.handlerChans)
}

func encodeValue(t testing.TB, v any) []byte {
	t.Helper()
	data, err := typedEncoder{}.Encode(v)
	if err != nil {
		t.Fatalf("Encode(%T) failed: %v", v, err)
	}
	return data
}

func readerOf(t testing.TB, v any) io.Reader {
	t.Helper()
	return bytes.NewReader(encodeValue(t, v))
}
