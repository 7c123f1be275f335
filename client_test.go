package wirebus

import (
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewClient(t *testing.T) {
	transport := &mockTransport{}
	encoder := &mockEncoder{}

	client := NewClient("test-service", transport, encoder)

	if client.serviceName != "test-service" {
		t.Errorf("Expected service name 'test-service', got '%s'", client.serviceName)
	}

	if client.transport != transport {
		t.Error("Transport not set correctly")
	}

	if client.encoder != encoder {
		t.Error("Encoder not set correctly")
	}

	if client.handlerChans == nil {
		t.Error("handlerChans not initialized")
	}

	if client.queueHandlerChans == nil {
		t.Error("queueHandlerChans not initialized")
	}

	if client.ServiceName() != "test-service" {
		t.Errorf("Expected ServiceName() 'test-service', got '%s'", client.ServiceName())
	}
}

func TestNewClientRegistersHandlers(t *testing.T) {
	var handleService, queueService string
	transport := &mockTransport{
		handleFunc: func(serviceName string, h HandlerFunc) {
			handleService = serviceName
		},
		handleQueueFunc: func(serviceName string, h HandlerFunc) {
			queueService = serviceName
		},
	}

	NewClient("test-service", transport, &mockEncoder{})

	if handleService != "test-service" {
		t.Errorf("Expected Handle for 'test-service', got '%s'", handleService)
	}
	if queueService != "test-service" {
		t.Errorf("Expected HandleQueue for 'test-service', got '%s'", queueService)
	}
}

func TestClientService(t *testing.T) {
	client := NewClient("my-service", &mockTransport{}, &mockEncoder{})

	serviceClient := client.Service("remote-service")

	if serviceClient.client != client {
		t.Error("ServiceClient not linked to client correctly")
	}

	if serviceClient.remoteServiceName != "remote-service" {
		t.Errorf("Expected remote service 'remote-service', got '%s'", serviceClient.remoteServiceName)
	}
}

func TestClientBind(t *testing.T) {
	client := NewClient("test-service", &mockTransport{}, &mockEncoder{})

	binding := client.Bind("test.event")

	if binding.client != client {
		t.Error("Binding not linked to client correctly")
	}

	if binding.subject != "test.event" {
		t.Errorf("Expected event name 'test.event', got '%s'", binding.subject)
	}

	if binding.handlerChan == nil {
		t.Error("Binding handler channel not initialized")
	}

	if _, ok := client.handlerChans["test.event"]; !ok {
		t.Error("Event not registered in client handler map")
	}

	if _, ok := client.handlerChans["test.event"][binding]; !ok {
		t.Error("Binding not registered in handler map")
	}
}

func TestClientClose(t *testing.T) {
	closeCalled := false
	transport := &mockTransport{
		closeFunc: func() error {
			closeCalled = true
			return nil
		},
	}

	client := NewClient("test-service", transport, &mockEncoder{})

	err := client.Close()
	if err != nil {
		t.Fatalf("Close() failed: %v", err)
	}

	if !closeCalled {
		t.Error("Transport Close() not called")
	}
}

func TestClientHandleMessage(t *testing.T) {
	var handler HandlerFunc
	transport := &mockTransport{
		handleFunc: func(serviceName string, h HandlerFunc) {
			handler = h
		},
	}

	client := NewClient("test-service", transport, &mockEncoder{})

	binding := client.Bind("test.event")

	msgReceived := make(chan *Message, 1)
	go func() {
		msg := binding.Next()
		msgReceived <- msg
	}()

	handler("test.event", "source-service", "reply-subject", strings.NewReader("test data"))

	select {
	case msg := <-msgReceived:
		if msg.sourceServiceName != "source-service" {
			t.Errorf("Expected source 'source-service', got '%s'", msg.sourceServiceName)
		}
		if msg.replySubject != "reply-subject" {
			t.Errorf("Expected reply subject 'reply-subject', got '%s'", msg.replySubject)
		}
	case <-time.After(time.Second):
		t.Fatal("Message not received within timeout")
	}
}

func TestClientHandleMessageMultipleBindings(t *testing.T) {
	var handler HandlerFunc
	transport := &mockTransport{
		handleFunc: func(serviceName string, h HandlerFunc) {
			handler = h
		},
	}

	client := NewClient("test-service", transport, &mockEncoder{})

	binding1 := client.Bind("test.event")
	binding2 := client.Bind("test.event")

	received1 := make(chan bool, 1)
	received2 := make(chan bool, 1)

	go func() {
		binding1.Next()
		received1 <- true
	}()

	go func() {
		binding2.Next()
		received2 <- true
	}()

	handler("test.event", "source", "reply", strings.NewReader("data"))

	timeout := time.After(time.Second)
	count := 0
	for count < 2 {
		select {
		case <-received1:
			count++
		case <-received2:
			count++
		case <-timeout:
			t.Fatalf("Expected 2 bindings to receive message, got %d", count)
		}
	}
}

func TestClientHandleMessageNoBindings(t *testing.T) {
	var handler HandlerFunc
	transport := &mockTransport{
		handleFunc: func(serviceName string, h HandlerFunc) {
			handler = h
		},
	}

	NewClient("test-service", transport, &mockEncoder{})

	handler("nonexistent.event", "source", "reply", strings.NewReader("data"))
}

func TestClientHandleMessageFanOutPayload(t *testing.T) {
	var handler HandlerFunc
	transport := &mockTransport{
		handleFunc: func(serviceName string, h HandlerFunc) {
			handler = h
		},
	}

	client := NewClient("test-service", transport, &mockEncoder{})
	binding1 := client.Bind("test.event")
	binding2 := client.Bind("test.event")

	handler("test.event", "source", "", strings.NewReader("payload"))

	for i, b := range []*Binding{binding1, binding2} {
		data, err := io.ReadAll(b.Next())
		if err != nil {
			t.Fatalf("Binding %d read failed: %v", i+1, err)
		}
		if string(data) != "payload" {
			t.Errorf("Expected binding %d to read 'payload', got '%s'", i+1, string(data))
		}
	}
}

func TestClientHandleQueueMessage(t *testing.T) {
	var queueHandler HandlerFunc
	transport := &mockTransport{
		handleQueueFunc: func(serviceName string, h HandlerFunc) {
			queueHandler = h
		},
	}

	client := NewClient("test-service", transport, &mockEncoder{})
	binding1 := client.BindQueue("work")
	binding2 := client.BindQueue("work")
	broadcast := client.Bind("work")

	for i := 0; i < 10; i++ {
		queueHandler("work", "source", "", strings.NewReader("job"))
	}

	total := len(binding1.handlerChan) + len(binding2.handlerChan)
	if total != 10 {
		t.Errorf("Expected 10 queued messages across queue bindings, got %d", total)
	}
	if len(broadcast.handlerChan) != 0 {
		t.Errorf("Expected broadcast binding to receive nothing, got %d", len(broadcast.handlerChan))
	}
}

func TestClientLogsUnroutedMessages(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	SetLogger(zap.New(core))
	defer SetLogger(nil)

	var handler HandlerFunc
	transport := &mockTransport{
		handleFunc: func(serviceName string, h HandlerFunc) {
			handler = h
		},
	}

	NewClient("test-service", transport, &mockEncoder{})
	handler("nobody.listens", "source", "", strings.NewReader("data"))

	entries := logs.FilterField(zap.String("subject", "nobody.listens")).All()
	if len(entries) != 1 {
		t.Fatalf("Expected 1 log entry for unrouted message, got %d", len(entries))
	}
	if entries[0].Level != zapcore.DebugLevel {
		t.Errorf("Expected debug level, got %v", entries[0].Level)
	}
}

func TestClientConcurrency(t *testing.T) {
	var handler HandlerFunc
	transport := &mockTransport{
		handleFunc: func(serviceName string, h HandlerFunc) {
			handler = h
		},
	}

	client := NewClient("test-service", transport, &mockEncoder{})

	var wg sync.WaitGroup
	bindingCount := 10

	for i := 0; i < bindingCount; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			binding := client.Bind("test.event")
			msg := binding.Next()
			if msg == nil {
				t.Error("Received nil message")
			}
			binding.Unbind()
		}(i)
	}

	time.Sleep(100 * time.Millisecond)

	for i := 0; i < bindingCount; i++ {
		handler("test.event", "source", "reply", strings.NewReader("data"))
	}

	done := make(chan bool)
	go func() {
		wg.Wait()
		done <- true
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Test timed out waiting for concurrent operations")
	}
}

func TestClientMultipleServices(t *testing.T) {
	transport1 := &mockTransport{}
	transport2 := &mockTransport{}

	client1 := NewClient("service1", transport1, &mockEncoder{})
	client2 := NewClient("service2", transport2, &mockEncoder{})

	if client1.serviceName == client2.serviceName {
		t.Error("Clients should have different service names")
	}

	_ = client1
	_ = client2
}

func BenchmarkClientBind(b *testing.B) {
	client := NewClient("test-service", &mockTransport{}, &mockEncoder{})

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		binding := client.Bind("test.event")
		binding.Unbind()
	}
}

func BenchmarkClientHandleMessage(b *testing.B) {
	var handler HandlerFunc
	transport := &mockTransport{
		handleFunc: func(serviceName string, h HandlerFunc) {
			handler = h
		},
	}

	client := NewClient("test-service", transport, &mockEncoder{})
	binding := client.Bind("test.event")

	go func() {
		for {
			if binding.Next().Err() != nil {
				return
			}
		}
	}()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		handler("test.event", "source", "reply", strings.NewReader("data"))
	}
}
