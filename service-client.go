package wirebus

import (
	"context"
	"math/rand/v2"
	"time"

	"go.uber.org/zap"
)

// ServiceClient sends messages to one remote service. It is created by
// Client.Service.
type ServiceClient struct {
	client            *Client
	remoteServiceName string
}

// Send sends a fire-and-forget message. The value v is encoded with the
// client's encoder unless it is an io.Reader or a Raw, which are sent as
// is.
func (s *ServiceClient) Send(subject string, v any) error {
	data, err := intoDataReader(s.client.encoder, v)
	if err != nil {
		return err
	}
	return s.client.transport.Send(s.remoteServiceName, subject, s.client.serviceName, "", data)
}

// Request sends a message and waits up to DefaultRequestTimeout for the
// reply.
func (s *ServiceClient) Request(subject string, v any) *Message {
	return s.RequestWithTimeout(subject, v, DefaultRequestTimeout)
}

func (s *ServiceClient) RequestWithTimeout(subject string, v any, timeout time.Duration) *Message {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return s.RequestWithCtx(ctx, subject, v)
}

// RequestWithCtx sends a message and waits for the reply until ctx is done.
// Failures are reported through the returned Message's Err.
func (s *ServiceClient) RequestWithCtx(ctx context.Context, subject string, v any) *Message {
	if err := ctx.Err(); err != nil {
		return &Message{err: err}
	}

	data, err := intoDataReader(s.client.encoder, v)
	if err != nil {
		return &Message{err: err}
	}

	// Bind before sending so a fast reply cannot slip past.
	replySubject := generateReplySubject()
	binding := s.client.BindOnce(replySubject)
	defer binding.Unbind()

	err = s.client.transport.Send(s.remoteServiceName, subject, s.client.serviceName, replySubject, data)
	if err != nil {
		return &Message{err: err}
	}

	select {
	case <-ctx.Done():
		Logger().Debug("request abandoned",
			zap.String("service", s.remoteServiceName),
			zap.String("subject", subject),
			zap.Error(ctx.Err()))
		return &Message{err: ctx.Err()}
	case msg := <-binding.handlerChan:
		return msg
	}
}

var replySubjectChars = []rune("abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789-_")

func generateReplySubject() string {
	b := make([]rune, 32)
	for i := range b {
		b[i] = replySubjectChars[rand.N(len(replySubjectChars))]
	}
	return string(b)
}
