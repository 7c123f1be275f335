package wirebus

import (
	"bytes"
	"errors"
	"io"
)

// ErrNoReplySubject is returned by Reply when the sender did not ask for a
// reply.
var ErrNoReplySubject = errors.New("wirebus: message has no reply subject")

// Message is an inbound message, or the outcome of a request. A Message
// produced by a failed operation carries the error and returns it from
// every method.
type Message struct {
	subject           string
	sourceServiceName string
	replySubject      string
	data              io.Reader
	client            *Client
	err               error
}

// Err returns the error the message carries, if any.
func (m *Message) Err() error {
	return m.err
}

// Source returns the name of the service that sent the message.
func (m *Message) Source() string {
	return m.sourceServiceName
}

// Subject returns the subject the message was sent to.
func (m *Message) Subject() string {
	return m.subject
}

// Into reads up to MaxDecodeSize bytes of payload and decodes them into v
// with the client's encoder.
func (m *Message) Into(v any) error {
	if m.err != nil {
		return m.err
	}
	data, err := io.ReadAll(io.LimitReader(m.data, MaxDecodeSize))
	if err != nil {
		return err
	}
	return m.client.encoder.Decode(data, v)
}

// Read streams the raw payload.
func (m *Message) Read(p []byte) (n int, err error) {
	if m.err != nil {
		return 0, m.err
	}
	return m.data.Read(p)
}

// Reply sends v back to the sender on the message's reply subject.
func (m *Message) Reply(v any) error {
	if m.err != nil {
		return m.err
	}
	if m.replySubject == "" {
		return ErrNoReplySubject
	}

	data, err := intoDataReader(m.client.encoder, v)
	if err != nil {
		return err
	}

	return m.client.transport.Send(m.sourceServiceName, m.replySubject, m.client.serviceName, "", data)
}

// Raw is a payload that is sent as is, bypassing the client's encoder.
// Strings and byte slices are values like any other and go through the
// encoder; wrap them in Raw to send their bytes unchanged.
type Raw []byte

// intoDataReader passes readers and Raw payloads through and encodes
// everything else.
func intoDataReader(encoder Encoder, v any) (io.Reader, error) {
	switch dv := v.(type) {
	case io.Reader:
		return dv, nil
	case Raw:
		return bytes.NewReader(dv), nil
	}

	encoded, err := encoder.Encode(v)
	if err != nil {
		return nil, err
	}
	return bytes.NewReader(encoded), nil
}
