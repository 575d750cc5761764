package messages

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/cbodonnell/wager/pkg/negotiation"
)

// NewMessage wraps payload in an envelope of type t. A nil payload
// produces an envelope without one.
func NewMessage(t MessageType, payload interface{}) (*Message, error) {
	m := &Message{Type: t}
	if payload == nil {
		return m, nil
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize %s payload: %w", t, err)
	}
	m.Payload = b
	return m, nil
}

// DecodePayload unmarshals the payload of m into v. Unknown fields are rejected.
func DecodePayload(m *Message, v interface{}) error {
	if len(m.Payload) == 0 {
		return fmt.Errorf("%s message has no payload", m.Type)
	}
	if err := strictUnmarshal(m.Payload, v); err != nil {
		return fmt.Errorf("failed to deserialize %s payload: %w", m.Type, err)
	}
	return nil
}

// NewErrorMessage builds the error envelope for err. Errors without a
// negotiation code are reported as internal.
func NewErrorMessage(err error) *Message {
	code := negotiation.CodeOf(err)
	if code == "" {
		code = negotiation.CodeInternal
	}
	m, marshalErr := NewMessage(MessageTypeServerError, ServerError{
		Code:    code,
		Message: err.Error(),
	})
	if marshalErr != nil {
		// ServerError always marshals
		panic(marshalErr)
	}
	return m
}

func strictUnmarshal(data []byte, v interface{}) error {
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()
	return decoder.Decode(v)
}
