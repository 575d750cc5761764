package messages

import (
	"encoding/json"

	"github.com/cbodonnell/wager/pkg/negotiation"
)

const (
	// MessageBufferSize represents the maximum size of a message
	MessageBufferSize = 32 * 1024
)

// MessageType names the payload carried by a Message.
type MessageType string

// Client message types
const (
	MessageTypeClientAddItem     MessageType = "add_item"
	MessageTypeClientRemoveItem  MessageType = "remove_item"
	MessageTypeClientSetCurrency MessageType = "set_currency"
	MessageTypeClientSetArena    MessageType = "set_arena"
	MessageTypeClientSetKit      MessageType = "set_kit"
	MessageTypeClientConfirm     MessageType = "confirm"
	MessageTypeClientWithdraw    MessageType = "withdraw"
	MessageTypeClientCancel      MessageType = "cancel"
)

// Server message types
const (
	MessageTypeServerSnapshot MessageType = "snapshot"
	MessageTypeServerReturned MessageType = "returned"
	MessageTypeServerError    MessageType = "error"
)

// Message is the envelope of every websocket frame.
type Message struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type ClientAddItem struct {
	Item negotiation.Item `json:"item"`
}

type ClientRemoveItem struct {
	Index int `json:"index"`
}

type ClientSetCurrency struct {
	Amount int64 `json:"amount"`
}

type ClientSetArena struct {
	Arena string `json:"arena"`
}

type ClientSetKit struct {
	Kit string `json:"kit"`
}

// ServerSnapshot is the full session state as seen by the receiving party.
type ServerSnapshot struct {
	negotiation.Snapshot
}

// ServerReturned tells a party that its stake was handed back.
type ServerReturned struct {
	Stake negotiation.Stake `json:"stake"`
}

type ServerError struct {
	Code    negotiation.Code `json:"code"`
	Message string           `json:"message"`
}
