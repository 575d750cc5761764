package network

import (
	"context"
	"fmt"
	"sync"

	"nhooyr.io/websocket"

	"github.com/cbodonnell/wager/pkg/log"
	"github.com/cbodonnell/wager/pkg/messages"
	"github.com/cbodonnell/wager/pkg/negotiation"
)

const DefaultOutboundQueueSize = 64

// CodeInvalidMessage is reported for frames that cannot be decoded.
const CodeInvalidMessage negotiation.Code = "invalid_message"

// Sessions is the part of the registry the network layer drives.
type Sessions interface {
	SessionFor(partyID string) (*negotiation.Session, bool)
	Disconnect(partyID string) bool
}

// ConnectionObserver is told about connections opening and closing.
type ConnectionObserver interface {
	ConnectionOpened()
	ConnectionClosed()
}

type nopConnectionObserver struct{}

func (nopConnectionObserver) ConnectionOpened() {}
func (nopConnectionObserver) ConnectionClosed() {}

// NetworkManager connects parties over websockets to their sessions. It
// is the registry's listener and stake returner, so everything it does on
// those paths only enqueues.
type NetworkManager struct {
	ClientManager *ClientManager
	sessions      Sessions
	observer      ConnectionObserver
	queueSize     int
	acceptOptions *websocket.AcceptOptions
	connections   sync.WaitGroup
}

type NewNetworkManagerOptions struct {
	ClientManager *ClientManager
	Sessions      Sessions
	// Observer is optional.
	Observer ConnectionObserver
	// OutboundQueueSize is the number of messages buffered per connection.
	OutboundQueueSize int
	// OriginPatterns lists the allowed cross-origin hosts. Empty allows only same-origin requests.
	OriginPatterns []string
}

func NewNetworkManager(opts NewNetworkManagerOptions) (*NetworkManager, error) {
	if opts.Sessions == nil {
		return nil, fmt.Errorf("sessions are required")
	}
	n := &NetworkManager{
		ClientManager: opts.ClientManager,
		sessions:      opts.Sessions,
		observer:      opts.Observer,
		queueSize:     opts.OutboundQueueSize,
		acceptOptions: &websocket.AcceptOptions{
			OriginPatterns: opts.OriginPatterns,
		},
	}
	if n.ClientManager == nil {
		n.ClientManager = NewClientManager()
	}
	if n.observer == nil {
		n.observer = nopConnectionObserver{}
	}
	if n.queueSize <= 0 {
		n.queueSize = DefaultOutboundQueueSize
	}
	return n, nil
}

// OnSnapshot sends snapshot to both parties of the session.
func (n *NetworkManager) OnSnapshot(snapshot negotiation.Snapshot) {
	msg, err := messages.NewMessage(messages.MessageTypeServerSnapshot, messages.ServerSnapshot{Snapshot: snapshot})
	if err != nil {
		log.Error("Failed to serialize snapshot of session %s: %v", snapshot.SessionID, err)
		return
	}
	for _, partyID := range []string{snapshot.PartyA.ID, snapshot.PartyB.ID} {
		n.sendToParty(partyID, msg)
	}
}

// ReturnStake tells the party that its stake was handed back.
func (n *NetworkManager) ReturnStake(partyID string, stake negotiation.Stake) {
	log.Info("Returning stake of %d items and %d to %s", len(stake.Items), stake.Currency, partyID)
	msg, err := messages.NewMessage(messages.MessageTypeServerReturned, messages.ServerReturned{Stake: stake})
	if err != nil {
		log.Error("Failed to serialize returned stake for %s: %v", partyID, err)
		return
	}
	n.sendToParty(partyID, msg)
}

func (n *NetworkManager) sendToParty(partyID string, msg *messages.Message) {
	client, ok := n.ClientManager.GetClient(partyID)
	if !ok {
		log.Trace("Party %s is not connected, dropping %s message", partyID, msg.Type)
		return
	}
	if err := client.Send(msg); err != nil {
		log.Warn("Closing connection of %s: %v", partyID, err)
	}
}

// CloseAll closes every connection without signalling disconnects.
// Messages already queued, such as returned stakes, are still flushed.
func (n *NetworkManager) CloseAll() {
	for _, client := range n.ClientManager.GetClients() {
		client.Close(websocket.StatusGoingAway, "server shutting down")
	}
}

// Shutdown closes every connection and waits for them to finish flushing
// or for ctx to be done.
func (n *NetworkManager) Shutdown(ctx context.Context) error {
	n.CloseAll()
	done := make(chan struct{})
	go func() {
		n.connections.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for websocket connections: %w", ctx.Err())
	}
}

// handleClientMessage applies one intent and returns the error to report
// back to the sender, if any.
func (n *NetworkManager) handleClientMessage(ctx context.Context, partyID string, message *messages.Message) error {
	session, ok := n.sessions.SessionFor(partyID)
	if !ok {
		return fmt.Errorf("party %s has no live session: %w", partyID, negotiation.ErrNotFound)
	}

	switch message.Type {
	case messages.MessageTypeClientAddItem:
		payload := &messages.ClientAddItem{}
		if err := messages.DecodePayload(message, payload); err != nil {
			return invalidPayload(err)
		}
		return session.AddItem(partyID, payload.Item)
	case messages.MessageTypeClientRemoveItem:
		payload := &messages.ClientRemoveItem{}
		if err := messages.DecodePayload(message, payload); err != nil {
			return invalidPayload(err)
		}
		_, err := session.RemoveItem(partyID, payload.Index)
		return err
	case messages.MessageTypeClientSetCurrency:
		payload := &messages.ClientSetCurrency{}
		if err := messages.DecodePayload(message, payload); err != nil {
			return invalidPayload(err)
		}
		return session.SetCurrency(ctx, partyID, payload.Amount)
	case messages.MessageTypeClientSetArena:
		payload := &messages.ClientSetArena{}
		if err := messages.DecodePayload(message, payload); err != nil {
			return invalidPayload(err)
		}
		return session.SetArena(partyID, payload.Arena)
	case messages.MessageTypeClientSetKit:
		payload := &messages.ClientSetKit{}
		if err := messages.DecodePayload(message, payload); err != nil {
			return invalidPayload(err)
		}
		return session.SetKit(partyID, payload.Kit)
	case messages.MessageTypeClientConfirm:
		return session.Confirm(partyID)
	case messages.MessageTypeClientWithdraw:
		return session.WithdrawConfirm(partyID)
	case messages.MessageTypeClientCancel:
		return session.Cancel(partyID)
	default:
		return &negotiation.Error{
			Code:    CodeInvalidMessage,
			Message: fmt.Sprintf("unknown message type %q", message.Type),
		}
	}
}

func invalidPayload(err error) error {
	return &negotiation.Error{
		Code:    CodeInvalidMessage,
		Message: "invalid payload",
		Cause:   err,
	}
}
