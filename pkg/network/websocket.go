package network

import (
	"context"
	"errors"
	"net/http"
	"time"

	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/cbodonnell/wager/pkg/log"
	"github.com/cbodonnell/wager/pkg/messages"
)

const (
	writeTimeout = 5 * time.Second
	// flushTimeout bounds how long a closing client gets to receive
	// messages that were queued before it was closed.
	flushTimeout = 2 * time.Second
)

// ServeWS upgrades the request to a websocket for partyID and serves it
// until either side closes. Losing the party's current connection is
// reported to the registry as a disconnect.
func (n *NetworkManager) ServeWS(w http.ResponseWriter, r *http.Request, partyID string) {
	conn, err := websocket.Accept(w, r, n.acceptOptions)
	if err != nil {
		log.Error("Failed to upgrade to WebSocket for %s: %v", partyID, err)
		return
	}
	conn.SetReadLimit(messages.MessageBufferSize)
	n.connections.Add(1)
	defer n.connections.Done()

	// cancelling a read or write context tears the socket down without a
	// close frame, so only the queue wait is tied to stopWriting
	writeCtx, stopWriting := context.WithCancel(context.Background())
	client := NewClient(partyID, conn, n.queueSize, stopWriting)
	if previous := n.ClientManager.ConnectClient(client); previous != nil {
		log.Info("Party %s reconnected, closing previous connection", partyID)
	}
	n.observer.ConnectionOpened()
	log.Debug("New WebSocket connection for %s from %s", partyID, r.RemoteAddr)

	writerDone := make(chan struct{})
	defer func() {
		client.Close(websocket.StatusNormalClosure, "")
		<-writerDone
		if n.ClientManager.DisconnectClient(client) {
			if n.sessions.Disconnect(partyID) {
				log.Info("Party %s disconnected, session aborted", partyID)
			}
		}
		n.observer.ConnectionClosed()
		log.Trace("Connection closed for %s", partyID)
	}()

	// clients order snapshots by version, so this may race with a newer one
	if session, ok := n.sessions.SessionFor(partyID); ok {
		msg, err := messages.NewMessage(messages.MessageTypeServerSnapshot, messages.ServerSnapshot{Snapshot: session.Snapshot()})
		if err == nil {
			client.Send(msg)
		}
	}

	go func() {
		defer close(writerDone)
		n.writeLoop(writeCtx, client)
	}()
	n.readLoop(context.Background(), client)
}

// readLoop runs until the connection is closed by either side.
func (n *NetworkManager) readLoop(ctx context.Context, client *Client) {
	for {
		message := &messages.Message{}
		if err := wsjson.Read(ctx, client.WSConn, message); err != nil {
			if !client.isClosed() && isUnexpectedClose(err) {
				log.Error("Error reading WebSocket message from %s: %v", client.PartyID, err)
			}
			return
		}

		if err := n.handleClientMessage(ctx, client.PartyID, message); err != nil {
			log.Debug("Rejected %s from %s: %v", message.Type, client.PartyID, err)
			if sendErr := client.Send(messages.NewErrorMessage(err)); sendErr != nil {
				log.Warn("Closing connection of %s: %v", client.PartyID, sendErr)
			}
		}
	}
}

// writeLoop delivers queued messages until the client is closed, then
// flushes whatever is left and closes the connection with the client's
// close status.
func (n *NetworkManager) writeLoop(ctx context.Context, client *Client) {
	defer func() {
		status, reason := client.closeCode()
		client.WSConn.Close(status, reason)
	}()

	for {
		message, err := client.outbound.Dequeue(ctx)
		if err != nil {
			break
		}
		if err := writeMessage(client.WSConn, message, writeTimeout); err != nil {
			log.Error("Failed to write %s message to %s: %v", message.Type, client.PartyID, err)
			client.Close(websocket.StatusInternalError, "write failed")
			return
		}
	}

	deadline := time.Now().Add(flushTimeout)
	for _, message := range client.outbound.ReadAllMessages() {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			log.Warn("Dropping unsent messages to %s after %s", client.PartyID, flushTimeout)
			return
		}
		if err := writeMessage(client.WSConn, message, remaining); err != nil {
			log.Debug("Failed to flush %s message to %s: %v", message.Type, client.PartyID, err)
			return
		}
	}
}

// writeMessage writes a Message to a WebSocket connection
func writeMessage(conn *websocket.Conn, message *messages.Message, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return wsjson.Write(ctx, conn, message)
}

func isUnexpectedClose(err error) bool {
	switch websocket.CloseStatus(err) {
	case websocket.StatusNormalClosure, websocket.StatusGoingAway:
		return false
	}
	var ce websocket.CloseError
	return !errors.As(err, &ce)
}
