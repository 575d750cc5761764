package network

import (
	"context"
	"sync"

	"nhooyr.io/websocket"

	"github.com/cbodonnell/wager/pkg/messages"
	"github.com/cbodonnell/wager/pkg/queue"
)

// Client represents a connected party
type Client struct {
	PartyID  string
	WSConn   *websocket.Conn
	outbound queue.Queue[*messages.Message]
	cancel   context.CancelFunc

	lock        sync.Mutex
	closed      bool
	closeStatus websocket.StatusCode
	closeReason string
}

// NewClient creates a client whose outbound queue holds queueSize messages.
// cancel stops the client's write loop, which then flushes what is still
// queued and closes the connection with the recorded status.
func NewClient(partyID string, conn *websocket.Conn, queueSize int, cancel context.CancelFunc) *Client {
	return &Client{
		PartyID:     partyID,
		WSConn:      conn,
		outbound:    queue.NewInMemoryQueue[*messages.Message](queueSize),
		cancel:      cancel,
		closeStatus: websocket.StatusNormalClosure,
	}
}

// Send queues msg for delivery without blocking. A client that cannot keep
// up is closed.
func (c *Client) Send(msg *messages.Message) error {
	if err := c.outbound.Enqueue(msg); err != nil {
		c.Close(websocket.StatusPolicyViolation, "outbound queue overflow")
		return err
	}
	return nil
}

// Close stops the client. Only the first status and reason are kept. The
// connection itself is closed by the write loop once pending messages are
// flushed.
func (c *Client) Close(status websocket.StatusCode, reason string) {
	c.lock.Lock()
	defer c.lock.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	c.closeStatus = status
	c.closeReason = reason
	c.cancel()
}

func (c *Client) isClosed() bool {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.closed
}

// closeCode returns the status the connection should be closed with.
func (c *Client) closeCode() (websocket.StatusCode, string) {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.closeStatus, c.closeReason
}

// ClientManager manages connected clients, at most one per party
type ClientManager struct {
	clients     map[string]*Client
	clientsLock sync.RWMutex
}

// NewClientManager creates a new ClientManager
func NewClientManager() *ClientManager {
	return &ClientManager{
		clients: make(map[string]*Client),
	}
}

// ConnectClient registers client for its party. A previous connection of
// the same party is closed and returned.
func (cm *ClientManager) ConnectClient(client *Client) *Client {
	cm.clientsLock.Lock()
	previous := cm.clients[client.PartyID]
	cm.clients[client.PartyID] = client
	cm.clientsLock.Unlock()

	if previous != nil {
		previous.Close(websocket.StatusPolicyViolation, "replaced by a new connection")
	}
	return previous
}

// DisconnectClient removes client if it is still the party's current
// connection and reports whether it was.
func (cm *ClientManager) DisconnectClient(client *Client) bool {
	cm.clientsLock.Lock()
	defer cm.clientsLock.Unlock()

	if current, ok := cm.clients[client.PartyID]; ok && current == client {
		delete(cm.clients, client.PartyID)
		return true
	}
	return false
}

// GetClient returns the party's current connection.
func (cm *ClientManager) GetClient(partyID string) (*Client, bool) {
	cm.clientsLock.RLock()
	defer cm.clientsLock.RUnlock()
	client, ok := cm.clients[partyID]
	return client, ok
}

// GetClients returns all connected clients.
func (cm *ClientManager) GetClients() []*Client {
	cm.clientsLock.RLock()
	defer cm.clientsLock.RUnlock()
	clients := make([]*Client, 0, len(cm.clients))
	for _, client := range cm.clients {
		clients = append(clients, client)
	}
	return clients
}

func (cm *ClientManager) Exists(partyID string) bool {
	cm.clientsLock.RLock()
	defer cm.clientsLock.RUnlock()
	_, ok := cm.clients[partyID]
	return ok
}
