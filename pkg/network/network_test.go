package network

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/cbodonnell/wager/pkg/messages"
	"github.com/cbodonnell/wager/pkg/negotiation"
)

type testRules struct{}

func (testRules) ValidArena(arena string) bool { return arena == "pit" }

func (testRules) ValidKit(arena, kit string) bool { return arena == "pit" && kit == "iron" }

type testBalances struct{}

func (testBalances) Balance(context.Context, string) (int64, error) { return 100, nil }

type testEngagement struct{}

func (testEngagement) IsEngagedElsewhere(context.Context, string) (bool, error) { return false, nil }

type testSettlement struct{}

func (testSettlement) Settle(context.Context, negotiation.Deal) error { return nil }

func newTestNetwork(t *testing.T) (*negotiation.Registry, *NetworkManager, *httptest.Server) {
	t.Helper()
	var hub *NetworkManager
	registry, err := negotiation.NewRegistry(negotiation.NewRegistryOptions{
		Rules:      testRules{},
		Balances:   testBalances{},
		Engagement: testEngagement{},
		Settlement: testSettlement{},
		Returner: negotiation.StakeReturnerFunc(func(partyID string, stake negotiation.Stake) {
			hub.ReturnStake(partyID, stake)
		}),
	})
	require.NoError(t, err)

	hub, err = NewNetworkManager(NewNetworkManagerOptions{
		Sessions:          registry,
		OutboundQueueSize: 16,
	})
	require.NoError(t, err)
	registry.Subscribe(hub.OnSnapshot)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.ServeWS(w, r, strings.TrimPrefix(r.URL.Path, "/ws/"))
	}))
	t.Cleanup(func() {
		hub.CloseAll()
		server.Close()
	})
	return registry, hub, server
}

func dial(t *testing.T, server *httptest.Server, partyID string) *websocket.Conn {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws/" + partyID
	conn, _, err := websocket.Dial(ctx, url, nil)
	require.NoError(t, err)
	t.Cleanup(func() {
		conn.Close(websocket.StatusNormalClosure, "")
	})
	return conn
}

func send(t *testing.T, conn *websocket.Conn, messageType messages.MessageType, payload interface{}) {
	t.Helper()
	msg, err := messages.NewMessage(messageType, payload)
	require.NoError(t, err)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, wsjson.Write(ctx, conn, msg))
}

// receive reads messages until one of messageType arrives.
func receive(t *testing.T, conn *websocket.Conn, messageType messages.MessageType, payload interface{}) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for {
		msg := &messages.Message{}
		require.NoError(t, wsjson.Read(ctx, conn, msg))
		if msg.Type == messageType {
			require.NoError(t, messages.DecodePayload(msg, payload))
			return
		}
	}
}

func TestNetworkManager_DrivesSession(t *testing.T) {
	registry, _, server := newTestNetwork(t)
	session, err := registry.CreateSession(context.Background(), "alice", "bob")
	require.NoError(t, err)

	alice := dial(t, server, "alice")
	var snapshot messages.ServerSnapshot
	receive(t, alice, messages.MessageTypeServerSnapshot, &snapshot)
	assert.Equal(t, session.ID(), snapshot.SessionID)
	assert.Equal(t, uint64(1), snapshot.Version)

	send(t, alice, messages.MessageTypeClientAddItem, messages.ClientAddItem{
		Item: negotiation.Item{ID: "sword", Quantity: 1},
	})
	receive(t, alice, messages.MessageTypeServerSnapshot, &snapshot)
	assert.Equal(t, []negotiation.Item{{ID: "sword", Quantity: 1}}, snapshot.PartyA.Stake.Items)

	tests := []struct {
		name        string
		messageType messages.MessageType
		payload     interface{}
		wantCode    negotiation.Code
	}{
		{
			name:        "rejected mutation",
			messageType: messages.MessageTypeClientRemoveItem,
			payload:     messages.ClientRemoveItem{Index: 5},
			wantCode:    negotiation.CodeIndexOutOfRange,
		},
		{
			name:        "unknown type",
			messageType: "dance",
			wantCode:    CodeInvalidMessage,
		},
		{
			name:        "missing payload",
			messageType: messages.MessageTypeClientSetKit,
			wantCode:    CodeInvalidMessage,
		},
		{
			name:        "kit before arena",
			messageType: messages.MessageTypeClientSetKit,
			payload:     messages.ClientSetKit{Kit: "iron"},
			wantCode:    negotiation.CodeIncompleteSelection,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			send(t, alice, tt.messageType, tt.payload)
			var serverError messages.ServerError
			receive(t, alice, messages.MessageTypeServerError, &serverError)
			assert.Equal(t, tt.wantCode, serverError.Code)
		})
	}

	require.NoError(t, alice.Close(websocket.StatusNormalClosure, "bye"))
	require.Eventually(t, func() bool {
		return session.Snapshot().State == negotiation.StateAborted
	}, 5*time.Second, 10*time.Millisecond)
	assert.Equal(t, negotiation.ReasonDisconnected, session.Snapshot().Reason)
	assert.Equal(t, 0, registry.Len())
}

func TestNetworkManager_CounterpartSeesAbortAndReturnedStake(t *testing.T) {
	registry, _, server := newTestNetwork(t)
	_, err := registry.CreateSession(context.Background(), "alice", "bob")
	require.NoError(t, err)

	bob := dial(t, server, "bob")
	var snapshot messages.ServerSnapshot
	receive(t, bob, messages.MessageTypeServerSnapshot, &snapshot)
	send(t, bob, messages.MessageTypeClientSetCurrency, messages.ClientSetCurrency{Amount: 40})
	receive(t, bob, messages.MessageTypeServerSnapshot, &snapshot)
	assert.Equal(t, int64(40), snapshot.PartyB.Stake.Currency)

	require.True(t, registry.Disconnect("alice"))

	var returned messages.ServerReturned
	receive(t, bob, messages.MessageTypeServerReturned, &returned)
	assert.Equal(t, negotiation.Stake{Currency: 40}, returned.Stake)
	receive(t, bob, messages.MessageTypeServerSnapshot, &snapshot)
	assert.Equal(t, negotiation.StateAborted, snapshot.State)
	assert.Equal(t, negotiation.ReasonDisconnected, snapshot.Reason)
}

func TestNetworkManager_ReconnectReplacesConnection(t *testing.T) {
	registry, hub, server := newTestNetwork(t)
	session, err := registry.CreateSession(context.Background(), "alice", "bob")
	require.NoError(t, err)

	first := dial(t, server, "alice")
	var snapshot messages.ServerSnapshot
	receive(t, first, messages.MessageTypeServerSnapshot, &snapshot)

	second := dial(t, server, "alice")
	receive(t, second, messages.MessageTypeServerSnapshot, &snapshot)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	var msg messages.Message
	err = wsjson.Read(ctx, first, &msg)
	assert.Equal(t, websocket.StatusPolicyViolation, websocket.CloseStatus(err))

	assert.Equal(t, negotiation.StateEditing, session.Snapshot().State)
	assert.True(t, hub.ClientManager.Exists("alice"))
}

func TestNetworkManager_ShutdownFlushesReturnedStake(t *testing.T) {
	registry, hub, server := newTestNetwork(t)
	_, err := registry.CreateSession(context.Background(), "alice", "bob")
	require.NoError(t, err)

	bob := dial(t, server, "bob")
	var snapshot messages.ServerSnapshot
	receive(t, bob, messages.MessageTypeServerSnapshot, &snapshot)
	send(t, bob, messages.MessageTypeClientSetCurrency, messages.ClientSetCurrency{Amount: 40})
	receive(t, bob, messages.MessageTypeServerSnapshot, &snapshot)
	require.Equal(t, int64(40), snapshot.PartyB.Stake.Currency)

	registry.Shutdown()
	shutdownErr := make(chan error, 1)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		shutdownErr <- hub.Shutdown(ctx)
	}()

	var returned messages.ServerReturned
	receive(t, bob, messages.MessageTypeServerReturned, &returned)
	assert.Equal(t, negotiation.Stake{Currency: 40}, returned.Stake)
	receive(t, bob, messages.MessageTypeServerSnapshot, &snapshot)
	assert.Equal(t, negotiation.StateAborted, snapshot.State)
	assert.Equal(t, negotiation.ReasonShutdown, snapshot.Reason)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	var msg messages.Message
	err = wsjson.Read(ctx, bob, &msg)
	assert.Equal(t, websocket.StatusGoingAway, websocket.CloseStatus(err))

	select {
	case err := <-shutdownErr:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("hub did not shut down")
	}
	assert.False(t, hub.ClientManager.Exists("bob"))
}

func TestClient_OverflowClosesConnection(t *testing.T) {
	hub, err := NewNetworkManager(NewNetworkManagerOptions{Sessions: &negotiation.Registry{}})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	client := NewClient("alice", nil, 1, cancel)
	hub.ClientManager.ConnectClient(client)

	snapshot := negotiation.Snapshot{
		PartyA: negotiation.PartySnapshot{ID: "alice"},
		PartyB: negotiation.PartySnapshot{ID: "bob"},
	}
	hub.OnSnapshot(snapshot)
	assert.NoError(t, ctx.Err())

	hub.OnSnapshot(snapshot)
	assert.ErrorIs(t, ctx.Err(), context.Canceled)
	status, _ := client.closeCode()
	assert.Equal(t, websocket.StatusPolicyViolation, status)
}

func TestNetworkManager_ReturnStakeEnqueues(t *testing.T) {
	hub, err := NewNetworkManager(NewNetworkManagerOptions{Sessions: &negotiation.Registry{}})
	require.NoError(t, err)
	client := NewClient("alice", nil, 4, func() {})
	hub.ClientManager.ConnectClient(client)

	hub.ReturnStake("alice", negotiation.Stake{Currency: 3})
	hub.ReturnStake("carol", negotiation.Stake{Currency: 9})

	queued := client.outbound.ReadAllMessages()
	require.Len(t, queued, 1)
	assert.Equal(t, messages.MessageTypeServerReturned, queued[0].Type)
	var returned messages.ServerReturned
	require.NoError(t, messages.DecodePayload(queued[0], &returned))
	assert.Equal(t, int64(3), returned.Stake.Currency)
}
