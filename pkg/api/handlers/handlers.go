package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/cbodonnell/wager/pkg/log"
	"github.com/cbodonnell/wager/pkg/messages"
	"github.com/cbodonnell/wager/pkg/negotiation"
)

// Sessions is the part of the registry exposed over HTTP.
type Sessions interface {
	CreateSession(ctx context.Context, idA, idB string) (*negotiation.Session, error)
	SessionFor(partyID string) (*negotiation.Session, bool)
	Disconnect(partyID string) bool
}

// EngagementReleaser frees a party once its contest is over.
type EngagementReleaser interface {
	Release(ctx context.Context, id string) error
}

// Wallets reads and seeds party balances.
type Wallets interface {
	Balance(ctx context.Context, partyID string) (int64, error)
	Credit(ctx context.Context, partyID string, amount int64) error
}

// Arenas lists the selectable arenas and kits.
type Arenas interface {
	Arenas() []string
	Kits(arena string) []string
}

// WebSocketServer serves a party's websocket connection.
type WebSocketServer interface {
	ServeWS(w http.ResponseWriter, r *http.Request, partyID string)
}

type CreateSessionRequest struct {
	PartyA string `json:"party_a"`
	PartyB string `json:"party_b"`
}

type CreditRequest struct {
	Amount int64 `json:"amount"`
}

type WalletResponse struct {
	PartyID string `json:"party_id"`
	Balance int64  `json:"balance"`
}

type ArenaResponse struct {
	Name string   `json:"name"`
	Kits []string `json:"kits"`
}

func HandleCreateSession(sessions Sessions) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateSessionRequest
		if err := decodeBody(w, r, &req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		session, err := sessions.CreateSession(r.Context(), req.PartyA, req.PartyB)
		if err != nil {
			log.Debug("failed to create session for %s and %s: %v", req.PartyA, req.PartyB, err)
			writeError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, session.Snapshot())
	}
}

func HandleGetSession(sessions Sessions) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		partyID := mux.Vars(r)["partyID"]
		session, ok := sessions.SessionFor(partyID)
		if !ok {
			writeError(w, negotiation.ErrNotFound)
			return
		}
		writeJSON(w, http.StatusOK, session.Snapshot())
	}
}

func HandleDisconnect(sessions Sessions) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		partyID := mux.Vars(r)["partyID"]
		if !sessions.Disconnect(partyID) {
			writeError(w, negotiation.ErrNotFound)
			return
		}
		log.Info("Party %s disconnected over HTTP", partyID)
		w.WriteHeader(http.StatusNoContent)
	}
}

func HandleReleaseEngagement(releaser EngagementReleaser) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		partyID := mux.Vars(r)["partyID"]
		if err := releaser.Release(r.Context(), partyID); err != nil {
			log.Error("failed to release %s: %v", partyID, err)
			http.Error(w, "Failed to release engagement", http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func HandleGetWallet(wallets Wallets) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		partyID := mux.Vars(r)["partyID"]
		balance, err := wallets.Balance(r.Context(), partyID)
		if err != nil {
			log.Error("failed to read balance of %s: %v", partyID, err)
			http.Error(w, "Failed to read balance", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, WalletResponse{PartyID: partyID, Balance: balance})
	}
}

func HandleCreditWallet(wallets Wallets) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		partyID := mux.Vars(r)["partyID"]
		var req CreditRequest
		if err := decodeBody(w, r, &req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if req.Amount <= 0 {
			http.Error(w, "Amount must be positive", http.StatusBadRequest)
			return
		}

		if err := wallets.Credit(r.Context(), partyID, req.Amount); err != nil {
			log.Error("failed to credit %s: %v", partyID, err)
			http.Error(w, "Failed to credit wallet", http.StatusInternalServerError)
			return
		}
		balance, err := wallets.Balance(r.Context(), partyID)
		if err != nil {
			log.Error("failed to read balance of %s: %v", partyID, err)
			http.Error(w, "Failed to read balance", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, WalletResponse{PartyID: partyID, Balance: balance})
	}
}

func HandleListArenas(arenas Arenas) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		names := arenas.Arenas()
		resp := make([]ArenaResponse, 0, len(names))
		for _, name := range names {
			resp = append(resp, ArenaResponse{Name: name, Kits: arenas.Kits(name)})
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func HandleWebSocket(server WebSocketServer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		server.ServeWS(w, r, mux.Vars(r)["partyID"])
	}
}

// StatusFor maps a negotiation error to an HTTP status code.
func StatusFor(err error) int {
	switch {
	case negotiation.CodeOf(err) == negotiation.CodeNotFound:
		return http.StatusNotFound
	case negotiation.CodeOf(err) == negotiation.CodeSelfPairing, negotiation.IsValidation(err):
		return http.StatusBadRequest
	case negotiation.IsState(err) && negotiation.CodeOf(err) != negotiation.CodeInternal:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	code := negotiation.CodeOf(err)
	if code == "" {
		code = negotiation.CodeInternal
	}
	writeJSON(w, StatusFor(err), messages.ServerError{Code: code, Message: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error("failed to encode response: %v", err)
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) error {
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, messages.MessageBufferSize))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}
