// Package gatewaytest provides an in-memory payment processor for tests.
package gatewaytest

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sync"

	"crowdfund_backend/internals/features/payment/gateway"
	"crowdfund_backend/internals/helpers/apperr"
)

const (
	EventCompleted = "checkout.completed"
	EventExpired   = "checkout.expired"
)

// Event is the JSON body the fake's webhook accepts.
type Event struct {
	ID        string            `json:"id"`
	Type      string            `json:"type"`
	SessionID string            `json:"session_id"`
	PaymentID string            `json:"payment_id"`
	Metadata  map[string]string `json:"metadata"`
}

type Gateway struct {
	Secret string
	// CreateErr, when set, is returned by CreateSession.
	CreateErr error
	// RetrieveErr, when set, is returned by RetrieveSession.
	RetrieveErr error

	mu       sync.Mutex
	seq      int
	sessions map[string]*gateway.SessionState
	created  []gateway.SessionRequest
}

var _ gateway.Gateway = (*Gateway)(nil)

func New() *Gateway {
	return &Gateway{Secret: "whsec_test", sessions: map[string]*gateway.SessionState{}}
}

func (g *Gateway) Name() string { return "fake" }

func (g *Gateway) CreateSession(_ context.Context, req gateway.SessionRequest) (*gateway.Session, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.created = append(g.created, req)
	if g.CreateErr != nil {
		return nil, apperr.Processor(g.CreateErr, "failed to create payment session")
	}

	g.seq++
	id := fmt.Sprintf("cs_test_%d", g.seq)
	g.sessions[id] = &gateway.SessionState{
		SessionID: id,
		Status:    gateway.StatusPending,
		Metadata:  req.Metadata(),
	}
	return &gateway.Session{ID: id, RedirectURL: "https://pay.example.test/" + id}, nil
}

func (g *Gateway) RetrieveSession(_ context.Context, sessionID string) (*gateway.SessionState, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.RetrieveErr != nil {
		return nil, apperr.Processor(g.RetrieveErr, "failed to retrieve payment session")
	}
	st, ok := g.sessions[sessionID]
	if !ok {
		return nil, apperr.NotFound("payment session not found")
	}
	cp := *st
	return &cp, nil
}

func (g *Gateway) ParseWebhook(payload []byte, signature string) (*gateway.WebhookEvent, error) {
	if !hmac.Equal([]byte(signature), []byte(g.Sign(payload))) {
		return nil, apperr.SignatureInvalid(nil)
	}
	var ev Event
	if err := json.Unmarshal(payload, &ev); err != nil {
		return nil, apperr.Wrap(apperr.KindValidation, err, "malformed event")
	}
	return &gateway.WebhookEvent{
		ID:        ev.ID,
		Type:      ev.Type,
		Completed: ev.Type == EventCompleted,
		SessionID: ev.SessionID,
		PaymentID: ev.PaymentID,
		Metadata:  ev.Metadata,
		Raw:       payload,
	}, nil
}

/* ===================== Test controls ===================== */

// Sign returns the signature ParseWebhook accepts for payload.
func (g *Gateway) Sign(payload []byte) string {
	mac := hmac.New(sha256.New, []byte(g.Secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// Complete marks a session paid under paymentID.
func (g *Gateway) Complete(sessionID, paymentID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if st, ok := g.sessions[sessionID]; ok {
		st.Status = gateway.StatusPaid
		st.PaymentID = paymentID
	}
}

// AddSession registers a session directly, e.g. one with hand-written metadata.
func (g *Gateway) AddSession(st gateway.SessionState) {
	g.mu.Lock()
	defer g.mu.Unlock()
	cp := st
	g.sessions[st.SessionID] = &cp
}

// CompletedEvent builds and signs a completed webhook for a session.
func (g *Gateway) CompletedEvent(eventID, sessionID string) (payload []byte, signature string) {
	g.mu.Lock()
	st := g.sessions[sessionID]
	g.mu.Unlock()

	ev := Event{ID: eventID, Type: EventCompleted, SessionID: sessionID}
	if st != nil {
		ev.PaymentID = st.PaymentID
		ev.Metadata = st.Metadata
	}
	return g.SignedEvent(ev)
}

func (g *Gateway) SignedEvent(ev Event) (payload []byte, signature string) {
	payload, _ = json.Marshal(ev)
	return payload, g.Sign(payload)
}

func (g *Gateway) CreateCalls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.created)
}

func (g *Gateway) LastRequest() gateway.SessionRequest {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.created) == 0 {
		return gateway.SessionRequest{}
	}
	return g.created[len(g.created)-1]
}
