package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"

	"crowdfund_backend/internals/helpers/apperr"
)

const (
	stripeEventCompleted          = "checkout.session.completed"
	stripeEventAsyncPaymentPassed = "checkout.session.async_payment_succeeded"
)

/* =========================================================
   Stripe Checkout
========================================================= */

type Stripe struct {
	api           *client.API
	webhookSecret string
}

func NewStripe(secretKey, webhookSecret string) *Stripe {
	return NewStripeWithBackends(secretKey, webhookSecret, nil)
}

// NewStripeWithBackends lets callers point the client at another API host.
func NewStripeWithBackends(secretKey, webhookSecret string, backends *stripe.Backends) *Stripe {
	api := &client.API{}
	api.Init(secretKey, backends)
	return &Stripe{api: api, webhookSecret: webhookSecret}
}

func (s *Stripe) Name() string { return ProviderStripe }

// CreateSession amounts are in major units; Stripe wants minor units.
func (s *Stripe) CreateSession(ctx context.Context, req SessionRequest) (*Session, error) {
	currency := strings.ToLower(req.Currency)
	if currency == "" {
		currency = "usd"
	}

	params := &stripe.CheckoutSessionParams{
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		LineItems: []*stripe.CheckoutSessionLineItemParams{{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency: stripe.String(currency),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(truncate("Donation: "+req.CampaignTitle, 50)),
				},
				UnitAmount: stripe.Int64(req.Amount * 100),
			},
			Quantity: stripe.Int64(1),
		}},
		SuccessURL: stripe.String(fillURL(req.SuccessURL, "{CHECKOUT_SESSION_ID}", req.CampaignID)),
		CancelURL:  stripe.String(fillURL(req.CancelURL, "", req.CampaignID)),
	}
	for k, v := range req.Metadata() {
		params.AddMetadata(k, v)
	}
	params.Context = ctx

	cs, err := s.api.CheckoutSessions.New(params)
	if err != nil {
		return nil, apperr.Processor(err, "failed to create payment session")
	}
	return &Session{ID: cs.ID, RedirectURL: cs.URL}, nil
}

func (s *Stripe) RetrieveSession(ctx context.Context, sessionID string) (*SessionState, error) {
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx

	cs, err := s.api.CheckoutSessions.Get(sessionID, params)
	if err != nil {
		var se *stripe.Error
		if errors.As(err, &se) &&
			(se.HTTPStatusCode == http.StatusNotFound || se.Code == stripe.ErrorCodeResourceMissing) {
			return nil, apperr.NotFound("payment session not found")
		}
		return nil, apperr.Processor(err, "failed to retrieve payment session")
	}
	return stripeState(cs), nil
}

func stripeState(cs *stripe.CheckoutSession) *SessionState {
	st := &SessionState{
		SessionID: cs.ID,
		Status:    StatusPending,
		Metadata:  cs.Metadata,
	}
	switch cs.PaymentStatus {
	case stripe.CheckoutSessionPaymentStatusPaid:
		st.Status = StatusPaid
	case stripe.CheckoutSessionPaymentStatusUnpaid:
		if cs.Status == stripe.CheckoutSessionStatusExpired {
			st.Status = StatusFailed
		}
	}
	if cs.PaymentIntent != nil {
		st.PaymentID = cs.PaymentIntent.ID
	}
	return st
}

// ParseWebhook verifies the Stripe-Signature header against the endpoint secret.
func (s *Stripe) ParseWebhook(payload []byte, signature string) (*WebhookEvent, error) {
	ev, err := webhook.ConstructEventWithOptions(payload, signature, s.webhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return nil, apperr.SignatureInvalid(err)
	}

	out := &WebhookEvent{
		ID:   ev.ID,
		Type: string(ev.Type),
		Raw:  payload,
	}
	if out.Type != stripeEventCompleted && out.Type != stripeEventAsyncPaymentPassed {
		return out, nil
	}

	var cs stripe.CheckoutSession
	if ev.Data == nil {
		return nil, apperr.Wrap(apperr.KindValidation, errors.New("missing data"), "malformed %s event", out.Type)
	}
	if err := json.Unmarshal(ev.Data.Raw, &cs); err != nil {
		return nil, apperr.Wrap(apperr.KindValidation, err, "malformed %s event", out.Type)
	}
	st := stripeState(&cs)
	out.SessionID = st.SessionID
	out.PaymentID = st.PaymentID
	out.Metadata = st.Metadata
	out.Completed = st.Status == StatusPaid
	return out, nil
}

// SignatureHeader is the header the Stripe adapter expects the signature in.
const SignatureHeader = "Stripe-Signature"
