package gateway

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"crowdfund_backend/internals/configs"
)

// Metadata keys carried by the processor between checkout and confirmation.
const (
	MetaCampaignID = "campaign_id"
	MetaDonorID    = "donor_id"
	MetaAmount     = "amount"
)

const (
	ProviderMidtrans = "midtrans"
	ProviderStripe   = "stripe"
)

type PaymentStatus string

const (
	StatusPaid    PaymentStatus = "paid"
	StatusPending PaymentStatus = "pending"
	StatusFailed  PaymentStatus = "failed"
)

type SessionRequest struct {
	CampaignID    uuid.UUID
	CampaignTitle string
	DonorID       uuid.UUID
	Amount        int64
	Currency      string
	// SuccessURL/CancelURL may contain {SESSION_ID} and {CAMPAIGN_ID}.
	SuccessURL string
	CancelURL  string
}

func (r SessionRequest) Metadata() map[string]string {
	return map[string]string{
		MetaCampaignID: r.CampaignID.String(),
		MetaDonorID:    r.DonorID.String(),
		MetaAmount:     strconv.FormatInt(r.Amount, 10),
	}
}

// Session is what the donor is redirected to.
type Session struct {
	ID          string
	RedirectURL string
}

// SessionState is the processor's current view of a session.
type SessionState struct {
	SessionID string
	PaymentID string
	Status    PaymentStatus
	Metadata  map[string]string
}

// WebhookEvent is a signature-verified notification, normalized across providers.
type WebhookEvent struct {
	ID        string
	Type      string
	Completed bool
	SessionID string
	PaymentID string
	Metadata  map[string]string
	Raw       []byte
}

// Gateway is the external payment processor.
//
// Errors are *apperr.Error: NotFound for unknown sessions, SignatureInvalid
// for bad webhooks, Processor for everything the processor failed on.
type Gateway interface {
	Name() string
	CreateSession(ctx context.Context, req SessionRequest) (*Session, error)
	RetrieveSession(ctx context.Context, sessionID string) (*SessionState, error)
	ParseWebhook(payload []byte, signature string) (*WebhookEvent, error)
}

// NewFromConfig builds the adapter selected by PAYMENT_GATEWAY.
func NewFromConfig() (Gateway, error) {
	switch configs.PaymentGateway {
	case ProviderMidtrans, "":
		return NewMidtrans(configs.MidtransServerKey, configs.MidtransUseProd), nil
	case ProviderStripe:
		return NewStripe(configs.StripeSecretKey, configs.StripeWebhookSecret), nil
	default:
		return nil, fmt.Errorf("unknown payment gateway %q", configs.PaymentGateway)
	}
}

func fillURL(tmpl, sessionID string, campaignID uuid.UUID) string {
	r := strings.NewReplacer("{SESSION_ID}", sessionID, "{CAMPAIGN_ID}", campaignID.String())
	return r.Replace(tmpl)
}
