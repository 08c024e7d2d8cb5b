package gateway

import (
	"context"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
	midtrans "github.com/midtrans/midtrans-go"
	"github.com/midtrans/midtrans-go/coreapi"
	"github.com/midtrans/midtrans-go/snap"

	"crowdfund_backend/internals/helpers/apperr"
)

/* =========================================================
   Midtrans (Snap for checkout, Core API for status)
========================================================= */

type Midtrans struct {
	serverKey string
	snap      snap.Client
	core      coreapi.Client
	// BaseURL of the Core API; defaults to the environment's.
	BaseURL string
}

func NewMidtrans(serverKey string, useProduction bool) *Midtrans {
	env := midtrans.Sandbox
	if useProduction {
		env = midtrans.Production
	}
	m := &Midtrans{serverKey: serverKey}
	m.snap.New(serverKey, env)
	m.core.New(serverKey, env)
	m.BaseURL = env.BaseUrl()
	return m
}

func (m *Midtrans) Name() string { return ProviderMidtrans }

// CreateSession opens a Snap transaction. The order id doubles as the
// session id; the metadata rides in custom_field1..3.
func (m *Midtrans) CreateSession(_ context.Context, req SessionRequest) (*Session, error) {
	orderID := "DON-" + uuid.NewString()
	meta := req.Metadata()

	sreq := &snap.Request{
		TransactionDetails: midtrans.TransactionDetails{
			OrderID:  orderID,
			GrossAmt: req.Amount,
		},
		Items: &[]midtrans.ItemDetails{{
			ID:       req.CampaignID.String(),
			Price:    req.Amount,
			Qty:      1,
			Name:     truncate("Donation: "+req.CampaignTitle, 50),
			Category: "donation",
		}},
		CustomField1: meta[MetaCampaignID],
		CustomField2: meta[MetaDonorID],
		CustomField3: meta[MetaAmount],
	}
	if req.SuccessURL != "" {
		sreq.Callbacks = &snap.Callbacks{Finish: fillURL(req.SuccessURL, orderID, req.CampaignID)}
	}

	resp, merr := m.snap.CreateTransaction(sreq)
	if merr != nil {
		return nil, apperr.Processor(merr, "failed to create payment session")
	}
	return &Session{ID: orderID, RedirectURL: resp.RedirectURL}, nil
}

type midtransStatus struct {
	StatusCode        string `json:"status_code"`
	StatusMessage     string `json:"status_message"`
	TransactionID     string `json:"transaction_id"`
	TransactionStatus string `json:"transaction_status"`
	FraudStatus       string `json:"fraud_status"`
	OrderID           string `json:"order_id"`
	GrossAmount       string `json:"gross_amount"`
	SignatureKey      string `json:"signature_key"`
	CustomField1      string `json:"custom_field1"`
	CustomField2      string `json:"custom_field2"`
	CustomField3      string `json:"custom_field3"`
}

func (n midtransStatus) paymentStatus() PaymentStatus {
	switch n.TransactionStatus {
	case "settlement":
		return StatusPaid
	case "capture":
		if n.FraudStatus == "" || n.FraudStatus == "accept" {
			return StatusPaid
		}
		return StatusPending
	case "deny", "cancel", "expire", "failure":
		return StatusFailed
	default:
		return StatusPending
	}
}

func (n midtransStatus) metadata() map[string]string {
	return map[string]string{
		MetaCampaignID: n.CustomField1,
		MetaDonorID:    n.CustomField2,
		MetaAmount:     n.CustomField3,
	}
}

// RetrieveSession reads /v2/{order_id}/status. The SDK's typed response
// drops the custom fields, so the body is decoded here.
func (m *Midtrans) RetrieveSession(_ context.Context, sessionID string) (*SessionState, error) {
	var st midtransStatus
	url := fmt.Sprintf("%s/v2/%s/status", strings.TrimRight(m.BaseURL, "/"), sessionID)
	if merr := m.core.HttpClient.Call(http.MethodGet, url, &m.serverKey, m.core.Options, nil, &st); merr != nil {
		if merr.StatusCode == http.StatusNotFound {
			return nil, apperr.NotFound("payment session not found")
		}
		return nil, apperr.Processor(merr, "failed to retrieve payment session")
	}
	if st.StatusCode == "404" {
		return nil, apperr.NotFound("payment session not found")
	}

	return &SessionState{
		SessionID: sessionID,
		PaymentID: st.TransactionID,
		Status:    st.paymentStatus(),
		Metadata:  st.metadata(),
	}, nil
}

// ParseWebhook checks SHA512(order_id + status_code + gross_amount + server_key).
// Midtrans sends the signature inside the body; signature is used only when
// the body has none.
func (m *Midtrans) ParseWebhook(payload []byte, signature string) (*WebhookEvent, error) {
	var n midtransStatus
	if err := json.Unmarshal(payload, &n); err != nil {
		// nothing to authenticate; the caller logs and acknowledges it
		return nil, apperr.Wrap(apperr.KindValidation, err, "webhook payload is not JSON")
	}

	got := strings.ToLower(strings.TrimSpace(n.SignatureKey))
	if got == "" {
		got = strings.ToLower(strings.TrimSpace(signature))
	}
	want := m.Sign(n.OrderID, n.StatusCode, n.GrossAmount)
	if got == "" || subtle.ConstantTimeCompare([]byte(got), []byte(want)) != 1 {
		return nil, apperr.SignatureInvalid(nil)
	}

	return &WebhookEvent{
		ID:        n.TransactionID + ":" + n.TransactionStatus,
		Type:      n.TransactionStatus,
		Completed: n.paymentStatus() == StatusPaid,
		SessionID: n.OrderID,
		PaymentID: n.TransactionID,
		Metadata:  n.metadata(),
		Raw:       payload,
	}, nil
}

func (m *Midtrans) Sign(orderID, statusCode, grossAmount string) string {
	h := sha512.Sum512([]byte(orderID + statusCode + grossAmount + m.serverKey))
	return hex.EncodeToString(h[:])
}

func truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	return s[:n]
}
