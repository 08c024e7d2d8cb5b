package service

import (
	"context"
	"log"

	"github.com/google/uuid"

	"crowdfund_backend/internals/features/payment/gateway"
	"crowdfund_backend/internals/helpers/apperr"
)

type CheckoutResult struct {
	SessionID   string `json:"session_id"`
	RedirectURL string `json:"redirect_url"`
}

// CreateCheckoutSession asks the processor for a hosted payment page.
// Nothing is written locally; the ledger entry appears only once the
// payment is confirmed.
//
// Only the status gate applies here. An approved campaign past its deadline
// or already at its goal still gets a session; the listing hides those.
func (s *DonationService) CreateCheckoutSession(ctx context.Context, campaignID, donorID uuid.UUID, amount int64) (*CheckoutResult, error) {
	if amount < s.Settings.MinAmount {
		return nil, apperr.Validation("amount must be at least %d", s.Settings.MinAmount)
	}

	c, err := findCampaign(s.DB.WithContext(ctx), campaignID)
	if err != nil {
		return nil, err
	}
	if !c.AcceptsDonations() {
		return nil, apperr.StateConflict("campaign is %s and does not accept donations", c.CampaignStatus)
	}

	sess, err := s.Gateway.CreateSession(ctx, gateway.SessionRequest{
		CampaignID:    c.CampaignID,
		CampaignTitle: c.CampaignTitle,
		DonorID:       donorID,
		Amount:        amount,
		Currency:      s.Settings.Currency,
		SuccessURL:    s.Settings.SuccessURL,
		CancelURL:     s.Settings.CancelURL,
	})
	if err != nil {
		log.Printf("[ERROR] checkout session for campaign %s: %v", campaignID, err)
		return nil, asProcessor(err, "payment processor unavailable")
	}

	log.Printf("[INFO] checkout session %s: campaign=%s donor=%s amount=%d", sess.ID, campaignID, donorID, amount)
	return &CheckoutResult{SessionID: sess.ID, RedirectURL: sess.RedirectURL}, nil
}
