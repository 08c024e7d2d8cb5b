package service

import (
	"context"
	"log"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	campaignModel "crowdfund_backend/internals/features/campaigns/campaigns/model"
	"crowdfund_backend/internals/features/donations/donations/model"
	"crowdfund_backend/internals/features/donations/donations/repository"
	"crowdfund_backend/internals/features/payment/gateway"
	eventModel "crowdfund_backend/internals/features/payment/gateway_events/model"
	eventService "crowdfund_backend/internals/features/payment/gateway_events/service"
	"crowdfund_backend/internals/helpers/apperr"
)

type ReconcileResult struct {
	Donation *model.DonationModel
	Campaign *campaignModel.CampaignModel
	Outcome  repository.Outcome
}

/* =========================================================
   Record-and-increment
========================================================= */

// Reconcile turns one confirmed payment into exactly one ledger entry and
// one increment of the campaign total, however often it is called for the
// same payment id. Insert and increment commit together; a repeat
// observation returns the stored entry and changes nothing.
//
// The processor has already taken the money, so the caller's cancellation
// or deadline does not stop it once started.
func (s *DonationService) Reconcile(ctx context.Context, paymentID string, meta DonationMetadata) (*ReconcileResult, error) {
	ctx = context.WithoutCancel(ctx)
	paymentID = strings.TrimSpace(paymentID)
	if paymentID == "" {
		return nil, apperr.Validation("external payment id is required")
	}

	out := &ReconcileResult{}
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := findCampaign(tx, meta.CampaignID); err != nil {
			return err
		}

		r := repository.InsertOrGet(tx, &model.DonationModel{
			DonationCampaignID:        meta.CampaignID,
			DonationDonorID:           meta.DonorID,
			DonationAmount:            meta.Amount,
			DonationStatus:            model.DonationStatusSuccessful,
			DonationExternalPaymentID: paymentID,
			DonationGateway:           s.Gateway.Name(),
		})
		switch r.Outcome {
		case repository.Inserted:
			n, err := repository.IncrementRaised(tx, meta.CampaignID, meta.Amount)
			if err != nil {
				return apperr.Internal(err, "failed to update campaign total")
			}
			if n == 0 {
				return apperr.NotFound("campaign not found")
			}
		case repository.AlreadyExists:
		default:
			return apperr.Internal(r.Err, "failed to record donation")
		}
		out.Donation = r.Entry
		out.Outcome = r.Outcome

		c, err := findCampaign(tx, r.Entry.DonationCampaignID)
		if err != nil {
			return err
		}
		out.Campaign = c
		return nil
	})
	if err != nil {
		return nil, err
	}

	if out.Outcome == repository.Inserted {
		log.Printf("[INFO] donation %s recorded: payment=%s campaign=%s amount=%d raised=%d",
			out.Donation.DonationID, paymentID, out.Campaign.CampaignID, out.Donation.DonationAmount, out.Campaign.CampaignRaisedAmount)
	} else {
		log.Printf("[INFO] payment %s already recorded as donation %s", paymentID, out.Donation.DonationID)
	}
	return out, nil
}

/* =========================================================
   Client verification path
========================================================= */

// VerifyCheckoutSession resolves a session id the donor came back with.
// Processor failures fail closed: nothing is recorded.
func (s *DonationService) VerifyCheckoutSession(ctx context.Context, sessionID string) (*ReconcileResult, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, apperr.Validation("session_id is required")
	}

	st, err := s.Gateway.RetrieveSession(ctx, sessionID)
	if err != nil {
		return nil, asProcessor(err, "payment processor unavailable")
	}
	if st.Status != gateway.StatusPaid || st.PaymentID == "" {
		return nil, apperr.PaymentIncomplete("payment not yet confirmed")
	}

	meta, err := ParseMetadata(st.Metadata)
	if err != nil {
		return nil, err
	}
	return s.Reconcile(ctx, st.PaymentID, meta)
}

/* =========================================================
   Webhook path
========================================================= */

type WebhookAck struct {
	Status  string     `json:"status"`
	EventID *uuid.UUID `json:"event_id,omitempty"`
}

const (
	AckQueued    = "queued"
	AckIgnored   = "ignored"
	AckDuplicate = "duplicate"
	AckError     = "error"
)

// HandlePaymentWebhook verifies and logs the event, then hands completed
// payments to the dispatcher. Only a bad signature is returned as an error;
// everything else is logged and acknowledged so the processor stops retrying.
func (s *DonationService) HandlePaymentWebhook(ctx context.Context, payload []byte, signature string) (*WebhookAck, error) {
	ev, err := s.Gateway.ParseWebhook(payload, signature)
	if err != nil {
		if apperr.IsKind(err, apperr.KindSignatureInvalid) {
			log.Printf("[WARN] %s webhook rejected: %v", s.Gateway.Name(), err)
			return nil, err
		}
		log.Printf("[ERROR] %s webhook unreadable: %v", s.Gateway.Name(), err)
		return &WebhookAck{Status: AckError}, nil
	}

	row, created, err := s.Events.Record(ctx, s.Gateway.Name(), ev)
	if err != nil {
		log.Printf("[ERROR] %s webhook %s not logged: %v", s.Gateway.Name(), ev.ID, err)
		if ev.Completed {
			return s.applyUnlogged(ctx, ev), nil
		}
		return &WebhookAck{Status: AckError}, nil
	}
	ack := &WebhookAck{EventID: &row.GatewayEventID}

	switch {
	case row.GatewayEventStatus == eventModel.GatewayEventStatusIgnored:
		ack.Status = AckIgnored
		return ack, nil
	case !created && row.Done():
		ack.Status = AckDuplicate
		return ack, nil
	}

	if err := s.Dispatch.Dispatch(ctx, row.GatewayEventID); err != nil {
		// stays received/failed; the replay pass applies it
		log.Printf("[WARN] gateway event %s not applied now: %v", row.GatewayEventID, err)
	}
	ack.Status = AckQueued
	return ack, nil
}

// applyUnlogged is the fallback when the event log is unavailable.
func (s *DonationService) applyUnlogged(ctx context.Context, ev *gateway.WebhookEvent) *WebhookAck {
	meta, err := ParseMetadata(ev.Metadata)
	if err == nil {
		_, err = s.Reconcile(ctx, ev.PaymentID, meta)
	}
	if err != nil {
		log.Printf("[ERROR] %s webhook %s could not be applied: %v", s.Gateway.Name(), ev.ID, err)
		return &WebhookAck{Status: AckError}
	}
	return &WebhookAck{Status: AckQueued}
}

// applyEvent is the event log's handler: a logged completed event is
// reconciled exactly like a verified session.
func (s *DonationService) applyEvent(ctx context.Context, ev *eventModel.PaymentGatewayEventModel) (*uuid.UUID, error) {
	if ev.GatewayEventPaymentID == nil || *ev.GatewayEventPaymentID == "" {
		return nil, apperr.MetadataParse("event carries no payment id")
	}
	meta, err := ParseMetadata(eventService.MetadataOf(ev))
	if err != nil {
		return nil, err
	}
	res, err := s.Reconcile(ctx, *ev.GatewayEventPaymentID, meta)
	if err != nil {
		return nil, err
	}
	return &res.Donation.DonationID, nil
}
