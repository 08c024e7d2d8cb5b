package dto

import (
	"time"

	"github.com/google/uuid"

	campaignDTO "crowdfund_backend/internals/features/campaigns/campaigns/dto"
	"crowdfund_backend/internals/features/donations/donations/model"
	"crowdfund_backend/internals/features/donations/donations/repository"
	donationService "crowdfund_backend/internals/features/donations/donations/service"
)

/* ===================== Requests ===================== */

// CreateCheckoutRequest: the minimum amount is a config value, checked by the service.
type CreateCheckoutRequest struct {
	CampaignID string `json:"campaign_id" validate:"required,uuid"`
	Amount     int64  `json:"amount" validate:"required,gt=0"`
}

type VerifySessionRequest struct {
	SessionID string `json:"session_id" validate:"required"`
}

/* ===================== Responses ===================== */

type DonationResponse struct {
	DonationID                uuid.UUID            `json:"donation_id"`
	DonationCampaignID        uuid.UUID            `json:"donation_campaign_id"`
	DonationDonorID           uuid.UUID            `json:"donation_donor_id"`
	DonationAmount            int64                `json:"donation_amount"`
	DonationStatus            model.DonationStatus `json:"donation_status"`
	DonationExternalPaymentID string               `json:"donation_external_payment_id"`
	DonationGateway           string               `json:"donation_gateway"`
	DonationCreatedAt         time.Time            `json:"donation_created_at"`
}

func FromModel(m *model.DonationModel) DonationResponse {
	return DonationResponse{
		DonationID:                m.DonationID,
		DonationCampaignID:        m.DonationCampaignID,
		DonationDonorID:           m.DonationDonorID,
		DonationAmount:            m.DonationAmount,
		DonationStatus:            m.DonationStatus,
		DonationExternalPaymentID: m.DonationExternalPaymentID,
		DonationGateway:           m.DonationGateway,
		DonationCreatedAt:         m.DonationCreatedAt,
	}
}

func FromModels(rows []model.DonationModel) []DonationResponse {
	out := make([]DonationResponse, 0, len(rows))
	for i := range rows {
		out = append(out, FromModel(&rows[i]))
	}
	return out
}

// ReconcileResponse is what both confirmation paths hand back to the donor.
type ReconcileResponse struct {
	Donation        DonationResponse             `json:"donation"`
	Campaign        campaignDTO.CampaignResponse `json:"campaign"`
	AlreadyRecorded bool                         `json:"already_recorded"`
}

func FromReconcile(r *donationService.ReconcileResult) ReconcileResponse {
	return ReconcileResponse{
		Donation:        FromModel(r.Donation),
		Campaign:        campaignDTO.FromModel(r.Campaign),
		AlreadyRecorded: r.Outcome == repository.AlreadyExists,
	}
}
