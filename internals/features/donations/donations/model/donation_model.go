package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	campaignModel "crowdfund_backend/internals/features/campaigns/campaigns/model"
	userModel "crowdfund_backend/internals/features/users/users/model"
)

type DonationStatus string

const (
	DonationStatusPending    DonationStatus = "pending"
	DonationStatusSuccessful DonationStatus = "successful"
	DonationStatusFailed     DonationStatus = "failed"
)

/*
  donations
  - one row per confirmed external payment; donation_external_payment_id is
    UNIQUE and is the idempotency key for every reconciliation path.
  - rows are never mutated after insert.
*/

type DonationModel struct {
	DonationID uuid.UUID `gorm:"column:donation_id;type:uuid;primaryKey" json:"donation_id"`

	DonationCampaignID uuid.UUID `gorm:"column:donation_campaign_id;type:uuid;not null;index:idx_donations_campaign_status_created,priority:1" json:"donation_campaign_id"`
	DonationDonorID    uuid.UUID `gorm:"column:donation_donor_id;type:uuid;not null;index" json:"donation_donor_id"`

	DonationAmount int64          `gorm:"column:donation_amount;not null;check:donation_amount > 0" json:"donation_amount"`
	DonationStatus DonationStatus `gorm:"column:donation_status;type:varchar(20);not null;default:'successful';index:idx_donations_campaign_status_created,priority:2" json:"donation_status"`

	DonationExternalPaymentID string `gorm:"column:donation_external_payment_id;type:varchar(255);not null;uniqueIndex" json:"donation_external_payment_id"`
	DonationGateway           string `gorm:"column:donation_gateway;type:varchar(20);not null" json:"donation_gateway"`

	DonationCreatedAt time.Time `gorm:"column:donation_created_at;autoCreateTime;index:idx_donations_campaign_status_created,priority:3" json:"donation_created_at"`

	// FK only; never loaded or saved through the association.
	Campaign *campaignModel.CampaignModel `gorm:"foreignKey:DonationCampaignID;references:CampaignID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"-"`
	Donor    *userModel.UserModel         `gorm:"foreignKey:DonationDonorID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"-"`
}

func (DonationModel) TableName() string {
	return "donations"
}

func (m *DonationModel) BeforeCreate(*gorm.DB) error {
	if m.DonationID == uuid.Nil {
		m.DonationID = uuid.New()
	}
	if m.DonationStatus == "" {
		m.DonationStatus = DonationStatusSuccessful
	}
	return nil
}
