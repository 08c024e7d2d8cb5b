package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CampaignStatus string

const (
	CampaignStatusPending  CampaignStatus = "pending"
	CampaignStatusApproved CampaignStatus = "approved"
	CampaignStatusRejected CampaignStatus = "rejected"
	CampaignStatusBlocked  CampaignStatus = "blocked"
)

type WithdrawStatus string

const (
	WithdrawNotEligible WithdrawStatus = "not_eligible"
	WithdrawEligible    WithdrawStatus = "eligible"
	WithdrawRequested   WithdrawStatus = "requested"
	WithdrawApproved    WithdrawStatus = "approved"
	WithdrawRejected    WithdrawStatus = "rejected"
	WithdrawPaid        WithdrawStatus = "paid"
)

var CampaignCategories = []string{
	"education", "medical", "emergency", "community", "creative", "business", "other",
}

/*
  campaigns
  - campaign_raised_amount is the denormalized sum of successful donations;
    only the reconciler (atomic increment) and the repair pass write it.
  - campaign_status and campaign_is_active are always written together.
*/

type CampaignModel struct {
	CampaignID uuid.UUID `gorm:"column:campaign_id;type:uuid;primaryKey" json:"campaign_id"`

	CampaignCreatorID uuid.UUID `gorm:"column:campaign_creator_id;type:uuid;not null;index" json:"campaign_creator_id"`

	CampaignTitle       string  `gorm:"column:campaign_title;type:varchar(50);not null" json:"campaign_title"`
	CampaignDescription string  `gorm:"column:campaign_description;type:text;not null" json:"campaign_description"`
	CampaignCategory    string  `gorm:"column:campaign_category;type:varchar(20);not null" json:"campaign_category"`
	CampaignImageURL    *string `gorm:"column:campaign_image_url;type:text" json:"campaign_image_url,omitempty"`

	CampaignGoalAmount   int64     `gorm:"column:campaign_goal_amount;not null;check:campaign_goal_amount > 0" json:"campaign_goal_amount"`
	CampaignRaisedAmount int64     `gorm:"column:campaign_raised_amount;not null;default:0;check:campaign_raised_amount >= 0" json:"campaign_raised_amount"`
	CampaignDeadline     time.Time `gorm:"column:campaign_deadline;not null" json:"campaign_deadline"`

	CampaignStatus         CampaignStatus `gorm:"column:campaign_status;type:varchar(20);not null;default:'pending';index" json:"campaign_status"`
	CampaignIsActive       bool           `gorm:"column:campaign_is_active;not null;default:false" json:"campaign_is_active"`
	CampaignWithdrawStatus WithdrawStatus `gorm:"column:campaign_withdraw_status;type:varchar(20);not null;default:'not_eligible'" json:"campaign_withdraw_status"`

	CampaignCreatedAt time.Time `gorm:"column:campaign_created_at;autoCreateTime;index" json:"campaign_created_at"`
	CampaignUpdatedAt time.Time `gorm:"column:campaign_updated_at;autoUpdateTime" json:"campaign_updated_at"`
}

func (CampaignModel) TableName() string { return "campaigns" }

func (m *CampaignModel) BeforeCreate(*gorm.DB) error {
	if m.CampaignID == uuid.Nil {
		m.CampaignID = uuid.New()
	}
	if m.CampaignStatus == "" {
		m.CampaignStatus = CampaignStatusPending
	}
	if m.CampaignWithdrawStatus == "" {
		m.CampaignWithdrawStatus = WithdrawNotEligible
	}
	m.CampaignIsActive = m.CampaignStatus == CampaignStatusApproved
	return nil
}

/* ===================== Helpers ===================== */

// AcceptsDonations is the gate checkout applies: status only.
func (m *CampaignModel) AcceptsDonations() bool {
	return m.CampaignStatus == CampaignStatusApproved
}

// IsDonatable is the stricter listing predicate: approved, not expired, not yet funded.
func (m *CampaignModel) IsDonatable(now time.Time) bool {
	return m.AcceptsDonations() &&
		m.CampaignDeadline.After(now) &&
		m.CampaignRaisedAmount < m.CampaignGoalAmount
}
