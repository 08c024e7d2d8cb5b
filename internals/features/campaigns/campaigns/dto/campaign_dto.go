package dto

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"crowdfund_backend/internals/features/campaigns/campaigns/model"
)

/* ===================== Requests ===================== */

type CreateCampaignRequest struct {
	CampaignTitle       string    `json:"campaign_title" validate:"required,max=50"`
	CampaignDescription string    `json:"campaign_description" validate:"required"`
	CampaignCategory    string    `json:"campaign_category" validate:"required,oneof=education medical emergency community creative business other"`
	CampaignImageURL    *string   `json:"campaign_image_url" validate:"omitempty,url"`
	CampaignGoalAmount  int64     `json:"campaign_goal_amount" validate:"required,gt=0"`
	CampaignDeadline    time.Time `json:"campaign_deadline" validate:"required"`
}

func (r *CreateCampaignRequest) Normalize() {
	r.CampaignTitle = strings.TrimSpace(r.CampaignTitle)
	r.CampaignDescription = strings.TrimSpace(r.CampaignDescription)
	r.CampaignCategory = strings.ToLower(strings.TrimSpace(r.CampaignCategory))
}

func (r *CreateCampaignRequest) ToModel(creatorID uuid.UUID) *model.CampaignModel {
	return &model.CampaignModel{
		CampaignCreatorID:   creatorID,
		CampaignTitle:       r.CampaignTitle,
		CampaignDescription: r.CampaignDescription,
		CampaignCategory:    r.CampaignCategory,
		CampaignImageURL:    r.CampaignImageURL,
		CampaignGoalAmount:  r.CampaignGoalAmount,
		CampaignDeadline:    r.CampaignDeadline,
		CampaignStatus:      model.CampaignStatusPending,
	}
}

// UpdateCampaignRequest is a partial update; nil fields are left untouched.
type UpdateCampaignRequest struct {
	CampaignTitle       *string    `json:"campaign_title" validate:"omitempty,max=50"`
	CampaignDescription *string    `json:"campaign_description"`
	CampaignCategory    *string    `json:"campaign_category" validate:"omitempty,oneof=education medical emergency community creative business other"`
	CampaignImageURL    *string    `json:"campaign_image_url" validate:"omitempty,url"`
	CampaignGoalAmount  *int64     `json:"campaign_goal_amount" validate:"omitempty,gt=0"`
	CampaignDeadline    *time.Time `json:"campaign_deadline"`
}

func (r *UpdateCampaignRequest) Updates() map[string]any {
	out := map[string]any{}
	if r.CampaignTitle != nil {
		out["campaign_title"] = strings.TrimSpace(*r.CampaignTitle)
	}
	if r.CampaignDescription != nil {
		out["campaign_description"] = strings.TrimSpace(*r.CampaignDescription)
	}
	if r.CampaignCategory != nil {
		out["campaign_category"] = strings.ToLower(strings.TrimSpace(*r.CampaignCategory))
	}
	if r.CampaignImageURL != nil {
		out["campaign_image_url"] = *r.CampaignImageURL
	}
	if r.CampaignGoalAmount != nil {
		out["campaign_goal_amount"] = *r.CampaignGoalAmount
	}
	if r.CampaignDeadline != nil {
		out["campaign_deadline"] = *r.CampaignDeadline
	}
	return out
}

/* ===================== Response ===================== */

type CampaignResponse struct {
	CampaignID             uuid.UUID            `json:"campaign_id"`
	CampaignCreatorID      uuid.UUID            `json:"campaign_creator_id"`
	CampaignTitle          string               `json:"campaign_title"`
	CampaignDescription    string               `json:"campaign_description"`
	CampaignCategory       string               `json:"campaign_category"`
	CampaignImageURL       *string              `json:"campaign_image_url,omitempty"`
	CampaignGoalAmount     int64                `json:"campaign_goal_amount"`
	CampaignRaisedAmount   int64                `json:"campaign_raised_amount"`
	CampaignDeadline       time.Time            `json:"campaign_deadline"`
	CampaignStatus         model.CampaignStatus `json:"campaign_status"`
	CampaignIsActive       bool                 `json:"campaign_is_active"`
	CampaignIsDonatable    bool                 `json:"campaign_is_donatable"`
	CampaignWithdrawStatus model.WithdrawStatus `json:"campaign_withdraw_status"`
	CampaignCreatedAt      time.Time            `json:"campaign_created_at"`
	CampaignUpdatedAt      time.Time            `json:"campaign_updated_at"`
}

func FromModel(m *model.CampaignModel) CampaignResponse {
	return CampaignResponse{
		CampaignID:             m.CampaignID,
		CampaignCreatorID:      m.CampaignCreatorID,
		CampaignTitle:          m.CampaignTitle,
		CampaignDescription:    m.CampaignDescription,
		CampaignCategory:       m.CampaignCategory,
		CampaignImageURL:       m.CampaignImageURL,
		CampaignGoalAmount:     m.CampaignGoalAmount,
		CampaignRaisedAmount:   m.CampaignRaisedAmount,
		CampaignDeadline:       m.CampaignDeadline,
		CampaignStatus:         m.CampaignStatus,
		CampaignIsActive:       m.CampaignIsActive,
		CampaignIsDonatable:    m.IsDonatable(time.Now()),
		CampaignWithdrawStatus: m.CampaignWithdrawStatus,
		CampaignCreatedAt:      m.CampaignCreatedAt,
		CampaignUpdatedAt:      m.CampaignUpdatedAt,
	}
}

func FromModels(rows []model.CampaignModel) []CampaignResponse {
	out := make([]CampaignResponse, 0, len(rows))
	for i := range rows {
		out = append(out, FromModel(&rows[i]))
	}
	return out
}
