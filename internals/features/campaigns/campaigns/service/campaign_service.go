package service

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"crowdfund_backend/internals/features/campaigns/campaigns/dto"
	"crowdfund_backend/internals/features/campaigns/campaigns/model"
	"crowdfund_backend/internals/helpers/apperr"
)

// CampaignService owns the campaign lifecycle. Every status change is a
// single conditional UPDATE, so status and is_active never disagree and two
// admins racing on the same campaign cannot both win.
type CampaignService struct {
	DB      *gorm.DB
	MinGoal int64
	Now     func() time.Time
}

func NewCampaignService(db *gorm.DB, minGoal int64) *CampaignService {
	return &CampaignService{DB: db, MinGoal: minGoal, Now: time.Now}
}

/* ===================== Lifecycle (admin) ===================== */

func (s *CampaignService) Approve(ctx context.Context, id uuid.UUID) (*model.CampaignModel, error) {
	return s.transition(ctx, id, "approve",
		[]model.CampaignStatus{model.CampaignStatusPending},
		map[string]any{
			"campaign_status":    model.CampaignStatusApproved,
			"campaign_is_active": true,
		})
}

// Reject is terminal: nothing transitions out of rejected.
func (s *CampaignService) Reject(ctx context.Context, id uuid.UUID) (*model.CampaignModel, error) {
	return s.transition(ctx, id, "reject",
		[]model.CampaignStatus{model.CampaignStatusPending},
		map[string]any{
			"campaign_status":    model.CampaignStatusRejected,
			"campaign_is_active": false,
		})
}

// ToggleBlock flips approved <-> blocked. The target is computed by the
// database from the current row, not from a value read beforehand.
func (s *CampaignService) ToggleBlock(ctx context.Context, id uuid.UUID) (*model.CampaignModel, error) {
	return s.transition(ctx, id, "block/unblock",
		[]model.CampaignStatus{model.CampaignStatusApproved, model.CampaignStatusBlocked},
		map[string]any{
			"campaign_status": gorm.Expr("CASE WHEN campaign_status = ? THEN ? ELSE ? END",
				string(model.CampaignStatusBlocked), string(model.CampaignStatusApproved), string(model.CampaignStatusBlocked)),
			"campaign_is_active": gorm.Expr("CASE WHEN campaign_status = ? THEN TRUE ELSE FALSE END",
				string(model.CampaignStatusBlocked)),
		})
}

func (s *CampaignService) transition(
	ctx context.Context,
	id uuid.UUID,
	action string,
	from []model.CampaignStatus,
	updates map[string]any,
) (*model.CampaignModel, error) {
	allowed := make([]string, 0, len(from))
	for _, st := range from {
		allowed = append(allowed, string(st))
	}

	var out model.CampaignModel
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.CampaignModel{}).
			Where("campaign_id = ? AND campaign_status IN ?", id, allowed).
			Updates(updates)
		if res.Error != nil {
			return apperr.Internal(res.Error, "failed to %s campaign", action)
		}

		if err := tx.Where("campaign_id = ?", id).Take(&out).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("campaign not found")
			}
			return apperr.Internal(err, "failed to load campaign")
		}
		if res.RowsAffected == 0 {
			return apperr.StateConflict("cannot %s a campaign that is %s", action, out.CampaignStatus)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("[INFO] campaign %s: %s -> status=%s is_active=%t", id, action, out.CampaignStatus, out.CampaignIsActive)
	return &out, nil
}

/* ===================== Owner ===================== */

func (s *CampaignService) Create(ctx context.Context, creatorID uuid.UUID, req dto.CreateCampaignRequest) (*model.CampaignModel, error) {
	req.Normalize()
	if req.CampaignTitle == "" || req.CampaignDescription == "" {
		return nil, apperr.Validation("campaign_title and campaign_description are required")
	}
	if err := s.checkGoalAndDeadline(&req.CampaignGoalAmount, &req.CampaignDeadline); err != nil {
		return nil, err
	}

	m := req.ToModel(creatorID)
	if err := s.DB.WithContext(ctx).Create(m).Error; err != nil {
		return nil, apperr.Internal(err, "failed to create campaign")
	}
	return m, nil
}

// Update edits a campaign while it is still pending review.
func (s *CampaignService) Update(ctx context.Context, creatorID, id uuid.UUID, req dto.UpdateCampaignRequest) (*model.CampaignModel, error) {
	if err := s.checkGoalAndDeadline(req.CampaignGoalAmount, req.CampaignDeadline); err != nil {
		return nil, err
	}
	updates := req.Updates()
	if len(updates) == 0 {
		return nil, apperr.Validation("nothing to update")
	}

	var out model.CampaignModel
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.CampaignModel{}).
			Where("campaign_id = ? AND campaign_creator_id = ? AND campaign_status = ?",
				id, creatorID, string(model.CampaignStatusPending)).
			Updates(updates)
		if res.Error != nil {
			return apperr.Internal(res.Error, "failed to update campaign")
		}
		if err := tx.Where("campaign_id = ?", id).Take(&out).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("campaign not found")
			}
			return apperr.Internal(err, "failed to load campaign")
		}
		if res.RowsAffected == 0 {
			if out.CampaignCreatorID != creatorID {
				return apperr.Forbidden("only the creator may edit this campaign")
			}
			return apperr.StateConflict("campaign can no longer be edited (status %s)", out.CampaignStatus)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Delete removes a campaign that is still pending review. Only its creator
// may do so, and never once a ledger entry points at it.
func (s *CampaignService) Delete(ctx context.Context, creatorID, id uuid.UUID) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("campaign_id = ? AND campaign_creator_id = ? AND campaign_status = ?",
			id, creatorID, string(model.CampaignStatusPending)).
			Where("NOT EXISTS (SELECT 1 FROM donations WHERE donations.donation_campaign_id = campaigns.campaign_id)").
			Delete(&model.CampaignModel{})
		if res.Error != nil {
			return apperr.Internal(res.Error, "failed to delete campaign")
		}
		if res.RowsAffected == 1 {
			log.Printf("[INFO] campaign %s deleted by creator %s", id, creatorID)
			return nil
		}

		var cur model.CampaignModel
		if err := tx.Select("campaign_id", "campaign_creator_id", "campaign_status").
			Where("campaign_id = ?", id).Take(&cur).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("campaign not found")
			}
			return apperr.Internal(err, "failed to load campaign")
		}
		if cur.CampaignCreatorID != creatorID {
			return apperr.Forbidden("only the creator may delete this campaign")
		}
		if cur.CampaignStatus != model.CampaignStatusPending {
			return apperr.StateConflict("campaign can no longer be deleted (status %s)", cur.CampaignStatus)
		}
		return apperr.StateConflict("campaign already has donations")
	})
}

func (s *CampaignService) checkGoalAndDeadline(goal *int64, deadline *time.Time) error {
	if goal != nil && *goal < s.MinGoal {
		return apperr.Validation("campaign_goal_amount must be at least %d", s.MinGoal)
	}
	if deadline != nil && !deadline.After(s.Now()) {
		return apperr.Validation("campaign_deadline must be in the future")
	}
	return nil
}

/* ===================== Queries ===================== */

func (s *CampaignService) Get(ctx context.Context, id uuid.UUID) (*model.CampaignModel, error) {
	var m model.CampaignModel
	if err := s.DB.WithContext(ctx).Where("campaign_id = ?", id).Take(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("campaign not found")
		}
		return nil, apperr.Internal(err, "failed to load campaign")
	}
	return &m, nil
}

func (s *CampaignService) ListByCreator(ctx context.Context, creatorID uuid.UUID) ([]model.CampaignModel, error) {
	return s.list(s.DB.WithContext(ctx).Where("campaign_creator_id = ?", creatorID))
}

func (s *CampaignService) ListAll(ctx context.Context) ([]model.CampaignModel, error) {
	return s.list(s.DB.WithContext(ctx))
}

// ListDonatable applies the listing predicate (see CampaignModel.IsDonatable).
func (s *CampaignService) ListDonatable(ctx context.Context) ([]model.CampaignModel, error) {
	return s.list(s.DB.WithContext(ctx).
		Where("campaign_status = ? AND campaign_deadline > ? AND campaign_raised_amount < campaign_goal_amount",
			string(model.CampaignStatusApproved), s.Now()))
}

func (s *CampaignService) list(q *gorm.DB) ([]model.CampaignModel, error) {
	var rows []model.CampaignModel
	if err := q.Order("campaign_created_at DESC").Find(&rows).Error; err != nil {
		return nil, apperr.Internal(err, "failed to list campaigns")
	}
	return rows, nil
}
