package service

import (
	"context"
	"log"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	campaignModel "crowdfund_backend/internals/features/campaigns/campaigns/model"
	"crowdfund_backend/internals/features/donations/donations/repository"
	"crowdfund_backend/internals/helpers/apperr"
)

type Correction struct {
	CampaignID uuid.UUID `json:"campaign_id"`
	Before     int64     `json:"before"`
	After      int64     `json:"after"`
}

type RepairReport struct {
	Checked     int          `json:"checked"`
	Corrections []Correction `json:"corrections"`
}

// RepairAggregates recomputes every campaign total from its successful
// ledger entries and overwrites totals that drifted.
//
// Each campaign row is locked before its ledger sum is read, so a reconcile
// racing with the repair either commits first (and is counted) or
// increments after the repair wrote its value.
func (s *DonationService) RepairAggregates(ctx context.Context) (*RepairReport, error) {
	var ids []uuid.UUID
	if err := s.DB.WithContext(ctx).Model(&campaignModel.CampaignModel{}).
		Order("campaign_created_at ASC").
		Pluck("campaign_id", &ids).Error; err != nil {
		return nil, apperr.Internal(err, "failed to list campaigns")
	}

	report := &RepairReport{Corrections: []Correction{}}
	for _, id := range ids {
		fix, err := s.repairOne(ctx, id)
		if err != nil {
			return report, err
		}
		report.Checked++
		if fix != nil {
			report.Corrections = append(report.Corrections, *fix)
			log.Printf("[WARN] campaign %s raised amount corrected: %d -> %d", id, fix.Before, fix.After)
		}
	}
	log.Printf("[INFO] aggregate repair: %d campaigns checked, %d corrected", report.Checked, len(report.Corrections))
	return report, nil
}

func (s *DonationService) repairOne(ctx context.Context, id uuid.UUID) (*Correction, error) {
	var fix *Correction
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var c campaignModel.CampaignModel
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Select("campaign_id", "campaign_raised_amount").
			Where("campaign_id = ?", id).
			Take(&c).Error; err != nil {
			return err
		}

		sum, err := repository.SumSuccessful(tx, id)
		if err != nil {
			return err
		}
		if sum == c.CampaignRaisedAmount {
			return nil
		}

		if err := tx.Model(&campaignModel.CampaignModel{}).
			Where("campaign_id = ?", id).
			UpdateColumn("campaign_raised_amount", sum).Error; err != nil {
			return err
		}
		fix = &Correction{CampaignID: id, Before: c.CampaignRaisedAmount, After: sum}
		return nil
	})
	if err != nil {
		return nil, apperr.Internal(err, "failed to repair campaign %s", id)
	}
	return fix, nil
}
