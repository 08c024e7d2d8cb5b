package repository

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	campaignModel "crowdfund_backend/internals/features/campaigns/campaigns/model"
	"crowdfund_backend/internals/features/donations/donations/model"
)

// All functions take the handle to run on, so callers can pass a transaction.

/* ====================== INSERT ====================== */

type Outcome int

const (
	Failed Outcome = iota
	Inserted
	AlreadyExists
)

func (o Outcome) String() string {
	switch o {
	case Inserted:
		return "inserted"
	case AlreadyExists:
		return "already_exists"
	default:
		return "failed"
	}
}

type InsertResult struct {
	Outcome Outcome
	Entry   *model.DonationModel
	Err     error
}

// InsertOrGet appends entry unless its external payment id is already
// recorded, in which case the stored entry is returned untouched. The
// unique index decides; there is no read before the insert.
func InsertOrGet(db *gorm.DB, entry *model.DonationModel) InsertResult {
	res := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "donation_external_payment_id"}},
		DoNothing: true,
	}).Omit(clause.Associations).Create(entry)
	if res.Error != nil {
		return InsertResult{Outcome: Failed, Err: res.Error}
	}
	if res.RowsAffected == 1 {
		return InsertResult{Outcome: Inserted, Entry: entry}
	}

	existing, err := FindByExternalPaymentID(db, entry.DonationExternalPaymentID)
	if err != nil {
		return InsertResult{Outcome: Failed, Err: err}
	}
	return InsertResult{Outcome: AlreadyExists, Entry: existing}
}

/* ====================== AGGREGATE ====================== */

// IncrementRaised adds amount to the campaign total in one UPDATE.
// Zero rows affected means the campaign does not exist.
func IncrementRaised(db *gorm.DB, campaignID uuid.UUID, amount int64) (int64, error) {
	res := db.Model(&campaignModel.CampaignModel{}).
		Where("campaign_id = ?", campaignID).
		UpdateColumn("campaign_raised_amount", gorm.Expr("campaign_raised_amount + ?", amount))
	return res.RowsAffected, res.Error
}

// SumSuccessful is the ledger total of one campaign.
func SumSuccessful(db *gorm.DB, campaignID uuid.UUID) (int64, error) {
	var sum int64
	err := db.Model(&model.DonationModel{}).
		Where("donation_campaign_id = ? AND donation_status = ?", campaignID, string(model.DonationStatusSuccessful)).
		Select("COALESCE(SUM(donation_amount), 0)").
		Scan(&sum).Error
	return sum, err
}

/* ====================== QUERIES ====================== */

func FindByExternalPaymentID(db *gorm.DB, externalID string) (*model.DonationModel, error) {
	var d model.DonationModel
	if err := db.Where("donation_external_payment_id = ?", externalID).Take(&d).Error; err != nil {
		return nil, err
	}
	return &d, nil
}

func FindByID(db *gorm.DB, id uuid.UUID) (*model.DonationModel, error) {
	var d model.DonationModel
	if err := db.Where("donation_id = ?", id).Take(&d).Error; err != nil {
		return nil, err
	}
	return &d, nil
}

const newestFirst = "donation_created_at DESC, donation_id DESC"

func ListByCampaign(db *gorm.DB, campaignID uuid.UUID) ([]model.DonationModel, error) {
	var rows []model.DonationModel
	err := db.Where("donation_campaign_id = ? AND donation_status = ?",
		campaignID, string(model.DonationStatusSuccessful)).
		Order(newestFirst).
		Find(&rows).Error
	return rows, err
}

func ListByDonor(db *gorm.DB, donorID uuid.UUID) ([]model.DonationModel, error) {
	var rows []model.DonationModel
	err := db.Where("donation_donor_id = ?", donorID).
		Order(newestFirst).
		Find(&rows).Error
	return rows, err
}

func ListAll(db *gorm.DB) ([]model.DonationModel, error) {
	var rows []model.DonationModel
	err := db.Where("donation_status = ?", string(model.DonationStatusSuccessful)).
		Order(newestFirst).
		Find(&rows).Error
	return rows, err
}

func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
