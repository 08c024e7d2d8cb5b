// Package testutil holds the hermetic database and seed helpers shared by
// package tests.
package testutil

import (
	"fmt"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	database "crowdfund_backend/internals/databases"
	campaignModel "crowdfund_backend/internals/features/campaigns/campaigns/model"
	userModel "crowdfund_backend/internals/features/users/users/model"
)

// NewDB opens a private in-memory SQLite database with the full schema.
// A single connection serialises writers the way row locks would.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.AutoMigrate(db))
	return db
}

func SeedUser(t *testing.T, db *gorm.DB, role string) *userModel.UserModel {
	t.Helper()
	id := uuid.New()
	u := &userModel.UserModel{
		ID:       id,
		UserName: "user-" + id.String()[:8],
		Email:    id.String()[:8] + "@example.test",
		Role:     role,
		IsActive: true,
	}
	require.NoError(t, db.Create(u).Error)
	return u
}

type CampaignOpts struct {
	Status   campaignModel.CampaignStatus
	Goal     int64
	Raised   int64
	Deadline time.Time
}

// SeedCampaign inserts a campaign owned by creatorID; zero opts mean an
// approved campaign with goal 10000, nothing raised, a month to go.
func SeedCampaign(t *testing.T, db *gorm.DB, creatorID uuid.UUID, o CampaignOpts) *campaignModel.CampaignModel {
	t.Helper()
	if o.Status == "" {
		o.Status = campaignModel.CampaignStatusApproved
	}
	if o.Goal == 0 {
		o.Goal = 10000
	}
	if o.Deadline.IsZero() {
		o.Deadline = time.Now().Add(30 * 24 * time.Hour)
	}
	c := &campaignModel.CampaignModel{
		CampaignCreatorID:    creatorID,
		CampaignTitle:        "Clean water for the village",
		CampaignDescription:  "Wells and filters",
		CampaignCategory:     "community",
		CampaignGoalAmount:   o.Goal,
		CampaignRaisedAmount: o.Raised,
		CampaignDeadline:     o.Deadline,
		CampaignStatus:       o.Status,
	}
	require.NoError(t, db.Create(c).Error)
	return c
}

func ReloadCampaign(t *testing.T, db *gorm.DB, id uuid.UUID) *campaignModel.CampaignModel {
	t.Helper()
	var c campaignModel.CampaignModel
	require.NoError(t, db.Where("campaign_id = ?", id).Take(&c).Error)
	return &c
}
