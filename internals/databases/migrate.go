package database

import (
	"log"

	"gorm.io/gorm"

	campaignModel "crowdfund_backend/internals/features/campaigns/campaigns/model"
	donationModel "crowdfund_backend/internals/features/donations/donations/model"
	gatewayEventModel "crowdfund_backend/internals/features/payment/gateway_events/model"
	userModel "crowdfund_backend/internals/features/users/users/model"
)

// Models in dependency order.
func Models() []any {
	return []any{
		&userModel.UserModel{},
		&campaignModel.CampaignModel{},
		&donationModel.DonationModel{},
		&gatewayEventModel.PaymentGatewayEventModel{},
	}
}

func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(Models()...); err != nil {
		return err
	}
	log.Println("[INFO] schema migrated")
	return nil
}
