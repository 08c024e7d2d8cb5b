package campaigns

import (
	"log"
	"os"
	"time"

	"github.com/bytedance/sonic"
	"gorm.io/gorm"

	campaignModel "crowdfund_backend/internals/features/campaigns/campaigns/model"
	userModel "crowdfund_backend/internals/features/users/users/model"
)

type CampaignSeed struct {
	CreatorEmail string `json:"creator_email"`
	Title        string `json:"title"`
	Description  string `json:"description"`
	Category     string `json:"category"`
	GoalAmount   int64  `json:"goal_amount"`
	DaysOpen     int    `json:"days_open"`
	Status       string `json:"status"`
}

// SeedCampaignsFromJSON adds demo campaigns for users seeded earlier.
// A campaign with the same title and creator is skipped.
func SeedCampaignsFromJSON(db *gorm.DB, filePath string) error {
	log.Println("[INFO] reading campaign seed:", filePath)

	file, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	var inputs []CampaignSeed
	if err := sonic.Unmarshal(file, &inputs); err != nil {
		return err
	}

	for _, data := range inputs {
		var creator userModel.UserModel
		if err := db.Where("email = ?", data.CreatorEmail).Take(&creator).Error; err != nil {
			log.Printf("[WARN] campaign %q skipped, creator %s: %v", data.Title, data.CreatorEmail, err)
			continue
		}

		var n int64
		if err := db.Model(&campaignModel.CampaignModel{}).
			Where("campaign_creator_id = ? AND campaign_title = ?", creator.ID, data.Title).
			Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			continue
		}

		c := campaignModel.CampaignModel{
			CampaignCreatorID:   creator.ID,
			CampaignTitle:       data.Title,
			CampaignDescription: data.Description,
			CampaignCategory:    data.Category,
			CampaignGoalAmount:  data.GoalAmount,
			CampaignDeadline:    time.Now().AddDate(0, 0, data.DaysOpen),
			CampaignStatus:      campaignModel.CampaignStatus(data.Status),
		}
		if err := db.Create(&c).Error; err != nil {
			return err
		}
		log.Printf("[INFO] campaign %q seeded (%s)", data.Title, c.CampaignStatus)
	}
	return nil
}
