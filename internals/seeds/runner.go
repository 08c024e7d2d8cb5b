package seeds

import (
	"log"
	"path/filepath"

	"gorm.io/gorm"

	campaigns "crowdfund_backend/internals/seeds/campaigns"
	users "crowdfund_backend/internals/seeds/users/auth"
)

// RunAllSeeds loads the demo data under dir (normally internals/seeds).
// Users go first; campaigns look their creator up by email.
func RunAllSeeds(db *gorm.DB, dir string) error {
	if err := users.SeedUsersFromJSON(db, filepath.Join(dir, "users", "auth", "data_users.json")); err != nil {
		return err
	}
	if err := campaigns.SeedCampaignsFromJSON(db, filepath.Join(dir, "campaigns", "data_campaigns.json")); err != nil {
		return err
	}
	log.Println("[INFO] seeding finished")
	return nil
}
