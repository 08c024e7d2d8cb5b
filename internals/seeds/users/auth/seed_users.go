package user

import (
	"log"
	"os"

	"github.com/bytedance/sonic"
	"gorm.io/gorm"

	"crowdfund_backend/internals/features/users/users/model"
)

type UserSeed struct {
	UserName string `json:"user_name"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

// SeedUsersFromJSON inserts users whose email is not taken yet.
func SeedUsersFromJSON(db *gorm.DB, filePath string) error {
	log.Println("[INFO] reading user seed:", filePath)

	file, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	var inputs []UserSeed
	if err := sonic.Unmarshal(file, &inputs); err != nil {
		return err
	}
	return SeedUsers(db, inputs)
}

func SeedUsers(db *gorm.DB, inputs []UserSeed) error {
	for _, data := range inputs {
		var n int64
		if err := db.Model(&model.UserModel{}).Where("email = ?", data.Email).Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			log.Printf("[INFO] user %s already exists, skipped", data.Email)
			continue
		}

		u := model.UserModel{UserName: data.UserName, Email: data.Email, Role: data.Role, IsActive: true}
		if err := db.Create(&u).Error; err != nil {
			return err
		}
		log.Printf("[INFO] user %s seeded", data.Email)
	}
	return nil
}
