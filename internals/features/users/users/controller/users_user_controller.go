package controller

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	userdto "crowdfund_backend/internals/features/users/users/dto"
	"crowdfund_backend/internals/features/users/users/model"
	helper "crowdfund_backend/internals/helpers"
)

// UserSelfController serves the signed-in user's own record.
type UserSelfController struct {
	DB *gorm.DB
}

func NewUserSelfController(db *gorm.DB) *UserSelfController { return &UserSelfController{DB: db} }

// GET /api/u/users/me
func (uc *UserSelfController) GetMe(c *fiber.Ctx) error {
	userID, err := helper.GetUserIDFromToken(c)
	if err != nil {
		return helper.FromError(c, err)
	}

	var u model.UserModel
	if err := uc.DB.WithContext(c.UserContext()).Where("id = ?", userID).Take(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return helper.JsonError(c, fiber.StatusNotFound, "User not found")
		}
		log.Println("[ERROR] GetMe:", err)
		return helper.JsonError(c, fiber.StatusInternalServerError, "Failed to load user")
	}
	return helper.JsonOK(c, "User fetched successfully", userdto.FromModel(&u))
}

// PATCH /api/u/users/me
func (uc *UserSelfController) UpdateMe(c *fiber.Ctx) error {
	userID, err := helper.GetUserIDFromToken(c)
	if err != nil {
		return helper.FromError(c, err)
	}

	var req userdto.UpdateMeRequest
	if handled, err := helper.ParseAndValidate(c, &req); handled {
		return err
	}
	req.Normalize()

	var u model.UserModel
	err = uc.DB.WithContext(c.UserContext()).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.UserModel{}).Where("id = ?", userID).
			Update("user_name", req.UserName).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", userID).Take(&u).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return helper.JsonError(c, fiber.StatusNotFound, "User not found")
		}
		log.Println("[ERROR] UpdateMe:", err)
		return helper.JsonError(c, fiber.StatusInternalServerError, "Failed to update user")
	}
	return helper.JsonUpdated(c, "User updated", userdto.FromModel(&u))
}
