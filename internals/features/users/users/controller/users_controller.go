package controller

import (
	"errors"
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	userdto "crowdfund_backend/internals/features/users/users/dto"
	"crowdfund_backend/internals/features/users/users/model"
	helper "crowdfund_backend/internals/helpers"
)

type AdminUserController struct {
	DB *gorm.DB
}

func NewAdminUserController(db *gorm.DB) *AdminUserController { return &AdminUserController{DB: db} }

var userSortColumns = map[string]string{
	"created_at": "created_at",
	"user_name":  "user_name",
	"email":      "email",
}

// GET /api/a/users
// Query:
//
//	q=name or email (optional), page, per_page, sort_by, order
func (ac *AdminUserController) ListUsers(c *fiber.Ctx) error {
	p := helper.ParseFiber(c, "created_at", "desc", helper.AdminOpts)

	tx := ac.DB.WithContext(c.UserContext()).Model(&model.UserModel{})
	if q := strings.ToLower(strings.TrimSpace(c.Query("q"))); q != "" {
		like := "%" + q + "%"
		tx = tx.Where("(LOWER(user_name) LIKE ? OR LOWER(email) LIKE ?)", like, like)
	}
	tx = tx.Session(&gorm.Session{})

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		log.Println("[ERROR] ListUsers count:", err)
		return helper.JsonError(c, fiber.StatusInternalServerError, "Failed to list users")
	}

	var users []model.UserModel
	if err := tx.Order(p.OrderClause(userSortColumns, "created_at")).
		Limit(p.Limit()).Offset(p.Offset()).
		Find(&users).Error; err != nil {
		log.Println("[ERROR] ListUsers:", err)
		return helper.JsonError(c, fiber.StatusInternalServerError, "Failed to list users")
	}
	return helper.JsonPaged(c, "Users fetched successfully", userdto.FromModelList(users), helper.BuildMeta(total, p))
}

// PATCH /api/a/users/:id/active
// A deactivated user is turned away by the auth middleware on the next request.
func (ac *AdminUserController) SetActive(c *fiber.Ctx) error {
	var req userdto.SetActiveRequest
	if handled, err := helper.ParseAndValidate(c, &req); handled {
		return err
	}
	return ac.update(c, "is_active", *req.IsActive)
}

// PATCH /api/a/users/:id/role
func (ac *AdminUserController) SetRole(c *fiber.Ctx) error {
	var req userdto.SetRoleRequest
	if handled, err := helper.ParseAndValidate(c, &req); handled {
		return err
	}
	return ac.update(c, "role", req.Role)
}

func (ac *AdminUserController) update(c *fiber.Ctx, column string, value any) error {
	id, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return helper.FromError(c, err)
	}
	if self, err := helper.GetUserIDFromToken(c); err == nil && self == id {
		return helper.JsonError(c, fiber.StatusForbidden, "Admins cannot change their own account here")
	}

	var u model.UserModel
	err = ac.DB.WithContext(c.UserContext()).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.UserModel{}).Where("id = ?", id).Update(column, value)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.Where("id = ?", id).Take(&u).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return helper.JsonError(c, fiber.StatusNotFound, "User not found")
		}
		log.Printf("[ERROR] update user %s.%s: %v", id, column, err)
		return helper.JsonError(c, fiber.StatusInternalServerError, "Failed to update user")
	}
	log.Printf("[INFO] user %s: %s=%v", id, column, value)
	return helper.JsonUpdated(c, "User updated", userdto.FromModel(&u))
}
