package routes

import (
	userController "crowdfund_backend/internals/features/users/users/controller"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// UserUserRoutes expects the auth middleware on app.
func UserUserRoutes(app fiber.Router, db *gorm.DB) {
	selfCtrl := userController.NewUserSelfController(db)

	app.Get("/users/me", selfCtrl.GetMe)
	app.Patch("/users/me", selfCtrl.UpdateMe)
}

// UserAdminRoutes expects auth + admin role on app.
func UserAdminRoutes(app fiber.Router, db *gorm.DB) {
	adminCtrl := userController.NewAdminUserController(db)

	g := app.Group("/users")
	g.Get("/", adminCtrl.ListUsers)
	g.Patch("/:id/active", adminCtrl.SetActive)
	g.Patch("/:id/role", adminCtrl.SetRole)
}
