package route

import (
	"crowdfund_backend/internals/configs"
	campaignController "crowdfund_backend/internals/features/campaigns/campaigns/controller"
	campaignService "crowdfund_backend/internals/features/campaigns/campaigns/service"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

func newController(db *gorm.DB) *campaignController.CampaignController {
	svc := campaignService.NewCampaignService(db, configs.DonationSettings().MinGoal)
	return campaignController.NewCampaignController(svc)
}

// CampaignPublicRoutes: browsing, no token needed.
func CampaignPublicRoutes(api fiber.Router, db *gorm.DB) {
	ctrl := newController(db)

	g := api.Group("/campaigns")
	g.Get("/", ctrl.ListDonatable)
	g.Get("/:id", ctrl.GetByID)
}

// CampaignUserRoutes expects the auth middleware on api.
func CampaignUserRoutes(api fiber.Router, db *gorm.DB) {
	ctrl := newController(db)

	g := api.Group("/campaigns")
	g.Post("/", ctrl.Create)
	g.Get("/mine", ctrl.ListMine)
	g.Patch("/:id", ctrl.Update)
	g.Delete("/:id", ctrl.Delete)
}

// CampaignAdminRoutes expects auth + admin role on api.
func CampaignAdminRoutes(api fiber.Router, db *gorm.DB) {
	ctrl := newController(db)

	g := api.Group("/campaigns")
	g.Get("/", ctrl.ListAll)
	g.Patch("/:id/approve", ctrl.Approve)
	g.Patch("/:id/reject", ctrl.Reject)
	g.Patch("/:id/block", ctrl.ToggleBlock)
}
