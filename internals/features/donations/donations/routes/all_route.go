package route

import (
	donationController "crowdfund_backend/internals/features/donations/donations/controller"
	donationService "crowdfund_backend/internals/features/donations/donations/service"
	"crowdfund_backend/internals/middlewares"

	"github.com/gofiber/fiber/v2"
)

// The service is shared so the webhook and the scheduler use one dispatcher.

// DonationPublicRoutes: processor callbacks and the campaign donor wall.
func DonationPublicRoutes(api fiber.Router, svc *donationService.DonationService) {
	ctrl := donationController.NewDonationController(svc)

	api.Get("/campaigns/:id/donations", ctrl.ListByCampaign)

	api.Get("/donations/webhook", ctrl.WebhookPing)
	api.Post("/donations/webhook", ctrl.Webhook)
}

// DonationUserRoutes expects the auth middleware on api.
func DonationUserRoutes(api fiber.Router, svc *donationService.DonationService) {
	ctrl := donationController.NewDonationController(svc)

	g := api.Group("/donations")
	g.Post("/checkout", middlewares.CheckoutRateLimiter(), ctrl.CreateCheckout)
	g.Post("/verify", ctrl.VerifySession)
	g.Get("/mine", ctrl.ListMine)
}

// DonationAdminRoutes expects auth + admin role on api.
func DonationAdminRoutes(api fiber.Router, svc *donationService.DonationService) {
	ctrl := donationController.NewDonationController(svc)

	g := api.Group("/donations")
	g.Get("/", ctrl.ListAll)
	g.Post("/repair", ctrl.RepairAggregates)
	g.Get("/:id", ctrl.GetByID)
}
