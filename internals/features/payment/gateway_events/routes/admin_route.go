package route

import (
	eventController "crowdfund_backend/internals/features/payment/gateway_events/controller"
	eventService "crowdfund_backend/internals/features/payment/gateway_events/service"

	"github.com/gofiber/fiber/v2"
)

// PaymentGatewayEventAdminRoutes expects auth + admin role on api.
func PaymentGatewayEventAdminRoutes(api fiber.Router, svc *eventService.EventService) {
	h := eventController.NewPaymentGatewayEventController(svc)

	g := api.Group("/payment-gateway-events")
	g.Get("/", h.List)
	g.Post("/replay", h.Replay)
	g.Get("/:id", h.GetByID)
}
