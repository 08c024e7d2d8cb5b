package controller

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"crowdfund_backend/internals/features/payment/gateway_events/model"
	eventService "crowdfund_backend/internals/features/payment/gateway_events/service"
	helper "crowdfund_backend/internals/helpers"
)

type PaymentGatewayEventController struct {
	Svc *eventService.EventService
}

func NewPaymentGatewayEventController(svc *eventService.EventService) *PaymentGatewayEventController {
	return &PaymentGatewayEventController{Svc: svc}
}

var validStatuses = map[string]bool{
	string(model.GatewayEventStatusReceived):   true,
	string(model.GatewayEventStatusProcessing): true,
	string(model.GatewayEventStatusSuccess):    true,
	string(model.GatewayEventStatusFailed):     true,
	string(model.GatewayEventStatusIgnored):    true,
}

/*
GET /api/a/payment-gateway-events?provider=&status=&limit=
  - provider: midtrans|stripe
  - status: received|processing|success|failed|ignored
  - limit (default 50, max 200)
*/
func (h *PaymentGatewayEventController) List(c *fiber.Ctx) error {
	status := strings.ToLower(strings.TrimSpace(c.Query("status")))
	if status != "" && !validStatuses[status] {
		return helper.JsonError(c, fiber.StatusBadRequest, "invalid status")
	}

	rows, err := h.Svc.List(c.UserContext(), eventService.ListFilter{
		Provider: c.Query("provider"),
		Status:   status,
		Limit:    c.QueryInt("limit", 50),
	})
	if err != nil {
		return helper.FromError(c, err)
	}
	return helper.JsonList(c, "Gateway events fetched", rows)
}

// GET /api/a/payment-gateway-events/:id
func (h *PaymentGatewayEventController) GetByID(c *fiber.Ctx) error {
	id, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return helper.FromError(c, err)
	}
	ev, err := h.Svc.Get(c.UserContext(), id)
	if err != nil {
		return helper.FromError(c, err)
	}
	return helper.JsonOK(c, "Gateway event fetched", ev)
}

// POST /api/a/payment-gateway-events/replay
func (h *PaymentGatewayEventController) Replay(c *fiber.Ctx) error {
	n, err := h.Svc.Replay(c.UserContext(), c.QueryInt("limit", 100))
	if err != nil {
		return helper.FromError(c, err)
	}
	return helper.JsonOK(c, "Replay finished", fiber.Map{"processed": n})
}
