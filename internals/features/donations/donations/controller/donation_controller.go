package controller

import (
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"crowdfund_backend/internals/features/donations/donations/dto"
	donationService "crowdfund_backend/internals/features/donations/donations/service"
	"crowdfund_backend/internals/features/payment/gateway"
	helper "crowdfund_backend/internals/helpers"
)

type DonationController struct {
	Svc *donationService.DonationService
}

func NewDonationController(svc *donationService.DonationService) *DonationController {
	return &DonationController{Svc: svc}
}

/* ========================================================
   Checkout & confirmation (user)
======================================================== */

// POST /api/u/donations/checkout
func (ctrl *DonationController) CreateCheckout(c *fiber.Ctx) error {
	donorID, err := helper.GetUserIDFromToken(c)
	if err != nil {
		return helper.FromError(c, err)
	}

	var body dto.CreateCheckoutRequest
	if handled, err := helper.ParseAndValidate(c, &body); handled {
		return err
	}
	campaignID, _ := uuid.Parse(body.CampaignID)

	res, err := ctrl.Svc.CreateCheckoutSession(c.UserContext(), campaignID, donorID, body.Amount)
	if err != nil {
		return helper.FromError(c, err)
	}
	return helper.JsonCreated(c, "Checkout session created", res)
}

// POST /api/u/donations/verify
func (ctrl *DonationController) VerifySession(c *fiber.Ctx) error {
	var body dto.VerifySessionRequest
	if handled, err := helper.ParseAndValidate(c, &body); handled {
		return err
	}

	res, err := ctrl.Svc.VerifyCheckoutSession(c.UserContext(), body.SessionID)
	if err != nil {
		return helper.FromError(c, err)
	}
	msg := "Donation recorded"
	resp := dto.FromReconcile(res)
	if resp.AlreadyRecorded {
		msg = "Donation already recorded"
	}
	return helper.JsonOK(c, msg, resp)
}

// GET /api/u/donations/mine
func (ctrl *DonationController) ListMine(c *fiber.Ctx) error {
	donorID, err := helper.GetUserIDFromToken(c)
	if err != nil {
		return helper.FromError(c, err)
	}
	rows, err := ctrl.Svc.ListByDonor(c.UserContext(), donorID)
	if err != nil {
		return helper.FromError(c, err)
	}
	return helper.JsonList(c, "Donations fetched", dto.FromModels(rows))
}

/* ========================================================
   Public
======================================================== */

// GET /api/campaigns/:id/donations
func (ctrl *DonationController) ListByCampaign(c *fiber.Ctx) error {
	campaignID, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return helper.FromError(c, err)
	}
	rows, err := ctrl.Svc.ListByCampaign(c.UserContext(), campaignID)
	if err != nil {
		return helper.FromError(c, err)
	}
	return helper.JsonList(c, "Donations fetched", dto.FromModels(rows))
}

// POST /api/donations/webhook
//
// Anything but a bad signature is answered 200 so the processor does not
// keep retrying a payload we will never accept.
func (ctrl *DonationController) Webhook(c *fiber.Ctx) error {
	payload := append([]byte(nil), c.Body()...)
	sig := strings.TrimSpace(c.Get(gateway.SignatureHeader))
	if sig == "" {
		sig = strings.TrimSpace(c.Get("X-Signature"))
	}

	ack, err := ctrl.Svc.HandlePaymentWebhook(c.UserContext(), payload, sig)
	if err != nil {
		return helper.FromError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(ack)
}

// GET /api/donations/webhook
func (ctrl *DonationController) WebhookPing(c *fiber.Ctx) error {
	log.Println("[INFO] payment webhook ping received")
	return c.Status(fiber.StatusOK).SendString("OK")
}

/* ========================================================
   Admin
======================================================== */

// GET /api/a/donations
func (ctrl *DonationController) ListAll(c *fiber.Ctx) error {
	rows, err := ctrl.Svc.ListAll(c.UserContext())
	if err != nil {
		return helper.FromError(c, err)
	}
	return helper.JsonList(c, "Donations fetched", dto.FromModels(rows))
}

// GET /api/a/donations/:id
func (ctrl *DonationController) GetByID(c *fiber.Ctx) error {
	id, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return helper.FromError(c, err)
	}
	d, err := ctrl.Svc.Get(c.UserContext(), id)
	if err != nil {
		return helper.FromError(c, err)
	}
	return helper.JsonOK(c, "Donation fetched", dto.FromModel(d))
}

// POST /api/a/donations/repair
func (ctrl *DonationController) RepairAggregates(c *fiber.Ctx) error {
	report, err := ctrl.Svc.RepairAggregates(c.UserContext())
	if err != nil {
		return helper.FromError(c, err)
	}
	return helper.JsonOK(c, "Campaign totals checked", report)
}
