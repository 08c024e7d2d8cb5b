package controller

import (
	"crowdfund_backend/internals/features/campaigns/campaigns/dto"
	"crowdfund_backend/internals/features/campaigns/campaigns/service"
	helper "crowdfund_backend/internals/helpers"

	"github.com/gofiber/fiber/v2"
)

type CampaignController struct {
	Svc *service.CampaignService
}

func NewCampaignController(svc *service.CampaignService) *CampaignController {
	return &CampaignController{Svc: svc}
}

/* ===================== Public ===================== */

// GET /api/campaigns
func (ctrl *CampaignController) ListDonatable(c *fiber.Ctx) error {
	rows, err := ctrl.Svc.ListDonatable(c.UserContext())
	if err != nil {
		return helper.FromError(c, err)
	}
	return helper.JsonList(c, "Campaigns fetched", dto.FromModels(rows))
}

// GET /api/campaigns/:id
func (ctrl *CampaignController) GetByID(c *fiber.Ctx) error {
	id, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return helper.FromError(c, err)
	}
	m, err := ctrl.Svc.Get(c.UserContext(), id)
	if err != nil {
		return helper.FromError(c, err)
	}
	return helper.JsonOK(c, "Campaign fetched", dto.FromModel(m))
}

/* ===================== User ===================== */

// POST /api/u/campaigns
func (ctrl *CampaignController) Create(c *fiber.Ctx) error {
	userID, err := helper.GetUserIDFromToken(c)
	if err != nil {
		return helper.FromError(c, err)
	}

	var req dto.CreateCampaignRequest
	if handled, err := helper.ParseAndValidate(c, &req); handled {
		return err
	}

	m, err := ctrl.Svc.Create(c.UserContext(), userID, req)
	if err != nil {
		return helper.FromError(c, err)
	}
	return helper.JsonCreated(c, "Campaign submitted for review", dto.FromModel(m))
}

// PATCH /api/u/campaigns/:id
func (ctrl *CampaignController) Update(c *fiber.Ctx) error {
	userID, err := helper.GetUserIDFromToken(c)
	if err != nil {
		return helper.FromError(c, err)
	}
	id, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return helper.FromError(c, err)
	}

	var req dto.UpdateCampaignRequest
	if handled, err := helper.ParseAndValidate(c, &req); handled {
		return err
	}

	m, err := ctrl.Svc.Update(c.UserContext(), userID, id, req)
	if err != nil {
		return helper.FromError(c, err)
	}
	return helper.JsonUpdated(c, "Campaign updated", dto.FromModel(m))
}

// DELETE /api/u/campaigns/:id
func (ctrl *CampaignController) Delete(c *fiber.Ctx) error {
	userID, err := helper.GetUserIDFromToken(c)
	if err != nil {
		return helper.FromError(c, err)
	}
	id, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return helper.FromError(c, err)
	}

	if err := ctrl.Svc.Delete(c.UserContext(), userID, id); err != nil {
		return helper.FromError(c, err)
	}
	return helper.JsonDeleted(c, "Campaign deleted", fiber.Map{"campaign_id": id})
}

// GET /api/u/campaigns/mine
func (ctrl *CampaignController) ListMine(c *fiber.Ctx) error {
	userID, err := helper.GetUserIDFromToken(c)
	if err != nil {
		return helper.FromError(c, err)
	}
	rows, err := ctrl.Svc.ListByCreator(c.UserContext(), userID)
	if err != nil {
		return helper.FromError(c, err)
	}
	return helper.JsonList(c, "Campaigns fetched", dto.FromModels(rows))
}

/* ===================== Admin ===================== */

// GET /api/a/campaigns
func (ctrl *CampaignController) ListAll(c *fiber.Ctx) error {
	rows, err := ctrl.Svc.ListAll(c.UserContext())
	if err != nil {
		return helper.FromError(c, err)
	}
	return helper.JsonList(c, "Campaigns fetched", dto.FromModels(rows))
}

// PATCH /api/a/campaigns/:id/approve
func (ctrl *CampaignController) Approve(c *fiber.Ctx) error {
	id, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return helper.FromError(c, err)
	}
	m, err := ctrl.Svc.Approve(c.UserContext(), id)
	if err != nil {
		return helper.FromError(c, err)
	}
	return helper.JsonUpdated(c, "Campaign approved", dto.FromModel(m))
}

// PATCH /api/a/campaigns/:id/reject
func (ctrl *CampaignController) Reject(c *fiber.Ctx) error {
	id, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return helper.FromError(c, err)
	}
	m, err := ctrl.Svc.Reject(c.UserContext(), id)
	if err != nil {
		return helper.FromError(c, err)
	}
	return helper.JsonUpdated(c, "Campaign rejected", dto.FromModel(m))
}

// PATCH /api/a/campaigns/:id/block
func (ctrl *CampaignController) ToggleBlock(c *fiber.Ctx) error {
	id, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return helper.FromError(c, err)
	}
	m, err := ctrl.Svc.ToggleBlock(c.UserContext(), id)
	if err != nil {
		return helper.FromError(c, err)
	}
	msg := "Campaign unblocked"
	if !m.CampaignIsActive {
		msg = "Campaign blocked"
	}
	return helper.JsonUpdated(c, msg, dto.FromModel(m))
}
