package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"crowdfund_backend/internals/configs"
	campaignModel "crowdfund_backend/internals/features/campaigns/campaigns/model"
	"crowdfund_backend/internals/features/donations/donations/model"
	"crowdfund_backend/internals/features/donations/donations/repository"
	"crowdfund_backend/internals/features/payment/gateway"
	eventService "crowdfund_backend/internals/features/payment/gateway_events/service"
	"crowdfund_backend/internals/helpers/apperr"
)

// DonationService is checkout, reconciliation and the ledger queries.
// Storage, processor and event queue are injected so tests can swap them.
type DonationService struct {
	DB       *gorm.DB
	Gateway  gateway.Gateway
	Events   *eventService.EventService
	Dispatch eventService.Dispatcher
	Settings configs.DonationConfig
}

// NewDonationService wires the event log to this service's reconciler and
// applies webhook events inline until UseDispatcher says otherwise.
func NewDonationService(db *gorm.DB, gw gateway.Gateway, settings configs.DonationConfig) *DonationService {
	s := &DonationService{
		DB:       db,
		Gateway:  gw,
		Events:   eventService.NewEventService(db),
		Settings: settings,
	}
	s.Events.Apply = s.applyEvent
	s.Dispatch = &eventService.InlineDispatcher{Events: s.Events}
	return s
}

func (s *DonationService) UseDispatcher(d eventService.Dispatcher) {
	s.Dispatch = d
}

/* ===================== Ledger queries ===================== */

// ListByCampaign returns the campaign's successful donations, newest first.
func (s *DonationService) ListByCampaign(ctx context.Context, campaignID uuid.UUID) ([]model.DonationModel, error) {
	db := s.DB.WithContext(ctx)
	if _, err := findCampaign(db, campaignID); err != nil {
		return nil, err
	}
	rows, err := repository.ListByCampaign(db, campaignID)
	if err != nil {
		return nil, apperr.Internal(err, "failed to list donations")
	}
	return rows, nil
}

func (s *DonationService) ListByDonor(ctx context.Context, donorID uuid.UUID) ([]model.DonationModel, error) {
	rows, err := repository.ListByDonor(s.DB.WithContext(ctx), donorID)
	if err != nil {
		return nil, apperr.Internal(err, "failed to list donations")
	}
	return rows, nil
}

func (s *DonationService) ListAll(ctx context.Context) ([]model.DonationModel, error) {
	rows, err := repository.ListAll(s.DB.WithContext(ctx))
	if err != nil {
		return nil, apperr.Internal(err, "failed to list donations")
	}
	return rows, nil
}

func (s *DonationService) Get(ctx context.Context, id uuid.UUID) (*model.DonationModel, error) {
	d, err := repository.FindByID(s.DB.WithContext(ctx), id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, apperr.NotFound("donation not found")
		}
		return nil, apperr.Internal(err, "failed to load donation")
	}
	return d, nil
}

func findCampaign(db *gorm.DB, id uuid.UUID) (*campaignModel.CampaignModel, error) {
	var c campaignModel.CampaignModel
	if err := db.Where("campaign_id = ?", id).Take(&c).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("campaign not found")
		}
		return nil, apperr.Internal(err, "failed to load campaign")
	}
	return &c, nil
}

// asProcessor keeps the error kind an adapter chose, defaulting to Processor.
func asProcessor(err error, msg string) error {
	var ae *apperr.Error
	if errors.As(err, &ae) {
		return err
	}
	return apperr.Processor(err, "%s", msg)
}
