package service

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"crowdfund_backend/internals/features/payment/gateway"
	"crowdfund_backend/internals/features/payment/gateway_events/model"
	"crowdfund_backend/internals/helpers/apperr"
)

// Handler applies one logged event and returns the donation it resolved to.
type Handler func(ctx context.Context, ev *model.PaymentGatewayEventModel) (*uuid.UUID, error)

type EventService struct {
	DB    *gorm.DB
	Apply Handler
	// MaxTries bounds replays of a failing event.
	MaxTries int
	// StaleAfter is how long a processing claim is honoured before replay may take it over.
	StaleAfter time.Duration
}

func NewEventService(db *gorm.DB) *EventService {
	return &EventService{DB: db, MaxTries: 10, StaleAfter: 5 * time.Minute}
}

/* ===================== Record ===================== */

// Record stores a verified webhook event. Redeliveries of the same
// (provider, event id) return the stored row with created=false.
// Events that do not confirm a payment are stored as ignored.
func (s *EventService) Record(ctx context.Context, provider string, ev *gateway.WebhookEvent) (row *model.PaymentGatewayEventModel, created bool, err error) {
	meta, _ := json.Marshal(ev.Metadata)
	row = &model.PaymentGatewayEventModel{
		GatewayEventProvider:   provider,
		GatewayEventExternalID: ev.ID,
		GatewayEventType:       ev.Type,
		GatewayEventSessionID:  nonEmpty(ev.SessionID),
		GatewayEventPaymentID:  nonEmpty(ev.PaymentID),
		GatewayEventPayload:    datatypes.JSON(rawJSON(ev.Raw)),
		GatewayEventMetadata:   datatypes.JSON(meta),
		GatewayEventStatus:     model.GatewayEventStatusReceived,
	}
	if !ev.Completed {
		now := time.Now()
		row.GatewayEventStatus = model.GatewayEventStatusIgnored
		row.GatewayEventProcessedAt = &now
	}

	res := s.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "gateway_event_provider"}, {Name: "gateway_event_external_id"}},
		DoNothing: true,
	}).Create(row)
	if res.Error != nil {
		return nil, false, apperr.Internal(res.Error, "failed to record gateway event")
	}
	if res.RowsAffected == 1 {
		return row, true, nil
	}

	var existing model.PaymentGatewayEventModel
	if err := s.DB.WithContext(ctx).
		Where("gateway_event_provider = ? AND gateway_event_external_id = ?", provider, ev.ID).
		Take(&existing).Error; err != nil {
		return nil, false, apperr.Internal(err, "failed to load gateway event")
	}
	return &existing, false, nil
}

/* ===================== Process ===================== */

// Process claims the event, applies it and records the outcome. It is a
// no-op for events that are done or currently claimed by another worker.
func (s *EventService) Process(ctx context.Context, id uuid.UUID) error {
	ev, ok, err := s.claim(ctx, id)
	if err != nil || !ok {
		return err
	}
	if s.Apply == nil {
		return s.markFailed(ctx, id, errors.New("no handler configured"), false)
	}

	donationID, applyErr := s.Apply(ctx, ev)
	if applyErr != nil {
		log.Printf("[WARN] gateway event %s (%s %s) failed, try %d: %v",
			id, ev.GatewayEventProvider, ev.GatewayEventExternalID, ev.GatewayEventTryCount, applyErr)
		if err := s.markFailed(ctx, id, applyErr, isPermanent(applyErr)); err != nil {
			return err
		}
		return applyErr
	}
	return s.markSuccess(ctx, id, donationID)
}

func (s *EventService) claim(ctx context.Context, id uuid.UUID) (*model.PaymentGatewayEventModel, bool, error) {
	var ev model.PaymentGatewayEventModel
	claimed := false
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.PaymentGatewayEventModel{}).
			Where("gateway_event_id = ?", id).
			Where("(gateway_event_status IN ? OR (gateway_event_status = ? AND gateway_event_updated_at < ?))",
				[]string{string(model.GatewayEventStatusReceived), string(model.GatewayEventStatusFailed)},
				string(model.GatewayEventStatusProcessing), time.Now().Add(-s.StaleAfter)).
			Updates(map[string]any{
				"gateway_event_status":    model.GatewayEventStatusProcessing,
				"gateway_event_try_count": gorm.Expr("gateway_event_try_count + 1"),
			})
		if res.Error != nil {
			return res.Error
		}
		claimed = res.RowsAffected == 1
		return tx.Where("gateway_event_id = ?", id).Take(&ev).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, apperr.NotFound("gateway event not found")
		}
		return nil, false, apperr.Internal(err, "failed to claim gateway event")
	}
	return &ev, claimed, nil
}

func (s *EventService) markSuccess(ctx context.Context, id uuid.UUID, donationID *uuid.UUID) error {
	updates := map[string]any{
		"gateway_event_status":       model.GatewayEventStatusSuccess,
		"gateway_event_error":        nil,
		"gateway_event_processed_at": time.Now(),
	}
	if donationID != nil {
		updates["gateway_event_donation_id"] = *donationID
	}
	if err := s.DB.WithContext(ctx).Model(&model.PaymentGatewayEventModel{}).
		Where("gateway_event_id = ?", id).Updates(updates).Error; err != nil {
		return apperr.Internal(err, "failed to mark gateway event")
	}
	return nil
}

// markFailed leaves the event for replay unless permanent, in which case the
// try budget is exhausted so replay skips it.
func (s *EventService) markFailed(ctx context.Context, id uuid.UUID, cause error, permanent bool) error {
	updates := map[string]any{
		"gateway_event_status":       model.GatewayEventStatusFailed,
		"gateway_event_error":        cause.Error(),
		"gateway_event_processed_at": time.Now(),
	}
	if permanent {
		updates["gateway_event_try_count"] = s.MaxTries
	}
	if err := s.DB.WithContext(ctx).Model(&model.PaymentGatewayEventModel{}).
		Where("gateway_event_id = ?", id).
		Updates(updates).Error; err != nil {
		return apperr.Internal(err, "failed to mark gateway event")
	}
	return nil
}

/* ===================== Replay ===================== */

// Replay re-processes events that never reached a final state, oldest
// first. It returns how many were picked up without error.
func (s *EventService) Replay(ctx context.Context, limit int) (int, error) {
	if limit <= 0 {
		limit = 100
	}
	var ids []uuid.UUID
	err := s.DB.WithContext(ctx).Model(&model.PaymentGatewayEventModel{}).
		Where("gateway_event_try_count < ?", s.MaxTries).
		Where("(gateway_event_status IN ? OR (gateway_event_status = ? AND gateway_event_updated_at < ?))",
			[]string{string(model.GatewayEventStatusReceived), string(model.GatewayEventStatusFailed)},
			string(model.GatewayEventStatusProcessing), time.Now().Add(-s.StaleAfter)).
		Order("gateway_event_received_at ASC").
		Limit(limit).
		Pluck("gateway_event_id", &ids).Error
	if err != nil {
		return 0, apperr.Internal(err, "failed to list pending gateway events")
	}

	applied := 0
	for _, id := range ids {
		if err := s.Process(ctx, id); err != nil {
			continue
		}
		applied++
	}
	if len(ids) > 0 {
		log.Printf("[INFO] gateway event replay: %d/%d applied", applied, len(ids))
	}
	return applied, nil
}

/* ===================== Queries ===================== */

type ListFilter struct {
	Provider string
	Status   string
	Limit    int
}

func (s *EventService) List(ctx context.Context, f ListFilter) ([]model.PaymentGatewayEventModel, error) {
	q := s.DB.WithContext(ctx).Model(&model.PaymentGatewayEventModel{})
	if p := strings.TrimSpace(f.Provider); p != "" {
		q = q.Where("gateway_event_provider = ?", strings.ToLower(p))
	}
	if st := strings.TrimSpace(f.Status); st != "" {
		q = q.Where("gateway_event_status = ?", strings.ToLower(st))
	}
	limit := f.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	var rows []model.PaymentGatewayEventModel
	if err := q.Order("gateway_event_received_at DESC").Limit(limit).Find(&rows).Error; err != nil {
		return nil, apperr.Internal(err, "failed to list gateway events")
	}
	return rows, nil
}

func (s *EventService) Get(ctx context.Context, id uuid.UUID) (*model.PaymentGatewayEventModel, error) {
	var ev model.PaymentGatewayEventModel
	if err := s.DB.WithContext(ctx).Where("gateway_event_id = ?", id).Take(&ev).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("gateway event not found")
		}
		return nil, apperr.Internal(err, "failed to load gateway event")
	}
	return &ev, nil
}

/* ===================== Utils ===================== */

// Retrying cannot fix a payload that does not parse or a campaign that is gone.
func isPermanent(err error) bool {
	switch apperr.KindOf(err) {
	case apperr.KindMetadataParse, apperr.KindValidation, apperr.KindNotFound:
		return true
	}
	return false
}

func nonEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func rawJSON(b []byte) []byte {
	if json.Valid(b) {
		return b
	}
	out, _ := json.Marshal(string(b))
	return out
}

// MetadataOf decodes the normalized metadata stored with the event.
func MetadataOf(ev *model.PaymentGatewayEventModel) map[string]string {
	out := map[string]string{}
	if len(ev.GatewayEventMetadata) > 0 {
		_ = json.Unmarshal(ev.GatewayEventMetadata, &out)
	}
	return out
}
