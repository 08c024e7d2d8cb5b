package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type GatewayEventStatus string

const (
	GatewayEventStatusReceived   GatewayEventStatus = "received"
	GatewayEventStatusProcessing GatewayEventStatus = "processing"
	GatewayEventStatusSuccess    GatewayEventStatus = "success"
	GatewayEventStatusFailed     GatewayEventStatus = "failed"
	GatewayEventStatusIgnored    GatewayEventStatus = "ignored"
)

/*
  payment_gateway_events = signature-verified webhook log
  - one row per (provider, event id); redeliveries hit the unique index.
  - payload is the raw body as received, metadata the normalized
    {campaign_id, donor_id, amount} bag used to apply it.
  - rows stuck in received/failed are replayed until try_count runs out.
*/

type PaymentGatewayEventModel struct {
	GatewayEventID uuid.UUID `gorm:"column:gateway_event_id;type:uuid;primaryKey" json:"gateway_event_id"`

	GatewayEventProvider   string  `gorm:"column:gateway_event_provider;type:varchar(20);not null;uniqueIndex:uq_gw_event_provider_extid,priority:1" json:"gateway_event_provider"`
	GatewayEventExternalID string  `gorm:"column:gateway_event_external_id;type:varchar(255);not null;uniqueIndex:uq_gw_event_provider_extid,priority:2" json:"gateway_event_external_id"`
	GatewayEventType       string  `gorm:"column:gateway_event_type;type:varchar(80);not null" json:"gateway_event_type"`
	GatewayEventSessionID  *string `gorm:"column:gateway_event_session_id;type:varchar(255)" json:"gateway_event_session_id,omitempty"`
	GatewayEventPaymentID  *string `gorm:"column:gateway_event_payment_id;type:varchar(255);index" json:"gateway_event_payment_id,omitempty"`

	GatewayEventPayload  datatypes.JSON `gorm:"column:gateway_event_payload" json:"gateway_event_payload"`
	GatewayEventMetadata datatypes.JSON `gorm:"column:gateway_event_metadata" json:"gateway_event_metadata"`

	GatewayEventStatus   GatewayEventStatus `gorm:"column:gateway_event_status;type:varchar(20);not null;default:'received';index" json:"gateway_event_status"`
	GatewayEventError    *string            `gorm:"column:gateway_event_error;type:text" json:"gateway_event_error,omitempty"`
	GatewayEventTryCount int                `gorm:"column:gateway_event_try_count;not null;default:0" json:"gateway_event_try_count"`

	GatewayEventDonationID *uuid.UUID `gorm:"column:gateway_event_donation_id;type:uuid" json:"gateway_event_donation_id,omitempty"`

	GatewayEventReceivedAt  time.Time  `gorm:"column:gateway_event_received_at;autoCreateTime;index" json:"gateway_event_received_at"`
	GatewayEventProcessedAt *time.Time `gorm:"column:gateway_event_processed_at" json:"gateway_event_processed_at,omitempty"`
	GatewayEventUpdatedAt   time.Time  `gorm:"column:gateway_event_updated_at;autoUpdateTime" json:"gateway_event_updated_at"`
}

func (PaymentGatewayEventModel) TableName() string {
	return "payment_gateway_events"
}

func (m *PaymentGatewayEventModel) BeforeCreate(*gorm.DB) error {
	if m.GatewayEventID == uuid.Nil {
		m.GatewayEventID = uuid.New()
	}
	if m.GatewayEventStatus == "" {
		m.GatewayEventStatus = GatewayEventStatusReceived
	}
	return nil
}

// Done reports whether nothing further will happen to the event.
func (m *PaymentGatewayEventModel) Done() bool {
	return m.GatewayEventStatus == GatewayEventStatusSuccess ||
		m.GatewayEventStatus == GatewayEventStatusIgnored
}
