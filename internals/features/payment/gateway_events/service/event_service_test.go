package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crowdfund_backend/internals/features/payment/gateway"
	"crowdfund_backend/internals/features/payment/gateway_events/model"
	"crowdfund_backend/internals/helpers/apperr"
	"crowdfund_backend/internals/testutil"
)

func completedEvent(id string) *gateway.WebhookEvent {
	return &gateway.WebhookEvent{
		ID:        id,
		Type:      "checkout.session.completed",
		Completed: true,
		SessionID: "cs_" + id,
		PaymentID: "pi_" + id,
		Metadata:  map[string]string{gateway.MetaAmount: "500"},
		Raw:       []byte(`{"id":"` + id + `"}`),
	}
}

func newEventService(t *testing.T, apply Handler) *EventService {
	t.Helper()
	s := NewEventService(testutil.NewDB(t))
	s.Apply = apply
	return s
}

func reload(t *testing.T, s *EventService, id uuid.UUID) *model.PaymentGatewayEventModel {
	t.Helper()
	row, err := s.Get(context.Background(), id)
	require.NoError(t, err)
	return row
}

func TestRecord_RedeliveryReturnsStoredRow(t *testing.T) {
	s := newEventService(t, nil)
	ctx := context.Background()

	first, created, err := s.Record(ctx, "stripe", completedEvent("evt_1"))
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, model.GatewayEventStatusReceived, first.GatewayEventStatus)

	again, created, err := s.Record(ctx, "stripe", completedEvent("evt_1"))
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.GatewayEventID, again.GatewayEventID)

	// same event id from another provider is a different event
	_, created, err = s.Record(ctx, "midtrans", completedEvent("evt_1"))
	require.NoError(t, err)
	assert.True(t, created)
}

func TestRecord_NonCompletedIsIgnored(t *testing.T) {
	s := newEventService(t, nil)
	ev := completedEvent("evt_2")
	ev.Completed = false
	ev.Type = "checkout.session.expired"

	row, _, err := s.Record(context.Background(), "stripe", ev)
	require.NoError(t, err)
	assert.Equal(t, model.GatewayEventStatusIgnored, row.GatewayEventStatus)
	assert.True(t, row.Done())
	assert.NotNil(t, row.GatewayEventProcessedAt)
}

func TestProcess_Success(t *testing.T) {
	donationID := uuid.New()
	var calls int
	s := newEventService(t, func(_ context.Context, ev *model.PaymentGatewayEventModel) (*uuid.UUID, error) {
		calls++
		assert.Equal(t, "500", MetadataOf(ev)[gateway.MetaAmount])
		return &donationID, nil
	})
	ctx := context.Background()

	row, _, err := s.Record(ctx, "stripe", completedEvent("evt_3"))
	require.NoError(t, err)
	require.NoError(t, s.Process(ctx, row.GatewayEventID))

	got := reload(t, s, row.GatewayEventID)
	assert.Equal(t, model.GatewayEventStatusSuccess, got.GatewayEventStatus)
	assert.Equal(t, 1, got.GatewayEventTryCount)
	require.NotNil(t, got.GatewayEventDonationID)
	assert.Equal(t, donationID, *got.GatewayEventDonationID)

	// done events are not applied twice
	require.NoError(t, s.Process(ctx, row.GatewayEventID))
	assert.Equal(t, 1, calls)
}

func TestProcess_TransientFailureIsReplayed(t *testing.T) {
	fail := true
	s := newEventService(t, func(context.Context, *model.PaymentGatewayEventModel) (*uuid.UUID, error) {
		if fail {
			return nil, errors.New("connection reset")
		}
		return nil, nil
	})
	ctx := context.Background()

	row, _, err := s.Record(ctx, "stripe", completedEvent("evt_4"))
	require.NoError(t, err)
	require.Error(t, s.Process(ctx, row.GatewayEventID))

	got := reload(t, s, row.GatewayEventID)
	assert.Equal(t, model.GatewayEventStatusFailed, got.GatewayEventStatus)
	require.NotNil(t, got.GatewayEventError)
	assert.Contains(t, *got.GatewayEventError, "connection reset")

	fail = false
	n, err := s.Replay(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got = reload(t, s, row.GatewayEventID)
	assert.Equal(t, model.GatewayEventStatusSuccess, got.GatewayEventStatus)
	assert.Equal(t, 2, got.GatewayEventTryCount)
}

func TestProcess_PermanentFailureIsNotReplayed(t *testing.T) {
	var calls int
	s := newEventService(t, func(context.Context, *model.PaymentGatewayEventModel) (*uuid.UUID, error) {
		calls++
		return nil, apperr.MetadataParse("metadata campaign_id is missing")
	})
	ctx := context.Background()

	row, _, err := s.Record(ctx, "stripe", completedEvent("evt_5"))
	require.NoError(t, err)
	err = s.Process(ctx, row.GatewayEventID)
	assert.True(t, apperr.IsKind(err, apperr.KindMetadataParse))

	got := reload(t, s, row.GatewayEventID)
	assert.Equal(t, model.GatewayEventStatusFailed, got.GatewayEventStatus)
	assert.Equal(t, s.MaxTries, got.GatewayEventTryCount)

	n, err := s.Replay(ctx, 10)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Equal(t, 1, calls)
}

func TestProcess_UnknownEvent(t *testing.T) {
	s := newEventService(t, nil)
	err := s.Process(context.Background(), uuid.New())
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
}

func TestList_Filters(t *testing.T) {
	s := newEventService(t, nil)
	ctx := context.Background()

	_, _, err := s.Record(ctx, "stripe", completedEvent("evt_a"))
	require.NoError(t, err)
	ignored := completedEvent("evt_b")
	ignored.Completed = false
	_, _, err = s.Record(ctx, "stripe", ignored)
	require.NoError(t, err)
	_, _, err = s.Record(ctx, "midtrans", completedEvent("evt_c"))
	require.NoError(t, err)

	rows, err := s.List(ctx, ListFilter{Provider: "stripe"})
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	rows, err = s.List(ctx, ListFilter{Status: string(model.GatewayEventStatusIgnored)})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "evt_b", rows[0].GatewayEventExternalID)
}
