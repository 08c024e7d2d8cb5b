package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"crowdfund_backend/internals/configs"
	"crowdfund_backend/internals/constants"
	campaignModel "crowdfund_backend/internals/features/campaigns/campaigns/model"
	"crowdfund_backend/internals/features/donations/donations/model"
	"crowdfund_backend/internals/features/donations/donations/repository"
	"crowdfund_backend/internals/features/payment/gateway"
	"crowdfund_backend/internals/features/payment/gateway/gatewaytest"
	eventModel "crowdfund_backend/internals/features/payment/gateway_events/model"
	"crowdfund_backend/internals/helpers/apperr"
	"crowdfund_backend/internals/testutil"
)

type fixture struct {
	svc      *DonationService
	gw       *gatewaytest.Gateway
	db       *gorm.DB
	donor    uuid.UUID
	campaign *campaignModel.CampaignModel
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.NewDB(t)
	gw := gatewaytest.New()
	creator := testutil.SeedUser(t, db, constants.RoleUser)
	donor := testutil.SeedUser(t, db, constants.RoleUser)

	svc := NewDonationService(db, gw, configs.DonationConfig{
		MinAmount:  200,
		MinGoal:    1000,
		Currency:   "usd",
		SuccessURL: "https://app.test/donation/success?session_id={SESSION_ID}",
		CancelURL:  "https://app.test/campaign/{CAMPAIGN_ID}",
	})
	return &fixture{
		svc:      svc,
		gw:       gw,
		db:       db,
		donor:    donor.ID,
		campaign: testutil.SeedCampaign(t, db, creator.ID, testutil.CampaignOpts{}),
	}
}

func (f *fixture) raised(t *testing.T) int64 {
	t.Helper()
	return testutil.ReloadCampaign(t, f.db, f.campaign.CampaignID).CampaignRaisedAmount
}

func (f *fixture) donations(t *testing.T) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.db.Model(&model.DonationModel{}).Count(&n).Error)
	return n
}

// checkoutAndPay opens a session and marks it paid at the fake processor.
func (f *fixture) checkoutAndPay(t *testing.T, amount int64, paymentID string) string {
	t.Helper()
	res, err := f.svc.CreateCheckoutSession(context.Background(), f.campaign.CampaignID, f.donor, amount)
	require.NoError(t, err)
	f.gw.Complete(res.SessionID, paymentID)
	return res.SessionID
}

func (f *fixture) meta(amount int64) DonationMetadata {
	return DonationMetadata{CampaignID: f.campaign.CampaignID, DonorID: f.donor, Amount: amount}
}

/* ===================== Checkout ===================== */

func TestCreateCheckoutSession_PassesMetadata(t *testing.T) {
	f := newFixture(t)

	res, err := f.svc.CreateCheckoutSession(context.Background(), f.campaign.CampaignID, f.donor, 500)
	require.NoError(t, err)
	assert.NotEmpty(t, res.SessionID)
	assert.NotEmpty(t, res.RedirectURL)

	req := f.gw.LastRequest()
	assert.Equal(t, map[string]string{
		gateway.MetaCampaignID: f.campaign.CampaignID.String(),
		gateway.MetaDonorID:    f.donor.String(),
		gateway.MetaAmount:     "500",
	}, req.Metadata())
	assert.Equal(t, "usd", req.Currency)
	assert.Equal(t, f.campaign.CampaignTitle, req.CampaignTitle)

	// nothing is recorded until the payment is confirmed
	assert.Zero(t, f.donations(t))
	assert.Zero(t, f.raised(t))
}

func TestCreateCheckoutSession_Rejections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.CreateCheckoutSession(ctx, f.campaign.CampaignID, f.donor, 199)
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))

	_, err = f.svc.CreateCheckoutSession(ctx, uuid.New(), f.donor, 500)
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))

	for _, st := range []campaignModel.CampaignStatus{
		campaignModel.CampaignStatusPending,
		campaignModel.CampaignStatusRejected,
		campaignModel.CampaignStatusBlocked,
	} {
		c := testutil.SeedCampaign(t, f.db, f.donor, testutil.CampaignOpts{Status: st})
		_, err = f.svc.CreateCheckoutSession(ctx, c.CampaignID, f.donor, 500)
		assert.True(t, apperr.IsKind(err, apperr.KindStateConflict), "status %s", st)
	}

	assert.Zero(t, f.gw.CreateCalls(), "no session may be opened for a rejected checkout")
}

func TestCreateCheckoutSession_ProcessorFailure(t *testing.T) {
	f := newFixture(t)
	f.gw.CreateErr = errors.New("processor down")

	_, err := f.svc.CreateCheckoutSession(context.Background(), f.campaign.CampaignID, f.donor, 500)
	assert.True(t, apperr.IsKind(err, apperr.KindProcessor))
}

/* ===================== Client verification ===================== */

func TestVerifyCheckoutSession_RecordsOnceAndIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.svc.CreateCheckoutSession(ctx, f.campaign.CampaignID, f.donor, 500)
	require.NoError(t, err)

	_, err = f.svc.VerifyCheckoutSession(ctx, res.SessionID)
	assert.True(t, apperr.IsKind(err, apperr.KindPaymentIncomplete))
	assert.Zero(t, f.donations(t))

	f.gw.Complete(res.SessionID, "pi_1")

	first, err := f.svc.VerifyCheckoutSession(ctx, res.SessionID)
	require.NoError(t, err)
	assert.Equal(t, repository.Inserted, first.Outcome)
	assert.Equal(t, int64(500), first.Donation.DonationAmount)
	assert.Equal(t, f.donor, first.Donation.DonationDonorID)
	assert.Equal(t, "pi_1", first.Donation.DonationExternalPaymentID)
	assert.Equal(t, model.DonationStatusSuccessful, first.Donation.DonationStatus)
	assert.Equal(t, int64(500), first.Campaign.CampaignRaisedAmount)

	again, err := f.svc.VerifyCheckoutSession(ctx, res.SessionID)
	require.NoError(t, err)
	assert.Equal(t, repository.AlreadyExists, again.Outcome)
	assert.Equal(t, first.Donation.DonationID, again.Donation.DonationID)

	assert.Equal(t, int64(500), f.raised(t))
	assert.Equal(t, int64(1), f.donations(t))
}

func TestVerifyCheckoutSession_Failures(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.VerifyCheckoutSession(ctx, "cs_unknown")
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))

	_, err = f.svc.VerifyCheckoutSession(ctx, "  ")
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))

	f.gw.AddSession(gateway.SessionState{
		SessionID: "cs_bad_meta",
		PaymentID: "pi_bad",
		Status:    gateway.StatusPaid,
		Metadata:  map[string]string{gateway.MetaCampaignID: f.campaign.CampaignID.String(), gateway.MetaAmount: "500"},
	})
	_, err = f.svc.VerifyCheckoutSession(ctx, "cs_bad_meta")
	assert.True(t, apperr.IsKind(err, apperr.KindMetadataParse))

	sess := f.checkoutAndPay(t, 500, "pi_2")
	f.gw.RetrieveErr = errors.New("timeout")
	_, err = f.svc.VerifyCheckoutSession(ctx, sess)
	assert.True(t, apperr.IsKind(err, apperr.KindProcessor))

	assert.Zero(t, f.donations(t))
	assert.Zero(t, f.raised(t))
}

/* ===================== Reconcile ===================== */

func TestVerifyCheckoutSession_CompletesWhenCallerGoesAway(t *testing.T) {
	f := newFixture(t)
	sess := f.checkoutAndPay(t, 500, "pi_cancel")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := f.svc.VerifyCheckoutSession(ctx, sess)
	require.NoError(t, err)
	assert.Equal(t, repository.Inserted, res.Outcome)
	assert.Equal(t, int64(1), f.donations(t))
	assert.Equal(t, int64(500), f.raised(t))
}

func TestReconcile_UnknownCampaignRecordsNothing(t *testing.T) {
	f := newFixture(t)
	meta := f.meta(500)
	meta.CampaignID = uuid.New()

	_, err := f.svc.Reconcile(context.Background(), "pi_orphan", meta)
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
	assert.Zero(t, f.donations(t))
}

// A confirmed payment is recorded even if the campaign was blocked or
// expired after checkout.
func TestReconcile_IgnoresCampaignStatus(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.db.Model(&campaignModel.CampaignModel{}).
		Where("campaign_id = ?", f.campaign.CampaignID).
		Updates(map[string]any{"campaign_status": campaignModel.CampaignStatusBlocked, "campaign_is_active": false}).Error)

	res, err := f.svc.Reconcile(context.Background(), "pi_late", f.meta(700))
	require.NoError(t, err)
	assert.Equal(t, repository.Inserted, res.Outcome)
	assert.Equal(t, int64(700), f.raised(t))
}

func TestReconcile_ConcurrentSamePaymentCountsOnce(t *testing.T) {
	f := newFixture(t)
	const workers = 8

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		outcomes = map[repository.Outcome]int{}
		ids      = map[uuid.UUID]bool{}
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := f.svc.Reconcile(context.Background(), "pi_race", f.meta(500))
			if !assert.NoError(t, err) {
				return
			}
			mu.Lock()
			outcomes[res.Outcome]++
			ids[res.Donation.DonationID] = true
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, outcomes[repository.Inserted])
	assert.Equal(t, workers-1, outcomes[repository.AlreadyExists])
	assert.Len(t, ids, 1)
	assert.Equal(t, int64(500), f.raised(t))
	assert.Equal(t, int64(1), f.donations(t))
}

func TestReconcile_ConcurrentDistinctPaymentsAllCount(t *testing.T) {
	f := newFixture(t)
	amounts := []int64{200, 300, 500, 800, 1300}

	var wg sync.WaitGroup
	for i, amount := range amounts {
		wg.Add(1)
		go func(i int, amount int64) {
			defer wg.Done()
			_, err := f.svc.Reconcile(context.Background(), fmt.Sprintf("pi_%d", i), f.meta(amount))
			assert.NoError(t, err)
		}(i, amount)
	}
	wg.Wait()

	sum, err := repository.SumSuccessful(f.db, f.campaign.CampaignID)
	require.NoError(t, err)
	assert.Equal(t, int64(3100), sum)
	assert.Equal(t, sum, f.raised(t))
}

/* ===================== Webhook ===================== */

func TestHandlePaymentWebhook_ThenVerifyCountsOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sess := f.checkoutAndPay(t, 500, "pi_hook")

	payload, sig := f.gw.CompletedEvent("evt_1", sess)
	ack, err := f.svc.HandlePaymentWebhook(ctx, payload, sig)
	require.NoError(t, err)
	assert.Equal(t, AckQueued, ack.Status)
	require.NotNil(t, ack.EventID)
	assert.Equal(t, int64(500), f.raised(t))

	ev, err := f.svc.Events.Get(ctx, *ack.EventID)
	require.NoError(t, err)
	assert.Equal(t, eventModel.GatewayEventStatusSuccess, ev.GatewayEventStatus)
	require.NotNil(t, ev.GatewayEventDonationID)

	res, err := f.svc.VerifyCheckoutSession(ctx, sess)
	require.NoError(t, err)
	assert.Equal(t, repository.AlreadyExists, res.Outcome)
	assert.Equal(t, *ev.GatewayEventDonationID, res.Donation.DonationID)

	redelivered, err := f.svc.HandlePaymentWebhook(ctx, payload, sig)
	require.NoError(t, err)
	assert.Equal(t, AckDuplicate, redelivered.Status)

	// same payment under a new event id still counts once
	payload2, sig2 := f.gw.CompletedEvent("evt_2", sess)
	_, err = f.svc.HandlePaymentWebhook(ctx, payload2, sig2)
	require.NoError(t, err)

	assert.Equal(t, int64(500), f.raised(t))
	assert.Equal(t, int64(1), f.donations(t))
}

func TestHandlePaymentWebhook_BadSignature(t *testing.T) {
	f := newFixture(t)
	sess := f.checkoutAndPay(t, 500, "pi_sig")
	payload, _ := f.gw.CompletedEvent("evt_sig", sess)

	_, err := f.svc.HandlePaymentWebhook(context.Background(), payload, "deadbeef")
	assert.True(t, apperr.IsKind(err, apperr.KindSignatureInvalid))

	var n int64
	require.NoError(t, f.db.Model(&eventModel.PaymentGatewayEventModel{}).Count(&n).Error)
	assert.Zero(t, n)
	assert.Zero(t, f.donations(t))
}

func TestHandlePaymentWebhook_UnparsableMidtransBodyIsAcked(t *testing.T) {
	f := newFixture(t)
	svc := NewDonationService(f.db, gateway.NewMidtrans("server-key", false), f.svc.Settings)

	ack, err := svc.HandlePaymentWebhook(context.Background(), []byte("<html>not json</html>"), "")
	require.NoError(t, err)
	assert.Equal(t, AckError, ack.Status)
	assert.Zero(t, f.donations(t))
}

func TestHandlePaymentWebhook_OtherEventTypesAreIgnored(t *testing.T) {
	f := newFixture(t)
	payload, sig := f.gw.SignedEvent(gatewaytest.Event{
		ID:        "evt_expired",
		Type:      gatewaytest.EventExpired,
		SessionID: "cs_test_9",
	})

	ack, err := f.svc.HandlePaymentWebhook(context.Background(), payload, sig)
	require.NoError(t, err)
	assert.Equal(t, AckIgnored, ack.Status)
	assert.Zero(t, f.donations(t))
}

func TestHandlePaymentWebhook_BadMetadataIsAckedNotRecorded(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	payload, sig := f.gw.SignedEvent(gatewaytest.Event{
		ID:        "evt_meta",
		Type:      gatewaytest.EventCompleted,
		SessionID: "cs_test_7",
		PaymentID: "pi_meta",
		Metadata:  map[string]string{gateway.MetaAmount: "500"},
	})

	ack, err := f.svc.HandlePaymentWebhook(ctx, payload, sig)
	require.NoError(t, err)
	assert.Equal(t, AckQueued, ack.Status)
	assert.Zero(t, f.donations(t))

	ev, err := f.svc.Events.Get(ctx, *ack.EventID)
	require.NoError(t, err)
	assert.Equal(t, eventModel.GatewayEventStatusFailed, ev.GatewayEventStatus)
	assert.Equal(t, f.svc.Events.MaxTries, ev.GatewayEventTryCount)
}

/* ===================== Queries & repair ===================== */

func TestListByCampaign(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Reconcile(ctx, "pi_a", f.meta(300))
	require.NoError(t, err)
	_, err = f.svc.Reconcile(ctx, "pi_b", f.meta(400))
	require.NoError(t, err)

	rows, err := f.svc.ListByCampaign(ctx, f.campaign.CampaignID)
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	mine, err := f.svc.ListByDonor(ctx, f.donor)
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	_, err = f.svc.ListByCampaign(ctx, uuid.New())
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))

	_, err = f.svc.Get(ctx, uuid.New())
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
}

func TestRepairAggregates_FixesDrift(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Reconcile(ctx, "pi_r", f.meta(500))
	require.NoError(t, err)
	require.NoError(t, f.db.Model(&campaignModel.CampaignModel{}).
		Where("campaign_id = ?", f.campaign.CampaignID).
		UpdateColumn("campaign_raised_amount", 9999).Error)

	report, err := f.svc.RepairAggregates(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Checked)
	require.Len(t, report.Corrections, 1)
	assert.Equal(t, Correction{CampaignID: f.campaign.CampaignID, Before: 9999, After: 500}, report.Corrections[0])
	assert.Equal(t, int64(500), f.raised(t))

	report, err = f.svc.RepairAggregates(ctx)
	require.NoError(t, err)
	assert.Empty(t, report.Corrections)
}
