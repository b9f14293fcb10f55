package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "matinee/internal/errors"
	"matinee/internal/models"
)

func TestBookingServiceCreate(t *testing.T) {
	store := &fakeBookingStore{created: &models.Booking{
		ID:           21,
		SessionID:    3,
		HolderID:     7,
		AmountCents:  16800,
		PaymentState: models.BookingUnpaid,
	}}
	pub := &fakePublisher{}
	svc := NewBookingService(store, pub)

	resp, err := svc.Create(context.Background(), 3, 7)
	require.NoError(t, err)

	assert.Equal(t, int64(21), resp.ID)
	assert.Equal(t, models.BookingUnpaid, resp.PaymentState)
	assert.Equal(t, "168.00", resp.Amount)

	require.Len(t, pub.events, 1)
	event := pub.events[0].data.(models.BookingCreatedEvent)
	assert.Nil(t, event.ConvertedHold)
}

func TestBookingServiceCreateConvertsHold(t *testing.T) {
	holdID := int64(11)
	store := &fakeBookingStore{
		created:   &models.Booking{ID: 21, SessionID: 3, HolderID: 7, AmountCents: 9900, PaymentState: models.BookingUnpaid},
		converted: &holdID,
	}
	pub := &fakePublisher{}
	svc := NewBookingService(store, pub)

	_, err := svc.Create(context.Background(), 3, 7)
	require.NoError(t, err)

	require.Len(t, pub.events, 1)
	event := pub.events[0].data.(models.BookingCreatedEvent)
	require.NotNil(t, event.ConvertedHold)
	assert.Equal(t, holdID, *event.ConvertedHold)
}

func TestBookingServiceCreateRejected(t *testing.T) {
	store := &fakeBookingStore{createErr: apperrors.ErrDuplicateBooking}
	pub := &fakePublisher{}
	svc := NewBookingService(store, pub)

	_, err := svc.Create(context.Background(), 3, 7)
	assert.ErrorIs(t, err, apperrors.ErrDuplicateBooking)
	assert.Empty(t, pub.events)
}

func TestBookingServiceSettle(t *testing.T) {
	store := &fakeBookingStore{settled: &models.Settlement{
		ID:          "3f2c9a10-0000-0000-0000-000000000000",
		BookingID:   21,
		AmountCents: 16800,
		Channel:     models.ChannelWeChat,
		Kind:        models.SettlementPayment,
		Result:      "OK",
	}}
	pub := &fakePublisher{}
	svc := NewBookingService(store, pub)

	resp, err := svc.Settle(context.Background(), 21, models.ChannelWeChat)
	require.NoError(t, err)

	assert.Equal(t, "168.00", resp.Amount)
	assert.Equal(t, models.SettlementPayment, resp.Kind)
	assert.Equal(t, models.ChannelWeChat, store.gotChannel)

	require.Len(t, pub.events, 1)
	assert.Equal(t, models.EventPaymentSettled, pub.events[0].subject)
}

func TestBookingServiceSettleAlreadyPaid(t *testing.T) {
	store := &fakeBookingStore{settleErr: apperrors.ErrAlreadyPaid}
	svc := NewBookingService(store, &fakePublisher{})

	_, err := svc.Settle(context.Background(), 21, models.ChannelCash)
	assert.ErrorIs(t, err, apperrors.ErrAlreadyPaid)
}

func TestBookingServiceCancelUnpaid(t *testing.T) {
	store := &fakeBookingStore{cancelled: &models.Booking{
		ID:           21,
		SessionID:    3,
		HolderID:     7,
		AmountCents:  16800,
		PaymentState: models.BookingCancelled,
	}}
	pub := &fakePublisher{}
	svc := NewBookingService(store, pub)

	resp, err := svc.Cancel(context.Background(), 21, 7)
	require.NoError(t, err)

	assert.Equal(t, models.BookingCancelled, resp.PaymentState)
	require.Len(t, pub.events, 1)
	assert.Equal(t, models.EventBookingCancelled, pub.events[0].subject)
}

func TestBookingServiceCancelPaidEmitsRefund(t *testing.T) {
	store := &fakeBookingStore{
		cancelled: &models.Booking{ID: 21, SessionID: 3, HolderID: 7, AmountCents: 16800, PaymentState: models.BookingRefunded},
		refund: &models.Settlement{
			ID:          "9a1b0000-0000-0000-0000-000000000000",
			BookingID:   21,
			AmountCents: 16800,
			Channel:     models.ChannelAlipay,
			Kind:        models.SettlementRefund,
			Result:      "OK",
		},
	}
	pub := &fakePublisher{}
	svc := NewBookingService(store, pub)

	resp, err := svc.Cancel(context.Background(), 21, 7)
	require.NoError(t, err)
	assert.Equal(t, models.BookingRefunded, resp.PaymentState)

	require.Len(t, pub.events, 2)
	assert.Equal(t, models.EventBookingCancelled, pub.events[0].subject)
	assert.Equal(t, models.EventPaymentSettled, pub.events[1].subject)
	refund := pub.events[1].data.(models.PaymentSettledEvent)
	assert.Equal(t, models.SettlementRefund, refund.Kind)
}

func TestBookingServiceListScopedPassesScope(t *testing.T) {
	store := &fakeBookingStore{scoped: []models.BookingDetail{{ID: 1}}}
	svc := NewBookingService(store, nil)

	details, err := svc.ListScoped(context.Background(), models.ScopeHost(9))
	require.NoError(t, err)
	assert.Len(t, details, 1)
	require.NotNil(t, store.gotScope.HostID)
	assert.Equal(t, int64(9), *store.gotScope.HostID)
}
