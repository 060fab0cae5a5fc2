package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"gatherly/api/internal/models"
	"gatherly/api/internal/utils"
)

func newNotificationFixture(t *testing.T, prefix string) (INotificationService, *mockEmailEnqueuer, func()) {
	t.Helper()
	database, cleanup := setupServiceTestDB(t, prefix)
	enqueuer := new(mockEmailEnqueuer)
	svc := NewNotificationService(database, NewEventLedgerService(database), NewEmailTemplateService(database), enqueuer)
	return svc, enqueuer, cleanup
}

func TestNotificationService_DispatchOncePerEventKey(t *testing.T) {
	svc, enqueuer, cleanup := newNotificationFixture(t, "notif_once")
	defer cleanup()
	ctx := context.Background()

	recipientID := utils.NewSixID()
	enqueuer.On("EnqueueEmail", mock.Anything, "caterer@example.com", mock.Anything, mock.Anything).Return(nil).Once()

	req := NotificationRequest{
		EventKey:      "quote_accepted_supplier:abc123",
		RecipientType: models.RecipientSupplier,
		RecipientID:   recipientID,
		Email:         "caterer@example.com",
		TemplateID:    "quote_accepted_supplier",
		Data:          map[string]interface{}{"customer_name": "Jane"},
	}
	require.NoError(t, svc.Dispatch(ctx, req))

	// Same business event again: silently skipped, no second email.
	require.NoError(t, svc.Dispatch(ctx, req))

	notifications, err := svc.ListForRecipient(ctx, models.RecipientSupplier, recipientID, 10)
	require.NoError(t, err)
	require.Len(t, notifications, 1)
	assert.Equal(t, "Your quote was accepted", notifications[0].Subject)
	assert.Contains(t, notifications[0].Body, "Jane")
	assert.Nil(t, notifications[0].ReadAt)
	enqueuer.AssertExpectations(t)
}

func TestNotificationService_NoEmailWhenAddressEmpty(t *testing.T) {
	svc, enqueuer, cleanup := newNotificationFixture(t, "notif_noemail")
	defer cleanup()

	recipientID := utils.NewSixID()
	err := svc.Dispatch(context.Background(), NotificationRequest{
		EventKey:      "quote_declined_customer:xyz",
		RecipientType: models.RecipientCustomer,
		RecipientID:   recipientID,
		TemplateID:    "quote_declined_customer",
		Data:          map[string]interface{}{"supplier_name": "Acme"},
	})
	require.NoError(t, err)

	notifications, err := svc.ListForRecipient(context.Background(), models.RecipientCustomer, recipientID, 10)
	require.NoError(t, err)
	assert.Len(t, notifications, 1)
	enqueuer.AssertNotCalled(t, "EnqueueEmail", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestNotificationService_UnknownTemplateSwallowed(t *testing.T) {
	svc, enqueuer, cleanup := newNotificationFixture(t, "notif_badtpl")
	defer cleanup()

	recipientID := utils.NewSixID()
	err := svc.Dispatch(context.Background(), NotificationRequest{
		EventKey:      "mystery:1",
		RecipientType: models.RecipientSupplier,
		RecipientID:   recipientID,
		Email:         "someone@example.com",
		TemplateID:    "no_such_template",
	})
	// Render failures must not fail the triggering business action.
	require.NoError(t, err)

	notifications, err := svc.ListForRecipient(context.Background(), models.RecipientSupplier, recipientID, 10)
	require.NoError(t, err)
	assert.Empty(t, notifications)
	enqueuer.AssertNotCalled(t, "EnqueueEmail", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestNotificationService_MarkRead(t *testing.T) {
	svc, enqueuer, cleanup := newNotificationFixture(t, "notif_read")
	defer cleanup()
	ctx := context.Background()
	enqueuer.On("EnqueueEmail", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)

	recipientID := utils.NewSixID()
	require.NoError(t, svc.Dispatch(ctx, NotificationRequest{
		EventKey:      "quote_sent:q1",
		RecipientType: models.RecipientCustomer,
		RecipientID:   recipientID,
		Email:         "customer@example.com",
		TemplateID:    "quote_sent",
		Data: map[string]interface{}{
			"supplier_name": "Acme", "total": "GBP 100.00", "action_url": "https://x",
		},
	}))

	notifications, err := svc.ListForRecipient(ctx, models.RecipientCustomer, recipientID, 10)
	require.NoError(t, err)
	require.Len(t, notifications, 1)

	require.NoError(t, svc.MarkRead(ctx, notifications[0].ID, recipientID))

	notifications, err = svc.ListForRecipient(ctx, models.RecipientCustomer, recipientID, 10)
	require.NoError(t, err)
	require.NotNil(t, notifications[0].ReadAt)

	// Another recipient cannot mark it, and re-marking is a not-found.
	assert.ErrorIs(t, svc.MarkRead(ctx, notifications[0].ID, utils.NewSixID()), ErrNotFound)
	assert.ErrorIs(t, svc.MarkRead(ctx, notifications[0].ID, recipientID), ErrNotFound)
}
