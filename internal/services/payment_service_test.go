package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gatherly/api/internal/models"
	"gatherly/api/internal/utils"
)

func TestPaymentService_TopUpAppliesOnce(t *testing.T) {
	database, cleanup := setupServiceTestDB(t, "payment_topup")
	defer cleanup()
	g := newServiceGraph(database)
	ctx := context.Background()

	supplier, err := g.suppliers.CreateSupplier(ctx, "Paid Caterer", "paid@example.com", "password123", []string{"catering"})
	require.NoError(t, err)

	result, err := g.payments.TopUp(ctx, "evt_001", supplier.ID, 25)
	require.NoError(t, err)
	assert.True(t, result.Applied)
	assert.Equal(t, 25, result.CreditsBalance)

	// Webhook redelivery of the same processor event changes nothing.
	replay, err := g.payments.TopUp(ctx, "evt_001", supplier.ID, 25)
	require.NoError(t, err)
	assert.False(t, replay.Applied)
	assert.Equal(t, 25, replay.CreditsBalance)

	// A distinct event stacks on top.
	second, err := g.payments.TopUp(ctx, "evt_002", supplier.ID, 10)
	require.NoError(t, err)
	assert.True(t, second.Applied)
	assert.Equal(t, 35, second.CreditsBalance)

	// The supplier was told about each applied top-up, not the replay.
	notifications, err := g.notifications.ListForRecipient(ctx, models.RecipientSupplier, supplier.ID, 10)
	require.NoError(t, err)
	var topUps int
	for _, n := range notifications {
		if n.TemplateID == "credits_topped_up" {
			topUps++
		}
	}
	assert.Equal(t, 2, topUps)

	// And the ledger traces both purchases.
	transactions, err := g.credits.ListTransactions(ctx, supplier.ID, 10)
	require.NoError(t, err)
	require.Len(t, transactions, 2)
	assert.Equal(t, "purchase", transactions[0].Reason)
}

func TestPaymentService_TopUpRejectsNonPositiveCredits(t *testing.T) {
	database, cleanup := setupServiceTestDB(t, "payment_invalid")
	defer cleanup()
	g := newServiceGraph(database)
	ctx := context.Background()

	supplier, err := g.suppliers.CreateSupplier(ctx, "Caterer", "zero@example.com", "password123", nil)
	require.NoError(t, err)

	_, err = g.payments.TopUp(ctx, "evt_zero", supplier.ID, 0)
	assert.Error(t, err)
	_, err = g.payments.TopUp(ctx, "evt_neg", supplier.ID, -5)
	assert.Error(t, err)
}

func TestPaymentService_TopUpUnknownSupplier(t *testing.T) {
	database, cleanup := setupServiceTestDB(t, "payment_missing")
	defer cleanup()
	g := newServiceGraph(database)

	_, err := g.payments.TopUp(context.Background(), "evt_orphan", utils.NewSixID(), 5)
	assert.Error(t, err)
}
