package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"

	"gatherly/api/internal/config"
	appdb "gatherly/api/internal/db"
	"gatherly/api/internal/models"
	"gatherly/api/internal/utils"
)

// mockEmailEnqueuer satisfies EmailEnqueuer so tests can observe (or ignore)
// outbound email handoffs without a Redis broker.
type mockEmailEnqueuer struct {
	mock.Mock
}

func (m *mockEmailEnqueuer) EnqueueEmail(ctx context.Context, to, subject, body string) error {
	args := m.Called(ctx, to, subject, body)
	return args.Error(0)
}

// newSwallowingEnqueuer accepts every email. For tests where delivery is not
// the thing under test.
func newSwallowingEnqueuer() *mockEmailEnqueuer {
	m := new(mockEmailEnqueuer)
	m.On("EnqueueEmail", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	return m
}

func testConfig() *config.Config {
	return &config.Config{
		BroadcastInviteLimit: 10,
		QuoteSendCreditCost:  1,
		SignupFreeCredits:    0,
		PublicBaseURL:        "https://gatherly.test",
		EnquiryStaleAge:      60 * 24 * time.Hour,
	}
}

// setupServiceTestDB connects to the test MongoDB, creates a uniquely named
// database with the production indexes, and returns it with its cleanup.
func setupServiceTestDB(t *testing.T, prefix string) (*mongo.Database, func()) {
	t.Helper()
	dbName := fmt.Sprintf("testdb_%s_%d", prefix, time.Now().UnixNano())
	database := utils.SetupTestDB(t, dbName)
	require.NoError(t, appdb.EnsureIndexes(context.Background(), database))

	cleanup := func() {
		client := database.Client()
		if err := database.Drop(context.Background()); err != nil {
			t.Logf("Failed to drop database %s: %v", dbName, err)
		}
		if err := client.Disconnect(context.Background()); err != nil {
			t.Logf("Failed to disconnect MongoDB client: %v", err)
		}
	}
	return database, cleanup
}

// serviceGraph wires the full service stack against one test database, the way
// the router does in production, with the email enqueuer mocked out.
type serviceGraph struct {
	cfg           *config.Config
	enqueuer      *mockEmailEnqueuer
	credits       ICreditService
	ledger        IEventLedgerService
	templates     IEmailTemplateService
	suppliers     ISupplierService
	notifications INotificationService
	enquiries     IEnquiryService
	quotes        IQuoteService
	payments      IPaymentService
}

func newServiceGraph(database *mongo.Database) *serviceGraph {
	cfg := testConfig()
	enqueuer := newSwallowingEnqueuer()

	credits := NewCreditService(database)
	ledger := NewEventLedgerService(database)
	templates := NewEmailTemplateService(database)
	suppliers := NewSupplierService(database, cfg, credits)
	notifications := NewNotificationService(database, ledger, templates, enqueuer)
	enquiries := NewEnquiryService(database, cfg, suppliers, notifications)
	quotes := NewQuoteService(database, cfg, credits, enquiries, suppliers, notifications)
	payments := NewPaymentService(ledger, credits, suppliers, notifications)

	return &serviceGraph{
		cfg:           cfg,
		enqueuer:      enqueuer,
		credits:       credits,
		ledger:        ledger,
		templates:     templates,
		suppliers:     suppliers,
		notifications: notifications,
		enquiries:     enquiries,
		quotes:        quotes,
		payments:      payments,
	}
}

// createPublishableSupplier registers a supplier that passes the publish gate:
// categorized, published, with one media record.
func (g *serviceGraph) createPublishableSupplier(t *testing.T, name, email string, credits int) *models.Supplier {
	t.Helper()
	ctx := context.Background()

	supplier, err := g.suppliers.CreateSupplier(ctx, name, email, "password123", []string{"catering"})
	require.NoError(t, err)

	_, err = g.suppliers.AddMedia(ctx, supplier.ID, "suppliers/"+supplier.ID.String()+"/media/test.jpg")
	require.NoError(t, err)
	require.NoError(t, g.suppliers.SetPublished(ctx, supplier.ID, true))

	if credits > 0 {
		_, err = g.credits.Delta(ctx, supplier.ID, credits, "purchase", nil)
		require.NoError(t, err)
	}
	return supplier
}

// createOpenEnquiry submits a valid broadcast enquiry in the catering category.
func (g *serviceGraph) createOpenEnquiry(t *testing.T) *EnquiryResult {
	t.Helper()
	now := time.Now().UTC()
	result, err := g.enquiries.CreateEnquiry(context.Background(), CreateEnquiryInput{
		Submission:   completeSubmission(now),
		CategorySlug: "catering",
	})
	require.NoError(t, err)
	return result
}
