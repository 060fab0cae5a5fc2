package handlers_test

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/mock"

	"gatherly/api/internal/models"
	"gatherly/api/internal/services"
	"gatherly/api/internal/utils"
)

// --- Mocks ---

// MockEnquiryService implements services.IEnquiryService
type MockEnquiryService struct {
	mock.Mock
}

func (m *MockEnquiryService) CreateEnquiry(ctx context.Context, input services.CreateEnquiryInput) (*services.EnquiryResult, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.EnquiryResult), args.Error(1)
}
func (m *MockEnquiryService) FindByID(ctx context.Context, enquiryID utils.SixID) (*models.Enquiry, error) {
	args := m.Called(ctx, enquiryID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Enquiry), args.Error(1)
}
func (m *MockEnquiryService) FindByPublicToken(ctx context.Context, token string) (*models.Enquiry, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Enquiry), args.Error(1)
}
func (m *MockEnquiryService) ListInvitesForSupplier(ctx context.Context, supplierID utils.SixID, limit int) ([]models.SupplierInvite, error) {
	args := m.Called(ctx, supplierID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.SupplierInvite), args.Error(1)
}
func (m *MockEnquiryService) FindInvite(ctx context.Context, enquiryID, supplierID utils.SixID) (*models.SupplierInvite, error) {
	args := m.Called(ctx, enquiryID, supplierID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SupplierInvite), args.Error(1)
}
func (m *MockEnquiryService) MarkInviteViewed(ctx context.Context, enquiryID, supplierID utils.SixID) error {
	args := m.Called(ctx, enquiryID, supplierID)
	return args.Error(0)
}
func (m *MockEnquiryService) CloseStale(ctx context.Context, olderThan time.Duration) (int64, error) {
	args := m.Called(ctx, olderThan)
	return args.Get(0).(int64), args.Error(1)
}

// MockQuoteService implements services.IQuoteService
type MockQuoteService struct {
	mock.Mock
}

func (m *MockQuoteService) CreateDraft(ctx context.Context, supplierID, enquiryID utils.SixID, items []models.QuoteLineItem, currencyCode, notes string) (*models.Quote, error) {
	args := m.Called(ctx, supplierID, enquiryID, items, currencyCode, notes)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Quote), args.Error(1)
}
func (m *MockQuoteService) UpdateDraft(ctx context.Context, supplierID, quoteID utils.SixID, items []models.QuoteLineItem, notes string) (*models.Quote, error) {
	args := m.Called(ctx, supplierID, quoteID, items, notes)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Quote), args.Error(1)
}
func (m *MockQuoteService) Send(ctx context.Context, supplierID, quoteID utils.SixID) (*services.SendResult, error) {
	args := m.Called(ctx, supplierID, quoteID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.SendResult), args.Error(1)
}
func (m *MockQuoteService) Accept(ctx context.Context, actionToken string) (*models.Quote, error) {
	args := m.Called(ctx, actionToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Quote), args.Error(1)
}
func (m *MockQuoteService) Decline(ctx context.Context, actionToken string) (*models.Quote, error) {
	args := m.Called(ctx, actionToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Quote), args.Error(1)
}
func (m *MockQuoteService) Close(ctx context.Context, supplierID, quoteID utils.SixID) (*models.Quote, error) {
	args := m.Called(ctx, supplierID, quoteID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Quote), args.Error(1)
}
func (m *MockQuoteService) FindByID(ctx context.Context, quoteID utils.SixID) (*models.Quote, error) {
	args := m.Called(ctx, quoteID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Quote), args.Error(1)
}
func (m *MockQuoteService) FindByActionToken(ctx context.Context, actionToken string) (*models.Quote, error) {
	args := m.Called(ctx, actionToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Quote), args.Error(1)
}
func (m *MockQuoteService) ListForEnquiry(ctx context.Context, enquiryID utils.SixID) ([]models.Quote, error) {
	args := m.Called(ctx, enquiryID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Quote), args.Error(1)
}
func (m *MockQuoteService) ListForSupplier(ctx context.Context, supplierID utils.SixID, limit int) ([]models.Quote, error) {
	args := m.Called(ctx, supplierID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Quote), args.Error(1)
}
func (m *MockQuoteService) AddMessage(ctx context.Context, quoteID utils.SixID, sender, body string) (*models.QuoteMessage, error) {
	args := m.Called(ctx, quoteID, sender, body)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.QuoteMessage), args.Error(1)
}
func (m *MockQuoteService) ListMessages(ctx context.Context, quoteID utils.SixID) ([]models.QuoteMessage, error) {
	args := m.Called(ctx, quoteID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.QuoteMessage), args.Error(1)
}

// MockSupplierService implements services.ISupplierService
type MockSupplierService struct {
	mock.Mock
}

func (m *MockSupplierService) CreateSupplier(ctx context.Context, businessName, email, password string, categories []string) (*models.Supplier, error) {
	args := m.Called(ctx, businessName, email, password, categories)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Supplier), args.Error(1)
}
func (m *MockSupplierService) FindByID(ctx context.Context, supplierID utils.SixID) (*models.Supplier, error) {
	args := m.Called(ctx, supplierID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Supplier), args.Error(1)
}
func (m *MockSupplierService) FindByEmail(ctx context.Context, email string) (*models.Supplier, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Supplier), args.Error(1)
}
func (m *MockSupplierService) Authenticate(ctx context.Context, email, password string) (*models.Supplier, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Supplier), args.Error(1)
}
func (m *MockSupplierService) ListCandidates(ctx context.Context) ([]services.MatchCandidate, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]services.MatchCandidate), args.Error(1)
}
func (m *MockSupplierService) CandidateByID(ctx context.Context, supplierID utils.SixID) (*services.MatchCandidate, error) {
	args := m.Called(ctx, supplierID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.MatchCandidate), args.Error(1)
}
func (m *MockSupplierService) AddMedia(ctx context.Context, supplierID utils.SixID, s3Key string) (*models.SupplierMedia, error) {
	args := m.Called(ctx, supplierID, s3Key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SupplierMedia), args.Error(1)
}
func (m *MockSupplierService) MarkMediaProcessed(ctx context.Context, mediaID utils.SixID) error {
	args := m.Called(ctx, mediaID)
	return args.Error(0)
}
func (m *MockSupplierService) ListMedia(ctx context.Context, supplierID utils.SixID) ([]models.SupplierMedia, error) {
	args := m.Called(ctx, supplierID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.SupplierMedia), args.Error(1)
}
func (m *MockSupplierService) SetPublished(ctx context.Context, supplierID utils.SixID, published bool) error {
	args := m.Called(ctx, supplierID, published)
	return args.Error(0)
}
func (m *MockSupplierService) SetSuspended(ctx context.Context, supplierID utils.SixID, suspended bool) error {
	args := m.Called(ctx, supplierID, suspended)
	return args.Error(0)
}

// MockCreditService implements services.ICreditService
type MockCreditService struct {
	mock.Mock
}

func (m *MockCreditService) Delta(ctx context.Context, supplierID utils.SixID, delta int, reason string, relatedQuoteID *utils.SixID) (int, error) {
	args := m.Called(ctx, supplierID, delta, reason, relatedQuoteID)
	return args.Int(0), args.Error(1)
}
func (m *MockCreditService) ListTransactions(ctx context.Context, supplierID utils.SixID, limit int) ([]models.CreditTransaction, error) {
	args := m.Called(ctx, supplierID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.CreditTransaction), args.Error(1)
}

// MockPaymentService implements services.IPaymentService
type MockPaymentService struct {
	mock.Mock
}

func (m *MockPaymentService) TopUp(ctx context.Context, processorEventID string, supplierID utils.SixID, credits int) (*services.TopUpResult, error) {
	args := m.Called(ctx, processorEventID, supplierID, credits)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.TopUpResult), args.Error(1)
}

// MockNotificationService implements services.INotificationService
type MockNotificationService struct {
	mock.Mock
}

func (m *MockNotificationService) Dispatch(ctx context.Context, req services.NotificationRequest) error {
	args := m.Called(ctx, req)
	return args.Error(0)
}
func (m *MockNotificationService) ListForRecipient(ctx context.Context, recipientType models.RecipientType, recipientID utils.SixID, limit int) ([]models.Notification, error) {
	args := m.Called(ctx, recipientType, recipientID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Notification), args.Error(1)
}
func (m *MockNotificationService) MarkRead(ctx context.Context, notificationID, recipientID utils.SixID) error {
	args := m.Called(ctx, notificationID, recipientID)
	return args.Error(0)
}

// MockS3Storage implements storage.IS3Storage
type MockS3Storage struct {
	mock.Mock
}

func (m *MockS3Storage) GeneratePresignedPutURL(ctx context.Context, supplierID, filename, contentType string) (string, string, error) {
	args := m.Called(ctx, supplierID, filename, contentType)
	return args.String(0), args.String(1), args.Error(2)
}
func (m *MockS3Storage) Client() *s3.Client {
	return nil
}

// MockMediaEnqueuer implements handlers.IMediaEnqueuer
type MockMediaEnqueuer struct {
	mock.Mock
}

func (m *MockMediaEnqueuer) EnqueueMediaProcess(ctx context.Context, s3Key, mediaID string) error {
	args := m.Called(ctx, s3Key, mediaID)
	return args.Error(0)
}
