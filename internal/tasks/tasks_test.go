package tasks_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"gatherly/api/internal/config"
	"gatherly/api/internal/models"
	"gatherly/api/internal/services"
	"gatherly/api/internal/tasks"
	"gatherly/api/internal/utils"
)

// MockEmailSender implements email.Sender
type MockEmailSender struct {
	mock.Mock
}

func (m *MockEmailSender) Send(ctx context.Context, to []string, subject string, rawMessage []byte) error {
	args := m.Called(ctx, to, subject, rawMessage)
	return args.Error(0)
}

// MockEnquiryService implements services.IEnquiryService; only CloseStale
// matters to the sweep handler.
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

func TestHandleEmailDeliveryTask_Success(t *testing.T) {
	mockSender := new(MockEmailSender)
	cfg := &config.Config{SmtpFromAddress: "noreply@gatherly.test"}
	processor := tasks.NewTaskProcessor(cfg, mockSender, nil, nil, nil, nil)

	mockSender.On("Send", mock.Anything, []string{"jane@example.com"}, "Quote accepted", mock.MatchedBy(func(raw []byte) bool {
		msg := string(raw)
		return strings.Contains(msg, "From: noreply@gatherly.test") &&
			strings.Contains(msg, "To: jane@example.com") &&
			strings.Contains(msg, "Good news.")
	})).Return(nil)

	task := asynq.NewTask(tasks.TypeEmailDelivery, []byte(`{"to":"jane@example.com","subject":"Quote accepted","body":"Good news."}`))
	err := processor.HandleEmailDeliveryTask(context.Background(), task)

	assert.NoError(t, err)
	mockSender.AssertExpectations(t)
}

func TestHandleEmailDeliveryTask_SenderFailureRetried(t *testing.T) {
	mockSender := new(MockEmailSender)
	cfg := &config.Config{SmtpFromAddress: "noreply@gatherly.test"}
	processor := tasks.NewTaskProcessor(cfg, mockSender, nil, nil, nil, nil)

	sendErr := errors.New("smtp unavailable")
	mockSender.On("Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(sendErr)

	task := asynq.NewTask(tasks.TypeEmailDelivery, []byte(`{"to":"jane@example.com","subject":"s","body":"b"}`))
	err := processor.HandleEmailDeliveryTask(context.Background(), task)

	// A transport failure is retryable: no SkipRetry in the chain.
	assert.ErrorIs(t, err, sendErr)
	assert.False(t, errors.Is(err, asynq.SkipRetry))
}

func TestHandleEmailDeliveryTask_BadPayload(t *testing.T) {
	mockSender := new(MockEmailSender)
	processor := tasks.NewTaskProcessor(&config.Config{}, mockSender, nil, nil, nil, nil)

	task := asynq.NewTask(tasks.TypeEmailDelivery, []byte(`{not json`))
	err := processor.HandleEmailDeliveryTask(context.Background(), task)

	assert.Error(t, err)
	assert.True(t, errors.Is(err, asynq.SkipRetry), "malformed payloads must not be retried")
	mockSender.AssertNotCalled(t, "Send")
}

func TestHandleEnquiryCloseStaleTask_SweepFailure(t *testing.T) {
	mockEnquirySvc := new(MockEnquiryService)
	cfg := &config.Config{EnquiryStaleAge: 60 * 24 * time.Hour}
	processor := tasks.NewTaskProcessor(cfg, nil, nil, mockEnquirySvc, nil, nil)

	sweepErr := errors.New("mongo unavailable")
	mockEnquirySvc.On("CloseStale", mock.Anything, cfg.EnquiryStaleAge).Return(int64(0), sweepErr)

	task := asynq.NewTask(tasks.TypeEnquiryCloseStale, nil)
	err := processor.HandleEnquiryCloseStaleTask(context.Background(), task)

	// The error propagates so asynq retries; the handler must not try to
	// re-enqueue after a failed sweep.
	assert.ErrorIs(t, err, sweepErr)
	mockEnquirySvc.AssertExpectations(t)
}
