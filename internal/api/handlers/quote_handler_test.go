package handlers_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"gatherly/api/internal/api/handlers"
	"gatherly/api/internal/api/middleware"
	"gatherly/api/internal/models"
	"gatherly/api/internal/services"
	"gatherly/api/internal/utils"
)

// withSupplier injects an authenticated supplier the way the auth middleware does.
func withSupplier(r *gin.Engine, supplierID utils.SixID) {
	r.Use(func(c *gin.Context) {
		c.Set(middleware.ContextKeySupplierID, supplierID.String())
	})
}

func TestQuoteHandler_CreateDraft_Success(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockQuoteSvc := new(MockQuoteService)
	mockEnquirySvc := new(MockEnquiryService)
	handler := handlers.NewQuoteHandler(mockQuoteSvc, mockEnquirySvc)

	supplierID := utils.NewSixID()
	enquiryID := utils.NewSixID()
	r := gin.New()
	withSupplier(r, supplierID)
	r.POST("/v1/quotes", handler.CreateDraft)

	items := []models.QuoteLineItem{{Description: "Buffet", Quantity: 1, UnitPrice: 500}}
	quote := &models.Quote{EnquiryID: enquiryID, SupplierID: supplierID, Status: models.QuoteStatusDraft, Items: items}
	quote.GenID()
	mockQuoteSvc.On("CreateDraft", mock.Anything, supplierID, enquiryID, items, "", "notes").Return(quote, nil)
	mockEnquirySvc.On("MarkInviteViewed", mock.Anything, enquiryID, supplierID).Return(nil)

	w := postJSON(r, "/v1/quotes", gin.H{
		"enquiry_id": enquiryID.String(),
		"items":      items,
		"notes":      "notes",
	})

	assert.Equal(t, http.StatusCreated, w.Code)
	mockQuoteSvc.AssertExpectations(t)
	mockEnquirySvc.AssertExpectations(t)
}

func TestQuoteHandler_CreateDraft_Unauthenticated(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockQuoteSvc := new(MockQuoteService)
	handler := handlers.NewQuoteHandler(mockQuoteSvc, new(MockEnquiryService))

	r := gin.New()
	r.POST("/v1/quotes", handler.CreateDraft)

	w := postJSON(r, "/v1/quotes", gin.H{"enquiry_id": utils.NewSixID().String()})

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	mockQuoteSvc.AssertNotCalled(t, "CreateDraft")
}

func TestQuoteHandler_CreateDraft_NotEligible(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockQuoteSvc := new(MockQuoteService)
	handler := handlers.NewQuoteHandler(mockQuoteSvc, new(MockEnquiryService))

	supplierID := utils.NewSixID()
	enquiryID := utils.NewSixID()
	r := gin.New()
	withSupplier(r, supplierID)
	r.POST("/v1/quotes", handler.CreateDraft)

	mockQuoteSvc.On("CreateDraft", mock.Anything, supplierID, enquiryID, mock.Anything, "", "").Return(nil, services.ErrNotEligible)

	w := postJSON(r, "/v1/quotes", gin.H{"enquiry_id": enquiryID.String()})

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestQuoteHandler_Send(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockQuoteSvc := new(MockQuoteService)
	handler := handlers.NewQuoteHandler(mockQuoteSvc, new(MockEnquiryService))

	supplierID := utils.NewSixID()
	r := gin.New()
	withSupplier(r, supplierID)
	r.POST("/v1/quotes/:id/send", handler.Send)

	quote := &models.Quote{SupplierID: supplierID, Status: models.QuoteStatusSent}
	quote.GenID()
	mockQuoteSvc.On("Send", mock.Anything, supplierID, quote.ID).Return(&services.SendResult{Quote: quote, CreditsBalance: 7}, nil)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/v1/quotes/"+quote.ID.String()+"/send", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var respBody map[string]interface{}
	err := json.Unmarshal(w.Body.Bytes(), &respBody)
	assert.NoError(t, err)
	assert.Equal(t, float64(7), respBody["credits_balance"])
	mockQuoteSvc.AssertExpectations(t)
}

func TestQuoteHandler_Send_InsufficientCredits(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockQuoteSvc := new(MockQuoteService)
	handler := handlers.NewQuoteHandler(mockQuoteSvc, new(MockEnquiryService))

	supplierID := utils.NewSixID()
	quoteID := utils.NewSixID()
	r := gin.New()
	withSupplier(r, supplierID)
	r.POST("/v1/quotes/:id/send", handler.Send)

	mockQuoteSvc.On("Send", mock.Anything, supplierID, quoteID).Return(nil, services.ErrInsufficientCredits)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/v1/quotes/"+quoteID.String()+"/send", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)
	var respBody map[string]interface{}
	err := json.Unmarshal(w.Body.Bytes(), &respBody)
	assert.NoError(t, err)
	assert.Contains(t, respBody["error"], "insufficient credits")
}

func TestQuoteHandler_Send_InvalidID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockQuoteSvc := new(MockQuoteService)
	handler := handlers.NewQuoteHandler(mockQuoteSvc, new(MockEnquiryService))

	r := gin.New()
	withSupplier(r, utils.NewSixID())
	r.POST("/v1/quotes/:id/send", handler.Send)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/v1/quotes/not-an-id/send", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	mockQuoteSvc.AssertNotCalled(t, "Send")
}

func TestQuoteHandler_Action(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockQuoteSvc := new(MockQuoteService)
	handler := handlers.NewQuoteHandler(mockQuoteSvc, new(MockEnquiryService))

	r := gin.New()
	r.POST("/v1/quotes/action", handler.Action)

	accepted := &models.Quote{Status: models.QuoteStatusAccepted}
	accepted.GenID()
	mockQuoteSvc.On("Accept", mock.Anything, "tok-accept").Return(accepted, nil)

	w := postJSON(r, "/v1/quotes/action", gin.H{"token": "tok-accept", "action": "accept"})
	assert.Equal(t, http.StatusOK, w.Code)

	declined := &models.Quote{Status: models.QuoteStatusDeclined}
	declined.GenID()
	mockQuoteSvc.On("Decline", mock.Anything, "tok-decline").Return(declined, nil)

	w = postJSON(r, "/v1/quotes/action", gin.H{"token": "tok-decline", "action": "decline"})
	assert.Equal(t, http.StatusOK, w.Code)

	// Anything but accept/decline is rejected before the service is hit.
	w = postJSON(r, "/v1/quotes/action", gin.H{"token": "tok", "action": "maybe"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	mockQuoteSvc.AssertExpectations(t)
}

func TestQuoteHandler_Action_Conflict(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockQuoteSvc := new(MockQuoteService)
	handler := handlers.NewQuoteHandler(mockQuoteSvc, new(MockEnquiryService))

	r := gin.New()
	r.POST("/v1/quotes/action", handler.Action)

	mockQuoteSvc.On("Decline", mock.Anything, "tok-settled").Return(nil, services.ErrConflict)

	w := postJSON(r, "/v1/quotes/action", gin.H{"token": "tok-settled", "action": "decline"})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestQuoteHandler_SupplierMessage_NotOwner(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockQuoteSvc := new(MockQuoteService)
	handler := handlers.NewQuoteHandler(mockQuoteSvc, new(MockEnquiryService))

	supplierID := utils.NewSixID()
	r := gin.New()
	withSupplier(r, supplierID)
	r.POST("/v1/quotes/:id/messages", handler.SupplierMessage)

	// Quote belongs to someone else.
	quote := &models.Quote{SupplierID: utils.NewSixID(), Status: models.QuoteStatusSent}
	quote.GenID()
	mockQuoteSvc.On("FindByID", mock.Anything, quote.ID).Return(quote, nil)

	w := postJSON(r, "/v1/quotes/"+quote.ID.String()+"/messages", gin.H{"body": "hello"})

	assert.Equal(t, http.StatusForbidden, w.Code)
	mockQuoteSvc.AssertNotCalled(t, "AddMessage")
}

func TestQuoteHandler_CustomerMessage(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockQuoteSvc := new(MockQuoteService)
	mockEnquirySvc := new(MockEnquiryService)
	handler := handlers.NewQuoteHandler(mockQuoteSvc, mockEnquirySvc)

	r := gin.New()
	r.POST("/v1/enquiries/:token/quotes/:id/messages", handler.CustomerMessage)

	enquiry := &models.Enquiry{PublicToken: "tok-1"}
	enquiry.GenID()
	quote := &models.Quote{EnquiryID: enquiry.ID, Status: models.QuoteStatusSent}
	quote.GenID()
	message := &models.QuoteMessage{QuoteID: quote.ID, Sender: "customer", Body: "hi"}
	message.GenID()

	mockEnquirySvc.On("FindByPublicToken", mock.Anything, "tok-1").Return(enquiry, nil)
	mockQuoteSvc.On("FindByID", mock.Anything, quote.ID).Return(quote, nil)
	mockQuoteSvc.On("AddMessage", mock.Anything, quote.ID, "customer", "hi").Return(message, nil)

	w := postJSON(r, "/v1/enquiries/tok-1/quotes/"+quote.ID.String()+"/messages", gin.H{"body": "hi"})
	assert.Equal(t, http.StatusCreated, w.Code)
	mockQuoteSvc.AssertExpectations(t)
}

func TestQuoteHandler_CustomerMessage_WrongEnquiry(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockQuoteSvc := new(MockQuoteService)
	mockEnquirySvc := new(MockEnquiryService)
	handler := handlers.NewQuoteHandler(mockQuoteSvc, mockEnquirySvc)

	r := gin.New()
	r.POST("/v1/enquiries/:token/quotes/:id/messages", handler.CustomerMessage)

	enquiry := &models.Enquiry{PublicToken: "tok-2"}
	enquiry.GenID()
	// Quote for a different enquiry: the token holder must not reach it.
	quote := &models.Quote{EnquiryID: utils.NewSixID(), Status: models.QuoteStatusSent}
	quote.GenID()

	mockEnquirySvc.On("FindByPublicToken", mock.Anything, "tok-2").Return(enquiry, nil)
	mockQuoteSvc.On("FindByID", mock.Anything, quote.ID).Return(quote, nil)

	w := postJSON(r, "/v1/enquiries/tok-2/quotes/"+quote.ID.String()+"/messages", gin.H{"body": "hi"})
	assert.Equal(t, http.StatusNotFound, w.Code)
	mockQuoteSvc.AssertNotCalled(t, "AddMessage")
}
