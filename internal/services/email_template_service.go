package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"text/template"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"gatherly/api/internal/models"
)

// Default email templates used as fallback when not found in the database.
var defaultEmailTemplates = map[string]models.EmailTemplate{
	"enquiry_invite": {
		TemplateID: "enquiry_invite",
		Locale:     "en-US",
		Subject:    "New enquiry: {{.event_type}} on Gatherly",
		Body:       "You have been matched with a new enquiry from {{.customer_name}}. Log in to respond with a quote.",
	},
	"quote_sent": {
		TemplateID: "quote_sent",
		Locale:     "en-US",
		Subject:    "{{.supplier_name}} sent you a quote",
		Body:       "{{.supplier_name}} quoted {{.total}} for your enquiry. View and respond: {{.action_url}}",
	},
	"quote_accepted_supplier": {
		TemplateID: "quote_accepted_supplier",
		Locale:     "en-US",
		Subject:    "Your quote was accepted",
		Body:       "Good news: your quote for {{.customer_name}}'s enquiry was accepted. Get in touch to confirm details.",
	},
	"quote_accepted_customer": {
		TemplateID: "quote_accepted_customer",
		Locale:     "en-US",
		Subject:    "Quote accepted",
		Body:       "You accepted the quote from {{.supplier_name}}. They have been notified and will be in touch.",
	},
	"quote_declined_supplier": {
		TemplateID: "quote_declined_supplier",
		Locale:     "en-US",
		Subject:    "Your quote was declined",
		Body:       "Your quote for {{.customer_name}}'s enquiry was declined.",
	},
	"quote_declined_customer": {
		TemplateID: "quote_declined_customer",
		Locale:     "en-US",
		Subject:    "Quote declined",
		Body:       "You declined the quote from {{.supplier_name}}.",
	},
	"message_received_supplier": {
		TemplateID: "message_received_supplier",
		Locale:     "en-US",
		Subject:    "New message on your quote",
		Body:       "{{.sender_name}} sent a message on your quote: {{.preview}}",
	},
	"message_received_customer": {
		TemplateID: "message_received_customer",
		Locale:     "en-US",
		Subject:    "New message from {{.supplier_name}}",
		Body:       "{{.supplier_name}} replied on your quote: {{.preview}}",
	},
	"credits_topped_up": {
		TemplateID: "credits_topped_up",
		Locale:     "en-US",
		Subject:    "Credits added to your account",
		Body:       "{{.credits}} credits were added to your Gatherly balance. New balance: {{.balance}}.",
	},
}

// IEmailTemplateService defines the interface for email template operations.
type IEmailTemplateService interface {
	GetTemplate(ctx context.Context, templateID, locale string) (*models.EmailTemplate, error)
	Render(ctx context.Context, templateID, locale string, data map[string]interface{}) (subject, body string, err error)
}

const emailTemplatesCollection = "email_templates"

type emailTemplateService struct {
	db *mongo.Database
}

// NewEmailTemplateService creates a new EmailTemplateService.
func NewEmailTemplateService(database *mongo.Database) IEmailTemplateService {
	return &emailTemplateService{db: database}
}

// GetTemplate fetches a template by ID and locale, falling back to the in-code
// defaults when the database has no override.
func (s *emailTemplateService) GetTemplate(ctx context.Context, templateID, locale string) (*models.EmailTemplate, error) {
	if locale == "" {
		locale = "en-US"
	}

	var tpl models.EmailTemplate
	filter := bson.M{"template_id": templateID, "locale": locale}
	err := s.db.Collection(emailTemplatesCollection).FindOne(ctx, filter).Decode(&tpl)
	if err == nil {
		return &tpl, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("error loading email template %s/%s: %w", templateID, locale, err)
	}

	if fallback, ok := defaultEmailTemplates[templateID]; ok {
		return &fallback, nil
	}
	return nil, fmt.Errorf("unknown email template %q", templateID)
}

// Render resolves a template and executes subject and body with data.
func (s *emailTemplateService) Render(ctx context.Context, templateID, locale string, data map[string]interface{}) (string, string, error) {
	tpl, err := s.GetTemplate(ctx, templateID, locale)
	if err != nil {
		return "", "", err
	}

	subject, err := renderTemplateString(tpl.TemplateID+":subject", tpl.Subject, data)
	if err != nil {
		return "", "", err
	}
	body, err := renderTemplateString(tpl.TemplateID+":body", tpl.Body, data)
	if err != nil {
		return "", "", err
	}
	return subject, body, nil
}

func renderTemplateString(name, text string, data map[string]interface{}) (string, error) {
	t, err := template.New(name).Parse(text)
	if err != nil {
		return "", fmt.Errorf("failed to parse template %s: %w", name, err)
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render template %s: %w", name, err)
	}
	return buf.String(), nil
}
