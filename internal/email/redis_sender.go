package email

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"gatherly/api/internal/config"
)

// RedisSender implements the Sender interface by storing emails in Redis.
// Used in test and development environments so assertions can read back what
// would have been sent.
type RedisSender struct {
	client *redis.Client
	cfg    *config.Config
}

// NewRedisSender creates a new RedisSender
func NewRedisSender(client *redis.Client, cfg *config.Config) Sender {
	return &RedisSender{
		client: client,
		cfg:    cfg,
	}
}

// kindFromSubject classifies the email by its subject line so mock keys are
// stable per notification kind rather than per wording.
func kindFromSubject(subject string) string {
	switch {
	case strings.Contains(subject, "New enquiry"):
		return "enquiry_invite"
	case strings.Contains(subject, "sent you a quote"):
		return "quote_sent"
	case strings.Contains(subject, "accepted"):
		return "quote_accepted"
	case strings.Contains(subject, "declined"):
		return "quote_declined"
	case strings.Contains(subject, "New message"):
		return "message_received"
	case strings.Contains(subject, "Credits added"):
		return "credits_topped_up"
	default:
		return "unknown"
	}
}

// Send stores a representation of the email in Redis instead of sending it via SMTP.
func (s *RedisSender) Send(ctx context.Context, to []string, subject string, rawMessage []byte) error {
	kind := kindFromSubject(subject)

	// The mock key uses a single primary recipient.
	primaryTo := ""
	if len(to) > 0 {
		primaryTo = to[0]
	}

	emailData := map[string]interface{}{
		"to":      strings.Join(to, ", "),
		"from":    s.cfg.SmtpFromAddress,
		"subject": subject,
		"body":    string(rawMessage),
		"sent_at": time.Now().UTC().Format(time.RFC3339Nano),
		"kind":    kind,
	}

	jsonData, err := json.Marshal(emailData)
	if err != nil {
		return fmt.Errorf("failed to marshal email data: %w", err)
	}

	key := fmt.Sprintf("mockemail:%s:%s", primaryTo, kind)
	ttl := 5 * time.Minute

	err = s.client.Set(ctx, key, jsonData, ttl).Err()
	if err != nil {
		return fmt.Errorf("failed to store email in Redis key '%s': %w", key, err)
	}

	log.Printf("Mock email stored in Redis key '%s' (TTL: %v, To: %s, Subject: %s)", key, ttl, strings.Join(to, ", "), subject)
	return nil
}
