package email

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

// DevSender implements Sender for local development.
// It saves each email as an HTML file plus a JSON metadata file instead of
// sending it through an email service.
type DevSender struct {
	dir string
}

// NewDevSender creates a development sender that writes emails to dir.
// The directory is created on first send if it doesn't exist.
func NewDevSender(dir string) *DevSender {
	return &DevSender{dir: dir}
}

type devEmailMetadata struct {
	Timestamp string `json:"timestamp"`
	Recipient string `json:"recipient"`
	Subject   string `json:"subject"`
	TextBody  string `json:"text_body"`
}

// Send writes the email body and metadata to the configured directory.
func (d *DevSender) Send(ctx context.Context, recipient, subject, htmlBody, textBody string) error {
	if recipient == "" {
		return ErrInvalidRecipient
	}

	if err := os.MkdirAll(d.dir, 0755); err != nil {
		return fmt.Errorf("%w: failed to create directory: %v", ErrFailedToSendEmail, err)
	}

	now := time.Now()
	base := fmt.Sprintf("%s_%s", now.Format("2006_01_02_150405"), sanitizeFilename(subject))

	htmlPath := filepath.Join(d.dir, base+".html")
	if err := os.WriteFile(htmlPath, []byte(htmlBody), 0644); err != nil {
		return fmt.Errorf("%w: failed to write HTML file: %v", ErrFailedToSendEmail, err)
	}

	meta := devEmailMetadata{
		Timestamp: now.Format(time.RFC3339),
		Recipient: recipient,
		Subject:   subject,
		TextBody:  textBody,
	}
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: failed to marshal metadata: %v", ErrFailedToSendEmail, err)
	}
	jsonPath := filepath.Join(d.dir, base+".json")
	if err := os.WriteFile(jsonPath, data, 0644); err != nil {
		return fmt.Errorf("%w: failed to write JSON file: %v", ErrFailedToSendEmail, err)
	}

	return nil
}

var sanitizeRegex = regexp.MustCompile(`[^a-zA-Z0-9\-_.]`)

// sanitizeFilename converts an arbitrary subject line into a safe filename.
func sanitizeFilename(s string) string {
	s = strings.ReplaceAll(s, " ", "_")
	s = sanitizeRegex.ReplaceAllString(s, "")

	const maxLength = 100
	if len(s) > maxLength {
		s = s[:maxLength]
	}
	if s == "" {
		s = "email"
	}
	return strings.ToLower(s)
}
