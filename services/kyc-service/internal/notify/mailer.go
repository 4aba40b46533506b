package notify

import (
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"
	gomail "gopkg.in/gomail.v2"
)

// Template names understood by Send.
const (
	TemplateOnboardingReceived   = "onboarding_received"
	TemplateVerificationComplete = "verification_complete"
	TemplateVerificationFailed   = "verification_failed"
	TemplateDocumentFlagged      = "document_flagged"
)

type template struct {
	subject string
	body    string
}

var templates = map[string]template{
	TemplateOnboardingReceived: {
		subject: "Your application has been received",
		body: "Dear {customer_name},\n\n" +
			"Thank you for submitting your application. We have received your documents " +
			"and our verification team is reviewing them.\n\n" +
			"Reference: {reference}\n\n" +
			"We will contact you within 2 business days.\n\n" +
			"Best regards,\nThe Verification Team",
	},
	TemplateVerificationComplete: {
		subject: "Verification complete",
		body: "Dear {customer_name},\n\n" +
			"Good news: your identity verification is complete and your account is now active.\n\n" +
			"Reference: {reference}\n\n" +
			"Best regards,\nThe Verification Team",
	},
	TemplateVerificationFailed: {
		subject: "Additional information required",
		body: "Dear {customer_name},\n\n" +
			"We were unable to complete your verification with the documents provided. " +
			"Please reply to this email with a clear copy of a valid identity document.\n\n" +
			"Reference: {reference}\n\n" +
			"Best regards,\nThe Verification Team",
	},
	TemplateDocumentFlagged: {
		subject: "Document review in progress",
		body: "Dear {customer_name},\n\n" +
			"One of your submitted documents requires additional review by our team. " +
			"No action is needed from you at this time; we will be in touch shortly.\n\n" +
			"Reference: {reference}\n\n" +
			"Best regards,\nThe Verification Team",
	},
}

// Config holds SMTP settings. An empty Host switches the mailer into
// mock mode, where sends are logged instead of delivered.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// Mailer sends templated customer notifications.
type Mailer struct {
	cfg  Config
	mock bool
}

func NewMailer(cfg Config) *Mailer {
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	if cfg.From == "" {
		cfg.From = "noreply@jupiterbrains.io"
	}
	mock := cfg.Host == "" || cfg.Username == ""
	if mock {
		log.Printf("[EMAIL] SMTP not configured, mailer running in mock mode")
	}
	return &Mailer{cfg: cfg, mock: mock}
}

// Send renders the named template and delivers it. In mock mode the
// rendered message is logged and a message id is still returned.
func (m *Mailer) Send(templateName, to, customerName, reference string) (string, error) {
	tpl, ok := templates[templateName]
	if !ok {
		return "", fmt.Errorf("unknown email template %q", templateName)
	}
	if to == "" {
		return "", fmt.Errorf("missing recipient address")
	}

	body := strings.NewReplacer(
		"{customer_name}", customerName,
		"{reference}", reference,
	).Replace(tpl.body)
	messageID := uuid.NewString()

	if m.mock {
		log.Printf("[EMAIL] mock send %s to %s: %s", messageID, to, tpl.subject)
		return messageID, nil
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.cfg.From)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", tpl.subject)
	msg.SetBody("text/plain", body)

	dialer := gomail.NewDialer(m.cfg.Host, m.cfg.Port, m.cfg.Username, m.cfg.Password)
	if err := dialer.DialAndSend(msg); err != nil {
		return "", fmt.Errorf("send email: %w", err)
	}

	log.Printf("[EMAIL] sent %s to %s: %s", messageID, to, tpl.subject)
	return messageID, nil
}
