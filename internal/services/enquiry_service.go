package services

import (
	"context"
	"fmt"
	"html"
	"strings"

	"github.com/dipiu-foods/dipiu-api/internal/config"
	"github.com/dipiu-foods/dipiu-api/internal/models"
	"github.com/wneessen/go-mail"
)

// Mailer is the outbound relay. It is fire-and-forget from the site's point
// of view: a failure is reported to the enquirer but nothing is queued.
type Mailer interface {
	Send(ctx context.Context, from, to, replyTo, subject, htmlBody string) error
}

type EnquiryService struct {
	mailer Mailer
	cfg    *config.Config
}

func NewEnquiryService(mailer Mailer, cfg *config.Config) *EnquiryService {
	return &EnquiryService{
		mailer: mailer,
		cfg:    cfg,
	}
}

// SendEnquiry validates the wholesale enquiry and relays it by email.
// Validation failures are returned before any send is attempted.
func (es *EnquiryService) SendEnquiry(ctx context.Context, enquiry *models.WholesaleEnquiry) error {
	if err := models.Validate.Struct(enquiry); err != nil {
		return fmt.Errorf("email and contact person are required: %v", err)
	}

	subjectName := enquiry.BusinessName
	if subjectName == "" {
		subjectName = enquiry.ContactPerson
	}
	subject := fmt.Sprintf("New Enquiry from %s", subjectName)

	return es.mailer.Send(ctx, es.cfg.SenderEmail, es.cfg.RecipientEmail, enquiry.Email, subject, enquiryBody(enquiry))
}

func enquiryBody(enquiry *models.WholesaleEnquiry) string {
	businessName := enquiry.BusinessName
	if businessName == "" {
		businessName = "N/A"
	}
	interests := strings.Join(enquiry.Interests, ", ")
	if interests == "" {
		interests = "None selected"
	}

	var b strings.Builder
	b.WriteString(`<div style="font-family: Arial, sans-serif; color: #333; max-width: 600px; margin: 0 auto;">`)
	b.WriteString(`<h2 style="color: #D92525;">New Wholesale Enquiry</h2>`)
	b.WriteString(`<p>You have received a new enquiry from the website.</p>`)
	b.WriteString(`<table style="width: 100%; border-collapse: collapse; margin-top: 20px;">`)
	writeRow(&b, "Business Name", businessName)
	writeRow(&b, "Contact Person", enquiry.ContactPerson)
	writeRow(&b, "Email", enquiry.Email)
	writeRow(&b, "Interests", interests)
	writeRow(&b, "Estimated Volume", enquiry.Volume)
	b.WriteString(`</table>`)
	b.WriteString(`<div style="margin-top: 20px; padding: 15px; background-color: #f9f9f9; border-radius: 5px;">`)
	b.WriteString(`<p style="margin: 0;"><strong>Message:</strong></p>`)
	fmt.Fprintf(&b, `<p style="margin-top: 5px; white-space: pre-wrap;">%s</p>`, html.EscapeString(enquiry.Message))
	b.WriteString(`</div></div>`)
	return b.String()
}

func writeRow(b *strings.Builder, label, value string) {
	fmt.Fprintf(b,
		`<tr><td style="padding: 10px; border-bottom: 1px solid #eee;"><strong>%s:</strong></td>`+
			`<td style="padding: 10px; border-bottom: 1px solid #eee;">%s</td></tr>`,
		label, html.EscapeString(value))
}

// SMTPMailer sends through the configured SMTP relay (Brevo in production).
type SMTPMailer struct {
	cfg *config.Config
}

func NewSMTPMailer(cfg *config.Config) *SMTPMailer {
	return &SMTPMailer{cfg: cfg}
}

func (sm *SMTPMailer) Send(ctx context.Context, from, to, replyTo, subject, htmlBody string) error {
	msg := mail.NewMsg()
	if err := msg.FromFormat("DiPiù Web", from); err != nil {
		return fmt.Errorf("invalid sender address: %v", err)
	}
	if err := msg.To(to); err != nil {
		return fmt.Errorf("invalid recipient address: %v", err)
	}
	if err := msg.ReplyTo(replyTo); err != nil {
		return fmt.Errorf("invalid reply-to address: %v", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextHTML, htmlBody)

	client, err := mail.NewClient(sm.cfg.SMTPHost,
		mail.WithPort(sm.cfg.SMTPPort),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(sm.cfg.SMTPUser),
		mail.WithPassword(sm.cfg.SMTPKey),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	)
	if err != nil {
		return fmt.Errorf("failed to create SMTP client: %v", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("failed to send email: %v", err)
	}
	return nil
}
