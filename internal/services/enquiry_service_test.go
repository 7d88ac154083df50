package services

import (
	"context"
	"strings"
	"testing"

	"github.com/dipiu-foods/dipiu-api/internal/config"
	"github.com/dipiu-foods/dipiu-api/internal/models"
)

type fakeMailer struct {
	sent     bool
	from     string
	to       string
	replyTo  string
	subject  string
	htmlBody string
}

func (f *fakeMailer) Send(ctx context.Context, from, to, replyTo, subject, htmlBody string) error {
	f.sent = true
	f.from = from
	f.to = to
	f.replyTo = replyTo
	f.subject = subject
	f.htmlBody = htmlBody
	return nil
}

func enquiryConfig() *config.Config {
	return &config.Config{
		SenderEmail:    "web@dipiu.example",
		RecipientEmail: "orders@dipiu.example",
	}
}

func TestSendEnquiryRequiresEmailAndContactPerson(t *testing.T) {
	tests := []struct {
		name    string
		enquiry models.WholesaleEnquiry
	}{
		{"missing email", models.WholesaleEnquiry{ContactPerson: "Maria"}},
		{"missing contact person", models.WholesaleEnquiry{Email: "maria@example.com"}},
		{"invalid email", models.WholesaleEnquiry{ContactPerson: "Maria", Email: "not-an-email"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mailer := &fakeMailer{}
			es := NewEnquiryService(mailer, enquiryConfig())

			if err := es.SendEnquiry(context.Background(), &tt.enquiry); err == nil {
				t.Fatal("expected validation error")
			}
			if mailer.sent {
				t.Error("no send may be attempted when validation fails")
			}
		})
	}
}

func TestSendEnquiryRelaysWithReplyTo(t *testing.T) {
	mailer := &fakeMailer{}
	es := NewEnquiryService(mailer, enquiryConfig())

	enquiry := &models.WholesaleEnquiry{
		BusinessName:  "Corner Deli",
		ContactPerson: "Maria",
		Email:         "maria@example.com",
		Volume:        "20 units/week",
		Message:       "Interested in stocking sorbets",
		Interests:     []string{"Sorbets", "Granita"},
	}

	if err := es.SendEnquiry(context.Background(), enquiry); err != nil {
		t.Fatalf("send failed: %v", err)
	}

	if mailer.from != "web@dipiu.example" || mailer.to != "orders@dipiu.example" {
		t.Errorf("from/to = %q/%q, want configured addresses", mailer.from, mailer.to)
	}
	if mailer.replyTo != "maria@example.com" {
		t.Errorf("reply-to = %q, want the enquirer's address", mailer.replyTo)
	}
	if mailer.subject != "New Enquiry from Corner Deli" {
		t.Errorf("subject = %q", mailer.subject)
	}
	for _, want := range []string{"Corner Deli", "Maria", "20 units/week", "Sorbets, Granita", "Interested in stocking sorbets"} {
		if !strings.Contains(mailer.htmlBody, want) {
			t.Errorf("body missing %q", want)
		}
	}
}

func TestSendEnquirySubjectFallsBackToContactPerson(t *testing.T) {
	mailer := &fakeMailer{}
	es := NewEnquiryService(mailer, enquiryConfig())

	enquiry := &models.WholesaleEnquiry{
		ContactPerson: "Maria",
		Email:         "maria@example.com",
	}
	if err := es.SendEnquiry(context.Background(), enquiry); err != nil {
		t.Fatalf("send failed: %v", err)
	}

	if mailer.subject != "New Enquiry from Maria" {
		t.Errorf("subject = %q", mailer.subject)
	}
	if !strings.Contains(mailer.htmlBody, "N/A") {
		t.Error("empty business name should render as N/A")
	}
	if !strings.Contains(mailer.htmlBody, "None selected") {
		t.Error("empty interests should render as None selected")
	}
}

func TestSendEnquiryEscapesHTML(t *testing.T) {
	mailer := &fakeMailer{}
	es := NewEnquiryService(mailer, enquiryConfig())

	enquiry := &models.WholesaleEnquiry{
		ContactPerson: "Maria",
		Email:         "maria@example.com",
		Message:       `<script>alert("x")</script>`,
	}
	if err := es.SendEnquiry(context.Background(), enquiry); err != nil {
		t.Fatalf("send failed: %v", err)
	}

	if strings.Contains(mailer.htmlBody, "<script>") {
		t.Error("user input must be escaped in the HTML body")
	}
}
