package models

// WholesaleEnquiry is the contact-form payload relayed to the business by
// email. Email and contact person are the only required fields.
type WholesaleEnquiry struct {
	BusinessName  string   `json:"business_name"`
	ContactPerson string   `json:"contact_person" validate:"required"`
	Email         string   `json:"email" validate:"required,email"`
	Volume        string   `json:"volume"`
	Message       string   `json:"message"`
	Interests     []string `json:"interests"`
}
