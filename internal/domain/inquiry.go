package domain

import "time"

// InquiryKind distinguishes the lead-generation forms.
type InquiryKind string

const (
	InquiryContact InquiryKind = "contact"
	InquiryQuote   InquiryKind = "quote"
	InquiryService InquiryKind = "service"
)

// Inquiry is a submitted lead-generation form. Kind-specific fields are
// empty when not applicable.
type Inquiry struct {
	ID             string      `json:"id"`
	Kind           InquiryKind `json:"kind"`
	Name           string      `json:"name"`
	Email          string      `json:"email"`
	Company        string      `json:"company,omitempty"`
	Phone          string      `json:"phone,omitempty"`
	ServiceType    string      `json:"service_type,omitempty"`
	Budget         string      `json:"budget,omitempty"`
	Timeline       string      `json:"timeline,omitempty"`
	ProjectDetails string      `json:"project_details,omitempty"`
	CreatedAt      time.Time   `json:"created_at"`
}
