package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/bitforgehq/storefront/internal/domain"
	"github.com/bitforgehq/storefront/internal/event"
	"github.com/bitforgehq/storefront/internal/repository"
	apperrors "github.com/bitforgehq/storefront/pkg/errors"
)

// InquiryService stores lead-generation form submissions.
type InquiryService struct {
	inquiries repository.InquiryRepository
	producer  *event.Producer
	logger    *slog.Logger
}

// NewInquiryService creates a new inquiry service.
func NewInquiryService(inquiries repository.InquiryRepository, producer *event.Producer, logger *slog.Logger) *InquiryService {
	return &InquiryService{inquiries: inquiries, producer: producer, logger: logger}
}

// SubmitInquiryInput is a lead-generation form submission. ServiceType and
// ProjectDetails are required for service inquiries only.
type SubmitInquiryInput struct {
	Kind           domain.InquiryKind `json:"kind" validate:"required,oneof=contact quote service"`
	Name           string             `json:"name" validate:"required"`
	Email          string             `json:"email" validate:"required,email"`
	Company        string             `json:"company"`
	Phone          string             `json:"phone"`
	ServiceType    string             `json:"service_type"`
	Budget         string             `json:"budget"`
	Timeline       string             `json:"timeline"`
	ProjectDetails string             `json:"project_details"`
}

// Submit validates and stores an inquiry, then emits a best-effort event
// for downstream lead routing.
func (s *InquiryService) Submit(ctx context.Context, input *SubmitInquiryInput) (*domain.Inquiry, error) {
	if input == nil {
		return nil, apperrors.InvalidInput("inquiry payload is required")
	}
	if input.Name == "" || input.Email == "" {
		return nil, apperrors.InvalidInput("name and email are required")
	}
	if input.Kind == domain.InquiryService {
		if input.ServiceType == "" || input.ProjectDetails == "" {
			return nil, apperrors.InvalidInput("service_type and project_details are required for service inquiries")
		}
	}

	inquiry := &domain.Inquiry{
		ID:             uuid.NewString(),
		Kind:           input.Kind,
		Name:           input.Name,
		Email:          input.Email,
		Company:        input.Company,
		Phone:          input.Phone,
		ServiceType:    input.ServiceType,
		Budget:         input.Budget,
		Timeline:       input.Timeline,
		ProjectDetails: input.ProjectDetails,
		CreatedAt:      time.Now().UTC(),
	}

	if err := s.inquiries.Create(ctx, inquiry); err != nil {
		return nil, err
	}

	s.producer.InquiryReceived(ctx, inquiry)

	s.logger.InfoContext(ctx, "inquiry received",
		slog.String("inquiry_id", inquiry.ID),
		slog.String("kind", string(inquiry.Kind)),
	)

	return inquiry, nil
}
