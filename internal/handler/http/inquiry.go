package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/bitforgehq/storefront/internal/domain"
	"github.com/bitforgehq/storefront/internal/service"
	"github.com/bitforgehq/storefront/pkg/httputil"
	"github.com/bitforgehq/storefront/pkg/validator"
)

// InquiryHandler handles HTTP requests for lead-generation forms. These
// endpoints are unauthenticated.
type InquiryHandler struct {
	service *service.InquiryService
	logger  *slog.Logger
}

// NewInquiryHandler creates a new inquiry HTTP handler.
func NewInquiryHandler(svc *service.InquiryService, logger *slog.Logger) *InquiryHandler {
	return &InquiryHandler{
		service: svc,
		logger:  logger,
	}
}

// SubmitInquiryRequest is the JSON request body for a lead-generation form.
type SubmitInquiryRequest struct {
	Kind           string `json:"kind" validate:"required,oneof=contact quote service"`
	Name           string `json:"name" validate:"required"`
	Email          string `json:"email" validate:"required,email"`
	Company        string `json:"company"`
	Phone          string `json:"phone"`
	ServiceType    string `json:"service_type"`
	Budget         string `json:"budget"`
	Timeline       string `json:"timeline"`
	ProjectDetails string `json:"project_details"`
}

// Submit handles POST /api/v1/inquiries
func (h *InquiryHandler) Submit(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req SubmitInquiryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}

	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	inquiry, err := h.service.Submit(r.Context(), &service.SubmitInquiryInput{
		Kind:           domain.InquiryKind(req.Kind),
		Name:           req.Name,
		Email:          req.Email,
		Company:        req.Company,
		Phone:          req.Phone,
		ServiceType:    req.ServiceType,
		Budget:         req.Budget,
		Timeline:       req.Timeline,
		ProjectDetails: req.ProjectDetails,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: inquiry})
}
