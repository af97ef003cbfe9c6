package postgres

import (
	"context"
	"fmt"

	"github.com/bitforgehq/storefront/internal/domain"
	"github.com/bitforgehq/storefront/pkg/database"
)

// InquiryRepository implements repository.InquiryRepository using
// PostgreSQL.
type InquiryRepository struct {
	pool database.DBTX
}

// NewInquiryRepository creates a new PostgreSQL-backed inquiry repository.
func NewInquiryRepository(pool database.DBTX) *InquiryRepository {
	return &InquiryRepository{pool: pool}
}

// Create stores a submitted inquiry.
func (r *InquiryRepository) Create(ctx context.Context, inquiry *domain.Inquiry) error {
	query := `
		INSERT INTO inquiries (id, kind, name, email, company, phone, service_type, budget, timeline, project_details, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err := r.pool.Exec(ctx, query,
		inquiry.ID,
		inquiry.Kind,
		inquiry.Name,
		inquiry.Email,
		inquiry.Company,
		inquiry.Phone,
		inquiry.ServiceType,
		inquiry.Budget,
		inquiry.Timeline,
		inquiry.ProjectDetails,
		inquiry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert inquiry: %w", err)
	}

	return nil
}
