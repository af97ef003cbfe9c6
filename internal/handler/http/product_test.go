package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/bitforgehq/storefront/internal/domain"
	"github.com/bitforgehq/storefront/internal/service"
	apperrors "github.com/bitforgehq/storefront/pkg/errors"
	"github.com/bitforgehq/storefront/pkg/httputil"
)

func catalogProduct() *domain.Product {
	now := time.Now().UTC()
	return &domain.Product{
		ID:           "550e8400-e29b-41d4-a716-446655440020",
		Name:         "Fleet Tracker",
		Description:  "Track fleet vehicles in real time.",
		Type:         domain.ProductTypeMobile,
		Category:     "logistics",
		Platform:     "ios",
		Price:        decimal.RequireFromString("499.00"),
		Currency:     "USD",
		PricingModel: domain.PricingPerpetual,
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func setupProductRouter(products *mockProductRepository) *chi.Mux {
	logger := testLogger()
	handler := NewProductHandler(service.NewCatalogService(products, logger), logger)

	r := chi.NewRouter()
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/products", handler.ListProducts)
		r.Get("/products/{id}", handler.GetProduct)
	})
	return r
}

func TestGetProduct_ReturnsProduct(t *testing.T) {
	products := new(mockProductRepository)
	router := setupProductRouter(products)

	product := catalogProduct()
	products.On("GetByID", mock.Anything, product.ID).Return(product, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/products/"+product.ID, nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Data)
	data := resp.Data.(map[string]any)
	assert.Equal(t, product.ID, data["id"])
	assert.Equal(t, "mobile", data["type"])
}

func TestGetProduct_NotFound(t *testing.T) {
	products := new(mockProductRepository)
	router := setupProductRouter(products)

	products.On("GetByID", mock.Anything, mock.AnythingOfType("string")).
		Return(nil, apperrors.ErrNotFound)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/products/550e8400-e29b-41d4-a716-446655440099", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetProduct_InvalidID(t *testing.T) {
	products := new(mockProductRepository)
	router := setupProductRouter(products)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/products/not-a-uuid", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	products.AssertNotCalled(t, "GetByID")
}

func TestListProducts_MapsQueryParams(t *testing.T) {
	products := new(mockProductRepository)
	router := setupProductRouter(products)

	products.On("List", mock.Anything, domain.ProductFilter{
		Type:       "mobile",
		Category:   "logistics",
		PriceRange: "100-500",
		SortBy:     domain.SortByPriceLow,
		Page:       2,
		PageSize:   10,
	}).Return([]domain.Product{*catalogProduct()}, 15, nil)

	req := httptest.NewRequest(http.MethodGet,
		"/api/v1/products?type=mobile&category=logistics&price_range=100-500&sort_by=price-low&page=2&per_page=10", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp httputil.PaginatedResponse[domain.Product]
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Len(t, resp.Data, 1)
	assert.Equal(t, 15, resp.TotalCount)
	assert.Equal(t, 2, resp.Page)
	products.AssertExpectations(t)
}

func TestListProducts_InvalidSort(t *testing.T) {
	products := new(mockProductRepository)
	router := setupProductRouter(products)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/products?sort_by=alphabetical", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	products.AssertNotCalled(t, "List")
}
