package services

import (
	"errors"
	"fmt"
	"log"
	"time"

	"storefront/internal/metrics"
	"storefront/internal/models"
	"storefront/internal/repositories"
	"storefront/pkg/rabbitmq"

	"github.com/go-playground/validator/v10"
)

// ErrProductNotFound is returned when a product ID matches nothing. It is an
// ordinary outcome, not a failure of the store.
var ErrProductNotFound = errors.New("product not found")

// ValidationError wraps field failures of a product input.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %v", e.Fields)
}

// EventPublisher publishes catalog changes. *rabbitmq.Client implements it.
type EventPublisher interface {
	PublishCatalogEvent(event rabbitmq.CatalogEvent) error
}

// ProductService handles business logic related to products.
type ProductService struct {
	repo      repositories.ProductRepository
	publisher EventPublisher
	metrics   *metrics.Metrics
	validate  *validator.Validate
}

// NewProductService creates a new ProductService. publisher and m may be nil.
func NewProductService(repo repositories.ProductRepository, publisher EventPublisher, m *metrics.Metrics) *ProductService {
	return &ProductService{
		repo:      repo,
		publisher: publisher,
		metrics:   m,
		validate:  validator.New(),
	}
}

// ListProducts retrieves all products in insertion order.
func (s *ProductService) ListProducts() ([]models.Product, error) {
	return s.repo.GetAll()
}

// GetProduct retrieves a single product by its ID.
func (s *ProductService) GetProduct(id uint) (*models.Product, error) {
	product, err := s.repo.GetByID(id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	return product, nil
}

// AddProduct validates the input and stores a new product with a fresh ID.
func (s *ProductService) AddProduct(input models.ProductInput, actor string) (*models.Product, error) {
	if err := s.validate.Struct(input); err != nil {
		s.metrics.ObserveCatalogMutation("add", "invalid")
		return nil, toValidationError(err)
	}

	product := &models.Product{
		Name:       input.Name,
		Price:      input.Price,
		Department: input.Department,
		Aisle:      input.Aisle,
	}
	if err := s.repo.Create(product); err != nil {
		s.metrics.ObserveCatalogMutation("add", "error")
		return nil, err
	}
	s.metrics.ObserveCatalogMutation("add", "success")

	s.publish(rabbitmq.CatalogEvent{
		Type:      rabbitmq.EventProductAdded,
		ProductID: product.ID,
		Name:      product.Name,
		Actor:     actor,
	})
	return product, nil
}

// DeleteProduct removes a product. Deleting an unknown ID returns
// ErrProductNotFound and leaves the catalog unchanged.
func (s *ProductService) DeleteProduct(id uint, actor string) error {
	if err := s.repo.Delete(id); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			s.metrics.ObserveCatalogMutation("delete", "not_found")
			return ErrProductNotFound
		}
		s.metrics.ObserveCatalogMutation("delete", "error")
		return err
	}
	s.metrics.ObserveCatalogMutation("delete", "success")

	s.publish(rabbitmq.CatalogEvent{
		Type:      rabbitmq.EventProductDeleted,
		ProductID: id,
		Actor:     actor,
	})
	return nil
}

// SeedDemoProducts fills an empty catalog with a few sample products.
func (s *ProductService) SeedDemoProducts() error {
	count, err := s.repo.Count()
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	products := []models.Product{
		{Name: "T-shirt", Price: 500, Department: "Clothing", Aisle: "A1"},
		{Name: "Jacket", Price: 2000, Department: "Clothing", Aisle: "A2"},
		{Name: "Trousers", Price: 1200, Department: "Clothing", Aisle: "A1"},
		{Name: "Sneakers", Price: 3000, Department: "Footwear", Aisle: "B1"},
		{Name: "Sweater", Price: 1500, Department: "Clothing", Aisle: "A3"},
	}
	for i := range products {
		if err := s.repo.Create(&products[i]); err != nil {
			return fmt.Errorf("failed to seed product %s: %w", products[i].Name, err)
		}
		log.Printf("Seeded product: %s (ID: %d)", products[i].Name, products[i].ID)
	}
	return nil
}

// publish sends the event if a publisher is configured. Failures are logged
// and never fail the request.
func (s *ProductService) publish(event rabbitmq.CatalogEvent) {
	if s.publisher == nil {
		return
	}
	event.OccurredAt = time.Now().UTC()
	if err := s.publisher.PublishCatalogEvent(event); err != nil {
		log.Printf("Warning: failed to publish %s event for product %d: %v", event.Type, event.ProductID, err)
	}
}

func toValidationError(err error) error {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return err
	}
	fields := make(map[string]string, len(validationErrors))
	for _, e := range validationErrors {
		fields[e.Field()] = fmt.Sprintf("Field '%s' failed on the '%s' tag", e.Field(), e.Tag())
	}
	return &ValidationError{Fields: fields}
}
