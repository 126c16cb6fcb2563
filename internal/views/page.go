package views

import "storefront/internal/models"

// Page is the binding every template is rendered with. Zero fields render
// as absent.
type Page struct {
	Username string
	IsAdmin  bool
	Error    string
	Notice   string

	Form     Form
	Products []models.Product
	Product  *models.Product

	Status  int
	Message string
}

// Form echoes submitted values back into a re-rendered form.
type Form struct {
	Username string

	Name       string
	Price      string
	Department string
	Aisle      string
}
