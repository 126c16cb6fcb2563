package handlers

import (
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"

	"storefront/internal/middleware"
	"storefront/internal/models"
	"storefront/internal/services"
	"storefront/internal/views"

	"github.com/gofiber/fiber/v2"
)

// ProductHandler serves the catalog pages and actions.
type ProductHandler struct {
	productService *services.ProductService
	authService    *services.AuthService
	cookie         middleware.CookieConfig
}

// NewProductHandler creates a new ProductHandler.
func NewProductHandler(productService *services.ProductService, authService *services.AuthService, cookie middleware.CookieConfig) *ProductHandler {
	return &ProductHandler{
		productService: productService,
		authService:    authService,
		cookie:         cookie,
	}
}

// RegisterRoutes registers the catalog routes. Every route runs sessionGate
// first; writeGates additionally guard add and delete.
func (h *ProductHandler) RegisterRoutes(router fiber.Router, sessionGate fiber.Handler, writeGates ...fiber.Handler) {
	router.Get("/", sessionGate, h.HandleIndex)
	router.Get("/product/:id", sessionGate, h.HandleGetProduct)

	router.Post("/add_product", chain(sessionGate, writeGates, h.HandleAddProduct)...)
	router.Post("/delete_product", chain(sessionGate, writeGates, h.HandleDeleteProduct)...)
}

func chain(first fiber.Handler, middle []fiber.Handler, last fiber.Handler) []fiber.Handler {
	handlers := make([]fiber.Handler, 0, len(middle)+2)
	handlers = append(handlers, first)
	handlers = append(handlers, middle...)
	return append(handlers, last)
}

// DeleteRequest represents the submitted delete form.
type DeleteRequest struct {
	ProductID uint `form:"product_id"`
}

// HandleIndex lists the catalog. Admins get the management view, everyone
// else the read-only one.
func (h *ProductHandler) HandleIndex(c *fiber.Ctx) error {
	page := views.Page{}
	if missing, err := strconv.ParseUint(c.Query("missing"), 10, 64); err == nil {
		page.Notice = fmt.Sprintf("Product #%d was not found", missing)
	}
	return h.renderCatalog(c, fiber.StatusOK, page)
}

// HandleGetProduct shows one product. Unknown IDs go back to the listing.
func (h *ProductHandler) HandleGetProduct(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil {
		return c.Redirect("/")
	}

	product, err := h.productService.GetProduct(uint(id))
	if err != nil {
		if errors.Is(err, services.ErrProductNotFound) {
			return c.Redirect("/")
		}
		return err
	}

	sess := middleware.CurrentSession(c)
	return c.Render("product", views.Page{Username: sess.Username, Product: product})
}

// HandleAddProduct creates a product from the add form.
func (h *ProductHandler) HandleAddProduct(c *fiber.Ctx) error {
	sess := middleware.CurrentSession(c)
	form := views.Form{
		Name:       c.FormValue("name"),
		Price:      c.FormValue("price"),
		Department: c.FormValue("department"),
		Aisle:      c.FormValue("aisle"),
	}

	// The form decoder turns an absent number into 0.
	if strings.TrimSpace(form.Price) == "" {
		return h.renderCatalog(c, fiber.StatusBadRequest, views.Page{Error: "Price is required", Form: form})
	}

	var input models.ProductInput
	if err := c.BodyParser(&input); err != nil {
		log.Printf("Error parsing add product form: %v", err)
		return h.renderCatalog(c, fiber.StatusBadRequest, views.Page{Error: "Price must be a whole number", Form: form})
	}

	product, err := h.productService.AddProduct(input, sess.Username)
	if err != nil {
		var validationErr *services.ValidationError
		if errors.As(err, &validationErr) {
			return h.renderCatalog(c, fiber.StatusBadRequest, views.Page{Error: "Name is required and price cannot be negative", Form: form})
		}
		return err
	}

	log.Printf("User %s added product %d (%s)", sess.Username, product.ID, product.Name)
	return c.Redirect("/", fiber.StatusSeeOther)
}

// HandleDeleteProduct removes a product. A missing product is reported on
// the listing and changes nothing.
func (h *ProductHandler) HandleDeleteProduct(c *fiber.Ctx) error {
	sess := middleware.CurrentSession(c)

	var req DeleteRequest
	if err := c.BodyParser(&req); err != nil || req.ProductID == 0 {
		return h.renderCatalog(c, fiber.StatusBadRequest, views.Page{Error: "Invalid product ID"})
	}

	if err := h.productService.DeleteProduct(req.ProductID, sess.Username); err != nil {
		if errors.Is(err, services.ErrProductNotFound) {
			return c.Redirect(fmt.Sprintf("/?missing=%d", req.ProductID), fiber.StatusSeeOther)
		}
		return err
	}

	log.Printf("User %s deleted product %d", sess.Username, req.ProductID)
	return c.Redirect("/", fiber.StatusSeeOther)
}

// renderCatalog picks the view from the user's current role.
func (h *ProductHandler) renderCatalog(c *fiber.Ctx, status int, page views.Page) error {
	sess := middleware.CurrentSession(c)

	user, err := h.authService.CurrentUser(sess.Username)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			middleware.ClearSessionCookie(c, h.cookie)
			return c.Redirect("/login")
		}
		return err
	}

	products, err := h.productService.ListProducts()
	if err != nil {
		return err
	}

	page.Username = user.Username
	page.IsAdmin = user.IsAdmin
	page.Products = products

	view := "catalog"
	if user.IsAdmin {
		view = "catalog_admin"
	}
	return c.Status(status).Render(view, page)
}
