package handlers

import (
	"errors"
	"log"

	"storefront/internal/hash"
	"storefront/internal/middleware"
	"storefront/internal/services"
	"storefront/internal/views"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// AuthHandler handles the login, registration and logout pages.
type AuthHandler struct {
	authService *services.AuthService
	cookie      middleware.CookieConfig
	validate    *validator.Validate
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService *services.AuthService, cookie middleware.CookieConfig) *AuthHandler {
	validate := validator.New()
	// max counts runes; bcrypt limits bytes.
	_ = validate.RegisterValidation("bcryptmax", func(fl validator.FieldLevel) bool {
		return len(fl.Field().String()) <= hash.MaxPasswordBytes
	})

	return &AuthHandler{
		authService: authService,
		cookie:      cookie,
		validate:    validate,
	}
}

// RegisterRoutes registers the authentication routes with the Fiber app.
func (h *AuthHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/login", h.ShowLogin)
	router.Post("/login", h.HandleLogin)
	router.Get("/register", h.ShowRegister)
	router.Post("/register", h.HandleRegister)
	router.Get("/logout", h.HandleLogout)
}

// LoginRequest represents the submitted login form.
type LoginRequest struct {
	Username string `form:"username" validate:"required,max=100"`
	Password string `form:"password" validate:"required"`
}

// RegisterRequest represents the submitted registration form.
type RegisterRequest struct {
	Username string `form:"username" validate:"required,min=3,max=100"`
	Password string `form:"password" validate:"required,min=4,bcryptmax"`
}

// ShowLogin renders the login form.
func (h *AuthHandler) ShowLogin(c *fiber.Ctx) error {
	return c.Render("login", views.Page{})
}

// HandleLogin authenticates the user and opens a session.
func (h *AuthHandler) HandleLogin(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		log.Printf("Error parsing login form: %v", err)
		return c.Status(fiber.StatusBadRequest).Render("login", views.Page{Error: "Invalid form submission"})
	}
	page := views.Page{Form: views.Form{Username: req.Username}}

	if err := h.validate.Struct(req); err != nil {
		page.Error = "Username and password are required"
		return c.Status(fiber.StatusBadRequest).Render("login", page)
	}

	sess, token, err := h.authService.Login(req.Username, req.Password)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			log.Printf("Failed login for user %s", req.Username)
			page.Error = "Invalid username or password"
			return c.Status(fiber.StatusUnauthorized).Render("login", page)
		}
		return err
	}

	middleware.SetSessionCookie(c, h.cookie, token, sess.ExpiresAt)
	return c.Redirect("/", fiber.StatusSeeOther)
}

// ShowRegister renders the registration form.
func (h *AuthHandler) ShowRegister(c *fiber.Ctx) error {
	return c.Render("register", views.Page{})
}

// HandleRegister creates a regular account and sends the user to login.
func (h *AuthHandler) HandleRegister(c *fiber.Ctx) error {
	var req RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		log.Printf("Error parsing register form: %v", err)
		return c.Status(fiber.StatusBadRequest).Render("register", views.Page{Error: "Invalid form submission"})
	}
	page := views.Page{Form: views.Form{Username: req.Username}}

	if err := h.validate.Struct(req); err != nil {
		page.Error = registerValidationMessage(err)
		return c.Status(fiber.StatusBadRequest).Render("register", page)
	}

	if err := h.authService.Register(req.Username, req.Password); err != nil {
		if errors.Is(err, services.ErrDuplicateUser) {
			page.Error = "User already exists"
			return c.Status(fiber.StatusConflict).Render("register", page)
		}
		if errors.Is(err, services.ErrPasswordTooLong) {
			page.Error = passwordTooLongMessage
			return c.Status(fiber.StatusBadRequest).Render("register", page)
		}
		log.Printf("Error registering user %s: %v", req.Username, err)
		page.Error = "Registration failed, please try again"
		return c.Status(fiber.StatusInternalServerError).Render("register", page)
	}

	return c.Redirect("/login", fiber.StatusSeeOther)
}

const passwordTooLongMessage = "Password must be at most 72 bytes"

func registerValidationMessage(err error) string {
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		for _, fe := range fieldErrs {
			if fe.Tag() == "bcryptmax" {
				return passwordTooLongMessage
			}
		}
	}
	return "Username must be 3-100 characters and password at least 4 characters"
}

// HandleLogout destroys the session.
func (h *AuthHandler) HandleLogout(c *fiber.Ctx) error {
	middleware.ClearSessionCookie(c, h.cookie)
	return c.Redirect("/login")
}
