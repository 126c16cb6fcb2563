package middleware

import (
	"errors"
	"log"
	"time"

	"storefront/internal/services"
	"storefront/internal/session"

	"github.com/gofiber/fiber/v2"
)

const sessionLocalsKey = "session"

// CookieConfig describes the session cookie.
type CookieConfig struct {
	Name   string
	Secure bool
}

// SetSessionCookie writes the signed session token.
func SetSessionCookie(c *fiber.Ctx, cfg CookieConfig, token string, expires time.Time) {
	c.Cookie(&fiber.Cookie{
		Name:     cfg.Name,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HTTPOnly: true,
		Secure:   cfg.Secure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

// ClearSessionCookie expires the session cookie in the browser.
func ClearSessionCookie(c *fiber.Ctx, cfg CookieConfig) {
	c.Cookie(&fiber.Cookie{
		Name:     cfg.Name,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HTTPOnly: true,
		Secure:   cfg.Secure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

// CurrentSession returns the session stored by SessionRequired, or nil.
func CurrentSession(c *fiber.Ctx) *session.Session {
	sess, _ := c.Locals(sessionLocalsKey).(*session.Session)
	return sess
}

// SessionRequired is a Fiber middleware that only lets requests with a valid
// session cookie through. Anonymous callers are redirected to /login before
// any handler runs.
func SessionRequired(authService *services.AuthService, cfg CookieConfig) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := c.Cookies(cfg.Name)
		sess, err := authService.Sessions().Parse(token)
		if err != nil {
			if token != "" {
				log.Printf("Rejected session cookie: %v", err)
				ClearSessionCookie(c, cfg)
			}
			return c.Redirect("/login")
		}

		c.Locals(sessionLocalsKey, sess)
		return c.Next()
	}
}

// AdminRequired rejects sessions whose user is not an admin. It must run
// after SessionRequired. The role is read from the store on each request.
func AdminRequired(authService *services.AuthService, cfg CookieConfig) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess := CurrentSession(c)
		if sess == nil {
			return c.Redirect("/login")
		}

		user, err := authService.CurrentUser(sess.Username)
		if err != nil {
			if errors.Is(err, services.ErrUserNotFound) {
				ClearSessionCookie(c, cfg)
				return c.Redirect("/login")
			}
			return err
		}
		if !user.IsAdmin {
			return fiber.NewError(fiber.StatusForbidden, "Only administrators can change the catalog")
		}
		return c.Next()
	}
}
