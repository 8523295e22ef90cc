package accounts

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-errors"
)

// SessionCookieName is the cookie carrying the bearer token.
const SessionCookieName = "token"

const sessionLocalKey = "accounts.session"

// setSessionCookie attaches the session token to the response. Attributes
// match the clearing path exactly so logout actually removes the cookie.
func setSessionCookie(c *fiber.Ctx, token string, production bool) {
	c.Cookie(&fiber.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Expires:  time.Now().Add(SessionTokenTTL),
		MaxAge:   int(SessionTokenTTL / time.Second),
		HTTPOnly: true,
		Secure:   production,
		SameSite: cookieSameSite(production),
	})
}

// clearSessionCookie expires the cookie client side. Logout is purely a
// transport level clear; a bearer token copied beforehand stays valid until
// it expires.
func clearSessionCookie(c *fiber.Ctx, production bool) {
	c.Cookie(&fiber.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Expires:  time.Now().Add(-time.Hour * 24 * 365),
		MaxAge:   -1,
		HTTPOnly: true,
		Secure:   production,
		SameSite: cookieSameSite(production),
	})
}

func cookieSameSite(production bool) string {
	if production {
		return fiber.CookieSameSiteNoneMode
	}
	return fiber.CookieSameSiteLaxMode
}

// RequireSession gates a route on a valid, unexpired session token. The
// decoded session is stored in the request locals for handlers downstream.
func RequireSession(auther Authenticator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw := c.Cookies(SessionCookieName)
		if raw == "" {
			return respondError(c, ErrUnableToFindSession)
		}

		session, err := auther.SessionFromToken(raw)
		if err != nil {
			return respondError(c, err)
		}

		c.Locals(sessionLocalKey, session)
		return c.Next()
	}
}

// SessionFrom retrieves the session stored by RequireSession.
func SessionFrom(c *fiber.Ctx) (*SessionObject, bool) {
	session, ok := c.Locals(sessionLocalKey).(*SessionObject)
	return session, ok
}

// respondError writes the standard failure envelope using the status the
// error carries.
func respondError(c *fiber.Ctx, err error) error {
	status := StatusForError(err)

	msg := "An unexpected server error occurred"
	var richErr *errors.Error
	if errors.As(err, &richErr) {
		if status < 500 {
			msg = richErr.Message
		}
	}

	return c.Status(status).JSON(fiber.Map{
		"success": false,
		"msg":     msg,
	})
}

// respondBusinessFailure keeps the inherited 200-with-failure-flag contract
// on routes where existing clients depend on it.
func respondBusinessFailure(c *fiber.Ctx, err error) error {
	msg := "An unexpected server error occurred"
	var richErr *errors.Error
	if errors.As(err, &richErr) {
		msg = richErr.Message
	}

	return c.JSON(fiber.Map{
		"success": false,
		"msg":     msg,
	})
}
