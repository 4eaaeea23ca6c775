package accounts

import (
	"github.com/gofiber/fiber/v2"
)

// GetSession extracts the verified session from a fiber request. It expects
// the jwtware middleware to have stored the decoded claims under key.
func GetSession(c *fiber.Ctx, key string) (Session, error) {
	stored := c.Locals(key)
	if stored == nil {
		return nil, ErrUnableToFindSession
	}

	claims, ok := stored.(AuthClaims)
	if claims == nil || !ok {
		return nil, ErrUnableToDecodeSession
	}

	return sessionFromAuthClaims(claims)
}
