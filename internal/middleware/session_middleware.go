package middleware

import (
	"log"

	"stardewshop/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
)

// Session keys. The cart is stored as a versioned JSON document, see the
// cart package.
const (
	SessionUserID     = "user_id"
	SessionRole       = "role"
	SessionPasscodeOK = "passcode_ok"
	SessionCart       = "cart"
)

// Locals key holding the capability that satisfied the admin gate.
const LocalAdminCapability = "admin_capability"

// Capability enumerates the distinct ways a caller can satisfy the admin
// gate. Role-based admin and the passcode grant are materially different
// tiers and are never conflated.
type Capability int

const (
	CapabilityNone Capability = iota
	CapabilityRoleAdmin
	CapabilityPasscode
)

func (c Capability) String() string {
	switch c {
	case CapabilityRoleAdmin:
		return "role-admin"
	case CapabilityPasscode:
		return "passcode-granted"
	default:
		return "none"
	}
}

// ResolveCapability inspects the session for an admin-granting capability.
// The role check wins over the passcode flag when both are present.
func ResolveCapability(sess *session.Session) Capability {
	if role, _ := sess.Get(SessionRole).(string); role == models.RoleAdmin {
		return CapabilityRoleAdmin
	}
	if ok, _ := sess.Get(SessionPasscodeOK).(bool); ok {
		return CapabilityPasscode
	}
	return CapabilityNone
}

// LoginRequired rejects requests without an authenticated session and puts
// the user id in locals for downstream handlers.
func LoginRequired(store *session.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess, err := store.Get(c)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"message": "Could not load session",
			})
		}
		userID, ok := sess.Get(SessionUserID).(uint)
		if !ok || userID == 0 {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Please log in first",
			})
		}
		c.Locals(SessionUserID, userID)
		return c.Next()
	}
}

// AdminRequired rejects callers holding neither admin capability. The
// resolved capability is recorded in locals and logged so the two tiers
// stay auditable.
func AdminRequired(store *session.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess, err := store.Get(c)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"message": "Could not load session",
			})
		}
		capability := ResolveCapability(sess)
		if capability == CapabilityNone {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"message": "Access denied",
			})
		}
		log.Printf("Admin access to %s granted via %s", c.Path(), capability)
		c.Locals(LocalAdminCapability, capability)
		return c.Next()
	}
}
