package middleware

import (
	"log"
	"strings"

	"github.com/gofiber/fiber/v3"
)

const (
	// Visibility permissions
	ReadVisibilityPermission   = "read:visibility"
	UpdateVisibilityPermission = "update:visibility"
	AdminVisibilityPermission  = "admin:visibility"

	// Visibility analytics permissions
	ReadVisibilityAnalyticsPermission = "read:visibility:analytics"

	// Admin permissions (for backward compatibility)
	AdminPermission   = "admin"
	ManagerPermission = "manager"
)

// PermissionRequired checks the gateway-injected X-User-Permissions
// header for the required permission. Admin and manager permissions
// satisfy any check.
func PermissionRequired(requiredPermission string) fiber.Handler {
	return func(c fiber.Ctx) error {
		log.Println("Permission required function called from", c.IP(), "Calling", c.Method(), "Request", c.OriginalURL())
		userPermissions := c.Get("X-User-Permissions")
		hasPermission := false
		if userPermissions != "" {
			permissions := strings.Split(userPermissions, ",")

			for _, perm := range permissions {
				if perm == requiredPermission || strings.HasPrefix(perm, "admin") || strings.HasPrefix(perm, "manager") {
					hasPermission = true
					break
				}
			}
		}

		if !hasPermission {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Unauthorized",
			})
		}
		return c.Next()
	}
}

// ActorID returns the gateway-injected user id for audit attribution.
func ActorID(c fiber.Ctx) string {
	return c.Get("X-User-ID")
}
