package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

// RequireOperator attributes every mutating request to an operator.
//
// Authentication itself lives in the surrounding application (a gateway
// in front of this service); what this core needs is only a stable actor
// identity for audit columns and amendment notes. The gateway forwards it
// via headers.
func RequireOperator() fiber.Handler {
	return func(c *fiber.Ctx) error {
		operatorID := strings.TrimSpace(c.Get("X-Operator-Id"))
		if operatorID == "" {
			return c.Status(401).JSON(fiber.Map{"error": "Missing X-Operator-Id header"})
		}

		operatorName := strings.TrimSpace(c.Get("X-Operator-Name"))
		if operatorName == "" {
			operatorName = operatorID
		}

		c.Locals("operator_id", operatorID)
		c.Locals("operator_name", operatorName)
		return c.Next()
	}
}

// OperatorID reads the attributed operator from the request context,
// defaulting to "system" for unattributed paths (migrations, seeds).
func OperatorID(c *fiber.Ctx) string {
	if id, ok := c.Locals("operator_id").(string); ok && id != "" {
		return id
	}
	return "system"
}

// OperatorName reads the display name set by RequireOperator.
func OperatorName(c *fiber.Ctx) string {
	if name, ok := c.Locals("operator_name").(string); ok && name != "" {
		return name
	}
	return "Unknown"
}
