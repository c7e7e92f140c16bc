package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"linkedcrm/config"
	"linkedcrm/utils"
)

func Protected() fiber.Handler {
	return func(c *fiber.Ctx) error {
		// Try to get token from Authorization header first
		var token string
		authHeader := c.Get("Authorization")
		if authHeader != "" {
			// Check if it's a Bearer token
			tokenParts := strings.Split(authHeader, " ")
			if len(tokenParts) != 2 || tokenParts[0] != "Bearer" {
				return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
					"error": "Invalid authorization format",
				})
			}
			token = tokenParts[1]
		} else {
			// Fall back to cookie if header not present
			token = c.Cookies("access_token")
			if token == "" {
				return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
					"error": "Authorization required",
				})
			}
		}

		// Parse and validate JWT
		claims, err := utils.ParseJWTToken(token)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid or expired token",
			})
		}

		// Single-operator tool: the token must belong to the configured admin
		if claims.Email != config.AppConfig.AdminEmail {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Unknown operator",
			})
		}

		c.Locals("operatorEmail", claims.Email)

		return c.Next()
	}
}
