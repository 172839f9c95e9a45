package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

// currentUserID resolves the authenticated identity placed in locals by the JWT
// middleware. Credential verification itself never happens in the handlers.
func currentUserID(c *fiber.Ctx) (uuid.UUID, error) {
	token := c.Locals("user").(*jwt.Token)
	claims := token.Claims.(jwt.MapClaims)
	raw, _ := claims["user_id"].(string)
	return uuid.Parse(raw)
}

// ownedBy is the single ownership check applied before every test read or
// mutation. Pure comparison, no side effects.
func ownedBy(ownerID, requesterID uuid.UUID) bool {
	return ownerID == requesterID
}
