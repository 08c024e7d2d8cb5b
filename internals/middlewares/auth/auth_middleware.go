// internals/middlewares/auth/auth_middleware.go
package auth

import (
	"errors"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"gorm.io/gorm"

	"crowdfund_backend/internals/configs"
	helper "crowdfund_backend/internals/helpers"
)

// expSkew tolerates small clock drift between token issuer and this server.
const expSkew = 30 * time.Second

// AuthJWT verifies the bearer token (header or access_token cookie), checks the
// user still exists and is active, and stores user id and role in Locals.
func AuthJWT(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString, err := extractBearerToken(c)
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, err.Error())
		}

		secretKey := configs.JWTSecret
		if secretKey == "" {
			log.Println("[ERROR] JWT_SECRET is empty")
			return fiber.NewError(fiber.StatusInternalServerError, "Missing JWT secret")
		}

		claims := jwt.MapClaims{}
		parser := jwt.Parser{SkipClaimsValidation: true}
		if _, err := parser.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, errors.New("unexpected signing method")
			}
			return []byte(secretKey), nil
		}); err != nil {
			log.Printf("[WARN] token parse failed: %v", err)
			return fiber.NewError(fiber.StatusUnauthorized, "Unauthorized - Token parse error")
		}

		if err := validateTokenExpiry(claims, expSkew); err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "Unauthorized - Token expired")
		}

		userID, err := extractUserID(claims)
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "Unauthorized - Invalid or missing user ID")
		}

		user, err := loadActiveUser(db, userID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fiber.NewError(fiber.StatusUnauthorized, "Unauthorized - User not found")
			}
			if errors.Is(err, errUserInactive) {
				return fiber.NewError(fiber.StatusForbidden, "Account is disabled")
			}
			log.Printf("[ERROR] user lookup failed: %v", err)
			return fiber.NewError(fiber.StatusInternalServerError, "Internal Server Error")
		}

		c.Locals(helper.LocUserID, user.ID.String())
		// the stored role wins over whatever the token claims
		c.Locals(helper.LocUserRole, user.Role)
		if name, ok := claims["user_name"].(string); ok {
			c.Locals("user_name", name)
		}
		return c.Next()
	}
}
