// internals/middlewares/auth/claim_utils.go
package auth

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"gorm.io/gorm"

	userModel "crowdfund_backend/internals/features/users/users/model"
)

var errUserInactive = errors.New("user is inactive")

func extractBearerToken(c *fiber.Ctx) (string, error) {
	auth := strings.TrimSpace(c.Get("Authorization"))
	if auth == "" {
		if cookieTok := c.Cookies("access_token"); cookieTok != "" {
			auth = "Bearer " + cookieTok
		}
	}
	if auth == "" {
		return "", fmt.Errorf("unauthorized - No token provided")
	}

	fields := strings.Fields(auth)
	if len(fields) < 2 || !strings.EqualFold(fields[0], "Bearer") {
		return "", fmt.Errorf("unauthorized - Invalid token format")
	}
	tok := strings.Trim(strings.TrimSpace(fields[1]), "\"'")
	if tok == "" {
		return "", fmt.Errorf("unauthorized - Empty token")
	}
	return tok, nil
}

func validateTokenExpiry(claims jwt.MapClaims, skew time.Duration) error {
	expVal, ok := claims["exp"]
	if !ok {
		return fmt.Errorf("token has no exp")
	}

	var expUnix int64
	switch t := expVal.(type) {
	case float64:
		expUnix = int64(t)
	case int64:
		expUnix = t
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(t), 10, 64)
		if err != nil {
			return fmt.Errorf("invalid exp format")
		}
		expUnix = n
	default:
		return fmt.Errorf("invalid exp type")
	}

	if time.Now().After(time.Unix(expUnix, 0).Add(skew)) {
		return fmt.Errorf("token expired")
	}
	return nil
}

// extractUserID accepts "id", "user_id" or "sub".
func extractUserID(claims jwt.MapClaims) (uuid.UUID, error) {
	for _, k := range []string{"id", "user_id", "sub"} {
		s, ok := claims[k].(string)
		if !ok || strings.TrimSpace(s) == "" {
			continue
		}
		return uuid.Parse(strings.TrimSpace(s))
	}
	return uuid.Nil, fmt.Errorf("user id not found in token")
}

func loadActiveUser(db *gorm.DB, userID uuid.UUID) (*userModel.UserModel, error) {
	var u userModel.UserModel
	if err := db.Select("id", "role", "is_active").
		Where("id = ?", userID).
		Take(&u).Error; err != nil {
		return nil, err
	}
	if !u.IsActive {
		return nil, errUserInactive
	}
	return &u, nil
}
