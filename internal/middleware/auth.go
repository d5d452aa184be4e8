// Package middleware provides HTTP middleware for authentication, logging, rate limiting,
// metrics and tracing.
package middleware

import (
	"context"
	"crypto/subtle"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

const accessTokenType = "access"

// UserLookup confirms that the (user id, telegram id) pair of a token still exists.
type UserLookup interface {
	ExistsIdentity(ctx context.Context, userID uint, telegramID int64) (bool, error)
}

// IssueAccessToken signs an access token with the claims the API expects.
func IssueAccessToken(secret string, userID uint, telegramID int64, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"user_id":     strconv.FormatUint(uint64(userID), 10),
		"telegram_id": strconv.FormatInt(telegramID, 10),
		"token_type":  accessTokenType,
		"iat":         now.Unix(),
		"exp":         now.Add(ttl).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// AuthRequired verifies the bearer access token and stores userID (uint) and
// telegramID (int64) in the request locals. A nil lookup skips the user existence check.
func AuthRequired(secret string, lookup UserLookup) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return unauthorized(c, "Authorization header required")
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			return unauthorized(c, "Invalid authorization header format")
		}

		token, err := jwt.Parse(parts[1], func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fiber.NewError(fiber.StatusUnauthorized, "Invalid signing method")
			}
			return []byte(secret), nil
		})
		if err != nil || !token.Valid {
			return unauthorized(c, "Token is invalid or expired")
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			return unauthorized(c, "Invalid token claims")
		}
		if tt, _ := claims["token_type"].(string); tt != accessTokenType {
			return unauthorized(c, "Token is invalid or expired")
		}

		userID, err := uintClaim(claims["user_id"])
		if err != nil {
			return unauthorized(c, "Bad token payload")
		}
		telegramID, err := int64Claim(claims["telegram_id"])
		if err != nil {
			return unauthorized(c, "Bad token payload")
		}

		if lookup != nil {
			exists, err := lookup.ExistsIdentity(c.UserContext(), userID, telegramID)
			if err != nil {
				Logger.ErrorContext(c.UserContext(), "user lookup failed", "err", err)
				return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Internal server error"})
			}
			if !exists {
				return unauthorized(c, "User not found")
			}
		}

		c.Locals("userID", userID)
		c.Locals("telegramID", telegramID)
		annotate(c, func(m *RequestMeta) { m.UserID = userID })

		return c.Next()
	}
}

// APIKeyRequired guards service-to-service routes with the X-API-Key header. The
// api_key query parameter is accepted for WebSocket upgrades where headers are awkward.
func APIKeyRequired(apiKey string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		provided := c.Get("X-API-Key")
		if provided == "" {
			provided = c.Query("api_key")
		}
		if provided == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Missing API Key"})
		}
		if apiKey == "" || subtle.ConstantTimeCompare([]byte(provided), []byte(apiKey)) != 1 {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid API key"})
		}
		return c.Next()
	}
}

func unauthorized(c *fiber.Ctx, msg string) error {
	c.Set("WWW-Authenticate", "Bearer")
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": msg})
}

func uintClaim(v interface{}) (uint, error) {
	switch val := v.(type) {
	case string:
		n, err := strconv.ParseUint(val, 10, 64)
		if err != nil || n == 0 {
			return 0, fmt.Errorf("invalid id %q", val)
		}
		return uint(n), nil
	case float64:
		if val <= 0 || val != float64(uint64(val)) {
			return 0, fmt.Errorf("invalid id %v", val)
		}
		return uint(val), nil
	}
	return 0, fmt.Errorf("unexpected claim type %T", v)
}

func int64Claim(v interface{}) (int64, error) {
	switch val := v.(type) {
	case string:
		return strconv.ParseInt(val, 10, 64)
	case float64:
		if val != float64(int64(val)) {
			return 0, fmt.Errorf("invalid id %v", val)
		}
		return int64(val), nil
	}
	return 0, fmt.Errorf("unexpected claim type %T", v)
}
