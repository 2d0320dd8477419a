package middleware

import (
	"errors"
	"strings"

	"travel-search/internal/pkg/jwt"

	"github.com/gofiber/fiber/v3"
)

const CtxAdminSubjectKey = "admin_subject"

// AdminMiddleware admits requests bearing a valid admin token.
type AdminMiddleware struct {
	jwt jwt.Service
}

func NewAdminMiddleware(jwtSvc jwt.Service) *AdminMiddleware {
	return &AdminMiddleware{jwt: jwtSvc}
}

func (m *AdminMiddleware) Middleware() fiber.Handler {
	return func(c fiber.Ctx) error {
		token, ok := bearerTokenFromHeader(c.Get("Authorization"))
		if !ok {
			return NewAppError(fiber.StatusUnauthorized, "Unauthorized", nil, nil)
		}

		claims, err := m.jwt.ValidateToken(token)
		if err != nil {
			if errors.Is(err, jwt.ErrTokenExpired) {
				return NewAppError(fiber.StatusUnauthorized, "Token expired", nil, err)
			}
			return NewAppError(fiber.StatusUnauthorized, "Invalid token", nil, err)
		}
		if claims.Role != jwt.RoleAdmin {
			return NewAppError(fiber.StatusForbidden, "Admin access required", nil, nil)
		}

		c.Locals(CtxAdminSubjectKey, claims.Subject)
		return c.Next()
	}
}

func bearerTokenFromHeader(authHeader string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(authHeader), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
