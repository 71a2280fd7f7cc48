package middleware

import (
	"context"
	"palcontent/internal/models"
	"palcontent/internal/types"
	"palcontent/internal/utils"
	"strings"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/gofiber/fiber/v2"
)

// AuthContextKey is used to store auth info in context
type AuthContextKey string

const (
	UserKey      AuthContextKey = "user"
	UserKeyFiber string         = "User" // Fiber context key (string)

	WebhookSecretHeader = "X-Webhook-Secret"
)

// TokenValidator is satisfied by services.AuthService.
type TokenValidator interface {
	ValidateToken(ctx context.Context, token string) (*types.TokenInfo, error)
}

// BearerToken extracts the token from an "Authorization: Bearer <token>" header.
func BearerToken(header string) (string, bool) {
	tokenParts := strings.Split(header, " ")
	if len(tokenParts) != 2 || strings.ToLower(tokenParts[0]) != "bearer" || tokenParts[1] == "" {
		return "", false
	}
	return tokenParts[1], true
}

// RequireAuth validates the Supabase access token and resolves it to a local user,
// creating the user on first sign-in.
func (m *Middleware) RequireAuth(authService TokenValidator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		log := logger.New("middleware").TraceFromContext(c.UserContext()).Function("RequireAuth")

		authHeader := c.Get("Authorization")
		if authHeader == "" {
			log.Info("missing authorization header")
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Authorization header required",
			})
		}

		token, ok := BearerToken(authHeader)
		if !ok {
			log.Info("invalid authorization header format")
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid authorization header format",
			})
		}

		tokenInfo, err := authService.ValidateToken(c.UserContext(), token)
		if err != nil || tokenInfo == nil || !tokenInfo.Valid {
			log.Info("token validation failed", "error", err)
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid token",
			})
		}

		user, err := m.userRepo.FindOrCreate(c.UserContext(), m.DB.SQL, userFromToken(tokenInfo))
		if err != nil {
			log.Info("failed to resolve user", "authUserID", tokenInfo.UserID, "error", err.Error())
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "User not found",
			})
		}

		if !user.IsActive {
			log.Info("inactive user rejected", "userID", user.ID)
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "Account is disabled",
			})
		}

		c.Locals(UserKeyFiber, user)

		// Preserve the trace ID set by the TraceID middleware
		ctx := context.WithValue(c.UserContext(), UserKey, user)
		c.SetUserContext(ctx)

		log.Debug("user authenticated", "authUserID", tokenInfo.UserID, "userID", user.ID, "role", user.Role)
		return c.Next()
	}
}

func userFromToken(tokenInfo *types.TokenInfo) *models.User {
	user := &models.User{
		AuthUserID: tokenInfo.UserID,
		FullName:   tokenInfo.Name,
		Phone:      tokenInfo.Phone,
		Role:       models.RoleTechnician,
	}
	if tokenInfo.Email != "" {
		email := strings.ToLower(tokenInfo.Email)
		user.Email = &email
	}
	if role := models.UserRole(tokenInfo.Role); role.IsValid() {
		user.Role = role
	}
	return user
}

// RequireRole rejects authenticated users whose role is not listed.
func (m *Middleware) RequireRole(roles ...models.UserRole) fiber.Handler {
	log := m.log.Function("RequireRole")

	return func(c *fiber.Ctx) error {
		user := GetUser(c)
		if user == nil {
			log.Info("user not found in context")
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Authentication required",
			})
		}

		if !user.HasRole(roles...) {
			log.Info("role not permitted", "userID", user.ID, "role", user.Role)
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "Insufficient permissions",
			})
		}

		return c.Next()
	}
}

// RequireWebhookSecret guards machine-to-machine endpoints with a shared secret.
func (m *Middleware) RequireWebhookSecret(secret string) fiber.Handler {
	log := m.log.Function("RequireWebhookSecret")

	return func(c *fiber.Ctx) error {
		if !utils.SecretsEqual(secret, c.Get(WebhookSecretHeader)) {
			log.Warn("webhook secret mismatch", "path", c.Path(), "ip", c.IP())
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": types.ErrInvalidSignature.Error(),
			})
		}
		return c.Next()
	}
}

// GetUser extracts user from Fiber context
func GetUser(c *fiber.Ctx) *models.User {
	user, ok := c.Locals(UserKeyFiber).(*models.User)
	if !ok {
		return nil
	}
	return user
}
