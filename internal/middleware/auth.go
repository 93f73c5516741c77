package middleware

import (
	"context"
	"net/http"
	"os"
	"strings"
	"time"

	"adminhub/internal/model"
	"adminhub/internal/rbac"
	"adminhub/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	ctxUserKey      = "auth_user"
	ctxEffectiveKey = "auth_effective"
	ctxDecisionKey  = "auth_decision"
)

// Bounded retry on the role-fetch path: fixed delay, small count, never
// an unbounded wait inside the request pipeline.
const (
	roleFetchAttempts = 3
	roleFetchDelay    = 200 * time.Millisecond
)

// AuthStore is the slice of the identity store the session guard needs.
type AuthStore interface {
	ValidateToken(ctx context.Context, token string) (*model.User, error)
	GetRolesForUser(ctx context.Context, userID uuid.UUID) ([]model.Role, error)
}

func GetJWTSecret() []byte {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		if os.Getenv("GIN_MODE") == "release" {
			panic("FATAL: JWT_SECRET environment variable is required in production mode")
		}
		secret = "default_super_secret_key" // Development fallback only — DO NOT use in production
	}
	return []byte(secret)
}

// SetTokenCookies sets access_token and refresh_token as HttpOnly cookies
func SetTokenCookies(c *gin.Context, accessToken, refreshToken string) {
	sameSite := http.SameSiteLaxMode
	secure := false
	if os.Getenv("GIN_MODE") == "release" {
		sameSite = http.SameSiteNoneMode
		secure = true
	}

	c.SetSameSite(sameSite)
	c.SetCookie("access_token", accessToken, 3600*24, "/", "", secure, true)
	c.SetCookie("refresh_token", refreshToken, 3600*24*7, "/", "", secure, true)
}

// ClearTokenCookies removes access_token and refresh_token cookies
func ClearTokenCookies(c *gin.Context) {
	sameSite := http.SameSiteLaxMode
	secure := false
	if os.Getenv("GIN_MODE") == "release" {
		sameSite = http.SameSiteNoneMode
		secure = true
	}

	c.SetSameSite(sameSite)
	c.SetCookie("access_token", "", -1, "/", "", secure, true)
	c.SetCookie("refresh_token", "", -1, "/", "", secure, true)
}

// extractToken reads the credential from the access_token cookie, falling
// back to the Authorization header.
func extractToken(c *gin.Context) string {
	if token, err := c.Cookie("access_token"); err == nil && token != "" {
		return token
	}

	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return ""
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return ""
	}
	return parts[1]
}

// Authenticate resolves the caller's identity and effective permissions
// once per request. An absent or invalid credential never fails the
// request here — the caller proceeds as anonymous and public routes stay
// reachable; the Require* gates reject where protection is needed.
//
// Permissions are resolved fresh on every request so a role edit takes
// effect without the holder logging out.
func Authenticate(store AuthStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c)
		if token == "" {
			c.Next()
			return
		}

		user, err := store.ValidateToken(c.Request.Context(), token)
		if err != nil {
			// Expired or tampered credential: treat as anonymous, do not raise
			c.Next()
			return
		}

		roles, err := fetchRolesBounded(c.Request.Context(), store, user.ID)
		if err != nil {
			// Store unreachable: the caller is known but their grants are
			// not. Record a degraded context so gates can fail closed with
			// the distinction intact.
			c.Set(ctxUserKey, user)
			c.Set(ctxDecisionKey, err)
			c.Next()
			return
		}

		c.Set(ctxUserKey, user)
		c.Set(ctxEffectiveKey, rbac.Resolve(roles))
		c.Next()
	}
}

func fetchRolesBounded(ctx context.Context, store AuthStore, userID uuid.UUID) ([]model.Role, error) {
	var lastErr error
	for attempt := 0; attempt < roleFetchAttempts; attempt++ {
		if attempt > 0 {
			time.Sleep(roleFetchDelay)
		}
		roles, err := store.GetRolesForUser(ctx, userID)
		if err == nil {
			return roles, nil
		}
		lastErr = err
	}
	return nil, lastErr
}

// CurrentUser returns the authenticated user, if any.
func CurrentUser(c *gin.Context) (*model.User, bool) {
	v, ok := c.Get(ctxUserKey)
	if !ok {
		return nil, false
	}
	user, ok := v.(*model.User)
	return user, ok
}

// Permissions returns the caller's resolved effective permissions. ok is
// false for anonymous and degraded contexts alike.
func Permissions(c *gin.Context) (rbac.Effective, bool) {
	v, ok := c.Get(ctxEffectiveKey)
	if !ok {
		return nil, false
	}
	eff, ok := v.(rbac.Effective)
	return eff, ok
}

// RequireAuth rejects anonymous callers.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := CurrentUser(c); !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error("Unauthorized access. Please login."))
			return
		}
		c.Next()
	}
}

// RequirePermission gates a route on one (resource, action) grant. Denials
// name the missing grant so the UI can explain itself to the user. A
// degraded context (permission lookup failed) is also rejected — this
// gate fails closed; only the maintenance gate fails open.
func RequirePermission(resource rbac.Resource, action rbac.Action) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok || user == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error("Unauthorized access. Please login."))
			return
		}

		eff, ok := Permissions(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusForbidden, response.Error(forbiddenMessage(resource, action)))
			return
		}

		if d := eff.Decide(resource, action); d.Outcome != rbac.Granted {
			c.AbortWithStatusJSON(http.StatusForbidden, response.Error(forbiddenMessage(resource, action)))
			return
		}

		c.Next()
	}
}

func forbiddenMessage(resource rbac.Resource, action rbac.Action) string {
	return "Forbidden. You do not have permission to " + string(action) + " " + string(resource) + "."
}
