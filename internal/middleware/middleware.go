package middleware

import (
	"context"
	"crypto/sha256"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"matinee/internal/cache"
	"matinee/internal/logger"
	"matinee/internal/models"
	"matinee/internal/repository"
)

const identityKey = "identity"

// IdentityFrom returns the authenticated caller set by BasicAuth.
func IdentityFrom(c *gin.Context) (cache.Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return cache.Identity{}, false
	}
	id, ok := v.(cache.Identity)
	return id, ok
}

// ScopeFrom returns the admin visibility scope set by RequireAdmin.
func ScopeFrom(c *gin.Context) (models.Scope, bool) {
	v, ok := c.Get("scope")
	if !ok {
		return models.Scope{}, false
	}
	scope, ok := v.(models.Scope)
	return scope, ok
}

func CORS() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PATCH, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(200)
			return
		}

		c.Next()
	}
}

// Logger emits one structured line per request.
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		requestID := logger.NewRequestID()
		c.Request = c.Request.WithContext(
			context.WithValue(c.Request.Context(), logger.CtxRequestID, requestID))

		c.Next()

		latency := time.Since(start)
		logFields := []any{
			"request_id", requestID,
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status_code", c.Writer.Status(),
			"latency_ms", latency.Milliseconds(),
			"client_ip", c.ClientIP(),
		}
		if id, ok := IdentityFrom(c); ok {
			logFields = append(logFields, "holder_id", id.UserID)
		}

		if c.Writer.Status() >= 500 {
			if len(c.Errors) > 0 {
				logFields = append(logFields, "error", c.Errors.String())
			}
			slog.Error("Request failed", logFields...)
		} else {
			slog.Debug("Request completed", logFields...)
		}
	}
}

func Recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		slog.Error("PANIC recovered",
			"panic", recovered,
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"client_ip", c.ClientIP(),
		)
		if !c.Writer.Written() {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		}
	})
}

// BasicAuth authenticates the caller against the Valkey auth cache
// first, then the users table. On success the caller's identity,
// including role and host for scope resolution, is attached to the
// request.
func BasicAuth(userRepo *repository.UserRepository, valkeyClient *cache.ValkeyClient) gin.HandlerFunc {
	return func(c *gin.Context) {
		email, password, ok := c.Request.BasicAuth()
		if !ok {
			c.Header("WWW-Authenticate", "Basic realm=\"matinee\"")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}

		ctx := c.Request.Context()
		hash := sha256.Sum256([]byte(password))
		passwordHash := fmt.Sprintf("%x", hash)

		if valkeyClient != nil {
			if id, err := valkeyClient.GetIdentityByAuth(ctx, email, passwordHash); err == nil {
				attach(c, *id)
				c.Next()
				return
			}
		}

		user, err := userRepo.GetByEmail(ctx, email)
		if err != nil || user == nil || !user.IsActive || user.PasswordHash != passwordHash {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
			return
		}

		id := cache.Identity{UserID: user.UserID, Role: user.Role, HostID: user.HostID}
		if valkeyClient != nil {
			if err := valkeyClient.SetIdentityByAuth(ctx, email, passwordHash, id); err != nil {
				slog.Warn("Failed to cache identity", "error", err)
			}
		}

		attach(c, id)
		c.Next()
	}
}

func attach(c *gin.Context, id cache.Identity) {
	c.Set(identityKey, id)
	c.Request = c.Request.WithContext(
		context.WithValue(c.Request.Context(), logger.CtxHolderID, id.UserID))
}

// AuthAs attaches a fixed identity to every request. Test wiring for
// handler suites that run without a database.
func AuthAs(id cache.Identity) gin.HandlerFunc {
	return func(c *gin.Context) {
		attach(c, id)
		c.Next()
	}
}

// RequireAdmin gates the admin routes and resolves the visibility
// scope from the caller's role: staff see their own host only, owner
// sees everything. Resolved once here, then passed explicitly to
// every read below.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := IdentityFrom(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}

		switch id.Role {
		case models.RoleOwner:
			c.Set("scope", models.ScopeAll)
		case models.RoleStaff:
			if id.HostID == nil {
				c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Staff account has no host"})
				return
			}
			c.Set("scope", models.ScopeHost(*id.HostID))
		default:
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Forbidden"})
			return
		}

		c.Next()
	}
}
