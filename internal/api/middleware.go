package api

import (
	"errors"
	"net/http"

	"github.com/Ridhim15/Danam-Application/internal/auth"
	"github.com/Ridhim15/Danam-Application/internal/models"
	"github.com/Ridhim15/Danam-Application/internal/session"
	"github.com/Ridhim15/Danam-Application/internal/store"
	"github.com/gin-gonic/gin"
)

const sessionKey = "session"

// AuthMiddleware verifies the bearer token and tracks the caller's session
func (h *Handler) AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, models.ErrorResponse{
				Error:   "Authorization header required",
				Message: "Please provide a valid authorization token",
			})
			c.Abort()
			return
		}

		tokenString, ok := auth.BearerToken(authHeader)
		if !ok {
			c.JSON(http.StatusUnauthorized, models.ErrorResponse{
				Error:   "Invalid authorization format",
				Message: "Authorization header must be in format 'Bearer <token>'",
			})
			c.Abort()
			return
		}

		sess, err := h.verifier.Verify(tokenString)
		if err != nil {
			if errors.Is(err, auth.ErrMissingSecret) {
				c.JSON(http.StatusInternalServerError, models.ErrorResponse{
					Error:   "Server not configured",
					Message: "JWT secret missing",
				})
			} else {
				c.JSON(http.StatusUnauthorized, models.ErrorResponse{
					Error:   "Invalid token",
					Message: "The provided token is invalid or expired",
				})
			}
			c.Abort()
			return
		}

		sess, err = h.sessions.Track(sess)
		if err != nil {
			c.JSON(http.StatusUnauthorized, models.ErrorResponse{
				Error:   "Session ended",
				Message: "This session has been signed out, please sign in again",
			})
			c.Abort()
			return
		}

		c.Set(sessionKey, sess)
		c.Set("user_id", sess.Identity)
		c.Set("email", sess.Email)
		c.Request = c.Request.WithContext(session.NewContext(c.Request.Context(), sess))
		c.Next()
	}
}

// RequireRole lets through callers whose stored profile has one of roles
func (h *Handler) RequireRole(roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := currentSession(c)
		ctx, cancel := requestContext(c)
		defer cancel()

		role, err := h.profiles.Role(ctx, sess.Identity)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				c.JSON(http.StatusForbidden, models.ErrorResponse{
					Error:   "Profile required",
					Message: "Complete your profile before using this feature",
				})
				c.Abort()
				return
			}
			respondError(c, err, "Failed to check role")
			c.Abort()
			return
		}
		for _, r := range roles {
			if role == r {
				c.Set("role", string(role))
				c.Next()
				return
			}
		}
		c.JSON(http.StatusForbidden, models.ErrorResponse{
			Error:   "Access denied",
			Message: "This feature is not available for the " + string(role) + " role",
		})
		c.Abort()
	}
}

// currentSession returns the session set by AuthMiddleware
func currentSession(c *gin.Context) session.Session {
	if v, ok := c.Get(sessionKey); ok {
		if sess, ok := v.(session.Session); ok {
			return sess
		}
	}
	sess, _ := session.FromContext(c.Request.Context())
	return sess
}
