package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/auralearn/companion-api/internal/dto"
	"github.com/auralearn/companion-api/internal/service"
	"github.com/gin-gonic/gin"
)

// Context keys set by AuthMiddleware.
const (
	ContextUser         = "user"
	ContextUserID       = "user_id"
	ContextSessionToken = "session_token"
)

// AuthMiddleware resolves the bearer token to a session and user and
// attaches both to the request context.
func AuthMiddleware(authService service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, dto.ErrorResponse{
				Error:   "Unauthorized",
				Message: "Authentication required",
			})
			c.Abort()
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, dto.ErrorResponse{
				Error:   "Unauthorized",
				Message: "Authentication required",
			})
			c.Abort()
			return
		}

		token := parts[1]

		user, session, err := authService.Authenticate(c.Request.Context(), token)
		if err != nil {
			switch {
			case errors.Is(err, service.ErrInvalidSession):
				c.JSON(http.StatusUnauthorized, dto.ErrorResponse{
					Error:   "Unauthorized",
					Message: "Invalid or expired session",
				})
			case errors.Is(err, service.ErrUserNotFound):
				c.JSON(http.StatusUnauthorized, dto.ErrorResponse{
					Error:   "Unauthorized",
					Message: "User not found",
				})
			default:
				// Infrastructure failures are not the client's fault.
				internalError(c, err)
			}
			c.Abort()
			return
		}

		c.Set(ContextUser, user)
		c.Set(ContextUserID, user.ID)
		c.Set(ContextSessionToken, session.Token)

		c.Next()
	}
}

// currentUserID returns the authenticated user id or aborts with 401.
func currentUserID(c *gin.Context) (string, bool) {
	userID, exists := c.Get(ContextUserID)
	if !exists {
		c.JSON(http.StatusUnauthorized, dto.ErrorResponse{
			Error:   "Unauthorized",
			Message: "Authentication required",
		})
		return "", false
	}
	return userID.(string), true
}
