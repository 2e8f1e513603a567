package middleware

import (
	"github.com/fetscr/fetscr-backend/internal/auth"
	"github.com/fetscr/fetscr-backend/internal/pkg/logger"
	"github.com/fetscr/fetscr-backend/internal/pkg/response"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// JWTAuth authenticates requests via the Authorization header. The error
// strings are part of the API contract and must not change.
func JWTAuth(jwtManager *auth.JWTManager, log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.Unauthorized(c, "No token provided")
			c.Abort()
			return
		}

		token, err := auth.ExtractTokenFromHeader(authHeader)
		if err != nil {
			response.Unauthorized(c, "No token provided")
			c.Abort()
			return
		}

		claims, err := jwtManager.VerifyToken(token)
		if err != nil {
			log.Warn("invalid access token",
				zap.Error(err),
				zap.String("ip", c.ClientIP()))
			response.Unauthorized(c, "Invalid token")
			c.Abort()
			return
		}

		c.Set("user_id", claims.UserID)
		c.Set("email", claims.Email)

		// Downstream loggers pick the user up via WithContext.
		ctx := logger.WithUserID(c.Request.Context(), claims.UserID)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// GetUserID returns the authenticated user ID from the request context.
func GetUserID(c *gin.Context) (string, bool) {
	userID, exists := c.Get("user_id")
	if !exists {
		return "", false
	}
	return userID.(string), true
}

// CORS allows the frontend origin to call the API.
func CORS() gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")

		if origin != "" {
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PUT, DELETE, PATCH")
			c.Header("Access-Control-Allow-Headers", "Origin, X-Requested-With, Content-Type, Accept, Authorization")
			c.Header("Access-Control-Allow-Credentials", "true")
		}

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
