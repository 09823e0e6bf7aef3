package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"authapi/internal/guard"
	"authapi/internal/models"
	"authapi/internal/notifier"
	"authapi/internal/token"
)

// AuthCookieName is the cookie carrying the signed credential.
const AuthCookieName = "token"

var denialMessages = map[guard.Kind]string{
	guard.KindBot:       "Automated requests are not allowed",
	guard.KindShield:    "Requests blocked by security policy",
	guard.KindRateLimit: "Too many requests",
}

// Security evaluates the request guard before route dispatch. The caller's
// role comes from the auth cookie when it verifies, "guest" otherwise; an
// invalid cookie only demotes the caller, it does not reject the request.
// Guard failures are a 500, never a silent bypass.
func Security(engine *guard.Engine, issuer *token.Issuer, alerts *notifier.Dispatcher, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := models.RoleGuest
		if cookie, err := c.Cookie(AuthCookieName); err == nil && cookie != "" {
			if claims, err := issuer.Verify(cookie); err == nil {
				role = claims.Role
			}
		}

		req := guard.Request{
			IP:        c.ClientIP(),
			Role:      role,
			Method:    c.Request.Method,
			Path:      c.Request.URL.Path,
			RawQuery:  c.Request.URL.RawQuery,
			UserAgent: c.Request.UserAgent(),
		}

		decision, err := engine.Protect(c.Request.Context(), req)
		if err != nil {
			logger.Error("Security middleware error", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}

		if decision.Denied {
			logger.Warn("Request denied",
				zap.String("kind", string(decision.Kind)),
				zap.String("reason", decision.Reason),
				zap.String("ip", req.IP),
				zap.String("path", req.Path),
			)
			alerts.Notify(notifier.Event{
				Kind:   string(decision.Kind),
				IP:     req.IP,
				Method: req.Method,
				Path:   req.Path,
				Reason: decision.Reason,
				Time:   time.Now(),
			})
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error":   "Forbidden",
				"message": denialMessages[decision.Kind],
			})
			return
		}

		c.Next()
	}
}
