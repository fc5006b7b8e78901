package http

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"user-service/internal/domain"
)

const (
	currentUserKey = "currentUser"
	requestIDKey   = "requestID"
)

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

func requestLogger(logger logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		reqID := c.GetHeader("X-Request-ID")
		if reqID == "" {
			reqID = uuid.NewString()
		}
		c.Set(requestIDKey, reqID)
		c.Writer.Header().Set("X-Request-ID", reqID)

		c.Next()

		logger.WithFields(logrus.Fields{
			"req_id":  reqID,
			"method":  c.Request.Method,
			"path":    c.FullPath(),
			"status":  c.Writer.Status(),
			"latency": time.Since(start).String(),
		}).Info("request completed")
	}
}

// authenticate resolves the bearer token to a live user record. Tokens of
// deleted users and tokens minted before the last password change are refused.
func (h *Handler) authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		scheme, raw, ok := strings.Cut(header, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(raw) == "" {
			h.abort(c, domain.ErrInvalidToken)
			return
		}

		claims, err := h.tokens.ParseToken(strings.TrimSpace(raw))
		if err != nil {
			h.abort(c, domain.ErrInvalidToken)
			return
		}
		id, err := claims.UserID()
		if err != nil {
			h.abort(c, domain.ErrInvalidToken)
			return
		}

		user, err := h.users.GetByID(c.Request.Context(), id)
		if err != nil {
			if errors.Is(err, domain.ErrUserNotFound) {
				h.abort(c, domain.ErrInvalidToken)
				return
			}
			h.abort(c, err)
			return
		}
		if user.IsDeleted || user.PasswordVersion != claims.PasswordVersion {
			h.abort(c, domain.ErrInvalidToken)
			return
		}

		c.Set(currentUserKey, user)
		c.Next()
	}
}

func (h *Handler) requireAction(action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !h.users.CanPerformAction(currentUser(c), action) {
			h.abort(c, domain.ErrForbidden)
			return
		}
		c.Next()
	}
}

func currentUser(c *gin.Context) *domain.User {
	v, ok := c.Get(currentUserKey)
	if !ok {
		return nil
	}
	user, _ := v.(*domain.User)
	return user
}

func (h *Handler) abort(c *gin.Context, err error) {
	h.writeError(c, err)
	c.Abort()
}

// writeError maps error kinds to statuses; internal errors never leak details.
func (h *Handler) writeError(c *gin.Context, err error) {
	var de *domain.Error
	if !errors.As(err, &de) {
		h.logger.WithError(err).WithField("req_id", c.GetString(requestIDKey)).Error("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	body := gin.H{"error": de.Message, "code": de.Code}
	switch de.Kind {
	case domain.KindValidation:
		body["errors"] = de.Fields
		c.JSON(http.StatusBadRequest, body)
	case domain.KindDomain:
		c.JSON(http.StatusBadRequest, body)
	case domain.KindNotFound:
		c.JSON(http.StatusNotFound, body)
	case domain.KindUnauthenticated:
		c.Header("WWW-Authenticate", `Bearer`)
		c.JSON(http.StatusUnauthorized, body)
	case domain.KindForbidden:
		c.JSON(http.StatusForbidden, body)
	default:
		h.logger.WithError(err).WithField("req_id", c.GetString(requestIDKey)).Error("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
