package api

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/toM7x7/LLM-mindmap/pkg/log"
	"github.com/toM7x7/LLM-mindmap/pkg/metrics"
	"github.com/toM7x7/LLM-mindmap/pkg/model"
)

// Context keys set by the middleware.
const (
	requestIDKey = "mindmap_request_id"
	userKey      = "mindmap_user"
)

const requestIDHeader = "X-Request-ID"

// requestID propagates the caller's request id or mints one.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

// observe records request metrics and writes one access log line per request.
func (s *Server) observe() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		elapsed := time.Since(start)

		metrics.HTTPRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(status)).Inc()
		metrics.HTTPDuration.WithLabelValues(c.Request.Method, route).Observe(elapsed.Seconds())

		s.logger.Info(c.Request.Context(), "HTTP request", log.Fields{
			"method":    c.Request.Method,
			"route":     route,
			"status":    status,
			"duration":  elapsed.String(),
			"requestID": c.GetString(requestIDKey),
		})
	}
}

// authenticate resolves the bearer token to a local user.
func (s *Server) authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		scheme, token, ok := strings.Cut(header, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
			respondProblem(c, http.StatusUnauthorized, "Not authenticated")
			return
		}

		claims, err := s.verifier.VerifyToken(strings.TrimSpace(token))
		if err != nil {
			respondProblem(c, http.StatusUnauthorized, "Could not validate credentials")
			return
		}

		user, err := s.data.UserManager.UserGetByEmail(c.Request.Context(), claims.Account())
		if err != nil || !user.Active {
			respondProblem(c, http.StatusUnauthorized, "Could not validate credentials")
			return
		}

		c.Set(userKey, user)
		c.Next()
	}
}

// currentUser returns the user stored by authenticate.
func currentUser(c *gin.Context) *model.User {
	v, ok := c.Get(userKey)
	if !ok {
		return nil
	}
	user, _ := v.(*model.User)
	return user
}
