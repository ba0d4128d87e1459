package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Context key for the authenticated user.
const ContextUserIDKey = "userID"

// jwtClaims defines the structure we expect in the JWT payload.
type jwtClaims struct {
	UserID string `json:"uid"`
	jwt.RegisteredClaims
}

// AuthMiddleware creates a Gin middleware for JWT bearer authentication.
// Token issuance is external; this service only verifies.
func AuthMiddleware(jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortWithError(c, http.StatusUnauthorized, "Authorization header is missing")
			return
		}

		// Expecting "Bearer <token>"
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			abortWithError(c, http.StatusUnauthorized, "Authorization header format must be Bearer {token}")
			return
		}
		tokenString := parts[1]

		claims := &jwtClaims{}
		token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return []byte(jwtSecret), nil
		})
		if err != nil {
			if errors.Is(err, jwt.ErrTokenExpired) {
				abortWithError(c, http.StatusUnauthorized, "Token has expired")
			} else {
				abortWithError(c, http.StatusUnauthorized, fmt.Sprintf("Invalid token: %v", err))
			}
			return
		}

		if !token.Valid || claims.UserID == "" {
			abortWithError(c, http.StatusUnauthorized, "Invalid token or missing claims")
			return
		}

		c.Set(ContextUserIDKey, claims.UserID)
		c.Next()
	}
}

// CORSMiddleware restricts cross-origin access to an explicit allow-list.
// "*" in the list allows any origin.
func CORSMiddleware(allowedOrigins []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		allowed := allowedOrigin(origin, allowedOrigins)

		if allowed != "" {
			c.Header("Access-Control-Allow-Origin", allowed)
			c.Header("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
			c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")
			c.Header("Access-Control-Allow-Credentials", "true")
			c.Header("Access-Control-Max-Age", "3600")
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// allowedOrigin returns the origin to echo back, "*" when everything is
// allowed, or empty when the origin is not on the list.
func allowedOrigin(requestOrigin string, allowedOrigins []string) string {
	if requestOrigin == "" {
		return ""
	}
	if slices.Contains(allowedOrigins, "*") {
		return "*"
	}
	for _, allowed := range allowedOrigins {
		if strings.EqualFold(requestOrigin, allowed) {
			return requestOrigin
		}
	}
	return ""
}

// limiterIdleTTL is how long a client IP may stay quiet before its limiter
// entry is evicted from the table.
const limiterIdleTTL = 10 * time.Minute

// ipLimiters tracks one token bucket per client IP. Idle entries are swept
// out so the table does not grow without bound on long-lived processes.
type ipLimiters struct {
	mu                sync.Mutex
	requestsPerMinute int
	entries           map[string]*ipLimiterEntry
	lastSweep         time.Time
}

type ipLimiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func newIPLimiters(requestsPerMinute int) *ipLimiters {
	return &ipLimiters{
		requestsPerMinute: requestsPerMinute,
		entries:           make(map[string]*ipLimiterEntry),
		lastSweep:         time.Now(),
	}
}

func (t *ipLimiters) allow(ip string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := time.Now()
	if now.Sub(t.lastSweep) > limiterIdleTTL {
		t.sweepLocked(now)
	}

	e, ok := t.entries[ip]
	if !ok {
		e = &ipLimiterEntry{
			limiter: rate.NewLimiter(rate.Limit(float64(t.requestsPerMinute)/60.0), t.requestsPerMinute),
		}
		t.entries[ip] = e
	}
	e.lastSeen = now
	return e.limiter.Allow()
}

func (t *ipLimiters) sweepLocked(now time.Time) {
	for ip, e := range t.entries {
		if now.Sub(e.lastSeen) > limiterIdleTTL {
			delete(t.entries, ip)
		}
	}
	t.lastSweep = now
}

// RateLimitMiddleware enforces a per-client-IP quota. Each call builds an
// independent limiter table, so the upload route can carry its own, smaller
// budget separate from the catalog routes.
func RateLimitMiddleware(requestsPerMinute int) gin.HandlerFunc {
	limiters := newIPLimiters(requestsPerMinute)

	return func(c *gin.Context) {
		if !limiters.allow(c.ClientIP()) {
			abortWithError(c, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		c.Next()
	}
}

// TimeoutMiddleware bounds the request context. Ordinary routes get a
// deadline of seconds; the upload route is wired with a deadline of minutes
// to accommodate large payload transfer.
func TimeoutMiddleware(timeout time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// RequestLogger logs one structured line per request.
func RequestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}
