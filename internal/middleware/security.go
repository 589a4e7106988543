package middleware

import (
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
)

var tenantIDPattern = regexp.MustCompile(`^[a-zA-Z0-9-]{1,100}$`)

// SecurityHeaders sets the standard response headers for a JSON API that
// never serves browser content and must never be cached.
func SecurityHeaders() gin.HandlerFunc {
	headers := map[string]string{
		"X-Frame-Options":         "DENY",
		"X-Content-Type-Options":  "nosniff",
		"X-XSS-Protection":        "1; mode=block",
		"Referrer-Policy":         "strict-origin-when-cross-origin",
		"Content-Security-Policy": "default-src 'none'; frame-ancestors 'none'",
		"Cache-Control":           "no-store, no-cache, must-revalidate, private",
		"Pragma":                  "no-cache",
		"Expires":                 "0",
	}
	return func(c *gin.Context) {
		for name, value := range headers {
			c.Header(name, value)
		}
		c.Next()
	}
}

// CORSConfig defines CORS configuration
type CORSConfig struct {
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
	ExposedHeaders []string
	MaxAge         int
}

// DefaultCORSConfig returns the baseline CORS policy; origins are filled in
// from the environment at startup.
func DefaultCORSConfig() CORSConfig {
	return CORSConfig{
		AllowedOrigins: []string{},
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{
			"Authorization",
			"Content-Type",
			"X-Tenant-ID",
			"X-User-ID",
			"X-Request-ID",
		},
		ExposedHeaders: []string{
			"X-Request-ID",
			"X-Tenant-ID",
		},
		MaxAge: 86400,
	}
}

func originAllowed(origin string, allowed []string) bool {
	for _, candidate := range allowed {
		if candidate == "*" || candidate == origin {
			return true
		}
		// "*.example.com" style wildcard subdomains
		if strings.HasPrefix(candidate, "*.") && strings.HasSuffix(origin, strings.TrimPrefix(candidate, "*")) {
			return true
		}
	}
	return false
}

// CORS middleware; origins not on the allow list get no CORS headers at all.
func CORS(config CORSConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")

		if originAllowed(origin, config.AllowedOrigins) {
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Access-Control-Allow-Methods", strings.Join(config.AllowedMethods, ", "))
			c.Header("Access-Control-Allow-Headers", strings.Join(config.AllowedHeaders, ", "))
			c.Header("Access-Control-Expose-Headers", strings.Join(config.ExposedHeaders, ", "))
			c.Header("Access-Control-Allow-Credentials", "true")
			c.Header("Access-Control-Max-Age", strconv.Itoa(config.MaxAge))
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// ValidateRequest enforces a JSON body on mutating requests. Webhook
// deliveries are exempt because providers set their own content types.
func ValidateRequest() gin.HandlerFunc {
	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodPost, http.MethodPut, http.MethodPatch:
			if strings.HasPrefix(c.Request.URL.Path, "/webhooks/") {
				break
			}
			if !strings.Contains(c.GetHeader("Content-Type"), "application/json") {
				c.AbortWithStatusJSON(http.StatusUnsupportedMediaType, gin.H{
					"error":   "Unsupported media type",
					"message": "Content-Type must be application/json",
				})
				return
			}
		}

		c.Next()
	}
}

// ValidateTenantID reports whether a tenant identifier is well formed.
func ValidateTenantID(tenantID string) bool {
	return tenantID != "" && tenantIDPattern.MatchString(tenantID)
}

// IdempotencyMiddleware rejects replays of client-supplied idempotency keys.
// Ledger-level idempotency on provider refs is the real safety net; this only
// shields the API surface from accidental double submits.
func IdempotencyMiddleware() gin.HandlerFunc {
	var mu sync.Mutex
	seen := make(map[string]bool)

	return func(c *gin.Context) {
		if c.Request.Method != http.MethodPost {
			c.Next()
			return
		}

		idempotencyKey := c.GetHeader("Idempotency-Key")
		if idempotencyKey == "" {
			c.Next()
			return
		}

		cacheKey := c.GetString("tenantID") + ":" + idempotencyKey

		mu.Lock()
		duplicate := seen[cacheKey]
		mu.Unlock()
		if duplicate {
			c.AbortWithStatusJSON(http.StatusConflict, gin.H{
				"error":   "Duplicate request",
				"message": "Request with this idempotency key has already been processed",
			})
			return
		}

		c.Next()

		// Only successful outcomes consume the key; a failed attempt may retry.
		if c.Writer.Status() < 400 {
			mu.Lock()
			seen[cacheKey] = true
			mu.Unlock()
		}
	}
}

// WebhookSecurityMiddleware flags webhook requests so downstream middleware
// skips JSON content negotiation; signature verification happens in the
// handler.
func WebhookSecurityMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/webhooks/") {
			c.Set("isWebhook", true)
		}
		c.Next()
	}
}
