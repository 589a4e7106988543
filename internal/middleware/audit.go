package middleware

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// AuditLog represents a request audit log entry
type AuditLog struct {
	Timestamp  time.Time         `json:"timestamp"`
	RequestID  string            `json:"requestId"`
	TenantID   string            `json:"tenantId"`
	UserID     string            `json:"userId"`
	Method     string            `json:"method"`
	Path       string            `json:"path"`
	StatusCode int               `json:"statusCode"`
	Duration   time.Duration     `json:"duration"`
	ClientIP   string            `json:"clientIp"`
	UserAgent  string            `json:"userAgent"`
	Action     string            `json:"action,omitempty"`
	Resource   string            `json:"resource,omitempty"`
	ResourceID string            `json:"resourceId,omitempty"`
	Success    bool              `json:"success"`
	ErrorMsg   string            `json:"error,omitempty"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

// AuditLogger defines the interface for audit logging
type AuditLogger interface {
	Log(entry *AuditLog)
}

// LogrusAuditLogger writes audit entries as structured log lines.
type LogrusAuditLogger struct {
	Logger *logrus.Logger
}

func (l *LogrusAuditLogger) Log(entry *AuditLog) {
	l.Logger.WithFields(logrus.Fields{
		"component":   "http.audit",
		"request_id":  entry.RequestID,
		"tenant_id":   entry.TenantID,
		"method":      entry.Method,
		"path":        entry.Path,
		"status":      entry.StatusCode,
		"duration_ms": entry.Duration.Milliseconds(),
		"action":      entry.Action,
		"resource":    entry.Resource,
		"resource_id": entry.ResourceID,
		"success":     entry.Success,
		"metadata":    entry.Metadata,
	}).Info("Request handled")
}

// AuditMiddleware logs every money-moving request
func AuditMiddleware(logger AuditLogger) gin.HandlerFunc {
	if logger == nil {
		logger = &LogrusAuditLogger{Logger: logrus.StandardLogger()}
	}

	return func(c *gin.Context) {
		start := time.Now()

		// Read request body for audit (only for POST/PUT)
		var requestBody []byte
		if c.Request.Method == "POST" || c.Request.Method == "PUT" {
			requestBody, _ = io.ReadAll(c.Request.Body)
			c.Request.Body = io.NopCloser(bytes.NewBuffer(requestBody))
		}

		c.Next()

		entry := &AuditLog{
			Timestamp:  start,
			RequestID:  GetRequestID(c.Request.Context()),
			Method:     c.Request.Method,
			Path:       c.Request.URL.Path,
			StatusCode: c.Writer.Status(),
			Duration:   time.Since(start),
			ClientIP:   c.ClientIP(),
			UserAgent:  c.Request.UserAgent(),
			Success:    c.Writer.Status() < 400,
		}
		if tc := GetTenantContext(c); tc != nil {
			entry.TenantID = tc.TenantID
			entry.UserID = tc.UserID
		}

		entry.Action, entry.Resource, entry.ResourceID = parseWalletAction(c)

		if entry.StatusCode >= 400 {
			if errors, exists := c.Get("errors"); exists {
				entry.ErrorMsg = errors.(string)
			}
		}

		entry.Metadata = extractWalletMetadata(c, requestBody)

		logger.Log(entry)
	}
}

// parseWalletAction extracts action and resource from the request
func parseWalletAction(c *gin.Context) (action, resource, resourceID string) {
	path := c.Request.URL.Path
	method := c.Request.Method

	switch {
	case path == "/api/v1/orders" && method == "POST":
		return "create_order", "order", ""
	case matchPath(path, "/api/v1/orders/*/cancel"):
		return "cancel_order", "order", c.Param("id")
	case matchPath(path, "/api/v1/orders/*"):
		return "get_order", "order", c.Param("id")
	case path == "/api/v1/payments" && method == "POST":
		return "create_payment", "payment", ""
	case matchPath(path, "/api/v1/payments/*/complete"):
		return "complete_payment", "payment", c.Param("id")
	case matchPath(path, "/api/v1/payments/*/fail"):
		return "fail_payment", "payment", c.Param("id")
	case path == "/api/v1/payouts" && method == "POST":
		return "request_payout", "payout", ""
	case matchPath(path, "/api/v1/payouts/*/review"):
		return "review_payout", "payout", c.Param("id")
	case matchPath(path, "/api/v1/payouts/*/paid"):
		return "mark_payout_paid", "payout", c.Param("id")
	case path == "/api/v1/credentials" && method == "POST":
		return "add_credential", "credential", ""
	case matchPath(path, "/api/v1/credentials/*") && method == "PUT":
		return "toggle_credential", "credential", c.Param("id")
	case matchPath(path, "/api/v1/tenants/*/mode") && method == "PUT":
		return "set_payment_mode", "tenant_config", c.Param("tenantId")
	case matchPath(path, "/api/v1/tenants/*/payout-limit") && method == "PUT":
		return "set_payout_limit", "tenant_config", c.Param("tenantId")
	case matchPath(path, "/webhooks/*"):
		return "webhook_received", "webhook", c.Param("provider")
	default:
		return method, path, ""
	}
}

// matchPath checks if path matches a pattern with * wildcards
func matchPath(path, pattern string) bool {
	patternParts := splitPath(pattern)
	pathParts := splitPath(path)

	if len(patternParts) != len(pathParts) {
		return false
	}

	for i, part := range patternParts {
		if part != "*" && part != pathParts[i] {
			return false
		}
	}

	return true
}

func splitPath(path string) []string {
	parts := []string{}
	current := ""
	for _, c := range path {
		if c == '/' {
			if current != "" {
				parts = append(parts, current)
				current = ""
			}
		} else {
			current += string(c)
		}
	}
	if current != "" {
		parts = append(parts, current)
	}
	return parts
}

// extractWalletMetadata extracts relevant metadata from request
func extractWalletMetadata(c *gin.Context, body []byte) map[string]string {
	metadata := make(map[string]string)

	if c.Request.URL.Path == "/api/v1/orders" && len(body) > 0 {
		var req struct {
			Currency string `json:"currency"`
			Lines    []struct {
				Amount int64 `json:"amount"`
			} `json:"lines"`
		}
		if json.Unmarshal(body, &req) == nil {
			var total int64
			for _, l := range req.Lines {
				total += l.Amount
			}
			metadata["currency"] = req.Currency
			metadata["native_amount"] = fmt.Sprintf("%d", total)
		}
	}

	if c.Request.URL.Path == "/api/v1/payouts" && len(body) > 0 {
		var req struct {
			Amount  int64  `json:"amount"`
			Channel string `json:"channel"`
		}
		if json.Unmarshal(body, &req) == nil {
			metadata["amount"] = fmt.Sprintf("%d", req.Amount)
			metadata["channel"] = req.Channel
		}
	}

	return metadata
}

// SensitiveFields are fields that should be masked in logs
var SensitiveFields = []string{
	"api_key",
	"api_secret",
	"secret_key",
	"webhook_secret",
	"password",
	"card_number",
	"cvv",
	"cvc",
	"expiry",
}

// MaskSensitiveData masks sensitive fields in a map
func MaskSensitiveData(data map[string]interface{}) map[string]interface{} {
	masked := make(map[string]interface{})
	for k, v := range data {
		isSensitive := false
		for _, sf := range SensitiveFields {
			if k == sf || containsIgnoreCase(k, sf) {
				isSensitive = true
				break
			}
		}
		if isSensitive {
			masked[k] = "***MASKED***"
		} else if nestedMap, ok := v.(map[string]interface{}); ok {
			masked[k] = MaskSensitiveData(nestedMap)
		} else {
			masked[k] = v
		}
	}
	return masked
}

func containsIgnoreCase(s, substr string) bool {
	return bytes.Contains(bytes.ToLower([]byte(s)), bytes.ToLower([]byte(substr)))
}
