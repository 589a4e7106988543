package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTenantTestRouter(capture **TenantContext) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(TenantMiddleware())
	router.GET("/api/v1/wallet", func(c *gin.Context) {
		if capture != nil {
			*capture = GetTenantContext(c)
		}
		c.JSON(http.StatusOK, gin.H{
			"tenant":  GetTenantID(c.Request.Context()),
			"user":    GetUserID(c.Request.Context()),
			"request": GetRequestID(c.Request.Context()),
		})
	})
	return router
}

func TestTenantMiddlewarePopulatesContext(t *testing.T) {
	var tc *TenantContext
	router := newTenantTestRouter(&tc)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/wallet", nil)
	req.Header.Set("X-Tenant-ID", "t1")
	req.Header.Set("X-User-ID", "u1")
	req.Header.Set("X-Request-ID", "req-1")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, tc)
	assert.Equal(t, "t1", tc.TenantID)
	assert.Equal(t, "u1", tc.UserID)
	assert.Equal(t, "req-1", tc.RequestID)
	assert.Equal(t, "req-1", rec.Header().Get("X-Request-ID"))
}

func TestTenantMiddlewareRejectsMalformedTenantID(t *testing.T) {
	router := newTenantTestRouter(nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/wallet", nil)
	req.Header.Set("X-Tenant-ID", "no spaces;allowed")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTenantMiddlewareAssignsRequestID(t *testing.T) {
	router := newTenantTestRouter(nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/wallet", nil)
	req.Header.Set("X-Tenant-ID", "t1")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestValidateTenantID(t *testing.T) {
	assert.True(t, ValidateTenantID("tenant-123"))
	assert.False(t, ValidateTenantID(""))
	assert.False(t, ValidateTenantID("has space"))
	assert.False(t, ValidateTenantID("semi;colon"))
}

func TestRequireInternal(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RequireInternal())
	router.POST("/internal/v1/reconcile", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodPost, "/internal/v1/reconcile", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	req = httptest.NewRequest(http.MethodPost, "/internal/v1/reconcile", nil)
	req.Header.Set("X-Internal-Service", "ops-cli")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}
