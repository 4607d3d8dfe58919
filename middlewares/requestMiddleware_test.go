package middlewares

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mmdatafocus/tradeportal_backend/models"
	"github.com/mmdatafocus/tradeportal_backend/utils"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withRole(role models.UserRole, permissions ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := utils.SetUserRoleInContext(c.Request.Context(), string(role))
		ctx = utils.SetPermissionsInContext(ctx, permissions)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func serve(r *gin.Engine, method, path string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestRequirePermission(t *testing.T) {
	gin.SetMode(gin.TestMode)
	ok := func(c *gin.Context) { c.Status(http.StatusNoContent) }

	r := gin.New()
	r.GET("/owner", withRole(models.UserRoleParent), RequirePermission(models.PermUsersManage), ok)
	r.GET("/clerk", withRole(models.UserRoleAppUser, models.PermTransfersWrite), RequirePermission(models.PermTransfersRead), ok)
	r.GET("/clerk-approve", withRole(models.UserRoleAppUser, models.PermTransfersWrite), RequirePermission(models.PermTransfersApprove), ok)
	r.GET("/branch", withRole(models.UserRoleChild), RequirePermission(models.PermTransfersCreate), ok)
	r.GET("/branch-workers", withRole(models.UserRoleChild), RequirePermission(models.PermWorkersRead), ok)
	r.GET("/anonymous", RequirePermission(models.PermCompaniesRead), ok)

	cases := map[string]int{
		"/owner":          http.StatusNoContent,
		"/clerk":          http.StatusNoContent,
		"/clerk-approve":  http.StatusForbidden,
		"/branch":         http.StatusNoContent,
		"/branch-workers": http.StatusForbidden,
		"/anonymous":      http.StatusForbidden,
	}
	for path, want := range cases {
		assert.Equal(t, want, serve(r, http.MethodGet, path, nil).Code, path)
	}
}

func TestCorrelationId(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var seen string
	r := gin.New()
	r.Use(CorrelationId())
	r.GET("/", func(c *gin.Context) {
		seen, _ = utils.GetCorrelationIdFromContext(c.Request.Context())
		c.Status(http.StatusOK)
	})

	rec := serve(r, http.MethodGet, "/", map[string]string{"x-correlation-id": "req-42"})
	assert.Equal(t, "req-42", rec.Header().Get("x-correlation-id"))
	assert.Equal(t, "req-42", seen)

	rec = serve(r, http.MethodGet, "/", nil)
	require.NotEmpty(t, rec.Header().Get("x-correlation-id"))
	assert.Equal(t, rec.Header().Get("x-correlation-id"), seen)
}

func TestRateLimiterWithoutRedis(t *testing.T) {
	gin.SetMode(gin.TestMode)
	t.Setenv("RATE_LIMIT_ENABLED", "")
	assert.Nil(t, RateLimiterFromEnv())

	limiter := NewRateLimiter(func() *redis.Client { return nil }, 1, time.Minute)
	r := gin.New()
	r.Use(limiter.RateLimitMiddleware)
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/", nil).Code)
	}
}

func TestAuthMiddlewareRejectsBadTokens(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var claim *utils.JwtCustomClaim
	r := gin.New()
	r.Use(AuthMiddleware())
	r.GET("/", func(c *gin.Context) {
		claim = CtxValue(c.Request.Context())
		c.Status(http.StatusOK)
	})

	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/", nil).Code)
	assert.Nil(t, claim)

	assert.Equal(t, http.StatusUnauthorized, serve(r, http.MethodGet, "/", map[string]string{"Authorization": "Basic abc"}).Code)
	assert.Equal(t, http.StatusUnauthorized, serve(r, http.MethodGet, "/", map[string]string{"Authorization": "Bearer garbage"}).Code)

	token, err := utils.JwtGenerate(5, "P", "biz-9")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/", map[string]string{"Authorization": "Bearer " + token}).Code)
	require.NotNil(t, claim)
	assert.Equal(t, 5, claim.ID)
	assert.Equal(t, "biz-9", claim.BusinessId)
}
