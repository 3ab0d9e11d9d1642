package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gopherai-training/internal/pkg/jwtutil"
)

func newRouter(secret string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RoleContext(secret))
	r.GET("/whoami", func(c *gin.Context) {
		c.String(http.StatusOK, Role(c))
	})
	return r
}

func serve(r *gin.Engine, authorization string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestRoleContext(t *testing.T) {
	r := newRouter("secret")

	token, err := jwtutil.GenerateToken("secret", "u-1", "Admin", time.Minute)
	require.NoError(t, err)

	rec := serve(r, "Bearer "+token)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, jwtutil.RoleAdmin, rec.Body.String())

	rec = serve(r, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Body.String())

	rec = serve(r, "Basic abc")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	other, err := jwtutil.GenerateToken("other-secret", "u-1", jwtutil.RoleStudent, time.Minute)
	require.NoError(t, err)
	rec = serve(r, "Bearer "+other)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
