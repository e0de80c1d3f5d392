package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signedToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte("any-secret"))
	require.NoError(t, err)
	return signed
}

func roleFor(t *testing.T, authorization string) string {
	t.Helper()
	gin.SetMode(gin.TestMode)

	var got string
	router := gin.New()
	router.Use(CallerMiddleware())
	router.GET("/", func(c *gin.Context) {
		got = GetCallerRole(c.Request.Context())
		c.Status(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	require.Equal(t, http.StatusNoContent, resp.Code)
	return got
}

func TestCallerMiddlewareRoles(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   string
	}{
		{"no header", "", AnonymousRole},
		{"basic scheme", "Basic abc", AnonymousRole},
		{"empty bearer", "Bearer   ", AnonymousRole},
		{"opaque key", "Bearer not-a-jwt", "opaque"},
		{"anon role", "Bearer " + signedToken(t, jwt.MapClaims{"role": "anon"}), "anon"},
		{"subject only", "bearer " + signedToken(t, jwt.MapClaims{"sub": "user-1"}), "authenticated"},
		{"no claims of interest", "Bearer " + signedToken(t, jwt.MapClaims{"iss": "x"}), "opaque"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, roleFor(t, tt.header))
		})
	}
}

func TestGetCallerRoleDefaults(t *testing.T) {
	assert.Equal(t, AnonymousRole, GetCallerRole(httptest.NewRequest(http.MethodGet, "/", nil).Context()))
}
