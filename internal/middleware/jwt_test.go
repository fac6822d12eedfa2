package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func signedToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := tok.SignedString([]byte(secret))
	require.NoError(t, err)
	return s
}

func okHandler(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"ok": true})
}

func TestJWTAuthValidToken(t *testing.T) {
	e := echo.New()
	token := signedToken(t, testSecret, jwt.MapClaims{
		"sub":  uint64(42),
		"role": "USER",
		"exp":  time.Now().Add(time.Minute).Unix(),
	})
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var gotUser, gotRole interface{}
	h := JWTAuth(testSecret)(func(c echo.Context) error {
		gotUser = c.Get("user_id")
		gotRole = c.Get("role")
		return okHandler(c)
	})
	require.NoError(t, h(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	// MapClaims round-trips numbers as float64
	assert.Equal(t, float64(42), gotUser)
	assert.Equal(t, "USER", gotRole)
}

func TestJWTAuthMissingHeader(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	h := JWTAuth(testSecret)(okHandler)
	require.NoError(t, h(c))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestJWTAuthWrongSecret(t *testing.T) {
	e := echo.New()
	token := signedToken(t, "other-secret", jwt.MapClaims{
		"sub":  uint64(1),
		"role": "USER",
		"exp":  time.Now().Add(time.Minute).Unix(),
	})
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	h := JWTAuth(testSecret)(okHandler)
	require.NoError(t, h(c))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestJWTAuthExpiredToken(t *testing.T) {
	e := echo.New()
	token := signedToken(t, testSecret, jwt.MapClaims{
		"sub":  uint64(1),
		"role": "USER",
		"exp":  time.Now().Add(-time.Minute).Unix(),
	})
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	h := JWTAuth(testSecret)(okHandler)
	require.NoError(t, h(c))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireRole(t *testing.T) {
	tests := []struct {
		name    string
		role    interface{}
		allowed []string
		want    int
	}{
		{name: "admin allowed", role: "ADMIN", allowed: []string{"ADMIN"}, want: http.StatusOK},
		{name: "user allowed among several", role: "USER", allowed: []string{"ADMIN", "USER"}, want: http.StatusOK},
		{name: "user forbidden from admin route", role: "USER", allowed: []string{"ADMIN"}, want: http.StatusForbidden},
		{name: "missing role", role: nil, allowed: []string{"ADMIN", "USER"}, want: http.StatusForbidden},
		{name: "role of wrong type", role: 7, allowed: []string{"ADMIN", "USER"}, want: http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)
			if tt.role != nil {
				c.Set("role", tt.role)
			}
			h := RequireRole(tt.allowed...)(okHandler)
			require.NoError(t, h(c))
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}
